// Package report summarizes the processor's alert and event history into
// dashboard structures and a JSON monitoring report.
package report

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/xadriann/stockwatch/internal/alert"
	"github.com/xadriann/stockwatch/internal/processor"
)

// ruleCount is the number of detection rules in the battery.
const ruleCount = 12

// Dashboard reads the processor's history. It must be driven from the same
// goroutine that owns the processor.
type Dashboard struct {
	proc *processor.Processor
	now  func() time.Time
}

// New creates a Dashboard over proc.
func New(proc *processor.Processor) *Dashboard {
	return &Dashboard{proc: proc, now: time.Now}
}

// RecentAlert is the trimmed alert view used in summaries.
type RecentAlert struct {
	AlertID   string    `json:"alert_id"`
	RuleName  string    `json:"rule_name"`
	Severity  string    `json:"severity"`
	Location  string    `json:"location"`
	Timestamp time.Time `json:"timestamp"`
}

// Summary aggregates the current alert state. Counts are over unresolved
// alerts except TotalAlerts, which covers everything ever raised.
type Summary struct {
	TotalAlerts      int            `json:"total_alerts"`
	UnresolvedAlerts int            `json:"unresolved_alerts"`
	BySeverity       map[string]int `json:"by_severity"`
	ByRule           map[int]int    `json:"by_rule"`
	ByLocation       map[string]int `json:"by_location"`
	RecentAlerts     []RecentAlert  `json:"recent_alerts"`
}

// AlertSummary builds the current Summary. Recent alerts are the ten newest
// unresolved ones.
func (d *Dashboard) AlertSummary() Summary {
	all := d.proc.Alerts()
	unresolved := d.proc.UnresolvedAlerts()

	s := Summary{
		TotalAlerts:      len(all),
		UnresolvedAlerts: len(unresolved),
		BySeverity:       make(map[string]int),
		ByRule:           make(map[int]int),
		ByLocation:       make(map[string]int),
	}
	for _, a := range unresolved {
		s.BySeverity[string(a.Severity)]++
		s.ByRule[a.RuleID]++
		s.ByLocation[a.Location]++
	}

	sorted := make([]*alert.Alert, len(unresolved))
	copy(sorted, unresolved)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.After(sorted[j].Timestamp)
	})
	if len(sorted) > 10 {
		sorted = sorted[:10]
	}
	for _, a := range sorted {
		s.RecentAlerts = append(s.RecentAlerts, RecentAlert{
			AlertID:   a.ID,
			RuleName:  a.RuleName,
			Severity:  string(a.Severity),
			Location:  a.Location,
			Timestamp: a.Timestamp,
		})
	}
	return s
}

// RuleStats holds per-rule detection and resolution counts.
type RuleStats struct {
	TotalDetections int     `json:"total_detections"`
	Unresolved      int     `json:"unresolved"`
	Resolved        int     `json:"resolved"`
	ResolutionRate  float64 `json:"resolution_rate"`
}

// RulePerformance reports stats for every rule in the battery, including
// rules that never fired.
func (d *Dashboard) RulePerformance() map[int]RuleStats {
	stats := make(map[int]RuleStats, ruleCount)
	for ruleID := 1; ruleID <= ruleCount; ruleID++ {
		ruleAlerts := d.proc.AlertsByRule(ruleID)
		unresolved := 0
		for _, a := range ruleAlerts {
			if !a.Resolved {
				unresolved++
			}
		}
		rs := RuleStats{
			TotalDetections: len(ruleAlerts),
			Unresolved:      unresolved,
			Resolved:        len(ruleAlerts) - unresolved,
		}
		if rs.TotalDetections > 0 {
			rs.ResolutionRate = float64(rs.Resolved) / float64(rs.TotalDetections)
		}
		stats[ruleID] = rs
	}
	return stats
}

// LocationRank holds per-location unresolved alert counts.
type LocationRank struct {
	Location       string `json:"location"`
	TotalAlerts    int    `json:"total_alerts"`
	CriticalAlerts int    `json:"critical_alerts"`
	HighAlerts     int    `json:"high_alerts"`
	MediumAlerts   int    `json:"medium_alerts"`
	LowAlerts      int    `json:"low_alerts"`
}

// LocationRankings lists locations by unresolved alert volume, worst first.
// Ties break on location name so the order is stable.
func (d *Dashboard) LocationRankings() []LocationRank {
	byLoc := make(map[string]*LocationRank)
	for _, a := range d.proc.UnresolvedAlerts() {
		r, ok := byLoc[a.Location]
		if !ok {
			r = &LocationRank{Location: a.Location}
			byLoc[a.Location] = r
		}
		r.TotalAlerts++
		switch a.Severity {
		case alert.SeverityCritical:
			r.CriticalAlerts++
		case alert.SeverityHigh:
			r.HighAlerts++
		case alert.SeverityMedium:
			r.MediumAlerts++
		default:
			r.LowAlerts++
		}
	}

	ranks := make([]LocationRank, 0, len(byLoc))
	for _, r := range byLoc {
		ranks = append(ranks, *r)
	}
	sort.Slice(ranks, func(i, j int) bool {
		if ranks[i].TotalAlerts != ranks[j].TotalAlerts {
			return ranks[i].TotalAlerts > ranks[j].TotalAlerts
		}
		return ranks[i].Location < ranks[j].Location
	})
	return ranks
}

// StoreDayMetrics counts a store's alerts for one calendar day, keyed by the
// rules the store teams act on.
type StoreDayMetrics struct {
	Location           string    `json:"location"`
	Date               time.Time `json:"date"`
	DamagedAssignments int       `json:"damaged_assignments"`
	DamagedInShipments int       `json:"damaged_in_shipments"`
	DamagedSold        int       `json:"damaged_sold"`
	DamagedNotObserved int       `json:"damaged_not_observed"`
	Anomalies          []string  `json:"anomalies"`
}

// StoreMetrics builds the day view for one location. A zero date means today.
func (d *Dashboard) StoreMetrics(location string, date time.Time) StoreDayMetrics {
	if date.IsZero() {
		date = d.now()
	}
	y, mo, dy := date.Date()

	m := StoreDayMetrics{Location: location, Date: date}
	for _, a := range d.proc.AlertsByLocation(location) {
		ay, amo, ady := a.Timestamp.Date()
		if ay != y || amo != mo || ady != dy {
			continue
		}
		switch a.RuleID {
		case 5:
			m.DamagedAssignments++
		case 1:
			m.DamagedInShipments++
		case 6:
			m.DamagedSold++
		case 4:
			m.DamagedNotObserved++
		}
	}

	if m.DamagedSold > 0 {
		m.Anomalies = append(m.Anomalies, "Damaged items sold at POS")
	}
	if m.DamagedInShipments > 0 {
		m.Anomalies = append(m.Anomalies, "Damaged items in regular shipments")
	}
	if m.DamagedAssignments > 0 {
		m.Anomalies = append(m.Anomalies, "High volume of damaged assignments")
	}
	return m
}

// ShipmentMetrics aggregates damaged-while-shipping activity for one store.
type ShipmentMetrics struct {
	Location          string     `json:"location"`
	TotalEPCsAffected int        `json:"total_epcs_affected"`
	TotalEPCsLastWeek int        `json:"total_epcs_last_week"`
	EventsCount       int        `json:"events_count"`
	EventsLastWeek    int        `json:"events_last_week"`
	FirstOccurrence   *time.Time `json:"first_occurrence,omitempty"`
	LastOccurrence    *time.Time `json:"last_occurrence,omitempty"`
}

// ShipmentMetricsByStore scans the processed-event history for damaged items
// leaving in shipments and aggregates unique EPCs per store. weekStart bounds
// the "last week" figures; zero means seven days before now.
func (d *Dashboard) ShipmentMetricsByStore(weekStart time.Time) map[string]*ShipmentMetrics {
	if weekStart.IsZero() {
		weekStart = d.now().UTC().Add(-7 * 24 * time.Hour)
	}

	out := make(map[string]*ShipmentMetrics)
	epcsAll := make(map[string]map[string]struct{})
	epcsWeek := make(map[string]map[string]struct{})

	for _, ev := range d.proc.Events() {
		if !ev.IsShipment() || !ev.IsDamaged() {
			continue
		}
		loc := ev.Location()
		if loc == "" {
			continue
		}
		m, ok := out[loc]
		if !ok {
			m = &ShipmentMetrics{Location: loc}
			out[loc] = m
			epcsAll[loc] = make(map[string]struct{})
			epcsWeek[loc] = make(map[string]struct{})
		}

		t := ev.EventTime.UTC()
		inWeek := !t.Before(weekStart)

		for _, epc := range ev.EPCList {
			epcsAll[loc][epc] = struct{}{}
			if inWeek {
				epcsWeek[loc][epc] = struct{}{}
			}
		}
		m.EventsCount++
		if inWeek {
			m.EventsLastWeek++
		}
		if m.FirstOccurrence == nil || t.Before(*m.FirstOccurrence) {
			first := t
			m.FirstOccurrence = &first
		}
		if m.LastOccurrence == nil || t.After(*m.LastOccurrence) {
			last := t
			m.LastOccurrence = &last
		}
	}

	for loc, m := range out {
		m.TotalEPCsAffected = len(epcsAll[loc])
		m.TotalEPCsLastWeek = len(epcsWeek[loc])
	}
	return out
}

// TopIssue names a rule with unresolved alerts in the full report.
type TopIssue struct {
	RuleID   int    `json:"rule_id"`
	RuleName string `json:"rule_name"`
	Count    int    `json:"count"`
}

// Report is the full monitoring report document.
type Report struct {
	GeneratedAt      time.Time         `json:"generated_at"`
	Summary          Summary           `json:"summary"`
	RulePerformance  map[int]RuleStats `json:"rule_performance"`
	LocationRankings []LocationRank    `json:"location_rankings"`
	TopIssues        []TopIssue        `json:"top_issues"`
}

// Generate assembles the full report.
func (d *Dashboard) Generate() Report {
	perf := d.RulePerformance()
	var issues []TopIssue
	for ruleID := 1; ruleID <= ruleCount; ruleID++ {
		if stats := perf[ruleID]; stats.Unresolved > 0 {
			issues = append(issues, TopIssue{
				RuleID:   ruleID,
				RuleName: ruleName(ruleID, d.proc.AlertsByRule(ruleID)),
				Count:    stats.Unresolved,
			})
		}
	}
	return Report{
		GeneratedAt:      d.now(),
		Summary:          d.AlertSummary(),
		RulePerformance:  perf,
		LocationRankings: d.LocationRankings(),
		TopIssues:        issues,
	}
}

// GenerateJSON renders the full report as indented JSON.
func (d *Dashboard) GenerateJSON() ([]byte, error) {
	data, err := json.MarshalIndent(d.Generate(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding report: %w", err)
	}
	return data, nil
}

// ruleName takes the rule name from any of its alerts, falling back to the
// numeric label when a rule never fired.
func ruleName(ruleID int, alerts []*alert.Alert) string {
	if len(alerts) > 0 {
		return alerts[0].RuleName
	}
	return fmt.Sprintf("Rule %d", ruleID)
}
