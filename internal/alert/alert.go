// Package alert defines the misuse finding record produced by the detectors.
package alert

import (
	"fmt"
	"time"
)

// Severity ranks how urgent a finding is.
type Severity string

const (
	SeverityCritical Severity = "Critical"
	SeverityHigh     Severity = "High"
	SeverityMedium   Severity = "Medium"
	SeverityLow      Severity = "Low"
)

// Valid reports whether s is one of the four known severities.
func (s Severity) Valid() bool {
	switch s {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow:
		return true
	}
	return false
}

// Alert is one misuse finding. The ID is deterministic: the same rule firing
// on the same source event always produces the same ID.
type Alert struct {
	ID          string         `json:"alert_id"`
	RuleID      int            `json:"rule_id"`
	RuleName    string         `json:"rule_name"`
	Severity    Severity       `json:"severity"`
	Timestamp   time.Time      `json:"timestamp"`
	EPC         string         `json:"epc"`
	Location    string         `json:"location"`
	Description string         `json:"description"`
	Details     map[string]any `json:"details,omitempty"`
	Resolved    bool           `json:"resolved"`
	ResolvedAt  *time.Time     `json:"resolved_at,omitempty"`
	EventID     string         `json:"event_id,omitempty"`
}

// MakeID derives the deterministic alert ID from a rule ID and the source
// event ID.
func MakeID(ruleID int, eventID string) string {
	return fmt.Sprintf("R%d_%s", ruleID, eventID)
}
