package detect

import (
	"fmt"
	"time"

	"github.com/xadriann/stockwatch/internal/alert"
	"github.com/xadriann/stockwatch/internal/epcis"
)

// HighVolumeDamaged (rule 5) keeps a sliding window of damaged assignments
// per location and compares the window count against an exponential moving
// average of past counts. A location's very first assignment seeds the
// average instead of firing.
type HighVolumeDamaged struct {
	rule
	multiplier float64
	window     time.Duration
	perLoc     map[string][]time.Time
	average    map[string]float64
}

// NewHighVolumeDamaged returns the rule-5 detector. multiplier scales the
// historical average into the firing threshold; windowHours bounds the
// sliding window.
func NewHighVolumeDamaged(multiplier float64, windowHours int) *HighVolumeDamaged {
	if multiplier <= 0 {
		multiplier = 2.0
	}
	if windowHours <= 0 {
		windowHours = 24
	}
	return &HighVolumeDamaged{
		rule:       rule{5, "High Volume of Damaged Assignments", alert.SeverityMedium},
		multiplier: multiplier,
		window:     time.Duration(windowHours) * time.Hour,
		perLoc:     make(map[string][]time.Time),
		average:    make(map[string]float64),
	}
}

func (d *HighVolumeDamaged) Detect(ev *epcis.Event, ctx *Context) (*alert.Alert, error) {
	if !ev.IsInspection() || !ev.IsDamaged() || ev.Action != epcis.ActionAdd {
		return nil, nil
	}
	loc := ev.BizLocation
	if loc == "" {
		return nil, nil
	}

	now := ev.EventTime
	cutoff := now.Add(-d.window)
	kept := d.perLoc[loc][:0]
	for _, ts := range d.perLoc[loc] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	// One window entry per EPC in the event.
	for range ev.EPCList {
		kept = append(kept, now)
	}
	d.perLoc[loc] = kept
	currentCount := len(kept)

	avg, seen := d.average[loc]
	if !seen {
		// First sighting of the location seeds the average.
		d.average[loc] = float64(currentCount)
		return nil, nil
	}

	threshold := avg * d.multiplier
	if float64(currentCount) > threshold {
		epc := ev.PrimaryEPC()
		if epc == "" {
			epc = "multiple"
		}
		return d.newAlert(ev, epc, loc,
			fmt.Sprintf("Unusual spike in damaged assignments: %d vs avg %.1f", currentCount, avg),
			map[string]any{
				"current_count":      currentCount,
				"historical_average": avg,
				"threshold":          threshold,
				"window_hours":       int(d.window / time.Hour),
				"num_items_in_event": len(ev.EPCList),
			}), nil
	}

	// Average moves only on evaluations that do not fire.
	d.average[loc] = avg*0.9 + float64(currentCount)*0.1
	return nil, nil
}
