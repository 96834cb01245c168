package detect

import (
	"fmt"
	"time"

	"github.com/xadriann/stockwatch/internal/alert"
	"github.com/xadriann/stockwatch/internal/epcis"
)

// damagedEntry is the per-item tracking state of DamagedNotObserved.
type damagedEntry struct {
	damagedSince time.Time
	location     string
	missedCounts int
}

// DamagedNotObserved (rule 4) tracks items marked damaged and counts the
// inventory observations that happen at other locations while the item stays
// silent. Enough consecutive misses mean the physical item is likely gone.
type DamagedNotObserved struct {
	rule
	threshold int
	items     map[string]*damagedEntry
}

// NewDamagedNotObserved returns the rule-4 detector. threshold is the number
// of consecutive missed counts that triggers the alert.
func NewDamagedNotObserved(threshold int) *DamagedNotObserved {
	if threshold <= 0 {
		threshold = 2
	}
	return &DamagedNotObserved{
		rule:      rule{4, "Damaged Items Not Observed in Counts", alert.SeverityMedium},
		threshold: threshold,
		items:     make(map[string]*damagedEntry),
	}
}

func (d *DamagedNotObserved) Detect(ev *epcis.Event, ctx *Context) (*alert.Alert, error) {
	if ev.IsDamaged() && ev.Action == epcis.ActionAdd {
		for _, epc := range ev.EPCList {
			d.items[epc] = &damagedEntry{
				damagedSince: ev.EventTime,
				location:     ev.BizLocation,
			}
		}
	}

	if ev.Action != epcis.ActionObserve || ev.BizLocation == "" {
		return nil, nil
	}
	for _, epc := range ev.EPCList {
		entry, tracked := d.items[epc]
		if !tracked {
			continue
		}
		if ev.BizLocation == entry.location {
			entry.missedCounts = 0
			continue
		}
		entry.missedCounts++
		if entry.missedCounts >= d.threshold {
			return d.newAlert(ev, epc, entry.location,
				fmt.Sprintf("Damaged item not observed for %d consecutive counts", entry.missedCounts),
				map[string]any{
					"damaged_since":              entry.damagedSince.Format(time.RFC3339),
					"consecutive_counts_missing": entry.missedCounts,
				}), nil
		}
	}
	return nil, nil
}

// Tracked reports whether epc is currently in the damaged tracking map.
// Exposed for the processor's reporting surface and tests.
func (d *DamagedNotObserved) Tracked(epc string) bool {
	_, ok := d.items[epc]
	return ok
}
