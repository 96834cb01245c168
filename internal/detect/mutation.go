package detect

import (
	"time"

	"github.com/xadriann/stockwatch/internal/alert"
	"github.com/xadriann/stockwatch/internal/epcis"
)

// mutationEntry records one damaged assignment awaiting its stock mutation.
type mutationEntry struct {
	epc       string
	damagedAt time.Time
	location  string
	eventID   string
	cleared   bool
}

// DamagedWithoutStockMutation (rule 10) tracks damaged assignments and
// expects a stock mutation (a DELETE action) to follow within the timeout.
// Every processed event triggers a scan over the tracked items in insertion
// order; the first one found overdue produces the alert for this call and
// stays tracked. One alert per call is deliberate: the scan-and-return-first
// behavior is part of the rule's contract.
type DamagedWithoutStockMutation struct {
	rule
	timeout time.Duration
	order   []*mutationEntry
	byEPC   map[string]*mutationEntry
}

// NewDamagedWithoutStockMutation returns the rule-10 detector.
func NewDamagedWithoutStockMutation(timeoutMinutes int) *DamagedWithoutStockMutation {
	if timeoutMinutes <= 0 {
		timeoutMinutes = 30
	}
	return &DamagedWithoutStockMutation{
		rule:    rule{10, "Damaged Without Stock Mutation", alert.SeverityMedium},
		timeout: time.Duration(timeoutMinutes) * time.Minute,
		byEPC:   make(map[string]*mutationEntry),
	}
}

func (d *DamagedWithoutStockMutation) Detect(ev *epcis.Event, ctx *Context) (*alert.Alert, error) {
	if ev.IsInspection() && ev.IsDamaged() && ev.Action == epcis.ActionAdd {
		for _, epc := range ev.EPCList {
			if prev, tracked := d.byEPC[epc]; tracked {
				prev.cleared = true
			}
			entry := &mutationEntry{
				epc:       epc,
				damagedAt: ev.EventTime,
				location:  ev.BizLocation,
				eventID:   ev.ID,
			}
			d.byEPC[epc] = entry
			d.order = append(d.order, entry)
		}
	}

	if ev.Action == epcis.ActionDelete {
		for _, epc := range ev.EPCList {
			if entry, tracked := d.byEPC[epc]; tracked {
				entry.cleared = true
				delete(d.byEPC, epc)
			}
		}
	}

	d.compact()

	now := ev.EventTime
	for _, entry := range d.order {
		if entry.cleared {
			continue
		}
		age := now.Sub(entry.damagedAt)
		if age > d.timeout {
			a := d.newAlert(ev, entry.epc, orUnknown(entry.location),
				"Damaged status assigned without corresponding stock adjustment",
				map[string]any{
					"damaged_assigned_at":           entry.damagedAt.Format(time.RFC3339),
					"time_since_assignment_minutes": age.Minutes(),
				})
			// Reference the event that assigned the damaged status, not the
			// event that happened to trigger the scan.
			a.EventID = entry.eventID
			return a, nil
		}
	}
	return nil, nil
}

// compact drops cleared entries from the scan order once they pile up.
func (d *DamagedWithoutStockMutation) compact() {
	cleared := 0
	for _, e := range d.order {
		if e.cleared {
			cleared++
		}
	}
	if cleared == 0 || cleared < len(d.order)/2 {
		return
	}
	kept := d.order[:0]
	for _, e := range d.order {
		if !e.cleared {
			kept = append(kept, e)
		}
	}
	d.order = kept
}

// Tracked reports whether epc has an uncleared damaged assignment.
func (d *DamagedWithoutStockMutation) Tracked(epc string) bool {
	_, ok := d.byEPC[epc]
	return ok
}
