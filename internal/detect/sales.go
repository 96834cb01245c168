package detect

import (
	"time"

	"github.com/xadriann/stockwatch/internal/alert"
	"github.com/xadriann/stockwatch/internal/epcis"
)

// DamagedSoldAtPOS (rule 6) keeps the live set of items currently flagged
// damaged and fires when one of them shows up in a sale.
type DamagedSoldAtPOS struct {
	rule
	damaged map[string]struct{}
}

// NewDamagedSoldAtPOS returns the rule-6 detector.
func NewDamagedSoldAtPOS() *DamagedSoldAtPOS {
	return &DamagedSoldAtPOS{
		rule:    rule{6, "Damaged Items Sold at POS", alert.SeverityCritical},
		damaged: make(map[string]struct{}),
	}
}

func (d *DamagedSoldAtPOS) Detect(ev *epcis.Event, ctx *Context) (*alert.Alert, error) {
	if ev.IsDamaged() && ev.Action == epcis.ActionAdd {
		for _, epc := range ev.EPCList {
			d.damaged[epc] = struct{}{}
		}
	}

	// The sale check runs before the set maintenance below so that a sale
	// event clearing the damaged flag still fires on the item it sells.
	if ev.IsSold() {
		for _, epc := range ev.EPCList {
			if _, flagged := d.damaged[epc]; flagged {
				return d.newAlert(ev, epc, orUnknown(ev.BizLocation),
					"Damaged item sold through point-of-sale",
					map[string]any{
						"transaction_id": ctx.TransactionID,
						"biz_step":       ev.BizStep,
						"disposition":    ev.Disposition,
					}), nil
			}
		}
	}

	// Drop the primary EPC once its disposition has left the damaged state.
	if epcis.IsDamagedDisposition(ctx.PreviousDisposition) &&
		ev.Disposition != "" && !ev.IsDamaged() {
		if epc := ev.PrimaryEPC(); epc != "" {
			delete(d.damaged, epc)
		}
	}
	return nil, nil
}

// Tracked reports whether epc is currently flagged damaged.
func (d *DamagedSoldAtPOS) Tracked(epc string) bool {
	_, ok := d.damaged[epc]
	return ok
}

// SoldReturnedDamaged (rule 9) remembers items that were sold and fires when
// an inspection later marks one of them damaged without proper return
// processing.
type SoldReturnedDamaged struct {
	rule
	sold map[string]struct{}
}

// NewSoldReturnedDamaged returns the rule-9 detector.
func NewSoldReturnedDamaged() *SoldReturnedDamaged {
	return &SoldReturnedDamaged{
		rule: rule{9, "Sold Items Returned as Damaged", alert.SeverityHigh},
		sold: make(map[string]struct{}),
	}
}

func (d *SoldReturnedDamaged) Detect(ev *epcis.Event, ctx *Context) (*alert.Alert, error) {
	if ev.IsSold() && ev.Action == epcis.ActionAdd {
		for _, epc := range ev.EPCList {
			d.sold[epc] = struct{}{}
		}
	}

	if !ev.IsInspection() || !ev.IsDamaged() || ev.Action != epcis.ActionAdd {
		return nil, nil
	}
	for _, epc := range ev.EPCList {
		if _, wasSold := d.sold[epc]; wasSold {
			return d.newAlert(ev, epc, orUnknown(ev.BizLocation),
				"Sold item incorrectly returned as damaged without proper return processing",
				map[string]any{
					"previous_status":            "Sold",
					"requires_return_processing": true,
					"biz_step":                   ev.BizStep,
				}), nil
		}
	}
	return nil, nil
}

// Tracked reports whether epc is in the sold set.
func (d *SoldReturnedDamaged) Tracked(epc string) bool {
	_, ok := d.sold[epc]
	return ok
}

// DoubleStockDeduction (rule 11) fires when an item is sold within a day of
// being marked damaged: the write-off and the sale deduct the same unit from
// stock twice.
type DoubleStockDeduction struct {
	rule
	retention time.Duration
	damagedAt map[string]time.Time
}

// NewDoubleStockDeduction returns the rule-11 detector.
func NewDoubleStockDeduction() *DoubleStockDeduction {
	return &DoubleStockDeduction{
		rule:      rule{11, "Double Stock Deduction", alert.SeverityCritical},
		retention: 24 * time.Hour,
		damagedAt: make(map[string]time.Time),
	}
}

func (d *DoubleStockDeduction) Detect(ev *epcis.Event, ctx *Context) (*alert.Alert, error) {
	if ev.IsInspection() && ev.IsDamaged() && ev.Action == epcis.ActionAdd {
		for _, epc := range ev.EPCList {
			d.damagedAt[epc] = ev.EventTime
		}
	}

	var fired *alert.Alert
	if ev.IsSold() {
		for _, epc := range ev.EPCList {
			damagedTime, tracked := d.damagedAt[epc]
			if !tracked {
				continue
			}
			if gap := ev.EventTime.Sub(damagedTime); gap < d.retention {
				fired = d.newAlert(ev, epc, orUnknown(ev.BizLocation),
					"Item both marked damaged and sold, causing double stock deduction",
					map[string]any{
						"damaged_at":         damagedTime.Format(time.RFC3339),
						"sold_at":            ev.EventTime.Format(time.RFC3339),
						"time_between_hours": gap.Hours(),
						"biz_step":           ev.BizStep,
					})
				break
			}
		}
	}

	// Retention window pruned on every call.
	cutoff := ev.EventTime.Add(-d.retention)
	for epc, ts := range d.damagedAt {
		if !ts.After(cutoff) {
			delete(d.damagedAt, epc)
		}
	}
	return fired, nil
}

// Tracked reports whether epc is inside the retention window.
func (d *DoubleStockDeduction) Tracked(epc string) bool {
	_, ok := d.damagedAt[epc]
	return ok
}
