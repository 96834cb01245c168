package detect

import (
	"fmt"

	"github.com/xadriann/stockwatch/internal/alert"
	"github.com/xadriann/stockwatch/internal/epcis"
)

// Sublocation type names as reported by the store classifier.
const (
	SublocationSalesFloor = "sales_floor"
	SublocationStockroom  = "stockroom"
)

// SublocationDisposition (rules 7 and 8) flags dispositions that make no
// sense for the sublocation type an event's read point resolves to. It is
// instantiated once per sublocation type with a fixed denylist and no-ops
// silently when no classifier is available.
type SublocationDisposition struct {
	rule
	classifier      SublocationClassifier
	sublocationType string
	denied          map[string]struct{}
}

// NewSalesFloorDisposition returns the rule-7 detector: damaged-family
// dispositions have no business being on the sales floor.
func NewSalesFloorDisposition(classifier SublocationClassifier) *SublocationDisposition {
	return &SublocationDisposition{
		rule:            rule{7, "Invalid Disposition on Sales Floor", alert.SeverityMedium},
		classifier:      classifier,
		sublocationType: SublocationSalesFloor,
		denied: map[string]struct{}{
			epcis.DispDamaged:          {},
			epcis.DispFaulty:           {},
			epcis.DispNonSellableOther: {},
		},
	}
}

// NewStockroomDisposition returns the rule-8 detector: customer-facing
// dispositions recorded in the stockroom point at mislabelled stock.
func NewStockroomDisposition(classifier SublocationClassifier) *SublocationDisposition {
	return &SublocationDisposition{
		rule:            rule{8, "Invalid Disposition in Stockroom", alert.SeverityMedium},
		classifier:      classifier,
		sublocationType: SublocationStockroom,
		denied: map[string]struct{}{
			epcis.DispSellableAccessible: {},
			epcis.DispOnDisplay:          {},
		},
	}
}

func (d *SublocationDisposition) Detect(ev *epcis.Event, ctx *Context) (*alert.Alert, error) {
	if d.classifier == nil {
		return nil, nil // classifier unavailable: feature disabled
	}
	if _, deny := d.denied[ev.Disposition]; !deny {
		return nil, nil
	}
	// Read points identify sublocations; fall back to the business location.
	locationID := ev.ReadPoint
	if locationID == "" {
		locationID = ev.BizLocation
	}
	if locationID == "" {
		return nil, nil
	}
	subType, known := d.classifier.Lookup(locationID)
	if !known || subType != d.sublocationType {
		return nil, nil
	}
	epc := ev.PrimaryEPC()
	if epc == "" {
		return nil, nil
	}
	return d.newAlert(ev, epc, orUnknown(ev.BizLocation),
		fmt.Sprintf("Disposition %s recorded in %s", ev.Disposition, d.sublocationType),
		map[string]any{
			"disposition":      ev.Disposition,
			"sublocation_type": subType,
			"read_point":       ev.ReadPoint,
			"biz_step":         ev.BizStep,
		}), nil
}
