package detect

import (
	"fmt"

	"github.com/xadriann/stockwatch/internal/alert"
	"github.com/xadriann/stockwatch/internal/epcis"
)

// DamagedInShipment (rule 1) fires when a damaged item is added to a regular
// outbound shipment. Return shipments declare the owning party as a
// destination; anything else should not carry damaged stock.
type DamagedInShipment struct {
	rule
}

// NewDamagedInShipment returns the rule-1 detector.
func NewDamagedInShipment() *DamagedInShipment {
	return &DamagedInShipment{rule{1, "Damaged Items in Regular Shipments", alert.SeverityHigh}}
}

func (d *DamagedInShipment) Detect(ev *epcis.Event, ctx *Context) (*alert.Alert, error) {
	if !ev.IsShipment() || !ev.IsDamaged() || ev.Action != epcis.ActionAdd {
		return nil, nil
	}
	epc := ev.PrimaryEPC()
	if epc == "" || ev.BizLocation == "" {
		return nil, nil
	}
	for _, dest := range ev.DestinationList {
		if dest.Type == epcis.SDTOwningParty {
			return nil, nil // flagged return shipment
		}
	}
	return d.newAlert(ev, epc, ev.BizLocation,
		"Damaged item added to regular shipment",
		map[string]any{
			"biz_step":    ev.BizStep,
			"disposition": ev.Disposition,
			"expected":    "Return shipment for damaged items",
		}), nil
}

// PersistentDamagedReceiving (rule 2) fires when an item arrives at receiving
// still carrying the damaged status it was supposed to shed before re-entry.
type PersistentDamagedReceiving struct {
	rule
}

// NewPersistentDamagedReceiving returns the rule-2 detector.
func NewPersistentDamagedReceiving() *PersistentDamagedReceiving {
	return &PersistentDamagedReceiving{rule{2, "Persistent Damaged Status Through Receiving", alert.SeverityMedium}}
}

func (d *PersistentDamagedReceiving) Detect(ev *epcis.Event, ctx *Context) (*alert.Alert, error) {
	if !ev.IsReceiving() || !ev.IsDamaged() {
		return nil, nil
	}
	epc := ev.PrimaryEPC()
	if epc == "" || ev.BizLocation == "" || ctx.PreviousDisposition == "" {
		return nil, nil
	}
	if !epcis.IsDamagedDisposition(ctx.PreviousDisposition) {
		return nil, nil
	}
	return d.newAlert(ev, epc, ev.BizLocation,
		"Item received with damaged status that wasn't cleared",
		map[string]any{
			"previous_disposition": ctx.PreviousDisposition,
			"current_disposition":  ev.Disposition,
			"biz_step":             ev.BizStep,
		}), nil
}

// releasedDispositions is the fixed set of statuses that put an item back
// into circulation.
var releasedDispositions = map[string]struct{}{
	epcis.DispSellableAccessible:    {},
	epcis.DispSellableNotAccessible: {},
	epcis.DispActive:                {},
}

// defaultReleaseSteps is the CBV disposition→bizstep mapping used when the
// configuration does not override it.
var defaultReleaseSteps = map[string][]string{
	epcis.DispSellableNotAccessible: {epcis.StepReceiving, epcis.StepUnpacking, epcis.StepCycleCounting},
	epcis.DispSellableAccessible:    {epcis.StepReceiving, epcis.StepUnpacking, epcis.StepStocking, epcis.StepRetailSelling, epcis.StepCycleCounting},
	epcis.DispActive:                {epcis.StepCommissioning},
}

// ReleasedOutsideExpectedStep (rule 3) watches the configured business steps
// for each released disposition, flagging release events happening during
// those steps for review.
type ReleasedOutsideExpectedStep struct {
	rule
	steps map[string]map[string]struct{} // disposition -> watched bizsteps
}

// NewReleasedOutsideExpectedStep returns the rule-3 detector. releaseSteps
// maps a disposition URN to its target business steps; nil or empty selects
// the built-in CBV mapping.
func NewReleasedOutsideExpectedStep(releaseSteps map[string][]string) *ReleasedOutsideExpectedStep {
	if len(releaseSteps) == 0 {
		releaseSteps = defaultReleaseSteps
	}
	steps := make(map[string]map[string]struct{}, len(releaseSteps))
	for disp, list := range releaseSteps {
		set := make(map[string]struct{}, len(list))
		for _, s := range list {
			set[s] = struct{}{}
		}
		steps[disp] = set
	}
	return &ReleasedOutsideExpectedStep{
		rule:  rule{3, "Status Released Outside Expected Step", alert.SeverityHigh},
		steps: steps,
	}
}

func (d *ReleasedOutsideExpectedStep) Detect(ev *epcis.Event, ctx *Context) (*alert.Alert, error) {
	if _, released := releasedDispositions[ev.Disposition]; !released {
		return nil, nil
	}
	watched, ok := d.steps[ev.Disposition]
	if !ok {
		return nil, nil
	}
	if _, hit := watched[ev.BizStep]; !hit {
		return nil, nil
	}
	epc := ev.PrimaryEPC()
	if epc == "" || ev.BizLocation == "" {
		return nil, nil
	}
	return d.newAlert(ev, epc, ev.BizLocation,
		fmt.Sprintf("Item released to %s during %s", ev.Disposition, ev.BizStep),
		map[string]any{
			"disposition":       ev.Disposition,
			"biz_step":          ev.BizStep,
			"is_bulk_operation": ctx.IsBulk,
		}), nil
}

// RetailSoldInCycleCount (rule 12) fires when a cycle count records an item
// as retail-sold: counts adjust stock, they never sell it.
type RetailSoldInCycleCount struct {
	rule
}

// NewRetailSoldInCycleCount returns the rule-12 detector.
func NewRetailSoldInCycleCount() *RetailSoldInCycleCount {
	return &RetailSoldInCycleCount{rule{12, "Retail Sold During Cycle Count", alert.SeverityHigh}}
}

func (d *RetailSoldInCycleCount) Detect(ev *epcis.Event, ctx *Context) (*alert.Alert, error) {
	if ev.Disposition != epcis.DispRetailSold || ev.BizStep != epcis.StepCycleCounting {
		return nil, nil
	}
	epc := ev.PrimaryEPC()
	if epc == "" {
		return nil, nil
	}
	return d.newAlert(ev, epc, orUnknown(ev.BizLocation),
		"Item marked retail sold during a cycle count",
		map[string]any{
			"disposition": ev.Disposition,
			"biz_step":    ev.BizStep,
			"read_point":  ev.ReadPoint,
		}), nil
}
