package epcis

// EventType discriminates the four EPCIS event kinds.
type EventType string

const (
	ObjectEvent         EventType = "object_event"
	AggregationEvent    EventType = "aggregation_event"
	TransactionEvent    EventType = "transaction_event"
	TransformationEvent EventType = "transformation_event"
)

// Action is the EPCIS action qualifier.
type Action string

const (
	ActionAdd     Action = "ADD"
	ActionObserve Action = "OBSERVE"
	ActionDelete  Action = "DELETE"
)

// CBV standard disposition URNs.
const (
	DispDamaged               = "urn:epcglobal:cbv:disp:damaged"
	DispSellableAccessible    = "urn:epcglobal:cbv:disp:sellable_accessible"
	DispSellableNotAccessible = "urn:epcglobal:cbv:disp:sellable_not_accessible"
	DispInTransit             = "urn:epcglobal:cbv:disp:in_transit"
	DispRetailSold            = "urn:epcglobal:cbv:disp:retail_sold"
	DispActive                = "urn:epcglobal:cbv:disp:active"
	DispNonSellableOther      = "urn:epcglobal:cbv:disp:non_sellable_other"
	DispUnknown               = "urn:epcglobal:cbv:disp:unknown"
)

// Vendor-specific disposition URNs seen on the iD Cloud platform.
const (
	DispOnlineSold     = "http://nedapretail.com/disp/online_sold"
	DispFaulty         = "http://nedapretail.com/disp/faulty"
	DispMissingArticle = "http://nedapretail.com/disp/missing_article"
	DispCustomized     = "http://nedapretail.com/disp/customized"
	DispHemming        = "http://nedapretail.com/disp/hemming"
	DispOnDisplay      = "http://nedapretail.com/disp/on_display"
	DispReceivedOrder  = "http://nedapretail.com/disp/received_order"
	DispLent           = "http://nedapretail.com/disp/lent"
	DispRetailReserved = "http://nedapretail.com/disp/retail_reserved"
)

// CBV business step URNs.
const (
	StepCommissioning = "urn:epcglobal:cbv:bizstep:commissioning"
	StepInspecting    = "urn:epcglobal:cbv:bizstep:inspecting"
	StepShipping      = "urn:epcglobal:cbv:bizstep:shipping"
	StepReceiving     = "urn:epcglobal:cbv:bizstep:receiving"
	StepRetailSelling = "urn:epcglobal:cbv:bizstep:retail_selling"
	StepStoring       = "urn:epcglobal:cbv:bizstep:storing"
	StepStocking      = "urn:epcglobal:cbv:bizstep:stocking"
	StepHolding       = "urn:epcglobal:cbv:bizstep:holding"
	StepCycleCounting = "urn:epcglobal:cbv:bizstep:cycle_counting"
	StepUnpacking     = "urn:epcglobal:cbv:bizstep:unpacking"
)

// Vendor-specific business step URNs.
const (
	StepCustomizing     = "http://nedapretail.com/bizstep/customizing"
	StepDisplaying      = "http://nedapretail.com/bizstep/displaying"
	StepLending         = "http://nedapretail.com/bizstep/lending"
	StepRetailReserving = "http://nedapretail.com/bizstep/retail_reserving"
)

// Source/destination and business transaction type URNs used by the detectors.
const (
	SDTOwningParty = "urn:epcglobal:cbv:sdt:owning_party"
	SDTLocation    = "urn:epcglobal:cbv:sdt:location"
	BTTInvoice     = "urn:epcglobal:cbv:btt:inv"
)

// IsDamagedDisposition reports whether disp is the damaged status.
func IsDamagedDisposition(disp string) bool {
	return disp == DispDamaged
}

// IsSoldDisposition reports whether disp records a completed sale.
func IsSoldDisposition(disp string) bool {
	return disp == DispRetailSold || disp == DispOnlineSold
}

// IsSellableDisposition reports whether disp marks the item as sellable stock.
func IsSellableDisposition(disp string) bool {
	return disp == DispSellableAccessible || disp == DispSellableNotAccessible
}
