package epcis

import "time"

// BizTransaction is one entry of an event's business transaction list.
type BizTransaction struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// SourceDest is one entry of a source or destination list.
// The API uses "source"/"destination" keys for the ID depending on the list.
type SourceDest struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// Quantity is one entry of a quantity list (class-level counts).
type Quantity struct {
	EPCClass string  `json:"epc_class"`
	Quantity float64 `json:"quantity"`
	UOM      string  `json:"uom,omitempty"`
}

// Event is the canonical input model for all incoming EPCIS events.
// Events are immutable once parsed; the processor never mutates them.
type Event struct {
	ID             string    `json:"id"`
	Type           EventType `json:"type"`
	Action         Action    `json:"action"`
	EventTime      time.Time `json:"event_time"`
	TimeZoneOffset string    `json:"event_time_zone_offset,omitempty"`
	RecordTime     time.Time `json:"record_time,omitempty"`

	Disposition string `json:"disposition,omitempty"`
	BizStep     string `json:"biz_step,omitempty"`
	BizLocation string `json:"biz_location,omitempty"`
	ReadPoint   string `json:"read_point,omitempty"`

	EPCList            []string         `json:"epc_list"`
	QuantityList       []Quantity       `json:"quantity_list,omitempty"`
	BizTransactionList []BizTransaction `json:"biz_transaction_list,omitempty"`
	SourceList         []SourceDest     `json:"source_list,omitempty"`
	DestinationList    []SourceDest     `json:"destination_list,omitempty"`

	ErrorDeclaration map[string]any `json:"error_declaration,omitempty"`
	StoredID         string         `json:"stored_id,omitempty"`
	Metadata         map[string]any `json:"metadata,omitempty"`
}

// PrimaryEPC returns the first EPC in the list, or "" when the event
// carries none.
func (e *Event) PrimaryEPC() string {
	if len(e.EPCList) == 0 {
		return ""
	}
	return e.EPCList[0]
}

// Location returns the business location, falling back to the read point
// when no business location is set.
func (e *Event) Location() string {
	if e.BizLocation != "" {
		return e.BizLocation
	}
	return e.ReadPoint
}

// IsDamaged reports whether the event carries the damaged disposition.
func (e *Event) IsDamaged() bool {
	return IsDamagedDisposition(e.Disposition)
}

// IsSold reports whether the event represents a sale: either the
// retail-selling business step or a sold disposition.
func (e *Event) IsSold() bool {
	return e.BizStep == StepRetailSelling || IsSoldDisposition(e.Disposition)
}

// IsInspection reports whether the event is an inspection, the step that
// assigns damaged status.
func (e *Event) IsInspection() bool {
	return e.BizStep == StepInspecting
}

// IsShipment reports whether the event belongs to a shipping step.
func (e *Event) IsShipment() bool {
	return e.BizStep == StepShipping
}

// IsReceiving reports whether the event belongs to a receiving step.
func (e *Event) IsReceiving() bool {
	return e.BizStep == StepReceiving
}
