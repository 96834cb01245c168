// Package detect holds the fixed battery of damaged-status misuse detectors.
//
// Every detector is a pure function of the incoming event, the shared
// per-event context, and its own private state. Detectors never see each
// other's state and never write to the item tracker; temporal rules filter on
// the event's own time field because the stream arrives in ingestion order,
// not event-time order.
package detect

import (
	"github.com/xadriann/stockwatch/internal/alert"
	"github.com/xadriann/stockwatch/internal/epcis"
)

// Context carries the cross-cutting flags derived once per event and handed
// unchanged to every detector.
type Context struct {
	// IsBulk is true when the event affects more than one EPC.
	IsBulk bool
	// TransactionID is the first invoice business-transaction reference,
	// or "" when the event carries none.
	TransactionID string
	// PreviousDisposition is the tracker's disposition for the event's
	// primary EPC as recorded strictly before this event, or "" on first
	// sighting. Additional EPCs in a bulk event get no individual prior
	// state.
	PreviousDisposition string
}

// Detector is the contract every rule implements. Detect returns (nil, nil)
// when the rule has nothing to report and a non-nil error on a rule fault;
// a fault never aborts the surrounding evaluation.
type Detector interface {
	RuleID() int
	Name() string
	Severity() alert.Severity
	Detect(ev *epcis.Event, ctx *Context) (*alert.Alert, error)
}

// SublocationClassifier resolves a location URN to a sublocation type such as
// "sales_floor" or "stockroom". The second result is false when the location
// is unknown.
type SublocationClassifier interface {
	Lookup(locationID string) (string, bool)
}

// rule carries the identity shared by all detectors.
type rule struct {
	id       int
	name     string
	severity alert.Severity
}

func (r rule) RuleID() int              { return r.id }
func (r rule) Name() string             { return r.name }
func (r rule) Severity() alert.Severity { return r.severity }

// newAlert builds an alert for this rule fired by ev.
func (r rule) newAlert(ev *epcis.Event, epc, location, description string, details map[string]any) *alert.Alert {
	return &alert.Alert{
		ID:          alert.MakeID(r.id, ev.ID),
		RuleID:      r.id,
		RuleName:    r.name,
		Severity:    r.severity,
		Timestamp:   ev.EventTime,
		EPC:         epc,
		Location:    location,
		Description: description,
		Details:     details,
		EventID:     ev.ID,
	}
}

// orUnknown substitutes "unknown" for an empty location, matching the alert
// records the reporting layer expects.
func orUnknown(location string) string {
	if location == "" {
		return "unknown"
	}
	return location
}
