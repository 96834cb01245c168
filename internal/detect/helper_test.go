package detect_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/xadriann/stockwatch/internal/alert"
	"github.com/xadriann/stockwatch/internal/detect"
	"github.com/xadriann/stockwatch/internal/epcis"
)

var baseTime = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

// evOpt mutates a test event under construction.
type evOpt func(*epcis.Event)

var eventSeq int

// makeEvent builds a minimal valid event; options override the defaults.
func makeEvent(opts ...evOpt) *epcis.Event {
	eventSeq++
	ev := &epcis.Event{
		ID:          fmt.Sprintf("evt-%d", eventSeq),
		Type:        epcis.ObjectEvent,
		Action:      epcis.ActionObserve,
		EventTime:   baseTime,
		BizLocation: "http://nedapretail.com/loc/store-001",
		EPCList:     []string{"urn:epc:id:sgtin:000000.000001.1"},
	}
	for _, opt := range opts {
		opt(ev)
	}
	return ev
}

func withID(id string) evOpt          { return func(ev *epcis.Event) { ev.ID = id } }
func withAction(a epcis.Action) evOpt { return func(ev *epcis.Event) { ev.Action = a } }
func withTime(t time.Time) evOpt      { return func(ev *epcis.Event) { ev.EventTime = t } }
func withDisp(d string) evOpt         { return func(ev *epcis.Event) { ev.Disposition = d } }
func withStep(s string) evOpt         { return func(ev *epcis.Event) { ev.BizStep = s } }
func withLocation(l string) evOpt     { return func(ev *epcis.Event) { ev.BizLocation = l } }
func withReadPoint(rp string) evOpt   { return func(ev *epcis.Event) { ev.ReadPoint = rp } }
func withEPCs(epcs ...string) evOpt   { return func(ev *epcis.Event) { ev.EPCList = epcs } }

func withDestination(typ, id string) evOpt {
	return func(ev *epcis.Event) {
		ev.DestinationList = append(ev.DestinationList, epcis.SourceDest{Type: typ, ID: id})
	}
}

// detectOne runs one event through a detector with an empty context and fails
// the test on a rule fault.
func detectOne(t *testing.T, d detect.Detector, ev *epcis.Event) *alert.Alert {
	t.Helper()
	return detectCtx(t, d, ev, &detect.Context{})
}

func detectCtx(t *testing.T, d detect.Detector, ev *epcis.Event, ctx *detect.Context) *alert.Alert {
	t.Helper()
	a, err := d.Detect(ev, ctx)
	if err != nil {
		t.Fatalf("rule %d fault: %v", d.RuleID(), err)
	}
	return a
}

// wantAlert asserts that a fired with the expected rule identity.
func wantAlert(t *testing.T, a *alert.Alert, ruleID int, severity alert.Severity) {
	t.Helper()
	if a == nil {
		t.Fatalf("expected rule %d alert, got none", ruleID)
	}
	if a.RuleID != ruleID {
		t.Errorf("RuleID = %d, want %d", a.RuleID, ruleID)
	}
	if a.Severity != severity {
		t.Errorf("Severity = %s, want %s", a.Severity, severity)
	}
	if a.EventID == "" {
		t.Error("alert is missing its source event ID")
	}
	if a.ID == "" {
		t.Error("alert is missing its ID")
	}
}

func wantNoAlert(t *testing.T, a *alert.Alert) {
	t.Helper()
	if a != nil {
		t.Fatalf("expected no alert, got rule %d: %s", a.RuleID, a.Description)
	}
}

// staticClassifier maps location IDs to sublocation types for tests.
type staticClassifier map[string]string

func (c staticClassifier) Lookup(locationID string) (string, bool) {
	typ, ok := c[locationID]
	return typ, ok
}
