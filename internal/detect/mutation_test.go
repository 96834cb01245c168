package detect_test

import (
	"testing"
	"time"

	"github.com/xadriann/stockwatch/internal/alert"
	"github.com/xadriann/stockwatch/internal/detect"
	"github.com/xadriann/stockwatch/internal/epcis"
)

func TestDamagedWithoutStockMutationFiresAfterTimeout(t *testing.T) {
	d := detect.NewDamagedWithoutStockMutation(30)
	epc := "urn:epc:id:sgtin:0.10.1"

	damage := makeEvent(
		withID("evt-damage"),
		withStep(epcis.StepInspecting), withDisp(epcis.DispDamaged),
		withAction(epcis.ActionAdd), withEPCs(epc))
	wantNoAlert(t, detectOne(t, d, damage))

	// Any event past the timeout triggers the overdue scan.
	later := makeEvent(withTime(baseTime.Add(31*time.Minute)), withEPCs("urn:epc:id:sgtin:0.10.99"))
	got := detectOne(t, d, later)
	wantAlert(t, got, 10, alert.SeverityMedium)
	if got.EPC != epc {
		t.Errorf("alert EPC = %q, want %q", got.EPC, epc)
	}
	if got.EventID != "evt-damage" {
		t.Errorf("alert EventID = %q, want the damaging event", got.EventID)
	}
}

func TestDamagedWithoutStockMutationDeleteSuppresses(t *testing.T) {
	d := detect.NewDamagedWithoutStockMutation(30)
	epc := "urn:epc:id:sgtin:0.10.2"

	detectOne(t, d, makeEvent(
		withStep(epcis.StepInspecting), withDisp(epcis.DispDamaged),
		withAction(epcis.ActionAdd), withEPCs(epc)))

	// The stock mutation arrives in time.
	wantNoAlert(t, detectOne(t, d, makeEvent(
		withAction(epcis.ActionDelete), withTime(baseTime.Add(10*time.Minute)), withEPCs(epc))))
	if d.Tracked(epc) {
		t.Fatal("mutated item should no longer be tracked")
	}

	wantNoAlert(t, detectOne(t, d, makeEvent(
		withTime(baseTime.Add(2*time.Hour)), withEPCs("urn:epc:id:sgtin:0.10.99"))))
}

func TestDamagedWithoutStockMutationWithinTimeoutStaysQuiet(t *testing.T) {
	d := detect.NewDamagedWithoutStockMutation(30)
	epc := "urn:epc:id:sgtin:0.10.3"

	detectOne(t, d, makeEvent(
		withStep(epcis.StepInspecting), withDisp(epcis.DispDamaged),
		withAction(epcis.ActionAdd), withEPCs(epc)))

	wantNoAlert(t, detectOne(t, d, makeEvent(
		withTime(baseTime.Add(29*time.Minute)), withEPCs("urn:epc:id:sgtin:0.10.99"))))
}

func TestDamagedWithoutStockMutationScanOrderIsDeterministic(t *testing.T) {
	d := detect.NewDamagedWithoutStockMutation(30)

	first := "urn:epc:id:sgtin:0.10.4"
	second := "urn:epc:id:sgtin:0.10.5"
	detectOne(t, d, makeEvent(
		withStep(epcis.StepInspecting), withDisp(epcis.DispDamaged),
		withAction(epcis.ActionAdd), withEPCs(first)))
	detectOne(t, d, makeEvent(
		withStep(epcis.StepInspecting), withDisp(epcis.DispDamaged),
		withAction(epcis.ActionAdd), withTime(baseTime.Add(time.Minute)), withEPCs(second)))

	// Both overdue: the scan reports the oldest tracked entry, and only that
	// one, on every call.
	trigger := makeEvent(withTime(baseTime.Add(2*time.Hour)), withEPCs("urn:epc:id:sgtin:0.10.99"))
	for i := 0; i < 3; i++ {
		got := detectOne(t, d, trigger)
		wantAlert(t, got, 10, alert.SeverityMedium)
		if got.EPC != first {
			t.Fatalf("call %d: alert EPC = %q, want %q", i, got.EPC, first)
		}
	}
}

func TestDamagedWithoutStockMutationReassignmentReplacesEntry(t *testing.T) {
	d := detect.NewDamagedWithoutStockMutation(30)
	epc := "urn:epc:id:sgtin:0.10.6"

	detectOne(t, d, makeEvent(
		withStep(epcis.StepInspecting), withDisp(epcis.DispDamaged),
		withAction(epcis.ActionAdd), withEPCs(epc)))

	// A fresh assignment restarts the clock; the stale first entry must not
	// fire on its own schedule.
	detectOne(t, d, makeEvent(
		withStep(epcis.StepInspecting), withDisp(epcis.DispDamaged),
		withAction(epcis.ActionAdd), withTime(baseTime.Add(time.Hour)), withEPCs(epc)))

	wantNoAlert(t, detectOne(t, d, makeEvent(
		withTime(baseTime.Add(time.Hour+20*time.Minute)), withEPCs("urn:epc:id:sgtin:0.10.99"))))
}
