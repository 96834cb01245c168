package detect_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/xadriann/stockwatch/internal/alert"
	"github.com/xadriann/stockwatch/internal/detect"
	"github.com/xadriann/stockwatch/internal/epcis"
)

func damagedInspection(at time.Time, epcs ...string) *epcis.Event {
	return makeEvent(
		withStep(epcis.StepInspecting),
		withDisp(epcis.DispDamaged),
		withAction(epcis.ActionAdd),
		withTime(at),
		withEPCs(epcs...),
	)
}

func TestHighVolumeDamagedSeedsThenFires(t *testing.T) {
	d := detect.NewHighVolumeDamaged(2.0, 24)

	// First assignment at the location seeds the average (count 1).
	wantNoAlert(t, detectOne(t, d, damagedInspection(baseTime, "urn:epc:id:sgtin:0.1.1")))

	// Second assignment: count 2, threshold 1*2.0 — not above.
	wantNoAlert(t, detectOne(t, d, damagedInspection(
		baseTime.Add(time.Minute), "urn:epc:id:sgtin:0.1.2")))

	// The non-firing evaluation moved the average to 1*0.9+2*0.1 = 1.1, so a
	// burst taking the window count to 5 clears threshold 2.2.
	got := detectOne(t, d, damagedInspection(
		baseTime.Add(2*time.Minute),
		"urn:epc:id:sgtin:0.1.3", "urn:epc:id:sgtin:0.1.4", "urn:epc:id:sgtin:0.1.5"))
	wantAlert(t, got, 5, alert.SeverityMedium)

	if got.Details["current_count"] != 5 {
		t.Errorf("current_count = %v, want 5", got.Details["current_count"])
	}
	avg, ok := got.Details["historical_average"].(float64)
	if !ok || avg < 1.09 || avg > 1.11 {
		t.Errorf("historical_average = %v, want 1.1", got.Details["historical_average"])
	}
	if got.Details["num_items_in_event"] != 3 {
		t.Errorf("num_items_in_event = %v, want 3", got.Details["num_items_in_event"])
	}
}

func TestHighVolumeDamagedWindowExpiry(t *testing.T) {
	d := detect.NewHighVolumeDamaged(2.0, 24)

	for i := 0; i < 3; i++ {
		detectOne(t, d, damagedInspection(
			baseTime.Add(time.Duration(i)*time.Minute), fmt.Sprintf("urn:epc:id:sgtin:0.2.%d", i)))
	}

	// Two days later everything has left the window; a single assignment is
	// a count of one and must not fire.
	wantNoAlert(t, detectOne(t, d, damagedInspection(
		baseTime.Add(48*time.Hour), "urn:epc:id:sgtin:0.2.9")))
}

func TestHighVolumeDamagedPerLocationIsolation(t *testing.T) {
	d := detect.NewHighVolumeDamaged(2.0, 24)

	for i := 0; i < 4; i++ {
		detectOne(t, d, damagedInspection(
			baseTime.Add(time.Duration(i)*time.Minute), fmt.Sprintf("urn:epc:id:sgtin:0.3.%d", i)))
	}

	// A different location starts fresh: its first event only seeds.
	ev := damagedInspection(baseTime.Add(5*time.Minute), "urn:epc:id:sgtin:0.3.9")
	ev.BizLocation = storeB
	wantNoAlert(t, detectOne(t, d, ev))
}

func TestHighVolumeDamagedIgnoresNonInspection(t *testing.T) {
	d := detect.NewHighVolumeDamaged(2.0, 24)

	wantNoAlert(t, detectOne(t, d, makeEvent(
		withStep(epcis.StepReceiving), withDisp(epcis.DispDamaged), withAction(epcis.ActionAdd))))
	wantNoAlert(t, detectOne(t, d, makeEvent(
		withStep(epcis.StepInspecting), withDisp(epcis.DispDamaged), withAction(epcis.ActionObserve))))
}
