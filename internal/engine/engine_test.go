package engine_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/xadriann/stockwatch/internal/alert"
	"github.com/xadriann/stockwatch/internal/config"
	"github.com/xadriann/stockwatch/internal/detect"
	"github.com/xadriann/stockwatch/internal/engine"
	"github.com/xadriann/stockwatch/internal/epcis"
	"github.com/xadriann/stockwatch/internal/processor"
)

func newEngine(t *testing.T, queueDepth int) *engine.Engine {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	proc := processor.New(detect.NewAll(config.Default().Rules, nil))
	return engine.New(ctx, proc, nil, config.EngineConf{
		QueueDepth:     queueDepth,
		EventTimeoutMs: 2000,
	})
}

func shippingEvent(id string) *epcis.Event {
	return &epcis.Event{
		ID:          id,
		Action:      epcis.ActionAdd,
		EventTime:   time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
		Disposition: epcis.DispDamaged,
		BizStep:     epcis.StepShipping,
		BizLocation: "http://nedapretail.com/loc/store-001",
		EPCList:     []string{"urn:epc:id:sgtin:0.30.1"},
	}
}

func TestProcessSyncReturnsAlerts(t *testing.T) {
	eng := newEngine(t, 16)

	res, err := eng.ProcessSync(context.Background(), shippingEvent("evt-1"))
	if err != nil {
		t.Fatalf("ProcessSync: %v", err)
	}
	if res.EventID != "evt-1" {
		t.Errorf("EventID = %q, want evt-1", res.EventID)
	}
	if len(res.Alerts) != 1 || res.Alerts[0].RuleID != 1 {
		t.Fatalf("Alerts = %+v, want the rule 1 alert", res.Alerts)
	}
	if res.Alerts[0].Severity != alert.SeverityHigh {
		t.Errorf("Severity = %s, want High", res.Alerts[0].Severity)
	}
}

func TestProcessAsyncThenQuery(t *testing.T) {
	eng := newEngine(t, 16)

	for i := 0; i < 3; i++ {
		if !eng.ProcessAsync(shippingEvent(fmt.Sprintf("evt-%d", i))) {
			t.Fatalf("ProcessAsync rejected event %d", i)
		}
	}

	// Do is serialized behind the queued events, so the query sees all of
	// them processed.
	var total int
	if err := eng.Do(context.Background(), func(p *processor.Processor) {
		total = len(p.Alerts())
	}); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if total != 3 {
		t.Errorf("alerts after async batch = %d, want 3", total)
	}
}

func TestDoSerializesDetectorSwap(t *testing.T) {
	eng := newEngine(t, 16)

	if err := eng.Do(context.Background(), func(p *processor.Processor) {
		p.SwapDetectors(detect.NewAll(config.RulesConf{
			ConsecutiveCountThreshold:   5,
			HighVolumeMultiplier:        3,
			HighVolumeWindowHours:       12,
			StockMutationTimeoutMinutes: 60,
		}, nil))
	}); err != nil {
		t.Fatalf("Do: %v", err)
	}

	res, err := eng.ProcessSync(context.Background(), shippingEvent("evt-after-swap"))
	if err != nil {
		t.Fatalf("ProcessSync: %v", err)
	}
	if len(res.Alerts) != 1 {
		t.Errorf("alerts after swap = %d, want the battery still active", len(res.Alerts))
	}
}

func TestQueueFullRejects(t *testing.T) {
	// An engine whose worker context is already cancelled keeps the queue
	// from draining.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	proc := processor.New(nil)
	eng := engine.New(ctx, proc, nil, config.EngineConf{QueueDepth: 1, EventTimeoutMs: 100})

	// Give the worker a moment to observe the cancelled context.
	time.Sleep(10 * time.Millisecond)

	if !eng.ProcessAsync(shippingEvent("evt-1")) {
		t.Fatal("first event should fit the queue")
	}
	if eng.ProcessAsync(shippingEvent("evt-2")) {
		t.Fatal("second event should be rejected by the full queue")
	}
	if util := eng.QueueUtilization(); util != 1.0 {
		t.Errorf("QueueUtilization = %v, want 1.0", util)
	}
}
