// Package processor wires the item tracker, the per-event context, and the
// detector battery into the event processing core.
package processor

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/xadriann/stockwatch/internal/alert"
	"github.com/xadriann/stockwatch/internal/detect"
	"github.com/xadriann/stockwatch/internal/epcis"
	"github.com/xadriann/stockwatch/internal/metrics"
)

// Processor runs every incoming event through the detector battery and keeps
// the alert and processed-event logs. It is single-threaded by contract:
// exactly one goroutine may call ProcessEvent at a time. Multi-worker
// deployments either give each worker its own Processor or funnel events
// through engine.Engine's queue.
type Processor struct {
	detectors []detect.Detector
	tracker   *Tracker

	alerts    []*alert.Alert
	alertByID map[string]*alert.Alert
	events    []*epcis.Event

	now func() time.Time
}

// New creates a Processor over the given detector battery.
func New(detectors []detect.Detector) *Processor {
	return &Processor{
		detectors: detectors,
		tracker:   NewTracker(),
		alertByID: make(map[string]*alert.Alert),
		now:       time.Now,
	}
}

// SwapDetectors replaces the detector battery, e.g. after a config reload.
// Detector state starts fresh; the tracker and both logs survive.
func (p *Processor) SwapDetectors(detectors []detect.Detector) {
	p.detectors = detectors
}

// ProcessEvent runs one event through the battery and returns the alerts it
// produced. A faulting detector contributes no alert and never disturbs the
// remaining rules.
func (p *Processor) ProcessEvent(ev *epcis.Event) []*alert.Alert {
	start := time.Now()

	// Prior state must be captured before the tracker merges the event.
	prior := p.tracker.Record(ev)
	ctx := buildContext(ev, prior)

	var produced []*alert.Alert
	for _, d := range p.detectors {
		a, err := safeDetect(d, ev, ctx)
		if err != nil {
			metrics.DetectorFaults.WithLabelValues(fmt.Sprint(d.RuleID())).Inc()
			slog.Error("detector fault", "rule", d.Name(), "rule_id", d.RuleID(), "event", ev.ID, "err", err)
			continue
		}
		if a == nil {
			continue
		}
		produced = append(produced, a)
		p.alerts = append(p.alerts, a)
		p.alertByID[a.ID] = a
		metrics.AlertsRaised.WithLabelValues(fmt.Sprint(a.RuleID), string(a.Severity)).Inc()
	}

	p.events = append(p.events, ev)
	metrics.EventsProcessed.Inc()
	metrics.EventProcessingDuration.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	return produced
}

// ProcessEvents streams events strictly in input order.
func (p *Processor) ProcessEvents(events []*epcis.Event) []*alert.Alert {
	var all []*alert.Alert
	for _, ev := range events {
		all = append(all, p.ProcessEvent(ev)...)
	}
	return all
}

// safeDetect invokes a detector, converting a panic into an ordinary fault.
func safeDetect(d detect.Detector, ev *epcis.Event, ctx *detect.Context) (a *alert.Alert, err error) {
	defer func() {
		if r := recover(); r != nil {
			a = nil
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return d.Detect(ev, ctx)
}

// buildContext derives the per-event flags shared by all detectors.
func buildContext(ev *epcis.Event, prior map[string]ItemState) *detect.Context {
	ctx := &detect.Context{
		IsBulk: len(ev.EPCList) > 1,
	}
	for _, txn := range ev.BizTransactionList {
		if txn.Type == epcis.BTTInvoice {
			ctx.TransactionID = txn.Value
			break
		}
	}
	// Only the primary EPC gets prior-state context; additional EPCs in a
	// bulk event do not.
	if epc := ev.PrimaryEPC(); epc != "" {
		if state, seen := prior[epc]; seen {
			ctx.PreviousDisposition = state.Disposition
		}
	}
	return ctx
}

// Alerts returns a copy of the alert log in append order.
func (p *Processor) Alerts() []*alert.Alert {
	out := make([]*alert.Alert, len(p.alerts))
	copy(out, p.alerts)
	return out
}

// AlertsBySeverity returns the alerts with the given severity, in append
// order.
func (p *Processor) AlertsBySeverity(severity alert.Severity) []*alert.Alert {
	var out []*alert.Alert
	for _, a := range p.alerts {
		if a.Severity == severity {
			out = append(out, a)
		}
	}
	return out
}

// AlertsByLocation returns the alerts recorded at a location.
func (p *Processor) AlertsByLocation(location string) []*alert.Alert {
	var out []*alert.Alert
	for _, a := range p.alerts {
		if a.Location == location {
			out = append(out, a)
		}
	}
	return out
}

// AlertsByRule returns the alerts produced by one rule.
func (p *Processor) AlertsByRule(ruleID int) []*alert.Alert {
	var out []*alert.Alert
	for _, a := range p.alerts {
		if a.RuleID == ruleID {
			out = append(out, a)
		}
	}
	return out
}

// UnresolvedAlerts returns every alert not yet resolved.
func (p *Processor) UnresolvedAlerts() []*alert.Alert {
	var out []*alert.Alert
	for _, a := range p.alerts {
		if !a.Resolved {
			out = append(out, a)
		}
	}
	return out
}

// Resolve marks an alert resolved in place. Unknown IDs are a silent no-op.
func (p *Processor) Resolve(alertID string) {
	a, ok := p.alertByID[alertID]
	if !ok || a.Resolved {
		return
	}
	a.Resolved = true
	now := p.now()
	a.ResolvedAt = &now
}

// Events returns the processed-event log in processing order.
func (p *Processor) Events() []*epcis.Event {
	out := make([]*epcis.Event, len(p.events))
	copy(out, p.events)
	return out
}

// Tracker exposes the item tracker for read-only inspection.
func (p *Processor) Tracker() *Tracker {
	return p.tracker
}
