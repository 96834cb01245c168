// Package engine serializes event submission onto a single processor
// instance through a bounded queue.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/xadriann/stockwatch/internal/alert"
	"github.com/xadriann/stockwatch/internal/config"
	"github.com/xadriann/stockwatch/internal/epcis"
	"github.com/xadriann/stockwatch/internal/metrics"
	"github.com/xadriann/stockwatch/internal/processor"
	"github.com/xadriann/stockwatch/internal/sink"
)

// EventResult is the outcome of processing a single event.
type EventResult struct {
	EventID    string         `json:"event_id"`
	DurationMs int64          `json:"duration_ms"`
	Alerts     []*alert.Alert `json:"alerts"`
}

// Engine feeds a single Processor from a bounded queue. The processor core
// is single-threaded by contract, so the pool runs exactly one event worker;
// callers from any goroutine submit through the queue. Produced alerts are
// routed to the sink manager from the worker, best-effort.
type Engine struct {
	proc  *processor.Processor
	sinks *sink.Manager
	pool  *workerPool[*eventWork]
	conf  config.EngineConf
}

// eventWork carries either an event to process or an arbitrary operation to
// run against the processor on the worker goroutine.
type eventWork struct {
	ev      *epcis.Event
	fn      func(p *processor.Processor)
	resultC chan *EventResult
}

// New creates an Engine over proc and starts its worker. sinks may be nil
// when no alert delivery is configured.
func New(ctx context.Context, proc *processor.Processor, sinks *sink.Manager, conf config.EngineConf) *Engine {
	e := &Engine{proc: proc, sinks: sinks, conf: conf}
	e.pool = newWorkerPool(ctx, 1, conf.QueueDepth, func(ctx context.Context, w *eventWork) {
		if w.fn != nil {
			w.fn(e.proc)
			if w.resultC != nil {
				w.resultC <- nil
			}
			return
		}
		res := e.processEvent(w.ev)
		if w.resultC != nil {
			w.resultC <- res
		}
	})
	return e
}

func (e *Engine) processEvent(ev *epcis.Event) *EventResult {
	start := time.Now()
	alerts := e.proc.ProcessEvent(ev)
	if e.sinks != nil && len(alerts) > 0 {
		e.sinks.Send(alerts)
	}
	return &EventResult{
		EventID:    ev.ID,
		DurationMs: time.Since(start).Milliseconds(),
		Alerts:     alerts,
	}
}

// ProcessSync submits an event and waits for its result.
func (e *Engine) ProcessSync(ctx context.Context, ev *epcis.Event) (*EventResult, error) {
	resultC := make(chan *EventResult, 1)
	if !e.pool.Submit(&eventWork{ev: ev, resultC: resultC}) {
		metrics.EventsDropped.Inc()
		return nil, fmt.Errorf("event queue full (capacity %d)", e.conf.QueueDepth)
	}
	metrics.EventsEnqueued.Inc()

	timeout := time.Duration(e.conf.EventTimeoutMs) * time.Millisecond
	select {
	case res := <-resultC:
		return res, nil
	case <-time.After(timeout):
		return nil, fmt.Errorf("event processing timeout after %v", timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// ProcessAsync enqueues an event for background processing. Returns false
// when the queue is full.
func (e *Engine) ProcessAsync(ev *epcis.Event) bool {
	if !e.pool.Submit(&eventWork{ev: ev}) {
		metrics.EventsDropped.Inc()
		return false
	}
	metrics.EventsEnqueued.Inc()
	return true
}

// Do runs fn against the processor on the event worker, serialized with
// event processing, and waits for it to finish. Queries, alert resolution,
// and detector swaps go through here so the single-threaded contract holds.
func (e *Engine) Do(ctx context.Context, fn func(p *processor.Processor)) error {
	resultC := make(chan *EventResult, 1)
	if !e.pool.Submit(&eventWork{fn: fn, resultC: resultC}) {
		return fmt.Errorf("event queue full (capacity %d)", e.conf.QueueDepth)
	}
	select {
	case <-resultC:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// QueueUtilization returns queue used / capacity (0–1).
func (e *Engine) QueueUtilization() float64 {
	if e.pool.QueueCap() == 0 {
		return 0
	}
	return float64(e.pool.QueueLen()) / float64(e.pool.QueueCap())
}

// Shutdown drains the queue gracefully.
func (e *Engine) Shutdown() {
	e.pool.Drain()
}
