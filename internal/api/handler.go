// Package api exposes the monitor over HTTP: event ingestion, alert queries,
// reports, and operational endpoints. All processor access goes through the
// engine so the single-threaded core stays single-threaded.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xadriann/stockwatch/internal/alert"
	"github.com/xadriann/stockwatch/internal/config"
	"github.com/xadriann/stockwatch/internal/detect"
	"github.com/xadriann/stockwatch/internal/engine"
	"github.com/xadriann/stockwatch/internal/epcis"
	"github.com/xadriann/stockwatch/internal/metrics"
	"github.com/xadriann/stockwatch/internal/processor"
	"github.com/xadriann/stockwatch/internal/report"
)

const maxBatchSize = 100

// Handler holds all HTTP handler dependencies.
type Handler struct {
	eng        *engine.Engine
	loader     *config.Loader
	classifier detect.SublocationClassifier
	mux        *http.ServeMux
}

// New creates an HTTP handler and registers all routes. classifier may be
// nil when no sublocation mapping is available.
func New(eng *engine.Engine, loader *config.Loader, classifier detect.SublocationClassifier) http.Handler {
	h := &Handler{eng: eng, loader: loader, classifier: classifier, mux: http.NewServeMux()}

	h.mux.HandleFunc("POST /v1/events", h.ingestEvent)
	h.mux.HandleFunc("POST /v1/events/batch", h.ingestBatch)
	h.mux.HandleFunc("GET /v1/alerts", h.listAlerts)
	h.mux.HandleFunc("POST /v1/alerts/{id}/resolve", h.resolveAlert)
	h.mux.HandleFunc("GET /v1/report", h.getReport)
	h.mux.HandleFunc("GET /v1/rules", h.listRules)
	h.mux.HandleFunc("POST /v1/rules/reload", h.reloadRules)
	h.mux.HandleFunc("GET /healthz", h.healthz)
	h.mux.HandleFunc("GET /readyz", h.readyz)
	h.mux.Handle("GET /metrics", promhttp.Handler())

	return loggingMiddleware(h.mux)
}

// POST /v1/events — synchronous single-event ingestion.
func (h *Handler) ingestEvent(w http.ResponseWriter, r *http.Request) {
	ev, err := decodeEvent(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.eng.ProcessSync(r.Context(), ev)
	if err != nil {
		writeError(w, http.StatusTooManyRequests, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// POST /v1/events/batch — async batch ingestion (up to 100 events).
func (h *Handler) ingestBatch(w http.ResponseWriter, r *http.Request) {
	var raws []json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raws); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	if len(raws) == 0 {
		writeError(w, http.StatusBadRequest, "batch must contain at least one event")
		return
	}
	if len(raws) > maxBatchSize {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("batch size %d exceeds max %d", len(raws), maxBatchSize))
		return
	}

	events := make([]*epcis.Event, 0, len(raws))
	for i, raw := range raws {
		ev, err := epcis.ParseEvent(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("event %d: %s", i, err))
			return
		}
		if ev.ID == "" {
			ev.ID = uuid.New().String()
		}
		events = append(events, ev)
	}

	jobID := uuid.New().String()
	queued := 0
	for _, ev := range events {
		if h.eng.ProcessAsync(ev) {
			queued++
		}
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"job_id":   jobID,
		"total":    len(events),
		"queued":   queued,
		"rejected": len(events) - queued,
	})
}

// GET /v1/alerts — query alerts with optional severity, location, rule and
// unresolved filters.
func (h *Handler) listAlerts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var ruleID int
	if s := q.Get("rule"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid rule id %q", s))
			return
		}
		ruleID = n
	}
	severity := alert.Severity(q.Get("severity"))
	if severity != "" && !severity.Valid() {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown severity %q", severity))
		return
	}
	location := q.Get("location")
	unresolvedOnly := q.Get("unresolved") == "true"

	var alerts []*alert.Alert
	err := h.eng.Do(r.Context(), func(p *processor.Processor) {
		switch {
		case unresolvedOnly:
			alerts = p.UnresolvedAlerts()
		case severity != "":
			alerts = p.AlertsBySeverity(severity)
		case location != "":
			alerts = p.AlertsByLocation(location)
		case ruleID != 0:
			alerts = p.AlertsByRule(ruleID)
		default:
			alerts = p.Alerts()
		}
	})
	if err != nil {
		writeError(w, http.StatusTooManyRequests, err.Error())
		return
	}

	// Remaining filters narrow whatever the primary query returned.
	filtered := alerts[:0:0]
	for _, a := range alerts {
		if severity != "" && a.Severity != severity {
			continue
		}
		if location != "" && a.Location != location {
			continue
		}
		if ruleID != 0 && a.RuleID != ruleID {
			continue
		}
		filtered = append(filtered, a)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total":  len(filtered),
		"alerts": filtered,
	})
}

// POST /v1/alerts/{id}/resolve — mark one alert resolved. Resolving an
// unknown or already resolved alert succeeds without effect.
func (h *Handler) resolveAlert(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "alert id is required")
		return
	}
	if err := h.eng.Do(r.Context(), func(p *processor.Processor) {
		p.Resolve(id)
	}); err != nil {
		writeError(w, http.StatusTooManyRequests, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"alert_id": id,
		"resolved": true,
	})
}

// GET /v1/report — full monitoring report.
func (h *Handler) getReport(w http.ResponseWriter, r *http.Request) {
	var rep report.Report
	if err := h.eng.Do(r.Context(), func(p *processor.Processor) {
		rep = report.New(p).Generate()
	}); err != nil {
		writeError(w, http.StatusTooManyRequests, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// GET /v1/rules — list the active detection rules.
func (h *Handler) listRules(w http.ResponseWriter, r *http.Request) {
	cfg := h.loader.Config()
	detectors := detect.NewAll(cfg.Rules, h.classifier)

	type ruleInfo struct {
		RuleID   int    `json:"rule_id"`
		Name     string `json:"name"`
		Severity string `json:"severity"`
	}
	rules := make([]ruleInfo, 0, len(detectors))
	for _, d := range detectors {
		rules = append(rules, ruleInfo{
			RuleID:   d.RuleID(),
			Name:     d.Name(),
			Severity: string(d.Severity()),
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"version": cfg.Version,
		"rules":   rules,
	})
}

// POST /v1/rules/reload — reload thresholds from disk and rebuild the
// detector set. Rebuilding resets per-rule tracking state.
func (h *Handler) reloadRules(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.loader.Reload()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	detectors := detect.NewAll(cfg.Rules, h.classifier)
	if err := h.eng.Do(r.Context(), func(p *processor.Processor) {
		p.SwapDetectors(detectors)
	}); err != nil {
		writeError(w, http.StatusTooManyRequests, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"reloaded":    true,
		"rules_count": len(detectors),
	})
}

// GET /healthz — always 200 (liveness probe).
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /readyz — 503 if event queue >80% full.
func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	util := h.eng.QueueUtilization()
	metrics.QueueUtilization.Set(util)
	if util > 0.8 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":            "overloaded",
			"queue_utilization": util,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":            "ready",
		"queue_utilization": util,
	})
}

// decodeEvent reads one event from the request body, assigning an ID when
// the payload carries none.
func decodeEvent(r *http.Request) (*epcis.Event, error) {
	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("invalid JSON: %s", err)
	}
	ev, err := epcis.ParseEvent(raw)
	if err != nil {
		return nil, err
	}
	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}
	return ev, nil
}
