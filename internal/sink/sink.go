// Package sink routes produced alerts to their delivery channels. Delivery
// is best-effort: a failing handler is logged and skipped, never retried and
// never fatal.
package sink

import (
	"log/slog"

	"github.com/xadriann/stockwatch/internal/alert"
	"github.com/xadriann/stockwatch/internal/config"
	"github.com/xadriann/stockwatch/internal/metrics"
)

// Handler delivers a single alert to one channel.
type Handler interface {
	// Name returns the handler's metric label.
	Name() string
	// Handle delivers one alert.
	Handle(a *alert.Alert) error
}

// registration pairs a handler with its severity filter.
type registration struct {
	handler    Handler
	severities map[alert.Severity]struct{} // nil = all severities
}

// Manager fans alerts out to registered handlers, honoring per-handler
// severity filters and isolating handler faults.
type Manager struct {
	regs []registration
}

// NewManager creates an empty Manager.
func NewManager() *Manager {
	return &Manager{}
}

// Add registers a handler. severities limits which alerts it receives;
// empty means all.
func (m *Manager) Add(h Handler, severities ...alert.Severity) {
	var filter map[alert.Severity]struct{}
	if len(severities) > 0 {
		filter = make(map[alert.Severity]struct{}, len(severities))
		for _, s := range severities {
			filter[s] = struct{}{}
		}
	}
	m.regs = append(m.regs, registration{handler: h, severities: filter})
}

// SendOne routes one alert through all matching handlers.
func (m *Manager) SendOne(a *alert.Alert) {
	for _, reg := range m.regs {
		if reg.severities != nil {
			if _, ok := reg.severities[a.Severity]; !ok {
				continue
			}
		}
		if err := reg.handler.Handle(a); err != nil {
			metrics.AlertsDelivered.WithLabelValues(reg.handler.Name(), "error").Inc()
			slog.Error("alert delivery failed", "sink", reg.handler.Name(), "alert", a.ID, "err", err)
			continue
		}
		metrics.AlertsDelivered.WithLabelValues(reg.handler.Name(), "success").Inc()
	}
}

// Send routes a batch of alerts.
func (m *Manager) Send(alerts []*alert.Alert) {
	for _, a := range alerts {
		m.SendOne(a)
	}
}

// FromConfig builds a Manager from the sink configuration. Returns nil when
// no sink is enabled.
func FromConfig(cfg config.SinksConf) *Manager {
	m := NewManager()
	enabled := false
	if cfg.Console.Enabled {
		m.Add(NewConsoleHandler(), parseSeverities(cfg.Console.Severities)...)
		enabled = true
	}
	if cfg.File.Enabled {
		m.Add(NewFileHandler(cfg.File.Path), parseSeverities(cfg.File.Severities)...)
		enabled = true
	}
	if cfg.Webhook.Enabled {
		m.Add(NewWebhookHandler(cfg.Webhook.URL, cfg.Webhook.Headers), parseSeverities(cfg.Webhook.Severities)...)
		enabled = true
	}
	if !enabled {
		return nil
	}
	return m
}

func parseSeverities(names []string) []alert.Severity {
	out := make([]alert.Severity, 0, len(names))
	for _, n := range names {
		s := alert.Severity(n)
		if s.Valid() {
			out = append(out, s)
		}
	}
	return out
}
