package sink

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/xadriann/stockwatch/internal/alert"
)

// ConsoleHandler logs alerts through the process logger.
type ConsoleHandler struct{}

func NewConsoleHandler() *ConsoleHandler { return &ConsoleHandler{} }

func (h *ConsoleHandler) Name() string { return "console" }

func (h *ConsoleHandler) Handle(a *alert.Alert) error {
	slog.Warn("alert",
		"alert_id", a.ID,
		"rule_id", a.RuleID,
		"rule", a.RuleName,
		"severity", a.Severity,
		"epc", a.EPC,
		"location", a.Location,
		"description", a.Description,
	)
	return nil
}

// FileHandler appends alerts to a JSONL file, one JSON object per line.
type FileHandler struct {
	path string
	mu   sync.Mutex
}

func NewFileHandler(path string) *FileHandler {
	return &FileHandler{path: path}
}

func (h *FileHandler) Name() string { return "file" }

func (h *FileHandler) Handle(a *alert.Alert) error {
	line, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encoding alert %s: %w", a.ID, err)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	f, err := os.OpenFile(h.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening alert file: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("writing alert %s: %w", a.ID, err)
	}
	return nil
}

// WebhookHandler POSTs each alert as a JSON document to a configured URL.
type WebhookHandler struct {
	url     string
	headers map[string]string
	client  *http.Client
}

func NewWebhookHandler(url string, headers map[string]string) *WebhookHandler {
	return &WebhookHandler{
		url:     url,
		headers: headers,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (h *WebhookHandler) Name() string { return "webhook" }

func (h *WebhookHandler) Handle(a *alert.Alert) error {
	body, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encoding alert %s: %w", a.ID, err)
	}
	req, err := http.NewRequest(http.MethodPost, h.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range h.headers {
		req.Header.Set(k, v)
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting alert %s: %w", a.ID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned %d for alert %s", resp.StatusCode, a.ID)
	}
	return nil
}
