// Package idcloud talks to the iD Cloud EPCIS query API. It pages through
// query results with the API's cursor protocol and hands back decoded events.
package idcloud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/xadriann/stockwatch/internal/config"
	"github.com/xadriann/stockwatch/internal/epcis"
)

const queryPath = "/epcis/v3/query"

// Param is one EPCIS query parameter, e.g. {Name: "EQ_disposition",
// Value: epcis.DispDamaged}.
type Param struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// queryBody is the POST body for the query endpoint.
type queryBody struct {
	Parameters     []Param `json:"parameters,omitempty"`
	UseCursor      bool    `json:"use_cursor,omitempty"`
	FromCursor     string  `json:"from_cursor,omitempty"`
	MaxEventCount  int     `json:"maxEventCount,omitempty"`
	OrderBy        string  `json:"orderBy,omitempty"`
	OrderDirection string  `json:"orderDirection,omitempty"`
}

// Client queries EPCIS events from the iD Cloud API.
type Client struct {
	baseURL   string
	token     string
	http      *http.Client
	pageDelay time.Duration
	maxEvents int
}

// New builds a Client from the API configuration.
func New(cfg config.APIConf) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		token:     cfg.Token,
		http:      &http.Client{Timeout: timeout},
		pageDelay: time.Duration(cfg.PageDelayMs) * time.Millisecond,
		maxEvents: cfg.MaxEvents,
	}
}

// Page is one page of query results.
type Page struct {
	Events     []*epcis.Event
	HasMore    bool
	NextCursor string
}

// Query runs a single query request. cursor is empty on the first page.
func (c *Client) Query(ctx context.Context, params []Param, cursor string) (*Page, error) {
	body := queryBody{
		Parameters: params,
		UseCursor:  true,
		FromCursor: cursor,
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+queryPath, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("building query request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading query response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("query returned %d: %s", resp.StatusCode, truncate(data, 200))
	}

	events, env, err := epcis.ParseQueryResponse(data)
	if err != nil {
		return nil, err
	}
	return &Page{Events: events, HasMore: env.HasMore, NextCursor: env.NextCursor}, nil
}

// FetchAll pages through all events matching params, honoring the configured
// event cap and inter-page delay. Individual page errors end the fetch with
// whatever was collected so far.
func (c *Client) FetchAll(ctx context.Context, params []Param) ([]*epcis.Event, error) {
	var all []*epcis.Event
	cursor := ""
	for {
		page, err := c.Query(ctx, params, cursor)
		if err != nil {
			if len(all) > 0 {
				slog.Warn("fetch ended early", "fetched", len(all), "err", err)
				return all, nil
			}
			return nil, err
		}
		all = append(all, page.Events...)

		if c.maxEvents > 0 && len(all) >= c.maxEvents {
			return all[:c.maxEvents], nil
		}
		if !page.HasMore || page.NextCursor == "" {
			return all, nil
		}
		cursor = page.NextCursor

		if c.pageDelay > 0 {
			select {
			case <-time.After(c.pageDelay):
			case <-ctx.Done():
				return all, ctx.Err()
			}
		}
	}
}

// DamagedParams builds the parameter list for damaged-disposition queries.
// location and the time bounds are optional.
func DamagedParams(location string, from, to time.Time) []Param {
	params := []Param{{Name: "EQ_disposition", Value: epcis.DispDamaged}}
	if location != "" {
		params = append(params, Param{Name: "EQ_bizLocation", Value: location})
	}
	return appendTimeBounds(params, from, to)
}

// BizStepParams builds the parameter list for business-step queries.
func BizStepParams(bizStep, location string, from, to time.Time) []Param {
	params := []Param{{Name: "EQ_bizStep", Value: bizStep}}
	if location != "" {
		params = append(params, Param{Name: "EQ_bizLocation", Value: location})
	}
	return appendTimeBounds(params, from, to)
}

// EPCParams builds the parameter list for per-item history queries.
func EPCParams(epc string, from, to time.Time) []Param {
	return appendTimeBounds([]Param{{Name: "MATCH_epc", Value: epc}}, from, to)
}

// DamagedInShipmentParams matches events that mark items damaged while
// shipping them out.
func DamagedInShipmentParams(from, to time.Time) []Param {
	params := []Param{
		{Name: "EQ_bizStep", Value: epcis.StepShipping},
		{Name: "EQ_disposition", Value: epcis.DispDamaged},
	}
	return appendTimeBounds(params, from, to)
}

// RecentParams matches all events from the last hours, optionally narrowed by
// location and disposition.
func RecentParams(hours int, location, disposition string) []Param {
	from := time.Now().UTC().Add(-time.Duration(hours) * time.Hour)
	params := []Param{{Name: "GE_eventTime", Value: from.Format(time.RFC3339)}}
	if location != "" {
		params = append(params, Param{Name: "EQ_bizLocation", Value: location})
	}
	if disposition != "" {
		params = append(params, Param{Name: "EQ_disposition", Value: disposition})
	}
	return params
}

func appendTimeBounds(params []Param, from, to time.Time) []Param {
	if !from.IsZero() {
		params = append(params, Param{Name: "GE_eventTime", Value: from.Format(time.RFC3339)})
	}
	if !to.IsZero() {
		params = append(params, Param{Name: "LT_eventTime", Value: to.Format(time.RFC3339)})
	}
	return params
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
