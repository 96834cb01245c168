package epcis

import (
	"encoding/json"
	"fmt"
	"time"
)

// wireEvent mirrors the iD Cloud API event shape. Aggregation events carry
// their EPCs under "child_epcs" instead of "epc_list", and source/destination
// entries key the ID under "source"/"destination" respectively.
type wireEvent struct {
	ID             string `json:"id"`
	EventID        string `json:"event_id"`
	Type           string `json:"type"`
	Action         string `json:"action"`
	EventTime      string `json:"event_time"`
	TimeZoneOffset string `json:"event_time_zone_offset"`
	RecordTime     string `json:"record_time"`

	Disposition string `json:"disposition"`
	BizStep     string `json:"biz_step"`
	BizLocation string `json:"biz_location"`
	ReadPoint   string `json:"read_point"`

	EPCList   []string `json:"epc_list"`
	ChildEPCs []string `json:"child_epcs"`

	QuantityList       []Quantity       `json:"quantity_list"`
	BizTransactionList []BizTransaction `json:"biz_transaction_list"`
	SourceList         []wireSourceDest `json:"source_list"`
	DestinationList    []wireSourceDest `json:"destination_list"`

	ErrorDeclaration map[string]any `json:"error_declaration"`
	StoredID         string         `json:"stored_id"`
	Metadata         map[string]any `json:"metadata"`
}

type wireSourceDest struct {
	Type        string `json:"type"`
	Source      string `json:"source"`
	Destination string `json:"destination"`
	ID          string `json:"id"`
}

func (w wireSourceDest) toSourceDest() SourceDest {
	id := w.ID
	if id == "" {
		if w.Source != "" {
			id = w.Source
		} else {
			id = w.Destination
		}
	}
	return SourceDest{Type: w.Type, ID: id}
}

// ParseEvent decodes a single event from the API wire format.
func ParseEvent(data []byte) (*Event, error) {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	return fromWire(&w)
}

// ParseEvents decodes a JSON array of events.
func ParseEvents(data []byte) ([]*Event, error) {
	var ws []wireEvent
	if err := json.Unmarshal(data, &ws); err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}
	events := make([]*Event, 0, len(ws))
	for i := range ws {
		ev, err := fromWire(&ws[i])
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		events = append(events, ev)
	}
	return events, nil
}

// QueryResponse is the envelope returned by the EPCIS query endpoint.
type QueryResponse struct {
	Events     []json.RawMessage `json:"events"`
	HasMore    bool              `json:"has_more"`
	NextCursor string            `json:"next_cursor"`
}

// ParseQueryResponse decodes the query envelope and its events.
func ParseQueryResponse(data []byte) ([]*Event, *QueryResponse, error) {
	var resp QueryResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, nil, fmt.Errorf("decode query response: %w", err)
	}
	events := make([]*Event, 0, len(resp.Events))
	for i, raw := range resp.Events {
		ev, err := ParseEvent(raw)
		if err != nil {
			return nil, nil, fmt.Errorf("event %d: %w", i, err)
		}
		events = append(events, ev)
	}
	return events, &resp, nil
}

func fromWire(w *wireEvent) (*Event, error) {
	id := w.ID
	if id == "" {
		id = w.EventID
	}

	typ := EventType(w.Type)
	if w.Type == "" {
		typ = ObjectEvent
	}

	action := Action(w.Action)
	if w.Action == "" {
		action = ActionObserve
	}

	eventTime, err := parseTime(w.EventTime)
	if err != nil {
		return nil, fmt.Errorf("event %s: event_time: %w", id, err)
	}

	var recordTime time.Time
	if w.RecordTime != "" {
		recordTime, err = parseTime(w.RecordTime)
		if err != nil {
			return nil, fmt.Errorf("event %s: record_time: %w", id, err)
		}
	}

	epcs := w.EPCList
	if typ == AggregationEvent && len(w.ChildEPCs) > 0 {
		epcs = w.ChildEPCs
	}

	ev := &Event{
		ID:                 id,
		Type:               typ,
		Action:             action,
		EventTime:          eventTime,
		TimeZoneOffset:     w.TimeZoneOffset,
		RecordTime:         recordTime,
		Disposition:        w.Disposition,
		BizStep:            w.BizStep,
		BizLocation:        w.BizLocation,
		ReadPoint:          w.ReadPoint,
		EPCList:            epcs,
		QuantityList:       w.QuantityList,
		BizTransactionList: w.BizTransactionList,
		ErrorDeclaration:   w.ErrorDeclaration,
		StoredID:           w.StoredID,
		Metadata:           w.Metadata,
	}
	for _, s := range w.SourceList {
		ev.SourceList = append(ev.SourceList, s.toSourceDest())
	}
	for _, d := range w.DestinationList {
		ev.DestinationList = append(ev.DestinationList, d.toSourceDest())
	}
	return ev, nil
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("missing timestamp")
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
