package epcis_test

import (
	"testing"
	"time"

	"github.com/xadriann/stockwatch/internal/epcis"
)

func TestParseEventObjectEvent(t *testing.T) {
	data := []byte(`{
		"id": "evt-1",
		"type": "object_event",
		"action": "ADD",
		"event_time": "2026-03-10T09:15:00Z",
		"record_time": "2026-03-10T09:15:03Z",
		"disposition": "urn:epcglobal:cbv:disp:damaged",
		"biz_step": "urn:epcglobal:cbv:bizstep:inspecting",
		"biz_location": "http://nedapretail.com/loc/store-001",
		"read_point": "http://nedapretail.com/loc/store-001/stockroom",
		"epc_list": ["urn:epc:id:sgtin:000000.000001.1"],
		"biz_transaction_list": [{"type": "urn:epcglobal:cbv:btt:inv", "value": "INV-7"}],
		"source_list": [{"type": "urn:epcglobal:cbv:sdt:owning_party", "source": "urn:epc:id:pgln:0.1"}],
		"destination_list": [{"type": "urn:epcglobal:cbv:sdt:owning_party", "destination": "urn:epc:id:pgln:0.2"}]
	}`)

	ev, err := epcis.ParseEvent(data)
	if err != nil {
		t.Fatalf("ParseEvent: %v", err)
	}

	if ev.ID != "evt-1" {
		t.Errorf("ID = %q", ev.ID)
	}
	if ev.Action != epcis.ActionAdd {
		t.Errorf("Action = %q", ev.Action)
	}
	if want := time.Date(2026, 3, 10, 9, 15, 0, 0, time.UTC); !ev.EventTime.Equal(want) {
		t.Errorf("EventTime = %v, want %v", ev.EventTime, want)
	}
	if !ev.IsDamaged() || !ev.IsInspection() {
		t.Errorf("event should read as a damaged inspection: disp=%q step=%q", ev.Disposition, ev.BizStep)
	}
	if ev.PrimaryEPC() != "urn:epc:id:sgtin:000000.000001.1" {
		t.Errorf("PrimaryEPC = %q", ev.PrimaryEPC())
	}
	if len(ev.SourceList) != 1 || ev.SourceList[0].ID != "urn:epc:id:pgln:0.1" {
		t.Errorf("SourceList = %+v", ev.SourceList)
	}
	if len(ev.DestinationList) != 1 || ev.DestinationList[0].ID != "urn:epc:id:pgln:0.2" {
		t.Errorf("DestinationList = %+v", ev.DestinationList)
	}
}

func TestParseEventDefaults(t *testing.T) {
	ev, err := epcis.ParseEvent([]byte(`{"id": "evt-2", "event_time": "2026-03-10T09:15:00Z"}`))
	if err != nil {
		t.Fatalf("ParseEvent: %v", err)
	}
	if ev.Type != epcis.ObjectEvent {
		t.Errorf("Type = %q, want object_event default", ev.Type)
	}
	if ev.Action != epcis.ActionObserve {
		t.Errorf("Action = %q, want OBSERVE default", ev.Action)
	}
}

func TestParseEventAggregationUsesChildEPCs(t *testing.T) {
	ev, err := epcis.ParseEvent([]byte(`{
		"id": "evt-3",
		"type": "aggregation_event",
		"event_time": "2026-03-10T09:15:00Z",
		"child_epcs": ["urn:epc:id:sgtin:0.1.1", "urn:epc:id:sgtin:0.1.2"]
	}`))
	if err != nil {
		t.Fatalf("ParseEvent: %v", err)
	}
	if len(ev.EPCList) != 2 {
		t.Fatalf("EPCList = %v, want the two child EPCs", ev.EPCList)
	}
}

func TestParseEventTimeFormats(t *testing.T) {
	for _, ts := range []string{
		"2026-03-10T09:15:00Z",
		"2026-03-10T09:15:00.123456+01:00",
		"2026-03-10T09:15:00",
		"2026-03-10 09:15:00",
	} {
		if _, err := epcis.ParseEvent([]byte(`{"id": "e", "event_time": "` + ts + `"}`)); err != nil {
			t.Errorf("timestamp %q rejected: %v", ts, err)
		}
	}
}

func TestParseEventMissingEventTime(t *testing.T) {
	if _, err := epcis.ParseEvent([]byte(`{"id": "evt-4"}`)); err == nil {
		t.Fatal("expected an error for a missing event_time")
	}
}

func TestParseQueryResponse(t *testing.T) {
	events, resp, err := epcis.ParseQueryResponse([]byte(`{
		"events": [
			{"id": "a", "event_time": "2026-03-10T09:00:00Z"},
			{"id": "b", "event_time": "2026-03-10T09:01:00Z"}
		],
		"has_more": true,
		"next_cursor": "cursor-2"
	}`))
	if err != nil {
		t.Fatalf("ParseQueryResponse: %v", err)
	}
	if len(events) != 2 || events[0].ID != "a" || events[1].ID != "b" {
		t.Errorf("events = %+v", events)
	}
	if !resp.HasMore || resp.NextCursor != "cursor-2" {
		t.Errorf("envelope = %+v", resp)
	}
}

func TestIsSold(t *testing.T) {
	tests := []struct {
		name string
		ev   epcis.Event
		want bool
	}{
		{"retail selling step", epcis.Event{BizStep: epcis.StepRetailSelling}, true},
		{"retail sold disposition", epcis.Event{Disposition: epcis.DispRetailSold}, true},
		{"online sold disposition", epcis.Event{Disposition: epcis.DispOnlineSold}, true},
		{"cycle count with sold disp", epcis.Event{BizStep: epcis.StepCycleCounting, Disposition: epcis.DispRetailSold}, true},
		{"plain observation", epcis.Event{BizStep: epcis.StepStoring, Disposition: epcis.DispSellableAccessible}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ev.IsSold(); got != tt.want {
				t.Errorf("IsSold() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLocationFallsBackToReadPoint(t *testing.T) {
	ev := epcis.Event{ReadPoint: "rp"}
	if ev.Location() != "rp" {
		t.Errorf("Location() = %q, want the read point", ev.Location())
	}
	ev.BizLocation = "bl"
	if ev.Location() != "bl" {
		t.Errorf("Location() = %q, want the business location", ev.Location())
	}
}
