package locations_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/xadriann/stockwatch/internal/config"
	"github.com/xadriann/stockwatch/internal/locations"
)

const (
	storeLoc      = "http://nedapretail.com/loc/store-001"
	salesFloorLoc = "http://nedapretail.com/loc/store-001/salesfloor"
	stockroomLoc  = "http://nedapretail.com/loc/store-001/stockroom"
)

func orgServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/organization/v1/retrieve", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"own": map[string]any{"name": "Acme Retail"},
		})
	})
	mux.HandleFunc("/organization/v2/list_stores", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query()["fields[]"]; len(got) == 0 {
			t.Error("missing fields[] query parameters")
		}
		json.NewEncoder(w).Encode([]map[string]any{
			{
				"location": storeLoc,
				"name":     "Downtown",
				"sublocations": []map[string]any{
					{"location": salesFloorLoc, "name": "Sales Floor", "type": "sales_floor"},
					{"location": stockroomLoc, "name": "Back Room"},
				},
			},
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func initializedMapper(t *testing.T) *locations.Mapper {
	t.Helper()
	srv := orgServer(t)
	m := locations.New(config.APIConf{BaseURL: srv.URL, Token: "tok", TimeoutSeconds: 5})
	if err := m.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	return m
}

func TestMapperInitialize(t *testing.T) {
	m := initializedMapper(t)

	if !m.Ready() {
		t.Error("mapper not ready after Initialize")
	}
	if m.OrganizationName() != "Acme Retail" {
		t.Errorf("OrganizationName = %q", m.OrganizationName())
	}

	info := m.StoreInfo(salesFloorLoc)
	if info.StoreName != "Downtown" || info.SublocationName != "Sales Floor" {
		t.Errorf("StoreInfo = %+v", info)
	}
	if info.StoreLocation != storeLoc {
		t.Errorf("StoreLocation = %q, want the parent store", info.StoreLocation)
	}
}

func TestMapperLookupSublocationType(t *testing.T) {
	m := initializedMapper(t)

	typ, ok := m.Lookup(salesFloorLoc)
	if !ok || typ != "sales_floor" {
		t.Errorf("Lookup(sales floor) = %q, %v", typ, ok)
	}

	// No explicit type: the name heuristic classifies "Back Room".
	typ, ok = m.Lookup(stockroomLoc)
	if !ok || typ != "stockroom" {
		t.Errorf("Lookup(stockroom) = %q, %v", typ, ok)
	}

	// The main store location carries no sublocation type.
	if _, ok := m.Lookup(storeLoc); ok {
		t.Error("Lookup(store) reported a sublocation type")
	}
	if _, ok := m.Lookup("http://nedapretail.com/loc/nowhere"); ok {
		t.Error("Lookup(unknown) reported a sublocation type")
	}
}

func TestMapperDisplayNames(t *testing.T) {
	m := initializedMapper(t)

	if got := m.ShortDisplayName(salesFloorLoc); got != "Downtown (Sales Floor)" {
		t.Errorf("ShortDisplayName = %q", got)
	}
	if got := m.DisplayName(storeLoc); got != "Downtown ["+storeLoc+"]" {
		t.Errorf("DisplayName = %q", got)
	}

	unknown := "http://nedapretail.com/loc/nowhere"
	if got := m.DisplayName(unknown); got != unknown {
		t.Errorf("DisplayName(unknown) = %q, want the raw URN", got)
	}
}

func TestMapperDegradedWithoutInitialize(t *testing.T) {
	m := locations.New(config.APIConf{BaseURL: "http://127.0.0.1:0", TimeoutSeconds: 1})

	if m.Ready() {
		t.Error("uninitialized mapper reports ready")
	}
	if _, ok := m.Lookup(salesFloorLoc); ok {
		t.Error("uninitialized mapper resolved a sublocation")
	}
	if got := m.ShortDisplayName(salesFloorLoc); got != salesFloorLoc {
		t.Errorf("ShortDisplayName = %q, want passthrough", got)
	}
}

func TestMapperWrappedStoreList(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/organization/v1/retrieve", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"own": map[string]any{"name": "Acme"}})
	})
	mux.HandleFunc("/organization/v2/list_stores", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"stores": []map[string]any{{"location": storeLoc, "name": "Downtown"}},
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	m := locations.New(config.APIConf{BaseURL: srv.URL, TimeoutSeconds: 5})
	if err := m.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if m.StoreInfo(storeLoc).StoreName != "Downtown" {
		t.Error("wrapped store list not decoded")
	}
}
