// Package locations resolves iD Cloud location URNs to store and sublocation
// names. The mapping is fetched once from the organization API and cached;
// when the fetch fails the mapper degrades to passing raw location IDs
// through.
package locations

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/xadriann/stockwatch/internal/config"
)

const (
	orgRetrievePath = "/organization/v1/retrieve"
	listStoresPath  = "/organization/v2/list_stores"
)

// Info is what the mapper knows about one location URN.
type Info struct {
	StoreName       string
	SublocationName string
	SublocationType string // "sales_floor", "stockroom" or ""
	StoreLocation   string
}

// Mapper caches the organization's store layout. It satisfies the detector
// layer's sublocation classifier.
type Mapper struct {
	baseURL string
	token   string
	http    *http.Client

	mu      sync.RWMutex
	orgName string
	byLoc   map[string]Info
	ready   bool
}

// New builds an uninitialized Mapper from the API configuration. Call
// Initialize before first use; lookups on an uninitialized mapper fall back
// to raw IDs.
func New(cfg config.APIConf) *Mapper {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Mapper{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		http:    &http.Client{Timeout: timeout},
		byLoc:   make(map[string]Info),
	}
}

type wireSublocation struct {
	Location string `json:"location"`
	Name     string `json:"name"`
	Type     string `json:"type"`
}

type wireStore struct {
	Location     string            `json:"location"`
	Name         string            `json:"name"`
	StoreCode    string            `json:"store_code"`
	StoreType    string            `json:"store_type"`
	Sublocations []wireSublocation `json:"sublocations"`
}

// Initialize fetches the organization name and the store list and builds the
// location index. Safe to call more than once; later calls refresh the cache.
func (m *Mapper) Initialize(ctx context.Context) error {
	orgName, err := m.fetchOrgName(ctx)
	if err != nil {
		return fmt.Errorf("fetching organization: %w", err)
	}

	stores, err := m.fetchStores(ctx)
	if err != nil {
		return fmt.Errorf("fetching stores: %w", err)
	}

	byLoc := make(map[string]Info)
	for _, store := range stores {
		if store.Location != "" {
			byLoc[store.Location] = Info{
				StoreName:     store.Name,
				StoreLocation: store.Location,
			}
		}
		for _, sub := range store.Sublocations {
			if sub.Location == "" {
				continue
			}
			storeLoc := store.Location
			if storeLoc == "" {
				storeLoc = sub.Location
			}
			byLoc[sub.Location] = Info{
				StoreName:       store.Name,
				SublocationName: sub.Name,
				SublocationType: normalizeType(sub.Type, sub.Name),
				StoreLocation:   storeLoc,
			}
		}
	}

	m.mu.Lock()
	m.orgName = orgName
	m.byLoc = byLoc
	m.ready = true
	m.mu.Unlock()
	return nil
}

// Ready reports whether the location index has been loaded.
func (m *Mapper) Ready() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ready
}

// OrganizationName returns the cached organization name, empty when unknown.
func (m *Mapper) OrganizationName() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.orgName
}

// StoreInfo resolves a location URN. Unknown locations come back with the
// raw ID as the store location.
func (m *Mapper) StoreInfo(locationID string) Info {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if info, ok := m.byLoc[locationID]; ok {
		return info
	}
	return Info{StoreLocation: locationID}
}

// Lookup returns the sublocation type for a location URN. It reports false
// when the location is unknown or carries no recognizable type.
func (m *Mapper) Lookup(locationID string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	info, ok := m.byLoc[locationID]
	if !ok || info.SublocationType == "" {
		return "", false
	}
	return info.SublocationType, true
}

// DisplayName formats a location as "Store (Sublocation) [urn]".
func (m *Mapper) DisplayName(locationID string) string {
	short := m.ShortDisplayName(locationID)
	if short == locationID {
		return locationID
	}
	return fmt.Sprintf("%s [%s]", short, locationID)
}

// ShortDisplayName formats a location as "Store (Sublocation)", falling back
// to the raw URN when the location is unknown.
func (m *Mapper) ShortDisplayName(locationID string) string {
	info := m.StoreInfo(locationID)
	var b strings.Builder
	if info.StoreName != "" {
		b.WriteString(info.StoreName)
	}
	if info.SublocationName != "" {
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		b.WriteString("(" + info.SublocationName + ")")
	}
	if b.Len() == 0 {
		return locationID
	}
	return b.String()
}

func (m *Mapper) fetchOrgName(ctx context.Context) (string, error) {
	var body struct {
		Own struct {
			Name string `json:"name"`
		} `json:"own"`
	}
	if err := m.getJSON(ctx, m.baseURL+orgRetrievePath, &body); err != nil {
		return "", err
	}
	return body.Own.Name, nil
}

func (m *Mapper) fetchStores(ctx context.Context) ([]wireStore, error) {
	q := url.Values{}
	for _, f := range []string{"location", "name", "store_code", "store_type", "sublocations"} {
		q.Add("fields[]", f)
	}

	raw, err := m.get(ctx, m.baseURL+listStoresPath+"?"+q.Encode())
	if err != nil {
		return nil, err
	}

	// The endpoint returns either a bare array or {"stores": [...]}.
	var stores []wireStore
	if err := json.Unmarshal(raw, &stores); err == nil {
		return stores, nil
	}
	var wrapped struct {
		Stores []wireStore `json:"stores"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("decoding store list: %w", err)
	}
	return wrapped.Stores, nil
}

func (m *Mapper) getJSON(ctx context.Context, url string, out any) error {
	raw, err := m.get(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding %s: %w", url, err)
	}
	return nil
}

func (m *Mapper) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if m.token != "" {
		req.Header.Set("Authorization", "Bearer "+m.token)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := m.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s returned %d", url, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// normalizeType maps the API's sublocation type, or failing that a name
// heuristic, onto the detector vocabulary.
func normalizeType(typ, name string) string {
	switch strings.ToLower(typ) {
	case "sales_floor", "salesfloor", "sales floor":
		return "sales_floor"
	case "stockroom", "stock_room", "backroom", "warehouse":
		return "stockroom"
	}
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "sales floor"), strings.Contains(lower, "salesfloor"), strings.Contains(lower, "shop floor"):
		return "sales_floor"
	case strings.Contains(lower, "stockroom"), strings.Contains(lower, "stock room"), strings.Contains(lower, "backroom"), strings.Contains(lower, "back room"):
		return "stockroom"
	}
	return ""
}
