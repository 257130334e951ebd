// Package geocode turns free-text addresses into coordinates through a
// Nominatim-compatible search endpoint. Lookups are throttled by a RateGate
// and cached for the life of the process.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Config struct {
	BaseURL     string
	UserAgent   string
	MinInterval time.Duration
	HTTPClient  *http.Client
	Gate        *RateGate
}

type Resolver struct {
	baseURL   string
	userAgent string
	client    *http.Client
	gate      *RateGate

	mu sync.RWMutex
	// nil value: the service answered and found nothing
	cache map[string]*Coordinate
}

func New(cfg Config) *Resolver {
	r := &Resolver{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		client:    cfg.HTTPClient,
		gate:      cfg.Gate,
		cache:     make(map[string]*Coordinate),
	}
	if r.client == nil {
		r.client = &http.Client{Timeout: 10 * time.Second}
	}
	if r.gate == nil {
		r.gate = NewRateGate(cfg.MinInterval)
	}
	return r
}

// Resolve returns the coordinate for address, or nil when the service has no
// match. Transport failures are returned and not cached.
func (r *Resolver) Resolve(ctx context.Context, address string) (*Coordinate, error) {
	key := normalize(address)
	if key == "" {
		return nil, nil
	}

	if c, ok := r.cached(key); ok {
		return c, nil
	}

	if err := r.gate.Wait(ctx); err != nil {
		return nil, err
	}

	c, err := r.lookup(ctx, address)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.cache[key] = c
	r.mu.Unlock()
	return c, nil
}

func (r *Resolver) cached(key string) (*Coordinate, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.cache[key]
	return c, ok
}

type searchResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

func (r *Resolver) lookup(ctx context.Context, address string) (*Coordinate, error) {
	q := url.Values{}
	q.Set("q", strings.TrimSpace(address))
	q.Set("format", "json")
	q.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("geocode request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocode service returned %d", resp.StatusCode)
	}

	var results []searchResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("geocode response: %w", err)
	}
	if len(results) == 0 {
		return nil, nil
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("geocode lat %q: %w", results[0].Lat, err)
	}
	lng, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("geocode lon %q: %w", results[0].Lon, err)
	}
	return &Coordinate{Lat: lat, Lng: lng}, nil
}

// normalize folds case and whitespace so trivially different spellings share a cache slot.
func normalize(address string) string {
	return strings.Join(strings.Fields(strings.ToLower(address)), " ")
}
