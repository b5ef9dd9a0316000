// Package geoip enriches presence rows with a best-effort IP location
// lookup. A failed lookup degrades to "Unknown" fields and is cached like a
// success so the upstream service is asked at most once per address.
package geoip

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheTTL = 24 * time.Hour

type Location struct {
	IP      string `json:"ip"`
	City    string `json:"city"`
	Region  string `json:"region"`
	Country string `json:"country_name"`
}

func unknown(ip string) Location {
	return Location{IP: ip, City: "Unknown", Region: "Unknown", Country: "Unknown"}
}

type Cache interface {
	Get(ctx context.Context, ip string) (Location, bool)
	Set(ctx context.Context, ip string, loc Location)
}

type Client struct {
	BaseURL string
	HTTP    *http.Client
	Cache   Cache
}

func NewClient(baseURL string, cache Cache) *Client {
	if cache == nil {
		cache = NewMemoryCache()
	}
	return &Client{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 5 * time.Second},
		Cache:   cache,
	}
}

// Lookup never returns an error: any failure yields Unknown fields.
func (c *Client) Lookup(ctx context.Context, ip string) Location {
	if loc, ok := c.Cache.Get(ctx, ip); ok {
		return loc
	}

	loc, err := c.fetch(ctx, ip)
	if err != nil {
		loc = unknown(ip)
	}
	c.Cache.Set(ctx, ip, loc)
	return loc
}

func (c *Client) fetch(ctx context.Context, ip string) (Location, error) {
	url := fmt.Sprintf("%s/%s/json/", c.BaseURL, ip)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Location{}, err
	}

	res, err := c.HTTP.Do(req)
	if err != nil {
		return Location{}, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return Location{}, fmt.Errorf("geoip: status %d", res.StatusCode)
	}

	var loc Location
	if err := json.NewDecoder(res.Body).Decode(&loc); err != nil {
		return Location{}, err
	}
	if loc.IP == "" {
		loc.IP = ip
	}
	return loc, nil
}

type MemoryCache struct {
	mu   sync.RWMutex
	locs map[string]Location
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{locs: make(map[string]Location)}
}

func (m *MemoryCache) Get(_ context.Context, ip string) (Location, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	loc, ok := m.locs[ip]
	return loc, ok
}

func (m *MemoryCache) Set(_ context.Context, ip string, loc Location) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locs[ip] = loc
}

// RedisCache shares lookups across instances.
type RedisCache struct {
	Client *redis.Client
}

func (r *RedisCache) Get(ctx context.Context, ip string) (Location, bool) {
	raw, err := r.Client.Get(ctx, "geoip:"+ip).Bytes()
	if err != nil {
		return Location{}, false
	}
	var loc Location
	if err := json.Unmarshal(raw, &loc); err != nil {
		return Location{}, false
	}
	return loc, true
}

func (r *RedisCache) Set(ctx context.Context, ip string, loc Location) {
	raw, err := json.Marshal(loc)
	if err != nil {
		return
	}
	r.Client.Set(ctx, "geoip:"+ip, raw, cacheTTL)
}
