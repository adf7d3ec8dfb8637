package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"qr-booking-backend/logger"
)

type Location struct {
	Country string `json:"country"`
	City    string `json:"city"`
}

// LocalLocation is returned for private and loopback addresses.
var LocalLocation = Location{Country: "Local", City: "Development"}

// LocationProvider is one geolocation backend.
type LocationProvider interface {
	Name() string
	Lookup(ctx context.Context, ip string) (Location, error)
}

func getJSON(ctx context.Context, client *http.Client, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// IPAPIProvider queries ip-api.com.
type IPAPIProvider struct {
	Client  *http.Client
	BaseURL string
}

func (p *IPAPIProvider) Name() string { return "ip-api.com" }

func (p *IPAPIProvider) Lookup(ctx context.Context, ip string) (Location, error) {
	var body struct {
		Status  string `json:"status"`
		Message string `json:"message"`
		Country string `json:"country"`
		City    string `json:"city"`
	}
	url := fmt.Sprintf("%s/json/%s?fields=status,message,country,city", p.BaseURL, ip)
	if err := getJSON(ctx, p.Client, url, &body); err != nil {
		return Location{}, err
	}
	if body.Status != "success" {
		return Location{}, fmt.Errorf("ip-api: %s", body.Message)
	}
	return Location{Country: body.Country, City: body.City}, nil
}

// IPWhoProvider queries ipwho.is.
type IPWhoProvider struct {
	Client  *http.Client
	BaseURL string
}

func (p *IPWhoProvider) Name() string { return "ipwho.is" }

func (p *IPWhoProvider) Lookup(ctx context.Context, ip string) (Location, error) {
	var body struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
		Country string `json:"country"`
		City    string `json:"city"`
	}
	if err := getJSON(ctx, p.Client, p.BaseURL+"/"+ip, &body); err != nil {
		return Location{}, err
	}
	if !body.Success {
		return Location{}, fmt.Errorf("ipwho.is: %s", body.Message)
	}
	return Location{Country: body.Country, City: body.City}, nil
}

// IPAPICoProvider queries ipapi.co.
type IPAPICoProvider struct {
	Client  *http.Client
	BaseURL string
}

func (p *IPAPICoProvider) Name() string { return "ipapi.co" }

func (p *IPAPICoProvider) Lookup(ctx context.Context, ip string) (Location, error) {
	var body struct {
		Error       bool   `json:"error"`
		Reason      string `json:"reason"`
		CountryName string `json:"country_name"`
		City        string `json:"city"`
	}
	if err := getJSON(ctx, p.Client, p.BaseURL+"/"+ip+"/json/", &body); err != nil {
		return Location{}, err
	}
	if body.Error {
		return Location{}, fmt.Errorf("ipapi.co: %s", body.Reason)
	}
	return Location{Country: body.CountryName, City: body.City}, nil
}

// DefaultLocationProviders returns the providers in lookup order.
func DefaultLocationProviders(client *http.Client) []LocationProvider {
	return []LocationProvider{
		&IPAPIProvider{Client: client, BaseURL: "http://ip-api.com"},
		&IPWhoProvider{Client: client, BaseURL: "https://ipwho.is"},
		&IPAPICoProvider{Client: client, BaseURL: "https://ipapi.co"},
	}
}

// GeoCache stores resolved locations between lookups.
type GeoCache interface {
	Get(ctx context.Context, ip string) (Location, bool)
	Set(ctx context.Context, ip string, loc Location)
}

type RedisGeoCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisGeoCache(client *redis.Client, ttl time.Duration) GeoCache {
	if client == nil {
		return nil
	}
	return &RedisGeoCache{Client: client, TTL: ttl}
}

func (c *RedisGeoCache) Get(ctx context.Context, ip string) (Location, bool) {
	raw, err := c.Client.Get(ctx, "geo:"+ip).Bytes()
	if err != nil {
		return Location{}, false
	}
	var loc Location
	if err := json.Unmarshal(raw, &loc); err != nil {
		return Location{}, false
	}
	return loc, true
}

func (c *RedisGeoCache) Set(ctx context.Context, ip string, loc Location) {
	raw, err := json.Marshal(loc)
	if err != nil {
		return
	}
	_ = c.Client.Set(ctx, "geo:"+ip, raw, c.TTL).Err()
}

// GeoLocator tries each provider in order; the first usable answer wins.
type GeoLocator struct {
	Providers []LocationProvider
	Cache     GeoCache
	Timeout   time.Duration
	Log       *logger.Logger
}

func NewGeoLocator(providers []LocationProvider, cache GeoCache, timeout time.Duration, log *logger.Logger) *GeoLocator {
	return &GeoLocator{Providers: providers, Cache: cache, Timeout: timeout, Log: log}
}

// ResolveLocation returns ErrLocationUnknown when no provider produced a
// result. Private and loopback addresses never reach the network.
func (g *GeoLocator) ResolveLocation(ctx context.Context, ip string) (Location, error) {
	if IsLocalIP(ip) {
		return LocalLocation, nil
	}
	if g.Cache != nil {
		if loc, ok := g.Cache.Get(ctx, ip); ok {
			return loc, nil
		}
	}

	var errs []error
	for _, p := range g.Providers {
		loc, err := g.lookup(ctx, p, ip)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
			continue
		}
		if g.Cache != nil {
			g.Cache.Set(ctx, ip, loc)
		}
		return loc, nil
	}
	if len(errs) > 0 {
		g.Log.Debug("GEO", fmt.Sprintf("lookup %s failed: %v", ip, errors.Join(errs...)))
	}
	return Location{}, ErrLocationUnknown
}

func (g *GeoLocator) lookup(ctx context.Context, p LocationProvider, ip string) (Location, error) {
	if g.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.Timeout)
		defer cancel()
	}
	loc, err := p.Lookup(ctx, ip)
	if err != nil {
		return Location{}, err
	}
	loc.Country = strings.TrimSpace(loc.Country)
	loc.City = strings.TrimSpace(loc.City)
	if loc.Country == "" && loc.City == "" {
		return Location{}, errors.New("empty result")
	}
	return loc, nil
}
