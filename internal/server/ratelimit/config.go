package ratelimit

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// EndpointConfig is the token bucket applied to one route.
type EndpointConfig struct {
	Path   string        // Exact path, or a prefix when it ends with "/"
	Method string        // HTTP method
	Limit  int           // Requests refilled per Window; 0 means unlimited
	Window time.Duration // Refill period
	Burst  int           // Bucket size (defaults to Limit if 0)
}

// Environment variables read by LoadConfig
const (
	EnvEnabled         = "RATE_LIMIT_ENABLED"
	EnvDefaultLimit    = "RATE_LIMIT_DEFAULT_LIMIT"
	EnvDefaultWindow   = "RATE_LIMIT_DEFAULT_WINDOW"
	EnvCleanupInterval = "RATE_LIMIT_CLEANUP_INTERVAL"
	EnvWhitelist       = "RATE_LIMIT_WHITELIST"
	EnvBlacklist       = "RATE_LIMIT_BLACKLIST"
	// EnvEndpoints overrides endpoint buckets: "POST /mail=30/1h:5, POST /outreach=5/1h"
	EnvEndpoints = "RATE_LIMIT_ENDPOINTS"
)

// LoadConfig builds the limiter configuration from the process environment.
func LoadConfig() *Config {
	return loadConfig(os.LookupEnv)
}

type lookupFunc func(key string) (string, bool)

func loadConfig(lookup lookupFunc) *Config {
	env := envReader(lookup)

	if !env.boolean(EnvEnabled, true) {
		return &Config{Enabled: false}
	}

	endpoints := DefaultEndpointConfigs()
	if spec, ok := lookup(EnvEndpoints); ok {
		overrides, err := ParseEndpoints(spec)
		if err == nil {
			endpoints = mergeEndpoints(endpoints, overrides)
		}
	}

	return &Config{
		Enabled:         true,
		DefaultLimit:    env.integer(EnvDefaultLimit, 1000),
		DefaultWindow:   env.duration(EnvDefaultWindow, time.Minute),
		CleanupInterval: env.duration(EnvCleanupInterval, 5*time.Minute),
		Whitelist:       clientSet(env.str(EnvWhitelist)),
		Blacklist:       clientSet(env.str(EnvBlacklist)),
		EndpointConfigs: endpoints,
	}
}

// DefaultEndpointConfigs returns the built-in buckets. Every POST endpoint
// except link lookup makes at least one model call.
func DefaultEndpointConfigs() []EndpointConfig {
	return []EndpointConfig{
		// One extraction plus one email per posting
		{Path: "/outreach", Method: "POST", Limit: 10, Window: time.Hour, Burst: 2},
		{Path: "/outreach/stream", Method: "POST", Limit: 10, Window: time.Hour, Burst: 2},

		{Path: "/jobs/extract", Method: "POST", Limit: 60, Window: time.Hour, Burst: 5},
		{Path: "/mail", Method: "POST", Limit: 60, Window: time.Hour, Burst: 5},

		{Path: "/portfolio/links", Method: "POST", Limit: 300, Window: time.Minute, Burst: 30},
	}
}

// ParseEndpoints parses a comma-separated list of "METHOD /path=limit/window[:burst]".
func ParseEndpoints(spec string) ([]EndpointConfig, error) {
	var out []EndpointConfig
	for _, item := range strings.Split(spec, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}

		route, rate, ok := strings.Cut(item, "=")
		method, path, okRoute := strings.Cut(strings.TrimSpace(route), " ")
		if !ok || !okRoute {
			return nil, fmt.Errorf("endpoint %q: want \"METHOD /path=limit/window\"", item)
		}

		rate, burstStr, hasBurst := strings.Cut(rate, ":")
		limitStr, windowStr, ok := strings.Cut(rate, "/")
		if !ok {
			return nil, fmt.Errorf("endpoint %q: missing window", item)
		}
		limit, err := strconv.Atoi(strings.TrimSpace(limitStr))
		if err != nil || limit < 0 {
			return nil, fmt.Errorf("endpoint %q: bad limit %q", item, limitStr)
		}
		window, err := time.ParseDuration(strings.TrimSpace(windowStr))
		if err != nil || window <= 0 {
			return nil, fmt.Errorf("endpoint %q: bad window %q", item, windowStr)
		}

		ec := EndpointConfig{
			Path:   strings.TrimSpace(path),
			Method: strings.ToUpper(method),
			Limit:  limit,
			Window: window,
		}
		if hasBurst {
			if ec.Burst, err = strconv.Atoi(strings.TrimSpace(burstStr)); err != nil || ec.Burst < 0 {
				return nil, fmt.Errorf("endpoint %q: bad burst %q", item, burstStr)
			}
		}
		out = append(out, ec)
	}
	return out, nil
}

// mergeEndpoints replaces base entries with overrides for the same route and
// appends new routes.
func mergeEndpoints(base, overrides []EndpointConfig) []EndpointConfig {
	out := append([]EndpointConfig(nil), base...)
outer:
	for _, o := range overrides {
		for i := range out {
			if out[i].Path == o.Path && out[i].Method == o.Method {
				out[i] = o
				continue outer
			}
		}
		out = append(out, o)
	}
	return out
}

// envReader reads typed values, falling back to the default on absent or
// malformed input.
type envReader lookupFunc

func (e envReader) str(key string) string {
	v, _ := e(key)
	return strings.TrimSpace(v)
}

func (e envReader) integer(key string, def int) int {
	if n, err := strconv.Atoi(e.str(key)); err == nil {
		return n
	}
	return def
}

func (e envReader) boolean(key string, def bool) bool {
	if b, err := strconv.ParseBool(e.str(key)); err == nil {
		return b
	}
	return def
}

func (e envReader) duration(key string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(e.str(key)); err == nil {
		return d
	}
	return def
}

// clientSet parses a comma-separated list of client IDs.
func clientSet(list string) map[string]bool {
	set := make(map[string]bool)
	for _, id := range strings.Split(list, ",") {
		if id = strings.TrimSpace(id); id != "" {
			set[id] = true
		}
	}
	return set
}
