package ratelimit

import "strings"

// exempt routes are never limited
var exempt = map[string]bool{
	"GET /health": true,
}

// unlimited is returned for exempt routes
var unlimited = EndpointConfig{}

// MatchEndpoint returns the bucket configuration for a request, or nil if
// none applies. An exact path wins; otherwise the longest "/"-terminated
// prefix configured for the method is used.
func MatchEndpoint(path string, method string, configs []EndpointConfig) *EndpointConfig {
	method = strings.ToUpper(method)
	if exempt[method+" "+path] {
		u := unlimited
		return &u
	}

	var best *EndpointConfig
	for i := range configs {
		c := &configs[i]
		if c.Method != method {
			continue
		}
		if c.Path == path {
			return c
		}
		if strings.HasSuffix(c.Path, "/") && strings.HasPrefix(path, c.Path) {
			if best == nil || len(c.Path) > len(best.Path) {
				best = c
			}
		}
	}
	return best
}
