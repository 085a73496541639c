package ratelimit

import (
	"net/http"
	"strings"
)

// MatchEndpoint returns the budget for a request, or nil when the endpoint is
// not limited. An exact path wins; otherwise a configured path ending in "/"
// covers everything below it, so "/talent-pool/" matches
// "/talent-pool/{candidateId}/invite". GET /health is always unlimited.
func MatchEndpoint(path string, method string, configs []EndpointConfig) *EndpointConfig {
	if path == "/health" && method == http.MethodGet {
		return &EndpointConfig{}
	}

	for i := range configs {
		if configs[i].Path == path && configs[i].Method == method {
			return &configs[i]
		}
	}

	var best *EndpointConfig
	for i := range configs {
		ec := &configs[i]
		if ec.Method != method || !strings.HasSuffix(ec.Path, "/") || !strings.HasPrefix(path, ec.Path) {
			continue
		}
		// The longest prefix is the most specific budget.
		if best == nil || len(ec.Path) > len(best.Path) {
			best = ec
		}
	}
	return best
}
