package httpcache

import "net/http"

// isRequestServable implements the Request Servability Policy (spec.md
// §4.3): a request is eligible to be served from cache at all unless it
// carries Cache-Control: no-store or uses a non-cache-eligible method.
// no-cache does not disable servability here; the Suitability Checker
// returns NotSuitable for it later, and the request is then fetched from
// the origin as for a miss.
func isRequestServable(method string, reqHeaders http.Header, cfg Config) bool {
	if !isCacheEligibleMethod(method, cfg) {
		return false
	}
	if parseCacheControlHTTP(reqHeaders).has(ccNoStore) {
		return false
	}
	return true
}

func isCacheEligibleMethod(method string, cfg Config) bool {
	if method == http.MethodGet {
		return true
	}
	if cfg.AllowHeadCaching && method == http.MethodHead {
		return true
	}
	return false
}
