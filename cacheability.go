package httpcache

import (
	"net/http"
	"strconv"
	"strings"
)

// statusCacheability classifies a status code per spec.md §4.2's table.
type statusCacheability int

const (
	statusUnknown statusCacheability = iota
	statusCacheableAlways
	statusMayCache
	statusNeverCache
)

func classifyStatus(code int, allow303 bool) statusCacheability {
	switch code {
	case 200, 203, 300, 301, 410:
		return statusCacheableAlways
	case 206:
		return statusNeverCache
	case 303:
		if allow303 {
			return statusMayCache
		}
		return statusNeverCache
	}
	if !knownStatusPoint(code) {
		return statusNeverCache
	}
	return statusMayCache
}

// knownStatusPoint reports whether code falls within one of the ranges
// spec.md §4.2 recognizes: 100-101, 200-206, 300-307, 400-417, 500-505.
func knownStatusPoint(code int) bool {
	switch {
	case code >= 100 && code <= 101:
		return true
	case code >= 200 && code <= 206:
		return true
	case code >= 300 && code <= 307:
		return true
	case code >= 400 && code <= 417:
		return true
	case code >= 500 && code <= 505:
		return true
	default:
		return false
	}
}

// isExplicitlyCacheable reports whether the response carries its own
// freshness information: an Expires header, or a Cache-Control directive
// among max-age/s-maxage/must-revalidate/proxy-revalidate/public.
func isExplicitlyCacheable(respHeaders http.Header) bool {
	if respHeaders.Get("Expires") != "" {
		return true
	}
	cc := parseCacheControlHTTP(respHeaders)
	for _, d := range []string{ccMaxAge, ccSMaxAge, ccMustRevalidate, ccProxyRevalidate, ccPublic} {
		if cc.has(d) {
			return true
		}
	}
	return false
}

// parseCacheControlHTTP adapts parseCacheControlList to net/http.Header.
func parseCacheControlHTTP(h http.Header) ccDirectives {
	return parseCacheControlList(headerListFromHTTP(h))
}

// headerListFromHTTP converts an http.Header into a HeaderList, preserving
// per-name order (http.Header already preserves arrival order per name).
func headerListFromHTTP(h http.Header) HeaderList {
	var out HeaderList
	for name, values := range h {
		for _, v := range values {
			out = append(out, Header{Name: name, Value: v})
		}
	}
	return out
}

// isResponseCacheable implements the Response Cacheability Policy
// (spec.md §4.2). Any single "no" short-circuits to false.
func isResponseCacheable(method string, status int, respHeaders http.Header, reqHasQuery bool, reqHeaders http.Header, respIsHTTP10 bool, cfg Config) bool {
	// Method must be GET (optionally HEAD per config).
	if method != http.MethodGet && !(cfg.AllowHeadCaching && method == http.MethodHead) {
		return false
	}

	class := classifyStatus(status, cfg.Allow303Caching)
	if class == statusNeverCache || class == statusUnknown {
		return false
	}

	if cl := respHeaders.Get("Content-Length"); cl != "" {
		if n, err := strconv.ParseInt(cl, 10, 64); err == nil && n > cfg.MaxObjectSizeBytes {
			return false
		}
	}

	if len(respHeaders.Values("Age")) > 1 || len(respHeaders.Values("Expires")) > 1 {
		return false
	}

	dateValues := respHeaders.Values("Date")
	switch len(dateValues) {
	case 0:
		return false
	case 1:
		if _, ok := parseHTTPDate(dateValues[0]); !ok {
			return false
		}
	default:
		// Multiple Date headers: spec only calls out "missing or
		// exactly-one-but-unparseable" as fatal; tolerate duplicates by
		// requiring at least the first to parse.
		if _, ok := parseHTTPDate(dateValues[0]); !ok {
			return false
		}
	}

	for _, v := range headerAllCommaSeparated(respHeaders, "Vary") {
		if strings.TrimSpace(v) == "*" {
			return false
		}
	}

	respCC := parseCacheControlHTTP(respHeaders)
	if respCC.has(ccNoStore) || respCC.has(ccNoCache) {
		return false
	}
	if cfg.SharedCache && respCC.has(ccPrivate) {
		return false
	}

	if cfg.SharedCache && reqHeaders.Get("Authorization") != "" {
		if !respCC.has(ccSMaxAge) && !respCC.has(ccMustRevalidate) && !respCC.has(ccPublic) {
			return false
		}
	}

	explicit := isExplicitlyCacheable(respHeaders)

	if reqHasQuery {
		if !explicit || (respIsHTTP10 && cfg.NeverCacheHTTP10WithQuery) {
			return false
		}
	}

	if expiresStr := respHeaders.Get("Expires"); expiresStr != "" && !respCC.has(ccMaxAge) && !respCC.has(ccSMaxAge) {
		if expires, ok := parseHTTPDate(expiresStr); ok {
			if date, ok := parseHTTPDate(respHeaders.Get("Date")); ok {
				if !expires.After(date) {
					return false
				}
			}
		}
	}

	return class == statusCacheableAlways || explicit
}

// headerAllCommaSeparated returns every comma-separated element across all
// occurrences of header name, trimmed of surrounding whitespace.
func headerAllCommaSeparated(h http.Header, name string) []string {
	var out []string
	for _, raw := range h.Values(name) {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
