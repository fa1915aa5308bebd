package httpcache

import (
	"net/http"
	"strconv"
	"strings"
)

// Request Compliance Checker/Fixer (spec.md §4.7), applied before any
// servability, suitability, or origin-forwarding decision is made.

// CheckRequestCompliance returns a *RequestComplianceError for violations
// the spec treats as fatal: a weak ETag combined with Range, a weak ETag in
// If-Match/If-None-Match on PUT/DELETE (unless the cache is configured to
// allow it), or a no-cache directive written in the field-name form.
func CheckRequestCompliance(req *http.Request, cfg Config) error {
	cc := parseCacheControlHTTP(req.Header)

	if req.Header.Get("Range") != "" {
		if hasWeakEntityTag(req.Header.Get("If-Range")) {
			return &RequestComplianceError{Kind: WeakETagWithRange, Status: http.StatusBadRequest, Detail: "weak entity-tag in If-Range combined with Range"}
		}
	}

	if req.Method == http.MethodPut || req.Method == http.MethodDelete {
		if !cfg.WeakETagOnPutDeleteAllowed {
			if hasWeakEntityTag(req.Header.Get("If-Match")) || hasWeakEntityTag(req.Header.Get("If-None-Match")) {
				return &RequestComplianceError{Kind: WeakETagOnPutDelete, Status: http.StatusBadRequest, Detail: "weak entity-tag in If-Match/If-None-Match on " + req.Method}
			}
		}
	}

	if raw, ok := cc[ccNoCache]; ok && raw != "" {
		return &RequestComplianceError{Kind: NoCacheWithFieldName, Status: http.StatusBadRequest, Detail: "no-cache directive carries a field-name argument in a request"}
	}

	return nil
}

// hasWeakEntityTag reports whether any entity-tag in a comma-separated
// If-Match/If-None-Match/If-Range value carries the weak (W/) prefix.
func hasWeakEntityTag(value string) bool {
	if value == "" || strings.TrimSpace(value) == "*" {
		return false
	}
	for _, tag := range strings.Split(value, ",") {
		if strings.HasPrefix(strings.TrimSpace(tag), "W/") {
			return true
		}
	}
	return false
}

// FixRequestCompliance repairs non-fatal request violations in place:
// drops an entity body on TRACE, defaults Content-Type on an OPTIONS
// request carrying a body, decrements Max-Forwards on OPTIONS, strips
// freshness directives paired with no-cache, and normalizes the protocol
// version to HTTP/1.1.
func FixRequestCompliance(req *http.Request) {
	if req.Method == http.MethodTrace {
		req.Body = http.NoBody
		req.ContentLength = 0
		req.Header.Del("Content-Length")
	}

	if req.Method == http.MethodOptions {
		if req.ContentLength > 0 && req.Header.Get("Content-Type") == "" {
			req.Header.Set("Content-Type", "application/octet-stream")
		}
		if raw := req.Header.Get("Max-Forwards"); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil && n > 0 {
				req.Header.Set("Max-Forwards", strconv.Itoa(n-1))
			}
		}
	}

	cc := parseCacheControlHTTP(req.Header)
	if cc.has(ccNoCache) {
		stripCacheControlDirectives(req.Header, ccMaxAge, ccMinFresh, ccMaxStale)
	}

	normalizeRequestProtocol(req)
}

// stripCacheControlDirectives removes the named directives from the
// request's Cache-Control header, dropping the header entirely if nothing
// is left.
func stripCacheControlDirectives(h http.Header, names ...string) {
	raw := h.Get("Cache-Control")
	if raw == "" {
		return
	}
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	var kept []string
	for _, part := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(part)
		name := trimmed
		if i := strings.IndexByte(trimmed, '='); i >= 0 {
			name = trimmed[:i]
		}
		if !drop[strings.ToLower(name)] {
			kept = append(kept, trimmed)
		}
	}
	if len(kept) == 0 {
		h.Del("Cache-Control")
		return
	}
	h.Set("Cache-Control", strings.Join(kept, ", "))
}

// normalizeRequestProtocol upgrades HTTP/1.0 and downgrades any minor
// version above 1 to HTTP/1.1, the only version this cache forwards.
func normalizeRequestProtocol(req *http.Request) {
	if req.ProtoMajor != 1 || req.ProtoMinor != 1 {
		req.Proto = "HTTP/1.1"
		req.ProtoMajor = 1
		req.ProtoMinor = 1
	}
}
