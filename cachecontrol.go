// Package httpcache provides a http.RoundTripper implementation that works
// as an RFC 7234 conditionally-compliant HTTP/1.1 client-side cache.
package httpcache

import "strings"

// Cache-Control directive names referenced throughout the policy engine.
const (
	ccNoStore              = "no-store"
	ccNoCache              = "no-cache"
	ccPrivate              = "private"
	ccPublic               = "public"
	ccMaxAge               = "max-age"
	ccSMaxAge              = "s-maxage"
	ccMustRevalidate       = "must-revalidate"
	ccProxyRevalidate      = "proxy-revalidate"
	ccOnlyIfCached         = "only-if-cached"
	ccStaleWhileRevalidate = "stale-while-revalidate"
	ccStaleIfError         = "stale-if-error"
	ccMaxStale             = "max-stale"
	ccMinFresh             = "min-fresh"
)

// ccDirectives is a map of Cache-Control directive names to their (possibly
// empty) values, as parsed from a header list. A directive present with no
// "=value" maps to "".
type ccDirectives map[string]string

// parseCacheControlList parses every Cache-Control header in headers,
// folding repeated header lines together the way a real request/response
// would present them. The first occurrence of a directive wins if it
// repeats, mirroring RFC 9111 §4.2.1 duplicate-directive handling.
func parseCacheControlList(headers HeaderList) ccDirectives {
	cc := ccDirectives{}
	for _, raw := range headers.Values("Cache-Control") {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			name, value, hasValue := strings.Cut(part, "=")
			name = strings.TrimSpace(strings.ToLower(name))
			if hasValue {
				value = strings.Trim(strings.TrimSpace(value), `"`)
			}
			if _, seen := cc[name]; seen {
				continue
			}
			cc[name] = value
		}
	}
	return cc
}

// has reports whether directive is present, regardless of value.
func (cc ccDirectives) has(directive string) bool {
	_, ok := cc[directive]
	return ok
}
