// Package httpcache provides a http.RoundTripper implementation that works as
// a mostly RFC 7234 compliant cache for HTTP responses.
package httpcache

import (
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// cacheKey implements the base Cache Key Generator (spec.md §3/§4.8): the
// canonicalized request URI, with the method prefixed for any method other
// than GET so that method-distinct responses never collide.
func cacheKey(req *http.Request) string {
	canonical := canonicalizeURI(req.URL.String())
	if req.Method == http.MethodGet {
		return canonical
	}
	return req.Method + " " + canonical
}

// variantKey implements the variant-key half of §4.8: for each header name
// in varyHeaderNames, sorted case-insensitively, the request's values for
// that header (comma-joined, trimmed) are percent-encoded and assembled
// into "{h1=v1&h2=v2&...}". A missing header contributes an empty value,
// not an absent one, so presence is always recorded.
func variantKey(req *http.Request, varyHeaderNames []string) string {
	if len(varyHeaderNames) == 0 {
		return ""
	}

	names := make([]string, len(varyHeaderNames))
	copy(names, varyHeaderNames)
	sort.Slice(names, func(i, j int) bool {
		return strings.ToLower(names[i]) < strings.ToLower(names[j])
	})

	var b strings.Builder
	b.WriteByte('{')
	for i, name := range names {
		if i > 0 {
			b.WriteByte('&')
		}
		canonical := http.CanonicalHeaderKey(name)
		values := req.Header.Values(canonical)
		joined := strings.Join(trimAll(values), ", ")
		b.WriteString(url.QueryEscape(canonical))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(joined))
	}
	b.WriteByte('}')
	return b.String()
}

// variantCacheKey implements the variant cache-key half of §4.8:
// variant_key + base_key.
func variantCacheKey(varKey, baseKey string) string {
	return varKey + baseKey
}

func trimAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.TrimSpace(v)
	}
	return out
}
