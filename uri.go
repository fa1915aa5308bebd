package httpcache

import (
	"net/url"
	"strings"
)

// canonicalizeURI implements the URI canonicalization rules feeding the
// Cache Key Generator (spec.md §3/§4.8): lowercase scheme and host, strip a
// default port (80 for http, 443 for https), percent-decode and re-encode
// the path, drop any fragment, and leave the query string untouched.
// canonicalizeURI is idempotent: canonicalizing an already-canonical URI
// returns it unchanged. A URI this cache cannot parse, or that contains a
// raw control character, is returned unchanged so the caller falls back to
// using it verbatim as a cache key component.
func canonicalizeURI(raw string) string {
	if containsControlByte(raw) {
		return raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = canonicalizeHost(u.Scheme, u.Host)
	u.Fragment = ""
	u.RawFragment = ""

	if u.Path != "" {
		decoded, err := url.PathUnescape(u.Path)
		if err == nil {
			u.Path = decoded
			u.RawPath = ""
		}
	}

	return u.String()
}

func canonicalizeHost(scheme, host string) string {
	host = strings.ToLower(host)
	hostname := host
	port := ""
	if i := strings.LastIndexByte(host, ':'); i >= 0 && !strings.Contains(host[i+1:], "]") {
		hostname = host[:i]
		port = host[i+1:]
	}
	if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		return hostname
	}
	return host
}

func containsControlByte(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < 0x20 || c == 0x7f {
			return true
		}
	}
	return false
}
