package httpcache

import (
	"net/http"
	"strings"
	"time"
)

// cloneRequestForOrigin returns a shallow clone of req suitable for mutating
// headers before a second trip to the origin: same method, URL, and body,
// independent header map seeded from the original request's headers (not
// from any previously built conditional request).
func cloneRequestForOrigin(original *http.Request) *http.Request {
	clone := original.Clone(original.Context())
	clone.Header = original.Header.Clone()
	return clone
}

// BuildConditionalRequest implements the Conditional Request Builder
// (spec.md §4.5) for the single-entry revalidation case: preserves method
// and URI, resets headers to the originals, and adds If-None-Match /
// If-Modified-Since validators plus a forcing Cache-Control: max-age=0 when
// the entry insists on revalidation.
func BuildConditionalRequest(original *http.Request, entry *Entry) *http.Request {
	req := cloneRequestForOrigin(original)

	if etag := entry.Headers.Get("ETag"); etag != "" {
		req.Header.Set("If-None-Match", etag)
	}
	if lastMod := entry.Headers.Get("Last-Modified"); lastMod != "" {
		req.Header.Set("If-Modified-Since", lastMod)
	}

	entryCC := parseCacheControlList(entry.Headers)
	if entryCC.has(ccMustRevalidate) || entryCC.has(ccProxyRevalidate) {
		req.Header.Set("Cache-Control", "max-age=0")
	}

	return req
}

// BuildVariantsConditionalRequest builds one conditional request carrying
// If-None-Match for every stored variant's ETag, comma-joined, used by the
// miss-with-variants path (spec.md §4.5, §4.12 MISS_WITH_VARIANTS).
func BuildVariantsConditionalRequest(original *http.Request, variants []*Entry) *http.Request {
	req := cloneRequestForOrigin(original)

	var etags []string
	for _, v := range variants {
		if etag := v.Headers.Get("ETag"); etag != "" {
			etags = append(etags, etag)
		}
	}
	if len(etags) > 0 {
		req.Header.Set("If-None-Match", strings.Join(etags, ", "))
	}
	return req
}

// requestConditionalMatches reports whether req itself carries a
// If-None-Match or If-Modified-Since validator that matches entry, meaning
// the cache should answer with a 304 rather than the full representation
// (spec.md §4.12 HIT_SUITABLE/HIT_REVALIDATE/MISS_WITH_VARIANTS: "serve
// (304 if the request was itself conditional, else 200)").
func requestConditionalMatches(req *http.Request, entry *Entry, now time.Time) bool {
	if inm := req.Header.Get("If-None-Match"); inm != "" {
		return ifNoneMatchSatisfied(inm, entry.Headers.Get("ETag"))
	}
	if ims := req.Header.Get("If-Modified-Since"); ims != "" {
		if reqTime, ok := parseHTTPDate(ims); ok {
			return ifModifiedSinceSatisfied(reqTime, entry, now)
		}
	}
	return false
}

// BuildUnconditionalRetry strips every conditional validator from req and
// forces a fresh representation, used on clock-skew retry (spec.md §4.5,
// §4.12: "response Date < entry Date").
func BuildUnconditionalRetry(original *http.Request) *http.Request {
	req := cloneRequestForOrigin(original)
	req.Header.Del("If-Range")
	req.Header.Del("If-Match")
	req.Header.Del("If-None-Match")
	req.Header.Del("If-Unmodified-Since")
	req.Header.Del("If-Modified-Since")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")
	return req
}
