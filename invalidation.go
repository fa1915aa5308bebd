// Package httpcache provides a http.RoundTripper implementation that works as
// a mostly RFC 7234 compliant cache for HTTP responses.
package httpcache

import (
	"context"
	"net/http"
	"net/url"
)

// Cache Invalidator (spec.md §4.9). Invalidation runs in two places: before
// a request reaches the origin, and after a non-error response comes back
// for an unsafe method.

// isUnsafeMethod reports whether method is one the spec treats as
// unsafe: everything but GET and HEAD.
func isUnsafeMethod(method string) bool {
	return method != http.MethodGet && method != http.MethodHead
}

func hasPragmaNoCache(h http.Header) bool {
	for _, v := range headerAllCommaSeparated(h, "Pragma") {
		if v == "no-cache" {
			return true
		}
	}
	return false
}

// InvalidateBeforeRequest implements the pre-request half of §4.9: an
// unsafe method, or a bypass forced by Cache-Control: no-cache or
// Pragma: no-cache, discards the stored base entry and every stored
// variant for the request's URI before the request is forwarded, since a
// servable copy at this point would otherwise outlive the in-flight write.
func InvalidateBeforeRequest(ctx context.Context, store EntryStore, req *http.Request) {
	cc := parseCacheControlHTTP(req.Header)
	if isUnsafeMethod(req.Method) || cc.has(ccNoCache) || hasPragmaNoCache(req.Header) {
		removeEntryAndVariants(ctx, store, req.URL)
	}
}

// InvalidateAfterResponse implements the post-response half of §4.9: a
// non-error (status < 400) response to an unsafe method invalidates the
// effective request URI and any same-authority URI named by Location or
// Content-Location.
func InvalidateAfterResponse(ctx context.Context, store EntryStore, req *http.Request, resp *http.Response) {
	if !isUnsafeMethod(req.Method) || resp.StatusCode >= 400 {
		return
	}

	removeEntryAndVariants(ctx, store, req.URL)

	if loc := resp.Header.Get("Location"); loc != "" {
		invalidateHeaderURI(ctx, store, req.URL, loc)
	}
	if cl := resp.Header.Get("Content-Location"); cl != "" {
		invalidateHeaderURI(ctx, store, req.URL, cl)
	}
}

// invalidateHeaderURI resolves headerValue against the request URI
// (absolute or relative) and discards it only if it shares the request's
// authority: scheme and host, including port.
func invalidateHeaderURI(ctx context.Context, store EntryStore, requestURL *url.URL, headerValue string) {
	target, err := requestURL.Parse(headerValue)
	if err != nil {
		return
	}
	if !sameAuthority(requestURL, target) {
		return
	}
	removeEntryAndVariants(ctx, store, target)
}

func sameAuthority(a, b *url.URL) bool {
	return a.Scheme == b.Scheme && a.Host == b.Host
}

// removeEntryAndVariants removes the stored base entry for target's GET
// cache key, along with every variant recorded in its variant map, then
// repeats the same for the HEAD key when the two differ.
func removeEntryAndVariants(ctx context.Context, store EntryStore, target *url.URL) {
	removeByMethod(ctx, store, http.MethodGet, target)
	removeByMethod(ctx, store, http.MethodHead, target)
}

func removeByMethod(ctx context.Context, store EntryStore, method string, target *url.URL) {
	req := &http.Request{Method: method, URL: target, Header: http.Header{}}
	key := cacheKey(req)

	entry, ok, err := store.Get(ctx, key)
	if err != nil || !ok {
		return
	}
	for _, variantCacheKeyValue := range entry.VariantMap {
		_ = store.Remove(ctx, variantCacheKeyValue)
	}
	_ = store.Remove(ctx, key)
}
