// Package httpcache provides a http.RoundTripper implementation that works
// as a mostly RFC 7234 compliant cache for HTTP responses.
//
// By default it operates as a shared cache (a CDN or reverse proxy), which
// enforces s-maxage, proxy-revalidate, and Authorization-response
// restrictions a private cache does not apply. Set WithSharedCache(false)
// to operate as a private cache (suitable for a single browser or API
// client).
package httpcache

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"
)

// XFromCache is the header added to responses built from a stored entry,
// including those served after a 304 revalidation or as a stale-if-error
// fallback.
const XFromCache = "X-From-Cache"

// Transport is an http.RoundTripper that caches responses in an EntryStore
// per RFC 7234, delegating origin requests to an OriginExecutor.
type Transport struct {
	cfg Config

	executor  OriginExecutor
	store     EntryStore
	resources ResourceFactory
	failures  FailureCache

	resilience *ResilienceConfig

	revalidator *Revalidator

	Counters *Counters
}

// NewTransport builds a Transport ready to use as an http.Client's
// Transport field. Defaults: DefaultConfig(), an in-memory store, and
// http.DefaultTransport as the origin executor. Apply TransportOptions to
// override any of these.
func NewTransport(opts ...TransportOption) (*Transport, error) {
	mem := NewMemoryStore()

	t := &Transport{
		cfg:       DefaultConfig(),
		executor:  RoundTripperExecutor{RoundTripper: http.DefaultTransport},
		store:     mem,
		resources: mem,
		Counters:  &Counters{},
	}

	for _, opt := range opts {
		if err := opt(t); err != nil {
			return nil, err
		}
	}

	if t.resilience != nil {
		t.executor = ResilientExecutor{Next: t.executor, Resilience: *t.resilience}
	}

	if t.cfg.AsyncWorkersMax > 0 {
		t.revalidator = NewRevalidator(t.store, t.executor, t.cfg)
	}

	return t, nil
}

// Client returns an *http.Client using this Transport.
func (t *Transport) Client() *http.Client {
	return &http.Client{Transport: t}
}

// RoundTrip implements http.RoundTripper, the Cache Orchestrator of
// spec.md §4.12: compliance fixing, pre-request invalidation, cache
// lookup, suitability checking, conditional revalidation or an
// unconditional origin fetch, post-response invalidation, and storage.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	now := systemClock.Now()

	if err := CheckRequestCompliance(req, t.cfg); err != nil {
		status := http.StatusBadRequest
		var rce *RequestComplianceError
		if errors.As(err, &rce) && rce.Status != 0 {
			status = rce.Status
		}
		return syntheticErrorResponse(req, status, err.Error()), nil
	}
	FixRequestCompliance(req)

	InvalidateBeforeRequest(ctx, t.store, req)

	if !isRequestServable(req.Method, req.Header, t.cfg) {
		return t.forwardUncached(req)
	}

	key := cacheKey(req)
	entry, ok, err := t.store.Get(ctx, key)
	if err != nil {
		return nil, &ErrStorageIO{Op: "get", Key: key, Err: err}
	}
	if !ok {
		return t.handleMiss(req, key, now)
	}

	if entry.IsRoot() {
		return t.handleVariants(req, key, entry, now)
	}

	return t.handleCandidate(req, key, entry, now)
}

// handleCandidate resolves the Suitability Checker's verdict for a
// non-varying stored entry.
func (t *Transport) handleCandidate(req *http.Request, key string, entry *Entry, now time.Time) (*http.Response, error) {
	reqCC := parseCacheControlHTTP(req.Header)

	switch CheckSuitability(entry, req, now, t.cfg) {
	case UseCached:
		t.Counters.recordHit()
		resp, err := t.serveEntry(req, entry, now, false, false)
		if err != nil {
			return nil, err
		}
		if t.shouldStartAsyncRevalidation(entry, now) {
			t.scheduleAsyncRevalidation(req, key, entry)
		}
		return resp, nil

	case NeedsRevalidation:
		if reqCC.has(ccOnlyIfCached) {
			return syntheticErrorResponse(req, http.StatusGatewayTimeout, "cached response requires revalidation but only-if-cached was set"), nil
		}
		if t.shouldStartAsyncRevalidation(entry, now) &&
			!originInsistsOnFreshness(parseCacheControlList(entry.Headers), t.cfg.SharedCache) {
			t.Counters.recordHit()
			resp, err := t.serveEntry(req, entry, now, true, false)
			if err != nil {
				return nil, err
			}
			t.scheduleAsyncRevalidation(req, key, entry)
			return resp, nil
		}
		return t.revalidate(req, key, entry, now)

	default: // NotSuitable
		if reqCC.has(ccOnlyIfCached) {
			return syntheticErrorResponse(req, http.StatusGatewayTimeout, "no suitable cached response and only-if-cached was set"), nil
		}
		return t.handleMiss(req, key, now)
	}
}

// handleVariants resolves a Vary "root" entry: pick the stored variant
// matching the request's variant-key, then treat it exactly like a direct
// candidate. A request matching no stored variant is a miss that still
// must consult the origin.
func (t *Transport) handleVariants(req *http.Request, baseKey string, root *Entry, now time.Time) (*http.Response, error) {
	ctx := req.Context()
	names, star := varyHeaderNames(root.Headers)
	if star {
		return t.handleMiss(req, baseKey, now)
	}

	vk := variantKey(req, names)
	if variantCacheKeyValue, ok := root.VariantMap[vk]; ok {
		entry, ok, err := t.store.Get(ctx, variantCacheKeyValue)
		if err != nil {
			return nil, &ErrStorageIO{Op: "get", Key: variantCacheKeyValue, Err: err}
		}
		if ok {
			return t.handleCandidate(req, variantCacheKeyValue, entry, now)
		}
	}

	t.Counters.recordMiss()
	return t.revalidateVariants(req, baseKey, root, vk, now)
}

// revalidateVariants implements the MISS_WITH_VARIANTS transition of
// spec.md §4.12: the request's variant-key matches none of root's stored
// variants, but root has other stored variants whose ETags are worth
// offering the origin in a single conditional request (built by
// BuildVariantsConditionalRequest) before falling back to an unconditional
// fetch. A 304 whose ETag matches one of those variants updates that
// variant in place and registers vk as an additional variant-key mapping
// to the same cache key, rather than storing a duplicate body.
func (t *Transport) revalidateVariants(req *http.Request, baseKey string, root *Entry, vk string, now time.Time) (*http.Response, error) {
	ctx := req.Context()
	if parseCacheControlHTTP(req.Header).has(ccOnlyIfCached) {
		return syntheticErrorResponse(req, http.StatusGatewayTimeout, "no matching cached variant and only-if-cached was set"), nil
	}

	variants := make([]*Entry, 0, len(root.VariantMap))
	cacheKeyByETag := make(map[string]string, len(root.VariantMap))
	for _, variantCacheKey := range root.VariantMap {
		entry, ok, err := t.store.Get(ctx, variantCacheKey)
		if err != nil {
			return nil, &ErrStorageIO{Op: "get", Key: variantCacheKey, Err: err}
		}
		if !ok {
			continue
		}
		variants = append(variants, entry)
		if etag := entry.Headers.Get("ETag"); etag != "" {
			cacheKeyByETag[etag] = variantCacheKey
		}
	}
	if len(variants) == 0 {
		return t.fetchAndStore(req, baseKey, root, now)
	}

	conditional := BuildVariantsConditionalRequest(req, variants)
	if conditional.Header.Get("If-None-Match") == "" {
		return t.fetchAndStore(req, baseKey, root, now)
	}

	requestDate := systemClock.Now()
	resp, err := t.executor.Execute(ctx, conditional)
	if err != nil {
		return nil, &ErrOriginIO{Err: err}
	}
	responseDate := systemClock.Now()

	if err := FixResponseCompliance(conditional, resp); err != nil {
		_ = resp.Body.Close()
		return syntheticErrorResponse(req, http.StatusBadGateway, err.Error()), nil
	}

	if resp.StatusCode != http.StatusNotModified {
		return t.storeResponse(req, baseKey, root, resp, requestDate, responseDate)
	}

	matchedCacheKey, matched := cacheKeyByETag[resp.Header.Get("ETag")]
	if !matched && len(variants) == 1 {
		for _, variantCacheKey := range root.VariantMap {
			matchedCacheKey, matched = variantCacheKey, true
		}
	}
	if !matched {
		_ = resp.Body.Close()
		return t.fetchAndStore(BuildUnconditionalRetry(req), baseKey, root, now)
	}

	matchedEntry, ok, err := t.store.Get(ctx, matchedCacheKey)
	if err != nil {
		_ = resp.Body.Close()
		return nil, &ErrStorageIO{Op: "get", Key: matchedCacheKey, Err: err}
	}
	if !ok {
		_ = resp.Body.Close()
		return t.fetchAndStore(BuildUnconditionalRetry(req), baseKey, root, now)
	}

	merged := MergeRevalidated(matchedEntry, conditional, resp, requestDate, responseDate)
	_ = resp.Body.Close()

	if err := t.store.Update(ctx, matchedCacheKey, t.cfg.MaxUpdateRetries, func(cur *Entry, ok bool) (*Entry, error) {
		return merged, nil
	}); err != nil {
		return nil, &ErrStorageIO{Op: "update", Key: matchedCacheKey, Err: err}
	}
	t.Counters.recordUpdate()

	if err := t.store.Update(ctx, baseKey, t.cfg.MaxUpdateRetries, func(cur *Entry, ok bool) (*Entry, error) {
		base := root
		if ok {
			base = cur
		}
		return base.WithVariant(vk, matchedCacheKey), nil
	}); err != nil {
		return nil, &ErrStorageIO{Op: "update", Key: baseKey, Err: err}
	}

	return t.serveEntry(req, merged, now, false, false)
}

// handleMiss executes the no-cached-response path: forward to the origin
// unconditionally (unless only-if-cached forbids it) and store the result.
func (t *Transport) handleMiss(req *http.Request, key string, now time.Time) (*http.Response, error) {
	if parseCacheControlHTTP(req.Header).has(ccOnlyIfCached) {
		return syntheticErrorResponse(req, http.StatusGatewayTimeout, "no cached response and only-if-cached was set"), nil
	}
	t.Counters.recordMiss()
	return t.fetchAndStore(req, key, nil, now)
}

// revalidate sends a conditional request for entry and merges or replaces
// the stored copy based on the result, including the clock-skew retry
// (response Date older than the entry's own Date) the spec calls for.
func (t *Transport) revalidate(req *http.Request, key string, entry *Entry, now time.Time) (*http.Response, error) {
	ctx := req.Context()
	conditional := BuildConditionalRequest(req, entry)

	requestDate := systemClock.Now()
	resp, err := t.executor.Execute(ctx, conditional)
	if err != nil {
		return t.handleOriginFailure(req, entry, now, err)
	}
	responseDate := systemClock.Now()

	if err := FixResponseCompliance(conditional, resp); err != nil {
		_ = resp.Body.Close()
		return t.handleOriginFailure(req, entry, now, err)
	}

	if respDate, ok := parseHTTPDate(resp.Header.Get("Date")); ok {
		if entryDate, ok2 := parseHTTPDate(entry.Headers.Get("Date")); ok2 && respDate.Before(entryDate) {
			_ = resp.Body.Close()
			return t.fetchAndStore(BuildUnconditionalRetry(req), key, nil, now)
		}
	}

	if resp.StatusCode == http.StatusNotModified {
		merged := MergeRevalidated(entry, conditional, resp, requestDate, responseDate)
		_ = resp.Body.Close()
		if err := t.store.Update(ctx, key, t.cfg.MaxUpdateRetries, func(cur *Entry, ok bool) (*Entry, error) {
			return merged, nil
		}); err != nil {
			return nil, &ErrStorageIO{Op: "update", Key: key, Err: err}
		}
		t.Counters.recordUpdate()
		if t.failures != nil {
			_ = t.failures.Reset(ctx, key)
		}

		return t.serveEntry(req, merged, now, false, false)
	}

	return t.storeResponse(req, key, nil, resp, requestDate, responseDate)
}

// handleOriginFailure implements stale-if-error: if the stored entry
// permits serving stale on an origin failure and is within its
// stale-if-error window, serve it with a 111 Warning; otherwise synthesize
// an error response.
func (t *Transport) handleOriginFailure(req *http.Request, entry *Entry, now time.Time, origErr error) (*http.Response, error) {
	entryCC := parseCacheControlList(entry.Headers)
	reqCC := parseCacheControlHTTP(req.Header)

	lifetime := freshnessLifetime(entry, t.cfg.SharedCache)
	stale := staleness(entry, now, lifetime)

	staleIfError, hasStaleIfError := parseDurationDirective(reqCC, ccStaleIfError, unbounded)
	if !hasStaleIfError {
		staleIfError, hasStaleIfError = parseDurationDirective(entryCC, ccStaleIfError, unbounded)
	}

	if hasStaleIfError && stale <= staleIfError {
		resp, err := GenerateResponse(entry, req, now, true, true)
		if err != nil {
			return nil, err
		}
		resp.Header.Set(XFromCache, "1")
		addVia(resp.Header, t.cfg.Pseudonym, entry.Proto())
		return resp, nil
	}

	return syntheticErrorResponse(req, http.StatusBadGateway, origErr.Error()), nil
}

// serveEntry builds the response served for a cache hit against entry,
// choosing between a synthesized 304 and the full representation per
// spec.md §4.12: "serve (304 if the request was itself conditional, else
// 200)". stale/revalidationFailed control GenerateResponse's Warning
// header on the 200 path exactly as before; a 304 is returned whenever req
// carries a validator that entry itself satisfies.
func (t *Transport) serveEntry(req *http.Request, entry *Entry, now time.Time, stale, revalidationFailed bool) (*http.Response, error) {
	if requestConditionalMatches(req, entry, now) {
		resp := GenerateNotModified(entry, req, now)
		resp.Header.Set(XFromCache, "1")
		addVia(resp.Header, t.cfg.Pseudonym, entry.Proto())
		return resp, nil
	}

	resp, err := GenerateResponse(entry, req, now, stale, revalidationFailed)
	if err != nil {
		return nil, err
	}
	resp.Header.Set(XFromCache, "1")
	addVia(resp.Header, t.cfg.Pseudonym, entry.Proto())
	return resp, nil
}

// fetchAndStore sends req unconditionally to the origin and stores the
// result. root, if non-nil, is the Vary root entry this response is a new
// variant of.
func (t *Transport) fetchAndStore(req *http.Request, key string, root *Entry, now time.Time) (*http.Response, error) {
	ctx := req.Context()
	requestDate := systemClock.Now()
	resp, err := t.executor.Execute(ctx, req)
	if err != nil {
		return nil, &ErrOriginIO{Err: err}
	}
	responseDate := systemClock.Now()

	if err := FixResponseCompliance(req, resp); err != nil {
		_ = resp.Body.Close()
		return syntheticErrorResponse(req, http.StatusBadGateway, err.Error()), nil
	}

	return t.storeResponse(req, key, root, resp, requestDate, responseDate)
}

// storeResponse captures resp's body through the Size-Limited Body Reader,
// decides cacheability, and (if cacheable) writes a new Entry, registering
// it as a variant of root when the response is itself varying.
func (t *Transport) storeResponse(req *http.Request, key string, root *Entry, resp *http.Response, requestDate, responseDate time.Time) (*http.Response, error) {
	ctx := req.Context()

	names, star := varyHeaderNames(resp.Header)
	effectiveKey := key
	if len(names) > 0 && !star {
		vk := variantKey(req, names)
		effectiveKey = variantCacheKey(vk, key)
	}

	outcome, resource, err := CaptureBody(ctx, t.resources, effectiveKey, resp, t.cfg)
	if err != nil {
		return nil, err
	}
	if outcome == lengthMismatch {
		return resp, nil
	}

	cacheable := outcome == captured && !star && isResponseCacheable(
		req.Method, resp.StatusCode, resp.Header, req.URL.RawQuery != "", req.Header,
		resp.ProtoMajor == 1 && resp.ProtoMinor == 0, t.cfg,
	)

	addVia(resp.Header, t.cfg.Pseudonym, resp.Proto)

	if !cacheable {
		return resp, nil
	}

	entry := &Entry{
		RequestDate:   requestDate,
		ResponseDate:  responseDate,
		Status:        resp.StatusCode,
		Reason:        resp.Status,
		ProtoMajor:    resp.ProtoMajor,
		ProtoMinor:    resp.ProtoMinor,
		Headers:       headerListFromHTTP(resp.Header),
		BodyRef:       resource,
		RequestMethod: req.Method,
	}

	if err := t.store.Put(ctx, effectiveKey, entry); err != nil {
		return resp, &ErrStorageIO{Op: "put", Key: effectiveKey, Err: err}
	}
	t.Counters.recordUpdate()

	if len(names) > 0 {
		vk := variantKey(req, names)
		if err := t.store.Update(ctx, key, t.cfg.MaxUpdateRetries, func(cur *Entry, ok bool) (*Entry, error) {
			base := root
			if ok {
				base = cur
			}
			if base == nil {
				base = &Entry{
					RequestDate:  requestDate,
					ResponseDate: responseDate,
					Headers:      headerListFromHTTP(resp.Header).Without("Content-Length"),
				}
			}
			return base.WithVariant(vk, effectiveKey), nil
		}); err != nil {
			return resp, &ErrStorageIO{Op: "update", Key: key, Err: err}
		}
	}

	InvalidateAfterResponse(ctx, t.store, req, resp)

	return resp, nil
}

// forwardUncached sends req straight to the origin without consulting or
// updating the cache, used when the request itself is not cache-eligible
// (e.g. a method other than GET/HEAD, or Cache-Control: no-store).
func (t *Transport) forwardUncached(req *http.Request) (*http.Response, error) {
	resp, err := t.executor.Execute(req.Context(), req)
	if err != nil {
		return nil, &ErrOriginIO{Err: err}
	}
	if err := FixResponseCompliance(req, resp); err != nil {
		_ = resp.Body.Close()
		return syntheticErrorResponse(req, http.StatusBadGateway, err.Error()), nil
	}
	addVia(resp.Header, t.cfg.Pseudonym, resp.Proto)
	InvalidateAfterResponse(req.Context(), t.store, req, resp)
	return resp, nil
}

// shouldStartAsyncRevalidation reports whether a stale entry still being
// served under stale-while-revalidate should kick off background
// revalidation.
func (t *Transport) shouldStartAsyncRevalidation(entry *Entry, now time.Time) bool {
	if t.revalidator == nil {
		return false
	}
	entryCC := parseCacheControlList(entry.Headers)
	lifetime := freshnessLifetime(entry, t.cfg.SharedCache)
	if isFresh(entry, now, lifetime) {
		return false
	}
	swr, ok := parseDurationDirective(entryCC, ccStaleWhileRevalidate, unbounded)
	if !ok {
		return false
	}
	return staleness(entry, now, lifetime) <= swr
}

func (t *Transport) scheduleAsyncRevalidation(req *http.Request, key string, entry *Entry) {
	tpl := newConditionalRequestTemplate(req)
	if err := t.revalidator.Schedule(key, entry, tpl); err != nil {
		GetLogger().Debug("background revalidation not scheduled", "key", key, "error", err)
	}
}

// Shutdown stops the background revalidation worker pool, if any, and
// waits for in-flight jobs to finish.
func (t *Transport) Shutdown() {
	if t.revalidator != nil {
		t.revalidator.Shutdown()
	}
}

// addVia appends this cache's pseudonym to the response's Via header, per
// spec.md §4.12.
func addVia(h http.Header, pseudonym, proto string) {
	entry := proto + " " + pseudonym
	if existing := h.Get("Via"); existing != "" {
		h.Set("Via", existing+", "+entry)
	} else {
		h.Set("Via", entry)
	}
}

// syntheticErrorResponse builds a cache-generated error response (spec.md
// §4.12: 400, 411, 501, 502, 504) that never touches the origin or the
// store.
func syntheticErrorResponse(req *http.Request, status int, detail string) *http.Response {
	body := []byte(detail)
	header := http.Header{
		"Content-Type":   []string{"text/plain; charset=utf-8"},
		"Content-Length": []string{strconv.Itoa(len(body))},
	}
	return &http.Response{
		Status:        strconv.Itoa(status) + " " + http.StatusText(status),
		StatusCode:    status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
		Request:       req,
	}
}
