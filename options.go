// Package httpcache provides a http.RoundTripper implementation that works as
// a mostly RFC 7234 compliant cache for HTTP responses.
package httpcache

import (
	"net/http"
	"time"
)

// TransportOption configures a Transport at construction time.
type TransportOption func(*Transport) error

// WithMaxObjectSizeBytes caps the size of a response body this cache will
// ever store. Responses larger than the limit are served but never cached.
// Default: 8192.
func WithMaxObjectSizeBytes(n int64) TransportOption {
	return func(t *Transport) error {
		t.cfg.MaxObjectSizeBytes = n
		return nil
	}
}

// WithMaxUpdateRetries bounds how many times the Entry Updater's
// compare-and-swap loop retries against a concurrently-modified entry
// before giving up. Default: 1.
func WithMaxUpdateRetries(n int) TransportOption {
	return func(t *Transport) error {
		t.cfg.MaxUpdateRetries = n
		return nil
	}
}

// WithSharedCache switches the cache between shared (default true,
// CDN/reverse-proxy semantics: s-maxage and proxy-revalidate apply, private
// and Authorization responses are not stored unless explicitly marked
// cacheable) and private (false, browser/API-client semantics).
func WithSharedCache(shared bool) TransportOption {
	return func(t *Transport) error {
		t.cfg.SharedCache = shared
		return nil
	}
}

// WithHeuristicCaching enables heuristic freshness lifetime calculation
// (spec.md §4.1) for responses that carry neither Expires nor a max-age
// directive, using coefficient * (Date - Last-Modified), capped to
// defaultLifetime when Last-Modified is absent. Default: disabled.
func WithHeuristicCaching(coefficient float64, defaultLifetime time.Duration) TransportOption {
	return func(t *Transport) error {
		t.cfg.HeuristicCachingEnabled = true
		t.cfg.HeuristicCoefficient = coefficient
		t.cfg.HeuristicDefaultLifetime = defaultLifetime
		return nil
	}
}

// WithAsyncWorkers sets AsyncWorkersCore and AsyncWorkersMax. The
// background Revalidator runs each job on its own goroutine and bounds how
// many run at once by max only; core is stored in the Config but not read.
// Default: 1/1.
func WithAsyncWorkers(core, max int) TransportOption {
	return func(t *Transport) error {
		t.cfg.AsyncWorkersCore = core
		t.cfg.AsyncWorkersMax = max
		return nil
	}
}

// WithAsyncWorkerIdleLifetime sets AsyncWorkerIdleLifetime. The value is
// stored in the Config but not read: background jobs run on goroutines that
// exit when their job ends, so no idle worker is kept alive.
func WithAsyncWorkerIdleLifetime(d time.Duration) TransportOption {
	return func(t *Transport) error {
		t.cfg.AsyncWorkerIdleLifetime = d
		return nil
	}
}

// WithRevalidationQueueSize bounds how many background revalidation jobs
// may be queued before Schedule starts rejecting new ones with
// ErrQueueFull. Default: 100.
func WithRevalidationQueueSize(n int) TransportOption {
	return func(t *Transport) error {
		t.cfg.RevalidationQueueSize = n
		return nil
	}
}

// WithAllow303Caching permits storing 303 See Other responses, which the
// spec otherwise classifies as never-cacheable. Default: false.
func WithAllow303Caching(allow bool) TransportOption {
	return func(t *Transport) error {
		t.cfg.Allow303Caching = allow
		return nil
	}
}

// WithWeakETagOnPutDeleteAllowed relaxes the Request Compliance Checker's
// fatal rejection of a weak entity-tag in If-Match/If-None-Match on PUT or
// DELETE. Default: false (fatal).
func WithWeakETagOnPutDeleteAllowed(allow bool) TransportOption {
	return func(t *Transport) error {
		t.cfg.WeakETagOnPutDeleteAllowed = allow
		return nil
	}
}

// WithAllowHeadCaching extends cache eligibility to HEAD requests, stored
// and served alongside their GET counterparts. Default: false.
func WithAllowHeadCaching(allow bool) TransportOption {
	return func(t *Transport) error {
		t.cfg.AllowHeadCaching = allow
		return nil
	}
}

// WithNeverCacheHTTP10WithQuery controls whether an HTTP/1.0 origin
// response to a query-string request is ever cacheable even when the
// response is otherwise explicitly cacheable. Default: true.
func WithNeverCacheHTTP10WithQuery(never bool) TransportOption {
	return func(t *Transport) error {
		t.cfg.NeverCacheHTTP10WithQuery = never
		return nil
	}
}

// WithPseudonym sets the pseudonym this cache reports in the Via header it
// adds to every response it forwards or serves. Default: "httpcache".
func WithPseudonym(name string) TransportOption {
	return func(t *Transport) error {
		t.cfg.Pseudonym = name
		return nil
	}
}

// WithExecutor replaces the OriginExecutor used to reach the origin server.
// If nil, a RoundTripperExecutor wrapping http.DefaultTransport is used.
func WithExecutor(executor OriginExecutor) TransportOption {
	return func(t *Transport) error {
		t.executor = executor
		return nil
	}
}

// WithTransport sets the underlying http.RoundTripper used to reach the
// origin, wrapped as an OriginExecutor. If nil, http.DefaultTransport is
// used. Equivalent to WithExecutor(RoundTripperExecutor{rt}).
func WithTransport(rt http.RoundTripper) TransportOption {
	return func(t *Transport) error {
		t.executor = RoundTripperExecutor{RoundTripper: rt}
		return nil
	}
}

// WithResourceFactory replaces the ResourceFactory used to buffer and
// re-serve response bodies. If nil, an in-memory factory is used.
func WithResourceFactory(factory ResourceFactory) TransportOption {
	return func(t *Transport) error {
		t.resources = factory
		return nil
	}
}

// WithStore replaces the EntryStore used to persist cache entries, letting
// the cache survive process restarts or be shared across processes (see the
// store/ subpackages for Redis, disk, and other out-of-process backends).
// The in-memory ResourceFactory used for body buffering stays in place
// unless WithResourceFactory is also applied.
func WithStore(store EntryStore) TransportOption {
	return func(t *Transport) error {
		t.store = store
		return nil
	}
}

// WithFailureCache attaches a FailureCache used to track consecutive
// revalidation failures per resource, consulted by the stale-if-error path.
func WithFailureCache(fc FailureCache) TransportOption {
	return func(t *Transport) error {
		t.failures = fc
		return nil
	}
}

// WithResilience wraps the executor with failsafe-go retry and/or circuit
// breaker policies (see RetryPolicyBuilder, CircuitBreakerBuilder).
func WithResilience(cfg ResilienceConfig) TransportOption {
	return func(t *Transport) error {
		t.resilience = &cfg
		return nil
	}
}
