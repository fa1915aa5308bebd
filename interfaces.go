package httpcache

import (
	"context"
	"io"
	"net/http"
)

// OriginExecutor performs a single request/response round-trip against the
// origin. Implementations must be safe for concurrent use (spec.md §5).
//
// Execute must not be called more than once per request by the Orchestrator,
// except for the single unconditional retry described in spec.md §4.12.
type OriginExecutor interface {
	Execute(ctx context.Context, req *http.Request) (*http.Response, error)
}

// OriginExecutorFunc adapts a function to an OriginExecutor.
type OriginExecutorFunc func(ctx context.Context, req *http.Request) (*http.Response, error)

// Execute implements OriginExecutor.
func (f OriginExecutorFunc) Execute(ctx context.Context, req *http.Request) (*http.Response, error) {
	return f(ctx, req)
}

// RoundTripperExecutor adapts an http.RoundTripper to an OriginExecutor.
type RoundTripperExecutor struct {
	RoundTripper http.RoundTripper
}

// Execute implements OriginExecutor.
func (e RoundTripperExecutor) Execute(ctx context.Context, req *http.Request) (*http.Response, error) {
	rt := e.RoundTripper
	if rt == nil {
		rt = http.DefaultTransport
	}
	return rt.RoundTrip(req.WithContext(ctx))
}

// EntryStore is the shared, linearizable source of truth for cache entries
// (spec.md §6). Implementations live in the store/ subpackages.
type EntryStore interface {
	Get(ctx context.Context, key string) (entry *Entry, ok bool, err error)
	Put(ctx context.Context, key string, entry *Entry) error
	Remove(ctx context.Context, key string) error

	// Update is a read-modify-write with per-key atomicity. fn receives the
	// current entry (ok=false if absent) and returns the replacement (nil to
	// leave the key untouched). Implementations that cannot guarantee
	// atomicity natively must retry internally, bounded by maxRetries, and
	// return an error satisfying errors.Is(err, ErrEntryUpdateConflict) if
	// they give up.
	Update(ctx context.Context, key string, maxRetries int, fn func(cur *Entry, ok bool) (*Entry, error)) error
}

// ResourceFactory produces and clones Resources for response bodies
// (spec.md §6, §4.14).
type ResourceFactory interface {
	// Generate streams r into storage under key, stopping after limit bytes.
	// hitLimit is true if r had more data than limit allowed; in that case
	// the returned Resource holds only the first limit bytes and the caller
	// (Size-Limited Body Reader) is responsible for splicing in the
	// remainder of r before returning control to its own caller.
	Generate(ctx context.Context, key string, r io.Reader, limit int64) (resource Resource, hitLimit bool, err error)

	// Copy clones src under a new key, for example when an entry's body is
	// shared across a 304-merged replacement entry.
	Copy(ctx context.Context, key string, src Resource) (Resource, error)
}

// FailureCache is the optional backing store for the Async Revalidator's
// per-identifier consecutive-failure counter (spec.md §3, §4.13).
type FailureCache interface {
	GetErrorCount(ctx context.Context, id string) (int, error)
	Reset(ctx context.Context, id string) error
	Increase(ctx context.Context, id string) error
}
