package httpcache

import "time"

// Config holds the cacheability and policy flags enumerated in spec.md §6.
// Zero-value Config is meaningless; always build one through DefaultConfig
// (applied automatically by NewTransport) and TransportOptions.
type Config struct {
	// MaxObjectSizeBytes is the largest Content-Length/body this cache will
	// store. Default 8192.
	MaxObjectSizeBytes int64
	// MaxCacheEntries bounds the entry store, advisory for stores that
	// enforce it themselves. Default 1000.
	MaxCacheEntries int
	// MaxUpdateRetries bounds EntryStore.Update's internal CAS retry loop.
	// Default 1.
	MaxUpdateRetries int
	// SharedCache switches RFC 7234 private/shared semantics (honors
	// s-maxage, proxy-revalidate, Authorization restrictions). Default true.
	SharedCache bool
	// HeuristicCachingEnabled turns on heuristic freshness when no explicit
	// freshness information is present. Default false.
	HeuristicCachingEnabled bool
	// HeuristicCoefficient scales Date-Last-Modified into a heuristic
	// lifetime. Default 0.10.
	HeuristicCoefficient float64
	// HeuristicDefaultLifetime is used when Last-Modified is absent.
	// Default 0.
	HeuristicDefaultLifetime time.Duration
	// AsyncWorkersMax bounds concurrent background revalidations; 0
	// disables async (stale-while-revalidate) revalidation entirely.
	// Default 1.
	AsyncWorkersMax int
	// AsyncWorkersCore is stored but not read by the Revalidator, which
	// keeps no warm workers. Default 1.
	AsyncWorkersCore int
	// AsyncWorkerIdleLifetime is stored but not read by the Revalidator,
	// whose job goroutines exit when their job ends. Default 60s.
	AsyncWorkerIdleLifetime time.Duration
	// RevalidationQueueSize bounds the async job queue. Default 100.
	RevalidationQueueSize int
	// NeverCacheHTTP10WithQuery refuses to cache responses from HTTP/1.0
	// origins to query-string requests, even when they are explicitly
	// cacheable. Default true.
	NeverCacheHTTP10WithQuery bool
	// Allow303Caching permits storing 303 See Other responses. Default
	// false.
	Allow303Caching bool
	// WeakETagOnPutDeleteAllowed relaxes the fatal request-compliance
	// check for weak ETags on PUT/DELETE conditionals. Default false.
	WeakETagOnPutDeleteAllowed bool
	// AllowHeadCaching permits caching HEAD responses in addition to GET.
	// Default false (GET only).
	AllowHeadCaching bool
	// Pseudonym is used to build the Via header value added to responses
	// returned by the Transport. Default "httpcache".
	Pseudonym string
}

// DefaultConfig returns the configuration defaults enumerated in spec.md §6.
func DefaultConfig() Config {
	return Config{
		MaxObjectSizeBytes:         8192,
		MaxCacheEntries:            1000,
		MaxUpdateRetries:           1,
		SharedCache:                true,
		HeuristicCachingEnabled:    false,
		HeuristicCoefficient:       0.10,
		HeuristicDefaultLifetime:   0,
		AsyncWorkersMax:            1,
		AsyncWorkersCore:           1,
		AsyncWorkerIdleLifetime:    60 * time.Second,
		RevalidationQueueSize:      100,
		NeverCacheHTTP10WithQuery:  true,
		Allow303Caching:            false,
		WeakETagOnPutDeleteAllowed: false,
		AllowHeadCaching:           false,
		Pseudonym:                  "httpcache",
	}
}
