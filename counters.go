package httpcache

import "sync/atomic"

// Counters tracks cache hit/miss/update totals for a Transport. A zero
// Counters is ready to use. Counters is safe for concurrent use and is
// intentionally not a package-level global: each Transport owns its own.
type Counters struct {
	hits    atomic.Int64
	misses  atomic.Int64
	updates atomic.Int64
}

func (c *Counters) recordHit()    { c.hits.Add(1) }
func (c *Counters) recordMiss()   { c.misses.Add(1) }
func (c *Counters) recordUpdate() { c.updates.Add(1) }

// Hits returns the total number of requests served from cache without
// contacting the origin.
func (c *Counters) Hits() int64 { return c.hits.Load() }

// Misses returns the total number of requests for which no usable stored
// entry or matching variant was found. Revalidations of a stored entry are
// not counted here.
func (c *Counters) Misses() int64 { return c.misses.Load() }

// Updates returns the total number of times a stored entry was replaced or
// merged by the Transport's own request path (fresh store or 304 merge).
// Background stale-while-revalidate refreshes are not counted.
func (c *Counters) Updates() int64 { return c.updates.Load() }
