// Package httpcache provides a http.RoundTripper implementation that works as
// a mostly RFC 7234 compliant cache for HTTP responses.
package httpcache

// Warning header helpers (spec.md §4.11), operating on the HeaderList
// carried by a stored or synthesized Entry/response pair instead of
// net/http.Header directly, since both the Entry Updater and the Response
// Generator need to manipulate Warning entries before they ever reach an
// http.Response.

const (
	warningResponseIsStale     = `110 - "Response is Stale"`
	warningRevalidationFailed  = `111 - "Revalidation Failed"`
	warningDisconnectedOp      = `112 - "Disconnected Operation"`
	warningHeuristicExpiration = `113 - "Heuristic Expiration"`
)

// addWarning appends a Warning entry to h.
func addWarning(h HeaderList, warning string) HeaderList {
	return append(h, Header{Name: "Warning", Value: warning})
}

// addStaleWarning appends a 110 Warning entry.
func addStaleWarning(h HeaderList) HeaderList {
	return addWarning(h, warningResponseIsStale)
}

// addRevalidationFailedWarning appends a 111 Warning entry.
func addRevalidationFailedWarning(h HeaderList) HeaderList {
	return addWarning(h, warningRevalidationFailed)
}

// addHeuristicExpirationWarning appends a 113 Warning entry. No code path
// in the package calls it, so served responses never carry a 113 Warning,
// even under heuristic freshness.
func addHeuristicExpirationWarning(h HeaderList) HeaderList {
	return addWarning(h, warningHeuristicExpiration)
}
