package httpcache

import (
	"net/http"
	"strings"
	"time"
)

// Entry Updater (spec.md §4.10): merges a 304 Not Modified validation
// response into the stored entry it validated, without re-fetching or
// re-storing the body.

// warningCodeIsLowOrder reports whether a Warning header entry's warn-code
// is in the 1xx range, the class §4.10 strips whenever a fresh response
// arrives, since a 1xx warning describes staleness the new response has
// just resolved.
func warningCodeIsLowOrder(value string) bool {
	trimmed := strings.TrimSpace(value)
	return len(trimmed) >= 3 && trimmed[0] == '1'
}

// MergeRevalidated implements §4.10: builds a new entry for a successful
// 304 validation. The new entry shares cached's body reference unchanged;
// every header present in the 304 response replaces its same-named
// counterpart from cached (Content-Length and any 1xx Warning entries from
// the 304 are never copied over); RequestDate/ResponseDate move forward to
// the validating round trip.
func MergeRevalidated(cached *Entry, validatingReq *http.Request, resp304 *http.Response, requestDate, responseDate time.Time) *Entry {
	merged := &Entry{
		RequestDate:   requestDate,
		ResponseDate:  responseDate,
		Status:        cached.Status,
		Reason:        cached.Reason,
		ProtoMajor:    cached.ProtoMajor,
		ProtoMinor:    cached.ProtoMinor,
		RequestMethod: cached.RequestMethod,
		BodyRef:       cached.BodyRef,
		VariantMap:    cached.VariantMap,
	}

	merged.Headers = cached.Headers.Clone()
	for name, values := range resp304.Header {
		if strings.EqualFold(name, "Content-Length") {
			continue
		}
		if strings.EqualFold(name, "Warning") {
			continue
		}
		merged.Headers = merged.Headers.Without(name)
		for _, v := range values {
			merged.Headers = append(merged.Headers, Header{Name: name, Value: v})
		}
	}

	// Retain non-1xx Warning entries already on the cached entry; append
	// any new non-1xx Warning entries the 304 itself carried.
	kept := merged.Headers.Without("Warning")
	for _, h := range cached.Headers {
		if strings.EqualFold(h.Name, "Warning") && !warningCodeIsLowOrder(h.Value) {
			kept = append(kept, h)
		}
	}
	for _, v := range resp304.Header.Values("Warning") {
		if !warningCodeIsLowOrder(v) {
			kept = append(kept, Header{Name: "Warning", Value: v})
		}
	}
	merged.Headers = kept

	return merged
}
