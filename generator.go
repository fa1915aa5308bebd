package httpcache

import (
	"net/http"
	"strconv"
	"time"
)

// Response Generator (spec.md §4.11): turns a stored Entry into the
// http.Response handed back to the caller, annotated with Age and, where
// applicable, a Warning header.

// GenerateResponse builds the response served for a cache hit. When stale
// is true the response is being served under stale-while-revalidate or
// stale-if-error and carries a 110 Warning; when revalidationFailed is also
// true (stale-if-error after a failed revalidation) it instead
// carries a 111 Warning.
func GenerateResponse(entry *Entry, req *http.Request, now time.Time, stale, revalidationFailed bool) (*http.Response, error) {
	headers := entry.Headers.Clone()

	age := currentAge(entry, now)
	headers = headers.Without("Age")
	headers = append(headers, Header{Name: "Age", Value: formatAgeSeconds(age)})

	if revalidationFailed {
		headers = addRevalidationFailedWarning(headers)
	} else if stale {
		headers = addStaleWarning(headers)
	}

	resp := &http.Response{
		Status:     entry.Reason,
		StatusCode: entry.Status,
		Proto:      entry.Proto(),
		ProtoMajor: entry.ProtoMajor,
		ProtoMinor: entry.ProtoMinor,
		Header:     headers.ToHTTPHeader(),
		Request:    req,
	}
	if resp.Status == "" {
		resp.Status = strconv.Itoa(entry.Status) + " " + http.StatusText(entry.Status)
	}

	if entry.BodyRef == nil {
		resp.Body = http.NoBody
		resp.ContentLength = 0
		return resp, nil
	}

	body, err := entry.BodyRef.Open()
	if err != nil {
		return nil, &ErrStorageIO{Op: "open", Err: err}
	}
	resp.Body = body

	if resp.Header.Get("Transfer-Encoding") == "" {
		resp.ContentLength = entry.BodyLength()
		resp.Header.Set("Content-Length", strconv.FormatInt(resp.ContentLength, 10))
	} else {
		resp.ContentLength = -1
	}

	return resp, nil
}

// GenerateNotModified builds the 304 response served when the cache itself
// answers a conditional request (rather than forwarding it to the origin),
// per §4.11: only the handful of headers RFC 7234 permits on a 304 survive,
// and a missing Date is synthesized.
func GenerateNotModified(entry *Entry, req *http.Request, now time.Time) *http.Response {
	var headers HeaderList
	for _, name := range []string{"Date", "ETag", "Content-Location", "Expires", "Cache-Control", "Vary"} {
		if v := entry.Headers.Get(name); v != "" {
			headers = append(headers, Header{Name: name, Value: v})
		}
	}
	if entry.Headers.Get("Date") == "" {
		headers = append(headers, Header{Name: "Date", Value: formatHTTPDate(now)})
	}

	return &http.Response{
		Status:     "304 Not Modified",
		StatusCode: http.StatusNotModified,
		Proto:      "HTTP/1.1",
		ProtoMajor: 1,
		ProtoMinor: 1,
		Header:     headers.ToHTTPHeader(),
		Body:       http.NoBody,
		Request:    req,
	}
}

// ToHTTPHeader converts a HeaderList back into an http.Header, preserving
// duplicate values per name.
func (h HeaderList) ToHTTPHeader() http.Header {
	out := make(http.Header, len(h))
	for _, header := range h {
		canonical := http.CanonicalHeaderKey(header.Name)
		out[canonical] = append(out[canonical], header.Value)
	}
	return out
}
