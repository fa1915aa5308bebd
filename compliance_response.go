package httpcache

import (
	"io"
	"net/http"
	"regexp"
	"strings"
)

// Response Compliance Fixer (spec.md §4.6), applied to every origin
// response before caching or delivery.

var warningEntryPattern = regexp.MustCompile(`^\d{3}\s+\S+\s+"[^"]*"(?:\s+"([^"]*)")?$`)

// FixResponseCompliance mutates resp in place to repair HTTP/1.1 violations,
// and returns a *ProtocolComplianceError for violations the spec treats as
// fatal (401/405/407 missing their mandatory header, 206 without a
// Content-Range request, an unsolicited 100 Continue).
func FixResponseCompliance(req *http.Request, resp *http.Response) error {
	dropEntity := req.Method == http.MethodHead ||
		resp.StatusCode == http.StatusNoContent ||
		resp.StatusCode == http.StatusResetContent ||
		resp.StatusCode == http.StatusNotModified

	if dropEntity {
		discardBody(resp)
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		if resp.Header.Get("WWW-Authenticate") == "" {
			return &ProtocolComplianceError{Kind: MissingWWWAuthenticate, Detail: "401 response missing WWW-Authenticate"}
		}
	case http.StatusMethodNotAllowed:
		if resp.Header.Get("Allow") == "" {
			return &ProtocolComplianceError{Kind: MissingAllow, Detail: "405 response missing Allow"}
		}
	case http.StatusProxyAuthRequired:
		if resp.Header.Get("Proxy-Authenticate") == "" {
			return &ProtocolComplianceError{Kind: MissingProxyAuthenticate, Detail: "407 response missing Proxy-Authenticate"}
		}
	case http.StatusContinue:
		if !expectsContinue(req) {
			return &ProtocolComplianceError{Kind: UnexpectedContinue, Detail: "100 Continue to a request without Expect: 100-continue"}
		}
	case http.StatusPartialContent:
		if req.Header.Get("Content-Range") == "" {
			return &ProtocolComplianceError{Kind: PartialContentWithoutRange, Detail: "206 response without Content-Range request header"}
		}
		if resp.Header.Get("Date") == "" {
			resp.Header.Set("Date", formatHTTPDate(systemClock.Now()))
		}
	}

	if isHTTP10(req.Proto, req.ProtoMajor, req.ProtoMinor) {
		resp.Header.Del("Transfer-Encoding")
		resp.Header.Del("TE")
	}

	if req.Method == http.MethodOptions && resp.StatusCode == http.StatusOK && resp.ContentLength <= 0 && resp.Header.Get("Content-Length") == "" {
		resp.Header.Set("Content-Length", "0")
	}

	if resp.StatusCode == http.StatusNotModified {
		for _, name := range []string{"Allow", "Content-Encoding", "Content-Language", "Content-Length", "Content-MD5", "Content-Range", "Content-Type", "Last-Modified"} {
			resp.Header.Del(name)
		}
	}

	fixContentEncoding(resp.Header)
	fixWarningHeaders(resp.Header)

	return nil
}

// discardBody fully drains and closes resp.Body (spec.md §5 "scoped
// acquisition of origin response bodies"), then replaces it with an empty
// reader so downstream code sees no entity.
func discardBody(resp *http.Response) {
	if resp.Body != nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}
	resp.Body = http.NoBody
	resp.ContentLength = 0
}

func expectsContinue(req *http.Request) bool {
	return strings.EqualFold(req.Header.Get("Expect"), "100-continue")
}

func isHTTP10(proto string, major, minor int) bool {
	if proto != "" {
		return proto == "HTTP/1.0"
	}
	return major == 1 && minor == 0
}

// fixContentEncoding strips "identity" tokens from Content-Encoding,
// dropping the header entirely if nothing is left.
func fixContentEncoding(h http.Header) {
	raw := h.Get("Content-Encoding")
	if raw == "" {
		return
	}
	var kept []string
	for _, tok := range strings.Split(raw, ",") {
		tok = strings.TrimSpace(tok)
		if tok != "" && !strings.EqualFold(tok, "identity") {
			kept = append(kept, tok)
		}
	}
	if len(kept) == 0 {
		h.Del("Content-Encoding")
		return
	}
	h.Set("Content-Encoding", strings.Join(kept, ", "))
}

// fixWarningHeaders drops Warning entries whose warn-date is present and
// does not equal the response's own Date header.
func fixWarningHeaders(h http.Header) {
	values := h.Values("Warning")
	if len(values) == 0 {
		return
	}
	date := h.Get("Date")
	kept := values[:0:0]
	for _, v := range values {
		m := warningEntryPattern.FindStringSubmatch(v)
		if m == nil {
			kept = append(kept, v)
			continue
		}
		warnDate := m[1]
		if warnDate == "" || warnDate == date {
			kept = append(kept, v)
		}
	}
	h.Del("Warning")
	for _, v := range kept {
		h.Add("Warning", v)
	}
}
