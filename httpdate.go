package httpcache

import "time"

// HTTP-date formats accepted per RFC 7234 / RFC 9110 §5.6.7: the preferred
// IMF-fixdate (RFC 1123-ish), obsolete RFC 850 (RFC 1036), and obsolete
// asctime. Malformed or absent dates are treated as missing by every caller
// in this package, never as an error that aborts processing.
var httpDateLayouts = []string{
	time.RFC1123,                  // Sun, 06 Nov 1994 08:49:37 GMT
	"Monday, 02-Jan-06 15:04:05 MST", // RFC 850 / RFC 1036
	time.ANSIC,                    // Sun Nov  6 08:49:37 1994 (asctime)
}

// parseHTTPDate parses s against every accepted HTTP-date form and returns
// the first successful match. ok is false if s matches none of them.
func parseHTTPDate(s string) (t time.Time, ok bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range httpDateLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			return parsed.UTC(), true
		}
	}
	return time.Time{}, false
}

// formatHTTPDate renders t in the preferred IMF-fixdate form.
func formatHTTPDate(t time.Time) string {
	return t.UTC().Format(time.RFC1123)
}
