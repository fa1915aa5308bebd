// Package httpcache provides a http.RoundTripper implementation that works
// as an RFC 7234 conditionally-compliant HTTP/1.1 client-side cache.
package httpcache

import (
	"strconv"
	"strings"
	"time"
)

// Age & Freshness Calculator (spec.md §4.1). Every function here is pure:
// given an Entry and `now`, it computes one RFC 7234 quantity with no side
// effects and no I/O. Arithmetic is carried in time.Duration so truncation
// to whole seconds happens exactly once, at the header-formatting boundary
// (formatAgeSeconds), matching the RFC's integer-seconds wire model.

// headerDate returns the parsed Date header of e, or (zero, false) if
// missing or unparseable.
func headerDate(e *Entry) (time.Time, bool) {
	return parseHTTPDate(e.Headers.Get("Date"))
}

// headerAgeValue parses the Age header, clamping malformed or negative
// values to the "missing" sentinel per spec.md §4.1.
func headerAgeValue(e *Entry) (time.Duration, bool) {
	raw := e.Headers.Get("Age")
	if raw == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return time.Duration(n) * time.Second, true
}

// apparentAge implements apparent_age_s = max(0, (response_date - Date)/1s).
// If Date is absent, the clamped sentinel is zero.
func apparentAge(e *Entry) time.Duration {
	date, ok := headerDate(e)
	if !ok {
		return 0
	}
	d := e.ResponseDate.Sub(date)
	if d < 0 {
		return 0
	}
	return d
}

// receivedAge implements received_age_s = max(apparent_age_s, Age header).
func receivedAge(e *Entry) time.Duration {
	apparent := apparentAge(e)
	if age, ok := headerAgeValue(e); ok && age > apparent {
		return age
	}
	return apparent
}

// responseDelay implements response_delay_s = (response_date - request_date)/1s.
func responseDelay(e *Entry) time.Duration {
	d := e.ResponseDate.Sub(e.RequestDate)
	if d < 0 {
		return 0
	}
	return d
}

// correctedInitialAge implements corrected_initial_age_s = received_age_s + response_delay_s.
func correctedInitialAge(e *Entry) time.Duration {
	return receivedAge(e) + responseDelay(e)
}

// residentTime implements resident_time_s = (now - response_date)/1s.
func residentTime(e *Entry, now time.Time) time.Duration {
	d := now.Sub(e.ResponseDate)
	if d < 0 {
		return 0
	}
	return d
}

// currentAge implements current_age_s = corrected_initial_age_s + resident_time_s.
func currentAge(e *Entry, now time.Time) time.Duration {
	return correctedInitialAge(e) + residentTime(e, now)
}

// maxAgeSeconds parses a Cache-Control max-age/s-maxage-shaped directive
// value. Unparseable values are treated as 0 per spec.md §4.1(a), but are
// still reported present so a 0-valued directive overrides Expires.
func maxAgeSeconds(value string, present bool) (time.Duration, bool) {
	if !present {
		return 0, false
	}
	n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || n < 0 {
		return 0, true
	}
	return time.Duration(n) * time.Second, true
}

// freshnessLifetime implements spec.md §4.1 "freshness_lifetime_s": the
// first present source wins, in order (a) the smaller of max-age/s-maxage
// (s-maxage only considered for shared caches), (b) Expires - Date, else 0.
func freshnessLifetime(e *Entry, sharedCache bool) time.Duration {
	cc := parseCacheControlList(e.Headers)

	maxAgeVal, maxAgePresent := cc[ccMaxAge]
	maxAge, haveMaxAge := maxAgeSeconds(maxAgeVal, maxAgePresent)

	if sharedCache {
		sMaxAgeVal, sMaxAgePresent := cc[ccSMaxAge]
		if sMaxAge, haveSMaxAge := maxAgeSeconds(sMaxAgeVal, sMaxAgePresent); haveSMaxAge {
			if haveMaxAge && maxAge < sMaxAge {
				return maxAge
			}
			return sMaxAge
		}
	}
	if haveMaxAge {
		return maxAge
	}

	if expiresStr := e.Headers.Get("Expires"); expiresStr != "" {
		if expires, ok := parseHTTPDate(expiresStr); ok {
			if date, ok := headerDate(e); ok {
				lifetime := expires.Sub(date)
				if lifetime < 0 {
					lifetime = 0
				}
				return lifetime
			}
		}
	}
	return 0
}

// heuristicLifetime implements spec.md §4.1 "heuristic_lifetime_s": when
// both Date and Last-Modified parse, coeff * max(0, Date - Last-Modified);
// otherwise defaultLifetime.
func heuristicLifetime(e *Entry, coeff float64, defaultLifetime time.Duration) time.Duration {
	date, dateOK := headerDate(e)
	lastMod, lmOK := parseHTTPDate(e.Headers.Get("Last-Modified"))
	if !dateOK || !lmOK {
		return defaultLifetime
	}
	delta := date.Sub(lastMod)
	if delta < 0 {
		delta = 0
	}
	return time.Duration(float64(delta) * coeff)
}

// isFresh implements is_fresh = current_age_s < freshness_lifetime_s.
func isFresh(e *Entry, now time.Time, lifetime time.Duration) bool {
	return currentAge(e, now) < lifetime
}

// staleness implements staleness_s = max(0, current_age_s - freshness_lifetime_s).
func staleness(e *Entry, now time.Time, lifetime time.Duration) time.Duration {
	s := currentAge(e, now) - lifetime
	if s < 0 {
		return 0
	}
	return s
}

// ageHeaderCeiling is the largest Age value this cache will ever emit
// (2^31, spec.md §4.11).
const ageHeaderCeiling = time.Duration(2147483648) * time.Second

// formatAgeSeconds renders age as a decimal-seconds Age header value,
// clamped to [0, 2^31].
func formatAgeSeconds(age time.Duration) string {
	if age < 0 {
		age = 0
	}
	if age > ageHeaderCeiling {
		age = ageHeaderCeiling
	}
	return strconv.FormatInt(int64(age/time.Second), 10)
}
