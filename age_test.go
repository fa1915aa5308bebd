package httpcache

import (
	"testing"
	"time"
)

func mustParseHTTPDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, ok := parseHTTPDate(s)
	if !ok {
		t.Fatalf("failed to parse date %q", s)
	}
	return d
}

func TestApparentAge(t *testing.T) {
	date := mustParseHTTPDate(t, "Mon, 01 Jan 2024 00:00:00 GMT")
	e := &Entry{
		Headers:      HeaderList{{Name: "Date", Value: "Mon, 01 Jan 2024 00:00:00 GMT"}},
		ResponseDate: date.Add(5 * time.Second),
	}
	if got := apparentAge(e); got != 5*time.Second {
		t.Fatalf("apparentAge = %v, want 5s", got)
	}
}

func TestApparentAgeClampsNegative(t *testing.T) {
	date := mustParseHTTPDate(t, "Mon, 01 Jan 2024 00:00:10 GMT")
	e := &Entry{
		Headers:      HeaderList{{Name: "Date", Value: "Mon, 01 Jan 2024 00:00:10 GMT"}},
		ResponseDate: date.Add(-5 * time.Second),
	}
	if got := apparentAge(e); got != 0 {
		t.Fatalf("apparentAge = %v, want 0", got)
	}
}

func TestApparentAgeMissingDate(t *testing.T) {
	e := &Entry{ResponseDate: time.Now()}
	if got := apparentAge(e); got != 0 {
		t.Fatalf("apparentAge with no Date = %v, want 0", got)
	}
}

func TestReceivedAgePrefersLargerAgeHeader(t *testing.T) {
	date := mustParseHTTPDate(t, "Mon, 01 Jan 2024 00:00:00 GMT")
	e := &Entry{
		Headers: HeaderList{
			{Name: "Date", Value: "Mon, 01 Jan 2024 00:00:00 GMT"},
			{Name: "Age", Value: "100"},
		},
		ResponseDate: date.Add(5 * time.Second),
	}
	if got := receivedAge(e); got != 100*time.Second {
		t.Fatalf("receivedAge = %v, want 100s", got)
	}
}

func TestHeaderAgeValueRejectsMalformed(t *testing.T) {
	e := &Entry{Headers: HeaderList{{Name: "Age", Value: "-5"}}}
	if _, ok := headerAgeValue(e); ok {
		t.Fatal("negative Age header should be treated as missing")
	}
	e = &Entry{Headers: HeaderList{{Name: "Age", Value: "not-a-number"}}}
	if _, ok := headerAgeValue(e); ok {
		t.Fatal("unparsable Age header should be treated as missing")
	}
}

func TestResponseDelay(t *testing.T) {
	req := time.Now()
	e := &Entry{RequestDate: req, ResponseDate: req.Add(2 * time.Second)}
	if got := responseDelay(e); got != 2*time.Second {
		t.Fatalf("responseDelay = %v, want 2s", got)
	}
}

func TestCurrentAgeAccumulatesResidentTime(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	date := now.Add(-10 * time.Second)
	e := &Entry{
		Headers:      HeaderList{{Name: "Date", Value: formatHTTPDate(date)}},
		RequestDate:  date,
		ResponseDate: date,
	}
	got := currentAge(e, now.Add(20*time.Second))
	want := 30 * time.Second
	if got != want {
		t.Fatalf("currentAge = %v, want %v", got, want)
	}
}

func TestFreshnessLifetimeMaxAgeWins(t *testing.T) {
	e := &Entry{Headers: HeaderList{
		{Name: "Cache-Control", Value: "max-age=60"},
		{Name: "Expires", Value: "Mon, 01 Jan 2024 01:00:00 GMT"},
		{Name: "Date", Value: "Mon, 01 Jan 2024 00:00:00 GMT"},
	}}
	if got := freshnessLifetime(e, false); got != 60*time.Second {
		t.Fatalf("freshnessLifetime = %v, want 60s", got)
	}
}

func TestFreshnessLifetimeSMaxAgeOnlyForSharedCache(t *testing.T) {
	e := &Entry{Headers: HeaderList{{Name: "Cache-Control", Value: "max-age=60, s-maxage=120"}}}
	if got := freshnessLifetime(e, false); got != 60*time.Second {
		t.Fatalf("private freshnessLifetime = %v, want 60s", got)
	}
	if got := freshnessLifetime(e, true); got != 60*time.Second {
		t.Fatalf("shared freshnessLifetime should take smaller of max-age/s-maxage, got %v", got)
	}
}

func TestFreshnessLifetimeSMaxAgeLargerThanMaxAge(t *testing.T) {
	e := &Entry{Headers: HeaderList{{Name: "Cache-Control", Value: "max-age=120, s-maxage=60"}}}
	if got := freshnessLifetime(e, true); got != 60*time.Second {
		t.Fatalf("shared freshnessLifetime = %v, want 60s", got)
	}
}

func TestFreshnessLifetimeFallsBackToExpires(t *testing.T) {
	e := &Entry{Headers: HeaderList{
		{Name: "Date", Value: "Mon, 01 Jan 2024 00:00:00 GMT"},
		{Name: "Expires", Value: "Mon, 01 Jan 2024 01:00:00 GMT"},
	}}
	if got := freshnessLifetime(e, false); got != time.Hour {
		t.Fatalf("freshnessLifetime = %v, want 1h", got)
	}
}

func TestFreshnessLifetimeDefaultsToZero(t *testing.T) {
	e := &Entry{}
	if got := freshnessLifetime(e, false); got != 0 {
		t.Fatalf("freshnessLifetime = %v, want 0", got)
	}
}

func TestHeuristicLifetime(t *testing.T) {
	e := &Entry{Headers: HeaderList{
		{Name: "Date", Value: "Mon, 01 Jan 2024 10:00:00 GMT"},
		{Name: "Last-Modified", Value: "Mon, 01 Jan 2024 00:00:00 GMT"},
	}}
	got := heuristicLifetime(e, 0.1, time.Hour)
	want := time.Duration(float64(10*time.Hour) * 0.1)
	if got != want {
		t.Fatalf("heuristicLifetime = %v, want %v", got, want)
	}
}

func TestHeuristicLifetimeFallsBackWithoutLastModified(t *testing.T) {
	e := &Entry{Headers: HeaderList{{Name: "Date", Value: "Mon, 01 Jan 2024 10:00:00 GMT"}}}
	if got := heuristicLifetime(e, 0.1, 2*time.Hour); got != 2*time.Hour {
		t.Fatalf("heuristicLifetime = %v, want default 2h", got)
	}
}

func TestIsFreshAndStaleness(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	date := now.Add(-30 * time.Second)
	e := &Entry{
		Headers:      HeaderList{{Name: "Date", Value: formatHTTPDate(date)}},
		RequestDate:  date,
		ResponseDate: date,
	}
	if !isFresh(e, now, 60*time.Second) {
		t.Fatal("expected entry to be fresh at 30s age with 60s lifetime")
	}
	if isFresh(e, now.Add(40*time.Second), 60*time.Second) {
		t.Fatal("expected entry to be stale at 70s age with 60s lifetime")
	}
	if got := staleness(e, now.Add(40*time.Second), 60*time.Second); got != 10*time.Second {
		t.Fatalf("staleness = %v, want 10s", got)
	}
	if got := staleness(e, now, 60*time.Second); got != 0 {
		t.Fatalf("staleness of fresh entry = %v, want 0", got)
	}
}

func TestFormatAgeSecondsClamps(t *testing.T) {
	if got := formatAgeSeconds(-5 * time.Second); got != "0" {
		t.Fatalf("formatAgeSeconds(negative) = %q, want 0", got)
	}
	if got := formatAgeSeconds(ageHeaderCeiling * 2); got != "2147483648" {
		t.Fatalf("formatAgeSeconds(huge) = %q, want 2147483648", got)
	}
	if got := formatAgeSeconds(90 * time.Second); got != "90" {
		t.Fatalf("formatAgeSeconds(90s) = %q, want 90", got)
	}
}
