package httpcache

import (
	"net/http"
	"testing"
	"time"
)

func freshEntry(now time.Time, maxAge time.Duration) *Entry {
	date := now.Add(-5 * time.Second)
	return &Entry{
		Status: 200,
		Headers: HeaderList{
			{Name: "Date", Value: formatHTTPDate(date)},
			{Name: "Cache-Control", Value: "max-age=" + formatAgeSeconds(maxAge)},
		},
		RequestDate:  date,
		ResponseDate: date,
	}
}

func newGetRequest(t *testing.T) *http.Request {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, "http://example.com/", nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	return req
}

func TestCheckSuitabilityUseCached(t *testing.T) {
	now := time.Now()
	entry := freshEntry(now, time.Hour)
	req := newGetRequest(t)
	if got := CheckSuitability(entry, req, now, DefaultConfig()); got != UseCached {
		t.Fatalf("CheckSuitability = %v, want UseCached", got)
	}
}

func TestCheckSuitabilityStaleWithValidatorNeedsRevalidation(t *testing.T) {
	now := time.Now()
	date := now.Add(-120 * time.Second)
	entry := &Entry{
		Status: 200,
		Headers: HeaderList{
			{Name: "Date", Value: formatHTTPDate(date)},
			{Name: "Cache-Control", Value: "max-age=60"},
			{Name: "ETag", Value: `"abc"`},
		},
		RequestDate:  date,
		ResponseDate: date,
	}
	req := newGetRequest(t)
	if got := CheckSuitability(entry, req, now, DefaultConfig()); got != NeedsRevalidation {
		t.Fatalf("CheckSuitability = %v, want NeedsRevalidation", got)
	}
}

func TestCheckSuitabilityStaleWithoutValidatorNotSuitable(t *testing.T) {
	now := time.Now()
	date := now.Add(-120 * time.Second)
	entry := &Entry{
		Status: 200,
		Headers: HeaderList{
			{Name: "Date", Value: formatHTTPDate(date)},
			{Name: "Cache-Control", Value: "max-age=60"},
		},
		RequestDate:  date,
		ResponseDate: date,
	}
	req := newGetRequest(t)
	if got := CheckSuitability(entry, req, now, DefaultConfig()); got != NotSuitable {
		t.Fatalf("CheckSuitability = %v, want NotSuitable", got)
	}
}

func TestCheckSuitabilityRequestMaxStaleAllowsStale(t *testing.T) {
	now := time.Now()
	date := now.Add(-30 * time.Second)
	entry := &Entry{
		Status: 200,
		Headers: HeaderList{
			{Name: "Date", Value: formatHTTPDate(date)},
			{Name: "Cache-Control", Value: "max-age=20"},
		},
		RequestDate:  date,
		ResponseDate: date,
	}
	req := newGetRequest(t)
	req.Header.Set("Cache-Control", "max-stale=30")
	if got := CheckSuitability(entry, req, now, DefaultConfig()); got != UseCached {
		t.Fatalf("CheckSuitability = %v, want UseCached (within max-stale budget)", got)
	}
}

func TestCheckSuitabilityMustRevalidateBlocksMaxStale(t *testing.T) {
	now := time.Now()
	date := now.Add(-70 * time.Second)
	entry := &Entry{
		Status: 200,
		Headers: HeaderList{
			{Name: "Date", Value: formatHTTPDate(date)},
			{Name: "Cache-Control", Value: "max-age=60, must-revalidate"},
			{Name: "ETag", Value: `"abc"`},
		},
		RequestDate:  date,
		ResponseDate: date,
	}
	req := newGetRequest(t)
	req.Header.Set("Cache-Control", "max-stale=30")
	if got := CheckSuitability(entry, req, now, DefaultConfig()); got != NeedsRevalidation {
		t.Fatalf("CheckSuitability = %v, want NeedsRevalidation (must-revalidate overrides max-stale)", got)
	}
}

func TestCheckSuitabilityRequestNoCacheNotSuitable(t *testing.T) {
	now := time.Now()
	entry := freshEntry(now, time.Hour)
	req := newGetRequest(t)
	req.Header.Set("Cache-Control", "no-cache")
	if got := CheckSuitability(entry, req, now, DefaultConfig()); got != NotSuitable {
		t.Fatalf("CheckSuitability = %v, want NotSuitable (request no-cache)", got)
	}
}

func TestCheckSuitabilityIfNoneMatch(t *testing.T) {
	now := time.Now()
	entry := freshEntry(now, time.Hour)
	entry.Headers = append(entry.Headers, Header{Name: "ETag", Value: `"v1"`})

	req := newGetRequest(t)
	req.Header.Set("If-None-Match", `"v1"`)
	if got := CheckSuitability(entry, req, now, DefaultConfig()); got != UseCached {
		t.Fatalf("matching If-None-Match = %v, want UseCached", got)
	}

	req2 := newGetRequest(t)
	req2.Header.Set("If-None-Match", `"other"`)
	if got := CheckSuitability(entry, req2, now, DefaultConfig()); got != NotSuitable {
		t.Fatalf("mismatched If-None-Match = %v, want NotSuitable", got)
	}
}

func TestCheckSuitabilityIfRangePreventsCacheUse(t *testing.T) {
	now := time.Now()
	entry := freshEntry(now, time.Hour)
	req := newGetRequest(t)
	req.Header.Set("If-Range", `"v1"`)
	if got := CheckSuitability(entry, req, now, DefaultConfig()); got != NotSuitable {
		t.Fatalf("CheckSuitability with If-Range = %v, want NotSuitable", got)
	}
}

func TestCheckSuitabilityContentLengthMismatch(t *testing.T) {
	now := time.Now()
	entry := freshEntry(now, time.Hour)
	entry.Headers = append(entry.Headers, Header{Name: "Content-Length", Value: "999"})
	req := newGetRequest(t)
	if got := CheckSuitability(entry, req, now, DefaultConfig()); got != NotSuitable {
		t.Fatalf("CheckSuitability with mismatched Content-Length = %v, want NotSuitable", got)
	}
}

func TestEtagsEqualIgnoresWeakPrefix(t *testing.T) {
	if !etagsEqual(`W/"abc"`, `"abc"`) {
		t.Fatal("expected weak/strong ETag match")
	}
	if etagsEqual(`"abc"`, `"def"`) {
		t.Fatal("unexpected ETag match")
	}
}

func TestIfNoneMatchSatisfiedWildcard(t *testing.T) {
	if !ifNoneMatchSatisfied("*", `"abc"`) {
		t.Fatal("wildcard If-None-Match should match any ETag")
	}
	if ifNoneMatchSatisfied("*", "") {
		t.Fatal("wildcard If-None-Match should not match absent ETag")
	}
}
