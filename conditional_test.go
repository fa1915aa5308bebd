package httpcache

import (
	"net/http"
	"testing"
)

func TestBuildConditionalRequestAddsValidators(t *testing.T) {
	req, _ := http.NewRequest(http.MethodGet, "http://example.com/", nil)
	entry := &Entry{Headers: HeaderList{
		{Name: "ETag", Value: `"v1"`},
		{Name: "Last-Modified", Value: "Mon, 01 Jan 2024 00:00:00 GMT"},
	}}

	got := BuildConditionalRequest(req, entry)
	if got.Header.Get("If-None-Match") != `"v1"` {
		t.Fatalf("If-None-Match = %q", got.Header.Get("If-None-Match"))
	}
	if got.Header.Get("If-Modified-Since") != "Mon, 01 Jan 2024 00:00:00 GMT" {
		t.Fatalf("If-Modified-Since = %q", got.Header.Get("If-Modified-Since"))
	}
	if req.Header.Get("If-None-Match") != "" {
		t.Fatal("original request must not be mutated")
	}
}

func TestBuildConditionalRequestForcesRevalidationWhenMustRevalidate(t *testing.T) {
	req, _ := http.NewRequest(http.MethodGet, "http://example.com/", nil)
	entry := &Entry{Headers: HeaderList{
		{Name: "Cache-Control", Value: "must-revalidate"},
		{Name: "ETag", Value: `"v1"`},
	}}
	got := BuildConditionalRequest(req, entry)
	if got.Header.Get("Cache-Control") != "max-age=0" {
		t.Fatalf("Cache-Control = %q, want max-age=0", got.Header.Get("Cache-Control"))
	}
}

func TestBuildVariantsConditionalRequestJoinsETags(t *testing.T) {
	req, _ := http.NewRequest(http.MethodGet, "http://example.com/", nil)
	variants := []*Entry{
		{Headers: HeaderList{{Name: "ETag", Value: `"a"`}}},
		{Headers: HeaderList{{Name: "ETag", Value: `"b"`}}},
		{Headers: HeaderList{}},
	}
	got := BuildVariantsConditionalRequest(req, variants)
	if got.Header.Get("If-None-Match") != `"a", "b"` {
		t.Fatalf("If-None-Match = %q", got.Header.Get("If-None-Match"))
	}
}

func TestBuildUnconditionalRetryStripsValidators(t *testing.T) {
	req, _ := http.NewRequest(http.MethodGet, "http://example.com/", nil)
	req.Header.Set("If-None-Match", `"v1"`)
	req.Header.Set("If-Modified-Since", "Mon, 01 Jan 2024 00:00:00 GMT")
	req.Header.Set("If-Match", `"v1"`)
	req.Header.Set("If-Range", `"v1"`)
	req.Header.Set("If-Unmodified-Since", "Mon, 01 Jan 2024 00:00:00 GMT")

	got := BuildUnconditionalRetry(req)
	for _, h := range []string{"If-None-Match", "If-Modified-Since", "If-Match", "If-Range", "If-Unmodified-Since"} {
		if got.Header.Get(h) != "" {
			t.Fatalf("expected %s stripped, got %q", h, got.Header.Get(h))
		}
	}
	if got.Header.Get("Cache-Control") != "no-cache" {
		t.Fatalf("Cache-Control = %q, want no-cache", got.Header.Get("Cache-Control"))
	}
	if got.Header.Get("Pragma") != "no-cache" {
		t.Fatalf("Pragma = %q, want no-cache", got.Header.Get("Pragma"))
	}
	if req.Header.Get("If-None-Match") == "" {
		t.Fatal("original request must not be mutated")
	}
}
