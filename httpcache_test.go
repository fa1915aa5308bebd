package httpcache

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func originResponse(req *http.Request, status int, headers http.Header, body string) *http.Response {
	if headers == nil {
		headers = http.Header{}
	}
	return &http.Response{
		Status:        http.StatusText(status),
		StatusCode:    status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        headers,
		Body:          io.NopCloser(strings.NewReader(body)),
		ContentLength: int64(len(body)),
		Request:       req,
	}
}

func TestTransportCachesCacheableResponse(t *testing.T) {
	var hits int32
	body := "hello world"
	executor := OriginExecutorFunc(func(_ context.Context, req *http.Request) (*http.Response, error) {
		atomic.AddInt32(&hits, 1)
		h := http.Header{}
		h.Set("Date", formatHTTPDate(systemClock.Now()))
		h.Set("Cache-Control", "max-age=60")
		return originResponse(req, http.StatusOK, h, body), nil
	})

	transport, err := NewTransport(WithExecutor(executor))
	if err != nil {
		t.Fatalf("NewTransport: %v", err)
	}
	client := transport.Client()

	req1, _ := http.NewRequest(http.MethodGet, "http://example.com/a", nil)
	resp1, err := client.Do(req1)
	if err != nil {
		t.Fatalf("first request: %v", err)
	}
	b1, _ := io.ReadAll(resp1.Body)
	resp1.Body.Close()
	if string(b1) != body {
		t.Fatalf("body = %q, want %q", b1, body)
	}
	if resp1.Header.Get(XFromCache) != "" {
		t.Fatal("first response must not be marked as served from cache")
	}

	req2, _ := http.NewRequest(http.MethodGet, "http://example.com/a", nil)
	resp2, err := client.Do(req2)
	if err != nil {
		t.Fatalf("second request: %v", err)
	}
	b2, _ := io.ReadAll(resp2.Body)
	resp2.Body.Close()
	if string(b2) != body {
		t.Fatalf("cached body = %q, want %q", b2, body)
	}
	if resp2.Header.Get(XFromCache) != "1" {
		t.Fatal("second response should be served from cache")
	}

	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Fatalf("origin hit count = %d, want 1", got)
	}
}

func TestTransportRevalidatesStaleEntryWith304(t *testing.T) {
	var requests int32
	transport, err := NewTransport(OriginExecutorFunc2(t, &requests))
	if err != nil {
		t.Fatalf("NewTransport: %v", err)
	}
	client := transport.Client()

	req1, _ := http.NewRequest(http.MethodGet, "http://example.com/b", nil)
	resp1, err := client.Do(req1)
	if err != nil {
		t.Fatalf("first request: %v", err)
	}
	io.ReadAll(resp1.Body)
	resp1.Body.Close()

	req2, _ := http.NewRequest(http.MethodGet, "http://example.com/b", nil)
	resp2, err := client.Do(req2)
	if err != nil {
		t.Fatalf("second request: %v", err)
	}
	b2, _ := io.ReadAll(resp2.Body)
	resp2.Body.Close()
	if string(b2) != "stale body revalidated" {
		t.Fatalf("body = %q", b2)
	}
	if resp2.Header.Get(XFromCache) != "1" {
		t.Fatal("revalidated response should be marked as served from cache")
	}
	if got := atomic.LoadInt32(&requests); got != 2 {
		t.Fatalf("origin request count = %d, want 2 (initial fetch + revalidation)", got)
	}
}

// OriginExecutorFunc2 simulates an origin that serves an already-expired
// response, then answers a conditional revalidation with 304.
func OriginExecutorFunc2(t *testing.T, requests *int32) TransportOption {
	t.Helper()
	return WithExecutor(OriginExecutorFunc(func(_ context.Context, req *http.Request) (*http.Response, error) {
		n := atomic.AddInt32(requests, 1)
		if n == 1 {
			h := http.Header{}
			h.Set("Date", formatHTTPDate(systemClock.Now().Add(-2*time.Hour)))
			h.Set("Cache-Control", "max-age=1")
			h.Set("ETag", `"v1"`)
			return originResponse(req, http.StatusOK, h, "stale body revalidated"), nil
		}
		if req.Header.Get("If-None-Match") != `"v1"` {
			t.Fatalf("expected conditional request to carry If-None-Match, got %q", req.Header.Get("If-None-Match"))
		}
		h := http.Header{}
		h.Set("Date", formatHTTPDate(systemClock.Now()))
		h.Set("Cache-Control", "max-age=60")
		h.Set("ETag", `"v1"`)
		return originResponse(req, http.StatusNotModified, h, ""), nil
	}))
}

func TestTransportOnlyIfCachedMissReturnsGatewayTimeout(t *testing.T) {
	executor := OriginExecutorFunc(func(_ context.Context, req *http.Request) (*http.Response, error) {
		t.Fatal("origin must not be contacted when only-if-cached is set on a miss")
		return nil, nil
	})
	transport, err := NewTransport(WithExecutor(executor))
	if err != nil {
		t.Fatalf("NewTransport: %v", err)
	}
	req, _ := http.NewRequest(http.MethodGet, "http://example.com/never-cached", nil)
	req.Header.Set("Cache-Control", "only-if-cached")

	resp, err := transport.RoundTrip(req)
	if err != nil {
		t.Fatalf("RoundTrip: %v", err)
	}
	if resp.StatusCode != http.StatusGatewayTimeout {
		t.Fatalf("status = %d, want 504", resp.StatusCode)
	}
}

func TestTransportNoStoreRequestBypassesCache(t *testing.T) {
	var hits int32
	executor := OriginExecutorFunc(func(_ context.Context, req *http.Request) (*http.Response, error) {
		atomic.AddInt32(&hits, 1)
		h := http.Header{}
		h.Set("Date", formatHTTPDate(systemClock.Now()))
		h.Set("Cache-Control", "max-age=60")
		return originResponse(req, http.StatusOK, h, "body"), nil
	})
	transport, err := NewTransport(WithExecutor(executor))
	if err != nil {
		t.Fatalf("NewTransport: %v", err)
	}

	for i := 0; i < 2; i++ {
		req, _ := http.NewRequest(http.MethodGet, "http://example.com/no-store", nil)
		req.Header.Set("Cache-Control", "no-store")
		resp, err := transport.RoundTrip(req)
		if err != nil {
			t.Fatalf("RoundTrip: %v", err)
		}
		io.ReadAll(resp.Body)
		resp.Body.Close()
	}

	if got := atomic.LoadInt32(&hits); got != 2 {
		t.Fatalf("origin hit count = %d, want 2 (no-store must never be cached)", got)
	}
}
