package httpcache

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestEncodeDecodeEntryRoundTrip(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	entry := &Entry{
		RequestDate:  now,
		ResponseDate: now.Add(time.Second),
		Status:       200,
		Reason:       "OK",
		ProtoMajor:   1,
		ProtoMinor:   1,
		Headers: HeaderList{
			{Name: "Content-Type", Value: "text/plain"},
			{Name: "ETag", Value: `"abc"`},
		},
	}
	body := []byte("hello world")

	encoded, err := EncodeEntry("http://example.com/a", entry, bytes.NewReader(body))
	if err != nil {
		t.Fatalf("EncodeEntry: %v", err)
	}

	key, decoded, decodedBody, err := DecodeEntry(encoded)
	if err != nil {
		t.Fatalf("DecodeEntry: %v", err)
	}

	if key != "http://example.com/a" {
		t.Fatalf("key = %q", key)
	}
	if decoded.Status != 200 || decoded.Reason != "OK" {
		t.Fatalf("status/reason = %d/%q", decoded.Status, decoded.Reason)
	}
	if !decoded.RequestDate.Equal(now) || !decoded.ResponseDate.Equal(now.Add(time.Second)) {
		t.Fatalf("dates = %v / %v", decoded.RequestDate, decoded.ResponseDate)
	}
	if decoded.Headers.Get("Content-Type") != "text/plain" || decoded.Headers.Get("ETag") != `"abc"` {
		t.Fatalf("headers = %v", decoded.Headers)
	}
	if string(decodedBody) != string(body) {
		t.Fatalf("body = %q, want %q", decodedBody, body)
	}
}

func TestEncodeDecodeEntryNoBody(t *testing.T) {
	entry := &Entry{Status: 304, Reason: "Not Modified"}
	encoded, err := EncodeEntry("k", entry, nil)
	if err != nil {
		t.Fatalf("EncodeEntry: %v", err)
	}
	_, decoded, body, err := DecodeEntry(encoded)
	if err != nil {
		t.Fatalf("DecodeEntry: %v", err)
	}
	if len(body) != 0 {
		t.Fatalf("expected no body, got %q", body)
	}
	if decoded.Status != 304 {
		t.Fatalf("status = %d", decoded.Status)
	}
}

func TestEncodeDecodeEntryVariantMap(t *testing.T) {
	entry := &Entry{Status: 200, VariantMap: map[string]string{
		"{Accept-Encoding=gzip}": "key-gzip",
		"{Accept-Encoding=br}":   "key-br",
	}}
	encoded, err := EncodeEntry("k", entry, nil)
	if err != nil {
		t.Fatalf("EncodeEntry: %v", err)
	}
	_, decoded, _, err := DecodeEntry(encoded)
	if err != nil {
		t.Fatalf("DecodeEntry: %v", err)
	}
	if len(decoded.VariantMap) != 2 {
		t.Fatalf("VariantMap = %v", decoded.VariantMap)
	}
	if decoded.VariantMap["{Accept-Encoding=gzip}"] != "key-gzip" {
		t.Fatalf("VariantMap = %v", decoded.VariantMap)
	}
}

func TestEncodeDecodeEntryEscapesReservedHeaderNames(t *testing.T) {
	entry := &Entry{Status: 200, Headers: HeaderList{{Name: "Hc-Sk", Value: "attacker-controlled"}}}
	encoded, err := EncodeEntry("realkey", entry, nil)
	if err != nil {
		t.Fatalf("EncodeEntry: %v", err)
	}
	key, decoded, _, err := DecodeEntry(encoded)
	if err != nil {
		t.Fatalf("DecodeEntry: %v", err)
	}
	if key != "realkey" {
		t.Fatalf("key = %q, want realkey (pseudo-header collision should not override it)", key)
	}
	if decoded.Headers.Get("Hc-Sk") != "attacker-controlled" {
		t.Fatalf("escaped header lost: %v", decoded.Headers)
	}
}

func TestDecodeEntryMalformedStatusLine(t *testing.T) {
	if _, _, _, err := DecodeEntry([]byte("not a status line\r\n\r\n")); err == nil {
		t.Fatal("expected error for malformed status line")
	}
}

func TestEncodeEntryStatusLineProto(t *testing.T) {
	entry := &Entry{Status: 200, ProtoMajor: 1, ProtoMinor: 0}
	encoded, err := EncodeEntry("k", entry, nil)
	if err != nil {
		t.Fatalf("EncodeEntry: %v", err)
	}
	if !strings.HasPrefix(string(encoded), "HTTP/1.0 200") {
		t.Fatalf("encoded status line = %q", strings.SplitN(string(encoded), "\r\n", 2)[0])
	}
}
