package httpcache

import (
	"net/http"
	"testing"
)

func TestVaryHeaderNamesStar(t *testing.T) {
	h := respHeaders("Vary", "*")
	names, star := varyHeaderNames(h)
	if !star || names != nil {
		t.Fatalf("expected star=true, names=nil, got star=%v names=%v", star, names)
	}
}

func TestVaryHeaderNamesDeduplicatesAndCanonicalizes(t *testing.T) {
	h := respHeaders("Vary", "accept-encoding, Accept-Language", "Vary", "accept-encoding")
	names, star := varyHeaderNames(h)
	if star {
		t.Fatal("unexpected star")
	}
	want := []string{"Accept-Encoding", "Accept-Language"}
	if len(names) != len(want) {
		t.Fatalf("names = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("names = %v, want %v", names, want)
		}
	}
}

func TestVariantMatchesRequest(t *testing.T) {
	req, _ := http.NewRequest(http.MethodGet, "http://example.com/", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	names := []string{"Accept-Encoding"}
	key := variantKey(req, names)

	entry := &Entry{VariantMap: map[string]string{key: "somecachekey"}}
	if !variantMatchesRequest(entry, req, names) {
		t.Fatal("expected matching variant")
	}

	req2, _ := http.NewRequest(http.MethodGet, "http://example.com/", nil)
	req2.Header.Set("Accept-Encoding", "br")
	if variantMatchesRequest(entry, req2, names) {
		t.Fatal("expected no match for a different Accept-Encoding")
	}
}

func TestVariantMatchesRequestNoVariantMap(t *testing.T) {
	req, _ := http.NewRequest(http.MethodGet, "http://example.com/", nil)
	entry := &Entry{}
	if !variantMatchesRequest(entry, req, nil) {
		t.Fatal("non-varying entry with no Vary names should match")
	}
	if variantMatchesRequest(entry, req, []string{"Accept-Encoding"}) {
		t.Fatal("entry with no VariantMap cannot match a varying request")
	}
}

func TestVariantDescribesHeaders(t *testing.T) {
	names := []string{"Accept-Encoding", "Accept-Language"}
	if !variantDescribesHeaders(names, "accept-language") {
		t.Fatal("expected case-insensitive match")
	}
	if variantDescribesHeaders(names, "Authorization") {
		t.Fatal("unexpected match")
	}
}
