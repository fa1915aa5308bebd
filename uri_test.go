package httpcache

import "testing"

func TestCanonicalizeURILowercasesSchemeAndHost(t *testing.T) {
	got := canonicalizeURI("HTTP://Example.COM/Path")
	want := "http://example.com/Path"
	if got != want {
		t.Fatalf("canonicalizeURI = %q, want %q", got, want)
	}
}

func TestCanonicalizeURIStripsDefaultPort(t *testing.T) {
	if got := canonicalizeURI("http://example.com:80/a"); got != "http://example.com/a" {
		t.Fatalf("canonicalizeURI = %q, want default port stripped", got)
	}
	if got := canonicalizeURI("https://example.com:443/a"); got != "https://example.com/a" {
		t.Fatalf("canonicalizeURI = %q, want default port stripped", got)
	}
	if got := canonicalizeURI("http://example.com:8080/a"); got != "http://example.com:8080/a" {
		t.Fatalf("canonicalizeURI = %q, non-default port must be kept", got)
	}
}

func TestCanonicalizeURIDropsFragment(t *testing.T) {
	if got := canonicalizeURI("http://example.com/a#frag"); got != "http://example.com/a" {
		t.Fatalf("canonicalizeURI = %q, want fragment stripped", got)
	}
}

func TestCanonicalizeURIDecodesPath(t *testing.T) {
	if got := canonicalizeURI("http://example.com/a%2Fb"); got != "http://example.com/a/b" {
		t.Fatalf("canonicalizeURI = %q, want path decoded", got)
	}
}

func TestCanonicalizeURIPreservesQuery(t *testing.T) {
	if got := canonicalizeURI("http://example.com/a?x=1&y=2"); got != "http://example.com/a?x=1&y=2" {
		t.Fatalf("canonicalizeURI = %q, query string must be untouched", got)
	}
}

func TestCanonicalizeURIIdempotent(t *testing.T) {
	once := canonicalizeURI("HTTP://Example.com:80/a%2Fb?x=1#frag")
	twice := canonicalizeURI(once)
	if once != twice {
		t.Fatalf("canonicalizeURI not idempotent: %q != %q", once, twice)
	}
}

func TestCanonicalizeURIReturnsUnparsableVerbatim(t *testing.T) {
	raw := "http://example.com/a\x01b"
	if got := canonicalizeURI(raw); got != raw {
		t.Fatalf("canonicalizeURI with control byte = %q, want verbatim %q", got, raw)
	}
}
