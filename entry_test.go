package httpcache

import "testing"

func TestHeaderListGet(t *testing.T) {
	h := HeaderList{{Name: "Content-Type", Value: "text/html"}, {Name: "X-Foo", Value: "bar"}}
	if got := h.Get("content-type"); got != "text/html" {
		t.Fatalf("Get = %q, want text/html", got)
	}
	if got := h.Get("Missing"); got != "" {
		t.Fatalf("Get(missing) = %q, want empty", got)
	}
}

func TestHeaderListValuesAndCount(t *testing.T) {
	h := HeaderList{
		{Name: "Set-Cookie", Value: "a=1"},
		{Name: "Set-Cookie", Value: "b=2"},
		{Name: "X-Foo", Value: "bar"},
	}
	if got := h.Values("set-cookie"); len(got) != 2 || got[0] != "a=1" || got[1] != "b=2" {
		t.Fatalf("Values = %v", got)
	}
	if got := h.Count("Set-Cookie"); got != 2 {
		t.Fatalf("Count = %d, want 2", got)
	}
}

func TestHeaderListWithout(t *testing.T) {
	h := HeaderList{{Name: "A", Value: "1"}, {Name: "B", Value: "2"}, {Name: "A", Value: "3"}}
	got := h.Without("a")
	if len(got) != 1 || got[0].Name != "B" {
		t.Fatalf("Without = %v", got)
	}
}

func TestHeaderListSet(t *testing.T) {
	h := HeaderList{{Name: "A", Value: "1"}, {Name: "B", Value: "2"}, {Name: "A", Value: "3"}}
	got := h.Set("a", "replaced")
	want := HeaderList{{Name: "a", Value: "replaced"}, {Name: "B", Value: "2"}}
	if len(got) != len(want) || got[0].Value != "replaced" || got[1].Name != "B" {
		t.Fatalf("Set = %v", got)
	}

	appended := HeaderList{{Name: "X", Value: "1"}}.Set("Y", "2")
	if len(appended) != 2 || appended[1].Name != "Y" {
		t.Fatalf("Set append = %v", appended)
	}
}

func TestHeaderListClone(t *testing.T) {
	h := HeaderList{{Name: "A", Value: "1"}}
	clone := h.Clone()
	clone[0].Value = "2"
	if h[0].Value != "1" {
		t.Fatal("Clone shares backing array with original")
	}
}

func TestEntryIsRoot(t *testing.T) {
	e := &Entry{}
	if e.IsRoot() {
		t.Fatal("empty entry reported as root")
	}
	e.VariantMap = map[string]string{"k": "v"}
	if !e.IsRoot() {
		t.Fatal("entry with variants not reported as root")
	}
}

func TestEntryProto(t *testing.T) {
	e := &Entry{}
	if got := e.Proto(); got != "HTTP/1.1" {
		t.Fatalf("Proto() default = %q, want HTTP/1.1", got)
	}
	e = &Entry{ProtoMajor: 2, ProtoMinor: 0}
	if got := e.Proto(); got != "HTTP/2.0" {
		t.Fatalf("Proto() = %q, want HTTP/2.0", got)
	}
}

func TestEntryBodyLength(t *testing.T) {
	e := &Entry{}
	if e.BodyLength() != 0 {
		t.Fatal("BodyLength with nil BodyRef should be 0")
	}
}

func TestEntryWithVariant(t *testing.T) {
	base := &Entry{Headers: HeaderList{{Name: "Vary", Value: "Accept-Encoding"}}}
	variant := base.WithVariant("gzip", "cachekey-gzip")
	if variant == base {
		t.Fatal("WithVariant must return a distinct entry")
	}
	if len(base.VariantMap) != 0 {
		t.Fatal("WithVariant mutated the original entry's VariantMap")
	}
	if variant.VariantMap["gzip"] != "cachekey-gzip" {
		t.Fatalf("VariantMap = %v", variant.VariantMap)
	}

	variant2 := variant.WithVariant("br", "cachekey-br")
	if len(variant.VariantMap) != 1 {
		t.Fatal("WithVariant mutated the prior entry's VariantMap")
	}
	if len(variant2.VariantMap) != 2 {
		t.Fatalf("expected both variants accumulated, got %v", variant2.VariantMap)
	}
}
