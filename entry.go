package httpcache

import (
	"io"
	"time"
)

// Header is a single name/value pair as stored in a Entry. Order within a
// name, and across names, is preserved exactly as received from the origin.
type Header struct {
	Name  string
	Value string
}

// HeaderList is an ordered, duplicate-preserving sequence of headers.
type HeaderList []Header

// Get returns the value of the first header matching name (case-insensitive),
// or "" if absent.
func (h HeaderList) Get(name string) string {
	for _, kv := range h {
		if equalFoldASCII(kv.Name, name) {
			return kv.Value
		}
	}
	return ""
}

// Values returns every value stored under name, in original order.
func (h HeaderList) Values(name string) []string {
	var out []string
	for _, kv := range h {
		if equalFoldASCII(kv.Name, name) {
			out = append(out, kv.Value)
		}
	}
	return out
}

// Count returns the number of headers stored under name.
func (h HeaderList) Count(name string) int {
	n := 0
	for _, kv := range h {
		if equalFoldASCII(kv.Name, name) {
			n++
		}
	}
	return n
}

// Without returns a copy of h with every header named name removed.
func (h HeaderList) Without(names ...string) HeaderList {
	out := make(HeaderList, 0, len(h))
	for _, kv := range h {
		skip := false
		for _, n := range names {
			if equalFoldASCII(kv.Name, n) {
				skip = true
				break
			}
		}
		if !skip {
			out = append(out, kv)
		}
	}
	return out
}

// Set replaces every header named name with a single header with this value,
// appended at the position of the first removed occurrence (or at the end).
func (h HeaderList) Set(name, value string) HeaderList {
	out := make(HeaderList, 0, len(h)+1)
	placed := false
	for _, kv := range h {
		if equalFoldASCII(kv.Name, name) {
			if !placed {
				out = append(out, Header{Name: name, Value: value})
				placed = true
			}
			continue
		}
		out = append(out, kv)
	}
	if !placed {
		out = append(out, Header{Name: name, Value: value})
	}
	return out
}

// Clone returns an independent copy of h.
func (h HeaderList) Clone() HeaderList {
	out := make(HeaderList, len(h))
	copy(out, h)
	return out
}

func equalFoldASCII(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// Entry represents one stored response (spec.md §3, "Cache Entry").
//
// An Entry is immutable once placed in the store: updates always replace the
// entry wholesale (see Entry Updater, updater.go).
type Entry struct {
	// RequestDate and ResponseDate bracket the origin round-trip that
	// produced this entry. ResponseDate >= RequestDate by construction.
	RequestDate  time.Time
	ResponseDate time.Time

	Status     int
	Reason     string
	ProtoMajor int
	ProtoMinor int

	Headers HeaderList

	// BodyRef references a Resource owned by the entry store. May be nil for
	// 204/304-derived entries.
	BodyRef Resource

	// RequestMethod is the method that produced this entry (GET or HEAD).
	RequestMethod string

	// VariantMap maps a variant-key (see cachekey.go) to the full cache-key
	// of the entry storing that variant's body. Empty for non-varying
	// entries. A non-empty VariantMap marks this entry as a "root" entry.
	VariantMap map[string]string
}

// IsRoot reports whether e is a Vary "root" entry, i.e. it has recorded
// variants and the caller must resolve the request's variant-key before
// using e's own BodyRef.
func (e *Entry) IsRoot() bool {
	return len(e.VariantMap) > 0
}

// Proto renders the protocol version as "HTTP/major.minor".
func (e *Entry) Proto() string {
	if e.ProtoMajor == 0 {
		return "HTTP/1.1"
	}
	return httpProtoString(e.ProtoMajor, e.ProtoMinor)
}

func httpProtoString(major, minor int) string {
	const digits = "0123456789"
	b := make([]byte, 0, 8)
	b = append(b, 'H', 'T', 'T', 'P', '/')
	b = append(b, digits[major%10])
	b = append(b, '.')
	b = append(b, digits[minor%10])
	return string(b)
}

// BodyLength returns the length of the stored body, or 0 if BodyRef is nil.
func (e *Entry) BodyLength() int64 {
	if e.BodyRef == nil {
		return 0
	}
	return e.BodyRef.Len()
}

// WithVariant returns a shallow copy of e with variantKey mapped to
// cacheKey in its VariantMap. Used by the copy-on-write merge in the
// miss-with-variants path (httpcache.go) so concurrent variant registrations
// do not drop mappings (spec.md §5, "Ordering guarantees").
func (e *Entry) WithVariant(variantKey, cacheKey string) *Entry {
	clone := *e
	clone.VariantMap = make(map[string]string, len(e.VariantMap)+1)
	for k, v := range e.VariantMap {
		clone.VariantMap[k] = v
	}
	clone.VariantMap[variantKey] = cacheKey
	clone.Headers = e.Headers.Clone()
	return &clone
}

// Variant is the transient tuple used during 304-matching of variant
// responses (spec.md §3, "Variant").
type Variant struct {
	VariantKey      string
	VariantCacheKey string
	Entry           *Entry
}

// Resource is an opaque, re-readable body handle owned by an entry store.
type Resource interface {
	// Len returns the total length of the resource in bytes.
	Len() int64
	// Open returns a fresh, independent reader over the resource contents.
	Open() (io.ReadCloser, error)
}
