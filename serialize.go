package httpcache

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Entry serialization (spec.md §3/§6): an out-of-process EntryStore
// implementation needs to turn an *Entry plus its body into bytes and
// back. The format is an HTTP/1.1-like byte stream — a status line,
// headers, blank line, body — carrying a handful of reserved pseudo-headers
// for the metadata HTTP itself has no field for.
const (
	pseudoStoreKey    = "Hc-Sk"
	pseudoRequestDate = "Hc-Req-Date"
	pseudoResponseDate = "Hc-Resp-Date"
	pseudoNoContent   = "Hc-No-Content"
	pseudoVarmapKey   = "Hc-Varmap-Key"
	pseudoVarmapVal   = "Hc-Varmap-Val"

	escapedHeaderPrefix = "Hc-Esc-"
)

// EncodeEntry serializes entry, plus its body read from body (which may be
// nil for a bodyless entry), into the on-wire format. EncodeEntry does not
// consume entry.BodyRef; callers supply the body reader directly so the
// format can be used for both storage and transport.
func EncodeEntry(key string, entry *Entry, body io.Reader) ([]byte, error) {
	var buf bytes.Buffer

	reason := entry.Reason
	if reason == "" {
		reason = "status"
	}
	fmt.Fprintf(&buf, "%s %d %s\r\n", entry.Proto(), entry.Status, reason)

	writeHeaderLine(&buf, pseudoStoreKey, key)
	writeHeaderLine(&buf, pseudoRequestDate, strconv.FormatInt(entry.RequestDate.UnixNano(), 10))
	writeHeaderLine(&buf, pseudoResponseDate, strconv.FormatInt(entry.ResponseDate.UnixNano(), 10))
	if body == nil {
		writeHeaderLine(&buf, pseudoNoContent, "1")
	}

	variantKeys := make([]string, 0, len(entry.VariantMap))
	for k := range entry.VariantMap {
		variantKeys = append(variantKeys, k)
	}
	sort.Strings(variantKeys)
	for _, vk := range variantKeys {
		writeHeaderLine(&buf, pseudoVarmapKey, vk)
		writeHeaderLine(&buf, pseudoVarmapVal, entry.VariantMap[vk])
	}

	for _, h := range entry.Headers {
		name := h.Name
		if strings.HasPrefix(strings.ToLower(name), "hc-") {
			name = escapedHeaderPrefix + name
		}
		writeHeaderLine(&buf, name, h.Value)
	}

	buf.WriteString("\r\n")

	if body != nil {
		if _, err := io.Copy(&buf, body); err != nil {
			return nil, fmt.Errorf("httpcache: encode entry body: %w", err)
		}
	}

	return buf.Bytes(), nil
}

func writeHeaderLine(buf *bytes.Buffer, name, value string) {
	buf.WriteString(name)
	buf.WriteString(": ")
	buf.WriteString(value)
	buf.WriteString("\r\n")
}

// DecodeEntry parses the on-wire format produced by EncodeEntry, returning
// the stored key, the reconstructed Entry (with BodyRef left nil — callers
// attach a Resource themselves), and the raw body bytes.
func DecodeEntry(data []byte) (key string, entry *Entry, body []byte, err error) {
	r := bufio.NewReader(bytes.NewReader(data))

	statusLine, err := r.ReadString('\n')
	if err != nil {
		return "", nil, nil, fmt.Errorf("httpcache: decode entry status line: %w", err)
	}
	proto, status, reason, err := parseStatusLine(statusLine)
	if err != nil {
		return "", nil, nil, err
	}

	entry = &Entry{Status: status, Reason: reason}
	entry.ProtoMajor, entry.ProtoMinor = protoVersion(proto)

	noContent := false
	var pendingVariantKey string
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return "", nil, nil, fmt.Errorf("httpcache: decode entry headers: %w", err)
		}
		trimmed := strings.TrimRight(line, "\r\n")
		if trimmed == "" {
			break
		}
		name, value, ok := splitHeaderLine(trimmed)
		if !ok {
			continue
		}

		switch {
		case strings.EqualFold(name, pseudoStoreKey):
			key = value
		case strings.EqualFold(name, pseudoRequestDate):
			entry.RequestDate = unixNanoTime(value)
		case strings.EqualFold(name, pseudoResponseDate):
			entry.ResponseDate = unixNanoTime(value)
		case strings.EqualFold(name, pseudoNoContent):
			noContent = true
		case strings.EqualFold(name, pseudoVarmapKey):
			pendingVariantKey = value
		case strings.EqualFold(name, pseudoVarmapVal):
			if entry.VariantMap == nil {
				entry.VariantMap = make(map[string]string)
			}
			entry.VariantMap[pendingVariantKey] = value
		default:
			if strings.HasPrefix(strings.ToLower(name), strings.ToLower(escapedHeaderPrefix)) {
				name = name[len(escapedHeaderPrefix):]
			}
			entry.Headers = append(entry.Headers, Header{Name: name, Value: value})
		}
	}

	if !noContent {
		body, err = io.ReadAll(r)
		if err != nil {
			return "", nil, nil, fmt.Errorf("httpcache: decode entry body: %w", err)
		}
	}

	return key, entry, body, nil
}

func parseStatusLine(line string) (proto string, status int, reason string, err error) {
	line = strings.TrimRight(line, "\r\n")
	parts := strings.SplitN(line, " ", 3)
	if len(parts) < 2 {
		return "", 0, "", fmt.Errorf("httpcache: malformed entry status line %q", line)
	}
	status, err = strconv.Atoi(parts[1])
	if err != nil {
		return "", 0, "", fmt.Errorf("httpcache: malformed entry status code %q", parts[1])
	}
	if len(parts) == 3 {
		reason = parts[2]
	}
	return parts[0], status, reason, nil
}

func protoVersion(proto string) (major, minor int) {
	switch proto {
	case "HTTP/1.0":
		return 1, 0
	default:
		return 1, 1
	}
}

func splitHeaderLine(line string) (name, value string, ok bool) {
	i := strings.Index(line, ":")
	if i < 0 {
		return "", "", false
	}
	return line[:i], strings.TrimSpace(line[i+1:]), true
}

func unixNanoTime(value string) time.Time {
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}
