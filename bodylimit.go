package httpcache

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
)

// Size-Limited Body Reader (spec.md §4.14): streams an origin response
// body through a ResourceFactory while capping how much is ever buffered
// for storage, and cross-checks a declared Content-Length against what the
// origin actually sent.

// limitedBodyOutcome distinguishes the three ways CaptureBody can end.
type limitedBodyOutcome int

const (
	// captured: the whole body fit within cfg.MaxObjectSizeBytes and is now
	// held by a Resource.
	captured limitedBodyOutcome = iota
	// overLimit: the body exceeded the limit; resp.Body has been rebuilt as
	// the buffered prefix spliced to the unread tail so the caller still
	// sees the full, unmodified body, but nothing is stored.
	overLimit
	// lengthMismatch: the response's Content-Length promised more bytes
	// than the origin actually sent.
	lengthMismatch
)

// CaptureBody consumes resp.Body through factory, replacing it with a
// reader the rest of the pipeline can still use. It returns the outcome and,
// for the captured case, the Resource to store.
func CaptureBody(ctx context.Context, factory ResourceFactory, key string, resp *http.Response, cfg Config) (limitedBodyOutcome, Resource, error) {
	if resp.Body == nil || resp.Body == http.NoBody {
		return captured, nil, nil
	}

	limit := cfg.MaxObjectSizeBytes
	body := resp.Body

	var consumed bytes.Buffer
	resource, hitLimit, err := factory.Generate(ctx, key, io.TeeReader(io.LimitReader(body, limit+1), &consumed), limit)
	if err != nil {
		_ = body.Close()
		return captured, nil, &ErrStorageIO{Op: "generate", Key: key, Err: err}
	}

	if hitLimit {
		prefix, openErr := resourcePrefix(resource, limit)
		if openErr != nil {
			_ = body.Close()
			return captured, nil, &ErrStorageIO{Op: "reopen", Key: key, Err: openErr}
		}
		// Bytes the factory read from body past what the resource kept.
		if extra := consumed.Bytes(); len(extra) > len(prefix) {
			prefix = append(prefix, extra[len(prefix):]...)
		}
		resp.Body = &splicedReadCloser{
			head: io.NopCloser(bytes.NewReader(prefix)),
			tail: body,
		}
		return overLimit, nil, nil
	}

	_ = body.Close()

	if declared := resp.Header.Get("Content-Length"); declared != "" {
		if n, parseErr := strconv.ParseInt(declared, 10, 64); parseErr == nil && n > resource.Len() {
			diagnostic := fmt.Sprintf("Content-Length declared %d bytes but origin sent %d", n, resource.Len())
			resp.StatusCode = http.StatusBadGateway
			resp.Status = "502 Bad Gateway"
			resp.Header = http.Header{"Content-Type": []string{"text/plain; charset=utf-8"}}
			resp.Body = io.NopCloser(bytes.NewBufferString(diagnostic))
			resp.ContentLength = int64(len(diagnostic))
			return lengthMismatch, nil, nil
		}
	}

	resp.Body, err = resourceReader(resource)
	if err != nil {
		return captured, nil, &ErrStorageIO{Op: "open", Key: key, Err: err}
	}

	return captured, resource, nil
}

func resourceReader(r Resource) (io.ReadCloser, error) {
	return r.Open()
}

func resourcePrefix(r Resource, limit int64) ([]byte, error) {
	if r == nil {
		return nil, nil
	}
	rc, err := r.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(io.LimitReader(rc, limit))
}

// splicedReadCloser presents a buffered prefix followed by a still-open
// tail reader as a single stream, used when a body exceeds the storage
// limit but must still be delivered to the caller in full.
type splicedReadCloser struct {
	head     io.ReadCloser
	tail     io.ReadCloser
	headDone bool
}

func (s *splicedReadCloser) Read(p []byte) (int, error) {
	if !s.headDone {
		n, err := s.head.Read(p)
		if err == io.EOF {
			s.headDone = true
			if n > 0 {
				return n, nil
			}
		} else {
			return n, err
		}
	}
	return s.tail.Read(p)
}

func (s *splicedReadCloser) Close() error {
	_ = s.head.Close()
	return s.tail.Close()
}
