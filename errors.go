package httpcache

import (
	"errors"
	"fmt"
)

// ComplianceKind enumerates the reasons a request is fatally non-compliant
// (spec.md §4.7, §7). Such a request is never forwarded to the origin; the
// Orchestrator synthesizes an error response instead.
type ComplianceKind int

const (
	WeakETagWithRange ComplianceKind = iota
	WeakETagOnPutDelete
	NoCacheWithFieldName
	BodyWithoutLength
)

func (k ComplianceKind) String() string {
	switch k {
	case WeakETagWithRange:
		return "weak-etag-with-range"
	case WeakETagOnPutDelete:
		return "weak-etag-on-put-delete"
	case NoCacheWithFieldName:
		return "no-cache-with-field-name"
	case BodyWithoutLength:
		return "body-without-length"
	default:
		return "unknown"
	}
}

// ErrRequestFatallyNonCompliant is the sentinel tested by errors.Is.
var ErrRequestFatallyNonCompliant = errors.New("request fatally non-compliant")

// RequestComplianceError reports a fatal request-compliance violation
// (spec.md §7). It carries the status the Orchestrator should synthesize.
type RequestComplianceError struct {
	Kind   ComplianceKind
	Status int
	Detail string
}

func (e *RequestComplianceError) Error() string {
	return fmt.Sprintf("request fatally non-compliant (%s): %s", e.Kind, e.Detail)
}

func (e *RequestComplianceError) Unwrap() error { return ErrRequestFatallyNonCompliant }

// ProtocolKind enumerates the reasons an origin response is non-compliant
// (spec.md §4.6, §7).
type ProtocolKind int

const (
	MissingProxyAuthenticate ProtocolKind = iota
	MissingAllow
	MissingWWWAuthenticate
	UnexpectedContinue
	PartialContentWithoutRange
)

func (k ProtocolKind) String() string {
	switch k {
	case MissingProxyAuthenticate:
		return "missing-proxy-authenticate"
	case MissingAllow:
		return "missing-allow"
	case MissingWWWAuthenticate:
		return "missing-www-authenticate"
	case UnexpectedContinue:
		return "unexpected-100-continue"
	case PartialContentWithoutRange:
		return "206-without-content-range-request"
	default:
		return "unknown"
	}
}

// ErrProtocolNonCompliantResponse is the sentinel tested by errors.Is.
var ErrProtocolNonCompliantResponse = errors.New("origin response is protocol non-compliant")

// ProtocolComplianceError reports a fatal response-compliance violation.
type ProtocolComplianceError struct {
	Kind   ProtocolKind
	Detail string
}

func (e *ProtocolComplianceError) Error() string {
	return fmt.Sprintf("protocol non-compliant response (%s): %s", e.Kind, e.Detail)
}

func (e *ProtocolComplianceError) Unwrap() error { return ErrProtocolNonCompliantResponse }

// ErrOriginIO wraps a transport-level failure from the origin executor
// (spec.md §7). It drives the revalidation-failure branch in §4.12.
type ErrOriginIO struct{ Err error }

func (e *ErrOriginIO) Error() string { return "origin io error: " + e.Err.Error() }
func (e *ErrOriginIO) Unwrap() error { return e.Err }

// ErrStorageIO wraps a failure from the EntryStore or ResourceFactory.
// Transport.RoundTrip returns it to its caller as the request's error; the
// request is not retried against the origin without the cache.
type ErrStorageIO struct {
	Op, Key string
	Err     error
}

func (e *ErrStorageIO) Error() string {
	return fmt.Sprintf("storage io error during %s(%s): %v", e.Op, e.Key, e.Err)
}
func (e *ErrStorageIO) Unwrap() error { return e.Err }

// ErrEntryUpdateConflict is returned by EntryStore.Update implementations
// that exhaust their retry budget under contention. Logged at warn level;
// the Orchestrator proceeds as if the update had not happened.
var ErrEntryUpdateConflict = errors.New("entry update conflict: retries exhausted")

// ErrQueueFull is returned by the Async Revalidator when a job is rejected
// because the bounded queue has no capacity (spec.md §4.13).
var ErrQueueFull = errors.New("async revalidation queue full")
