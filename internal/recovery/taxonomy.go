// Package recovery classifies failures and decides recovery actions.
//
// This package contains:
//   - Category: the failure taxonomy
//   - Engine: HandleError, retry bookkeeping and batch negotiation
//   - CircuitBreaker: failure guard for the remote channel
//   - Backoff: exponential delay with jitter, shared with reconnection
package recovery

import (
	"errors"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Category buckets a failure for strategy selection.
type Category string

const (
	CategoryNetwork    Category = "network"
	CategorySession    Category = "session"
	CategoryValidation Category = "validation"
	CategorySystem     Category = "system"
	CategoryBatch      Category = "batch"
	CategoryUser       Category = "user"
)

// Context describes where a failure occurred. Explicit flags take
// precedence over message inspection.
type Context struct {
	// Operation names the remote or local operation that failed.
	Operation string

	// ValidatingTimecode marks failures raised while validating or
	// converting a candidate's timecode.
	ValidatingTimecode bool

	// Batch, when non-nil, marks the failure as part of a batch run.
	// The engine records failures into it; the batch's lifetime is
	// owned by the caller.
	Batch *BatchOperation

	// ItemIndex is the failing item's index within the batch.
	ItemIndex int
}

// ClassifiedError carries the category alongside the underlying error.
type ClassifiedError struct {
	Category  Category
	Operation string
	Err       error
}

func (e *ClassifiedError) Error() string {
	return string(e.Category) + " failure in " + e.Operation + ": " + e.Err.Error()
}

func (e *ClassifiedError) Unwrap() error { return e.Err }

// Classify buckets err using its context flags, grpc status code and
// message content, in that order.
func Classify(err error, ctx Context) Category {
	if err == nil {
		return CategoryUser
	}

	if ctx.ValidatingTimecode {
		return CategoryValidation
	}
	if ctx.Batch != nil {
		return CategoryBatch
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Category
	}

	if st, ok := status.FromError(err); ok && st.Code() != codes.OK && st.Code() != codes.Unknown {
		switch st.Code() {
		case codes.Unavailable, codes.DeadlineExceeded, codes.Aborted, codes.ResourceExhausted:
			return CategoryNetwork
		case codes.InvalidArgument, codes.OutOfRange:
			return CategoryValidation
		case codes.Unauthenticated, codes.PermissionDenied, codes.FailedPrecondition:
			return CategorySession
		case codes.Internal, codes.Unimplemented, codes.DataLoss:
			return CategorySystem
		}
	}

	msg := strings.ToLower(err.Error())

	switch {
	case containsAny(msg, "timecode", "invalid", "out of range", "malformed"):
		return CategoryValidation
	case containsAny(msg, "session"):
		return CategorySession
	case containsAny(msg, "timeout", "deadline", "connection refused", "connection reset",
		"broken pipe", "unavailable", "no route", "heartbeat"):
		return CategoryNetwork
	case containsAny(msg, "not running", "unreachable", "not ready", "not responding", "internal"):
		return CategorySystem
	}

	return CategoryUser
}

// SessionLocked reports whether a session-category failure is the host
// refusing writes because the session is locked.
func SessionLocked(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "lock")
}

// HostUnreachable reports whether a system-category failure indicates
// the host application is not running at all.
func HostUnreachable(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return containsAny(msg, "not running", "unreachable", "refused")
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
