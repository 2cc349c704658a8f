package pipeline

import (
	"errors"
	"fmt"
)

// Kind classifies a terminal pipeline failure for host-facing messaging.
type Kind string

const (
	KindPermissionDenied Kind = "permission_denied"
	KindValidation       Kind = "validation"
	KindTimeout          Kind = "timeout"
	KindStorage          Kind = "storage"
	KindServer           Kind = "server"
	KindNetwork          Kind = "network"
	KindCancelled        Kind = "cancelled"
)

// Error is a classified pipeline failure. Validation and permission errors
// are produced before any network call; cancelled is the one kind that is
// not surfaced as a user-visible fault.
type Error struct {
	Kind   Kind
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error { return e.Err }

func failf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

func wrap(kind Kind, detail string, err error) *Error {
	return &Error{Kind: kind, Detail: detail, Err: err}
}

// KindOf extracts the failure kind from err, or "" when err is not a
// pipeline error.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}
