package firestore

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Error carries a Firestore failure together with the repository semantics
// the service layer switches on. It keeps the gRPC status code and derives
// the not-found/conflict/unavailable predicates from it.
type Error struct {
	op   string
	code codes.Code
	err  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.op != "" {
		return fmt.Sprintf("%s: %v", e.op, e.err)
	}
	return e.err.Error()
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.err
}

// IsNotFound reports whether the document does not exist.
func (e *Error) IsNotFound() bool {
	return e != nil && e.code == codes.NotFound
}

// IsConflict reports whether the write collided with existing state, such
// as a duplicate create or a failed transactional precondition.
func (e *Error) IsConflict() bool {
	if e == nil {
		return false
	}
	switch e.code {
	case codes.AlreadyExists, codes.FailedPrecondition, codes.Aborted, codes.OutOfRange:
		return true
	}
	return false
}

// IsUnavailable reports whether the failure looks transient and a retry
// could succeed.
func (e *Error) IsUnavailable() bool {
	if e == nil {
		return false
	}
	switch e.code {
	case codes.Unavailable, codes.ResourceExhausted, codes.Internal, codes.DeadlineExceeded:
		return true
	}
	return false
}

// WrapError annotates a Firestore error with repository semantics. Context
// cancellations pass through untouched so callers can recognise them with
// errors.Is. Wrapping an already wrapped error only fills in a missing op.
func WrapError(op string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	switch status.Code(err) {
	case codes.Canceled:
		return context.Canceled
	case codes.DeadlineExceeded:
		return context.DeadlineExceeded
	}

	var wrapped *Error
	if errors.As(err, &wrapped) {
		if op != "" && wrapped.op == "" {
			wrapped.op = op
		}
		return wrapped
	}
	return &Error{op: op, code: status.Code(err), err: err}
}
