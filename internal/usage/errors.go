package usage

import (
	"errors"
	"fmt"
)

// Error is a contract violation detected while marking.
//
// Fatal errors are raised with panic at the point of detection so a
// masked inconsistency can never reach the sweep. API boundaries convert
// them back into returned errors with Recover.
type Error struct {
	// Code identifies the violation.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Node describes the node being processed, if any.
	Node string
}

// ErrorCode categorizes fatal marking errors.
type ErrorCode string

const (
	// ErrCodeUnresolvedClassVariant indicates a class reached the generic
	// visitor path without being resolved to a program or library class.
	ErrCodeUnresolvedClassVariant ErrorCode = "UNRESOLVED_CLASS_VARIANT"

	// ErrCodeMarkDowngrade indicates an attempt to replace a certain mark
	// with an uncertain one.
	ErrCodeMarkDowngrade ErrorCode = "MARK_DOWNGRADE"

	// ErrCodeMixedMarks indicates a node carries a mark written by the
	// other mark representation.
	ErrCodeMixedMarks ErrorCode = "MIXED_MARKS"

	// ErrCodeCauseCycle indicates an explanation chain longer than the
	// graph, which can only happen if the chain loops.
	ErrCodeCauseCycle ErrorCode = "CAUSE_CYCLE"

	// ErrCodeConstantIndex indicates a constant-pool index past the end of
	// the pool.
	ErrCodeConstantIndex ErrorCode = "CONSTANT_INDEX"
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Node != "" {
		return fmt.Sprintf("%s: %s (node=%s)", e.Code, e.Message, e.Node)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsFatal returns true if err is or wraps a marking contract violation.
func IsFatal(err error) bool {
	var e *Error
	return errors.As(err, &e)
}

// IsCycleError returns true if err is an explanation cycle error.
func IsCycleError(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == ErrCodeCauseCycle
	}
	return false
}

// NewUnresolvedClassVariantError creates the error raised when generic
// class dispatch cannot tell program and library classes apart.
func NewUnresolvedClassVariantError(node string) *Error {
	return &Error{
		Code:    ErrCodeUnresolvedClassVariant,
		Message: "class variant was not resolved before dispatch",
		Node:    node,
	}
}

// NewDowngradeError creates the error raised when a certain mark would be
// replaced by an uncertain one.
func NewDowngradeError(node string) *Error {
	return &Error{
		Code:    ErrCodeMarkDowngrade,
		Message: "cannot mark a used node as possibly used",
		Node:    node,
	}
}

// NewMixedMarksError creates the error raised when a marker finds a mark
// value it did not write.
func NewMixedMarksError(node string, found any) *Error {
	return &Error{
		Code:    ErrCodeMixedMarks,
		Message: fmt.Sprintf("unexpected mark value of type %T", found),
		Node:    node,
	}
}

// NewCycleError creates the error raised when an explanation chain
// exceeds maxHops.
func NewCycleError(node string, maxHops int) *Error {
	return &Error{
		Code:    ErrCodeCauseCycle,
		Message: fmt.Sprintf("explanation chain exceeds %d hops", maxHops),
		Node:    node,
	}
}

// NewConstantIndexError creates the error raised for a constant-pool index
// outside the pool.
func NewConstantIndexError(node string, index, size int) *Error {
	return &Error{
		Code:    ErrCodeConstantIndex,
		Message: fmt.Sprintf("constant index %d out of range (pool size %d)", index, size),
		Node:    node,
	}
}

// Recover converts a panic carrying an *Error into a returned error. It
// must be deferred directly:
//
//	func (s *Shrinker) Mark(...) (stats *Stats, err error) {
//		defer usage.Recover(&err)
//		...
//	}
//
// Any other panic value is re-raised.
func Recover(errp *error) {
	r := recover()
	if r == nil {
		return
	}
	if e, ok := r.(*Error); ok {
		*errp = e
		return
	}
	panic(r)
}
