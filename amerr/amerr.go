// Package amerr defines the error kinds returned while loading an acoustic
// model set. Every fatal load condition surfaces as an *Error so callers can
// branch on the kind instead of matching message text.
package amerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies a fatal load error.
type Kind int

const (
	// IoFailure covers open, read, write and allocation failures.
	IoFailure Kind = iota + 1
	// FormatViolation covers bad magic numbers, wrong counts and malformed records.
	FormatViolation
	// RangeViolation covers indices outside their computed bounds.
	RangeViolation
	// InconsistentModel covers data that parses but cannot be normalized or used.
	InconsistentModel
)

func (k Kind) String() string {
	switch k {
	case IoFailure:
		return "io failure"
	case FormatViolation:
		return "format violation"
	case RangeViolation:
		return "range violation"
	case InconsistentModel:
		return "inconsistent model"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is a fatal load error.
type Error struct {
	Kind   Kind
	File   string // offending file, if any
	Detail string
	Value  int64 // RangeViolation only
	Bound  int64 // RangeViolation only
	Err    error // underlying cause, if any
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.File != "" {
		msg += ": " + e.File
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Kind == RangeViolation {
		msg += fmt.Sprintf(" (value %d, bound %d)", e.Value, e.Bound)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// IO reports a failure to access file.
func IO(file string, err error) error {
	return errors.WithStack(&Error{Kind: IoFailure, File: file, Err: err})
}

// Format reports a structural violation in file.
func Format(file, format string, args ...interface{}) error {
	return errors.WithStack(&Error{Kind: FormatViolation, File: file, Detail: fmt.Sprintf(format, args...)})
}

// Range reports that value for what lies outside [0, bound).
func Range(file, what string, value, bound int64) error {
	return errors.WithStack(&Error{Kind: RangeViolation, File: file, Detail: what, Value: value, Bound: bound})
}

// Inconsistent reports data that cannot be turned into a usable model.
func Inconsistent(file, format string, args ...interface{}) error {
	return errors.WithStack(&Error{Kind: InconsistentModel, File: file, Detail: fmt.Sprintf(format, args...)})
}

// Is reports whether err carries an *Error of kind k anywhere in its chain.
func Is(err error, k Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == k
	}
	return false
}

// KindOf returns the kind of the first *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
