package canonical

import (
	"fmt"
	"slices"
)

// Kind enumerates the closed set of normalization failure variants.
// The "no error" state is represented by a nil *Error.
type Kind int

const (
	// KindParse marks a structural failure reading a raw batch. It is
	// fatal to the batch: validation and conversion never run after it.
	KindParse Kind = iota + 1
	// KindValidate marks one row that failed field-level checks.
	KindValidate
	// KindAggregate carries zero or more per-row validation failures.
	KindAggregate
	// KindUnknown marks caller-level misuse, e.g. an unrecognized
	// provider identifier.
	KindUnknown
)

// String returns the lowercase variant name.
func (k Kind) String() string {
	switch k {
	case KindParse:
		return "parse"
	case KindValidate:
		return "validate"
	case KindAggregate:
		return "aggregate"
	case KindUnknown:
		return "unknown"
	default:
		return "none"
	}
}

// Error is the normalization error variant. Row is meaningful for
// KindValidate only; Errs for KindAggregate only.
type Error struct {
	Kind    Kind
	Message string
	Row     int
	Errs    []*Error
}

// NewParseError reports a structural failure reading a raw batch.
func NewParseError(message string) *Error {
	return &Error{Kind: KindParse, Message: message}
}

// NewValidateError reports one row failing field-level checks.
func NewValidateError(message string, row int) *Error {
	return &Error{Kind: KindValidate, Message: message, Row: row}
}

// NewAggregateError wraps per-row validation failures. An aggregate
// with no entries is a valid value and means "no errors".
func NewAggregateError(errs ...*Error) *Error {
	return &Error{Kind: KindAggregate, Errs: errs}
}

// NewUnknownError reports caller-level misuse.
func NewUnknownError(message string) *Error {
	return &Error{Kind: KindUnknown, Message: message}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "none"
	}
	switch e.Kind {
	case KindValidate:
		return fmt.Sprintf("validate row %d: %s", e.Row, e.Message)
	case KindAggregate:
		return fmt.Sprintf("aggregate: %d row(s) failed validation", len(e.Errs))
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
}

// IsError reports whether e represents an actual failure. Both nil and
// an empty aggregate are the canonical "no error" state; callers must
// never distinguish the two.
func (e *Error) IsError() bool {
	if e == nil {
		return false
	}
	if e.Kind == KindAggregate && len(e.Errs) == 0 {
		return false
	}
	return true
}

// Equal reports structural equality between two errors. Two nils are
// equal; a nil and an empty aggregate are not (use IsError for the
// "no error" check).
func (e *Error) Equal(other *Error) bool {
	if e == nil || other == nil {
		return e == other
	}
	if e.Kind != other.Kind || e.Message != other.Message || e.Row != other.Row {
		return false
	}
	return slices.EqualFunc(e.Errs, other.Errs, func(a, b *Error) bool {
		return a.Equal(b)
	})
}
