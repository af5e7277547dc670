// Package perr defines the error taxonomy raised while parsing a pattern
// document. Every handler failure is reported as an *Error with a Kind so the
// parse boundary can classify it without string matching.
package perr

import (
	"errors"
	"fmt"

	"github.com/chazu/selvage/pkg/ident"
)

// Kind classifies a parse failure.
type Kind int

const (
	KindGeneric Kind = iota
	KindBadID
	KindObject
	KindConversion
	KindEmptyParameter
	KindExpression
	KindAllocation
	// KindUndo is not a failure. It asks the caller to run undo once the
	// current cycle has finished.
	KindUndo
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindGeneric:
		return "generic"
	case KindBadID:
		return "bad_id"
	case KindObject:
		return "object"
	case KindConversion:
		return "conversion"
	case KindEmptyParameter:
		return "empty_parameter"
	case KindExpression:
		return "expression"
	case KindAllocation:
		return "allocation"
	case KindUndo:
		return "undo"
	default:
		return "unknown"
	}
}

// ExitNoInput is the process exit status used when a document cannot be
// parsed in non-interactive mode.
const ExitNoInput = 66

// Error is a classified parse failure.
type Error struct {
	Kind    Kind
	Message string
	// Details holds diagnostic text not meant for the user-facing summary.
	Details string
	ID      ident.ID
	Tag     string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.ID != ident.NullID {
		msg = fmt.Sprintf("%s (id %d)", msg, e.ID)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Summary returns the user-facing line for the error.
func (e *Error) Summary() string {
	switch e.Kind {
	case KindBadID:
		return "Error bad id. Program will be terminated."
	case KindObject:
		return "Error parsing file. Program will be terminated."
	case KindConversion:
		return "Error can't convert value. Program will be terminated."
	case KindEmptyParameter:
		return "Error empty parameter. Program will be terminated."
	case KindExpression:
		return "Error in formula. Program will be terminated."
	case KindAllocation:
		return "Error: not enough resources to finish the operation."
	default:
		return "Error parsing file. Program will be terminated."
	}
}

// New returns an error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// BadID reports an id that does not resolve.
func BadID(id ident.ID) *Error {
	return &Error{Kind: KindBadID, Message: "can't find object", ID: id}
}

// EmptyParameter reports a required attribute that is missing or empty.
func EmptyParameter(tag, attr string) *Error {
	return &Error{
		Kind:    KindEmptyParameter,
		Message: fmt.Sprintf("got empty parameter %q", attr),
		Tag:     tag,
	}
}

// Conversion reports an attribute value that could not be parsed.
func Conversion(tag, attr, value string, err error) *Error {
	return &Error{
		Kind:    KindConversion,
		Message: fmt.Sprintf("can't convert %q value %q", attr, value),
		Tag:     tag,
		Err:     err,
	}
}

// Object reports a malformed node.
func Object(tag string, format string, args ...any) *Error {
	return &Error{Kind: KindObject, Message: fmt.Sprintf(format, args...), Tag: tag}
}

// Expression reports a formula that failed to evaluate.
func Expression(formula string, err error) *Error {
	return &Error{
		Kind:    KindExpression,
		Message: "formula evaluation failed",
		Details: formula,
		Err:     err,
	}
}

// Undo requests an undo after the current parse cycle completes.
func Undo() *Error {
	return &Error{Kind: KindUndo, Message: "undo requested while redo unfinished"}
}

// KindOf returns the kind of the first *Error in err's chain, or KindGeneric
// when err carries no classification.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindGeneric
}

// IsKind reports whether err's chain contains an *Error of kind k.
func IsKind(err error, k Kind) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Kind == k
}

// ExitError asks the process entry point to terminate with Code.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d: %v", e.Code, e.Err)
}

func (e *ExitError) Unwrap() error { return e.Err }
