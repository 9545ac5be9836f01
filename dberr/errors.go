// Package dberr defines the stable, tagged error codes surfaced by the
// expression and query-planning core (spec §6.5).
package dberr

import "fmt"

// Code is a stable error identifier, independent of the message text, so
// callers (and the out-of-scope error-presentation layer) can switch on it.
type Code string

const (
	CodeUnexpectedToken       Code = "UnexpectedToken"
	CodeInvalidExpressionType Code = "InvalidExpressionType"
	CodeInvalidIndexName      Code = "InvalidIndexName"
	CodeInvalidUpdateField    Code = "InvalidUpdateField"
	CodeInvalidDataType       Code = "InvalidDataType"
	CodeInvalidNullCharString Code = "InvalidNullCharInString"
)

// Error is the tagged failure type used throughout the core. It mirrors
// the teacher's parser.ParseError{Pos, Message} shape (same field roles:
// a position and a message) generalized with a stable Code, per spec §6.5
// ("a stable code and a message").
type Error struct {
	Code     Code
	Message  string
	Position int // character offset; -1 when not applicable (e.g. shape errors)
}

func (e *Error) Error() string {
	if e.Position >= 0 {
		return fmt.Sprintf("%s at position %d: %s", e.Code, e.Position, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// New builds an Error with no position (semantic/shape errors).
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Position: -1}
}

// At builds an Error carrying a source position (parse errors, spec §4.1:
// "Position is mandatory" for syntax errors).
func At(code Code, position int, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Position: position}
}

// Is supports errors.Is by comparing codes, so callers can write
// errors.Is(err, dberr.CodeUnexpectedToken)-style checks via a sentinel
// wrapper — but since Code is not itself an error, callers should instead
// use CodeOf to extract and compare. Is exists only so *Error implements
// the optional errors.Is contract against another *Error of the same code.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == other.Code
}

// CodeOf extracts the Code from err if it is (or wraps) a *dberr.Error.
func CodeOf(err error) (Code, bool) {
	var e *Error
	if err == nil {
		return "", false
	}
	type causer interface{ Unwrap() error }
	for err != nil {
		if de, ok := err.(*Error); ok {
			e = de
			break
		}
		c, ok := err.(causer)
		if !ok {
			break
		}
		err = c.Unwrap()
	}
	if e == nil {
		return "", false
	}
	return e.Code, true
}
