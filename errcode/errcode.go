// Package errcode attaches numeric error codes to planning failures so that
// callers can tell an invariant violation from a rejected query.
package errcode

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

type Code int

const (
	Ok Code = 0

	Internal                Code = 1001
	BadArguments            Code = 1006
	IllegalDataType         Code = 1007
	UnknownFunction         Code = 1008
	UnknownTable            Code = 1025
	NumberArgumentsNotMatch Code = 1028
	SemanticError           Code = 1065
)

var codeNames = map[Code]string{
	Ok:                      "Ok",
	Internal:                "Internal",
	BadArguments:            "BadArguments",
	IllegalDataType:         "IllegalDataType",
	UnknownFunction:         "UnknownFunction",
	UnknownTable:            "UnknownTable",
	NumberArgumentsNotMatch: "NumberArgumentsNotMatch",
	SemanticError:           "SemanticError",
}

func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Code(%d)", int(c))
}

type withCode struct {
	cause error
	code  Code
}

func (w *withCode) Error() string { return w.cause.Error() }
func (w *withCode) Cause() error  { return w.cause }
func (w *withCode) Unwrap() error { return w.cause }

// Format implements fmt.Formatter so that %+v keeps the stack of the cause.
func (w *withCode) Format(s fmt.State, verb rune) { errors.FormatError(w, s, verb) }

func (w *withCode) FormatError(p errors.Printer) error {
	if p.Detail() {
		p.Printf("code: %d (%s)", int(w.code), w.code)
	}
	return w.cause
}

// Wrap decorates err with code. A nil err stays nil.
func Wrap(err error, code Code) error {
	if err == nil {
		return nil
	}
	return &withCode{cause: err, code: code}
}

// Newf creates an error carrying code.
func Newf(code Code, format string, args ...interface{}) error {
	return &withCode{cause: errors.NewWithDepthf(1, format, args...), code: code}
}

// AssertionFailedf reports a broken internal invariant.
func AssertionFailedf(format string, args ...interface{}) error {
	return &withCode{cause: errors.AssertionFailedWithDepthf(1, format, args...), code: Internal}
}

// Of returns the outermost code attached to err, Internal for an uncoded
// error and Ok for nil.
func Of(err error) Code {
	if err == nil {
		return Ok
	}
	var w *withCode
	if errors.As(err, &w) {
		return w.code
	}
	return Internal
}
