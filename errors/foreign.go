package errors

import (
	"strings"
)

// ForeignError is a failure reported by the foreign runtime itself.
// Its fields are the foreign payload, carried verbatim.
type ForeignError struct {
	Result string   // error result text
	Code   []string // structured error code, e.g. {"ARITH", "DIVZERO", "divide by zero"}
	Info   string   // foreign traceback text
	Stack  string   // foreign call stack
	Line   int
	Level  int
}

// Error implements the error interface
func (e *ForeignError) Error() string {
	var b strings.Builder
	b.WriteString("[host] foreign: ")
	b.WriteString(e.Result)
	if len(e.Code) > 0 {
		b.WriteString(" (code ")
		b.WriteString(strings.Join(e.Code, " "))
		b.WriteByte(')')
	}
	return b.String()
}

// Is reports whether target is a ForeignError
func (e *ForeignError) Is(target error) bool {
	_, ok := target.(*ForeignError)
	return ok
}

// NewForeignError creates a foreign error with a result and an optional code.
func NewForeignError(result string, code ...string) *ForeignError {
	if len(code) == 0 {
		code = []string{"NONE"}
	}
	return &ForeignError{
		Result: result,
		Code:   code,
		Level:  0,
	}
}
