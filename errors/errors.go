package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseEncode   Phase = "encode"   // Go to canonical string
	PhaseDecode   Phase = "decode"   // canonical string to typed view
	PhaseArith    Phase = "arith"    // operator evaluation
	PhaseSequence Phase = "sequence" // list-view mutation and indexing
	PhaseKeyed    Phase = "keyed"    // key-path addressing
	PhaseBinding  Phase = "binding"  // foreign variable sync
	PhaseProbe    Phase = "probe"    // signature introspection
	PhaseCall     Phase = "call"     // argument binding and invocation
	PhaseImport   Phase = "import"   // namespace import
	PhaseHost     Phase = "host"     // foreign runtime operations
)

// Kind categorizes the error
type Kind string

const (
	KindConversion    Kind = "conversion"
	KindMalformedList Kind = "malformed_list"
	KindNotABoolean   Kind = "not_a_boolean"
	KindDivideByZero  Kind = "divide_by_zero"
	KindIndex         Kind = "index"
	KindKey           Kind = "key"
	KindType          Kind = "type"
	KindBindingWrite  Kind = "binding_write"
	KindNotFound      Kind = "not_found"
	KindInvalidInput  Kind = "invalid_input"
	KindUnsupported   Kind = "unsupported"
)

// Error is the structured error type used throughout the bridge
type Error struct {
	Value   any
	Cause   error
	Phase   Phase
	Kind    Kind
	From    string // view or type the value came from
	To      string // view or type that was requested
	Source  string // canonical string being converted
	Op      string // operator or operation name
	Operand string // offending operand, canonical form
	Param   string // offending parameter name
	Detail  string
	Path    []string
	Depth   int // key-path depth of a miss, -1 when not applicable
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, " "))
	}

	if e.From != "" || e.To != "" {
		b.WriteString(": ")
		switch {
		case e.From != "" && e.To != "":
			b.WriteString(e.From)
			b.WriteString(" to ")
			b.WriteString(e.To)
		case e.From != "":
			b.WriteString("from ")
			b.WriteString(e.From)
		default:
			b.WriteString("to ")
			b.WriteString(e.To)
		}
		if e.Kind == KindConversion || e.Kind == KindNotABoolean {
			fmt.Fprintf(&b, " of %q", e.Source)
		}
	}

	if e.Op != "" {
		b.WriteString(" op ")
		b.WriteString(e.Op)
		if e.Operand != "" {
			fmt.Fprintf(&b, " operand %q", e.Operand)
		}
	}

	if e.Param != "" {
		fmt.Fprintf(&b, " parameter %q", e.Param)
	}

	if e.Detail != "" {
		if e.From != "" || e.To != "" || e.Op != "" || e.Param != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error.
// A target with an empty Phase matches on Kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Phase == "" {
		return e.Kind == t.Kind
	}
	return e.Phase == t.Phase && e.Kind == t.Kind
}

// Sentinels for errors.Is matching by kind.
var (
	ErrConversion    = &Error{Kind: KindConversion}
	ErrMalformedList = &Error{Kind: KindMalformedList}
	ErrNotABoolean   = &Error{Kind: KindNotABoolean}
	ErrDivideByZero  = &Error{Kind: KindDivideByZero}
	ErrIndex         = &Error{Kind: KindIndex}
	ErrKey           = &Error{Kind: KindKey}
	ErrType          = &Error{Kind: KindType}
	ErrBindingWrite  = &Error{Kind: KindBindingWrite}
	ErrNotFound      = &Error{Kind: KindNotFound}
	ErrUnsupported   = &Error{Kind: KindUnsupported}
	ErrInvalidInput  = &Error{Kind: KindInvalidInput}
)

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
			Depth: -1,
		},
	}
}

// Path sets the key path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Depth sets the key-path depth
func (b *Builder) Depth(d int) *Builder {
	b.err.Depth = d
	return b
}

// Convert sets the from/to view names and the source string
func (b *Builder) Convert(from, to, source string) *Builder {
	b.err.From = from
	b.err.To = to
	b.err.Source = source
	return b
}

// Op sets the operator and offending operand
func (b *Builder) Op(op, operand string) *Builder {
	b.err.Op = op
	b.err.Operand = operand
	return b
}

// Param sets the offending parameter name
func (b *Builder) Param(name string) *Builder {
	b.err.Param = name
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	e := b.err
	return &e
}

// Convenience constructors for common error patterns

// Conversion creates a conversion error for a string that does not parse
// in the requested shape.
func Conversion(phase Phase, from, to, source string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindConversion,
		From:   from,
		To:     to,
		Source: source,
		Depth:  -1,
	}
}

// MalformedList creates a list decoding error
func MalformedList(source, detail string, offset int) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindMalformedList,
		Source: source,
		Detail: fmt.Sprintf("%s at offset %d", detail, offset),
		Value:  offset,
		Depth:  -1,
	}
}

// NotABoolean creates an error for a token outside the boolean sets
func NotABoolean(source string) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindNotABoolean,
		From:   "string",
		To:     "bool",
		Source: source,
		Depth:  -1,
	}
}

// DivideByZero creates a division by zero error
func DivideByZero(op string) *Error {
	return &Error{
		Phase:  PhaseArith,
		Kind:   KindDivideByZero,
		Op:     op,
		Detail: "divide by zero",
		Depth:  -1,
	}
}

// IndexOutOfRange creates an out of range sequence error
func IndexOutOfRange(op string, index, length int) *Error {
	return &Error{
		Phase:  PhaseSequence,
		Kind:   KindIndex,
		Op:     op,
		Detail: fmt.Sprintf("index %d out of range (length %d)", index, length),
		Value:  index,
		Depth:  -1,
	}
}

// KeyMissing creates a key-path miss error. depth is the index into path
// of the key that was not found.
func KeyMissing(path []string, depth int) *Error {
	return &Error{
		Phase:  PhaseKeyed,
		Kind:   KindKey,
		Path:   path,
		Depth:  depth,
		Detail: fmt.Sprintf("key %q not found at depth %d", path[depth], depth),
	}
}

// TypeViolation creates a type error for an operator operand
func TypeViolation(phase Phase, op, operand, detail string) *Error {
	return &Error{
		Phase:   phase,
		Kind:    KindType,
		Op:      op,
		Operand: operand,
		Detail:  detail,
		Depth:   -1,
	}
}

// BadArgument creates a type error for a call argument problem
func BadArgument(callable, param, detail string) *Error {
	return &Error{
		Phase:  PhaseCall,
		Kind:   KindType,
		Op:     callable,
		Param:  param,
		Detail: detail,
		Depth:  -1,
	}
}

// BindingWrite creates an error for a rejected write-through
func BindingWrite(location string, element bool, cause error) *Error {
	what := "variable"
	if element {
		what = "array element"
	}
	return &Error{
		Phase:  PhaseBinding,
		Kind:   KindBindingWrite,
		Detail: fmt.Sprintf("write to %s %q rejected", what, location),
		Value:  location,
		Cause:  cause,
		Depth:  -1,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
		Value:  name,
		Depth:  -1,
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
		Depth:  -1,
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
		Depth:  -1,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
		Depth:  -1,
	}
}
