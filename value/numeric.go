package value

import (
	stderrors "errors"
	"math"
	"strconv"

	"github.com/wippyai/valuebridge/codec"
	"github.com/wippyai/valuebridge/errors"
)

// Op is a binary operator.
type Op string

const (
	OpAdd      Op = "+"
	OpSub      Op = "-"
	OpMul      Op = "*"
	OpDiv      Op = "/"
	OpFloorDiv Op = "//"
	OpMod      Op = "%"
	OpLsh      Op = "<<"
	OpRsh      Op = ">>"
	OpAnd      Op = "&"
	OpOr       Op = "|"
	OpXor      Op = "^"
)

func (op Op) integral() bool {
	switch op {
	case OpLsh, OpRsh, OpAnd, OpOr, OpXor:
		return true
	}
	return false
}

// NumKind is the numeric kind an operand resolves to.
type NumKind uint8

const (
	NumInt NumKind = iota + 1
	NumFloat
)

type number struct {
	kind NumKind
	i    int64
	f    float64
}

func (n number) float() float64 {
	if n.kind == NumFloat {
		return n.f
	}
	return float64(n.i)
}

func (n number) isZero() bool {
	if n.kind == NumFloat {
		return n.f == 0
	}
	return n.i == 0
}

// resolveNumber decides the numeric kind of an operand. Native Go numbers
// keep their kind; strings and values are integer when integer-shaped,
// otherwise float. ok is false when the operand is not a number (NaN is
// not a number); err is reserved for failures to read or encode it and
// for integer-shaped strings outside the int64 range.
func resolveNumber(x any) (n number, s string, ok bool, err error) {
	switch t := x.(type) {
	case int:
		return number{kind: NumInt, i: int64(t)}, codec.FormatInt(int64(t)), true, nil
	case int64:
		return number{kind: NumInt, i: t}, codec.FormatInt(t), true, nil
	case int32:
		return number{kind: NumInt, i: int64(t)}, codec.FormatInt(int64(t)), true, nil
	case float64:
		return number{kind: NumFloat, f: t}, codec.FormatFloat(t), !math.IsNaN(t), nil
	case float32:
		return number{kind: NumFloat, f: float64(t)}, codec.FormatFloat(float64(t)), !math.IsNaN(float64(t)), nil
	case bool:
		if t {
			return number{kind: NumInt, i: 1}, "1", true, nil
		}
		return number{kind: NumInt, i: 0}, "0", true, nil
	}

	s, err = stringOf(x)
	if err != nil {
		return number{}, "", false, err
	}
	i, perr := codec.ParseInt(s)
	if perr == nil {
		return number{kind: NumInt, i: i}, s, true, nil
	}
	if stderrors.Is(perr, strconv.ErrRange) {
		return number{}, s, false, perr
	}
	if f, perr := codec.ParseFloat(s); perr == nil && !math.IsNaN(f) {
		return number{kind: NumFloat, f: f}, s, true, nil
	}
	return number{}, s, false, nil
}

func stringOf(x any) (string, error) {
	if v, ok := x.(*Value); ok {
		return v.AsString()
	}
	return codec.Encode(x)
}

// Kind returns the numeric kind of the value.
func (v *Value) Kind() (NumKind, error) {
	n, s, ok, err := resolveNumber(v)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, errors.Conversion(errors.PhaseArith, "string", "number", s)
	}
	return n.kind, nil
}

// Arith applies op to two operands. Either operand may be a *Value, a Go
// number, or a string. OpDiv always divides exactly and yields a float;
// for the other operators the result is float when either operand is
// float, otherwise integer. Integer results that do not fit in int64 are
// KindType errors, never wrapped.
func Arith(op Op, left, right any) (*Value, error) {
	a, as, ok, err := resolveNumber(left)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.TypeViolation(errors.PhaseArith, string(op), as, "operand is not a number")
	}
	b, bs, ok, err := resolveNumber(right)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.TypeViolation(errors.PhaseArith, string(op), bs, "operand is not a number")
	}

	if op.integral() {
		if a.kind != NumInt {
			return nil, errors.TypeViolation(errors.PhaseArith, string(op), as, "operand is not an integer")
		}
		if b.kind != NumInt {
			return nil, errors.TypeViolation(errors.PhaseArith, string(op), bs, "operand is not an integer")
		}
		i, err := integral(op, a.i, b.i, bs)
		if err != nil {
			return nil, err
		}
		return FromInt(i), nil
	}

	switch op {
	case OpDiv, OpFloorDiv, OpMod:
		if b.isZero() {
			return nil, errors.DivideByZero(string(op))
		}
	}

	if a.kind == NumFloat || b.kind == NumFloat || op == OpDiv {
		f, err := floatOp(op, a.float(), b.float())
		if err != nil {
			return nil, err
		}
		if math.IsNaN(f) {
			return nil, errors.TypeViolation(errors.PhaseArith, string(op), bs, "result is not a number")
		}
		return FromFloat(f), nil
	}
	i, err := intOp(op, a.i, b.i, bs)
	if err != nil {
		return nil, err
	}
	return FromInt(i), nil
}

func overflow(op Op, operand string) error {
	return errors.TypeViolation(errors.PhaseArith, string(op), operand, "integer overflow")
}

func intOp(op Op, a, b int64, operand string) (int64, error) {
	switch op {
	case OpAdd:
		r := a + b
		if (b > 0 && r < a) || (b < 0 && r > a) {
			return 0, overflow(op, operand)
		}
		return r, nil
	case OpSub:
		r := a - b
		if (b > 0 && r > a) || (b < 0 && r < a) {
			return 0, overflow(op, operand)
		}
		return r, nil
	case OpMul:
		if a == 0 || b == 0 {
			return 0, nil
		}
		r := a * b
		if r/b != a || (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
			return 0, overflow(op, operand)
		}
		return r, nil
	case OpFloorDiv:
		if a == math.MinInt64 && b == -1 {
			return 0, overflow(op, operand)
		}
		return floorDiv(a, b), nil
	case OpMod:
		return floorMod(a, b), nil
	}
	return 0, errors.Unsupported(errors.PhaseArith, "operator "+string(op))
}

func floatOp(op Op, a, b float64) (float64, error) {
	switch op {
	case OpAdd:
		return a + b, nil
	case OpSub:
		return a - b, nil
	case OpMul:
		return a * b, nil
	case OpDiv:
		return a / b, nil
	case OpFloorDiv:
		return math.Floor(a / b), nil
	case OpMod:
		r := math.Mod(a, b)
		if r != 0 && (r < 0) != (b < 0) {
			r += b
		}
		return r, nil
	}
	return 0, errors.Unsupported(errors.PhaseArith, "operator "+string(op))
}

func integral(op Op, a, b int64, operand string) (int64, error) {
	switch op {
	case OpAnd:
		return a & b, nil
	case OpOr:
		return a | b, nil
	case OpXor:
		return a ^ b, nil
	}
	if b < 0 {
		return 0, errors.TypeViolation(errors.PhaseArith, string(op), operand, "negative shift count")
	}
	if op == OpLsh {
		if a == 0 {
			return 0, nil
		}
		if b >= 64 || (a<<uint(b))>>uint(b) != a {
			return 0, overflow(op, operand)
		}
		return a << uint(b), nil
	}
	// Right shifts are arithmetic: a count of 64 or more leaves only the
	// sign, 0 or -1.
	if b >= 64 {
		b = 63
	}
	return a >> uint(b), nil
}

// floorDiv rounds the quotient toward negative infinity.
func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// floorMod returns a remainder with the sign of the divisor.
func floorMod(a, b int64) int64 {
	r := a % b
	if r != 0 && (r < 0) != (b < 0) {
		r += b
	}
	return r
}

func (v *Value) Add(x any) (*Value, error)      { return Arith(OpAdd, v, x) }
func (v *Value) Sub(x any) (*Value, error)      { return Arith(OpSub, v, x) }
func (v *Value) Mul(x any) (*Value, error)      { return Arith(OpMul, v, x) }
func (v *Value) Div(x any) (*Value, error)      { return Arith(OpDiv, v, x) }
func (v *Value) FloorDiv(x any) (*Value, error) { return Arith(OpFloorDiv, v, x) }
func (v *Value) Mod(x any) (*Value, error)      { return Arith(OpMod, v, x) }
func (v *Value) Lsh(x any) (*Value, error)      { return Arith(OpLsh, v, x) }
func (v *Value) Rsh(x any) (*Value, error)      { return Arith(OpRsh, v, x) }
func (v *Value) And(x any) (*Value, error)      { return Arith(OpAnd, v, x) }
func (v *Value) Or(x any) (*Value, error)       { return Arith(OpOr, v, x) }
func (v *Value) Xor(x any) (*Value, error)      { return Arith(OpXor, v, x) }

// Update applies op with x as the right operand and stores the result in
// place, writing through when bound.
func (v *Value) Update(op Op, x any) error {
	r, err := Arith(op, v, x)
	if err != nil {
		return err
	}
	return v.store(r.s)
}

// Compare orders v against x. Both sides compare numerically when both
// resolve as numbers, otherwise as strings.
func (v *Value) Compare(x any) (int, error) {
	return Compare(v, x)
}

// Compare orders two operands, see Value.Compare.
func Compare(a, b any) (int, error) {
	na, as, okA, err := orderable(a)
	if err != nil {
		return 0, err
	}
	nb, bs, okB, err := orderable(b)
	if err != nil {
		return 0, err
	}
	if okA && okB {
		if na.kind == NumInt && nb.kind == NumInt {
			return cmp3(na.i < nb.i, na.i > nb.i), nil
		}
		fa, fb := na.float(), nb.float()
		return cmp3(fa < fb, fa > fb), nil
	}
	return cmp3(as < bs, as > bs), nil
}

// orderable resolves an operand for ordering. Integers beyond int64
// compare as floats.
func orderable(x any) (number, string, bool, error) {
	n, s, ok, err := resolveNumber(x)
	if err != nil && stderrors.Is(err, strconv.ErrRange) {
		f, ferr := codec.ParseFloat(s)
		if ferr != nil {
			return number{}, s, false, nil
		}
		return number{kind: NumFloat, f: f}, s, true, nil
	}
	return n, s, ok, err
}

func cmp3(less, greater bool) int {
	switch {
	case less:
		return -1
	case greater:
		return 1
	}
	return 0
}

// Equal reports whether v and x compare equal.
func (v *Value) Equal(x any) bool {
	c, err := Compare(v, x)
	return err == nil && c == 0
}

// Less reports whether v orders before x.
func (v *Value) Less(x any) bool {
	c, err := Compare(v, x)
	return err == nil && c < 0
}

// Greater reports whether v orders after x.
func (v *Value) Greater(x any) bool {
	c, err := Compare(v, x)
	return err == nil && c > 0
}
