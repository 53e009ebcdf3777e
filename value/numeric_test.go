package value

import (
	"errors"
	"math"
	"testing"

	bridgeerrors "github.com/wippyai/valuebridge/errors"
)

func TestArith(t *testing.T) {
	tests := []struct {
		name        string
		op          Op
		left, right any
		want        string
	}{
		{"int add", OpAdd, FromInt(5), 3, "8"},
		{"string operands", OpAdd, "5", "3", "8"},
		{"promote to float", OpAdd, FromInt(5), 0.5, "5.5"},
		{"float string", OpMul, FromString("2.5"), FromString("2"), "5.0"},
		{"reverse operand", OpSub, 10, FromInt(3), "7"},
		{"int div is exact", OpDiv, 7, 2, "3.5"},
		{"int div negative", OpDiv, -7, 2, "-3.5"},
		{"int div whole", OpDiv, 66, 6, "11.0"},
		{"int div reversed", OpDiv, 726, FromInt(66), "11.0"},
		{"float div", OpDiv, 7.0, 2, "3.5"},
		{"floordiv", OpFloorDiv, FromInt(-7), 2, "-4"},
		{"floordiv float", OpFloorDiv, -7.5, 2, "-4.0"},
		{"mod sign of divisor", OpMod, -7, 3, "2"},
		{"mod negative divisor", OpMod, 7, -3, "-2"},
		{"mod float", OpMod, -7.5, 2, "0.5"},
		{"mod float negative divisor", OpMod, 7.5, -2, "-0.5"},
		{"lsh", OpLsh, FromInt(1), 4, "16"},
		{"rsh", OpRsh, -16, 2, "-4"},
		{"lsh zero large", OpLsh, 0, 70, "0"},
		{"rsh large negative", OpRsh, -5, 70, "-1"},
		{"rsh large positive", OpRsh, 5, 64, "0"},
		{"inf operand", OpAdd, "Inf", 1, "Inf"},
		{"and", OpAnd, 12, 10, "8"},
		{"or", OpOr, 12, 10, "14"},
		{"xor", OpXor, 12, 10, "6"},
		{"hex operand", OpAdd, "0x10", 1, "17"},
		{"bool operand", OpAdd, true, 1, "2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Arith(tt.op, tt.left, tt.right)
			if err != nil {
				t.Fatalf("Arith error: %v", err)
			}
			if got.String() != tt.want {
				t.Errorf("%v %s %v = %s, want %s", tt.left, tt.op, tt.right, got, tt.want)
			}
		})
	}
}

func TestArith_DivideByZero(t *testing.T) {
	five := FromInt(5)
	calls := map[string]func() (*Value, error){
		"div value":      func() (*Value, error) { return five.Div(FromInt(0)) },
		"floordiv int":   func() (*Value, error) { return five.FloorDiv(0) },
		"mod int":        func() (*Value, error) { return five.Mod(0) },
		"div float zero": func() (*Value, error) { return five.Div(0.0) },
		"native left":    func() (*Value, error) { return Arith(OpDiv, 5, FromString("0")) },
		"mod float zero": func() (*Value, error) { return Arith(OpMod, 5.5, "0.0") },
	}
	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			_, err := call()
			if !errors.Is(err, bridgeerrors.ErrDivideByZero) {
				t.Errorf("error = %v, want divide by zero", err)
			}
		})
	}
}

func TestArith_TypeErrors(t *testing.T) {
	tests := []struct {
		name        string
		op          Op
		left, right any
		operand     string
	}{
		{"shift by float", OpLsh, 1, 1.5, "1.5"},
		{"and on float", OpAnd, FromString("2.0"), 1, "2.0"},
		{"xor non number", OpXor, 1, "abc", "abc"},
		{"add non number", OpAdd, FromString("abc"), 1, "abc"},
		{"negative shift", OpRsh, 8, -1, "-1"},
		{"nan operand", OpAdd, FromString("nan"), 1, "nan"},
		{"nan right operand", OpMul, 2, "NaN", "NaN"},
		{"nan result", OpSub, "Inf", "Inf", "Inf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Arith(tt.op, tt.left, tt.right)
			var be *bridgeerrors.Error
			if !errors.As(err, &be) || be.Kind != bridgeerrors.KindType {
				t.Fatalf("error = %v, want type error", err)
			}
			if be.Op != string(tt.op) || be.Operand != tt.operand {
				t.Errorf("Op/Operand = %q/%q, want %q/%q", be.Op, be.Operand, tt.op, tt.operand)
			}
		})
	}
}

func TestUpdate(t *testing.T) {
	v := FromInt(10)
	steps := []struct {
		op   Op
		x    any
		want string
	}{
		{OpSub, 4, "6"},
		{OpMul, 2.5, "15.0"},
		{OpFloorDiv, 4, "3.0"},
		{OpAdd, "1", "4.0"},
	}
	for _, s := range steps {
		if err := v.Update(s.op, s.x); err != nil {
			t.Fatalf("Update(%s, %v) error: %v", s.op, s.x, err)
		}
		if v.String() != s.want {
			t.Errorf("after %s %v: %s, want %s", s.op, s.x, v, s.want)
		}
	}

	if err := v.Update(OpMod, 0); !errors.Is(err, bridgeerrors.ErrDivideByZero) {
		t.Errorf("Update mod 0 = %v", err)
	}
	if v.String() != "4.0" {
		t.Errorf("failed Update changed value to %s", v)
	}
}

func TestUpdate_DivBound(t *testing.T) {
	h := newFakeHost()
	h.vars["t"] = "66"
	v, err := Var(h, "t")
	if err != nil {
		t.Fatal(err)
	}
	if err := v.Update(OpDiv, 2); err != nil {
		t.Fatal(err)
	}
	if h.vars["t"] != "33.0" {
		t.Errorf("foreign t = %q, want 33.0", h.vars["t"])
	}
	if f, err := v.AsFloat(); err != nil || f != 33 {
		t.Errorf("AsFloat = %v, %v", f, err)
	}
}

func TestArith_Overflow(t *testing.T) {
	tests := []struct {
		name        string
		op          Op
		left, right any
	}{
		{"add", OpAdd, int64(math.MaxInt64), 1},
		{"sub", OpSub, int64(math.MinInt64), 1},
		{"mul string", OpMul, "9223372036854775807", 2},
		{"mul min by -1", OpMul, int64(math.MinInt64), -1},
		{"floordiv min by -1", OpFloorDiv, int64(math.MinInt64), -1},
		{"lsh into sign", OpLsh, 1, 63},
		{"lsh large", OpLsh, 1, 70},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Arith(tt.op, tt.left, tt.right)
			if !errors.Is(err, bridgeerrors.ErrType) {
				t.Errorf("%v %s %v = %v, %v; want type error", tt.left, tt.op, tt.right, got, err)
			}
		})
	}

	// in range edges still compute
	if got, err := Arith(OpAdd, int64(math.MaxInt64-1), 1); err != nil || got.String() != "9223372036854775807" {
		t.Errorf("MaxInt64-1 + 1 = %v, %v", got, err)
	}
	if got, err := Arith(OpMul, -1, int64(math.MaxInt64)); err != nil || got.String() != "-9223372036854775807" {
		t.Errorf("-1 * MaxInt64 = %v, %v", got, err)
	}
	if got, err := Arith(OpLsh, -1, 63); err != nil || got.String() != "-9223372036854775808" {
		t.Errorf("-1 << 63 = %v, %v", got, err)
	}
}

func TestArith_OutOfRangeInteger(t *testing.T) {
	_, err := Arith(OpAdd, "99999999999999999999", 1)
	if !errors.Is(err, bridgeerrors.ErrConversion) {
		t.Errorf("huge integer operand err = %v, want conversion error", err)
	}
	if _, err := FromString("99999999999999999999").Kind(); !errors.Is(err, bridgeerrors.ErrConversion) {
		t.Errorf("Kind of huge integer = %v", err)
	}
	// ordering still works, as floats
	if c, err := Compare("99999999999999999999", 1); err != nil || c != 1 {
		t.Errorf("Compare = %d, %v", c, err)
	}
}

func TestIncr_Overflow(t *testing.T) {
	v := FromInt(math.MaxInt64)
	if _, err := v.Incr(1); !errors.Is(err, bridgeerrors.ErrType) {
		t.Errorf("Incr past MaxInt64 = %v, want type error", err)
	}
	if v.String() != "9223372036854775807" {
		t.Errorf("failed Incr changed value to %s", v)
	}
	if n, err := v.Incr(-1); err != nil || n != math.MaxInt64-1 {
		t.Errorf("Incr(-1) = %d, %v", n, err)
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b any
		want int
	}{
		{FromInt(5), 5, 0},
		{FromString("5"), 5.0, 0},
		{FromString("5.0"), FromString("5"), 0},
		{FromInt(2), 10, -1},
		{FromString("10"), "9", 1},
		{FromString("abc"), "abd", -1},
		{FromString("10"), "abc", -1},
		{FromString("0x10"), 16, 0},
	}
	for _, tt := range tests {
		got, err := Compare(tt.a, tt.b)
		if err != nil {
			t.Fatalf("Compare(%v, %v) error: %v", tt.a, tt.b, err)
		}
		if got != tt.want {
			t.Errorf("Compare(%v, %v) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}

	v := FromInt(3)
	if !v.Less(4) || v.Greater(4) || !v.Greater(2.5) || !v.Equal("3") {
		t.Error("Less/Greater/Equal disagree with Compare")
	}
}

func TestKind(t *testing.T) {
	if k, err := FromString("12").Kind(); err != nil || k != NumInt {
		t.Errorf("Kind(12) = %v, %v", k, err)
	}
	if k, err := FromString("1e3").Kind(); err != nil || k != NumFloat {
		t.Errorf("Kind(1e3) = %v, %v", k, err)
	}
	if _, err := FromString("x").Kind(); !errors.Is(err, bridgeerrors.ErrConversion) {
		t.Errorf("Kind(x) = %v", err)
	}
}

func TestIncr_NotInteger(t *testing.T) {
	v := FromString("1.5")
	if _, err := v.Incr(1); !errors.Is(err, bridgeerrors.ErrConversion) {
		t.Errorf("Incr on float = %v", err)
	}
}
