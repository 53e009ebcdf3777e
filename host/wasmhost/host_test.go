package wasmhost

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"go.bytecodealliance.org/wit"

	bridgeerrors "github.com/wippyai/valuebridge/errors"
	"github.com/wippyai/valuebridge/host"
	"github.com/wippyai/valuebridge/trampoline"
	"github.com/wippyai/valuebridge/value"
	"github.com/wippyai/valuebridge/wasm"
)

const testWIT = `
package test:calc;

interface calc {
    not: func(x: bool) -> bool;
    // string has no single core value
    div: func(a: string, b: s32) -> s32;
    ghost: func() -> u32;
}
`

func testModule() []byte {
	i32, i64, f64 := wasm.ValI32, wasm.ValI64, wasm.ValF64
	get := func(i byte) []byte { return []byte{wasm.OpLocalGet, i} }
	body := func(parts ...[]byte) []byte {
		var b []byte
		for _, p := range parts {
			b = append(b, p...)
		}
		return append(b, wasm.OpEnd)
	}

	m := &wasm.Module{
		Types: []wasm.FuncType{
			{Params: []wasm.ValType{i32, i32}, Results: []wasm.ValType{i32}},
			{Params: []wasm.ValType{f64, f64}, Results: []wasm.ValType{f64}},
			{},
			{Params: []wasm.ValType{i32}, Results: []wasm.ValType{i32}},
			{Params: []wasm.ValType{i64, i64}, Results: []wasm.ValType{i64}},
			{Results: []wasm.ValType{i32}},
		},
		Funcs: []wasm.Func{
			{Type: 0, Name: "add", Locals: []string{"a", "b"}, Body: body(get(0), get(1), []byte{wasm.OpI32Add})},
			{Type: 1, Name: "scale", Locals: []string{"x", "by"}, Body: body(get(0), get(1), []byte{wasm.OpF64Mul})},
			{Type: 2, Name: "boom", Body: body([]byte{wasm.OpUnreachable})},
			{Type: 3, Body: body(get(0), []byte{wasm.OpI32Eqz})},
			{Type: 0, Name: "div", Locals: []string{"a", "b"}, Body: body(get(0), get(1), []byte{wasm.OpI32DivS})},
			{Type: 4, Name: "add64", Locals: []string{"a", "b"}, Body: body(get(0), get(1), []byte{wasm.OpI64Add})},
			{Type: 5, Name: "get_counter", Body: body([]byte{wasm.OpGlobalGet, 0})},
			{Type: 0, Body: body(get(0), get(1), []byte{wasm.OpI32Mul})},
		},
		Globals: []wasm.Global{
			{Type: i32, Mutable: true, Init: wasm.I32Const(7)},
			{Type: i64, Init: wasm.I64Const(100)},
			{Type: f64, Mutable: true, Init: wasm.F64Const(1.5)},
		},
		Exports: []wasm.Export{
			{Name: "add", Kind: wasm.KindFunc, Idx: 0},
			{Name: "scale", Kind: wasm.KindFunc, Idx: 1},
			{Name: "boom", Kind: wasm.KindFunc, Idx: 2},
			{Name: "not", Kind: wasm.KindFunc, Idx: 3},
			{Name: "div", Kind: wasm.KindFunc, Idx: 4},
			{Name: "math::add64", Kind: wasm.KindFunc, Idx: 5},
			{Name: "get_counter", Kind: wasm.KindFunc, Idx: 6},
			{Name: "mul", Kind: wasm.KindFunc, Idx: 7},
			{Name: "counter", Kind: wasm.KindGlobal, Idx: 0},
			{Name: "limit", Kind: wasm.KindGlobal, Idx: 1},
			{Name: "math::ratio", Kind: wasm.KindGlobal, Idx: 2},
		},
	}
	return m.Encode()
}

func newHost(t *testing.T) *Host {
	t.Helper()
	ctx := context.Background()
	h, err := New(ctx, testModule(), WithWIT(testWIT), WithModuleName(t.Name()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { h.Close(ctx) })
	return h
}

func TestNew_Invalid(t *testing.T) {
	_, err := New(context.Background(), []byte("not wasm"))
	if !errors.Is(err, bridgeerrors.ErrInvalidInput) {
		t.Errorf("err = %v, want invalid input", err)
	}
}

func TestParseWIT(t *testing.T) {
	funcs := parseWIT(testWIT + "\nexport %list: func(a: u8, %type: char);\n")
	if len(funcs) != 4 {
		t.Fatalf("got %d functions, want 4", len(funcs))
	}
	not := funcs["not"]
	if not.err != nil || len(not.params) != 1 || not.params[0].name != "x" || not.results != "bool" {
		t.Errorf("not = %+v", not)
	}
	if !errors.Is(funcs["div"].err, bridgeerrors.ErrUnsupported) {
		t.Errorf("div err = %v, want unsupported", funcs["div"].err)
	}
	list := funcs["list"]
	if list == nil || list.err != nil || list.params[1].name != "type" || list.result != nil {
		t.Errorf("list = %+v", list)
	}
}

func TestParams(t *testing.T) {
	h := newHost(t)

	tests := []struct {
		name    string
		want    []host.Param
		wantErr error
	}{
		{"add", []host.Param{{Name: "a", Type: "i32"}, {Name: "b", Type: "i32"}}, nil},
		{"::math::add64", []host.Param{{Name: "a", Type: "i64"}, {Name: "b", Type: "i64"}}, nil},
		{"not", []host.Param{{Name: "x", Type: "bool"}}, nil},
		{"boom", []host.Param{}, nil},
		{"mul", nil, host.ErrOpaque},
		{"div", nil, bridgeerrors.ErrUnsupported},
		{"missing", nil, bridgeerrors.ErrNotFound},
	}
	for _, tt := range tests {
		got, err := h.Params(tt.name)
		if tt.wantErr != nil {
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Params(%s) err = %v, want %v", tt.name, err, tt.wantErr)
			}
			continue
		}
		if err != nil {
			t.Errorf("Params(%s): %v", tt.name, err)
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Params(%s) = %+v, want %+v", tt.name, got, tt.want)
		}
	}
}

func TestTypes(t *testing.T) {
	h := newHost(t)
	params, result, ok := h.Types("not")
	if !ok || len(params) != 1 {
		t.Fatalf("Types(not) = %v, %v, %v", params, result, ok)
	}
	if _, isBool := params[0].(wit.Bool); !isBool {
		t.Errorf("param type = %T, want wit.Bool", params[0])
	}
	if _, isBool := result.(wit.Bool); !isBool {
		t.Errorf("result type = %T, want wit.Bool", result)
	}
	for _, name := range []string{"add", "div", "missing"} {
		if _, _, ok := h.Types(name); ok {
			t.Errorf("Types(%s) ok, want no WIT types", name)
		}
	}
}

func TestCall(t *testing.T) {
	h := newHost(t)

	tests := []struct {
		name string
		fn   string
		args []string
		want string
	}{
		{"i32", "add", []string{"2", "3"}, "5"},
		{"i32 negative", "add", []string{"-10", "3"}, "-7"},
		{"i32 unsigned input", "add", []string{"4294967295", "0"}, "-1"},
		{"f64", "scale", []string{"1.5", "2"}, "3.0"},
		{"bool true", "not", []string{"true"}, "0"},
		{"bool false", "not", []string{"0"}, "1"},
		{"i64", "::math::add64", []string{"9000000000", "1"}, "9000000001"},
		{"opaque", "mul", []string{"6", "7"}, "42"},
	}
	for _, tt := range tests {
		got, err := h.Call(tt.fn, tt.args...)
		if err != nil {
			t.Errorf("%s: %v", tt.name, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestCall_Errors(t *testing.T) {
	h := newHost(t)

	var fe *bridgeerrors.ForeignError
	if _, err := h.Call("boom"); !errors.As(err, &fe) || fe.Code[1] != "TRAP" || !strings.Contains(fe.Result, "unreachable") {
		t.Errorf("boom err = %v", err)
	}
	if _, err := h.Call("div", "1", "0"); !errors.As(err, &fe) || fe.Code[1] != "TRAP" {
		t.Errorf("div by zero err = %v", err)
	}
	if _, err := h.Call("add", "1"); !errors.As(err, &fe) || fe.Code[1] != "WRONGARGS" {
		t.Errorf("wrong args err = %v", err)
	}
	if _, err := h.Call("nothing"); !errors.As(err, &fe) || fe.Code[1] != "LOOKUP" {
		t.Errorf("missing function err = %v", err)
	}
	if _, err := h.Call("add", "99999999999", "1"); !errors.Is(err, bridgeerrors.ErrConversion) {
		t.Errorf("range err = %v, want conversion", err)
	}
	if _, err := h.Call("not", "maybe"); !errors.Is(err, bridgeerrors.ErrNotABoolean) {
		t.Errorf("bool err = %v, want not a boolean", err)
	}
}

func TestEval(t *testing.T) {
	h := newHost(t)
	if got, err := h.Eval("add 4 5"); err != nil || got != "9" {
		t.Errorf("Eval = %q, %v", got, err)
	}
	if got, err := h.Eval(""); err != nil || got != "" {
		t.Errorf("Eval empty = %q, %v", got, err)
	}
	if _, err := h.Eval("add {4"); !errors.Is(err, bridgeerrors.ErrMalformedList) {
		t.Errorf("Eval malformed err = %v", err)
	}
}

func TestGlobals(t *testing.T) {
	h := newHost(t)

	if got, err := h.Get("counter"); err != nil || got != "7" {
		t.Fatalf("Get(counter) = %q, %v", got, err)
	}
	if err := h.Set("counter", "8"); err != nil {
		t.Fatal(err)
	}
	if got, err := h.Call("get_counter"); err != nil || got != "8" {
		t.Errorf("get_counter = %q, %v", got, err)
	}
	if got, err := h.Get("::math::ratio"); err != nil || got != "1.5" {
		t.Errorf("Get(ratio) = %q, %v", got, err)
	}

	var fe *bridgeerrors.ForeignError
	if err := h.Set("limit", "1"); !errors.As(err, &fe) || fe.Code[1] != "IMMUTABLE" {
		t.Errorf("Set(limit) err = %v", err)
	}
	if got, _ := h.Get("limit"); got != "100" {
		t.Errorf("limit = %q after rejected write", got)
	}
	if err := h.Set("counter", "x"); !errors.Is(err, bridgeerrors.ErrConversion) {
		t.Errorf("Set(counter, x) err = %v", err)
	}
	if _, err := h.Get("nope"); !errors.As(err, &fe) {
		t.Errorf("Get(nope) err = %v", err)
	}

	if !h.Exists("counter") || h.Exists("add") {
		t.Error("Exists mismatch")
	}
	if err := h.Unset("counter"); !errors.Is(err, bridgeerrors.ErrUnsupported) {
		t.Errorf("Unset(counter) err = %v", err)
	}
	if err := h.Unset("nope"); err != nil {
		t.Errorf("Unset(nope) = %v", err)
	}
	if got := h.Globals(); !reflect.DeepEqual(got, []string{"::counter", "::limit", "::math::ratio"}) {
		t.Errorf("Globals = %v", got)
	}
}

func TestNamespaces(t *testing.T) {
	h := newHost(t)

	if got, err := h.Children("::"); err != nil || !reflect.DeepEqual(got, []string{"::math"}) {
		t.Errorf("Children(::) = %v, %v", got, err)
	}
	if got, err := h.Callables("::math::*"); err != nil || !reflect.DeepEqual(got, []string{"::math::add64"}) {
		t.Errorf("Callables(::math::*) = %v, %v", got, err)
	}
	got, err := h.Callables("::*")
	want := []string{"::add", "::boom", "::div", "::get_counter", "::mul", "::not", "::scale"}
	if err != nil || !reflect.DeepEqual(got, want) {
		t.Errorf("Callables(::*) = %v, %v", got, err)
	}
	if _, err := h.Children("::none"); !errors.Is(err, bridgeerrors.ErrNotFound) {
		t.Errorf("Children(::none) err = %v", err)
	}
}

func TestTrampoline(t *testing.T) {
	h := newHost(t)

	add, err := trampoline.New(h, "add", trampoline.WithTarget(value.ToInt))
	if err != nil {
		t.Fatal(err)
	}
	if got, err := add.Call(2, trampoline.Kwargs{"b": 3}); err != nil || got != int64(5) {
		t.Errorf("add = %v, %v", got, err)
	}
	if _, err := add.Call(1, 2, 3); !errors.Is(err, bridgeerrors.ErrType) {
		t.Errorf("too many args err = %v", err)
	}

	not, err := trampoline.New(h, "not", trampoline.WithTarget(value.ToBool))
	if err != nil {
		t.Fatal(err)
	}
	if got, err := not.Call(trampoline.Kwargs{"x": false}); err != nil || got != true {
		t.Errorf("not = %v, %v", got, err)
	}

	mul, err := trampoline.New(h, "mul")
	if err != nil {
		t.Fatal(err)
	}
	if !mul.Opaque() {
		t.Error("mul is not opaque")
	}
	if got, err := mul.Call(6, 7); err != nil || got != "42" {
		t.Errorf("mul = %v, %v", got, err)
	}
	if _, err := mul.Call(trampoline.Kwargs{"a": 1}); err == nil {
		t.Error("named argument to opaque export succeeded")
	}

	if _, err := trampoline.New(h, "div"); !errors.Is(err, bridgeerrors.ErrUnsupported) {
		t.Errorf("trampoline.New(div) err = %v", err)
	}
}
