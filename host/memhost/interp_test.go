package memhost

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/wippyai/valuebridge/codec"
	bridgeerrors "github.com/wippyai/valuebridge/errors"
	"github.com/wippyai/valuebridge/host"
)

const procs = `
proc ab_test {a {b b_default}} {
	return "a is '$a', b is '$b'"
}
proc abc_test {a {b b_default} {c c_default}} {
	return "a is '$a', b is '$b', c is '$c'"
}
proc arg_check_ab {a {b default_b} args} { list $a $b $args }
`

func mustEval(t *testing.T, in *Interp, script string) string {
	t.Helper()
	out, err := in.Eval(script)
	if err != nil {
		t.Fatalf("Eval(%q): %v", script, err)
	}
	return out
}

func foreignErr(t *testing.T, err error) *bridgeerrors.ForeignError {
	t.Helper()
	var fe *bridgeerrors.ForeignError
	if !errors.As(err, &fe) {
		t.Fatalf("error = %v, want ForeignError", err)
	}
	return fe
}

func TestEval(t *testing.T) {
	in := New()
	mustEval(t, in, procs)

	tests := []struct {
		script string
		want   string
	}{
		{"set x 5", "5"},
		{"set x", "5"},
		{"set y [list a {b c} {}]", "a {b c} {}"},
		{"llength $y", "3"},
		{"lindex $y 1", "b c"},
		{"lindex $y end", ""},
		{"lindex {a {b {c d}}} 1 1 0", "c"},
		{"set z \"x is $x\"; set z", "x is 5"},
		{"set w {x is $x}", "x is $x"},
		{"concat {a b} { c } {}", "a b c"},
		{"incr x", "6"},
		{"incr x -10", "-4"},
		{"incr fresh", "1"},
		{"# comment line\nset x", "-4"},
		{"set s a\\tb", "a\tb"},
		{"set n ${x}", "-4"},
		{"set dollar $", "$"},
		{"ab_test first", "a is 'first', b is 'b_default'"},
		{"abc_test 1 2", "a is '1', b is '2', c is 'c_default'"},
		{"arg_check_ab a_val5 c_val5", "a_val5 c_val5 {}"},
		{"arg_check_ab 1 2 3 {4 5}", "1 2 {3 {4 5}}"},
		{"if {$x > 0} {set r pos} elseif {$x < 0} {set r neg} else {set r zero}", "neg"},
		{"if 0 {set r a}", ""},
		{"if 1 then {set r b}", "b"},
		{"catch {error oops} msg; set msg", "oops"},
		{"catch {set q 7} msg", "0"},
		{"info exists q", "1"},
		{"info exists nope", "0"},
		{"unset q; info exists q", "0"},
		{"unset -nocomplain q", ""},
		{"info args abc_test", "a b c"},
		{"info default ab_test b d; set d", "b_default"},
		{"info procs *_test", "ab_test abc_test"},
	}
	for _, tt := range tests {
		t.Run(tt.script, func(t *testing.T) {
			if got := mustEval(t, in, tt.script); got != tt.want {
				t.Errorf("Eval = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExpr(t *testing.T) {
	in := New()
	mustEval(t, in, "set a 4; set s hello")

	tests := []struct {
		expr string
		want string
	}{
		{"1 + 2 * 3", "7"},
		{"(1 + 2) * 3", "9"},
		{"7 / 2", "3"},
		{"-7 / 2", "-4"},
		{"7.0 / 2", "3.5"},
		{"7 / 2.0", "3.5"},
		{"7 % -2", "-1"},
		{"1.5 + 1", "2.5"},
		{"$a * $a", "16"},
		{"[llength {a b c}] + 1", "4"},
		{"1 < 2 && 2 < 3", "1"},
		{"0 || 0", "0"},
		{"0 && [nosuch]", "0"},
		{"1 || [nosuch]", "1"},
		{"!0", "1"},
		{"~5", "-6"},
		{"1 << 3", "8"},
		{"6 & 3 | 8", "10"},
		{`"b" > "a"`, "1"},
		{`$s eq "hello"`, "1"},
		{`$s ne {hello}`, "0"},
		{"$a == 4.0", "1"},
		{"$a > 3 ? {big} : {small}", "big"},
		{"0 ? [nosuch] : 2", "2"},
		{"1e-1 * 10", "1.0"},
		{"0x10 + 1", "17"},
		{"true && yes", "1"},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := in.Call("expr", tt.expr)
			if err != nil {
				t.Fatalf("expr: %v", err)
			}
			if got != tt.want {
				t.Errorf("expr %s = %q, want %q", tt.expr, got, tt.want)
			}
		})
	}

	for _, bad := range []string{"1 / 0", "1 % 0", "1 +", "$s + 1", "1.5 << 1", "(1", "foo", "1 2"} {
		t.Run("error "+bad, func(t *testing.T) {
			if _, err := in.Call("expr", bad); err == nil {
				t.Errorf("expr %s succeeded", bad)
			}
		})
	}

	_, err := in.Call("expr", "1 / 0")
	if fe := foreignErr(t, err); !reflect.DeepEqual(fe.Code, []string{"ARITH", "DIVZERO", "divide by zero"}) {
		t.Errorf("divide by zero code = %v", fe.Code)
	}
}

func TestCall_NoSubstitution(t *testing.T) {
	in := New()
	for _, arg := range []string{"[info globals]", "$secretVariable", "{unbalanced"} {
		got, err := in.Call("return", arg)
		if err != nil || got != arg {
			t.Errorf("Call(return, %q) = %q, %v", arg, got, err)
		}
	}

	_, err := in.Call("better_not_be_this_asdfjhk")
	fe := foreignErr(t, err)
	if fe.Code[0] != "TCL" || fe.Code[2] != "COMMAND" {
		t.Errorf("code = %v", fe.Code)
	}
}

func TestProcErrors(t *testing.T) {
	in := New()
	mustEval(t, in, procs)
	mustEval(t, in, `
proc fail {x} {
	set y 1
	error "boom $x" "" {MY CODE}
}
proc outer {} { fail inner }
`)

	_, err := in.Call("ab_test")
	fe := foreignErr(t, err)
	if fe.Result != `wrong # args: should be "ab_test a ?b?"` {
		t.Errorf("Result = %q", fe.Result)
	}
	_, err = in.Call("ab_test", "1", "2", "3")
	if fe := foreignErr(t, err); !strings.HasPrefix(fe.Result, "wrong # args") {
		t.Errorf("too many args Result = %q", fe.Result)
	}
	_, err = in.Call("arg_check_ab")
	if fe := foreignErr(t, err); fe.Result != `wrong # args: should be "arg_check_ab a ?b? ?arg ...?"` {
		t.Errorf("variadic usage = %q", fe.Result)
	}

	_, err = in.Eval("outer")
	fe = foreignErr(t, err)
	if fe.Result != "boom inner" || !reflect.DeepEqual(fe.Code, []string{"MY", "CODE"}) {
		t.Errorf("Result/Code = %q/%v", fe.Result, fe.Code)
	}
	for _, want := range []string{
		"boom inner\n    while executing\n\"error \"boom $x\"",
		`(procedure "fail" line 3)`,
		"invoked from within\n\"fail inner\"",
		`(procedure "outer" line 1)`,
		"invoked from within\n\"outer\"",
	} {
		if !strings.Contains(fe.Info, want) {
			t.Errorf("Info missing %q:\n%s", want, fe.Info)
		}
	}
	if fe.Line != 3 {
		t.Errorf("Line = %d", fe.Line)
	}
	stack, err := codec.DecodeList(fe.Stack)
	if err != nil || len(stack) != 6 || stack[0] != "INNER" || stack[2] != "CALL" || stack[3] != "fail inner" || stack[5] != "outer" {
		t.Errorf("Stack = %q (%v)", fe.Stack, err)
	}

	for _, script := range []string{"set", "set {", "set x \"y", "set x [list", "proc p {{}} {}", "proc p {{a b c}} {}", "nope"} {
		if _, err := in.Eval(script); err == nil {
			t.Errorf("Eval(%q) succeeded", script)
		}
	}
}

func TestMaxDepth(t *testing.T) {
	in := New(WithMaxDepth(50))
	mustEval(t, in, "proc loop {} { loop }")
	_, err := in.Call("loop")
	if fe := foreignErr(t, err); !strings.Contains(fe.Result, "too many nested evaluations") {
		t.Errorf("Result = %q", fe.Result)
	}
	if got := mustEval(t, in, "set ok 1"); got != "1" {
		t.Error("interpreter unusable after depth error")
	}
}

func TestVariables(t *testing.T) {
	in := New()

	if err := in.Set("x", "1"); err != nil {
		t.Fatal(err)
	}
	if got, _ := in.Get("::x"); got != "1" {
		t.Errorf("Get(::x) = %q", got)
	}
	if err := in.Set("colors(red)", "#f00"); err != nil {
		t.Fatal(err)
	}
	_ = in.Set("colors(blue)", "#00f")
	if got, _ := in.Get("colors(red)"); got != "#f00" {
		t.Errorf("Get(colors(red)) = %q", got)
	}
	if names, _ := in.ArrayNames("colors"); !reflect.DeepEqual(names, []string{"blue", "red"}) {
		t.Errorf("ArrayNames = %v", names)
	}
	if !in.Exists("colors") || !in.Exists("colors(blue)") || in.Exists("colors(green)") {
		t.Error("Exists on array wrong")
	}

	rejected := []struct {
		name, value string
	}{
		{"x(k)", "v"},
		{"colors", "v"},
		{"::nope::x", "v"},
	}
	for _, tt := range rejected {
		if err := in.Set(tt.name, tt.value); err == nil {
			t.Errorf("Set(%s) succeeded", tt.name)
		}
	}
	for _, name := range []string{"missing", "colors", "x(k)", "colors(green)"} {
		if _, err := in.Get(name); err == nil {
			t.Errorf("Get(%s) succeeded", name)
		}
	}

	if err := in.Unset("missing"); err != nil {
		t.Errorf("Unset(missing) = %v", err)
	}
	if err := in.Unset("colors(blue)"); err != nil || in.Exists("colors(blue)") {
		t.Errorf("Unset element: %v", err)
	}
	if err := in.ArrayUnset("x"); err != nil || !in.Exists("x") {
		t.Errorf("ArrayUnset on scalar: %v", err)
	}
	if err := in.ArrayUnset("colors"); err != nil || in.Exists("colors") {
		t.Errorf("ArrayUnset: %v", err)
	}
	if names, err := in.ArrayNames("colors"); err != nil || names != nil {
		t.Errorf("ArrayNames(missing) = %v, %v", names, err)
	}
	if _, err := in.ArrayNames("x"); err == nil {
		t.Error("ArrayNames on scalar succeeded")
	}

	got := mustEval(t, in, `
array set ages {bob 30 alice 25}
set ages(carol) 41
list [array size ages] [array names ages] [array get ages a*] [array exists ages] [array exists x]`)
	if got != "3 {alice bob carol} {alice 25} 1 0" {
		t.Errorf("array commands = %q", got)
	}
	mustEval(t, in, "array unset ages b*")
	if names, _ := in.ArrayNames("ages"); !reflect.DeepEqual(names, []string{"alice", "carol"}) {
		t.Errorf("after pattern unset = %v", names)
	}
}

func TestProcScope(t *testing.T) {
	in := New()
	mustEval(t, in, `
set counter 10
proc local {} { set counter 1; return $counter }
proc bump {} { global counter; incr counter }
proc readGlobal {} { return $::counter }
`)
	if got := mustEval(t, in, "local"); got != "1" {
		t.Errorf("local = %q", got)
	}
	if got, _ := in.Get("counter"); got != "10" {
		t.Errorf("counter after local = %q", got)
	}
	mustEval(t, in, "bump; bump")
	if got, _ := in.Get("counter"); got != "12" {
		t.Errorf("counter after bump = %q", got)
	}
	if got := mustEval(t, in, "readGlobal"); got != "12" {
		t.Errorf("readGlobal = %q", got)
	}
	if _, err := in.Eval("proc leak {} { return $counter }; leak"); err == nil {
		t.Error("proc saw a global without linking it")
	}
}

func TestNamespaces(t *testing.T) {
	in := New()
	mustEval(t, in, `
namespace eval util {
	set version 2
	proc greet {name} { return "hi $name" }
	proc twice {name} { return "[greet $name] [greet $name]" }
	namespace eval deep { proc fn {} { namespace current } }
}`)

	if got := mustEval(t, in, "util::twice bob"); got != "hi bob hi bob" {
		t.Errorf("twice = %q", got)
	}
	if got, _ := in.Get("::util::version"); got != "2" {
		t.Errorf("util::version = %q", got)
	}
	if got, _ := in.Call("::util::deep::fn"); got != "::util::deep" {
		t.Errorf("namespace current = %q", got)
	}

	children, err := in.Children("::")
	if err != nil || !reflect.DeepEqual(children, []string{"::util"}) {
		t.Errorf("Children(::) = %v, %v", children, err)
	}
	if children, _ := in.Children("util"); !reflect.DeepEqual(children, []string{"::util::deep"}) {
		t.Errorf("Children(util) = %v", children)
	}
	if _, err := in.Children("::nope"); err == nil {
		t.Error("Children of missing namespace succeeded")
	}

	callables, _ := in.Callables("::util::*")
	if !reflect.DeepEqual(callables, []string{"::util::greet", "::util::twice"}) {
		t.Errorf("Callables = %v", callables)
	}
	if got := mustEval(t, in, "list [namespace exists util] [namespace exists nope] [namespace tail ::a::b] [namespace qualifiers ::a::b]"); got != "1 0 b ::a" {
		t.Errorf("namespace helpers = %q", got)
	}
	if got := mustEval(t, in, "namespace children"); got != "::util" {
		t.Errorf("namespace children = %q", got)
	}
}

func TestIntrospection(t *testing.T) {
	in := New()
	mustEval(t, in, procs)
	_ = in.Register("::cb::echo", func(args []string) (string, error) {
		return codec.EncodeList(args), nil
	})

	params, err := in.Params("arg_check_ab")
	want := []host.Param{
		{Name: "a"},
		{Name: "b", Default: "default_b", HasDefault: true},
		{Name: "args", Variadic: true},
	}
	if err != nil || !reflect.DeepEqual(params, want) {
		t.Errorf("Params = %+v, %v", params, err)
	}
	params[0].Name = "mutated"
	if again, _ := in.Params("arg_check_ab"); again[0].Name != "a" {
		t.Error("Params returned shared storage")
	}

	for _, name := range []string{"set", "::cb::echo"} {
		if _, err := in.Params(name); !errors.Is(err, host.ErrOpaque) {
			t.Errorf("Params(%s) = %v, want ErrOpaque", name, err)
		}
	}
	if _, err := in.Params("nope"); !errors.Is(err, bridgeerrors.ErrNotFound) {
		t.Errorf("Params(nope) = %v", err)
	}
	if !in.IsCallable("ab_test") || !in.IsCallable("::cb::echo") || in.IsCallable("nope") {
		t.Error("IsCallable wrong")
	}
	if children, _ := in.Children("::"); !reflect.DeepEqual(children, []string{"::cb"}) {
		t.Errorf("Register did not create namespace: %v", children)
	}
}

func TestCallbacks(t *testing.T) {
	in := New()
	mustEval(t, in, `
proc isodd {num} {
	return [expr {![iseven $num]}]
}`)
	err := in.Register("iseven", func(args []string) (string, error) {
		n, err := codec.ParseInt(args[0])
		if err != nil {
			return "", err
		}
		switch n {
		case 0:
			return "1", nil
		case 1:
			return "0", nil
		}
		odd, err := in.Call("isodd", codec.FormatInt(n-2))
		if err != nil {
			return "", err
		}
		b, err := codec.ParseBool(odd)
		return codec.FormatBool(!b), err
	})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		n    string
		want string
	}{
		{"0", "1"}, {"2", "1"}, {"4", "1"}, {"6", "1"}, {"200", "1"},
		{"1", "0"}, {"3", "0"}, {"99", "0"},
	}
	for _, tt := range tests {
		got, err := in.Call("iseven", tt.n)
		if err != nil || got != tt.want {
			t.Errorf("iseven(%s) = %q, %v; want %q", tt.n, got, err, tt.want)
		}
	}

	_, err = in.Eval("iseven notanumber")
	fe := foreignErr(t, err)
	if fe.Code[0] != "GO" {
		t.Errorf("callback error code = %v", fe.Code)
	}

	if err := in.Register("nil", nil); err == nil {
		t.Error("Register(nil) succeeded")
	}
}

func TestDispatchLogging(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	prev := Logger()
	SetLogger(zap.New(core))
	defer SetLogger(prev)

	in := New()
	mustEval(t, in, "set x [list a b]")
	entries := logs.FilterMessage("dispatch").All()
	if len(entries) != 2 {
		t.Fatalf("dispatch entries = %d", len(entries))
	}
	if entries[0].ContextMap()["command"] != "::list" {
		t.Errorf("first dispatch = %v", entries[0].ContextMap())
	}
}
