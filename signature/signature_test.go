package signature

import (
	"errors"
	"testing"

	bridgeerrors "github.com/wippyai/valuebridge/errors"
	"github.com/wippyai/valuebridge/host"
)

// procHost exposes a fixed table of callables.
type procHost struct {
	host.Host
	procs  map[string][]host.Param
	opaque map[string]bool
	probes int
}

func (p *procHost) IsCallable(name string) bool {
	_, ok := p.procs[name]
	return ok || p.opaque[name]
}

func (p *procHost) Params(name string) ([]host.Param, error) {
	p.probes++
	if p.opaque[name] {
		return nil, host.ErrOpaque
	}
	return p.procs[name], nil
}

func newProcHost() *procHost {
	return &procHost{
		procs: map[string][]host.Param{
			"::ab_test": {
				{Name: "a"},
				{Name: "b", Default: "b_default", HasDefault: true},
			},
			"::arg_check": {
				{Name: "a"},
				{Name: "b", Default: "b_default", HasDefault: true},
				{Name: "args", Variadic: true},
			},
			"::bad_default": {
				{Name: "a", Default: "x\x00y", HasDefault: true},
			},
			"::bad_variadic": {
				{Name: "rest", Variadic: true},
				{Name: "a"},
			},
			"::dup": {
				{Name: "a"},
				{Name: "a"},
			},
		},
		opaque: map[string]bool{"::puts": true},
	}
}

func TestProbe(t *testing.T) {
	h := newProcHost()

	sig, err := Probe(h, "::arg_check")
	if err != nil {
		t.Fatal(err)
	}
	if sig.Opaque || len(sig.Params) != 3 {
		t.Fatalf("sig = %+v", sig)
	}
	if v, ok := sig.Variadic(); !ok || v.Name != "args" {
		t.Errorf("Variadic = %+v, %v", v, ok)
	}
	if len(sig.Fixed()) != 2 {
		t.Errorf("Fixed = %v", sig.Fixed())
	}
	if req := sig.Required(); len(req) != 1 || req[0] != "a" {
		t.Errorf("Required = %v", req)
	}
	if p, ok := sig.Lookup("b"); !ok || p.Default != "b_default" {
		t.Errorf("Lookup(b) = %+v, %v", p, ok)
	}
	if got := sig.String(); got != "arg_check(a, b=b_default, args...)" {
		t.Errorf("String = %q", got)
	}

	sig, err = Probe(h, "::puts")
	if err != nil || !sig.Opaque {
		t.Errorf("Probe(puts) = %+v, %v; want opaque", sig, err)
	}
	if got := sig.String(); got != "puts(...)" {
		t.Errorf("opaque String = %q", got)
	}
}

func TestProbe_Failures(t *testing.T) {
	h := newProcHost()
	tests := []struct {
		name  string
		kind  bridgeerrors.Kind
		param string
	}{
		{"::nope", bridgeerrors.KindNotFound, ""},
		{"::bad_default", bridgeerrors.KindConversion, "a"},
		{"::bad_variadic", bridgeerrors.KindInvalidInput, "rest"},
		{"::dup", bridgeerrors.KindInvalidInput, "a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Probe(h, tt.name)
			var be *bridgeerrors.Error
			if !errors.As(err, &be) {
				t.Fatalf("Probe error = %v", err)
			}
			if be.Kind != tt.kind || be.Param != tt.param {
				t.Errorf("Kind/Param = %v/%q, want %v/%q", be.Kind, be.Param, tt.kind, tt.param)
			}
		})
	}
}

func TestFunctionName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"::ab_test", "ab_test"},
		{"::ns::deep::proc", "proc"},
		{"plain", "plain"},
		{"string-map", "string_map"},
		{"exists?", "exists_question_mark"},
		{"a+b", "a_plus_signb"},
		{"<=>", "_less_than_equals_greater_than"},
		{"a@b.c", "a_at_signb_dotc"},
		{"x*!/%", "x_star_bang_slash_percent"},
		{"&$#~^|,", "_ampersand_dollar_hash_tilde_caret_pipe_comma"},
		{"two words", "two_words"},
		{"a:b", "a_b"},
		{"2fast", "_2fast"},
		{"func", "func_"},
		{"range", "range_"},
		{"a\"b", "a_x22b"},
		{"ünï", "ünï"},
		{"::", "_"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := FunctionName(tt.in); got != tt.want {
				t.Errorf("FunctionName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCache(t *testing.T) {
	h := newProcHost()
	c, err := NewCache(2)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		if _, err := c.Probe(h, "ab_test"); err != nil {
			t.Fatal(err)
		}
	}
	if h.probes != 1 {
		t.Errorf("probes = %d, want 1", h.probes)
	}

	if _, err := c.Probe(h, "::bad_default"); err == nil {
		t.Fatal("expected probe failure")
	}
	if c.Len() != 1 {
		t.Errorf("failed probe was cached, Len = %d", c.Len())
	}

	c.Forget("ab_test")
	if _, err := c.Probe(h, "::ab_test"); err != nil {
		t.Fatal(err)
	}
	if h.probes != 3 {
		t.Errorf("probes after Forget = %d, want 3", h.probes)
	}

	_, _ = c.Probe(h, "::arg_check")
	_, _ = c.Probe(h, "::puts")
	if c.Len() != 2 {
		t.Errorf("Len = %d, want capacity 2", c.Len())
	}
	c.Purge()
	if c.Len() != 0 {
		t.Errorf("Len after Purge = %d", c.Len())
	}
}
