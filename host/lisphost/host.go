package lisphost

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/steelseries/golisp"
	"go.uber.org/zap"

	"github.com/wippyai/valuebridge/errors"
	"github.com/wippyai/valuebridge/host"
)

// Func is a Go callback installed as a lisp primitive.
type Func func(args []string) (string, error)

// Host runs a golisp environment as a foreign runtime. Foreign names map
// to lisp symbols with "::" separators replaced by "/": "::util::greet"
// is the symbol util/greet.
//
// golisp keeps global interpreter state, so a Host must not be used from
// several goroutines at once.
type Host struct {
	env    *golisp.SymbolTableFrame
	params map[string][]host.Param
	funcs  map[string]struct{}
	vars   map[string]struct{}
	nss    map[string]struct{}
	mu     sync.Mutex
}

var _ host.Host = (*Host)(nil)

// New creates a host with its own frame below the golisp global frame.
func New(name string) *Host {
	return &Host{
		env:    golisp.NewSymbolTableFrameBelow(golisp.Global, name),
		params: make(map[string][]host.Param),
		funcs:  make(map[string]struct{}),
		vars:   make(map[string]struct{}),
		nss:    map[string]struct{}{host.Separator: {}},
	}
}

// Symbol returns the lisp symbol name for a foreign name.
func Symbol(name string) string {
	return strings.ReplaceAll(strings.TrimPrefix(host.Qualify(name), host.Separator), host.Separator, "/")
}

func (h *Host) intern(name string) *golisp.Data {
	return golisp.Intern(Symbol(name))
}

func (h *Host) addNamespace(name string) {
	ns, _ := host.Split(name)
	for ns != host.Separator {
		h.nss[ns] = struct{}{}
		ns, _ = host.Split(ns)
	}
}

// Defun defines a lisp function with the given parameters and body forms.
// A variadic parameter becomes the dotted rest parameter. Defaults are
// recorded for callers that bind arguments by signature; the lisp function
// itself always receives every fixed argument.
func (h *Host) Defun(name string, params []host.Param, body string) error {
	var fixed []string
	rest := ""
	for i, p := range params {
		if p.Variadic {
			if i != len(params)-1 {
				return errors.New(errors.PhaseHost, errors.KindInvalidInput).
					Param(p.Name).Detail("variadic parameter must be last").Build()
			}
			rest = p.Name
			continue
		}
		fixed = append(fixed, p.Name)
	}

	var form strings.Builder
	form.WriteString("(define (")
	form.WriteString(Symbol(name))
	for _, p := range fixed {
		form.WriteByte(' ')
		form.WriteString(p)
	}
	if rest != "" {
		form.WriteString(" . ")
		form.WriteString(rest)
	}
	form.WriteString(") ")
	form.WriteString(body)
	form.WriteByte(')')

	if _, err := golisp.ParseAndEvalInEnvironment(form.String(), h.env); err != nil {
		return foreign(err)
	}
	Logger().Debug("defun", zap.String("function", Symbol(name)), zap.Int("params", len(params)))

	qualified := host.Qualify(name)
	h.mu.Lock()
	defer h.mu.Unlock()
	h.params[qualified] = append([]host.Param(nil), params...)
	h.funcs[qualified] = struct{}{}
	h.addNamespace(qualified)
	return nil
}

// Register installs fn as a primitive. Its arguments arrive as canonical
// strings and its result is read back like a call argument.
func (h *Host) Register(name string, fn Func) error {
	if fn == nil {
		return errors.InvalidInput(errors.PhaseHost, "nil callback for "+name)
	}
	sym := Symbol(name)
	pf := &golisp.PrimitiveFunction{
		Name:            sym,
		Special:         false,
		ArgRestrictions: []golisp.ArgRestriction{{Type: golisp.ARGS_ANY}},
		IsRestricted:    false,
		Body: func(args *golisp.Data, _ *golisp.SymbolTableFrame) (*golisp.Data, error) {
			strs := make([]string, 0, golisp.Length(args))
			for _, a := range golisp.ToArray(args) {
				strs = append(strs, ToString(a))
			}
			res, err := fn(strs)
			if err != nil {
				return nil, err
			}
			return FromString(res), nil
		},
	}
	if _, err := h.env.BindLocallyTo(golisp.Intern(sym), golisp.PrimitiveWithNameAndFunc(sym, pf)); err != nil {
		return foreign(err)
	}

	qualified := host.Qualify(name)
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.params, qualified)
	h.funcs[qualified] = struct{}{}
	h.addNamespace(qualified)
	return nil
}

// Eval evaluates every form in script and returns the last result.
func (h *Host) Eval(script string) (string, error) {
	d, err := golisp.ParseAndEvalAllInEnvironment(script, h.env)
	if err != nil {
		return "", foreign(err)
	}
	return ToString(d), nil
}

// Call applies a function to arguments read with FromString.
func (h *Host) Call(name string, args ...string) (string, error) {
	fn := h.env.ValueOf(h.intern(name))
	if !golisp.FunctionOrPrimitiveP(fn) {
		return "", errors.NewForeignError(fmt.Sprintf("invalid function name %q", name), "LISP", "LOOKUP", "FUNCTION", name)
	}
	data := make([]*golisp.Data, len(args))
	for i, a := range args {
		data[i] = FromString(a)
	}
	Logger().Debug("apply", zap.String("function", Symbol(name)), zap.Int("args", len(args)))
	d, err := golisp.ApplyWithoutEval(fn, golisp.ArrayToList(data), h.env)
	if err != nil {
		return "", foreign(err)
	}
	return ToString(d), nil
}

// Get reads a symbol's value.
func (h *Host) Get(name string) (string, error) {
	if !h.Exists(name) {
		return "", errors.NewForeignError(fmt.Sprintf("can't read %q: no such variable", name), "LISP", "LOOKUP", "VARNAME", name)
	}
	return ToString(h.env.ValueOf(h.intern(name))), nil
}

// Set binds a symbol to a value read with FromString. Array element
// locations are not supported.
func (h *Host) Set(name, value string) error {
	if _, _, ok := host.ParseElement(name); ok {
		return errors.Unsupported(errors.PhaseHost, "array element "+name)
	}
	sym, v := h.intern(name), FromString(value)
	if _, err := h.env.SetTo(sym, v); err != nil {
		if _, err := h.env.BindTo(sym, v); err != nil {
			return foreign(err)
		}
	}
	qualified := host.Qualify(name)
	h.mu.Lock()
	defer h.mu.Unlock()
	h.vars[qualified] = struct{}{}
	h.addNamespace(qualified)
	return nil
}

// Unset rebinds a symbol to nil. golisp has no unbinding; a nil symbol
// reads as absent.
func (h *Host) Unset(name string) error {
	qualified := host.Qualify(name)
	h.mu.Lock()
	_, known := h.vars[qualified]
	delete(h.vars, qualified)
	h.mu.Unlock()
	if known || golisp.NotNilP(h.env.ValueOf(h.intern(name))) {
		if _, err := h.env.SetTo(h.intern(name), golisp.EmptyCons()); err != nil {
			return foreign(err)
		}
	}
	return nil
}

// Exists reports whether a symbol was set through the host or has a
// non-nil value.
func (h *Host) Exists(name string) bool {
	if _, _, ok := host.ParseElement(name); ok {
		return false
	}
	h.mu.Lock()
	_, known := h.vars[host.Qualify(name)]
	h.mu.Unlock()
	return known || golisp.NotNilP(h.env.ValueOf(h.intern(name)))
}

// Params returns the parameters recorded by Defun. Other functions and
// primitives are opaque.
func (h *Host) Params(name string) ([]host.Param, error) {
	qualified := host.Qualify(name)
	h.mu.Lock()
	params, ok := h.params[qualified]
	h.mu.Unlock()
	if ok {
		return append([]host.Param(nil), params...), nil
	}
	if h.IsCallable(name) {
		return nil, host.ErrOpaque
	}
	return nil, errors.NotFound(errors.PhaseHost, "function", name)
}

// IsCallable reports whether the symbol is bound to a function or a
// primitive.
func (h *Host) IsCallable(name string) bool {
	return golisp.FunctionOrPrimitiveP(h.env.ValueOf(h.intern(name)))
}

// Children lists namespaces created by Defun, Register and Set.
func (h *Host) Children(ns string) ([]string, error) {
	ns = host.Qualify(ns)
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.nss[ns]; !ok {
		return nil, errors.NotFound(errors.PhaseHost, "namespace", ns)
	}
	var out []string
	for c := range h.nss {
		if c == host.Separator {
			continue
		}
		if parent, _ := host.Split(c); parent == ns {
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Callables lists functions defined through Defun and Register that
// match pattern.
func (h *Host) Callables(pattern string) ([]string, error) {
	pattern = host.Qualify(pattern)
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []string
	for name := range h.funcs {
		if host.Match(pattern, name) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out, nil
}

func foreign(err error) *errors.ForeignError {
	return errors.NewForeignError(err.Error(), "LISP", "ERROR")
}
