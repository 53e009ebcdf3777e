package wasmhost

import (
	"context"
	stderrors "errors"
	"fmt"
	"sort"
	"strings"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/sys"
	"go.bytecodealliance.org/wit"
	"go.uber.org/zap"

	"github.com/wippyai/valuebridge/codec"
	"github.com/wippyai/valuebridge/errors"
	"github.com/wippyai/valuebridge/host"
	"github.com/wippyai/valuebridge/wasm"
)

// Host runs one instantiated core module. Exported functions are
// callables and exported globals are variables. Export names containing
// "::" are placed in namespaces.
//
// Calls run on the context given to New. A Host is not safe for
// concurrent calls.
type Host struct {
	ctx     context.Context
	runtime wazero.Runtime
	mod     api.Module
	funcs   map[string]*export
	globals map[string]api.Global
	nss     map[string][]string
}

type export struct {
	fn   api.Function
	wit  *witFunc
	name string
}

var _ host.Host = (*Host)(nil)

// Option configures a Host.
type Option func(*config)

type config struct {
	runtime wazero.RuntimeConfig
	wit     string
	name    string
}

// WithWIT supplies WIT text declaring exported functions, for example
// "add: func(a: s32, b: s32) -> s32". Declared functions get typed,
// named parameters.
func WithWIT(text string) Option {
	return func(c *config) {
		c.wit = text
	}
}

// WithModuleName sets the instance name.
func WithModuleName(name string) Option {
	return func(c *config) {
		c.name = name
	}
}

// WithRuntimeConfig replaces the default wazero runtime configuration.
func WithRuntimeConfig(rc wazero.RuntimeConfig) Option {
	return func(c *config) {
		c.runtime = rc
	}
}

// New compiles and instantiates a core module.
func New(ctx context.Context, bin []byte, opts ...Option) (*Host, error) {
	cfg := config{
		runtime: wazero.NewRuntimeConfig().WithCloseOnContextDone(true),
		name:    "bridge",
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	exports, err := wasm.ParseExports(bin)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseHost, errors.KindInvalidInput, err, "parse module")
	}

	rt := wazero.NewRuntimeWithConfig(ctx, cfg.runtime)
	mod, err := rt.InstantiateWithConfig(ctx, bin, wazero.NewModuleConfig().WithName(cfg.name))
	if err != nil {
		_ = rt.Close(ctx)
		return nil, errors.Wrap(errors.PhaseHost, errors.KindInvalidInput, err, "instantiate module")
	}

	h := &Host{
		ctx:     ctx,
		runtime: rt,
		mod:     mod,
		funcs:   make(map[string]*export),
		globals: make(map[string]api.Global),
		nss:     map[string][]string{host.Separator: nil},
	}

	decls := parseWIT(cfg.wit)
	for _, e := range exports {
		qualified := host.Qualify(e.Name)
		switch e.Kind {
		case wasm.KindFunc:
			fn := mod.ExportedFunction(e.Name)
			if fn == nil {
				continue
			}
			ex := &export{fn: fn, name: e.Name}
			if d, ok := decls[e.Name]; ok {
				ex.wit = d
				delete(decls, e.Name)
			}
			h.funcs[qualified] = ex
		case wasm.KindGlobal:
			if g := mod.ExportedGlobal(e.Name); g != nil {
				h.globals[qualified] = g
			}
		default:
			continue
		}
		h.addNamespace(qualified)
	}
	for name := range decls {
		Logger().Warn("WIT function has no matching export", zap.String("function", name))
	}

	Logger().Debug("instantiated module",
		zap.String("name", cfg.name),
		zap.Int("functions", len(h.funcs)),
		zap.Int("globals", len(h.globals)))
	return h, nil
}

func (h *Host) addNamespace(name string) {
	ns, _ := host.Split(name)
	for ns != host.Separator {
		parent, _ := host.Split(ns)
		if _, ok := h.nss[ns]; !ok {
			h.nss[ns] = nil
			h.nss[parent] = append(h.nss[parent], ns)
		}
		ns = parent
	}
}

// Close releases the module and its runtime.
func (h *Host) Close(ctx context.Context) error {
	return h.runtime.Close(ctx)
}

// Eval treats script as a list: an export name followed by its arguments.
func (h *Host) Eval(script string) (string, error) {
	words, err := codec.DecodeList(script)
	if err != nil {
		return "", err
	}
	if len(words) == 0 {
		return "", nil
	}
	return h.Call(words[0], words[1:]...)
}

// Call invokes an exported function. Arguments are converted by the
// declared WIT type or else by the core value type.
func (h *Host) Call(name string, args ...string) (string, error) {
	ex, ok := h.funcs[host.Qualify(name)]
	if !ok {
		return "", errors.NewForeignError(fmt.Sprintf("invalid function name %q", name), "WASM", "LOOKUP", "FUNCTION", name)
	}
	def := ex.fn.Definition()
	types := def.ParamTypes()
	if len(args) != len(types) {
		return "", errors.NewForeignError(
			fmt.Sprintf("wrong # args: %s takes %d, got %d", ex.name, len(types), len(args)),
			"WASM", "WRONGARGS")
	}

	typed := ex.wit != nil && ex.wit.err == nil && len(ex.wit.params) == len(types)
	stack := make([]uint64, len(args))
	for i, a := range args {
		var err error
		if typed {
			stack[i], err = lowerWIT(ex.wit.params[i].typ, a)
		} else {
			stack[i], err = lowerCore(types[i], a)
		}
		if err != nil {
			return "", err
		}
	}

	Logger().Debug("call", zap.String("function", ex.name), zap.Strings("args", args))
	results, err := ex.fn.Call(h.ctx, stack...)
	if err != nil {
		return "", trap(err)
	}

	out := make([]string, len(results))
	for i, r := range results {
		if typed && ex.wit.result != nil && len(results) == 1 {
			out[i] = liftWIT(ex.wit.result, r)
		} else {
			out[i] = liftCore(def.ResultTypes()[i], r)
		}
	}
	switch len(out) {
	case 0:
		return "", nil
	case 1:
		return out[0], nil
	}
	return codec.EncodeList(out), nil
}

// trap converts an execution failure into a foreign error. The first line
// is the message, the full text with the wasm stack trace is the info.
func trap(err error) *errors.ForeignError {
	msg, _, _ := strings.Cut(err.Error(), "\n")
	var exit *sys.ExitError
	if stderrors.As(err, &exit) {
		fe := errors.NewForeignError(msg, "WASM", "EXIT", codec.FormatInt(int64(exit.ExitCode())))
		fe.Info = err.Error()
		return fe
	}
	fe := errors.NewForeignError(msg, "WASM", "TRAP")
	fe.Info = err.Error()
	return fe
}

// Get reads an exported global.
func (h *Host) Get(name string) (string, error) {
	g, ok := h.globals[host.Qualify(name)]
	if !ok {
		return "", errors.NewForeignError(fmt.Sprintf("can't read %q: no such variable", name), "WASM", "LOOKUP", "VARNAME", name)
	}
	return liftCore(g.Type(), g.Get()), nil
}

// Set writes a mutable exported global.
func (h *Host) Set(name, value string) error {
	g, ok := h.globals[host.Qualify(name)]
	if !ok {
		return errors.NewForeignError(fmt.Sprintf("can't set %q: no such variable", name), "WASM", "LOOKUP", "VARNAME", name)
	}
	mg, ok := g.(api.MutableGlobal)
	if !ok {
		return errors.NewForeignError(fmt.Sprintf("can't set %q: global is immutable", name), "WASM", "IMMUTABLE", name)
	}
	v, err := lowerCore(g.Type(), value)
	if err != nil {
		return err
	}
	mg.Set(v)
	return nil
}

// Unset fails for existing globals, which cannot be removed.
func (h *Host) Unset(name string) error {
	if !h.Exists(name) {
		return nil
	}
	return errors.Unsupported(errors.PhaseHost, "removing global "+name)
}

// Exists reports whether name is an exported global.
func (h *Host) Exists(name string) bool {
	_, ok := h.globals[host.Qualify(name)]
	return ok
}

// Params returns parameters declared in WIT, else the parameter names
// from the module's name section. An export with neither is opaque.
func (h *Host) Params(name string) ([]host.Param, error) {
	ex, ok := h.funcs[host.Qualify(name)]
	if !ok {
		return nil, errors.NotFound(errors.PhaseProbe, "function", name)
	}
	def := ex.fn.Definition()
	types := def.ParamTypes()

	if ex.wit != nil {
		if ex.wit.err != nil {
			return nil, ex.wit.err
		}
		if len(ex.wit.params) != len(types) {
			return nil, errors.New(errors.PhaseProbe, errors.KindInvalidInput).
				Detail("WIT declares %d parameters for %s, the export takes %d", len(ex.wit.params), ex.name, len(types)).
				Build()
		}
		params := make([]host.Param, len(types))
		for i, p := range ex.wit.params {
			params[i] = host.Param{Name: p.name, Type: p.text}
		}
		return params, nil
	}

	names := def.ParamNames()
	if len(names) != len(types) {
		return nil, host.ErrOpaque
	}
	params := make([]host.Param, len(types))
	for i, n := range names {
		if n == "" {
			return nil, host.ErrOpaque
		}
		params[i] = host.Param{Name: n, Type: api.ValueTypeName(types[i])}
	}
	return params, nil
}

// IsCallable reports whether name is an exported function.
func (h *Host) IsCallable(name string) bool {
	_, ok := h.funcs[host.Qualify(name)]
	return ok
}

// Children lists namespaces formed by "::" in export names.
func (h *Host) Children(ns string) ([]string, error) {
	children, ok := h.nss[host.Qualify(ns)]
	if !ok {
		return nil, errors.NotFound(errors.PhaseHost, "namespace", ns)
	}
	out := append([]string(nil), children...)
	sort.Strings(out)
	return out, nil
}

// Callables lists exported functions matching pattern.
func (h *Host) Callables(pattern string) ([]string, error) {
	pattern = host.Qualify(pattern)
	var out []string
	for name := range h.funcs {
		if host.Match(pattern, name) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Globals lists exported globals in sorted order.
func (h *Host) Globals() []string {
	out := make([]string, 0, len(h.globals))
	for name := range h.globals {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Types returns the WIT parameter and result types declared for a
// function. ok is false when no usable WIT declaration exists.
func (h *Host) Types(name string) (params []wit.Type, result wit.Type, ok bool) {
	ex, found := h.funcs[host.Qualify(name)]
	if !found || ex.wit == nil || ex.wit.err != nil {
		return nil, nil, false
	}
	params = make([]wit.Type, len(ex.wit.params))
	for i, p := range ex.wit.params {
		params[i] = p.typ
	}
	return params, ex.wit.result, true
}
