package memhost

import (
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/valuebridge/codec"
	"github.com/wippyai/valuebridge/errors"
	"github.com/wippyai/valuebridge/host"
)

// DefaultMaxDepth bounds nested command evaluation.
const DefaultMaxDepth = 1000

// Func is a Go callback registered as a foreign command. It receives the
// command's arguments as canonical strings.
type Func func(args []string) (string, error)

type builtin func(in *Interp, f *frame, args []string) (string, error)

type proc struct {
	builtin builtin
	fn      Func
	name    string
	ns      string
	body    string
	params  []host.Param
}

type variable struct {
	elems  map[string]string // non-nil for arrays
	scalar string
}

type frame struct {
	locals  map[string]*variable // nil at namespace level
	links   map[string]string    // local name to qualified global name
	ns      string
	level   int
	errLine int // line of the last failing command
}

// Interp is an in-memory foreign runtime. Names are qualified with "::";
// relative names resolve against the global namespace. The zero value is
// not usable; call New.
type Interp struct {
	vars     map[string]*variable
	procs    map[string]*proc
	nss      map[string]struct{}
	global   *frame
	level    int
	maxDepth int
	mu       sync.Mutex
}

var _ host.ArrayHost = (*Interp)(nil)

// Option configures an Interp.
type Option func(*Interp)

// WithMaxDepth sets the nesting limit for command evaluation.
func WithMaxDepth(n int) Option {
	return func(in *Interp) {
		if n > 0 {
			in.maxDepth = n
		}
	}
}

// New creates an interpreter with the built-in commands installed.
func New(opts ...Option) *Interp {
	in := &Interp{
		vars:     make(map[string]*variable),
		procs:    make(map[string]*proc),
		nss:      map[string]struct{}{host.Separator: {}},
		global:   &frame{ns: host.Separator},
		maxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(in)
	}
	for name, b := range builtins {
		in.procs[host.Qualify(name)] = &proc{name: host.Qualify(name), ns: host.Separator, builtin: b}
	}
	return in
}

// Eval evaluates a script at global level and returns the result of its
// last command.
func (in *Interp) Eval(script string) (string, error) {
	return finish(in.eval(in.global, script))
}

// Call invokes a command with literal arguments. Arguments are not
// substituted.
func (in *Interp) Call(name string, args ...string) (string, error) {
	return finish(in.invoke(in.global, append([]string{name}, args...)))
}

func finish(res string, err error) (string, error) {
	var ret *returnSignal
	if stderrors.As(err, &ret) {
		return ret.value, nil
	}
	return res, err
}

// Register installs fn as a command. Missing namespaces on the way are
// created. A later Register or proc with the same name replaces it.
func (in *Interp) Register(name string, fn Func) error {
	if fn == nil {
		return errors.InvalidInput(errors.PhaseHost, "nil callback for "+name)
	}
	name = host.Qualify(name)
	in.mu.Lock()
	defer in.mu.Unlock()
	ns, _ := host.Split(name)
	in.createNamespace(ns)
	in.procs[name] = &proc{name: name, ns: ns, fn: fn}
	return nil
}

// Proc defines a procedure from a parameter list such as
// "a {b b_default} args" and a script body.
func (in *Interp) Proc(name, params, body string) error {
	return in.defineProc(host.Separator, name, params, body)
}

func (in *Interp) defineProc(cur, name, params, body string) error {
	ps, err := parseParams(params)
	if err != nil {
		return err
	}
	name = qualifyIn(cur, name)
	in.mu.Lock()
	defer in.mu.Unlock()
	ns, _ := host.Split(name)
	in.createNamespace(ns)
	in.procs[name] = &proc{name: name, ns: ns, params: ps, body: body}
	return nil
}

// parseParams reads a parameter list. An element is a name or a
// {name default} pair; a final "args" collects the remaining arguments.
func parseParams(list string) ([]host.Param, error) {
	elems, err := codec.DecodeList(list)
	if err != nil {
		return nil, foreign(err.Error(), "TCL", "VALUE", "LIST")
	}
	params := make([]host.Param, 0, len(elems))
	for i, e := range elems {
		fields, err := codec.DecodeList(e)
		if err != nil {
			return nil, foreign(err.Error(), "TCL", "VALUE", "LIST")
		}
		switch len(fields) {
		case 0:
			return nil, foreign("argument with no name", "TCL", "OPERATION", "PROC", "FORMALNAME")
		case 1:
			p := host.Param{Name: fields[0]}
			if p.Name == "args" && i == len(elems)-1 {
				p.Variadic = true
			}
			params = append(params, p)
		case 2:
			params = append(params, host.Param{Name: fields[0], Default: fields[1], HasDefault: true})
		default:
			return nil, foreign(fmt.Sprintf("too many fields in argument specifier %q", e), "TCL", "OPERATION", "PROC", "FORMALARGUMENTFORMAT")
		}
	}
	return params, nil
}

// createNamespace adds ns and its ancestors. Callers hold mu.
func (in *Interp) createNamespace(ns string) {
	for ns != host.Separator {
		if _, ok := in.nss[ns]; ok {
			return
		}
		in.nss[ns] = struct{}{}
		ns, _ = host.Split(ns)
	}
}

func (in *Interp) namespaceExists(ns string) bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	_, ok := in.nss[ns]
	return ok
}

// CreateNamespace adds a namespace and its missing ancestors.
func (in *Interp) CreateNamespace(ns string) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.createNamespace(host.Qualify(ns))
}

func qualifyIn(ns, name string) string {
	if strings.HasPrefix(name, host.Separator) {
		return name
	}
	return host.Join(ns, name)
}

func (in *Interp) lookupProc(f *frame, name string) *proc {
	in.mu.Lock()
	defer in.mu.Unlock()
	if strings.HasPrefix(name, host.Separator) {
		return in.procs[name]
	}
	if f.ns != host.Separator {
		if p := in.procs[host.Join(f.ns, name)]; p != nil {
			return p
		}
	}
	return in.procs[host.Qualify(name)]
}

// Params returns the declared parameters of a procedure. Built-in
// commands and registered callbacks are opaque.
func (in *Interp) Params(name string) ([]host.Param, error) {
	p := in.lookupProc(in.global, name)
	if p == nil {
		return nil, errors.NotFound(errors.PhaseHost, "command", name)
	}
	if p.builtin != nil || p.fn != nil {
		return nil, host.ErrOpaque
	}
	return append([]host.Param(nil), p.params...), nil
}

// IsCallable reports whether name is a command.
func (in *Interp) IsCallable(name string) bool {
	return in.lookupProc(in.global, name) != nil
}

// Callables returns commands matching a glob such as "::ns::*", sorted.
func (in *Interp) Callables(pattern string) ([]string, error) {
	pattern = host.Qualify(pattern)
	in.mu.Lock()
	defer in.mu.Unlock()
	var out []string
	for name := range in.procs {
		if host.Match(pattern, name) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Children returns the child namespaces of ns, sorted.
func (in *Interp) Children(ns string) ([]string, error) {
	ns = host.Qualify(ns)
	in.mu.Lock()
	defer in.mu.Unlock()
	if _, ok := in.nss[ns]; !ok {
		return nil, foreign(fmt.Sprintf("namespace %q not found", ns), "TCL", "LOOKUP", "NAMESPACE", ns)
	}
	var out []string
	for c := range in.nss {
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

func (in *Interp) logDispatch(f *frame, name string, argc int) {
	if ce := Logger().Check(zap.DebugLevel, "dispatch"); ce != nil {
		ce.Write(
			zap.String("command", name),
			zap.Int("args", argc),
			zap.Int("level", f.level))
	}
}
