package trampoline

import (
	"fmt"
	"reflect"
	"sort"

	"go.uber.org/zap"

	"github.com/wippyai/valuebridge/codec"
	"github.com/wippyai/valuebridge/errors"
	"github.com/wippyai/valuebridge/host"
	"github.com/wippyai/valuebridge/signature"
	"github.com/wippyai/valuebridge/value"
)

// TargetKey is the reserved named argument that overrides the result
// conversion for one call. Its value is a value.Target or a target name.
const TargetKey = "to"

// Kwargs carries named arguments in a Call argument list.
type Kwargs map[string]any

// Adapter calls one foreign callable with Go-style positional and named
// arguments, bound against the callable's probed signature.
type Adapter struct {
	h      host.Host
	sig    *signature.Signature
	name   string
	target value.Target
}

// Option configures an Adapter.
type Option func(*config)

type config struct {
	cache  *signature.Cache
	sig    *signature.Signature
	target value.Target
}

// WithTarget sets the default result conversion. The default is a string.
func WithTarget(to value.Target) Option {
	return func(c *config) {
		c.target = to
	}
}

// WithCache probes through a shared signature cache.
func WithCache(cache *signature.Cache) Option {
	return func(c *config) {
		c.cache = cache
	}
}

// WithSignature skips probing and uses sig.
func WithSignature(sig *signature.Signature) Option {
	return func(c *config) {
		c.sig = sig
	}
}

// New probes name once and returns an adapter for it.
func New(h host.Host, name string, opts ...Option) (*Adapter, error) {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	name = host.Qualify(name)
	sig := cfg.sig
	if sig == nil {
		var err error
		if cfg.cache != nil {
			sig, err = cfg.cache.Probe(h, name)
		} else {
			sig, err = signature.Probe(h, name)
		}
		if err != nil {
			return nil, err
		}
	}

	return &Adapter{
		h:      h,
		sig:    sig,
		name:   name,
		target: cfg.target,
	}, nil
}

// Name returns the fully qualified foreign name.
func (a *Adapter) Name() string { return a.name }

// FunctionName returns the Go spelling of the foreign name.
func (a *Adapter) FunctionName() string { return signature.FunctionName(a.name) }

// Signature returns the probed signature.
func (a *Adapter) Signature() *signature.Signature { return a.sig }

// Opaque reports whether the callable has no introspected parameters.
func (a *Adapter) Opaque() bool { return a.sig.Opaque }

// Target returns the default result conversion.
func (a *Adapter) Target() value.Target { return a.target }

// SetTarget changes the default result conversion.
func (a *Adapter) SetTarget(to value.Target) { a.target = to }

func (a *Adapter) String() string {
	return fmt.Sprintf("<adapter %s %s>", a.name, a.sig)
}

// Call invokes the callable. Arguments of type Kwargs are named arguments,
// everything else is positional:
//
//	ab.Call("a_val", trampoline.Kwargs{"b": "b_val"})
func (a *Adapter) Call(args ...any) (any, error) {
	var pos []any
	var named map[string]any
	for _, arg := range args {
		kw, ok := arg.(Kwargs)
		if !ok {
			pos = append(pos, arg)
			continue
		}
		if named == nil {
			named = make(map[string]any, len(kw))
		}
		for k, v := range kw {
			if _, dup := named[k]; dup {
				return nil, errors.BadArgument(a.name, k, "parameter specified more than once")
			}
			named[k] = v
		}
	}
	return a.Invoke(pos, named)
}

// Invoke binds pos and named, calls the foreign callable and converts the
// result. named may hold TargetKey.
func (a *Adapter) Invoke(pos []any, named map[string]any) (any, error) {
	to := a.target
	if x, ok := named[TargetKey]; ok {
		t, err := a.parseTarget(x)
		if err != nil {
			return nil, err
		}
		to = t
	}

	args, err := a.Bind(pos, named)
	if err != nil {
		return nil, err
	}

	raw, err := a.h.Call(a.name, args...)
	if err != nil {
		return nil, err
	}
	return value.Convert(value.FromString(raw), to)
}

func (a *Adapter) parseTarget(x any) (value.Target, error) {
	switch t := x.(type) {
	case value.Target:
		return t, nil
	case string:
		to, err := value.ParseTarget(t)
		if err != nil {
			return 0, errors.BadArgument(a.name, TargetKey, err.Error())
		}
		return to, nil
	}
	return 0, errors.BadArgument(a.name, TargetKey, fmt.Sprintf("conversion target has type %T", x))
}

// Bind returns the positional argument list Invoke would pass to the
// foreign callable. It does not call anything and does not modify its
// inputs. TargetKey in named is ignored.
func (a *Adapter) Bind(pos []any, named map[string]any) ([]string, error) {
	var (
		args []string
		err  error
	)
	if a.sig.Opaque {
		args, err = a.bindOpaque(pos, named)
	} else {
		args, err = a.bindParams(pos, named)
	}
	if err != nil {
		return nil, err
	}
	Logger().Debug("bound call",
		zap.String("callable", a.name),
		zap.Strings("args", args))
	return args, nil
}

func (a *Adapter) bindOpaque(pos []any, named map[string]any) ([]string, error) {
	for _, k := range sortedKeys(named) {
		if k != TargetKey {
			return nil, errors.BadArgument(a.name, k, "named args unsupported for opaque callable")
		}
	}
	return encodeAll(a.name, pos)
}

func (a *Adapter) bindParams(pos []any, named map[string]any) ([]string, error) {
	params := a.sig.Params
	variadic, hasVariadic := a.sig.Variadic()

	keys := sortedKeys(named)
	nNamed := 0
	for _, k := range keys {
		if k == TargetKey {
			continue
		}
		if _, ok := a.sig.Lookup(k); !ok {
			return nil, errors.BadArgument(a.name, k, "unknown named parameter")
		}
		nNamed++
	}

	if len(pos)+nNamed > len(params) && !hasVariadic {
		return nil, errors.New(errors.PhaseCall, errors.KindType).
			Op(a.name, "").
			Value(len(pos)+nNamed).
			Detail("too many arguments: %d given, %d accepted", len(pos)+nNamed, len(params)).
			Build()
	}

	filled := make(map[string]string, len(params))
	var rest []string
	restFilled := false

	for _, k := range keys {
		if k == TargetKey {
			continue
		}
		x := named[k]
		if hasVariadic && k == variadic.Name {
			elems, err := spliceElems(x)
			if err != nil {
				return nil, errors.New(errors.PhaseCall, errors.KindType).
					Op(a.name, "").Param(k).Cause(err).
					Detail("cannot encode argument").Build()
			}
			rest, restFilled = elems, true
			continue
		}
		s, err := encodeArg(a.name, k, x)
		if err != nil {
			return nil, err
		}
		filled[k] = s
	}

	c := 0
	for _, p := range params {
		if p.Variadic {
			if restFilled && c < len(pos) {
				return nil, errors.BadArgument(a.name, p.Name, "too many arguments: variadic parameter also given by name")
			}
			if c < len(pos) {
				tail, err := encodeAll(a.name, pos[c:])
				if err != nil {
					return nil, err
				}
				rest, restFilled = tail, true
				c = len(pos)
			}
			break
		}
		if _, ok := filled[p.Name]; ok {
			continue
		}
		if c < len(pos) {
			s, err := encodeArg(a.name, p.Name, pos[c])
			if err != nil {
				return nil, err
			}
			filled[p.Name] = s
			c++
		}
	}

	for _, p := range params {
		if p.Variadic || !p.HasDefault {
			continue
		}
		if _, ok := filled[p.Name]; !ok {
			filled[p.Name] = p.Default
		}
	}

	out := make([]string, 0, len(params)+len(rest))
	for _, p := range params {
		if p.Variadic {
			out = append(out, rest...)
			break
		}
		s, ok := filled[p.Name]
		if !ok {
			return nil, errors.BadArgument(a.name, p.Name, "required parameter missing")
		}
		out = append(out, s)
	}
	return out, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func encodeArg(callable, param string, x any) (string, error) {
	s, err := codec.Encode(x)
	if err != nil {
		return "", errors.New(errors.PhaseCall, errors.KindType).
			Op(callable, "").
			Param(param).
			Detail("cannot encode argument").
			Cause(err).
			Build()
	}
	return s, nil
}

func encodeAll(callable string, xs []any) ([]string, error) {
	out := make([]string, len(xs))
	for i, x := range xs {
		s, err := encodeArg(callable, fmt.Sprintf("#%d", i), x)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

// spliceElems turns a named variadic argument into its elements. Slices
// contribute one element each; anything else is read as a list.
func spliceElems(x any) ([]string, error) {
	switch t := x.(type) {
	case []string:
		return append([]string(nil), t...), nil
	case *value.Value:
		return t.AsStrings()
	case []byte:
		return codec.DecodeList(string(t))
	}
	rv := reflect.ValueOf(x)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		out := make([]string, rv.Len())
		for i := range out {
			s, err := codec.Encode(rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			out[i] = s
		}
		return out, nil
	}
	s, err := codec.Encode(x)
	if err != nil {
		return nil, err
	}
	return codec.DecodeList(s)
}
