package valuebridge

import (
	"strings"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/wippyai/valuebridge/codec"
	"github.com/wippyai/valuebridge/errors"
	"github.com/wippyai/valuebridge/host"
	"github.com/wippyai/valuebridge/importer"
	"github.com/wippyai/valuebridge/signature"
	"github.com/wippyai/valuebridge/trampoline"
	"github.com/wippyai/valuebridge/value"
)

// DefaultCacheSize is the number of probed signatures a Bridge keeps.
const DefaultCacheSize = 512

// TempNamespace holds variables created by TempVar.
const TempNamespace = host.Separator

// Bridge is the entry point over one foreign runtime. It converts Go
// arguments to canonical strings, converts results back, and shares one
// signature cache between its adapters and imports.
type Bridge struct {
	h      host.Host
	cache  *signature.Cache
	target value.Target
}

// Option configures a Bridge.
type Option func(*config)

type config struct {
	cacheSize int
	target    value.Target
}

// WithCacheSize sets the signature cache size.
func WithCacheSize(n int) Option {
	return func(c *config) {
		c.cacheSize = n
	}
}

// WithTarget sets the default result conversion of adapters and imports.
func WithTarget(to value.Target) Option {
	return func(c *config) {
		c.target = to
	}
}

// New creates a bridge over h.
func New(h host.Host, opts ...Option) (*Bridge, error) {
	cfg := config{cacheSize: DefaultCacheSize}
	for _, opt := range opts {
		opt(&cfg)
	}
	cache, err := signature.NewCache(cfg.cacheSize)
	if err != nil {
		return nil, err
	}
	return &Bridge{h: h, cache: cache, target: cfg.target}, nil
}

// Host returns the underlying foreign runtime.
func (b *Bridge) Host() host.Host { return b.h }

// Cache returns the shared signature cache.
func (b *Bridge) Cache() *signature.Cache { return b.cache }

// Eval evaluates a script and returns its result string.
func (b *Bridge) Eval(script string) (string, error) {
	return b.h.Eval(script)
}

// EvalTo evaluates a script and converts the result.
func (b *Bridge) EvalTo(script string, to value.Target) (any, error) {
	s, err := b.h.Eval(script)
	if err != nil {
		return nil, err
	}
	return value.Convert(value.FromString(s), to)
}

// Call calls a foreign callable with positional arguments, each encoded
// to its canonical string. No signature is consulted.
func (b *Bridge) Call(name string, args ...any) (string, error) {
	strs := make([]string, len(args))
	for i, x := range args {
		s, err := codec.Encode(x)
		if err != nil {
			return "", errors.New(errors.PhaseEncode, errors.KindConversion).
				Op(name, "").
				Value(x).
				Cause(err).
				Detail("argument %d", i).
				Build()
		}
		strs[i] = s
	}
	return b.h.Call(name, strs...)
}

// CallTo is Call with a result conversion.
func (b *Bridge) CallTo(to value.Target, name string, args ...any) (any, error) {
	s, err := b.Call(name, args...)
	if err != nil {
		return nil, err
	}
	return value.Convert(value.FromString(s), to)
}

// GetVar reads a variable or array element and converts it. A missing
// location is a KindNotFound error.
func (b *Bridge) GetVar(name string, to value.Target) (any, error) {
	if !b.h.Exists(name) {
		return nil, errors.NotFound(errors.PhaseHost, "variable", name)
	}
	s, err := b.h.Get(name)
	if err != nil {
		return nil, err
	}
	return value.Convert(value.FromString(s), to)
}

// GetVarOr is GetVar returning def when the location does not exist.
// def is returned as given, without conversion.
func (b *Bridge) GetVarOr(name string, def any, to value.Target) (any, error) {
	if !b.h.Exists(name) {
		return def, nil
	}
	return b.GetVar(name, to)
}

// SetVar writes the canonical string of x to a variable or array element.
func (b *Bridge) SetVar(name string, x any) error {
	s, err := codec.Encode(x)
	if err != nil {
		return errors.New(errors.PhaseEncode, errors.KindConversion).
			Path(name).
			Value(x).
			Cause(err).
			Build()
	}
	return b.h.Set(name, s)
}

// Unset removes every named location. Missing names are not errors;
// failures are collected and the remaining names are still removed.
func (b *Bridge) Unset(names ...string) error {
	var err error
	for _, name := range names {
		err = multierr.Append(err, b.h.Unset(name))
	}
	return err
}

// Exists reports whether a variable or array element exists.
func (b *Bridge) Exists(name string) bool {
	return b.h.Exists(name)
}

// Incr adds by to an integer variable, creating it at zero when missing,
// and returns the new value.
func (b *Bridge) Incr(name string, by int64) (int64, error) {
	v, err := value.Var(b.h, name, value.WithDefault(0))
	if err != nil {
		return 0, err
	}
	return v.Incr(by)
}

// Var returns a Value bound to a foreign location.
func (b *Bridge) Var(name string, opts ...value.VarOption) (*value.Value, error) {
	return value.Var(b.h, name, opts...)
}

// Array returns a keyed view over an array variable. The host must
// implement host.ArrayHost.
func (b *Bridge) Array(name string) (*value.ArrayView, error) {
	return value.NewArrayView(b.h, name)
}

// TempVar binds a Value to a fresh uniquely named global variable
// holding x. release unsets the variable.
func (b *Bridge) TempVar(x any) (v *value.Value, release func() error, err error) {
	name := TempNamespace + "vb_tmp_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	v, err = value.Var(b.h, name, value.WithInitial(x))
	if err != nil {
		return nil, nil, err
	}
	return v, func() error { return b.h.Unset(name) }, nil
}

// Proc returns a trampoline for a foreign callable. The signature is
// probed through the bridge's cache.
func (b *Bridge) Proc(name string, opts ...trampoline.Option) (*trampoline.Adapter, error) {
	base := []trampoline.Option{
		trampoline.WithCache(b.cache),
		trampoline.WithTarget(b.target),
	}
	return trampoline.New(b.h, name, append(base, opts...)...)
}

// Import walks a foreign namespace and builds trampolines for its
// callables. See importer.Import.
func (b *Bridge) Import(root string, opts ...importer.Option) (*importer.Namespace, *importer.Report, error) {
	base := []importer.Option{
		importer.WithCache(b.cache),
		importer.WithTarget(b.target),
	}
	return importer.Import(b.h, root, append(base, opts...)...)
}

// Forget drops a cached signature, for a callable redefined after it was
// first probed.
func (b *Bridge) Forget(name string) {
	b.cache.Forget(name)
}
