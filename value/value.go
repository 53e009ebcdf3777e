package value

import (
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/wippyai/valuebridge/codec"
	"github.com/wippyai/valuebridge/errors"
	"github.com/wippyai/valuebridge/host"
)

// Value is a canonical string with lazily parsed typed views.
//
// A Value may be bound to a foreign variable or array element. A bound
// Value re-reads the location on every access and writes every mutation
// through before returning. The zero Value is the empty string, unbound.
type Value struct {
	s     string
	views views
	bind  *binding
}

type views struct {
	i       int64
	f       float64
	b       bool
	list    []string
	hasInt  bool
	hasFlt  bool
	hasBool bool
	hasList bool
}

type binding struct {
	h       host.Host
	loc     string
	element bool
}

// New encodes a native Go value. A *Value argument is copied, unbound.
func New(x any) (*Value, error) {
	if v, ok := x.(*Value); ok {
		s, err := v.AsString()
		if err != nil {
			return nil, err
		}
		return FromString(s), nil
	}
	s, err := codec.Encode(x)
	if err != nil {
		return nil, err
	}
	return FromString(s), nil
}

// FromString wraps a canonical string.
func FromString(s string) *Value {
	return &Value{s: s}
}

// FromInt creates an integer value.
func FromInt(i int64) *Value {
	return &Value{s: codec.FormatInt(i), views: views{i: i, hasInt: true}}
}

// FromFloat creates a float value.
func FromFloat(f float64) *Value {
	return &Value{s: codec.FormatFloat(f), views: views{f: f, hasFlt: true}}
}

// FromBool creates a boolean value, "1" or "0".
func FromBool(b bool) *Value {
	return FromString(codec.FormatBool(b))
}

// FromList creates a list value from its elements.
func FromList(items []string) *Value {
	return FromString(codec.EncodeList(items))
}

// VarOption configures Var.
type VarOption func(*varConfig)

type varConfig struct {
	def     any
	initial any
	hasDef  bool
	hasInit bool
}

// WithDefault writes x to the location only when it does not exist yet.
func WithDefault(x any) VarOption {
	return func(c *varConfig) {
		c.def = x
		c.hasDef = true
	}
}

// WithInitial always writes x to the location.
func WithInitial(x any) VarOption {
	return func(c *varConfig) {
		c.initial = x
		c.hasInit = true
	}
}

// Var returns a Value bound to an existing or new foreign location.
// Without options the location is left untouched.
func Var(h host.Host, name string, opts ...VarOption) (*Value, error) {
	var cfg varConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	_, _, element := host.ParseElement(name)
	v := &Value{bind: &binding{h: h, loc: name, element: element}}

	switch {
	case cfg.hasInit:
		if err := v.Set(cfg.initial); err != nil {
			return nil, err
		}
	case cfg.hasDef && !h.Exists(name):
		if err := v.Set(cfg.def); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// Bind attaches the value to a foreign location and pushes the current
// string there. There is no unbind.
func (v *Value) Bind(h host.Host, name string) error {
	s, err := v.AsString()
	if err != nil {
		return err
	}
	_, _, element := host.ParseElement(name)
	if err := h.Set(name, s); err != nil {
		return errors.BindingWrite(name, element, err)
	}
	v.bind = &binding{h: h, loc: name, element: element}
	return nil
}

// Location returns the bound location, if any.
func (v *Value) Location() (name string, ok bool) {
	if v.bind == nil {
		return "", false
	}
	return v.bind.loc, true
}

// load refreshes s from the bound location.
func (v *Value) load() error {
	if v.bind == nil {
		return nil
	}
	s, err := v.bind.h.Get(v.bind.loc)
	if err != nil {
		return err
	}
	if s != v.s {
		v.s = s
		v.views = views{}
	}
	return nil
}

// store replaces s and writes it through when bound.
func (v *Value) store(s string) error {
	if v.bind != nil {
		if err := v.bind.h.Set(v.bind.loc, s); err != nil {
			Logger().Debug("write-through rejected",
				zap.String("location", v.bind.loc),
				zap.Error(err))
			return errors.BindingWrite(v.bind.loc, v.bind.element, err)
		}
	}
	if s != v.s {
		v.s = s
		v.views = views{}
	}
	return nil
}

// Set replaces the value with the canonical encoding of x.
func (v *Value) Set(x any) error {
	var s string
	var err error
	if other, ok := x.(*Value); ok {
		s, err = other.AsString()
	} else {
		s, err = codec.Encode(x)
	}
	if err != nil {
		return err
	}
	return v.store(s)
}

// Reset sets the value to the empty string.
func (v *Value) Reset() error {
	return v.store("")
}

// AsString returns the canonical string.
func (v *Value) AsString() (string, error) {
	if err := v.load(); err != nil {
		return "", err
	}
	return v.s, nil
}

// AsInt returns the integer view.
func (v *Value) AsInt() (int64, error) {
	if err := v.load(); err != nil {
		return 0, err
	}
	if !v.views.hasInt {
		i, err := codec.ParseInt(v.s)
		if err != nil {
			return 0, err
		}
		v.views.i, v.views.hasInt = i, true
	}
	return v.views.i, nil
}

// AsFloat returns the float view. Integer strings convert.
func (v *Value) AsFloat() (float64, error) {
	if err := v.load(); err != nil {
		return 0, err
	}
	if !v.views.hasFlt {
		f, err := codec.ParseFloat(v.s)
		if err != nil {
			return 0, err
		}
		v.views.f, v.views.hasFlt = f, true
	}
	return v.views.f, nil
}

// AsBool returns the boolean view.
func (v *Value) AsBool() (bool, error) {
	if err := v.load(); err != nil {
		return false, err
	}
	if !v.views.hasBool {
		b, err := codec.ParseBool(v.s)
		if err != nil {
			return false, err
		}
		v.views.b, v.views.hasBool = b, true
	}
	return v.views.b, nil
}

// AsStrings returns the list view as strings.
func (v *Value) AsStrings() ([]string, error) {
	items, err := v.elements()
	if err != nil {
		return nil, err
	}
	out := make([]string, len(items))
	copy(out, items)
	return out, nil
}

// AsList returns the list view. Elements are new unbound values.
func (v *Value) AsList() ([]*Value, error) {
	items, err := v.elements()
	if err != nil {
		return nil, err
	}
	out := make([]*Value, len(items))
	for i, s := range items {
		out[i] = FromString(s)
	}
	return out, nil
}

// elements returns the cached list view; callers must not modify it.
func (v *Value) elements() ([]string, error) {
	if err := v.load(); err != nil {
		return nil, err
	}
	if !v.views.hasList {
		items, err := codec.DecodeList(v.s)
		if err != nil {
			return nil, err
		}
		v.views.list, v.views.hasList = items, true
	}
	return v.views.list, nil
}

// Entry is one key/value pair of a mapping view.
type Entry struct {
	Value *Value
	Key   string
}

// AsMapping returns the mapping view in encoding order.
func (v *Value) AsMapping() ([]Entry, error) {
	s, err := v.AsString()
	if err != nil {
		return nil, err
	}
	m, err := parseMapping(s)
	if err != nil {
		return nil, err
	}
	out := make([]Entry, len(m.keys))
	for i, k := range m.keys {
		out[i] = Entry{Key: k, Value: FromString(m.vals[k])}
	}
	return out, nil
}

// AsSet returns the distinct list elements.
func (v *Value) AsSet() (map[string]struct{}, error) {
	items, err := v.elements()
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(items))
	for _, s := range items {
		set[s] = struct{}{}
	}
	return set, nil
}

// AsBytes returns the bytes of the canonical string.
func (v *Value) AsBytes() ([]byte, error) {
	s, err := v.AsString()
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}

// Incr adds by to the integer view and returns the new integer. A sum
// outside the int64 range is a KindType error and leaves v unchanged.
func (v *Value) Incr(by int64) (int64, error) {
	i, err := v.AsInt()
	if err != nil {
		return 0, err
	}
	i, err = intOp(OpAdd, i, by, codec.FormatInt(by))
	if err != nil {
		return 0, err
	}
	if err := v.store(codec.FormatInt(i)); err != nil {
		return 0, err
	}
	v.views.i, v.views.hasInt = i, true
	return i, nil
}

// String implements fmt.Stringer. A failed read of a bound location
// renders the last known string.
func (v *Value) String() string {
	_ = v.load()
	return v.s
}

// GoString implements fmt.GoStringer.
func (v *Value) GoString() string {
	return fmt.Sprintf("<value: %s>", quote(v.String()))
}

func quote(s string) string {
	q := strconv.Quote(s)
	return "'" + q[1:len(q)-1] + "'"
}
