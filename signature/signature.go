package signature

import (
	stderrors "errors"
	"strings"

	"github.com/wippyai/valuebridge/errors"
	"github.com/wippyai/valuebridge/host"
)

// Signature is the introspected parameter list of a foreign callable.
type Signature struct {
	Name   string // fully qualified foreign name
	Params []host.Param
	Opaque bool // no introspectable parameter list
}

// Probe introspects a callable. A callable the host reports as opaque
// yields an opaque signature, not an error. An unknown name is a
// KindNotFound error.
func Probe(h host.Host, name string) (*Signature, error) {
	if !h.IsCallable(name) {
		return nil, errors.NotFound(errors.PhaseProbe, "callable", name)
	}

	params, err := h.Params(name)
	if stderrors.Is(err, host.ErrOpaque) {
		return &Signature{Name: name, Opaque: true}, nil
	}
	if err != nil {
		return nil, errors.New(errors.PhaseProbe, errors.KindInvalidInput).
			Op(name, "").
			Detail("introspection failed").
			Cause(err).
			Build()
	}

	if err := validate(name, params); err != nil {
		return nil, err
	}
	return &Signature{Name: name, Params: params}, nil
}

func validate(name string, params []host.Param) error {
	seen := make(map[string]bool, len(params))
	for i, p := range params {
		if p.Name == "" {
			return errors.New(errors.PhaseProbe, errors.KindInvalidInput).
				Op(name, "").
				Detail("parameter %d has no name", i).
				Build()
		}
		if seen[p.Name] {
			return errors.New(errors.PhaseProbe, errors.KindInvalidInput).
				Op(name, "").
				Param(p.Name).
				Detail("duplicate parameter").
				Build()
		}
		seen[p.Name] = true

		if p.Variadic && i != len(params)-1 {
			return errors.New(errors.PhaseProbe, errors.KindInvalidInput).
				Op(name, "").
				Param(p.Name).
				Detail("variadic parameter is not last").
				Build()
		}
		if p.HasDefault && strings.IndexByte(p.Default, 0) >= 0 {
			return errors.New(errors.PhaseProbe, errors.KindConversion).
				Convert("default", "string", p.Default).
				Op(name, "").
				Param(p.Name).
				Detail("default holds a NUL byte").
				Build()
		}
	}
	return nil
}

// Variadic returns the trailing variadic parameter, if any.
func (s *Signature) Variadic() (host.Param, bool) {
	if n := len(s.Params); n > 0 && s.Params[n-1].Variadic {
		return s.Params[n-1], true
	}
	return host.Param{}, false
}

// Fixed returns the parameters before the variadic one.
func (s *Signature) Fixed() []host.Param {
	if _, ok := s.Variadic(); ok {
		return s.Params[:len(s.Params)-1]
	}
	return s.Params
}

// Lookup finds a parameter by name.
func (s *Signature) Lookup(name string) (host.Param, bool) {
	for _, p := range s.Params {
		if p.Name == name {
			return p, true
		}
	}
	return host.Param{}, false
}

// Required returns the names of parameters without a default.
func (s *Signature) Required() []string {
	var out []string
	for _, p := range s.Fixed() {
		if !p.HasDefault {
			out = append(out, p.Name)
		}
	}
	return out
}

// String renders the signature as name(a, b=default, rest...).
func (s *Signature) String() string {
	var b strings.Builder
	b.WriteString(FunctionName(s.Name))
	if s.Opaque {
		b.WriteString("(...)")
		return b.String()
	}
	b.WriteByte('(')
	for i, p := range s.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.Name)
		switch {
		case p.Variadic:
			b.WriteString("...")
		case p.HasDefault:
			b.WriteByte('=')
			b.WriteString(p.Default)
		}
		if p.Type != "" {
			b.WriteByte(' ')
			b.WriteString(p.Type)
		}
	}
	b.WriteByte(')')
	return b.String()
}
