package value

import (
	"sort"

	"github.com/wippyai/valuebridge/errors"
	"github.com/wippyai/valuebridge/host"
)

// ArrayView is a mapping view over a foreign array variable. Every
// operation goes to the host; nothing is cached.
type ArrayView struct {
	h         host.ArrayHost
	name      string
	target    Target
	hasTarget bool
}

// NewArrayView returns a view over the array variable name. The host must
// support arrays.
func NewArrayView(h host.Host, name string) (*ArrayView, error) {
	ah, ok := h.(host.ArrayHost)
	if !ok {
		return nil, errors.Unsupported(errors.PhaseHost, "host has no array variables")
	}
	return &ArrayView{h: ah, name: name}, nil
}

// Name returns the array variable name.
func (a *ArrayView) Name() string {
	return a.name
}

// SetTarget sets the conversion applied by Items.
func (a *ArrayView) SetTarget(to Target) {
	a.target = to
	a.hasTarget = true
}

func (a *ArrayView) elem(key string) string {
	return host.Element(a.name, key)
}

// Get returns element key. A missing element is a KindKey error.
func (a *ArrayView) Get(key string) (*Value, error) {
	loc := a.elem(key)
	if !a.h.Exists(loc) {
		return nil, errors.KeyMissing([]string{key}, 0)
	}
	s, err := a.h.Get(loc)
	if err != nil {
		return nil, err
	}
	return FromString(s), nil
}

// GetOr returns element key converted to the target, or def when the
// element does not exist.
func (a *ArrayView) GetOr(key string, def any, to Target) (any, error) {
	if !a.h.Exists(a.elem(key)) {
		if def == nil {
			return nil, nil
		}
		dv, err := New(def)
		if err != nil {
			return nil, err
		}
		return Convert(dv, to)
	}
	v, err := a.Get(key)
	if err != nil {
		return nil, err
	}
	return Convert(v, to)
}

// Bound returns a value bound to element key.
func (a *ArrayView) Bound(key string) (*Value, error) {
	return Var(a.h, a.elem(key))
}

// Set writes element key.
func (a *ArrayView) Set(key string, x any) error {
	s, err := stringOf(x)
	if err != nil {
		return err
	}
	loc := a.elem(key)
	if err := a.h.Set(loc, s); err != nil {
		return errors.BindingWrite(loc, true, err)
	}
	return nil
}

// Delete removes element key. A missing element is not an error.
func (a *ArrayView) Delete(key string) error {
	return a.h.Unset(a.elem(key))
}

// Contains reports whether element key exists.
func (a *ArrayView) Contains(key string) bool {
	return a.h.Exists(a.elem(key))
}

// Keys returns the element names, sorted.
func (a *ArrayView) Keys() ([]string, error) {
	if !a.h.Exists(a.name) {
		return nil, nil
	}
	keys, err := a.h.ArrayNames(a.name)
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}

// Len returns the number of elements.
func (a *ArrayView) Len() (int, error) {
	keys, err := a.Keys()
	return len(keys), err
}

// Items returns the elements in key order.
func (a *ArrayView) Items() ([]Item, error) {
	keys, err := a.Keys()
	if err != nil {
		return nil, err
	}
	out := make([]Item, 0, len(keys))
	for _, k := range keys {
		v, err := a.Get(k)
		if err != nil {
			return nil, err
		}
		item := Item{Key: k, Value: v}
		if a.hasTarget {
			if item.Value, err = Convert(v, a.target); err != nil {
				return nil, err
			}
		}
		out = append(out, item)
	}
	return out, nil
}

// Pop removes element key and returns its value.
func (a *ArrayView) Pop(key string) (*Value, error) {
	v, err := a.Get(key)
	if err != nil {
		return nil, err
	}
	if err := a.Delete(key); err != nil {
		return nil, err
	}
	return v, nil
}

// Clear removes the whole array.
func (a *ArrayView) Clear() error {
	return a.h.ArrayUnset(a.name)
}
