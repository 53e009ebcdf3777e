package value

import (
	"fmt"
	"sort"

	"github.com/wippyai/valuebridge/host"
)

// fakeHost is a minimal variable store with scalars and arrays.
type fakeHost struct {
	vars   map[string]string
	arrays map[string]map[string]string
	reject map[string]bool
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		vars:   map[string]string{},
		arrays: map[string]map[string]string{},
		reject: map[string]bool{},
	}
}

var _ host.ArrayHost = (*fakeHost)(nil)

func (f *fakeHost) Eval(string) (string, error)           { return "", nil }
func (f *fakeHost) Call(string, ...string) (string, error) { return "", nil }

func (f *fakeHost) Get(name string) (string, error) {
	if arr, key, ok := host.ParseElement(name); ok {
		if s, ok := f.arrays[arr][key]; ok {
			return s, nil
		}
		return "", fmt.Errorf("can't read %q: no such element in array", name)
	}
	if _, ok := f.arrays[name]; ok {
		return "", fmt.Errorf("can't read %q: variable is array", name)
	}
	s, ok := f.vars[name]
	if !ok {
		return "", fmt.Errorf("can't read %q: no such variable", name)
	}
	return s, nil
}

func (f *fakeHost) Set(name, val string) error {
	if f.reject[name] {
		return fmt.Errorf("can't set %q: read-only", name)
	}
	if arr, key, ok := host.ParseElement(name); ok {
		if _, scalar := f.vars[arr]; scalar {
			return fmt.Errorf("can't set %q: variable isn't array", name)
		}
		if f.arrays[arr] == nil {
			f.arrays[arr] = map[string]string{}
		}
		f.arrays[arr][key] = val
		return nil
	}
	if _, ok := f.arrays[name]; ok {
		return fmt.Errorf("can't set %q: variable is array", name)
	}
	f.vars[name] = val
	return nil
}

func (f *fakeHost) Unset(name string) error {
	if arr, key, ok := host.ParseElement(name); ok {
		delete(f.arrays[arr], key)
		return nil
	}
	delete(f.vars, name)
	delete(f.arrays, name)
	return nil
}

func (f *fakeHost) Exists(name string) bool {
	if arr, key, ok := host.ParseElement(name); ok {
		_, ok := f.arrays[arr][key]
		return ok
	}
	_, scalar := f.vars[name]
	_, array := f.arrays[name]
	return scalar || array
}

func (f *fakeHost) Params(string) ([]host.Param, error) { return nil, host.ErrOpaque }
func (f *fakeHost) IsCallable(string) bool              { return false }
func (f *fakeHost) Children(string) ([]string, error)   { return nil, nil }
func (f *fakeHost) Callables(string) ([]string, error)  { return nil, nil }

func (f *fakeHost) ArrayNames(name string) ([]string, error) {
	arr, ok := f.arrays[name]
	if !ok {
		return nil, fmt.Errorf("%q isn't an array", name)
	}
	keys := make([]string, 0, len(arr))
	for k := range arr {
		keys = append(keys, k)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	return keys, nil
}

func (f *fakeHost) ArrayUnset(name string) error {
	delete(f.arrays, name)
	return nil
}
