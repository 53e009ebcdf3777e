package memhost

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/wippyai/valuebridge/host"
)

// location returns the table holding name in frame f and the key of the
// variable within it. Procedure frames see locals and linked globals;
// namespace frames see qualified variables. Callers hold mu.
func (in *Interp) location(f *frame, name string) (map[string]*variable, string) {
	if f.locals != nil && !strings.Contains(name, host.Separator) {
		if target, ok := f.links[name]; ok {
			return in.vars, target
		}
		return f.locals, name
	}
	return in.vars, qualifyIn(f.ns, name)
}

func (in *Interp) getVar(f *frame, name string) (string, error) {
	in.mu.Lock()
	defer in.mu.Unlock()

	arr, key, elem := host.ParseElement(name)
	table, k := in.location(f, arr)
	v := table[k]
	switch {
	case v == nil:
		return "", foreign(fmt.Sprintf("can't read %q: no such variable", name), "TCL", "LOOKUP", "VARNAME", arr)
	case elem && v.elems == nil:
		return "", foreign(fmt.Sprintf("can't read %q: variable isn't array", name), "TCL", "LOOKUP", "VARNAME", arr)
	case elem:
		s, ok := v.elems[key]
		if !ok {
			return "", foreign(fmt.Sprintf("can't read %q: no such element in array", name), "TCL", "LOOKUP", "VARNAME", arr)
		}
		return s, nil
	case v.elems != nil:
		return "", foreign(fmt.Sprintf("can't read %q: variable is array", name), "TCL", "LOOKUP", "VARNAME", arr)
	}
	return v.scalar, nil
}

func (in *Interp) setVar(f *frame, name, val string) (string, error) {
	in.mu.Lock()
	defer in.mu.Unlock()

	arr, key, elem := host.ParseElement(name)
	table, k := in.location(f, arr)
	if err := in.checkParent(k, name); err != nil {
		return "", err
	}
	v := table[k]
	if elem {
		if v == nil {
			v = &variable{elems: make(map[string]string)}
			table[k] = v
		}
		if v.elems == nil {
			return "", foreign(fmt.Sprintf("can't set %q: variable isn't array", name), "TCL", "LOOKUP", "VARNAME", arr)
		}
		v.elems[key] = val
		return val, nil
	}
	if v != nil && v.elems != nil {
		return "", foreign(fmt.Sprintf("can't set %q: variable is array", name), "TCL", "WRITE", "ARRAY")
	}
	if v == nil {
		table[k] = &variable{scalar: val}
	} else {
		v.scalar = val
	}
	return val, nil
}

// checkParent rejects writes into a namespace that does not exist.
func (in *Interp) checkParent(k, name string) error {
	if !strings.HasPrefix(k, host.Separator) {
		return nil
	}
	ns, _ := host.Split(k)
	if _, ok := in.nss[ns]; !ok {
		return foreign(fmt.Sprintf("can't set %q: parent namespace doesn't exist", name), "TCL", "LOOKUP", "NAMESPACE", ns)
	}
	return nil
}

// unsetVar removes a variable, an array or an element. With complain
// false a missing name is ignored.
func (in *Interp) unsetVar(f *frame, name string, complain bool) error {
	in.mu.Lock()
	defer in.mu.Unlock()

	arr, key, elem := host.ParseElement(name)
	table, k := in.location(f, arr)
	v := table[k]
	if elem && v != nil && v.elems != nil {
		if _, ok := v.elems[key]; ok {
			delete(v.elems, key)
			return nil
		}
	} else if !elem && v != nil {
		delete(table, k)
		return nil
	}
	if !complain {
		return nil
	}
	what := "no such variable"
	if elem && v != nil {
		what = "no such element in array"
	}
	return foreign(fmt.Sprintf("can't unset %q: %s", name, what), "TCL", "LOOKUP", "VARNAME", arr)
}

func (in *Interp) existsVar(f *frame, name string) bool {
	in.mu.Lock()
	defer in.mu.Unlock()

	arr, key, elem := host.ParseElement(name)
	table, k := in.location(f, arr)
	v := table[k]
	if v == nil {
		return false
	}
	if !elem {
		return true
	}
	_, ok := v.elems[key]
	return ok
}

// array returns a copy of an array variable's elements. ok is false when
// the variable does not exist or is a scalar.
func (in *Interp) array(f *frame, name string) (map[string]string, bool) {
	in.mu.Lock()
	defer in.mu.Unlock()

	table, k := in.location(f, name)
	v := table[k]
	if v == nil || v.elems == nil {
		return nil, false
	}
	out := make(map[string]string, len(v.elems))
	for key, val := range v.elems {
		out[key] = val
	}
	return out, true
}

func (in *Interp) arrayNames(f *frame, name, pattern string) ([]string, error) {
	elems, ok := in.array(f, name)
	if !ok {
		if in.existsVar(f, name) {
			return nil, foreign(fmt.Sprintf("%q isn't an array", name), "TCL", "LOOKUP", "ARRAY", name)
		}
		return nil, nil
	}
	keys := make([]string, 0, len(elems))
	for k := range elems {
		if pattern != "" {
			if ok, err := path.Match(pattern, k); err != nil || !ok {
				continue
			}
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Get reads a variable or an array element ("name(key)").
func (in *Interp) Get(name string) (string, error) {
	return in.getVar(in.global, name)
}

// Set writes a variable or an array element, creating it when absent.
func (in *Interp) Set(name, value string) error {
	_, err := in.setVar(in.global, name, value)
	return err
}

// Unset removes a variable, an array or an element. A missing name is not
// an error.
func (in *Interp) Unset(name string) error {
	return in.unsetVar(in.global, name, false)
}

// Exists reports whether a variable, an array or an element exists.
func (in *Interp) Exists(name string) bool {
	return in.existsVar(in.global, name)
}

// ArrayNames returns the sorted element names of an array variable.
func (in *Interp) ArrayNames(name string) ([]string, error) {
	return in.arrayNames(in.global, name, "")
}

// ArrayUnset removes a whole array. Scalars are left alone.
func (in *Interp) ArrayUnset(name string) error {
	if _, ok := in.array(in.global, name); !ok {
		return nil
	}
	return in.unsetVar(in.global, name, false)
}
