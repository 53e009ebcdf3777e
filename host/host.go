// Package host defines the interface the bridge consumes from a foreign
// runtime. Every value crossing the interface is a canonical string.
package host

import (
	"errors"
	"path"
	"strings"
)

// ErrOpaque is returned by Params for callables whose parameter list
// cannot be introspected (native commands, Go callbacks, unnamed exports).
var ErrOpaque = errors.New("host: callable is opaque")

// Param describes one formal parameter of a foreign callable.
type Param struct {
	Name       string
	Default    string
	Type       string // informational, e.g. a WIT type
	HasDefault bool
	Variadic   bool
}

// Host is a synchronous foreign runtime.
//
// Names are fully qualified with "::" separators; the global namespace is
// "::". Implementations must not hold locks across Call or Eval so that
// callbacks may re-enter the host.
type Host interface {
	Eval(script string) (string, error)
	Call(name string, args ...string) (string, error)

	Get(name string) (string, error)
	Set(name, value string) error
	// Unset removes a variable or array element. A missing name is not an error.
	Unset(name string) error
	Exists(name string) bool

	// Params returns the declared parameters of a callable, or ErrOpaque.
	Params(name string) ([]Param, error)
	IsCallable(name string) bool

	// Children lists the fully qualified child namespaces of ns.
	Children(ns string) ([]string, error)
	// Callables lists fully qualified callables matching a glob pattern
	// such as "::ns::*".
	Callables(pattern string) ([]string, error)
}

// ArrayHost is implemented by hosts with associative array variables.
type ArrayHost interface {
	Host
	// ArrayNames returns the element names of an array variable.
	ArrayNames(name string) ([]string, error)
	// ArrayUnset removes the whole array. A missing array is not an error.
	ArrayUnset(name string) error
}

// Separator is the namespace separator.
const Separator = "::"

// Qualify makes name fully qualified relative to the global namespace.
func Qualify(name string) string {
	if strings.HasPrefix(name, Separator) {
		return name
	}
	return Separator + name
}

// Join joins a namespace and a name.
func Join(ns, name string) string {
	ns = Qualify(ns)
	if ns == Separator {
		return Separator + name
	}
	return ns + Separator + name
}

// Split splits a qualified name into namespace and tail.
// Split("::a::b::c") returns ("::a::b", "c").
func Split(name string) (ns, tail string) {
	name = Qualify(name)
	i := strings.LastIndex(name, Separator)
	ns, tail = name[:i], name[i+len(Separator):]
	if ns == "" {
		ns = Separator
	}
	return ns, tail
}

// Tail returns the part of name after the last separator.
func Tail(name string) string {
	if i := strings.LastIndex(name, Separator); i >= 0 {
		return name[i+len(Separator):]
	}
	return name
}

// Element builds an array element location, "name(key)".
func Element(name, key string) string {
	return name + "(" + key + ")"
}

// ParseElement splits "name(key)" into its array name and key.
// ok is false when loc does not address an element.
func ParseElement(loc string) (name, key string, ok bool) {
	if !strings.HasSuffix(loc, ")") {
		return loc, "", false
	}
	i := strings.IndexByte(loc, '(')
	if i <= 0 {
		return loc, "", false
	}
	return loc[:i], loc[i+1 : len(loc)-1], true
}

// Match reports whether a qualified name matches a glob pattern. Only the
// tail is matched by the glob, the namespace must be equal.
func Match(pattern, name string) bool {
	pns, ptail := Split(pattern)
	ns, tail := Split(name)
	if pns != ns {
		return false
	}
	ok, err := path.Match(ptail, tail)
	return err == nil && ok
}
