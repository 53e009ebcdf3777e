package importer

import (
	"sort"
	"strings"

	"github.com/wippyai/valuebridge/trampoline"
)

// Namespace is one imported foreign namespace. Callables are reachable by
// their Go function name and by their foreign name; child namespaces by
// the tail of their foreign name.
type Namespace struct {
	funcs    map[string]*trampoline.Adapter
	procs    map[string]*trampoline.Adapter
	children map[string]*Namespace
	parent   *Namespace
	name     string
	path     string
}

func newNamespace(parent *Namespace, name, path string) *Namespace {
	return &Namespace{
		funcs:    make(map[string]*trampoline.Adapter),
		procs:    make(map[string]*trampoline.Adapter),
		children: make(map[string]*Namespace),
		parent:   parent,
		name:     name,
		path:     path,
	}
}

// Name returns the namespace tail, empty for the global namespace.
func (ns *Namespace) Name() string {
	return ns.name
}

// FullPath returns the fully qualified foreign namespace, e.g. "::a::b".
func (ns *Namespace) FullPath() string {
	return ns.path
}

// Parent returns the enclosing namespace, or nil for the import root.
func (ns *Namespace) Parent() *Namespace {
	return ns.parent
}

// Func returns the adapter imported under a Go function name, or nil.
func (ns *Namespace) Func(name string) *trampoline.Adapter {
	return ns.funcs[name]
}

// Proc returns the adapter for a fully qualified foreign name, or nil.
func (ns *Namespace) Proc(foreign string) *trampoline.Adapter {
	return ns.procs[foreign]
}

// Child returns a child namespace by tail, or nil.
func (ns *Namespace) Child(name string) *Namespace {
	return ns.children[name]
}

// Resolve looks up a function by dotted path: "child.grandchild.fn".
func (ns *Namespace) Resolve(path string) *trampoline.Adapter {
	segs := strings.Split(path, ".")
	cur := ns
	for _, seg := range segs[:len(segs)-1] {
		cur = cur.children[seg]
		if cur == nil {
			return nil
		}
	}
	return cur.funcs[segs[len(segs)-1]]
}

// Funcs returns the Go function names of this namespace, sorted.
func (ns *Namespace) Funcs() []string {
	names := make([]string, 0, len(ns.funcs))
	for name := range ns.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Children returns the child namespaces sorted by name.
func (ns *Namespace) Children() []*Namespace {
	out := make([]*Namespace, 0, len(ns.children))
	for _, c := range ns.children {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// Len returns the number of callables in this namespace and below.
func (ns *Namespace) Len() int {
	n := len(ns.funcs)
	for _, c := range ns.children {
		n += c.Len()
	}
	return n
}

// Walk calls fn for ns and then every descendant, depth first in name
// order. A non-nil error from fn stops the walk.
func (ns *Namespace) Walk(fn func(*Namespace) error) error {
	if err := fn(ns); err != nil {
		return err
	}
	for _, c := range ns.Children() {
		if err := c.Walk(fn); err != nil {
			return err
		}
	}
	return nil
}
