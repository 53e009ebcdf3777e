package importer

import (
	"errors"
	"sort"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	bridgeerrors "github.com/wippyai/valuebridge/errors"
	"github.com/wippyai/valuebridge/host"
	"github.com/wippyai/valuebridge/signature"
	"github.com/wippyai/valuebridge/value"
)

// treeHost is a namespace tree of callables with fixed parameter lists.
type treeHost struct {
	host.Host
	procs map[string][]host.Param
	nss   []string
	calls []string
}

func (t *treeHost) IsCallable(name string) bool {
	_, ok := t.procs[name]
	return ok
}

func (t *treeHost) Params(name string) ([]host.Param, error) {
	p := t.procs[name]
	if p == nil {
		return nil, host.ErrOpaque
	}
	return p, nil
}

func (t *treeHost) Call(name string, args ...string) (string, error) {
	t.calls = append(t.calls, name)
	return name + " " + strings.Join(args, " "), nil
}

func (t *treeHost) Callables(pattern string) ([]string, error) {
	var out []string
	for name := range t.procs {
		if host.Match(pattern, name) {
			out = append(out, name)
		}
	}
	return out, nil
}

func (t *treeHost) Children(ns string) ([]string, error) {
	if ns == "::broken" {
		return nil, errors.New("namespace vanished")
	}
	var out []string
	for _, c := range t.nss {
		if parent, _ := host.Split(c); parent == ns {
			out = append(out, c)
		}
	}
	return out, nil
}

func newTreeHost() *treeHost {
	a := []host.Param{{Name: "a"}}
	return &treeHost{
		procs: map[string][]host.Param{
			"::ab_test":        {{Name: "a"}, {Name: "b", Default: "b_default", HasDefault: true}},
			"::puts":           nil,
			"::string-map":     a,
			"::string_map":     a,
			"::util::exists?":  a,
			"::util::bad":      {{Name: "a", Default: "x\x00y", HasDefault: true}},
			"::util::deep::fn": a,
			"::tcl::mathop::+": nil,
			"::tcl::mathop::-": nil,
			"::other::func":    a,
		},
		nss: []string{"::util", "::util::deep", "::tcl", "::tcl::mathop", "::other"},
	}
}

func TestImport(t *testing.T) {
	h := newTreeHost()
	core, logs := observer.New(zap.WarnLevel)

	ns, report, err := Import(h, "", WithExclude("::tcl"), WithLogger(zap.New(core)))
	if err != nil {
		t.Fatal(err)
	}

	if ns.FullPath() != "::" || ns.Name() != "" || ns.Parent() != nil {
		t.Errorf("root = %q %q", ns.FullPath(), ns.Name())
	}
	if got := ns.Funcs(); strings.Join(got, ",") != "ab_test,puts,string_map" {
		t.Errorf("root Funcs = %v", got)
	}
	if report.Imported != 6 || report.Excluded != 1 || report.Namespaces != 4 {
		t.Errorf("report = %+v", report)
	}
	if ns.Len() != report.Imported {
		t.Errorf("Len = %d, Imported = %d", ns.Len(), report.Imported)
	}

	var skipped []string
	for _, s := range report.Skipped {
		skipped = append(skipped, s.Name)
	}
	sort.Strings(skipped)
	if strings.Join(skipped, ",") != "::string_map,::util::bad" {
		t.Errorf("skipped = %v", skipped)
	}
	if logs.Len() != 2 {
		t.Errorf("warnings logged = %d, want 2", logs.Len())
	}
	if err := report.Err(); !errors.Is(err, bridgeerrors.ErrConversion) || !errors.Is(err, bridgeerrors.ErrInvalidInput) {
		t.Errorf("report.Err = %v", err)
	}

	util := ns.Child("util")
	if util == nil || util.FullPath() != "::util" || util.Parent() != ns {
		t.Fatalf("util = %+v", util)
	}
	if util.Func("exists_question_mark") == nil || util.Proc("::util::exists?") == nil {
		t.Error("util::exists? not imported")
	}
	if ns.Child("tcl") != nil {
		t.Error("excluded namespace imported")
	}
	if ns.Child("other").Func("func_") == nil {
		t.Error("keyword-named callable not imported")
	}

	fn := ns.Resolve("util.deep.fn")
	if fn == nil {
		t.Fatal("Resolve(util.deep.fn) = nil")
	}
	out, err := fn.Call("x")
	if err != nil || out != "::util::deep::fn x" {
		t.Errorf("fn(x) = %q, %v", out, err)
	}
	if ns.Resolve("util.nope.fn") != nil || ns.Resolve("missing") != nil {
		t.Error("Resolve found missing path")
	}
	if len(h.calls) != 1 {
		t.Errorf("import invoked callables: %v", h.calls)
	}
}

func TestImport_Subtree(t *testing.T) {
	h := newTreeHost()
	cache, _ := signature.NewCache(0)

	ns, report, err := Import(h, "util", WithCache(cache), WithTarget(value.ToStrings))
	if err != nil {
		t.Fatal(err)
	}
	if ns.FullPath() != "::util" || ns.Name() != "util" {
		t.Errorf("root = %q %q", ns.FullPath(), ns.Name())
	}
	if report.Imported != 2 || len(report.Skipped) != 1 {
		t.Errorf("report = %+v", report)
	}
	if cache.Len() != 2 {
		t.Errorf("cache Len = %d", cache.Len())
	}

	out, err := ns.Resolve("deep.fn").Call("x")
	if strs, ok := out.([]string); err != nil || !ok || len(strs) != 2 {
		t.Errorf("deep.fn target = %#v, %v", out, err)
	}

	var visited []string
	_ = ns.Walk(func(n *Namespace) error {
		visited = append(visited, n.FullPath())
		return nil
	})
	if strings.Join(visited, " ") != "::util ::util::deep" {
		t.Errorf("Walk = %v", visited)
	}

	stop := errors.New("stop")
	if err := ns.Walk(func(*Namespace) error { return stop }); err != stop {
		t.Errorf("Walk error = %v", err)
	}
}

func TestImport_ListingFailure(t *testing.T) {
	h := newTreeHost()
	h.nss = append(h.nss, "::broken")

	_, _, err := Import(h, "::")
	if !errors.Is(err, bridgeerrors.ErrInvalidInput) {
		t.Fatalf("Import error = %v", err)
	}
	if !strings.Contains(err.Error(), "namespace vanished") {
		t.Errorf("cause lost: %v", err)
	}
}
