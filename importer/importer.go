package importer

import (
	"path"
	"sort"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wippyai/valuebridge/errors"
	"github.com/wippyai/valuebridge/host"
	"github.com/wippyai/valuebridge/signature"
	"github.com/wippyai/valuebridge/trampoline"
	"github.com/wippyai/valuebridge/value"
)

// Skip records a callable or namespace left out of an import.
type Skip struct {
	Err  error
	Name string
}

// Report summarizes an import.
type Report struct {
	Skipped    []Skip
	Imported   int
	Namespaces int
	Excluded   int
}

// Err combines the errors of all skipped callables, nil when none failed.
func (r *Report) Err() error {
	var err error
	for _, s := range r.Skipped {
		err = multierr.Append(err, s.Err)
	}
	return err
}

// Option configures Import.
type Option func(*config)

type config struct {
	cache   *signature.Cache
	log     *zap.Logger
	exclude []string
	target  value.Target
}

// WithExclude skips callables and namespaces whose fully qualified name
// matches any of the glob patterns, e.g. "::tcl::mathop::*".
func WithExclude(patterns ...string) Option {
	return func(c *config) {
		c.exclude = append(c.exclude, patterns...)
	}
}

// WithTarget sets the default result conversion of every imported adapter.
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

// WithLogger logs this import to l instead of the package logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		c.log = l
	}
}

// Import walks the foreign namespace root and its descendants and builds
// an adapter for every callable found. A callable that fails to probe is
// logged and recorded in the report; the import continues. The returned
// error is non-nil only when the namespace tree itself cannot be listed.
func Import(h host.Host, root string, opts ...Option) (*Namespace, *Report, error) {
	cfg := config{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.log == nil {
		cfg.log = Logger()
	}

	if root == "" {
		root = host.Separator
	}
	root = host.Qualify(root)

	imp := &importer{h: h, cfg: cfg, report: &Report{}}
	name := ""
	if root != host.Separator {
		name = host.Tail(root)
	}
	ns := newNamespace(nil, name, root)
	if err := imp.namespace(ns); err != nil {
		return nil, imp.report, err
	}
	cfg.log.Debug("import done",
		zap.String("root", root),
		zap.Int("imported", imp.report.Imported),
		zap.Int("skipped", len(imp.report.Skipped)))
	return ns, imp.report, nil
}

type importer struct {
	h      host.Host
	report *Report
	cfg    config
}

func (imp *importer) excluded(name string) bool {
	for _, p := range imp.cfg.exclude {
		if ok, err := path.Match(p, name); err == nil && ok {
			return true
		}
	}
	return false
}

func (imp *importer) namespace(ns *Namespace) error {
	imp.report.Namespaces++
	imp.cfg.log.Debug("importing namespace", zap.String("namespace", ns.path))

	names, err := imp.h.Callables(host.Join(ns.path, "*"))
	if err != nil {
		return errors.Wrap(errors.PhaseImport, errors.KindInvalidInput, err, "cannot list callables of "+ns.path)
	}
	sort.Strings(names)
	for _, name := range names {
		imp.callable(ns, name)
	}

	children, err := imp.h.Children(ns.path)
	if err != nil {
		return errors.Wrap(errors.PhaseImport, errors.KindInvalidInput, err, "cannot list children of "+ns.path)
	}
	sort.Strings(children)
	for _, child := range children {
		if imp.excluded(child) {
			imp.report.Excluded++
			continue
		}
		tail := host.Tail(child)
		c := newNamespace(ns, tail, host.Qualify(child))
		if err := imp.namespace(c); err != nil {
			return err
		}
		ns.children[tail] = c
	}
	return nil
}

func (imp *importer) callable(ns *Namespace, name string) {
	if imp.excluded(name) {
		imp.report.Excluded++
		return
	}

	opts := []trampoline.Option{trampoline.WithTarget(imp.cfg.target)}
	if imp.cfg.cache != nil {
		opts = append(opts, trampoline.WithCache(imp.cfg.cache))
	}
	a, err := trampoline.New(imp.h, name, opts...)
	if err == nil {
		if prev, dup := ns.funcs[a.FunctionName()]; dup {
			err = errors.New(errors.PhaseImport, errors.KindInvalidInput).
				Value(name).
				Detail("function name %s already taken by %s", a.FunctionName(), prev.Name()).
				Build()
		}
	}
	if err != nil {
		imp.cfg.log.Warn("failed to import callable, continuing",
			zap.String("callable", name),
			zap.Error(err))
		imp.report.Skipped = append(imp.report.Skipped, Skip{Name: name, Err: err})
		return
	}

	ns.funcs[a.FunctionName()] = a
	ns.procs[a.Name()] = a
	imp.report.Imported++
}
