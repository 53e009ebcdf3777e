package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/valuebridge"
	"github.com/wippyai/valuebridge/codec"
	"github.com/wippyai/valuebridge/host"
	"github.com/wippyai/valuebridge/host/lisphost"
	"github.com/wippyai/valuebridge/host/memhost"
	"github.com/wippyai/valuebridge/host/wasmhost"
	"github.com/wippyai/valuebridge/importer"
	"github.com/wippyai/valuebridge/trampoline"
	"github.com/wippyai/valuebridge/value"
)

// kwargs collects repeated -kw name=value flags.
type kwargs trampoline.Kwargs

func (k kwargs) String() string {
	parts := make([]string, 0, len(k))
	for name, v := range k {
		parts = append(parts, fmt.Sprintf("%s=%v", name, v))
	}
	return strings.Join(parts, ",")
}

func (k kwargs) Set(s string) error {
	name, v, ok := strings.Cut(s, "=")
	if !ok || name == "" {
		return fmt.Errorf("want name=value, got %q", s)
	}
	k[name] = v
	return nil
}

type options struct {
	fixture     string
	wasmFile    string
	witFile     string
	lispFile    string
	funcName    string
	eval        string
	to          string
	logLevel    string
	kw          kwargs
	list        bool
	interactive bool
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	// A missing .env is fine.
	_ = godotenv.Load()

	opts := options{kw: kwargs{}}
	flag.StringVar(&opts.fixture, "fixture", envOr("VALUEBRIDGE_FIXTURE", ""), "YAML fixture for the in-memory interpreter")
	flag.StringVar(&opts.wasmFile, "wasm", envOr("VALUEBRIDGE_WASM", ""), "Path to a core wasm module")
	flag.StringVar(&opts.witFile, "wit", envOr("VALUEBRIDGE_WIT", ""), "WIT file typing the module's exports")
	flag.StringVar(&opts.lispFile, "lisp", envOr("VALUEBRIDGE_LISP", ""), "Lisp script to load")
	flag.StringVar(&opts.funcName, "func", "", "Callable to invoke; remaining arguments are positional")
	flag.StringVar(&opts.eval, "eval", "", "Script to evaluate")
	flag.StringVar(&opts.to, "to", "string", "Result conversion (string, int, float, bool, list, dict, ...)")
	flag.StringVar(&opts.logLevel, "log-level", envOr("VALUEBRIDGE_LOG_LEVEL", "warn"), "Log level (debug, info, warn, error)")
	flag.Var(opts.kw, "kw", "Named argument name=value (repeatable)")
	flag.BoolVar(&opts.list, "list", false, "List callables and exit")
	flag.BoolVar(&opts.interactive, "i", false, "Interactive mode with TUI")
	flag.Parse()

	if opts.fixture == "" && opts.wasmFile == "" && opts.lispFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: bridge -fixture <file.yaml> | -wasm <file.wasm> [-wit <file.wit>] | -lisp <file.lisp>")
		fmt.Fprintln(os.Stderr, "       bridge ... -list")
		fmt.Fprintln(os.Stderr, "       bridge ... -func name [-to int] [-kw name=value] [args...]")
		fmt.Fprintln(os.Stderr, "       bridge ... -eval script")
		fmt.Fprintln(os.Stderr, "       bridge ... -i  (interactive mode)")
		os.Exit(1)
	}

	log, err := newLogger(opts.logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	installLogger(log)

	if opts.interactive {
		if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
			fmt.Fprintln(os.Stderr, "Error: interactive mode needs a terminal")
			os.Exit(1)
		}
		if err := runInteractive(opts); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(opts, flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	if lvl == zapcore.DebugLevel {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

func installLogger(l *zap.Logger) {
	importer.SetLogger(l.Named("importer"))
	trampoline.SetLogger(l.Named("trampoline"))
	value.SetLogger(l.Named("value"))
	memhost.SetLogger(l.Named("memhost"))
	lisphost.SetLogger(l.Named("lisphost"))
	wasmhost.SetLogger(l.Named("wasmhost"))
}

// openHost creates the foreign runtime selected by the flags. The
// returned close function releases it.
func openHost(ctx context.Context, opts options) (host.Host, string, func(), error) {
	nop := func() {}
	switch {
	case opts.wasmFile != "":
		bin, err := os.ReadFile(opts.wasmFile)
		if err != nil {
			return nil, "", nop, fmt.Errorf("read file: %w", err)
		}
		hostOpts := []wasmhost.Option{wasmhost.WithModuleName(strings.TrimSuffix(filepath.Base(opts.wasmFile), ".wasm"))}
		if opts.witFile != "" {
			text, err := os.ReadFile(opts.witFile)
			if err != nil {
				return nil, "", nop, fmt.Errorf("read WIT: %w", err)
			}
			hostOpts = append(hostOpts, wasmhost.WithWIT(string(text)))
		}
		h, err := wasmhost.New(ctx, bin, hostOpts...)
		if err != nil {
			return nil, "", nop, err
		}
		return h, opts.wasmFile, func() { _ = h.Close(ctx) }, nil

	case opts.lispFile != "":
		script, err := os.ReadFile(opts.lispFile)
		if err != nil {
			return nil, "", nop, fmt.Errorf("read file: %w", err)
		}
		h := lisphost.New(filepath.Base(opts.lispFile))
		if _, err := h.Eval(string(script)); err != nil {
			return nil, "", nop, fmt.Errorf("load %s: %w", opts.lispFile, err)
		}
		return h, opts.lispFile, nop, nil

	default:
		h, err := memhost.NewFromFixture(opts.fixture)
		if err != nil {
			return nil, "", nop, err
		}
		return h, opts.fixture, nop, nil
	}
}

func run(opts options, args []string) error {
	ctx := context.Background()

	to, err := value.ParseTarget(opts.to)
	if err != nil {
		return err
	}

	h, source, closeHost, err := openHost(ctx, opts)
	if err != nil {
		return err
	}
	defer closeHost()

	b, err := valuebridge.New(h, valuebridge.WithTarget(to))
	if err != nil {
		return err
	}

	fmt.Printf("Source: %s\n", source)

	if opts.list || (opts.funcName == "" && opts.eval == "") {
		return list(b)
	}

	if opts.eval != "" {
		res, err := b.EvalTo(opts.eval, to)
		if err != nil {
			return fmt.Errorf("eval: %w", err)
		}
		return printResult(res)
	}

	callArgs := make([]any, 0, len(args)+1)
	for _, a := range args {
		callArgs = append(callArgs, a)
	}
	if len(opts.kw) > 0 {
		callArgs = append(callArgs, trampoline.Kwargs(opts.kw))
	}

	proc, err := b.Proc(opts.funcName)
	if err != nil {
		return err
	}
	fmt.Printf("\nCalling %s...\n", proc)
	res, err := proc.Call(callArgs...)
	if err != nil {
		return fmt.Errorf("call %s: %w", opts.funcName, err)
	}
	return printResult(res)
}

func list(b *valuebridge.Bridge) error {
	root, report, err := b.Import(host.Separator)
	if err != nil {
		return err
	}
	fmt.Printf("\nCallables: %d in %d namespaces\n", report.Imported, report.Namespaces)
	err = root.Walk(func(ns *importer.Namespace) error {
		for _, name := range ns.Funcs() {
			fmt.Printf("  %s\n", formatSignature(ns.Func(name)))
		}
		return nil
	})
	if err != nil {
		return err
	}
	for _, s := range report.Skipped {
		fmt.Fprintf(os.Stderr, "skipped %s: %v\n", s.Name, s.Err)
	}
	return nil
}

// formatSignature renders "name(a, b: s32 = 1, args...)".
func formatSignature(a *trampoline.Adapter) string {
	sig := a.Signature()
	if sig.Opaque {
		return a.Name() + "(...)"
	}
	parts := make([]string, len(sig.Params))
	for i, p := range sig.Params {
		s := p.Name
		if p.Type != "" {
			s += ": " + p.Type
		}
		if p.HasDefault {
			s += " = " + codec.EncodeElement(p.Default)
		}
		if p.Variadic {
			s += "..."
		}
		parts[i] = s
	}
	return a.Name() + "(" + strings.Join(parts, ", ") + ")"
}

func printResult(res any) error {
	s, err := codec.Encode(res)
	if err != nil {
		fmt.Printf("Result: %v\n", res)
		return nil
	}
	fmt.Printf("Result: %s\n", s)
	return nil
}
