// Package valuebridge connects Go to a foreign runtime whose values are
// all strings.
//
// A Bridge wraps a host.Host, such as the in-memory interpreter in
// host/memhost, the golisp environment in host/lisphost or a WebAssembly
// module in host/wasmhost, and offers the operations a Go program needs:
//
//	in := memhost.New()
//	b, _ := valuebridge.New(in)
//	b.SetVar("x", 41)
//	n, _ := b.Incr("x", 1) // 42
//	out, _ := b.EvalTo("llength {a b c}", value.ToInt) // int64(3)
//
// Values live in package value: a Value keeps a canonical string with
// cached typed views and can be bound to a foreign variable so that every
// read and write goes through to it. Dict addresses nested mappings by
// key path and ArrayView shadows an array variable.
//
// Callables are reached through trampolines (package trampoline) that
// probe the callable's parameter list once and then bind Go positional
// and named arguments against it:
//
//	ab, _ := b.Proc("ab_test")
//	ab.Call("x", trampoline.Kwargs{"b": "y"})
//
// Import walks a namespace and builds a trampoline per callable (package
// importer). Signatures are cached per bridge in an LRU cache.
//
// Errors are *errors.Error values classified by Phase and Kind, matched
// with errors.Is against the sentinels in package errors. Failures raised
// inside the foreign runtime arrive as *errors.ForeignError.
package valuebridge
