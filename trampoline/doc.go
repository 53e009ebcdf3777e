// Package trampoline calls foreign callables with Go arguments.
//
// An Adapter is built once per callable. Its signature is probed at
// construction and never again. Each call binds positional and named
// arguments against that signature, invokes the callable with the
// assembled string arguments and converts the result to the adapter's
// target:
//
//	ab, err := trampoline.New(h, "ab_test")
//	out, err := ab.Call("a_val", trampoline.Kwargs{"b": "b_val"})
//
// Callables without introspectable parameters are opaque. They accept
// positional arguments only.
//
// The reserved named argument "to" overrides the result conversion for
// one call.
package trampoline
