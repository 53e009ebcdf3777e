// Package memhost is an in-memory foreign runtime with Tcl-like syntax.
//
// It keeps scalar and array variables in nested namespaces and runs
// procedures declared with Tcl parameter lists:
//
//	in := memhost.New()
//	in.Proc("ab_test", "a {b b_default}", `return "a is '$a', b is '$b'"`)
//	out, _ := in.Call("ab_test", "x") // a is 'x', b is 'b_default'
//
// Scripts support variable and command substitution, braces, quotes and a
// small set of built-in commands (set, unset, incr, list, llength, lindex,
// concat, expr, if, catch, error, return, proc, global, namespace, array,
// info). Go functions become commands with Register; they run without the
// interpreter lock held, so they may call back into the interpreter.
//
// Failures are *errors.ForeignError values carrying the message, an error
// code list, a traceback and the procedure call stack.
package memhost
