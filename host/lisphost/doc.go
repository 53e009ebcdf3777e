// Package lisphost runs a golisp environment behind the host interface.
//
// Functions defined with Defun record their parameter lists so callers
// can bind arguments by name:
//
//	h := lisphost.New("bridge")
//	h.Defun("add", []host.Param{{Name: "a"}, {Name: "b", Default: "10", HasDefault: true}}, "(+ a b)")
//	out, _ := h.Call("add", "1", "2") // "3"
//
// Arguments that print as canonical integers or floats are passed as lisp
// numbers, everything else as strings. Results come back as canonical
// strings with lists encoded as lists. Primitives and functions created
// by lisp code are opaque.
package lisphost
