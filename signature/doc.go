// Package signature introspects foreign callables.
//
// Probe asks the host for a callable's declared parameters: ordered
// names, optional defaults and an optional trailing variadic parameter.
// Callables without an introspectable parameter list probe as opaque.
// FunctionName gives every foreign name a deterministic Go spelling.
package signature
