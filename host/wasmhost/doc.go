// Package wasmhost exposes an instantiated WebAssembly core module as a
// foreign runtime.
//
// Exported functions are callables and exported globals are variables.
// Values cross as canonical strings: arguments are parsed into core values
// and results are formatted back, with i32 and i64 read as signed.
//
// Parameter names come from WIT text passed with WithWIT, which also gives
// each parameter a type (bool, s8 to s64, u8 to u64, f32, f64, char) used
// for range checks and result formatting:
//
//	h, err := wasmhost.New(ctx, bin, wasmhost.WithWIT(`
//	    add: func(a: s32, b: s32) -> s32;
//	`))
//
// Without WIT the module's name section supplies parameter names. An
// export described by neither is opaque and can only be called
// positionally. Traps and exits become *errors.ForeignError values.
package wasmhost
