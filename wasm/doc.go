// Package wasm reads and writes the small part of the WebAssembly binary
// format the bridge needs.
//
// ParseExports lists a module's exports, which wazero does not do for
// globals. Module assembles core modules from function bodies, globals
// and a name section; tests and examples use it to build fixtures without
// a toolchain:
//
//	m := &wasm.Module{
//	    Types:   []wasm.FuncType{{Params: []wasm.ValType{wasm.ValI32, wasm.ValI32}, Results: []wasm.ValType{wasm.ValI32}}},
//	    Funcs:   []wasm.Func{{Type: 0, Name: "add", Locals: []string{"a", "b"}, Body: []byte{
//	        wasm.OpLocalGet, 0, wasm.OpLocalGet, 1, wasm.OpI32Add, wasm.OpEnd}}},
//	    Exports: []wasm.Export{{Name: "add", Kind: wasm.KindFunc, Idx: 0}},
//	}
//	bin := m.Encode()
package wasm
