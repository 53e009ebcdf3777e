package wasm

import (
	"bytes"
	"encoding/binary"
)

// FuncType is a function signature.
type FuncType struct {
	Params  []ValType
	Results []ValType
}

// Func is a defined function. Name and Locals feed the name section;
// Locals names parameters first, then declared locals.
type Func struct {
	Name   string
	Locals []string
	Body   []byte // instructions, ending with OpEnd
	Type   uint32
}

// Global is a defined global with a constant initializer.
type Global struct {
	Init    []byte // constant expression, ending with OpEnd
	Type    ValType
	Mutable bool
}

// Export is an exported definition.
type Export struct {
	Name string
	Kind byte
	Idx  uint32
}

// Module is a core module without imports, memories or tables.
type Module struct {
	Types   []FuncType
	Funcs   []Func
	Globals []Global
	Exports []Export
}

// Encode encodes the module to WebAssembly binary format
func (m *Module) Encode() []byte {
	var w bytes.Buffer
	writeU32LE(&w, Magic)
	writeU32LE(&w, Version)

	if len(m.Types) > 0 {
		var sec bytes.Buffer
		WriteLEB128u(&sec, uint32(len(m.Types)))
		for _, ft := range m.Types {
			sec.WriteByte(FuncTypeByte)
			writeValTypes(&sec, ft.Params)
			writeValTypes(&sec, ft.Results)
		}
		writeSection(&w, SectionType, sec.Bytes())
	}

	if len(m.Funcs) > 0 {
		var sec bytes.Buffer
		WriteLEB128u(&sec, uint32(len(m.Funcs)))
		for _, f := range m.Funcs {
			WriteLEB128u(&sec, f.Type)
		}
		writeSection(&w, SectionFunction, sec.Bytes())
	}

	if len(m.Globals) > 0 {
		var sec bytes.Buffer
		WriteLEB128u(&sec, uint32(len(m.Globals)))
		for _, g := range m.Globals {
			sec.WriteByte(byte(g.Type))
			if g.Mutable {
				sec.WriteByte(1)
			} else {
				sec.WriteByte(0)
			}
			sec.Write(g.Init)
		}
		writeSection(&w, SectionGlobal, sec.Bytes())
	}

	if len(m.Exports) > 0 {
		var sec bytes.Buffer
		WriteLEB128u(&sec, uint32(len(m.Exports)))
		for _, e := range m.Exports {
			writeName(&sec, e.Name)
			sec.WriteByte(e.Kind)
			WriteLEB128u(&sec, e.Idx)
		}
		writeSection(&w, SectionExport, sec.Bytes())
	}

	if len(m.Funcs) > 0 {
		var sec bytes.Buffer
		WriteLEB128u(&sec, uint32(len(m.Funcs)))
		for _, f := range m.Funcs {
			var body bytes.Buffer
			WriteLEB128u(&body, 0) // no declared locals
			body.Write(f.Body)
			WriteLEB128u(&sec, uint32(body.Len()))
			sec.Write(body.Bytes())
		}
		writeSection(&w, SectionCode, sec.Bytes())
	}

	if names := m.nameSection(); names != nil {
		writeSection(&w, SectionCustom, names)
	}
	return w.Bytes()
}

func (m *Module) nameSection() []byte {
	var funcs, locals bytes.Buffer
	var nf, nl uint32
	for i, f := range m.Funcs {
		if f.Name != "" {
			WriteLEB128u(&funcs, uint32(i))
			writeName(&funcs, f.Name)
			nf++
		}
		if len(f.Locals) > 0 {
			WriteLEB128u(&locals, uint32(i))
			WriteLEB128u(&locals, uint32(len(f.Locals)))
			for j, name := range f.Locals {
				WriteLEB128u(&locals, uint32(j))
				writeName(&locals, name)
			}
			nl++
		}
	}
	if nf == 0 && nl == 0 {
		return nil
	}

	var sec bytes.Buffer
	writeName(&sec, "name")
	if nf > 0 {
		var sub bytes.Buffer
		WriteLEB128u(&sub, nf)
		sub.Write(funcs.Bytes())
		writeSection(&sec, nameSubFunction, sub.Bytes())
	}
	if nl > 0 {
		var sub bytes.Buffer
		WriteLEB128u(&sub, nl)
		sub.Write(locals.Bytes())
		writeSection(&sec, nameSubLocal, sub.Bytes())
	}
	return sec.Bytes()
}

// I32Const returns a constant expression for an i32 initializer.
func I32Const(v int32) []byte {
	var b bytes.Buffer
	b.WriteByte(OpI32Const)
	WriteLEB128s64(&b, int64(v))
	b.WriteByte(OpEnd)
	return b.Bytes()
}

// I64Const returns a constant expression for an i64 initializer.
func I64Const(v int64) []byte {
	var b bytes.Buffer
	b.WriteByte(OpI64Const)
	WriteLEB128s64(&b, v)
	b.WriteByte(OpEnd)
	return b.Bytes()
}

// F64Const returns a constant expression for an f64 initializer.
func F64Const(v float64) []byte {
	var b bytes.Buffer
	b.WriteByte(OpF64Const)
	WriteFloat64(&b, v)
	b.WriteByte(OpEnd)
	return b.Bytes()
}

func writeSection(w *bytes.Buffer, id byte, content []byte) {
	w.WriteByte(id)
	WriteLEB128u(w, uint32(len(content)))
	w.Write(content)
}

func writeValTypes(w *bytes.Buffer, types []ValType) {
	WriteLEB128u(w, uint32(len(types)))
	for _, t := range types {
		w.WriteByte(byte(t))
	}
}

func writeName(w *bytes.Buffer, s string) {
	WriteLEB128u(w, uint32(len(s)))
	w.WriteString(s)
}

func writeU32LE(w *bytes.Buffer, v uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	w.Write(buf[:])
}
