package wasm

// WebAssembly binary format magic number and version.
const (
	// Magic is the WebAssembly binary magic number ("\0asm" in little-endian).
	Magic uint32 = 0x6D736100

	// Version is the supported WebAssembly binary format version.
	Version uint32 = 0x01
)

// Section IDs. Sections must appear in increasing order by ID, except
// custom sections.
const (
	SectionCustom   byte = 0
	SectionType     byte = 1
	SectionImport   byte = 2
	SectionFunction byte = 3
	SectionGlobal   byte = 6
	SectionExport   byte = 7
	SectionCode     byte = 10
)

// Export descriptor kinds.
const (
	KindFunc   byte = 0
	KindTable  byte = 1
	KindMemory byte = 2
	KindGlobal byte = 3
	KindTag    byte = 4
)

// ValType is a core value type encoding.
type ValType byte

// Core value types.
const (
	ValI32 ValType = 0x7F
	ValI64 ValType = 0x7E
	ValF32 ValType = 0x7D
	ValF64 ValType = 0x7C
)

// FuncTypeByte prefixes a function type in the type section.
const FuncTypeByte byte = 0x60

// Opcodes used by function bodies and constant expressions.
const (
	OpUnreachable byte = 0x00
	OpEnd         byte = 0x0B
	OpLocalGet    byte = 0x20
	OpGlobalGet   byte = 0x23
	OpI32Const    byte = 0x41
	OpI64Const    byte = 0x42
	OpF32Const    byte = 0x43
	OpF64Const    byte = 0x44
	OpI32Eqz      byte = 0x45
	OpI32Add      byte = 0x6A
	OpI32Mul      byte = 0x6C
	OpI32DivS     byte = 0x6D
	OpI64Add      byte = 0x7C
	OpF64Add      byte = 0xA0
	OpF64Mul      byte = 0xA2
)

// Name section subsection IDs.
const (
	nameSubFunction byte = 1
	nameSubLocal    byte = 2
)
