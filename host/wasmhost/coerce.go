package wasmhost

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/tetratelabs/wazero/api"
	"go.bytecodealliance.org/wit"

	"github.com/wippyai/valuebridge/codec"
	"github.com/wippyai/valuebridge/errors"
)

func rangeError(typ, s string) error {
	return errors.New(errors.PhaseCall, errors.KindConversion).
		Convert("string", typ, s).
		Detail("out of range for %s", typ).
		Build()
}

func signed(s, typ string, lo, hi int64) (int64, error) {
	i, err := codec.ParseInt(s)
	if err != nil {
		return 0, errors.Conversion(errors.PhaseCall, "string", typ, s)
	}
	if i < lo || i > hi {
		return 0, rangeError(typ, s)
	}
	return i, nil
}

func unsigned(s, typ string, hi uint64) (uint64, error) {
	t := strings.TrimPrefix(strings.TrimSpace(s), "+")
	u, err := strconv.ParseUint(t, 10, 64)
	if err != nil {
		// hex, octal and binary forms go through the integer codec
		i, ierr := codec.ParseInt(s)
		if ierr != nil {
			return 0, errors.Conversion(errors.PhaseCall, "string", typ, s)
		}
		if i < 0 {
			return 0, rangeError(typ, s)
		}
		u = uint64(i)
	}
	if u > hi {
		return 0, rangeError(typ, s)
	}
	return u, nil
}

func float(s, typ string) (float64, error) {
	f, err := codec.ParseFloat(s)
	if err != nil {
		return 0, errors.Conversion(errors.PhaseCall, "string", typ, s)
	}
	return f, nil
}

// lowerWIT converts a canonical string to the core value of a WIT
// primitive type.
func lowerWIT(t wit.Type, s string) (uint64, error) {
	switch t.(type) {
	case wit.Bool:
		b, err := codec.ParseBool(s)
		if err != nil {
			return 0, err
		}
		if b {
			return 1, nil
		}
		return 0, nil
	case wit.S8:
		i, err := signed(s, "s8", math.MinInt8, math.MaxInt8)
		return api.EncodeI32(int32(i)), err
	case wit.S16:
		i, err := signed(s, "s16", math.MinInt16, math.MaxInt16)
		return api.EncodeI32(int32(i)), err
	case wit.S32:
		i, err := signed(s, "s32", math.MinInt32, math.MaxInt32)
		return api.EncodeI32(int32(i)), err
	case wit.S64:
		i, err := signed(s, "s64", math.MinInt64, math.MaxInt64)
		return api.EncodeI64(i), err
	case wit.U8:
		u, err := unsigned(s, "u8", math.MaxUint8)
		return api.EncodeU32(uint32(u)), err
	case wit.U16:
		u, err := unsigned(s, "u16", math.MaxUint16)
		return api.EncodeU32(uint32(u)), err
	case wit.U32:
		u, err := unsigned(s, "u32", math.MaxUint32)
		return api.EncodeU32(uint32(u)), err
	case wit.U64:
		return unsigned(s, "u64", math.MaxUint64)
	case wit.F32:
		f, err := float(s, "f32")
		return api.EncodeF32(float32(f)), err
	case wit.F64:
		f, err := float(s, "f64")
		return api.EncodeF64(f), err
	case wit.Char:
		r, size := utf8.DecodeRuneInString(s)
		if r == utf8.RuneError || size != len(s) {
			return 0, errors.Conversion(errors.PhaseCall, "string", "char", s)
		}
		return uint64(r), nil
	}
	return 0, errors.Unsupported(errors.PhaseCall, "WIT type")
}

// liftWIT renders a core result as the canonical string of a WIT type.
func liftWIT(t wit.Type, v uint64) string {
	switch t.(type) {
	case wit.Bool:
		return codec.FormatBool(uint32(v) != 0)
	case wit.S8:
		return codec.FormatInt(int64(int8(v)))
	case wit.S16:
		return codec.FormatInt(int64(int16(v)))
	case wit.S32:
		return codec.FormatInt(int64(api.DecodeI32(v)))
	case wit.U8:
		return strconv.FormatUint(uint64(uint8(v)), 10)
	case wit.U16:
		return strconv.FormatUint(uint64(uint16(v)), 10)
	case wit.U32:
		return strconv.FormatUint(uint64(api.DecodeU32(v)), 10)
	case wit.U64:
		return strconv.FormatUint(v, 10)
	case wit.F32:
		return codec.FormatFloat(float64(api.DecodeF32(v)))
	case wit.F64:
		return codec.FormatFloat(api.DecodeF64(v))
	case wit.Char:
		return string(rune(uint32(v)))
	}
	return codec.FormatInt(int64(v))
}

// lowerCore converts a canonical string to a core value type. i32 accepts
// both the signed and the unsigned 32-bit range.
func lowerCore(t api.ValueType, s string) (uint64, error) {
	switch t {
	case api.ValueTypeI32:
		i, err := signed(s, "i32", math.MinInt32, math.MaxUint32)
		return api.EncodeU32(uint32(i)), err
	case api.ValueTypeI64:
		i, err := signed(s, "i64", math.MinInt64, math.MaxInt64)
		return api.EncodeI64(i), err
	case api.ValueTypeF32:
		f, err := float(s, "f32")
		return api.EncodeF32(float32(f)), err
	case api.ValueTypeF64:
		f, err := float(s, "f64")
		return api.EncodeF64(f), err
	}
	return 0, errors.Unsupported(errors.PhaseCall, "value type "+api.ValueTypeName(t))
}

// liftCore renders a core value; integers are signed.
func liftCore(t api.ValueType, v uint64) string {
	switch t {
	case api.ValueTypeI32:
		return codec.FormatInt(int64(api.DecodeI32(v)))
	case api.ValueTypeI64:
		return codec.FormatInt(int64(v))
	case api.ValueTypeF32:
		return codec.FormatFloat(float64(api.DecodeF32(v)))
	case api.ValueTypeF64:
		return codec.FormatFloat(api.DecodeF64(v))
	}
	return strconv.FormatUint(v, 10)
}
