package lisphost

import (
	"strconv"

	"github.com/steelseries/golisp"

	"github.com/wippyai/valuebridge/codec"
)

// FromString reads a canonical string as a lisp datum. Integers and
// floats become numbers only when they print back unchanged, so "007" and
// "0.1" stay strings; golisp floats are 32-bit.
func FromString(s string) *golisp.Data {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil && codec.FormatInt(i) == s {
		return golisp.IntegerWithValue(i)
	}
	if codec.IsFloat(s) {
		f, err := codec.ParseFloat(s)
		if err == nil && codec.FormatFloat(float64(float32(f))) == s {
			return golisp.FloatWithValue(float32(f))
		}
	}
	return golisp.StringWithValue(s)
}

// ToString renders a lisp datum as a canonical string. Lists become
// encoded lists, nil is the empty string and booleans are "1" or "0".
func ToString(d *golisp.Data) string {
	switch {
	case golisp.BooleanP(d):
		return codec.FormatBool(golisp.BooleanValue(d))
	case golisp.NilP(d):
		return ""
	case golisp.IntegerP(d):
		return codec.FormatInt(golisp.IntegerValue(d))
	case golisp.FloatP(d):
		return codec.FormatFloat(float64(golisp.FloatValue(d)))
	case golisp.StringP(d), golisp.SymbolP(d):
		return golisp.StringValue(d)
	case golisp.ListP(d):
		items := golisp.ToArray(d)
		out := make([]string, len(items))
		for i, item := range items {
			out[i] = ToString(item)
		}
		return codec.EncodeList(out)
	}
	return golisp.String(d)
}
