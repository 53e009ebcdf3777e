// Package codec converts between native Go values and the canonical string
// encoding used by the foreign runtime.
//
// Lists are space-separated elements. An element that is empty or holds
// whitespace or list syntax is brace-quoted when its braces balance, and
// backslash-escaped otherwise:
//
//	codec.EncodeList([]string{"a", "b c", ""})   // a {b c} {}
//	codec.EncodeList([]string{"x}"})             // x\}
//
// Mappings are lists read pairwise. Integers are decimal, floats carry
// FloatDigits significant digits and always show a fraction or exponent.
package codec
