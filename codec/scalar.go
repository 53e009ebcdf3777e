package codec

import (
	"math"
	"strconv"
	"strings"

	"github.com/wippyai/valuebridge/errors"
)

// FloatDigits is the number of significant digits used for float strings.
const FloatDigits = 17

// FormatInt renders an integer in canonical decimal form.
func FormatInt(i int64) string {
	return strconv.FormatInt(i, 10)
}

// ParseInt parses an integer-shaped string. Surrounding whitespace and a
// sign are accepted, as are 0x, 0o and 0b prefixes.
func ParseInt(s string) (int64, error) {
	t := strings.TrimSpace(s)
	sign := ""
	if t != "" && (t[0] == '+' || t[0] == '-') {
		if t[0] == '-' {
			sign = "-"
		}
		t = t[1:]
	}

	base := 10
	if len(t) > 2 && t[0] == '0' {
		switch t[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 10 {
			t = t[2:]
		}
	}
	if t == "" || t[0] == '+' || t[0] == '-' {
		return 0, errors.Conversion(errors.PhaseDecode, "string", "int", s)
	}

	i, err := strconv.ParseInt(sign+t, base, 64)
	if err != nil {
		return 0, errors.New(errors.PhaseDecode, errors.KindConversion).
			Convert("string", "int", s).
			Cause(err).
			Build()
	}
	return i, nil
}

// IsInt reports whether s is integer-shaped.
func IsInt(s string) bool {
	_, err := ParseInt(s)
	return err == nil
}

// FormatFloat renders a float with FloatDigits significant digits. The
// result always shows a fraction or exponent so it never reads back as an
// integer.
func FormatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "Inf"
	case math.IsInf(f, -1):
		return "-Inf"
	case math.IsNaN(f):
		return "NaN"
	}
	s := strconv.FormatFloat(f, 'g', FloatDigits, 64)
	if strings.ContainsAny(s, ".e") {
		return s
	}
	return s + ".0"
}

// ParseFloat parses a float-shaped or integer-shaped string.
func ParseFloat(s string) (float64, error) {
	if i, err := ParseInt(s); err == nil {
		return float64(i), nil
	}
	t := strings.TrimSpace(s)
	if strings.ContainsRune(t, '_') || strings.HasPrefix(strings.ToLower(strings.TrimLeft(t, "+-")), "0x") {
		return 0, errors.Conversion(errors.PhaseDecode, "string", "float", s)
	}
	f, err := strconv.ParseFloat(t, 64)
	if err != nil {
		return 0, errors.New(errors.PhaseDecode, errors.KindConversion).
			Convert("string", "float", s).
			Cause(err).
			Build()
	}
	return f, nil
}

// IsFloat reports whether s parses as a float but not as an integer.
func IsFloat(s string) bool {
	if IsInt(s) {
		return false
	}
	_, err := ParseFloat(s)
	return err == nil
}

// FormatBool renders a boolean as "1" or "0".
func FormatBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// ParseBool parses a boolean token. Accepted tokens, case-insensitive:
// 1 t true y yes on / 0 f false n no off. Other numeric strings are true
// when nonzero.
func ParseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "t", "true", "y", "yes", "on":
		return true, nil
	case "0", "f", "false", "n", "no", "off":
		return false, nil
	}
	if i, err := ParseInt(s); err == nil {
		return i != 0, nil
	}
	if f, err := ParseFloat(s); err == nil && !math.IsNaN(f) {
		return f != 0, nil
	}
	return false, errors.NotABoolean(s)
}
