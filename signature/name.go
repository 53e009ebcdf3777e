package signature

import (
	"fmt"
	"go/token"
	"strings"
	"unicode"

	"github.com/wippyai/valuebridge/host"
)

var punctuation = map[rune]string{
	'-': "_",
	':': "_",
	' ': "_",
	'?': "_question_mark",
	'+': "_plus_sign",
	'<': "_less_than",
	'@': "_at_sign",
	'>': "_greater_than",
	'.': "_dot",
	'*': "_star",
	'!': "_bang",
	'=': "_equals",
	'/': "_slash",
	'%': "_percent",
	'&': "_ampersand",
	'$': "_dollar",
	'#': "_hash",
	'~': "_tilde",
	'^': "_caret",
	'|': "_pipe",
	',': "_comma",
}

// FunctionName maps a foreign callable name to a Go-legal identifier.
//
// The namespace prefix is dropped, listed punctuation is spelled out, any
// other rune that cannot appear in an identifier becomes _xHH, a leading
// digit gets a "_" prefix and a Go keyword gets a "_" suffix.
func FunctionName(foreign string) string {
	tail := host.Tail(foreign)
	if tail == "" {
		return "_"
	}

	var b strings.Builder
	for _, r := range tail {
		if sub, ok := punctuation[r]; ok {
			b.WriteString(sub)
			continue
		}
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		fmt.Fprintf(&b, "_x%02X", r)
	}

	name := b.String()
	if unicode.IsDigit([]rune(name)[0]) {
		name = "_" + name
	}
	if token.IsKeyword(name) {
		name += "_"
	}
	return name
}
