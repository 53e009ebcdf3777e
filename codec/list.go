package codec

import (
	"strings"

	"github.com/wippyai/valuebridge/errors"
)

// EncodeList joins elements into a canonical list string.
func EncodeList(items []string) string {
	var b strings.Builder
	for i, item := range items {
		if i > 0 {
			b.WriteByte(' ')
		}
		writeElement(&b, item)
	}
	return b.String()
}

// EncodeElement quotes a single element so that it decodes back to itself.
func EncodeElement(s string) string {
	var b strings.Builder
	writeElement(&b, s)
	return b.String()
}

func writeElement(b *strings.Builder, s string) {
	if s == "" {
		b.WriteString("{}")
		return
	}
	if !needsQuoting(s) {
		b.WriteString(s)
		return
	}
	if canBrace(s) {
		b.WriteByte('{')
		b.WriteString(s)
		b.WriteByte('}')
		return
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		case '\v':
			b.WriteString(`\v`)
		case '\f':
			b.WriteString(`\f`)
		case ' ', '{', '}', '"', '\\', '[', ']', '$', ';':
			b.WriteByte('\\')
			b.WriteByte(c)
		case '#':
			if i == 0 {
				b.WriteByte('\\')
			}
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
}

func needsQuoting(s string) bool {
	if s[0] == '#' {
		return true
	}
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case ' ', '\t', '\n', '\r', '\v', '\f',
			'{', '}', '"', '\\', '[', ']', '$', ';':
			return true
		}
	}
	return false
}

// canBrace reports whether s survives brace quoting unchanged: its braces
// nest properly and it holds no backslash.
func canBrace(s string) bool {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			return false
		case '{':
			depth++
		case '}':
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

// DecodeList splits a canonical list string into its elements.
func DecodeList(s string) ([]string, error) {
	var items []string
	pos := 0
	for {
		for pos < len(s) && isSpace(s[pos]) {
			pos++
		}
		if pos >= len(s) {
			break
		}

		var (
			elem string
			err  error
		)
		switch s[pos] {
		case '{':
			elem, pos, err = readBraced(s, pos)
		case '"':
			elem, pos, err = readQuoted(s, pos)
		default:
			elem, pos = readBare(s, pos)
		}
		if err != nil {
			return nil, err
		}
		items = append(items, elem)
	}
	return items, nil
}

func readBraced(s string, start int) (string, int, error) {
	depth := 1
	pos := start + 1
	for pos < len(s) {
		switch s[pos] {
		case '\\':
			pos++
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				elem := s[start+1 : pos]
				pos++
				if pos < len(s) && !isSpace(s[pos]) {
					return "", 0, errors.MalformedList(s, "list element in braces followed by "+quoteByte(s[pos])+" instead of space", pos)
				}
				return elem, pos, nil
			}
		}
		pos++
	}
	return "", 0, errors.MalformedList(s, "unmatched open brace in list", start)
}

func readQuoted(s string, start int) (string, int, error) {
	var b strings.Builder
	pos := start + 1
	for pos < len(s) {
		c := s[pos]
		if c == '"' {
			pos++
			if pos < len(s) && !isSpace(s[pos]) {
				return "", 0, errors.MalformedList(s, "list element in quotes followed by "+quoteByte(s[pos])+" instead of space", pos)
			}
			return b.String(), pos, nil
		}
		if c == '\\' && pos+1 < len(s) {
			pos++
			b.WriteByte(unescape(s[pos]))
			pos++
			continue
		}
		b.WriteByte(c)
		pos++
	}
	return "", 0, errors.MalformedList(s, "unmatched open quote in list", start)
}

func readBare(s string, pos int) (string, int) {
	var b strings.Builder
	for pos < len(s) && !isSpace(s[pos]) {
		c := s[pos]
		if c == '\\' && pos+1 < len(s) {
			pos++
			b.WriteByte(unescape(s[pos]))
			pos++
			continue
		}
		b.WriteByte(c)
		pos++
	}
	return b.String(), pos
}

func unescape(c byte) byte {
	switch c {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'r':
		return '\r'
	case 'v':
		return '\v'
	case 'f':
		return '\f'
	}
	return c
}

func quoteByte(c byte) string {
	return `"` + string(c) + `"`
}
