package memhost

import (
	"strings"
)

type wordKind uint8

const (
	wordBare wordKind = iota
	wordQuoted
	wordBraced
)

type word struct {
	text string
	kind wordKind
}

type command struct {
	text  string
	words []word
	line  int
}

// parseScript splits a script into commands. Commands end at a newline or
// semicolon outside braces, quotes and brackets. A '#' at the start of a
// command comments out the rest of the line.
func parseScript(script string) ([]command, error) {
	var cmds []command
	line := 1
	i := 0
	for {
		for i < len(script) && (isBlank(script[i]) || script[i] == '\n' || script[i] == ';') {
			if script[i] == '\n' {
				line++
			}
			i++
		}
		if i >= len(script) {
			return cmds, nil
		}
		if script[i] == '#' {
			for i < len(script) && script[i] != '\n' {
				if script[i] == '\\' && i+1 < len(script) {
					i++
				}
				i++
			}
			continue
		}

		start, startLine := i, line
		var words []word
		for {
			for i < len(script) && isBlank(script[i]) {
				i++
			}
			if i+1 < len(script) && script[i] == '\\' && script[i+1] == '\n' {
				i += 2
				line++
				continue
			}
			if i >= len(script) || script[i] == '\n' || script[i] == ';' {
				break
			}
			w, end, err := parseWord(script, i)
			if err != nil {
				return nil, err
			}
			line += strings.Count(script[i:end], "\n")
			words = append(words, w)
			i = end
		}
		cmds = append(cmds, command{
			text:  strings.TrimSpace(script[start:i]),
			words: words,
			line:  startLine,
		})
	}
}

func parseWord(s string, i int) (word, int, error) {
	switch s[i] {
	case '{':
		end, ok := skipBrace(s, i)
		if !ok {
			return word{}, 0, syntaxError("missing close-brace")
		}
		if end < len(s) && !isSeparator(s[end]) {
			return word{}, 0, syntaxError("extra characters after close-brace")
		}
		return word{text: s[i+1 : end-1], kind: wordBraced}, end, nil
	case '"':
		end, ok := skipQuote(s, i)
		if !ok {
			return word{}, 0, syntaxError(`missing "`)
		}
		if end < len(s) && !isSeparator(s[end]) {
			return word{}, 0, syntaxError("extra characters after close-quote")
		}
		return word{text: s[i+1 : end-1], kind: wordQuoted}, end, nil
	}

	j := i
	for j < len(s) && !isSeparator(s[j]) {
		switch s[j] {
		case '\\':
			j += 2
			continue
		case '[':
			end, ok := skipBracket(s, j)
			if !ok {
				return word{}, 0, syntaxError("missing close-bracket")
			}
			j = end
			continue
		}
		j++
	}
	if j > len(s) {
		j = len(s)
	}
	return word{text: s[i:j], kind: wordBare}, j, nil
}

// skipBrace returns the index after the brace matching s[i].
func skipBrace(s string, i int) (int, bool) {
	depth := 0
	for j := i; j < len(s); j++ {
		switch s[j] {
		case '\\':
			j++
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return j + 1, true
			}
		}
	}
	return 0, false
}

// skipBracket returns the index after the bracket matching s[i].
func skipBracket(s string, i int) (int, bool) {
	for j := i + 1; j < len(s); j++ {
		switch s[j] {
		case '\\':
			j++
		case '{':
			end, ok := skipBrace(s, j)
			if !ok {
				return 0, false
			}
			j = end - 1
		case '[':
			end, ok := skipBracket(s, j)
			if !ok {
				return 0, false
			}
			j = end - 1
		case ']':
			return j + 1, true
		}
	}
	return 0, false
}

// skipQuote returns the index after the quote closing s[i]. Quotes inside
// command substitutions do not close the word.
func skipQuote(s string, i int) (int, bool) {
	for j := i + 1; j < len(s); j++ {
		switch s[j] {
		case '\\':
			j++
		case '[':
			end, ok := skipBracket(s, j)
			if !ok {
				return 0, false
			}
			j = end - 1
		case '"':
			return j + 1, true
		}
	}
	return 0, false
}

// varRef parses a variable reference after the '$' at s[i]. It returns
// the variable name, the raw element key and the index after the reference.
func varRef(s string, i int) (name, key string, elem bool, end int, ok bool) {
	j := i + 1
	if j < len(s) && s[j] == '{' {
		k := strings.IndexByte(s[j:], '}')
		if k < 0 {
			return "", "", false, 0, false
		}
		return s[j+1 : j+k], "", false, j + k + 1, true
	}
scan:
	for j < len(s) {
		switch {
		case isNameChar(s[j]):
			j++
		case s[j] == ':' && j+1 < len(s) && s[j+1] == ':':
			j += 2
			for j < len(s) && s[j] == ':' {
				j++
			}
		default:
			break scan
		}
	}
	if j == i+1 {
		return "", "", false, 0, false
	}
	name = s[i+1 : j]
	if j < len(s) && s[j] == '(' {
		depth := 0
		for k := j; k < len(s); k++ {
			switch s[k] {
			case '\\':
				k++
			case '(':
				depth++
			case ')':
				depth--
				if depth == 0 {
					return name, s[j+1 : k], true, k + 1, true
				}
			}
		}
	}
	return name, "", false, j, true
}

func backslash(s string, i int) (string, int) {
	if i+1 >= len(s) {
		return `\`, i + 1
	}
	c := s[i+1]
	switch c {
	case 'n':
		return "\n", i + 2
	case 't':
		return "\t", i + 2
	case 'r':
		return "\r", i + 2
	case 'v':
		return "\v", i + 2
	case 'f':
		return "\f", i + 2
	case 'a':
		return "\a", i + 2
	case 'b':
		return "\b", i + 2
	case '\n':
		j := i + 2
		for j < len(s) && isBlank(s[j]) {
			j++
		}
		return " ", j
	}
	return string(c), i + 2
}

func isBlank(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\v' || c == '\f'
}

func isSeparator(c byte) bool {
	return isBlank(c) || c == '\n' || c == ';'
}

func isNameChar(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}
