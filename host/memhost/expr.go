package memhost

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/wippyai/valuebridge/codec"
	"github.com/wippyai/valuebridge/errors"
	"github.com/wippyai/valuebridge/value"
)

var binaryPrec = map[string]int{
	"||": 1,
	"&&": 2,
	"|":  3,
	"^":  4,
	"&":  5,
	"==": 6, "!=": 6, "eq": 6, "ne": 6,
	"<": 7, ">": 7, "<=": 7, ">=": 7,
	"<<": 8, ">>": 8,
	"+": 9, "-": 9,
	"*": 10, "/": 10, "%": 10,
}

var arithOps = map[string]value.Op{
	"+":  value.OpAdd,
	"-":  value.OpSub,
	"*":  value.OpMul,
	"/":  value.OpDiv,
	"%":  value.OpMod,
	"<<": value.OpLsh,
	">>": value.OpRsh,
	"&":  value.OpAnd,
	"|":  value.OpOr,
	"^":  value.OpXor,
}

// exprParser evaluates an expression while parsing it. Operands are
// substituted as they are reached, so the untaken side of && || and ?:
// is parsed but never evaluated.
type exprParser struct {
	in  *Interp
	f   *frame
	s   string
	pos int
}

func (in *Interp) expr(f *frame, s string) (string, error) {
	p := &exprParser{in: in, f: f, s: s}
	res, err := p.ternary(true)
	if err != nil {
		return "", err
	}
	p.skipSpace()
	if p.pos < len(p.s) {
		return "", p.syntax("extra tokens at end of expression")
	}
	return res, nil
}

func (p *exprParser) syntax(msg string) error {
	return foreign(fmt.Sprintf("invalid expression %q: %s", p.s, msg), "TCL", "PARSE", "EXPR")
}

func (p *exprParser) skipSpace() {
	for p.pos < len(p.s) && (isBlank(p.s[p.pos]) || p.s[p.pos] == '\n') {
		p.pos++
	}
}

func (p *exprParser) ternary(live bool) (string, error) {
	cond, err := p.binary(1, live)
	if err != nil {
		return "", err
	}
	p.skipSpace()
	if p.pos >= len(p.s) || p.s[p.pos] != '?' {
		return cond, nil
	}
	p.pos++
	take := false
	if live {
		if take, err = truth(cond); err != nil {
			return "", err
		}
	}
	yes, err := p.ternary(live && take)
	if err != nil {
		return "", err
	}
	p.skipSpace()
	if p.pos >= len(p.s) || p.s[p.pos] != ':' {
		return "", p.syntax(`missing ":" in ternary`)
	}
	p.pos++
	no, err := p.ternary(live && !take)
	if err != nil {
		return "", err
	}
	if take {
		return yes, nil
	}
	return no, nil
}

func (p *exprParser) binary(minPrec int, live bool) (string, error) {
	left, err := p.unary(live)
	if err != nil {
		return "", err
	}
	for {
		op := p.peekOp()
		prec, ok := binaryPrec[op]
		if !ok || prec < minPrec {
			return left, nil
		}
		p.pos += len(op)

		if op == "&&" || op == "||" {
			lb := false
			if live {
				if lb, err = truth(left); err != nil {
					return "", err
				}
			}
			evalRight := live && (lb == (op == "&&"))
			right, err := p.binary(prec+1, evalRight)
			if err != nil {
				return "", err
			}
			if !live {
				continue
			}
			if !evalRight {
				left = codec.FormatBool(lb)
				continue
			}
			rb, err := truth(right)
			if err != nil {
				return "", err
			}
			left = codec.FormatBool(rb)
			continue
		}

		right, err := p.binary(prec+1, live)
		if err != nil {
			return "", err
		}
		if live {
			if left, err = apply(op, left, right); err != nil {
				return "", err
			}
		}
	}
}

func (p *exprParser) peekOp() string {
	p.skipSpace()
	rest := p.s[p.pos:]
	for _, op := range []string{"||", "&&", "==", "!=", "<=", ">=", "<<", ">>"} {
		if strings.HasPrefix(rest, op) {
			return op
		}
	}
	for _, op := range []string{"eq", "ne"} {
		if strings.HasPrefix(rest, op) && (len(rest) == 2 || !isNameChar(rest[2])) {
			return op
		}
	}
	if rest != "" && strings.IndexByte("|^&<>+-*/%", rest[0]) >= 0 {
		return rest[:1]
	}
	return ""
}

func (p *exprParser) unary(live bool) (string, error) {
	p.skipSpace()
	if p.pos >= len(p.s) {
		return "", p.syntax("premature end of expression")
	}
	c := p.s[p.pos]
	switch c {
	case '!', '-', '+', '~':
		p.pos++
		x, err := p.unary(live)
		if err != nil || !live {
			return "", err
		}
		switch c {
		case '!':
			b, err := truth(x)
			if err != nil {
				return "", err
			}
			return codec.FormatBool(!b), nil
		case '-':
			return apply("-", "0", x)
		case '+':
			return apply("+", "0", x)
		}
		return apply("^", x, "-1")
	}
	return p.primary(live)
}

func (p *exprParser) primary(live bool) (string, error) {
	s, start := p.s, p.pos
	switch s[start] {
	case '(':
		p.pos++
		x, err := p.ternary(live)
		if err != nil {
			return "", err
		}
		p.skipSpace()
		if p.pos >= len(s) || s[p.pos] != ')' {
			return "", p.syntax(`missing ")"`)
		}
		p.pos++
		return x, nil
	case '$':
		_, _, _, end, ok := varRef(s, start)
		if !ok {
			return "", p.syntax("bad variable reference")
		}
		p.pos = end
		return p.substitute(s[start:end], live)
	case '[':
		end, ok := skipBracket(s, start)
		if !ok {
			return "", p.syntax("missing close-bracket")
		}
		p.pos = end
		return p.substitute(s[start:end], live)
	case '"':
		end, ok := skipQuote(s, start)
		if !ok {
			return "", p.syntax(`missing "`)
		}
		p.pos = end
		return p.substitute(s[start+1:end-1], live)
	case '{':
		end, ok := skipBrace(s, start)
		if !ok {
			return "", p.syntax("missing close-brace")
		}
		p.pos = end
		return s[start+1 : end-1], nil
	}

	end := start
	for end < len(s) {
		c := s[end]
		if isNameChar(c) || c == '.' {
			end++
			continue
		}
		if (c == '+' || c == '-') && end > start && (s[end-1] == 'e' || s[end-1] == 'E') &&
			s[start] >= '0' && s[start] <= '9' && !strings.HasPrefix(s[start:], "0x") {
			end++
			continue
		}
		break
	}
	if end == start {
		return "", p.syntax(fmt.Sprintf("unexpected character %q", s[start]))
	}
	p.pos = end
	tok := s[start:end]
	if !codec.IsInt(tok) && !codec.IsFloat(tok) {
		if _, err := codec.ParseBool(tok); err != nil {
			return "", p.syntax(fmt.Sprintf("bareword %q", tok))
		}
	}
	return tok, nil
}

func (p *exprParser) substitute(text string, live bool) (string, error) {
	if !live {
		return "", nil
	}
	return p.in.subst(p.f, text)
}

func apply(op, left, right string) (string, error) {
	switch op {
	case "eq":
		return codec.FormatBool(left == right), nil
	case "ne":
		return codec.FormatBool(left != right), nil
	case "==", "!=", "<", ">", "<=", ">=":
		c, err := value.Compare(left, right)
		if err != nil {
			return "", err
		}
		var r bool
		switch op {
		case "==":
			r = c == 0
		case "!=":
			r = c != 0
		case "<":
			r = c < 0
		case ">":
			r = c > 0
		case "<=":
			r = c <= 0
		default:
			r = c >= 0
		}
		return codec.FormatBool(r), nil
	}

	aop := arithOps[op]
	// Integer division floors in expressions.
	if aop == value.OpDiv && codec.IsInt(left) && codec.IsInt(right) {
		aop = value.OpFloorDiv
	}
	v, err := value.Arith(aop, left, right)
	if err != nil {
		return "", arithError(op, err)
	}
	return v.AsString()
}

func arithError(op string, err error) error {
	var be *errors.Error
	if !stderrors.As(err, &be) {
		return err
	}
	switch be.Kind {
	case errors.KindDivideByZero:
		return foreign("divide by zero", "ARITH", "DIVZERO", "divide by zero")
	case errors.KindType:
		return foreign(fmt.Sprintf("can't use %q as operand of %q", be.Operand, op), "ARITH", "DOMAIN", be.Detail)
	}
	return err
}

func truth(s string) (bool, error) {
	b, err := codec.ParseBool(s)
	if err != nil {
		return false, foreign(fmt.Sprintf("expected boolean value but got %q", s), "TCL", "VALUE", "NUMBER")
	}
	return b, nil
}
