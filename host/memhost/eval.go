package memhost

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/wippyai/valuebridge/codec"
	"github.com/wippyai/valuebridge/errors"
	"github.com/wippyai/valuebridge/host"
)

// returnSignal unwinds the current procedure with a result.
type returnSignal struct {
	value string
}

func (r *returnSignal) Error() string { return "return outside of a procedure" }

func foreign(msg string, code ...string) *errors.ForeignError {
	return errors.NewForeignError(msg, code...)
}

func syntaxError(msg string) *errors.ForeignError {
	return foreign(msg, "TCL", "PARSE")
}

func wrongArgs(usage string) *errors.ForeignError {
	return foreign(fmt.Sprintf("wrong # args: should be %q", usage), "TCL", "WRONGARGS")
}

// asForeign converts a callback error into a foreign error. Foreign
// errors and return signals pass through.
func asForeign(err error) error {
	var fe *errors.ForeignError
	var ret *returnSignal
	if stderrors.As(err, &fe) || stderrors.As(err, &ret) {
		return err
	}
	return foreign(err.Error(), "GO", "CALLBACK")
}

const maxTraceCommand = 150

// annotate appends the failing command to the error's traceback, the way
// the foreign runtime reports where an error happened.
func annotate(err error, cmd command, level int) error {
	var fe *errors.ForeignError
	if !stderrors.As(err, &fe) {
		return err
	}
	text := cmd.text
	if len(text) > maxTraceCommand {
		text = text[:maxTraceCommand] + "..."
	}
	if fe.Info == "" {
		fe.Info = fe.Result + "\n    while executing\n\"" + text + "\""
		fe.Line = cmd.line
		fe.Level = level
		fe.Stack = codec.EncodeList([]string{"INNER", text})
	} else {
		fe.Info += "\n    invoked from within\n\"" + text + "\""
	}
	return err
}

func (in *Interp) eval(f *frame, script string) (string, error) {
	cmds, err := parseScript(script)
	if err != nil {
		return "", err
	}
	var result string
	for _, cmd := range cmds {
		args := make([]string, len(cmd.words))
		for i, w := range cmd.words {
			if w.kind == wordBraced {
				args[i] = w.text
				continue
			}
			s, err := in.subst(f, w.text)
			if err != nil {
				f.errLine = cmd.line
				return "", annotate(err, cmd, f.level)
			}
			args[i] = s
		}
		result, err = in.invoke(f, args)
		if err != nil {
			f.errLine = cmd.line
			return "", annotate(err, cmd, f.level)
		}
	}
	return result, nil
}

func (in *Interp) invoke(f *frame, args []string) (string, error) {
	if len(args) == 0 {
		return "", nil
	}
	p := in.lookupProc(f, args[0])
	if p == nil {
		return "", foreign(fmt.Sprintf("invalid command name %q", args[0]), "TCL", "LOOKUP", "COMMAND", args[0])
	}

	in.mu.Lock()
	if in.level >= in.maxDepth {
		in.mu.Unlock()
		return "", foreign("too many nested evaluations (infinite loop?)", "TCL", "LIMIT", "STACK")
	}
	in.level++
	in.mu.Unlock()
	defer func() {
		in.mu.Lock()
		in.level--
		in.mu.Unlock()
	}()

	in.logDispatch(f, p.name, len(args)-1)
	switch {
	case p.builtin != nil:
		return p.builtin(in, f, args[1:])
	case p.fn != nil:
		res, err := p.fn(args[1:])
		if err != nil {
			return "", asForeign(err)
		}
		return res, nil
	}
	return in.callProc(f, p, args[1:])
}

func (in *Interp) callProc(caller *frame, p *proc, args []string) (string, error) {
	fr := &frame{
		locals: make(map[string]*variable, len(p.params)),
		ns:     p.ns,
		level:  caller.level + 1,
	}
	for i, param := range p.params {
		switch {
		case param.Variadic:
			rest := []string{}
			if i < len(args) {
				rest = args[i:]
			}
			fr.locals[param.Name] = &variable{scalar: codec.EncodeList(rest)}
		case i < len(args):
			fr.locals[param.Name] = &variable{scalar: args[i]}
		case param.HasDefault:
			fr.locals[param.Name] = &variable{scalar: param.Default}
		default:
			return "", wrongArgs(usage(p))
		}
	}
	if len(args) > len(p.params) && !variadic(p) {
		return "", wrongArgs(usage(p))
	}

	res, err := in.eval(fr, p.body)
	var ret *returnSignal
	if stderrors.As(err, &ret) {
		return ret.value, nil
	}
	if err != nil {
		var fe *errors.ForeignError
		if stderrors.As(err, &fe) {
			fe.Info += fmt.Sprintf("\n    (procedure %q line %d)", host.Tail(p.name), fr.errLine)
			call := codec.EncodeList(append([]string{host.Tail(p.name)}, args...))
			fe.Stack = strings.TrimSpace(fe.Stack + " CALL " + codec.EncodeElement(call))
		}
		return "", err
	}
	return res, nil
}

func variadic(p *proc) bool {
	return len(p.params) > 0 && p.params[len(p.params)-1].Variadic
}

// usage renders a procedure's call form, "name a ?b? ?arg ...?".
func usage(p *proc) string {
	parts := []string{host.Tail(p.name)}
	for _, param := range p.params {
		switch {
		case param.Variadic:
			parts = append(parts, "?arg ...?")
		case param.HasDefault:
			parts = append(parts, "?"+param.Name+"?")
		default:
			parts = append(parts, param.Name)
		}
	}
	return strings.Join(parts, " ")
}

// subst performs variable, command and backslash substitution.
func (in *Interp) subst(f *frame, s string) (string, error) {
	if !strings.ContainsAny(s, `$[\`) {
		return s, nil
	}
	var b strings.Builder
	for i := 0; i < len(s); {
		switch s[i] {
		case '\\':
			r, next := backslash(s, i)
			b.WriteString(r)
			i = next
		case '$':
			name, key, elem, end, ok := varRef(s, i)
			if !ok {
				b.WriteByte('$')
				i++
				continue
			}
			if elem {
				k, err := in.subst(f, key)
				if err != nil {
					return "", err
				}
				name = host.Element(name, k)
			}
			v, err := in.getVar(f, name)
			if err != nil {
				return "", err
			}
			b.WriteString(v)
			i = end
		case '[':
			end, ok := skipBracket(s, i)
			if !ok {
				return "", syntaxError("missing close-bracket")
			}
			r, err := in.eval(f, s[i+1:end-1])
			if err != nil {
				return "", err
			}
			b.WriteString(r)
			i = end
		default:
			b.WriteByte(s[i])
			i++
		}
	}
	return b.String(), nil
}
