package memhost

import (
	stderrors "errors"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/wippyai/valuebridge/codec"
	"github.com/wippyai/valuebridge/errors"
	"github.com/wippyai/valuebridge/host"
)

var builtins = map[string]builtin{
	"array":     cmdArray,
	"catch":     cmdCatch,
	"concat":    cmdConcat,
	"error":     cmdError,
	"expr":      cmdExpr,
	"global":    cmdGlobal,
	"if":        cmdIf,
	"incr":      cmdIncr,
	"info":      cmdInfo,
	"lindex":    cmdLindex,
	"list":      cmdList,
	"llength":   cmdLlength,
	"namespace": cmdNamespace,
	"proc":      cmdProc,
	"return":    cmdReturn,
	"set":       cmdSet,
	"unset":     cmdUnset,
}

func cmdSet(in *Interp, f *frame, args []string) (string, error) {
	switch len(args) {
	case 1:
		return in.getVar(f, args[0])
	case 2:
		return in.setVar(f, args[0], args[1])
	}
	return "", wrongArgs("set varName ?newValue?")
}

func cmdUnset(in *Interp, f *frame, args []string) (string, error) {
	complain := true
	if len(args) > 0 && args[0] == "-nocomplain" {
		complain = false
		args = args[1:]
	}
	for _, name := range args {
		if err := in.unsetVar(f, name, complain); err != nil {
			return "", err
		}
	}
	return "", nil
}

func cmdList(_ *Interp, _ *frame, args []string) (string, error) {
	return codec.EncodeList(args), nil
}

func cmdReturn(_ *Interp, _ *frame, args []string) (string, error) {
	switch len(args) {
	case 0:
		return "", &returnSignal{}
	case 1:
		return "", &returnSignal{value: args[0]}
	}
	return "", wrongArgs("return ?result?")
}

func cmdIncr(in *Interp, f *frame, args []string) (string, error) {
	if len(args) < 1 || len(args) > 2 {
		return "", wrongArgs("incr varName ?increment?")
	}
	by := int64(1)
	if len(args) == 2 {
		n, err := integer(args[1])
		if err != nil {
			return "", err
		}
		by = n
	}
	cur := int64(0)
	if in.existsVar(f, args[0]) {
		s, err := in.getVar(f, args[0])
		if err != nil {
			return "", err
		}
		if cur, err = integer(s); err != nil {
			return "", err
		}
	}
	return in.setVar(f, args[0], codec.FormatInt(cur+by))
}

func integer(s string) (int64, error) {
	n, err := codec.ParseInt(s)
	if err != nil {
		return 0, foreign(fmt.Sprintf("expected integer but got %q", s), "TCL", "VALUE", "NUMBER")
	}
	return n, nil
}

func list(s string) ([]string, error) {
	elems, err := codec.DecodeList(s)
	if err != nil {
		var be *errors.Error
		if stderrors.As(err, &be) {
			return nil, foreign(be.Detail, "TCL", "VALUE", "LIST")
		}
		return nil, foreign(err.Error(), "TCL", "VALUE", "LIST")
	}
	return elems, nil
}

func cmdLlength(_ *Interp, _ *frame, args []string) (string, error) {
	if len(args) != 1 {
		return "", wrongArgs("llength list")
	}
	elems, err := list(args[0])
	if err != nil {
		return "", err
	}
	return codec.FormatInt(int64(len(elems))), nil
}

func cmdLindex(_ *Interp, _ *frame, args []string) (string, error) {
	if len(args) < 1 {
		return "", wrongArgs("lindex list ?index ...?")
	}
	cur := args[0]
	for _, idx := range args[1:] {
		elems, err := list(cur)
		if err != nil {
			return "", err
		}
		i, err := index(idx, len(elems))
		if err != nil {
			return "", err
		}
		if i < 0 || i >= len(elems) {
			return "", nil
		}
		cur = elems[i]
	}
	return cur, nil
}

// index resolves an index such as "2", "end" or "end-1".
func index(s string, n int) (int, error) {
	if s == "end" {
		return n - 1, nil
	}
	if rest, ok := strings.CutPrefix(s, "end-"); ok {
		k, err := codec.ParseInt(rest)
		if err == nil {
			return n - 1 - int(k), nil
		}
	}
	k, err := codec.ParseInt(s)
	if err != nil {
		return 0, foreign(fmt.Sprintf("bad index %q: must be integer?[+-]integer? or end?[+-]integer?", s), "TCL", "VALUE", "INDEX")
	}
	return int(k), nil
}

func cmdConcat(_ *Interp, _ *frame, args []string) (string, error) {
	parts := make([]string, 0, len(args))
	for _, a := range args {
		if t := strings.TrimSpace(a); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " "), nil
}

func cmdError(_ *Interp, _ *frame, args []string) (string, error) {
	if len(args) < 1 || len(args) > 3 {
		return "", wrongArgs("error message ?errorInfo? ?errorCode?")
	}
	fe := foreign(args[0])
	if len(args) >= 2 && args[1] != "" {
		fe.Info = args[1]
	}
	if len(args) == 3 {
		code, err := list(args[2])
		if err != nil {
			return "", err
		}
		if len(code) > 0 {
			fe.Code = code
		}
	}
	return "", fe
}

func cmdProc(in *Interp, f *frame, args []string) (string, error) {
	if len(args) != 3 {
		return "", wrongArgs("proc name args body")
	}
	return "", in.defineProc(f.ns, args[0], args[1], args[2])
}

func cmdGlobal(in *Interp, f *frame, args []string) (string, error) {
	if f.locals == nil {
		return "", nil
	}
	if f.links == nil {
		f.links = make(map[string]string, len(args))
	}
	for _, name := range args {
		f.links[host.Tail(name)] = host.Qualify(name)
	}
	return "", nil
}

func cmdCatch(in *Interp, f *frame, args []string) (string, error) {
	if len(args) < 1 || len(args) > 2 {
		return "", wrongArgs("catch script ?resultVarName?")
	}
	res, err := in.eval(f, args[0])
	code := "0"
	var ret *returnSignal
	var fe *errors.ForeignError
	switch {
	case stderrors.As(err, &ret):
		code, res = "2", ret.value
	case stderrors.As(err, &fe):
		code, res = "1", fe.Result
	case err != nil:
		return "", err
	}
	if len(args) == 2 {
		if _, err := in.setVar(f, args[1], res); err != nil {
			return "", err
		}
	}
	return code, nil
}

func cmdIf(in *Interp, f *frame, args []string) (string, error) {
	for len(args) > 0 {
		if len(args) < 2 {
			return "", wrongArgs("if expr1 ?then? body1 elseif expr2 ?then? body2 elseif ... ?else? ?bodyN?")
		}
		cond, err := in.expr(f, args[0])
		if err != nil {
			return "", err
		}
		ok, err := truth(cond)
		if err != nil {
			return "", err
		}
		args = args[1:]
		if args[0] == "then" {
			args = args[1:]
			if len(args) == 0 {
				return "", wrongArgs("if expr1 ?then? body1")
			}
		}
		if ok {
			return in.eval(f, args[0])
		}
		args = args[1:]
		switch {
		case len(args) == 0:
			return "", nil
		case args[0] == "elseif":
			args = args[1:]
		case args[0] == "else":
			if len(args) != 2 {
				return "", wrongArgs("if expr1 ?then? body1 else bodyN")
			}
			return in.eval(f, args[1])
		default:
			if len(args) != 1 {
				return "", wrongArgs("if expr1 ?then? body1 ?else? ?bodyN?")
			}
			return in.eval(f, args[0])
		}
	}
	return "", nil
}

func cmdExpr(in *Interp, f *frame, args []string) (string, error) {
	if len(args) == 0 {
		return "", wrongArgs("expr arg ?arg ...?")
	}
	return in.expr(f, strings.Join(args, " "))
}

func cmdNamespace(in *Interp, f *frame, args []string) (string, error) {
	if len(args) == 0 {
		return "", wrongArgs("namespace subcommand ?arg ...?")
	}
	switch args[0] {
	case "eval":
		if len(args) < 3 {
			return "", wrongArgs("namespace eval name arg ?arg...?")
		}
		ns := qualifyIn(f.ns, args[1])
		in.CreateNamespace(ns)
		fr := &frame{ns: ns, level: f.level}
		script := args[2]
		if len(args) > 3 {
			script, _ = cmdConcat(in, f, args[2:])
		}
		return in.eval(fr, script)
	case "current":
		return f.ns, nil
	case "children":
		ns := f.ns
		if len(args) > 1 {
			ns = qualifyIn(f.ns, args[1])
		}
		children, err := in.Children(ns)
		if err != nil {
			return "", err
		}
		return codec.EncodeList(children), nil
	case "exists":
		if len(args) != 2 {
			return "", wrongArgs("namespace exists name")
		}
		return codec.FormatBool(in.namespaceExists(qualifyIn(f.ns, args[1]))), nil
	case "qualifiers", "tail":
		if len(args) != 2 {
			return "", wrongArgs("namespace " + args[0] + " string")
		}
		ns, tail := host.Split(args[1])
		if args[0] == "tail" {
			return tail, nil
		}
		if ns == host.Separator {
			return "", nil
		}
		return ns, nil
	}
	return "", foreign(fmt.Sprintf("unknown or ambiguous subcommand %q: must be children, current, eval, exists, qualifiers, or tail", args[0]), "TCL", "LOOKUP", "SUBCOMMAND", args[0])
}

func cmdArray(in *Interp, f *frame, args []string) (string, error) {
	if len(args) < 2 {
		return "", wrongArgs("array subcommand arrayName ?arg ...?")
	}
	sub, name := args[0], args[1]
	pattern := ""
	if len(args) > 2 {
		pattern = args[2]
	}
	switch sub {
	case "exists":
		_, ok := in.array(f, name)
		return codec.FormatBool(ok), nil
	case "names":
		keys, err := in.arrayNames(f, name, pattern)
		if err != nil {
			return "", err
		}
		return codec.EncodeList(keys), nil
	case "size":
		elems, _ := in.array(f, name)
		return codec.FormatInt(int64(len(elems))), nil
	case "get":
		keys, err := in.arrayNames(f, name, pattern)
		if err != nil {
			return "", err
		}
		elems, _ := in.array(f, name)
		out := make([]string, 0, 2*len(keys))
		for _, k := range keys {
			out = append(out, k, elems[k])
		}
		return codec.EncodeList(out), nil
	case "set":
		if len(args) != 3 {
			return "", wrongArgs("array set arrayName list")
		}
		pairs, err := list(args[2])
		if err != nil {
			return "", err
		}
		if len(pairs)%2 != 0 {
			return "", foreign("list must have an even number of elements", "TCL", "ARGUMENT", "FORMAT")
		}
		if in.existsVar(f, name) {
			if _, ok := in.array(f, name); !ok {
				return "", foreign(fmt.Sprintf("can't set %q: variable isn't array", name), "TCL", "LOOKUP", "VARNAME", name)
			}
		} else if err := in.createArray(f, name); err != nil {
			return "", err
		}
		for i := 0; i < len(pairs); i += 2 {
			if _, err := in.setVar(f, host.Element(name, pairs[i]), pairs[i+1]); err != nil {
				return "", err
			}
		}
		return "", nil
	case "unset":
		if pattern == "" {
			if _, ok := in.array(f, name); ok {
				return "", in.unsetVar(f, name, false)
			}
			return "", nil
		}
		keys, err := in.arrayNames(f, name, pattern)
		if err != nil {
			return "", err
		}
		for _, k := range keys {
			if err := in.unsetVar(f, host.Element(name, k), false); err != nil {
				return "", err
			}
		}
		return "", nil
	}
	return "", foreign(fmt.Sprintf("unknown or ambiguous subcommand %q: must be exists, get, names, set, size, or unset", sub), "TCL", "LOOKUP", "SUBCOMMAND", sub)
}

func (in *Interp) createArray(f *frame, name string) error {
	in.mu.Lock()
	defer in.mu.Unlock()
	table, k := in.location(f, name)
	if err := in.checkParent(k, name); err != nil {
		return err
	}
	table[k] = &variable{elems: make(map[string]string)}
	return nil
}

func cmdInfo(in *Interp, f *frame, args []string) (string, error) {
	if len(args) == 0 {
		return "", wrongArgs("info subcommand ?arg ...?")
	}
	switch args[0] {
	case "exists":
		if len(args) != 2 {
			return "", wrongArgs("info exists varName")
		}
		return codec.FormatBool(in.existsVar(f, args[1])), nil
	case "commands", "procs":
		pattern := "*"
		if len(args) > 1 {
			pattern = args[1]
		}
		return codec.EncodeList(in.commands(f, pattern, args[0] == "procs")), nil
	case "args", "body", "default":
		if len(args) < 2 {
			return "", wrongArgs("info " + args[0] + " procname ?arg ...?")
		}
		p := in.lookupProc(f, args[1])
		if p == nil || p.builtin != nil || p.fn != nil {
			return "", foreign(fmt.Sprintf("%q isn't a procedure", args[1]), "TCL", "LOOKUP", "PROCEDURE", args[1])
		}
		return procInfo(in, f, p, args)
	case "level":
		return codec.FormatInt(int64(f.level)), nil
	}
	return "", foreign(fmt.Sprintf("unknown or ambiguous subcommand %q: must be args, body, commands, default, exists, level, or procs", args[0]), "TCL", "LOOKUP", "SUBCOMMAND", args[0])
}

func procInfo(in *Interp, f *frame, p *proc, args []string) (string, error) {
	switch args[0] {
	case "body":
		return p.body, nil
	case "args":
		names := make([]string, len(p.params))
		for i, param := range p.params {
			names[i] = param.Name
		}
		return codec.EncodeList(names), nil
	}
	if len(args) != 4 {
		return "", wrongArgs("info default procname arg varname")
	}
	for _, param := range p.params {
		if param.Name != args[2] {
			continue
		}
		if _, err := in.setVar(f, args[3], param.Default); err != nil {
			return "", err
		}
		return codec.FormatBool(param.HasDefault), nil
	}
	return "", foreign(fmt.Sprintf("procedure %q doesn't have an argument %q", args[1], args[2]), "TCL", "LOOKUP", "ARGUMENT", args[2])
}

// commands lists command names matching pattern. Unqualified patterns
// match in the current and global namespaces and return tails.
func (in *Interp) commands(f *frame, pattern string, procsOnly bool) []string {
	in.mu.Lock()
	defer in.mu.Unlock()
	qualified := strings.HasPrefix(pattern, host.Separator)
	seen := make(map[string]bool)
	var out []string
	for name, p := range in.procs {
		if procsOnly && (p.builtin != nil || p.fn != nil) {
			continue
		}
		ns, tail := host.Split(name)
		var ok bool
		if qualified {
			ok = host.Match(pattern, name)
		} else if ns == f.ns || ns == host.Separator {
			ok, _ = path.Match(pattern, tail)
		}
		if !ok {
			continue
		}
		if !qualified {
			name = tail
		}
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
