package wasmhost

import (
	"regexp"
	"strings"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/valuebridge/errors"
)

// witFunc is one function declaration from WIT text.
type witFunc struct {
	name    string
	params  []witParam
	result  wit.Type
	results string
	err     error // set when a parameter or result type has no core mapping
}

type witParam struct {
	name string
	typ  wit.Type
	text string
}

// primitives maps WIT type names that lower to a single core value.
var primitives = map[string]wit.Type{
	"bool": wit.Bool{},
	"s8":   wit.S8{},
	"u8":   wit.U8{},
	"s16":  wit.S16{},
	"u16":  wit.U16{},
	"s32":  wit.S32{},
	"u32":  wit.U32{},
	"s64":  wit.S64{},
	"u64":  wit.U64{},
	"f32":  wit.F32{},
	"f64":  wit.F64{},
	"char": wit.Char{},
}

var funcDecl = regexp.MustCompile(`^(?:export\s+)?(%?[a-z][a-z0-9-]*)\s*:\s*func\s*\(([^)]*)\)\s*(?:->\s*([^;{]+?))?\s*;?$`)

// parseWIT extracts function declarations from WIT text. Lines that are
// not function declarations (package, interface, world, braces, comments)
// are ignored.
func parseWIT(text string) map[string]*witFunc {
	funcs := make(map[string]*witFunc)
	for _, line := range strings.Split(text, "\n") {
		if i := strings.Index(line, "//"); i >= 0 {
			line = line[:i]
		}
		m := funcDecl.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		fn := &witFunc{name: strings.TrimPrefix(m[1], "%"), results: strings.TrimSpace(m[3])}
		for _, p := range strings.Split(m[2], ",") {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			name, typ, ok := strings.Cut(p, ":")
			name, typ = strings.TrimPrefix(strings.TrimSpace(name), "%"), strings.TrimSpace(typ)
			if !ok || name == "" {
				fn.err = errors.New(errors.PhaseProbe, errors.KindInvalidInput).
					Detail("malformed WIT parameter %q in %s", p, fn.name).Build()
				break
			}
			t, ok := primitives[typ]
			if !ok && fn.err == nil {
				fn.err = errors.New(errors.PhaseProbe, errors.KindUnsupported).
					Param(name).Detail("WIT type %q of %s has no core value mapping", typ, fn.name).Build()
			}
			fn.params = append(fn.params, witParam{name: name, typ: t, text: typ})
		}
		if fn.results != "" {
			t, ok := primitives[fn.results]
			if !ok && fn.err == nil {
				fn.err = errors.New(errors.PhaseProbe, errors.KindUnsupported).
					Detail("WIT result type %q of %s has no core value mapping", fn.results, fn.name).Build()
			}
			fn.result = t
		}
		funcs[fn.name] = fn
	}
	return funcs
}
