package value

import (
	"strings"

	"github.com/wippyai/valuebridge/errors"
)

// Target selects the Go form a value converts to.
type Target uint8

const (
	ToString  Target = iota // string
	ToInt                   // int64
	ToFloat                 // float64
	ToBool                  // bool
	ToList                  // []*Value
	ToStrings               // []string
	ToDict                  // map[string]string, top level only
	ToSet                   // map[string]struct{}
	ToValue                 // *Value, unbound copy
	ToKeyed                 // *Dict over an unbound copy
)

var targetNames = [...]string{
	ToString:  "string",
	ToInt:     "int",
	ToFloat:   "float",
	ToBool:    "bool",
	ToList:    "list",
	ToStrings: "strings",
	ToDict:    "dict",
	ToSet:     "set",
	ToValue:   "value",
	ToKeyed:   "keyed",
}

func (t Target) String() string {
	if int(t) < len(targetNames) {
		return targetNames[t]
	}
	return "unknown"
}

// ParseTarget parses a target name as printed by Target.String.
func ParseTarget(s string) (Target, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for t, n := range targetNames {
		if n == name {
			return Target(t), nil
		}
	}
	return 0, errors.NotFound(errors.PhaseDecode, "conversion target", s)
}

// Convert returns v in the form selected by to.
func Convert(v *Value, to Target) (any, error) {
	switch to {
	case ToString:
		return v.AsString()
	case ToInt:
		return v.AsInt()
	case ToFloat:
		return v.AsFloat()
	case ToBool:
		return v.AsBool()
	case ToList:
		return v.AsList()
	case ToStrings:
		return v.AsStrings()
	case ToDict:
		entries, err := v.AsMapping()
		if err != nil {
			return nil, err
		}
		m := make(map[string]string, len(entries))
		for _, e := range entries {
			m[e.Key] = e.Value.s
		}
		return m, nil
	case ToSet:
		return v.AsSet()
	case ToValue:
		return New(v)
	case ToKeyed:
		c, err := New(v)
		if err != nil {
			return nil, err
		}
		return NewDict(c), nil
	}
	return nil, errors.Unsupported(errors.PhaseDecode, "conversion target "+to.String())
}
