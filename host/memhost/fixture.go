package memhost

import (
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/wippyai/valuebridge/errors"
	"github.com/wippyai/valuebridge/host"
)

// Fixture declares the initial state of an interpreter.
//
//	namespaces: ["::util"]
//	vars:
//	  greeting: hello
//	arrays:
//	  colors: {red: "#f00"}
//	procs:
//	  - name: ab_test
//	    params: "a {b b_default}"
//	    body: return "a is '$a', b is '$b'"
//	script: |
//	  set counter 0
type Fixture struct {
	Vars       map[string]string            `yaml:"vars,omitempty"`
	Arrays     map[string]map[string]string `yaml:"arrays,omitempty"`
	Script     string                       `yaml:"script,omitempty"`
	Namespaces []string                     `yaml:"namespaces,omitempty"`
	Procs      []ProcDef                    `yaml:"procs,omitempty"`
}

// ProcDef declares one procedure.
type ProcDef struct {
	Name   string `yaml:"name"`
	Params string `yaml:"params,omitempty"`
	Body   string `yaml:"body"`
}

// LoadFixture reads and parses a fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseHost, errors.KindInvalidInput, err, "reading fixture "+path)
	}
	return ParseFixture(data, path)
}

// ParseFixture parses fixture content. path is used only for error
// messages.
func ParseFixture(data []byte, path string) (*Fixture, error) {
	var fx Fixture
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return nil, errors.Wrap(errors.PhaseHost, errors.KindInvalidInput, err, "parsing fixture "+path)
	}
	for i, p := range fx.Procs {
		if p.Name == "" {
			return nil, errors.New(errors.PhaseHost, errors.KindInvalidInput).
				Value(path).
				Detail("procs[%d]: name is required", i).
				Build()
		}
	}
	return &fx, nil
}

// Apply declares the fixture's namespaces, variables, arrays and procs in
// that order, then evaluates its script.
func (fx *Fixture) Apply(in *Interp) error {
	for _, ns := range fx.Namespaces {
		in.CreateNamespace(ns)
	}
	for _, name := range sortedKeys(fx.Vars) {
		if err := in.Set(name, fx.Vars[name]); err != nil {
			return err
		}
	}
	for _, name := range sortedKeys(fx.Arrays) {
		elems := fx.Arrays[name]
		if err := in.createArray(in.global, name); err != nil {
			return err
		}
		for _, key := range sortedKeys(elems) {
			if err := in.Set(host.Element(name, key), elems[key]); err != nil {
				return err
			}
		}
	}
	for _, p := range fx.Procs {
		if err := in.Proc(p.Name, p.Params, p.Body); err != nil {
			return err
		}
	}
	if fx.Script != "" {
		if _, err := in.Eval(fx.Script); err != nil {
			return err
		}
	}
	return nil
}

// NewFromFixture creates an interpreter and applies the fixture at path.
func NewFromFixture(path string, opts ...Option) (*Interp, error) {
	fx, err := LoadFixture(path)
	if err != nil {
		return nil, err
	}
	in := New(opts...)
	if err := fx.Apply(in); err != nil {
		return nil, err
	}
	return in, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
