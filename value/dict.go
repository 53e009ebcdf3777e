package value

import (
	"github.com/wippyai/valuebridge/codec"
	"github.com/wippyai/valuebridge/errors"
)

// mapping is one decoded level of a nested mapping.
type mapping struct {
	vals map[string]string
	keys []string
}

// parseMapping reads a list pairwise. A repeated key keeps its first
// position and takes the last value.
func parseMapping(s string) (*mapping, error) {
	items, err := codec.DecodeList(s)
	if err != nil {
		return nil, err
	}
	if len(items)%2 != 0 {
		return nil, errors.New(errors.PhaseKeyed, errors.KindConversion).
			Convert("string", "mapping", s).
			Detail("missing value to go with key").
			Build()
	}
	m := &mapping{vals: make(map[string]string, len(items)/2)}
	for i := 0; i < len(items); i += 2 {
		m.set(items[i], items[i+1])
	}
	return m, nil
}

func (m *mapping) get(k string) (string, bool) {
	s, ok := m.vals[k]
	return s, ok
}

func (m *mapping) set(k, s string) {
	if _, ok := m.vals[k]; !ok {
		m.keys = append(m.keys, k)
	}
	m.vals[k] = s
}

func (m *mapping) delete(k string) bool {
	if _, ok := m.vals[k]; !ok {
		return false
	}
	delete(m.vals, k)
	for i, key := range m.keys {
		if key == k {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
	return true
}

func (m *mapping) encode() string {
	items := make([]string, 0, 2*len(m.keys))
	for _, k := range m.keys {
		items = append(items, k, m.vals[k])
	}
	return codec.EncodeList(items)
}

// Dict addresses a Value as a nested mapping by key path.
type Dict struct {
	v         *Value
	target    Target
	hasTarget bool
}

// NewDict returns a keyed view over v. Writes go through v, so a bound
// value keeps its location in sync.
func NewDict(v *Value) *Dict {
	return &Dict{v: v}
}

// Dict returns a keyed view over v.
func (v *Value) Dict() *Dict {
	return NewDict(v)
}

// Value returns the underlying value.
func (d *Dict) Value() *Value {
	return d.v
}

// SetTarget sets the conversion applied by Items.
func (d *Dict) SetTarget(to Target) {
	d.target = to
	d.hasTarget = true
}

// structural reports a non-mapping value met while walking path.
func structural(path []string, depth int, s string, cause error) error {
	return errors.New(errors.PhaseKeyed, errors.KindType).
		Path(path...).
		Depth(depth).
		Convert("string", "mapping", s).
		Detail("value at depth %d is not a mapping", depth).
		Cause(cause).
		Build()
}

// Lookup resolves path. found is false on a miss at any level.
func (d *Dict) Lookup(path ...string) (v *Value, found bool, err error) {
	s, depth, err := d.resolve(path)
	if err != nil {
		return nil, false, err
	}
	if depth >= 0 {
		return nil, false, nil
	}
	return FromString(s), true, nil
}

// resolve walks path and returns the final string, or the depth of the
// first missing key.
func (d *Dict) resolve(path []string) (string, int, error) {
	if len(path) == 0 {
		return "", 0, errors.InvalidInput(errors.PhaseKeyed, "empty key path")
	}
	cur, err := d.v.AsString()
	if err != nil {
		return "", 0, err
	}
	for depth, k := range path {
		m, err := parseMapping(cur)
		if err != nil {
			return "", 0, structural(path, depth, cur, err)
		}
		next, ok := m.get(k)
		if !ok {
			return "", depth, nil
		}
		cur = next
	}
	return cur, -1, nil
}

// Get returns the value at path. A miss is a KindKey error carrying the
// depth of the missing key.
func (d *Dict) Get(path ...string) (*Value, error) {
	s, depth, err := d.resolve(path)
	if err != nil {
		return nil, err
	}
	if depth >= 0 {
		return nil, errors.KeyMissing(path, depth)
	}
	return FromString(s), nil
}

// GetOr returns the value at path converted to the target, or def
// converted to the target on a miss.
func (d *Dict) GetOr(path []string, def any, to Target) (any, error) {
	v, found, err := d.Lookup(path...)
	if err != nil {
		return nil, err
	}
	if !found {
		if def == nil {
			return nil, nil
		}
		dv, err := New(def)
		if err != nil {
			return nil, err
		}
		return Convert(dv, to)
	}
	return Convert(v, to)
}

// Contains reports whether every prefix of path resolves to a mapping and
// the final key exists. Descending into a non-mapping value is a KindType
// error.
func (d *Dict) Contains(path ...string) (bool, error) {
	_, found, err := d.Lookup(path...)
	return found, err
}

// Set writes x at path, creating intermediate mappings. An intermediate
// value that is not empty and not a mapping is a KindType error.
func (d *Dict) Set(path []string, x any) error {
	if len(path) == 0 {
		return errors.InvalidInput(errors.PhaseKeyed, "empty key path")
	}
	s, err := stringOf(x)
	if err != nil {
		return err
	}
	cur, err := d.v.AsString()
	if err != nil {
		return err
	}
	out, err := setIn(cur, path, 0, s)
	if err != nil {
		return err
	}
	return d.v.store(out)
}

func setIn(cur string, path []string, depth int, s string) (string, error) {
	m, err := parseMapping(cur)
	if err != nil {
		return "", structural(path, depth, cur, err)
	}
	k := path[depth]
	if depth == len(path)-1 {
		m.set(k, s)
		return m.encode(), nil
	}
	child, _ := m.get(k)
	child, err = setIn(child, path, depth+1, s)
	if err != nil {
		return "", err
	}
	m.set(k, child)
	return m.encode(), nil
}

// Delete removes the final key of path. Deleting an absent path is a no-op.
func (d *Dict) Delete(path ...string) error {
	if len(path) == 0 {
		return errors.InvalidInput(errors.PhaseKeyed, "empty key path")
	}
	cur, err := d.v.AsString()
	if err != nil {
		return err
	}
	out, changed, err := deleteIn(cur, path, 0)
	if err != nil || !changed {
		return err
	}
	return d.v.store(out)
}

func deleteIn(cur string, path []string, depth int) (string, bool, error) {
	m, err := parseMapping(cur)
	if err != nil {
		return "", false, structural(path, depth, cur, err)
	}
	k := path[depth]
	if depth == len(path)-1 {
		if !m.delete(k) {
			return cur, false, nil
		}
		return m.encode(), true, nil
	}
	child, ok := m.get(k)
	if !ok {
		return cur, false, nil
	}
	child, changed, err := deleteIn(child, path, depth+1)
	if err != nil || !changed {
		return cur, false, err
	}
	m.set(k, child)
	return m.encode(), true, nil
}

// Keys returns the top-level keys in encoding order.
func (d *Dict) Keys() ([]string, error) {
	s, err := d.v.AsString()
	if err != nil {
		return nil, err
	}
	m, err := parseMapping(s)
	if err != nil {
		return nil, err
	}
	return m.keys, nil
}

// Len returns the number of top-level keys.
func (d *Dict) Len() (int, error) {
	keys, err := d.Keys()
	return len(keys), err
}

// Item is a top-level key and its value. Value is a *Value unless the
// dict has a target, in which case it holds the converted form.
type Item struct {
	Value any
	Key   string
}

// Items returns the top-level entries in encoding order.
func (d *Dict) Items() ([]Item, error) {
	entries, err := d.v.AsMapping()
	if err != nil {
		return nil, err
	}
	out := make([]Item, len(entries))
	for i, e := range entries {
		out[i] = Item{Key: e.Key, Value: e.Value}
		if d.hasTarget {
			cv, err := Convert(e.Value, d.target)
			if err != nil {
				return nil, err
			}
			out[i].Value = cv
		}
	}
	return out, nil
}
