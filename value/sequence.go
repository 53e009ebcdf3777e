package value

import (
	"github.com/wippyai/valuebridge/codec"
	"github.com/wippyai/valuebridge/errors"
)

// Len returns the number of list elements.
func (v *Value) Len() (int, error) {
	items, err := v.elements()
	if err != nil {
		return 0, err
	}
	return len(items), nil
}

// Index returns element i. Negative indexes count from the end.
func (v *Value) Index(i int) (*Value, error) {
	items, err := v.elements()
	if err != nil {
		return nil, err
	}
	j, ok := wrapIndex(i, len(items))
	if !ok {
		return nil, errors.IndexOutOfRange("index", i, len(items))
	}
	return FromString(items[j]), nil
}

// Slice returns elements [lo, hi) as a new list value. Negative bounds
// count from the end; bounds outside the list are clamped.
func (v *Value) Slice(lo, hi int) (*Value, error) {
	items, err := v.elements()
	if err != nil {
		return nil, err
	}
	lo, hi = clampBound(lo, len(items)), clampBound(hi, len(items))
	if lo >= hi {
		return FromString(""), nil
	}
	return FromList(items[lo:hi]), nil
}

// SetIndex replaces element i with x.
func (v *Value) SetIndex(i int, x any) error {
	items, err := v.AsStrings()
	if err != nil {
		return err
	}
	j, ok := wrapIndex(i, len(items))
	if !ok {
		return errors.IndexOutOfRange("set index", i, len(items))
	}
	s, err := stringOf(x)
	if err != nil {
		return err
	}
	items[j] = s
	return v.store(codec.EncodeList(items))
}

// Append adds each x as one element at the end.
func (v *Value) Append(xs ...any) error {
	items, err := v.AsStrings()
	if err != nil {
		return err
	}
	for _, x := range xs {
		s, err := stringOf(x)
		if err != nil {
			return err
		}
		items = append(items, s)
	}
	return v.store(codec.EncodeList(items))
}

// Extend appends the elements of the list x.
func (v *Value) Extend(x any) error {
	items, err := v.AsStrings()
	if err != nil {
		return err
	}
	more, err := listOf(x)
	if err != nil {
		return err
	}
	return v.store(codec.EncodeList(append(items, more...)))
}

// Insert places x before element i. Indexes past either end insert at that
// end.
func (v *Value) Insert(i int, x any) error {
	items, err := v.AsStrings()
	if err != nil {
		return err
	}
	s, err := stringOf(x)
	if err != nil {
		return err
	}
	i = clampBound(i, len(items))
	items = append(items, "")
	copy(items[i+1:], items[i:])
	items[i] = s
	return v.store(codec.EncodeList(items))
}

// Pop removes and returns an element, the last one when no index is given.
func (v *Value) Pop(index ...int) (*Value, error) {
	items, err := v.AsStrings()
	if err != nil {
		return nil, err
	}
	i := -1
	if len(index) > 0 {
		i = index[0]
	}
	j, ok := wrapIndex(i, len(items))
	if !ok {
		return nil, errors.IndexOutOfRange("pop", i, len(items))
	}
	popped := items[j]
	items = append(items[:j], items[j+1:]...)
	if err := v.store(codec.EncodeList(items)); err != nil {
		return nil, err
	}
	return FromString(popped), nil
}

// Contains reports whether any element equals the string form of x.
func (v *Value) Contains(x any) (bool, error) {
	items, err := v.elements()
	if err != nil {
		return false, err
	}
	s, err := stringOf(x)
	if err != nil {
		return false, err
	}
	for _, item := range items {
		if item == s {
			return true, nil
		}
	}
	return false, nil
}

func listOf(x any) ([]string, error) {
	switch l := x.(type) {
	case []string:
		return l, nil
	case *Value:
		return l.AsStrings()
	case string:
		return codec.DecodeList(l)
	}
	s, err := codec.Encode(x)
	if err != nil {
		return nil, err
	}
	return codec.DecodeList(s)
}

func wrapIndex(i, n int) (int, bool) {
	if i < 0 {
		i += n
	}
	return i, i >= 0 && i < n
}

func clampBound(i, n int) int {
	if i < 0 {
		i += n
		if i < 0 {
			return 0
		}
	}
	if i > n {
		return n
	}
	return i
}
