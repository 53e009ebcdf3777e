package value

import (
	"errors"
	"testing"

	bridgeerrors "github.com/wippyai/valuebridge/errors"
)

func TestIndex(t *testing.T) {
	v := FromString("a {b c} d")
	tests := []struct {
		i    int
		want string
	}{
		{0, "a"},
		{1, "b c"},
		{-1, "d"},
		{-3, "a"},
	}
	for _, tt := range tests {
		got, err := v.Index(tt.i)
		if err != nil || got.String() != tt.want {
			t.Errorf("Index(%d) = %v, %v; want %q", tt.i, got, err, tt.want)
		}
	}
	for _, i := range []int{3, -4} {
		if _, err := v.Index(i); !errors.Is(err, bridgeerrors.ErrIndex) {
			t.Errorf("Index(%d) error = %v", i, err)
		}
	}
}

func TestSlice(t *testing.T) {
	v := FromString("a b c d e")
	tests := []struct {
		lo, hi int
		want   string
	}{
		{1, 3, "b c"},
		{0, 5, "a b c d e"},
		{-2, 5, "d e"},
		{1, -1, "b c d"},
		{-10, 2, "a b"},
		{3, 100, "d e"},
		{4, 2, ""},
	}
	for _, tt := range tests {
		got, err := v.Slice(tt.lo, tt.hi)
		if err != nil || got.String() != tt.want {
			t.Errorf("Slice(%d, %d) = %v, %v; want %q", tt.lo, tt.hi, got, err, tt.want)
		}
	}
}

func TestListMutation(t *testing.T) {
	v := FromString("")
	if err := v.Append("a", "b c", 3); err != nil {
		t.Fatal(err)
	}
	if v.String() != "a {b c} 3" {
		t.Fatalf("after Append: %q", v)
	}
	if err := v.Extend([]string{"x", ""}); err != nil {
		t.Fatal(err)
	}
	if err := v.Extend("y z"); err != nil {
		t.Fatal(err)
	}
	if v.String() != "a {b c} 3 x {} y z" {
		t.Fatalf("after Extend: %q", v)
	}
	if err := v.Insert(0, "first"); err != nil {
		t.Fatal(err)
	}
	if err := v.Insert(100, "last"); err != nil {
		t.Fatal(err)
	}
	if err := v.Insert(-1, "penultimate"); err != nil {
		t.Fatal(err)
	}
	if err := v.SetIndex(2, FromString("B")); err != nil {
		t.Fatal(err)
	}
	if v.String() != "first a B 3 x {} y z penultimate last" {
		t.Fatalf("after Insert/SetIndex: %q", v)
	}

	p, err := v.Pop()
	if err != nil || p.String() != "last" {
		t.Fatalf("Pop() = %v, %v", p, err)
	}
	p, err = v.Pop(0)
	if err != nil || p.String() != "first" {
		t.Fatalf("Pop(0) = %v, %v", p, err)
	}
	if _, err := v.Pop(42); !errors.Is(err, bridgeerrors.ErrIndex) {
		t.Errorf("Pop(42) error = %v", err)
	}
	if err := v.SetIndex(42, "x"); !errors.Is(err, bridgeerrors.ErrIndex) {
		t.Errorf("SetIndex(42) error = %v", err)
	}
	if n, _ := v.Len(); n != 8 {
		t.Errorf("Len = %d, want 8", n)
	}

	if _, err := FromString("").Pop(); !errors.Is(err, bridgeerrors.ErrIndex) {
		t.Errorf("Pop on empty list error = %v", err)
	}
}

func TestContains(t *testing.T) {
	v := FromString("1 {two words} 3")
	for x, want := range map[any]bool{
		1:           true,
		"two words": true,
		"two":       false,
		"4":         false,
	} {
		got, err := v.Contains(x)
		if err != nil || got != want {
			t.Errorf("Contains(%v) = %v, %v; want %v", x, got, err, want)
		}
	}
}

func TestSequence_BoundWriteThrough(t *testing.T) {
	h := newFakeHost()
	v, err := Var(h, "l", WithInitial("a b"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := v.Pop(0); err != nil {
		t.Fatal(err)
	}
	if h.vars["l"] != "b" {
		t.Errorf("foreign l = %q, want b", h.vars["l"])
	}
	h.vars["l"] = "p q r"
	if n, _ := v.Len(); n != 3 {
		t.Errorf("Len after foreign write = %d", n)
	}
}
