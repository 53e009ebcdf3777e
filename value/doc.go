// Package value implements the dual string/typed value shared with the
// foreign runtime.
//
// A Value owns one canonical string and derives typed views from it on
// demand:
//
//	v := value.FromString("1 2 3")
//	n, _ := v.Len()        // 3
//	x, _ := v.Index(-1)    // "3"
//
// Values bound to a foreign location re-read it on every access and write
// every mutation through:
//
//	v, _ := value.Var(h, "x", value.WithInitial(5))
//	_ = v.Update(value.OpAdd, 3) // x is now 8 on the foreign side
//
// Dict addresses nested mappings by key path, ArrayView wraps a foreign
// array variable.
package value
