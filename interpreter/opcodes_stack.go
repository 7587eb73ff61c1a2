/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2023 by  the Jacobin authors. Consult jacobin.org.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0) All rights reserved.
 */

package interpreter

import "github.com/klover-go/klover/frames"

// isWide reports whether v occupies two operand-stack words (long or
// double), per JVMS §2.6.2 -- the dup2/pop2 family needs this to tell
// "two category-1 values" apart from "one category-2 value".
func isWide(v interface{}) bool {
	switch v.(type) {
	case int64, float64:
		return true
	default:
		return false
	}
}

// registerStackOps wires pop/pop2, the dup family, and swap.
func registerStackOps() {
	register(Pop, func(ctx *Context, f *frames.Frame) (int, *ThrownException, error) {
		f.Pop()
		return 1, nil, nil
	})
	register(Pop2, func(ctx *Context, f *frames.Frame) (int, *ThrownException, error) {
		v1 := f.Pop()
		if !isWide(v1) {
			f.Pop()
		}
		return 1, nil, nil
	})
	register(Dup, func(ctx *Context, f *frames.Frame) (int, *ThrownException, error) {
		f.Push(f.Peek())
		return 1, nil, nil
	})
	register(DupX1, func(ctx *Context, f *frames.Frame) (int, *ThrownException, error) {
		v1 := f.Pop()
		v2 := f.Pop()
		f.Push(v1)
		f.Push(v2)
		f.Push(v1)
		return 1, nil, nil
	})
	register(DupX2, func(ctx *Context, f *frames.Frame) (int, *ThrownException, error) {
		v1 := f.Pop()
		v2 := f.Pop()
		if isWide(v2) {
			f.Push(v1)
			f.Push(v2)
			f.Push(v1)
		} else {
			v3 := f.Pop()
			f.Push(v1)
			f.Push(v3)
			f.Push(v2)
			f.Push(v1)
		}
		return 1, nil, nil
	})
	register(Dup2, func(ctx *Context, f *frames.Frame) (int, *ThrownException, error) {
		v1 := f.Pop()
		if isWide(v1) {
			f.Push(v1)
			f.Push(v1)
		} else {
			v2 := f.Pop()
			f.Push(v2)
			f.Push(v1)
			f.Push(v2)
			f.Push(v1)
		}
		return 1, nil, nil
	})
	register(Dup2X1, func(ctx *Context, f *frames.Frame) (int, *ThrownException, error) {
		v1 := f.Pop()
		if isWide(v1) {
			v2 := f.Pop()
			f.Push(v1)
			f.Push(v2)
			f.Push(v1)
		} else {
			v2 := f.Pop()
			v3 := f.Pop()
			f.Push(v2)
			f.Push(v1)
			f.Push(v3)
			f.Push(v2)
			f.Push(v1)
		}
		return 1, nil, nil
	})
	register(Dup2X2, func(ctx *Context, f *frames.Frame) (int, *ThrownException, error) {
		v1 := f.Pop()
		v2 := f.Pop()
		if isWide(v1) && isWide(v2) {
			f.Push(v1)
			f.Push(v2)
			f.Push(v1)
		} else if isWide(v1) {
			v3 := f.Pop()
			f.Push(v1)
			f.Push(v3)
			f.Push(v2)
			f.Push(v1)
		} else if isWide(v2) {
			f.Push(v2)
			f.Push(v1)
			f.Push(v2)
		} else {
			// value1/value2 are both category 1; value3 is either a
			// second category-2 value (JVMS Form 3: result
			// value2,value1,value3,value2,value1) or the first of a
			// second category-1 pair (Form 1: result
			// value2,value1,value4,value3,value2,value1) -- value3's
			// category must be checked before deciding whether a
			// value4 exists to pop at all.
			v3 := f.Pop()
			if isWide(v3) {
				f.Push(v2)
				f.Push(v1)
				f.Push(v3)
				f.Push(v2)
				f.Push(v1)
			} else {
				v4 := f.Pop()
				f.Push(v2)
				f.Push(v1)
				f.Push(v4)
				f.Push(v3)
				f.Push(v2)
				f.Push(v1)
			}
		}
		return 1, nil, nil
	})
	register(Swap, func(ctx *Context, f *frames.Frame) (int, *ThrownException, error) {
		v1 := f.Pop()
		v2 := f.Pop()
		f.Push(v1)
		f.Push(v2)
		return 1, nil, nil
	})
}
