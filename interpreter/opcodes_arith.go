/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2023 by  the Jacobin authors. Consult jacobin.org.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0) All rights reserved.
 */

package interpreter

import (
	"math"

	"github.com/klover-go/klover/excNames"
	"github.com/klover-go/klover/frames"
)

// registerArithOps wires the add/sub/mul/div/rem/neg family, the
// shift and bitwise-logic family, and the three comparison opcodes
// (lcmp, fcmpl/fcmpg, dcmpl/dcmpg).
func registerArithOps() {
	register(Iadd, intBinOp(func(a, b int32) int32 { return a + b }))
	register(Isub, intBinOp(func(a, b int32) int32 { return a - b }))
	register(Imul, intBinOp(func(a, b int32) int32 { return a * b }))
	register(Idiv, intDivOp())
	register(Irem, intRemOp())
	register(Ineg, func(ctx *Context, f *frames.Frame) (int, *ThrownException, error) {
		v, _ := f.Pop().(int32)
		f.Push(-v)
		return 1, nil, nil
	})

	register(Ladd, longBinOp(func(a, b int64) int64 { return a + b }))
	register(Lsub, longBinOp(func(a, b int64) int64 { return a - b }))
	register(Lmul, longBinOp(func(a, b int64) int64 { return a * b }))
	register(Ldiv, longDivOp())
	register(Lrem, longRemOp())
	register(Lneg, func(ctx *Context, f *frames.Frame) (int, *ThrownException, error) {
		v, _ := f.Pop().(int64)
		f.Push(-v)
		return 1, nil, nil
	})

	register(Fadd, floatBinOp(func(a, b float32) float32 { return a + b }))
	register(Fsub, floatBinOp(func(a, b float32) float32 { return a - b }))
	register(Fmul, floatBinOp(func(a, b float32) float32 { return a * b }))
	register(Fdiv, floatBinOp(func(a, b float32) float32 { return a / b }))
	register(Frem, floatBinOp(func(a, b float32) float32 { return float32(math.Mod(float64(a), float64(b))) }))
	register(Fneg, func(ctx *Context, f *frames.Frame) (int, *ThrownException, error) {
		v, _ := f.Pop().(float32)
		f.Push(-v)
		return 1, nil, nil
	})

	register(Dadd, doubleBinOp(func(a, b float64) float64 { return a + b }))
	register(Dsub, doubleBinOp(func(a, b float64) float64 { return a - b }))
	register(Dmul, doubleBinOp(func(a, b float64) float64 { return a * b }))
	register(Ddiv, doubleBinOp(func(a, b float64) float64 { return a / b }))
	register(Drem, doubleBinOp(func(a, b float64) float64 { return math.Mod(a, b) }))
	register(Dneg, func(ctx *Context, f *frames.Frame) (int, *ThrownException, error) {
		v, _ := f.Pop().(float64)
		f.Push(-v)
		return 1, nil, nil
	})

	register(Ishl, func(ctx *Context, f *frames.Frame) (int, *ThrownException, error) {
		s, _ := f.Pop().(int32)
		v, _ := f.Pop().(int32)
		f.Push(v << (uint32(s) & 0x1f))
		return 1, nil, nil
	})
	register(Ishr, func(ctx *Context, f *frames.Frame) (int, *ThrownException, error) {
		s, _ := f.Pop().(int32)
		v, _ := f.Pop().(int32)
		f.Push(v >> (uint32(s) & 0x1f))
		return 1, nil, nil
	})
	register(Iushr, func(ctx *Context, f *frames.Frame) (int, *ThrownException, error) {
		s, _ := f.Pop().(int32)
		v, _ := f.Pop().(int32)
		f.Push(int32(uint32(v) >> (uint32(s) & 0x1f)))
		return 1, nil, nil
	})
	register(Lshl, func(ctx *Context, f *frames.Frame) (int, *ThrownException, error) {
		s, _ := f.Pop().(int32)
		v, _ := f.Pop().(int64)
		f.Push(v << (uint64(s) & 0x3f))
		return 1, nil, nil
	})
	register(Lshr, func(ctx *Context, f *frames.Frame) (int, *ThrownException, error) {
		s, _ := f.Pop().(int32)
		v, _ := f.Pop().(int64)
		f.Push(v >> (uint64(s) & 0x3f))
		return 1, nil, nil
	})
	register(Lushr, func(ctx *Context, f *frames.Frame) (int, *ThrownException, error) {
		s, _ := f.Pop().(int32)
		v, _ := f.Pop().(int64)
		f.Push(int64(uint64(v) >> (uint64(s) & 0x3f)))
		return 1, nil, nil
	})

	register(Iand, intBinOp(func(a, b int32) int32 { return a & b }))
	register(Ior, intBinOp(func(a, b int32) int32 { return a | b }))
	register(Ixor, intBinOp(func(a, b int32) int32 { return a ^ b }))
	register(Land, longBinOp(func(a, b int64) int64 { return a & b }))
	register(Lor, longBinOp(func(a, b int64) int64 { return a | b }))
	register(Lxor, longBinOp(func(a, b int64) int64 { return a ^ b }))

	register(Lcmp, func(ctx *Context, f *frames.Frame) (int, *ThrownException, error) {
		b, _ := f.Pop().(int64)
		a, _ := f.Pop().(int64)
		f.Push(int32(cmp3(a, b)))
		return 1, nil, nil
	})
	register(Fcmpl, floatCmp(-1))
	register(Fcmpg, floatCmp(1))
	register(Dcmpl, doubleCmp(-1))
	register(Dcmpg, doubleCmp(1))
}

func cmp3[T int64 | float64](a, b T) int {
	switch {
	case a > b:
		return 1
	case a < b:
		return -1
	default:
		return 0
	}
}

func intBinOp(op func(a, b int32) int32) handler {
	return func(ctx *Context, f *frames.Frame) (int, *ThrownException, error) {
		b, _ := f.Pop().(int32)
		a, _ := f.Pop().(int32)
		f.Push(op(a, b))
		return 1, nil, nil
	}
}

func intDivOp() handler {
	return func(ctx *Context, f *frames.Frame) (int, *ThrownException, error) {
		b, _ := f.Pop().(int32)
		a, _ := f.Pop().(int32)
		if b == 0 {
			return 0, vmException(excNames.ArithmeticException, "/ by zero"), nil
		}
		f.Push(a / b)
		return 1, nil, nil
	}
}

func intRemOp() handler {
	return func(ctx *Context, f *frames.Frame) (int, *ThrownException, error) {
		b, _ := f.Pop().(int32)
		a, _ := f.Pop().(int32)
		if b == 0 {
			return 0, vmException(excNames.ArithmeticException, "/ by zero"), nil
		}
		f.Push(a % b)
		return 1, nil, nil
	}
}

func longBinOp(op func(a, b int64) int64) handler {
	return func(ctx *Context, f *frames.Frame) (int, *ThrownException, error) {
		b, _ := f.Pop().(int64)
		a, _ := f.Pop().(int64)
		f.Push(op(a, b))
		return 1, nil, nil
	}
}

func longDivOp() handler {
	return func(ctx *Context, f *frames.Frame) (int, *ThrownException, error) {
		b, _ := f.Pop().(int64)
		a, _ := f.Pop().(int64)
		if b == 0 {
			return 0, vmException(excNames.ArithmeticException, "/ by zero"), nil
		}
		f.Push(a / b)
		return 1, nil, nil
	}
}

func longRemOp() handler {
	return func(ctx *Context, f *frames.Frame) (int, *ThrownException, error) {
		b, _ := f.Pop().(int64)
		a, _ := f.Pop().(int64)
		if b == 0 {
			return 0, vmException(excNames.ArithmeticException, "/ by zero"), nil
		}
		f.Push(a % b)
		return 1, nil, nil
	}
}

func floatBinOp(op func(a, b float32) float32) handler {
	return func(ctx *Context, f *frames.Frame) (int, *ThrownException, error) {
		b, _ := f.Pop().(float32)
		a, _ := f.Pop().(float32)
		f.Push(op(a, b))
		return 1, nil, nil
	}
}

func doubleBinOp(op func(a, b float64) float64) handler {
	return func(ctx *Context, f *frames.Frame) (int, *ThrownException, error) {
		b, _ := f.Pop().(float64)
		a, _ := f.Pop().(float64)
		f.Push(op(a, b))
		return 1, nil, nil
	}
}

// floatCmp builds fcmpl/fcmpg: nanResult is the value pushed when
// either operand is NaN (JVMS §fcmpg/fcmpl -- g pushes 1, l pushes -1).
func floatCmp(nanResult int32) handler {
	return func(ctx *Context, f *frames.Frame) (int, *ThrownException, error) {
		b, _ := f.Pop().(float32)
		a, _ := f.Pop().(float32)
		if math.IsNaN(float64(a)) || math.IsNaN(float64(b)) {
			f.Push(nanResult)
			return 1, nil, nil
		}
		f.Push(int32(cmp3(float64(a), float64(b))))
		return 1, nil, nil
	}
}

func doubleCmp(nanResult int32) handler {
	return func(ctx *Context, f *frames.Frame) (int, *ThrownException, error) {
		b, _ := f.Pop().(float64)
		a, _ := f.Pop().(float64)
		if math.IsNaN(a) || math.IsNaN(b) {
			f.Push(nanResult)
			return 1, nil, nil
		}
		f.Push(int32(cmp3(a, b)))
		return 1, nil, nil
	}
}
