/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2023 by  the Jacobin authors. Consult jacobin.org.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0) All rights reserved.
 */

package interpreter

import (
	"encoding/binary"

	"github.com/klover-go/klover/frames"
)

// registerControlOps wires the if* family, goto/goto_w, jsr/jsr_w/ret,
// tableswitch/lookupswitch, and the six return opcodes.
func registerControlOps() {
	register(Ifeq, ifCond(func(v int32) bool { return v == 0 }))
	register(Ifne, ifCond(func(v int32) bool { return v != 0 }))
	register(Iflt, ifCond(func(v int32) bool { return v < 0 }))
	register(Ifge, ifCond(func(v int32) bool { return v >= 0 }))
	register(Ifgt, ifCond(func(v int32) bool { return v > 0 }))
	register(Ifle, ifCond(func(v int32) bool { return v <= 0 }))

	register(IfIcmpeq, ifICmp(func(a, b int32) bool { return a == b }))
	register(IfIcmpne, ifICmp(func(a, b int32) bool { return a != b }))
	register(IfIcmplt, ifICmp(func(a, b int32) bool { return a < b }))
	register(IfIcmpge, ifICmp(func(a, b int32) bool { return a >= b }))
	register(IfIcmpgt, ifICmp(func(a, b int32) bool { return a > b }))
	register(IfIcmple, ifICmp(func(a, b int32) bool { return a <= b }))

	register(IfAcmpeq, ifACmp(true))
	register(IfAcmpne, ifACmp(false))
	register(Ifnull, ifNull(true))
	register(Ifnonnull, ifNull(false))

	register(Goto, func(ctx *Context, f *frames.Frame) (int, *ThrownException, error) {
		off := int16(binary.BigEndian.Uint16(f.Method.Code[f.PC+1:]))
		f.PC += int(off)
		return 0, nil, nil
	})
	register(GotoW, func(ctx *Context, f *frames.Frame) (int, *ThrownException, error) {
		off := int32(binary.BigEndian.Uint32(f.Method.Code[f.PC+1:]))
		f.PC += int(off)
		return 0, nil, nil
	})
	register(Jsr, func(ctx *Context, f *frames.Frame) (int, *ThrownException, error) {
		off := int16(binary.BigEndian.Uint16(f.Method.Code[f.PC+1:]))
		ret := f.PC + 3
		f.PC += int(off)
		f.Push(int32(ret))
		return 0, nil, nil
	})
	register(JsrW, func(ctx *Context, f *frames.Frame) (int, *ThrownException, error) {
		off := int32(binary.BigEndian.Uint32(f.Method.Code[f.PC+1:]))
		ret := f.PC + 5
		f.PC += int(off)
		f.Push(int32(ret))
		return 0, nil, nil
	})
	register(Ret, func(ctx *Context, f *frames.Frame) (int, *ThrownException, error) {
		idx := int(f.Method.Code[f.PC+1])
		target, _ := f.Locals[idx].(int32)
		f.PC = int(target)
		return 0, nil, nil
	})

	register(Tableswitch, opTableswitch)
	register(Lookupswitch, opLookupswitch)

	register(Ireturn, returnOp())
	register(Lreturn, returnOp())
	register(Freturn, returnOp())
	register(Dreturn, returnOp())
	register(Areturn, returnOp())
	register(Return, func(ctx *Context, f *frames.Frame) (int, *ThrownException, error) {
		return 0, nil, &returnSignal{value: nil}
	})
}

func ifCond(pred func(int32) bool) handler {
	return func(ctx *Context, f *frames.Frame) (int, *ThrownException, error) {
		v, _ := f.Pop().(int32)
		off := int16(binary.BigEndian.Uint16(f.Method.Code[f.PC+1:]))
		if pred(v) {
			f.PC += int(off)
			return 0, nil, nil
		}
		return 3, nil, nil
	}
}

func ifICmp(pred func(a, b int32) bool) handler {
	return func(ctx *Context, f *frames.Frame) (int, *ThrownException, error) {
		b, _ := f.Pop().(int32)
		a, _ := f.Pop().(int32)
		off := int16(binary.BigEndian.Uint16(f.Method.Code[f.PC+1:]))
		if pred(a, b) {
			f.PC += int(off)
			return 0, nil, nil
		}
		return 3, nil, nil
	}
}

func ifACmp(wantEqual bool) handler {
	return func(ctx *Context, f *frames.Frame) (int, *ThrownException, error) {
		b := f.Pop()
		a := f.Pop()
		off := int16(binary.BigEndian.Uint16(f.Method.Code[f.PC+1:]))
		if (a == b) == wantEqual {
			f.PC += int(off)
			return 0, nil, nil
		}
		return 3, nil, nil
	}
}

func ifNull(wantNull bool) handler {
	return func(ctx *Context, f *frames.Frame) (int, *ThrownException, error) {
		v := f.Pop()
		off := int16(binary.BigEndian.Uint16(f.Method.Code[f.PC+1:]))
		if (v == nil) == wantNull {
			f.PC += int(off)
			return 0, nil, nil
		}
		return 3, nil, nil
	}
}

func returnOp() handler {
	return func(ctx *Context, f *frames.Frame) (int, *ThrownException, error) {
		return 0, nil, &returnSignal{value: f.Pop()}
	}
}

// opTableswitch implements JVMS §tableswitch: the instruction's
// operands start at the first 4-byte boundary after the opcode byte,
// so 0-3 padding bytes are skipped first.
func opTableswitch(ctx *Context, f *frames.Frame) (int, *ThrownException, error) {
	start := f.PC + 1
	pad := (4 - (start % 4)) % 4
	p := start + pad
	code := f.Method.Code
	defaultOff := int32(binary.BigEndian.Uint32(code[p:]))
	low := int32(binary.BigEndian.Uint32(code[p+4:]))
	high := int32(binary.BigEndian.Uint32(code[p+8:]))

	index, _ := f.Pop().(int32)
	if index < low || index > high {
		f.PC += int(defaultOff)
		return 0, nil, nil
	}
	entryOff := p + 12 + int(index-low)*4
	off := int32(binary.BigEndian.Uint32(code[entryOff:]))
	f.PC += int(off)
	return 0, nil, nil
}

// opLookupswitch implements JVMS §lookupswitch: a sorted (match,
// offset) table probed linearly (a real JVM would binary-search; the
// semantics are identical either way).
func opLookupswitch(ctx *Context, f *frames.Frame) (int, *ThrownException, error) {
	start := f.PC + 1
	pad := (4 - (start % 4)) % 4
	p := start + pad
	code := f.Method.Code
	defaultOff := int32(binary.BigEndian.Uint32(code[p:]))
	npairs := int32(binary.BigEndian.Uint32(code[p+4:]))

	index, _ := f.Pop().(int32)
	base := p + 8
	for i := int32(0); i < npairs; i++ {
		entry := base + int(i)*8
		match := int32(binary.BigEndian.Uint32(code[entry:]))
		if match == index {
			off := int32(binary.BigEndian.Uint32(code[entry+4:]))
			f.PC += int(off)
			return 0, nil, nil
		}
	}
	f.PC += int(defaultOff)
	return 0, nil, nil
}
