/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2023 by  the Jacobin authors. Consult jacobin.org.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0) All rights reserved.
 */

package interpreter

import (
	"github.com/klover-go/klover/frames"
)

// registerLoadStoreOps wires the {i,l,f,d,a}load[_n] and
// {i,l,f,d,a}store[_n] families plus iinc and the wide prefix. The
// four _n shorthands for each type share one generator, the same
// closure-over-index trick registerConstOps uses for *constN.
func registerLoadStoreOps() {
	register(Iload, loadSlot(1))
	register(Lload, loadSlot(1))
	register(Fload, loadSlot(1))
	register(Dload, loadSlot(1))
	register(Aload, loadSlot(1))

	for n := 0; n <= 3; n++ {
		register(Iload0+n, loadSlotN(n))
		register(Lload0+n, loadSlotN(n))
		register(Fload0+n, loadSlotN(n))
		register(Dload0+n, loadSlotN(n))
		register(Aload0+n, loadSlotN(n))
	}

	register(Istore, storeSlot())
	register(Lstore, storeSlot())
	register(Fstore, storeSlot())
	register(Dstore, storeSlot())
	register(Astore, storeSlot())

	for n := 0; n <= 3; n++ {
		register(Istore0+n, storeSlotN(n))
		register(Lstore0+n, storeSlotN(n))
		register(Fstore0+n, storeSlotN(n))
		register(Dstore0+n, storeSlotN(n))
		register(Astore0+n, storeSlotN(n))
	}

	register(Iinc, opIinc)
	register(Wide, opWide)
}

// loadSlot pushes locals[operand byte] and consumes the one-byte
// index, covering iload/lload/fload/dload/aload -- all five widen
// identically since Frame.Locals stores boxed values, not raw slots.
func loadSlot(width int) handler {
	return func(ctx *Context, f *frames.Frame) (int, *ThrownException, error) {
		idx := int(f.Method.Code[f.PC+1])
		f.Push(f.Locals[idx])
		return 1 + width, nil, nil
	}
}

func loadSlotN(n int) handler {
	return func(ctx *Context, f *frames.Frame) (int, *ThrownException, error) {
		f.Push(f.Locals[n])
		return 1, nil, nil
	}
}

func storeSlot() handler {
	return func(ctx *Context, f *frames.Frame) (int, *ThrownException, error) {
		idx := int(f.Method.Code[f.PC+1])
		f.Locals[idx] = f.Pop()
		return 2, nil, nil
	}
}

func storeSlotN(n int) handler {
	return func(ctx *Context, f *frames.Frame) (int, *ThrownException, error) {
		f.Locals[n] = f.Pop()
		return 1, nil, nil
	}
}

// opIinc increments local n by a signed byte constant, per JVMS §iinc.
func opIinc(ctx *Context, f *frames.Frame) (int, *ThrownException, error) {
	idx := int(f.Method.Code[f.PC+1])
	delta := int8(f.Method.Code[f.PC+2])
	cur, _ := f.Locals[idx].(int32)
	f.Locals[idx] = cur + int32(delta)
	return 3, nil, nil
}

// opWide handles the wide prefix (JVMS §wide): the next opcode takes a
// two-byte local index instead of one, and wide iinc additionally
// takes a two-byte constant. Not registered in DispatchTable directly
// by opcode family since it needs its own operand widths, so it
// re-implements the handful of affected opcodes inline.
func opWide(ctx *Context, f *frames.Frame) (int, *ThrownException, error) {
	op := int(f.Method.Code[f.PC+1])
	idx := int(f.Method.Code[f.PC+2])<<8 | int(f.Method.Code[f.PC+3])
	switch op {
	case Iload, Lload, Fload, Dload, Aload:
		f.Push(f.Locals[idx])
		return 4, nil, nil
	case Istore, Lstore, Fstore, Dstore, Astore:
		f.Locals[idx] = f.Pop()
		return 4, nil, nil
	case Iinc:
		delta := int16(f.Method.Code[f.PC+4])<<8 | int16(f.Method.Code[f.PC+5])
		cur, _ := f.Locals[idx].(int32)
		f.Locals[idx] = cur + int32(delta)
		return 6, nil, nil
	case Ret:
		target, _ := f.Locals[idx].(int32)
		f.PC = int(target)
		return 0, nil, nil
	}
	return 0, nil, nil
}
