/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2023 by  the Jacobin authors. Consult jacobin.org.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0) All rights reserved.
 */

package interpreter

import (
	"encoding/binary"

	"github.com/klover-go/klover/classloader"
	"github.com/klover-go/klover/frames"
)

// registerConstOps wires nop, the aconst/iconst/lconst/fconst/dconst
// family, bipush/sipush, and the three ldc variants.
func registerConstOps() {
	register(Nop, func(ctx *Context, f *frames.Frame) (int, *ThrownException, error) {
		return 1, nil, nil
	})
	register(AconstNull, pushConst(nil))
	register(IconstM1, pushConst(int32(-1)))
	register(Iconst0, pushConst(int32(0)))
	register(Iconst1, pushConst(int32(1)))
	register(Iconst2, pushConst(int32(2)))
	register(Iconst3, pushConst(int32(3)))
	register(Iconst4, pushConst(int32(4)))
	register(Iconst5, pushConst(int32(5)))
	register(Lconst0, pushConst(int64(0)))
	register(Lconst1, pushConst(int64(1)))
	register(Fconst0, pushConst(float32(0)))
	register(Fconst1, pushConst(float32(1)))
	register(Fconst2, pushConst(float32(2)))
	register(Dconst0, pushConst(float64(0)))
	register(Dconst1, pushConst(float64(1)))

	register(Bipush, func(ctx *Context, f *frames.Frame) (int, *ThrownException, error) {
		v := int8(f.Method.Code[f.PC+1])
		f.Push(int32(v))
		return 2, nil, nil
	})
	register(Sipush, func(ctx *Context, f *frames.Frame) (int, *ThrownException, error) {
		v := int16(binary.BigEndian.Uint16(f.Method.Code[f.PC+1:]))
		f.Push(int32(v))
		return 3, nil, nil
	})

	register(Ldc, opLdc(1))
	register(LdcW, opLdc(2))
	register(Ldc2W, opLdc2W)
}

// pushConst returns a handler that pushes a fixed value and advances
// one byte, covering the *constN family whose handlers differ only in
// the value pushed -- the Go-closure analogue of the original's
// const-generic type_load_n<T, N> instantiations.
func pushConst(v interface{}) handler {
	return func(ctx *Context, f *frames.Frame) (int, *ThrownException, error) {
		f.Push(v)
		return 1, nil, nil
	}
}

// opLdc loads a single-width constant (int, float, String, Class) from
// the constant pool, per JVMS §ldc/ldc_w. width is 1 for ldc's 1-byte
// index, 2 for ldc_w's 2-byte index.
func opLdc(width int) handler {
	return func(ctx *Context, f *frames.Frame) (int, *ThrownException, error) {
		var index int
		if width == 1 {
			index = int(f.Method.Code[f.PC+1])
		} else {
			index = int(binary.BigEndian.Uint16(f.Method.Code[f.PC+1:]))
		}
		cp, ok := f.CP.(*classloader.CPool)
		if !ok {
			return 0, nil, nil
		}
		entry := classloader.FetchCPentry(cp, index)
		switch entry.RetType {
		case classloader.IS_INT64:
			f.Push(int32(entry.IntVal))
		case classloader.IS_FLOAT64:
			f.Push(float32(entry.FloatVal))
		case classloader.IS_STRING_ADDR:
			f.Push(*entry.StringVal)
		default:
			f.Push(nil)
		}
		return 1 + width, nil, nil
	}
}

// opLdc2W loads a wide (long or double) constant, per JVMS §ldc2_w.
func opLdc2W(ctx *Context, f *frames.Frame) (int, *ThrownException, error) {
	index := int(binary.BigEndian.Uint16(f.Method.Code[f.PC+1:]))
	cp, ok := f.CP.(*classloader.CPool)
	if !ok {
		return 0, nil, nil
	}
	entry := classloader.FetchCPentry(cp, index)
	switch entry.RetType {
	case classloader.IS_INT64:
		f.Push(entry.IntVal)
	case classloader.IS_FLOAT64:
		f.Push(entry.FloatVal)
	}
	return 3, nil, nil
}
