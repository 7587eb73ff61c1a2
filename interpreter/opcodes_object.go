/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2023 by  the Jacobin authors. Consult jacobin.org.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0) All rights reserved.
 */

package interpreter

import (
	"encoding/binary"
	"fmt"

	"github.com/klover-go/klover/classloader"
	"github.com/klover-go/klover/excNames"
	"github.com/klover-go/klover/frames"
	"github.com/klover-go/klover/object"
)

// registerObjectOps wires new/newarray/anewarray/multianewarray,
// instanceof/checkcast, getstatic/putstatic/getfield/putfield,
// monitorenter/monitorexit, and athrow.
func registerObjectOps() {
	register(New, opNew)
	register(Newarray, opNewarray)
	register(Anewarray, opAnewarray)
	register(Multianewarray, opMultianewarray)

	register(Instanceof, opInstanceof)
	register(Checkcast, opCheckcast)

	register(Getstatic, opGetstatic)
	register(Putstatic, opPutstatic)
	register(Getfield, opGetfield)
	register(Putfield, opPutfield)

	// A single mutator thread with no real concurrent contenders has no
	// lock to contend for; these pop the object reference and do
	// nothing else. No mark-word lock bit is changed and no monitor is
	// held.
	register(Monitorenter, func(ctx *Context, f *frames.Frame) (int, *ThrownException, error) {
		f.Pop()
		return 1, nil, nil
	})
	register(Monitorexit, func(ctx *Context, f *frames.Frame) (int, *ThrownException, error) {
		f.Pop()
		return 1, nil, nil
	})

	register(Athrow, opAthrow)
}

// opNew implements JVMS §new: resolve the CP ClassRef, load the class
// if needed, and push a freshly zeroed instance.
func opNew(ctx *Context, f *frames.Frame) (int, *ThrownException, error) {
	index := int(binary.BigEndian.Uint16(f.Method.Code[f.PC+1:]))
	cp, ok := f.CP.(*classloader.CPool)
	if !ok {
		return 0, nil, fmt.Errorf("interpreter: new: frame has no resolvable constant pool")
	}
	className := classloader.GetClassNameFromCPclassref(cp, uint16(index))
	k, err := classloader.LoadClassByName(ctx.Mailbox, ctx.Loader, className)
	if err != nil {
		return 0, nil, err
	}
	f.Push(object.NewInstanceOf(k))
	return 3, nil, nil
}

// opNewarray implements JVMS §newarray: allocate a one-dimensional
// primitive array of the given count.
func opNewarray(ctx *Context, f *frames.Frame) (int, *ThrownException, error) {
	atype := int(f.Method.Code[f.PC+1])
	count, _ := f.Pop().(int32)
	if count < 0 {
		return 0, vmException(excNames.NegativeArraySizeException, fmt.Sprintf("%d", count)), nil
	}
	desc := primitiveArrayDesc(atype)
	f.Push(object.NewArray(desc, nil, int(count)))
	return 2, nil, nil
}

func primitiveArrayDesc(atype int) string {
	switch atype {
	case TBoolean:
		return "Z"
	case TChar:
		return "C"
	case TFloat:
		return "F"
	case TDouble:
		return "D"
	case TByte:
		return "B"
	case TShort:
		return "S"
	case TInt:
		return "I"
	case TLong:
		return "J"
	default:
		return "I"
	}
}

// opAnewarray implements JVMS §anewarray: allocate a one-dimensional
// reference array whose component type is the resolved class.
func opAnewarray(ctx *Context, f *frames.Frame) (int, *ThrownException, error) {
	index := int(binary.BigEndian.Uint16(f.Method.Code[f.PC+1:]))
	count, _ := f.Pop().(int32)
	if count < 0 {
		return 0, vmException(excNames.NegativeArraySizeException, fmt.Sprintf("%d", count)), nil
	}
	cp, ok := f.CP.(*classloader.CPool)
	if !ok {
		return 0, nil, fmt.Errorf("interpreter: anewarray: frame has no resolvable constant pool")
	}
	className := classloader.GetClassNameFromCPclassref(cp, uint16(index))
	k, err := classloader.LoadClassByName(ctx.Mailbox, ctx.Loader, className)
	if err != nil {
		return 0, nil, err
	}
	f.Push(object.NewArray("L"+className+";", k, int(count)))
	return 3, nil, nil
}

// opMultianewarray implements JVMS §multianewarray: allocate a
// multi-dimensional array by nesting object.Array instances, one level
// of NewArray per dimension, dimension counts taken off the stack in
// the order they appear in the descriptor.
func opMultianewarray(ctx *Context, f *frames.Frame) (int, *ThrownException, error) {
	index := int(binary.BigEndian.Uint16(f.Method.Code[f.PC+1:]))
	dims := int(f.Method.Code[f.PC+3])

	counts := make([]int32, dims)
	for i := dims - 1; i >= 0; i-- {
		counts[i], _ = f.Pop().(int32)
		if counts[i] < 0 {
			return 0, vmException(excNames.NegativeArraySizeException, fmt.Sprintf("%d", counts[i])), nil
		}
	}

	cp, ok := f.CP.(*classloader.CPool)
	if !ok {
		return 0, nil, fmt.Errorf("interpreter: multianewarray: frame has no resolvable constant pool")
	}
	arrayDesc := classloader.GetClassNameFromCPclassref(cp, uint16(index))

	f.Push(buildMultiArray(arrayDesc, counts))
	return 4, nil, nil
}

func buildMultiArray(desc string, counts []int32) *object.Array {
	elemDesc := desc
	if len(desc) > 0 && desc[0] == '[' {
		elemDesc = desc[1:]
	}
	arr := object.NewArray(elemDesc, nil, int(counts[0]))
	if len(counts) == 1 {
		return arr
	}
	for i := range arr.Elements {
		arr.Elements[i] = buildMultiArray(elemDesc, counts[1:])
	}
	return arr
}

// opInstanceof implements JVMS §instanceof.
func opInstanceof(ctx *Context, f *frames.Frame) (int, *ThrownException, error) {
	index := int(binary.BigEndian.Uint16(f.Method.Code[f.PC+1:]))
	v := f.Pop()
	if v == nil {
		f.Push(int32(0))
		return 3, nil, nil
	}
	cp, ok := f.CP.(*classloader.CPool)
	if !ok {
		return 0, nil, fmt.Errorf("interpreter: instanceof: frame has no resolvable constant pool")
	}
	className := classloader.GetClassNameFromCPclassref(cp, uint16(index))
	obj, ok := v.(*object.Object)
	if !ok || obj.Klass == nil {
		f.Push(int32(0))
		return 3, nil, nil
	}
	for k := obj.Klass; k != nil; k = k.Super {
		if k.Name == className {
			f.Push(int32(1))
			return 3, nil, nil
		}
	}
	f.Push(int32(0))
	return 3, nil, nil
}

// opCheckcast implements JVMS §checkcast.
func opCheckcast(ctx *Context, f *frames.Frame) (int, *ThrownException, error) {
	index := int(binary.BigEndian.Uint16(f.Method.Code[f.PC+1:]))
	v := f.Peek()
	if v == nil {
		return 3, nil, nil
	}
	cp, ok := f.CP.(*classloader.CPool)
	if !ok {
		return 0, nil, fmt.Errorf("interpreter: checkcast: frame has no resolvable constant pool")
	}
	className := classloader.GetClassNameFromCPclassref(cp, uint16(index))
	obj, ok := v.(*object.Object)
	if !ok || obj.Klass == nil {
		return 3, nil, nil
	}
	for k := obj.Klass; k != nil; k = k.Super {
		if k.Name == className {
			return 3, nil, nil
		}
	}
	return 0, vmException(excNames.ClassCastException, fmt.Sprintf("%s cannot be cast to %s", obj.Klass.Name, className)), nil
}

// opGetstatic implements JVMS §getstatic: resolve the FieldRef,
// loading the owning class if necessary, and push its current static
// value (defaulting to the descriptor's zero value on first access).
func opGetstatic(ctx *Context, f *frames.Frame) (int, *ThrownException, error) {
	index := int(binary.BigEndian.Uint16(f.Method.Code[f.PC+1:]))
	cp, ok := f.CP.(*classloader.CPool)
	if !ok {
		return 0, nil, fmt.Errorf("interpreter: getstatic: frame has no resolvable constant pool")
	}
	className, fieldName, fieldDesc := classloader.GetFieldInfoFromCPfieldref(cp, index)
	k, err := classloader.LoadClassByName(ctx.Mailbox, ctx.Loader, className)
	if err != nil {
		return 0, nil, err
	}
	owner, _, found := k.ResolveField(fieldName, fieldDesc)
	if !found {
		return 0, vmException(excNames.NoClassDefFoundError, className+"."+fieldName), nil
	}
	v := owner.StaticGet(fieldName, fieldDesc)
	if v == nil {
		v = object.ZeroValueForDescriptor(fieldDesc)
	}
	f.Push(v)
	return 3, nil, nil
}

// opPutstatic implements JVMS §putstatic.
func opPutstatic(ctx *Context, f *frames.Frame) (int, *ThrownException, error) {
	index := int(binary.BigEndian.Uint16(f.Method.Code[f.PC+1:]))
	cp, ok := f.CP.(*classloader.CPool)
	if !ok {
		return 0, nil, fmt.Errorf("interpreter: putstatic: frame has no resolvable constant pool")
	}
	className, fieldName, fieldDesc := classloader.GetFieldInfoFromCPfieldref(cp, index)
	k, err := classloader.LoadClassByName(ctx.Mailbox, ctx.Loader, className)
	if err != nil {
		return 0, nil, err
	}
	owner, _, found := k.ResolveField(fieldName, fieldDesc)
	if !found {
		owner = k
	}
	v := f.Pop()
	owner.StaticSet(fieldName, v)
	return 3, nil, nil
}

// opGetfield implements JVMS §getfield.
func opGetfield(ctx *Context, f *frames.Frame) (int, *ThrownException, error) {
	index := int(binary.BigEndian.Uint16(f.Method.Code[f.PC+1:]))
	cp, ok := f.CP.(*classloader.CPool)
	if !ok {
		return 0, nil, fmt.Errorf("interpreter: getfield: frame has no resolvable constant pool")
	}
	_, fieldName, _ := classloader.GetFieldInfoFromCPfieldref(cp, index)
	v := f.Pop()
	obj, ok := v.(*object.Object)
	if !ok || obj == nil {
		return 0, vmException(excNames.NullPointerException, "getfield on null reference"), nil
	}
	field, ok := obj.GetField(fieldName)
	if !ok {
		return 0, vmException(excNames.NoClassDefFoundError, fieldName), nil
	}
	f.Push(field.Fvalue)
	return 3, nil, nil
}

// opPutfield implements JVMS §putfield.
func opPutfield(ctx *Context, f *frames.Frame) (int, *ThrownException, error) {
	index := int(binary.BigEndian.Uint16(f.Method.Code[f.PC+1:]))
	cp, ok := f.CP.(*classloader.CPool)
	if !ok {
		return 0, nil, fmt.Errorf("interpreter: putfield: frame has no resolvable constant pool")
	}
	_, fieldName, fieldDesc := classloader.GetFieldInfoFromCPfieldref(cp, index)
	val := f.Pop()
	v := f.Pop()
	obj, ok := v.(*object.Object)
	if !ok || obj == nil {
		return 0, vmException(excNames.NullPointerException, "putfield on null reference"), nil
	}
	obj.SetField(fieldName, object.Field{Ftype: fieldDesc, Fvalue: val})
	return 3, nil, nil
}

// opAthrow implements JVMS §athrow: pop the thrown reference and
// signal it upward so runFrame can search the active frame's
// exception table (and, failing that, the caller's, once CallMethod
// propagates it).
func opAthrow(ctx *Context, f *frames.Frame) (int, *ThrownException, error) {
	v := f.Pop()
	obj, _ := v.(*object.Object)
	if obj == nil {
		return 0, vmException(excNames.NullPointerException, "athrow with null reference"), nil
	}
	className := ""
	if obj.Klass != nil {
		className = obj.Klass.Name
	}
	return 0, &ThrownException{ClassName: className, Obj: obj}, nil
}
