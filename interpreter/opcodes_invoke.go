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
	"github.com/klover-go/klover/util"
)

// registerInvokeOps wires the four resolvable invoke* opcodes.
// invokedynamic is deliberately left unregistered: call-site bootstrap
// via a MethodHandle/CallSite graph is native-bridge territory this
// runtime does not implement (see this package's exception/native
// scope notes), so a class using it fails with the ordinary
// "unimplemented opcode" diagnostic rather than a silent no-op.
func registerInvokeOps() {
	register(Invokestatic, opInvokestatic)
	register(Invokespecial, opInvokespecial)
	register(Invokevirtual, opInvokevirtual)
	register(Invokeinterface, opInvokeinterface)
}

// popValues pops n values off f's operand stack in call order (the
// first-pushed argument ends up at values[0]). The operand stack holds
// one boxed Go value per argument regardless of its JVM category, so
// this is always a count of arguments, never of local-variable slots.
func popValues(f *frames.Frame, n int) []interface{} {
	values := make([]interface{}, n)
	for i := n - 1; i >= 0; i-- {
		values[i] = f.Pop()
	}
	return values
}

// buildLocals lays out a callee's initial Locals: receiver (if any) at
// slot 0, then each parameter value at the slot its position implies,
// advancing two slots for a long/double parameter and one otherwise,
// per JVMS §2.6.1's local-variable-slot numbering.
func buildLocals(maxLocals int, receiver interface{}, params []string, values []interface{}) []interface{} {
	locals := make([]interface{}, maxLocals)
	slot := 0
	if receiver != nil {
		locals[0] = receiver
		slot = 1
	}
	for i, p := range params {
		locals[slot] = values[i]
		if p == "J" || p == "D" {
			slot += 2
		} else {
			slot++
		}
	}
	return locals
}

// pushResult pushes a call's return value, skipping a void return.
func pushResult(f *frames.Frame, desc string, v interface{}) {
	_, ret := util.ParseMethodDescriptor(desc)
	if ret == "V" {
		return
	}
	f.Push(v)
}

// opInvokestatic implements JVMS §invokestatic: resolve the MethodRef,
// load the owning class (its <clinit> is not run here), and call it
// with no receiver.
func opInvokestatic(ctx *Context, f *frames.Frame) (int, *ThrownException, error) {
	index := int(binary.BigEndian.Uint16(f.Method.Code[f.PC+1:]))
	cp, ok := f.CP.(*classloader.CPool)
	if !ok {
		return 0, nil, fmt.Errorf("interpreter: invokestatic: frame has no resolvable constant pool")
	}
	className, methName, methDesc := classloader.GetMethInfoFromCPmethref(cp, index)
	k, err := classloader.LoadClassByName(ctx.Mailbox, ctx.Loader, className)
	if err != nil {
		return 0, nil, err
	}
	owner, m, found := k.ResolveMethod(methName, methDesc)
	if !found {
		return 0, vmException(excNames.NoClassDefFoundError, className+"."+methName), nil
	}
	params, _ := util.ParseMethodDescriptor(methDesc)
	values := popValues(f, len(params))
	locals := buildLocals(m.MaxLocals, nil, params, values)
	result, thrown, err := CallMethod(ctx, owner, m, locals)
	if err != nil {
		return 0, nil, err
	}
	if thrown != nil {
		return 0, thrown, nil
	}
	pushResult(f, methDesc, result)
	return 3, nil, nil
}

// opInvokespecial implements JVMS §invokespecial: constructor calls,
// private methods, and explicit superclass calls -- all resolved
// starting at the declared owning class rather than the receiver's
// runtime class (the one way this differs from invokevirtual).
func opInvokespecial(ctx *Context, f *frames.Frame) (int, *ThrownException, error) {
	index := int(binary.BigEndian.Uint16(f.Method.Code[f.PC+1:]))
	cp, ok := f.CP.(*classloader.CPool)
	if !ok {
		return 0, nil, fmt.Errorf("interpreter: invokespecial: frame has no resolvable constant pool")
	}
	className, methName, methDesc := classloader.GetMethInfoFromCPmethref(cp, index)
	k, err := classloader.LoadClassByName(ctx.Mailbox, ctx.Loader, className)
	if err != nil {
		return 0, nil, err
	}
	owner, m, found := k.ResolveMethod(methName, methDesc)
	if !found {
		return 0, vmException(excNames.NoClassDefFoundError, className+"."+methName), nil
	}
	params, _ := util.ParseMethodDescriptor(methDesc)
	values := popValues(f, len(params))
	receiver := f.Pop()
	if receiver == nil {
		return 0, vmException(excNames.NullPointerException, className+"."+methName), nil
	}
	locals := buildLocals(m.MaxLocals, receiver, params, values)
	result, thrown, err := CallMethod(ctx, owner, m, locals)
	if err != nil {
		return 0, nil, err
	}
	if thrown != nil {
		return 0, thrown, nil
	}
	pushResult(f, methDesc, result)
	return 3, nil, nil
}

// opInvokevirtual implements JVMS §invokevirtual: resolve against the
// declared class to find the descriptor, then dispatch against the
// receiver's actual runtime class (virtual dispatch, JVMS §5.4.6), the
// one behavior invokespecial intentionally skips.
func opInvokevirtual(ctx *Context, f *frames.Frame) (int, *ThrownException, error) {
	index := int(binary.BigEndian.Uint16(f.Method.Code[f.PC+1:]))
	cp, ok := f.CP.(*classloader.CPool)
	if !ok {
		return 0, nil, fmt.Errorf("interpreter: invokevirtual: frame has no resolvable constant pool")
	}
	className, methName, methDesc := classloader.GetMethInfoFromCPmethref(cp, index)
	declared, err := classloader.LoadClassByName(ctx.Mailbox, ctx.Loader, className)
	if err != nil {
		return 0, nil, err
	}
	_, declMethod, found := declared.ResolveMethod(methName, methDesc)
	if !found {
		return 0, vmException(excNames.NoClassDefFoundError, className+"."+methName), nil
	}
	params, _ := util.ParseMethodDescriptor(methDesc)
	values := popValues(f, len(params))
	receiver := f.Pop()
	obj, ok := receiver.(*object.Object)
	if !ok || obj == nil {
		return 0, vmException(excNames.NullPointerException, className+"."+methName), nil
	}
	owner, m, found := obj.Klass.ResolveMethod(methName, methDesc)
	if !found {
		owner, m = declared, declMethod
	}
	locals := buildLocals(m.MaxLocals, receiver, params, values)
	result, thrown, err := CallMethod(ctx, owner, m, locals)
	if err != nil {
		return 0, nil, err
	}
	if thrown != nil {
		return 0, thrown, nil
	}
	pushResult(f, methDesc, result)
	return 3, nil, nil
}

// opInvokeinterface implements JVMS §invokeinterface: same virtual
// dispatch as invokevirtual, resolved against the receiver's class
// rather than the interface (which declares no Code of its own).
// Carries two extra operand bytes (count, then a zero byte) that exist
// for historical reasons and are not otherwise consulted.
func opInvokeinterface(ctx *Context, f *frames.Frame) (int, *ThrownException, error) {
	index := int(binary.BigEndian.Uint16(f.Method.Code[f.PC+1:]))
	cp, ok := f.CP.(*classloader.CPool)
	if !ok {
		return 0, nil, fmt.Errorf("interpreter: invokeinterface: frame has no resolvable constant pool")
	}
	_, methName, methDesc := classloader.GetMethInfoFromCPmethref(cp, index)
	params, _ := util.ParseMethodDescriptor(methDesc)
	values := popValues(f, len(params))
	receiver := f.Pop()
	obj, ok := receiver.(*object.Object)
	if !ok || obj == nil {
		return 0, vmException(excNames.NullPointerException, methName), nil
	}
	owner, m, found := obj.Klass.ResolveMethod(methName, methDesc)
	if !found {
		return 0, vmException(excNames.NoClassDefFoundError, methName), nil
	}
	locals := buildLocals(m.MaxLocals, receiver, params, values)
	result, thrown, err := CallMethod(ctx, owner, m, locals)
	if err != nil {
		return 0, nil, err
	}
	if thrown != nil {
		return 0, thrown, nil
	}
	pushResult(f, methDesc, result)
	return 5, nil, nil
}
