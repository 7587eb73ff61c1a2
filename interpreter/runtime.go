/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2023 by  the Jacobin authors. Consult jacobin.org.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0) All rights reserved.
 */

// Package interpreter is C15, the operand-stack machine: frame
// lifecycle, the 256-entry opcode dispatch table, and the handler for
// every opcode family §4.1 requires. Grounded on
// original_source/src/engine/zero/zero_instructions.rs (INS_TABLE, a
// 256-entry array of per-opcode function pointers dispatched by a
// central executor loop) and interpreter_runtime.rs's
// create_frame/unwind, reworked from that file's raw-arena pointer
// arithmetic onto the Go-heap Frame of package frames -- the same
// "ordinary values, not raw bytes" choice the object model and Klass
// metadata already made.
package interpreter

import (
	"fmt"

	"github.com/klover-go/klover/actor"
	"github.com/klover-go/klover/classloader"
	"github.com/klover-go/klover/frames"
	"github.com/klover-go/klover/klass"
	"github.com/klover-go/klover/thread"
)

// Context is the environment one thread's interpreter runs against:
// its own frame stack plus the defining loader and CLD mailbox used to
// resolve symbolic references (new, invoke*, get/putstatic, checkcast,
// instanceof) that name a class not yet loaded.
type Context struct {
	Thread  *thread.ExecThread
	Loader  *classloader.Classloader
	Mailbox actor.Mailbox
}

// handler is one DispatchTable entry: it receives the running context
// and the active frame (whose PC currently points at its own opcode
// byte) and performs the opcode's effect. It returns the number of
// bytes to advance PC by (including the opcode byte itself) -- 0 means
// the handler already set f.PC itself (a taken branch, or a
// method-ending return/athrow) and the outer loop must not touch it.
type handler func(ctx *Context, f *frames.Frame) (advance int, thrown *ThrownException, err error)

// DispatchTable is indexed by the opcode byte, per §4.1's "A
// DispatchTable of 256 function pointers, indexed by the current
// opcode byte." Built once, at package init, by the per-family
// register* functions in opcodes_*.go.
var DispatchTable [256]handler

func register(opcode int, h handler) {
	DispatchTable[opcode] = h
}

func init() {
	registerConstOps()
	registerLoadStoreOps()
	registerArrayOps()
	registerStackOps()
	registerArithOps()
	registerConversionOps()
	registerControlOps()
	registerObjectOps()
	registerInvokeOps()
}

// CallMethod creates a frame for m (declared on defKlass), copies args
// into its locals, pushes it onto ctx.Thread's stack, runs it to
// completion, and pops it -- C15's create_frame / unwind pairing, one
// method invocation's worth.
func CallMethod(ctx *Context, defKlass *klass.Klass, m *klass.Method, args []interface{}) (interface{}, *ThrownException, error) {
	if m.AccessFlags&0x0100 != 0 || len(m.Code) == 0 { // ACC_NATIVE, or no Code attribute
		return nil, nil, fmt.Errorf("interpreter: %s.%s%s has no bytecode to execute (native methods are outside this runtime's scope)", defKlass.Name, m.Name, m.Desc)
	}

	f := frames.CreateFrame(m.MaxLocals)
	f.ClName = defKlass.Name
	f.MethName = m.Name
	f.MethType = m.Desc
	f.Method = m
	f.Klass = defKlass
	f.CP = defKlass.CP
	f.ExceptionTable = m.ExceptionTable
	copy(f.Locals, args)

	if err := frames.PushFrame(ctx.Thread.Stack, f); err != nil {
		return nil, nil, err
	}
	defer func() { _, _ = frames.PopFrame(ctx.Thread.Stack) }()

	return runFrame(ctx, f)
}

// runFrame is the C15 outer dispatch loop: fetch the opcode at f.PC,
// look it up in DispatchTable, run the handler, and either advance PC
// by the handler's reported width or -- for a branch, return, or
// unhandled throw -- stop.
func runFrame(ctx *Context, f *frames.Frame) (interface{}, *ThrownException, error) {
	for {
		if f.PC < 0 || f.PC >= len(f.Method.Code) {
			return nil, nil, fmt.Errorf("interpreter: PC %d ran off the end of %s.%s's code (%d bytes)", f.PC, f.ClName, f.MethName, len(f.Method.Code))
		}
		opcode := int(f.Method.Code[f.PC])
		h := DispatchTable[opcode]
		if h == nil {
			return nil, nil, fmt.Errorf("interpreter: unimplemented opcode 0x%02x at %s.%s:%d", opcode, f.ClName, f.MethName, f.PC)
		}

		startPC := f.PC
		advance, thrown, err := h(ctx, f)
		if err != nil {
			if rv, ok := err.(*returnSignal); ok {
				return rv.value, nil, nil
			}
			return nil, nil, err
		}
		if thrown != nil {
			handlerPC, found := findHandler(f, startPC, thrown)
			if !found {
				return nil, thrown, nil
			}
			f.OpStack = f.OpStack[:0]
			f.Push(thrown)
			f.PC = handlerPC
			continue
		}
		if advance == 0 {
			continue // handler already repositioned f.PC (a taken branch)
		}
		f.PC = startPC + advance
	}
}

// returnSignal is how a return-family handler unwinds out of runFrame
// with its value without needing runFrame to special-case every
// opcode; it is never propagated past runFrame.
type returnSignal struct {
	value interface{}
}

func (r *returnSignal) Error() string { return "interpreter: return (internal control signal)" }
