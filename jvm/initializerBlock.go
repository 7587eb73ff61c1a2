/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2023 by  the Jacobin authors. Consult jacobin.org.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0) All rights reserved.
 */

package jvm

import (
	"github.com/klover-go/klover/interpreter"
	"github.com/klover-go/klover/klass"
	"github.com/klover-go/klover/trace"
)

// RunClassInitializers runs k's <clinit> chain (and that of any
// not-yet-initialized superclass), the exported entry point the boot
// sequence uses for the class named directly on the command line. It
// is the only caller of that chain: class loading and the
// new/invokestatic/getstatic opcodes do not run <clinit>.
func RunClassInitializers(ctx *interpreter.Context, k *klass.Klass) error {
	return runInitializationBlock(ctx, k)
}

// Initialization blocks are code blocks that for all intents are
// methods. They're gathered up by the Java compiler into a method
// called <clinit>, which must be run at class instantiation -- that
// is, before any constructor. Because that code might well call other
// methods, it runs like any other method, through the same
// interpreter.CallMethod regular methods use. We also have to make
// sure the initialization blocks of superclasses have been previously
// executed, per JVMS §5.5's "initialize the direct superclass first"
// rule.
func runInitializationBlock(ctx *interpreter.Context, k *klass.Klass) error {
	if k == nil || k.State() == klass.Initialized || k.State() == klass.Initializing {
		return nil // already run, or a circular <clinit> reference caught it already
	}

	var chain []*klass.Klass
	for c := k; c != nil; c = c.Super {
		if c.State() == klass.Initialized {
			break
		}
		chain = append(chain, c)
	}

	for i := len(chain) - 1; i >= 0; i-- {
		c := chain[i]
		if c.State() == klass.Initializing || c.State() == klass.Initialized {
			continue
		}
		if err := runJavaInitializer(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

// runJavaInitializer runs one class's own <clinit>, if it declares
// one, as an ordinary interpreted method call.
func runJavaInitializer(ctx *interpreter.Context, k *klass.Klass) error {
	k.SetState(klass.Initializing)

	m, found := k.FindMethod("<clinit>", "()V")
	if !found {
		k.SetState(klass.Initialized)
		return nil // no initializer block declared; nothing to run
	}

	trace.Trace("Start init: class=" + k.Name + " meth=<clinit>")

	_, thrown, err := interpreter.CallMethod(ctx, k, m, make([]interface{}, m.MaxLocals))
	if err != nil {
		k.SetState(klass.InErrorState)
		return err
	}
	if thrown != nil {
		k.SetState(klass.InErrorState)
		return thrown
	}

	k.SetState(klass.Initialized)
	return nil
}
