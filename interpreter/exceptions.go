/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2023 by  the Jacobin authors. Consult jacobin.org.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0) All rights reserved.
 */

package interpreter

import (
	"github.com/klover-go/klover/excNames"
	"github.com/klover-go/klover/frames"
	"github.com/klover-go/klover/klass"
	"github.com/klover-go/klover/object"
)

// ThrownException is a Java-level exception in flight: the class name
// it was raised as, a diagnostic message, and (when thrown by a real
// "new ...; athrow" sequence rather than a VM-detected condition) the
// actual heap object carrying it.
type ThrownException struct {
	ClassName string
	Message   string
	Obj       *object.Object
}

func (t *ThrownException) Error() string {
	return t.ClassName + ": " + t.Message
}

// vmException builds the ThrownException for a condition the
// interpreter itself detects (NPE, AIOOBE, divide by zero, ...),
// keyed by the excNames catalog rather than a real allocated
// Throwable instance -- allocating java.lang.Exception's full object
// graph is out of this interpreter's scope (no native java.lang
// bridge, per this runtime's Non-goals).
func vmException(kind excNames.JVMException, msg string) *ThrownException {
	return &ThrownException{ClassName: excNames.JVMClassNames[kind], Message: msg}
}

// catches reports whether handler's catch type matches thrown, per
// JVMS §4.7.3: CatchType 0 is a catch-all (finally blocks); otherwise
// the thrown class must be assignable to the resolved catch class.
func catches(cp klass.ConstantPool, handler klass.ExceptionHandler, thrown *ThrownException) bool {
	if handler.CatchType == 0 {
		return true
	}
	catchName, ok := cp.ClassName(handler.CatchType)
	if !ok {
		return false
	}
	if thrown.Obj != nil && thrown.Obj.Klass != nil {
		for k := thrown.Obj.Klass; k != nil; k = k.Super {
			if k.Name == catchName {
				return true
			}
		}
		return false
	}
	return thrown.ClassName == catchName
}

// findHandler searches f's method's exception table for the first
// entry covering pc that catches thrown, per the linear first-match
// rule of JVMS §4.7.3.
func findHandler(f *frames.Frame, pc int, thrown *ThrownException) (int, bool) {
	for _, h := range f.ExceptionTable {
		if pc >= h.StartPC && pc < h.EndPC && catches(f.CP, h, thrown) {
			return h.HandlerPC, true
		}
	}
	return 0, false
}
