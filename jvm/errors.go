/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2023 by  the Jacobin authors. Consult jacobin.org.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0) All rights reserved.
 */

package jvm

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/klover-go/klover/frames"
	"github.com/klover-go/klover/globals"
	"github.com/klover-go/klover/thread"
)

// ReportFatalPanic is the exported entry point main's top-level
// recover calls with a captured Go panic: it prints the frame stack,
// the Go stack trace, and the panic's cause, in that order, each at
// most once per run -- the §7 "internal/fatal conditions" report the
// boot sequence makes before shutdown.Exit tears the process down.
func ReportFatalPanic(cause interface{}, th *thread.ExecThread) {
	showFrameStack(th)
	g := globals.GetGlobalRef()
	g.ErrorGoStack = string(debug.Stack())
	showGoStackTrace(th)
	if err, ok := cause.(error); ok {
		showPanicCause(err)
	} else {
		showPanicCause(fmt.Errorf("%v", cause))
	}
}

// showFrameStack prints every frame on th's stack, topmost first, as
// part of a fatal-error report. It only ever prints once per VM run --
// a second call after a shutdown already reported is a no-op.
func showFrameStack(th *thread.ExecThread) {
	g := globals.GetGlobalRef()
	if g.JvmFrameStackShown {
		return
	}
	g.JvmFrameStackShown = true

	if th == nil || th.Stack == nil || th.Stack.Len() == 0 {
		fmt.Fprint(os.Stderr, "no further data available\n")
		return
	}

	for e := th.Stack.Front(); e != nil; e = e.Next() {
		f, ok := e.Value.(*frames.Frame)
		if !ok {
			continue
		}
		fmt.Fprintf(os.Stderr, "Method: %-40s PC: %03d\n", f.ClName+"."+f.MethName, f.PC)
	}
}

// showGoStackTrace prints the Go-level stack trace captured at the
// point of a panic, once.
func showGoStackTrace(_ *thread.ExecThread) {
	g := globals.GetGlobalRef()
	if g.GoStackShown {
		return
	}
	g.GoStackShown = true
	fmt.Fprint(os.Stderr, g.ErrorGoStack)
}

// showPanicCause reports the error that caused a recovered panic, once.
func showPanicCause(cause error) {
	g := globals.GetGlobalRef()
	if g.PanicCauseShown {
		return
	}
	g.PanicCauseShown = true

	if cause == nil {
		fmt.Fprintln(os.Stderr, "error: go panic -- cause unknown")
		return
	}
	fmt.Fprintf(os.Stderr, "error: go panic -- cause: %v\n", cause)
}
