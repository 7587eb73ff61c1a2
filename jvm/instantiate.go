/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2022 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package jvm

import (
	"github.com/klover-go/klover/classloader"
	"github.com/klover-go/klover/globals"
	"github.com/klover-go/klover/object"
	"github.com/klover-go/klover/trace"
)

// instantiateClass loads classname (if not already loaded) via the
// application classloader and allocates a fresh instance with every
// field defaulted, the state a "new" bytecode leaves an object in
// before any constructor runs. Loading and allocation were one
// function in the original `unsafe.Pointer`-hash-stamped version of
// this file; they stay split across classloader.LoadClassByName and
// object.NewInstanceOf now that the Klass registry and the object
// model are separate packages.
func instantiateClass(classname string) (*object.Object, error) {
	trace.Trace("Instantiating class: " + classname)

	g := globals.GetGlobalRef()
	k, err := classloader.LoadClassByName(g.CLDMailbox, &classloader.AppCL, classname)
	if err != nil {
		trace.Error("Error loading class: " + classname + ": " + err.Error())
		return nil, err
	}

	return object.NewInstanceOf(k), nil
}
