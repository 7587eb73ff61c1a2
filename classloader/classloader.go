/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-4 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classloader

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/klover-go/klover/access"
	"github.com/klover-go/klover/actor"
	"github.com/klover-go/klover/cld"
	"github.com/klover-go/klover/excNames"
	"github.com/klover-go/klover/globals"
	"github.com/klover-go/klover/klass"
	"github.com/klover-go/klover/trace"
	"github.com/klover-go/klover/util"
)

// Classloader is the Go-side handle to one defining loader: its name,
// its delegate parent (JVMS §5.3's parent-delegation model), and the
// loader's own OOP (0 for the bootstrap loader), which is what the
// CLD graph (package cld) keys ClassLoaderData records by. Grounded
// on the teacher's Classloader struct; Archives (jmod/jar scanning) is
// dropped since the spec's classpath model is a flat ordered directory
// list (§6), not an archive format. ClassCount counts the classes this
// loader has loaded.
type Classloader struct {
	Name       string
	Parent     *Classloader
	LoaderOOP  access.OOP
	ClassCount int
}

var (
	bootstrapOnce sync.Once
	// BootstrapCL is the classloader that loads the standard library
	// and, transitively via delegation, everything else.
	BootstrapCL Classloader
	// AppCL is the application classloader most user classes load
	// through.
	AppCL Classloader
)

// InitBootstrapLoader wires BootstrapCL/AppCL to OOP 0 / 1 respectively.
// It does not initialize the CLD graph; cld.Init must already have run
// (main.go's bootActors calls it first). Idempotent.
func InitBootstrapLoader() {
	bootstrapOnce.Do(func() {
		BootstrapCL = Classloader{Name: "bootstrap", LoaderOOP: cld.BootstrapLoaderOOP}
		AppCL = Classloader{Name: "app", Parent: &BootstrapCL, LoaderOOP: access.OOP(1)}
	})
}

// FindClassBytes searches the global classpath list for className (in
// internal a/b/C form) and returns the raw bytes of a/b/C.class, per
// §6: "each entry is tried as <entry>/a/b/C.class; first readable file
// wins."
func FindClassBytes(className string) ([]byte, error) {
	g := globals.GetGlobalRef()
	rel := util.ConvertInternalClassNameToFilename(className)
	for _, entry := range g.Classpath {
		candidate := filepath.Join(entry, rel)
		data, err := os.ReadFile(candidate)
		if err == nil {
			return data, nil
		}
	}
	return nil, excNames.NewException(excNames.ClassNotFoundException, className)
}

// LoadClassFromBytes parses data and registers the resulting Klass
// with loader's ClassLoaderData, loading (and recursively defining)
// its superclass and interfaces first, per JVMS §5.3's requirement
// that a class's superclass be resolved before the class itself is
// usable. Returns the already-registered Klass if className was
// loaded previously by this loader.
func LoadClassFromBytes(loaderMailbox actor.Mailbox, loader *Classloader, className string, data []byte) (*klass.Klass, error) {
	if existing, ok, err := findRegistered(loaderMailbox, loader, className); err != nil {
		return nil, err
	} else if ok {
		return existing, nil
	}

	pc, err := parseClassBytes(data)
	if err != nil {
		return nil, err
	}

	thisName, ok := pc.CP.ClassName(uint32(pc.ThisClass))
	if !ok {
		return nil, excNames.NewException(excNames.ClassFormatError, "unresolvable this_class")
	}
	if thisName != className {
		trace.Warning(fmt.Sprintf("class name mismatch: requested %s, class file names %s", className, thisName))
	}

	var super *klass.Klass
	if pc.SuperClass != 0 {
		superName, ok := pc.CP.ClassName(uint32(pc.SuperClass))
		if !ok {
			return nil, excNames.NewException(excNames.ClassFormatError, "unresolvable super_class")
		}
		super, err = LoadClassByName(loaderMailbox, loader, superName)
		if err != nil {
			return nil, excNames.NewException(excNames.NoClassDefFoundError, superName)
		}
	} else if className != "java/lang/Object" {
		return nil, classFormatError("only java/lang/Object may have no superclass")
	}

	k := klass.NewInstanceKlass(className, 0, super, loader.LoaderOOP)
	k.CP = pc.CP

	for _, iface := range pc.Interfaces {
		ifaceName, ok := pc.CP.ClassName(uint32(iface))
		if !ok {
			continue
		}
		ik, err := LoadClassByName(loaderMailbox, loader, ifaceName)
		if err != nil {
			return nil, excNames.NewException(excNames.NoClassDefFoundError, ifaceName)
		}
		k.Interfaces = append(k.Interfaces, ik)
	}

	k.Fields = make([]klass.Field, len(pc.Fields))
	for i, f := range pc.Fields {
		name, _ := pc.CP.Utf8(uint32(f.NameIndex))
		desc, _ := pc.CP.Utf8(uint32(f.DescIndex))
		k.Fields[i] = klass.Field{
			Name:        name,
			Desc:        desc,
			NameIndex:   uint32(f.NameIndex),
			DescIndex:   uint32(f.DescIndex),
			AccessFlags: int(f.AccessFlags),
			Static:      f.AccessFlags&0x0008 != 0, // ACC_STATIC
		}
	}

	k.Methods = make([]klass.Method, len(pc.Methods))
	for i, m := range pc.Methods {
		eh := make([]klass.ExceptionHandler, len(m.Exceptions))
		for j, e := range m.Exceptions {
			eh[j] = klass.ExceptionHandler{
				StartPC: e.StartPC, EndPC: e.EndPC, HandlerPC: e.HandlerPC, CatchType: uint32(e.CatchType),
			}
		}
		name, _ := pc.CP.Utf8(uint32(m.NameIndex))
		desc, _ := pc.CP.Utf8(uint32(m.DescIndex))
		argSlots := util.ArgSlotsForDescriptor(desc)
		k.Methods[i] = klass.Method{
			Name:           name,
			Desc:           desc,
			NameIndex:      uint32(m.NameIndex),
			DescIndex:      uint32(m.DescIndex),
			AccessFlags:    int(m.AccessFlags),
			MaxStack:       m.MaxStack,
			MaxLocals:      m.MaxLocals,
			Code:           m.Code,
			ExceptionTable: eh,
			ArgSlots:       argSlots,
		}
	}

	reply, err := loaderMailbox.SendSafe(cld.RegisterKlass{Loader: loader.LoaderOOP, Klass: k})
	if err != nil {
		return nil, err
	}
	if ok, _ := reply.(bool); !ok {
		return nil, excNames.NewException(excNames.ClassCircularityError, className)
	}

	loader.ClassCount++
	if globals.GetGlobalRef().TraceCloadi {
		trace.Trace(fmt.Sprintf("loaded class %s via %s", className, loader.Name))
	}
	return k, nil
}

// LoadClassByName finds, reads, and loads className if loader does not
// already have it registered.
func LoadClassByName(loaderMailbox actor.Mailbox, loader *Classloader, className string) (*klass.Klass, error) {
	if existing, ok, err := findRegistered(loaderMailbox, loader, className); err != nil {
		return nil, err
	} else if ok {
		return existing, nil
	}
	data, err := FindClassBytes(className)
	if err != nil {
		return nil, err
	}
	return LoadClassFromBytes(loaderMailbox, loader, className, data)
}

func findRegistered(loaderMailbox actor.Mailbox, loader *Classloader, className string) (*klass.Klass, bool, error) {
	reply, err := loaderMailbox.SendSafe(cld.FindCLD{Loader: loader.LoaderOOP})
	if err != nil {
		return nil, false, err
	}
	cldRec, ok := reply.(*cld.ClassLoaderData)
	if !ok || cldRec == nil {
		return nil, false, nil
	}
	k, ok := cldRec.FindKlass(className)
	return k, ok, nil
}
