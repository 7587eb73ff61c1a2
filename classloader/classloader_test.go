/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2024 by  the Jacobin Authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)  Consult jacobin.org.
 */

package classloader

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/klover-go/klover/actor"
	"github.com/klover-go/klover/cld"
	"github.com/klover-go/klover/globals"
)

// buildMinimalClass assembles the bytes of a trivial class file with no
// fields, no methods, and a given superclass name (or "" for none),
// just enough to drive parseClassBytes/LoadClassFromBytes end to end
// without a real compiler.
func buildMinimalClass(t *testing.T, thisName, superName string) []byte {
	t.Helper()
	var utf8s []string
	intern := func(s string) uint16 {
		for i, u := range utf8s {
			if u == s {
				return uint16(i + 1)
			}
		}
		utf8s = append(utf8s, s)
		return uint16(len(utf8s))
	}

	thisUTF8 := intern(thisName)
	var superUTF8, superClassIdx uint16
	if superName != "" {
		superUTF8 = intern(superName)
	}

	// Constant pool entries beyond the UTF8s: ClassRef(this), [ClassRef(super)]
	thisClassIdx := uint16(len(utf8s) + 1)
	if superName != "" {
		superClassIdx = thisClassIdx + 1
	}

	buf := &bytes.Buffer{}
	w := func(v interface{}) {
		_ = binary.Write(buf, binary.BigEndian, v)
	}
	w(uint32(classFileMagic))
	w(uint16(0))  // minor
	w(uint16(61)) // major

	cpCount := len(utf8s) + 1 // this
	if superName != "" {
		cpCount++
	}
	w(uint16(cpCount + 1)) // count field is entries+1

	for _, s := range utf8s {
		w(uint8(UTF8))
		w(uint16(len(s)))
		buf.WriteString(s)
	}
	w(uint8(ClassRef))
	w(thisUTF8)
	if superName != "" {
		w(uint8(ClassRef))
		w(superUTF8)
	}

	w(uint16(0x0021))     // access_flags: ACC_PUBLIC|ACC_SUPER
	w(thisClassIdx)       // this_class
	w(superClassIdx)      // super_class (0 if none)
	w(uint16(0))          // interfaces_count
	w(uint16(0))          // fields_count
	w(uint16(0))          // methods_count
	w(uint16(0))          // attributes_count

	return buf.Bytes()
}

func newTestClassloader(t *testing.T) (actor.Mailbox, *Classloader) {
	t.Helper()
	globals.InitGlobals("test")
	graph, _, err := cld.Init(nil)
	if err != nil {
		t.Fatalf("cld.Init: %v", err)
	}
	mailbox := cld.NewActor(graph, nil)
	t.Cleanup(func() { _, _ = mailbox.SendSafe(actor.Shutdown{}) })
	return mailbox, &Classloader{Name: "test", LoaderOOP: 0}
}

func TestLoadClassFromBytesObjectHasNoSuper(t *testing.T) {
	mailbox, loader := newTestClassloader(t)
	data := buildMinimalClass(t, "java/lang/Object", "")

	k, err := LoadClassFromBytes(mailbox, loader, "java/lang/Object", data)
	if err != nil {
		t.Fatalf("LoadClassFromBytes: %v", err)
	}
	if k.Super != nil {
		t.Fatalf("java/lang/Object should have no superclass, got %v", k.Super)
	}
	if k.Name != "java/lang/Object" {
		t.Fatalf("got name %q", k.Name)
	}
}

func TestLoadClassFromBytesLoadsSuperFirst(t *testing.T) {
	mailbox, loader := newTestClassloader(t)
	objData := buildMinimalClass(t, "java/lang/Object", "")
	if _, err := LoadClassFromBytes(mailbox, loader, "java/lang/Object", objData); err != nil {
		t.Fatalf("loading Object: %v", err)
	}

	// FindClassBytes isn't exercised here (no filesystem classpath in
	// this test), so directly stage the Object class into the
	// classloader's CLD before loading Foo extends Object.
	fooData := buildMinimalClass(t, "Foo", "java/lang/Object")
	k, err := LoadClassFromBytes(mailbox, loader, "Foo", fooData)
	if err != nil {
		t.Fatalf("LoadClassFromBytes: %v", err)
	}
	if k.Super == nil || k.Super.Name != "java/lang/Object" {
		t.Fatalf("Foo.Super = %v, want java/lang/Object", k.Super)
	}
}

func TestLoadClassFromBytesIsIdempotent(t *testing.T) {
	mailbox, loader := newTestClassloader(t)
	data := buildMinimalClass(t, "java/lang/Object", "")

	k1, err := LoadClassFromBytes(mailbox, loader, "java/lang/Object", data)
	if err != nil {
		t.Fatal(err)
	}
	k2, err := LoadClassFromBytes(mailbox, loader, "java/lang/Object", data)
	if err != nil {
		t.Fatal(err)
	}
	if k1 != k2 {
		t.Fatal("reloading an already-registered class should return the same Klass")
	}
}
