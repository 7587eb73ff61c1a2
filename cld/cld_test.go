/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2025 by the Jacobin Authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)  Consult jacobin.org.
 */

package cld

import (
	"testing"

	"github.com/klover-go/klover/access"
	"github.com/klover-go/klover/actor"
	"github.com/klover-go/klover/klass"
)

func newTestGraph(t *testing.T) (*Graph, actor.Mailbox) {
	t.Helper()
	g := newGraph()
	mailbox := NewActor(g, nil)
	t.Cleanup(func() {
		_, _ = mailbox.SendSafe(actor.Shutdown{})
	})
	return g, mailbox
}

func TestRegisterCLDCreatesOncePerLoader(t *testing.T) {
	_, mailbox := newTestGraph(t)

	c1, err := RegisterLoader(mailbox, access.OOP(42))
	if err != nil {
		t.Fatal(err)
	}
	c2, err := RegisterLoader(mailbox, access.OOP(42))
	if err != nil {
		t.Fatal(err)
	}
	if c1 != c2 {
		t.Fatal("RegisterCLD created a second record for the same loader OOP")
	}
}

func TestRegisterKlassRejectsDuplicateName(t *testing.T) {
	_, mailbox := newTestGraph(t)
	k1 := klass.NewInstanceKlass("Foo", 1, nil, access.OOP(1))
	k2 := klass.NewInstanceKlass("Foo", 1, nil, access.OOP(1))

	ok, err := RegisterLoadedKlass(mailbox, access.OOP(1), k1)
	if err != nil || !ok {
		t.Fatalf("first registration: ok=%v err=%v", ok, err)
	}
	ok, err = RegisterLoadedKlass(mailbox, access.OOP(1), k2)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("duplicate class name should not be re-registered")
	}
}

func TestFindCLDReportsUnknownLoader(t *testing.T) {
	_, mailbox := newTestGraph(t)
	_, ok, err := Find(mailbox, access.OOP(999))
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expected FindCLD to report no CLD for an unregistered loader")
	}
}

func TestFindKlassAfterRegister(t *testing.T) {
	_, mailbox := newTestGraph(t)
	k := klass.NewInstanceKlass("Bar", 2, nil, access.OOP(7))
	if _, err := RegisterLoadedKlass(mailbox, access.OOP(7), k); err != nil {
		t.Fatal(err)
	}
	cld, ok, err := Find(mailbox, access.OOP(7))
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	got, found := cld.FindKlass("Bar")
	if !found || got != k {
		t.Fatalf("FindKlass: found=%v got=%v want=%v", found, got, k)
	}
}
