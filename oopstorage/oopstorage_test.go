/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2025 by the Jacobin Authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)  Consult jacobin.org.
 */

package oopstorage

import (
	"testing"

	"github.com/klover-go/klover/actor"
)

func newTestMailbox(t *testing.T) actor.Mailbox {
	t.Helper()
	mailbox := NewActor(NewSet())
	t.Cleanup(func() {
		_, _ = mailbox.SendSafe(actor.Shutdown{})
	})
	return mailbox
}

func TestObjHandleGetSetRoundTrip(t *testing.T) {
	mailbox := newTestMailbox(t)
	h, err := NewObjHandle(mailbox, PurposeJNIGlobal)
	if err != nil {
		t.Fatalf("NewObjHandle: %v", err)
	}
	if got := h.Get(); got != 0 {
		t.Fatalf("fresh handle = %x, want 0", got)
	}
	h.Set(0x1234)
	if got := h.Get(); got != 0x1234 {
		t.Fatalf("got %x, want 0x1234", got)
	}
}

func TestWeakHandleOkFlagReflectsNull(t *testing.T) {
	mailbox := newTestMailbox(t)
	h, err := NewWeakHandle(mailbox, PurposeCLDWeak)
	if err != nil {
		t.Fatalf("NewWeakHandle: %v", err)
	}
	if _, ok := h.Get(); ok {
		t.Fatal("fresh weak handle should report ok=false")
	}
	h.Set(0xabc)
	if v, ok := h.Get(); !ok || v != 0xabc {
		t.Fatalf("got v=%x ok=%v, want 0xabc/true", v, ok)
	}
}

func TestHandleReleaseReusesSlot(t *testing.T) {
	mailbox := newTestMailbox(t)
	h1, err := NewObjHandle(mailbox, PurposeVMInternal)
	if err != nil {
		t.Fatalf("NewObjHandle: %v", err)
	}
	idx1 := h1.index
	if err := h1.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}

	h2, err := NewObjHandle(mailbox, PurposeVMInternal)
	if err != nil {
		t.Fatalf("NewObjHandle: %v", err)
	}
	if h2.index != idx1 {
		t.Errorf("freed slot not reused: got index %d, want %d", h2.index, idx1)
	}
}
