/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2023 by  the Jacobin authors. Consult jacobin.org.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0) All rights reserved.
 */

package interpreter

import (
	"testing"

	"github.com/klover-go/klover/access"
	"github.com/klover-go/klover/frames"
	"github.com/klover-go/klover/klass"
	"github.com/klover-go/klover/object"
	"github.com/klover-go/klover/thread"
)

// newTestContext builds a bare Context around a fresh thread, enough
// to run CallMethod for methods whose bytecode never resolves a
// symbolic reference (no new/invoke*/get-or-putstatic).
func newTestContext() *Context {
	th := thread.CreateThread()
	return &Context{Thread: &th}
}

func runMethod(t *testing.T, code []byte, maxStack, maxLocals int, excTable []klass.ExceptionHandler) (interface{}, *ThrownException) {
	t.Helper()
	k := klass.NewInstanceKlass("Test", 0, nil, access.OOP(0))
	m := &klass.Method{
		Name:           "test",
		Desc:           "()I",
		MaxStack:       maxStack,
		MaxLocals:      maxLocals,
		Code:           code,
		ExceptionTable: excTable,
	}
	result, thrown, err := CallMethod(newTestContext(), k, m, nil)
	if err != nil {
		t.Fatalf("CallMethod returned an unexpected error: %v", err)
	}
	return result, thrown
}

func TestIntegerArithmeticReturn(t *testing.T) {
	// iconst_2, iconst_3, iadd, ireturn
	code := []byte{byte(Iconst2), byte(Iconst3), byte(Iadd), byte(Ireturn)}
	result, thrown := runMethod(t, code, 2, 0, nil)
	if thrown != nil {
		t.Fatalf("unexpected thrown exception: %v", thrown)
	}
	if result.(int32) != 5 {
		t.Errorf("expected 5, got %v", result)
	}
}

func TestIntegerDivisionByZeroPropagates(t *testing.T) {
	// iconst_1, iconst_0, idiv, ireturn (never reached)
	code := []byte{byte(Iconst1), byte(Iconst0), byte(Idiv), byte(Ireturn)}
	_, thrown := runMethod(t, code, 2, 0, nil)
	if thrown == nil {
		t.Fatal("expected a thrown ArithmeticException, got none")
	}
	if thrown.ClassName != "java/lang/ArithmeticException" {
		t.Errorf("expected java/lang/ArithmeticException, got %s", thrown.ClassName)
	}
}

func TestExceptionTableCatchesDivisionByZero(t *testing.T) {
	// 0: iconst_1
	// 1: iconst_0
	// 2: idiv          -- throws, caught by the table below
	// 3: ireturn        (never reached directly)
	// handler at pc 4: pop the pushed exception, push -1, return it
	code := []byte{
		byte(Iconst1), byte(Iconst0), byte(Idiv), byte(Ireturn),
		byte(Pop), byte(IconstM1), byte(Ireturn),
	}
	excTable := []klass.ExceptionHandler{
		{StartPC: 0, EndPC: 4, HandlerPC: 4, CatchType: 0},
	}
	result, thrown := runMethod(t, code, 2, 0, excTable)
	if thrown != nil {
		t.Fatalf("exception should have been caught, got %v", thrown)
	}
	if result.(int32) != -1 {
		t.Errorf("expected -1 from the handler, got %v", result)
	}
}

func TestLoopSumsViaBackwardBranch(t *testing.T) {
	// int sum = 0; int i = 0;
	// loop: if (i >= 5) goto done
	//       sum += i; i++; goto loop
	// done: return sum
	//
	// locals: 0 = sum, 1 = i
	code := []byte{
		/*0*/ byte(Iconst0), // sum = 0
		/*1*/ byte(Istore0),
		/*2*/ byte(Iconst0), // i = 0
		/*3*/ byte(Istore1),
		// loop: pc 4
		/*4*/ byte(Iload1),
		/*5*/ byte(Bipush), 5,
		/*7*/ byte(IfIcmpge), 0, 13, // if i >= 5, branch +13 -> pc 20 (done)
		/*10*/ byte(Iload0),
		/*11*/ byte(Iload1),
		/*12*/ byte(Iadd),
		/*13*/ byte(Istore0),
		/*14*/ byte(Iinc), 1, 1, // i++
		/*17*/ byte(Goto), 0xFF, 0xF3, // -13 back to pc 4 (17 + (-13) = 4)
		// done: pc 20
		/*20*/ byte(Iload0),
		/*21*/ byte(Ireturn),
	}
	result, thrown := runMethod(t, code, 3, 2, nil)
	if thrown != nil {
		t.Fatalf("unexpected thrown exception: %v", thrown)
	}
	if result.(int32) != 10 { // 0+1+2+3+4
		t.Errorf("expected 10, got %v", result)
	}
}

func TestStackDupAndSwap(t *testing.T) {
	f := frames.CreateFrame(0)
	f.Method = &klass.Method{Code: []byte{byte(Dup)}}
	f.Push(int32(7))
	if _, _, err := DispatchTable[Dup](newTestContext(), f); err != nil {
		t.Fatalf("dup returned an error: %v", err)
	}
	if f.TOS() != 2 || f.Peek().(int32) != 7 {
		t.Fatalf("dup did not duplicate the top value, stack=%v", f.OpStack)
	}

	f2 := frames.CreateFrame(0)
	f2.Method = &klass.Method{Code: []byte{byte(Swap)}}
	f2.Push(int32(1))
	f2.Push(int32(2))
	if _, _, err := DispatchTable[Swap](newTestContext(), f2); err != nil {
		t.Fatalf("swap returned an error: %v", err)
	}
	if f2.OpStack[0].(int32) != 2 || f2.OpStack[1].(int32) != 1 {
		t.Fatalf("swap did not exchange the top two values, stack=%v", f2.OpStack)
	}
}

// TestDup2X2Form3 is a regression test for a bug where Form 3 (two
// category-1 values over one category-2 value) fell through to Form
// 1's branch and popped a nonexistent fourth value, corrupting the
// stack.
func TestDup2X2Form3(t *testing.T) {
	f := frames.CreateFrame(0)
	f.Method = &klass.Method{Code: []byte{byte(Dup2X2)}}
	f.Push(int64(99)) // value3, category 2
	f.Push(int32(2))  // value2
	f.Push(int32(1))  // value1 (TOS)

	if _, _, err := DispatchTable[Dup2X2](newTestContext(), f); err != nil {
		t.Fatalf("dup2_x2 returned an error: %v", err)
	}

	want := []interface{}{int32(2), int32(1), int64(99), int32(2), int32(1)}
	if f.TOS() != len(want) {
		t.Fatalf("expected %d stack entries, got %d: %v", len(want), f.TOS(), f.OpStack)
	}
	for i, w := range want {
		if f.OpStack[i] != w {
			t.Errorf("stack[%d] = %v, want %v (full stack: %v)", i, f.OpStack[i], w, f.OpStack)
		}
	}
}

func TestDup2X2Form1(t *testing.T) {
	f := frames.CreateFrame(0)
	f.Method = &klass.Method{Code: []byte{byte(Dup2X2)}}
	f.Push(int32(4)) // value4
	f.Push(int32(3)) // value3
	f.Push(int32(2)) // value2
	f.Push(int32(1)) // value1 (TOS)

	if _, _, err := DispatchTable[Dup2X2](newTestContext(), f); err != nil {
		t.Fatalf("dup2_x2 returned an error: %v", err)
	}

	want := []interface{}{int32(2), int32(1), int32(4), int32(3), int32(2), int32(1)}
	if f.TOS() != len(want) {
		t.Fatalf("expected %d stack entries, got %d: %v", len(want), f.TOS(), f.OpStack)
	}
	for i, w := range want {
		if f.OpStack[i] != w {
			t.Errorf("stack[%d] = %v, want %v (full stack: %v)", i, f.OpStack[i], w, f.OpStack)
		}
	}
}

func TestArrayStoreThenLoad(t *testing.T) {
	arr := object.NewArray("I", nil, 3)
	f := frames.CreateFrame(1)
	f.Locals[0] = arr
	f.Method = &klass.Method{Code: []byte{byte(Iastore)}}

	// push arrayref, index, value -- arrayStore pops value, index, arrayref
	f.Push(arr)
	f.Push(int32(1))
	f.Push(int32(42))
	if _, thrown, err := DispatchTable[Iastore](newTestContext(), f); err != nil || thrown != nil {
		t.Fatalf("iastore failed: err=%v thrown=%v", err, thrown)
	}
	if arr.Elements[1].(int32) != 42 {
		t.Fatalf("expected element 1 to be 42, got %v", arr.Elements[1])
	}

	f.Push(arr)
	f.Push(int32(1))
	_, thrown, err := DispatchTable[Iaload](newTestContext(), f)
	if err != nil || thrown != nil {
		t.Fatalf("iaload failed: err=%v thrown=%v", err, thrown)
	}
	if f.Peek().(int32) != 42 {
		t.Errorf("expected 42 back off the array, got %v", f.Peek())
	}
}

func TestAastoreAcceptsNullAndAssignableSubclass(t *testing.T) {
	objectKlass := klass.NewInstanceKlass("java/lang/Object", 0, nil, access.OOP(0))
	stringKlass := klass.NewInstanceKlass("java/lang/String", 1, objectKlass, access.OOP(0))
	arr := object.NewArray("Ljava/lang/String;", stringKlass, 2)
	f := frames.CreateFrame(0)
	f.Method = &klass.Method{Code: []byte{byte(Aastore)}}

	f.Push(arr)
	f.Push(int32(0))
	f.Push(nil)
	if _, thrown, err := DispatchTable[Aastore](newTestContext(), f); err != nil || thrown != nil {
		t.Fatalf("storing null should always succeed, got thrown=%v err=%v", thrown, err)
	}

	str := object.NewInstanceOf(stringKlass)
	f.Push(arr)
	f.Push(int32(1))
	f.Push(str)
	if _, thrown, err := DispatchTable[Aastore](newTestContext(), f); err != nil || thrown != nil {
		t.Fatalf("storing an exact-type value should succeed, got thrown=%v err=%v", thrown, err)
	}
	if arr.Elements[1].(*object.Object) != str {
		t.Errorf("expected element 1 to hold the stored String, got %v", arr.Elements[1])
	}
}

func TestAastoreThrowsArrayStoreExceptionOnIncompatibleType(t *testing.T) {
	objectKlass := klass.NewInstanceKlass("java/lang/Object", 0, nil, access.OOP(0))
	stringKlass := klass.NewInstanceKlass("java/lang/String", 1, objectKlass, access.OOP(0))
	otherKlass := klass.NewInstanceKlass("SomeOtherType", 2, objectKlass, access.OOP(0))
	arr := object.NewArray("Ljava/lang/String;", stringKlass, 1)
	f := frames.CreateFrame(0)
	f.Method = &klass.Method{Code: []byte{byte(Aastore)}}

	wrong := object.NewInstanceOf(otherKlass)
	f.Push(arr)
	f.Push(int32(0))
	f.Push(wrong)
	_, thrown, err := DispatchTable[Aastore](newTestContext(), f)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if thrown == nil || thrown.ClassName != "java/lang/ArrayStoreException" {
		t.Fatalf("expected ArrayStoreException, got %v", thrown)
	}
}

func TestArrayLoadOutOfBoundsThrows(t *testing.T) {
	arr := object.NewArray("I", nil, 2)
	f := frames.CreateFrame(0)
	f.Method = &klass.Method{Code: []byte{byte(Iaload)}}
	f.Push(arr)
	f.Push(int32(5))

	_, thrown, err := DispatchTable[Iaload](newTestContext(), f)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if thrown == nil || thrown.ClassName != "java/lang/ArrayIndexOutOfBoundsException" {
		t.Fatalf("expected ArrayIndexOutOfBoundsException, got %v", thrown)
	}
}

func TestObjectSetFieldGetFieldRoundTrip(t *testing.T) {
	k := klass.NewInstanceKlass("Point", 0, nil, access.OOP(0))
	obj := object.NewInstanceOf(k)
	obj.SetField("x", object.Field{Ftype: "I", Fvalue: int32(9)})

	f, ok := obj.GetField("x")
	if !ok || f.Fvalue.(int32) != 9 {
		t.Fatalf("expected field x=9, got %v ok=%v", f, ok)
	}
}

// popValues/buildLocals are the pair this package had a real bug in
// (conflating an operand-stack value count with a locals slot count);
// these guard against it reappearing.
func TestPopValuesPopsInCallOrder(t *testing.T) {
	f := frames.CreateFrame(0)
	f.Push(int32(1))
	f.Push(int32(2))
	f.Push(int32(3))

	values := popValues(f, 3)
	if values[0].(int32) != 1 || values[1].(int32) != 2 || values[2].(int32) != 3 {
		t.Fatalf("expected call-order [1 2 3], got %v", values)
	}
	if f.TOS() != 0 {
		t.Fatalf("expected the operand stack to be drained, still has %d entries", f.TOS())
	}
}

func TestBuildLocalsAccountsForWideParams(t *testing.T) {
	// void m(long a, int b) -- receiver at slot 0, 'a' (long) takes
	// slots 1-2, 'b' (int) takes slot 3.
	params := []string{"J", "I"}
	values := []interface{}{int64(100), int32(7)}
	receiver := "this-stand-in"

	locals := buildLocals(5, receiver, params, values)
	if locals[0] != receiver {
		t.Fatalf("expected receiver at slot 0, got %v", locals[0])
	}
	if locals[1].(int64) != 100 {
		t.Fatalf("expected long arg at slot 1, got %v", locals[1])
	}
	if locals[3].(int32) != 7 {
		t.Fatalf("expected int arg at slot 3 (after the long's two slots), got %v", locals[3])
	}
}

func TestBuildLocalsNoReceiverStartsAtSlotZero(t *testing.T) {
	params := []string{"I", "D"}
	values := []interface{}{int32(4), float64(2.5)}

	locals := buildLocals(4, nil, params, values)
	if locals[0].(int32) != 4 {
		t.Fatalf("expected int arg at slot 0 with no receiver, got %v", locals[0])
	}
	if locals[1].(float64) != 2.5 {
		t.Fatalf("expected double arg at slot 1, got %v", locals[1])
	}
}

func TestNumericConversions(t *testing.T) {
	f := frames.CreateFrame(0)
	f.Method = &klass.Method{Code: []byte{byte(D2i)}}
	f.Push(float64(3.9))
	if _, _, err := DispatchTable[D2i](newTestContext(), f); err != nil {
		t.Fatalf("d2i returned an error: %v", err)
	}
	if f.Peek().(int32) != 3 {
		t.Errorf("expected d2i(3.9) == 3, got %v", f.Peek())
	}
}

func TestLongComparison(t *testing.T) {
	f := frames.CreateFrame(0)
	f.Method = &klass.Method{Code: []byte{byte(Lcmp)}}
	f.Push(int64(10))
	f.Push(int64(3))
	if _, _, err := DispatchTable[Lcmp](newTestContext(), f); err != nil {
		t.Fatalf("lcmp returned an error: %v", err)
	}
	if f.Peek().(int32) != 1 {
		t.Errorf("expected lcmp(10,3) == 1, got %v", f.Peek())
	}
}
