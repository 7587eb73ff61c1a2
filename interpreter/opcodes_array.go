/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2023 by  the Jacobin authors. Consult jacobin.org.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0) All rights reserved.
 */

package interpreter

import (
	"fmt"

	"github.com/klover-go/klover/excNames"
	"github.com/klover-go/klover/frames"
	"github.com/klover-go/klover/object"
)

// registerArrayOps wires the {i,l,f,d,a,b,c,s}aload/astore family and
// arraylength. Every element type shares one load/store body since
// object.Array boxes its elements in []interface{} rather than
// per-width byte slices.
func registerArrayOps() {
	register(Iaload, arrayLoad())
	register(Laload, arrayLoad())
	register(Faload, arrayLoad())
	register(Daload, arrayLoad())
	register(Aaload, arrayLoad())
	register(Baload, arrayLoad())
	register(Caload, arrayLoad())
	register(Saload, arrayLoad())

	register(Iastore, arrayStore(false))
	register(Lastore, arrayStore(false))
	register(Fastore, arrayStore(false))
	register(Dastore, arrayStore(false))
	register(Aastore, arrayStore(true))
	register(Bastore, arrayStore(false))
	register(Castore, arrayStore(false))
	register(Sastore, arrayStore(false))

	register(Arraylength, func(ctx *Context, f *frames.Frame) (int, *ThrownException, error) {
		v := f.Pop()
		arr, ok := v.(*object.Array)
		if !ok || arr == nil {
			return 0, vmException(excNames.NullPointerException, "arraylength on null array reference"), nil
		}
		f.Push(int32(arr.Length()))
		return 1, nil, nil
	})
}

func arrayLoad() handler {
	return func(ctx *Context, f *frames.Frame) (int, *ThrownException, error) {
		index, _ := f.Pop().(int32)
		v := f.Pop()
		arr, ok := v.(*object.Array)
		if !ok || arr == nil {
			return 0, vmException(excNames.NullPointerException, "array load on null reference"), nil
		}
		if index < 0 || int(index) >= arr.Length() {
			return 0, vmException(excNames.ArrayIndexOutOfBoundsException,
				fmt.Sprintf("index %d out of bounds for length %d", index, arr.Length())), nil
		}
		f.Push(arr.Elements[index])
		return 1, nil, nil
	}
}

// arrayStore builds the shared *astore body. checkStoreType is set
// only for Aastore: JVMS §4.1 requires aastore alone to verify the
// stored reference's runtime type is assignment-compatible with the
// array's component type, raising ArrayStoreException on a mismatch --
// the other seven *astore opcodes store a value already known by its
// opcode to match the array's primitive component width, so no
// per-store type check applies to them.
func arrayStore(checkStoreType bool) handler {
	return func(ctx *Context, f *frames.Frame) (int, *ThrownException, error) {
		value := f.Pop()
		index, _ := f.Pop().(int32)
		v := f.Pop()
		arr, ok := v.(*object.Array)
		if !ok || arr == nil {
			return 0, vmException(excNames.NullPointerException, "array store on null reference"), nil
		}
		if index < 0 || int(index) >= arr.Length() {
			return 0, vmException(excNames.ArrayIndexOutOfBoundsException,
				fmt.Sprintf("index %d out of bounds for length %d", index, arr.Length())), nil
		}
		if checkStoreType {
			if thrown := checkArrayStoreCompatible(arr, value); thrown != nil {
				return 0, thrown, nil
			}
		}
		arr.Elements[index] = value
		return 1, nil, nil
	}
}

// checkArrayStoreCompatible implements aastore's store-type check
// (JVMS §4.1, §5.4.3.2's "array store exception"). A null value always
// stores. A non-null value must be the array's component klass or a
// (possibly indirect) subclass of it; arr.ElementKlass == nil means
// the component type itself hasn't been resolved to a Klass (e.g. an
// Object[] built before java/lang/Object was loaded), in which case
// every reference is accepted.
func checkArrayStoreCompatible(arr *object.Array, value interface{}) *ThrownException {
	if value == nil {
		return nil
	}
	if arr.ElementKlass == nil {
		return nil
	}
	obj, ok := value.(*object.Object)
	if !ok {
		return nil
	}
	if obj.Klass != nil && obj.Klass.IsSubclassOf(arr.ElementKlass) {
		return nil
	}
	return vmException(excNames.ArrayStoreException,
		fmt.Sprintf("value of type %s is not assignable to array component type %s",
			objectKlassName(obj), arr.ElementKlass.Name))
}

func objectKlassName(obj *object.Object) string {
	if obj == nil || obj.Klass == nil {
		return "<unknown>"
	}
	return obj.Klass.Name
}
