/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2024 by the Jacobin Authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)  Consult jacobin.org.
 */

// Package excNames names the JVM exception and error classes the
// interpreter and class loader can raise (§7). Each constant is the
// fully-qualified binary name the VM uses when it allocates the
// exception object and when it searches a method's exception table.
package excNames

// JVMException identifies which of the named classes below a raised
// condition corresponds to. It is an index into the class name table,
// not a Go error type, because the spec requires exceptions to be
// represented as heap objects, not just propagated Go errors.
type JVMException int

const (
	Unknown JVMException = iota

	// Linkage errors (§7)
	ClassFormatError
	NoClassDefFoundError
	ClassNotFoundException
	LinkageError
	IncompatibleClassChangeError
	ClassCircularityError
	VerifyError

	// Runtime exceptions (§7)
	NullPointerException
	ArrayIndexOutOfBoundsException
	ArrayStoreException
	ArithmeticException
	ClassCastException
	NegativeArraySizeException
	StackOverflowError
	OutOfMemoryError

	IOException
)

// JVMClassNames maps each JVMException to the binary class name of the
// Java exception class used to instantiate the thrown object.
var JVMClassNames = map[JVMException]string{
	ClassFormatError:                "java/lang/ClassFormatError",
	NoClassDefFoundError:            "java/lang/NoClassDefFoundError",
	ClassNotFoundException:          "java/lang/ClassNotFoundException",
	LinkageError:                    "java/lang/LinkageError",
	IncompatibleClassChangeError:    "java/lang/IncompatibleClassChangeError",
	ClassCircularityError:           "java/lang/ClassCircularityError",
	VerifyError:                     "java/lang/VerifyError",
	NullPointerException:            "java/lang/NullPointerException",
	ArrayIndexOutOfBoundsException:  "java/lang/ArrayIndexOutOfBoundsException",
	ArrayStoreException:             "java/lang/ArrayStoreException",
	ArithmeticException:             "java/lang/ArithmeticException",
	ClassCastException:              "java/lang/ClassCastException",
	NegativeArraySizeException:      "java/lang/NegativeArraySizeException",
	StackOverflowError:              "java/lang/StackOverflowError",
	OutOfMemoryError:                "java/lang/OutOfMemoryError",
	IOException:                     "java/io/IOException",
}

// JacobinRuntimeException is the generic Go error type wrapping a
// JVMException before it has been turned into a heap object -- e.g.
// while unwinding through Go call frames on the way up to athrow.
type JacobinRuntimeException struct {
	ExceptionType JVMException
	Msg           string
}

func (e *JacobinRuntimeException) Error() string {
	return JVMClassNames[e.ExceptionType] + ": " + e.Msg
}

// NewException builds a JacobinRuntimeException for the given kind.
func NewException(kind JVMException, msg string) *JacobinRuntimeException {
	return &JacobinRuntimeException{ExceptionType: kind, Msg: msg}
}
