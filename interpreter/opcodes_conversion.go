/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2023 by  the Jacobin authors. Consult jacobin.org.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0) All rights reserved.
 */

package interpreter

import "github.com/klover-go/klover/frames"

// registerConversionOps wires the widening/narrowing numeric
// conversions, per JVMS §2.8.3: float/double-to-integral conversions
// saturate and map NaN to zero rather than overflowing, which is why
// they go through toInt32/toInt64 instead of a bare Go type assertion.
func registerConversionOps() {
	register(I2l, conv1(func(v interface{}) interface{} { return int64(v.(int32)) }))
	register(I2f, conv1(func(v interface{}) interface{} { return float32(v.(int32)) }))
	register(I2d, conv1(func(v interface{}) interface{} { return float64(v.(int32)) }))
	register(I2b, conv1(func(v interface{}) interface{} { return int32(int8(v.(int32))) }))
	register(I2c, conv1(func(v interface{}) interface{} { return int32(uint16(v.(int32))) }))
	register(I2s, conv1(func(v interface{}) interface{} { return int32(int16(v.(int32))) }))

	register(L2i, conv1(func(v interface{}) interface{} { return int32(v.(int64)) }))
	register(L2f, conv1(func(v interface{}) interface{} { return float32(v.(int64)) }))
	register(L2d, conv1(func(v interface{}) interface{} { return float64(v.(int64)) }))

	register(F2i, conv1(func(v interface{}) interface{} { return toInt32(float64(v.(float32))) }))
	register(F2l, conv1(func(v interface{}) interface{} { return toInt64(float64(v.(float32))) }))
	register(F2d, conv1(func(v interface{}) interface{} { return float64(v.(float32)) }))

	register(D2i, conv1(func(v interface{}) interface{} { return toInt32(v.(float64)) }))
	register(D2l, conv1(func(v interface{}) interface{} { return toInt64(v.(float64)) }))
	register(D2f, conv1(func(v interface{}) interface{} { return float32(v.(float64)) }))
}

func conv1(f func(interface{}) interface{}) handler {
	return func(ctx *Context, fr *frames.Frame) (int, *ThrownException, error) {
		fr.Push(f(fr.Pop()))
		return 1, nil, nil
	}
}

// toInt32 converts per JVMS §f2i/d2i: NaN becomes 0, and an
// out-of-range value saturates to MinInt32/MaxInt32 rather than
// wrapping as a raw Go float-to-int conversion would.
func toInt32(v float64) int32 {
	if v != v { // NaN
		return 0
	}
	if v >= 2147483647.0 {
		return 2147483647
	}
	if v <= -2147483648.0 {
		return -2147483648
	}
	return int32(v)
}

// toInt64 converts per JVMS §f2l/d2l, the long-width analogue of toInt32.
func toInt64(v float64) int64 {
	if v != v { // NaN
		return 0
	}
	const maxLong = float64(9223372036854775807)
	const minLong = float64(-9223372036854775808)
	if v >= maxLong {
		return 9223372036854775807
	}
	if v <= minLong {
		return -9223372036854775808
	}
	return int64(v)
}
