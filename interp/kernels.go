// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package interp

import (
	"math"
	"unsafe"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/tilemap/types/shapes"
	"github.com/gomlx/tilemap/types/tensors"
	"github.com/x448/float16"
)

// This file implements the element-wise math behind the reference execution
// path. Kernels operate on one tile's flat slices; the tile fan-out happens
// in dispatch.go.

// podNumeric are the Go pod (plain-old-data) types of the supported numeric
// dtypes. Float16 is not included: it is a specialized type handled through
// float32 conversion.
type podNumeric interface {
	int8 | int16 | int32 | float32
}

// podInteger are the Go pod types of the supported integer dtypes.
type podInteger interface {
	int8 | int16 | int32
}

func dtypeOf[T tensors.Supported]() dtypes.DType {
	var v T
	switch any(v).(type) {
	case bool:
		return dtypes.Bool
	case int8:
		return dtypes.Int8
	case int16:
		return dtypes.Int16
	case int32:
		return dtypes.Int32
	case float16.Float16:
		return dtypes.Float16
	case float32:
		return dtypes.Float32
	}
	return dtypes.InvalidDType
}

// applyBinary allocates the output tensor and applies fn element-wise.
// lhs and rhs must have the same shape.
func applyBinary[T, O tensors.Supported](lhs, rhs *tensors.Tensor, fn func(a, b T) O) *tensors.Tensor {
	outShape := shapes.Shape{DType: dtypeOf[O](), Dimensions: lhs.Shape().Clone().Dimensions}
	out := tensors.FromShape(outShape)
	tensors.ConstFlatData(lhs, func(a []T) {
		tensors.ConstFlatData(rhs, func(b []T) {
			tensors.MutableFlatData(out, func(o []O) {
				for i := range o {
					o[i] = fn(a[i], b[i])
				}
			})
		})
	})
	return out
}

// arithFn returns the function of an arithmetic primitive defined for every
// numeric dtype, or nil if name is not one of them.
func arithFn[T podNumeric](name string) func(a, b T) T {
	switch name {
	case "add":
		return func(a, b T) T { return a + b }
	case "sub":
		return func(a, b T) T { return a - b }
	case "mul":
		return func(a, b T) T { return a * b }
	case "max":
		return func(a, b T) T {
			if a > b {
				return a
			}
			return b
		}
	case "min":
		return func(a, b T) T {
			if a < b {
				return a
			}
			return b
		}
	}
	return nil
}

// cmpFn returns the function of a comparison primitive, or nil.
func cmpFn[T podNumeric](name string) func(a, b T) bool {
	switch name {
	case "eq":
		return func(a, b T) bool { return a == b }
	case "ne":
		return func(a, b T) bool { return a != b }
	case "lt":
		return func(a, b T) bool { return a < b }
	case "le":
		return func(a, b T) bool { return a <= b }
	case "gt":
		return func(a, b T) bool { return a > b }
	case "ge":
		return func(a, b T) bool { return a >= b }
	}
	return nil
}

// execScalarPowInt is a O(num of bits) Pow(base, exp) implementation for integers.
func execScalarPowInt[T podInteger](base, exp T) T {
	result := T(1)
	for exp > 0 {
		if exp%2 == 1 {
			result *= base
		}
		base *= base
		exp >>= 1 // exp /= 2
	}
	return result
}

// intFn returns the function of an integer-only primitive, or nil.
// Shift semantics follow XLA: out-of-range shift amounts saturate to 0
// (or to the sign for arithmetic right-shift) instead of being undefined.
func intFn[T podInteger](name string) func(a, b T) T {
	var zero T
	bits := int64(unsafe.Sizeof(zero)) * 8
	widthMask := uint64(1)<<bits - 1
	switch name {
	case "div":
		return func(a, b T) T {
			if b == 0 {
				return 0
			}
			return a / b
		}
	case "pow":
		return execScalarPowInt[T]
	case "rem":
		return func(a, b T) T {
			if b == 0 {
				return 0
			}
			return a % b
		}
	case "and":
		return func(a, b T) T { return a & b }
	case "or":
		return func(a, b T) T { return a | b }
	case "xor":
		return func(a, b T) T { return a ^ b }
	case "shift_left":
		return func(a, b T) T {
			if b < 0 || int64(b) >= bits {
				return 0
			}
			return a << uint64(b)
		}
	case "shift_right_logical":
		return func(a, b T) T {
			if b < 0 || int64(b) >= bits {
				return 0
			}
			return T((uint64(a) & widthMask) >> uint64(b))
		}
	case "shift_right_arithmetic":
		return func(a, b T) T {
			if b < 0 {
				return 0
			}
			if int64(b) >= bits {
				if a < 0 {
					return -1
				}
				return 0
			}
			return a >> uint64(b)
		}
	}
	return nil
}

// floatFn returns the function of a float-only primitive, or nil.
func floatFn(name string) func(a, b float32) float32 {
	switch name {
	case "div":
		return func(a, b float32) float32 { return a / b }
	case "pow":
		return func(a, b float32) float32 { return float32(math.Pow(float64(a), float64(b))) }
	case "rem":
		return func(a, b float32) float32 { return float32(math.Mod(float64(a), float64(b))) }
	case "atan2":
		return func(a, b float32) float32 { return float32(math.Atan2(float64(a), float64(b))) }
	}
	return nil
}

// boolFn returns the function of a primitive defined on booleans, or nil.
// The bitwise primitives act as their logical counterparts on bool operands.
func boolFn(name string) func(a, b bool) bool {
	switch name {
	case "eq":
		return func(a, b bool) bool { return a == b }
	case "ne", "xor":
		return func(a, b bool) bool { return a != b }
	case "and":
		return func(a, b bool) bool { return a && b }
	case "or":
		return func(a, b bool) bool { return a || b }
	}
	return nil
}

// floatToF16Fn adapts a float32 kernel to float16 operands.
func floatToF16Fn(fn func(a, b float32) float32) func(a, b float16.Float16) float16.Float16 {
	return func(a, b float16.Float16) float16.Float16 {
		return float16.Fromfloat32(fn(a.Float32(), b.Float32()))
	}
}
