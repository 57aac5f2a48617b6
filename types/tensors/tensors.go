// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package tensors implements a minimal host-memory tensor: a flat backing
// slice plus a shapes.Shape.
//
// It only supports the dtypes the tile hardware supports (bool, int8, int16,
// int32, float16 and float32) and exists to feed the reference execution path
// and to embed compile-time constants into equations. It is not a full
// featured tensor library: no views other than leading-axis slices, no
// device transfers.
package tensors

import (
	"unsafe"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/tilemap/types/shapes"
	"github.com/x448/float16"
)

// Tensor is a concrete host value: a flat slice of one of the supported Go
// types, interpreted with the row-major layout of its Shape.
//
// The zero value is invalid; use one of the From* constructors.
type Tensor struct {
	shape shapes.Shape
	// flat is one of []bool, []int8, []int16, []int32, []float16.Float16 or
	// []float32, with len == shape.Size().
	flat any
}

// FromShape creates a zero-initialized tensor of the given shape.
// It panics if the shape's dtype is not supported.
func FromShape(shape shapes.Shape) *Tensor {
	t := &Tensor{shape: shape.Clone()}
	size := shape.Size()
	switch shape.DType {
	case dtypes.Bool:
		t.flat = make([]bool, size)
	case dtypes.Int8:
		t.flat = make([]int8, size)
	case dtypes.Int16:
		t.flat = make([]int16, size)
	case dtypes.Int32:
		t.flat = make([]int32, size)
	case dtypes.Float16:
		t.flat = make([]float16.Float16, size)
	case dtypes.Float32:
		t.flat = make([]float32, size)
	default:
		exceptions.Panicf("tensors.FromShape(%s): dtype %s not supported", shape, shape.DType)
	}
	return t
}

// Supported is the constraint of Go types with a corresponding supported dtype.
type Supported interface {
	bool | int8 | int16 | int32 | float16.Float16 | float32
}

// FromFlatDataAndDimensions creates a tensor with the given dimensions,
// filled with the flattened values in data. The data is copied.
// The dtype is inferred from the data type.
func FromFlatDataAndDimensions[T Supported](data []T, dimensions ...int) *Tensor {
	shape := shapes.Make(dtypes.FromGenericsType[T](), dimensions...)
	if len(data) != shape.Size() {
		exceptions.Panicf("tensors.FromFlatDataAndDimensions(%s): data size is %d, but dimensions size is %d",
			shape, len(data), shape.Size())
	}
	t := FromShape(shape)
	copy(t.flat.([]T), data)
	return t
}

// FromScalar creates a rank-0 tensor holding the given value.
func FromScalar[T Supported](value T) *Tensor {
	t := FromShape(shapes.Shape{DType: dtypes.FromGenericsType[T]()})
	t.flat.([]T)[0] = value
	return t
}

// Shape of the tensor.
func (t *Tensor) Shape() shapes.Shape { return t.shape }

// DType of the tensor's elements.
func (t *Tensor) DType() dtypes.DType { return t.shape.DType }

// Size is the number of elements.
func (t *Tensor) Size() int { return t.shape.Size() }

// Clone returns a deep copy of the tensor.
func (t *Tensor) Clone() *Tensor {
	t2 := FromShape(t.shape)
	copy(t2.Bytes(), t.Bytes())
	return t2
}

// ConstFlatData gives access to the flat backing data of the tensor.
// The slice must not be written to or retained beyond accessFn.
// It panics if T does not match the tensor's dtype.
func ConstFlatData[T Supported](t *Tensor, accessFn func(flat []T)) {
	flat, ok := t.flat.([]T)
	if !ok {
		exceptions.Panicf("tensors.ConstFlatData[%s]: tensor has dtype %s",
			dtypes.FromGenericsType[T](), t.shape.DType)
	}
	accessFn(flat)
}

// MutableFlatData gives writable access to the flat backing data of the
// tensor. The slice must not be retained beyond accessFn.
// It panics if T does not match the tensor's dtype.
func MutableFlatData[T Supported](t *Tensor, accessFn func(flat []T)) {
	flat, ok := t.flat.([]T)
	if !ok {
		exceptions.Panicf("tensors.MutableFlatData[%s]: tensor has dtype %s",
			dtypes.FromGenericsType[T](), t.shape.DType)
	}
	accessFn(flat)
}

// CopyFlatData returns a copy of the flat data.
func CopyFlatData[T Supported](t *Tensor) []T {
	var data []T
	ConstFlatData(t, func(flat []T) {
		data = make([]T, len(flat))
		copy(data, flat)
	})
	return data
}

// ToScalar returns the single element of a size-1 tensor.
func ToScalar[T Supported](t *Tensor) T {
	if t.Size() != 1 {
		exceptions.Panicf("tensors.ToScalar: tensor shaped %s has more than one element", t.shape)
	}
	return t.flat.([]T)[0]
}

// LeadingSlice returns a view (shared backing data) of index i of the
// tensor's leading axis. For a tensor shaped (numTiles, dims...) it returns
// the tensor shaped (dims...) of tile position i.
func (t *Tensor) LeadingSlice(i int) *Tensor {
	if t.shape.Rank() == 0 {
		exceptions.Panicf("Tensor.LeadingSlice: tensor shaped %s is a scalar", t.shape)
	}
	numSlices := t.shape.Dimensions[0]
	if i < 0 || i >= numSlices {
		exceptions.Panicf("Tensor.LeadingSlice(%d): out-of-bounds for shape %s", i, t.shape)
	}
	subShape := t.shape.DropLeadingAxis()
	stride := subShape.Size()
	t2 := &Tensor{shape: subShape}
	switch flat := t.flat.(type) {
	case []bool:
		t2.flat = flat[i*stride : (i+1)*stride]
	case []int8:
		t2.flat = flat[i*stride : (i+1)*stride]
	case []int16:
		t2.flat = flat[i*stride : (i+1)*stride]
	case []int32:
		t2.flat = flat[i*stride : (i+1)*stride]
	case []float16.Float16:
		t2.flat = flat[i*stride : (i+1)*stride]
	case []float32:
		t2.flat = flat[i*stride : (i+1)*stride]
	}
	return t2
}

// Bytes returns the raw little-endian bytes of the backing data, without
// copying. Used to embed compile-time constants in equations.
func (t *Tensor) Bytes() []byte {
	size := t.Size()
	if size == 0 {
		return nil
	}
	switch flat := t.flat.(type) {
	case []bool:
		return unsafe.Slice((*byte)(unsafe.Pointer(&flat[0])), size)
	case []int8:
		return unsafe.Slice((*byte)(unsafe.Pointer(&flat[0])), size)
	case []int16:
		return unsafe.Slice((*byte)(unsafe.Pointer(&flat[0])), 2*size)
	case []int32:
		return unsafe.Slice((*byte)(unsafe.Pointer(&flat[0])), 4*size)
	case []float16.Float16:
		return unsafe.Slice((*byte)(unsafe.Pointer(&flat[0])), 2*size)
	case []float32:
		return unsafe.Slice((*byte)(unsafe.Pointer(&flat[0])), 4*size)
	}
	return nil
}

// Equal returns whether both tensors have the same shape and data.
func (t *Tensor) Equal(t2 *Tensor) bool {
	if t == nil || t2 == nil {
		return t == t2
	}
	if !t.shape.Equal(t2.shape) {
		return false
	}
	a, b := t.Bytes(), t2.Bytes()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
