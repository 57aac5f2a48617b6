// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package tensors

import (
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/tilemap/types/shapes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/x448/float16"
)

func TestFromShape(t *testing.T) {
	tensor := FromShape(shapes.Make(dtypes.Int32, 2, 3))
	require.Equal(t, dtypes.Int32, tensor.DType())
	require.Equal(t, 6, tensor.Size())
	require.Equal(t, []int32{0, 0, 0, 0, 0, 0}, CopyFlatData[int32](tensor))

	// Float64 is not a tile hardware type.
	require.Panics(t, func() { FromShape(shapes.Make(dtypes.Float64, 2)) })
}

func TestFromFlatDataAndDimensions(t *testing.T) {
	tensor := FromFlatDataAndDimensions([]float32{1, 2, 3, 4, 5, 6}, 2, 3)
	require.True(t, tensor.Shape().Equal(shapes.Make(dtypes.Float32, 2, 3)))
	require.Equal(t, []float32{1, 2, 3, 4, 5, 6}, CopyFlatData[float32](tensor))

	// Data is copied, not aliased.
	data := []int8{1, 2}
	tensor = FromFlatDataAndDimensions(data, 2)
	data[0] = 99
	require.Equal(t, []int8{1, 2}, CopyFlatData[int8](tensor))

	require.Panics(t, func() { FromFlatDataAndDimensions([]int32{1, 2, 3}, 2, 2) })
}

func TestScalar(t *testing.T) {
	tensor := FromScalar[float32](3.5)
	require.True(t, tensor.Shape().IsScalar())
	require.Equal(t, float32(3.5), ToScalar[float32](tensor))

	h := FromScalar(float16.Fromfloat32(1.5))
	require.Equal(t, dtypes.Float16, h.DType())
	require.Equal(t, float32(1.5), ToScalar[float16.Float16](h).Float32())

	require.Panics(t, func() { ToScalar[float32](FromFlatDataAndDimensions([]float32{1, 2}, 2)) })
}

func TestFlatDataAccess(t *testing.T) {
	tensor := FromFlatDataAndDimensions([]int32{10, 20, 30}, 3)
	ConstFlatData(tensor, func(flat []int32) {
		require.Equal(t, []int32{10, 20, 30}, flat)
	})
	MutableFlatData(tensor, func(flat []int32) {
		flat[1] = -20
	})
	require.Equal(t, []int32{10, -20, 30}, CopyFlatData[int32](tensor))

	// Wrong dtype parameter panics.
	require.Panics(t, func() { ConstFlatData(tensor, func(flat []float32) {}) })
}

func TestLeadingSlice(t *testing.T) {
	tensor := FromFlatDataAndDimensions([]float32{1, 2, 3, 4, 5, 6}, 3, 2)
	slice := tensor.LeadingSlice(1)
	require.True(t, slice.Shape().Equal(shapes.Make(dtypes.Float32, 2)))
	require.Equal(t, []float32{3, 4}, CopyFlatData[float32](slice))

	// The slice is a view: writes show through.
	MutableFlatData(slice, func(flat []float32) { flat[0] = 30 })
	require.Equal(t, []float32{1, 2, 30, 4, 5, 6}, CopyFlatData[float32](tensor))

	require.Panics(t, func() { tensor.LeadingSlice(3) })
	require.Panics(t, func() { FromScalar[int32](1).LeadingSlice(0) })
}

func TestBytes(t *testing.T) {
	tensor := FromFlatDataAndDimensions([]int32{1, 256}, 2)
	raw := tensor.Bytes()
	require.Len(t, raw, 8)
	// Little-endian layout.
	assert.Equal(t, []byte{1, 0, 0, 0, 0, 1, 0, 0}, raw)

	require.Len(t, FromFlatDataAndDimensions([]float16.Float16{0, 0, 0}, 3).Bytes(), 6)
	require.Len(t, FromFlatDataAndDimensions([]bool{true, false}, 2).Bytes(), 2)
}

func TestCloneAndEqual(t *testing.T) {
	tensor := FromFlatDataAndDimensions([]float32{1, 2, 3}, 3)
	clone := tensor.Clone()
	require.True(t, tensor.Equal(clone))

	MutableFlatData(clone, func(flat []float32) { flat[0] = -1 })
	require.False(t, tensor.Equal(clone))
	require.Equal(t, []float32{1, 2, 3}, CopyFlatData[float32](tensor))

	require.False(t, tensor.Equal(FromFlatDataAndDimensions([]float32{1, 2, 3}, 1, 3)))
	require.False(t, tensor.Equal(nil))
}
