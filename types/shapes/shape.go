// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package shapes defines Shape, the per-tile description of an operand:
// its DType and its dimensions, with the tile-sharding axis already removed.
//
// Shape is used both for concrete tensors (see types/tensors) and for the
// abstract, shape-only evaluation of tile primitives, where no data is ever
// materialized. DType is the enumeration from github.com/gomlx/gopjrt/dtypes.
//
// ## Glossary
//
//   - Rank: number of axes (dimensions) of a tensor.
//   - Axis: the index of one dimension. Axis 0 of a tile-sharded value is the
//     tile axis; the shapes handled by the tile translation rules never
//     include it.
//   - Scalar: a shape of rank 0, holding a single value of the DType.
package shapes

import (
	"fmt"
	"slices"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
)

// Shape represents the shape of one tile's slice of an operand: its DType
// plus its per-tile dimensions.
//
// Use Make to create a new Shape.
type Shape struct {
	DType      dtypes.DType
	Dimensions []int
}

// Make returns a Shape with the given dtype and dimensions.
// It panics if any dimension is <= 0 -- shapes here are always concrete.
func Make(dtype dtypes.DType, dimensions ...int) Shape {
	s := Shape{DType: dtype, Dimensions: slices.Clone(dimensions)}
	for _, dim := range dimensions {
		if dim <= 0 {
			exceptions.Panicf("shapes.Make(%s): cannot create a shape with an axis with dimension <= 0", s)
		}
	}
	return s
}

// Scalar returns a scalar (rank-0) Shape for the given type.
func Scalar[T dtypes.NumberNotComplex]() Shape {
	return Shape{DType: dtypes.FromGenericsType[T]()}
}

// Invalid returns an invalid shape: Invalid().Ok() == false.
func Invalid() Shape {
	return Shape{DType: dtypes.InvalidDType}
}

// Ok returns whether this is a valid Shape. The zero value Shape{} is invalid.
func (s Shape) Ok() bool { return s.DType != dtypes.InvalidDType }

// Rank of the shape, that is, the number of axes.
func (s Shape) Rank() int { return len(s.Dimensions) }

// IsScalar returns whether the shape has rank 0.
func (s Shape) IsScalar() bool { return s.Ok() && s.Rank() == 0 }

// Size returns the number of elements of DType needed for this shape.
// It is the product of all dimensions, 1 for a scalar.
func (s Shape) Size() (size int) {
	size = 1
	for _, d := range s.Dimensions {
		size *= d
	}
	return
}

// Memory returns the bytes needed to store an array of the given shape.
func (s Shape) Memory() uintptr {
	return s.DType.Memory() * uintptr(s.Size())
}

// Shape returns a shallow copy of itself. It implements the HasShape interface.
func (s Shape) Shape() Shape { return s }

// String implements fmt.Stringer, pretty-prints the shape.
func (s Shape) String() string {
	if s.Rank() == 0 {
		return fmt.Sprintf("(%s)", s.DType)
	}
	return fmt.Sprintf("(%s)%v", s.DType, s.Dimensions)
}

// Equal compares dtype and dimensions.
func (s Shape) Equal(s2 Shape) bool {
	if s.DType != s2.DType {
		return false
	}
	return slices.Equal(s.Dimensions, s2.Dimensions)
}

// EqualDimensions compares dimensions only, ignoring dtypes.
func (s Shape) EqualDimensions(s2 Shape) bool {
	return slices.Equal(s.Dimensions, s2.Dimensions)
}

// Clone returns a deep copy of the shape.
func (s Shape) Clone() Shape {
	return Shape{DType: s.DType, Dimensions: slices.Clone(s.Dimensions)}
}

// Prepend returns a new shape with the given dimension inserted as axis 0.
// It is used to rebuild a tile-sharded shape from a per-tile shape.
func (s Shape) Prepend(dim int) Shape {
	if dim <= 0 {
		exceptions.Panicf("Shape.Prepend(%d): leading dimension must be > 0", dim)
	}
	s2 := Shape{DType: s.DType, Dimensions: make([]int, 0, s.Rank()+1)}
	s2.Dimensions = append(s2.Dimensions, dim)
	s2.Dimensions = append(s2.Dimensions, s.Dimensions...)
	return s2
}

// DropLeadingAxis returns the shape with axis 0 removed: the per-tile shape
// of a tile-sharded value. It panics on a scalar.
func (s Shape) DropLeadingAxis() Shape {
	if s.Rank() == 0 {
		exceptions.Panicf("Shape.DropLeadingAxis: shape %s is a scalar", s)
	}
	return Shape{DType: s.DType, Dimensions: slices.Clone(s.Dimensions[1:])}
}
