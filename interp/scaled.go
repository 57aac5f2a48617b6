// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package interp

import (
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/tilemap/tile"
	"github.com/gomlx/tilemap/types/shapes"
	"github.com/gomlx/tilemap/types/tensors"
	"github.com/gomlx/tilemap/vertex"
	"github.com/pkg/errors"
	"github.com/x448/float16"
)

// Fused scaled-accumulate primitives: scaled_add computes A + scaleB*B and
// scaled_sub computes A - scaleB*B, accumulating in place into A.
//
// The hardware vertex reuses the "A" slot for both the accumulator input and
// the result: the equation's output list holds exactly one InOut IOInfo named
// "A" and no separate output for B. This is the vendor's in-place
// accumulation convention, kept as-is.

// scaledMemConstraints is the vertex's memory-constraints template flag.
// Fixed policy, not derived from the operands.
const scaledMemConstraints = false

var scaledVertexBasenames = map[string]string{
	"scaled_add": "ScaledAddSupervisor",
	"scaled_sub": "ScaledSubtractSupervisor",
}

// scaledTranslation is the translation rule shared by the scaled-accumulate
// primitives. Operands are (A, B, scaleB) with A and B of identical
// shape/dtype and scaleB a single scalar element.
func scaledTranslation(p *Primitive, tiles tile.TileSet, inAvals []shapes.Shape,
	_ vertex.Attributes) (*vertex.Equation, error) {
	basename, found := scaledVertexBasenames[p.Name]
	if !found {
		return nil, errors.Wrapf(ErrUnknownOperation, "no scaled vertex for %q", p.Name)
	}
	if len(inAvals) != 3 {
		return nil, errors.Wrapf(ErrArityMismatch, "%q takes operands (A, B, scaleB), got %d operands",
			p.Name, len(inAvals))
	}
	aAval, bAval, scaleAval := inAvals[0], inAvals[1], inAvals[2]
	if !aAval.Equal(bAval) {
		return nil, errors.Wrapf(ErrShapeMismatch, "%q requires A and B of identical shape/dtype, got %s and %s",
			p.Name, aAval, bAval)
	}
	if scaleAval.Size() != 1 {
		return nil, errors.Wrapf(ErrShapeMismatch, "%q requires a single-element scaleB, got %s",
			p.Name, scaleAval)
	}
	hwType, err := vertex.TypeFromDType(aAval.DType)
	if err != nil {
		return nil, errors.WithMessagef(err, "%q", p.Name)
	}
	if hwType != vertex.TypeHalf && hwType != vertex.TypeFloat {
		return nil, errors.Wrapf(vertex.ErrUnsupportedType, "%q only has half/float vertices, got %s",
			p.Name, aAval.DType)
	}
	// The vertex's three template slots share the accumulator dtype.
	vname, err := vertex.TemplatedName(basename, hwType, hwType, hwType, scaledMemConstraints)
	if err != nil {
		return nil, err
	}
	attrsI32, attrsF32 := vertex.Attributes{vertex.IntAttr("size", int32(aAval.Size()))}.Split()
	return &vertex.Equation{
		PrimitiveName: p.Name,
		VertexName:    vname,
		Tiles:         tiles.Clone(),
		Inputs: []vertex.IOInfo{
			vertex.InOutInfo("A", aAval),
			vertex.InputInfo("B", bAval),
			vertex.InputInfo("scaleB", scaleAval),
		},
		Outputs:       []vertex.IOInfo{vertex.InOutInfo("A", aAval)},
		AttributesI32: attrsI32,
		AttributesF32: attrsF32,
	}, nil
}

// scaledRefImpl returns the reference semantics A + sign*scaleB*B.
func scaledRefImpl(name string, sign float32) RefImplFn {
	return func(inputs []*tensors.Tensor, _ vertex.Attributes) ([]*tensors.Tensor, error) {
		if len(inputs) != 3 {
			return nil, errors.Wrapf(ErrArityMismatch, "%q takes operands (A, B, scaleB), got %d operands",
				name, len(inputs))
		}
		a, b, scale := inputs[0], inputs[1], inputs[2]
		if !a.Shape().Equal(b.Shape()) {
			return nil, errors.Wrapf(ErrShapeMismatch, "%q requires A and B of identical shape/dtype, got %s and %s",
				name, a.Shape(), b.Shape())
		}
		if scale.Size() != 1 || scale.DType() != a.DType() {
			return nil, errors.Wrapf(ErrShapeMismatch, "%q requires a single-element scaleB of A's dtype, got %s",
				name, scale.Shape())
		}
		var out *tensors.Tensor
		switch a.DType() {
		case dtypes.Float32:
			s := sign * tensors.ToScalar[float32](scale)
			out = applyBinary(a, b, func(x, y float32) float32 { return x + s*y })
		case dtypes.Float16:
			s := sign * tensors.ToScalar[float16.Float16](scale).Float32()
			out = applyBinary(a, b, func(x, y float16.Float16) float16.Float16 {
				return float16.Fromfloat32(x.Float32() + s*y.Float32())
			})
		default:
			return nil, errors.Wrapf(vertex.ErrUnsupportedType, "%q only defined for half/float, got %s",
				name, a.DType())
		}
		return []*tensors.Tensor{out}, nil
	}
}

func init() {
	Default().Register(&Primitive{Name: "scaled_add", RefImpl: scaledRefImpl("scaled_add", 1)}, scaledTranslation)
	Default().Register(&Primitive{Name: "scaled_sub", RefImpl: scaledRefImpl("scaled_sub", -1)}, scaledTranslation)
}
