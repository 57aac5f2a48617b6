// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package interp

import (
	"slices"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/tilemap/tile"
	"github.com/gomlx/tilemap/types/shapes"
	"github.com/gomlx/tilemap/types/tensors"
	"github.com/gomlx/tilemap/vertex"
	"github.com/pkg/errors"
	"github.com/x448/float16"
)

// binaryVertexInfo maps one binary primitive to its vertex basename and,
// for comparison primitives, the forced boolean output dtype.
type binaryVertexInfo struct {
	basename string
	// outDType forces the output dtype; InvalidDType keeps the operand dtype.
	outDType dtypes.DType
}

// binaryPrimitives lists the supported element-wise binary primitives.
// Basenames follow the vendor's BinaryOpType naming.
var binaryPrimitives = map[string]binaryVertexInfo{
	"add":                    {"ADD", dtypes.InvalidDType},
	"and":                    {"BITWISE_AND", dtypes.InvalidDType},
	"atan2":                  {"ATAN2", dtypes.InvalidDType},
	"div":                    {"DIVIDE", dtypes.InvalidDType},
	"eq":                     {"EQUAL", dtypes.Bool},
	"ge":                     {"GREATER_THAN_EQUAL", dtypes.Bool},
	"gt":                     {"GREATER_THAN", dtypes.Bool},
	"le":                     {"LESS_THAN_EQUAL", dtypes.Bool},
	"lt":                     {"LESS_THAN", dtypes.Bool},
	"max":                    {"MAXIMUM", dtypes.InvalidDType},
	"min":                    {"MINIMUM", dtypes.InvalidDType},
	"mul":                    {"MULTIPLY", dtypes.InvalidDType},
	"ne":                     {"NOT_EQUAL", dtypes.Bool},
	"or":                     {"BITWISE_OR", dtypes.InvalidDType},
	"pow":                    {"POWER", dtypes.InvalidDType},
	"rem":                    {"REMAINDER", dtypes.InvalidDType},
	"sub":                    {"SUBTRACT", dtypes.InvalidDType},
	"xor":                    {"BITWISE_XOR", dtypes.InvalidDType},
	// Vendor (SDK 3.1) shift naming differs slightly from the XLA one.
	"shift_left":             {"SHIFT_LEFT", dtypes.InvalidDType},
	"shift_right_logical":    {"SHIFT_RIGHT", dtypes.InvalidDType},
	"shift_right_arithmetic": {"SHIFT_RIGHT_SIGN_EXTEND", dtypes.InvalidDType},
}

// binaryTranslation is the translation rule of every binary primitive:
// a BinaryOp1D vertex templated on the operation and the operand dtype, with
// inputs bound positionally to "in1"/"in2" and the result to "out".
func binaryTranslation(p *Primitive, tiles tile.TileSet, inAvals []shapes.Shape,
	_ vertex.Attributes) (*vertex.Equation, error) {
	info, found := binaryPrimitives[p.Name]
	if !found {
		return nil, errors.Wrapf(ErrUnknownOperation, "no binary vertex for %q", p.Name)
	}
	if len(inAvals) != 2 {
		return nil, errors.Wrapf(ErrArityMismatch, "binary primitive %q takes 2 operands, got %d",
			p.Name, len(inAvals))
	}
	if !inAvals[0].Equal(inAvals[1]) {
		return nil, errors.Wrapf(ErrShapeMismatch, "binary primitive %q requires equal operands, got %s and %s",
			p.Name, inAvals[0], inAvals[1])
	}
	hwType, err := vertex.TypeFromDType(inAvals[0].DType)
	if err != nil {
		return nil, errors.WithMessagef(err, "binary primitive %q", p.Name)
	}
	vname, err := vertex.TemplatedName("BinaryOp1D", info.basename, hwType)
	if err != nil {
		return nil, err
	}
	outDType := info.outDType
	if outDType == dtypes.InvalidDType {
		outDType = inAvals[0].DType
	}
	outAval := shapes.Shape{DType: outDType, Dimensions: slices.Clone(inAvals[0].Dimensions)}
	return &vertex.Equation{
		PrimitiveName: p.Name,
		VertexName:    vname,
		Tiles:         tiles.Clone(),
		Inputs: []vertex.IOInfo{
			vertex.InputInfo("in1", inAvals[0]),
			vertex.InputInfo("in2", inAvals[1]),
		},
		Outputs: []vertex.IOInfo{vertex.OutputInfo("out", outAval)},
	}, nil
}

// binaryRefImpl returns the tile-level reference implementation of the named
// binary primitive.
func binaryRefImpl(name string) RefImplFn {
	return func(inputs []*tensors.Tensor, _ vertex.Attributes) ([]*tensors.Tensor, error) {
		if len(inputs) != 2 {
			return nil, errors.Wrapf(ErrArityMismatch, "binary primitive %q takes 2 operands, got %d",
				name, len(inputs))
		}
		lhs, rhs := inputs[0], inputs[1]
		if !lhs.Shape().Equal(rhs.Shape()) {
			return nil, errors.Wrapf(ErrShapeMismatch, "binary primitive %q requires equal operands, got %s and %s",
				name, lhs.Shape(), rhs.Shape())
		}
		var out *tensors.Tensor
		var err error
		switch lhs.DType() {
		case dtypes.Bool:
			out, err = boolBinary(name, lhs, rhs)
		case dtypes.Int8:
			out, err = intBinary[int8](name, lhs, rhs)
		case dtypes.Int16:
			out, err = intBinary[int16](name, lhs, rhs)
		case dtypes.Int32:
			out, err = intBinary[int32](name, lhs, rhs)
		case dtypes.Float16:
			out, err = float16Binary(name, lhs, rhs)
		case dtypes.Float32:
			out, err = float32Binary(name, lhs, rhs)
		default:
			err = errors.Wrapf(vertex.ErrUnsupportedType, "binary primitive %q on dtype %s",
				name, lhs.DType())
		}
		if err != nil {
			return nil, err
		}
		return []*tensors.Tensor{out}, nil
	}
}

func boolBinary(name string, lhs, rhs *tensors.Tensor) (*tensors.Tensor, error) {
	if fn := boolFn(name); fn != nil {
		return applyBinary(lhs, rhs, fn), nil
	}
	return nil, errors.Wrapf(vertex.ErrUnsupportedType, "primitive %q not defined for dtype %s",
		name, lhs.DType())
}

func intBinary[T podInteger](name string, lhs, rhs *tensors.Tensor) (*tensors.Tensor, error) {
	if fn := arithFn[T](name); fn != nil {
		return applyBinary(lhs, rhs, fn), nil
	}
	if fn := intFn[T](name); fn != nil {
		return applyBinary(lhs, rhs, fn), nil
	}
	if fn := cmpFn[T](name); fn != nil {
		return applyBinary(lhs, rhs, fn), nil
	}
	return nil, errors.Wrapf(vertex.ErrUnsupportedType, "primitive %q not defined for dtype %s",
		name, lhs.DType())
}

func float32Binary(name string, lhs, rhs *tensors.Tensor) (*tensors.Tensor, error) {
	if fn := arithFn[float32](name); fn != nil {
		return applyBinary(lhs, rhs, fn), nil
	}
	if fn := floatFn(name); fn != nil {
		return applyBinary(lhs, rhs, fn), nil
	}
	if fn := cmpFn[float32](name); fn != nil {
		return applyBinary(lhs, rhs, fn), nil
	}
	return nil, errors.Wrapf(vertex.ErrUnsupportedType, "primitive %q not defined for dtype %s",
		name, lhs.DType())
}

func float16Binary(name string, lhs, rhs *tensors.Tensor) (*tensors.Tensor, error) {
	fn := arithFn[float32](name)
	if fn == nil {
		fn = floatFn(name)
	}
	if fn != nil {
		return applyBinary(lhs, rhs, floatToF16Fn(fn)), nil
	}
	if cfn := cmpFn[float32](name); cfn != nil {
		return applyBinary(lhs, rhs, func(a, b float16.Float16) bool {
			return cfn(a.Float32(), b.Float32())
		}), nil
	}
	return nil, errors.Wrapf(vertex.ErrUnsupportedType, "primitive %q not defined for dtype %s",
		name, lhs.DType())
}

func init() {
	for name := range binaryPrimitives {
		Default().Register(&Primitive{Name: name, RefImpl: binaryRefImpl(name)}, binaryTranslation)
	}
}
