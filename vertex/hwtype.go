// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package vertex models one fully resolved hardware kernel ("vertex")
// invocation: the templated vertex name, the typed input/output bindings and
// the scalar attributes, aggregated in an Equation that serializes losslessly
// to JSON so it can cross the boundary to the device compiler as a single
// string.
package vertex

import (
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"
)

// ErrUnsupportedType is returned when converting a scalar type outside the
// supported hardware subset, in either direction.
var ErrUnsupportedType = errors.New("scalar type not supported by the tile hardware")

//go:generate go tool enumer -type=Type -trimprefix=Type -transform=lower -output=gen_type_enumer.go hwtype.go

// Type is the hardware scalar type enumeration. Its String() form is the
// type-name token used in templated vertex names, and its numeric value is
// the dtype tag of the serialized equation format.
type Type int32

const (
	TypeInvalid Type = iota
	TypeBool
	TypeChar
	TypeShort
	TypeInt
	TypeHalf
	TypeFloat
)

// TypeFromDType converts a host scalar type to the hardware's enumeration.
// It is total on {Bool, Int8, Int16, Int32, Float16, Float32} and returns
// ErrUnsupportedType outside it.
func TypeFromDType(dtype dtypes.DType) (Type, error) {
	switch dtype {
	case dtypes.Bool:
		return TypeBool, nil
	case dtypes.Int8:
		return TypeChar, nil
	case dtypes.Int16:
		return TypeShort, nil
	case dtypes.Int32:
		return TypeInt, nil
	case dtypes.Float16:
		return TypeHalf, nil
	case dtypes.Float32:
		return TypeFloat, nil
	}
	return TypeInvalid, errors.Wrapf(ErrUnsupportedType, "no hardware type for dtype %s", dtype)
}

// DType converts the hardware scalar type back to the host enumeration.
// It is the exact inverse of TypeFromDType on the supported subset.
func (t Type) DType() (dtypes.DType, error) {
	switch t {
	case TypeBool:
		return dtypes.Bool, nil
	case TypeChar:
		return dtypes.Int8, nil
	case TypeShort:
		return dtypes.Int16, nil
	case TypeInt:
		return dtypes.Int32, nil
	case TypeHalf:
		return dtypes.Float16, nil
	case TypeFloat:
		return dtypes.Float32, nil
	}
	return dtypes.InvalidDType, errors.Wrapf(ErrUnsupportedType, "no dtype for hardware type %d", int32(t))
}
