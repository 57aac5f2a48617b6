// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package vertex

import (
	"bytes"
	"encoding/json"
	"slices"

	"github.com/gomlx/tilemap/types/shapes"
	"github.com/gomlx/tilemap/types/tensors"
	"github.com/pkg/errors"
)

// IOType is the direction of one vertex IO tensor.
// The numeric values are part of the serialized equation format.
type IOType int32

const (
	// IOIn is an input-only tensor.
	IOIn IOType = 0
	// IOOut is an output-only tensor.
	IOOut IOType = 1
	// IOInOut is a tensor read and written in place: it appears under the
	// same name in both the input and output lists of an equation.
	IOInOut IOType = 2
)

// String implements fmt.Stringer.
func (t IOType) String() string {
	switch t {
	case IOIn:
		return "In"
	case IOOut:
		return "Out"
	case IOInOut:
		return "InOut"
	}
	return "InvalidIOType"
}

// IOInfo describes one vertex input or output: the name of the vertex field
// it connects to (unique within each list of an equation), its direction,
// its per-tile shape/dtype and, for compile-time constant inputs, the raw
// bytes of the constant.
type IOInfo struct {
	Name   string
	IOType IOType
	// Aval is the per-tile shape, tile axis excluded.
	Aval shapes.Shape
	// ConstantData holds the little-endian bytes of a compile-time constant
	// input, nil otherwise. A constant always has IOType IOIn.
	ConstantData []byte
}

// InputInfo returns the IOInfo of an input-only tensor.
func InputInfo(name string, aval shapes.Shape) IOInfo {
	return IOInfo{Name: name, IOType: IOIn, Aval: aval.Clone()}
}

// OutputInfo returns the IOInfo of an output-only tensor.
func OutputInfo(name string, aval shapes.Shape) IOInfo {
	return IOInfo{Name: name, IOType: IOOut, Aval: aval.Clone()}
}

// InOutInfo returns the IOInfo of an in-place (read-modify-write) tensor.
func InOutInfo(name string, aval shapes.Shape) IOInfo {
	return IOInfo{Name: name, IOType: IOInOut, Aval: aval.Clone()}
}

// ConstantInfo returns the IOInfo of a compile-time constant input, embedding
// the tensor's raw data. The payload travels base64-encoded inside the
// serialized equation.
func ConstantInfo(name string, value *tensors.Tensor) IOInfo {
	return IOInfo{
		Name:         name,
		IOType:       IOIn,
		Aval:         value.Shape(),
		ConstantData: slices.Clone(value.Bytes()),
	}
}

// IsConstant returns whether the IOInfo carries a constant payload.
func (info IOInfo) IsConstant() bool { return info.ConstantData != nil }

// Equal compares all fields, including the constant payload.
func (info IOInfo) Equal(other IOInfo) bool {
	return info.Name == other.Name &&
		info.IOType == other.IOType &&
		info.Aval.Equal(other.Aval) &&
		bytes.Equal(info.ConstantData, other.ConstantData)
}

// wireAval is the serialized form of a per-tile shape: dimensions plus the
// hardware (not host) scalar type tag.
type wireAval struct {
	Shape []int `json:"shape"`
	DType Type  `json:"dtype"`
}

type wireIOInfo struct {
	Name         string   `json:"name"`
	IOType       IOType   `json:"iotype"`
	Aval         wireAval `json:"aval"`
	ConstantData []byte   `json:"constant_data,omitempty"`
}

// MarshalJSON implements json.Marshaler. It fails for avals with dtypes the
// hardware does not support.
func (info IOInfo) MarshalJSON() ([]byte, error) {
	hwType, err := TypeFromDType(info.Aval.DType)
	if err != nil {
		return nil, errors.WithMessagef(err, "serializing IO %q", info.Name)
	}
	return json.Marshal(wireIOInfo{
		Name:         info.Name,
		IOType:       info.IOType,
		Aval:         wireAval{Shape: info.Aval.Dimensions, DType: hwType},
		ConstantData: info.ConstantData,
	})
}

// UnmarshalJSON implements json.Unmarshaler. Unknown fields are rejected, so
// the strict-decode contract of Deserialize also holds inside the IO lists.
func (info *IOInfo) UnmarshalJSON(data []byte) error {
	var wire wireIOInfo
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&wire); err != nil {
		return err
	}
	dtype, err := wire.Aval.DType.DType()
	if err != nil {
		return errors.WithMessagef(err, "deserializing IO %q", wire.Name)
	}
	for _, dim := range wire.Aval.Shape {
		if dim <= 0 {
			return errors.Errorf("deserializing IO %q: invalid dimension %d", wire.Name, dim)
		}
	}
	info.Name = wire.Name
	info.IOType = wire.IOType
	info.Aval = shapes.Shape{DType: dtype, Dimensions: wire.Aval.Shape}
	info.ConstantData = wire.ConstantData
	return nil
}
