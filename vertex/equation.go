// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package vertex

import (
	"bytes"
	"encoding/json"
	"slices"
	"strings"

	"github.com/gomlx/tilemap/tile"
	"github.com/gomlx/tilemap/types/shapes"
	"github.com/pkg/errors"
)

// ErrMalformedEquation is returned by Deserialize for text that was not
// produced by Serialize on a valid equation.
var ErrMalformedEquation = errors.New("malformed tile equation")

// Equation is one fully resolved vertex invocation, mapped over a tile set:
// the same vertex, per-tile shapes and attributes on every tile.
//
// Translation rules create a fresh Equation per dispatch; it is never cached
// or mutated afterwards. The serialized form produced by Serialize is the
// only representation that crosses to the device compiler, so Serialize and
// Deserialize round-trip losslessly.
//
// Field names on the wire (see the json tags) are part of the format and
// must not change within a process run.
type Equation struct {
	// PrimitiveName identifies the operation this equation was translated
	// from. It is the registry key the execution side uses to recover the
	// operation's reference semantics.
	PrimitiveName string `json:"pname"`
	// VertexName is the fully templated vertex name, e.g.
	// "BinaryOp1D<ADD,float>".
	VertexName string `json:"vname"`
	// Tiles the equation is mapped on.
	Tiles tile.TileSet `json:"tiles"`
	// Inputs, in vertex binding order. InOut entries appear here and, under
	// the same name, in Outputs.
	Inputs []IOInfo `json:"inputs_info"`
	// Outputs, in result order.
	Outputs []IOInfo `json:"outputs_info"`
	// AttributesI32 and AttributesF32 are the vertex's scalar attributes.
	// Order within each list is preserved; lookup is by name.
	AttributesI32 []AttributeI32 `json:"attributes_i32"`
	AttributesF32 []AttributeF32 `json:"attributes_f32"`
	// GpFilename optionally points to a precompiled vertex file.
	GpFilename string `json:"gp_filename"`
	// PerfEstimate is an optional per-tile cycle estimate hint.
	PerfEstimate uint64 `json:"perf_estimate"`
}

// Serialize encodes the equation as a single self-contained JSON string.
// Constant payloads are base64-encoded, so the result is printable-text-safe.
func (e *Equation) Serialize() (string, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return "", errors.Wrapf(err, "serializing equation for %q", e.PrimitiveName)
	}
	return string(data), nil
}

// Deserialize decodes an equation produced by Serialize. It returns
// ErrMalformedEquation for anything else: invalid JSON, unknown fields, or
// an equation violating the Validate invariants.
func Deserialize(serialized string) (*Equation, error) {
	dec := json.NewDecoder(strings.NewReader(serialized))
	dec.DisallowUnknownFields()
	e := &Equation{}
	if err := dec.Decode(e); err != nil {
		return nil, errors.Wrapf(ErrMalformedEquation, "decoding equation: %v", err)
	}
	if dec.More() {
		return nil, errors.Wrap(ErrMalformedEquation, "trailing data after equation")
	}
	if err := e.Validate(); err != nil {
		return nil, errors.Wrapf(ErrMalformedEquation, "decoded equation: %v", err)
	}
	return e, nil
}

// Validate checks the equation invariants: named vertex and primitive, a
// valid tile set, uniquely named IOs with valid directions per list,
// constant payloads only on inputs and with the byte size their aval
// requires, and every InOut output backed by a same-named InOut input.
func (e *Equation) Validate() error {
	if e.VertexName == "" {
		return errors.New("equation with empty vertex name")
	}
	if e.PrimitiveName == "" {
		return errors.New("equation with empty primitive name")
	}
	if err := e.Tiles.Validate(); err != nil {
		return err
	}
	if err := validateIOList(e.Inputs, "input", IOIn, IOInOut); err != nil {
		return err
	}
	if err := validateIOList(e.Outputs, "output", IOOut, IOInOut); err != nil {
		return err
	}
	for _, info := range e.Inputs {
		if info.IsConstant() {
			if info.IOType != IOIn {
				return errors.Errorf("constant input %q must have IOType In, got %s", info.Name, info.IOType)
			}
			if uintptr(len(info.ConstantData)) != info.Aval.Memory() {
				return errors.Errorf("constant input %q has %d payload bytes, aval %s requires %d",
					info.Name, len(info.ConstantData), info.Aval, info.Aval.Memory())
			}
		}
	}
	for _, info := range e.Outputs {
		if info.IsConstant() {
			return errors.Errorf("output %q cannot carry a constant payload", info.Name)
		}
		if info.IOType != IOInOut {
			continue
		}
		// In-place outputs alias an input slot of the same name.
		idx := slices.IndexFunc(e.Inputs, func(in IOInfo) bool { return in.Name == info.Name })
		if idx < 0 {
			return errors.Errorf("InOut output %q has no matching input", info.Name)
		}
		if in := e.Inputs[idx]; in.IOType != IOInOut || !in.Aval.Equal(info.Aval) {
			return errors.Errorf("InOut output %q inconsistent with input slot (%s %s vs %s %s)",
				info.Name, in.IOType, in.Aval, info.IOType, info.Aval)
		}
	}
	if err := validateAttrNames(e); err != nil {
		return err
	}
	return nil
}

func validateIOList(infos []IOInfo, kind string, allowed ...IOType) error {
	seen := make(map[string]struct{}, len(infos))
	for _, info := range infos {
		if info.Name == "" {
			return errors.Errorf("%s with empty name", kind)
		}
		if _, found := seen[info.Name]; found {
			return errors.Errorf("%s %q repeated", kind, info.Name)
		}
		seen[info.Name] = struct{}{}
		if !slices.Contains(allowed, info.IOType) {
			return errors.Errorf("%s %q has invalid IOType %s", kind, info.Name, info.IOType)
		}
		if !info.Aval.Ok() {
			return errors.Errorf("%s %q has invalid aval", kind, info.Name)
		}
		if _, err := TypeFromDType(info.Aval.DType); err != nil {
			return errors.WithMessagef(err, "%s %q", kind, info.Name)
		}
	}
	return nil
}

func validateAttrNames(e *Equation) error {
	seen := make(map[string]struct{}, len(e.AttributesI32)+len(e.AttributesF32))
	check := func(name string) error {
		if name == "" {
			return errors.New("attribute with empty name")
		}
		if _, found := seen[name]; found {
			return errors.Errorf("attribute %q repeated", name)
		}
		seen[name] = struct{}{}
		return nil
	}
	for _, attr := range e.AttributesI32 {
		if err := check(attr.Name); err != nil {
			return err
		}
	}
	for _, attr := range e.AttributesF32 {
		if err := check(attr.Name); err != nil {
			return err
		}
	}
	return nil
}

// NumOutputs returns the number of results the equation produces.
func (e *Equation) NumOutputs() int { return len(e.Outputs) }

// OutputAvals returns the per-tile shape of each output, in result order.
func (e *Equation) OutputAvals() []shapes.Shape {
	avals := make([]shapes.Shape, len(e.Outputs))
	for i, info := range e.Outputs {
		avals[i] = info.Aval.Clone()
	}
	return avals
}

// AttrI32 looks up an int32 attribute by name.
func (e *Equation) AttrI32(name string) (int32, bool) {
	for _, attr := range e.AttributesI32 {
		if attr.Name == name {
			return attr.Value, true
		}
	}
	return 0, false
}

// AttrF32 looks up a float32 attribute by name.
func (e *Equation) AttrF32(name string) (float32, bool) {
	for _, attr := range e.AttributesF32 {
		if attr.Name == name {
			return attr.Value, true
		}
	}
	return 0, false
}

// Equal compares all fields. Nil and empty IO/attribute lists compare equal.
func (e *Equation) Equal(other *Equation) bool {
	if e == nil || other == nil {
		return e == other
	}
	if e.PrimitiveName != other.PrimitiveName ||
		e.VertexName != other.VertexName ||
		e.GpFilename != other.GpFilename ||
		e.PerfEstimate != other.PerfEstimate ||
		!e.Tiles.Equal(other.Tiles) {
		return false
	}
	if !slices.EqualFunc(e.Inputs, other.Inputs, IOInfo.Equal) ||
		!slices.EqualFunc(e.Outputs, other.Outputs, IOInfo.Equal) {
		return false
	}
	return slices.Equal(e.AttributesI32, other.AttributesI32) &&
		slices.Equal(e.AttributesF32, other.AttributesF32)
}

// String returns the serialized JSON form, for logging.
func (e *Equation) String() string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(e); err != nil {
		return "Equation(" + e.PrimitiveName + ")"
	}
	return buf.String()
}
