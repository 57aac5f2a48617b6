// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package vertex

import (
	"strings"
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/tilemap/tile"
	"github.com/gomlx/tilemap/types/shapes"
	"github.com/gomlx/tilemap/types/tensors"
	"github.com/janpfeifer/must"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scaledAddEquation() *Equation {
	aval := shapes.Make(dtypes.Float32, 3)
	return &Equation{
		PrimitiveName: "scaled_add",
		VertexName:    "ScaledAddSupervisor<float,float,float,false>",
		Tiles:         tile.TileSet{0},
		Inputs: []IOInfo{
			InOutInfo("A", aval),
			InputInfo("B", aval),
			ConstantInfo("scaleB", tensors.FromFlatDataAndDimensions([]float32{2}, 1)),
		},
		Outputs:       []IOInfo{InOutInfo("A", aval)},
		AttributesI32: []AttributeI32{{Name: "size", Value: 3}},
	}
}

func TestEquationValidate(t *testing.T) {
	require.NoError(t, scaledAddEquation().Validate())

	{
		e := scaledAddEquation()
		e.VertexName = ""
		require.Error(t, e.Validate())
	}
	{
		e := scaledAddEquation()
		e.Tiles = tile.TileSet{1, 1}
		require.ErrorIs(t, e.Validate(), tile.ErrInvalidTileSet)
	}
	{
		// Output-only direction is invalid in the input list.
		e := scaledAddEquation()
		e.Inputs[1].IOType = IOOut
		require.Error(t, e.Validate())
	}
	{
		// Repeated IO name within one list.
		e := scaledAddEquation()
		e.Inputs[1].Name = "A"
		require.Error(t, e.Validate())
	}
	{
		// InOut output must alias a same-named InOut input.
		e := scaledAddEquation()
		e.Outputs[0].Name = "C"
		require.Error(t, e.Validate())
	}
	{
		e := scaledAddEquation()
		e.Inputs[0].IOType = IOIn
		require.Error(t, e.Validate())
	}
	{
		// Constant payload must match the aval's memory size.
		e := scaledAddEquation()
		e.Inputs[2].ConstantData = e.Inputs[2].ConstantData[:2]
		require.Error(t, e.Validate())
	}
	{
		e := scaledAddEquation()
		e.Outputs[0].ConstantData = []byte{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}
		require.Error(t, e.Validate())
	}
	{
		// Dtype outside the hardware subset.
		e := scaledAddEquation()
		e.Inputs[1].Aval = shapes.Make(dtypes.Float64, 3)
		require.ErrorIs(t, e.Validate(), ErrUnsupportedType)
	}
	{
		e := scaledAddEquation()
		e.AttributesF32 = []AttributeF32{{Name: "size", Value: 1}}
		require.Error(t, e.Validate())
	}
}

func TestEquationSerializeRoundTrip(t *testing.T) {
	e := scaledAddEquation()
	e.GpFilename = "vertices.gp"
	e.PerfEstimate = 1234
	serialized := must.M1(e.Serialize())

	// Wire field names are stable, constants travel base64-encoded.
	assert.Contains(t, serialized, `"pname":"scaled_add"`)
	assert.Contains(t, serialized, `"vname":"ScaledAddSupervisor<float,float,float,false>"`)
	assert.Contains(t, serialized, `"iotype":2`)
	assert.Contains(t, serialized, `"dtype":6`)
	assert.Contains(t, serialized, `"constant_data":"AAAAQA=="`)
	assert.Contains(t, serialized, `"gp_filename":"vertices.gp"`)

	decoded := must.M1(Deserialize(serialized))
	require.True(t, e.Equal(decoded))

	// Serialize is deterministic.
	require.Equal(t, serialized, must.M1(decoded.Serialize()))
}

func TestDeserializeMalformed(t *testing.T) {
	for _, serialized := range []string{
		"",
		"not json",
		`{"pname":"x"}`,                        // missing everything else
		`{"pname":"x","unknown_field":"boom"}`, // unknown fields rejected
	} {
		_, err := Deserialize(serialized)
		require.ErrorIs(t, err, ErrMalformedEquation, "input %q", serialized)
	}

	{
		// Trailing content after a valid equation is rejected, whitespace
		// is not.
		serialized := must.M1(scaledAddEquation().Serialize())
		_, err := Deserialize(serialized + `{"pname":"x"}`)
		require.ErrorIs(t, err, ErrMalformedEquation)
		_, err = Deserialize(serialized + "garbage")
		require.ErrorIs(t, err, ErrMalformedEquation)
		_, err = Deserialize(serialized + "\n  ")
		require.NoError(t, err)
	}
	{
		// Unknown fields nested inside the IO lists are rejected too.
		serialized := must.M1(scaledAddEquation().Serialize())
		withExtra := strings.Replace(serialized, `"name":"A"`, `"name":"A","bogus_field":1`, 1)
		require.NotEqual(t, serialized, withExtra)
		_, err := Deserialize(withExtra)
		require.ErrorIs(t, err, ErrMalformedEquation)
	}

	// Valid JSON, invalid equation.
	e := scaledAddEquation()
	e.Outputs = nil
	e.Inputs[0].IOType = IOIn
	serialized := must.M1(e.Serialize())
	withBadTiles := strings.Replace(serialized, `"tiles":[0]`, `"tiles":[]`, 1)
	require.NotEqual(t, serialized, withBadTiles)
	_, err := Deserialize(withBadTiles)
	require.ErrorIs(t, err, ErrMalformedEquation)
}

func TestEquationAccessors(t *testing.T) {
	e := scaledAddEquation()
	require.Equal(t, 1, e.NumOutputs())
	avals := e.OutputAvals()
	require.Len(t, avals, 1)
	require.True(t, avals[0].Equal(shapes.Make(dtypes.Float32, 3)))

	size, found := e.AttrI32("size")
	require.True(t, found)
	require.Equal(t, int32(3), size)
	_, found = e.AttrI32("missing")
	require.False(t, found)
	_, found = e.AttrF32("size")
	require.False(t, found)
}

func TestEquationEqual(t *testing.T) {
	require.True(t, scaledAddEquation().Equal(scaledAddEquation()))

	e := scaledAddEquation()
	e.PerfEstimate = 1
	require.False(t, e.Equal(scaledAddEquation()))

	// Nil and empty attribute lists compare equal.
	a, b := scaledAddEquation(), scaledAddEquation()
	a.AttributesF32 = []AttributeF32{}
	b.AttributesF32 = nil
	require.True(t, a.Equal(b))
	require.False(t, a.Equal(nil))
}

func TestIOInfo(t *testing.T) {
	aval := shapes.Make(dtypes.Int16, 4)
	in := InputInfo("x", aval)
	require.Equal(t, IOIn, in.IOType)
	require.False(t, in.IsConstant())

	c := ConstantInfo("k", tensors.FromFlatDataAndDimensions([]int16{1, 2, 3, 4}, 4))
	require.True(t, c.IsConstant())
	require.Equal(t, IOIn, c.IOType)
	require.Len(t, c.ConstantData, 8)

	require.True(t, in.Equal(InputInfo("x", aval)))
	require.False(t, in.Equal(OutputInfo("x", aval)))
	require.False(t, in.Equal(c))
}
