// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package interp

import (
	"context"
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/tilemap/device"
	"github.com/gomlx/tilemap/tile"
	"github.com/gomlx/tilemap/types/shapes"
	"github.com/gomlx/tilemap/types/tensors"
	"github.com/gomlx/tilemap/vertex"
	"github.com/janpfeifer/must"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

// fakeCompiler records the last Run call and replays canned results.
type fakeCompiler struct {
	equation   string
	inputs     []*tensors.Tensor
	outputs    []shapes.Shape
	gpFilename string
	results    []*tensors.Tensor
	err        error
}

func (f *fakeCompiler) Run(_ context.Context, equation string, inputs []*tensors.Tensor,
	outputs []shapes.Shape, gpFilename string) ([]*tensors.Tensor, error) {
	f.equation = equation
	f.inputs = inputs
	f.outputs = outputs
	f.gpFilename = gpFilename
	return f.results, f.err
}

func shardF32(t *testing.T, tiles tile.TileSet, data []float32, dims ...int) *tile.ShardedArray {
	t.Helper()
	return must.M1(tile.Shard(tensors.FromFlatDataAndDimensions(data, dims...), tiles))
}

func TestDispatchReferenceScaledAdd(t *testing.T) {
	d := NewDispatcher(Default())
	tiles := tile.TileSet{0}
	a := shardF32(t, tiles, []float32{1, 2, 3}, 1, 3)
	b := shardF32(t, tiles, []float32{10, 20, 30}, 1, 3)
	scale := shardF32(t, tiles, []float32{2}, 1, 1)

	outs, err := d.DispatchReference(context.Background(), "scaled_add", tiles,
		[]*tile.ShardedArray{a, b, scale}, nil)
	require.NoError(t, err)
	require.Len(t, outs, 1)
	require.True(t, outs[0].Tiles().Equal(tiles))
	require.True(t, outs[0].Shape().Equal(shapes.Make(dtypes.Float32, 1, 3)))
	require.Equal(t, []float32{21, 42, 63}, tensors.CopyFlatData[float32](outs[0].Tensor()))
}

func TestDispatchReferenceMultiTile(t *testing.T) {
	// Results are stacked back positionally, in tile-set order.
	tiles := tile.TileSet{5, 2, 9}
	a := shardF32(t, tiles, []float32{1, 2, 3, 4, 5, 6}, 3, 2)
	b := shardF32(t, tiles, []float32{10, 20, 30, 40, 50, 60}, 3, 2)

	for _, parallelism := range []int{0, 1, 16} {
		d := NewDispatcher(Default(), WithParallelism(parallelism))
		outs, err := d.DispatchReference(context.Background(), "add", tiles,
			[]*tile.ShardedArray{a, b}, nil)
		require.NoError(t, err)
		require.Len(t, outs, 1)
		require.True(t, outs[0].Tiles().Equal(tiles))
		require.Equal(t, []float32{11, 22, 33, 44, 55, 66},
			tensors.CopyFlatData[float32](outs[0].Tensor()))
	}
}

func TestDispatchReferenceErrors(t *testing.T) {
	d := NewDispatcher(Default())
	ctx := context.Background()
	tiles := tile.TileSet{0, 1}
	a := shardF32(t, tiles, []float32{1, 2, 3, 4}, 2, 2)
	b := shardF32(t, tiles, []float32{1, 2, 3, 4}, 2, 2)

	_, err := d.DispatchReference(ctx, "no_such_op", tiles, []*tile.ShardedArray{a, b}, nil)
	require.ErrorIs(t, err, ErrUnknownOperation)

	_, err = d.DispatchReference(ctx, "add", tiles, nil, nil)
	require.ErrorIs(t, err, ErrArityMismatch)

	_, err = d.DispatchReference(ctx, "add", tile.TileSet{1, 1}, []*tile.ShardedArray{a, b}, nil)
	require.ErrorIs(t, err, tile.ErrInvalidTileSet)

	// Inputs must be sharded over the dispatch tile set.
	other := shardF32(t, tile.TileSet{3, 7}, []float32{1, 2, 3, 4}, 2, 2)
	_, err = d.DispatchReference(ctx, "add", tiles, []*tile.ShardedArray{a, other}, nil)
	require.ErrorIs(t, err, tile.ErrInvalidTileSet)

	_, err = d.DispatchReference(ctx, "add", tiles, []*tile.ShardedArray{a, b},
		vertex.Attributes{vertex.IntAttr("x", 1), vertex.IntAttr("x", 2)})
	require.Error(t, err)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = d.DispatchReference(cancelled, "add", tiles, []*tile.ShardedArray{a, b}, nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestDispatchShapeOnly(t *testing.T) {
	d := NewDispatcher(Default())
	tiles := tile.TileSet{0}
	inAvals := []shapes.Shape{
		shapes.Make(dtypes.Float32, 3),
		shapes.Make(dtypes.Float32, 3),
		shapes.Make(dtypes.Float32, 1),
	}
	outs, err := d.DispatchShapeOnly("scaled_add", tiles, inAvals, nil)
	require.NoError(t, err)
	require.Len(t, outs, 1)
	require.True(t, outs[0].Aval.Equal(shapes.Make(dtypes.Float32, 3)))
	require.True(t, outs[0].Tiles.Equal(tiles))
	require.True(t, outs[0].ShardedShape().Equal(shapes.Make(dtypes.Float32, 1, 3)))

	_, err = d.DispatchShapeOnly("no_such_op", tiles, inAvals, nil)
	require.ErrorIs(t, err, ErrUnknownOperation)
}

func TestDispatchPathConsistency(t *testing.T) {
	// Concrete reference results must land exactly on the shape-only avals.
	d := NewDispatcher(Default())
	tiles := tile.TileSet{4, 1}
	a := shardF32(t, tiles, []float32{1, 2, 3, 4}, 2, 2)
	b := shardF32(t, tiles, []float32{5, 6, 7, 8}, 2, 2)

	for _, name := range []string{"add", "lt"} {
		avals, err := d.DispatchShapeOnly(name, tiles,
			[]shapes.Shape{a.TileAval(), b.TileAval()}, nil)
		require.NoError(t, err)
		arrays, err := d.DispatchReference(context.Background(), name, tiles,
			[]*tile.ShardedArray{a, b}, nil)
		require.NoError(t, err)
		require.Len(t, arrays, len(avals))
		for i := range avals {
			require.True(t, arrays[i].Shape().Equal(avals[i].ShardedShape()),
				"primitive %q output %d", name, i)
		}
	}
}

func TestDispatchDevice(t *testing.T) {
	fake := &fakeCompiler{
		results: []*tensors.Tensor{tensors.FromFlatDataAndDimensions([]float32{21, 42, 63}, 1, 3)},
	}
	d := NewDispatcher(Default(), WithDevice(fake))
	tiles := tile.TileSet{0}
	a := shardF32(t, tiles, []float32{1, 2, 3}, 1, 3)
	b := shardF32(t, tiles, []float32{10, 20, 30}, 1, 3)
	scale := shardF32(t, tiles, []float32{2}, 1, 1)

	outs, err := d.DispatchDevice(context.Background(), "scaled_add", tiles,
		[]*tile.ShardedArray{a, b, scale}, nil)
	require.NoError(t, err)
	require.Len(t, outs, 1)
	require.Equal(t, []float32{21, 42, 63}, tensors.CopyFlatData[float32](outs[0].Tensor()))
	require.True(t, outs[0].Tiles().Equal(tiles))

	// The compiler received the full tile-axis shapes and buffers.
	require.Len(t, fake.inputs, 3)
	require.Same(t, a.Tensor(), fake.inputs[0])
	require.Len(t, fake.outputs, 1)
	require.True(t, fake.outputs[0].Equal(shapes.Make(dtypes.Float32, 1, 3)))

	// The serialized equation round-trips and declares the in-place output.
	eqn := must.M1(vertex.Deserialize(fake.equation))
	require.Equal(t, "scaled_add", eqn.PrimitiveName)
	require.Equal(t, "ScaledAddSupervisor<float,float,float,false>", eqn.VertexName)
	require.Equal(t, 1, eqn.NumOutputs())
	require.Equal(t, "A", eqn.Outputs[0].Name)
	require.Equal(t, vertex.IOInOut, eqn.Outputs[0].IOType)
	require.True(t, eqn.Outputs[0].Aval.Equal(shapes.Make(dtypes.Float32, 3)))
}

func TestDispatchDeviceErrors(t *testing.T) {
	ctx := context.Background()
	tiles := tile.TileSet{0}
	a := shardF32(t, tiles, []float32{1, 2}, 1, 2)
	b := shardF32(t, tiles, []float32{3, 4}, 1, 2)
	inputs := []*tile.ShardedArray{a, b}

	// Without a plugged-in compiler the device path fails loudly.
	d := NewDispatcher(Default())
	_, err := d.DispatchDevice(ctx, "add", tiles, inputs, nil)
	require.ErrorIs(t, err, device.ErrNotImplemented)

	// Wrong result count.
	fake := &fakeCompiler{results: nil}
	d = NewDispatcher(Default(), WithDevice(fake))
	_, err = d.DispatchDevice(ctx, "add", tiles, inputs, nil)
	require.Error(t, err)

	// Wrong result shape.
	fake.results = []*tensors.Tensor{tensors.FromFlatDataAndDimensions([]float32{1}, 1, 1)}
	_, err = d.DispatchDevice(ctx, "add", tiles, inputs, nil)
	require.Error(t, err)

	// Compiler failures propagate.
	fake.results = nil
	fake.err = device.ErrNotImplemented
	_, err = d.DispatchDevice(ctx, "add", tiles, inputs, nil)
	require.ErrorIs(t, err, device.ErrNotImplemented)
}

func TestDispatchReferencePerTileFailure(t *testing.T) {
	// One failing tile fails the whole dispatch with no partial results.
	r := NewRegistry()
	r.Register(&Primitive{
		Name: "flaky",
		RefImpl: func(inputs []*tensors.Tensor, _ vertex.Attributes) ([]*tensors.Tensor, error) {
			if tensors.CopyFlatData[float32](inputs[0])[0] < 0 {
				return nil, errors.New("negative shard")
			}
			return []*tensors.Tensor{inputs[0].Clone()}, nil
		},
	}, noopRule("FlakyVertex"))

	d := NewDispatcher(r)
	tiles := tile.TileSet{0, 1}
	in := shardF32(t, tiles, []float32{1, -1}, 2, 1)
	_, err := d.DispatchReference(context.Background(), "flaky", tiles,
		[]*tile.ShardedArray{in}, nil)
	require.ErrorContains(t, err, "negative shard")

	good := shardF32(t, tiles, []float32{1, 2}, 2, 1)
	outs, err := d.DispatchReference(context.Background(), "flaky", tiles,
		[]*tile.ShardedArray{good}, nil)
	require.NoError(t, err)
	require.Equal(t, []float32{1, 2}, tensors.CopyFlatData[float32](outs[0].Tensor()))
}

func TestDispatchReferenceShardCountMismatch(t *testing.T) {
	// A reference implementation whose results disagree with the equation's
	// declared outputs is rejected.
	r := NewRegistry()
	r.Register(&Primitive{
		Name: "twice",
		RefImpl: func(inputs []*tensors.Tensor, _ vertex.Attributes) ([]*tensors.Tensor, error) {
			return []*tensors.Tensor{inputs[0].Clone(), inputs[0].Clone()}, nil
		},
		MultipleResults: true,
	}, noopRule("TwiceVertex"))

	d := NewDispatcher(r)
	tiles := tile.TileSet{0}
	in := shardF32(t, tiles, []float32{1}, 1, 1)
	_, err := d.DispatchReference(context.Background(), "twice", tiles,
		[]*tile.ShardedArray{in}, nil)
	require.ErrorContains(t, err, "results")
}
