// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package interp

import (
	"context"
	"runtime"
	"sync"

	"github.com/gomlx/tilemap/device"
	"github.com/gomlx/tilemap/tile"
	"github.com/gomlx/tilemap/types/shapes"
	"github.com/gomlx/tilemap/types/tensors"
	"github.com/gomlx/tilemap/vertex"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Dispatcher maps primitives over tile sets. It is safe for concurrent use:
// the registry is read-only after startup and all per-call state is local.
//
// The three execution paths are explicit methods sharing the same
// lookup-translate-validate prefix:
//
//   - DispatchReference: concrete operands, software reference semantics.
//   - DispatchShapeOnly: abstract operands, shape/dtype propagation only.
//   - DispatchDevice: concrete operands, compiled and run by the device
//     collaborator from the serialized equation.
type Dispatcher struct {
	registry    *Registry
	device      device.Compiler
	parallelism int
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithDevice plugs in the device-compilation collaborator used by
// DispatchDevice. Without it the device path fails with
// device.ErrNotImplemented.
func WithDevice(compiler device.Compiler) DispatcherOption {
	return func(d *Dispatcher) { d.device = compiler }
}

// WithParallelism bounds the number of tiles the reference path computes
// concurrently. n == 1 forces sequential execution; n <= 0 restores the
// default (GOMAXPROCS).
func WithParallelism(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n <= 0 {
			n = runtime.GOMAXPROCS(0)
		}
		d.parallelism = n
	}
}

// NewDispatcher creates a Dispatcher resolving primitives from the given
// registry -- usually interp.Default(), where the standard families register
// themselves.
func NewDispatcher(registry *Registry, options ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		registry:    registry,
		device:      device.NotImplemented{},
		parallelism: runtime.GOMAXPROCS(0),
	}
	for _, opt := range options {
		opt(d)
	}
	return d
}

// buildEquation is the prefix shared by all three execution paths: resolve
// the primitive, run its translation rule on the per-tile avals and validate
// the resulting equation.
func (d *Dispatcher) buildEquation(opName string, tiles tile.TileSet, inAvals []shapes.Shape,
	attrs vertex.Attributes) (*Primitive, *vertex.Equation, error) {
	if err := tiles.Validate(); err != nil {
		return nil, nil, err
	}
	if err := attrs.Validate(); err != nil {
		return nil, nil, errors.WithMessagef(err, "dispatching %q", opName)
	}
	p, rule, err := d.registry.Lookup(opName)
	if err != nil {
		return nil, nil, err
	}
	eqn, err := rule(p, tiles, inAvals, attrs)
	if err != nil {
		return nil, nil, err
	}
	if err = eqn.Validate(); err != nil {
		return nil, nil, errors.WithMessagef(err, "rule for %q built an invalid equation", opName)
	}
	if !p.MultipleResults && eqn.NumOutputs() != 1 {
		return nil, nil, errors.Errorf("rule for single-result primitive %q built %d outputs",
			opName, eqn.NumOutputs())
	}
	if klog.V(2).Enabled() {
		klog.Infof("tilemap: %q translated to vertex %q over %d tiles", opName, eqn.VertexName, tiles.Len())
	}
	return p, eqn, nil
}

// checkInputs validates that every input is sharded over the dispatch tile
// set and returns the per-tile avals, tile axis stripped.
func checkInputs(tiles tile.TileSet, inputs []*tile.ShardedArray) ([]shapes.Shape, error) {
	if len(inputs) == 0 {
		return nil, errors.Wrap(ErrArityMismatch, "dispatch needs at least one input")
	}
	inAvals := make([]shapes.Shape, len(inputs))
	for i, in := range inputs {
		if !in.Tiles().Equal(tiles) {
			return nil, errors.Wrapf(tile.ErrInvalidTileSet,
				"input %d sharded over tiles %v, dispatch targets %v", i, in.Tiles(), tiles)
		}
		inAvals[i] = in.TileAval()
	}
	return inAvals, nil
}

// DispatchShapeOnly propagates shapes/dtypes through the primitive without
// touching data: each output is the rule-computed per-tile aval, sharded
// over the dispatch tile set.
func (d *Dispatcher) DispatchShapeOnly(opName string, tiles tile.TileSet, inAvals []shapes.Shape,
	attrs vertex.Attributes) ([]tile.ShardedAval, error) {
	_, eqn, err := d.buildEquation(opName, tiles, inAvals, attrs)
	if err != nil {
		return nil, err
	}
	outAvals := eqn.OutputAvals()
	outputs := make([]tile.ShardedAval, len(outAvals))
	for i, aval := range outAvals {
		outputs[i] = tile.ShardedAval{Aval: aval, Tiles: tiles.Clone()}
	}
	return outputs, nil
}

// DispatchReference computes the primitive on concrete operands with its
// reference software semantics: every tile's operand slices are consumed
// independently and the per-tile results are stacked back in tile-set order.
//
// The equation is still built -- the translation rule's errors and output
// declarations apply on every path -- but its serialized form is never used
// here. Per-tile computations may run concurrently (see WithParallelism); a
// failure on any tile fails the whole call, never a partial result.
func (d *Dispatcher) DispatchReference(ctx context.Context, opName string, tiles tile.TileSet,
	inputs []*tile.ShardedArray, attrs vertex.Attributes) ([]*tile.ShardedArray, error) {
	inAvals, err := checkInputs(tiles, inputs)
	if err != nil {
		return nil, err
	}
	p, eqn, err := d.buildEquation(opName, tiles, inAvals, attrs)
	if err != nil {
		return nil, err
	}

	numTiles := tiles.Len()
	perTile := make([][]*tensors.Tensor, numTiles)
	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		tilesErr error
	)
	fail := func(err error) {
		errOnce.Do(func() { tilesErr = err })
	}
	sem := make(chan struct{}, d.parallelism)
	for i := range numTiles {
		if err = ctx.Err(); err != nil {
			fail(err)
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			shardInputs := make([]*tensors.Tensor, len(inputs))
			for k, in := range inputs {
				shardInputs[k] = in.ShardTensor(i)
			}
			outs, err := p.RefImpl(shardInputs, attrs)
			if err != nil {
				fail(errors.WithMessagef(err, "%q on tile %d", opName, tiles[i]))
				return
			}
			perTile[i] = outs
		}(i)
	}
	wg.Wait()
	if tilesErr != nil {
		return nil, tilesErr
	}

	// Reassemble: one sharded array per declared output, each shard at its
	// tile's original position.
	outAvals := eqn.OutputAvals()
	outputs := make([]*tile.ShardedArray, len(outAvals))
	for j, outAval := range outAvals {
		shards := make([]*tensors.Tensor, numTiles)
		for i := range numTiles {
			if len(perTile[i]) != len(outAvals) {
				return nil, errors.Errorf("%q produced %d results on tile %d, equation declares %d",
					opName, len(perTile[i]), tiles[i], len(outAvals))
			}
			shard := perTile[i][j]
			if !shard.Shape().Equal(outAval) {
				return nil, errors.Errorf("%q produced %s on tile %d, equation declares %s",
					opName, shard.Shape(), tiles[i], outAval)
			}
			shards[i] = shard
		}
		out, err := tile.StackShards(tiles, shards)
		if err != nil {
			return nil, err
		}
		outputs[j] = out
	}
	return outputs, nil
}

// DispatchDevice serializes the equation and hands it, together with the
// tile-sharded operand buffers and the declared output shapes, to the device
// compilation collaborator. The call is cancellable through ctx and never
// retried here.
func (d *Dispatcher) DispatchDevice(ctx context.Context, opName string, tiles tile.TileSet,
	inputs []*tile.ShardedArray, attrs vertex.Attributes) ([]*tile.ShardedArray, error) {
	inAvals, err := checkInputs(tiles, inputs)
	if err != nil {
		return nil, err
	}
	_, eqn, err := d.buildEquation(opName, tiles, inAvals, attrs)
	if err != nil {
		return nil, err
	}
	serialized, err := eqn.Serialize()
	if err != nil {
		return nil, err
	}

	numTiles := tiles.Len()
	outShapes := make([]shapes.Shape, eqn.NumOutputs())
	for i, aval := range eqn.OutputAvals() {
		outShapes[i] = aval.Prepend(numTiles)
	}
	inTensors := make([]*tensors.Tensor, len(inputs))
	for i, in := range inputs {
		inTensors[i] = in.Tensor()
	}
	outTensors, err := d.device.Run(ctx, serialized, inTensors, outShapes, eqn.GpFilename)
	if err != nil {
		return nil, errors.WithMessagef(err, "device execution of %q", opName)
	}
	if len(outTensors) != eqn.NumOutputs() {
		return nil, errors.Errorf("device returned %d results for %q, equation declares %d",
			len(outTensors), opName, eqn.NumOutputs())
	}
	outputs := make([]*tile.ShardedArray, len(outTensors))
	for i, t := range outTensors {
		if !t.Shape().Equal(outShapes[i]) {
			return nil, errors.Errorf("device returned %s for result %d of %q, equation declares %s",
				t.Shape(), i, opName, outShapes[i])
		}
		out, err := tile.Shard(t, tiles)
		if err != nil {
			return nil, err
		}
		outputs[i] = out
	}
	return outputs, nil
}
