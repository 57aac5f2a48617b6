// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package tile defines the tile-sharded containers consumed and produced by
// the dispatch runtime: TileSet, the ordered list of hardware tiles targeted
// by one dispatch, and ShardedArray, a concrete value whose leading axis
// indexes tiles.
package tile

import (
	"slices"

	"github.com/gomlx/tilemap/types/shapes"
	"github.com/gomlx/tilemap/types/tensors"
	"github.com/pkg/errors"
)

// ErrInvalidTileSet is returned for empty tile sets, negative tile indices,
// duplicated tile indices, or inputs sharded over a different tile set than
// the dispatch targets.
var ErrInvalidTileSet = errors.New("invalid tile set")

// TileSet is the ordered sequence of tile indices targeted by one dispatch.
// Order is significant: results are reassembled positionally. Duplicates are
// rejected -- replicated writes to one tile have no defined semantics.
type TileSet []int32

// Len returns the number of tiles.
func (ts TileSet) Len() int { return len(ts) }

// Clone returns a copy of the tile set.
func (ts TileSet) Clone() TileSet { return slices.Clone(ts) }

// Equal returns whether both tile sets hold the same tiles in the same order.
func (ts TileSet) Equal(other TileSet) bool { return slices.Equal(ts, other) }

// Validate returns ErrInvalidTileSet if the tile set is empty, holds a
// negative index or holds the same index twice.
func (ts TileSet) Validate() error {
	if len(ts) == 0 {
		return errors.Wrap(ErrInvalidTileSet, "tile set is empty")
	}
	seen := make(map[int32]struct{}, len(ts))
	for _, t := range ts {
		if t < 0 {
			return errors.Wrapf(ErrInvalidTileSet, "negative tile index %d", t)
		}
		if _, found := seen[t]; found {
			return errors.Wrapf(ErrInvalidTileSet, "duplicate tile index %d", t)
		}
		seen[t] = struct{}{}
	}
	return nil
}

// ShardedArray is a concrete tile-sharded value: a tensor whose leading axis
// indexes the tiles of its TileSet, each tile holding one shard.
type ShardedArray struct {
	tensor *tensors.Tensor
	tiles  TileSet
}

// Shard wraps a tensor as a tile-sharded value. The tensor's leading axis
// must have one entry per tile.
func Shard(t *tensors.Tensor, tiles TileSet) (*ShardedArray, error) {
	if err := tiles.Validate(); err != nil {
		return nil, err
	}
	shape := t.Shape()
	if shape.Rank() == 0 || shape.Dimensions[0] != tiles.Len() {
		return nil, errors.Wrapf(ErrInvalidTileSet,
			"tensor shaped %s cannot be sharded over %d tiles", shape, tiles.Len())
	}
	return &ShardedArray{tensor: t, tiles: tiles.Clone()}, nil
}

// Tiles returns the tile set the value is sharded over.
func (a *ShardedArray) Tiles() TileSet { return a.tiles }

// Tensor returns the underlying tensor, leading axis included.
func (a *ShardedArray) Tensor() *tensors.Tensor { return a.tensor }

// Shape returns the full tensor shape, tile axis included.
func (a *ShardedArray) Shape() shapes.Shape { return a.tensor.Shape() }

// TileAval returns the per-tile shape: the tensor shape with the tile axis
// stripped. This is what translation rules see.
func (a *ShardedArray) TileAval() shapes.Shape {
	return a.tensor.Shape().DropLeadingAxis()
}

// ShardTensor returns tile position i's slice of the value, as a view
// sharing backing data.
func (a *ShardedArray) ShardTensor(i int) *tensors.Tensor {
	return a.tensor.LeadingSlice(i)
}

// StackShards reassembles per-tile results, in tile-set order, back into a
// single tile-sharded value. All shards must have the same shape.
func StackShards(tiles TileSet, shards []*tensors.Tensor) (*ShardedArray, error) {
	if err := tiles.Validate(); err != nil {
		return nil, err
	}
	if len(shards) != tiles.Len() {
		return nil, errors.Wrapf(ErrInvalidTileSet,
			"%d shards for %d tiles", len(shards), tiles.Len())
	}
	tileShape := shards[0].Shape()
	for i, shard := range shards[1:] {
		if !shard.Shape().Equal(tileShape) {
			return nil, errors.Wrapf(ErrInvalidTileSet,
				"shard %d shaped %s, but shard 0 shaped %s", i+1, shard.Shape(), tileShape)
		}
	}
	stacked := tensors.FromShape(tileShape.Prepend(tiles.Len()))
	stride := tileShape.Memory()
	data := stacked.Bytes()
	for i, shard := range shards {
		copy(data[uintptr(i)*stride:], shard.Bytes())
	}
	return &ShardedArray{tensor: stacked, tiles: tiles.Clone()}, nil
}

// ShardedAval is the abstract (shape-only) counterpart of ShardedArray:
// the per-tile shape plus the tile set, with no data attached.
type ShardedAval struct {
	// Aval is the per-tile shape, tile axis excluded.
	Aval shapes.Shape
	// Tiles the value is sharded over.
	Tiles TileSet
}

// ShardedShape returns the full shape of the value the aval describes,
// tile axis included.
func (av ShardedAval) ShardedShape() shapes.Shape {
	return av.Aval.Prepend(av.Tiles.Len())
}
