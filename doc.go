// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package tilemap translates array primitives into tile-mapped vertex
// equations and dispatches them over tile-sharded operands.
//
// The model: every supported primitive has a translation rule that, given
// the dispatch tile set, the per-tile operand shapes and the call
// attributes, produces a vertex.Equation -- the device-independent record of
// which hardware kernel runs, how its IO slots bind and which scalar
// attributes parameterize it. Equations serialize to a stable JSON wire form
// consumed by device compilation backends.
//
// Packages:
//
//   - types/shapes, types/tensors: dtyped array shapes and flat host buffers.
//   - tile: tile sets and tile-sharded arrays/avals.
//   - vertex: hardware type mapping, templated kernel naming, IO slot and
//     attribute models, the Equation itself.
//   - interp: the translation registry, the built-in primitive families
//     (element-wise binary, scaled accumulate) with their reference
//     implementations, and the Dispatcher with its three execution paths.
//   - device: the compilation collaborator interface for the device path.
//
// A minimal round trip:
//
//	a := must.M1(tile.Shard(tensors.FromFlatDataAndDimensions([]float32{1, 2, 3}, 1, 3), tile.TileSet{0}))
//	b := must.M1(tile.Shard(tensors.FromFlatDataAndDimensions([]float32{10, 20, 30}, 1, 3), tile.TileSet{0}))
//	s := must.M1(tile.Shard(tensors.FromFlatDataAndDimensions([]float32{2}, 1, 1), tile.TileSet{0}))
//	d := interp.NewDispatcher(interp.Default())
//	outs := must.M1(d.DispatchReference(ctx, "scaled_add", tile.TileSet{0},
//		[]*tile.ShardedArray{a, b, s}, nil))
//	// outs[0] holds [21, 42, 63] sharded on tile 0.
package tilemap
