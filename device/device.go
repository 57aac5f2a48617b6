// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package device declares the boundary to the external device-compilation
// collaborator: the component that lowers a serialized tile equation to
// machine code and runs it on the accelerator.
//
// The core never looks inside this boundary. The serialized equation is
// handed over as an opaque string; retries and backoff, if any, are the
// collaborator's responsibility.
package device

import (
	"context"

	"github.com/gomlx/tilemap/types/shapes"
	"github.com/gomlx/tilemap/types/tensors"
	"github.com/pkg/errors"
)

// ErrNotImplemented is returned by the NotImplemented placeholder compiler.
var ErrNotImplemented = errors.New("device compiler not implemented")

// Compiler compiles and executes serialized tile equations.
type Compiler interface {
	// Run lowers the serialized equation and executes it over the
	// tile-sharded input buffers, returning the tile-sharded output buffers
	// in the declared order.
	//
	// outputs declares the full (tile axis included) shape/dtype of each
	// result. gpFilename optionally points to a precompiled vertex file and
	// may be empty. The call is a single opaque operation, cancellable
	// through ctx; the core never retries it.
	Run(ctx context.Context, equation string, inputs []*tensors.Tensor,
		outputs []shapes.Shape, gpFilename string) ([]*tensors.Tensor, error)
}

// NotImplemented is a placeholder Compiler that fails every call. It is the
// default collaborator of a dispatcher, so the device-compiled path fails
// loudly instead of dereferencing nil when no real compiler was plugged in.
type NotImplemented struct{}

var _ Compiler = NotImplemented{}

// Run implements Compiler.
func (NotImplemented) Run(_ context.Context, equation string, _ []*tensors.Tensor,
	_ []shapes.Shape, _ string) ([]*tensors.Tensor, error) {
	return nil, errors.Wrapf(ErrNotImplemented, "cannot run equation %s", equation)
}
