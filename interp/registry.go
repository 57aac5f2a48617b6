// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package interp implements the tile primitive interpreter: the registry
// mapping operation identities to vertex translation rules, the standard
// binary and scaled-accumulate rule families, and the dispatcher that fans a
// tile-sharded operation out to per-tile vertex invocations.
package interp

import (
	"sync"

	"github.com/gomlx/tilemap/tile"
	"github.com/gomlx/tilemap/types/shapes"
	"github.com/gomlx/tilemap/types/tensors"
	"github.com/gomlx/tilemap/vertex"
	"github.com/pkg/errors"
)

// Errors shared by translation rules and dispatch. None of them is retried
// internally; they abort the enclosing call and propagate to the caller.
var (
	// ErrUnknownOperation is returned when looking up a primitive name that
	// was never registered.
	ErrUnknownOperation = errors.New("operation not registered for tile mapping")
	// ErrArityMismatch is returned by a rule given the wrong operand count.
	ErrArityMismatch = errors.New("wrong number of operands")
	// ErrShapeMismatch is returned when operand shapes or dtypes violate a
	// rule's preconditions.
	ErrShapeMismatch = errors.New("operand shapes violate rule preconditions")
)

// RefImplFn is the reference (software) semantics of a primitive at the tile
// level: it consumes one tile's slice of every operand and produces that
// tile's slice of every result. It must be pure.
type RefImplFn func(inputs []*tensors.Tensor, attrs vertex.Attributes) ([]*tensors.Tensor, error)

// Primitive is the identity of one operation family plus its reference
// semantics. Primitives are declared once at startup and never mutated.
type Primitive struct {
	// Name uniquely identifies the operation; it is the registry key and the
	// pname of every equation translated from it.
	Name string
	// MultipleResults indicates the primitive produces an ordered sequence
	// of results rather than a single value.
	MultipleResults bool
	// RefImpl computes the primitive on one tile's operand slices.
	RefImpl RefImplFn
}

// TranslationRule translates a primitive applied to per-tile operand avals
// into a fully resolved vertex equation.
//
// Rules are pure functions: stateless, freely callable concurrently, and
// they build a fresh Equation on every call.
type TranslationRule func(p *Primitive, tiles tile.TileSet, inAvals []shapes.Shape,
	attrs vertex.Attributes) (*vertex.Equation, error)

type registryEntry struct {
	primitive *Primitive
	rule      TranslationRule
}

// Registry maps primitive names to their vertex translation rules.
//
// Registration happens at startup (normally package init); after that the
// registry is effectively read-only and lookups from concurrent dispatches
// are safe. Last registration under the same name wins.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]registryEntry
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]registryEntry)}
}

// Register the translation rule for the given primitive. Registering the
// same name again overwrites the previous entry.
func (r *Registry) Register(p *Primitive, rule TranslationRule) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[p.Name] = registryEntry{primitive: p, rule: rule}
}

// Lookup returns the primitive and translation rule registered under name,
// or ErrUnknownOperation.
func (r *Registry) Lookup(name string) (*Primitive, TranslationRule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, found := r.entries[name]
	if !found {
		return nil, nil, errors.Wrapf(ErrUnknownOperation, "primitive %q", name)
	}
	return entry.primitive, entry.rule, nil
}

// Names returns the registered primitive names, unordered.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	return names
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// Default returns the process-wide registry. The standard primitive families
// in this package register into it at package initialization; a Dispatcher
// still takes the registry as an explicit dependency, so tests and embedders
// can use private ones.
func Default() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}
