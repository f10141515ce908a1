// SPDX-License-Identifier: MPL-2.0

package addrindex

import (
	"errors"
	"fmt"
)

// ErrUnknownAsset indicates an addressable name is not in the index.
var ErrUnknownAsset = errors.New("unknown addressable name")

type (
	// Resolver answers which artifacts must be opened to load an asset.
	Resolver struct {
		index *Index
		deps  Dependencies
	}

	// Resolution is the artifact owning an asset plus everything it depends on.
	// Dependencies are listed in load order: they must be available before Artifact.
	Resolution struct {
		Name         string
		Artifact     string
		Dependencies []string
	}
)

// NewResolver combines an index with a dependency graph. A nil graph means
// no artifact has dependencies.
func NewResolver(index *Index, deps Dependencies) *Resolver {
	if deps == nil {
		deps = Dependencies{}
	}
	return &Resolver{index: index, deps: deps}
}

// Resolve looks up name.
func (r *Resolver) Resolve(name string) (Resolution, error) {
	artifact, ok := r.index.Lookup(name)
	if !ok {
		return Resolution{}, fmt.Errorf("%w: %q", ErrUnknownAsset, name)
	}
	return Resolution{
		Name:         name,
		Artifact:     artifact,
		Dependencies: r.deps.All(artifact),
	}, nil
}
