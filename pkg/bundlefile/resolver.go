// SPDX-License-Identifier: MPL-2.0

package bundlefile

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/assetsync/assetsync/pkg/addrindex"
)

// IndexName is the artifact, and the entry inside it, holding the address index.
const IndexName = "index"

// LoadResolver reads the address index and dependency graph of the release
// installed in dir. The graph artifact is named after dir's base name; a
// release without one resolves with no dependencies. The returned names were
// repeated in the index; their first mapping is kept.
func LoadResolver(dir string) (*addrindex.Resolver, []string, error) {
	idxContents, err := Open(filepath.Join(dir, IndexName))
	if err != nil {
		return nil, nil, fmt.Errorf("opening index artifact: %w", err)
	}
	raw, err := idxContents.Read(IndexName)
	if err != nil {
		return nil, nil, err
	}
	idx, repeated, err := addrindex.Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, nil, fmt.Errorf("parsing index: %w", err)
	}

	graphName := filepath.Base(dir)
	graph, err := Open(filepath.Join(dir, graphName))
	if errors.Is(err, fs.ErrNotExist) {
		return addrindex.NewResolver(idx, nil), repeated, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("opening dependency artifact: %w", err)
	}
	rawDeps, err := graph.Read(graphName)
	if err != nil {
		return nil, nil, err
	}
	deps, err := addrindex.ParseDependencies(bytes.NewReader(rawDeps))
	if err != nil {
		return nil, nil, fmt.Errorf("parsing dependencies: %w", err)
	}
	return addrindex.NewResolver(idx, deps), repeated, nil
}
