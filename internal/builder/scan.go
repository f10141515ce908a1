// SPDX-License-Identifier: MPL-2.0

package builder

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/assetsync/assetsync/internal/digest"
	"github.com/assetsync/assetsync/pkg/addrindex"
	"github.com/assetsync/assetsync/pkg/bundlefile"
)

const (
	// ArtifactExt is appended to the digest of a group path.
	ArtifactExt = ".assetbundle"

	// IndexArtifact is the artifact holding the serialized address index.
	IndexArtifact = bundlefile.IndexName
)

type (
	// dirInfo is a directory visited by the scan. combineTo is the combine
	// target inherited from the nearest listed ancestor, or empty.
	dirInfo struct {
		rel       string
		combineTo string
	}

	// group collects the files packaged into one artifact.
	group struct {
		path     string
		artifact string
		assets   []bundlefile.Asset
		deps     []string // artifacts referenced by assets, sorted
	}
)

// groupKey is the path that names the artifact for d.
func (d dirInfo) groupKey() string {
	if d.combineTo != "" {
		return d.combineTo
	}
	return d.rel
}

// ArtifactName derives an artifact name from a group path.
func ArtifactName(groupPath string) string {
	return digest.String(groupPath) + ArtifactExt
}

// AddressableName strips the extension from a slash-separated path relative
// to the resource root.
func AddressableName(rel string) string {
	return strings.TrimSuffix(rel, path.Ext(rel))
}

// eligible rejects engine metadata and OS litter.
func eligible(name string) bool {
	ext := path.Ext(name)
	return ext != ".meta" && ext != ".DS_Store"
}

// scan walks root breadth-first and returns the directories below it in
// visit order, each tagged with its combine target.
func scan(root string, combine map[string]struct{}, exclude []string) ([]dirInfo, error) {
	var (
		dirs  []dirInfo
		queue = []dirInfo{{rel: "."}}
	)
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.rel != "." {
			if _, ok := combine[cur.rel]; ok {
				cur.combineTo = cur.rel
			}
			dirs = append(dirs, cur)
		}

		entries, err := os.ReadDir(filepath.Join(root, filepath.FromSlash(cur.rel)))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", cur.rel, err)
		}
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			rel := path.Join(cur.rel, e.Name())
			if excluded(exclude, rel) || excluded(exclude, rel+"/") {
				continue
			}
			queue = append(queue, dirInfo{rel: rel, combineTo: cur.combineTo})
		}
	}
	return dirs, nil
}

// groupFiles assigns every eligible file of dirs to its group and records
// addressable names in idx. Groups are returned in first-seen order.
func groupFiles(root string, dirs []dirInfo, exclude []string, idx *addrindex.Index) ([]*group, error) {
	var (
		order  []*group
		byPath = make(map[string]*group)
	)
	for _, d := range dirs {
		entries, err := os.ReadDir(filepath.Join(root, filepath.FromSlash(d.rel)))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", d.rel, err)
		}
		for _, e := range entries {
			if e.IsDir() || !eligible(e.Name()) {
				continue
			}
			rel := path.Join(d.rel, e.Name())
			if excluded(exclude, rel) {
				continue
			}

			key := d.groupKey()
			g, ok := byPath[key]
			if !ok {
				g = &group{path: key, artifact: ArtifactName(key)}
				byPath[key] = g
				order = append(order, g)
			}

			addr := AddressableName(rel)
			if err := idx.Add(addr, g.artifact, rel); err != nil {
				return nil, err
			}
			g.assets = append(g.assets, bundlefile.Asset{
				Source:  filepath.Join(root, filepath.FromSlash(rel)),
				Address: addr,
			})
		}
	}
	return order, nil
}

func excluded(patterns []string, rel string) bool {
	return slices.ContainsFunc(patterns, func(p string) bool {
		ok, _ := doublestar.Match(p, rel)
		return ok
	})
}
