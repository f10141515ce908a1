// SPDX-License-Identifier: MPL-2.0

package builder

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"unicode"

	"github.com/assetsync/assetsync/pkg/addrindex"
)

// maxReferenceScan bounds how much of each asset is searched for references.
const maxReferenceScan = 8 << 20

// link records in every group the artifacts its assets refer to. A reference
// is a token in an asset's bytes that is either an addressable name or a
// resource-relative path of an indexed asset owned by another group.
func link(groups []*group, idx *addrindex.Index) error {
	for _, g := range groups {
		var deps []string
		for _, a := range g.assets {
			tokens, err := referenceTokens(a.Source)
			if err != nil {
				return err
			}
			for _, tok := range tokens {
				artifact, ok := idx.Lookup(tok)
				if !ok {
					artifact, ok = idx.Lookup(AddressableName(tok))
				}
				if ok && artifact != g.artifact {
					deps = append(deps, artifact)
				}
			}
		}
		slices.Sort(deps)
		g.deps = slices.Compact(deps)
	}
	return nil
}

// referenceTokens splits the head of a file into path-like tokens.
func referenceTokens(p string) ([]string, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("scanning %s for references: %w", p, err)
	}
	defer func() { _ = f.Close() }() // read-only handle

	data, err := io.ReadAll(io.LimitReader(f, maxReferenceScan))
	if err != nil {
		return nil, fmt.Errorf("scanning %s for references: %w", p, err)
	}

	fields := bytes.FieldsFunc(data, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && !strings.ContainsRune("_-./", r)
	})
	tokens := make([]string, 0, len(fields))
	for _, field := range fields {
		tok := strings.TrimRight(strings.TrimPrefix(string(field), "./"), ".")
		if strings.ContainsRune(tok, '/') {
			tokens = append(tokens, tok)
		}
	}
	return tokens, nil
}
