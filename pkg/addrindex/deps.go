// SPDX-License-Identifier: MPL-2.0

package addrindex

import (
	"bufio"
	"fmt"
	"io"
	"slices"
	"strings"
)

// Dependencies records, per artifact, the artifacts it references directly.
type Dependencies map[string][]string

// Set records the direct dependencies of artifact, sorted and deduplicated.
func (d Dependencies) Set(artifact string, deps []string) {
	cp := slices.Clone(deps)
	slices.Sort(cp)
	d[artifact] = slices.Compact(cp)
}

// All returns the transitive dependencies of artifact in breadth-first order,
// excluding artifact itself. Cycles are tolerated.
func (d Dependencies) All(artifact string) []string {
	seen := map[string]bool{artifact: true}
	var out []string
	queue := slices.Clone(d[artifact])
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if seen[next] {
			continue
		}
		seen[next] = true
		out = append(out, next)
		queue = append(queue, d[next]...)
	}
	return out
}

// WriteTo writes "artifact:dep1,dep2" lines sorted by artifact.
func (d Dependencies) WriteTo(w io.Writer) (int64, error) {
	names := make([]string, 0, len(d))
	for a := range d {
		names = append(names, a)
	}
	slices.Sort(names)

	bw := bufio.NewWriter(w)
	var n int64
	for _, a := range names {
		written, err := fmt.Fprintf(bw, "%s:%s\n", a, strings.Join(d[a], ","))
		n += int64(written)
		if err != nil {
			return n, err
		}
	}
	return n, bw.Flush()
}

// ParseDependencies reads the text form written by WriteTo.
func ParseDependencies(r io.Reader) (Dependencies, error) {
	d := make(Dependencies)
	err := scanPairs(r, func(_ int, key, value string) error {
		var deps []string
		if value != "" {
			deps = strings.Split(value, ",")
		}
		d.Set(key, deps)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}
