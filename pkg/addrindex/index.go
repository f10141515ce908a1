// SPDX-License-Identifier: MPL-2.0

package addrindex

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
)

// ErrDuplicateName indicates two source files map to the same addressable name.
var ErrDuplicateName = errors.New("duplicate addressable name")

type (
	// DuplicateNameError reports an addressable name claimed by two source files.
	DuplicateNameError struct {
		Name   string
		First  string // source file registered first
		Second string // source file that collided
	}

	// LineError reports a malformed line in an index or dependency file.
	LineError struct {
		Line int
		Text string
	}

	// Index maps addressable names to artifact names.
	Index struct {
		artifacts map[string]string
		sources   map[string]string
	}
)

// Error names the colliding name and both source files.
func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("addressable name %q is produced by both %s and %s", e.Name, e.First, e.Second)
}

// Unwrap returns ErrDuplicateName.
func (e *DuplicateNameError) Unwrap() error { return ErrDuplicateName }

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: malformed entry %q", e.Line, e.Text)
}

// New returns an empty index.
func New() *Index {
	return &Index{
		artifacts: make(map[string]string),
		sources:   make(map[string]string),
	}
}

// Add maps name to artifact. source identifies the file the name was derived
// from; registering the same name from a different source is an error and the
// existing mapping is kept.
func (x *Index) Add(name, artifact, source string) error {
	if name == "" || strings.ContainsAny(name, ":\n") {
		return fmt.Errorf("addressable name %q cannot be encoded in the index", name)
	}
	if prev, ok := x.sources[name]; ok && prev != source {
		return &DuplicateNameError{Name: name, First: prev, Second: source}
	}
	x.artifacts[name] = artifact
	x.sources[name] = source
	return nil
}

// Lookup returns the artifact carrying name.
func (x *Index) Lookup(name string) (string, bool) {
	a, ok := x.artifacts[name]
	return a, ok
}

// Len returns the number of addressable names.
func (x *Index) Len() int {
	return len(x.artifacts)
}

// Names returns all addressable names in sorted order.
func (x *Index) Names() []string {
	names := make([]string, 0, len(x.artifacts))
	for n := range x.artifacts {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// WriteTo writes the index in its text form, sorted by addressable name so
// identical inputs produce identical bytes.
func (x *Index) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var n int64
	for _, name := range x.Names() {
		written, err := fmt.Fprintf(bw, "%s:%s\n", name, x.artifacts[name])
		n += int64(written)
		if err != nil {
			return n, err
		}
	}
	return n, bw.Flush()
}

// Parse reads the text form. Blank lines are skipped and CR line endings are
// tolerated. A repeated addressable name keeps its first mapping; those
// repeats are returned alongside the index so callers can log them.
func Parse(r io.Reader) (*Index, []string, error) {
	x := New()
	var repeated []string

	err := scanPairs(r, func(lineNo int, key, value string) error {
		if _, dup := x.artifacts[key]; dup {
			repeated = append(repeated, key)
			return nil
		}
		x.artifacts[key] = value
		x.sources[key] = fmt.Sprintf("line %d", lineNo)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return x, repeated, nil
}

// scanPairs calls fn for every non-blank "key:value" line.
func scanPairs(r io.Reader, fn func(lineNo int, key, value string) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok || key == "" || strings.Contains(value, ":") {
			return &LineError{Line: lineNo, Text: line}
		}
		if err := fn(lineNo, key, value); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("reading index: %w", err)
	}
	return nil
}
