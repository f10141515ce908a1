// SPDX-License-Identifier: MPL-2.0

package addrindex

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestIndex_AddDuplicate(t *testing.T) {
	t.Parallel()

	x := New()
	if err := x.Add("ui/icons/sword", "a.assetbundle", "Res/ui/icons/sword.png"); err != nil {
		t.Fatal(err)
	}
	// Same source registering twice is idempotent.
	if err := x.Add("ui/icons/sword", "a.assetbundle", "Res/ui/icons/sword.png"); err != nil {
		t.Fatalf("re-adding the same source: %v", err)
	}

	err := x.Add("ui/icons/sword", "b.assetbundle", "Res/ui/icons/sword.jpg")
	var dup *DuplicateNameError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateNameError, got %v", err)
	}
	if !errors.Is(err, ErrDuplicateName) {
		t.Error("DuplicateNameError should unwrap to ErrDuplicateName")
	}
	if dup.First != "Res/ui/icons/sword.png" || dup.Second != "Res/ui/icons/sword.jpg" {
		t.Errorf("unexpected sources: %+v", dup)
	}
	if a, _ := x.Lookup("ui/icons/sword"); a != "a.assetbundle" {
		t.Errorf("existing mapping overwritten: %s", a)
	}
}

func TestIndex_AddRejectsUnencodable(t *testing.T) {
	t.Parallel()

	x := New()
	for _, name := range []string{"", "a:b", "a\nb"} {
		if err := x.Add(name, "x", "src"); err == nil {
			t.Errorf("Add(%q) should fail", name)
		}
	}
}

func TestIndex_TextRoundTrip(t *testing.T) {
	t.Parallel()

	x := New()
	for name, artifact := range map[string]string{
		"ui/main":        "11.assetbundle",
		"ui/icons/sword": "22.assetbundle",
		"LuaScripts/app": "33.assetbundle",
	} {
		if err := x.Add(name, artifact, name); err != nil {
			t.Fatal(err)
		}
	}

	var buf bytes.Buffer
	if _, err := x.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	want := "LuaScripts/app:33.assetbundle\nui/icons/sword:22.assetbundle\nui/main:11.assetbundle\n"
	if buf.String() != want {
		t.Errorf("WriteTo =\n%s\nwant\n%s", buf.String(), want)
	}

	parsed, repeated, err := Parse(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(repeated) != 0 {
		t.Errorf("unexpected repeated names %v", repeated)
	}
	if diff := cmp.Diff(x.Names(), parsed.Names()); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
	for _, n := range x.Names() {
		want, _ := x.Lookup(n)
		got, _ := parsed.Lookup(n)
		if got != want {
			t.Errorf("Lookup(%s) = %s, want %s", n, got, want)
		}
	}
}

func TestParse_ToleratesCRLFAndRepeats(t *testing.T) {
	t.Parallel()

	in := "a:1.assetbundle\r\n\r\nb:2.assetbundle\r\na:3.assetbundle\n"
	x, repeated, err := Parse(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	if x.Len() != 2 {
		t.Errorf("Len() = %d, want 2", x.Len())
	}
	if got, _ := x.Lookup("a"); got != "1.assetbundle" {
		t.Errorf("first mapping should win, got %s", got)
	}
	if diff := cmp.Diff([]string{"a"}, repeated); diff != "" {
		t.Errorf("repeated mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_Malformed(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"no-separator\n", ":artifact\n", "a:b:c\n"} {
		_, _, err := Parse(strings.NewReader(in))
		var le *LineError
		if !errors.As(err, &le) {
			t.Errorf("Parse(%q) error = %v, want LineError", in, err)
			continue
		}
		if le.Line != 1 {
			t.Errorf("Parse(%q) line = %d, want 1", in, le.Line)
		}
	}
}
