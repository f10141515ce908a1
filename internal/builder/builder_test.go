// SPDX-License-Identifier: MPL-2.0

package builder

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/assetsync/assetsync/internal/digest"
	"github.com/assetsync/assetsync/internal/store"
	"github.com/assetsync/assetsync/internal/testutil"
	"github.com/assetsync/assetsync/pkg/addrindex"
	"github.com/assetsync/assetsync/pkg/bundlefile"
	"github.com/assetsync/assetsync/pkg/manifest"
)

var buildTime = time.Date(2024, 5, 17, 14, 5, 0, 0, time.UTC)

func sampleTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{
		CombineConfigName:     `{"combieDirs": ["UI"]}`,
		"root.txt":            "never packaged",
		"UI/main.prefab":      "prefab",
		"UI/main.prefab.meta": "guid",
		"UI/Icons/a.png":      "png a",
		"UI/Icons/b.png":      "png b",
		"Sound/bgm.ogg":       "ogg",
		"Sound/Sfx/hit.wav":   "wav",
		"Empty/x.meta":        "guid",
	})
	return root
}

func newTestBuilder(t *testing.T, root string, mutate func(*Options)) (*Builder, string) {
	t.Helper()
	out := t.TempDir()
	opts := Options{
		ResourceRoot: root,
		OutputDir:    out,
		Version:      manifest.MustParseVersion("1.2.0"),
		Clock:        testutil.NewFakeClock(buildTime),
	}
	if mutate != nil {
		mutate(&opts)
	}
	return New(opts), out
}

func TestBuild(t *testing.T) {
	t.Parallel()

	b, out := newTestBuilder(t, sampleTree(t), nil)
	res, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if res.Groups != 3 {
		t.Errorf("Groups = %d, want 3 (UI, Sound, Sound/Sfx)", res.Groups)
	}
	wantIndex := map[string]string{
		"UI/main":       ArtifactName("UI"),
		"UI/Icons/a":    ArtifactName("UI"),
		"UI/Icons/b":    ArtifactName("UI"),
		"Sound/bgm":     ArtifactName("Sound"),
		"Sound/Sfx/hit": ArtifactName("Sound/Sfx"),
	}
	gotIndex := make(map[string]string)
	for _, name := range res.Index.Names() {
		gotIndex[name], _ = res.Index.Lookup(name)
	}
	if diff := cmp.Diff(wantIndex, gotIndex); diff != "" {
		t.Errorf("index mismatch (-want +got):\n%s", diff)
	}

	var names []string
	for _, a := range res.Manifest.Artifacts {
		names = append(names, a.Name)
	}
	wantNames := []string{
		"Bundles/" + ArtifactName("Sound"),
		"Bundles/" + ArtifactName("Sound/Sfx"),
		"Bundles/" + ArtifactName("UI"),
		"Bundles/Bundles",
		"Bundles/index",
	}
	if diff := cmp.Diff(sortedCopy(wantNames), sortedCopy(names)); diff != "" {
		t.Errorf("manifest artifacts (-want +got):\n%s", diff)
	}

	wantRelease := filepath.Join(out, "1.2.0", "Bundles")
	if res.ReleaseDir != wantRelease {
		t.Errorf("ReleaseDir = %s, want %s", res.ReleaseDir, wantRelease)
	}
	if _, err := os.Stat(filepath.Join(out, StagingDir)); !os.IsNotExist(err) {
		t.Errorf("staging dir still present: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(wantRelease, manifest.FileName))
	if err != nil {
		t.Fatalf("reading version.json: %v", err)
	}
	if !bytes.Contains(raw, []byte(`"asset_date":"202405171405"`)) {
		t.Errorf("version.json lacks build date: %s", raw)
	}
	onDisk, err := manifest.Unmarshal(raw)
	if err != nil {
		t.Fatalf("decoding version.json: %v", err)
	}
	if diff := cmp.Diff(res.Manifest, onDisk); diff != "" {
		t.Errorf("version.json differs from result (-result +disk):\n%s", diff)
	}

	for _, a := range onDisk.Artifacts {
		sum, err := digest.File(filepath.Join(out, "1.2.0", filepath.FromSlash(a.Name)))
		if err != nil {
			t.Fatalf("hashing %s: %v", a.Name, err)
		}
		if sum != a.Digest {
			t.Errorf("%s: digest %s, manifest says %s", a.Name, sum, a.Digest)
		}
		if strings.HasSuffix(a.Name, bundlefile.SideFileExt) {
			t.Errorf("side file %s listed in manifest", a.Name)
		}
	}

	archived, err := os.ReadDir(filepath.Join(out, "BundleManifest"))
	if err != nil {
		t.Fatalf("reading manifest archive: %v", err)
	}
	if len(archived) != len(onDisk.Artifacts) {
		t.Errorf("archived %d side files, want %d", len(archived), len(onDisk.Artifacts))
	}
}

func TestBuild_IndexArtifactReadsBack(t *testing.T) {
	t.Parallel()

	b, _ := newTestBuilder(t, sampleTree(t), nil)
	res, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	contents, err := bundlefile.Open(filepath.Join(res.ReleaseDir, IndexArtifact))
	if err != nil {
		t.Fatalf("Open index artifact: %v", err)
	}
	data, err := contents.Read(IndexArtifact)
	if err != nil {
		t.Fatal(err)
	}
	idx, repeated, err := addrindex.Parse(bytes.NewReader(data))
	if err != nil || len(repeated) != 0 {
		t.Fatalf("Parse: %v (repeated %v)", err, repeated)
	}
	if got, _ := idx.Lookup("Sound/Sfx/hit"); got != ArtifactName("Sound/Sfx") {
		t.Errorf("Lookup(Sound/Sfx/hit) = %q", got)
	}

	ui, err := bundlefile.Open(filepath.Join(res.ReleaseDir, ArtifactName("UI")))
	if err != nil {
		t.Fatal(err)
	}
	if got, err := ui.Read("UI/Icons/b"); err != nil || string(got) != "png b" {
		t.Errorf("UI artifact Read(UI/Icons/b) = %q, %v", got, err)
	}
}

func TestBuild_DuplicateAddressableName(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{
		"UI/icon.png": "png",
		"UI/icon.jpg": "jpg",
	})
	b, out := newTestBuilder(t, root, nil)

	_, err := b.Build(context.Background())
	var dup *addrindex.DuplicateNameError
	if !errors.As(err, &dup) || !errors.Is(err, addrindex.ErrDuplicateName) {
		t.Fatalf("Build error = %v, want DuplicateNameError", err)
	}
	if dup.Name != "UI/icon" {
		t.Errorf("duplicate name = %q, want UI/icon", dup.Name)
	}

	_ = filepath.WalkDir(out, func(p string, d fs.DirEntry, err error) error {
		if err == nil && d.Name() == manifest.FileName {
			t.Errorf("manifest written despite failure: %s", p)
		}
		return nil
	})
}

func TestBuild_RejectsZeroVersion(t *testing.T) {
	t.Parallel()

	b, _ := newTestBuilder(t, sampleTree(t), func(o *Options) { o.Version = manifest.Version{} })
	if _, err := b.Build(context.Background()); !errors.Is(err, ErrVersionRequired) {
		t.Fatalf("err = %v, want ErrVersionRequired", err)
	}
}

func TestBuild_MissingResourceRoot(t *testing.T) {
	t.Parallel()

	b, _ := newTestBuilder(t, filepath.Join(t.TempDir(), "nope"), nil)
	if _, err := b.Build(context.Background()); !errors.Is(err, ErrNoResourceRoot) {
		t.Fatalf("err = %v, want ErrNoResourceRoot", err)
	}
}

func TestBuild_Exclude(t *testing.T) {
	t.Parallel()

	b, _ := newTestBuilder(t, sampleTree(t), func(o *Options) { o.Exclude = []string{"Sound/Sfx/**", "**/*.ogg"} })
	res, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	for _, name := range []string{"Sound/Sfx/hit", "Sound/bgm"} {
		if _, ok := res.Index.Lookup(name); ok {
			t.Errorf("%s packaged despite exclude", name)
		}
	}
	if res.Groups != 1 {
		t.Errorf("Groups = %d, want 1", res.Groups)
	}
}

func TestBuild_Deterministic(t *testing.T) {
	t.Parallel()

	root := sampleTree(t)
	first, _ := newTestBuilder(t, root, nil)
	second, _ := newTestBuilder(t, root, nil)

	a, err := first.Build(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	b, err := second.Build(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(a.Manifest, b.Manifest); diff != "" {
		t.Errorf("rebuild changed the manifest (-first +second):\n%s", diff)
	}
}

func TestBuild_ShipCopyExtractsCleanly(t *testing.T) {
	t.Parallel()

	ship := t.TempDir()
	b, _ := newTestBuilder(t, sampleTree(t), func(o *Options) { o.ShipDir = ship })
	res, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	s := store.New(t.TempDir(), nil)
	extracted, err := s.ExtractFrom(os.DirFS(ship))
	if err != nil {
		t.Fatalf("ExtractFrom: %v", err)
	}
	if diff := cmp.Diff(res.Manifest, extracted); diff != "" {
		t.Errorf("shipped manifest differs (-built +shipped):\n%s", diff)
	}
	if r := s.Verify(extracted); !r.OK() {
		t.Errorf("Verify after extracting ship copy: %v", r.Err())
	}
}

func sortedCopy(in []string) []string {
	out := append([]string(nil), in...)
	for i := range out {
		for j := i + 1; j < len(out); j++ {
			if out[j] < out[i] {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out
}

func TestBuild_RecordsReferencedArtifacts(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{
		"UI/main.prefab":    "background: Sound/bgm\nclick: Sound/Sfx/hit.wav\nicon: UI/icon\n",
		"UI/icon.png":       "png",
		"Sound/bgm.ogg":     "ogg",
		"Sound/Sfx/hit.wav": "wav\nnext = ./Sound/bgm.",
	})
	b, _ := newTestBuilder(t, root, nil)
	res, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	resolver, _, err := bundlefile.LoadResolver(res.ReleaseDir)
	if err != nil {
		t.Fatalf("LoadResolver: %v", err)
	}

	tests := []struct {
		name string
		want []string
	}{
		{"UI/main", []string{ArtifactName("Sound"), ArtifactName("Sound/Sfx")}},
		{"Sound/Sfx/hit", []string{ArtifactName("Sound")}},
		{"Sound/bgm", nil},
	}
	for _, tt := range tests {
		got, err := resolver.Resolve(tt.name)
		if err != nil {
			t.Fatalf("Resolve(%s): %v", tt.name, err)
		}
		if diff := cmp.Diff(sortedCopy(tt.want), sortedCopy(got.Dependencies)); diff != "" {
			t.Errorf("Resolve(%s) dependencies (-want +got):\n%s", tt.name, diff)
		}
	}
}

func TestBuild_ManifestMatchesVersionFile(t *testing.T) {
	t.Parallel()

	zone := time.FixedZone("CST", 8*60*60)
	b, _ := newTestBuilder(t, sampleTree(t), func(o *Options) {
		o.Clock = testutil.NewFakeClock(time.Date(2024, 5, 17, 14, 5, 42, 123, zone))
	})
	res, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	s := store.New(t.TempDir(), nil)
	onDisk, err := s.LoadManifest(filepath.Join(res.ReleaseDir, manifest.FileName))
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	if diff := cmp.Diff(res.Manifest, onDisk); diff != "" {
		t.Errorf("result differs from version.json (-result +disk):\n%s", diff)
	}
	if want := time.Date(2024, 5, 17, 6, 5, 0, 0, time.UTC); !res.Manifest.GeneratedAt.Equal(want) {
		t.Errorf("GeneratedAt = %v, want %v", res.Manifest.GeneratedAt, want)
	}
}
