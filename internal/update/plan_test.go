// SPDX-License-Identifier: MPL-2.0

package update

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/assetsync/assetsync/internal/store"
)

func stringsReader(s string) *strings.Reader { return strings.NewReader(s) }

func TestBuildPlan(t *testing.T) {
	t.Parallel()

	s := store.New(t.TempDir(), nil)
	if _, err := s.WriteArtifact("Bundles/A", stringsReader("artifact A")); err != nil {
		t.Fatal(err)
	}
	if _, err := s.WriteArtifact("Bundles/B", stringsReader("artifact B")); err != nil {
		t.Fatal(err)
	}

	remote := release{version: "1.0.1", files: map[string]string{
		"Bundles/A": "artifact A",
		"Bundles/B": "artifact B, patched",
		"Bundles/C": "new artifact",
	}}.manifest()

	tests := []struct {
		name  string
		force bool
		want  []string
	}{
		{"normal", false, []string{"Bundles/B", "Bundles/C"}},
		{"force", true, []string{"Bundles/A", "Bundles/B", "Bundles/C"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			plan, err := BuildPlan(s, remote, tt.force)
			if err != nil {
				t.Fatalf("BuildPlan: %v", err)
			}
			if diff := cmp.Diff(tt.want, plan.Names()); diff != "" {
				t.Errorf("plan (-want +got):\n%s", diff)
			}
			if plan.Force != tt.force {
				t.Errorf("Force = %v", plan.Force)
			}
		})
	}
}

func TestPlanTotalSize(t *testing.T) {
	t.Parallel()

	p := &Plan{Remote: v101.manifest()}
	p.Artifacts = p.Remote.Artifacts
	want := int64(len("artifact A") + len("artifact B, patched"))
	if got := p.TotalSize(); got != want {
		t.Errorf("TotalSize = %d, want %d", got, want)
	}
}

func TestStateNames(t *testing.T) {
	t.Parallel()

	if StateMajorUpgradeRequired.String() != "MajorUpgradeRequired" {
		t.Errorf("String = %q", StateMajorUpgradeRequired.String())
	}
	if !StateFailed.Settled() || StateDownloading.Settled() {
		t.Error("Settled classification wrong")
	}
	if State(200).String() != "State(200)" {
		t.Errorf("unknown state = %q", State(200).String())
	}
}
