// SPDX-License-Identifier: MPL-2.0

package update

import (
	"github.com/assetsync/assetsync/internal/digest"
	"github.com/assetsync/assetsync/pkg/manifest"
)

// Plan is the set of artifacts one attempt transfers.
type Plan struct {
	Remote    *manifest.Manifest
	Force     bool
	Artifacts []manifest.Artifact
}

// TotalSize sums the declared sizes of the planned artifacts.
func (p *Plan) TotalSize() int64 {
	var n int64
	for _, a := range p.Artifacts {
		n += a.Size
	}
	return n
}

// Names lists the planned artifact names in plan order.
func (p *Plan) Names() []string {
	names := make([]string, len(p.Artifacts))
	for i, a := range p.Artifacts {
		names[i] = a.Name
	}
	return names
}

// digester reports the installed digest of an artifact.
type digester interface {
	LocalDigest(name string) (sum string, ok bool, err error)
}

// BuildPlan selects the remote artifacts to download. In force mode every
// artifact is included; otherwise only those whose installed copy is missing
// or hashes differently.
func BuildPlan(local digester, remote *manifest.Manifest, force bool) (*Plan, error) {
	p := &Plan{Remote: remote, Force: force}
	if force {
		p.Artifacts = append(p.Artifacts, remote.Artifacts...)
		return p, nil
	}
	for _, a := range remote.Artifacts {
		sum, ok, err := local.LocalDigest(a.Name)
		if err != nil {
			return nil, err
		}
		if !ok || !digest.Equal(sum, a.Digest) {
			p.Artifacts = append(p.Artifacts, a)
		}
	}
	return p, nil
}
