// SPDX-License-Identifier: MPL-2.0

package update

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/assetsync/assetsync/internal/events"
	"github.com/assetsync/assetsync/pkg/manifest"
)

// progress accumulates bytes over the plan and publishes after every artifact.
type progress struct {
	mu    sync.Mutex
	bus   *events.Bus
	total int64
	done  int64
}

func (p *progress) add(n int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done += n
	events.Publish(p.bus, events.DownloadProgress, events.Progress{Total: p.total, Downloaded: p.done})
}

// transfer stages every planned artifact. Artifacts already staged with the
// right digest, from an earlier interrupted try, are skipped but still count
// toward progress. The first failure cancels the rest.
func (o *Orchestrator) transfer(ctx context.Context, plan *Plan) error {
	prog := &progress{bus: o.cfg.Bus, total: plan.TotalSize()}
	events.Publish(o.cfg.Bus, events.DownloadProgress, events.Progress{Total: prog.total})

	if o.cfg.Concurrency <= 1 {
		for _, a := range plan.Artifacts {
			if err := o.fetchOne(ctx, plan.Remote.Version, a, prog); err != nil {
				return err
			}
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.Concurrency)
	for _, a := range plan.Artifacts {
		g.Go(func() error {
			return o.fetchOne(gctx, plan.Remote.Version, a, prog)
		})
	}
	return g.Wait()
}

func (o *Orchestrator) fetchOne(ctx context.Context, v manifest.Version, a manifest.Artifact, prog *progress) error {
	if err := ctx.Err(); err != nil {
		return downloadError(KindNetwork, a.Name, err)
	}

	st := o.cfg.Store
	ok, err := st.StagedMatches(a)
	if err != nil {
		return downloadError(KindIO, a.Name, err)
	}
	if ok {
		o.log.Debug("already downloaded", "artifact", a.Name)
		prog.add(a.Size)
		return nil
	}

	body, _, err := o.cfg.Remote.FetchArtifact(ctx, v, a.Name)
	if err != nil {
		return downloadError(KindNetwork, a.Name, err)
	}
	defer func() { _ = body.Close() }() // read-only response body

	src := &trackedReader{r: body}
	n, err := st.StageArtifact(a.Name, src)
	if err != nil {
		if src.err != nil {
			return downloadError(KindNetwork, a.Name, src.err)
		}
		return downloadError(KindIO, a.Name, err)
	}
	o.log.Debug("downloaded", "artifact", a.Name, "bytes", n)
	prog.add(a.Size)
	return nil
}

func downloadError(kind Kind, name string, err error) error {
	retry := events.ActionRetryDownload
	if kind == KindIO {
		retry = events.ActionRetryAttempt
	}
	return &Error{Kind: kind, Op: fmt.Sprintf("download %s", name), Err: err, retry: retry}
}

// trackedReader remembers read failures so they can be told apart from
// failures writing to disk.
type trackedReader struct {
	r   io.Reader
	err error
}

func (t *trackedReader) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	if err != nil && !errors.Is(err, io.EOF) {
		t.err = err
	}
	return n, err
}
