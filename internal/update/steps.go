// SPDX-License-Identifier: MPL-2.0

package update

import (
	"context"
	"errors"

	"github.com/assetsync/assetsync/internal/events"
	"github.com/assetsync/assetsync/pkg/manifest"
)

func (o *Orchestrator) bootstrap() (State, error) {
	st := o.cfg.Store
	if err := st.EnsureDirectory(); err != nil {
		return o.failure(KindIO, "prepare directory", events.ActionRetryAttempt, err)
	}
	adopted, err := st.LoadAdopted()
	if err != nil {
		return o.failure(KindIO, "load manifest", events.ActionRetryAttempt, err)
	}
	o.local = adopted

	if o.cfg.Ship == nil {
		return StateFetchingManifest, nil
	}
	if adopted == nil {
		o.log.Info("no installed content, extracting bundled release")
		return StateExtracting, nil
	}

	shipped, err := st.LoadShipped(o.cfg.Ship)
	if err != nil {
		return o.failure(KindIO, "load bundled manifest", events.ActionRetryAttempt, err)
	}
	if shipped == nil {
		o.log.Warn("client package has no readable manifest")
		return StateFetchingManifest, nil
	}
	if shipped.Version.Newer(adopted.Version) {
		o.log.Info("bundled release is newer than installed content",
			"bundled", shipped.Version, "installed", adopted.Version)
		return StateExtracting, nil
	}
	return StateFetchingManifest, nil
}

func (o *Orchestrator) extract() (State, error) {
	m, err := o.cfg.Store.ExtractFrom(o.cfg.Ship)
	if err != nil {
		return o.failure(KindIO, "extract bundled content", events.ActionRetryAttempt, err)
	}
	o.local = m
	o.log.Info("extracted bundled release", "version", m.Version, "artifacts", len(m.Artifacts))
	return StateFetchingManifest, nil
}

func (o *Orchestrator) fetchManifest(ctx context.Context) (State, error) {
	remote, err := o.cfg.Remote.FetchManifest(ctx)
	if err != nil {
		kind := KindNetwork
		if errors.Is(err, manifest.ErrInvalid) || errors.Is(err, manifest.ErrEmpty) {
			kind = KindParse
		}
		return o.failure(kind, "fetch manifest", events.ActionRetryFetch, err)
	}
	o.remote = remote
	o.log.Info("fetched remote manifest", "version", remote.Version, "artifacts", len(remote.Artifacts))

	if local, ok := o.localVersion(); ok && remote.Version.Major > local.Major {
		return StateMajorUpgradeRequired, nil
	}
	return StateDiffing, nil
}

func (o *Orchestrator) diff() (State, error) {
	if !o.force && o.local != nil && !o.remote.Version.Newer(o.local.Version) {
		o.log.Info("installed content is current", "installed", o.local.Version, "remote", o.remote.Version)
		o.setPlan(nil)
		return StateVerifying, nil
	}

	plan, err := BuildPlan(o.cfg.Store, o.remote, o.force)
	if err != nil {
		return o.failure(KindIO, "compare content", events.ActionRetryAttempt, err)
	}
	o.setPlan(plan)
	o.log.Info("update planned", "version", o.remote.Version, "artifacts", len(plan.Artifacts),
		"bytes", plan.TotalSize(), "force", plan.Force)
	return StateDownloading, nil
}

func (o *Orchestrator) download(ctx context.Context) (State, error) {
	plan := o.Plan()
	if err := o.transfer(ctx, plan); err != nil {
		return StateFailed, err
	}

	st := o.cfg.Store
	if err := st.CommitStaged(plan.Names()); err != nil {
		return o.failure(KindIO, "install content", events.ActionRetryAttempt, err)
	}
	if err := st.AdoptManifest(plan.Remote); err != nil {
		return o.failure(KindIO, "adopt manifest", events.ActionRetryAttempt, err)
	}
	adopted, err := st.LoadAdopted()
	if err != nil {
		return o.failure(KindIO, "load manifest", events.ActionRetryAttempt, err)
	}
	o.local = adopted
	return StateVerifying, nil
}

func (o *Orchestrator) verify() (State, error) {
	if o.local == nil {
		err := &Error{Kind: KindIntegrity, Op: "verify", Err: errors.New("no adopted manifest")}
		if o.repairing {
			return StateReinstallRequired, err
		}
		return StateRepairing, nil
	}

	report := o.cfg.Store.Verify(o.local)
	if report.OK() {
		return StateReady, nil
	}
	if o.repairing {
		return StateReinstallRequired, &Error{
			Kind: KindIntegrity,
			Op:   "verify",
			Err:  errors.Join(ErrReinstallRequired, report.Err()),
		}
	}
	o.log.Warn("installed content failed verification", "mismatches", len(report.Mismatches))
	return StateRepairing, nil
}

func (o *Orchestrator) repair() (State, error) {
	o.repairing = true
	o.force = true
	st := o.cfg.Store
	if err := st.WipeDirectory(); err != nil {
		return o.failure(KindIO, "wipe content", events.ActionRetryAttempt, err)
	}
	if err := st.EnsureDirectory(); err != nil {
		return o.failure(KindIO, "prepare directory", events.ActionRetryAttempt, err)
	}
	return StateFetchingManifest, nil
}
