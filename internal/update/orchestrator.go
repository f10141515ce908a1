// SPDX-License-Identifier: MPL-2.0

package update

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/assetsync/assetsync/internal/events"
	"github.com/assetsync/assetsync/internal/store"
	"github.com/assetsync/assetsync/pkg/manifest"
)

type (
	// Fetcher retrieves releases from the origin. *remote.Client implements it.
	Fetcher interface {
		FetchManifest(ctx context.Context) (*manifest.Manifest, error)
		FetchArtifact(ctx context.Context, v manifest.Version, name string) (io.ReadCloser, int64, error)
	}

	// Config wires an Orchestrator to its collaborators.
	Config struct {
		Store  *store.Store
		Remote Fetcher
		// Ship is the read-only content bundled with the client, rooted like
		// the writable root. Nil when the client ships no content.
		Ship fs.FS
		Bus  *events.Bus
		// ClientVersion is the installed client package version. When zero,
		// the adopted manifest's version stands in for major checks.
		ClientVersion manifest.Version
		// Concurrency above 1 downloads that many artifacts at once.
		Concurrency int
		Logger      *log.Logger
	}

	// Orchestrator runs update attempts. One attempt runs at a time.
	Orchestrator struct {
		cfg     Config
		logger  *log.Logger
		running atomic.Bool

		mu      sync.Mutex
		state   State
		pending events.Action
		plan    *Plan

		// Attempt state, touched only by the goroutine holding running.
		local     *manifest.Manifest
		remote    *manifest.Manifest
		force     bool
		repairing bool
		log       *log.Logger
	}
)

// New returns an idle Orchestrator.
func New(cfg Config) *Orchestrator {
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard)
	}
	return &Orchestrator{cfg: cfg, logger: cfg.Logger, log: cfg.Logger, state: StateIdle}
}

// State returns the current state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Pending returns the action offered by the last prompt.
func (o *Orchestrator) Pending() events.Action {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.pending
}

// Plan returns the plan of the current attempt, if one was built.
func (o *Orchestrator) Plan() *Plan {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.plan
}

func (o *Orchestrator) setPlan(p *Plan) {
	o.mu.Lock()
	o.plan = p
	o.mu.Unlock()
}

// Start runs a fresh attempt from Bootstrapping. It returns the state the
// flow settled in; the error is nil only for Ready.
func (o *Orchestrator) Start(ctx context.Context) (State, error) {
	if !o.running.CompareAndSwap(false, true) {
		return o.State(), ErrInProgress
	}
	defer o.running.Store(false)

	o.reset()
	return o.run(ctx, StateBootstrapping)
}

// Respond handles the user's answer to a prompt. ActionRetryAttempt and
// ActionRepair are always accepted; ActionRetryFetch and ActionRetryDownload
// only when they are the pending prompt's action.
func (o *Orchestrator) Respond(ctx context.Context, a events.Action) (State, error) {
	if !o.running.CompareAndSwap(false, true) {
		return o.State(), ErrInProgress
	}
	defer o.running.Store(false)

	pending := o.Pending()
	switch a {
	case events.ActionRetryAttempt:
		o.reset()
		return o.run(ctx, StateBootstrapping)

	case events.ActionRepair:
		o.reset()
		adopted, err := o.cfg.Store.LoadAdopted()
		if err != nil {
			return o.settle(o.failure(KindIO, "load manifest", events.ActionRetryAttempt, err))
		}
		o.local = adopted
		return o.run(ctx, StateRepairing)

	case events.ActionRetryFetch:
		if pending == a {
			o.newAttemptID()
			return o.run(ctx, StateFetchingManifest)
		}

	case events.ActionRetryDownload:
		if pending == a && o.Plan() != nil {
			o.newAttemptID()
			return o.run(ctx, StateDownloading)
		}
	}
	return o.State(), fmt.Errorf("%w: got %s, pending %s", ErrUnexpectedAction, a, pending)
}

func (o *Orchestrator) reset() {
	o.local, o.remote = nil, nil
	o.force, o.repairing = false, false
	o.setPlan(nil)
	o.newAttemptID()
}

func (o *Orchestrator) newAttemptID() {
	o.log = o.logger.With("attempt", uuid.NewString())
}

// run drives the flow from the given state until it settles.
func (o *Orchestrator) run(ctx context.Context, from State) (State, error) {
	st := from
	for {
		o.enter(st)

		var (
			next State
			err  error
		)
		switch st {
		case StateBootstrapping:
			next, err = o.bootstrap()
		case StateExtracting:
			next, err = o.extract()
		case StateFetchingManifest:
			next, err = o.fetchManifest(ctx)
		case StateDiffing:
			next, err = o.diff()
		case StateDownloading:
			next, err = o.download(ctx)
		case StateVerifying:
			next, err = o.verify()
		case StateRepairing:
			next, err = o.repair()
		default:
			return st, fmt.Errorf("update: cannot run from state %s", st)
		}

		if next.Settled() {
			return o.settle(next, err)
		}
		st = next
	}
}

// enter records st and announces it.
func (o *Orchestrator) enter(st State) {
	o.mu.Lock()
	o.state = st
	o.pending = events.ActionNone
	o.mu.Unlock()

	o.log.Debug("state", "state", st)
	events.Publish(o.cfg.Bus, events.StateChanged, events.StateChange{State: st.String(), Message: st.Message()})
}

// settle enters a settled state and raises the matching prompt or completion
// signal.
func (o *Orchestrator) settle(st State, err error) (State, error) {
	o.enter(st)

	switch st {
	case StateReady:
		v := ""
		if o.local != nil {
			v = o.local.Version.String()
		}
		o.log.Info("content ready", "version", v)
		events.Publish(o.cfg.Bus, events.UpdateComplete, events.Complete{Version: v})
		return st, nil

	case StateMajorUpgradeRequired:
		o.log.Warn("major upgrade required", "remote", o.remote.Version)
		o.prompt("A new version is available. Please download the latest client package.", "OK", events.ActionOpenStore)
		return st, ErrMajorUpgradeRequired

	case StateReinstallRequired:
		o.log.Error("repair failed", "error", err)
		o.prompt("Repairing the client failed. Please reinstall the client package.", "OK", events.ActionOpenStore)
		return st, err
	}

	var ue *Error
	if !errors.As(err, &ue) {
		if err == nil {
			err = errors.New("attempt stopped")
		}
		ue = &Error{Kind: KindIO, Op: "update", Err: err, retry: events.ActionRetryAttempt}
		err = ue
	}
	o.log.Error("update failed", "op", ue.Op, "kind", ue.Kind, "error", ue.Err)
	o.prompt(promptMessage(ue), "Retry", ue.retry)
	return StateFailed, err
}

func (o *Orchestrator) prompt(msg, label string, a events.Action) {
	o.mu.Lock()
	o.pending = a
	o.mu.Unlock()
	events.Publish(o.cfg.Bus, events.UserPrompt, events.Prompt{Message: msg, Label: label, Action: a})
}

func promptMessage(e *Error) string {
	switch e.Kind {
	case KindNetwork, KindParse:
		if e.retry == events.ActionRetryDownload {
			return "Downloading content failed. Please check your network connection."
		}
		return "Could not get version information. Please check your network connection."
	default:
		return "Local content could not be updated. Please try again."
	}
}

func (o *Orchestrator) failure(kind Kind, op string, retry events.Action, err error) (State, error) {
	return StateFailed, &Error{Kind: kind, Op: op, Err: err, retry: retry}
}

// localVersion is the version major checks compare against.
func (o *Orchestrator) localVersion() (manifest.Version, bool) {
	if !o.cfg.ClientVersion.IsZero() {
		return o.cfg.ClientVersion, true
	}
	if o.local != nil {
		return o.local.Version, true
	}
	return manifest.Version{}, false
}
