// SPDX-License-Identifier: MPL-2.0

package events

import (
	"fmt"
	"slices"
	"sync"
)

// ID enumerates the topics.
type ID uint8

const (
	// IDStateChanged fires on every update state transition.
	IDStateChanged ID = iota + 1
	// IDDownloadProgress fires after each planned artifact.
	IDDownloadProgress
	// IDPrompt asks the user to act.
	IDPrompt
	// IDUpdateComplete fires once content is verified and usable.
	IDUpdateComplete
)

// String returns the topic name.
func (id ID) String() string {
	switch id {
	case IDStateChanged:
		return "update-state-changed"
	case IDDownloadProgress:
		return "download-progress"
	case IDPrompt:
		return "user-prompt"
	case IDUpdateComplete:
		return "update-complete"
	default:
		return fmt.Sprintf("event(%d)", uint8(id))
	}
}

// Action is what a prompt's button does when pressed.
type Action uint8

const (
	// ActionNone marks a prompt with nothing to retry.
	ActionNone Action = iota
	// ActionRetryAttempt reruns the whole attempt from Bootstrapping.
	ActionRetryAttempt
	// ActionRetryFetch refetches the remote manifest.
	ActionRetryFetch
	// ActionRetryDownload resumes the interrupted download phase.
	ActionRetryDownload
	// ActionRepair wipes local content and downloads everything.
	ActionRepair
	// ActionOpenStore sends the user to get a new client package.
	ActionOpenStore
)

var actionNames = [...]string{"none", "retry-attempt", "retry-fetch", "retry-download", "repair", "open-store"}

// String returns the action's name.
func (a Action) String() string {
	if int(a) < len(actionNames) {
		return actionNames[a]
	}
	return fmt.Sprintf("action(%d)", uint8(a))
}

type (
	// StateChange reports a transition.
	StateChange struct {
		State   string
		Message string
	}

	// Progress reports cumulative bytes over the plan's total.
	Progress struct {
		Total      int64
		Downloaded int64
	}

	// Prompt asks the user to press Label to trigger Action.
	Prompt struct {
		Message string
		Label   string
		Action  Action
	}

	// Complete reports the version now in use.
	Complete struct {
		Version string
	}

	// Topic binds an ID to its payload type.
	Topic[T any] struct {
		id ID
	}
)

// Topics.
var (
	StateChanged     = Topic[StateChange]{IDStateChanged}
	DownloadProgress = Topic[Progress]{IDDownloadProgress}
	UserPrompt       = Topic[Prompt]{IDPrompt}
	UpdateComplete   = Topic[Complete]{IDUpdateComplete}
)

// ID returns the topic's identifier.
func (t Topic[T]) ID() ID { return t.id }

type (
	// Bus dispatches published payloads to subscribers. The zero value is
	// ready to use.
	Bus struct {
		mu       sync.RWMutex
		seq      uint64
		handlers map[ID][]handler
	}

	handler struct {
		seq uint64
		fn  any // func(T) for the topic's T
	}
)

// NewBus returns an empty bus.
func NewBus() *Bus { return &Bus{} }

// Subscribe registers fn for topic t and returns a function that removes it.
func Subscribe[T any](b *Bus, t Topic[T], fn func(T)) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.handlers == nil {
		b.handlers = make(map[ID][]handler)
	}
	b.seq++
	seq := b.seq
	b.handlers[t.id] = append(b.handlers[t.id], handler{seq: seq, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			b.handlers[t.id] = slices.DeleteFunc(b.handlers[t.id], func(h handler) bool { return h.seq == seq })
		})
	}
}

// Publish delivers payload to every subscriber of t. A nil bus drops it.
func Publish[T any](b *Bus, t Topic[T], payload T) {
	if b == nil {
		return
	}
	b.mu.RLock()
	hs := slices.Clone(b.handlers[t.id])
	b.mu.RUnlock()

	for _, h := range hs {
		h.fn.(func(T))(payload)
	}
}
