// SPDX-License-Identifier: MPL-2.0

package update

import (
	"errors"
	"fmt"

	"github.com/assetsync/assetsync/internal/events"
)

// Kind classifies runtime failures.
type Kind uint8

const (
	// KindIO is a local disk failure. The attempt is abandoned.
	KindIO Kind = iota + 1
	// KindNetwork is a failed manifest or artifact request.
	KindNetwork
	// KindParse is an unreadable remote manifest.
	KindParse
	// KindIntegrity is a digest mismatch after content claims to be current.
	KindIntegrity
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindNetwork:
		return "network"
	case KindParse:
		return "parse"
	case KindIntegrity:
		return "integrity"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

var (
	// ErrInProgress is returned when an attempt is already running.
	ErrInProgress = errors.New("an update attempt is already in progress")

	// ErrMajorUpgradeRequired is returned when the remote release needs a
	// newer client package.
	ErrMajorUpgradeRequired = errors.New("remote release requires a new client package")

	// ErrReinstallRequired is returned when repair did not restore content.
	ErrReinstallRequired = errors.New("content is still corrupt after repair")

	// ErrUnexpectedAction is returned by Respond for an action that does not
	// match the current prompt.
	ErrUnexpectedAction = errors.New("action does not match the pending prompt")
)

// Error is a classified failure of one step.
type Error struct {
	Kind Kind
	Op   string
	Err  error

	retry events.Action
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s error: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Retry is the action that re-runs the failed step.
func (e *Error) Retry() events.Action { return e.retry }

// KindOf returns the Kind of the first *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
