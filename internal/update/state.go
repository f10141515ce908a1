// SPDX-License-Identifier: MPL-2.0

package update

import "fmt"

// State is a step of the update flow.
type State uint8

const (
	StateIdle State = iota
	StateBootstrapping
	StateExtracting
	StateFetchingManifest
	StateMajorUpgradeRequired
	StateDiffing
	StateDownloading
	StateVerifying
	StateRepairing
	StateReady
	StateFailed
	StateReinstallRequired
)

var stateNames = [...]string{
	StateIdle:                 "Idle",
	StateBootstrapping:        "Bootstrapping",
	StateExtracting:           "Extracting",
	StateFetchingManifest:     "FetchingManifest",
	StateMajorUpgradeRequired: "MajorUpgradeRequired",
	StateDiffing:              "Diffing",
	StateDownloading:          "Downloading",
	StateVerifying:            "Verifying",
	StateRepairing:            "Repairing",
	StateReady:                "Ready",
	StateFailed:               "Failed",
	StateReinstallRequired:    "ReinstallRequired",
}

var stateMessages = [...]string{
	StateBootstrapping:        "Checking local content",
	StateExtracting:           "Extracting bundled content",
	StateFetchingManifest:     "Checking for updates",
	StateMajorUpgradeRequired: "A new client version is required",
	StateDiffing:              "Comparing content",
	StateDownloading:          "Downloading content",
	StateVerifying:            "Verifying content",
	StateRepairing:            "Repairing content",
	StateReady:                "Entering game",
	StateFailed:               "Update failed",
	StateReinstallRequired:    "Reinstall required",
}

func (s State) String() string {
	if int(s) < len(stateNames) && stateNames[s] != "" {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

// Message is the user-facing status line for s.
func (s State) Message() string {
	if int(s) < len(stateMessages) {
		return stateMessages[s]
	}
	return ""
}

// Settled reports whether the flow stops in s until the caller acts.
func (s State) Settled() bool {
	switch s {
	case StateIdle, StateReady, StateFailed, StateMajorUpgradeRequired, StateReinstallRequired:
		return true
	default:
		return false
	}
}
