// SPDX-License-Identifier: MPL-2.0

// Package update brings the device's installed content in line with the
// remote release.
//
// An attempt moves through these states:
//
//	Bootstrapping -> [Extracting] -> FetchingManifest -> Diffing -> Downloading -> Verifying -> Ready
//	                                        |                                          |
//	                                        +-> MajorUpgradeRequired                   +-> Repairing -> FetchingManifest (force)
//
// Network failures stop in Failed with a prompt; nothing is retried until
// the caller responds with the prompt's action. A verification failure is
// repaired once by wiping local content and downloading the full release; a
// second failure ends in ReinstallRequired.
//
// Downloads are staged and committed together with the new manifest, so an
// interrupted attempt leaves the previously adopted release untouched.
package update
