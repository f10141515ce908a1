// SPDX-License-Identifier: MPL-2.0

// Package store manages the writable install directory on the device.
//
// Layout under the writable root:
//
//	Bundles/             installed artifacts, one file per manifest entry
//	Bundles/version.json the adopted manifest
//	.incoming/           downloads staged until the whole release arrives
//
// Manifest entries name artifacts relative to the root ("Bundles/<file>"), so
// the same names address files in the writable root, the read-only ship
// storage, and the remote origin. Writes go through a temp file in the target
// directory followed by a rename, so an interrupted write never leaves a
// partial file under an artifact's name.
package store
