// SPDX-License-Identifier: MPL-2.0

// Package digest computes the content digests recorded in release manifests.
//
// A digest is the lowercase hex MD5 of a byte sequence. The same bytes always
// produce the same digest whether they come from a file, an in-memory buffer,
// or a path string used to name a bundle. Digests are an integrity check for
// interrupted or corrupted transfers, not an authentication mechanism.
package digest
