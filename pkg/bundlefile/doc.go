// SPDX-License-Identifier: MPL-2.0

// Package bundlefile is the default packager: it turns build units into
// artifact files and reads them back.
//
// An artifact is a zstd-compressed tar stream whose entries are keyed by
// addressable name. Entries are sorted and carry fixed metadata, so packaging
// the same assets twice yields byte-identical artifacts and therefore the same
// digest. Next to every artifact the packager writes a ".manifest" side file
// listing its contents; side files are build records and are never shipped.
package bundlefile
