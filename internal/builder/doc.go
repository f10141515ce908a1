// SPDX-License-Identifier: MPL-2.0

// Package builder turns a resource tree into a shippable release.
//
// A build walks the resource root breadth-first and groups files by
// directory. Each directory with at least one eligible file becomes one
// artifact, unless it sits at or below a directory listed in the combine
// config, in which case its files join the artifact of that listed
// directory. Artifact names are the digest of the group's path plus
// ".assetbundle", so a directory keeps its artifact name across builds.
//
// Every file gets an addressable name: its path relative to the resource
// root with the extension removed. The name to artifact mapping is packaged
// as its own artifact, "index". Files directly in the resource root are not
// packaged.
//
// An artifact depends on every other artifact whose assets it mentions,
// either by addressable name or by resource-relative path, anywhere in the
// first 8 MiB of one of its files.
//
// After packaging, the release is assembled in <output>/Bundles: artifacts,
// the dependency graph artifact, and version.json. Packager side files
// (*.manifest) move to the manifest archive directory. The release can be
// copied into ship storage, and finally moves to <output>/<version>/Bundles.
package builder
