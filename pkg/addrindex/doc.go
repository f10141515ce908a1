// SPDX-License-Identifier: MPL-2.0

// Package addrindex maps addressable asset names to the artifact that carries
// them, and records which artifacts each artifact depends on.
//
// The index is built once at packaging time and shipped as its own artifact.
// Its text form is one "addressable:artifact" pair per line. The dependency
// graph uses "artifact:dep1,dep2" lines.
package addrindex
