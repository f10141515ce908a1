// SPDX-License-Identifier: MPL-2.0

// Package cueutil decodes CUE (and therefore JSON) documents against an
// embedded schema.
//
// Every document assetsync reads from users goes through the same flow:
//
//  1. Compile the embedded schema
//  2. Compile the document and unify it with a schema definition
//  3. Validate and decode into a Go struct
//
// # Usage
//
//	//go:embed combine_schema.cue
//	var combineSchema []byte
//
//	res, err := cueutil.ParseAndDecode[CombineConfig](
//	    combineSchema, data, "#CombineConfig",
//	    cueutil.WithFilename("BundleCombineConfig.json"),
//	)
//
// Errors carry the offending field in JSON-path notation, e.g.
// "BundleCombineConfig.json: combieDirs[1]: invalid value".
package cueutil
