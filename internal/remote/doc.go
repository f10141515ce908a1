// SPDX-License-Identifier: MPL-2.0

// Package remote fetches release manifests and artifacts from a CDN-style
// HTTP origin laid out as:
//
//	{origin}/{channel}/version.json
//	{origin}/{channel}/{version}/{bundle_name}
//
// The client never retries on its own; retry is the caller's decision.
package remote
