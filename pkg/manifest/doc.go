// SPDX-License-Identifier: MPL-2.0

// Package manifest defines the release manifest: the versioned list of
// artifacts that make up one content release, and its JSON encoding.
//
// Wire format:
//
//	{
//	  "version": "1.0.2",
//	  "asset_date": "202401311530",
//	  "bundles": [
//	    {"bundle_name": "Bundles/index", "md5": "…", "size": 1024}
//	  ]
//	}
//
// A manifest is never edited in place. A newer release replaces the adopted
// manifest as a whole.
package manifest
