// SPDX-License-Identifier: MPL-2.0

// Package events is the typed signal bus between the update flow and the rest
// of the application.
//
// Each topic is a Topic[T] value bound to one ID and one payload type, so a
// subscriber for DownloadProgress can only ever receive a Progress. Handlers
// run synchronously on the publishing goroutine, in subscription order.
package events
