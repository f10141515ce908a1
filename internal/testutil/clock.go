// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"sync"
	"time"
)

// defaultFakeTime is where a FakeClock starts when no time is given.
var defaultFakeTime = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

type (
	// Clock supplies timestamps, such as a manifest's generation date.
	Clock interface {
		Now() time.Time
	}

	// RealClock reads the system clock.
	RealClock struct{}

	// FakeClock stands still until Advance is called, so builds stamped with
	// it are byte-for-byte reproducible.
	FakeClock struct {
		mu  sync.Mutex
		now time.Time
	}
)

func (RealClock) Now() time.Time { return time.Now() }

// NewFakeClock returns a FakeClock reading start, or 2020-01-01T00:00:00Z
// when start is zero.
func NewFakeClock(start time.Time) *FakeClock {
	if start.IsZero() {
		start = defaultFakeTime
	}
	return &FakeClock{now: start}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
