// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pipe

import (
	"time"

	"github.com/agilira/go-timecache"
)

// clock is a process-wide millisecond-resolution time source shared by every
// Channel. Write, Flush and AdvanceTo record timestamps far more often than
// the wall clock actually changes, so reading a cached value avoids a
// syscall on every one of those calls.
var clock = timecache.NewWithResolution(time.Millisecond)

// Stats is a point-in-time diagnostic snapshot of a Channel. The core
// package never logs (see SPEC_FULL.md §7); Stats exists so a caller such as
// pipe/adapter or cmd/pipedemo can log or export these numbers on its own
// terms.
type Stats struct {
	LastWriteAt time.Time
	LastFlushAt time.Time
	LastReadAt  time.Time

	// WrittenBytes is the cumulative length of every Write call.
	WrittenBytes int64
	// ConsumedBytes is the cumulative distance every AdvanceTo has moved
	// the consumed cursor forward.
	ConsumedBytes int64
}

// Stats returns a snapshot of the channel's diagnostic counters.
func (c *Channel) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}
