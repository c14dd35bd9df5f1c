// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tagq

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// pad is cache line padding to prevent false sharing, matching the
// teacher's destructive-interference-sized layout.
type pad [64]byte

// reservationCounter is one of head or tail: a plain 64-bit sequence
// counter with no role or waiting bits. Flags are only ever applied after
// a ticket has been reserved, when it is turned into a producer or
// consumer tag — see spec §9 note 2.
type reservationCounter struct {
	v atomix.Uint64
}

// reserve unconditionally advances the counter and returns the
// pre-increment value: the ticket this caller now owns. Used by the
// blocking Push/Pop; it never fails.
func (c *reservationCounter) reserve() uint64 {
	return c.v.AddAcqRel(1) - 1
}

// tryReserve advances the counter only if the resulting ticket would not
// exceed limit (inclusive), returning (ticket, true) on success or
// (0, false) if the counter is already past limit.
func (c *reservationCounter) tryReserve(limit uint64) (uint64, bool) {
	sw := spin.Wait{}
	for {
		current := c.v.LoadAcquire()
		if current > limit {
			return 0, false
		}
		if c.v.CompareAndSwapAcqRel(current, current+1) {
			return current, true
		}
		sw.Once()
	}
}

// load reads the counter's current value with acquire ordering, used by
// the opposite side to compute its own try-reserve limit.
func (c *reservationCounter) load() uint64 {
	return c.v.LoadAcquire()
}

// init sets the counter's starting value. Called once at queue
// construction, before any concurrent access begins.
func (c *reservationCounter) init(v uint64) {
	c.v.StoreRelaxed(v)
}
