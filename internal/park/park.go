// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package park provides a per-address, multi-waiter blocking primitive.
//
// It realizes the "install a waiting marker, then sleep until the
// counterpart wakes every waiter" protocol that a futex gives a systems
// program, without requiring a raw address into an opaque atomic word:
// Gate is itself the addressable thing. Wake is a broadcast — every
// goroutine parked in Wait returns, mirroring futex's wake-all semantics.
// Spurious wakeups are allowed by the contract; callers already retry in
// a loop that re-checks its own condition (see the slot protocol in the
// parent package), so Gate never tries to prevent them.
package park

import "sync/atomic"

// Gate is a single wake-all park point. The zero value is ready to use.
type Gate struct {
	ch atomic.Pointer[chan struct{}]
}

// Arm installs a waiting channel if none is currently installed and
// returns it. Callers that need to avoid missing a Wake racing with
// their own condition check must call Arm before re-checking the
// condition, then WaitOn the returned channel: any Wake from that point
// on is guaranteed to close the channel they are about to block on.
func (g *Gate) Arm() <-chan struct{} {
	ch := g.ch.Load()
	if ch == nil {
		fresh := make(chan struct{})
		if g.ch.CompareAndSwap(nil, &fresh) {
			ch = &fresh
		} else {
			ch = g.ch.Load()
		}
	}
	if ch == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return *ch
}

// WaitOn blocks until ch is closed. Pair with Arm to avoid races between
// the condition check and the park.
func (g *Gate) WaitOn(ch <-chan struct{}) {
	<-ch
}

// Wait blocks the calling goroutine until the next Wake call observes a
// waiter installed by this or an earlier Wait. It may also return
// spuriously; callers must re-check their own condition after it returns.
//
// Wait alone does not protect against missing a Wake that races with the
// caller's own condition check — use Arm/WaitOn around the check instead
// when that matters (Queue's slot protocol and SPSC's Push/Pop both do).
func (g *Gate) Wait() {
	g.WaitOn(g.Arm())
}

// Wake releases every goroutine currently parked in Wait on this Gate.
// It is a no-op if nobody is waiting.
func (g *Gate) Wake() {
	ch := g.ch.Swap(nil)
	if ch != nil {
		close(*ch)
	}
}
