// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tagq

import (
	"unsafe"

	"code.hybscloud.com/atomix"

	"code.nyxmere.dev/tagq/internal/park"
)

// maxElemSize is the largest element this queue can hold: a tag (8 bytes)
// plus a value must fit in the slot's single 128-bit atomic cell.
const maxElemSize = 8

// slot is one cell of the ring: a 128-bit word loaded/stored/exchanged as
// a single atomic unit (lo = tag, hi = value bits), plus the wake gate a
// blocked thread parks on. Padded to a full cache line to keep adjacent
// slots from false-sharing.
type slot struct {
	cell atomix.Uint128 // lo = tag raw bits, hi = value bits
	wake park.Gate      // one atomic.Pointer[chan struct{}], 8 bytes
	_    [40]byte       // pad {cell, wake} out to a 64-byte cache line
}

func (s *slot) init(t tag) {
	s.cell.StoreRelaxed(uint64(t), 0)
}

// load reads the slot's tag and raw value bits with acquire ordering.
func (s *slot) load() (tag, uint64) {
	lo, hi := s.cell.LoadAcquire()
	return tag(lo), hi
}

// commit writes newTag/newBits if the cell still holds (oldTag, oldBits),
// retrying against freshly observed state on CAS failure. The caller
// holds a ticket that makes it the sole legitimate writer of this
// content; the only thing that can race it is a waiter CAS-installing the
// waiting bit on the same word (see installWaiting), which this loop
// simply absorbs by retrying with the fresher old value. Returns the tag
// actually overwritten, which the caller must consult for its waiting
// bit — it may differ from the oldTag passed in if a waiter raced in
// after the caller last observed the slot.
func (s *slot) commit(oldTag tag, oldBits uint64, newTag tag, newBits uint64) tag {
	for !s.cell.CompareAndSwapAcqRel(uint64(oldTag), oldBits, uint64(newTag), newBits) {
		oldTag, oldBits = s.load()
	}
	return oldTag
}

// installWaiting attempts to mark the slot's current tag as waiting,
// preserving the value half untouched, and reports whether the cell is
// now (or already was) marked waiting under the exact state the caller
// observed. A false return means the cell changed underneath the caller
// — most likely the pairing it was blocked on just arrived — and the
// caller must reload and re-check pairing rather than park.
func (s *slot) installWaiting(observed tag, bits uint64) bool {
	if observed.isWaiting() {
		return true
	}
	return s.cell.CompareAndSwapAcqRel(uint64(observed), bits, uint64(observed.markWaiting()), bits)
}

// packValue reinterprets a value of at most 8 bytes as the low bytes of a
// uint64, the same punning the teacher uses to stash a uintptr or
// unsafe.Pointer in a Uint128's hi word (mpmc_128.go), generalized here to
// any sufficiently small T.
func packValue[T any](v T) uint64 {
	var bits uint64
	*(*T)(unsafe.Pointer(&bits)) = v
	return bits
}

func unpackValue[T any](bits uint64) T {
	return *(*T)(unsafe.Pointer(&bits))
}

func checkElemSize[T any]() {
	var zero T
	if unsafe.Sizeof(zero) > maxElemSize {
		panic("tagq: element type exceeds 8 bytes")
	}
}
