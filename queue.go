// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tagq

import "code.hybscloud.com/spin"

// Queue is a bounded, lock-free multi-producer/multi-consumer FIFO ring
// of tag-paired slots.
//
// Order of completion across concurrent producers (or consumers) follows
// reservation order, not call order: a producer's ticket is assigned the
// instant it advances tail, even if it then has to wait for its slot, so
// a producer that reserves earlier is guaranteed to publish under an
// earlier ticket than one that reserves later — but wall-clock
// completion order can still interleave if threads are scheduled
// unevenly. See spec §5.
//
// Elements must be trivially copyable and no larger than 8 bytes, so that
// {value, tag} fits in one 128-bit atomic cell. New panics if T is larger
// than 8 bytes; whether T is trivially copyable is not checked.
type Queue[T any] struct {
	_        pad
	tail     reservationCounter // producer side
	_        pad
	head     reservationCounter // consumer side
	_        pad
	buffer   []slot
	mask     uint64
	capacity uint64
}

// New creates a multi-producer/multi-consumer queue of the given
// capacity, rounded up to the next power of two. Panics if capacity < 2
// or if T is larger than 8 bytes.
//
// For the single-producer/single-consumer case, NewSPSC avoids the CAS
// retry loop on both reservation counters entirely; prefer it when both
// sides are known to be single-goroutine.
func New[T any](capacity int) *Queue[T] {
	if capacity < 2 {
		panic("tagq: capacity must be >= 2")
	}
	checkElemSize[T]()
	n := roundToPow2(capacity)
	q := &Queue[T]{
		buffer:   make([]slot, n),
		mask:     n - 1,
		capacity: n,
	}
	// head and tail start at N so that the first producer ticket P(N)
	// pairs with the initial consumer tag C(0) every slot is seeded with
	// below (spec §3, §9 note 3).
	q.head.init(n)
	q.tail.init(n)
	for i := uint64(0); i < n; i++ {
		q.buffer[i].init(newConsumerTag(i))
	}
	return q
}

// Cap returns the queue's capacity, a constant power of two.
func (q *Queue[T]) Cap() int { return int(q.capacity) }

// Size returns an approximate count of elements currently enqueued.
// Because head is read before tail, the result may occasionally exceed
// Cap() but is never negative; treat it as advisory only (spec §4.6).
func (q *Queue[T]) Size() int {
	head := q.head.load()
	tail := q.tail.load()
	if tail < head {
		// Consumers blocked in Pop have reserved tickets ahead of tail.
		return 0
	}
	return int(tail - head)
}

// Push blocks until a slot is reserved and written. It cannot fail: the
// caller's ticket is valid the instant tail advances, and the slot
// protocol guarantees that ticket will eventually become ready.
func (q *Queue[T]) Push(v T) {
	seq := q.tail.reserve()
	q.commitProduce(v, newProducerTag(seq))
}

// TryPush reserves and writes a slot without blocking, returning
// ErrWouldBlock if the queue is full (tail - head == capacity).
func (q *Queue[T]) TryPush(v T) error {
	head := q.head.load()
	seq, ok := q.tail.tryReserve(head + q.capacity - 1)
	if !ok {
		return ErrWouldBlock
	}
	q.commitProduce(v, newProducerTag(seq))
	return nil
}

// Pop blocks until a slot is reserved and read, returning the value
// written by its paired producer.
func (q *Queue[T]) Pop() T {
	seq := q.head.reserve()
	return q.commitConsume(newConsumerTag(seq))
}

// TryPop reserves and reads a slot without blocking, returning
// (zero-value, ErrWouldBlock) if the queue is empty (head == tail).
func (q *Queue[T]) TryPop() (T, error) {
	tail := q.tail.load()
	seq, ok := q.head.tryReserve(tail - 1)
	if !ok {
		var zero T
		return zero, ErrWouldBlock
	}
	return q.commitConsume(newConsumerTag(seq)), nil
}

// Drain repeatedly TryPops until the queue reports empty, discarding the
// results. It is a teardown convenience for callers who know no further
// Push/TryPush will occur — not a shutdown signal; concurrent producers
// racing a Drain can still leave items behind. Mirrors the destructor
// drain loop in the original C++ source this spec was distilled from.
func (q *Queue[T]) Drain() {
	for {
		if _, err := q.TryPop(); err != nil {
			return
		}
	}
}

func (q *Queue[T]) commitProduce(v T, claimed tag) {
	idx := claimed.toIndex(q.mask)
	s := &q.buffer[idx]
	observed, bits := q.awaitPairing(s, claimed)
	newBits := packValue(v)
	replaced := s.commit(observed, bits, claimed, newBits)
	if replaced.isWaiting() {
		s.wake.Wake()
	}
}

func (q *Queue[T]) commitConsume(claimed tag) T {
	idx := claimed.toIndex(q.mask)
	s := &q.buffer[idx]
	observed, bits := q.awaitPairing(s, claimed)
	value := unpackValue[T](bits)
	replaced := s.commit(observed, bits, claimed, 0)
	if replaced.isWaiting() {
		s.wake.Wake()
	}
	return value
}

// spinLimit bounds how many backoff steps awaitPairing spends spinning
// before it falls back to parking. Matches the order of magnitude the
// teacher's spin.Wait escalates over before a caller would reasonably
// give up and sleep instead.
const spinLimit = 64

// awaitPairing spins, then parks, until the slot's tag pairs with
// claimed, returning the slot's freshly observed (tag, value bits).
func (q *Queue[T]) awaitPairing(s *slot, claimed tag) (tag, uint64) {
	sw := spin.Wait{}
	for i := 0; i < spinLimit; i++ {
		observed, bits := s.load()
		if claimed.pairsWith(observed, q.capacity) {
			return observed, bits
		}
		sw.Once()
	}
	for {
		// Arm before publishing the waiting bit: installWaiting's CAS is
		// what the committer's Wake() is keyed off, and the committer can
		// act the instant that CAS is visible to it. If we installed the
		// waiting bit first and only armed afterward, a Wake() landing in
		// that gap would close no channel and this goroutine would then
		// arm a fresh one nobody will ever close.
		ch := s.wake.Arm()
		observed, bits := s.load()
		if claimed.pairsWith(observed, q.capacity) {
			return observed, bits
		}
		if !s.installWaiting(observed, bits) {
			// The cell changed underneath us — most likely our pairing
			// just arrived. Recheck instead of parking on stale state.
			continue
		}
		s.wake.WaitOn(ch)
		// Spurious wakeups are expected; loop back and re-check pairing.
	}
}
