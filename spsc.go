// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tagq

import (
	"code.hybscloud.com/atomix"

	"code.nyxmere.dev/tagq/internal/park"
)

// SPSC is a single-producer single-consumer bounded queue.
//
// Based on Lamport's ring buffer with cached index optimization: the
// producer caches its last observation of the consumer's head, and vice
// versa, so the common case touches no cross-core state beyond the one
// index each side owns. Because each side has exactly one writer, no CAS
// or tag pairing is needed to claim a slot — the tag-pairing protocol in
// Queue exists to resolve races between many reservation holders, and
// there are none here.
//
// notFull and notEmpty give SPSC the same blocking Push/Pop surface as
// Queue, built on the same park.Gate primitive.
type SPSC[T any] struct {
	_          pad
	head       atomix.Uint64 // consumer-owned
	_          pad
	cachedTail uint64    // consumer's cached view of tail
	notFull    park.Gate // producer parks here when full
	_          pad
	tail       atomix.Uint64 // producer-owned
	_          pad
	cachedHead uint64    // producer's cached view of head
	notEmpty   park.Gate // consumer parks here when empty
	_          pad
	buffer     []T
	mask       uint64
}

// NewSPSC creates an SPSC queue of the given capacity, rounded up to the
// next power of two. Panics if capacity < 2.
func NewSPSC[T any](capacity int) *SPSC[T] {
	if capacity < 2 {
		panic("tagq: capacity must be >= 2")
	}
	n := roundToPow2(capacity)
	return &SPSC[T]{
		buffer: make([]T, n),
		mask:   n - 1,
	}
}

// Cap returns the queue's capacity, a constant power of two.
func (q *SPSC[T]) Cap() int { return int(q.mask + 1) }

// Size returns an approximate count of elements currently enqueued. head is
// read before tail, matching Queue.Size, so a concurrent push-then-pop
// between the two reads can only overcount, never wrap negative.
func (q *SPSC[T]) Size() int {
	head := q.head.LoadAcquire()
	tail := q.tail.LoadAcquire()
	return int(tail - head)
}

// TryPush adds an element without blocking (producer goroutine only).
// Returns ErrWouldBlock if the queue is full.
func (q *SPSC[T]) TryPush(v T) error {
	tail := q.tail.LoadRelaxed()
	if tail-q.cachedHead > q.mask {
		q.cachedHead = q.head.LoadAcquire()
		if tail-q.cachedHead > q.mask {
			return ErrWouldBlock
		}
	}
	q.buffer[tail&q.mask] = v
	q.tail.StoreRelease(tail + 1)
	q.notEmpty.Wake()
	return nil
}

// Push adds an element, blocking while the queue is full (producer
// goroutine only).
func (q *SPSC[T]) Push(v T) {
	for {
		ch := q.notFull.Arm()
		if err := q.TryPush(v); err == nil {
			return
		}
		q.notFull.WaitOn(ch)
	}
}

// TryPop removes and returns an element without blocking (consumer
// goroutine only). Returns (zero-value, ErrWouldBlock) if empty.
func (q *SPSC[T]) TryPop() (T, error) {
	head := q.head.LoadRelaxed()
	if head >= q.cachedTail {
		q.cachedTail = q.tail.LoadAcquire()
		if head >= q.cachedTail {
			var zero T
			return zero, ErrWouldBlock
		}
	}
	elem := q.buffer[head&q.mask]
	var zero T
	q.buffer[head&q.mask] = zero
	q.head.StoreRelease(head + 1)
	q.notFull.Wake()
	return elem, nil
}

// Pop removes and returns an element, blocking while the queue is empty
// (consumer goroutine only).
func (q *SPSC[T]) Pop() T {
	for {
		ch := q.notEmpty.Arm()
		v, err := q.TryPop()
		if err == nil {
			return v
		}
		q.notEmpty.WaitOn(ch)
	}
}

// Drain repeatedly TryPops until the queue reports empty, discarding the
// results. Not a shutdown signal; see Queue.Drain.
func (q *SPSC[T]) Drain() {
	for {
		if _, err := q.TryPop(); err != nil {
			return
		}
	}
}
