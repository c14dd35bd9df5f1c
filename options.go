// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tagq

// Ring is the common blocking/non-blocking FIFO surface shared by Queue
// and SPSC, letting Build select between them without the caller having
// to know which algorithm it got.
type Ring[T any] interface {
	Push(v T)
	TryPush(v T) error
	Pop() T
	TryPop() (T, error)
	Size() int
	Cap() int
	Drain()
}

// Options configures queue creation and algorithm selection.
type Options struct {
	singleProducer bool
	singleConsumer bool
	capacity       int
}

// Builder creates queues with fluent configuration.
//
// Example:
//
//	// SPSC queue (optimal for single producer/consumer)
//	q := tagq.Build[Event](tagq.NewBuilder(1024).SingleProducer().SingleConsumer())
//
//	// MPMC queue (default, general purpose)
//	q := tagq.Build[Request](tagq.NewBuilder(4096))
type Builder struct {
	opts Options
}

// NewBuilder creates a queue builder with the given capacity.
//
// Capacity rounds up to the next power of 2. Panics if capacity < 2.
func NewBuilder(capacity int) *Builder {
	if capacity < 2 {
		panic("tagq: capacity must be >= 2")
	}
	return &Builder{opts: Options{capacity: capacity}}
}

// SingleProducer declares that only one goroutine will push.
func (b *Builder) SingleProducer() *Builder {
	b.opts.singleProducer = true
	return b
}

// SingleConsumer declares that only one goroutine will pop.
func (b *Builder) SingleConsumer() *Builder {
	b.opts.singleConsumer = true
	return b
}

// Build creates a Ring[T] with automatic algorithm selection.
//
// SingleProducer().SingleConsumer() selects SPSC (Lamport ring buffer,
// no CAS on either reservation counter). Any other combination selects
// Queue, the tag-paired MPMC ring — it's also correct, if less
// specialized, for the SPSC, MPSC, and SPMC cases.
func Build[T any](b *Builder) Ring[T] {
	if b.opts.singleProducer && b.opts.singleConsumer {
		return NewSPSC[T](b.opts.capacity)
	}
	return New[T](b.opts.capacity)
}
