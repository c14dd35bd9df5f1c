// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package tagq provides bounded, lock-free FIFO queues built on a
// tag-pairing slot protocol.
//
// Each slot holds a value and a 64-bit tag packed into a single 128-bit
// atomic cell, so a claimant learns from one atomic load whether the
// slot is ready for it — no torn read between "whose turn is it" and
// "what's the data" is possible. Producers and consumers each hold a
// reservation counter (head for consumers, tail for producers); a
// caller's ticket is valid the instant its counter advances, and the
// slot protocol guarantees that ticket eventually becomes ready.
//
// Two variants are provided:
//
//   - Queue[T]: multi-producer/multi-consumer, reservation via
//     fetch-add (Push/Pop) or CAS retry with a bound (TryPush/TryPop).
//   - SPSC[T]: single-producer/single-consumer, a Lamport ring with
//     cached indices and no CAS on either side.
//
// Build[T] auto-selects between them from a Builder's constraints.
//
// # Quick Start
//
// Direct constructors (recommended for most cases):
//
//	q := tagq.New[int](1024)                // MPMC
//	s := tagq.NewSPSC[Event](1024)           // SPSC
//
// Builder API:
//
//	q := tagq.Build[Event](tagq.NewBuilder(1024).SingleProducer().SingleConsumer())  // → SPSC
//	q := tagq.Build[Event](tagq.NewBuilder(1024))                                    // → Queue (MPMC)
//
// # Basic Usage
//
// Non-blocking operations return [ErrWouldBlock] rather than failing
// outright; treat it as a control-flow signal, not an error to surface.
//
//	q := tagq.New[int](16)
//
//	if err := q.TryPush(42); err != nil {
//	    // queue is full
//	}
//
//	v, err := q.TryPop()
//	if err != nil {
//	    // queue is empty
//	}
//
// Blocking operations park the calling goroutine instead of returning
// ErrWouldBlock, waking when the slot they're waiting on changes hands:
//
//	q.Push(42) // blocks while full
//	v := q.Pop() // blocks while empty
//
// # Element Constraint
//
// Queue[T] packs the value into the high 64 bits of the slot's atomic
// cell alongside the tag, so T must satisfy unsafe.Sizeof(T) <= 8; New
// panics otherwise. SPSC[T] stores T directly in a plain slice and has
// no such limit.
//
// # Common Patterns
//
// Pipeline stage (SPSC):
//
//	s := tagq.NewSPSC[Data](1024)
//
//	go func() { // producer
//	    for data := range input {
//	        s.Push(data)
//	    }
//	}()
//
//	go func() { // consumer
//	    for {
//	        process(s.Pop())
//	    }
//	}()
//
// Worker pool (MPMC):
//
//	q := tagq.New[Request](4096)
//
//	for range workers {
//	    go func() {
//	        for {
//	            process(q.Pop())
//	        }
//	    }()
//	}
//
//	for req := range incoming {
//	    q.Push(req)
//	}
//
// # Race Detector
//
// [RaceEnabled] reports whether the race detector is active, for stress
// tests that need to scale down iteration counts or skip cases where the
// detector's own bookkeeping changes timing enough to mask the race being
// tested.
package tagq
