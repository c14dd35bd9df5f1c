// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tagq

import "fmt"

// tag is the 64-bit word stored alongside every slot's value. It packs
// three fields into one word so a claimant can learn, from a single
// atomic load, whether a slot is ready for it:
//
//	bits 0..61  sequence  the ticket this slot last changed hands at
//	bit  62     waiting   a thread has published intent to sleep on this tag
//	bit  63     role      0 = producer tag, 1 = consumer tag
type tag uint64

const (
	consumerFlag tag = 1 << 63
	waitingFlag  tag = 1 << 62
	sequenceMask tag = consumerFlag | waitingFlag
)

func newProducerTag(seq uint64) tag { return tag(seq) &^ consumerFlag &^ waitingFlag }
func newConsumerTag(seq uint64) tag { return tag(seq)&^waitingFlag | consumerFlag }

// sequence returns the ticket value with the role and waiting bits masked off.
func (t tag) sequence() uint64 { return uint64(t &^ sequenceMask) }

func (t tag) isConsumer() bool { return t&consumerFlag != 0 }
func (t tag) isProducer() bool { return !t.isConsumer() }
func (t tag) isWaiting() bool  { return t&waitingFlag != 0 }

func (t tag) markWaiting() tag  { return t | waitingFlag }
func (t tag) clearWaiting() tag { return t &^ waitingFlag }

// toIndex returns this tag's slot index for a ring of the given mask.
func (t tag) toIndex(mask uint64) uint64 { return t.sequence() & mask }

// predecessor returns the tag that must be sitting in a slot for t to be
// allowed to claim it — the "whose turn was it before mine" relation.
//
// A consumer at sequence s was preceded by the producer that wrote s (the
// producer doesn't change the sequence; it only sets the role bit to
// producer). A producer at sequence s was preceded by the consumer that
// drained sequence s-wrapDelta, after which the slot became available for
// reuse wrapDelta tickets later.
func (t tag) predecessor(wrapDelta uint64) tag {
	if t.isConsumer() {
		return (t ^ consumerFlag).clearWaiting()
	}
	return (tag(t.sequence()-wrapDelta) ^ consumerFlag).clearWaiting()
}

// pairsWith reports whether observed is the slot state that makes it t's
// turn: t's predecessor, ignoring observed's waiting bit (predecessor
// itself never has the waiting bit set, so this asymmetry must be
// preserved exactly — see spec §9, "Ticket-bit overloading of the waiting
// flag").
func (t tag) pairsWith(observed tag, wrapDelta uint64) bool {
	return t.predecessor(wrapDelta) == observed.clearWaiting()
}

func (t tag) String() string {
	role := "P"
	if t.isConsumer() {
		role = "C"
	}
	if t.isWaiting() {
		role += "|W"
	}
	return fmt.Sprintf("tag<%s>{%d}", role, t.sequence())
}
