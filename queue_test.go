// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tagq_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"code.nyxmere.dev/tagq"
)

func TestQueueBasic(t *testing.T) {
	q := tagq.New[int](3)

	if q.Cap() != 4 {
		t.Fatalf("Cap: got %d, want 4", q.Cap())
	}

	for i := range 4 {
		if err := q.TryPush(i + 100); err != nil {
			t.Fatalf("TryPush(%d): %v", i, err)
		}
	}

	if err := q.TryPush(999); !errors.Is(err, tagq.ErrWouldBlock) {
		t.Fatalf("TryPush on full: got %v, want ErrWouldBlock", err)
	}

	for i := range 4 {
		v, err := q.TryPop()
		if err != nil {
			t.Fatalf("TryPop(%d): %v", i, err)
		}
		if v != i+100 {
			t.Fatalf("TryPop(%d): got %d, want %d", i, v, i+100)
		}
	}

	if _, err := q.TryPop(); !errors.Is(err, tagq.ErrWouldBlock) {
		t.Fatalf("TryPop on empty: got %v, want ErrWouldBlock", err)
	}
}

func TestQueueSize(t *testing.T) {
	q := tagq.New[int](8)
	if got := q.Size(); got != 0 {
		t.Fatalf("Size on empty: got %d, want 0", got)
	}
	for i := range 3 {
		_ = q.TryPush(i)
	}
	if got := q.Size(); got != 3 {
		t.Fatalf("Size after 3 pushes: got %d, want 3", got)
	}
}

func TestQueueCapacityRoundsUp(t *testing.T) {
	q := tagq.New[int](5)
	if q.Cap() != 8 {
		t.Fatalf("Cap: got %d, want 8", q.Cap())
	}
}

func TestQueuePanicsOnSmallCapacity(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("New(1) should panic")
		}
	}()
	tagq.New[int](1)
}

func TestQueuePanicsOnOversizedElement(t *testing.T) {
	type big struct{ a, b int64 }
	defer func() {
		if recover() == nil {
			t.Fatal("New[big] should panic: big is 16 bytes")
		}
	}()
	tagq.New[big](8)
}

func TestQueueDrain(t *testing.T) {
	q := tagq.New[int](8)
	for i := range 5 {
		_ = q.TryPush(i)
	}
	q.Drain()
	if _, err := q.TryPop(); !errors.Is(err, tagq.ErrWouldBlock) {
		t.Fatal("queue should be empty after Drain")
	}
}

// TestQueueBlockingPingPong exercises the wake-up path: a consumer parks
// on an empty queue and must be woken once a producer pushes.
func TestQueueBlockingPingPong(t *testing.T) {
	q := tagq.New[int](2)
	done := make(chan int, 1)

	go func() {
		done <- q.Pop()
	}()

	time.Sleep(20 * time.Millisecond) // give the consumer time to park
	q.Push(7)

	select {
	case v := <-done:
		if v != 7 {
			t.Fatalf("Pop: got %d, want 7", v)
		}
	case <-time.After(time.Second):
		t.Fatal("Pop did not wake up after Push")
	}
}

// TestQueueBlockingFull exercises the producer-side wake path: a producer
// parks on a full queue and must be woken once a consumer pops.
func TestQueueBlockingFull(t *testing.T) {
	q := tagq.New[int](2)
	_ = q.TryPush(1)
	_ = q.TryPush(2)

	pushed := make(chan struct{})
	go func() {
		q.Push(3)
		close(pushed)
	}()

	time.Sleep(20 * time.Millisecond)
	if v, _ := q.TryPop(); v != 1 {
		t.Fatalf("TryPop: got %d, want 1", v)
	}

	select {
	case <-pushed:
	case <-time.After(time.Second):
		t.Fatal("blocked Push did not wake up after a slot freed")
	}

	got := make([]int, 0, 2)
	for range 2 {
		got = append(got, q.Pop())
	}
	if got[0] != 2 || got[1] != 3 {
		t.Fatalf("drain order: got %v, want [2 3]", got)
	}
}

// TestQueueBlockingTightRace drives a minimal-capacity queue with no sleep
// on either side, unlike TestQueueBlockingPingPong/TestQueueBlockingFull
// which give the parking side a 20ms head start. With capacity 2 and no
// delay, nearly every Push/Pop blocks, repeatedly landing inside the
// window between Gate.Arm and the slot's installWaiting CAS where a
// missed wakeup would deadlock the test until timeout.
func TestQueueBlockingTightRace(t *testing.T) {
	q := tagq.New[int](2)
	const n = 20000

	done := make(chan struct{})
	go func() {
		for i := range n {
			q.Push(i)
		}
		close(done)
	}()

	for i := range n {
		if v := q.Pop(); v != i {
			t.Fatalf("Pop(%d): got %d, want %d", i, v, i)
		}
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("producer did not finish: missed wakeup")
	}
}

// TestQueueMultiProducerMultiConsumer pushes N items from P producers and
// pops them with C consumers, checking that every item is seen exactly
// once and the total count matches.
func TestQueueMultiProducerMultiConsumer(t *testing.T) {
	const (
		producers   = 4
		consumers   = 4
		perProducer = 256
	)
	q := tagq.New[int](128)

	var wg sync.WaitGroup
	wg.Add(producers)
	for p := range producers {
		go func(base int) {
			defer wg.Done()
			for i := range perProducer {
				q.Push(base*perProducer + i)
			}
		}(p)
	}

	results := make(chan int, producers*perProducer)
	var cwg sync.WaitGroup
	cwg.Add(consumers)
	for range consumers {
		go func() {
			defer cwg.Done()
			for range (producers * perProducer) / consumers {
				results <- q.Pop()
			}
		}()
	}

	wg.Wait()
	cwg.Wait()
	close(results)

	seen := make(map[int]bool, producers*perProducer)
	count := 0
	for v := range results {
		if seen[v] {
			t.Fatalf("value %d consumed more than once", v)
		}
		seen[v] = true
		count++
	}
	if count != producers*perProducer {
		t.Fatalf("count: got %d, want %d", count, producers*perProducer)
	}
}

func TestIsWouldBlock(t *testing.T) {
	q := tagq.New[int](2)
	_ = q.TryPush(1)
	_ = q.TryPush(2)
	_, err := q.TryPop()
	if err != nil {
		t.Fatalf("TryPop: unexpected error %v", err)
	}
	_ = q.TryPush(3)
	if _, err := q.TryPop(); err != nil {
		t.Fatal(err)
	}
	if _, err := q.TryPop(); err != nil {
		t.Fatal(err)
	}
	if _, err := q.TryPop(); !tagq.IsWouldBlock(err) {
		t.Fatalf("IsWouldBlock: got false for %v", err)
	}
}
