package tether

import (
	"sync"
	"testing"
)

func TestDrainOneEmpty(t *testing.T) {
	q := NewDispatchQueue()
	if q.DrainOne() {
		t.Error("DrainOne on an empty queue should report false")
	}
	if q.Len() != 0 {
		t.Errorf("expected empty queue, got %d", q.Len())
	}
}

func TestFIFOOrder(t *testing.T) {
	q := NewDispatchQueue()
	var got []int
	for i := 0; i < 10; i++ {
		i := i
		q.Enqueue(func() { got = append(got, i) })
	}
	for q.DrainOne() {
	}
	if len(got) != 10 {
		t.Fatalf("expected 10 executed actions, got %d", len(got))
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("action %d ran out of order (got %d)", i, v)
		}
	}
}

// Concurrent producers must never observe reordering across their own
// enqueues, even under contention.
func TestConcurrentProducersKeepPerProducerOrder(t *testing.T) {
	const producers = 8
	const perProducer = 200

	q := NewDispatchQueue()
	type item struct{ producer, seq int }
	var executed []item

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		p := p
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				i := i
				q.Enqueue(func() { executed = append(executed, item{p, i}) })
			}
		}()
	}
	wg.Wait()

	// Single consumer drains everything.
	count := 0
	for q.DrainOne() {
		count++
	}
	if count != producers*perProducer {
		t.Fatalf("expected %d actions, ran %d", producers*perProducer, count)
	}

	next := make([]int, producers)
	for _, it := range executed {
		if it.seq != next[it.producer] {
			t.Fatalf("producer %d reordered: expected seq %d, got %d",
				it.producer, next[it.producer], it.seq)
		}
		next[it.producer]++
	}
}

func TestActionEnqueuedDuringDrainRunsOnLaterCall(t *testing.T) {
	q := NewDispatchQueue()
	nestedRan := false
	q.Enqueue(func() {
		q.Enqueue(func() { nestedRan = true })
	})

	if !q.DrainOne() {
		t.Fatal("expected first action to run")
	}
	if nestedRan {
		t.Fatal("nested action must not run within the same DrainOne call")
	}
	if !q.DrainOne() {
		t.Fatal("expected nested action to run on the next call")
	}
	if !nestedRan {
		t.Error("nested action did not run")
	}
}

func TestPanickingActionDoesNotLoseLaterActions(t *testing.T) {
	q := NewDispatchQueue()
	ran := false
	q.Enqueue(func() { panic("boom") })
	q.Enqueue(func() { ran = true })

	if !q.DrainOne() {
		t.Fatal("panicking action should still count as executed")
	}
	if !q.DrainOne() {
		t.Fatal("expected second action to run")
	}
	if !ran {
		t.Error("action queued after a panicking one was lost")
	}
}

func TestEnqueueNilIgnored(t *testing.T) {
	q := NewDispatchQueue()
	q.Enqueue(nil)
	if q.Len() != 0 {
		t.Errorf("nil action should be ignored, queue has %d", q.Len())
	}
}

func TestMainQueueExists(t *testing.T) {
	if Main == nil {
		t.Fatal("Main dispatch queue should be constructed at init")
	}
}
