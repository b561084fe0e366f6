package tether

import "sync"

// DispatchQueue is an unbounded FIFO of deferred actions. Any goroutine may
// enqueue; exactly one consumer context (the thread that owns scene state)
// drains. The queue exists to convert "must happen on the scene thread" into
// a safe handoff point reachable from network callbacks, timers, and
// background workers.
//
// Insertion order is execution order. An action dequeued by DrainOne runs to
// completion before the next action is dequeued; actions enqueued by a
// running action are picked up by later DrainOne calls, never the same call.
type DispatchQueue struct {
	mu      sync.Mutex
	actions []func()
}

// Main is the process-wide dispatch queue. It is constructed once at startup
// and never torn down. Components should prefer an injected *DispatchQueue
// over reaching for Main directly; Main exists for programs that have exactly
// one scene thread and no appetite for plumbing.
var Main = NewDispatchQueue()

// NewDispatchQueue creates an empty dispatch queue.
func NewDispatchQueue() *DispatchQueue {
	return &DispatchQueue{}
}

// Enqueue appends fn to the tail of the queue. Safe to call concurrently from
// any goroutine. Never blocks beyond the internal mutex and never fails.
// A nil fn is ignored.
func (q *DispatchQueue) Enqueue(fn func()) {
	if fn == nil {
		return
	}
	q.mu.Lock()
	q.actions = append(q.actions, fn)
	q.mu.Unlock()
}

// Len returns the current number of pending actions. Diagnostic only; the
// value may be stale by the time the caller looks at it.
func (q *DispatchQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.actions)
}

// DrainOne removes and runs exactly one pending action, reporting whether one
// ran. Call it once per tick from the single consumer context; draining one
// action per tick bounds per-frame latency.
//
// A panic inside the action is recovered and logged so that subsequently
// queued actions still run. The queue does not otherwise interpret errors;
// actions are expected to handle their own failures at the boundary of the
// flow that produced them.
func (q *DispatchQueue) DrainOne() (ran bool) {
	q.mu.Lock()
	if len(q.actions) == 0 {
		q.mu.Unlock()
		return false
	}
	fn := q.actions[0]
	copy(q.actions, q.actions[1:])
	q.actions[len(q.actions)-1] = nil
	q.actions = q.actions[:len(q.actions)-1]
	q.mu.Unlock()

	ran = true
	defer func() {
		if r := recover(); r != nil {
			errorf("panic in queued action: %v", r)
		}
	}()
	fn()
	return ran
}
