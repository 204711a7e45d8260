package core

import (
	"context"
	"sync/atomic"
)

// DefaultQueueSize is the event queue capacity used when none is configured
const DefaultQueueSize = 16

// EventQueue is a fixed capacity ring of events.
//
// Push may be called from interrupt context. Dequeue, Await and Dispatch are
// for the normal context only. Index updates happen inside the interrupt
// guard so an interrupt pushing mid-dequeue cannot corrupt the ring.
type EventQueue struct {
	buf   []Event
	mask  uint16
	head  uint16 // next read position
	tail  uint16 // next write position
	count uint16

	dropped atomic.Uint32

	// wake is signalled by every push and tick, modelling a CPU that sleeps
	// until the next interrupt
	wake chan struct{}

	trace *Trace
}

// NewEventQueue creates a queue holding at least capacity events. The
// capacity is rounded up to a power of two.
func NewEventQueue(capacity int) *EventQueue {
	if capacity <= 0 {
		capacity = DefaultQueueSize
	}
	size := 1
	for size < capacity && size < 1<<15 {
		size <<= 1
	}
	return &EventQueue{
		buf:  make([]Event, size),
		mask: uint16(size - 1),
		wake: make(chan struct{}, 1),
	}
}

// Capacity returns the number of events the queue can hold
func (q *EventQueue) Capacity() int {
	return len(q.buf)
}

// Push enqueues an event. It returns false, and leaves the queue untouched,
// when the queue is full.
func (q *EventQueue) Push(kind uint8, target Handler, value uint16) bool {
	state := disableInterrupts()
	if int(q.count) == len(q.buf) {
		restoreInterrupts(state)
		q.dropped.Add(1)
		q.trace.Record(TraceDrop, kind, uint32(value), 0)
		log().Debug().
			Str("kind", KindName(kind)).
			Int("value", int(value)).
			Log("event queue full, dropped event")
		return false
	}
	q.buf[q.tail] = Event{Kind: kind, Target: target, Value: value}
	q.tail = (q.tail + 1) & q.mask
	q.count++
	restoreInterrupts(state)

	q.trace.Record(TracePush, kind, uint32(value), 0)
	q.Wake()
	return true
}

// Dequeue removes the oldest event
func (q *EventQueue) Dequeue() (Event, bool) {
	state := disableInterrupts()
	defer restoreInterrupts(state)
	if q.count == 0 {
		return Event{}, false
	}
	ev := q.buf[q.head]
	q.buf[q.head] = Event{}
	q.head = (q.head + 1) & q.mask
	q.count--
	return ev, true
}

// Available returns the number of queued events
func (q *EventQueue) Available() int {
	state := disableInterrupts()
	defer restoreInterrupts(state)
	return int(q.count)
}

// Dropped returns the number of events lost to a full queue
func (q *EventQueue) Dropped() uint32 {
	return q.dropped.Load()
}

// Wake signals a goroutine sleeping in Await. It never blocks.
func (q *EventQueue) Wake() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// yield sleeps until the next push or tick
func (q *EventQueue) yield() {
	<-q.wake
}

// Await blocks until an event is available and returns it. Called from
// interrupt context it cannot wait for anything and returns a null event.
func (q *EventQueue) Await() Event {
	if inInterrupt() {
		log().Warning().Log("event queue await from interrupt context")
		return Event{}
	}
	for {
		if ev, ok := q.Dequeue(); ok {
			return ev
		}
		q.yield()
	}
}

// AwaitContext is Await that gives up when ctx is done
func (q *EventQueue) AwaitContext(ctx context.Context) (Event, error) {
	if inInterrupt() {
		log().Warning().Log("event queue await from interrupt context")
		return Event{}, ErrInterruptContext
	}
	for {
		if ev, ok := q.Dequeue(); ok {
			return ev, nil
		}
		select {
		case <-q.wake:
		case <-ctx.Done():
			return Event{}, ctx.Err()
		}
	}
}

// Dispatch delivers the event to its target
func (q *EventQueue) Dispatch(ev Event) {
	if ev.Target == nil {
		return
	}
	ev.Target.OnEvent(ev.Kind, ev.Value)
}

// Service dequeues and dispatches up to max events, or the events queued at
// the time of the call when max <= 0, and returns the number dispatched.
func (q *EventQueue) Service(max int) int {
	if max <= 0 {
		max = q.Available()
	}
	n := 0
	for n < max {
		ev, ok := q.Dequeue()
		if !ok {
			break
		}
		q.Dispatch(ev)
		n++
	}
	return n
}
