package core

import "context"

// State is the scheduling state of a Thread
type State uint8

const (
	Initiated State = iota
	Ready
	Waiting
	Timeout
	Running
	Sleeping
	Terminated
)

func (s State) String() string {
	switch s {
	case Initiated:
		return "initiated"
	case Ready:
		return "ready"
	case Waiting:
		return "waiting"
	case Timeout:
		return "timeout"
	case Running:
		return "running"
	case Sleeping:
		return "sleeping"
	case Terminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Point is a resume label inside a thread body. Zero is the top of the body.
type Point uint16

// Body is the code of a protothread.
//
// A body never blocks. It records where to continue with one of the Thread
// helpers and returns; the next call continues from Resume(). Values that must
// survive a suspension live in the body's own fields, not in locals.
type Body interface {
	Run(t *Thread, kind uint8, value uint16)
}

// BodyFunc adapts a function to the Body interface
type BodyFunc func(t *Thread, kind uint8, value uint16)

// Run calls f(t, kind, value)
func (f BodyFunc) Run(t *Thread, kind uint8, value uint16) {
	f(t, kind, value)
}

// Thread is a stackless cooperative unit scheduled by a Scheduler
type Thread struct {
	Link
	id    uint8
	state State
	ip    Point
	body  Body
	sched *Scheduler
}

// NewThread creates an initiated thread running body on s
func NewThread(s *Scheduler, body Body) *Thread {
	t := &Thread{
		id:    s.nextID(),
		body:  body,
		sched: s,
	}
	t.Bind(t)
	return t
}

// ID returns the scheduler assigned thread number
func (t *Thread) ID() uint8 {
	return t.id
}

// State returns the current scheduling state
func (t *Thread) State() State {
	return t.state
}

func (t *Thread) setState(next State) {
	if t.state == next {
		return
	}
	t.sched.trace.Record(TraceState, uint8(next), uint32(t.state), uint32(t.id))
	t.state = next
}

// Begin puts an initiated or terminated thread on the run queue, starting
// from the top of its body. It returns false in any other state.
func (t *Thread) Begin() bool {
	if t.state != Initiated && t.state != Terminated {
		return false
	}
	t.ip = 0
	t.sched.schedule(t)
	return true
}

// End terminates the thread and removes it from every queue. Ending a
// terminated thread does nothing.
func (t *Thread) End() {
	if t.state == Terminated {
		return
	}
	t.Detach()
	t.ip = 0
	t.setState(Terminated)
}

// SetTimer moves the thread from the run queue to the watchdog for ms
// milliseconds. The body runs with a TimeoutType event at the next boundary
// of the timer level, which is early when the timer was set partway through
// the level period.
func (t *Thread) SetTimer(ms uint32) {
	t.setState(Waiting)
	t.sched.watchdog.Attach(&t.Link, ms)
}

// CancelTimer removes a waiting thread from the watchdog and puts it back
// on the run queue
func (t *Thread) CancelTimer() {
	if t.state != Waiting {
		return
	}
	t.Detach()
	t.sched.schedule(t)
}

// TimerExpired reports whether the body runs because its timer expired
func (t *Thread) TimerExpired() bool {
	return t.state == Timeout
}

// Resume returns the point the body continues from
func (t *Thread) Resume() Point {
	return t.ip
}

// Yield records p and leaves the thread ready for the next pass
func (t *Thread) Yield(p Point) {
	t.ip = p
}

// Sleep records p and takes the thread off the run queue until Wake
func (t *Thread) Sleep(p Point) {
	t.ip = p
	t.Detach()
	t.setState(Sleeping)
}

// Wake puts a sleeping thread back on the run queue
func (t *Thread) Wake() bool {
	if t.state != Sleeping {
		return false
	}
	t.sched.schedule(t)
	return true
}

// Delay records p and waits ms milliseconds on the watchdog
func (t *Thread) Delay(p Point, ms uint32) {
	t.ip = p
	t.SetTimer(ms)
}

// AwaitCondition records p and returns cond(). A body returns when it is
// false and is polled again on the next pass.
func (t *Thread) AwaitCondition(p Point, cond func() bool) bool {
	t.ip = p
	return cond()
}

// OnEvent delivers an event to the body. A timeout wakes a waiting thread,
// which goes back on the run queue unless the body changed its state. Other
// events run the body without changing the state.
func (t *Thread) OnEvent(kind uint8, value uint16) {
	switch t.state {
	case Initiated, Terminated, Running:
		return
	}
	if kind != TimeoutType {
		t.body.Run(t, kind, value)
		return
	}
	if t.state != Waiting {
		return
	}
	t.Detach()
	t.setState(Timeout)
	t.body.Run(t, kind, value)
	if t.state == Timeout {
		t.sched.schedule(t)
	}
}

// Scheduler runs the threads on its run queue in passes
type Scheduler struct {
	runq     Head
	events   *EventQueue
	watchdog *Watchdog
	trace    *Trace
	threads  uint8
}

// NewScheduler creates a scheduler with an empty run queue
func NewScheduler(events *EventQueue, watchdog *Watchdog) *Scheduler {
	return &Scheduler{
		events:   events,
		watchdog: watchdog,
	}
}

func (s *Scheduler) nextID() uint8 {
	s.threads++
	return s.threads
}

// schedule appends t to the run queue as ready
func (s *Scheduler) schedule(t *Thread) {
	t.setState(Ready)
	s.runq.Attach(&t.Link)
}

// Length returns the number of units on the run queue
func (s *Scheduler) Length() int {
	return s.runq.Length()
}

// Dispatch runs one pass over the run queue and returns the number of units
// run. When processEvents is set it waits for an event while the run queue is
// empty and services queued events after every unit.
func (s *Scheduler) Dispatch(processEvents bool) int {
	n, _ := s.DispatchContext(context.Background(), processEvents)
	return n
}

// DispatchContext is Dispatch with a cancellable wait for events.
//
// Every unit on the run queue when the pass starts runs exactly once, in
// queue order, and keeps its place unless it leaves the queue. Units enqueued
// during the pass land behind the pass end and wait for the next one. A unit
// removed by another unit before its turn is skipped.
func (s *Scheduler) DispatchContext(ctx context.Context, processEvents bool) (int, error) {
	if processEvents && s.runq.IsEmpty() {
		ev, err := s.events.AwaitContext(ctx)
		if err != nil {
			return 0, err
		}
		s.events.Dispatch(ev)
	}

	// end marks the tail at pass start; cursor holds the walk position
	// while a unit runs, whatever the unit does to its neighbours.
	var end, cursor Link
	s.runq.Attach(&end)
	count := 0
	for l := s.runq.Succ(); l != &end; {
		l.Succ().Attach(&cursor)
		s.run(l.Handler())
		count++
		if processEvents {
			s.events.Service(0)
		}
		l = cursor.Succ()
		cursor.Detach()
	}
	end.Detach()
	return count, nil
}

// run invokes one run queue member. Members that are not threads receive a
// RunType event.
func (s *Scheduler) run(h Handler) {
	t, ok := h.(*Thread)
	if !ok {
		h.OnEvent(RunType, 0)
		return
	}
	if t.state != Ready {
		return
	}
	t.setState(Running)
	t.body.Run(t, RunType, 0)
	if t.state == Running {
		t.setState(Ready)
	}
	s.trace.Record(TraceRun, uint8(t.state), uint32(t.ip), uint32(t.id))
}
