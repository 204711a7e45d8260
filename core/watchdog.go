package core

import (
	"math/bits"
	"sync/atomic"
	"time"
)

// Timer wheel geometry
const (
	Levels   = 32 // Number of timer levels, level i waits 2^i base ticks
	BaseTick = 16 // Hardware tick quantum in milliseconds
	MaxScale = 9  // Longest hardware period is BaseTick << MaxScale (8.192s)
)

// Mode selects how timeouts are delivered
type Mode uint8

const (
	// ModeQueued pushes a TimeoutType event per expired level
	ModeQueued Mode = iota
	// ModeImmediate broadcasts expired levels from the tick handler. Waiters
	// then run in interrupt context, so threads belong in ModeQueued.
	ModeImmediate
)

func (m Mode) String() string {
	switch m {
	case ModeQueued:
		return "queued"
	case ModeImmediate:
		return "immediate"
	default:
		return "unknown"
	}
}

// Watchdog is a timer wheel driven by a single periodic tick.
//
// Waiters are links attached to one of the levels. A level holding waiters for
// 2^i base ticks expires each time bit i of the elapsed base tick count flips,
// and the whole level is notified; waiters detach themselves.
type Watchdog struct {
	ticks   atomic.Uint32
	scale   uint8  // log2 of the hardware period in base ticks
	ms      uint16 // hardware period in milliseconds
	mode    Mode
	running atomic.Bool

	levels [Levels]Head
	events *EventQueue
	source TickSource
	trace  *Trace
}

// NewWatchdog creates a stopped timer wheel delivering through events
func NewWatchdog(events *EventQueue, source TickSource) *Watchdog {
	return &Watchdog{
		ms:     BaseTick,
		events: events,
		source: source,
	}
}

// AsScale returns the hardware scale nearest to ms, ties rounding down
func AsScale(ms uint16) uint8 {
	best := uint8(0)
	bestDiff := absDiff(uint32(ms), BaseTick)
	for s := uint8(1); s <= MaxScale; s++ {
		d := absDiff(uint32(ms), uint32(BaseTick)<<s)
		if d < bestDiff {
			best, bestDiff = s, d
		}
	}
	return best
}

func absDiff(a, b uint32) uint32 {
	if a > b {
		return a - b
	}
	return b - a
}

// Begin quantizes ms to a supported hardware period and starts ticking
func (w *Watchdog) Begin(ms uint16, mode Mode) error {
	if w.source == nil {
		return ErrNoSource
	}
	if w.running.Load() {
		return ErrRunning
	}
	scale := AsScale(ms)
	if scale >= Levels {
		return ErrScaleRange
	}
	w.scale = scale
	w.ms = BaseTick << scale
	w.mode = mode

	period := time.Duration(w.ms) * time.Millisecond
	if err := w.source.Start(period, w.interrupt); err != nil {
		return err
	}
	w.running.Store(true)
	log().Info().
		Int("requested_ms", int(ms)).
		Int("period_ms", int(w.ms)).
		Str("mode", mode.String()).
		Log("watchdog started")
	return nil
}

// End stops the tick source. Attached waiters stay attached.
func (w *Watchdog) End() error {
	if !w.running.Load() {
		return ErrNotRunning
	}
	if err := w.source.Stop(); err != nil {
		return err
	}
	w.running.Store(false)
	log().Info().Int("ticks", int(w.Ticks())).Log("watchdog stopped")
	return nil
}

// Running reports whether the tick source is started
func (w *Watchdog) Running() bool {
	return w.running.Load()
}

// Ticks returns the number of hardware ticks since Begin
func (w *Watchdog) Ticks() uint32 {
	return w.ticks.Load()
}

// Millis returns the elapsed time in milliseconds at tick resolution
func (w *Watchdog) Millis() uint32 {
	return w.Ticks() * uint32(w.ms)
}

// Since returns the milliseconds elapsed since start, a Millis value
func (w *Watchdog) Since(start uint32) uint32 {
	return w.Millis() - start
}

// Period returns the hardware tick period in milliseconds
func (w *Watchdog) Period() uint16 {
	return w.ms
}

// Scale returns the log2 of the hardware period in base ticks
func (w *Watchdog) Scale() uint8 {
	return w.scale
}

// Mode returns the timeout delivery mode
func (w *Watchdog) Mode() Mode {
	return w.mode
}

// Level returns the level a waiter for ms milliseconds is attached to. The
// delay is rounded up to a power of two base ticks, never shorter than the
// hardware period and never longer than the last level.
func (w *Watchdog) Level(ms uint32) uint8 {
	level, _ := w.level(ms)
	return level
}

func (w *Watchdog) level(ms uint32) (uint8, bool) {
	n := ms / BaseTick
	if ms%BaseTick != 0 {
		n++
	}
	var level uint8
	if n > 1 {
		level = uint8(bits.Len32(n - 1))
	}
	if level < w.scale {
		level = w.scale
	}
	if level >= Levels {
		return Levels - 1, true
	}
	return level, false
}

// Attach relinks link onto the level for ms milliseconds. The level fires
// each time the elapsed time crosses a multiple of its period. A waiter
// attached on a boundary of its level is notified no earlier than ms and no
// later than the next power of two multiple of the tick period. A waiter
// attached partway through the level period is notified at the next boundary,
// which may come before ms; Delay and Await re-arm for the remainder. A delay
// of zero means the next tick.
func (w *Watchdog) Attach(link *Link, ms uint32) {
	level, clamped := w.level(ms)
	if clamped {
		w.trace.Record(TraceClamp, level, ms, 0)
		log().Debug().Int64("ms", int64(ms)).Int("level", int(level)).Log("timer request clamped")
	}
	w.levels[level].Attach(link)
}

// Pending returns the number of waiters on a level
func (w *Watchdog) Pending(level uint8) int {
	if level >= Levels {
		return 0
	}
	return w.levels[level].Length()
}

// interrupt is the handler given to the tick source
func (w *Watchdog) interrupt() {
	enterInterrupt()
	defer exitInterrupt()
	w.Tick()
}

// Tick advances the wheel by one hardware tick and notifies every non-empty
// level whose period boundary was crossed, shortest first.
func (w *Watchdog) Tick() {
	ticks := w.ticks.Add(1)
	step := uint32(1) << w.scale
	now := ticks << w.scale
	changed := now ^ (now - step)
	w.trace.Record(TraceTick, w.scale, changed, 0)

	for i := w.scale; i < Levels; i++ {
		if changed&(1<<i) == 0 {
			break
		}
		level := &w.levels[i]
		if level.IsEmpty() {
			continue
		}
		w.trace.Record(TraceTimeout, i, uint32(level.Length()), 0)
		if w.mode == ModeImmediate {
			level.OnEvent(TimeoutType, uint16(i))
			continue
		}
		if !w.events.Push(TimeoutType, level, uint16(i)) {
			log().Warning().Int("level", int(i)).Log("timeout event dropped")
		}
	}
	w.events.Wake()
}

// Delay waits at least ms milliseconds, servicing queued events meanwhile.
// It must not be called from a thread body or interrupt context.
func (w *Watchdog) Delay(ms uint32) {
	w.Await(nil, ms)
}

// Await waits until cond returns true or ms milliseconds have passed,
// servicing queued events meanwhile. It returns true when cond was satisfied.
// A nil cond waits for the timeout only.
func (w *Watchdog) Await(cond func() bool, ms uint32) bool {
	if inInterrupt() {
		log().Warning().Log("watchdog await from interrupt context")
		return false
	}
	var waiter alarm
	waiter.Bind(&waiter)
	start := w.Millis()
	w.Attach(&waiter.Link, ms)
	defer waiter.Detach()
	for {
		if cond != nil && cond() {
			return true
		}
		if waiter.fired.Load() {
			// The level boundary may come before ms when attached mid-period
			elapsed := w.Since(start)
			if elapsed >= ms {
				return false
			}
			waiter.fired.Store(false)
			w.Attach(&waiter.Link, ms-elapsed)
			continue
		}
		if w.events.Service(0) == 0 {
			w.events.yield()
		}
	}
}

// alarm is a one shot waiter
type alarm struct {
	Link
	fired atomic.Bool
}

func (a *alarm) OnEvent(kind uint8, value uint16) {
	if kind != TimeoutType {
		return
	}
	a.Detach()
	a.fired.Store(true)
}
