package core

import (
	"context"
	"errors"
)

// Config holds the kernel settings
type Config struct {
	TickMs    uint16 // Requested tick period, quantized by the watchdog
	Mode      Mode   // Timeout delivery
	QueueSize int    // Event queue capacity
	Trace     bool   // Record a trace ring
}

// Option customizes a Kernel
type Option func(*Kernel)

// WithTickSource sets the periodic interrupt driving the watchdog
func WithTickSource(source TickSource) Option {
	return func(k *Kernel) {
		k.source = source
	}
}

// WithLogger installs the package logger
func WithLogger(logger *Logger) Option {
	return func(k *Kernel) {
		k.logger = logger
	}
}

// WithTrace records into trace instead of a ring owned by the kernel
func WithTrace(trace *Trace) Option {
	return func(k *Kernel) {
		k.trace = trace
	}
}

// Kernel ties an event queue, a watchdog and a scheduler together
type Kernel struct {
	cfg      Config
	source   TickSource
	logger   *Logger
	trace    *Trace
	events   *EventQueue
	watchdog *Watchdog
	sched    *Scheduler
}

// New creates a stopped kernel
func New(cfg Config, opts ...Option) *Kernel {
	if cfg.TickMs == 0 {
		cfg.TickMs = BaseTick
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	k := &Kernel{cfg: cfg}
	for _, opt := range opts {
		opt(k)
	}
	if k.source == nil {
		k.source = DefaultTickSource()
	}
	if k.logger != nil {
		SetLogger(k.logger)
	}

	k.events = NewEventQueue(cfg.QueueSize)
	k.watchdog = NewWatchdog(k.events, k.source)
	k.sched = NewScheduler(k.events, k.watchdog)

	if k.trace == nil && cfg.Trace {
		k.trace = NewTrace(k.watchdog.Ticks)
	}
	k.events.trace = k.trace
	k.watchdog.trace = k.trace
	k.sched.trace = k.trace
	return k
}

// Begin starts the watchdog
func (k *Kernel) Begin() error {
	return k.watchdog.Begin(k.cfg.TickMs, k.cfg.Mode)
}

// End stops the watchdog
func (k *Kernel) End() error {
	return k.watchdog.End()
}

// Run dispatches passes until ctx is done and returns nil on cancellation.
// It must be the only goroutine running threads and servicing events.
func (k *Kernel) Run(ctx context.Context) error {
	log().Info().Log("kernel running")
	for {
		if _, err := k.sched.DispatchContext(ctx, true); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				log().Info().Log("kernel stopped")
				return nil
			}
			return err
		}
		if err := ctx.Err(); err != nil {
			log().Info().Log("kernel stopped")
			return nil
		}
	}
}

// Spawn creates a thread for body and begins it
func (k *Kernel) Spawn(body Body) *Thread {
	t := NewThread(k.sched, body)
	t.Begin()
	return t
}

// Every creates and begins a periodic job
func (k *Kernel) Every(ms uint32, fn func()) *Periodic {
	p := NewPeriodic(k.watchdog, ms, fn)
	p.Begin()
	return p
}

// Events returns the kernel event queue
func (k *Kernel) Events() *EventQueue {
	return k.events
}

// Watchdog returns the kernel timer wheel
func (k *Kernel) Watchdog() *Watchdog {
	return k.watchdog
}

// Scheduler returns the kernel scheduler
func (k *Kernel) Scheduler() *Scheduler {
	return k.sched
}

// Trace returns the trace ring, nil when tracing is off
func (k *Kernel) Trace() *Trace {
	return k.trace
}
