//go:build !tinygo

package core

import (
	"sync"
	"sync/atomic"

	"github.com/petermattis/goid"
)

// irqState is the saved interrupt state returned by disableInterrupts.
//
// On regular Go there are no interrupts to mask. The "interrupt" is whatever
// goroutine drives Watchdog.Tick, so the guard is a process-wide mutex that the
// owning goroutine may re-enter, mirroring nested disable/restore on hardware.
type irqState uintptr

var irq struct {
	mu    sync.Mutex
	owner atomic.Int64
	depth int

	// goroutine currently running a tick handler, 0 when none
	isr atomic.Int64
}

// disableInterrupts enters the critical section and returns the previous state
func disableInterrupts() irqState {
	id := goid.Get()
	if irq.owner.Load() == id {
		irq.depth++
		return irqState(1)
	}
	irq.mu.Lock()
	irq.owner.Store(id)
	irq.depth = 1
	return irqState(0)
}

// restoreInterrupts leaves the critical section entered by disableInterrupts
func restoreInterrupts(state irqState) {
	irq.depth--
	if state != 0 {
		return
	}
	irq.owner.Store(0)
	irq.mu.Unlock()
}

// enterInterrupt marks the calling goroutine as the interrupt context
func enterInterrupt() {
	irq.isr.Store(goid.Get())
}

// exitInterrupt clears the interrupt context mark
func exitInterrupt() {
	irq.isr.Store(0)
}

// inInterrupt reports whether the caller runs in interrupt context
func inInterrupt() bool {
	id := irq.isr.Load()
	return id != 0 && id == goid.Get()
}
