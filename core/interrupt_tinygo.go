//go:build tinygo

package core

import "runtime/interrupt"

// irqState is the saved interrupt state returned by disableInterrupts
type irqState = interrupt.State

// disableInterrupts disables interrupts and returns the previous state
func disableInterrupts() irqState {
	return interrupt.Disable()
}

// restoreInterrupts restores the interrupt state
func restoreInterrupts(state irqState) {
	interrupt.Restore(state)
}

// The hardware tracks interrupt context itself.
func enterInterrupt() {}

func exitInterrupt() {}

// inInterrupt reports whether the caller runs in interrupt context
func inInterrupt() bool {
	return interrupt.In()
}
