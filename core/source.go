package core

import (
	"sync"
	"time"
)

// TickSource is the periodic interrupt that drives the Watchdog
type TickSource interface {
	// Start calls isr every period until Stop
	Start(period time.Duration, isr func()) error
	Stop() error
}

// ManualSource is a TickSource fired explicitly, for tests and simulation
type ManualSource struct {
	mu     sync.Mutex
	isr    func()
	period time.Duration
}

// NewManualSource creates a stopped manual source
func NewManualSource() *ManualSource {
	return &ManualSource{}
}

// Start records the handler
func (m *ManualSource) Start(period time.Duration, isr func()) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.isr = isr
	m.period = period
	return nil
}

// Stop forgets the handler
func (m *ManualSource) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.isr = nil
	return nil
}

// Period returns the period given to Start
func (m *ManualSource) Period() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.period
}

// Fire runs the handler n times and returns the number of calls made
func (m *ManualSource) Fire(n int) int {
	m.mu.Lock()
	isr := m.isr
	m.mu.Unlock()
	if isr == nil {
		return 0
	}
	for i := 0; i < n; i++ {
		isr()
	}
	return n
}
