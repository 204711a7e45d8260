//go:build !tinygo

package core

import (
	"sync"
	"time"

	"github.com/jiansoft/robin"
)

// RobinSource drives the tick handler from a robin periodic job. It stands in
// for the hardware watchdog timer on a host.
type RobinSource struct {
	mu  sync.Mutex
	job robin.Disposable
}

// NewRobinSource creates a stopped source
func NewRobinSource() *RobinSource {
	return &RobinSource{}
}

// DefaultTickSource returns the tick source of the platform
func DefaultTickSource() TickSource {
	return NewRobinSource()
}

// Start schedules isr every period
func (r *RobinSource) Start(period time.Duration, isr func()) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.job != nil {
		return ErrRunning
	}
	ms := period.Milliseconds()
	if ms <= 0 {
		ms = 1
	}
	r.job = robin.Every(ms).Milliseconds().Do(isr)
	return nil
}

// Stop cancels the periodic job
func (r *RobinSource) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.job == nil {
		return ErrNotRunning
	}
	r.job.Dispose()
	r.job = nil
	return nil
}
