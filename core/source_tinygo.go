//go:build tinygo

package core

import "time"

// TickerSource drives the tick handler from a runtime ticker
type TickerSource struct {
	ticker *time.Ticker
	done   chan struct{}
}

// DefaultTickSource returns the tick source of the platform
func DefaultTickSource() TickSource {
	return &TickerSource{}
}

// Start calls isr every period from a dedicated goroutine
func (s *TickerSource) Start(period time.Duration, isr func()) error {
	if s.ticker != nil {
		return ErrRunning
	}
	s.ticker = time.NewTicker(period)
	s.done = make(chan struct{})
	go func(t *time.Ticker, done chan struct{}) {
		for {
			select {
			case <-t.C:
				isr()
			case <-done:
				return
			}
		}
	}(s.ticker, s.done)
	return nil
}

// Stop stops the ticker
func (s *TickerSource) Stop() error {
	if s.ticker == nil {
		return ErrNotRunning
	}
	s.ticker.Stop()
	close(s.done)
	s.ticker = nil
	return nil
}
