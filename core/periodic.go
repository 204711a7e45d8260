package core

// Periodic calls a function on every expiry of its watchdog level. It stays
// attached between calls, so the period is rounded the way Attach rounds it.
//
// In ModeImmediate the function runs in interrupt context.
type Periodic struct {
	Link
	watchdog *Watchdog
	ms       uint32
	fn       func()
}

// NewPeriodic creates a stopped periodic job
func NewPeriodic(w *Watchdog, ms uint32, fn func()) *Periodic {
	p := &Periodic{
		watchdog: w,
		ms:       ms,
		fn:       fn,
	}
	p.Bind(p)
	return p
}

// Begin attaches the job to the watchdog
func (p *Periodic) Begin() {
	p.watchdog.Attach(&p.Link, p.ms)
}

// End detaches the job
func (p *Periodic) End() {
	p.Detach()
}

// SetPeriod changes the period, moving a running job to its new level
func (p *Periodic) SetPeriod(ms uint32) {
	p.ms = ms
	if p.IsAttached() {
		p.watchdog.Attach(&p.Link, ms)
	}
}

// Period returns the requested period in milliseconds
func (p *Periodic) Period() uint32 {
	return p.ms
}

// OnEvent runs the job on timeouts
func (p *Periodic) OnEvent(kind uint8, value uint16) {
	if kind == TimeoutType && p.fn != nil {
		p.fn()
	}
}
