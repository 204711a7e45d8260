package core

import "errors"

var (
	ErrRunning          = errors.New("watchdog already running")
	ErrNotRunning       = errors.New("watchdog not running")
	ErrScaleRange       = errors.New("tick period does not fit the timer levels")
	ErrNoSource         = errors.New("no tick source")
	ErrInterruptContext = errors.New("cannot block in interrupt context")
)
