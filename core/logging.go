package core

import (
	"io"
	"sync/atomic"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// Logger is the structured logger used by the kernel
type Logger = logiface.Logger[logiface.Event]

// kernelLogger is the package logger, nil disables logging
var kernelLogger atomic.Pointer[Logger]

// NewLogger creates a JSON logger writing to w at the given level
func NewLogger(w io.Writer, level logiface.Level) *Logger {
	return stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(w)),
		stumpy.L.WithLevel(level),
	).Logger()
}

// SetLogger installs the package logger. A nil logger disables logging.
func SetLogger(logger *Logger) {
	kernelLogger.Store(logger)
}

// log returns the package logger, which may be nil. Methods of a nil
// logiface logger are no-ops.
func log() *Logger {
	return kernelLogger.Load()
}
