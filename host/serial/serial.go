// Package serial opens the link a device streams its kernel trace over
package serial

import (
	"errors"
	"io"
)

// Port is an open serial link
type Port interface {
	io.ReadWriteCloser
}

// Config holds serial port settings
type Config struct {
	Device      string // e.g. "/dev/ttyACM0" or "COM3"
	Baud        int
	ReadTimeout int // Milliseconds, 0 blocks
}

// DefaultConfig returns the settings used by the device firmware
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        250000,
		ReadTimeout: 100,
	}
}

// Validate checks the settings before opening a port
func (c *Config) Validate() error {
	switch {
	case c == nil:
		return errors.New("nil serial config")
	case c.Device == "":
		return errors.New("no serial device")
	case c.Baud <= 0:
		return errors.New("baud rate must be positive")
	case c.ReadTimeout < 0:
		return errors.New("negative read timeout")
	}
	return nil
}
