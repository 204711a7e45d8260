// Package config loads kernel settings from JSON or TOML files
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joeycumines/logiface"

	"github.com/mikaelpatel/Cosa-sub003/core"
)

// Kernel holds the settings of a kernel and its trace link
type Kernel struct {
	TickMs    uint16 `json:"tick_ms" toml:"tick_ms"`
	Mode      string `json:"mode" toml:"mode"`             // "queued" or "immediate"
	QueueSize int    `json:"queue_size" toml:"queue_size"` // Event queue capacity
	LogLevel  string `json:"log_level" toml:"log_level"`
	Trace     bool   `json:"trace" toml:"trace"`

	// Serial link the trace stream is written to, stdout when empty
	Device string `json:"device" toml:"device"`
	Baud   int    `json:"baud" toml:"baud"`
}

// LoadJSON parses a JSON configuration
func LoadJSON(data []byte) (*Kernel, error) {
	var cfg Kernel
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse json config: %w", err)
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

// LoadTOML parses a TOML configuration. Unknown keys are an error.
func LoadTOML(data []byte) (*Kernel, error) {
	var cfg Kernel
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, fmt.Errorf("parse toml config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("parse toml config: unknown keys %s", strings.Join(keys, ", "))
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

// LoadFile reads a configuration, choosing the format by file extension
func LoadFile(path string) (*Kernel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return LoadTOML(data)
	case ".json":
		return LoadJSON(data)
	default:
		return nil, fmt.Errorf("config %s: unsupported format", path)
	}
}

// Default returns the configuration used when no file is given
func Default() *Kernel {
	var cfg Kernel
	applyDefaults(&cfg)
	return &cfg
}

// applyDefaults fills in missing values
func applyDefaults(cfg *Kernel) {
	if cfg.TickMs == 0 {
		cfg.TickMs = core.BaseTick
	}
	if cfg.Mode == "" {
		cfg.Mode = core.ModeQueued.String()
	}
	if cfg.QueueSize == 0 {
		cfg.QueueSize = core.DefaultQueueSize
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.Baud == 0 {
		cfg.Baud = 250000
	}
}

// Core converts the settings to a kernel configuration
func (k *Kernel) Core() (core.Config, error) {
	var mode core.Mode
	switch strings.ToLower(k.Mode) {
	case "queued":
		mode = core.ModeQueued
	case "immediate":
		mode = core.ModeImmediate
	default:
		return core.Config{}, fmt.Errorf("unknown mode %q", k.Mode)
	}
	if k.QueueSize < 0 {
		return core.Config{}, fmt.Errorf("negative queue size %d", k.QueueSize)
	}
	return core.Config{
		TickMs:    k.TickMs,
		Mode:      mode,
		QueueSize: k.QueueSize,
		Trace:     k.Trace,
	}, nil
}

// Level returns the logger level named by LogLevel
func (k *Kernel) Level() (logiface.Level, error) {
	switch strings.ToLower(k.LogLevel) {
	case "trace":
		return logiface.LevelTrace, nil
	case "debug":
		return logiface.LevelDebug, nil
	case "info":
		return logiface.LevelInformational, nil
	case "notice":
		return logiface.LevelNotice, nil
	case "warning", "warn":
		return logiface.LevelWarning, nil
	case "error":
		return logiface.LevelError, nil
	case "disabled", "off":
		return logiface.LevelDisabled, nil
	default:
		return logiface.LevelDisabled, fmt.Errorf("unknown log level %q", k.LogLevel)
	}
}
