//go:build !tinygo

// Command host runs the kernel demo on a workstation. A blinker thread and a
// sampler job run on the kernel while the trace ring is streamed as frames
// to a serial port or stdout, where cosa-monitor can decode it.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mikaelpatel/Cosa-sub003/config"
	"github.com/mikaelpatel/Cosa-sub003/core"
	"github.com/mikaelpatel/Cosa-sub003/host/serial"
	"github.com/mikaelpatel/Cosa-sub003/protocol"
)

const (
	blinkMs  = 512
	sampleMs = 64
	flushMs  = 1024
)

// blinker toggles a virtual LED and logs the transitions
type blinker struct {
	logger *core.Logger
	on     bool
}

func (b *blinker) Run(t *core.Thread, kind uint8, value uint16) {
	switch t.Resume() {
	case 0:
		t.Delay(1, blinkMs)
	case 1:
		b.on = !b.on
		b.logger.Debug().Bool("on", b.on).Uint64("thread", uint64(t.ID())).Log("led")
		t.Delay(1, blinkMs)
	}
}

// reporter receives sample events and keeps the last value
type reporter struct {
	logger *core.Logger
	last   uint16
	count  int
}

func (r *reporter) OnEvent(kind uint8, value uint16) {
	if kind != core.SampleCompletedType {
		return
	}
	r.last = value
	r.count++
	if r.count%16 == 0 {
		r.logger.Info().Int("samples", r.count).Uint64("value", uint64(value)).Log("sampled")
	}
}

func main() {
	var (
		configPath = flag.String("config", "", "kernel config file (.toml or .json)")
		device     = flag.String("device", "", "serial device for trace frames, stdout when empty")
		duration   = flag.Duration("duration", 0, "stop after this long, 0 runs until interrupted")
	)
	flag.Parse()

	if err := run(*configPath, *device, *duration); err != nil {
		fmt.Fprintln(os.Stderr, "host:", err)
		os.Exit(1)
	}
}

func run(configPath, device string, duration time.Duration) error {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.LoadFile(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if device != "" {
		cfg.Device = device
	}

	level, err := cfg.Level()
	if err != nil {
		return err
	}
	logger := core.NewLogger(os.Stderr, level)
	kcfg, err := kernelConfig(cfg, logger)
	if err != nil {
		return err
	}
	out, closeOut, err := openOutput(cfg)
	if err != nil {
		return err
	}
	defer closeOut()

	k := core.New(kcfg, core.WithTickSource(core.NewRobinSource()), core.WithLogger(logger))
	if err := k.Begin(); err != nil {
		return fmt.Errorf("start kernel: %w", err)
	}
	defer k.End()

	logger.Info().
		Uint64("period", uint64(k.Watchdog().Period())).
		Str("mode", k.Watchdog().Mode().String()).
		Log("kernel started")

	rep := &reporter{logger: logger}
	k.Spawn(&blinker{logger: logger})

	var phase float64
	k.Every(sampleMs, func() {
		phase += 0.1
		value := uint16(32768 + 32767*math.Sin(phase))
		k.Events().Push(core.SampleCompletedType, rep, value)
	})

	var enc protocol.FrameEncoder
	k.Every(flushMs, func() {
		trace := k.Trace()
		trace.Record(core.TraceSample, core.SampleCompletedType, uint32(rep.last), uint32(rep.count))
		recs := trace.Records()
		trace.Clear()
		if err := enc.WriteTrace(out, recs); err != nil {
			logger.Warning().Err(err).Log("trace stream")
		}
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, duration)
		defer cancel()
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return k.Run(ctx)
	})
	g.Go(func() error {
		// Wake the dispatcher so it observes the cancellation
		<-ctx.Done()
		k.Events().Wake()
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info().
		Int("samples", rep.count).
		Uint64("dropped", uint64(k.Events().Dropped())).
		Log("kernel stopped")
	return nil
}

// kernelConfig converts cfg for the demo. The demo runs threads, which must
// not be driven from the tick goroutine, so immediate mode is replaced by
// queued mode.
func kernelConfig(cfg *config.Kernel, logger *core.Logger) (core.Config, error) {
	kcfg, err := cfg.Core()
	if err != nil {
		return core.Config{}, err
	}
	if kcfg.Mode == core.ModeImmediate {
		logger.Warning().
			Str("mode", kcfg.Mode.String()).
			Log("threads need queued timeouts, using queued mode")
		kcfg.Mode = core.ModeQueued
	}
	kcfg.Trace = true
	return kcfg, nil
}

func openOutput(cfg *config.Kernel) (io.Writer, func(), error) {
	if cfg.Device == "" || cfg.Device == "-" {
		return os.Stdout, func() {}, nil
	}
	port, err := serial.Open(&serial.Config{Device: cfg.Device, Baud: cfg.Baud})
	if err != nil {
		return nil, nil, err
	}
	return port, func() { _ = port.Close() }, nil
}
