// Command cosa-monitor attaches to a device and prints its kernel trace
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joeycumines/logiface"

	"github.com/mikaelpatel/Cosa-sub003/core"
	"github.com/mikaelpatel/Cosa-sub003/host/monitor"
	"github.com/mikaelpatel/Cosa-sub003/host/serial"
)

var (
	device  = flag.String("device", "/dev/ttyACM0", "Serial device path, - for stdin")
	baud    = flag.Int("baud", 250000, "Baud rate (ignored for USB CDC)")
	verbose = flag.Bool("verbose", false, "Log dropped frames")
)

func main() {
	flag.Parse()

	level := logiface.LevelWarning
	if *verbose {
		level = logiface.LevelDebug
	}
	logger := core.NewLogger(os.Stderr, level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var port serial.Port = os.Stdin
	if *device != "-" {
		cfg := serial.DefaultConfig(*device)
		cfg.Baud = *baud
		cfg.ReadTimeout = 0
		p, err := serial.Open(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		port = p
	}

	// Closing the port unblocks the reader on shutdown
	go func() {
		<-ctx.Done()
		port.Close()
	}()

	m := monitor.New(port, func(rec core.TraceRecord) {
		fmt.Println(monitor.Format(rec))
	}, logger)

	err := m.Run(ctx)
	stats := m.Stats()
	logger.Info().
		Int("frames", stats.Frames).
		Int("records", stats.Records).
		Int("lost", stats.Lost).
		Int("corrupt", stats.Corrupt).
		Log("monitor stopped")
	if err != nil && ctx.Err() == nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
