// Package monitor decodes the kernel trace stream a device writes to its
// serial link
package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/mikaelpatel/Cosa-sub003/core"
	"github.com/mikaelpatel/Cosa-sub003/protocol"
)

// Handler receives each decoded trace record
type Handler func(rec core.TraceRecord)

// Monitor reads frames from a port and hands out their records
type Monitor struct {
	port    io.Reader
	dec     *protocol.FrameDecoder
	handle  Handler
	logger  *core.Logger
	frames  int
	records int
}

// New creates a monitor reading port. A nil logger disables logging.
func New(port io.Reader, handle Handler, logger *core.Logger) *Monitor {
	return &Monitor{
		port:   port,
		dec:    protocol.NewFrameDecoder(4 * protocol.FrameMax),
		handle: handle,
		logger: logger,
	}
}

// Run reads until the stream ends or ctx is done. Cancelling ctx does not
// interrupt a blocked read; callers close the port for that.
func (m *Monitor) Run(ctx context.Context) error {
	buf := make([]byte, 256)
	for {
		if ctx.Err() != nil {
			return nil
		}
		n, err := m.port.Read(buf)
		if n > 0 {
			m.Process(buf[:n])
		}
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read trace stream: %w", err)
		}
	}
}

// Process decodes a chunk of the stream
func (m *Monitor) Process(data []byte) {
	for len(data) > 0 {
		n := m.dec.Feed(data)
		data = data[n:]
		m.drain()
	}
}

func (m *Monitor) drain() {
	for {
		f, err := m.dec.Next()
		if errors.Is(err, protocol.ErrIncomplete) {
			return
		}
		if err != nil {
			m.logger.Debug().Err(err).Log("dropped corrupt frame")
			continue
		}
		m.frames++
		recs, err := protocol.DecodeTrace(f.Payload)
		if err != nil {
			m.logger.Warning().Err(err).Int("seq", int(f.Sequence)).Log("bad trace payload")
		}
		for _, rec := range recs {
			m.records++
			if m.handle != nil {
				m.handle(rec)
			}
		}
	}
}

// Stats reports decoded frames and records and the frames lost or rejected
type Stats struct {
	Frames  int
	Records int
	Lost    int
	Corrupt int
}

// Stats returns the counters so far
func (m *Monitor) Stats() Stats {
	return Stats{
		Frames:  m.frames,
		Records: m.records,
		Lost:    m.dec.Lost,
		Corrupt: m.dec.Corrupt,
	}
}

// Format renders a record as one line of text
func Format(rec core.TraceRecord) string {
	return fmt.Sprintf("%10d %-8s arg=%-3d v1=%-10d v2=%d",
		rec.Ticks, core.TraceName(rec.Kind), rec.Arg, rec.Value1, rec.Value2)
}
