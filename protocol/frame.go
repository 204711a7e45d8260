package protocol

import (
	"fmt"
	"io"

	"github.com/mikaelpatel/Cosa-sub003/core"
)

// FrameEncoder packs trace records into numbered frames
type FrameEncoder struct {
	seq uint8
}

// EncodeTrace encodes as many leading records as fit into one frame and
// returns the frame and the number of records taken
func (e *FrameEncoder) EncodeTrace(recs []core.TraceRecord) ([]byte, int) {
	frame := make([]byte, FrameHeader, FrameMax)
	n := 0
	for _, rec := range recs {
		next := appendRecord(frame, rec)
		if len(next) > FrameMax-FrameTrailer {
			break
		}
		frame = next
		n++
	}
	return e.seal(frame), n
}

// WriteTrace writes all records to w in as many frames as needed
func (e *FrameEncoder) WriteTrace(w io.Writer, recs []core.TraceRecord) error {
	for len(recs) > 0 {
		frame, n := e.EncodeTrace(recs)
		if _, err := w.Write(frame); err != nil {
			return fmt.Errorf("write trace frame: %w", err)
		}
		recs = recs[n:]
	}
	return nil
}

// seal fills in the header and appends the trailer
func (e *FrameEncoder) seal(frame []byte) []byte {
	frame[posLength] = byte(len(frame) + FrameTrailer)
	frame[posSeq] = FrameDest | e.seq&SeqMask
	e.seq++
	crc := CRC16(frame)
	return append(frame, byte(crc>>8), byte(crc), FrameSync)
}

func appendRecord(dst []byte, rec core.TraceRecord) []byte {
	dst = AppendVLQUint(dst, uint32(rec.Kind))
	dst = AppendVLQUint(dst, uint32(rec.Arg))
	dst = AppendVLQUint(dst, rec.Ticks)
	dst = AppendVLQUint(dst, rec.Value1)
	return AppendVLQUint(dst, rec.Value2)
}

// DecodeTrace decodes the records of a frame payload
func DecodeTrace(payload []byte) ([]core.TraceRecord, error) {
	var recs []core.TraceRecord
	for len(payload) > 0 {
		var fields [5]uint32
		for i := range fields {
			v, err := ReadVLQUint(&payload)
			if err != nil {
				return recs, fmt.Errorf("trace record %d: %w", len(recs), err)
			}
			fields[i] = v
		}
		if fields[0] > 0xFF || fields[1] > 0xFF {
			return recs, fmt.Errorf("trace record %d: %w", len(recs), ErrInvalidVLQ)
		}
		recs = append(recs, core.TraceRecord{
			Kind:   uint8(fields[0]),
			Arg:    uint8(fields[1]),
			Ticks:  fields[2],
			Value1: fields[3],
			Value2: fields[4],
		})
	}
	return recs, nil
}

// FrameDecoder splits a byte stream into frames. Corrupt input is skipped up
// to the next sync byte.
type FrameDecoder struct {
	ring   *Ring
	synced bool
	expect uint8
	first  bool

	// Lost counts frames missing from the sequence
	Lost int
	// Corrupt counts rejected frames
	Corrupt int
}

// NewFrameDecoder creates a decoder buffering up to capacity bytes
func NewFrameDecoder(capacity int) *FrameDecoder {
	if capacity < FrameMax {
		capacity = FrameMax
	}
	return &FrameDecoder{
		ring:   NewRing(capacity),
		synced: true,
		first:  true,
	}
}

// Feed buffers stream bytes and returns the number accepted
func (d *FrameDecoder) Feed(p []byte) int {
	return d.ring.Write(p)
}

// Buffered returns the number of bytes waiting to be decoded
func (d *FrameDecoder) Buffered() int {
	return d.ring.Available()
}

// Next returns the next complete frame. It returns ErrIncomplete when more
// input is needed and ErrBadFrame or ErrBadCRC for a rejected frame, after
// which decoding may continue.
func (d *FrameDecoder) Next() (Frame, error) {
	for {
		data := d.ring.Peek()
		if len(data) == 0 {
			return Frame{}, ErrIncomplete
		}

		if !d.synced {
			i := 0
			for i < len(data) && data[i] != FrameSync {
				i++
			}
			if i == len(data) {
				d.ring.Discard(i)
				return Frame{}, ErrIncomplete
			}
			d.ring.Discard(i + 1)
			d.synced = true
			continue
		}

		if data[0] == FrameSync {
			d.ring.Discard(1)
			continue
		}
		if len(data) < FrameMin {
			return Frame{}, ErrIncomplete
		}

		length := int(data[posLength])
		seq := data[posSeq]
		if length < FrameMin || length > FrameMax || seq&^SeqMask != FrameDest {
			return Frame{}, d.reject(ErrBadFrame)
		}
		if len(data) < length {
			return Frame{}, ErrIncomplete
		}
		if data[length-1] != FrameSync {
			return Frame{}, d.reject(ErrBadFrame)
		}
		crc := uint16(data[length-3])<<8 | uint16(data[length-2])
		if crc != CRC16(data[:length-FrameTrailer]) {
			return Frame{}, d.reject(ErrBadCRC)
		}

		f := Frame{
			Sequence: seq & SeqMask,
			Payload:  append([]byte(nil), data[FrameHeader:length-FrameTrailer]...),
		}
		d.ring.Discard(length)
		d.track(f.Sequence)
		return f, nil
	}
}

func (d *FrameDecoder) reject(err error) error {
	d.synced = false
	d.Corrupt++
	d.ring.Discard(1)
	return err
}

func (d *FrameDecoder) track(seq uint8) {
	if !d.first && seq != d.expect {
		d.Lost += int((seq - d.expect) & SeqMask)
	}
	d.first = false
	d.expect = (seq + 1) & SeqMask
}
