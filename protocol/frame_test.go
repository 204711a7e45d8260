package protocol

import (
	"bytes"
	"errors"
	"reflect"
	"testing"

	"github.com/mikaelpatel/Cosa-sub003/core"
)

func sampleRecords(n int) []core.TraceRecord {
	recs := make([]core.TraceRecord, n)
	for i := range recs {
		recs[i] = core.TraceRecord{
			Kind:   core.TraceTimeout,
			Arg:    uint8(i % 32),
			Ticks:  uint32(i * 1000),
			Value1: uint32(i),
			Value2: 0xFFFFFFFF - uint32(i),
		}
	}
	return recs
}

// decodeAll feeds stream to a decoder and collects every record
func decodeAll(t *testing.T, d *FrameDecoder, stream []byte) []core.TraceRecord {
	t.Helper()
	var recs []core.TraceRecord
	for len(stream) > 0 {
		n := d.Feed(stream)
		stream = stream[n:]
		for {
			f, err := d.Next()
			if errors.Is(err, ErrIncomplete) {
				break
			}
			if err != nil {
				continue
			}
			got, err := DecodeTrace(f.Payload)
			if err != nil {
				t.Fatalf("decode payload: %v", err)
			}
			recs = append(recs, got...)
		}
	}
	return recs
}

func TestEncodeTraceFrame(t *testing.T) {
	var enc FrameEncoder
	recs := sampleRecords(1)
	frame, n := enc.EncodeTrace(recs)
	if n != 1 {
		t.Fatalf("encoded %d records, want 1", n)
	}
	if int(frame[0]) != len(frame) {
		t.Errorf("length byte %d, frame is %d bytes", frame[0], len(frame))
	}
	if frame[1] != FrameDest {
		t.Errorf("first sequence byte 0x%02X, want 0x%02X", frame[1], FrameDest)
	}
	if frame[len(frame)-1] != FrameSync {
		t.Errorf("missing sync byte")
	}
	crc := uint16(frame[len(frame)-3])<<8 | uint16(frame[len(frame)-2])
	if crc != CRC16(frame[:len(frame)-FrameTrailer]) {
		t.Errorf("bad CRC in encoded frame")
	}

	frame, _ = enc.EncodeTrace(recs)
	if frame[1] != FrameDest|1 {
		t.Errorf("second sequence byte 0x%02X", frame[1])
	}
}

func TestEncodeTraceSplitsFrames(t *testing.T) {
	var enc FrameEncoder
	recs := sampleRecords(10)
	frame, n := enc.EncodeTrace(recs)
	if n == 0 || n == len(recs) {
		t.Fatalf("expected a partial frame, took %d of %d", n, len(recs))
	}
	if len(frame) > FrameMax {
		t.Errorf("frame of %d bytes exceeds %d", len(frame), FrameMax)
	}
}

func TestTraceRoundTrip(t *testing.T) {
	var enc FrameEncoder
	var stream bytes.Buffer
	recs := sampleRecords(40)
	if err := enc.WriteTrace(&stream, recs); err != nil {
		t.Fatal(err)
	}

	d := NewFrameDecoder(256)
	got := decodeAll(t, d, stream.Bytes())
	if !reflect.DeepEqual(got, recs) {
		t.Errorf("round trip mismatch: got %d records, want %d", len(got), len(recs))
	}
	if d.Lost != 0 || d.Corrupt != 0 {
		t.Errorf("lost %d corrupt %d", d.Lost, d.Corrupt)
	}
}

func TestFrameDecoderPartialInput(t *testing.T) {
	var enc FrameEncoder
	frame, _ := enc.EncodeTrace(sampleRecords(2))

	d := NewFrameDecoder(128)
	d.Feed(frame[:4])
	if _, err := d.Next(); !errors.Is(err, ErrIncomplete) {
		t.Fatalf("partial frame: %v", err)
	}
	d.Feed(frame[4:])
	f, err := d.Next()
	if err != nil {
		t.Fatalf("complete frame: %v", err)
	}
	if f.Sequence != 0 {
		t.Errorf("sequence %d", f.Sequence)
	}
	if d.Buffered() != 0 {
		t.Errorf("%d bytes left over", d.Buffered())
	}
}

func TestFrameDecoderResync(t *testing.T) {
	var enc FrameEncoder
	good1, _ := enc.EncodeTrace(sampleRecords(1))
	bad, _ := enc.EncodeTrace(sampleRecords(1))
	good2, _ := enc.EncodeTrace(sampleRecords(1))
	bad[3] ^= 0x01

	var stream []byte
	stream = append(stream, 0x00, 0x42, FrameSync) // line noise
	stream = append(stream, good1...)
	stream = append(stream, bad...)
	stream = append(stream, good2...)

	d := NewFrameDecoder(256)
	got := decodeAll(t, d, stream)
	if len(got) != 2 {
		t.Fatalf("decoded %d records, want 2", len(got))
	}
	if d.Corrupt == 0 {
		t.Errorf("corrupt frames not counted")
	}
	if d.Lost != 1 {
		t.Errorf("lost = %d, want 1", d.Lost)
	}
}

func TestFrameDecoderRejectsCRC(t *testing.T) {
	var enc FrameEncoder
	frame, _ := enc.EncodeTrace(sampleRecords(1))
	frame[len(frame)-2] ^= 0xFF

	d := NewFrameDecoder(128)
	d.Feed(frame)
	if _, err := d.Next(); !errors.Is(err, ErrBadCRC) {
		t.Errorf("want ErrBadCRC, got %v", err)
	}
}

func TestDecodeTraceTruncated(t *testing.T) {
	payload := appendRecord(nil, sampleRecords(1)[0])
	if _, err := DecodeTrace(payload[:len(payload)-1]); err == nil {
		t.Error("truncated payload decoded without error")
	}
}
