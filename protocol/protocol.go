// Package protocol frames kernel trace records for a byte stream such as a
// serial line. A frame is
//
//	[length][dest|seq][payload ...][crc hi][crc lo][sync]
//
// where length counts the whole frame, the payload is a run of VLQ integers
// and the CRC covers everything before it.
package protocol

import "errors"

// Frame geometry
const (
	FrameMax     = 64 // Largest frame including header and trailer
	FrameHeader  = 2  // Length and sequence bytes
	FrameTrailer = 3  // CRC and sync bytes
	FrameMin     = FrameHeader + FrameTrailer
	PayloadMax   = FrameMax - FrameMin

	posLength = 0
	posSeq    = 1

	FrameSync = 0x7E // Terminates every frame
	FrameDest = 0x10 // High nibble of the sequence byte
	SeqMask   = 0x0F
)

var (
	ErrInvalidVLQ     = errors.New("invalid VLQ encoding")
	ErrBufferTooSmall = errors.New("buffer too small")
	ErrBadFrame       = errors.New("malformed frame")
	ErrBadCRC         = errors.New("frame CRC mismatch")
	ErrIncomplete     = errors.New("incomplete frame")
)

// Frame is a decoded frame
type Frame struct {
	Sequence uint8
	Payload  []byte
}
