package protocol

// Integers are sent most significant group first, seven bits per byte with the
// high bit marking a continuation. The first byte carries the sign in bits 5
// and 6, so small negative values stay one byte long.

// VLQLen returns the encoded length of v
func VLQLen(v int32) int {
	n := 1
	for _, limit := range [...]int32{5, 12, 19, 26} {
		if v < -(1<<limit) || v >= 3<<limit {
			n++
		}
	}
	return n
}

// AppendVLQ appends the encoding of v to dst
func AppendVLQ(dst []byte, v int32) []byte {
	if v < -(1<<26) || v >= 3<<26 {
		dst = append(dst, byte(v>>28)&0x7F|0x80)
	}
	if v < -(1<<19) || v >= 3<<19 {
		dst = append(dst, byte(v>>21)&0x7F|0x80)
	}
	if v < -(1<<12) || v >= 3<<12 {
		dst = append(dst, byte(v>>14)&0x7F|0x80)
	}
	if v < -(1<<5) || v >= 3<<5 {
		dst = append(dst, byte(v>>7)&0x7F|0x80)
	}
	return append(dst, byte(v)&0x7F)
}

// AppendVLQUint appends the encoding of an unsigned value. Values above
// MaxInt32 travel as their two's complement and decode back unchanged.
func AppendVLQUint(dst []byte, v uint32) []byte {
	return AppendVLQ(dst, int32(v))
}

// ReadVLQ decodes one integer from the front of *data and advances it
func ReadVLQ(data *[]byte) (int32, error) {
	buf := *data
	if len(buf) == 0 {
		return 0, ErrBufferTooSmall
	}
	c := uint32(buf[0])
	v := c & 0x7F
	if c&0x60 == 0x60 {
		v |= ^uint32(0x1F)
	}
	i := 1
	for c&0x80 != 0 {
		if i == len(buf) {
			return 0, ErrBufferTooSmall
		}
		if i == 5 {
			return 0, ErrInvalidVLQ
		}
		c = uint32(buf[i])
		v = v<<7 | c&0x7F
		i++
	}
	*data = buf[i:]
	return int32(v), nil
}

// ReadVLQUint decodes one unsigned integer from the front of *data
func ReadVLQUint(data *[]byte) (uint32, error) {
	v, err := ReadVLQ(data)
	return uint32(v), err
}
