package protocol

// CRC16 returns the CRC-16/MCRF4XX checksum of data, the frame check used on
// the wire
func CRC16(data []byte) uint16 {
	return updateCRC16(0xFFFF, data)
}

func updateCRC16(crc uint16, data []byte) uint16 {
	for _, b := range data {
		b ^= uint8(crc)
		b ^= b << 4
		w := uint16(b)
		crc = (w<<8 | crc>>8) ^ (w >> 4) ^ (w << 3)
	}
	return crc
}
