package protocol

// Ring is a byte FIFO between a serial reader and the frame decoder. One
// slot stays free to tell full from empty.
type Ring struct {
	buf   []byte
	read  int
	write int
}

// NewRing creates a ring holding up to capacity bytes
func NewRing(capacity int) *Ring {
	return &Ring{buf: make([]byte, capacity+1)}
}

// Write appends as much of p as fits and returns the number of bytes taken
func (r *Ring) Write(p []byte) int {
	n := 0
	for _, b := range p {
		next := (r.write + 1) % len(r.buf)
		if next == r.read {
			break
		}
		r.buf[r.write] = b
		r.write = next
		n++
	}
	return n
}

// Read moves up to len(p) bytes out of the ring
func (r *Ring) Read(p []byte) int {
	n := copy(p, r.Peek())
	r.Discard(n)
	return n
}

// Available returns the number of buffered bytes
func (r *Ring) Available() int {
	if r.write >= r.read {
		return r.write - r.read
	}
	return len(r.buf) - r.read + r.write
}

// Free returns the room left for Write
func (r *Ring) Free() int {
	return len(r.buf) - 1 - r.Available()
}

// Peek returns the buffered bytes without consuming them. A wrapped ring is
// copied into a contiguous slice.
func (r *Ring) Peek() []byte {
	if r.read <= r.write {
		return r.buf[r.read:r.write]
	}
	out := make([]byte, 0, r.Available())
	out = append(out, r.buf[r.read:]...)
	return append(out, r.buf[:r.write]...)
}

// Discard drops up to n bytes from the front
func (r *Ring) Discard(n int) {
	if avail := r.Available(); n > avail {
		n = avail
	}
	r.read = (r.read + n) % len(r.buf)
}

// Reset empties the ring
func (r *Ring) Reset() {
	r.read = 0
	r.write = 0
}
