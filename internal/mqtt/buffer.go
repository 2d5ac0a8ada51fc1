package mqtt

// ringBuffer is a fixed-capacity FIFO for payloads held while the broker
// is unreachable. Not safe for concurrent use; the Publisher
// synchronizes.
type ringBuffer struct {
	buf      [][]byte
	capacity int
	head     int // next write position
	count    int
}

func newRingBuffer(capacity int) *ringBuffer {
	return &ringBuffer{
		buf:      make([][]byte, capacity),
		capacity: capacity,
	}
}

// push appends a payload, overwriting the oldest one when full. Reports
// whether a payload was dropped.
func (r *ringBuffer) push(payload []byte) (dropped bool) {
	if r.count == r.capacity {
		// head already points at the oldest entry
		r.buf[r.head] = payload
		r.head = (r.head + 1) % r.capacity
		return true
	}
	r.buf[r.head] = payload
	r.head = (r.head + 1) % r.capacity
	r.count++
	return false
}

// drainAll returns the buffered payloads oldest-first and empties the
// buffer.
func (r *ringBuffer) drainAll() [][]byte {
	if r.count == 0 {
		return nil
	}
	out := make([][]byte, r.count)
	start := (r.head - r.count + r.capacity) % r.capacity
	for i := 0; i < r.count; i++ {
		out[i] = r.buf[(start+i)%r.capacity]
	}
	r.count = 0
	r.head = 0
	return out
}

func (r *ringBuffer) len() int {
	return r.count
}
