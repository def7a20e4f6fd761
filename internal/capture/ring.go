package capture

import "sync"

// sampleRing keeps the most recent PCM samples for amplitude display.
// Writers overwrite the oldest samples once the window fills.
type sampleRing struct {
	mu   sync.Mutex
	buf  []int16
	pos  int
	full bool
}

func newSampleRing(capacity int) *sampleRing {
	if capacity < 1 {
		capacity = 1
	}
	return &sampleRing{buf: make([]int16, capacity)}
}

// writePCM decodes S16LE bytes and appends the samples.
func (r *sampleRing) writePCM(data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := 0; i+1 < len(data); i += 2 {
		sample := int16(uint16(data[i]) | uint16(data[i+1])<<8)
		r.buf[r.pos] = sample
		r.pos++
		if r.pos == len(r.buf) {
			r.pos = 0
			r.full = true
		}
	}
}

// snapshot returns the stored samples oldest first.
func (r *sampleRing) snapshot() []int16 {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.full {
		out := make([]int16, r.pos)
		copy(out, r.buf[:r.pos])
		return out
	}

	out := make([]int16, len(r.buf))
	n := copy(out, r.buf[r.pos:])
	copy(out[n:], r.buf[:r.pos])
	return out
}

func (r *sampleRing) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pos = 0
	r.full = false
}
