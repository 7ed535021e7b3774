package ui

import (
	"io"
	"sync"
)

// bytesPerFrame is the size of one 16-bit stereo frame.
const bytesPerFrame = 4

// FrameRing is a thread-safe ring of interleaved 16-bit stereo frames.
// The render goroutine writes frames and oto's player reads them as
// little-endian bytes. Read blocks when empty; Write drops the oldest
// frames on overflow so the producer never stalls.
type FrameRing struct {
	buf      []int16
	readPos  int // in samples, always frame aligned
	writePos int
	count    int // samples buffered
	pending  []byte
	dropped  uint64
	mu       sync.Mutex
	cond     *sync.Cond
	closed   bool
}

// NewFrameRing creates a ring holding up to frames stereo frames.
func NewFrameRing(frames int) *FrameRing {
	r := &FrameRing{buf: make([]int16, frames*2)}
	r.cond = sync.NewCond(&r.mu)
	return r
}

// Write adds interleaved stereo samples. A trailing odd sample is ignored.
func (r *FrameRing) Write(samples []int16) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	n := len(samples) &^ 1
	if n == 0 {
		return
	}
	capacity := len(r.buf)
	if n > capacity {
		r.dropped += uint64(n-capacity) / 2
		samples = samples[n-capacity : n]
		n = capacity
	}

	if overflow := r.count + n - capacity; overflow > 0 {
		r.readPos = (r.readPos + overflow) % capacity
		r.count -= overflow
		r.dropped += uint64(overflow) / 2
	}

	first := copy(r.buf[r.writePos:], samples[:n])
	copy(r.buf, samples[first:n])
	r.writePos = (r.writePos + n) % capacity
	r.count += n

	r.cond.Signal()
}

// Read implements io.Reader. It blocks until a frame is available or the
// ring is closed, and returns io.EOF once closed and empty.
func (r *FrameRing) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Finish a frame split by a short previous read first.
	if len(r.pending) > 0 {
		n := copy(p, r.pending)
		r.pending = r.pending[n:]
		return n, nil
	}

	for r.count == 0 {
		if r.closed {
			return 0, io.EOF
		}
		r.cond.Wait()
	}

	frames := min(len(p)/bytesPerFrame, r.count/2)
	if frames == 0 {
		var frame [bytesPerFrame]byte
		r.popFrame(frame[:])
		n := copy(p, frame[:])
		r.pending = append(r.pending[:0], frame[n:]...)
		return n, nil
	}
	for i := range frames {
		r.popFrame(p[i*bytesPerFrame:])
	}
	return frames * bytesPerFrame, nil
}

func (r *FrameRing) popFrame(dst []byte) {
	l, rr := r.buf[r.readPos], r.buf[r.readPos+1]
	dst[0], dst[1] = byte(l), byte(l>>8)
	dst[2], dst[3] = byte(rr), byte(rr>>8)
	r.readPos = (r.readPos + 2) % len(r.buf)
	r.count -= 2
}

// Buffered returns the number of bytes waiting to be read.
func (r *FrameRing) Buffered() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count*2 + len(r.pending)
}

// Dropped returns the number of frames discarded on overflow.
func (r *FrameRing) Dropped() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}

// Clear discards all buffered frames.
func (r *FrameRing) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.readPos = 0
	r.writePos = 0
	r.count = 0
	r.pending = r.pending[:0]
}

// Close signals shutdown and unblocks any waiting Read.
func (r *FrameRing) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.cond.Broadcast()
}
