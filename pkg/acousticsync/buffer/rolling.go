package buffer

import "sync"

// DefaultMaxChunks holds roughly eight seconds of capture at typical
// callback sizes.
const DefaultMaxChunks = 90

// Rolling keeps the most recent PCM chunks pushed by a capture callback.
// Once more than maxChunks are held the oldest chunk is dropped.
//
// Producers and readers may run on different goroutines. Chunks are copied
// on Push and only whole chunks are evicted, so a Snapshot never observes a
// partially written chunk.
type Rolling struct {
	mu        sync.Mutex
	chunks    [][]float64
	maxChunks int
	samples   int
}

// NewRolling creates an empty buffer. maxChunks <= 0 uses DefaultMaxChunks.
func NewRolling(maxChunks int) *Rolling {
	if maxChunks <= 0 {
		maxChunks = DefaultMaxChunks
	}
	return &Rolling{
		chunks:    make([][]float64, 0, maxChunks+1),
		maxChunks: maxChunks,
	}
}

// Push appends a copy of chunk, evicting the oldest chunk when over capacity.
// Empty chunks are ignored.
func (r *Rolling) Push(chunk []float64) {
	if len(chunk) == 0 {
		return
	}
	c := make([]float64, len(chunk))
	copy(c, chunk)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.chunks = append(r.chunks, c)
	r.samples += len(c)
	for len(r.chunks) > r.maxChunks {
		r.samples -= len(r.chunks[0])
		r.chunks[0] = nil
		r.chunks = r.chunks[1:]
	}
}

// Snapshot returns the buffered chunks concatenated oldest first.
// The returned slice is owned by the caller.
func (r *Rolling) Snapshot() []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]float64, 0, r.samples)
	for _, c := range r.chunks {
		out = append(out, c...)
	}
	return out
}

// Len returns the number of chunks currently held.
func (r *Rolling) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.chunks)
}

// Samples returns the number of samples currently held.
func (r *Rolling) Samples() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.samples
}

// Cap returns the maximum chunk count.
func (r *Rolling) Cap() int { return r.maxChunks }

// Reset drops every buffered chunk.
func (r *Rolling) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chunks = make([][]float64, 0, r.maxChunks+1)
	r.samples = 0
}
