package buffer

import (
	"sync"
	"testing"
)

func chunkOf(v float64, n int) []float64 {
	c := make([]float64, n)
	for i := range c {
		c[i] = v
	}
	return c
}

func TestPushEvictsOldest(t *testing.T) {
	r := NewRolling(3)
	for i := 1; i <= 5; i++ {
		r.Push(chunkOf(float64(i), 2))
	}

	if r.Len() != 3 {
		t.Fatalf("Expected 3 chunks, got %d", r.Len())
	}
	if r.Samples() != 6 {
		t.Errorf("Expected 6 samples, got %d", r.Samples())
	}

	snap := r.Snapshot()
	want := []float64{3, 3, 4, 4, 5, 5}
	if len(snap) != len(want) {
		t.Fatalf("Expected %d samples, got %d", len(want), len(snap))
	}
	for i := range want {
		if snap[i] != want[i] {
			t.Errorf("Sample %d: expected %f, got %f", i, want[i], snap[i])
		}
	}
}

func TestPushCopiesInput(t *testing.T) {
	r := NewRolling(2)
	chunk := chunkOf(1, 4)
	r.Push(chunk)
	chunk[0] = 99

	if got := r.Snapshot()[0]; got != 1 {
		t.Errorf("Buffer should copy pushed chunks, got %f", got)
	}
}

func TestSnapshotIsDetached(t *testing.T) {
	r := NewRolling(2)
	r.Push(chunkOf(1, 2))
	snap := r.Snapshot()
	snap[0] = 42

	if got := r.Snapshot()[0]; got != 1 {
		t.Errorf("Snapshot mutation leaked into buffer, got %f", got)
	}
}

func TestEmptyChunkIgnored(t *testing.T) {
	r := NewRolling(2)
	r.Push(nil)
	r.Push([]float64{})
	if r.Len() != 0 {
		t.Errorf("Expected empty buffer, got %d chunks", r.Len())
	}
}

func TestReset(t *testing.T) {
	r := NewRolling(0)
	if r.Cap() != DefaultMaxChunks {
		t.Errorf("Expected default capacity %d, got %d", DefaultMaxChunks, r.Cap())
	}
	r.Push(chunkOf(1, 10))
	r.Reset()
	if r.Len() != 0 || r.Samples() != 0 || len(r.Snapshot()) != 0 {
		t.Error("Reset should empty the buffer")
	}
}

func TestConcurrentPushAndSnapshot(t *testing.T) {
	r := NewRolling(8)
	const chunkSize = 64

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 2000; i++ {
			r.Push(chunkOf(float64(i), chunkSize))
		}
	}()

	for i := 0; i < 500; i++ {
		snap := r.Snapshot()
		if len(snap)%chunkSize != 0 {
			t.Fatalf("Snapshot contains a partial chunk: %d samples", len(snap))
		}
		// Each chunk must be internally uniform.
		for start := 0; start < len(snap); start += chunkSize {
			first := snap[start]
			for j := start; j < start+chunkSize; j++ {
				if snap[j] != first {
					t.Fatalf("Chunk at %d is torn", start)
				}
			}
		}
	}
	wg.Wait()
}
