package tracing

import (
	"sync"

	"github.com/sarchlab/pmsmsim/loop"
)

// MemoryBackend keeps samples in memory.
type MemoryBackend struct {
	mu      sync.Mutex
	samples []loop.Sample
}

// NewMemoryBackend creates a new MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

// Write appends a sample.
func (b *MemoryBackend) Write(sample loop.Sample) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.samples = append(b.samples, sample)
}

// Flush does nothing.
func (b *MemoryBackend) Flush() {}

// Samples returns a copy of the samples written so far.
func (b *MemoryBackend) Samples() []loop.Sample {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]loop.Sample, len(b.samples))
	copy(out, b.samples)

	return out
}

// Len returns the number of stored samples.
func (b *MemoryBackend) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.samples)
}
