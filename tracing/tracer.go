package tracing

import (
	"github.com/sarchlab/pmsmsim/loop"
	"github.com/sarchlab/pmsmsim/sim"
)

// SampleTracer forwards the samples of a control loop to a backend, keeping
// one out of every N.
type SampleTracer struct {
	backend SampleBackend
	every   uint64
	count   uint64
}

// NewSampleTracer creates a SampleTracer that keeps the samples whose step
// index is a multiple of every. An every of 0 or 1 keeps all samples.
func NewSampleTracer(backend SampleBackend, every uint64) *SampleTracer {
	if every == 0 {
		every = 1
	}

	return &SampleTracer{
		backend: backend,
		every:   every,
	}
}

// Func handles the hook invocation.
func (t *SampleTracer) Func(ctx sim.HookCtx) {
	if ctx.Pos != loop.HookPosSample {
		return
	}

	sample, ok := ctx.Item.(loop.Sample)
	if !ok {
		return
	}

	if sample.Step%t.every != 0 {
		return
	}

	t.backend.Write(sample)
	t.count++
}

// Count returns how many samples have been forwarded.
func (t *SampleTracer) Count() uint64 {
	return t.count
}

// Flush flushes the backend.
func (t *SampleTracer) Flush() {
	t.backend.Flush()
}
