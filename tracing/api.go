// Package tracing records the samples produced by a control loop.
package tracing

import (
	"github.com/sarchlab/pmsmsim/loop"
	"github.com/sarchlab/pmsmsim/sim"
)

// NamedHookable represents something that has a name and can accept hooks.
type NamedHookable interface {
	sim.Named
	sim.Hookable
}

// A SampleBackend stores samples.
type SampleBackend interface {
	// Write buffers one sample.
	Write(sample loop.Sample)

	// Flush persists all the buffered samples.
	Flush()
}

// CollectSamples attaches a tracer to a domain so that every sample the
// domain produces reaches the tracer.
func CollectSamples(domain NamedHookable, tracer *SampleTracer) {
	domain.AcceptHook(tracer)
}
