package loop

import (
	"github.com/sarchlab/pmsmsim/foc/transforms"
	"github.com/sarchlab/pmsmsim/sim"
)

// A Builder can build control loops.
type Builder struct {
	engine      sim.Engine
	plant       Plant
	controller  Controller
	steps       uint64
	initialDuty transforms.ThreePhase
}

// MakeBuilder creates a builder with default parameters. The inverter starts
// at 50% on every phase, which applies no voltage.
func MakeBuilder() Builder {
	return Builder{
		steps:       2000,
		initialDuty: transforms.ThreePhase{A: 50, B: 50, C: 50},
	}
}

// WithEngine sets the engine that the loop runs on.
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithPlant sets the motor model. The sample period is the plant time step.
func (b Builder) WithPlant(plant Plant) Builder {
	b.plant = plant
	return b
}

// WithController sets the controller.
func (b Builder) WithController(controller Controller) Builder {
	b.controller = controller
	return b
}

// WithSteps sets the number of control steps.
func (b Builder) WithSteps(steps uint64) Builder {
	b.steps = steps
	return b
}

// WithInitialDuty sets the duty cycles, in percent, applied during the first
// step.
func (b Builder) WithInitialDuty(duty transforms.ThreePhase) Builder {
	b.initialDuty = duty
	return b
}

// Build creates a loop with the given name.
func (b Builder) Build(name string) *Comp {
	b.parametersMustBeValid()

	c := &Comp{
		plant:      b.plant,
		controller: b.controller,
		dt:         b.plant.TimeStep(),
		totalSteps: b.steps,
		duty:       b.initialDuty,
	}

	c.TickingComponent = sim.NewTickingComponent(
		name, b.engine, sim.FreqFromPeriod(c.dt), c)

	return c
}

func (b Builder) parametersMustBeValid() {
	if b.engine == nil {
		panic("engine is not set")
	}

	if b.plant == nil {
		panic("plant is not set")
	}

	if b.controller == nil {
		panic("controller is not set")
	}
}
