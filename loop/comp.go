// Package loop drives a motor and its controller in lock step at a fixed
// sample rate.
package loop

import (
	"github.com/sarchlab/pmsmsim/foc/transforms"
	"github.com/sarchlab/pmsmsim/pmsm"
	"github.com/sarchlab/pmsmsim/sim"
)

// HookPosSample triggers after every control step. The hook item is a
// Sample.
var HookPosSample = &sim.HookPos{Name: "Sample"}

// A Plant advances the motor by one time step.
type Plant interface {
	Step(duty transforms.ThreePhase) (transforms.ThreePhase, float64)
	State() pmsm.State
	Torque() float64
	TimeStep() float64
}

// A Controller computes the next duty cycles from the measured currents and
// the electrical angle.
type Controller interface {
	Calculate(
		currents transforms.ThreePhase,
		thetaE float64,
		dt float64,
	) transforms.ThreePhase
	Measured() transforms.RotatingFrame
}

// Sample is what one control step produced. Currents and angle are what the
// controller saw; the duty cycles are the ones applied during the step.
type Sample struct {
	Step   uint64
	Time   float64
	Ia     float64
	Ib     float64
	Ic     float64
	ThetaE float64
	DutyA  float64
	DutyB  float64
	DutyC  float64
	IdMeas float64
	IqMeas float64
	Id     float64
	Iq     float64
	Omega  float64
	ThetaM float64
	Torque float64
}

// Comp runs one plant step followed by one controller step per tick.
type Comp struct {
	*sim.TickingComponent

	plant      Plant
	controller Controller
	dt         float64

	totalSteps uint64
	step       uint64
	duty       transforms.ThreePhase
}

// Tick advances the loop by one sample period.
func (c *Comp) Tick() bool {
	if c.step >= c.totalSteps {
		return false
	}

	applied := c.duty
	currents, thetaE := c.plant.Step(applied)
	c.duty = c.controller.Calculate(currents, thetaE, c.dt)

	c.InvokeHook(sim.HookCtx{
		Domain: c,
		Pos:    HookPosSample,
		Item:   c.sample(applied, currents, thetaE),
	})

	c.step++

	return true
}

func (c *Comp) sample(
	applied, currents transforms.ThreePhase,
	thetaE float64,
) Sample {
	state := c.plant.State()
	measured := c.controller.Measured()

	return Sample{
		Step:   c.step,
		Time:   float64(c.step) * c.dt,
		Ia:     currents.A,
		Ib:     currents.B,
		Ic:     currents.C,
		ThetaE: thetaE,
		DutyA:  applied.A,
		DutyB:  applied.B,
		DutyC:  applied.C,
		IdMeas: measured.D,
		IqMeas: measured.Q,
		Id:     state.Id,
		Iq:     state.Iq,
		Omega:  state.Omega,
		ThetaM: state.ThetaM,
		Torque: c.plant.Torque(),
	}
}

// Start schedules the first tick at the current time.
func (c *Comp) Start() {
	c.TickNow()
}

// StepsDone returns the number of completed control steps.
func (c *Comp) StepsDone() uint64 {
	return c.step
}

// TotalSteps returns the number of control steps the loop runs for.
func (c *Comp) TotalSteps() uint64 {
	return c.totalSteps
}

// Duty returns the duty cycles that the next step will apply.
func (c *Comp) Duty() transforms.ThreePhase {
	return c.duty
}
