package foc

import (
	"fmt"
	"math"

	"github.com/sarchlab/pmsmsim/foc/pid"
	"github.com/sarchlab/pmsmsim/foc/transforms"
)

// SpeedController closes a speed loop around a current Controller. The
// speed regulator output is the q-axis current reference, limited to the
// maximum current. The d-axis reference stays at zero.
type SpeedController struct {
	current    *Controller
	speed      *pid.Regulator
	polePairs  float64
	maxCurrent float64

	previousAngle float64
	primed        bool
	measured      float64

	heldCurrent  float64
	holdSteps    uint64
	holdForSteps bool
}

// NewSpeedController creates a speed controller for a motor with the given
// pole pairs. The q-axis current reference never exceeds maxCurrent in
// magnitude.
func NewSpeedController(
	busVoltage, polePairs, maxCurrent float64,
) (*SpeedController, error) {
	if !(polePairs > 0) {
		return nil, fmt.Errorf("pole pairs must be positive, got %g", polePairs)
	}

	if !(maxCurrent > 0) || math.IsInf(maxCurrent, 0) {
		return nil, fmt.Errorf("max current must be positive, got %g", maxCurrent)
	}

	current, err := NewController(busVoltage)
	if err != nil {
		return nil, err
	}

	speed, err := pid.NewRegulator(pid.Tunings{
		OutputMin: -maxCurrent,
		OutputMax: maxCurrent,
	})
	if err != nil {
		return nil, err
	}

	return &SpeedController{
		current:    current,
		speed:      speed,
		polePairs:  polePairs,
		maxCurrent: maxCurrent,
	}, nil
}

// SetTunings sets the speed loop gains, in A/(rad/s), and the current loop
// gains. Only the current loop gains are normalized by the bus voltage.
func (c *SpeedController) SetTunings(speed, current Gains) error {
	err := c.speed.SetTunings(pid.Tunings{
		Kp:        speed.Kp,
		Ki:        speed.Ki,
		OutputMin: -c.maxCurrent,
		OutputMax: c.maxCurrent,
	})
	if err != nil {
		return err
	}

	return c.current.SetTunings(current, current)
}

// SetPoint sets the mechanical speed reference in rad/s.
func (c *SpeedController) SetPoint(omegaRef float64) {
	c.speed.SetPoint(omegaRef)
}

// Calculate runs one speed step followed by one current step and returns the
// duty cycles in percent.
func (c *SpeedController) Calculate(
	currents transforms.ThreePhase,
	thetaE float64,
	dt float64,
) transforms.ThreePhase {
	c.measured = c.estimateSpeed(thetaE, dt)

	iqRef := c.heldCurrent
	if c.speed.IsEnabled() {
		iqRef = c.speed.Process(c.measured, dt)
	}

	c.current.SetPoint(0, iqRef)
	c.countHold()

	return c.current.Calculate(currents, thetaE, dt)
}

// HoldCurrent suspends the speed loop. Until ResumeSpeed is called, the
// q-axis current reference is iqRef limited to the maximum current.
func (c *SpeedController) HoldCurrent(iqRef float64) {
	c.speed.Disable()
	c.heldCurrent = math.Max(-c.maxCurrent, math.Min(c.maxCurrent, iqRef))
	c.holdForSteps = false
}

// HoldCurrentFor holds the current reference for the given number of steps
// and then resumes the speed loop. Zero steps leaves the speed loop running.
func (c *SpeedController) HoldCurrentFor(iqRef float64, steps uint64) {
	if steps == 0 {
		c.ResumeSpeed()
		return
	}

	c.HoldCurrent(iqRef)
	c.holdSteps = steps
	c.holdForSteps = true
}

// ResumeSpeed restarts the speed loop from a cleared accumulator.
func (c *SpeedController) ResumeSpeed() {
	c.speed.Enable()
	c.heldCurrent = 0
	c.holdSteps = 0
	c.holdForSteps = false
}

// SpeedLoopEnabled tells if the speed regulator drives the current
// reference.
func (c *SpeedController) SpeedLoopEnabled() bool {
	return c.speed.IsEnabled()
}

func (c *SpeedController) countHold() {
	if !c.holdForSteps {
		return
	}

	c.holdSteps--
	if c.holdSteps == 0 {
		c.ResumeSpeed()
	}
}

// estimateSpeed differentiates the electrical angle. The angle delta is
// unwrapped into (-π, π], so the rotor must turn less than half an
// electrical revolution per step.
func (c *SpeedController) estimateSpeed(thetaE, dt float64) float64 {
	if !c.primed {
		c.previousAngle = thetaE
		c.primed = true

		return 0
	}

	delta := thetaE - c.previousAngle
	if delta > math.Pi {
		delta -= 2 * math.Pi
	} else if delta <= -math.Pi {
		delta += 2 * math.Pi
	}

	c.previousAngle = thetaE

	return delta / dt / c.polePairs
}

// Reset clears all accumulators and the angle memory.
func (c *SpeedController) Reset() {
	c.speed.Reset()
	c.current.Reset()
	c.primed = false
	c.measured = 0
}

// MeasuredSpeed returns the mechanical speed estimated by the last step.
func (c *SpeedController) MeasuredSpeed() float64 {
	return c.measured
}

// Measured returns the rotor-frame currents seen by the last step.
func (c *SpeedController) Measured() transforms.RotatingFrame {
	return c.current.Measured()
}

// CurrentReference returns the q-axis current requested by the speed loop.
func (c *SpeedController) CurrentReference() float64 {
	return c.current.q.GetSetPoint()
}
