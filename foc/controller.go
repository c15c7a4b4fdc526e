// Package foc implements field-oriented control of a PMSM. The current
// controller regulates the rotor-frame currents and drives the inverter
// through space-vector modulation. The speed controller adds an outer speed
// loop on top of it.
package foc

import (
	"errors"
	"fmt"
	"math"

	"github.com/sarchlab/pmsmsim/foc/pid"
	"github.com/sarchlab/pmsmsim/foc/svpwm"
	"github.com/sarchlab/pmsmsim/foc/transforms"
)

// ErrInvalidBusVoltage is returned when a controller is created for a bus
// voltage that cannot normalize the regulator gains.
var ErrInvalidBusVoltage = errors.New("bus voltage must be positive")

// MaxNormalizedVoltage is the largest d or q voltage a current regulator may
// request, relative to the bus voltage.
var MaxNormalizedVoltage = 1 / math.Sqrt(3)

// Gains are the physical PI gains of one loop. For the current loop, Kp is in
// V/A and Ki in V/(A·s).
type Gains struct {
	Kp float64 `yaml:"kp"`
	Ki float64 `yaml:"ki"`
}

// Controller is the inner current loop of a field-oriented drive.
type Controller struct {
	busVoltage float64
	d, q       *pid.Regulator
	modulator  svpwm.Modulator

	measured transforms.RotatingFrame
	voltage  transforms.RotatingFrame
}

// NewController creates a current controller with zero gains and zero set
// points.
func NewController(busVoltage float64) (*Controller, error) {
	if !(busVoltage > 0) || math.IsInf(busVoltage, 0) {
		return nil, fmt.Errorf("%w: got %g", ErrInvalidBusVoltage, busVoltage)
	}

	bounds := pid.Tunings{
		OutputMin: -MaxNormalizedVoltage,
		OutputMax: MaxNormalizedVoltage,
	}

	d, err := pid.NewRegulator(bounds)
	if err != nil {
		return nil, err
	}

	q, err := pid.NewRegulator(bounds)
	if err != nil {
		return nil, err
	}

	return &Controller{
		busVoltage: busVoltage,
		d:          d,
		q:          q,
	}, nil
}

// SetTunings sets the gains of the d and q regulators. The gains are stored
// divided by the bus voltage so that the regulators output normalized
// voltages.
func (c *Controller) SetTunings(d, q Gains) error {
	err := c.d.SetTunings(c.normalize(d))
	if err != nil {
		return err
	}

	return c.q.SetTunings(c.normalize(q))
}

func (c *Controller) normalize(g Gains) pid.Tunings {
	return pid.Tunings{
		Kp:        g.Kp / c.busVoltage,
		Ki:        g.Ki / c.busVoltage,
		OutputMin: -MaxNormalizedVoltage,
		OutputMax: MaxNormalizedVoltage,
	}
}

// SetPoint sets the d- and q-axis current references in ampere.
func (c *Controller) SetPoint(idRef, iqRef float64) {
	c.d.SetPoint(idRef)
	c.q.SetPoint(iqRef)
}

// Calculate runs one control step and returns the duty cycles in percent.
func (c *Controller) Calculate(
	currents transforms.ThreePhase,
	thetaE float64,
	dt float64,
) transforms.ThreePhase {
	cosTheta := math.Cos(thetaE)
	sinTheta := math.Sin(thetaE)

	c.measured = transforms.Park(transforms.Clarke(currents), cosTheta, sinTheta)

	c.voltage = transforms.RotatingFrame{
		D: c.d.Process(c.measured.D, dt),
		Q: c.q.Process(c.measured.Q, dt),
	}

	duty := c.modulator.Generate(
		transforms.InversePark(c.voltage, cosTheta, sinTheta))

	return transforms.ThreePhase{
		A: duty.A * 100,
		B: duty.B * 100,
		C: duty.C * 100,
	}
}

// Reset clears both regulator accumulators. The set points are kept.
func (c *Controller) Reset() {
	c.d.Reset()
	c.q.Reset()
}

// Measured returns the rotor-frame currents seen by the last step.
func (c *Controller) Measured() transforms.RotatingFrame {
	return c.measured
}

// Voltage returns the normalized rotor-frame voltage requested by the last
// step.
func (c *Controller) Voltage() transforms.RotatingFrame {
	return c.voltage
}

// BusVoltage returns the bus voltage the gains are normalized with.
func (c *Controller) BusVoltage() float64 {
	return c.busVoltage
}
