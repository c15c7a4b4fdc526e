// Package pid implements the proportional-integral regulator used by the
// current and speed loops.
package pid

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidTunings is returned when a set of tunings cannot be used.
var ErrInvalidTunings = errors.New("invalid tunings")

// Tunings defines the gains and the output range of a Regulator.
type Tunings struct {
	Kp        float64
	Ki        float64
	OutputMin float64
	OutputMax float64
}

// Validate checks that the gains are finite and the output range is not
// empty.
func (t Tunings) Validate() error {
	values := map[string]float64{
		"kp":         t.Kp,
		"ki":         t.Ki,
		"output min": t.OutputMin,
		"output max": t.OutputMax,
	}
	for name, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s is %v", ErrInvalidTunings, name, v)
		}
	}

	if t.OutputMin > t.OutputMax {
		return fmt.Errorf("%w: output min %g is above output max %g",
			ErrInvalidTunings, t.OutputMin, t.OutputMax)
	}

	return nil
}

// A Regulator is a PI controller with a clamped output.
//
// Only the returned output is clamped. The integral accumulator keeps growing
// while the output is saturated, so a long saturation is followed by an
// overshoot until the accumulator unwinds.
type Regulator struct {
	tunings  Tunings
	setPoint float64
	integral float64
	disabled bool
}

// NewRegulator creates a regulator with the given tunings and a zero set
// point.
func NewRegulator(tunings Tunings) (*Regulator, error) {
	if err := tunings.Validate(); err != nil {
		return nil, err
	}

	return &Regulator{tunings: tunings}, nil
}

// SetPoint sets the reference that the measured value is compared against.
func (r *Regulator) SetPoint(setPoint float64) {
	r.setPoint = setPoint
}

// GetSetPoint returns the current reference.
func (r *Regulator) GetSetPoint() float64 {
	return r.setPoint
}

// SetTunings replaces the gains and the output range. The accumulator is
// kept.
func (r *Regulator) SetTunings(tunings Tunings) error {
	if err := tunings.Validate(); err != nil {
		return err
	}

	r.tunings = tunings

	return nil
}

// Tunings returns the gains and the output range in use.
func (r *Regulator) Tunings() Tunings {
	return r.tunings
}

// Integral returns the accumulated integral term.
func (r *Regulator) Integral() float64 {
	return r.integral
}

// Process runs one regulator step and returns the clamped output.
func (r *Regulator) Process(measured, dt float64) float64 {
	if r.disabled {
		return clamp(0, r.tunings.OutputMin, r.tunings.OutputMax)
	}

	e := r.setPoint - measured
	r.integral += r.tunings.Ki * e * dt
	output := r.tunings.Kp*e + r.integral

	return clamp(output, r.tunings.OutputMin, r.tunings.OutputMax)
}

// Reset zeroes the accumulator. The set point is kept.
func (r *Regulator) Reset() {
	r.integral = 0
}

// Enable resumes processing from a cleared accumulator.
func (r *Regulator) Enable() {
	r.Reset()
	r.disabled = false
}

// Disable makes Process return zero, or the range bound closest to zero,
// without integrating.
func (r *Regulator) Disable() {
	r.disabled = true
}

// IsEnabled tells if the regulator is processing.
func (r *Regulator) IsEnabled() bool {
	return !r.disabled
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}

	if v > hi {
		return hi
	}

	return v
}
