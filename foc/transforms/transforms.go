// Package transforms provides the Clarke and Park coordinate transforms that
// are shared by the motor model and the field-oriented controller.
package transforms

import "math"

const (
	twoThirds = 2.0 / 3.0
	half      = 0.5
	sqrt3Div2 = 0.86602540378443864676
	twoPi     = 2 * math.Pi
)

// ThreePhase holds one value per motor phase. Depending on the context, the
// values are phase currents, phase voltages, or duty cycles.
type ThreePhase struct {
	A, B, C float64
}

// TwoPhase holds a quantity in the stationary alpha/beta frame.
type TwoPhase struct {
	Alpha, Beta float64
}

// RotatingFrame holds a quantity in the rotor-synchronous d/q frame.
type RotatingFrame struct {
	D, Q float64
}

// Clarke converts three phase quantities into the stationary frame using the
// amplitude-invariant scaling. The zero-sequence component is discarded.
func Clarke(in ThreePhase) TwoPhase {
	return TwoPhase{
		Alpha: twoThirds * (in.A - half*in.B - half*in.C),
		Beta:  twoThirds * (sqrt3Div2*in.B - sqrt3Div2*in.C),
	}
}

// InverseClarke converts a stationary-frame quantity back into three phases.
func InverseClarke(in TwoPhase) ThreePhase {
	return ThreePhase{
		A: in.Alpha,
		B: -half*in.Alpha + sqrt3Div2*in.Beta,
		C: -half*in.Alpha - sqrt3Div2*in.Beta,
	}
}

// Park rotates a stationary-frame quantity into the d/q frame. The cosine and
// sine of the electrical angle are passed in so that callers can reuse them
// for the matching inverse transform.
func Park(in TwoPhase, cosTheta, sinTheta float64) RotatingFrame {
	return RotatingFrame{
		D: in.Alpha*cosTheta + in.Beta*sinTheta,
		Q: -in.Alpha*sinTheta + in.Beta*cosTheta,
	}
}

// InversePark rotates a d/q quantity back into the stationary frame.
func InversePark(in RotatingFrame, cosTheta, sinTheta float64) TwoPhase {
	return TwoPhase{
		Alpha: in.D*cosTheta - in.Q*sinTheta,
		Beta:  in.D*sinTheta + in.Q*cosTheta,
	}
}

// ClarkePark applies Clarke followed by Park at the given electrical angle.
func ClarkePark(in ThreePhase, theta float64) RotatingFrame {
	return Park(Clarke(in), math.Cos(theta), math.Sin(theta))
}

// InverseClarkePark applies inverse Park followed by inverse Clarke at the
// given electrical angle.
func InverseClarkePark(in RotatingFrame, theta float64) ThreePhase {
	return InverseClarke(InversePark(in, math.Cos(theta), math.Sin(theta)))
}

// WrapAngle maps any finite angle into [0, 2π). Negative angles wrap from the
// top of the range.
func WrapAngle(theta float64) float64 {
	wrapped := math.Mod(theta, twoPi)
	if wrapped < 0 {
		wrapped += twoPi
	}

	// Adding 2π to a tiny negative remainder can round up to exactly 2π.
	if wrapped >= twoPi {
		wrapped = 0
	}

	return wrapped
}
