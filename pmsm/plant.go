package pmsm

import (
	"fmt"
	"math"

	"github.com/sarchlab/pmsmsim/foc/transforms"
)

// InitialMechanicalAngle is where the rotor starts. A zero angle would put
// the first step on an exact sector boundary.
const InitialMechanicalAngle = 0.1

// State is the part of the motor that evolves over time.
type State struct {
	// Id and Iq are the rotor-frame currents in ampere.
	Id float64 `yaml:"id"`
	Iq float64 `yaml:"iq"`

	// Omega is the mechanical angular velocity in rad/s.
	Omega float64 `yaml:"omega"`

	// ThetaM is the mechanical angle in [0, 2π).
	ThetaM float64 `yaml:"theta_m"`
}

// InitialState returns the state of a motor at rest.
func InitialState() State {
	return State{ThetaM: InitialMechanicalAngle}
}

// A Plant integrates the motor equations with a fixed time step.
type Plant struct {
	params Parameters
	dt     float64

	state  State
	torque float64
}

// NewPlant creates a motor at rest.
func NewPlant(params Parameters, dt float64) (*Plant, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	if !(dt > 0) || math.IsInf(dt, 0) {
		return nil, fmt.Errorf("%w: time step must be positive, got %g",
			ErrInvalidParameter, dt)
	}

	return &Plant{
		params: params,
		dt:     dt,
		state:  InitialState(),
	}, nil
}

// Parameters returns the motor constants.
func (p *Plant) Parameters() Parameters {
	return p.params
}

// TimeStep returns the integration step in seconds.
func (p *Plant) TimeStep() float64 {
	return p.dt
}

// State returns the current state.
func (p *Plant) State() State {
	return p.state
}

// SetState overwrites the state. The angle is wrapped.
func (p *Plant) SetState(s State) {
	s.ThetaM = transforms.WrapAngle(s.ThetaM)
	p.state = s
}

// Reset puts the motor back at rest.
func (p *Plant) Reset() {
	p.state = InitialState()
	p.torque = 0
}

// Torque returns the electromagnetic torque of the last step in N·m.
func (p *Plant) Torque() float64 {
	return p.torque
}

// ElectricalAngle returns the current electrical angle in [0, 2π).
func (p *Plant) ElectricalAngle() float64 {
	return transforms.WrapAngle(p.state.ThetaM * p.params.PolePairs)
}

// Step applies the duty cycles, given in percent, for one time step. It
// returns the phase currents and the electrical angle after the step.
//
// Currents are computed at the angle the step started with, so that the
// caller sees the same rotation the voltages were applied with.
func (p *Plant) Step(duty transforms.ThreePhase) (transforms.ThreePhase, float64) {
	m := p.params
	s := &p.state

	voltages := transforms.ThreePhase{
		A: (duty.A/100 - 0.5) * m.BusVoltage,
		B: (duty.B/100 - 0.5) * m.BusVoltage,
		C: (duty.C/100 - 0.5) * m.BusVoltage,
	}

	thetaE := transforms.WrapAngle(s.ThetaM * m.PolePairs)
	cosTheta := math.Cos(thetaE)
	sinTheta := math.Sin(thetaE)

	v := transforms.Park(transforms.Clarke(voltages), cosTheta, sinTheta)

	omegaE := s.Omega * m.PolePairs
	didt := (v.D - m.Resistance*s.Id + omegaE*m.Lq*s.Iq) / m.Ld
	diqdt := (v.Q - m.Resistance*s.Iq - omegaE*(m.Ld*s.Id+m.FluxLinkage)) / m.Lq
	s.Id += didt * p.dt
	s.Iq += diqdt * p.dt

	p.torque = 1.5 * m.PolePairs *
		(m.FluxLinkage*s.Iq + (m.Ld-m.Lq)*s.Id*s.Iq)

	domegadt := (p.torque - m.Friction*s.Omega - m.LoadTorque) / m.Inertia
	s.Omega += domegadt * p.dt
	s.ThetaM = transforms.WrapAngle(s.ThetaM + s.Omega*p.dt)

	currents := transforms.InverseClarke(transforms.InversePark(
		transforms.RotatingFrame{D: s.Id, Q: s.Iq}, cosTheta, sinTheta))

	return currents, p.ElectricalAngle()
}
