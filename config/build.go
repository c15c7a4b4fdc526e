package config

import (
	"github.com/sarchlab/pmsmsim/foc"
	"github.com/sarchlab/pmsmsim/loop"
	"github.com/sarchlab/pmsmsim/pmsm"
	"github.com/sarchlab/pmsmsim/sim"
)

// LoopName is the name of the control loop component.
const LoopName = "Loop"

// BuildLoop creates the motor, the controller, and the control loop that the
// scenario describes, on the given engine.
func (s Scenario) BuildLoop(engine sim.Engine) (*loop.Comp, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	params, err := s.Parameters()
	if err != nil {
		return nil, err
	}

	plant, err := pmsm.NewPlant(params, s.TimeStep)
	if err != nil {
		return nil, err
	}

	if s.InitialState != nil {
		plant.SetState(*s.InitialState)
	}

	controller, err := s.buildController(params)
	if err != nil {
		return nil, err
	}

	comp := loop.MakeBuilder().
		WithEngine(engine).
		WithPlant(plant).
		WithController(controller).
		WithSteps(s.Steps).
		Build(LoopName)

	return comp, nil
}

func (s Scenario) buildController(params pmsm.Parameters) (loop.Controller, error) {
	if s.Mode == ModeSpeed {
		c, err := foc.NewSpeedController(
			params.BusVoltage, params.PolePairs, s.Speed.MaxCurrent)
		if err != nil {
			return nil, err
		}

		err = c.SetTunings(s.Speed.Gains, s.CurrentGains.Q)
		if err != nil {
			return nil, err
		}

		c.SetPoint(s.Speed.OmegaRef)
		c.HoldCurrentFor(s.Speed.Startup.Current, s.Speed.Startup.Steps)

		return c, nil
	}

	c, err := foc.NewController(params.BusVoltage)
	if err != nil {
		return nil, err
	}

	err = c.SetTunings(s.CurrentGains.D, s.CurrentGains.Q)
	if err != nil {
		return nil, err
	}

	c.SetPoint(s.Torque.IdRef, s.Torque.IqRef)

	return c, nil
}
