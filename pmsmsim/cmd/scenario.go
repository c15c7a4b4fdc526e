package cmd

import (
	"github.com/sarchlab/pmsmsim/config"
	"github.com/spf13/cobra"
)

// addScenarioFlags registers the flags that adjust a scenario.
func addScenarioFlags(c *cobra.Command) {
	f := c.Flags()
	f.StringP("config", "c", "", "Scenario file in YAML.")
	f.String("preset", "", "Motor preset name.")
	f.Float64("load-torque", 0, "Constant load torque in N*m.")
	f.Float64("dt", 0, "Simulation time step in seconds.")
	f.Uint64("steps", 0, "Number of control steps.")
	f.String("mode", "", "Control mode, torque or speed.")
	f.Float64("id-ref", 0, "d-axis current reference in A (torque mode).")
	f.Float64("iq-ref", 0, "q-axis current reference in A (torque mode).")
	f.Float64("omega-ref", 0, "Mechanical speed reference in rad/s (speed mode).")
}

// loadScenario reads the scenario file, then applies the environment and the
// command line, in this order.
func loadScenario(c *cobra.Command) (config.Scenario, error) {
	f := c.Flags()

	s := config.Default()

	path, _ := f.GetString("config")
	if path != "" {
		var err error

		s, err = config.Load(path)
		if err != nil {
			return config.Scenario{}, err
		}
	}

	if err := s.ApplyEnv(); err != nil {
		return config.Scenario{}, err
	}

	if f.Changed("preset") {
		s.Motor.Preset, _ = f.GetString("preset")
		s.Motor.Overrides = nil
	}

	if f.Changed("load-torque") {
		v, _ := f.GetFloat64("load-torque")
		if s.Motor.Overrides == nil {
			s.Motor.Overrides = map[string]float64{}
		}
		s.Motor.Overrides["load_torque"] = v
	}

	if f.Changed("dt") {
		s.TimeStep, _ = f.GetFloat64("dt")
	}

	if f.Changed("steps") {
		s.Steps, _ = f.GetUint64("steps")
	}

	if f.Changed("mode") {
		s.Mode, _ = f.GetString("mode")
	}

	if f.Changed("id-ref") {
		s.Torque.IdRef, _ = f.GetFloat64("id-ref")
	}

	if f.Changed("iq-ref") {
		s.Torque.IqRef, _ = f.GetFloat64("iq-ref")
		s.Criteria.IqRef = s.Torque.IqRef
	}

	if f.Changed("omega-ref") {
		s.Speed.OmegaRef, _ = f.GetFloat64("omega-ref")
	}

	return s, s.Validate()
}
