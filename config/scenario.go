// Package config describes a simulation run and loads it from YAML files and
// the environment.
package config

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/sarchlab/pmsmsim/analysis"
	"github.com/sarchlab/pmsmsim/foc"
	"github.com/sarchlab/pmsmsim/pmsm"
)

// ErrInvalidScenario wraps every problem reported by Validate.
var ErrInvalidScenario = errors.New("invalid scenario")

// Control modes.
const (
	ModeTorque = "torque"
	ModeSpeed  = "speed"
)

// Scenario is everything needed to reproduce a run.
type Scenario struct {
	Name     string  `yaml:"name"`
	Motor    Motor   `yaml:"motor"`
	TimeStep float64 `yaml:"time_step"`
	Steps    uint64  `yaml:"steps"`
	Mode     string  `yaml:"mode"`

	Torque TorqueMode `yaml:"torque"`
	Speed  SpeedMode  `yaml:"speed"`

	CurrentGains CurrentGains `yaml:"current_gains"`

	// InitialState replaces the motor state before the first step. Unset
	// means the motor starts at rest.
	InitialState *pmsm.State `yaml:"initial_state,omitempty"`

	Output   Output            `yaml:"output"`
	Monitor  Monitor           `yaml:"monitor"`
	Criteria analysis.Criteria `yaml:"criteria"`
}

// Motor selects a preset and overrides some of its parameters. Override keys
// are the YAML names of the pmsm.Parameters fields.
type Motor struct {
	Preset    string             `yaml:"preset"`
	Overrides map[string]float64 `yaml:"overrides,omitempty"`
}

// TorqueMode holds the current references of the torque mode, in ampere.
type TorqueMode struct {
	IdRef float64 `yaml:"id_ref"`
	IqRef float64 `yaml:"iq_ref"`
}

// SpeedMode holds the settings of the outer speed loop.
type SpeedMode struct {
	OmegaRef   float64   `yaml:"omega_ref"`
	MaxCurrent float64   `yaml:"max_current"`
	Gains      foc.Gains `yaml:"gains"`
	Startup    Startup   `yaml:"startup"`
}

// Startup holds the q-axis current for a number of steps before the speed
// loop takes over. Zero steps disables it.
type Startup struct {
	Current float64 `yaml:"current"`
	Steps   uint64  `yaml:"steps"`
}

// CurrentGains are the physical gains of the two current regulators.
type CurrentGains struct {
	D foc.Gains `yaml:"d"`
	Q foc.Gains `yaml:"q"`
}

// Output tells where the results go. Empty file names disable the output.
type Output struct {
	Dir        string  `yaml:"dir"`
	CSV        string  `yaml:"csv"`
	Database   string  `yaml:"database"`
	Plot       string  `yaml:"plot"`
	Decimation uint64  `yaml:"decimation"`
	Window     float64 `yaml:"window"`
}

// Monitor configures the monitoring server.
type Monitor struct {
	Enabled     bool `yaml:"enabled"`
	Port        int  `yaml:"port"`
	OpenBrowser bool `yaml:"open_browser"`
}

// Default returns the reference torque-mode run: the Maxon EC45 preset under
// a constant load, commanded to 1 A on the q axis for 0.2 s.
func Default() Scenario {
	gains := foc.Gains{Kp: 1.825, Ki: 4300}

	return Scenario{
		Name: "reference",
		Motor: Motor{
			Preset:    "maxon-ec45",
			Overrides: map[string]float64{"load_torque": 0.142},
		},
		TimeStep: 1e-4,
		Steps:    2000,
		Mode:     ModeTorque,
		Torque:   TorqueMode{IdRef: 0, IqRef: 1},
		Speed: SpeedMode{
			OmegaRef:   100,
			MaxCurrent: 2,
			Gains:      foc.Gains{Kp: 0.01, Ki: 0.1},
		},
		CurrentGains: CurrentGains{D: gains, Q: gains},
		Output: Output{
			Dir:        ".",
			CSV:        "currents.csv",
			Decimation: 1,
			Window:     analysis.DefaultWindow,
		},
		Criteria: analysis.Criteria{
			IqRef:        1,
			IqTolerance:  0.05,
			MaxImbalance: 0.05,
		},
	}
}

// Parameters returns the motor parameters after the overrides are applied.
func (s Scenario) Parameters() (pmsm.Parameters, error) {
	p, err := pmsm.Preset(s.Motor.Preset)
	if err != nil {
		return pmsm.Parameters{}, err
	}

	keys := make([]string, 0, len(s.Motor.Overrides))
	for k := range s.Motor.Overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		field, err := parameterField(&p, k)
		if err != nil {
			return pmsm.Parameters{}, err
		}

		*field = s.Motor.Overrides[k]
	}

	return p, nil
}

func parameterField(p *pmsm.Parameters, key string) (*float64, error) {
	switch key {
	case "resistance":
		return &p.Resistance, nil
	case "ld":
		return &p.Ld, nil
	case "lq":
		return &p.Lq, nil
	case "flux_linkage":
		return &p.FluxLinkage, nil
	case "pole_pairs":
		return &p.PolePairs, nil
	case "inertia":
		return &p.Inertia, nil
	case "friction":
		return &p.Friction, nil
	case "bus_voltage":
		return &p.BusVoltage, nil
	case "load_torque":
		return &p.LoadTorque, nil
	}

	return nil, fmt.Errorf("%w: unknown motor parameter %q",
		ErrInvalidScenario, key)
}

// Validate reports every problem of the scenario at once.
func (s Scenario) Validate() error {
	var errs []error

	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format,
			append([]any{ErrInvalidScenario}, args...)...))
	}

	params, err := s.Parameters()
	if err != nil {
		errs = append(errs, err)
	} else if err := params.Validate(); err != nil {
		errs = append(errs, err)
	}

	if !(s.TimeStep > 0) || math.IsInf(s.TimeStep, 0) {
		fail("time step must be positive, got %g", s.TimeStep)
	}

	if s.Steps == 0 {
		fail("steps must be positive")
	}

	switch s.Mode {
	case ModeTorque:
	case ModeSpeed:
		if !(s.Speed.MaxCurrent > 0) {
			fail("speed mode needs a positive max current, got %g",
				s.Speed.MaxCurrent)
		}

		if !gainsValid(s.Speed.Gains) {
			fail("speed gains must be non-negative and finite")
		}

		if c := s.Speed.Startup.Current; math.IsNaN(c) || math.IsInf(c, 0) {
			fail("startup current must be finite, got %g", c)
		}
	default:
		fail("unknown mode %q", s.Mode)
	}

	if !gainsValid(s.CurrentGains.D) || !gainsValid(s.CurrentGains.Q) {
		fail("current gains must be non-negative and finite")
	}

	if w := s.Output.Window; !(w > 0 && w <= 1) {
		fail("analysis window must be in (0, 1], got %g", w)
	}

	if s.Monitor.Port < 0 || s.Monitor.Port > 65535 {
		fail("monitor port %d is out of range", s.Monitor.Port)
	}

	return errors.Join(errs...)
}

func gainsValid(g foc.Gains) bool {
	for _, v := range []float64{g.Kp, g.Ki} {
		if !(v >= 0) || math.IsInf(v, 0) {
			return false
		}
	}

	return true
}
