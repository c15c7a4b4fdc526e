// Package pmsm models a permanent-magnet synchronous motor fed by a
// three-phase inverter.
package pmsm

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidParameter is returned when a set of motor parameters would make
// the model undefined.
var ErrInvalidParameter = errors.New("invalid motor parameter")

// Parameters are the physical constants of a motor and its supply.
type Parameters struct {
	// Resistance is the phase resistance in ohm.
	Resistance float64 `yaml:"resistance"`

	// Ld and Lq are the d- and q-axis inductances in henry.
	Ld float64 `yaml:"ld"`
	Lq float64 `yaml:"lq"`

	// FluxLinkage is the permanent-magnet flux linkage in weber.
	FluxLinkage float64 `yaml:"flux_linkage"`

	// PolePairs must hold an integer value.
	PolePairs float64 `yaml:"pole_pairs"`

	// Inertia is the rotor inertia in kg·m².
	Inertia float64 `yaml:"inertia"`

	// Friction is the viscous friction coefficient in N·m·s/rad.
	Friction float64 `yaml:"friction"`

	// BusVoltage is the DC link voltage in volt.
	BusVoltage float64 `yaml:"bus_voltage"`

	// LoadTorque is a constant torque opposing the rotation, in N·m.
	LoadTorque float64 `yaml:"load_torque"`
}

// MaxonEC45 returns the parameters of a Maxon EC45-like motor on a 48 V bus.
func MaxonEC45() Parameters {
	return Parameters{
		Resistance:  0.86,
		Ld:          0.365e-3,
		Lq:          0.365e-3,
		FluxLinkage: 0.0253,
		PolePairs:   4,
		Inertia:     1.02e-5,
		Friction:    1.0e-5,
		BusVoltage:  48,
		LoadTorque:  0,
	}
}

// JK42BLS01 returns the parameters of a JK42BLS01-X038ED brushless motor on a
// 24 V bus with a small constant load.
func JK42BLS01() Parameters {
	return Parameters{
		Resistance:  0.073,
		Ld:          0.0005,
		Lq:          0.0005,
		FluxLinkage: 0.007,
		PolePairs:   4,
		Inertia:     7.5e-6,
		Friction:    2e-5,
		BusVoltage:  24,
		LoadTorque:  0.01,
	}
}

// Presets lists the built-in parameter sets by name.
func Presets() map[string]Parameters {
	return map[string]Parameters{
		"maxon-ec45": MaxonEC45(),
		"jk42bls01":  JK42BLS01(),
	}
}

// Preset returns a built-in parameter set by name.
func Preset(name string) (Parameters, error) {
	p, ok := Presets()[name]
	if !ok {
		return Parameters{}, fmt.Errorf("%w: unknown preset %q",
			ErrInvalidParameter, name)
	}

	return p, nil
}

// Validate checks the parameters once, so that the per-step update never has
// to.
func (p Parameters) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"resistance", p.Resistance},
		{"ld", p.Ld},
		{"lq", p.Lq},
		{"flux linkage", p.FluxLinkage},
		{"pole pairs", p.PolePairs},
		{"inertia", p.Inertia},
		{"friction", p.Friction},
		{"bus voltage", p.BusVoltage},
		{"load torque", p.LoadTorque},
	}

	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return fmt.Errorf("%w: %s is %v", ErrInvalidParameter, f.name, f.value)
		}
	}

	positives := []struct {
		name  string
		value float64
	}{
		{"ld", p.Ld},
		{"lq", p.Lq},
		{"inertia", p.Inertia},
		{"bus voltage", p.BusVoltage},
		{"pole pairs", p.PolePairs},
	}

	for _, f := range positives {
		if f.value <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %g",
				ErrInvalidParameter, f.name, f.value)
		}
	}

	if p.PolePairs != math.Trunc(p.PolePairs) {
		return fmt.Errorf("%w: pole pairs must be an integer, got %g",
			ErrInvalidParameter, p.PolePairs)
	}

	if p.Resistance < 0 || p.Friction < 0 {
		return fmt.Errorf("%w: resistance and friction cannot be negative",
			ErrInvalidParameter)
	}

	return nil
}
