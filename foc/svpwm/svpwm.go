// Package svpwm synthesizes three duty cycles from a normalized stationary
// voltage vector using space-vector modulation.
//
// The input vector is normalized by the bus voltage. A vector of magnitude
// 1/√3 is the largest circle the inverter can produce without clipping when
// the zero vectors are split symmetrically.
//
// Sectors are classified against the 0°, 60° and 120° lines. This departs on
// purpose from the reference firmware, whose ordered sector checks leave two
// sectors unreachable and invert the vector near the positive alpha axis.
package svpwm

import (
	"fmt"

	"github.com/sarchlab/pmsmsim/foc/transforms"
)

const (
	sqrt3     = 1.73205080756887729353
	sqrt3Div2 = 0.86602540378443864676
	half      = 0.5
)

// A Sector is one of the six 60-degree wedges between adjacent active
// switching vectors. Sector0 starts at the alpha axis and the numbering
// increases counter-clockwise.
type Sector int

// All the sectors, counter-clockwise from the alpha axis.
const (
	Sector0 Sector = iota
	Sector1
	Sector2
	Sector3
	Sector4
	Sector5
	NumSectors = 6
)

func (s Sector) String() string {
	return fmt.Sprintf("Sector%d", int(s))
}

// sectorTable maps the predicate triple (bit 0: above the 0° line, bit 1:
// below the 60° line, bit 2: left of the 120° line) to a sector. Index 0 is
// geometrically impossible. Index 7 only happens at the origin.
var sectorTable = [8]Sector{
	0: Sector0,
	1: Sector1,
	2: Sector5,
	3: Sector0,
	4: Sector3,
	5: Sector2,
	6: Sector4,
	7: Sector0,
}

// SectorOf classifies a voltage vector. A vector lying exactly on the 60°,
// 180° or 300° line belongs to the sector ending there. On the other three
// lines it belongs to the sector starting there.
func SectorOf(v transforms.TwoPhase) Sector {
	vRef0 := v.Beta
	vRef60 := v.Alpha*sqrt3Div2 - v.Beta*half
	vRef120 := -v.Alpha*sqrt3Div2 - v.Beta*half

	index := 0
	if vRef0 >= 0 {
		index |= 1
	}

	if vRef60 >= 0 {
		index |= 2
	}

	if vRef120 >= 0 {
		index |= 4
	}

	return sectorTable[index]
}

// SwitchingPattern is the on-time of each phase as a fraction of the PWM
// period.
type SwitchingPattern struct {
	Ta, Tb, Tc float64
}

// Sum returns the total on-time of the three phases.
func (p SwitchingPattern) Sum() float64 {
	return p.Ta + p.Tb + p.Tc
}

// sectorTimes computes the dwell times of the two adjacent active vectors
// (t1 for the one at the start of the sector, t2 for the one at the end)
// and places them on the phase slots. Inputs are pre-scaled by √3.
type sectorTimes func(x, y float64) SwitchingPattern

var sectorFormulas = [NumSectors]sectorTimes{
	Sector0: func(x, y float64) SwitchingPattern {
		t1 := sqrt3Div2*x - half*y
		t2 := y
		return SwitchingPattern{Ta: t1 + t2, Tb: t2, Tc: 0}
	},
	Sector1: func(x, y float64) SwitchingPattern {
		t1 := sqrt3Div2*x + half*y
		t2 := -sqrt3Div2*x + half*y
		return SwitchingPattern{Ta: t1, Tb: t1 + t2, Tc: 0}
	},
	Sector2: func(x, y float64) SwitchingPattern {
		t1 := y
		t2 := -sqrt3Div2*x - half*y
		return SwitchingPattern{Ta: 0, Tb: t1 + t2, Tc: t2}
	},
	Sector3: func(x, y float64) SwitchingPattern {
		t1 := -sqrt3Div2*x + half*y
		t2 := -y
		return SwitchingPattern{Ta: 0, Tb: t1, Tc: t1 + t2}
	},
	Sector4: func(x, y float64) SwitchingPattern {
		t1 := -sqrt3Div2*x - half*y
		t2 := sqrt3Div2*x - half*y
		return SwitchingPattern{Ta: t2, Tb: 0, Tc: t1 + t2}
	},
	Sector5: func(x, y float64) SwitchingPattern {
		t1 := -y
		t2 := sqrt3Div2*x + half*y
		return SwitchingPattern{Ta: t1 + t2, Tb: 0, Tc: t1}
	},
}

// Decomposition exposes the intermediate results of one modulation step.
type Decomposition struct {
	Sector Sector

	// Raw holds the active-vector on-times before centering.
	Raw SwitchingPattern

	// ZeroTime is the part of the period not covered by Raw.
	ZeroTime float64

	// Centered is Raw with half of ZeroTime added to every phase, before
	// clamping.
	Centered SwitchingPattern
}

// Modulator converts voltage vectors into duty cycles. It holds no state.
type Modulator struct{}

// Decompose classifies the vector and computes the switching pattern without
// clamping.
func (Modulator) Decompose(v transforms.TwoPhase) Decomposition {
	sector := SectorOf(v)
	raw := sectorFormulas[sector](v.Alpha*sqrt3, v.Beta*sqrt3)

	t0 := 1 - raw.Ta - raw.Tb - raw.Tc
	tCom := t0 / 2

	return Decomposition{
		Sector:   sector,
		Raw:      raw,
		ZeroTime: t0,
		Centered: SwitchingPattern{
			Ta: raw.Ta + tCom,
			Tb: raw.Tb + tCom,
			Tc: raw.Tc + tCom,
		},
	}
}

// Generate returns the duty fraction of each phase, each clamped to [0, 1].
func (m Modulator) Generate(v transforms.TwoPhase) transforms.ThreePhase {
	d := m.Decompose(v)

	return transforms.ThreePhase{
		A: clampUnit(d.Centered.Ta),
		B: clampUnit(d.Centered.Tb),
		C: clampUnit(d.Centered.Tc),
	}
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}

	if v > 1 {
		return 1
	}

	return v
}
