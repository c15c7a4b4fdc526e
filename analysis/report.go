// Package analysis summarizes the steady state of a recorded run.
package analysis

import (
	"errors"
	"fmt"
	"math"

	"github.com/sarchlab/pmsmsim/loop"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ErrNoSamples is returned when there is nothing to analyze.
var ErrNoSamples = errors.New("no samples to analyze")

// ErrCriteriaNotMet is wrapped by the errors returned from Verify.
var ErrCriteriaNotMet = errors.New("steady-state criteria not met")

// DefaultWindow is the fraction of the run, counted from the end, that is
// treated as steady state.
const DefaultWindow = 0.2

// Report describes the steady-state window of a run.
type Report struct {
	Samples   int
	StartTime float64
	EndTime   float64

	RMSA, RMSB, RMSC float64

	// Imbalance is the spread of the phase RMS values relative to their mean.
	Imbalance float64

	MeanId, MeanIq float64
	StdIq          float64
	MeanOmega      float64
	MeanTorque     float64

	// MaxPhaseSum is the largest |ia + ib + ic| seen in the window.
	MaxPhaseSum float64

	// Diverged is set when any value in the window is not finite.
	Diverged bool
}

// Analyze builds a Report over the last fraction of the samples. A fraction
// outside (0, 1] falls back to DefaultWindow.
func Analyze(samples []loop.Sample, fraction float64) (Report, error) {
	if len(samples) == 0 {
		return Report{}, ErrNoSamples
	}

	if !(fraction > 0 && fraction <= 1) {
		fraction = DefaultWindow
	}

	n := int(math.Ceil(float64(len(samples)) * fraction))
	window := samples[len(samples)-n:]

	cols := columnsOf(window)

	r := Report{
		Samples:    n,
		StartTime:  window[0].Time,
		EndTime:    window[n-1].Time,
		RMSA:       rms(cols.ia),
		RMSB:       rms(cols.ib),
		RMSC:       rms(cols.ic),
		MeanId:     stat.Mean(cols.id, nil),
		MeanIq:     stat.Mean(cols.iq, nil),
		MeanOmega:  stat.Mean(cols.omega, nil),
		MeanTorque: stat.Mean(cols.torque, nil),
	}

	if n > 1 {
		r.StdIq = stat.StdDev(cols.iq, nil)
	}

	phaseRMS := []float64{r.RMSA, r.RMSB, r.RMSC}
	meanRMS := stat.Mean(phaseRMS, nil)
	if meanRMS > 0 {
		r.Imbalance = (floats.Max(phaseRMS) - floats.Min(phaseRMS)) / meanRMS
	}

	sum := make([]float64, n)
	floats.Add(sum, cols.ia)
	floats.Add(sum, cols.ib)
	floats.Add(sum, cols.ic)
	for i := range sum {
		sum[i] = math.Abs(sum[i])
	}
	r.MaxPhaseSum = floats.Max(sum)

	r.Diverged = !allFinite(sum, cols.omega, cols.iq, cols.id)

	return r, nil
}

type columns struct {
	ia, ib, ic    []float64
	id, iq        []float64
	omega, torque []float64
}

func columnsOf(samples []loop.Sample) columns {
	n := len(samples)
	c := columns{
		ia:     make([]float64, n),
		ib:     make([]float64, n),
		ic:     make([]float64, n),
		id:     make([]float64, n),
		iq:     make([]float64, n),
		omega:  make([]float64, n),
		torque: make([]float64, n),
	}

	for i, s := range samples {
		c.ia[i] = s.Ia
		c.ib[i] = s.Ib
		c.ic[i] = s.Ic
		c.id[i] = s.IdMeas
		c.iq[i] = s.IqMeas
		c.omega[i] = s.Omega
		c.torque[i] = s.Torque
	}

	return c
}

func rms(x []float64) float64 {
	return math.Sqrt(floats.Dot(x, x) / float64(len(x)))
}

func allFinite(cols ...[]float64) bool {
	for _, col := range cols {
		for _, v := range col {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}

	return true
}

// Criteria bounds what an acceptable steady state looks like.
type Criteria struct {
	IqRef        float64 `yaml:"iq_ref"`
	IqTolerance  float64 `yaml:"iq_tolerance"`
	IdTolerance  float64 `yaml:"id_tolerance"`
	MaxImbalance float64 `yaml:"max_imbalance"`
}

// Verify checks the report against the criteria. Zero tolerances are not
// checked. All the violations are reported together.
func (r Report) Verify(c Criteria) error {
	if r.Diverged {
		return fmt.Errorf("%w: simulation diverged", ErrCriteriaNotMet)
	}

	var errs []error

	if c.IqTolerance > 0 && math.Abs(r.MeanIq-c.IqRef) > c.IqTolerance {
		errs = append(errs, fmt.Errorf(
			"%w: mean iq %.4f A is not within %.4f A of %.4f A",
			ErrCriteriaNotMet, r.MeanIq, c.IqTolerance, c.IqRef))
	}

	if c.IdTolerance > 0 && math.Abs(r.MeanId) > c.IdTolerance {
		errs = append(errs, fmt.Errorf(
			"%w: mean id %.4f A exceeds %.4f A",
			ErrCriteriaNotMet, r.MeanId, c.IdTolerance))
	}

	if c.MaxImbalance > 0 && r.Imbalance > c.MaxImbalance {
		errs = append(errs, fmt.Errorf(
			"%w: phase imbalance %.2f%% exceeds %.2f%%",
			ErrCriteriaNotMet, r.Imbalance*100, c.MaxImbalance*100))
	}

	return errors.Join(errs...)
}

// String renders the report as a short human-readable summary.
func (r Report) String() string {
	return fmt.Sprintf(
		"window %.4f-%.4f s (%d samples)\n"+
			"  phase RMS   a=%.4f b=%.4f c=%.4f A (imbalance %.2f%%)\n"+
			"  mean id/iq  %.4f / %.4f A (iq std %.4f)\n"+
			"  mean speed  %.3f rad/s, torque %.5f N*m\n"+
			"  max |ia+ib+ic| %.3g A",
		r.StartTime, r.EndTime, r.Samples,
		r.RMSA, r.RMSB, r.RMSC, r.Imbalance*100,
		r.MeanId, r.MeanIq, r.StdIq,
		r.MeanOmega, r.MeanTorque,
		r.MaxPhaseSum,
	)
}
