package cmd

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"text/tabwriter"

	"github.com/sarchlab/pmsmsim/analysis"
	"github.com/sarchlab/pmsmsim/config"
	"github.com/sarchlab/pmsmsim/foc"
	"github.com/sarchlab/pmsmsim/sim"
	"github.com/sarchlab/pmsmsim/tracing"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run a scenario for a range of current loop bandwidths.",
	Long: "`sweep` tunes the current regulators for each bandwidth with " +
		"Kp = wc*L and Ki = wc*R, runs the scenario once per bandwidth in " +
		"parallel, and prints one summary row per run.",
	RunE: func(c *cobra.Command, _ []string) error {
		s, err := loadScenario(c)
		if err != nil {
			return err
		}

		bandwidths, _ := c.Flags().GetFloat64Slice("bandwidth")
		jobs, _ := c.Flags().GetInt("jobs")

		rows, err := sweep(c.Context(), s, bandwidths, jobs)
		if err != nil {
			return err
		}

		return printSweep(c.OutOrStdout(), rows, s.Criteria)
	},
}

func init() {
	rootCmd.AddCommand(sweepCmd)
	addScenarioFlags(sweepCmd)

	f := sweepCmd.Flags()
	f.Float64Slice("bandwidth", []float64{1000, 2000, 5000, 10000},
		"Current loop bandwidths in rad/s.")
	f.Int("jobs", runtime.NumCPU(), "Number of runs in parallel.")
}

type sweepRow struct {
	Bandwidth float64
	Gains     config.CurrentGains
	Report    analysis.Report
}

// bandwidthGains places the current loop crossover at wc by cancelling the
// electrical pole of each axis.
func bandwidthGains(s config.Scenario, wc float64) (config.CurrentGains, error) {
	p, err := s.Parameters()
	if err != nil {
		return config.CurrentGains{}, err
	}

	return config.CurrentGains{
		D: foc.Gains{Kp: wc * p.Ld, Ki: wc * p.Resistance},
		Q: foc.Gains{Kp: wc * p.Lq, Ki: wc * p.Resistance},
	}, nil
}

func sweep(
	ctx context.Context,
	base config.Scenario,
	bandwidths []float64,
	jobs int,
) ([]sweepRow, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	rows := make([]sweepRow, len(bandwidths))

	g, ctx := errgroup.WithContext(ctx)
	if jobs > 0 {
		g.SetLimit(jobs)
	}

	for i, wc := range bandwidths {
		i, wc := i, wc
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			s := base

			gains, err := bandwidthGains(s, wc)
			if err != nil {
				return err
			}
			s.CurrentGains = gains

			report, err := simulateInMemory(s)
			if err != nil {
				return fmt.Errorf("bandwidth %g: %w", wc, err)
			}

			rows[i] = sweepRow{Bandwidth: wc, Gains: gains, Report: report}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return rows, nil
}

// simulateInMemory runs a scenario on its own engine without any outputs.
func simulateInMemory(s config.Scenario) (analysis.Report, error) {
	engine := sim.NewSerialEngine()

	comp, err := s.BuildLoop(engine)
	if err != nil {
		return analysis.Report{}, err
	}

	memory := tracing.NewMemoryBackend()
	tracing.CollectSamples(comp, tracing.NewSampleTracer(memory, 1))

	comp.Start()

	if err := engine.Run(); err != nil {
		return analysis.Report{}, err
	}

	return analysis.Analyze(memory.Samples(), s.Output.Window)
}

func printSweep(w io.Writer, rows []sweepRow, criteria analysis.Criteria) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, "wc (rad/s)\tKp\tKi\tmean id\tmean iq\timbalance\tspeed\tresult")

	for _, r := range rows {
		result := "ok"
		if err := r.Report.Verify(criteria); err != nil {
			result = "fail"
		}

		fmt.Fprintf(tw, "%g\t%.4g\t%.4g\t%.4f\t%.4f\t%.2f%%\t%.2f\t%s\n",
			r.Bandwidth,
			r.Gains.Q.Kp, r.Gains.Q.Ki,
			r.Report.MeanId, r.Report.MeanIq,
			r.Report.Imbalance*100,
			r.Report.MeanOmega,
			result,
		)
	}

	return tw.Flush()
}
