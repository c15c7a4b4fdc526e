package cmd

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/sarchlab/pmsmsim/analysis"
	"github.com/sarchlab/pmsmsim/config"
	"github.com/sarchlab/pmsmsim/plotting"
	"github.com/sarchlab/pmsmsim/sim"
	"github.com/sarchlab/pmsmsim/simulation"
	"github.com/sarchlab/pmsmsim/tracing"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one scenario.",
	Long: "`run` simulates one scenario, writes the requested outputs, and " +
		"prints a steady-state summary. Without a scenario file it runs the " +
		"reference torque-mode scenario.",
	RunE: func(c *cobra.Command, _ []string) error {
		s, err := loadScenario(c)
		if err != nil {
			return err
		}

		applyOutputFlags(c, &s)

		if err := s.Validate(); err != nil {
			return err
		}

		logEvents, _ := c.Flags().GetBool("log-events")

		result, err := runScenario(s, logEvents)
		if err != nil {
			return err
		}

		fmt.Fprintf(c.OutOrStdout(), "%s\n", result.Report)

		check, _ := c.Flags().GetBool("check")
		if !check {
			return nil
		}

		if err := result.Report.Verify(s.Criteria); err != nil {
			return err
		}

		fmt.Fprintln(c.OutOrStdout(), "criteria met")

		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	addScenarioFlags(runCmd)

	f := runCmd.Flags()
	f.String("output-dir", "", "Directory for all outputs.")
	f.String("csv", "", "CSV file for the sampled currents; \"-\" disables it.")
	f.String("db", "", "SQLite database name, without extension.")
	f.String("plot", "", "PNG file for the currents and the electrical angle.")
	f.Uint64("decimate", 0, "Record one sample out of this many.")
	f.Bool("monitor", false, "Serve the monitoring API while running.")
	f.Int("monitor-port", 0, "Port of the monitoring server.")
	f.Bool("open-browser", false, "Open the monitoring page in a browser.")
	f.Bool("check", false, "Fail if the steady state misses the criteria.")
	f.Bool("log-events", false, "Print every simulation event to stderr.")
}

func applyOutputFlags(c *cobra.Command, s *config.Scenario) {
	f := c.Flags()

	if f.Changed("output-dir") {
		s.Output.Dir, _ = f.GetString("output-dir")
	}

	if f.Changed("csv") {
		s.Output.CSV, _ = f.GetString("csv")
		if s.Output.CSV == "-" {
			s.Output.CSV = ""
		}
	}

	if f.Changed("db") {
		s.Output.Database, _ = f.GetString("db")
	}

	if f.Changed("plot") {
		s.Output.Plot, _ = f.GetString("plot")
	}

	if f.Changed("decimate") {
		s.Output.Decimation, _ = f.GetUint64("decimate")
	}

	if f.Changed("monitor") {
		s.Monitor.Enabled, _ = f.GetBool("monitor")
	}

	if f.Changed("monitor-port") {
		s.Monitor.Enabled = true
		s.Monitor.Port, _ = f.GetInt("monitor-port")
	}

	if f.Changed("open-browser") {
		s.Monitor.OpenBrowser, _ = f.GetBool("open-browser")
	}
}

type runResult struct {
	Report  analysis.Report
	Samples int
}

// runScenario runs one scenario with all the outputs it asks for.
func runScenario(s config.Scenario, logEvents bool) (runResult, error) {
	if s.Output.Dir != "" {
		if err := os.MkdirAll(s.Output.Dir, 0o755); err != nil {
			return runResult{}, err
		}
	}

	simu := buildSimulation(s)
	defer simu.Terminate()

	if logEvents {
		simu.GetEngine().AcceptHook(
			sim.NewEventLogger(log.New(os.Stderr, "", 0)))
	}

	comp, err := s.BuildLoop(simu.GetEngine())
	if err != nil {
		return runResult{}, err
	}

	simu.RegisterComponent(comp)
	simu.TrackProgress(comp, s.Steps)

	memory := tracing.NewMemoryBackend()
	tracing.CollectSamples(comp, tracing.NewSampleTracer(memory, 1))

	var tracers []*tracing.SampleTracer

	if s.Output.CSV != "" {
		csv := tracing.NewCSVBackend(outputPath(s, s.Output.CSV))
		if err := csv.Init(); err != nil {
			return runResult{}, err
		}
		defer csv.Close()

		tracers = append(tracers,
			tracing.NewSampleTracer(csv, s.Output.Decimation))
	}

	if recorder := simu.GetDataRecorder(); recorder != nil {
		tracers = append(tracers, tracing.NewSampleTracer(
			tracing.NewDBBackend(recorder), s.Output.Decimation))
	}

	for _, t := range tracers {
		tracing.CollectSamples(comp, t)
	}

	comp.Start()

	if err := simu.Run(); err != nil {
		return runResult{}, err
	}

	for _, t := range tracers {
		t.Flush()
	}

	samples := memory.Samples()

	report, err := analysis.Analyze(samples, s.Output.Window)
	if err != nil {
		return runResult{}, err
	}

	if s.Output.Plot != "" {
		fig := plotting.DefaultFigure()
		fig.Title = s.Name

		err := fig.WriteCurrents(samples, outputPath(s, s.Output.Plot))
		if err != nil {
			return runResult{}, err
		}
	}

	return runResult{Report: report, Samples: len(samples)}, nil
}

func buildSimulation(s config.Scenario) *simulation.Simulation {
	b := simulation.MakeBuilder().WithOutputDir(s.Output.Dir)

	if s.Monitor.Enabled {
		b = b.WithMonitorPort(s.Monitor.Port)
		if s.Monitor.OpenBrowser {
			b = b.WithBrowser()
		}
	} else {
		b = b.WithoutMonitoring()
	}

	if s.Output.Database != "" {
		b = b.WithOutputFileName(s.Output.Database)
	} else {
		b = b.WithoutDataRecording()
	}

	return b.Build()
}

func outputPath(s config.Scenario, name string) string {
	if s.Output.Dir == "" || filepath.IsAbs(name) {
		return name
	}

	return filepath.Join(s.Output.Dir, name)
}
