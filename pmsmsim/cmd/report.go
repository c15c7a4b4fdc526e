package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/sarchlab/pmsmsim/analysis"
	"github.com/sarchlab/pmsmsim/datarecording"
	"github.com/sarchlab/pmsmsim/loop"
	"github.com/sarchlab/pmsmsim/plotting"
	"github.com/sarchlab/pmsmsim/tracing"
	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report <database>",
	Short: "Summarize a run recorded in a SQLite database.",
	Args:  cobra.ExactArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		samples, err := readSamples(c.Context(), args[0])
		if err != nil {
			return err
		}

		window, _ := c.Flags().GetFloat64("window")

		report, err := analysis.Analyze(samples, window)
		if err != nil {
			return err
		}

		fmt.Fprintf(c.OutOrStdout(), "%s\n", report)

		plot, _ := c.Flags().GetString("plot")
		if plot != "" {
			return plotting.DefaultFigure().WriteCurrents(samples, plot)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)

	f := reportCmd.Flags()
	f.Float64("window", analysis.DefaultWindow,
		"Fraction of the run, from the end, treated as steady state.")
	f.String("plot", "", "PNG file for the currents and the electrical angle.")
}

// readSamples loads the recorded samples in step order.
func readSamples(ctx context.Context, filename string) ([]loop.Sample, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	if !strings.HasSuffix(filename, ".sqlite3") {
		filename += ".sqlite3"
	}

	reader, err := datarecording.NewReader(filename)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	reader.MapTable(tracing.SampleTableName, loop.Sample{})

	rows, _, err := reader.Query(ctx, tracing.SampleTableName,
		datarecording.QueryParams{OrderBy: "Step ASC"})
	if err != nil {
		return nil, err
	}

	samples := make([]loop.Sample, 0, len(rows))
	for _, r := range rows {
		samples = append(samples, *r.(*loop.Sample))
	}

	return samples, nil
}
