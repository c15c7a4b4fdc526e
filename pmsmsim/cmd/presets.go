package cmd

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/sarchlab/pmsmsim/pmsm"
	"github.com/spf13/cobra"
)

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List the built-in motor presets.",
	RunE: func(c *cobra.Command, _ []string) error {
		presets := pmsm.Presets()

		names := make([]string, 0, len(presets))
		for name := range presets {
			names = append(names, name)
		}
		sort.Strings(names)

		tw := tabwriter.NewWriter(c.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw,
			"name\tR (ohm)\tLd (H)\tLq (H)\tflux (Wb)\tp\tJ (kg*m^2)\tB\tVdc (V)\tload (N*m)")

		for _, name := range names {
			p := presets[name]
			fmt.Fprintf(tw, "%s\t%g\t%g\t%g\t%g\t%g\t%g\t%g\t%g\t%g\n",
				name,
				p.Resistance, p.Ld, p.Lq, p.FluxLinkage, p.PolePairs,
				p.Inertia, p.Friction, p.BusVoltage, p.LoadTorque)
		}

		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(presetsCmd)
}
