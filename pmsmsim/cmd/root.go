// Package cmd provides the command-line interface of pmsmsim.
package cmd

import (
	"fmt"
	"os"

	"github.com/sarchlab/pmsmsim/config"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

var envFiles []string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pmsmsim",
	Short: "pmsmsim simulates field-oriented control of a PMSM.",
	Long: `pmsmsim simulates a permanent-magnet synchronous motor driven by ` +
		`a field-oriented current controller with space-vector modulation. ` +
		`It runs single scenarios, sweeps controller tunings, and reports on ` +
		`recorded runs.`,
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		return config.LoadEnv(envFiles...)
	},
}

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file",
		[]string{".env"}, "Environment files to load before running.")
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
