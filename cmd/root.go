package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// debug forces verbose console logging regardless of the configured
// output mode. Toggled via the global --debug flag.
var debug bool

// rootCmd is the base command for the macos-bootstrap CLI.
var rootCmd = &cobra.Command{
	Use:           "macos-bootstrap",
	Short:         "One-shot macOS developer machine bootstrap",
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Execute parses arguments and runs the selected command. Configuration
// and usage errors exit with status 2; run outcomes set their own exit
// status before this returns.
func Execute() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(2)
	}
}
