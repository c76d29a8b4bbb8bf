package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
	version = "dev" // set by build flags
)

var rootCmd = &cobra.Command{
	Use:   "flipsim",
	Short: "Bitflip fault-injection harness for an emulated guest",
	Long: `flipsim drives a running QEMU/GDB-remote guest through randomized and
targeted single-bit fault injections, against RAM or CPU registers, using
snapshots to isolate a targeted injection's blast radius.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(shellCmd)
	rootCmd.AddCommand(scenarioCmd)
	rootCmd.AddCommand(fuzzCmd)
	rootCmd.AddCommand(serveCmd)
}

// Commands are defined in separate files:
// - shellCmd in shell.go
// - scenarioCmd in scenario.go
// - fuzzCmd in fuzz.go
// - serveCmd in serve.go

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
