// Package main provides the flowviz CLI: the HTTP service plus offline encode, render
// and clear commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

var configPath string

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "flowviz",
	Short: "Process-map view service",
	Long: `flowviz forwards event logs to the graph service and turns the graph it builds
into Graphviz DOT text, filtered by edge power and labelled by event count or time.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (defaults to $CONFIG_FILE)")
	rootCmd.Version = Version
}
