package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MalithGihan/flowviz-service/internal/config"
	"github.com/MalithGihan/flowviz-service/internal/graphsvc"
	"github.com/MalithGihan/flowviz-service/internal/logging"
	"github.com/MalithGihan/flowviz-service/internal/store"
)

var keepFiles bool

func init() {
	clearCmd.Flags().BoolVar(&keepFiles, "keep-files", false, "leave staged uploads and exports on disk")
	rootCmd.AddCommand(clearCmd)
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Reset the graph service and purge the data root",
	Args:  cobra.NoArgs,
	RunE:  runClear,
}

func runClear(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := logging.NewDevelopment()
	defer logger.Sync()

	client := graphsvc.New(cfg.GraphServiceURL,
		graphsvc.WithTimeout(cfg.UpstreamTimeout),
		graphsvc.WithLogger(logger),
	)
	if err := client.Clear(cmd.Context()); err != nil {
		return err
	}
	removed := 0
	if !keepFiles {
		st, err := store.New(cfg.DataRoot)
		if err != nil {
			return err
		}
		if removed, err = st.Purge(); err != nil {
			return err
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "graph cleared, %d session directories removed\n", removed)
	return nil
}
