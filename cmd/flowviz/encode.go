package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/MalithGihan/flowviz-service/internal/encode"
	"github.com/MalithGihan/flowviz-service/internal/ingest"
	"github.com/MalithGihan/flowviz-service/pkg/types"
)

var (
	inputPath  string
	outputPath string
	power      int
	labelMode  string
)

func init() {
	for _, c := range []*cobra.Command{encodeCmd, renderCmd} {
		c.Flags().StringVarP(&inputPath, "input", "i", "-", "graph JSON file, - for stdin")
		c.Flags().StringVarP(&outputPath, "output", "o", "-", "output file, - for stdout")
		c.Flags().IntVarP(&power, "power", "p", 100, "edge power percentage, 0 to 100")
		c.Flags().StringVarP(&labelMode, "mode", "m", string(types.LabelEvents), "edge labels: events or time")
	}
	rootCmd.AddCommand(encodeCmd)
}

var encodeCmd = &cobra.Command{
	Use:   "encode",
	Short: "Convert a graph JSON document to DOT",
	Long: `Read a graph document (flat {nodes, edges} or Cytoscape elements), keep the edges
that pass the power threshold and print the DOT description.

Example:
  flowviz encode -i graph.json -p 40 -m time > graph.dot`,
	Args: cobra.NoArgs,
	RunE: runEncode,
}

func runEncode(_ *cobra.Command, _ []string) error {
	dot, err := describeInput()
	if err != nil {
		return err
	}
	return writeOutput(outputPath, []byte(dot+"\n"))
}

func describeInput() (string, error) {
	in := io.Reader(os.Stdin)
	if inputPath != "-" {
		f, err := os.Open(inputPath)
		if err != nil {
			return "", err
		}
		defer f.Close()
		in = f
	}
	g, err := ingest.DecodeGraph(in)
	if err != nil {
		return "", err
	}
	return encode.Describe(g, types.DisplayParameters{
		LabelMode:    types.LabelMode(labelMode),
		PowerPercent: power,
	})
}

func writeOutput(path string, data []byte) error {
	if path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
