package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MalithGihan/flowviz-service/internal/render"
)

var formatName string

func init() {
	renderCmd.Flags().StringVarP(&formatName, "format", "f", string(render.PNG), "image format: svg or png")
	rootCmd.AddCommand(renderCmd)
}

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a graph JSON document to SVG or PNG",
	Long: `Same filtering and labelling as encode, laid out with Graphviz.

Example:
  flowviz render -i graph.json -f svg -o graph.svg`,
	Args: cobra.NoArgs,
	RunE: runRender,
}

func runRender(cmd *cobra.Command, _ []string) error {
	format, err := render.ParseFormat(formatName)
	if err != nil {
		return err
	}
	dot, err := describeInput()
	if err != nil {
		return err
	}

	g, err := render.NewGraphviz(cmd.Context())
	if err != nil {
		return fmt.Errorf("starting graphviz: %w", err)
	}
	defer g.Close()

	img, err := g.Render(cmd.Context(), dot, format)
	if err != nil {
		return err
	}
	return writeOutput(outputPath, img)
}
