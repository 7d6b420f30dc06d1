package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/topoviz/topoviz/pkg/pipeline"
	"github.com/topoviz/topoviz/pkg/scene"
)

// layoutCommand creates the layout command for computing topology layouts.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output  string
		noCache bool
	)
	opts := c.pipelineOptions()

	cmd := &cobra.Command{
		Use:   "layout [scene.json]",
		Short: "Compute a circle-packed layout for a topology scene",
		Long: `Compute a circle-packed layout for a topology scene.

The layout command takes a scene file (JSON or YAML) describing vertices and
edges, builds the containment hierarchy, packs every group's children into
its circle, routes the edges, and writes the resulting layout document. The
output can be rendered to SVG/PNG/DOT using the 'render' command.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(cmd.Context(), args[0], opts, output, noCache)
		},
	}

	// Common flags
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "recompute even when cached")

	// Layout flags
	cmd.Flags().StringVarP(&opts.Algorithm, "algorithm", "a", opts.Algorithm, "layout algorithm: pack (default), bottomup")
	cmd.Flags().Float64Var(&opts.Padding, "padding", opts.Padding, "padding between sibling circles")
	cmd.Flags().Float64Var(&opts.LeafRadius, "leaf-radius", opts.LeafRadius, "radius of leaf circles")
	cmd.Flags().Float64Var(&opts.ViewportWidth, "width", opts.ViewportWidth, "viewport width")
	cmd.Flags().Float64Var(&opts.ViewportHeight, "height", opts.ViewportHeight, "viewport height")

	return cmd
}

// runLayout loads the scene, runs the pipeline without artifacts, and writes
// the layout document.
func (c *CLI) runLayout(ctx context.Context, input string, opts pipeline.Options, output string, noCache bool) error {
	sc, err := scene.LoadScene(input)
	if err != nil {
		return fmt.Errorf("load scene %s: %w", input, err)
	}

	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.Logger = c.Logger
	opts.LayoutOnly = true

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Computing %s layout...", opts.Algorithm))
	spinner.Start()

	result, err := runner.Execute(ctx, sc, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return fmt.Errorf("compute layout: %w", err)
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	outputPath := output
	if outputPath == "" {
		base := strings.TrimSuffix(input, filepath.Ext(input))
		outputPath = base + ".layout.json"
	}

	if err := scene.ExportLayout(result.Layout, outputPath); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Layout complete")
	printFile(outputPath)
	printStats(result.Stats.NodeCount, result.Stats.EdgeCount, result.Stats.SkippedEdges, result.CacheInfo.LayoutHit)
	printNewline()
	printNextStep("Render", "topoviz render "+input)

	return nil
}
