package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/topoviz/topoviz/pkg/pipeline"
	"github.com/topoviz/topoviz/pkg/scene"
)

// renderCommand creates the render command for producing visual artifacts.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		output     string
		formatsStr string
		noCache    bool
	)
	opts := c.pipelineOptions()

	cmd := &cobra.Command{
		Use:   "render [scene.json]",
		Short: "Render a topology scene to SVG, PNG, DOT, or JSON",
		Long: `Render a topology scene to one or more artifact formats.

The render command runs the full pipeline: hierarchy construction, circle
packing, edge routing, viewport fitting, and artifact generation. Formats
are comma-separated; each produces its own output file next to the input
(or under --output as a base path).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if formatsStr != "" {
				opts.Formats = parseFormats(formatsStr)
			}
			opts.SetRenderDefaults()
			return c.runRender(cmd.Context(), args[0], opts, output, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), png, dot, json (comma-separated)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "recompute even when cached")
	cmd.Flags().StringVarP(&opts.Algorithm, "algorithm", "a", opts.Algorithm, "layout algorithm: pack (default), bottomup")
	cmd.Flags().Float64Var(&opts.Padding, "padding", opts.Padding, "padding between sibling circles")
	cmd.Flags().Float64Var(&opts.LeafRadius, "leaf-radius", opts.LeafRadius, "radius of leaf circles")
	cmd.Flags().Float64Var(&opts.ViewportWidth, "width", opts.ViewportWidth, "viewport width")
	cmd.Flags().Float64Var(&opts.ViewportHeight, "height", opts.ViewportHeight, "viewport height")
	cmd.Flags().BoolVar(&opts.Labels, "labels", opts.Labels, "draw vertex labels")
	cmd.Flags().BoolVar(&opts.Detailed, "detailed", false, "include vertex attributes in DOT labels")

	return cmd
}

// runRender executes the pipeline and writes one file per requested format.
func (c *CLI) runRender(ctx context.Context, input string, opts pipeline.Options, output string, noCache bool) error {
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

	spinner := newSpinnerWithContext(ctx, "Rendering topology...")
	spinner.Start()

	result, err := runner.Execute(ctx, sc, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return fmt.Errorf("render: %w", err)
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	base := renderBasePath(output, input)
	var written []string
	for _, format := range opts.Formats {
		data, ok := result.Artifacts[format]
		if !ok {
			continue
		}
		var path string
		if output != "" && len(opts.Formats) == 1 {
			path = output
		} else {
			path = base + "." + format
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		written = append(written, path)
	}

	printSuccess("Render complete")
	for _, path := range written {
		printFile(path)
	}
	printStats(result.Stats.NodeCount, result.Stats.EdgeCount, result.Stats.SkippedEdges, result.CacheInfo.RenderHit)
	if result.Stats.SkippedEdges > 0 {
		printWarning("%d edge(s) dropped: missing endpoints", result.Stats.SkippedEdges)
	}

	return nil
}

// renderBasePath derives the base output path from the output and input
// file paths, stripping a known format extension when present.
func renderBasePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if pipeline.ValidateFormat(strings.TrimPrefix(ext, ".")) == nil {
		return strings.TrimSuffix(output, ext)
	}
	return output
}
