package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	errs "github.com/matzehuels/semtiles/pkg/errors"
	"github.com/matzehuels/semtiles/pkg/graph"
	"github.com/matzehuels/semtiles/pkg/pipeline"
	"github.com/matzehuels/semtiles/pkg/tessellate"
)

// visualizeCommand creates the visualize command for rendering a layout
// file produced by 'layout' or 'render -f json'.
func (c *CLI) visualizeCommand() *cobra.Command {
	var (
		formatsStr string
		output     string
		opts       pipeline.Options
	)

	cmd := &cobra.Command{
		Use:   "visualize [layout.json]",
		Short: "Render a computed layout",
		Long: `Render a computed layout.

Positions are taken from the layout file as they are and the tessellation is
rebuilt for its frame, so this step neither contacts the store nor moves any
domain. DOT output has no distance edges.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Formats = parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(opts.Formats); err != nil {
				return err
			}
			return c.runVisualize(cmd.Context(), args[0], opts, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), png, pdf, json, dot (comma-separated)")
	cmd.Flags().BoolVar(&opts.NoLabels, "no-labels", false, "omit domain labels")
	cmd.Flags().BoolVar(&opts.Static, "static", false, "omit interactive glyphs from SVG output")
	cmd.Flags().StringVar(&opts.Title, "title", "", "document title")

	return cmd
}

func (c *CLI) runVisualize(ctx context.Context, input string, opts pipeline.Options, output string) error {
	l, err := graph.ReadLayoutFile(input)
	if err != nil {
		return errs.Wrap(errs.ErrCodeInvalidInput, err, "load layout %s", input)
	}
	opts.Width, opts.Height, opts.Seed = l.Width, l.Height, l.Seed
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}

	res := l.Result()
	ts := tessellate.Build(res, l.Width, l.Height)

	spinner := newSpinnerWithContext(ctx, "Rendering "+pluralize(len(res.Nodes), "domain")+"...")
	spinner.Start()
	artifacts, err := pipeline.Render(ctx, res, nil, ts, opts)
	if err != nil {
		spinner.StopWithError("Visualization failed")
		return err
	}
	spinner.Stop()

	if output == "" {
		output = strings.TrimSuffix(outputBase("", pipeline.Options{Input: input}), ".layout")
	}
	return writeArtifacts(artifacts, opts.Formats, output)
}
