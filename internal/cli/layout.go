package cli

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/semtiles/internal/config"
	errs "github.com/matzehuels/semtiles/pkg/errors"
	"github.com/matzehuels/semtiles/pkg/graph"
	"github.com/matzehuels/semtiles/pkg/pipeline"
	"github.com/matzehuels/semtiles/pkg/tessellate"
)

// layoutCommand creates the layout command, which computes positions (and
// optionally cell polygons) without rendering.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output   string
		polygons bool
		vp       viewportFlags
		opts     pipeline.Options
	)

	cmd := &cobra.Command{
		Use:   "layout [listing.json]",
		Short: "Compute domain positions for one hierarchy level",
		Long: `Compute domain positions for one hierarchy level.

The output is a layout file (the same format as 'render -f json') that can be
rendered with 'visualize'. With --polygons every cell carries its polygon.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.Input = args[0]
			}
			vp.apply(c.Config(), &opts)
			return c.runLayout(cmd.Context(), opts, output, polygons)
		},
	}

	cmd.Flags().StringVar(&opts.ParentID, "parent", "", "parent domain id (default: top level)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().BoolVar(&polygons, "polygons", false, "include cell polygons")
	vp.register(cmd)

	return cmd
}

func (c *CLI) runLayout(ctx context.Context, opts pipeline.Options, output string, polygons bool) error {
	opts.Formats = []string{pipeline.FormatJSON}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}

	rt, err := c.newRuntime(ctx, false, false)
	if err != nil {
		return err
	}
	defer rt.Close()

	st := newStageTimer(c.Logger)
	listing, stale, err := rt.runner.Fetch(ctx, opts)
	if err != nil {
		return err
	}
	st.mark("fetch")
	if stale {
		printStale()
	}

	res, g := rt.runner.Layout(ctx, listing, opts)
	var ts *tessellate.Tessellation
	if polygons {
		ts = tessellate.Build(res, opts.Width, opts.Height)
	}
	st.mark("layout")
	st.done("Computed layout")

	path := output
	if path == "" {
		path = outputBase("", opts) + ".layout.json"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errs.Wrap(errs.ErrCodeInvalidPath, err, "create %s", dir)
		}
	}
	if err := graph.WriteLayoutFile(graph.FromResult(res, opts.Seed, ts), path); err != nil {
		return errs.Wrap(errs.ErrCodeInvalidPath, err, "write %s", path)
	}

	printSuccess("Layout complete")
	printFile(path)
	printStats(len(res.Nodes), g.Len(), string(res.Strategy), false)
	printNewline()
	printNextStep("Render", config.AppName+" visualize "+path)
	return nil
}
