package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	errs "github.com/matzehuels/semtiles/pkg/errors"
	"github.com/matzehuels/semtiles/pkg/pipeline"
	"github.com/matzehuels/semtiles/pkg/render/nodelink"
)

// renderOpts holds the flags of the render command that are not pipeline
// options.
type renderOpts struct {
	output  string
	formats string
	noCache bool
	graph   bool
}

// renderCommand creates the render command: fetch or read one hierarchy
// level, lay it out and write the requested formats.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		ro   renderOpts
		vp   viewportFlags
		opts pipeline.Options
	)

	cmd := &cobra.Command{
		Use:   "render [listing.json]",
		Short: "Render one hierarchy level as a tessellation",
		Long: `Render one hierarchy level as a tessellation.

Without an argument the level is fetched from the domain store: --parent
names the parent domain, and the top level is used when it is empty. With a
listing file the store is not contacted.

Domains without stored positions are placed by similarity when the level has
semantic distances, and on a circle otherwise.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.Input = args[0]
			}
			opts.Formats = parseFormats(ro.formats)
			if err := pipeline.ValidateFormats(opts.Formats); err != nil {
				return err
			}
			vp.apply(c.Config(), &opts)
			return c.runRender(cmd.Context(), opts, ro)
		},
	}

	cmd.Flags().StringVar(&opts.ParentID, "parent", "", "parent domain id (default: top level)")
	cmd.Flags().StringVarP(&ro.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&ro.formats, "format", "f", "", "output format(s): svg (default), png, pdf, json, dot (comma-separated)")
	cmd.Flags().BoolVar(&opts.NoLabels, "no-labels", false, "omit domain labels")
	cmd.Flags().BoolVar(&opts.Static, "static", false, "omit interactive glyphs from SVG output")
	cmd.Flags().StringVar(&opts.Title, "title", "", "document title")
	cmd.Flags().BoolVar(&ro.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "re-render even if cached")
	cmd.Flags().BoolVar(&opts.Sync, "sync", false, "write computed positions back (sync.backend)")
	cmd.Flags().BoolVar(&ro.graph, "graph", false, "also write the distance graph as <output>.graph.svg (Graphviz)")
	vp.register(cmd)

	return cmd
}

func (c *CLI) runRender(ctx context.Context, opts pipeline.Options, ro renderOpts) error {
	rt, err := c.newRuntime(ctx, ro.noCache, opts.Sync)
	if err != nil {
		return err
	}
	defer rt.Close()

	spinner := newSpinnerWithContext(ctx, "Rendering "+levelName(opts)+"...")
	spinner.Start()
	result, err := rt.runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()

	if result.CacheInfo.StaleListing {
		printStale()
	}
	if err := writeArtifacts(result.Artifacts, opts.Formats, outputBase(ro.output, opts)); err != nil {
		return err
	}
	if ro.graph {
		if err := writeDistanceGraph(ctx, result, outputBase(ro.output, opts)); err != nil {
			return err
		}
	}
	printStats(result.Stats.NodeCount, result.Stats.EdgeCount, string(result.Layout.Strategy), result.CacheInfo.RenderHit)

	if opts.Sync && rt.runner.Syncer != nil {
		rt.runner.Syncer.Wait()
		if n := reportSyncFailures(rt); n == 0 {
			printSuccess("Synced %d positions", len(result.Layout.Nodes))
		}
	}
	return nil
}

// levelName describes the level being rendered for status lines.
func levelName(opts pipeline.Options) string {
	switch {
	case opts.Input != "":
		return filepath.Base(opts.Input)
	case opts.ParentID != "":
		return opts.ParentID
	default:
		return "top level"
	}
}

// outputBase returns the path artifacts are written to, without extension.
func outputBase(output string, opts pipeline.Options) string {
	if output != "" {
		return output
	}
	if opts.Input != "" {
		return strings.TrimSuffix(opts.Input, filepath.Ext(opts.Input))
	}
	if opts.ParentID != "" {
		return opts.ParentID
	}
	return "root"
}

// writeArtifacts writes base.<format> for every format. A format extension
// already on base is replaced.
func writeArtifacts(artifacts map[string][]byte, formats []string, base string) error {
	base = trimFormatExt(base)

	var written []string
	for _, f := range formats {
		data, ok := artifacts[f]
		if !ok {
			return errs.New(errs.ErrCodeInternal, "no %s artifact was produced", f)
		}
		path := base + "." + f
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return errs.Wrap(errs.ErrCodeInvalidPath, err, "create %s", dir)
			}
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return errs.Wrap(errs.ErrCodeInvalidPath, err, "write %s", path)
		}
		written = append(written, path)
	}

	printSuccess("Wrote %s", pluralize(len(written), "file"))
	for _, p := range written {
		printFile(p)
	}
	return nil
}

// writeDistanceGraph lays out the level's distance graph with Graphviz, for
// checking why domains ended up where they did.
func writeDistanceGraph(ctx context.Context, result *pipeline.Result, base string) error {
	base = trimFormatExt(base)
	dot := nodelink.ToDOT(result.Layout, result.Graph, nodelink.Options{Detailed: true})
	svg, err := nodelink.RenderSVG(ctx, dot)
	if err != nil {
		return errs.Wrap(errs.ErrCodeRender, err, "render distance graph")
	}
	path := base + ".graph.svg"
	if err := os.WriteFile(path, svg, 0o644); err != nil {
		return errs.Wrap(errs.ErrCodeInvalidPath, err, "write %s", path)
	}
	printFile(path)
	return nil
}

// reportSyncFailures drains the syncer's failures and prints them, returning
// how many there were.
func reportSyncFailures(rt *runtime) int {
	n := 0
	for {
		select {
		case f := <-rt.runner.Syncer.Failures():
			printError("Position sync %s failed: %v", f.JobID, f.Err)
			n++
		default:
			return n
		}
	}
}

// trimFormatExt drops a trailing ".svg", ".png" or other format extension.
func trimFormatExt(path string) string {
	if ext := strings.TrimPrefix(filepath.Ext(path), "."); pipeline.ValidateFormat(ext) == nil {
		return strings.TrimSuffix(path, "."+ext)
	}
	return path
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
