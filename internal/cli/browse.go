package cli

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	errs "github.com/matzehuels/semtiles/pkg/errors"
	"github.com/matzehuels/semtiles/pkg/pipeline"
)

// browseCommand creates the browse command: an interactive walk through
// the domain hierarchy that can delete domains and render a picked level.
func (c *CLI) browseCommand() *cobra.Command {
	var (
		parent string
		output string
	)

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse the domain hierarchy interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBrowse(cmd.Context(), parent, output)
		},
	}

	cmd.Flags().StringVar(&parent, "parent", "", "start below this domain (default: top level)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "where to write the picked level's SVG")

	return cmd
}

func (c *CLI) runBrowse(ctx context.Context, parent, output string) error {
	rt, err := c.newRuntime(ctx, false, false)
	if err != nil {
		return err
	}
	defer rt.Close()
	if rt.client == nil {
		return errs.New(errs.ErrCodeInvalidConfig, "browse requires store.url")
	}

	final, err := tea.NewProgram(NewBrowseModel(rt.client, parent), tea.WithContext(ctx)).Run()
	if err != nil {
		return errs.Wrap(errs.ErrCodeInternal, err, "browser")
	}
	m, ok := final.(BrowseModel)
	if !ok || m.Picked == nil {
		return nil
	}

	opts := pipeline.Options{
		ParentID: *m.Picked,
		Formats:  []string{pipeline.FormatSVG},
	}
	(&viewportFlags{}).apply(c.Config(), &opts)
	return c.runRender(ctx, opts, renderOpts{output: output})
}
