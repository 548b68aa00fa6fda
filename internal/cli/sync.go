package cli

import (
	"context"
	"fmt"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	errs "github.com/matzehuels/semtiles/pkg/errors"
	"github.com/matzehuels/semtiles/pkg/graph"
	"github.com/matzehuels/semtiles/pkg/pipeline"
	"github.com/matzehuels/semtiles/pkg/possync"
)

// syncCommand creates the sync command, which lays out a level and writes
// the positions back without rendering.
func (c *CLI) syncCommand() *cobra.Command {
	var (
		vp   viewportFlags
		opts pipeline.Options
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Compute and store positions for one hierarchy level",
		Long: `Compute and store positions for one hierarchy level.

Positions go to sync.backend: the domain store itself (http) or a local
file, SQLite or MongoDB store. Use 'sync show' to read a local store back.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			vp.apply(c.Config(), &opts)
			return c.runSync(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.ParentID, "parent", "", "parent domain id (default: top level)")
	vp.register(cmd)
	cmd.AddCommand(c.syncShowCommand())

	return cmd
}

func (c *CLI) runSync(ctx context.Context, opts pipeline.Options) error {
	opts.Formats = []string{pipeline.FormatJSON}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}

	rt, err := c.newRuntime(ctx, false, true)
	if err != nil {
		return err
	}
	defer rt.Close()
	if rt.runner.Syncer == nil {
		return errs.New(errs.ErrCodeInvalidConfig, "sync.backend is none")
	}

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
	pos := graph.PositionsFromResult(res)
	st.mark("layout")

	job := rt.runner.Syncer.Dispatch(ctx, pos)
	rt.runner.Syncer.Wait()
	st.mark("sync")
	st.done("Synced positions")
	if reportSyncFailures(rt) > 0 {
		return errs.New(errs.ErrCodeStore, "position sync failed")
	}

	printSuccess("Synced %s", pluralize(len(pos), "position"))
	printKeyValue("Job", job)
	printKeyValue("Backend", c.Config().Sync.Backend)
	printStats(len(res.Nodes), g.Len(), string(res.Strategy), false)
	return nil
}

// syncShowCommand prints the coordinates held by a local position store.
func (c *CLI) syncShowCommand() *cobra.Command {
	var parent string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show stored positions",
		Long: `Show stored positions.

With --parent the level is fetched from the domain store and every domain is
listed with its stored position, or "—" when none is stored.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSyncShow(cmd.Context(), parent)
		},
	}
	cmd.Flags().StringVar(&parent, "parent", "", "list this level's domains (needs store.url)")

	return cmd
}

func (c *CLI) runSyncShow(ctx context.Context, parent string) error {
	st, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	var rows [][]string
	if parent == "" {
		pos, err := st.LoadPositions(ctx, nil)
		if err != nil {
			return errs.Wrap(errs.ErrCodeStore, err, "load positions")
		}
		ids := make([]string, 0, len(pos))
		for id := range pos {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			rows = append(rows, []string{id, "", fmt.Sprintf("%.1f, %.1f", pos[id].X, pos[id].Y)})
		}
	} else {
		rt, err := c.newRuntime(ctx, false, false)
		if err != nil {
			return err
		}
		defer rt.Close()
		listing, _, err := rt.runner.Fetch(ctx, pipeline.Options{ParentID: parent})
		if err != nil {
			return err
		}
		listing, err = possync.Restore(ctx, st, listing)
		if err != nil {
			return errs.Wrap(errs.ErrCodeStore, err, "load positions")
		}
		for _, d := range listing.Domains {
			rows = append(rows, []string{d.ID, d.Name, formatPosition(d)})
		}
	}

	if len(rows) == 0 {
		printInfo("No positions stored in %s", st.Backend())
		return nil
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "Domain", "Position").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return lipgloss.NewStyle().Foreground(colorGray).Bold(true)
			case col == 0:
				return StyleDim
			default:
				return StyleValue
			}
		})
	fmt.Fprintln(out, t.Render())
	printDetail("%s · %s", st.Backend(), pluralize(len(rows), "domain"))
	return nil
}
