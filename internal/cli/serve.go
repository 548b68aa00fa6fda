package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/semtiles/internal/server"
	"github.com/matzehuels/semtiles/pkg/observability/prom"
)

// serveCommand creates the serve command, which exposes the pipeline over
// HTTP for the web front end.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr      string
		allowAll  bool
		noMetrics bool
		noCache   bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve tessellations over HTTP",
		Long: `Serve tessellations over HTTP.

Endpoints:
  GET  /api/tiles?parentId=<id>&format=svg   render a level of the domain store
  POST /api/layout                         lay out a listing sent in the body
  POST /api/hit                            resolve a click on a rendered level
  GET  /metrics                            Prometheus metrics
  GET  /healthz                            liveness

Positions computed for /api/tiles are written back through sync.backend.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), addr, allowAll, noMetrics, noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: server.addr)")
	cmd.Flags().BoolVar(&allowAll, "allow-all-origins", false, "allow every CORS origin")
	cmd.Flags().BoolVar(&noMetrics, "no-metrics", false, "disable /metrics")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr string, allowAll, noMetrics, noCache bool) error {
	cfg := c.Config()
	if addr == "" {
		addr = cfg.Server.Addr
	}

	var metrics *prom.Registry
	if !noMetrics {
		metrics = prom.NewRegistry()
		metrics.Install()
	}

	rt, err := c.newRuntime(ctx, noCache, true)
	if err != nil {
		return err
	}
	defer rt.Close()

	srv := server.New(server.Config{
		Addr:     addr,
		AllowAll: allowAll || cfg.Server.AllowAllOrigins,
		Width:    cfg.Viewport.Width,
		Height:   cfg.Viewport.Height,
		Seed:     cfg.Layout.Seed,
	}, rt.runner, metrics, c.Logger)

	printInfo("Listening on %s", StyleValue.Render(addr))
	printDetail("store %s · cache %s · sync %s", cfg.Store.URL, cfg.Cache.Backend, cfg.Sync.Backend)
	return srv.Start(ctx)
}
