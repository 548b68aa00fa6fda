// Package cli implements the semtiles command-line interface.
package cli

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/semtiles/internal/config"
	"github.com/matzehuels/semtiles/pkg/buildinfo"
	"github.com/matzehuels/semtiles/pkg/cache"
	"github.com/matzehuels/semtiles/pkg/domainstore"
	errs "github.com/matzehuels/semtiles/pkg/errors"
	"github.com/matzehuels/semtiles/pkg/pipeline"
	"github.com/matzehuels/semtiles/pkg/possync"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// skipConfig marks commands that must run without a valid config.
const skipConfig = "semtiles/skip-config"

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	verbose    bool
	storeURL   string
	cfg        *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// Config returns the loaded configuration, or the defaults before any
// command ran.
func (c *CLI) Config() *config.Config {
	if c.cfg == nil {
		return config.DefaultConfig()
	}
	return c.cfg
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   config.AppName,
		Short: "Semtiles lays out topic hierarchies as semantic tessellations",
		Long: `Semtiles places the domains of a hierarchy level so that similar topics sit
next to each other, partitions the frame into one cell per domain and renders
the result as SVG, PNG, PDF, JSON or DOT.`,
		Version:           buildinfo.Version,
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/semtiles/config.yaml)")
	root.PersistentFlags().StringVar(&c.storeURL, "store", "", "domain store base URL (overrides store.url)")

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.visualizeCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.syncCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// setup applies --verbose and loads the config, then the flag overrides.
func (c *CLI) setup(cmd *cobra.Command, _ []string) error {
	if c.verbose {
		c.SetLogLevel(LogDebug)
	}
	if cmd.Annotations[skipConfig] == "true" {
		return nil
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if c.storeURL != "" {
		cfg.Store.URL = c.storeURL
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	c.cfg = cfg
	c.Logger.Debug("loaded config", "store", cfg.Store.URL, "cache", cfg.Cache.Backend, "sync", cfg.Sync.Backend)
	return nil
}

// =============================================================================
// Runtime Factory
// =============================================================================

// runtime is the set of collaborators one command needs.
type runtime struct {
	runner *pipeline.Runner
	client *domainstore.Client
	store  possync.Store
	cache  cache.Cache
}

func (rt *runtime) Close() error {
	var errList []error
	if rt.runner != nil && rt.runner.Syncer != nil {
		rt.runner.Syncer.Wait()
	}
	if rt.store != nil {
		errList = append(errList, rt.store.Close())
	}
	if rt.cache != nil {
		errList = append(errList, rt.cache.Close())
	}
	return errors.Join(errList...)
}

// newRuntime wires the cache, domain store client, position persister and
// pipeline runner from the loaded config.
func (c *CLI) newRuntime(ctx context.Context, noCache, withSync bool) (*runtime, error) {
	cfg := c.Config()
	rt := &runtime{}

	ch, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	rt.cache = ch

	var keyer cache.Keyer
	if cfg.Cache.Prefix != "" {
		keyer = cache.NewScopedKeyer(nil, cfg.Cache.Prefix)
	}

	if cfg.Store.URL != "" {
		client, err := domainstore.New(cfg.Store.URL,
			domainstore.WithTimeout(cfg.Store.Timeout.Std()),
			domainstore.WithCache(ch, keyer, cfg.Cache.TTL.Std()),
			domainstore.WithLogger(c.Logger),
		)
		if err != nil {
			_ = rt.Close()
			return nil, err
		}
		rt.client = client
	}

	var syncer *possync.Syncer
	if withSync {
		p, err := c.newPersister(ctx, rt)
		if err != nil {
			_ = rt.Close()
			return nil, err
		}
		if p != nil {
			syncer = possync.NewSyncer(p, c.Logger, cfg.Sync.Timeout.Std())
		}
	}

	var src pipeline.Source
	if rt.client != nil {
		src = rt.client
	}
	rt.runner = pipeline.NewRunner(src, ch, keyer, syncer, c.Logger)
	return rt, nil
}

func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	cfg := c.Config()
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch cfg.Cache.Backend {
	case config.CacheNone:
		return cache.NewNullCache(), nil
	case config.CacheRedis:
		ch, err := cache.NewRedisCache(ctx, cfg.Cache.RedisAddr)
		if err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidConfig, err, "connect to redis at %s", cfg.Cache.RedisAddr)
		}
		return ch, nil
	default:
		return cache.NewFileCache(cfg.Cache.Dir)
	}
}

// newPersister returns where positions are written, or nil for sync.backend
// none. Stores that need closing are recorded on rt.
func (c *CLI) newPersister(ctx context.Context, rt *runtime) (possync.Persister, error) {
	cfg := c.Config()
	switch cfg.Sync.Backend {
	case config.SyncNone:
		return nil, nil
	case config.SyncHTTP:
		if rt.client == nil {
			return nil, errs.New(errs.ErrCodeInvalidConfig, "sync.backend http requires store.url")
		}
		return rt.client, nil
	}

	st, err := c.openStore(ctx)
	if err != nil {
		return nil, err
	}
	rt.store = st
	return st, nil
}

// openStore opens the local position store named by sync.backend.
func (c *CLI) openStore(ctx context.Context) (possync.Store, error) {
	cfg := c.Config()
	switch cfg.Sync.Backend {
	case config.SyncFile:
		return possync.NewFileStore(cfg.Sync.Path)
	case config.SyncSQLite:
		return possync.OpenSQLite(cfg.Sync.Path)
	case config.SyncMongo:
		return possync.OpenMongo(ctx, cfg.Sync.MongoURI, cfg.Sync.MongoDatabase)
	default:
		return nil, errs.New(errs.ErrCodeUnsupported, "sync.backend %q has no local store", cfg.Sync.Backend)
	}
}

// =============================================================================
// Options Helpers
// =============================================================================

// viewportFlags are the frame flags shared by several commands. Zero means
// "use the config".
type viewportFlags struct {
	width  float64
	height float64
	seed   uint64
}

func (f *viewportFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&f.width, "width", 0, "frame width (default: viewport.width)")
	cmd.Flags().Float64Var(&f.height, "height", 0, "frame height (default: viewport.height)")
	cmd.Flags().Uint64Var(&f.seed, "seed", 0, "seed for unpositioned domains (default: layout.seed)")
}

// apply fills opts from the flags, falling back to the config.
func (f *viewportFlags) apply(cfg *config.Config, opts *pipeline.Options) {
	opts.Width, opts.Height, opts.Seed = f.width, f.height, f.seed
	if opts.Width == 0 {
		opts.Width = cfg.Viewport.Width
	}
	if opts.Height == 0 {
		opts.Height = cfg.Viewport.Height
	}
	if opts.Seed == 0 {
		opts.Seed = cfg.Layout.Seed
	}
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
