// Package pipeline runs the full semtiles flow for one hierarchy level:
//
//	fetch -> distance -> layout -> tessellate -> render -> sync
//
// The [Runner] is shared by the CLI and the tile server so that both go
// through the same caching and position write-back.
//
// # Usage
//
//	runner := pipeline.NewRunner(client, fileCache, nil, syncer, logger)
//	res, err := runner.Execute(ctx, pipeline.Options{
//	    ParentID: "a1",
//	    Formats:  []string{pipeline.FormatSVG, pipeline.FormatJSON},
//	    Sync:     true,
//	})
//
// Set Options.Input to lay out a listing file instead of fetching from the
// domain store.
package pipeline

import (
	"fmt"
	"time"

	"github.com/matzehuels/semtiles/pkg/cache"
	"github.com/matzehuels/semtiles/pkg/distance"
	errs "github.com/matzehuels/semtiles/pkg/errors"
	"github.com/matzehuels/semtiles/pkg/graph"
	"github.com/matzehuels/semtiles/pkg/layout"
	"github.com/matzehuels/semtiles/pkg/tessellate"
)

// =============================================================================
// Default Constants
// =============================================================================

const (
	DefaultWidth  = 800.0
	DefaultHeight = 600.0
	DefaultSeed   = layout.DefaultSeed

	// MaxDimension bounds the viewport on either axis.
	MaxDimension = 20000.0
)

// =============================================================================
// Format Constants
// =============================================================================

const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
	FormatJSON = "json"
	FormatDOT  = "dot"
)

// ValidFormats is the set of output formats Execute understands.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
	FormatJSON: true,
	FormatDOT:  true,
}

// ContentTypes maps each format to its HTTP media type.
var ContentTypes = map[string]string{
	FormatSVG:  "image/svg+xml",
	FormatPNG:  "image/png",
	FormatPDF:  "application/pdf",
	FormatJSON: "application/json",
	FormatDOT:  "text/vnd.graphviz",
}

// =============================================================================
// Options
// =============================================================================

// Options configures one pipeline run.
type Options struct {
	// ParentID selects the hierarchy level; "" is the root level.
	ParentID string
	// Input, when set, is a listing file used instead of the domain store.
	Input string

	Width  float64
	Height float64
	Seed   uint64

	Formats []string
	// Title is drawn at the top of SVG and PDF output.
	Title string
	// NoLabels omits domain names from rendered cells.
	NoLabels bool
	// Static drops the interactive script and controls from SVG output.
	Static bool

	// Refresh bypasses the artifact cache.
	Refresh bool
	// Sync writes the computed positions back through the runner's Syncer.
	Sync bool

	validated bool
}

// Result holds everything produced by one run.
type Result struct {
	Listing      graph.Listing
	Layout       layout.Result
	Graph        *distance.Graph // nil when no distance survived filtering
	Tessellation *tessellate.Tessellation
	Artifacts    map[string][]byte
	Stats        Stats
	CacheInfo    CacheInfo
	// SyncJob is the id of the dispatched position write, if any.
	SyncJob string
}

// Stats records per-stage timing.
type Stats struct {
	FetchTime  time.Duration
	LayoutTime time.Duration
	TessTime   time.Duration
	RenderTime time.Duration
	NodeCount  int
	EdgeCount  int
}

// CacheInfo tells where the data came from.
type CacheInfo struct {
	StaleListing bool // Store unreachable; listing came from the cache
	RenderHit    bool // Every artifact came from the cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errs.New(errs.ErrCodeInvalidFormat,
			"invalid format: %q (must be one of: svg, png, pdf, json, dot)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateViewport checks that both dimensions are usable.
func ValidateViewport(width, height float64) error {
	if !(width > 0 && height > 0) || width > MaxDimension || height > MaxDimension {
		return errs.New(errs.ErrCodeInvalidViewport,
			"invalid viewport %gx%g (each side must be in (0, %g])", width, height, MaxDimension)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults applies defaults and validates. It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Height == 0 {
		o.Height = DefaultHeight
	}
	if o.Seed == 0 {
		o.Seed = DefaultSeed
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if err := ValidateViewport(o.Width, o.Height); err != nil {
		return err
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.ParentID != "" {
		if err := errs.ValidateID(o.ParentID); err != nil {
			return err
		}
	}
	if o.Input != "" && o.ParentID != "" {
		return errs.New(errs.ErrCodeInvalidInput, "input file and parent id are mutually exclusive")
	}
	o.validated = true
	return nil
}

// ArtifactKeyOpts returns cache key options for one format.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format: format,
		Width:  o.Width,
		Height: o.Height,
		Seed:   o.Seed,
		Labels: !o.NoLabels,
		Static: o.Static,
		Title:  o.Title,
	}
}

func (o *Options) String() string {
	src := o.ParentID
	if o.Input != "" {
		src = o.Input
	}
	if src == "" {
		src = "root"
	}
	return fmt.Sprintf("%s %gx%g seed=%d %v", src, o.Width, o.Height, o.Seed, o.Formats)
}
