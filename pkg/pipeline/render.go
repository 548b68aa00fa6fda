package pipeline

import (
	"context"
	"time"

	"github.com/matzehuels/semtiles/pkg/distance"
	errs "github.com/matzehuels/semtiles/pkg/errors"
	"github.com/matzehuels/semtiles/pkg/layout"
	"github.com/matzehuels/semtiles/pkg/observability"
	"github.com/matzehuels/semtiles/pkg/render/nodelink"
	"github.com/matzehuels/semtiles/pkg/render/sink"
	"github.com/matzehuels/semtiles/pkg/tessellate"
)

// Render generates output artifacts in the requested formats. Failures
// carry [errs.ErrCodeRender] so hosts can offer a reload.
func Render(ctx context.Context, res layout.Result, g *distance.Graph, ts *tessellate.Tessellation, opts Options) (map[string][]byte, error) {
	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		start := time.Now()
		data, err := renderFormat(res, g, ts, opts, format)
		observability.Layout().OnRenderComplete(ctx, format, len(data), time.Since(start), err)
		if err != nil {
			return nil, errs.Wrap(errs.ErrCodeRender, err, "render %s", format)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

func renderFormat(res layout.Result, g *distance.Graph, ts *tessellate.Tessellation, opts Options, format string) ([]byte, error) {
	switch format {
	case FormatSVG:
		return sink.RenderSVG(ts, svgOptions(opts)...), nil
	case FormatPDF:
		return sink.RenderPDF(ts, svgOptions(opts)...)
	case FormatPNG:
		var pngOpts []sink.PNGOption
		if opts.NoLabels {
			pngOpts = append(pngOpts, sink.WithoutPNGLabels())
		}
		return sink.RenderPNG(ts, pngOpts...)
	case FormatJSON:
		return sink.RenderJSON(res, opts.Seed, ts)
	case FormatDOT:
		return []byte(nodelink.ToDOT(res, g, nodelink.Options{Pinned: true})), nil
	default:
		return nil, ValidateFormat(format)
	}
}

func svgOptions(opts Options) []sink.SVGOption {
	var out []sink.SVGOption
	if opts.Static {
		out = append(out, sink.WithStatic())
	}
	if opts.NoLabels {
		out = append(out, sink.WithoutLabels())
	}
	if opts.Title != "" {
		out = append(out, sink.WithTitle(opts.Title))
	}
	return out
}
