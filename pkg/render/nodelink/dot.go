package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/semtiles/pkg/distance"
	"github.com/matzehuels/semtiles/pkg/layout"
	"github.com/matzehuels/semtiles/pkg/render"
)

// pointsPerInch converts layout units to Graphviz inches.
const pointsPerInch = 72.0

// restLength matches the force simulation's spring length per unit distance.
const restLength = 300.0

// Options configures distance graph rendering.
type Options struct {
	// Detailed labels every edge with its distance.
	Detailed bool
	// Pinned fixes nodes at their layout coordinates.
	Pinned bool
}

// ToDOT converts a layout result and its distance graph to DOT. Nodes are
// coloured like their cells. g may be nil, producing isolated nodes.
func ToDOT(res layout.Result, g *distance.Graph, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("graph D {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  overlap=false;\n")
	buf.WriteString("  node [shape=ellipse, style=filled, fontsize=14, fontname=\"Helvetica\"];\n")
	buf.WriteString("  edge [color=\"#6b7280\"];\n")
	buf.WriteString("\n")

	n := len(res.Nodes)
	for i, node := range res.Nodes {
		label := node.Label
		if label == "" {
			label = node.ID
		}
		attrs := fmt.Sprintf("label=%q, fillcolor=%q", label, render.Hex(i, n))
		if opts.Pinned && node.Pos != nil {
			// Graphviz y grows upwards.
			attrs += fmt.Sprintf(", pos=\"%.3f,%.3f!\"", node.Pos.X/pointsPerInch, (res.Height-node.Pos.Y)/pointsPerInch)
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", node.ID, attrs)
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		attrs := fmt.Sprintf("len=%.3f, penwidth=%.2f", math.Max(e.Distance*restLength, 1)/pointsPerInch, penWidth(e.Distance))
		if opts.Detailed {
			attrs += fmt.Sprintf(", label=\"%.2f\", fontsize=10", e.Distance)
		}
		fmt.Fprintf(&buf, "  %q -- %q [%s];\n", e.A, e.B, attrs)
	}

	buf.WriteString("}\n")
	return buf.String()
}

// penWidth draws close pairs thicker.
func penWidth(d float64) float64 {
	return 1 + 3*(1-math.Min(d, 1))
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.-]+)\s+([0-9.-]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's pt-sized root element with a plain
// one sized to the viewBox so the SVG scales when embedded.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}
	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(ctx context.Context, dot string) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(svg)
}
