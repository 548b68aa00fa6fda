package sink

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/matzehuels/semtiles/pkg/layout"
	"github.com/matzehuels/semtiles/pkg/render"
	"github.com/matzehuels/semtiles/pkg/tessellate"
)

const cellCSS = `
    .cell-body { cursor: pointer; transition: fill-opacity 0.15s ease; }
    .cell-body:hover { fill-opacity: 0.9; }
    .domain-label { font-family: sans-serif; font-size: 14px; fill: #111827; pointer-events: none; }
    .delete-control, .doc { cursor: pointer; }
    .delete-icon, .doc-text { pointer-events: none; }
    .frame-title { font-family: sans-serif; font-size: 16px; font-weight: bold; fill: #374151; }`

const cellJS = `
    function emit(name, detail) {
      document.documentElement.dispatchEvent(new CustomEvent('semtiles:' + name, { detail: detail, bubbles: true }));
    }
    document.querySelectorAll('.cell-body').forEach(function (el) {
      el.addEventListener('click', function (e) {
        e.stopPropagation();
        emit('domainclick', { id: el.dataset.id });
      });
    });
    document.querySelectorAll('.delete-control').forEach(function (el) {
      el.addEventListener('click', function (e) {
        e.stopPropagation();
        if (window.confirm('Are you sure you want to delete "' + el.dataset.name + '" and all its children?')) {
          emit('deletedomain', { id: el.dataset.id });
        }
      });
    });
    document.querySelectorAll('.doc').forEach(function (el) {
      el.addEventListener('click', function (e) {
        e.stopPropagation();
        emit('documentclick', { id: el.dataset.id, path: el.dataset.path, domain: el.dataset.domain });
      });
    });`

// SVGOption configures SVG rendering.
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	interactive bool
	labels      bool
	controls    bool
	title       string
}

// WithStatic omits the script and the delete controls. Used for PDF.
func WithStatic() SVGOption {
	return func(r *svgRenderer) { r.interactive = false; r.controls = false }
}

// WithoutLabels omits the domain names.
func WithoutLabels() SVGOption { return func(r *svgRenderer) { r.labels = false } }

// WithTitle draws a caption in the top-left corner, e.g. the breadcrumb.
func WithTitle(s string) SVGOption { return func(r *svgRenderer) { r.title = s } }

// RenderSVG draws ts. Layers are emitted bottom to top in the same order as
// hit testing resolves them: cell bodies, labels, delete controls, glyphs.
func RenderSVG(ts *tessellate.Tessellation, opts ...SVGOption) []byte {
	r := svgRenderer{interactive: true, labels: true, controls: true}
	for _, opt := range opts {
		opt(&r)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		ts.Width, ts.Height, ts.Width, ts.Height)
	fmt.Fprintf(&buf, "  <style>%s\n  </style>\n", cellCSS)

	n := len(ts.Cells)
	buf.WriteString(`  <g class="cells">` + "\n")
	for _, c := range ts.Cells {
		if c.Empty() {
			continue
		}
		fmt.Fprintf(&buf, `    <path class="cell-body" id="cell-%s" data-id="%s" data-index="%d" d="%s" fill="%s" fill-opacity="0.7" stroke="#fff" stroke-width="2"/>`+"\n",
			esc(c.Node.ID), esc(c.Node.ID), c.Index, pathData(c.Polygon), render.Hex(c.Index, n))
	}
	buf.WriteString("  </g>\n")

	if r.labels {
		buf.WriteString(`  <g class="labels">` + "\n")
		for _, c := range ts.Cells {
			a := c.Anchor()
			fmt.Fprintf(&buf, `    <text class="domain-label" x="%.2f" y="%.2f" text-anchor="middle" dominant-baseline="middle">%s</text>`+"\n",
				a.X, a.Y, esc(label(c.Node)))
		}
		buf.WriteString("  </g>\n")
	}

	if r.controls {
		buf.WriteString(`  <g class="delete-controls">` + "\n")
		for _, c := range ts.Cells {
			p := c.DeleteControl()
			fmt.Fprintf(&buf, `    <g class="delete-control" data-id="%s" data-name="%s"><circle cx="%.2f" cy="%.2f" r="%.0f" fill="#ef4444" stroke="#fff" stroke-width="1"/>`,
				esc(c.Node.ID), esc(label(c.Node)), p.X, p.Y, tessellate.DeleteRadius)
			fmt.Fprintf(&buf, `<text class="delete-icon" x="%.2f" y="%.2f" text-anchor="middle" dominant-baseline="middle" fill="#fff" font-size="10px" font-weight="bold">&#215;</text></g>`+"\n",
				p.X, p.Y)
		}
		buf.WriteString("  </g>\n")
	}

	buf.WriteString(`  <g class="documents">` + "\n")
	for _, c := range ts.Cells {
		for _, g := range c.Glyphs() {
			fmt.Fprintf(&buf, `    <g class="doc" data-id="%s" data-path="%s" data-domain="%s"><title>%s</title><circle class="doc-icon" cx="%.2f" cy="%.2f" r="%.0f" fill="#4b5563"/>`,
				esc(g.Item.ID), esc(g.Item.Locator), esc(c.Node.ID), esc(g.Item.Name), g.Center.X, g.Center.Y, tessellate.GlyphRadius)
			fmt.Fprintf(&buf, `<text class="doc-text" x="%.2f" y="%.2f" text-anchor="middle" dominant-baseline="middle" fill="#ffffff" font-size="9px">&#128196;</text></g>`+"\n",
				g.Center.X, g.Center.Y)
		}
	}
	buf.WriteString("  </g>\n")

	if r.title != "" {
		fmt.Fprintf(&buf, `  <text class="frame-title" x="12" y="24">%s</text>`+"\n", esc(r.title))
	}
	if r.interactive {
		fmt.Fprintf(&buf, "  <script type=\"text/javascript\"><![CDATA[%s\n  ]]></script>\n", cellJS)
	}
	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func pathData(poly []layout.Point) string {
	var sb strings.Builder
	for i, p := range poly {
		if i == 0 {
			sb.WriteByte('M')
		} else {
			sb.WriteByte('L')
		}
		fmt.Fprintf(&sb, "%.2f,%.2f", p.X, p.Y)
	}
	sb.WriteByte('Z')
	return sb.String()
}

func label(n layout.Node) string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

func esc(s string) string { return html.EscapeString(s) }

// DeleteConfirmation is the prompt shown before deleting a domain.
func DeleteConfirmation(name string) string {
	return `Are you sure you want to delete "` + name + `" and all its children?`
}
