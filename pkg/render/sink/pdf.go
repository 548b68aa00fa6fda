package sink

import (
	"github.com/matzehuels/semtiles/pkg/render"
	"github.com/matzehuels/semtiles/pkg/tessellate"
)

// RenderPDF renders the static SVG of ts as PDF.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(ts *tessellate.Tessellation, opts ...SVGOption) ([]byte, error) {
	opts = append([]SVGOption{WithStatic()}, opts...)
	return render.ToPDF(RenderSVG(ts, opts...))
}
