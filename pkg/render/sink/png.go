package sink

import (
	"bytes"
	"fmt"
	"math"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/matzehuels/semtiles/pkg/render"
	"github.com/matzehuels/semtiles/pkg/tessellate"
)

// PNGOption configures PNG rendering.
type PNGOption func(*pngRenderer)

type pngRenderer struct {
	scale  float64
	labels bool
}

// WithScale sets the PNG scale factor (default 2.0 for 2x resolution).
func WithScale(s float64) PNGOption {
	return func(r *pngRenderer) {
		if s > 0 {
			r.scale = s
		}
	}
}

// WithoutPNGLabels omits the domain names.
func WithoutPNGLabels() PNGOption { return func(r *pngRenderer) { r.labels = false } }

var goRegular = sync.OnceValues(func() (*truetype.Font, error) {
	return truetype.Parse(goregular.TTF)
})

func face(size float64) (font.Face, error) {
	f, err := goRegular()
	if err != nil {
		return nil, err
	}
	return truetype.NewFace(f, &truetype.Options{Size: size}), nil
}

// RenderPNG rasterizes ts. Delete controls are drawn because a PNG is
// usually a snapshot of what the interactive view showed.
func RenderPNG(ts *tessellate.Tessellation, opts ...PNGOption) ([]byte, error) {
	r := pngRenderer{scale: 2.0, labels: true}
	for _, opt := range opts {
		opt(&r)
	}
	w := int(math.Ceil(ts.Width * r.scale))
	h := int(math.Ceil(ts.Height * r.scale))
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("empty frame %.0fx%.0f", ts.Width, ts.Height)
	}

	dc := gg.NewContext(w, h)
	dc.Scale(r.scale, r.scale)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	n := len(ts.Cells)
	for _, c := range ts.Cells {
		if c.Empty() {
			continue
		}
		dc.NewSubPath()
		for i, p := range c.Polygon {
			if i == 0 {
				dc.MoveTo(p.X, p.Y)
			} else {
				dc.LineTo(p.X, p.Y)
			}
		}
		dc.ClosePath()
		col := render.CellColor(c.Index, n)
		dc.SetRGBA(col.R, col.G, col.B, 0.7)
		dc.FillPreserve()
		dc.SetRGB(1, 1, 1)
		dc.SetLineWidth(2)
		dc.Stroke()
	}

	if r.labels {
		lf, err := face(14)
		if err != nil {
			return nil, fmt.Errorf("load font: %w", err)
		}
		dc.SetFontFace(lf)
		dc.SetHexColor("#111827")
		for _, c := range ts.Cells {
			a := c.Anchor()
			dc.DrawStringAnchored(label(c.Node), a.X, a.Y, 0.5, 0.5)
		}
	}

	small, err := face(10)
	if err != nil {
		return nil, fmt.Errorf("load font: %w", err)
	}
	dc.SetFontFace(small)
	for _, c := range ts.Cells {
		p := c.DeleteControl()
		dc.DrawCircle(p.X, p.Y, tessellate.DeleteRadius)
		dc.SetHexColor("#ef4444")
		dc.FillPreserve()
		dc.SetRGB(1, 1, 1)
		dc.SetLineWidth(1)
		dc.Stroke()
		dc.DrawStringAnchored("×", p.X, p.Y, 0.5, 0.35)
	}

	for _, c := range ts.Cells {
		for _, g := range c.Glyphs() {
			dc.DrawCircle(g.Center.X, g.Center.Y, tessellate.GlyphRadius)
			dc.SetHexColor("#4b5563")
			dc.Fill()
		}
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
