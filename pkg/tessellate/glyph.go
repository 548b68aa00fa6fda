package tessellate

import (
	"math"

	"github.com/matzehuels/semtiles/pkg/layout"
)

// Interaction geometry, relative to a node's position.
const (
	GlyphOffsetY  = 40.0
	GlyphRadius   = 8.0
	MaxGlyphGap   = 20.0
	GlyphRowWidth = 100.0
	DeleteOffsetX = 30.0
	DeleteOffsetY = -30.0
	DeleteRadius  = 8.0
)

// GlyphSpacing returns the center-to-center gap for a row of k glyphs,
// min(20, 100/(k+1)), so a row never exceeds 100 units.
func GlyphSpacing(k int) float64 {
	return math.Min(MaxGlyphGap, GlyphRowWidth/float64(k+1))
}

// GlyphOffsets returns the x offsets of k glyphs relative to the node,
// centered on zero.
func GlyphOffsets(k int) []float64 {
	if k <= 0 {
		return nil
	}
	sp := GlyphSpacing(k)
	out := make([]float64, k)
	for i := range out {
		out[i] = (float64(i) - float64(k-1)/2) * sp
	}
	return out
}

// Glyph is the click target of one attached item.
type Glyph struct {
	Item   layout.Item
	Center layout.Point
}

// Glyphs returns the glyph row of a cell.
func (c Cell) Glyphs() []Glyph {
	if len(c.Node.Items) == 0 {
		return nil
	}
	a := c.Anchor()
	offs := GlyphOffsets(len(c.Node.Items))
	out := make([]Glyph, len(offs))
	for i, dx := range offs {
		out[i] = Glyph{
			Item:   c.Node.Items[i],
			Center: layout.Point{X: a.X + dx, Y: a.Y + GlyphOffsetY},
		}
	}
	return out
}

// DeleteControl returns the center of the cell's delete control.
func (c Cell) DeleteControl() layout.Point {
	a := c.Anchor()
	return layout.Point{X: a.X + DeleteOffsetX, Y: a.Y + DeleteOffsetY}
}
