package tessellate

import (
	"github.com/matzehuels/semtiles/pkg/layout"
)

// Cell is the region of the frame owned by one node. Polygon is convex and
// keeps the winding of the frame. Site is the point the cell was grown from;
// it equals the node position unless that position was shared with an
// earlier node. Build never leaves a cell empty in a frame with area.
type Cell struct {
	Index   int
	Node    layout.Node
	Site    *layout.Point
	Polygon []layout.Point
}

// Empty reports whether the cell owns no area.
func (c Cell) Empty() bool { return len(c.Polygon) < 3 }

// Anchor returns the site the cell was built around, falling back to the
// node position for cells not made by Build.
func (c Cell) Anchor() layout.Point {
	if c.Site != nil {
		return *c.Site
	}
	if c.Node.Pos == nil {
		return layout.Point{}
	}
	return *c.Node.Pos
}

// Tessellation is the planar partition of a width x height frame.
type Tessellation struct {
	Width  float64
	Height float64
	Cells  []Cell
}

// Build partitions [0,width]x[0,height] among the nodes of res. Nodes
// without a position are treated as sitting at the frame center. Nodes that
// share a position are moved apart with [layout.Separate] first, so each
// one keeps a cell.
func Build(res layout.Result, width, height float64) *Tessellation {
	t := &Tessellation{Width: width, Height: height, Cells: make([]Cell, len(res.Nodes))}

	sites := make([]layout.Point, len(res.Nodes))
	for i, n := range res.Nodes {
		if n.Pos != nil && n.Pos.Finite() {
			sites[i] = *n.Pos
		} else {
			sites[i] = layout.Point{X: width / 2, Y: height / 2}
		}
	}

	sites = layout.Separate(sites, layout.Bounds{MaxX: width, MaxY: height})

	frame := []layout.Point{{X: 0, Y: 0}, {X: width, Y: 0}, {X: width, Y: height}, {X: 0, Y: height}}
	for i, n := range res.Nodes {
		t.Cells[i] = Cell{Index: i, Node: n, Site: &sites[i], Polygon: cellPolygon(i, sites, frame)}
	}
	return t
}

func cellPolygon(i int, sites, frame []layout.Point) []layout.Point {
	poly := append([]layout.Point(nil), frame...)
	s := sites[i]
	for j, o := range sites {
		if j == i {
			continue
		}
		if samePoint(s, o) {
			// Only reachable in a frame without area; the earliest
			// site keeps what there is.
			if j < i {
				return nil
			}
			continue
		}
		poly = clip(poly, bisector(s, o))
		if poly == nil {
			return nil
		}
	}
	return poly
}

// CellAt returns the index of the cell containing p, or -1 when p is
// outside the frame.
func (t *Tessellation) CellAt(p layout.Point) int {
	if p.X < 0 || p.Y < 0 || p.X > t.Width || p.Y > t.Height {
		return -1
	}
	for i, c := range t.Cells {
		if Contains(c.Polygon, p) {
			return i
		}
	}
	return -1
}

// CoveredArea sums the areas of all cells. For a valid tessellation it
// equals Width*Height up to rounding.
func (t *Tessellation) CoveredArea() float64 {
	var a float64
	for _, c := range t.Cells {
		if !c.Empty() {
			a += Area(c.Polygon)
		}
	}
	return a
}
