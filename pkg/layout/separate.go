package layout

import "math"

// SeparationStep is the spacing between a duplicate position and the spot it
// is moved to, per turn of the spiral in [Separate].
const SeparationStep = 6.0

// goldenAngle spreads successive duplicates of one position around it.
var goldenAngle = math.Pi * (3 - math.Sqrt(5))

// Bounds is a closed axis-aligned rectangle.
type Bounds struct {
	MinX, MinY, MaxX, MaxY float64
}

func (b Bounds) clamp(p Point) Point {
	return Point{
		X: math.Max(b.MinX, math.Min(b.MaxX, p.X)),
		Y: math.Max(b.MinY, math.Min(b.MaxY, p.Y)),
	}
}

// cellKey buckets p on a 1e-6 grid, so points that differ only by float
// noise count as one position.
type cellKey [2]int64

func keyOf(p Point) cellKey {
	return cellKey{int64(math.Round(p.X * 1e6)), int64(math.Round(p.Y * 1e6))}
}

// degenerate reports whether b is a single point.
func (b Bounds) degenerate() bool { return b.MaxX <= b.MinX && b.MaxY <= b.MinY }

// Separate returns a copy of pts in which no two points share a position on
// a 1e-6 grid. The first point at a position keeps it. Each later copy walks
// a golden-angle spiral around that position, clamped to b, and takes the
// first free spot. The result depends only on pts and b, and separated input
// comes back unchanged. Points in a degenerate b are returned as given.
func Separate(pts []Point, b Bounds) []Point {
	out := append([]Point(nil), pts...)
	if len(out) < 2 || b.degenerate() {
		return out
	}

	taken := make(map[cellKey]bool, len(out))
	turns := make(map[cellKey]int)
	limit := 16*len(out) + 64
	for i, p := range out {
		pk := keyOf(p)
		if !taken[pk] {
			taken[pk] = true
			continue
		}
		k := turns[pk]
		for tries := 0; tries < limit; tries++ {
			k++
			r := SeparationStep * math.Sqrt(float64(k))
			a := float64(k) * goldenAngle
			c := b.clamp(Point{X: p.X + r*math.Cos(a), Y: p.Y + r*math.Sin(a)})
			if ck := keyOf(c); !taken[ck] {
				out[i] = c
				taken[ck] = true
				break
			}
		}
		turns[pk] = k
	}
	return out
}

// bounds is the rectangle Clamp maps into.
func (e *Engine) bounds() Bounds {
	lx, hx := axisRange(e.Width)
	ly, hy := axisRange(e.Height)
	return Bounds{MinX: lx, MinY: ly, MaxX: hx, MaxY: hy}
}

func axisRange(dim float64) (lo, hi float64) {
	if dim < 2*Margin {
		return dim / 2, dim / 2
	}
	return Margin, dim - Margin
}
