package tessellate

import (
	"math"

	"github.com/matzehuels/semtiles/pkg/layout"
)

// clipEps absorbs rounding when classifying vertices against a bisector.
const clipEps = 1e-9

// halfPlane is the set of points p with a.X*p.X + a.Y*p.Y <= b.
type halfPlane struct {
	a layout.Point
	b float64
}

// bisector returns the half-plane of points at least as close to s as to o.
func bisector(s, o layout.Point) halfPlane {
	return halfPlane{
		a: layout.Point{X: 2 * (o.X - s.X), Y: 2 * (o.Y - s.Y)},
		b: o.X*o.X + o.Y*o.Y - s.X*s.X - s.Y*s.Y,
	}
}

func (h halfPlane) eval(p layout.Point) float64 {
	return h.a.X*p.X + h.a.Y*p.Y - h.b
}

// clip keeps the part of a convex polygon inside h (Sutherland-Hodgman).
func clip(poly []layout.Point, h halfPlane) []layout.Point {
	if len(poly) == 0 {
		return nil
	}
	out := make([]layout.Point, 0, len(poly)+1)
	prev := poly[len(poly)-1]
	prevD := h.eval(prev)
	for _, cur := range poly {
		curD := h.eval(cur)
		switch {
		case curD <= clipEps:
			if prevD > clipEps {
				out = append(out, intersect(prev, cur, prevD, curD))
			}
			out = append(out, cur)
		case prevD <= clipEps:
			out = append(out, intersect(prev, cur, prevD, curD))
		}
		prev, prevD = cur, curD
	}
	return dedupe(out)
}

func intersect(p, q layout.Point, dp, dq float64) layout.Point {
	t := dp / (dp - dq)
	return layout.Point{X: p.X + t*(q.X-p.X), Y: p.Y + t*(q.Y-p.Y)}
}

// dedupe drops consecutive vertices that coincide, including the wrap-around.
func dedupe(poly []layout.Point) []layout.Point {
	out := poly[:0]
	for _, p := range poly {
		if len(out) > 0 && samePoint(out[len(out)-1], p) {
			continue
		}
		out = append(out, p)
	}
	for len(out) > 1 && samePoint(out[0], out[len(out)-1]) {
		out = out[:len(out)-1]
	}
	if len(out) < 3 {
		return nil
	}
	return out
}

func samePoint(a, b layout.Point) bool {
	return math.Abs(a.X-b.X) < 1e-7 && math.Abs(a.Y-b.Y) < 1e-7
}

// Area returns the unsigned area of a simple polygon.
func Area(poly []layout.Point) float64 {
	var s float64
	for i, p := range poly {
		q := poly[(i+1)%len(poly)]
		s += p.X*q.Y - q.X*p.Y
	}
	return math.Abs(s) / 2
}

// Contains reports whether p lies inside or on the boundary of a convex
// polygon.
func Contains(poly []layout.Point, p layout.Point) bool {
	if len(poly) < 3 {
		return false
	}
	var sign float64
	for i, a := range poly {
		b := poly[(i+1)%len(poly)]
		cross := (b.X-a.X)*(p.Y-a.Y) - (b.Y-a.Y)*(p.X-a.X)
		if math.Abs(cross) < 1e-9 {
			continue
		}
		if sign == 0 {
			sign = cross
		} else if (cross > 0) != (sign > 0) {
			return false
		}
	}
	return true
}

// Centroid returns the area centroid of a simple polygon.
func Centroid(poly []layout.Point) layout.Point {
	var cx, cy, a float64
	for i, p := range poly {
		q := poly[(i+1)%len(poly)]
		cross := p.X*q.Y - q.X*p.Y
		a += cross
		cx += (p.X + q.X) * cross
		cy += (p.Y + q.Y) * cross
	}
	if a == 0 {
		return layout.Point{}
	}
	return layout.Point{X: cx / (3 * a), Y: cy / (3 * a)}
}
