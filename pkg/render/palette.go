package render

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// Rainbow returns the cyclical cubehelix rainbow at t. Values outside
// [0,1] wrap around.
func Rainbow(t float64) colorful.Color {
	if t < 0 || t > 1 {
		t -= math.Floor(t)
	}
	ts := math.Abs(t - 0.5)
	h := 360*t - 100
	s := 1.5 - 1.5*ts
	l := 0.8 - 0.9*ts
	return cubehelix(h, s, l)
}

// cubehelix converts Green's cubehelix coordinates (h in degrees) to RGB.
func cubehelix(h, s, l float64) colorful.Color {
	rad := (h + 120) * math.Pi / 180
	a := s * l * (1 - l)
	cosh, sinh := math.Cos(rad), math.Sin(rad)
	return colorful.Color{
		R: l + a*(-0.14861*cosh+1.78277*sinh),
		G: l + a*(-0.29227*cosh-0.90649*sinh),
		B: l + a*(1.97294*cosh),
	}.Clamped()
}

// CellColor is the fill of cell i among n.
func CellColor(i, n int) colorful.Color {
	if n <= 0 {
		return Rainbow(0)
	}
	return Rainbow(float64(i) / float64(n))
}

// Hex is CellColor as "#rrggbb".
func Hex(i, n int) string { return CellColor(i, n).Hex() }
