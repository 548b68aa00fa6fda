package layout

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/semtiles/pkg/distance"
)

const (
	// Margin keeps positions away from the viewport edge.
	Margin = 50.0

	// DefaultSeed seeds unpositioned nodes when none is configured.
	DefaultSeed = uint64(42)

	// circleDivisor sets the circle radius as min(width, height)/circleDivisor.
	circleDivisor = 2.5
)

// Engine computes layouts for a fixed viewport. The zero value is not usable;
// Width and Height must be positive.
type Engine struct {
	Width  float64
	Height float64
	Seed   uint64
	Logger *log.Logger
}

// NewEngine returns an engine for a width x height viewport.
func NewEngine(width, height float64, seed uint64, logger *log.Logger) *Engine {
	return &Engine{Width: width, Height: height, Seed: seed, Logger: logger}
}

func (e *Engine) logger() *log.Logger {
	if e.Logger == nil {
		return log.New(io.Discard)
	}
	return e.Logger
}

// Layout places nodes. g may be nil, meaning no usable distances. The input
// slice and its nodes are never modified.
func (e *Engine) Layout(nodes []Node, g *distance.Graph) Result {
	res := Result{Width: e.Width, Height: e.Height, Strategy: StrategyNone}
	if len(nodes) == 0 {
		res.Nodes = []Node{}
		return res
	}

	var pts []Point
	switch {
	case allPositioned(nodes):
		res.Strategy = StrategyPreserve
		pts = make([]Point, len(nodes))
		for i, n := range nodes {
			pts[i] = *n.Pos
		}
	case len(nodes) == 1:
		res.Strategy = StrategyCenter
		pts = []Point{{X: e.Width / 2, Y: e.Height / 2}}
	case g != nil && g.Len() > 0:
		start := time.Now()
		var err error
		pts, err = e.force(nodes, g)
		if err != nil {
			e.logger().Warn("force layout failed, using circle", "nodes", len(nodes), "err", err)
			res.Strategy = StrategyCircular
			pts = Circle(len(nodes), e.Width, e.Height)
			break
		}
		res.Strategy = StrategyForce
		e.logger().Debug("force layout", "nodes", len(nodes), "edges", g.Len(), "duration", time.Since(start))
	default:
		res.Strategy = StrategyCircular
		pts = Circle(len(nodes), e.Width, e.Height)
	}

	for i := range pts {
		pts[i] = Clamp(pts[i], e.Width, e.Height)
	}
	// Clamping piles escaped nodes onto the same wall points.
	pts = Separate(pts, e.bounds())

	res.Nodes = make([]Node, len(nodes))
	for i, n := range nodes {
		res.Nodes[i] = n.At(pts[i])
	}
	return res
}

// LayoutMap is Layout for callers holding the raw "idA|idB" distance table.
func (e *Engine) LayoutMap(nodes []Node, distances map[string]float64) Result {
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	// Build only fails with ErrNoDistances, and then g is nil.
	g, _ := distance.Build(ids, distances)
	return e.Layout(nodes, g)
}

func allPositioned(nodes []Node) bool {
	for _, n := range nodes {
		if !n.Positioned() {
			return false
		}
	}
	return true
}

// simulate advances a simulation. Tests swap it to fail the run.
var simulate = (*simulation).run

func (e *Engine) force(nodes []Node, g *distance.Graph) (pts []Point, err error) {
	defer func() {
		if r := recover(); r != nil {
			pts, err = nil, fmt.Errorf("simulation panic: %v", r)
		}
	}()
	sim := newSimulation(nodes, g, e.Width, e.Height, e.Seed)
	simulate(sim, iterationsFor(len(nodes)))
	return sim.points()
}

// iterationsFor bounds the simulation work by node count.
func iterationsFor(n int) int {
	if n > 20 {
		return 100
	}
	return 300
}

// Circle places n points evenly on a circle centered in the viewport, the
// i-th at angle i/n*2pi.
func Circle(n int, width, height float64) []Point {
	cx, cy := width/2, height/2
	r := math.Min(width, height) / circleDivisor
	pts := make([]Point, n)
	for i := range pts {
		a := float64(i) / float64(n) * 2 * math.Pi
		pts[i] = Point{X: cx + r*math.Cos(a), Y: cy + r*math.Sin(a)}
	}
	return pts
}

// Clamp limits p to [Margin, dim-Margin] on each axis. A non-finite
// coordinate, or an axis too short to hold both margins, maps to the middle
// of that axis. Below 2*Margin (100) on an axis every node therefore shares
// one coordinate there, and below it on both axes every node lands on the
// center point; Layout can then no longer keep nodes apart and the
// tessellation separates their sites inside the frame instead. Hosts should
// offer a viewport of at least 100x100.
func Clamp(p Point, width, height float64) Point {
	return Point{X: clampAxis(p.X, width), Y: clampAxis(p.Y, height)}
}

func clampAxis(v, dim float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || dim < 2*Margin {
		return dim / 2
	}
	return math.Max(Margin, math.Min(dim-Margin, v))
}
