package layout

import (
	"errors"
	"math"
	"math/rand/v2"

	"github.com/matzehuels/semtiles/pkg/distance"
)

// Simulation constants. Alpha decays from 1 to alphaMin over defaultTicks
// steps whether or not the run is cut short.
const (
	chargeStrength = -300.0
	collideRadius  = 50.0
	springScale    = 300.0

	alphaMin      = 0.001
	defaultTicks  = 300
	velocityDecay = 0.4
	distanceMin2  = 1.0
)

// ErrUnstable is returned when the simulation produces a non-finite position.
var ErrUnstable = errors.New("simulation diverged")

// body is the mutable simulation state of one node.
type body struct {
	x, y   float64
	vx, vy float64
}

type spring struct {
	src, dst int
	length   float64
	strength float64
	bias     float64
}

// simulation owns its buffer; nothing outside reads it until run returns.
type simulation struct {
	bodies  []body
	springs []spring
	cx, cy  float64

	alpha      float64
	alphaDecay float64
	rng        *rand.Rand
}

func newSimulation(nodes []Node, g *distance.Graph, width, height float64, seed uint64) *simulation {
	s := &simulation{
		bodies:     make([]body, len(nodes)),
		cx:         width / 2,
		cy:         height / 2,
		alpha:      1,
		alphaDecay: 1 - math.Pow(alphaMin, 1.0/defaultTicks),
		rng:        rand.New(rand.NewPCG(seed, seed^0xdeadbeef)),
	}

	index := make(map[string]int, len(nodes))
	for i, n := range nodes {
		index[n.ID] = i
		if n.Positioned() {
			s.bodies[i] = body{x: n.Pos.X, y: n.Pos.Y}
			continue
		}
		s.bodies[i] = body{x: s.rng.Float64() * width, y: s.rng.Float64() * height}
	}

	for _, e := range g.Edges() {
		src, okA := index[e.A]
		dst, okB := index[e.B]
		if !okA || !okB {
			continue
		}
		da, db := float64(g.Degree(e.A)), float64(g.Degree(e.B))
		s.springs = append(s.springs, spring{
			src:      src,
			dst:      dst,
			length:   e.Distance * springScale,
			strength: 1 / math.Min(da, db),
			bias:     da / (da + db),
		})
	}
	return s
}

func (s *simulation) run(ticks int) {
	for range ticks {
		s.tick()
	}
}

func (s *simulation) tick() {
	s.alpha += (0 - s.alpha) * s.alphaDecay

	s.charge()
	s.center()
	s.collide()
	s.link()

	for i := range s.bodies {
		b := &s.bodies[i]
		b.vx *= 1 - velocityDecay
		b.vy *= 1 - velocityDecay
		b.x += b.vx
		b.y += b.vy
	}
}

// jiggle breaks exact ties between coincident nodes.
func (s *simulation) jiggle() float64 {
	return (s.rng.Float64() - 0.5) * 1e-6
}

// charge applies pairwise inverse-square repulsion.
func (s *simulation) charge() {
	for i := range s.bodies {
		bi := &s.bodies[i]
		for j := range s.bodies {
			if i == j {
				continue
			}
			x := s.bodies[j].x - bi.x
			y := s.bodies[j].y - bi.y
			l := x*x + y*y
			if x == 0 {
				x = s.jiggle()
				l += x * x
			}
			if y == 0 {
				y = s.jiggle()
				l += y * y
			}
			if l < distanceMin2 {
				l = math.Sqrt(distanceMin2 * l)
			}
			w := chargeStrength * s.alpha / l
			bi.vx += x * w
			bi.vy += y * w
		}
	}
}

// center translates the system so its mean sits on the viewport center.
func (s *simulation) center() {
	var sx, sy float64
	for _, b := range s.bodies {
		sx += b.x
		sy += b.y
	}
	n := float64(len(s.bodies))
	sx = sx/n - s.cx
	sy = sy/n - s.cy
	for i := range s.bodies {
		s.bodies[i].x -= sx
		s.bodies[i].y -= sy
	}
}

// collide pushes apart nodes closer than two collision radii, using the
// positions predicted for the end of this tick.
func (s *simulation) collide() {
	const r = 2 * collideRadius
	for i := range s.bodies {
		bi := &s.bodies[i]
		xi, yi := bi.x+bi.vx, bi.y+bi.vy
		for j := i + 1; j < len(s.bodies); j++ {
			bj := &s.bodies[j]
			x := xi - bj.x - bj.vx
			y := yi - bj.y - bj.vy
			l := x*x + y*y
			if l >= r*r {
				continue
			}
			if x == 0 {
				x = s.jiggle()
				l += x * x
			}
			if y == 0 {
				y = s.jiggle()
				l += y * y
			}
			l = math.Sqrt(l)
			l = (r - l) / l
			x *= l
			y *= l
			// Equal radii split the correction evenly.
			bi.vx += x * 0.5
			bi.vy += y * 0.5
			bj.vx -= x * 0.5
			bj.vy -= y * 0.5
		}
	}
}

// link pulls each spring towards its rest length.
func (s *simulation) link() {
	for _, sp := range s.springs {
		src, dst := &s.bodies[sp.src], &s.bodies[sp.dst]
		x := dst.x + dst.vx - src.x - src.vx
		y := dst.y + dst.vy - src.y - src.vy
		if x == 0 {
			x = s.jiggle()
		}
		if y == 0 {
			y = s.jiggle()
		}
		l := math.Sqrt(x*x + y*y)
		l = (l - sp.length) / l * s.alpha * sp.strength
		x *= l
		y *= l
		dst.vx -= x * sp.bias
		dst.vy -= y * sp.bias
		src.vx += x * (1 - sp.bias)
		src.vy += y * (1 - sp.bias)
	}
}

// points copies the final buffer out, failing on any non-finite coordinate.
func (s *simulation) points() ([]Point, error) {
	pts := make([]Point, len(s.bodies))
	for i, b := range s.bodies {
		p := Point{X: b.x, Y: b.y}
		if !p.Finite() {
			return nil, ErrUnstable
		}
		pts[i] = p
	}
	return pts, nil
}
