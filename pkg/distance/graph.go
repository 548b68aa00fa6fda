package distance

import (
	"errors"
	"math"
	"slices"
	"strings"
)

// Separator joins the two domain ids of a distance key.
const Separator = "|"

// ErrNoDistances signals that no usable distance survived filtering.
var ErrNoDistances = errors.New("no distances")

// Edge is a known distance between two domains. A sorts before B.
type Edge struct {
	A        string
	B        string
	Distance float64
}

// Graph is an undirected weighted graph. It is immutable after Build.
type Graph struct {
	ids   []string
	index map[string]int
	edges []Edge
	dist  map[[2]int]float64
	deg   []int
}

// Key returns the canonical distance key for a pair, smaller id first.
func Key(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + Separator + b
}

// ParseKey splits a distance key. It reports false for keys without a
// separator or with an empty side.
func ParseKey(k string) (a, b string, ok bool) {
	a, b, ok = strings.Cut(k, Separator)
	if !ok || a == "" || b == "" {
		return "", "", false
	}
	return a, b, true
}

// Build creates a graph over ids from a distance table. Entries with unknown
// ids, malformed keys, self pairs, or non-finite or negative distances are
// skipped. When both directions of a pair are present the key that sorts first
// wins. Build returns ErrNoDistances if nothing remains.
func Build(ids []string, m map[string]float64) (*Graph, error) {
	g := &Graph{
		ids:   slices.Clone(ids),
		index: make(map[string]int, len(ids)),
		dist:  make(map[[2]int]float64),
		deg:   make([]int, len(ids)),
	}
	for i, id := range ids {
		if _, dup := g.index[id]; !dup {
			g.index[id] = i
		}
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, k := range keys {
		d := m[k]
		if math.IsNaN(d) || math.IsInf(d, 0) || d < 0 {
			continue
		}
		a, b, ok := ParseKey(k)
		if !ok || a == b {
			continue
		}
		ia, okA := g.index[a]
		ib, okB := g.index[b]
		if !okA || !okB {
			continue
		}
		pair := orderedPair(ia, ib)
		if _, seen := g.dist[pair]; seen {
			continue
		}
		g.dist[pair] = d
		g.deg[ia]++
		g.deg[ib]++
		if b < a {
			a, b = b, a
		}
		g.edges = append(g.edges, Edge{A: a, B: b, Distance: d})
	}

	if len(g.edges) == 0 {
		return nil, ErrNoDistances
	}
	return g, nil
}

func orderedPair(i, j int) [2]int {
	if j < i {
		i, j = j, i
	}
	return [2]int{i, j}
}

// Distance returns the known distance between a and b.
func (g *Graph) Distance(a, b string) (float64, bool) {
	if g == nil {
		return 0, false
	}
	ia, okA := g.index[a]
	ib, okB := g.index[b]
	if !okA || !okB {
		return 0, false
	}
	d, ok := g.dist[orderedPair(ia, ib)]
	return d, ok
}

// Edges returns the edges in key order.
func (g *Graph) Edges() []Edge {
	if g == nil {
		return nil
	}
	return slices.Clone(g.edges)
}

// Len returns the number of edges.
func (g *Graph) Len() int {
	if g == nil {
		return 0
	}
	return len(g.edges)
}

// Degree returns the number of known distances touching id.
func (g *Graph) Degree(id string) int {
	if g == nil {
		return 0
	}
	i, ok := g.index[id]
	if !ok {
		return 0
	}
	return g.deg[i]
}

// IDs returns the node ids the graph was built over, in input order.
func (g *Graph) IDs() []string {
	if g == nil {
		return nil
	}
	return slices.Clone(g.ids)
}
