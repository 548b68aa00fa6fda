package layout

import (
	"math"
	"slices"
)

// Point is a position in viewport coordinates.
type Point struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// Finite reports whether both coordinates are finite numbers.
func (p Point) Finite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) && !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// Dist returns the Euclidean distance to q.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Item is an attachment drawn as a glyph below its node.
type Item struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Kind    string `json:"kind,omitempty"`
	Locator string `json:"locator,omitempty"`
}

// Node is one domain to place. Pos is nil until the node has been positioned.
type Node struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Pos   *Point `json:"pos,omitempty"`
	Items []Item `json:"items,omitempty"`
}

// At returns a copy of n positioned at p.
func (n Node) At(p Point) Node {
	n.Pos = &p
	n.Items = slices.Clone(n.Items)
	return n
}

// Positioned reports whether n carries a finite position.
func (n Node) Positioned() bool {
	return n.Pos != nil && n.Pos.Finite()
}

// Strategy identifies which placement path produced a result.
type Strategy string

const (
	StrategyNone     Strategy = "none"
	StrategyPreserve Strategy = "preserve"
	StrategyCenter   Strategy = "center"
	StrategyForce    Strategy = "force"
	StrategyCircular Strategy = "circular"
)

// Result is a completed layout. Every node has a finite, clamped Pos.
type Result struct {
	Nodes    []Node
	Strategy Strategy
	Width    float64
	Height   float64
}

// Positions returns node id to position, the payload written back to the
// domain store.
func (r Result) Positions() map[string]Point {
	out := make(map[string]Point, len(r.Nodes))
	for _, n := range r.Nodes {
		if n.Pos != nil {
			out[n.ID] = *n.Pos
		}
	}
	return out
}

// Node returns the node with the given id.
func (r Result) Node(id string) (Node, bool) {
	for _, n := range r.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}
