package graph

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/matzehuels/semtiles/pkg/layout"
	"github.com/matzehuels/semtiles/pkg/tessellate"
)

// =============================================================================
// Layout - Computed Tessellation Format
// =============================================================================

// Layout is the serialized form of a layout result and, optionally, its
// tessellation. Cells are in input order.
type Layout struct {
	Width    float64 `json:"width" bson:"width"`
	Height   float64 `json:"height" bson:"height"`
	Strategy string  `json:"strategy" bson:"strategy"`
	Seed     uint64  `json:"seed,omitempty" bson:"seed,omitempty"`
	Cells    []Cell  `json:"cells" bson:"cells"`
}

// Cell is one positioned domain with its polygon.
type Cell struct {
	ID      string        `json:"id" bson:"id"`
	Label   string        `json:"label" bson:"label"`
	X       float64       `json:"x" bson:"x"`
	Y       float64       `json:"y" bson:"y"`
	Items   []layout.Item `json:"items,omitempty" bson:"items,omitempty"`
	Polygon [][2]float64  `json:"polygon,omitempty" bson:"polygon,omitempty"`
}

// FromResult serializes a layout result. ts may be nil to omit polygons.
func FromResult(r layout.Result, seed uint64, ts *tessellate.Tessellation) Layout {
	l := Layout{
		Width:    r.Width,
		Height:   r.Height,
		Strategy: string(r.Strategy),
		Seed:     seed,
		Cells:    make([]Cell, len(r.Nodes)),
	}
	for i, n := range r.Nodes {
		c := Cell{ID: n.ID, Label: n.Label, Items: n.Items}
		if n.Pos != nil {
			c.X, c.Y = n.Pos.X, n.Pos.Y
		}
		if ts != nil && i < len(ts.Cells) {
			for _, p := range ts.Cells[i].Polygon {
				c.Polygon = append(c.Polygon, [2]float64{p.X, p.Y})
			}
		}
		l.Cells[i] = c
	}
	return l
}

// Result converts the layout back into a layout result with every node
// positioned.
func (l Layout) Result() layout.Result {
	r := layout.Result{
		Width:    l.Width,
		Height:   l.Height,
		Strategy: layout.Strategy(l.Strategy),
		Nodes:    make([]layout.Node, len(l.Cells)),
	}
	for i, c := range l.Cells {
		r.Nodes[i] = layout.Node{ID: c.ID, Label: c.Label, Items: c.Items}.At(layout.Point{X: c.X, Y: c.Y})
	}
	return r
}

// =============================================================================
// Layout Serialization API
// =============================================================================

// MarshalLayout serializes a Layout to pretty-printed JSON bytes.
func MarshalLayout(l Layout) ([]byte, error) {
	return json.MarshalIndent(l, "", "  ")
}

// UnmarshalLayout deserializes JSON bytes into a Layout.
// The frame must have positive dimensions.
func UnmarshalLayout(data []byte) (Layout, error) {
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return Layout{}, fmt.Errorf("unmarshal layout: %w", err)
	}
	if l.Width <= 0 || l.Height <= 0 {
		return Layout{}, fmt.Errorf("layout frame must be positive, got %vx%v", l.Width, l.Height)
	}
	return l, nil
}

// WriteLayoutFile writes a Layout to a JSON file.
func WriteLayoutFile(l Layout, path string) error {
	data, err := MarshalLayout(l)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadLayoutFile reads a Layout from a JSON file.
func ReadLayoutFile(path string) (Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("read %s: %w", path, err)
	}
	return UnmarshalLayout(data)
}
