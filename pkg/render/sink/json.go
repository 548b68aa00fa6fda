package sink

import (
	"github.com/matzehuels/semtiles/pkg/graph"
	"github.com/matzehuels/semtiles/pkg/layout"
	"github.com/matzehuels/semtiles/pkg/tessellate"
)

// RenderJSON writes the layout file of res and its tessellation. The output
// can be read back with [graph.UnmarshalLayout] and re-rendered without
// running the simulation again.
func RenderJSON(res layout.Result, seed uint64, ts *tessellate.Tessellation) ([]byte, error) {
	return graph.MarshalLayout(graph.FromResult(res, seed, ts))
}
