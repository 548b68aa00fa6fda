// Package nodelink draws the semantic distance graph of one hierarchy level
// as an undirected node-link diagram.
//
// Where the tessellation shows the final partition, this view shows its
// input: one node per domain and one edge per known distance, with Graphviz
// neato using the same rest length as the force simulation. Comparing the two
// is the quickest way to see why a layout came out the way it did.
//
//	dot := nodelink.ToDOT(res, g, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// With Pinned set, nodes are fixed at their computed coordinates and only
// the edges are drawn, overlaying the graph on the layout.
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF conversion requires librsvg (rsvg-convert).
package nodelink
