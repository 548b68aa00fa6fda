// Package tessellate partitions a viewport among laid-out domains.
//
// [Build] computes one Voronoi cell per node by clipping the frame rectangle
// against the perpendicular bisector of every other node. Cells keep the input
// order so colouring by index is stable between renders.
//
// Besides the cell body, each node exposes two kinds of click targets:
//
//   - a delete control at (x+30, y-30)
//   - one glyph per attached item, in a row centered at (x, y+40)
//
// [Tessellation.HitTest] resolves a point to exactly one target. Glyphs and
// delete controls take priority over the cell body, so a click on them never
// also selects the domain. [Dispatch] forwards a hit to the host callbacks.
package tessellate
