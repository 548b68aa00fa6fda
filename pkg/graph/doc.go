// Package graph provides the wire and file formats shared by semtiles
// components.
//
// It sits at the serialization boundary between the domain store's JSON and
// the internal layout types:
//
//   - [Domain], [Document], [Listing]: payloads of the domain store API
//   - [Positions]: the write-back body of the positions endpoint
//   - [Layout]: a computed layout plus tessellation, for files, caching and
//     the tile server
//
// # Position compatibility
//
// The domain store creates domains with "x": 0 and "y": 0 before anything has
// laid them out. [Domain.Node] maps a domain whose coordinates are absent or
// both exactly zero to a node without a position. Everywhere past this
// boundary a nil position is the only "unset" marker.
//
// # Listing Serialization
//
//	l, _ := graph.ReadListingFile("domains.json")
//	nodes := l.Nodes()
//	res := engine.LayoutMap(nodes, l.SemanticDistances)
//
// # Layout Serialization
//
//	out := graph.FromResult(res, seed, tessellate.Build(res, w, h))
//	graph.WriteLayoutFile(out, "layout.json")
package graph
