// Package sink writes a [tessellate.Tessellation] in its output formats.
//
//   - SVG: one filled path per cell, labels, delete controls and document
//     glyphs, with an embedded script that turns clicks into DOM events
//   - PNG: rasterized with gg, no external tools needed
//   - PDF: the static SVG converted by rsvg-convert
//   - JSON: the layout file format of the graph package
//
// # SVG events
//
// Interactive SVG dispatches CustomEvents on the document element:
//
//	semtiles:domainclick    detail {id}
//	semtiles:documentclick  detail {id, path, domain}
//	semtiles:deletedomain   detail {id}
//
// Document and delete clicks stop propagation, so they never also select
// the cell underneath. Deletion asks for confirmation first.
package sink
