// Package render turns a tessellation into viewable output.
//
// # Overview
//
//   - [Rainbow] and [CellColor] give every cell its colour by index
//   - [ToPDF] converts any SVG with the external rsvg-convert tool
//   - the [sink] subpackage writes SVG, PNG, PDF and JSON
//   - the [nodelink] subpackage draws the semantic distance graph with
//     Graphviz, which helps when a layout looks wrong
//
// Colours are stable: cell i of n always gets the rainbow colour at i/n, so
// re-rendering the same level never reshuffles them.
package render
