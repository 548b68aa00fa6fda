// Package layout places domains on a 2-D viewport.
//
// [Engine.Layout] picks one of three strategies, in order:
//
//  1. Preserve: every node already has a finite position, so positions are
//     kept. Repeated renders of the same data are stable.
//  2. Force: at least one known distance exists. A fixed-length physical
//     simulation runs with charge repulsion, centering, collision and one
//     spring per distance whose rest length is distance*300.
//  3. Circular: no usable distances. Nodes sit evenly on a circle of radius
//     min(width, height)/2.5 in input order.
//
// A single unpositioned node is always placed at the exact viewport center.
// Every result is clamped to [Margin, dimension-Margin] on both axes.
//
// Layout never fails. Simulation problems (a panic, a non-finite coordinate)
// are logged and downgraded to the circular arrangement.
//
// # Positions
//
// A node's position is an optional [Point]. A nil Pos means the node still
// needs a layout. The origin is a legitimate position.
//
// # Determinism
//
// Unpositioned nodes entering the simulation are seeded from a PCG source
// built from [Engine.Seed], so the same input and seed always produce the same
// output. The circular strategy uses no randomness at all.
package layout
