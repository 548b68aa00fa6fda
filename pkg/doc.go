// Package pkg holds the semtiles libraries.
//
// # Overview
//
// Semtiles shows one level of a topic hierarchy as a tessellation: every
// domain owns the part of the frame closest to it, and similar domains sit
// next to each other. The libraries are organized by pipeline stage:
//
//  1. [domainstore] - HTTP client for the domain store, with cached fallback
//  2. [distance] - the semantic distance graph of one level
//  3. [layout] - positions: stored, centred, force-directed or circular
//  4. [tessellate] - Voronoi cells clipped to the frame, and hit testing
//  5. [render] - SVG, PNG, PDF, JSON and Graphviz output
//  6. [possync] - best-effort write-back of computed positions
//  7. [pipeline] - orchestration of the stages above
//
// [graph] defines the wire types shared by all of them, and [cache] the
// listing and artifact caches.
//
// # Data Flow
//
//	GET /domains?parentId=...
//	         ↓
//	    [graph.Listing]  (domains + "idA|idB" distances)
//	         ↓
//	    [distance.Build] → [layout.Engine]
//	         ↓
//	    [tessellate.Build]
//	         ↓
//	    SVG/PNG/PDF/JSON/DOT        → [possync.Syncer] (background)
//
// # Quick Start
//
//	client, _ := domainstore.New("http://localhost:5001/api")
//	runner := pipeline.NewRunner(client, cache.NewNullCache(), nil, nil, nil)
//	res, err := runner.Execute(ctx, pipeline.Options{Formats: []string{"svg"}})
//	if err != nil {
//	    return err
//	}
//	os.WriteFile("level.svg", res.Artifacts["svg"], 0o644)
package pkg
