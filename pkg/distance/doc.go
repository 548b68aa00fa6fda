// Package distance normalizes a sparse table of pairwise semantic distances
// into a weighted undirected graph over the domains of one hierarchy level.
//
// The distance table arrives keyed by "idA|idB". Only one direction of a pair
// needs to be present. Entries referencing ids outside the current node set are
// dropped without error, since the table may describe another level of the
// hierarchy.
//
// An empty result is not returned as an empty graph. [Build] reports it with
// [ErrNoDistances] so callers can pick a deterministic fallback layout.
//
//	g, err := distance.Build([]string{"a", "b", "c"}, map[string]float64{
//	    "a|b": 0.2,
//	    "b|c": 0.5,
//	})
//	if errors.Is(err, distance.ErrNoDistances) {
//	    // circular arrangement
//	}
package distance
