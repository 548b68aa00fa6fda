package graph_test

import (
	"fmt"
	"strings"

	"github.com/matzehuels/semtiles/pkg/graph"
)

func ExampleReadListing() {
	l, err := graph.ReadListing(strings.NewReader(`{
	  "domains": [{"id": "a", "name": "Physics", "x": 0, "y": 0},
	              {"id": "b", "name": "Maths", "x": 300, "y": 200}],
	  "semanticDistances": {"a|b": 0.4}
	}`))
	if err != nil {
		panic(err)
	}
	for _, n := range l.Nodes() {
		fmt.Println(n.Label, n.Positioned())
	}
	// Output:
	// Physics false
	// Maths true
}
