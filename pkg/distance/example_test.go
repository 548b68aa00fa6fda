package distance_test

import (
	"errors"
	"fmt"

	"github.com/matzehuels/semtiles/pkg/distance"
)

func ExampleBuild() {
	g, err := distance.Build([]string{"a", "b", "c"}, map[string]float64{
		"a|b":     0.2,
		"b|c":     0.5,
		"c|other": 0.9, // refers to another hierarchy level
	})
	if err != nil {
		panic(err)
	}
	for _, e := range g.Edges() {
		fmt.Printf("%s-%s %.1f\n", e.A, e.B, e.Distance)
	}
	// Output:
	// a-b 0.2
	// b-c 0.5
}

func ExampleBuild_noDistances() {
	_, err := distance.Build([]string{"a"}, map[string]float64{"a|b": 0.3})
	fmt.Println(errors.Is(err, distance.ErrNoDistances))
	// Output: true
}
