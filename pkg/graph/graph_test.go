package graph

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/semtiles/pkg/layout"
	"github.com/matzehuels/semtiles/pkg/tessellate"
)

const listingJSON = `{
  "domains": [
    {"id": "a", "name": "Physics", "parentId": null, "x": 0, "y": 0,
     "documents": [{"id": "d1", "name": "paper.pdf", "path": "documents/1.pdf", "type": "application/pdf"}]},
    {"id": "b", "name": "Chemistry", "parentId": null, "x": 120.5, "y": 80},
    {"id": "c", "name": "Biology", "parentId": null}
  ],
  "semanticDistances": {"a|b": 0.2, "b|c": 0.5}
}`

func TestUnmarshalListing(t *testing.T) {
	l, err := UnmarshalListing([]byte(listingJSON))
	if err != nil {
		t.Fatalf("UnmarshalListing: %v", err)
	}
	if len(l.Domains) != 3 {
		t.Fatalf("len(Domains) = %d, want 3", len(l.Domains))
	}
	if l.SemanticDistances["b|c"] != 0.5 {
		t.Errorf("distance b|c = %v, want 0.5", l.SemanticDistances["b|c"])
	}

	nodes := l.Nodes()
	tests := []struct {
		id      string
		wantPos *layout.Point
	}{
		{"a", nil}, // zero sentinel from the store
		{"b", &layout.Point{X: 120.5, Y: 80}},
		{"c", nil}, // absent coordinates
	}
	for i, tt := range tests {
		n := nodes[i]
		if n.ID != tt.id {
			t.Fatalf("node %d id = %q, want %q", i, n.ID, tt.id)
		}
		switch {
		case tt.wantPos == nil && n.Pos != nil:
			t.Errorf("node %s Pos = %v, want nil", n.ID, *n.Pos)
		case tt.wantPos != nil && (n.Pos == nil || *n.Pos != *tt.wantPos):
			t.Errorf("node %s Pos = %v, want %v", n.ID, n.Pos, *tt.wantPos)
		}
	}

	if len(nodes[0].Items) != 1 || nodes[0].Items[0].Locator != "documents/1.pdf" {
		t.Errorf("node a items = %+v", nodes[0].Items)
	}
	if nodes[0].Label != "Physics" {
		t.Errorf("node a label = %q, want Physics", nodes[0].Label)
	}
}

func TestDomainNodeSingleZeroAxis(t *testing.T) {
	x, y := 0.0, 40.0
	n := Domain{ID: "a", X: &x, Y: &y}.Node()
	if n.Pos == nil || n.Pos.X != 0 || n.Pos.Y != 40 {
		t.Errorf("Pos = %v, want (0, 40)", n.Pos)
	}
}

func TestUnmarshalListingErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"bad json", `{`, "unmarshal listing"},
		{"missing id", `{"domains":[{"name":"x"}]}`, "has no id"},
		{"duplicate id", `{"domains":[{"id":"a"},{"id":"a"}]}`, "duplicate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalListing([]byte(tt.data))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestWithPositions(t *testing.T) {
	l, _ := UnmarshalListing([]byte(listingJSON))
	out := l.WithPositions(Positions{"a": {X: 10, Y: 20}, "zzz": {X: 1, Y: 1}})

	if out.Domains[0].Node().Pos == nil {
		t.Fatal("domain a should be positioned")
	}
	if *out.Domains[1].X != 120.5 {
		t.Errorf("domain b X = %v, want unchanged 120.5", *out.Domains[1].X)
	}
	if l.Domains[0].X != nil && *l.Domains[0].X != 0 {
		t.Error("WithPositions modified the original listing")
	}
}

func TestListingFileRoundTrip(t *testing.T) {
	l, _ := UnmarshalListing([]byte(listingJSON))
	path := filepath.Join(t.TempDir(), "listing.json")
	if err := WriteListingFile(l, path); err != nil {
		t.Fatalf("WriteListingFile: %v", err)
	}
	got, err := ReadListingFile(path)
	if err != nil {
		t.Fatalf("ReadListingFile: %v", err)
	}
	if len(got.Domains) != 3 || got.Domains[2].Name != "Biology" {
		t.Errorf("round trip lost domains: %+v", got.Domains)
	}

	if _, err := ReadListingFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("ReadListingFile on missing file should fail")
	}
}

func TestMarshalListingEmptyDistances(t *testing.T) {
	data, err := MarshalListing(Listing{Domains: []Domain{{ID: "a"}}})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"semanticDistances": {}`) {
		t.Errorf("distances should serialize as an empty object: %s", data)
	}
}

func TestLayoutRoundTrip(t *testing.T) {
	nodes := []layout.Node{{ID: "a", Label: "A"}, {ID: "b", Label: "B", Items: []layout.Item{{ID: "d"}}}}
	res := layout.NewEngine(800, 600, 42, nil).Layout(nodes, nil)
	ts := tessellate.Build(res, 800, 600)

	l := FromResult(res, 42, ts)
	if l.Strategy != "circular" {
		t.Errorf("Strategy = %q, want circular", l.Strategy)
	}
	if len(l.Cells[0].Polygon) < 3 {
		t.Errorf("cell a polygon = %v", l.Cells[0].Polygon)
	}

	path := filepath.Join(t.TempDir(), "layout.json")
	if err := WriteLayoutFile(l, path); err != nil {
		t.Fatalf("WriteLayoutFile: %v", err)
	}
	got, err := ReadLayoutFile(path)
	if err != nil {
		t.Fatalf("ReadLayoutFile: %v", err)
	}

	back := got.Result()
	for i, n := range back.Nodes {
		if *n.Pos != *res.Nodes[i].Pos {
			t.Errorf("node %s = %v, want %v", n.ID, *n.Pos, *res.Nodes[i].Pos)
		}
	}
	if len(back.Nodes[1].Items) != 1 {
		t.Errorf("items lost: %+v", back.Nodes[1])
	}
}

func TestUnmarshalLayoutRejectsEmptyFrame(t *testing.T) {
	if _, err := UnmarshalLayout([]byte(`{"width":0,"height":600}`)); err == nil {
		t.Error("UnmarshalLayout should reject zero width")
	}
	if _, err := ReadLayoutFile(filepath.Join(os.TempDir(), "semtiles-does-not-exist.json")); err == nil {
		t.Error("ReadLayoutFile on missing file should fail")
	}
}

func TestPositionsFromResult(t *testing.T) {
	res := layout.NewEngine(800, 600, 1, nil).Layout([]layout.Node{{ID: "a"}, {ID: "b"}}, nil)
	pos := PositionsFromResult(res)
	if len(pos) != 2 || pos["a"].X != res.Nodes[0].Pos.X {
		t.Errorf("PositionsFromResult = %v", pos)
	}
}
