package sink

import (
	"bytes"
	"image/png"
	"strings"
	"testing"

	"github.com/matzehuels/semtiles/pkg/graph"
	"github.com/matzehuels/semtiles/pkg/layout"
	"github.com/matzehuels/semtiles/pkg/tessellate"
)

func fixture() (layout.Result, *tessellate.Tessellation) {
	res := layout.Result{
		Width:    800,
		Height:   600,
		Strategy: layout.StrategyPreserve,
		Nodes: []layout.Node{
			{ID: "a", Label: "Physics & Maths", Pos: &layout.Point{X: 200, Y: 300}},
			{ID: "b", Label: "Biology", Pos: &layout.Point{X: 600, Y: 300}, Items: []layout.Item{
				{ID: "d1", Name: "cells.pdf", Locator: "documents/d1.pdf"},
				{ID: "d2", Name: "dna.txt", Locator: "documents/d2.txt"},
			}},
		},
	}
	return res, tessellate.Build(res, 800, 600)
}

func TestRenderSVG(t *testing.T) {
	_, ts := fixture()
	svg := string(RenderSVG(ts))

	checks := []struct {
		name string
		want string
	}{
		{"viewBox", `viewBox="0 0 800.0 600.0"`},
		{"cell a", `id="cell-a"`},
		{"cell b", `id="cell-b"`},
		{"escaped label", "Physics &amp; Maths"},
		{"first colour", `fill="#6e40aa"`},
		{"delete control", `class="delete-control" data-id="a"`},
		{"glyph", `data-path="documents/d1.pdf"`},
		{"script", "semtiles:domainclick"},
		{"stop propagation", "e.stopPropagation()"},
	}
	for _, c := range checks {
		if !strings.Contains(svg, c.want) {
			t.Errorf("%s: missing %q", c.name, c.want)
		}
	}
	if got := strings.Count(svg, `class="cell-body"`); got != 2 {
		t.Errorf("got %d cell paths, want 2", got)
	}
	if got := strings.Count(svg, `class="doc"`); got != 2 {
		t.Errorf("got %d glyphs, want 2", got)
	}
}

func TestRenderSVGLayerOrder(t *testing.T) {
	_, ts := fixture()
	svg := string(RenderSVG(ts))
	cells := strings.Index(svg, `class="cells"`)
	controls := strings.Index(svg, `class="delete-controls"`)
	docs := strings.Index(svg, `class="documents"`)
	if !(cells < controls && controls < docs) {
		t.Errorf("layer order cells=%d controls=%d documents=%d", cells, controls, docs)
	}
}

func TestRenderSVGStatic(t *testing.T) {
	_, ts := fixture()
	svg := string(RenderSVG(ts, WithStatic(), WithoutLabels(), WithTitle("Root / Science")))
	if strings.Contains(svg, "<script") {
		t.Error("static SVG should not embed a script")
	}
	if strings.Contains(svg, "delete-control") {
		t.Error("static SVG should not draw delete controls")
	}
	if strings.Contains(svg, `class="labels"`) {
		t.Error("labels should be omitted")
	}
	if !strings.Contains(svg, "Root / Science") {
		t.Error("title missing")
	}
}

func TestRenderSVGDrawsCoincidentNodes(t *testing.T) {
	res := layout.Result{Width: 400, Height: 400, Nodes: []layout.Node{
		{ID: "a", Pos: &layout.Point{X: 200, Y: 200}},
		{ID: "b", Pos: &layout.Point{X: 200, Y: 200}},
	}}
	svg := string(RenderSVG(tessellate.Build(res, 400, 400)))
	for _, id := range []string{`id="cell-a"`, `id="cell-b"`} {
		if !strings.Contains(svg, id) {
			t.Errorf("svg missing %s", id)
		}
	}
}

func TestRenderSVGSkipsEmptyCells(t *testing.T) {
	ts := &tessellate.Tessellation{Width: 400, Height: 400, Cells: []tessellate.Cell{
		{Index: 0, Node: layout.Node{ID: "a"}, Polygon: []layout.Point{{X: 0, Y: 0}, {X: 400, Y: 0}, {X: 400, Y: 400}, {X: 0, Y: 400}}},
		{Index: 1, Node: layout.Node{ID: "b"}},
	}}
	svg := string(RenderSVG(ts))
	if strings.Contains(svg, `id="cell-b"`) {
		t.Error("empty cell should not get a path")
	}
	if !strings.Contains(svg, `id="cell-a"`) {
		t.Error("owning cell missing")
	}
}

func TestRenderPNG(t *testing.T) {
	_, ts := fixture()
	data, err := RenderPNG(ts, WithScale(1))
	if err != nil {
		t.Fatalf("RenderPNG: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 800 || b.Dy() != 600 {
		t.Errorf("size = %dx%d, want 800x600", b.Dx(), b.Dy())
	}

	data2x, err := RenderPNG(ts)
	if err != nil {
		t.Fatal(err)
	}
	img2x, _ := png.Decode(bytes.NewReader(data2x))
	if img2x.Bounds().Dx() != 1600 {
		t.Errorf("default scale width = %d, want 1600", img2x.Bounds().Dx())
	}
}

func TestRenderPNGEmptyFrame(t *testing.T) {
	if _, err := RenderPNG(&tessellate.Tessellation{}); err == nil {
		t.Error("empty frame should fail")
	}
}

func TestRenderJSON(t *testing.T) {
	res, ts := fixture()
	data, err := RenderJSON(res, 42, ts)
	if err != nil {
		t.Fatalf("RenderJSON: %v", err)
	}
	l, err := graph.UnmarshalLayout(data)
	if err != nil {
		t.Fatalf("UnmarshalLayout: %v", err)
	}
	if l.Seed != 42 || len(l.Cells) != 2 || l.Cells[1].ID != "b" {
		t.Errorf("layout = %+v", l)
	}
	if len(l.Cells[0].Polygon) < 3 {
		t.Error("polygon not serialized")
	}
}

func TestDeleteConfirmation(t *testing.T) {
	got := DeleteConfirmation("Physics")
	want := `Are you sure you want to delete "Physics" and all its children?`
	if got != want {
		t.Errorf("DeleteConfirmation() = %q, want %q", got, want)
	}
}
