package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/semtiles/pkg/graph"
	"github.com/matzehuels/semtiles/pkg/pipeline"
)

// captureOutput redirects status lines for the duration of a test.
func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := out
	out = &buf
	t.Cleanup(func() { out = prev })
	return &buf
}

// isolate points config and cache lookups at temp dirs and disables the
// cache and position sync.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	t.Setenv("SEMTILES_CACHE_BACKEND", "none")
	t.Setenv("SEMTILES_SYNC_BACKEND", "none")
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	c := New(io.Discard, log.WarnLevel)
	root := c.RootCommand()
	var stdout bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), err
}

func writeListing(t *testing.T) string {
	t.Helper()
	l := graph.Listing{
		Domains: []graph.Domain{
			{ID: "a", Name: "Algebra", Documents: []graph.Document{{ID: "d1", Name: "groups.pdf", Path: "a/groups.pdf"}}},
			{ID: "b", Name: "Biology"},
			{ID: "c", Name: "Chemistry"},
		},
		SemanticDistances: map[string]float64{"a|b": 0.9, "b|c": 0.3, "a|c": 0.7},
	}
	path := filepath.Join(t.TempDir(), "level.json")
	if err := graph.WriteListingFile(l, path); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := New(io.Discard, log.InfoLevel).RootCommand()
	want := []string{"render", "layout", "visualize", "serve", "browse", "sync", "cache", "config", "completion"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{"svg"}},
		{"png", []string{"png"}},
		{"svg, json ,dot", []string{"svg", "json", "dot"}},
	}
	for _, tt := range tests {
		got := parseFormats(tt.in)
		if strings.Join(got, ",") != strings.Join(tt.want, ",") {
			t.Errorf("parseFormats(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestViewportFlagsApply(t *testing.T) {
	c := New(io.Discard, log.InfoLevel)
	cfg := c.Config()

	var opts pipeline.Options
	(&viewportFlags{}).apply(cfg, &opts)
	if opts.Width != cfg.Viewport.Width || opts.Height != cfg.Viewport.Height || opts.Seed != cfg.Layout.Seed {
		t.Errorf("apply() with no flags = %vx%v seed %d, want config values", opts.Width, opts.Height, opts.Seed)
	}

	(&viewportFlags{width: 300, seed: 7}).apply(cfg, &opts)
	if opts.Width != 300 || opts.Height != cfg.Viewport.Height || opts.Seed != 7 {
		t.Errorf("apply() = %vx%v seed %d, want 300x%v seed 7", opts.Width, opts.Height, opts.Seed, cfg.Viewport.Height)
	}
}

func TestOutputBase(t *testing.T) {
	tests := []struct {
		output string
		opts   pipeline.Options
		want   string
	}{
		{"out/x", pipeline.Options{ParentID: "p"}, "out/x"},
		{"", pipeline.Options{Input: "dir/level.json"}, "dir/level"},
		{"", pipeline.Options{ParentID: "p1"}, "p1"},
		{"", pipeline.Options{}, "root"},
	}
	for _, tt := range tests {
		if got := outputBase(tt.output, tt.opts); got != tt.want {
			t.Errorf("outputBase(%q, %+v) = %q, want %q", tt.output, tt.opts, got, tt.want)
		}
	}
}

func TestWriteArtifacts(t *testing.T) {
	captureOutput(t)
	dir := t.TempDir()
	artifacts := map[string][]byte{"svg": []byte("<svg/>"), "json": []byte("{}")}

	if err := writeArtifacts(artifacts, []string{"svg", "json"}, filepath.Join(dir, "sub", "out.svg")); err != nil {
		t.Fatalf("writeArtifacts() error = %v", err)
	}
	for _, name := range []string{"out.svg", "out.json"} {
		if _, err := os.Stat(filepath.Join(dir, "sub", name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}

	if err := writeArtifacts(artifacts, []string{"png"}, filepath.Join(dir, "x")); err == nil {
		t.Error("writeArtifacts() with a missing artifact should fail")
	}
}

func TestRenderFromListingFile(t *testing.T) {
	isolate(t)
	buf := captureOutput(t)
	input := writeListing(t)
	base := filepath.Join(t.TempDir(), "tiles")

	if _, err := run(t, "render", input, "-o", base, "-f", "svg,json", "--width", "400", "--height", "300"); err != nil {
		t.Fatalf("render error = %v", err)
	}

	svg, err := os.ReadFile(base + ".svg")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(svg, []byte("Algebra")) {
		t.Error("svg should contain domain labels")
	}

	data, err := os.ReadFile(base + ".json")
	if err != nil {
		t.Fatal(err)
	}
	var l graph.Layout
	if err := json.Unmarshal(data, &l); err != nil {
		t.Fatalf("json artifact: %v", err)
	}
	if l.Width != 400 || l.Height != 300 || len(l.Cells) != 3 {
		t.Errorf("layout = %vx%v with %d cells, want 400x300 with 3", l.Width, l.Height, len(l.Cells))
	}
	if !strings.Contains(buf.String(), "3 domains") {
		t.Errorf("status output = %q, want domain count", buf.String())
	}
}

func TestRenderWritesDistanceGraph(t *testing.T) {
	isolate(t)
	captureOutput(t)
	base := filepath.Join(t.TempDir(), "level.svg")

	if _, err := run(t, "render", writeListing(t), "-o", base, "--graph"); err != nil {
		t.Fatalf("render --graph error = %v", err)
	}
	data, err := os.ReadFile(strings.TrimSuffix(base, ".svg") + ".graph.svg")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(data, []byte("<svg")) {
		t.Error("distance graph is not an SVG")
	}
}

func TestRenderRejectsBadFormat(t *testing.T) {
	isolate(t)
	if _, err := run(t, "render", writeListing(t), "-f", "gif"); err == nil {
		t.Error("render with format gif should fail")
	}
}

func TestLayoutThenVisualize(t *testing.T) {
	isolate(t)
	captureOutput(t)
	input := writeListing(t)
	layoutPath := filepath.Join(t.TempDir(), "level.layout.json")

	if _, err := run(t, "layout", input, "-o", layoutPath, "--polygons"); err != nil {
		t.Fatalf("layout error = %v", err)
	}
	l, err := graph.ReadLayoutFile(layoutPath)
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range l.Cells {
		if len(c.Polygon) < 3 {
			t.Errorf("cell %s has %d polygon points, want >= 3", c.ID, len(c.Polygon))
		}
	}

	if _, err := run(t, "visualize", layoutPath, "-f", "svg,dot"); err != nil {
		t.Fatalf("visualize error = %v", err)
	}
	base := strings.TrimSuffix(layoutPath, ".layout.json")
	for _, ext := range []string{".svg", ".dot"} {
		if _, err := os.Stat(base + ext); err != nil {
			t.Errorf("visualize did not write %s: %v", base+ext, err)
		}
	}
}

func TestConfigPathAndInit(t *testing.T) {
	isolate(t)
	captureOutput(t)
	path := filepath.Join(t.TempDir(), "semtiles.toml")

	got, err := run(t, "--config", path, "config", "path")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(got) != path {
		t.Errorf("config path = %q, want %q", got, path)
	}

	if _, err := run(t, "--config", path, "config", "init"); err != nil {
		t.Fatalf("config init error = %v", err)
	}
	if _, err := run(t, "--config", path, "config", "init"); err == nil {
		t.Error("second config init without --force should fail")
	}
	if _, err := run(t, "--config", path, "config", "init", "--force"); err != nil {
		t.Errorf("config init --force error = %v", err)
	}

	shown, err := run(t, "--config", path, "config", "show")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(shown, "backend: none") {
		t.Errorf("config show = %q, want env override applied", shown)
	}
}

func TestCacheClearNeedsFileBackend(t *testing.T) {
	isolate(t)
	if _, err := run(t, "cache", "clear"); err == nil {
		t.Error("cache clear with backend none should fail")
	}
}

func TestCacheClearFileBackend(t *testing.T) {
	isolate(t)
	captureOutput(t)
	dir := t.TempDir()
	t.Setenv("SEMTILES_CACHE_BACKEND", "file")
	t.Setenv("SEMTILES_CACHE_DIR", dir)
	if err := os.WriteFile(filepath.Join(dir, "stale.json"), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := run(t, "cache", "clear"); err != nil {
		t.Fatalf("cache clear error = %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("cache dir has %d entries after clear", len(entries))
	}
}

func TestSyncShowFileStore(t *testing.T) {
	isolate(t)
	buf := captureOutput(t)
	path := filepath.Join(t.TempDir(), "positions.json")
	t.Setenv("SEMTILES_SYNC_BACKEND", "file")
	t.Setenv("SEMTILES_SYNC_PATH", path)
	data, _ := json.Marshal(graph.Positions{"a": {X: 10, Y: 20}})
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := run(t, "sync", "show"); err != nil {
		t.Fatalf("sync show error = %v", err)
	}
	if !strings.Contains(buf.String(), "10.0, 20.0") {
		t.Errorf("sync show output = %q, want stored position", buf.String())
	}
}

func TestCompletion(t *testing.T) {
	got, err := run(t, "completion", "bash")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "semtiles") {
		t.Error("bash completion should mention the binary")
	}
}

func TestStatusHelpers(t *testing.T) {
	buf := captureOutput(t)
	printStats(4, 6, "force", true)
	printStale()
	printKeyValue("Job", "j1")
	printNextStep("Render", "semtiles visualize x")

	got := buf.String()
	for _, want := range []string{"4 domains", "6 distances", "cached", "Using cached data", "j1", "semtiles visualize x"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}
