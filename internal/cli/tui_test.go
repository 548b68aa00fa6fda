package cli

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/semtiles/pkg/domainstore"
	"github.com/matzehuels/semtiles/pkg/graph"
)

// fakeBrowser serves a two-level hierarchy: root -> {a, b}, a -> {a1}.
type fakeBrowser struct {
	levels      map[string][]graph.Domain
	stale       bool
	deleted     []string
	invalidated []string
	deleteErr   error
}

func newFakeBrowser() *fakeBrowser {
	return &fakeBrowser{levels: map[string][]graph.Domain{
		"": {
			{ID: "a", Name: "Algebra", Documents: []graph.Document{
				{ID: "d1", Name: "groups.pdf", Type: "pdf", Description: "Group theory notes"},
				{ID: "d2", Name: "rings.md", Type: "md"},
			}},
			{ID: "b", Name: "Biology"},
		},
		"a": {{ID: "a1", Name: "Linear"}},
	}}
}

func (f *fakeBrowser) Domains(_ context.Context, parent string) (*domainstore.ListingResult, error) {
	return &domainstore.ListingResult{
		ParentID: parent,
		Listing:  graph.Listing{Domains: f.levels[parent]},
		Stale:    f.stale,
	}, nil
}

func (f *fakeBrowser) Path(_ context.Context, id string) ([]graph.Domain, error) {
	for _, d := range f.levels[""] {
		if d.ID == id {
			return []graph.Domain{d}, nil
		}
	}
	return nil, errors.New("not found")
}

func (f *fakeBrowser) DeleteDomain(_ context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	level := f.levels[""]
	for i, d := range level {
		if d.ID == id {
			f.levels[""] = append(level[:i:i], level[i+1:]...)
		}
	}
	return nil
}

func (f *fakeBrowser) Invalidate(_ context.Context, parent string) error {
	f.invalidated = append(f.invalidated, parent)
	return nil
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// step delivers msg and runs the returned command once, feeding its
// message back, the way the bubbletea runtime would.
func step(t *testing.T, m BrowseModel, msg tea.Msg) (BrowseModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	bm := next.(BrowseModel)
	if cmd == nil {
		return bm, nil
	}
	result := cmd()
	switch result.(type) {
	case levelMsg, deletedMsg:
		next, cmd = bm.Update(result)
		bm = next.(BrowseModel)
		if cmd != nil {
			if follow := cmd(); follow != nil {
				next, cmd = bm.Update(follow)
				bm = next.(BrowseModel)
			}
		}
		return bm, cmd
	}
	return bm, cmd
}

func loaded(t *testing.T, f *fakeBrowser, parent string) BrowseModel {
	t.Helper()
	m := NewBrowseModel(f, parent)
	next, _ := m.Update(m.Init()())
	return next.(BrowseModel)
}

func TestBrowseLoadsTopLevel(t *testing.T) {
	m := loaded(t, newFakeBrowser(), "")
	if m.Loading || len(m.Listing.Domains) != 2 {
		t.Fatalf("loaded model: loading=%v domains=%d, want 2", m.Loading, len(m.Listing.Domains))
	}
	view := m.View()
	for _, want := range []string{"Top", "Algebra", "Biology"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestBrowseStartBelowParentResolvesPath(t *testing.T) {
	m := loaded(t, newFakeBrowser(), "a")
	if len(m.Path) != 1 || m.Path[0].ID != "a" {
		t.Errorf("Path = %v, want [a]", m.Path)
	}
	if len(m.Listing.Domains) != 1 || m.Listing.Domains[0].ID != "a1" {
		t.Errorf("Listing = %v, want [a1]", m.Listing.Domains)
	}
}

func TestBrowseDrillDownAndBack(t *testing.T) {
	m := loaded(t, newFakeBrowser(), "")

	m, _ = step(t, m, key("enter"))
	if m.Parent != "a" || len(m.Path) != 1 {
		t.Fatalf("after enter: parent=%q path=%d, want a and 1", m.Parent, len(m.Path))
	}
	if !strings.Contains(m.View(), "Algebra") || !strings.Contains(m.View(), "Linear") {
		t.Error("view should show the breadcrumb and the child level")
	}

	m, _ = step(t, m, key("backspace"))
	if m.Parent != "" || len(m.Path) != 0 || len(m.Listing.Domains) != 2 {
		t.Errorf("after back: parent=%q path=%d domains=%d", m.Parent, len(m.Path), len(m.Listing.Domains))
	}
}

func TestBrowseCursorBounds(t *testing.T) {
	m := loaded(t, newFakeBrowser(), "")
	m, _ = step(t, m, key("k"))
	if m.Cursor != 0 {
		t.Errorf("Cursor = %d after up at top, want 0", m.Cursor)
	}
	m, _ = step(t, m, key("j"))
	m, _ = step(t, m, key("j"))
	if m.Cursor != 1 {
		t.Errorf("Cursor = %d after two downs, want 1", m.Cursor)
	}
}

func TestBrowseDocuments(t *testing.T) {
	m := loaded(t, newFakeBrowser(), "")
	m, _ = step(t, m, key("d"))
	if m.Mode != modeDocuments {
		t.Fatalf("Mode = %v, want documents", m.Mode)
	}
	view := m.View()
	if !strings.Contains(view, "groups.pdf") || !strings.Contains(view, "Group theory notes") {
		t.Errorf("documents view = %q", view)
	}
	m, _ = step(t, m, key("j"))
	if m.DocCursor != 1 {
		t.Errorf("DocCursor = %d, want 1", m.DocCursor)
	}
	m, _ = step(t, m, key("esc"))
	if m.Mode != modeList {
		t.Errorf("Mode = %v after esc, want list", m.Mode)
	}
}

func TestBrowseDeleteConfirm(t *testing.T) {
	f := newFakeBrowser()
	m := loaded(t, f, "")

	m, _ = step(t, m, key("x"))
	if m.Mode != modeConfirm {
		t.Fatalf("Mode = %v, want confirm", m.Mode)
	}
	if !strings.Contains(m.View(), `Are you sure you want to delete "Algebra" and all its children?`) {
		t.Errorf("confirm view = %q", m.View())
	}

	m, _ = step(t, m, key("n"))
	if m.Mode != modeList || len(f.deleted) != 0 {
		t.Fatalf("cancel: mode=%v deleted=%v", m.Mode, f.deleted)
	}

	m, _ = step(t, m, key("x"))
	m, _ = step(t, m, key("y"))
	if len(f.deleted) != 1 || f.deleted[0] != "a" {
		t.Errorf("deleted = %v, want [a]", f.deleted)
	}
	if len(f.invalidated) != 1 || f.invalidated[0] != "" {
		t.Errorf("invalidated = %v, want the top level", f.invalidated)
	}
	if len(m.Listing.Domains) != 1 || m.Listing.Domains[0].ID != "b" {
		t.Errorf("after delete listing = %v, want [b]", m.Listing.Domains)
	}
}

func TestBrowseDeleteError(t *testing.T) {
	f := newFakeBrowser()
	f.deleteErr = errors.New("store down")
	m := loaded(t, f, "")

	m, _ = step(t, m, key("x"))
	m, _ = step(t, m, key("y"))
	if m.Err == nil || !strings.Contains(m.View(), "store down") {
		t.Errorf("Err = %v, want store down in view", m.Err)
	}
	if len(m.Listing.Domains) != 2 {
		t.Errorf("listing changed after failed delete")
	}
}

func TestBrowseStaleWarning(t *testing.T) {
	f := newFakeBrowser()
	f.stale = true
	m := loaded(t, f, "")
	if !m.Stale || !strings.Contains(m.View(), "Using cached data") {
		t.Error("stale listing should show a warning")
	}
}

func TestBrowsePick(t *testing.T) {
	m := loaded(t, newFakeBrowser(), "")
	m, _ = step(t, m, key("enter"))
	next, cmd := m.Update(key("p"))
	m = next.(BrowseModel)
	if m.Picked == nil || *m.Picked != "a" {
		t.Errorf("Picked = %v, want a", m.Picked)
	}
	if cmd == nil {
		t.Error("pick should quit")
	}
}

func TestFormatPosition(t *testing.T) {
	x, y := 12.4, 99.6
	if got := formatPosition(graph.Domain{X: &x, Y: &y}); got != "12, 100" {
		t.Errorf("formatPosition() = %q", got)
	}
	if got := formatPosition(graph.Domain{}); got != "—" {
		t.Errorf("formatPosition() unpositioned = %q", got)
	}
}
