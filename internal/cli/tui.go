package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/semtiles/pkg/domainstore"
	"github.com/matzehuels/semtiles/pkg/graph"
	"github.com/matzehuels/semtiles/pkg/render/sink"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	listDangerStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorRed)
)

// domainBrowser is the part of the domain store the browser needs.
type domainBrowser interface {
	Domains(ctx context.Context, parentID string) (*domainstore.ListingResult, error)
	Path(ctx context.Context, id string) ([]graph.Domain, error)
	DeleteDomain(ctx context.Context, id string) error
	Invalidate(ctx context.Context, parentID string) error
}

type browseMode int

const (
	modeList browseMode = iota
	modeDocuments
	modeConfirm
)

// requestTimeout bounds each store call made from the browser.
const requestTimeout = 15 * time.Second

// =============================================================================
// Messages
// =============================================================================

// levelMsg carries a loaded hierarchy level. path is nil when the caller
// already knows the breadcrumb.
type levelMsg struct {
	parent string
	path   []graph.Domain
	result *domainstore.ListingResult
	err    error
}

type deletedMsg struct {
	id   string
	name string
	err  error
}

// =============================================================================
// BrowseModel - Interactive hierarchy navigation
// =============================================================================

// BrowseModel walks the domain hierarchy one level at a time. Picking a
// level with "p" quits and leaves its id in Picked.
type BrowseModel struct {
	store domainBrowser

	Parent  string
	Path    []graph.Domain
	Listing graph.Listing
	Stale   bool

	Cursor    int
	DocCursor int
	Offset    int
	Height    int
	Mode      browseMode
	Loading   bool
	Status    string
	Err       error

	Picked *string
}

// NewBrowseModel creates a browser starting at parent ("" for the top
// level).
func NewBrowseModel(store domainBrowser, parent string) BrowseModel {
	return BrowseModel{store: store, Parent: parent, Height: 15, Loading: true}
}

func (m BrowseModel) Init() tea.Cmd {
	return loadLevel(m.store, m.Parent, m.Parent != "")
}

// loadLevel fetches the children of parent and, when withPath is set, the
// breadcrumb leading to it.
func loadLevel(store domainBrowser, parent string, withPath bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		msg := levelMsg{parent: parent}
		if withPath {
			path, err := store.Path(ctx, parent)
			if err != nil {
				msg.err = err
				return msg
			}
			msg.path = path
		}
		msg.result, msg.err = store.Domains(ctx, parent)
		return msg
	}
}

func deleteDomain(store domainBrowser, parent string, d graph.Domain) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		err := store.DeleteDomain(ctx, d.ID)
		if err == nil {
			err = store.Invalidate(ctx, parent)
		}
		return deletedMsg{id: d.ID, name: d.Name, err: err}
	}
}

func (m BrowseModel) selected() (graph.Domain, bool) {
	if m.Cursor < 0 || m.Cursor >= len(m.Listing.Domains) {
		return graph.Domain{}, false
	}
	return m.Listing.Domains[m.Cursor], true
}

func (m BrowseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case levelMsg:
		return m.applyLevel(msg), nil
	case deletedMsg:
		if msg.err != nil {
			m.Loading, m.Status, m.Err = false, "", msg.err
			return m, nil
		}
		m.Status = fmt.Sprintf("Deleted %q", msg.name)
		m.Loading = true
		return m, loadLevel(m.store, m.Parent, false)
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-10, 5)
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.Mode {
		case modeConfirm:
			return m.updateConfirm(msg)
		case modeDocuments:
			return m.updateDocuments(msg)
		default:
			return m.updateList(msg)
		}
	}
	return m, nil
}

func (m BrowseModel) applyLevel(msg levelMsg) BrowseModel {
	m.Loading = false
	if msg.err != nil {
		m.Err = msg.err
		return m
	}
	if msg.path != nil {
		m.Path = msg.path
	}
	m.Parent = msg.parent
	m.Listing = msg.result.Listing
	m.Stale = msg.result.Stale
	m.Err = nil
	m.Cursor = min(m.Cursor, max(len(m.Listing.Domains)-1, 0))
	m.Offset = 0
	return m
}

func (m BrowseModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.Loading {
		if s := msg.String(); s == "q" || s == "esc" {
			return m, tea.Quit
		}
		return m, nil
	}
	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.Cursor > 0 {
			m.Cursor--
			if m.Cursor < m.Offset {
				m.Offset = m.Cursor
			}
		}
	case "down", "j":
		if m.Cursor < len(m.Listing.Domains)-1 {
			m.Cursor++
			if m.Cursor >= m.Offset+m.Height {
				m.Offset = m.Cursor - m.Height + 1
			}
		}
	case "enter", "right", "l":
		d, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.Path = append(append([]graph.Domain(nil), m.Path...), d)
		m.Cursor, m.Status, m.Loading = 0, "", true
		return m, loadLevel(m.store, d.ID, false)
	case "backspace", "left", "h":
		if len(m.Path) == 0 {
			return m, nil
		}
		m.Path = m.Path[:len(m.Path)-1]
		parent := ""
		if len(m.Path) > 0 {
			parent = m.Path[len(m.Path)-1].ID
		}
		m.Cursor, m.Status, m.Loading = 0, "", true
		return m, loadLevel(m.store, parent, false)
	case "d":
		if _, ok := m.selected(); ok {
			m.Mode, m.DocCursor = modeDocuments, 0
		}
	case "x", "delete":
		if _, ok := m.selected(); ok {
			m.Mode = modeConfirm
		}
	case "r":
		m.Status, m.Loading = "", true
		return m, loadLevel(m.store, m.Parent, false)
	case "p":
		parent := m.Parent
		m.Picked = &parent
		return m, tea.Quit
	}
	return m, nil
}

func (m BrowseModel) updateDocuments(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	d, _ := m.selected()
	switch msg.String() {
	case "q", "esc", "backspace", "left", "h", "d":
		m.Mode = modeList
	case "up", "k":
		if m.DocCursor > 0 {
			m.DocCursor--
		}
	case "down", "j":
		if m.DocCursor < len(d.Documents)-1 {
			m.DocCursor++
		}
	}
	return m, nil
}

func (m BrowseModel) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		d, ok := m.selected()
		if !ok {
			m.Mode = modeList
			return m, nil
		}
		m.Mode, m.Loading = modeList, true
		m.Status = fmt.Sprintf("Deleting %q...", d.Name)
		return m, deleteDomain(m.store, m.Parent, d)
	default:
		m.Mode = modeList
	}
	return m, nil
}

// =============================================================================
// Views
// =============================================================================

func (m BrowseModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Domains"))
	b.WriteString("  ")
	b.WriteString(breadcrumb(m.Path))
	b.WriteString("\n")

	switch m.Mode {
	case modeDocuments:
		b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎/esc back"))
	case modeConfirm:
		b.WriteString(listDimStyle.Render("y confirm  any other key cancels"))
	default:
		b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ open  ⌫ up  d documents  x delete  r reload  p render  q quit"))
	}
	b.WriteString("\n\n")

	if m.Stale {
		b.WriteString(statusWarning.line("Using cached data"))
		b.WriteString("\n")
	}

	switch {
	case m.Loading && len(m.Listing.Domains) == 0:
		b.WriteString(listDimStyle.Render("Loading..."))
	case m.Mode == modeDocuments:
		b.WriteString(m.documentsView())
	case len(m.Listing.Domains) == 0:
		b.WriteString(listDimStyle.Render("No domains at this level"))
	default:
		b.WriteString(m.tableView())
	}
	b.WriteString("\n")

	if m.Mode == modeConfirm {
		if d, ok := m.selected(); ok {
			b.WriteString("\n")
			b.WriteString(listDangerStyle.Render(sink.DeleteConfirmation(d.Name)))
			b.WriteString(" [y/N]\n")
		}
	}
	if m.Status != "" {
		b.WriteString("\n" + statusSuccess.line(m.Status) + "\n")
	}
	if m.Err != nil {
		b.WriteString("\n" + statusError.line(m.Err.Error()) + "\n")
	}
	return b.String()
}

func (m BrowseModel) tableView() string {
	end := min(m.Offset+m.Height, len(m.Listing.Domains))

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		d := m.Listing.Domains[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{cursor, d.Name, fmt.Sprint(len(d.Documents)), formatPosition(d)})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Domain", "Docs", "Position").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if m.Offset+row == m.Cursor {
				if m.Mode == modeConfirm {
					return listDangerStyle
				}
				return listSelectedStyle
			}
			if col >= 2 {
				return listDimStyle
			}
			return listNormalStyle
		})

	return t.Render() + "\n" + listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Listing.Domains)))
}

func (m BrowseModel) documentsView() string {
	d, _ := m.selected()
	var b strings.Builder
	b.WriteString(listNormalStyle.Render(d.Name))
	b.WriteString("\n\n")
	if len(d.Documents) == 0 {
		b.WriteString(listDimStyle.Render("No documents"))
		return b.String()
	}
	for i, doc := range d.Documents {
		cursor := "  "
		style := listNormalStyle
		if i == m.DocCursor {
			cursor, style = "> ", listSelectedStyle
		}
		line := fmt.Sprintf("%s%-30s  %s", cursor, doc.Name, listDimStyle.Render(doc.Type))
		if doc.DateAdded != "" {
			line += "  " + listDimStyle.Render(formatRelativeTime(doc.DateAdded))
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
		if i == m.DocCursor && doc.Description != "" {
			b.WriteString("    " + listDimStyle.Render(doc.Description) + "\n")
		}
	}
	return b.String()
}

// =============================================================================
// Helpers
// =============================================================================

// breadcrumb renders "Top › a › b".
func breadcrumb(path []graph.Domain) string {
	parts := []string{"Top"}
	for _, d := range path {
		parts = append(parts, d.Name)
	}
	return listDimStyle.Render(strings.Join(parts, " "+statusInfo.icon+" "))
}

func formatPosition(d graph.Domain) string {
	if d.X == nil || d.Y == nil {
		return "—"
	}
	return fmt.Sprintf("%.0f, %.0f", *d.X, *d.Y)
}

func formatRelativeTime(s string) string {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return s
	}

	diff := time.Since(t)
	switch {
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Format("Jan 2, 2006")
	}
}
