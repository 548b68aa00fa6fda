package tessellate

import (
	"github.com/matzehuels/semtiles/pkg/layout"
)

// TargetKind is what a hit landed on.
type TargetKind int

const (
	TargetNone TargetKind = iota
	TargetCell
	TargetDelete
	TargetItem
)

func (k TargetKind) String() string {
	switch k {
	case TargetCell:
		return "cell"
	case TargetDelete:
		return "delete"
	case TargetItem:
		return "item"
	default:
		return "none"
	}
}

// Hit is the single target resolved for a point.
type Hit struct {
	Kind TargetKind
	Cell int
	Item int
}

// HitTest resolves p to one target. Glyphs are drawn above delete controls,
// which are drawn above cell bodies; within a layer later cells win.
func (t *Tessellation) HitTest(p layout.Point) Hit {
	for i := len(t.Cells) - 1; i >= 0; i-- {
		for j, g := range t.Cells[i].Glyphs() {
			if p.Dist(g.Center) <= GlyphRadius {
				return Hit{Kind: TargetItem, Cell: i, Item: j}
			}
		}
	}
	for i := len(t.Cells) - 1; i >= 0; i-- {
		if p.Dist(t.Cells[i].DeleteControl()) <= DeleteRadius {
			return Hit{Kind: TargetDelete, Cell: i, Item: -1}
		}
	}
	if i := t.CellAt(p); i >= 0 {
		return Hit{Kind: TargetCell, Cell: i, Item: -1}
	}
	return Hit{Kind: TargetNone, Cell: -1, Item: -1}
}

// Handlers are the host callbacks. Nil callbacks are skipped.
type Handlers struct {
	OnDomainClick   func(layout.Node)
	OnDocumentClick func(layout.Item)
	OnDeleteDomain  func(id string)

	// ConfirmDelete gates OnDeleteDomain. A nil gate always confirms.
	ConfirmDelete func(layout.Node) bool
}

// Dispatch invokes at most one callback for h and reports whether one ran.
func (t *Tessellation) Dispatch(h Hit, hs Handlers) bool {
	if h.Cell < 0 || h.Cell >= len(t.Cells) {
		return false
	}
	c := t.Cells[h.Cell]
	switch h.Kind {
	case TargetItem:
		if hs.OnDocumentClick == nil || h.Item < 0 || h.Item >= len(c.Node.Items) {
			return false
		}
		hs.OnDocumentClick(c.Node.Items[h.Item])
	case TargetDelete:
		if hs.OnDeleteDomain == nil {
			return false
		}
		if hs.ConfirmDelete != nil && !hs.ConfirmDelete(c.Node) {
			return false
		}
		hs.OnDeleteDomain(c.Node.ID)
	case TargetCell:
		if hs.OnDomainClick == nil {
			return false
		}
		hs.OnDomainClick(c.Node)
	default:
		return false
	}
	return true
}

// Click is HitTest followed by Dispatch.
func (t *Tessellation) Click(p layout.Point, hs Handlers) Hit {
	h := t.HitTest(p)
	t.Dispatch(h, hs)
	return h
}
