package graph

import (
	"github.com/matzehuels/semtiles/pkg/layout"
)

// =============================================================================
// Domain Store Payloads
// =============================================================================

// Document is a file attached to a domain.
type Document struct {
	ID          string `json:"id" bson:"id"`
	Name        string `json:"name" bson:"name"`
	Path        string `json:"path" bson:"path"`
	Type        string `json:"type,omitempty" bson:"type,omitempty"`
	DateAdded   string `json:"dateAdded,omitempty" bson:"date_added,omitempty"`
	Description string `json:"description,omitempty" bson:"description,omitempty"`
}

// Item converts the document to its glyph representation.
func (d Document) Item() layout.Item {
	return layout.Item{ID: d.ID, Name: d.Name, Kind: d.Type, Locator: d.Path}
}

// Domain is one topic in the hierarchy. X and Y are nil when the store sent
// no coordinates.
type Domain struct {
	ID          string     `json:"id" bson:"_id"`
	Name        string     `json:"name" bson:"name"`
	Description string     `json:"description,omitempty" bson:"description,omitempty"`
	ParentID    *string    `json:"parentId" bson:"parent_id"`
	Children    []string   `json:"children,omitempty" bson:"children,omitempty"`
	Documents   []Document `json:"documents,omitempty" bson:"documents,omitempty"`
	X           *float64   `json:"x,omitempty" bson:"x,omitempty"`
	Y           *float64   `json:"y,omitempty" bson:"y,omitempty"`
}

// Node converts the domain to a layout node. Absent coordinates, or both
// exactly zero, leave the node unpositioned.
func (d Domain) Node() layout.Node {
	n := layout.Node{ID: d.ID, Label: d.Name}
	if d.X != nil && d.Y != nil && !(*d.X == 0 && *d.Y == 0) {
		n.Pos = &layout.Point{X: *d.X, Y: *d.Y}
	}
	if len(d.Documents) > 0 {
		n.Items = make([]layout.Item, len(d.Documents))
		for i, doc := range d.Documents {
			n.Items[i] = doc.Item()
		}
	}
	return n
}

// Listing is the response of GET /domains: one hierarchy level and the
// pairwise semantic distances between its domains, keyed "idA|idB".
type Listing struct {
	Domains           []Domain           `json:"domains" bson:"domains"`
	SemanticDistances map[string]float64 `json:"semanticDistances" bson:"semantic_distances"`
}

// Nodes converts every domain to a layout node, in listing order.
func (l Listing) Nodes() []layout.Node {
	nodes := make([]layout.Node, len(l.Domains))
	for i, d := range l.Domains {
		nodes[i] = d.Node()
	}
	return nodes
}

// Domain returns the domain with the given id.
func (l Listing) Domain(id string) (Domain, bool) {
	for _, d := range l.Domains {
		if d.ID == id {
			return d, true
		}
	}
	return Domain{}, false
}

// WithPositions returns a copy of l whose domains carry the given
// coordinates. Domains missing from pos keep theirs.
func (l Listing) WithPositions(pos Positions) Listing {
	out := Listing{SemanticDistances: l.SemanticDistances, Domains: make([]Domain, len(l.Domains))}
	for i, d := range l.Domains {
		if p, ok := pos[d.ID]; ok {
			x, y := p.X, p.Y
			d.X, d.Y = &x, &y
		}
		out.Domains[i] = d
	}
	return out
}

// PathResponse is the response of GET /domains/{id}/path, root first.
type PathResponse struct {
	Path []Domain `json:"path"`
}

// CreateDomainRequest is the body of POST /domains.
type CreateDomainRequest struct {
	Name        string  `json:"name"`
	ParentID    *string `json:"parentId"`
	Description string  `json:"description"`
}

// UpdateDomainRequest is the body of PUT /domains/{id}. Nil fields are left
// unchanged.
type UpdateDomainRequest struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	X           *float64 `json:"x,omitempty"`
	Y           *float64 `json:"y,omitempty"`
}

// QueryRequest is the body of POST /documents/{path}/query.
type QueryRequest struct {
	Query string `json:"query"`
}

// QueryResponse is the answer to a document query.
type QueryResponse struct {
	Response string `json:"response"`
}

// SummaryResponse is the response of GET /documents/{path}/summary.
type SummaryResponse struct {
	Summary string `json:"summary"`
}

// =============================================================================
// Positions
// =============================================================================

// Position is a persisted coordinate pair.
type Position struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// Positions maps domain id to coordinates.
type Positions map[string]Position

// PositionsRequest is the body of POST /domains/positions.
type PositionsRequest struct {
	Positions Positions `json:"positions"`
}

// PositionsFromResult extracts the coordinates of a completed layout.
func PositionsFromResult(r layout.Result) Positions {
	out := make(Positions, len(r.Nodes))
	for id, p := range r.Positions() {
		out[id] = Position{X: p.X, Y: p.Y}
	}
	return out
}
