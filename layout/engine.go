package layout

import "strconv"

// Config holds the geometry used by the engine
type Config struct {
	NodeWidth         float64 `json:"nodeWidth" toml:"node_width"`
	NodeHeight        float64 `json:"nodeHeight" toml:"node_height"`
	HorizontalSpacing float64 `json:"horizontalSpacing" toml:"horizontal_spacing"`
	VerticalSpacing   float64 `json:"verticalSpacing" toml:"vertical_spacing"`
}

// DefaultConfig returns the standard node geometry
func DefaultConfig() Config {
	return Config{
		NodeWidth:         300,
		NodeHeight:        40,
		HorizontalSpacing: 0,
		VerticalSpacing:   100,
	}
}

// RowStep is the vertical distance between a parent row and its children's row
func (c Config) RowStep() float64 {
	return c.NodeHeight + c.VerticalSpacing
}

// LeafFootprint is the horizontal room reserved for a node without children
func (c Config) LeafFootprint() float64 {
	return c.NodeWidth + c.HorizontalSpacing
}

// Engine computes diagrams. It keeps no state between calls and is safe for concurrent use.
type Engine struct {
	cfg Config
}

// NewEngine creates an engine with the given geometry
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Config returns the engine geometry
func (e *Engine) Config() Config {
	return e.cfg
}

// Compute builds an index over records and lays it out in one call
func Compute(records []Record, cfg Config, opts ...IndexOption) (*Diagram, error) {
	idx, err := BuildIndex(records, opts...)
	if err != nil {
		return nil, err
	}
	return NewEngine(cfg).Layout(idx)
}

type visitState uint8

const (
	unvisited visitState = iota
	onPath
	measured
)

// pass carries the per-call memo tables
type pass struct {
	cfg       Config
	idx       *Index
	state     map[int64]visitState
	footprint map[int64]float64
	path      []int64
	out       []PositionedNode
}

// Layout positions every indexed node and derives the edges to draw.
// It fails with a CycleError when a parent chain loops, and returns no partial result.
func (e *Engine) Layout(idx *Index) (*Diagram, error) {
	p := &pass{
		cfg:       e.cfg,
		idx:       idx,
		state:     make(map[int64]visitState, idx.Len()),
		footprint: make(map[int64]float64, idx.Len()),
		out:       make([]PositionedNode, 0, idx.Len()),
	}

	// Measure every record, not just those under a root. Nodes on a detached
	// cycle are unreachable from the roots and would otherwise go unnoticed.
	for _, r := range idx.records {
		if _, err := p.measure(r.ID); err != nil {
			return nil, err
		}
	}

	// Roots are siblings under an implicit super-root at x = 0, one row above y = 0
	p.place(idx.roots, 0, -e.cfg.RowStep())

	return &Diagram{
		Nodes: p.out,
		Edges: deriveEdges(idx),
	}, nil
}

// measure returns the footprint of the subtree rooted at id
func (p *pass) measure(id int64) (float64, error) {
	switch p.state[id] {
	case measured:
		return p.footprint[id], nil
	case onPath:
		return 0, p.cycleAt(id)
	}

	p.state[id] = onPath
	p.path = append(p.path, id)

	kids := p.idx.children[id]
	width := p.cfg.LeafFootprint()
	if len(kids) > 0 {
		width = 0
		for _, kid := range kids {
			w, err := p.measure(kid)
			if err != nil {
				return 0, err
			}
			width += w
		}
	}

	p.path = p.path[:len(p.path)-1]
	p.state[id] = measured
	p.footprint[id] = width
	return width, nil
}

func (p *pass) cycleAt(id int64) error {
	start := 0
	for i, v := range p.path {
		if v == id {
			start = i
			break
		}
	}
	path := append(append([]int64(nil), p.path[start:]...), id)
	return &CycleError{Path: path}
}

// place lays out kids starting half their combined footprint left of cx, one row
// below rowY, then recurses into each. The cursor steps by HorizontalSpacing after
// every child on top of the spacing already in each leaf footprint, so with spacing
// set the row drifts right of cx.
func (p *pass) place(kids []int64, cx, rowY float64) {
	if len(kids) == 0 {
		return
	}

	var total float64
	for _, kid := range kids {
		total += p.footprint[kid]
	}

	y := rowY + p.cfg.RowStep()
	cursor := cx - total/2
	for _, kid := range kids {
		half := p.footprint[kid] / 2
		cursor += half

		rec, _ := p.idx.Record(kid)
		p.out = append(p.out, PositionedNode{
			ID:    kid,
			Title: rec.Title,
			X:     cursor,
			Y:     y,
		})
		p.place(p.idx.children[kid], cursor, y)

		cursor += half + p.cfg.HorizontalSpacing
	}
}

func deriveEdges(idx *Index) []Edge {
	edges := make([]Edge, 0, len(idx.records))
	for _, r := range idx.records {
		if r.ParentID == nil || idx.promoted[r.ID] {
			continue
		}
		edges = append(edges, NewEdge(*r.ParentID, r.ID))
	}
	return edges
}

// NewEdge builds the edge from parent to child
func NewEdge(parent, child int64) Edge {
	return Edge{
		ID:     strconv.FormatInt(parent, 10) + "-" + strconv.FormatInt(child, 10),
		Source: parent,
		Target: child,
	}
}
