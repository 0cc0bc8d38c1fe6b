package layout

// PositionedNode is a node with its diagram coordinates.
// X and Y are the center of the node box.
type PositionedNode struct {
	ID    int64   `json:"id" dynamodbav:"id"`
	Title string  `json:"title" dynamodbav:"title"`
	X     float64 `json:"x" dynamodbav:"x"`
	Y     float64 `json:"y" dynamodbav:"y"`
}

// Edge connects a parent to one of its children
type Edge struct {
	ID     string `json:"id" dynamodbav:"id"`
	Source int64  `json:"source" dynamodbav:"source"`
	Target int64  `json:"target" dynamodbav:"target"`
}

// Diagram is the result of one layout pass
type Diagram struct {
	Nodes []PositionedNode `json:"nodes" dynamodbav:"nodes"`
	Edges []Edge           `json:"edges" dynamodbav:"edges"`
}

// Node returns the positioned node with the given id
func (d *Diagram) Node(id int64) (PositionedNode, bool) {
	for _, n := range d.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return PositionedNode{}, false
}

// WithTitles returns a copy of the diagram whose titles are taken from records.
// Positions and edges are kept, so a rename never needs a new layout pass.
func (d *Diagram) WithTitles(records []Record) *Diagram {
	titles := make(map[int64]string, len(records))
	for _, r := range records {
		titles[r.ID] = r.Title
	}

	out := &Diagram{
		Nodes: make([]PositionedNode, len(d.Nodes)),
		Edges: append([]Edge(nil), d.Edges...),
	}
	for i, n := range d.Nodes {
		if t, ok := titles[n.ID]; ok {
			n.Title = t
		}
		out.Nodes[i] = n
	}
	if out.Edges == nil {
		out.Edges = []Edge{}
	}
	return out
}
