// Package render draws laid out diagrams as SVG or Graphviz DOT.
// Coordinates are taken as-is from the diagram: each node box is centered
// on its (x, y) and rows grow downwards.
package render

import (
	"math"

	"github.com/ammiranda/tree_diagram/layout"
)

// Box is an axis aligned rectangle
type Box struct {
	MinX float64 `json:"minX"`
	MinY float64 `json:"minY"`
	MaxX float64 `json:"maxX"`
	MaxY float64 `json:"maxY"`
}

// Width of the box
func (b Box) Width() float64 { return b.MaxX - b.MinX }

// Height of the box
func (b Box) Height() float64 { return b.MaxY - b.MinY }

// Bounds returns the smallest box holding every node box of d.
// An empty diagram has a zero box.
func Bounds(d *layout.Diagram, cfg layout.Config) Box {
	if len(d.Nodes) == 0 {
		return Box{}
	}
	hw, hh := cfg.NodeWidth/2, cfg.NodeHeight/2
	b := Box{
		MinX: math.Inf(1),
		MinY: math.Inf(1),
		MaxX: math.Inf(-1),
		MaxY: math.Inf(-1),
	}
	for _, n := range d.Nodes {
		b.MinX = math.Min(b.MinX, n.X-hw)
		b.MaxX = math.Max(b.MaxX, n.X+hw)
		b.MinY = math.Min(b.MinY, n.Y-hh)
		b.MaxY = math.Max(b.MaxY, n.Y+hh)
	}
	return b
}
