package render

import (
	"bytes"
	"math"

	"github.com/ammiranda/tree_diagram/layout"

	svg "github.com/ajstarks/svgo"
)

const (
	svgMargin    = 20
	cornerRadius = 6
	fontSize     = 14
)

const (
	edgeStyle = "stroke:#8a8f98;stroke-width:1.5"
	boxStyle  = "fill:#ffffff;stroke:#2f3a4a;stroke-width:1.5"
	textStyle = "font-family:sans-serif;font-size:14px;fill:#1b1f24;text-anchor:middle;dominant-baseline:central"
)

// SVG draws d with node boxes of the configured size. Edges run from the bottom
// of the parent box to the top of the child box. Titles are XML escaped.
func SVG(d *layout.Diagram, cfg layout.Config) []byte {
	var buf bytes.Buffer
	canvas := svg.New(&buf)

	b := Bounds(d, cfg)
	minX := int(math.Floor(b.MinX)) - svgMargin
	minY := int(math.Floor(b.MinY)) - svgMargin
	w := int(math.Ceil(b.Width())) + 2*svgMargin
	h := int(math.Ceil(b.Height())) + 2*svgMargin
	canvas.Startview(w, h, minX, minY, w, h)

	byID := make(map[int64]layout.PositionedNode, len(d.Nodes))
	for _, n := range d.Nodes {
		byID[n.ID] = n
	}

	hw, hh := cfg.NodeWidth/2, cfg.NodeHeight/2

	canvas.Gid("edges")
	for _, e := range d.Edges {
		from, ok := byID[e.Source]
		if !ok {
			continue
		}
		to, ok := byID[e.Target]
		if !ok {
			continue
		}
		canvas.Line(round(from.X), round(from.Y+hh), round(to.X), round(to.Y-hh), edgeStyle)
	}
	canvas.Gend()

	canvas.Gid("nodes")
	for _, n := range d.Nodes {
		canvas.Roundrect(round(n.X-hw), round(n.Y-hh), round(cfg.NodeWidth), round(cfg.NodeHeight),
			cornerRadius, cornerRadius, boxStyle)
		canvas.Text(round(n.X), round(n.Y), n.Title, textStyle)
	}
	canvas.Gend()

	canvas.End()
	return buf.Bytes()
}

func round(f float64) int {
	return int(math.Round(f))
}
