package render

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/ammiranda/tree_diagram/layout"
)

// pointsPerInch converts diagram units to Graphviz inches
const pointsPerInch = 72.0

// DOT writes d as Graphviz source with every node pinned at its computed
// position. Render it without a new layout pass using `neato -n2`.
// The y axis is flipped because Graphviz grows upwards.
func DOT(d *layout.Diagram, cfg layout.Config) string {
	var buf bytes.Buffer
	buf.WriteString("digraph tree {\n")
	buf.WriteString("  splines=line;\n")
	fmt.Fprintf(&buf, "  node [shape=box, style=rounded, fixedsize=true, width=%s, height=%s];\n",
		formatFloat(cfg.NodeWidth/pointsPerInch), formatFloat(cfg.NodeHeight/pointsPerInch))
	buf.WriteString("\n")

	for _, n := range d.Nodes {
		fmt.Fprintf(&buf, "  %d [label=%s, pos=\"%s,%s!\"];\n",
			n.ID, strconv.Quote(n.Title), formatFloat(n.X), formatFloat(-n.Y))
	}

	if len(d.Edges) > 0 {
		buf.WriteString("\n")
	}
	for _, e := range d.Edges {
		fmt.Fprintf(&buf, "  %d -> %d;\n", e.Source, e.Target)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func formatFloat(f float64) string {
	if f == 0 {
		// avoid "-0" for the root row
		f = 0
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
