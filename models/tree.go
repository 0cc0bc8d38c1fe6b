package models

import "github.com/ammiranda/tree_diagram/layout"

// TreeNode is a positioned node with its children nested below it
type TreeNode struct {
	ID       int64       `json:"id"`
	Title    string      `json:"title"`
	X        float64     `json:"x"`
	Y        float64     `json:"y"`
	Children []*TreeNode `json:"children"`
}

// NewTreeNode creates a tree node from a positioned node
func NewTreeNode(n layout.PositionedNode) *TreeNode {
	return &TreeNode{
		ID:       n.ID,
		Title:    n.Title,
		X:        n.X,
		Y:        n.Y,
		Children: make([]*TreeNode, 0),
	}
}

// AddChild adds a child node to the current node
func (n *TreeNode) AddChild(child *TreeNode) {
	n.Children = append(n.Children, child)
}

// BuildTree nests the nodes of d along its edges. Roots and children keep
// the order of the diagram.
func BuildTree(d *layout.Diagram) []*TreeNode {
	nodeMap := make(map[int64]*TreeNode, len(d.Nodes))
	for _, n := range d.Nodes {
		nodeMap[n.ID] = NewTreeNode(n)
	}

	hasParent := make(map[int64]bool, len(d.Edges))
	for _, e := range d.Edges {
		parent, ok := nodeMap[e.Source]
		if !ok {
			continue
		}
		if child, ok := nodeMap[e.Target]; ok {
			parent.AddChild(child)
			hasParent[e.Target] = true
		}
	}

	roots := make([]*TreeNode, 0)
	for _, n := range d.Nodes {
		if !hasParent[n.ID] {
			roots = append(roots, nodeMap[n.ID])
		}
	}
	return roots
}
