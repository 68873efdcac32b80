package layer

import (
	"image"
	"sort"
	"strings"
)

// Node represents a single layer or group in a layered document.
type Node struct {
	Name     string
	Bitmap   image.Image
	Hidden   bool
	Position image.Point
	Children []*Node
}

// Document is a decoded layered image ready to be composited.
type Document struct {
	Width     int
	Height    int
	Layers    []*Node
	Composite image.Image
	Notes     string
}

// IsGroup reports whether the node has children. Groups are listed but never
// drawn on their own.
func (n *Node) IsGroup() bool {
	return len(n.Children) > 0
}

// ChildByName returns the child node with the given name if it exists.
func (n *Node) ChildByName(name string) *Node {
	for _, child := range n.Children {
		if child.Name == name {
			return child
		}
	}
	return nil
}

// AddChild appends child to the node.
func (n *Node) AddChild(child *Node) {
	n.Children = append(n.Children, child)
}

// Bounds returns the rectangle the bitmap covers on the document canvas.
func (n *Node) Bounds() image.Rectangle {
	if n.Bitmap == nil {
		return image.Rectangle{}
	}
	b := n.Bitmap.Bounds()
	return b.Sub(b.Min).Add(n.Position)
}

// SortRecursive orders children by name, case-insensitively, at every level.
func (n *Node) SortRecursive() {
	sort.SliceStable(n.Children, func(i, j int) bool {
		return strings.ToLower(n.Children[i].Name) < strings.ToLower(n.Children[j].Name)
	})
	for _, child := range n.Children {
		child.SortRecursive()
	}
}

// Count returns the number of nodes in the forest rooted at nodes.
func Count(nodes []*Node) int {
	total := 0
	for _, n := range nodes {
		if n == nil {
			continue
		}
		total += 1 + Count(n.Children)
	}
	return total
}

// Size returns the document size, falling back to the union of the layer
// bounds when the document does not declare one.
func (d *Document) Size() image.Point {
	if d.Width > 0 && d.Height > 0 {
		return image.Pt(d.Width, d.Height)
	}
	var r image.Rectangle
	if d.Composite != nil {
		r = d.Composite.Bounds()
	}
	for _, e := range Flatten(d.Layers) {
		r = r.Union(e.Node.Bounds())
	}
	return image.Pt(max(r.Max.X, 0), max(r.Max.Y, 0))
}
