package layer

// Entry is one row of a flattened layer tree. Order is both the list index
// and the draw index; Depth is the nesting level with 0 for root layers.
type Entry struct {
	Node  *Node
	Depth int
	Order int
	Path  string
}

// IsGroup reports whether the entry's node has children.
func (e Entry) IsGroup() bool {
	return e.Node.IsGroup()
}

type frame struct {
	node  *Node
	depth int
	path  string
}

// Flatten walks the forest in pre-order (parent before children, children
// in their original order) and returns the indexed entries.
func Flatten(roots []*Node) []Entry {
	var entries []Entry
	stack := make([]frame, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		if roots[i] != nil {
			stack = append(stack, frame{node: roots[i], path: roots[i].Name})
		}
	}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries = append(entries, Entry{
			Node:  f.node,
			Depth: f.depth,
			Order: len(entries),
			Path:  f.path,
		})

		children := f.node.Children
		for i := len(children) - 1; i >= 0; i-- {
			child := children[i]
			if child == nil {
				continue
			}
			stack = append(stack, frame{
				node:  child,
				depth: f.depth + 1,
				path:  joinPath(f.path, child.Name),
			})
		}
	}
	return entries
}

// Parent returns the order of the closest preceding entry with a smaller
// depth, or -1 for root entries.
func Parent(entries []Entry, order int) int {
	depth := entries[order].Depth
	for i := order - 1; i >= 0; i-- {
		if entries[i].Depth < depth {
			return i
		}
	}
	return -1
}

// SubtreeEnd returns the order one past the last descendant of the entry.
func SubtreeEnd(entries []Entry, order int) int {
	depth := entries[order].Depth
	end := order + 1
	for end < len(entries) && entries[end].Depth > depth {
		end++
	}
	return end
}
