package layer

import (
	"path"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Build constructs a layer forest that mirrors the provided slash-separated
// relative paths. Every directory component becomes a group; the last
// component is handed to leaf, which returns the node to insert (nil skips
// the path). Layers are ordered by name at every level.
//
// A leaf is named after its file without the extension unless that name is
// already taken by a sibling, in which case the full file name is kept.
func Build(files []string, leaf func(rel string) *Node) []*Node {
	root := &Node{}
	groups := map[string]*Node{"": root}

	var rels []string
	for _, rel := range files {
		rel = strings.Trim(rel, "/")
		if rel == "" {
			continue
		}
		rels = append(rels, rel)
		group(root, groups, path.Dir(rel))
	}

	for _, rel := range rels {
		parent := group(root, groups, path.Dir(rel))
		node := leaf(rel)
		if node == nil {
			continue
		}
		base := path.Base(rel)
		if node.Name == "" {
			node.Name = trimExt(base)
			if parent.ChildByName(node.Name) != nil {
				node.Name = base
			}
		}
		if parent.ChildByName(node.Name) != nil {
			log.WithField("path", rel).Warn("layer name already taken, skipping")
			continue
		}
		parent.AddChild(node)
	}

	root.SortRecursive()
	return root.Children
}

// group returns the group node for dir, creating missing ancestors.
func group(root *Node, groups map[string]*Node, dir string) *Node {
	if dir == "." || dir == "" {
		return root
	}
	if g, ok := groups[dir]; ok {
		return g
	}
	parent := group(root, groups, path.Dir(dir))
	g := &Node{Name: path.Base(dir)}
	parent.AddChild(g)
	groups[dir] = g
	return g
}

func trimExt(name string) string {
	return strings.TrimSuffix(name, path.Ext(name))
}

func joinPath(base, part string) string {
	if base == "" {
		return part
	}
	return base + "/" + part
}
