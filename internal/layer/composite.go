package layer

import (
	"fmt"
	"image"
	"image/draw"
)

// Visibility holds one flag per flattened entry, indexed by Order.
type Visibility []bool

// NewVisibility returns the author-set default visibility of the entries.
func NewVisibility(entries []Entry) Visibility {
	vis := make(Visibility, len(entries))
	for i, e := range entries {
		vis[i] = !e.Node.Hidden
	}
	return vis
}

// AllVisible reports whether every entry is visible.
func (v Visibility) AllVisible() bool {
	for _, visible := range v {
		if !visible {
			return false
		}
	}
	return true
}

// Toggle flips the flag at index i.
func (v Visibility) Toggle(i int) {
	v.check(i)
	v[i] = !v[i]
}

func (v Visibility) check(i int) {
	if i < 0 || i >= len(v) {
		panic(fmt.Sprintf("layer: visibility index %d out of range [0,%d)", i, len(v)))
	}
}

// Composite redraws dst from scratch.
//
// When every entry is visible and the document has a native composite, the
// native bitmap is copied unmodified. Otherwise visible leaves are drawn from
// the bottom of the stack (highest order) to the top. Group bitmaps are
// pre-merged from all their children, so they are never drawn directly.
func Composite(dst draw.Image, entries []Entry, vis Visibility, native image.Image) {
	if len(entries) != len(vis) {
		panic(fmt.Sprintf("layer: %d entries but %d visibility flags", len(entries), len(vis)))
	}

	bounds := dst.Bounds()
	draw.Draw(dst, bounds, image.Transparent, image.Point{}, draw.Src)

	if native != nil && vis.AllVisible() {
		draw.Draw(dst, bounds, native, native.Bounds().Min, draw.Src)
		return
	}

	for i := len(entries) - 1; i >= 0; i-- {
		node := entries[i].Node
		if !vis[i] || node.IsGroup() || node.Bitmap == nil {
			continue
		}
		r := node.Bounds().Add(bounds.Min)
		draw.Draw(dst, r, node.Bitmap, node.Bitmap.Bounds().Min, draw.Over)
	}
}
