package render

import (
	"fmt"
	"image"
	"strings"

	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/transform"
)

const maxZoom = 8

// Filter is a colour effect applied to the canvas before it is drawn.
type Filter int

const (
	FilterNone Filter = iota
	FilterGrayscale
	FilterInvert
	FilterSepia
	filterCount
)

var filterNames = [...]string{"none", "grayscale", "invert", "sepia"}

func (f Filter) String() string {
	if f < 0 || f >= filterCount {
		return fmt.Sprintf("Filter(%d)", int(f))
	}
	return filterNames[f]
}

// ParseFilter returns the filter with the given name.
func ParseFilter(s string) (Filter, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return FilterNone, nil
	}
	for i, name := range filterNames {
		if name == s {
			return Filter(i), nil
		}
	}
	return FilterNone, fmt.Errorf("unknown filter %q", s)
}

// View holds the display transform of the canvas. It never changes the
// composite itself.
type View struct {
	Zoom     int
	Rotation int
	Flip     bool
	Filter   Filter
}

// NewView returns an untransformed view.
func NewView() View {
	return View{Zoom: 1}
}

// ZoomIn raises the zoom by one step up to the maximum.
func (v *View) ZoomIn() {
	v.Zoom = min(clampMin(v.Zoom, 1)+1, maxZoom)
}

// ZoomOut lowers the zoom by one step down to 1.
func (v *View) ZoomOut() {
	v.Zoom = clampMin(v.Zoom-1, 1)
}

// Rotate turns the view clockwise by a quarter.
func (v *View) Rotate() {
	v.Rotation = (v.Rotation + 90) % 360
}

// CycleFilter switches to the next filter.
func (v *View) CycleFilter() {
	v.Filter = (v.Filter + 1) % filterCount
}

// Reset restores the untransformed view, keeping the filter.
func (v *View) Reset() {
	filter := v.Filter
	*v = NewView()
	v.Filter = filter
}

// Apply returns img with the view's filter, flip and rotation applied.
func (v View) Apply(img image.Image) image.Image {
	if img == nil || img.Bounds().Empty() {
		return img
	}
	switch v.Filter {
	case FilterGrayscale:
		img = effect.Grayscale(img)
	case FilterInvert:
		img = effect.Invert(img)
	case FilterSepia:
		img = effect.Sepia(img)
	}
	if v.Flip {
		img = transform.FlipH(img)
	}
	if v.Rotation != 0 {
		img = transform.Rotate(img, float64(v.Rotation), &transform.RotationOptions{ResizeBounds: true})
	}
	return img
}

// Status is a short description for the status line.
func (v View) Status() string {
	parts := []string{fmt.Sprintf("%dx", clampMin(v.Zoom, 1))}
	if v.Rotation != 0 {
		parts = append(parts, fmt.Sprintf("%d°", v.Rotation))
	}
	if v.Flip {
		parts = append(parts, "flipped")
	}
	if v.Filter != FilterNone {
		parts = append(parts, v.Filter.String())
	}
	return strings.Join(parts, " ")
}
