// Package render turns raster images into terminal text. Every cell shows
// two vertically stacked pixels using the upper half block glyph.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
	xdraw "golang.org/x/image/draw"
)

const (
	upperHalf   = "▀"
	checkerSize = 4
)

var (
	checkerLight = color.RGBA{R: 0x3b, G: 0x42, B: 0x61, A: 0xff}
	checkerDark  = color.RGBA{R: 0x24, G: 0x28, B: 0x3b, A: 0xff}
)

// Background is drawn under transparent pixels.
type Background struct {
	Checker bool
	Color   color.RGBA
}

// Checker is the default transparency background.
var Checker = Background{Checker: true}

// ParseBackground accepts "checker" or a #rrggbb colour.
func ParseBackground(s string) (Background, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" || s == "checker" {
		return Checker, nil
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return Background{}, fmt.Errorf("background %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return Background{Color: color.RGBA{R: r, G: g, B: b, A: 0xff}}, nil
}

func (b Background) at(x, y int) color.RGBA {
	if !b.Checker {
		return b.Color
	}
	if (x/checkerSize+y/checkerSize)%2 == 0 {
		return checkerLight
	}
	return checkerDark
}

// String returns the config spelling of the background.
func (b Background) String() string {
	if b.Checker {
		return "checker"
	}
	return fmt.Sprintf("#%02x%02x%02x", b.Color.R, b.Color.G, b.Color.B)
}

// FitSize returns the largest size with the aspect ratio of src that fits in
// area. Images are only enlarged when upscale is set.
func FitSize(src, area image.Point, upscale bool) image.Point {
	if src.X <= 0 || src.Y <= 0 || area.X <= 0 || area.Y <= 0 {
		return image.Point{}
	}
	scale := float64(area.X) / float64(src.X)
	if sy := float64(area.Y) / float64(src.Y); sy < scale {
		scale = sy
	}
	if scale > 1 && !upscale {
		scale = 1
	}
	w := int(float64(src.X) * scale)
	h := int(float64(src.Y) * scale)
	return image.Pt(clampMin(w, 1), clampMin(h, 1))
}

// Scale resamples img to size.
func Scale(img image.Image, size image.Point) *image.RGBA {
	dst := image.NewRGBA(image.Rectangle{Max: size})
	if size == img.Bounds().Size() {
		draw.Draw(dst, dst.Bounds(), img, img.Bounds().Min, draw.Src)
		return dst
	}
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), xdraw.Src, nil)
	return dst
}

// HalfBlocks renders img scaled to fit cols×rows cells. zoom multiplies the
// fitted size; the result may then exceed the given area.
func HalfBlocks(img image.Image, cols, rows, zoom int, bg Background) string {
	if img == nil || img.Bounds().Empty() || cols <= 0 || rows <= 0 {
		return ""
	}
	zoom = clampMin(zoom, 1)
	size := FitSize(img.Bounds().Size(), image.Pt(cols, rows*2), false)
	size = size.Mul(zoom)
	return Native(Scale(img, size), bg)
}

// Native renders img with one pixel per half cell.
func Native(img image.Image, bg Background) string {
	if img == nil {
		return ""
	}
	b := img.Bounds()
	if b.Empty() {
		return ""
	}

	flat := image.NewRGBA(image.Rectangle{Max: b.Size()})
	for y := 0; y < flat.Rect.Dy(); y++ {
		for x := 0; x < flat.Rect.Dx(); x++ {
			flat.SetRGBA(x, y, bg.at(x, y))
		}
	}
	draw.Draw(flat, flat.Bounds(), img, b.Min, draw.Over)

	styles := make(map[[2]color.RGBA]lipgloss.Style)
	var builder strings.Builder
	w, h := flat.Rect.Dx(), flat.Rect.Dy()
	for y := 0; y < h; y += 2 {
		if y > 0 {
			builder.WriteByte('\n')
		}
		for x := 0; x < w; x++ {
			top := flat.RGBAAt(x, y)
			var key [2]color.RGBA
			key[0] = top
			if y+1 < h {
				key[1] = flat.RGBAAt(x, y+1)
			}
			style, ok := styles[key]
			if !ok {
				style = lipgloss.NewStyle().Foreground(hex(top))
				if y+1 < h {
					style = style.Background(hex(key[1]))
				}
				styles[key] = style
			}
			builder.WriteString(style.Render(upperHalf))
		}
	}
	return builder.String()
}

func hex(c color.RGBA) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B))
}

func clampMin(v, low int) int {
	if v < low {
		return low
	}
	return v
}
