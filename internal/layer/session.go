package layer

import (
	"fmt"
	"image"
	"image/draw"
	"path"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Session is the state of one opened document. It is built once when the
// document is loaded and discarded when the viewer closes it.
type Session struct {
	ID         uuid.UUID
	Document   *Document
	Entries    []Entry
	Visibility Visibility

	canvas *image.RGBA
	logger *log.Entry
}

// NewSession flattens the document, applies the default visibility and draws
// the initial composite.
func NewSession(doc *Document) *Session {
	if doc == nil {
		doc = &Document{}
	}
	id := uuid.New()
	entries := Flatten(doc.Layers)
	s := &Session{
		ID:         id,
		Document:   doc,
		Entries:    entries,
		Visibility: NewVisibility(entries),
		canvas:     image.NewRGBA(image.Rectangle{Max: doc.Size()}),
		logger:     log.WithField("session", id.String()),
	}
	s.logger.WithField("layers", len(entries)).Debug("session opened")
	s.Redraw()
	return s
}

// Canvas returns the current composite.
func (s *Session) Canvas() *image.RGBA {
	return s.canvas
}

// Len returns the number of flattened entries.
func (s *Session) Len() int {
	return len(s.Entries)
}

// Redraw recomposites the canvas from the current visibility.
func (s *Session) Redraw() {
	Composite(s.canvas, s.Entries, s.Visibility, s.Document.Composite)
}

// Toggle flips the visibility of the entry at index i and redraws.
func (s *Session) Toggle(i int) {
	s.Visibility.Toggle(i)
	s.logger.WithFields(log.Fields{
		"layer":   s.Entries[i].Path,
		"visible": s.Visibility[i],
	}).Debug("toggled layer")
	s.Redraw()
}

// SetVisible sets the visibility of the entry at index i and redraws when it
// changed.
func (s *Session) SetVisible(i int, visible bool) {
	s.Visibility.check(i)
	if s.Visibility[i] == visible {
		return
	}
	s.Visibility[i] = visible
	s.Redraw()
}

// ShowAll marks every entry visible and redraws.
func (s *Session) ShowAll() {
	for i := range s.Visibility {
		s.Visibility[i] = true
	}
	s.Redraw()
}

// Preview returns the entry's own bitmap at native size.
func (s *Session) Preview(i int) (image.Image, bool) {
	s.Visibility.check(i)
	bitmap := s.Entries[i].Node.Bitmap
	if bitmap == nil || bitmap.Bounds().Empty() {
		return nil, false
	}
	b := bitmap.Bounds()
	img := image.NewRGBA(image.Rectangle{Max: b.Size()})
	draw.Draw(img, img.Bounds(), bitmap, b.Min, draw.Src)
	return img, true
}

// HideByPath hides every entry whose path equals or glob-matches one of the
// patterns, together with the descendants of matched groups, then redraws
// once. Nothing changes when a pattern is malformed. Patterns matching
// nothing are reported.
func (s *Session) HideByPath(patterns ...string) error {
	for _, pattern := range patterns {
		if _, err := path.Match(pattern, ""); err != nil {
			return fmt.Errorf("bad layer pattern %q: %w", pattern, err)
		}
	}

	var unmatched []string
	for _, pattern := range patterns {
		matched := false
		for i, e := range s.Entries {
			ok, _ := path.Match(pattern, e.Path)
			if !ok && pattern != e.Path {
				continue
			}
			for j, end := i, SubtreeEnd(s.Entries, i); j < end; j++ {
				s.Visibility[j] = false
			}
			matched = true
		}
		if !matched {
			unmatched = append(unmatched, pattern)
		}
	}
	s.Redraw()
	if len(unmatched) > 0 {
		return fmt.Errorf("no layer matches %s", strings.Join(unmatched, ", "))
	}
	return nil
}

// Close drops the session's references to the document.
func (s *Session) Close() {
	if s == nil {
		return
	}
	s.logger.Debug("session closed")
	s.Document = &Document{}
	s.Entries = nil
	s.Visibility = nil
	s.canvas = image.NewRGBA(image.Rectangle{})
}
