// Package psdfile adapts Photoshop documents decoded by github.com/oov/psd to
// layer documents.
package psdfile

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/oov/psd"
	log "github.com/sirupsen/logrus"

	"github.com/kyaoi/layerview/internal/layer"
)

// Open decodes the PSD file at path.
func Open(path string) (*layer.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err := Decode(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Decode reads a PSD stream including layer pictures and the merged image.
func Decode(r io.Reader) (*layer.Document, error) {
	img, read, err := psd.Decode(r, &psd.DecodeOptions{})
	if err != nil {
		return nil, fmt.Errorf("decode psd: %w", err)
	}
	doc := FromPSD(img)
	log.WithFields(log.Fields{
		"bytes":  read,
		"width":  doc.Width,
		"height": doc.Height,
		"layers": layer.Count(doc.Layers),
	}).Debug("decoded psd")
	return doc, nil
}

// FromPSD converts a decoded PSD to a layer document. Photoshop stores layers
// from the bottom of the stack up; the document lists them top first.
func FromPSD(img *psd.PSD) *layer.Document {
	doc := &layer.Document{
		Width:  img.Config.Rect.Dx(),
		Height: img.Config.Rect.Dy(),
		Layers: convert(img.Layer),
	}
	if img.Picker != nil && !img.Picker.Bounds().Empty() {
		doc.Composite = img.Picker
	}
	return doc
}

func convert(layers []psd.Layer) []*layer.Node {
	nodes := make([]*layer.Node, 0, len(layers))
	for i := len(layers) - 1; i >= 0; i-- {
		l := &layers[i]
		node := &layer.Node{
			Name:     layerName(l),
			Hidden:   !l.Visible(),
			Position: l.Rect.Min,
		}
		if len(l.Layer) > 0 || l.Folder() {
			node.Children = convert(l.Layer)
		} else if l.HasImage() && l.Picker != nil {
			node.Bitmap = l.Picker
		}
		nodes = append(nodes, node)
	}
	return nodes
}

func layerName(l *psd.Layer) string {
	if l.UnicodeName != "" {
		return l.UnicodeName
	}
	return l.Name
}
