package layer

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/frontmatter"
	log "github.com/sirupsen/logrus"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

const (
	manifestName  = "document.md"
	compositeName = "composite.png"
)

var (
	// ErrNotDocument is returned when a path cannot be opened as a layered
	// document.
	ErrNotDocument = errors.New("not a layered document")
	// ErrNoLayers is returned when a directory document holds no images.
	ErrNoLayers = errors.New("no layers found")
)

// Manifest is the front matter of a directory document's document.md.
type Manifest struct {
	Width   int              `yaml:"width" toml:"width" json:"width"`
	Height  int              `yaml:"height" toml:"height" json:"height"`
	Hidden  []string         `yaml:"hidden" toml:"hidden" json:"hidden"`
	Offsets map[string][]int `yaml:"offsets" toml:"offsets" json:"offsets"`
}

// DirLoader reads a layered document from a directory: sub-directories are
// groups and image files are layers.
type DirLoader struct {
	root string
}

// NewDirLoader creates a loader that reads from the provided root directory.
func NewDirLoader(root string) *DirLoader {
	return &DirLoader{root: root}
}

// LoadDir is a shorthand for NewDirLoader(root).Load().
func LoadDir(root string) (*Document, error) {
	return NewDirLoader(root).Load()
}

// Load decodes every layer under the root and applies the manifest.
func (l *DirLoader) Load() (*Document, error) {
	info, err := os.Stat(l.root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: %w", l.root, ErrNotDocument)
	}

	manifest, notes, err := l.readManifest()
	if err != nil {
		return nil, err
	}

	files, err := l.listImages("")
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%s: %w", l.root, ErrNoLayers)
	}

	var loadErr error
	layers := Build(files, func(rel string) *Node {
		img, err := l.decode(rel)
		if err != nil {
			loadErr = errors.Join(loadErr, err)
			return nil
		}
		return &Node{Bitmap: img}
	})
	if loadErr != nil {
		return nil, loadErr
	}

	doc := &Document{
		Width:  manifest.Width,
		Height: manifest.Height,
		Layers: layers,
		Notes:  notes,
	}
	l.applyManifest(doc, manifest)

	if composite, err := l.decode(compositeName); err == nil {
		doc.Composite = composite
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	return doc, nil
}

func (l *DirLoader) readManifest() (Manifest, string, error) {
	var m Manifest
	data, err := os.ReadFile(l.abs(manifestName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return m, "", nil
		}
		return m, "", err
	}
	body, err := frontmatter.Parse(bytes.NewReader(data), &m)
	if err != nil {
		return m, "", fmt.Errorf("%s: %w", manifestName, err)
	}
	return m, strings.TrimSpace(string(body)), nil
}

func (l *DirLoader) applyManifest(doc *Document, m Manifest) {
	if len(m.Hidden) == 0 && len(m.Offsets) == 0 {
		return
	}
	hidden := make(map[string]bool, len(m.Hidden))
	for _, p := range m.Hidden {
		hidden[strings.Trim(p, "/")] = true
	}
	for _, e := range Flatten(doc.Layers) {
		if hidden[e.Path] {
			e.Node.Hidden = true
		}
		if off, ok := m.Offsets[e.Path]; ok && len(off) == 2 {
			e.Node.Position = image.Pt(off[0], off[1])
		}
	}
	log.WithField("root", l.root).Debugf("applied manifest: %d hidden, %d offsets", len(m.Hidden), len(m.Offsets))
}

// listImages returns the slash-separated paths of image files under relPath.
func (l *DirLoader) listImages(relPath string) ([]string, error) {
	entries, err := os.ReadDir(l.abs(relPath))
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		name := entry.Name()
		childPath := joinPath(relPath, name)
		if entry.IsDir() {
			if shouldSkipDir(name) {
				continue
			}
			children, err := l.listImages(childPath)
			if err != nil {
				return nil, err
			}
			files = append(files, children...)
			continue
		}
		if relPath == "" && name == compositeName {
			continue
		}
		if strings.HasPrefix(name, ".") || !isImage(name) {
			continue
		}
		files = append(files, childPath)
	}
	return files, nil
}

func (l *DirLoader) decode(relPath string) (image.Image, error) {
	f, err := os.Open(l.abs(relPath))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", relPath, err)
	}
	return img, nil
}

func (l *DirLoader) abs(relPath string) string {
	if relPath == "" {
		return l.root
	}
	return filepath.Join(l.root, filepath.FromSlash(relPath))
}

func shouldSkipDir(name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	switch strings.ToLower(name) {
	case "node_modules", "__macosx":
		return true
	default:
		return false
	}
}

func isImage(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg", ".gif", ".bmp", ".webp":
		return true
	default:
		return false
	}
}
