package app

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
	log "github.com/sirupsen/logrus"

	"github.com/kyaoi/layerview/internal/layer"
	"github.com/kyaoi/layerview/internal/psdfile"
)

// LoadDocument opens target as a layered document. Directories are read as
// layer directories, PSD files are decoded with their layers and any other
// supported image becomes a single-layer document.
func LoadDocument(target string) (*layer.Document, error) {
	info, err := os.Stat(target)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return layer.LoadDir(target)
	}

	kind, err := filetype.MatchFile(target)
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{
		"path": target,
		"mime": kind.MIME.Value,
	}).Debug("sniffed document type")

	switch {
	case kind.Extension == "psd":
		return psdfile.Open(target)
	case kind.MIME.Type == "image":
		return loadImage(target)
	default:
		return nil, fmt.Errorf("%s: %w", target, layer.ErrNotDocument)
	}
}

func loadImage(path string) (*layer.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	size := img.Bounds().Size()
	name := filepath.Base(path)
	return &layer.Document{
		Width:  size.X,
		Height: size.Y,
		Layers: []*layer.Node{{
			Name:   strings.TrimSuffix(name, filepath.Ext(name)),
			Bitmap: img,
		}},
	}, nil
}

// displayPath returns target relative to the working directory when
// possible.
func displayPath(absTarget string) string {
	display := absTarget
	if wd, err := os.Getwd(); err == nil {
		if rel, err := filepath.Rel(wd, absTarget); err == nil && !strings.HasPrefix(rel, "..") {
			display = rel
		}
	}
	return filepath.ToSlash(display)
}

// exportPath is the default file name of an exported composite.
func exportPath(absTarget string) string {
	base := filepath.Base(absTarget)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return base + "-composite.png"
}
