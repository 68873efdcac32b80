package layer

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestLoadDir(t *testing.T) {
	root := t.TempDir()
	writePNG(t, filepath.Join(root, "01 background.png"), solid(8, 8, blue))
	writePNG(t, filepath.Join(root, "00 sprites", "hero.png"), solid(2, 2, red))
	writePNG(t, filepath.Join(root, "00 sprites", "shadow.png"), solid(2, 2, green))
	writePNG(t, filepath.Join(root, "composite.png"), solid(8, 8, green))
	writePNG(t, filepath.Join(root, ".git", "ignored.png"), solid(1, 1, red))
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("skip"), 0o644))

	manifest := "---\nwidth: 8\nheight: 8\nhidden:\n  - 00 sprites/shadow\noffsets:\n  00 sprites/hero: [3, 4]\n---\n# Title screen\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, manifestName), []byte(manifest), 0o644))

	doc, err := LoadDir(root)
	require.NoError(t, err)

	assert.Equal(t, 8, doc.Width)
	assert.Equal(t, 8, doc.Height)
	assert.Equal(t, "# Title screen", doc.Notes)
	require.NotNil(t, doc.Composite)

	entries := Flatten(doc.Layers)
	var paths []string
	for _, e := range entries {
		paths = append(paths, e.Path)
	}
	assert.Equal(t, []string{"00 sprites", "00 sprites/hero", "00 sprites/shadow", "01 background"}, paths)

	assert.Equal(t, image.Pt(3, 4), entries[1].Node.Position)
	assert.True(t, entries[2].Node.Hidden)

	s := NewSession(doc)
	assert.Equal(t, red, s.Canvas().RGBAAt(3, 4))
	assert.Equal(t, blue, s.Canvas().RGBAAt(0, 0))
}

func TestLoadDirLeafBesideGroup(t *testing.T) {
	root := t.TempDir()
	writePNG(t, filepath.Join(root, "Sky.png"), solid(4, 4, blue))
	writePNG(t, filepath.Join(root, "Sky", "cloud.png"), solid(2, 2, red))

	doc, err := LoadDir(root)
	require.NoError(t, err)
	assert.Equal(t, 3, Count(doc.Layers))

	var leaf *Node
	for _, e := range Flatten(doc.Layers) {
		if e.Path == "Sky.png" {
			leaf = e.Node
		}
	}
	require.NotNil(t, leaf)
	assert.False(t, leaf.IsGroup())
}

func TestLoadDirErrors(t *testing.T) {
	_, err := LoadDir(t.TempDir())
	assert.ErrorIs(t, err, ErrNoLayers)

	file := filepath.Join(t.TempDir(), "a.png")
	writePNG(t, file, solid(1, 1, red))
	_, err = LoadDir(file)
	assert.ErrorIs(t, err, ErrNotDocument)

	broken := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(broken, "bad.png"), []byte("not a png"), 0o644))
	_, err = LoadDir(broken)
	assert.Error(t, err)
}
