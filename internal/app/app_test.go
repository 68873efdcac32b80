package app

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyaoi/layerview/internal/config"
	"github.com/kyaoi/layerview/internal/layer"
)

var (
	red  = color.RGBA{R: 0xff, A: 0xff}
	blue = color.RGBA{B: 0xff, A: 0xff}
)

func writePNG(t *testing.T, path string, w, h int, c color.Color) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func readPNG(t *testing.T, path string) image.Image {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	return img
}

// layerDir holds "a top" (red, 2x2) above "b bottom" (blue, 4x4).
func layerDir(t *testing.T) string {
	root := t.TempDir()
	writePNG(t, filepath.Join(root, "a top.png"), 2, 2, red)
	writePNG(t, filepath.Join(root, "b bottom.png"), 4, 4, blue)
	return root
}

func TestLoadDocument(t *testing.T) {
	doc, err := LoadDocument(layerDir(t))
	require.NoError(t, err)
	assert.Equal(t, 2, layer.Count(doc.Layers))

	single := filepath.Join(t.TempDir(), "photo.png")
	writePNG(t, single, 3, 2, red)
	doc, err = LoadDocument(single)
	require.NoError(t, err)
	require.Len(t, doc.Layers, 1)
	assert.Equal(t, "photo", doc.Layers[0].Name)
	assert.Equal(t, 3, doc.Width)

	text := filepath.Join(t.TempDir(), "readme.txt")
	require.NoError(t, os.WriteFile(text, []byte("hello"), 0o644))
	_, err = LoadDocument(text)
	assert.ErrorIs(t, err, layer.ErrNotDocument)

	_, err = LoadDocument(filepath.Join(t.TempDir(), "missing.psd"))
	assert.Error(t, err)
}

func TestExport(t *testing.T) {
	root := layerDir(t)
	out := filepath.Join(t.TempDir(), "out", "composite.png")

	require.NoError(t, Export(root, out, nil))
	img := readPNG(t, out)
	assert.Equal(t, image.Pt(4, 4), img.Bounds().Size())
	assert.Equal(t, red, color.RGBAModel.Convert(img.At(0, 0)))

	require.NoError(t, Export(root, out, []string{"a top"}))
	img = readPNG(t, out)
	assert.Equal(t, blue, color.RGBAModel.Convert(img.At(0, 0)))

	assert.Error(t, Export(root, out, []string{"nothing"}))
	assert.Error(t, Export(root, "", nil))
}

func TestLoadInitialState(t *testing.T) {
	root := layerDir(t)
	opts := Options{Config: config.Default(), Hide: []string{"b*"}}

	state, err := LoadInitialState(root, opts)
	require.NoError(t, err)
	defer state.Session.Close()

	assert.Equal(t, layer.Visibility{true, false}, state.Session.Visibility)
	assert.Equal(t, filepath.Base(root)+"-composite.png", state.ExportPath)
	assert.True(t, state.Background.Checker)
	assert.True(t, state.FocusLayers)
	assert.NotNil(t, state.Load)

	opts.Config.Filter = "blur"
	_, err = LoadInitialState(root, opts)
	assert.Error(t, err)
}
