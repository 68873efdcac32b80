package ui

import (
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyaoi/layerview/internal/layer"
	"github.com/kyaoi/layerview/internal/render"
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

func testDocument() *layer.Document {
	return &layer.Document{
		Width:  10,
		Height: 10,
		Notes:  "Drawn for the title screen.",
		Layers: []*layer.Node{
			{Name: "A", Bitmap: solid(4, 4, color.RGBA{R: 0xff, A: 0xff})},
			{
				Name: "B",
				Children: []*layer.Node{
					{Name: "C", Bitmap: solid(4, 4, color.RGBA{B: 0xff, A: 0xff}), Position: image.Pt(5, 5)},
				},
			},
		},
	}
}

func newTestModel(t *testing.T, doc *layer.Document) *Model {
	t.Helper()
	m := NewModel(State{
		Session:      layer.NewSession(doc),
		HeaderPath:   "test.psd",
		ExportPath:   filepath.Join(t.TempDir(), "out.png"),
		PanelVisible: true,
		Background:   render.Checker,
		View:         render.NewView(),
		FocusLayers:  true,
	})
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return m
}

func press(m *Model, keys ...string) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		_, cmd = m.Update(msg)
	}
	return cmd
}

func TestToggleSelectedLayer(t *testing.T) {
	m := newTestModel(t, testDocument())
	require.Len(t, m.rows, 3)

	press(m, "j", "j")
	assert.Equal(t, 2, m.selectedOrder())

	press(m, "v")
	assert.Equal(t, layer.Visibility{true, true, false}, m.Session().Visibility)
	assert.Equal(t, color.RGBA{}, m.Session().Canvas().RGBAAt(6, 6))
	assert.Contains(t, ansi.Strip(m.View()), "2/3 visible")

	press(m, "v")
	assert.Equal(t, layer.Visibility{true, true, true}, m.Session().Visibility)

	press(m, "k", "v", "a")
	assert.True(t, m.Session().Visibility.AllVisible())
}

func TestCollapseKeepsOrder(t *testing.T) {
	m := newTestModel(t, testDocument())

	press(m, "j", "h")
	require.Len(t, m.rows, 2)
	assert.Contains(t, m.rows[1].label, "+ B/")
	assert.True(t, m.Session().Visibility[2], "collapsing never hides layers")

	press(m, "l")
	require.Len(t, m.rows, 3)
	assert.Equal(t, 2, m.rows[2].order)

	press(m, "j", "h")
	assert.Equal(t, 1, m.selectedOrder(), "h on a leaf selects its group")
}

func TestPreviewModal(t *testing.T) {
	m := newTestModel(t, testDocument())

	press(m, "j", "j", "enter")
	require.Equal(t, 2, m.previewIndex)
	assert.Contains(t, ansi.Strip(m.View()), "B/C  4×4")

	press(m, "esc")
	assert.Equal(t, -1, m.previewIndex)

	press(m, "k", "p")
	assert.Equal(t, -1, m.previewIndex, "groups without pixels have no preview")
	require.Error(t, m.err)
}

func TestSearchSelectsLayer(t *testing.T) {
	m := newTestModel(t, testDocument())
	press(m, "j", "h")

	press(m, "/", "c", "enter")
	assert.Equal(t, 2, m.selectedOrder(), "search expands the collapsed group")
	assert.Equal(t, "/c (1/1)", m.searchStatusLine())

	press(m, "/")
	m.searchInput.SetValue("zzz")
	press(m, "enter")
	assert.Error(t, m.err)
}

func TestViewKeys(t *testing.T) {
	m := newTestModel(t, testDocument())

	press(m, "+", "r", "f", "x")
	assert.Equal(t, 2, m.view.Zoom)
	assert.Equal(t, 90, m.view.Rotation)
	assert.True(t, m.view.Flip)
	assert.Equal(t, render.FilterGrayscale, m.view.Filter)

	press(m, "0")
	assert.Equal(t, 1, m.view.Zoom)
	assert.Zero(t, m.view.Rotation)
}

func TestExport(t *testing.T) {
	m := newTestModel(t, testDocument())

	press(m, "e")
	require.NoError(t, m.err)
	assert.FileExists(t, m.exportPath)
	assert.Contains(t, m.status, "exported")
}

func TestOverlays(t *testing.T) {
	m := newTestModel(t, testDocument())

	press(m, "?")
	assert.True(t, m.showHelp)
	assert.Contains(t, ansi.Strip(m.View()), "toggle layer visibility")
	press(m, "esc")
	assert.False(t, m.showHelp)

	press(m, "i")
	assert.Contains(t, ansi.Strip(m.View()), "title screen")
	press(m, "i")
	assert.False(t, m.showNotes)
}

func TestQuit(t *testing.T) {
	m := newTestModel(t, testDocument())
	cmd := press(m, "q")
	require.NotNil(t, cmd)
	_, ok := cmd().(tea.QuitMsg)
	assert.True(t, ok)
}

func TestEmptyDocument(t *testing.T) {
	m := newTestModel(t, &layer.Document{})
	assert.Contains(t, ansi.Strip(m.View()), "no layers")

	press(m, "v", "enter", "e")
	assert.Equal(t, -1, m.previewIndex)
	assert.NoError(t, m.err)
}

func TestReloadResetsVisibility(t *testing.T) {
	doc := testDocument()
	m := newTestModel(t, doc)
	m.documentPath = "doc.psd"
	m.load = func(path string) (*layer.Document, error) {
		assert.Equal(t, "doc.psd", path)
		return testDocument(), nil
	}

	press(m, "v")
	require.False(t, m.Session().Visibility[0])
	old := m.Session()

	m.reload()
	assert.NotSame(t, old, m.Session())
	assert.True(t, m.Session().Visibility.AllVisible())
	assert.Equal(t, "reloaded", m.status)
}

func TestAffectsDocument(t *testing.T) {
	m := newTestModel(t, testDocument())
	m.documentPath = "/tmp/art/doc.psd"
	m.watchDir = "/tmp/art"
	assert.True(t, m.affectsDocument("/tmp/art/doc.psd"))
	assert.False(t, m.affectsDocument("/tmp/art/other.psd"))

	m.documentPath = "/tmp/art"
	assert.True(t, m.affectsDocument("/tmp/art/layer.png"))
	assert.False(t, m.affectsDocument("/tmp/elsewhere/layer.png"))
}

func TestWatchLoopStopsOnClose(t *testing.T) {
	dir := t.TempDir()
	watcher, err := fsnotify.NewWatcher()
	require.NoError(t, err)
	require.NoError(t, watcher.Add(dir))

	events := make(chan tea.Msg, 10)
	done := make(chan struct{})
	go func() {
		watchLoop(watcher, events)
		close(done)
	}()

	target := filepath.Join(dir, "layer.png")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0o644))
	select {
	case msg := <-events:
		ev, ok := msg.(fileEventMsg)
		require.True(t, ok)
		assert.Equal(t, target, ev.path)
	case <-time.After(5 * time.Second):
		t.Fatal("no file event")
	}

	require.NoError(t, watcher.Close())
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("watch loop still running after close")
	}
}
