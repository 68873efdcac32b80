package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	styles "github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"

	"github.com/kyaoi/layerview/internal/layer"
	"github.com/kyaoi/layerview/internal/render"
)

const (
	statusHeight       = 1
	minCanvasWidth     = 20
	minLayerPanelWidth = 18
	defaultPanelWidth  = 32
	maxOverlayWidth    = 72
)

var (
	panelBlurBorderColor  = lipgloss.Color("#3b4261")
	panelFocusBorderColor = lipgloss.Color("#7aa2f7")
	layerLineStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#a9b1d6"))
	layerHiddenStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#565f89"))
	layerSelectedActive   = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#1a1b26")).
				Background(lipgloss.Color("#7aa2f7")).
				Bold(true)
	layerSelectedInactive = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#c0caf5")).
				Background(lipgloss.Color("#283457"))
	overlayBoxStyle = lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7aa2f7")).
			Background(lipgloss.Color("#1f2335"))
	statusBarStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("#a9b1d6")).
			Background(lipgloss.Color("#1f2335"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff6b6b"))
)

const helpMarkdown = `# Keys

| key | action |
| --- | --- |
| ctrl+h / ctrl+l | focus layers / canvas |
| j / k | move selection or scroll |
| ctrl+d / ctrl+u | half page |
| gg / G | first / last |
| space / v | toggle layer visibility |
| a | show all layers |
| h / l | collapse / expand group |
| enter / p | preview layer |
| + / - / 0 | zoom in / out / reset |
| r / x / f | rotate / flip / next filter |
| / , n , N | search layer names |
| i | document notes |
| e | export composite |
| t | toggle layer panel |
| q / ctrl+c | quit |
`

// Model implements the Bubble Tea program for the layer viewer.
type Model struct {
	canvasVP  viewport.Model
	layerVP   viewport.Model
	previewVP viewport.Model
	overlay   *glamour.TermRenderer

	session      *layer.Session
	load         LoadFunc
	headerPath   string
	documentPath string
	exportPath   string
	background   render.Background
	view         render.View

	panelVisible        bool
	panelPreferredWidth int
	layerFocus          bool
	showHelp            bool
	showNotes           bool
	previewIndex        int
	previewTitle        string
	pendingKey          string
	ready               bool
	width               int
	height              int
	err                 error
	status              string

	collapsed map[int]bool
	rows      []layerRow
	selection int

	searchInput   textinput.Model
	searchActive  bool
	searchQuery   string
	searchMatches []int
	searchIndex   int

	watcher          *fsnotify.Watcher
	watchDir         string
	watchChan        chan tea.Msg
	initialWatchPath string
}

type layerRow struct {
	order int
	label string
}

// NewModel constructs the viewer model with the provided initial state.
func NewModel(state State) *Model {
	canvasVP := viewport.New(0, 0)
	canvasVP.Style = lipgloss.NewStyle().Padding(0, 1)
	canvasVP.SetHorizontalStep(4)

	layerVP := viewport.New(0, 0)
	layerVP.Style = layerPanelStyle(panelBlurBorderColor)
	layerVP.MouseWheelEnabled = false

	previewVP := viewport.New(0, 0)
	previewVP.SetHorizontalStep(4)

	session := state.Session
	if session == nil {
		session = layer.NewSession(nil)
	}

	view := state.View
	if view.Zoom == 0 {
		view.Zoom = 1
	}

	m := &Model{
		canvasVP:            canvasVP,
		layerVP:             layerVP,
		previewVP:           previewVP,
		session:             session,
		load:                state.Load,
		headerPath:          state.HeaderPath,
		documentPath:        state.DocumentPath,
		exportPath:          state.ExportPath,
		background:          state.Background,
		view:                view,
		panelVisible:        state.PanelVisible,
		panelPreferredWidth: state.PanelPreferredWidth,
		previewIndex:        -1,
		collapsed:           make(map[int]bool),
		searchIndex:         -1,
	}

	searchInput := textinput.New()
	searchInput.Prompt = "/"
	searchInput.CharLimit = 256
	searchInput.Placeholder = "layer name"
	searchInput.CursorEnd()
	searchInput.Blur()
	m.searchInput = searchInput

	if state.Watch && state.Load != nil && state.DocumentPath != "" {
		m.initialWatchPath = state.DocumentPath
	}

	m.rebuildRows()
	m.updatePanelStyle()
	if state.FocusLayers && m.panelVisible {
		m.focusLayers()
	}
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	if m.initialWatchPath != "" {
		path := m.initialWatchPath
		m.initialWatchPath = ""
		return m.startWatching(path)
	}
	return nil
}

// Session returns the session currently shown.
func (m *Model) Session() *layer.Session {
	return m.session
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.showHelp {
		return m.overlayView(m.renderOverlay(helpMarkdown))
	}
	if m.showNotes {
		notes := m.session.Document.Notes
		if strings.TrimSpace(notes) == "" {
			notes = "_This document has no notes._"
		}
		return m.overlayView(m.renderOverlay(notes))
	}
	if m.previewIndex >= 0 {
		content := lipgloss.JoinVertical(lipgloss.Left, m.previewTitle, "", m.previewVP.View())
		return m.overlayView(content)
	}

	body := m.canvasVP.View()
	if m.panelVisible {
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.layerVP.View(), body)
	}

	var bottom string
	switch {
	case m.searchActive:
		bottom = statusBarStyle.Render(m.searchInput.View())
	case m.err != nil:
		bottom = errorStyle.Render(m.err.Error())
	default:
		bottom = statusBarStyle.Render(m.statusLine())
	}
	return lipgloss.JoinVertical(lipgloss.Left, body, bottom)
}

func (m *Model) overlayView(content string) string {
	box := overlayBoxStyle.Render(content)
	if m.width > 0 && m.height > 0 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
	}
	return box
}

func (m *Model) statusLine() string {
	parts := []string{m.headerPath}
	if total := m.session.Len(); total > 0 {
		visible := 0
		for _, v := range m.session.Visibility {
			if v {
				visible++
			}
		}
		parts = append(parts, fmt.Sprintf("%d/%d visible", visible, total))
	}
	parts = append(parts, m.view.Status())
	if s := m.searchStatusLine(); s != "" {
		parts = append(parts, s)
	}
	if m.status != "" {
		parts = append(parts, m.status)
	}
	return strings.Join(parts, "  ")
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case fileEventMsg:
		return m, m.handleFileEvent(msg)
	case fileWatchErrMsg:
		m.err = msg.err
		return m, m.waitForFileEvent()
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		if m.searchActive {
			switch msg.Type {
			case tea.KeyEnter:
				query := strings.TrimSpace(m.searchInput.Value())
				m.exitSearchMode()
				if query == "" {
					m.clearSearch()
					return m, nil
				}
				m.performSearch(query)
				return m, nil
			case tea.KeyEsc, tea.KeyCtrlC:
				m.exitSearchMode()
				return m, nil
			}
			var cmd tea.Cmd
			m.searchInput, cmd = m.searchInput.Update(msg)
			return m, cmd
		}

		key := msg.String()
		if key != "g" {
			m.pendingKey = ""
		}

		if m.previewIndex >= 0 {
			return m, m.handlePreviewKey(msg)
		}

		if m.showHelp || m.showNotes {
			m.pendingKey = ""
			switch key {
			case "q", "?", "i", "esc":
				m.showHelp = false
				m.showNotes = false
			}
			return m, nil
		}

		m.status = ""
		switch key {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "?":
			m.showHelp = true
			return m, nil
		case "i":
			m.showNotes = true
			return m, nil
		case "ctrl+h":
			if m.panelVisible {
				m.focusLayers()
			}
			return m, nil
		case "ctrl+l":
			m.blurLayers()
			return m, nil
		case "t":
			m.panelVisible = !m.panelVisible
			if !m.panelVisible {
				m.blurLayers()
			}
			m.resize(m.width, m.height)
			return m, nil
		case "/":
			return m, m.enterSearchMode()
		case "n":
			if len(m.searchMatches) > 0 {
				m.nextSearchMatch()
				return m, nil
			}
		case "N":
			if len(m.searchMatches) > 0 {
				m.previousSearchMatch()
				return m, nil
			}
		case "a":
			m.session.ShowAll()
			m.refreshLayers()
			m.renderCanvas()
			return m, nil
		case "+", "=":
			m.view.ZoomIn()
			m.renderCanvas()
			return m, nil
		case "-":
			m.view.ZoomOut()
			m.renderCanvas()
			return m, nil
		case "0":
			m.view.Reset()
			m.renderCanvas()
			return m, nil
		case "r":
			m.view.Rotate()
			m.renderCanvas()
			return m, nil
		case "x":
			m.view.Flip = !m.view.Flip
			m.renderCanvas()
			return m, nil
		case "f":
			m.view.CycleFilter()
			m.renderCanvas()
			return m, nil
		case "e":
			m.export()
			return m, nil
		}

		if m.layerFocus && m.panelVisible {
			m.handleLayerKey(key)
			return m, nil
		}

		if m.handleCanvasKey(key) {
			return m, nil
		}

		var cmd tea.Cmd
		m.canvasVP, cmd = m.canvasVP.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.canvasVP, cmd = m.canvasVP.Update(msg)
	return m, cmd
}

func (m *Model) handleCanvasKey(key string) bool {
	switch key {
	case "j":
		m.canvasVP.ScrollDown(1)
	case "k":
		m.canvasVP.ScrollUp(1)
	case "ctrl+d":
		m.canvasVP.HalfPageDown()
	case "ctrl+u":
		m.canvasVP.HalfPageUp()
	case "h":
		m.canvasVP.ScrollLeft(max(2, m.canvasVP.Width/6))
	case "l":
		m.canvasVP.ScrollRight(max(2, m.canvasVP.Width/6))
	case "g":
		if m.pendingKey == "g" {
			m.canvasVP.GotoTop()
			m.pendingKey = ""
		} else {
			m.pendingKey = "g"
		}
		return true
	case "G":
		m.canvasVP.GotoBottom()
	default:
		return false
	}
	m.pendingKey = ""
	return true
}

func (m *Model) handlePreviewKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc", "q", "enter", "p":
		m.closePreview()
		return nil
	case "j":
		m.previewVP.ScrollDown(1)
	case "k":
		m.previewVP.ScrollUp(1)
	case "h":
		m.previewVP.ScrollLeft(4)
	case "l":
		m.previewVP.ScrollRight(4)
	default:
		var cmd tea.Cmd
		m.previewVP, cmd = m.previewVP.Update(msg)
		return cmd
	}
	return nil
}

func (m *Model) resize(width, height int) {
	if width <= 0 || height <= statusHeight {
		return
	}

	m.width = width
	m.height = height
	m.ready = true

	panelWidth := m.panelWidth(width)
	canvasWidth := width - panelWidth
	if canvasWidth < minCanvasWidth {
		canvasWidth = minCanvasWidth
	}

	bodyHeight := max(height-statusHeight, 1)
	m.canvasVP.Width = canvasWidth
	m.canvasVP.Height = bodyHeight

	if m.panelVisible && panelWidth > 0 {
		m.layerVP.Width = panelWidth
		m.layerVP.Height = bodyHeight
		m.updateLayerContent()
	} else {
		m.layerVP.Width = 0
		m.layerVP.Height = bodyHeight
	}

	overlayWidth := min(width-8, maxOverlayWidth)
	renderer, err := newRenderer(max(overlayWidth, 0))
	if err != nil {
		m.err = err
	} else {
		m.overlay = renderer
	}

	m.renderCanvas()
	if m.previewIndex >= 0 {
		m.openPreview(m.previewIndex)
	}
}

func (m *Model) panelWidth(totalWidth int) int {
	if !m.panelVisible {
		return 0
	}
	preferred := m.panelPreferredWidth
	if preferred <= 0 {
		preferred = defaultPanelWidth
	}

	frame := m.layerVP.Style.GetHorizontalFrameSize()
	minPanel := max(minLayerPanelWidth-frame, 0)
	maxPanel := max(totalWidth/2-frame, minPanel)
	panelContentWidth := clamp(preferred, minPanel, maxPanel)

	width := panelContentWidth + frame
	if totalWidth-width < minCanvasWidth {
		width = max(totalWidth-minCanvasWidth, 0)
	}
	if width > totalWidth {
		width = totalWidth
	}
	return width
}

// renderCanvas rasterises the current composite into the canvas viewport.
func (m *Model) renderCanvas() {
	if !m.ready {
		return
	}
	if m.session.Len() == 0 {
		m.canvasVP.SetContent(layerHiddenStyle.Render("no layers"))
		return
	}
	cols := m.canvasVP.Width - m.canvasVP.Style.GetHorizontalFrameSize()
	rows := m.canvasVP.Height - m.canvasVP.Style.GetVerticalFrameSize()
	img := m.view.Apply(m.session.Canvas())
	m.canvasVP.SetContent(render.HalfBlocks(img, cols, rows, m.view.Zoom, m.background))
}

func (m *Model) openPreview(order int) {
	img, ok := m.session.Preview(order)
	if !ok {
		m.err = fmt.Errorf("%s has no pixels to preview", m.session.Entries[order].Path)
		return
	}
	m.err = nil
	size := img.Bounds().Size()
	m.previewIndex = order
	m.previewTitle = fmt.Sprintf("%s  %d×%d", m.session.Entries[order].Path, size.X, size.Y)

	frame := overlayBoxStyle.GetHorizontalFrameSize()
	vframe := overlayBoxStyle.GetVerticalFrameSize()
	m.previewVP.Width = clamp(size.X, 1, max(m.width-frame-2, 1))
	m.previewVP.Height = clamp((size.Y+1)/2, 1, max(m.height-vframe-4, 1))
	m.previewVP.SetContent(render.Native(img, m.background))
	m.previewVP.GotoTop()
	log.WithField("layer", m.session.Entries[order].Path).Debug("preview opened")
}

func (m *Model) closePreview() {
	m.previewIndex = -1
	m.previewTitle = ""
	m.previewVP.SetContent("")
}

func (m *Model) export() {
	if m.exportPath == "" || m.session.Len() == 0 {
		return
	}
	if err := render.SavePNG(m.exportPath, m.session.Canvas()); err != nil {
		m.err = err
		return
	}
	m.err = nil
	m.status = "exported " + m.exportPath
	log.WithField("path", m.exportPath).Info("exported composite")
}

func (m *Model) renderOverlay(markdown string) string {
	if m.overlay == nil {
		return markdown
	}
	out, err := m.overlay.Render(markdown)
	if err != nil {
		return markdown
	}
	return strings.Trim(out, "\n")
}

func (m *Model) focusLayers() {
	m.layerFocus = true
	m.updatePanelStyle()
	m.updateLayerContent()
}

func (m *Model) blurLayers() {
	m.layerFocus = false
	m.updatePanelStyle()
	m.updateLayerContent()
}

func (m *Model) updatePanelStyle() {
	color := panelBlurBorderColor
	if m.layerFocus {
		color = panelFocusBorderColor
	}
	m.layerVP.Style = layerPanelStyle(color)
}

func layerPanelStyle(color lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().
		Padding(0, 1).
		BorderStyle(lipgloss.NormalBorder()).
		BorderRight(true).
		BorderForeground(color)
}

func newRenderer(width int) (*glamour.TermRenderer, error) {
	opts := []glamour.TermRendererOption{glamour.WithStandardStyle(styles.TokyoNightStyle)}
	if width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	} else {
		opts = append(opts, glamour.WithWordWrap(0))
	}
	return glamour.NewTermRenderer(opts...)
}

func clamp(value, low, high int) int {
	if value < low {
		return low
	}
	if value > high {
		return high
	}
	return value
}
