package ui

import (
	"strings"

	"github.com/charmbracelet/x/ansi"

	"github.com/kyaoi/layerview/internal/layer"
)

func (m *Model) handleLayerKey(key string) {
	switch key {
	case "j", "down":
		m.moveSelection(1)
	case "k", "up":
		m.moveSelection(-1)
	case "ctrl+d":
		m.moveSelection(max(1, m.layerVP.Height/2))
	case "ctrl+u":
		m.moveSelection(-max(1, m.layerVP.Height/2))
	case " ", "space", "v":
		if order := m.selectedOrder(); order >= 0 {
			m.toggleLayer(order)
		}
	case "enter", "p":
		if order := m.selectedOrder(); order >= 0 {
			m.openPreview(order)
		}
	case "l", "right":
		m.expandOrDescend()
	case "h", "left":
		m.collapseOrAscend()
	case "g":
		if m.pendingKey == "g" {
			m.pendingKey = ""
			if len(m.rows) > 0 {
				m.selection = 0
				m.updateLayerContent()
			}
		} else {
			m.pendingKey = "g"
		}
		return
	case "G":
		if len(m.rows) > 0 {
			m.selection = len(m.rows) - 1
			m.updateLayerContent()
		}
	}
	m.pendingKey = ""
}

// toggleLayer flips the visibility of the entry with the given order and
// redraws both panels.
func (m *Model) toggleLayer(order int) {
	m.session.Toggle(order)
	m.refreshLayers()
	m.renderCanvas()
}

func (m *Model) moveSelection(delta int) {
	if len(m.rows) == 0 {
		return
	}
	m.selection = clamp(m.selection+delta, 0, len(m.rows)-1)
	m.updateLayerContent()
}

func (m *Model) selectedOrder() int {
	if m.selection < 0 || m.selection >= len(m.rows) {
		return -1
	}
	return m.rows[m.selection].order
}

func (m *Model) expandOrDescend() {
	order := m.selectedOrder()
	if order < 0 || !m.session.Entries[order].IsGroup() {
		return
	}
	if m.collapsed[order] {
		delete(m.collapsed, order)
		m.refreshLayers()
		return
	}
	m.moveSelection(1)
}

func (m *Model) collapseOrAscend() {
	order := m.selectedOrder()
	if order < 0 {
		return
	}
	if m.session.Entries[order].IsGroup() && !m.collapsed[order] {
		m.collapsed[order] = true
		m.refreshLayers()
		return
	}
	if parent := layer.Parent(m.session.Entries, order); parent >= 0 {
		m.selectOrder(parent)
	}
}

// selectOrder expands the ancestors of the entry and selects its row.
func (m *Model) selectOrder(order int) {
	for p := layer.Parent(m.session.Entries, order); p >= 0; p = layer.Parent(m.session.Entries, p) {
		delete(m.collapsed, p)
	}
	m.rebuildRows()
	if idx := m.rowForOrder(order); idx >= 0 {
		m.selection = idx
	}
	m.updateLayerContent()
}

// refreshLayers rebuilds the rows and keeps the selected entry selected.
func (m *Model) refreshLayers() {
	selected := m.selectedOrder()
	m.rebuildRows()
	if idx := m.rowForOrder(selected); idx >= 0 {
		m.selection = idx
	} else {
		m.selection = clamp(m.selection, 0, max(len(m.rows)-1, 0))
	}
	m.updateLayerContent()
}

func (m *Model) rowForOrder(order int) int {
	for i, row := range m.rows {
		if row.order == order {
			return i
		}
	}
	return -1
}

// rebuildRows lists every entry that is not inside a collapsed group.
func (m *Model) rebuildRows() {
	entries := m.session.Entries
	m.rows = m.rows[:0]
	for i := 0; i < len(entries); {
		e := entries[i]
		label := formatLayerLabel(e, m.session.Visibility[i], m.collapsed[i])
		m.rows = append(m.rows, layerRow{order: i, label: label})
		if e.IsGroup() && m.collapsed[i] {
			i = layer.SubtreeEnd(entries, i)
			continue
		}
		i++
	}
}

func (m *Model) updateLayerContent() {
	if len(m.rows) == 0 {
		m.layerVP.SetContent(layerHiddenStyle.Render("no layers"))
		return
	}

	limit := m.layerVP.Width - m.layerVP.Style.GetHorizontalFrameSize()
	var builder strings.Builder
	for i, row := range m.rows {
		text := row.label
		if limit > 0 {
			text = ansi.Truncate(text, limit, "…")
		}
		switch {
		case i == m.selection && m.layerFocus:
			builder.WriteString(layerSelectedActive.Render(text))
		case i == m.selection:
			builder.WriteString(layerSelectedInactive.Render(text))
		case !m.session.Visibility[row.order]:
			builder.WriteString(layerHiddenStyle.Render(text))
		default:
			builder.WriteString(layerLineStyle.Render(text))
		}
		if i < len(m.rows)-1 {
			builder.WriteByte('\n')
		}
	}
	m.layerVP.SetContent(builder.String())
	m.ensureSelectionVisible()
}

func (m *Model) ensureSelectionVisible() {
	if len(m.rows) == 0 || m.layerVP.Height == 0 {
		return
	}
	if m.selection < m.layerVP.YOffset {
		m.layerVP.SetYOffset(m.selection)
		return
	}
	bottom := m.layerVP.YOffset + m.layerVP.Height - 1
	if m.selection > bottom {
		m.layerVP.SetYOffset(m.selection - m.layerVP.Height + 1)
	}
}

func formatLayerLabel(e layer.Entry, visible, collapsed bool) string {
	mark := "[ ] "
	if visible {
		mark = "[x] "
	}
	indent := strings.Repeat("  ", e.Depth)
	indicator := "  "
	name := ansi.Strip(e.Node.Name)
	if e.IsGroup() {
		if collapsed {
			indicator = "+ "
		} else {
			indicator = "- "
		}
		name += "/"
	}
	return mark + indent + indicator + name
}
