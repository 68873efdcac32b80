package ui

import (
	"github.com/kyaoi/layerview/internal/layer"
	"github.com/kyaoi/layerview/internal/render"
)

// LoadFunc opens the document at path. It is used again when the watched
// file changes.
type LoadFunc func(path string) (*layer.Document, error)

// State contains the data required to bootstrap the Bubble Tea model.
type State struct {
	Session             *layer.Session
	HeaderPath          string
	DocumentPath        string
	ExportPath          string
	PanelVisible        bool
	PanelPreferredWidth int
	Background          render.Background
	View                render.View
	Watch               bool
	Load                LoadFunc
	FocusLayers         bool
}
