package app

import (
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"

	"github.com/kyaoi/layerview/internal/config"
	"github.com/kyaoi/layerview/internal/layer"
	"github.com/kyaoi/layerview/internal/render"
	"github.com/kyaoi/layerview/internal/ui"
)

// Options are the command line settings of a run.
type Options struct {
	Config config.Config
	Hide   []string
	Output string
}

// Run opens target and executes the Bubble Tea program for the viewer.
func Run(target string, opts Options) error {
	state, err := LoadInitialState(target, opts)
	if err != nil {
		return err
	}
	return runProgram(state)
}

// LoadInitialState opens the document and prepares the UI state.
func LoadInitialState(target string, opts Options) (ui.State, error) {
	bg, err := render.ParseBackground(opts.Config.Background)
	if err != nil {
		return ui.State{}, err
	}
	filter, err := render.ParseFilter(opts.Config.Filter)
	if err != nil {
		return ui.State{}, err
	}
	view := render.NewView()
	view.Filter = filter

	absTarget, err := filepath.Abs(target)
	if err != nil {
		return ui.State{}, err
	}
	doc, err := LoadDocument(absTarget)
	if err != nil {
		return ui.State{}, err
	}

	session := layer.NewSession(doc)
	if len(opts.Hide) > 0 {
		if err := session.HideByPath(opts.Hide...); err != nil {
			session.Close()
			return ui.State{}, err
		}
	}

	output := opts.Output
	if output == "" {
		output = exportPath(absTarget)
	}

	log.WithFields(log.Fields{
		"path":    absTarget,
		"session": session.ID.String(),
		"layers":  session.Len(),
	}).Info("opened document")

	return ui.State{
		Session:             session,
		HeaderPath:          displayPath(absTarget),
		DocumentPath:        absTarget,
		ExportPath:          output,
		PanelVisible:        true,
		PanelPreferredWidth: opts.Config.PanelWidth,
		Background:          bg,
		View:                view,
		Watch:               opts.Config.Watching(),
		Load:                LoadDocument,
		FocusLayers:         session.Len() > 0,
	}, nil
}

func runProgram(state ui.State) error {
	model := ui.NewModel(state)
	defer func() {
		model.Session().Close()
		if err := model.Close(); err != nil {
			log.WithError(err).Warn("closing file watcher")
		}
	}()
	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err := program.Run()
	return err
}
