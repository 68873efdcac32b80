package ui

import (
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"

	"github.com/kyaoi/layerview/internal/layer"
)

type fileEventMsg struct {
	path string
	op   fsnotify.Op
}

type fileWatchErrMsg struct {
	err error
}

// startWatching watches the directory holding a document file, or the
// document directory itself.
func (m *Model) startWatching(path string) tea.Cmd {
	if path == "" {
		return nil
	}
	path = filepath.Clean(path)
	if err := m.ensureWatcher(); err != nil {
		m.err = err
		return nil
	}

	dir := path
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		dir = filepath.Dir(path)
	}
	if dir != m.watchDir {
		if m.watchDir != "" {
			_ = m.watcher.Remove(m.watchDir)
		}
		if err := m.watcher.Add(dir); err != nil {
			m.err = err
			return nil
		}
		m.watchDir = dir
	}
	return m.waitForFileEvent()
}

func (m *Model) ensureWatcher() error {
	if m.watcher != nil {
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	m.watcher = watcher
	m.watchChan = make(chan tea.Msg, 10)

	go watchLoop(watcher, m.watchChan)
	return nil
}

func watchLoop(watcher *fsnotify.Watcher, out chan<- tea.Msg) {
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			out <- fileEventMsg{path: event.Name, op: event.Op}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			out <- fileWatchErrMsg{err: err}
		}
	}
}

func (m *Model) waitForFileEvent() tea.Cmd {
	ch := m.watchChan
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}

func (m *Model) handleFileEvent(msg fileEventMsg) tea.Cmd {
	if m.affectsDocument(msg.path) {
		m.reload()
	}
	return m.waitForFileEvent()
}

// affectsDocument reports whether a change to path changes the opened
// document: the document file itself, or any file of a document directory.
func (m *Model) affectsDocument(path string) bool {
	if m.documentPath == "" {
		return false
	}
	path = filepath.Clean(path)
	doc := filepath.Clean(m.documentPath)
	if path == doc {
		return true
	}
	return m.watchDir == doc && filepath.Dir(path) == doc
}

// reload opens the document again. The new session starts from the
// document's default visibility.
func (m *Model) reload() {
	if m.load == nil {
		return
	}
	doc, err := m.load(m.documentPath)
	if err != nil {
		m.err = err
		return
	}

	old := m.session
	m.session = layer.NewSession(doc)
	old.Close()
	log.WithFields(log.Fields{
		"path":    m.documentPath,
		"session": m.session.ID.String(),
	}).Info("document reloaded")

	m.closePreview()
	m.collapsed = make(map[int]bool)
	m.searchMatches = findLayerMatches(m.session.Entries, m.searchQuery)
	if m.searchIndex >= len(m.searchMatches) {
		m.searchIndex = len(m.searchMatches) - 1
	}
	m.err = nil
	m.status = "reloaded"
	m.refreshLayers()
	m.renderCanvas()
}

// Close stops the file watcher.
func (m *Model) Close() error {
	if m.watcher == nil {
		return nil
	}
	err := m.watcher.Close()
	m.watcher = nil
	return err
}
