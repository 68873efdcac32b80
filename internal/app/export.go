package app

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/kyaoi/layerview/internal/layer"
	"github.com/kyaoi/layerview/internal/render"
)

// Export composites target with the given layers hidden and writes the
// result to out as PNG, without starting the viewer.
func Export(target, out string, hide []string) error {
	if out == "" {
		return fmt.Errorf("export: no output path")
	}
	doc, err := LoadDocument(target)
	if err != nil {
		return err
	}

	session := layer.NewSession(doc)
	defer session.Close()
	if session.Len() == 0 {
		return fmt.Errorf("%s: %w", target, layer.ErrNoLayers)
	}
	if len(hide) > 0 {
		if err := session.HideByPath(hide...); err != nil {
			return err
		}
	}

	if err := render.SavePNG(out, session.Canvas()); err != nil {
		return fmt.Errorf("export %s: %w", out, err)
	}
	log.WithFields(log.Fields{
		"path":    out,
		"session": session.ID.String(),
		"hidden":  len(hide),
	}).Info("exported composite")
	return nil
}
