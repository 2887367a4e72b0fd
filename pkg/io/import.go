package io

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	errs "github.com/matzehuels/framelink/pkg/errors"
	"github.com/matzehuels/framelink/pkg/scene"
)

// Sentinel errors for document validation. They are wrapped in an
// INVALID_FORMAT error naming the offending id.
var (
	ErrDuplicateFrame = errors.New("duplicate frame id")
	ErrDuplicateLayer = errors.New("duplicate layer id")
	ErrUnknownFrame   = errors.New("size references unknown frame")
)

// ReadJSON decodes and validates a project document. Frames without a
// hidden set get one from their visible flags, and every frame's visible
// count is recomputed. ReadJSON does not close r.
func ReadJSON(r io.Reader) (*scene.Project, error) {
	var p scene.Project
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidFormat, err, "decode project")
	}
	if err := Check(&p); err != nil {
		return nil, err
	}
	for _, f := range p.Frames {
		if f.Hidden == nil {
			f.SyncHiddenFromFlags()
		}
		f.Recount()
	}
	return &p, nil
}

// ImportJSON reads a project document from path.
func ImportJSON(path string) (*scene.Project, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	p, err := ReadJSON(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Unmarshal is ReadJSON over a byte slice.
func Unmarshal(data []byte) (*scene.Project, error) {
	return ReadJSON(bytes.NewReader(data))
}

// Check validates identifiers and references in p without modifying it.
// Layer ids must be unique across the whole project.
func Check(p *scene.Project) error {
	frames := make(map[string]bool, len(p.Frames))
	owner := make(map[string]string)
	for _, f := range p.Frames {
		if err := errs.ValidateID("frame id", f.ID); err != nil {
			return err
		}
		if frames[f.ID] {
			return errs.Wrap(errs.ErrCodeInvalidFormat, ErrDuplicateFrame, "frame %s", f.ID)
		}
		frames[f.ID] = true

		var err error
		scene.Walk(f.Layers, func(l *scene.Layer, _ []*scene.Layer) bool {
			if err = errs.ValidateID("layer id", l.ID); err != nil {
				return false
			}
			if prev, ok := owner[l.ID]; ok {
				if prev == f.ID {
					err = errs.Wrap(errs.ErrCodeInvalidFormat, ErrDuplicateLayer, "frame %s: layer %s", f.ID, l.ID)
				} else {
					err = errs.Wrap(errs.ErrCodeInvalidFormat, ErrDuplicateLayer, "layer %s in frames %s and %s", l.ID, prev, f.ID)
				}
				return false
			}
			owner[l.ID] = f.ID
			return true
		})
		if err != nil {
			return err
		}
	}
	for _, s := range p.Sizes {
		if err := errs.ValidateID("size id", s.ID); err != nil {
			return err
		}
		for _, id := range s.FrameIDs {
			if !frames[id] {
				return errs.Wrap(errs.ErrCodeInvalidFormat, ErrUnknownFrame, "size %s: frame %s", s.ID, id)
			}
		}
	}
	return nil
}
