// Package visibility keeps a frame's two visibility representations in step:
// the frame's hidden set and each layer's Visible flag.
//
// # Container Rules
//
// A container (a layer with children) behaves according to its Expanded
// flag, which the presentation layer owns:
//
//   - Toggling a collapsed container cascades to every descendant.
//   - Toggling an expanded container leaves its children alone.
//   - When a layer is toggled directly, each ancestor is reconciled from the
//     bottom up: a collapsed ancestor becomes visible iff any child is
//     visible; an expanded ancestor is forced visible so it stays selectable.
//
// Background-like layers get no special treatment.
package visibility

import (
	"github.com/charmbracelet/log"

	"github.com/matzehuels/framelink/pkg/scene"
)

// Enforcer applies visibility changes to a single frame.
// It holds no per-call state and is safe for concurrent use.
type Enforcer struct {
	logger *log.Logger
}

// New returns an Enforcer. A nil logger means log.Default().
func New(logger *log.Logger) *Enforcer {
	if logger == nil {
		logger = log.Default()
	}
	return &Enforcer{logger: logger}
}

// SetVisibility returns a copy of frame with layerID shown or hidden and both
// representations reconciled. The input frame is never modified. An unknown
// layer id logs a warning and returns an unchanged copy.
func (e *Enforcer) SetVisibility(frame *scene.Frame, layerID string, visible bool) *scene.Frame {
	out := frame.Clone()
	if !e.Apply(out, layerID, visible) {
		e.logger.Warn("layer not found", "frame", frame.ID, "layer", layerID)
	}
	return out
}

// Apply is SetVisibility without the copy: it mutates frame in place and
// reports whether the layer was found. Engine code calls it on frames it has
// already cloned.
func (e *Enforcer) Apply(frame *scene.Frame, layerID string, visible bool) bool {
	path := scene.FindPath(frame.Layers, layerID)
	if path == nil {
		return false
	}
	if frame.Hidden == nil {
		frame.Hidden = make(scene.IDSet)
	}

	target := path[len(path)-1]
	set(frame, target, visible)
	if target.IsContainer() && !target.Expanded {
		for _, d := range scene.Descendants(target) {
			set(frame, d, visible)
		}
	}

	ancestors := path[:len(path)-1]
	for i := len(ancestors) - 1; i >= 0; i-- {
		a := ancestors[i]
		if a.Expanded {
			set(frame, a, true)
		} else {
			set(frame, a, anyVisible(a.Children))
		}
	}

	e.logger.Debug("visibility applied", "frame", frame.ID, "layer", layerID, "visible", visible)
	return true
}

// set writes one fact into both representations.
func set(frame *scene.Frame, l *scene.Layer, visible bool) {
	l.Visible = visible
	if visible {
		frame.Hidden.Remove(l.ID)
	} else {
		frame.Hidden.Add(l.ID)
	}
}

func anyVisible(layers []*scene.Layer) bool {
	for _, l := range layers {
		if l.Visible {
			return true
		}
	}
	return false
}

// Consistent reports whether every reachable layer satisfies
// Hidden.Has(id) == !Visible, returning the ids that do not.
func Consistent(frame *scene.Frame) (bool, []string) {
	var bad []string
	scene.Walk(frame.Layers, func(l *scene.Layer, _ []*scene.Layer) bool {
		if frame.Hidden.Has(l.ID) == l.Visible {
			bad = append(bad, l.ID)
		}
		return true
	})
	return len(bad) == 0, bad
}
