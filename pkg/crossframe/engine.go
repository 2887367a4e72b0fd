package crossframe

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/framelink/pkg/frameid"
	"github.com/matzehuels/framelink/pkg/link"
	"github.com/matzehuels/framelink/pkg/observability"
	"github.com/matzehuels/framelink/pkg/scene"
	"github.com/matzehuels/framelink/pkg/visibility"
)

// Engine runs cross-frame operations against a link registry.
type Engine struct {
	registry *link.Registry
	enforcer *visibility.Enforcer
	logger   *log.Logger
}

// New returns an Engine over reg. A nil registry gets a fresh one; a nil
// logger means log.Default().
func New(reg *link.Registry, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.Default()
	}
	if reg == nil {
		reg = link.New(logger)
	}
	return &Engine{
		registry: reg,
		enforcer: visibility.New(logger),
		logger:   logger,
	}
}

// Registry returns the registry the engine links through.
func (e *Engine) Registry() *link.Registry { return e.registry }

// Eligible reports whether an edit in the source frame fans out to the
// target frame. Per-slice frames match on sequence number across sizes.
// Canvas-level frames match every other canvas-level frame by name alone;
// link.Registry.AnimationScope bounds locking, not sync.
func Eligible(sourceFrameID, targetFrameID string) bool {
	if sourceFrameID == targetFrameID {
		return false
	}
	ps, pt := frameid.Parse(sourceFrameID), frameid.Parse(targetFrameID)
	switch {
	case ps.Valid && pt.Valid:
		return ps.Number == pt.Number && ps.SizeID != pt.SizeID
	case !ps.Valid && !pt.Valid:
		return true
	}
	return false
}

// =============================================================================
// Visibility
// =============================================================================

// SetVisibility shows or hides one layer in one frame without fan-out.
func (e *Engine) SetVisibility(frame *scene.Frame, layerID string, visible bool) *scene.Frame {
	out := e.enforcer.SetVisibility(frame, layerID, visible)
	out.Recount()
	return out
}

// SyncVisibility shows or hides the source layer and every eligible
// same-named layer, then refreshes each frame's visible count.
func (e *Engine) SyncVisibility(sourceLayerID, sourceFrameID string, frames scene.Frames, visible bool) scene.Frames {
	start := time.Now()
	out := frames.Clone()

	src, name, ok := e.resolve(out, sourceLayerID, sourceFrameID)
	if !ok {
		return out
	}
	e.enforcer.Apply(src, sourceLayerID, visible)

	updated, skipped := e.fanOut(out, src, name, scene.StreamVisibility, func(f *scene.Frame, l *scene.Layer) {
		e.enforcer.Apply(f, l.ID, visible)
	})
	for _, f := range out {
		f.Recount()
	}

	observability.Sync().OnSync(observability.SyncVisibility, sourceLayerID, updated, skipped, time.Since(start))
	e.logger.Debug("visibility synced", "layer", sourceLayerID, "frame", sourceFrameID,
		"visible", visible, "updated", updated, "skipped", skipped)
	return out
}

// =============================================================================
// Animation
// =============================================================================

// SyncAnimationProperty writes anim into the source layer and every eligible
// same-named layer, replacing the definition with the same id or appending
// it. The stream checked for overrides is scene.AnimationStream(anim.ID).
func (e *Engine) SyncAnimationProperty(sourceLayerID, sourceFrameID string, frames scene.Frames, anim scene.Animation) scene.Frames {
	start := time.Now()
	out := frames.Clone()

	src, name, ok := e.resolve(out, sourceLayerID, sourceFrameID)
	if !ok {
		return out
	}
	src.Layer(sourceLayerID).UpsertAnimation(anim)

	updated, skipped := e.fanOut(out, src, name, scene.AnimationStream(anim.ID), func(_ *scene.Frame, l *scene.Layer) {
		l.UpsertAnimation(anim)
	})

	observability.Sync().OnSync(observability.SyncAnimation, sourceLayerID, updated, skipped, time.Since(start))
	e.logger.Debug("animation synced", "layer", sourceLayerID, "frame", sourceFrameID,
		"animation", anim.ID, "updated", updated, "skipped", skipped)
	return out
}

// =============================================================================
// Overrides
// =============================================================================

// SetOverride marks or clears a layer's opt-out from stream in one frame.
// The marker is written to the frame's override map and, for a linked layer,
// to its link descriptor. The layer keeps its group membership either way.
func (e *Engine) SetOverride(frame *scene.Frame, layerID string, stream scene.Stream, overridden bool) *scene.Frame {
	out := frame.Clone()
	l := out.Layer(layerID)
	if l == nil {
		e.logger.Warn("layer not found", "frame", frame.ID, "layer", layerID)
		return out
	}

	if overridden {
		if out.Overrides == nil {
			out.Overrides = make(map[string]map[scene.Stream]bool)
		}
		if out.Overrides[layerID] == nil {
			out.Overrides[layerID] = make(map[scene.Stream]bool)
		}
		out.Overrides[layerID][stream] = true
		if l.Link != nil {
			if l.Link.Overrides == nil {
				l.Link.Overrides = make(map[scene.Stream]bool)
			}
			l.Link.Overrides[stream] = true
		}
	} else {
		delete(out.Overrides[layerID], stream)
		if len(out.Overrides[layerID]) == 0 {
			delete(out.Overrides, layerID)
		}
		if len(out.Overrides) == 0 {
			out.Overrides = nil
		}
		if l.Link != nil {
			delete(l.Link.Overrides, stream)
			if len(l.Link.Overrides) == 0 {
				l.Link.Overrides = nil
			}
		}
	}
	e.logger.Debug("override set", "frame", frame.ID, "layer", layerID, "stream", stream, "overridden", overridden)
	return out
}

// =============================================================================
// Fan-out
// =============================================================================

// resolve finds the source frame and the source layer's normalized name, and
// refreshes the registry's frame indices for the fan-out.
func (e *Engine) resolve(frames scene.Frames, layerID, frameID string) (*scene.Frame, string, bool) {
	src, _ := frames.Get(frameID)
	if src == nil {
		e.logger.Warn("frame not found", "frame", frameID, "layer", layerID)
		return nil, "", false
	}
	l := src.Layer(layerID)
	if l == nil {
		e.logger.Warn("layer not found", "frame", frameID, "layer", layerID)
		return nil, "", false
	}
	e.registry.IndexFrames(frames)
	return src, l.NormalizedName(), true
}

// fanOut calls apply for every accepting same-named layer in every frame
// eligible for src, and counts the targets applied and skipped.
func (e *Engine) fanOut(frames scene.Frames, src *scene.Frame, name string, stream scene.Stream, apply func(*scene.Frame, *scene.Layer)) (updated, skipped int) {
	holders := e.registry.NameIndex().Frames(name)
	for _, f := range frames {
		if _, ok := holders[f.ID]; !ok || !Eligible(src.ID, f.ID) {
			continue
		}
		for _, l := range scene.FindByName(f.Layers, name) {
			if !f.Accepts(l, stream) {
				skipped++
				observability.Sync().OnOverrideSkip(f.ID, l.ID, string(stream))
				e.logger.Debug("target opted out", "frame", f.ID, "layer", l.ID, "stream", stream)
				continue
			}
			apply(f, l)
			updated++
		}
	}
	return updated, skipped
}
