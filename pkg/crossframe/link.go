package crossframe

import (
	"github.com/matzehuels/framelink/pkg/frameid"
	"github.com/matzehuels/framelink/pkg/link"
	"github.com/matzehuels/framelink/pkg/observability"
	"github.com/matzehuels/framelink/pkg/scene"
)

// ToggleLink locks or unlocks a layer in mode and returns the updated frames
// with link descriptors projected from the registry.
//
// Locking gathers every layer sharing the source's name within the mode's
// scope, creates or extends their group and makes the source its main
// member; the returned string is the group id. Unlocking removes the source
// from its group and clears its descriptor; the returned string is empty.
//
// Lock scope in ModeGIF is the source's sequence position across every other
// canvas size. In ModeAnimation it is the canvas-level frames of the
// source's size, or of every size when the registry's AnimationScope is
// link.ScopeProject. A layer whose frame belongs to the other mode is left
// alone, as is a lock with no partner to link to.
func (e *Engine) ToggleLink(frames scene.Frames, sourceFrameID, layerID string, mode link.Mode) (scene.Frames, string, error) {
	out := frames.Clone()
	src, _ := out.Get(sourceFrameID)
	if src == nil {
		e.logger.Warn("frame not found", "frame", sourceFrameID, "layer", layerID)
		return out, "", nil
	}
	l := src.Layer(layerID)
	if l == nil {
		e.logger.Warn("layer not found", "frame", sourceFrameID, "layer", layerID)
		return out, "", nil
	}
	if link.ModeForFrame(src.ID) != mode {
		e.logger.Warn("mode mismatch", "frame", sourceFrameID, "layer", layerID, "mode", mode)
		return out, "", nil
	}

	if g, ok := e.registry.GetLayerGroup(layerID, mode); ok {
		if _, err := e.registry.RemoveLayerFromGroup(g.ID, layerID); err != nil {
			return nil, "", err
		}
		l.ClearLink()
		out = e.project(out, mode)
		observability.Sync().OnLinkToggle(string(mode), g.ID, false)
		e.logger.Debug("layer unlinked", "frame", sourceFrameID, "layer", layerID, "group", g.ID)
		return out, "", nil
	}

	ids := e.candidates(out, src, l, mode)
	if len(ids) < 2 {
		e.logger.Warn("nothing to link", "frame", sourceFrameID, "layer", layerID, "mode", mode)
		return out, "", nil
	}

	gid, err := e.lock(l.Name, ids, layerID, mode)
	if err != nil {
		return nil, "", err
	}
	out = e.project(out, mode)
	observability.Sync().OnLinkToggle(string(mode), gid, true)
	e.logger.Debug("layer linked", "frame", sourceFrameID, "layer", layerID, "group", gid, "members", len(ids))
	return out, gid, nil
}

// AutoLink links every qualifying same-named layer set in mode. See
// link.Registry.AutoLinkLayers for the rules.
func (e *Engine) AutoLink(frames scene.Frames, mode link.Mode) (scene.Frames, error) {
	return e.registry.AutoLinkFrames(frames, mode)
}

// candidates lists the source layer followed by every same-named layer in
// the mode's lock scope.
func (e *Engine) candidates(frames scene.Frames, src *scene.Frame, l *scene.Layer, mode link.Mode) []string {
	ids := []string{l.ID}
	name := l.NormalizedName()
	for _, f := range frames {
		if !e.inScope(src, f, mode) {
			continue
		}
		for _, m := range scene.FindByName(f.Layers, name) {
			if m.ID != l.ID {
				ids = append(ids, m.ID)
			}
		}
	}
	return ids
}

func (e *Engine) inScope(src, f *scene.Frame, mode link.Mode) bool {
	if mode == link.ModeGIF {
		return f.ID == src.ID || Eligible(src.ID, f.ID)
	}
	if frameid.IsSlice(f.ID) {
		return false
	}
	return e.registry.AnimationScope == link.ScopeProject || f.Size() == src.Size()
}

// lock extends the first existing group among ids, or creates one, and makes
// mainID its main member.
func (e *Engine) lock(name string, ids []string, mainID string, mode link.Mode) (string, error) {
	for _, id := range ids {
		g, ok := e.registry.GetLayerGroup(id, mode)
		if !ok {
			continue
		}
		for _, m := range ids {
			if _, err := e.registry.AddLayerToGroup(g.ID, m); err != nil {
				return "", err
			}
		}
		if _, err := e.registry.SetMain(g.ID, mainID); err != nil {
			return "", err
		}
		return g.ID, nil
	}
	return e.registry.CreateLinkGroup(name, ids, mode, mainID)
}

// project rewrites every frame's descriptors from the registry and
// reindexes.
func (e *Engine) project(frames scene.Frames, mode link.Mode) scene.Frames {
	for _, f := range frames {
		f.Layers = e.registry.SyncLayerLinkStates(f.Layers, mode)
	}
	e.registry.IndexFrames(frames)
	return frames
}
