// Package session holds the editing context for one open project.
//
// An [Editor] owns the current project, the link registry built from it and
// the cross-frame engine. Each operation swaps the project's frames for the
// engine's result, so readers never observe a half-applied edit. Editor
// methods are serialized by an internal mutex.
//
//	ed, err := session.NewEditor(project, session.Options{})
//	if err != nil {
//	    return err
//	}
//	if _, err := ed.ToggleLink("A_frame_1", "logo", link.ModeGIF); err != nil {
//	    return err
//	}
//	ed.SyncVisibility("A_frame_1", "logo", false)
//	violations := ed.Validate(link.ModeGIF)
package session

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/framelink/pkg/crossframe"
	"github.com/matzehuels/framelink/pkg/link"
	"github.com/matzehuels/framelink/pkg/scene"
	"github.com/matzehuels/framelink/pkg/validate"
)

// Options configures an Editor. The zero value is usable.
type Options struct {
	// Logger receives engine diagnostics. Nil means log.Default().
	Logger *log.Logger

	// AnimationScope bounds Animation-mode linking. Empty means link.ScopeSize.
	AnimationScope link.Scope
}

// Editor is the editing context for one project.
type Editor struct {
	ID        string
	CreatedAt time.Time

	mu       sync.Mutex
	project  *scene.Project
	registry *link.Registry
	engine   *crossframe.Engine
	logger   *log.Logger
}

// NewEditor copies p and rebuilds the link registry from its layer
// descriptors. It fails only when those descriptors are contradictory.
func NewEditor(p *scene.Project, opts Options) (*Editor, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	if p == nil {
		p = &scene.Project{}
	}

	reg := link.New(logger)
	if opts.AnimationScope != "" {
		reg.AnimationScope = opts.AnimationScope
	}
	id := uuid.NewString()
	ed := &Editor{
		ID:        id,
		CreatedAt: time.Now(),
		project:   p.Clone(),
		registry:  reg,
		engine:    crossframe.New(reg, logger),
		logger:    logger.With("session", id[:8]),
	}
	if err := reg.Rebuild(ed.project.Frames); err != nil {
		return nil, err
	}
	ed.logger.Debug("editor opened", "frames", len(ed.project.Frames), "groups", reg.Len())
	return ed, nil
}

// Project returns a copy of the current project.
func (ed *Editor) Project() *scene.Project {
	ed.mu.Lock()
	defer ed.mu.Unlock()
	return ed.project.Clone()
}

// Frame returns a copy of one frame, or nil.
func (ed *Editor) Frame(id string) *scene.Frame {
	ed.mu.Lock()
	defer ed.mu.Unlock()
	f, _ := ed.project.Frames.Get(id)
	return f.Clone()
}

// Registry returns the editor's link registry. Callers must not mutate it
// while an editor operation is running. Refresh and failed link edits replace
// the registry, so callers should not hold on to it.
func (ed *Editor) Registry() *link.Registry {
	ed.mu.Lock()
	defer ed.mu.Unlock()
	return ed.registry
}

// Refresh rebuilds the registry from the current frames. When the frames'
// descriptors contradict each other the current registry is kept.
func (ed *Editor) Refresh() error {
	ed.mu.Lock()
	defer ed.mu.Unlock()
	return ed.rebuild()
}

// rebuild swaps in a registry built from the current frames, leaving the
// old one in place on error.
func (ed *Editor) rebuild() error {
	reg := link.New(ed.logger)
	reg.AnimationScope = ed.registry.AnimationScope
	if err := reg.Rebuild(ed.project.Frames); err != nil {
		return err
	}
	ed.registry = reg
	ed.engine = crossframe.New(reg, ed.logger)
	return nil
}

// restore brings the registry back in step with the unchanged frames after
// an edit failed partway through mutating it.
func (ed *Editor) restore(cause error) {
	if err := ed.rebuild(); err != nil {
		ed.logger.Error("registry restore failed", "cause", cause, "err", err)
		return
	}
	ed.logger.Warn("registry restored after failed edit", "err", cause)
}

// =============================================================================
// Edits
// =============================================================================

// SetVisibility shows or hides one layer in one frame without fan-out.
func (ed *Editor) SetVisibility(frameID, layerID string, visible bool) {
	ed.replaceFrame(frameID, layerID, func(f *scene.Frame) *scene.Frame {
		return ed.engine.SetVisibility(f, layerID, visible)
	})
}

// SyncVisibility shows or hides a layer and every eligible same-named layer.
func (ed *Editor) SyncVisibility(frameID, layerID string, visible bool) {
	ed.mu.Lock()
	defer ed.mu.Unlock()
	ed.project.Frames = ed.engine.SyncVisibility(layerID, frameID, ed.project.Frames, visible)
}

// SyncAnimation writes an animation definition to a layer and every
// eligible same-named layer.
func (ed *Editor) SyncAnimation(frameID, layerID string, anim scene.Animation) {
	ed.mu.Lock()
	defer ed.mu.Unlock()
	ed.project.Frames = ed.engine.SyncAnimationProperty(layerID, frameID, ed.project.Frames, anim)
}

// SetOverride marks or clears a layer's opt-out from stream in one frame.
func (ed *Editor) SetOverride(frameID, layerID string, stream scene.Stream, overridden bool) {
	ed.replaceFrame(frameID, layerID, func(f *scene.Frame) *scene.Frame {
		return ed.engine.SetOverride(f, layerID, stream, overridden)
	})
}

// ToggleLink locks or unlocks a layer in mode and returns the group id on
// lock. On error the project is left untouched and the registry is rebuilt
// from it.
func (ed *Editor) ToggleLink(frameID, layerID string, mode link.Mode) (string, error) {
	ed.mu.Lock()
	defer ed.mu.Unlock()
	frames, gid, err := ed.engine.ToggleLink(ed.project.Frames, frameID, layerID, mode)
	if err != nil {
		ed.restore(err)
		return "", err
	}
	ed.project.Frames = frames
	return gid, nil
}

// AutoLink links every qualifying same-named layer set in mode.
func (ed *Editor) AutoLink(mode link.Mode) error {
	ed.mu.Lock()
	defer ed.mu.Unlock()
	frames, err := ed.engine.AutoLink(ed.project.Frames, mode)
	if err != nil {
		ed.restore(err)
		return err
	}
	ed.project.Frames = frames
	return nil
}

func (ed *Editor) replaceFrame(frameID, layerID string, edit func(*scene.Frame) *scene.Frame) {
	ed.mu.Lock()
	defer ed.mu.Unlock()
	f, i := ed.project.Frames.Get(frameID)
	if f == nil {
		ed.logger.Warn("frame not found", "frame", frameID, "layer", layerID)
		return
	}
	ed.project.Frames[i] = edit(f)
}

// =============================================================================
// Queries
// =============================================================================

// LinkedLayers returns the layers linked to layerID in mode.
func (ed *Editor) LinkedLayers(layerID string, mode link.Mode) []string {
	ed.mu.Lock()
	defer ed.mu.Unlock()
	ed.registry.IndexFrames(ed.project.Frames)
	return ed.registry.GetLinkedLayers(layerID, mode)
}

// FrameOf returns the id of the frame holding layerID.
func (ed *Editor) FrameOf(layerID string) (string, bool) {
	ed.mu.Lock()
	defer ed.mu.Unlock()
	return ed.registry.FrameOf(layerID)
}

// Validate reports invariant violations for mode across the project's
// frames and the registry.
func (ed *Editor) Validate(mode link.Mode) []string {
	ed.mu.Lock()
	defer ed.mu.Unlock()
	return append(validate.Project(ed.project.Frames, mode), validate.Registry(ed.registry)...)
}
