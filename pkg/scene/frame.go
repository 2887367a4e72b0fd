package scene

import (
	"maps"
	"slices"

	"github.com/google/uuid"

	"github.com/matzehuels/framelink/pkg/frameid"
)

// Frame is one displayable slice or size variant of the creative.
//
// The zero value is usable; nil maps are created on first write.
type Frame struct {
	ID     string   `json:"id"`
	SizeID string   `json:"size_id,omitempty"`
	Layers []*Layer `json:"layers"`

	// Hidden holds the ids of layers not shown in this frame. For every
	// reachable layer l: Hidden.Has(l.ID) == !l.Visible.
	Hidden IDSet `json:"hidden"`

	// Overrides maps layer id to the streams that layer has opted out of.
	Overrides map[string]map[Stream]bool `json:"overrides,omitempty"`

	// VisibleCount is a read model for previews; see Recount.
	VisibleCount int `json:"visible_count"`
}

// IsSlice reports whether the frame id parses as a per-slice frame.
func (f *Frame) IsSlice() bool { return frameid.IsSlice(f.ID) }

// Size returns the canvas size id. SizeID wins when set; otherwise it is
// taken from the frame id.
func (f *Frame) Size() string {
	if f.SizeID != "" {
		return f.SizeID
	}
	if p := frameid.Parse(f.ID); p.Valid {
		return p.SizeID
	}
	return f.ID
}

// Layer returns the layer with the given id anywhere in the tree, or nil.
func (f *Frame) Layer(id string) *Layer { return Find(f.Layers, id) }

// IsOverridden reports whether the layer opted out of stream s in this
// frame, either through the frame's override map or its link descriptor.
func (f *Frame) IsOverridden(layerID string, s Stream) bool {
	if f.Overrides[layerID][s] {
		return true
	}
	if l := f.Layer(layerID); l != nil {
		return l.Link.Overridden(s)
	}
	return false
}

// Accepts reports whether the layer takes inbound stream s: it must not be
// overridden and its sync mode must allow s.
func (f *Frame) Accepts(l *Layer, s Stream) bool {
	if f.Overrides[l.ID][s] || l.Link.Overridden(s) {
		return false
	}
	return l.Link.Accepts(s)
}

// Recount refreshes VisibleCount from the layer tree.
func (f *Frame) Recount() {
	f.VisibleCount = Count(f.Layers, func(l *Layer) bool { return l.Visible })
}

// Clone returns a deep copy of the frame.
func (f *Frame) Clone() *Frame {
	if f == nil {
		return nil
	}
	c := *f
	c.Layers = CloneLayers(f.Layers)
	c.Hidden = f.Hidden.Clone()
	if f.Overrides != nil {
		c.Overrides = make(map[string]map[Stream]bool, len(f.Overrides))
		for id, streams := range f.Overrides {
			c.Overrides[id] = maps.Clone(streams)
		}
	}
	return &c
}

// SyncHiddenFromFlags rebuilds Hidden from the visible flags. It is meant
// for freshly loaded or constructed frames, not for edits.
func (f *Frame) SyncHiddenFromFlags() {
	f.Hidden = make(IDSet)
	Walk(f.Layers, func(l *Layer, _ []*Layer) bool {
		if !l.Visible {
			f.Hidden.Add(l.ID)
		}
		return true
	})
	f.Recount()
}

// NewSliceFrame clones a canvas-level frame's tree into per-slice frame n of
// the same size. Layers get fresh ids and lose any link state, since link
// groups never cross the mode boundary.
func NewSliceFrame(canvas *Frame, n int) *Frame {
	layers := CloneLayers(canvas.Layers)
	Walk(layers, func(l *Layer, _ []*Layer) bool {
		l.ID = uuid.NewString()
		l.ClearLink()
		return true
	})
	size := canvas.Size()
	f := &Frame{
		ID:     frameid.Build(size, n),
		SizeID: size,
		Layers: layers,
	}
	f.SyncHiddenFromFlags()
	return f
}

// Frames is the full frame collection an engine call operates on.
type Frames []*Frame

// Clone deep-copies every frame.
func (fs Frames) Clone() Frames {
	if fs == nil {
		return nil
	}
	out := make(Frames, len(fs))
	for i, f := range fs {
		out[i] = f.Clone()
	}
	return out
}

// Get returns the frame with the given id and its index, or nil and -1.
func (fs Frames) Get(id string) (*Frame, int) {
	for i, f := range fs {
		if f.ID == id {
			return f, i
		}
	}
	return nil, -1
}

// Locate returns the first frame containing the layer, with the layer.
func (fs Frames) Locate(layerID string) (*Frame, *Layer) {
	for _, f := range fs {
		if l := f.Layer(layerID); l != nil {
			return f, l
		}
	}
	return nil, nil
}

// BySize groups frames by canvas size, keeping input order within a size.
func (fs Frames) BySize() map[string]Frames {
	out := make(map[string]Frames)
	for _, f := range fs {
		out[f.Size()] = append(out[f.Size()], f)
	}
	return out
}

// Slices returns only per-slice frames.
func (fs Frames) Slices() Frames {
	var out Frames
	for _, f := range fs {
		if f.IsSlice() {
			out = append(out, f)
		}
	}
	return out
}

// Canvases returns only canvas-level frames.
func (fs Frames) Canvases() Frames {
	var out Frames
	for _, f := range fs {
		if !f.IsSlice() {
			out = append(out, f)
		}
	}
	return out
}

// AdSize is one output pixel footprint and the ordered frame ids it owns.
type AdSize struct {
	ID       string   `json:"id"`
	Width    int      `json:"width"`
	Height   int      `json:"height"`
	FrameIDs []string `json:"frame_ids,omitempty"`
}

// Project is the whole editing document seen by the engine.
type Project struct {
	Sizes  []AdSize `json:"sizes,omitempty"`
	Frames Frames   `json:"frames"`
}

// Clone deep-copies the project.
func (p *Project) Clone() *Project {
	if p == nil {
		return nil
	}
	c := &Project{Frames: p.Frames.Clone()}
	if p.Sizes != nil {
		c.Sizes = make([]AdSize, len(p.Sizes))
		for i, s := range p.Sizes {
			s.FrameIDs = slices.Clone(s.FrameIDs)
			c.Sizes[i] = s
		}
	}
	return c
}
