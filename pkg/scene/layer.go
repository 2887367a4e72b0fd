package scene

import (
	"bytes"
	"encoding/json"
	"maps"
	"slices"
	"strings"
)

// Stream names one synchronized property of a layer. Visibility is one
// stream; each animation definition is another.
type Stream string

// StreamVisibility is the visibility stream.
const StreamVisibility Stream = "visibility"

const animationStreamPrefix = "animation:"

// AnimationStream returns the stream for the animation definition with the given id.
func AnimationStream(animationID string) Stream {
	return Stream(animationStreamPrefix + animationID)
}

// IsAnimation reports whether s is an animation stream.
func (s Stream) IsAnimation() bool { return strings.HasPrefix(string(s), animationStreamPrefix) }

// SyncMode controls which inbound streams a linked layer accepts.
type SyncMode string

const (
	// SyncAll accepts every stream. The empty SyncMode means SyncAll.
	SyncAll SyncMode = "all"
	// SyncNone accepts nothing; the layer stays in its group for membership only.
	SyncNone SyncMode = "none"
	// SyncCustom accepts only the streams listed in LinkDescriptor.Streams.
	SyncCustom SyncMode = "custom"
)

// LinkDescriptor is present on a layer exactly when the layer is locked
// into a link group.
type LinkDescriptor struct {
	GroupID   string          `json:"group_id"`
	SyncMode  SyncMode        `json:"sync_mode,omitempty"`
	Streams   []Stream        `json:"streams,omitempty"`
	IsMain    bool            `json:"is_main,omitempty"`
	Overrides map[Stream]bool `json:"overrides,omitempty"`
}

// Accepts reports whether the descriptor's sync mode lets stream s in.
// Overrides are checked separately.
func (d *LinkDescriptor) Accepts(s Stream) bool {
	if d == nil {
		return true
	}
	switch d.SyncMode {
	case SyncNone:
		return false
	case SyncCustom:
		return slices.Contains(d.Streams, s)
	default:
		return true
	}
}

// Overridden reports whether the descriptor marks stream s as overridden.
func (d *LinkDescriptor) Overridden(s Stream) bool {
	return d != nil && d.Overrides[s]
}

// Clone returns a deep copy, or nil for nil.
func (d *LinkDescriptor) Clone() *LinkDescriptor {
	if d == nil {
		return nil
	}
	c := *d
	c.Streams = slices.Clone(d.Streams)
	c.Overrides = maps.Clone(d.Overrides)
	return &c
}

// Animation is an opaque animation definition. The engine only moves
// definitions between layers by ID; it never interprets Definition.
type Animation struct {
	ID         string          `json:"id"`
	Name       string          `json:"name,omitempty"`
	Definition json.RawMessage `json:"definition,omitempty"`
}

// Equal reports whether two definitions are identical.
func (a Animation) Equal(b Animation) bool {
	return a.ID == b.ID && a.Name == b.Name && bytes.Equal(a.Definition, b.Definition)
}

// Layer is a node in a frame's layer tree. A layer with children is a container.
type Layer struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Visible bool   `json:"visible"`
	Locked  bool   `json:"locked,omitempty"`
	Linked  bool   `json:"linked,omitempty"`

	// Expanded is owned by the presentation layer. The engine reads it to
	// decide whether visibility cascades into a container's children.
	Expanded bool `json:"expanded,omitempty"`

	Link       *LinkDescriptor `json:"link,omitempty"`
	Animations []Animation     `json:"animations,omitempty"`
	Children   []*Layer        `json:"children,omitempty"`
}

// IsContainer reports whether the layer has children.
func (l *Layer) IsContainer() bool { return len(l.Children) > 0 }

// NormalizedName is the key used for all name matching.
func (l *Layer) NormalizedName() string { return NormalizeName(l.Name) }

// Clone returns a deep copy of the layer and its subtree.
func (l *Layer) Clone() *Layer {
	if l == nil {
		return nil
	}
	c := *l
	c.Link = l.Link.Clone()
	if l.Animations != nil {
		c.Animations = make([]Animation, len(l.Animations))
		for i, a := range l.Animations {
			a.Definition = bytes.Clone(a.Definition)
			c.Animations[i] = a
		}
	}
	c.Children = CloneLayers(l.Children)
	return &c
}

// ClearLink drops the link descriptor and both link flags together.
func (l *Layer) ClearLink() {
	l.Link = nil
	l.Locked = false
	l.Linked = false
}

// SetLink attaches d and raises both link flags together.
func (l *Layer) SetLink(d *LinkDescriptor) {
	l.Link = d
	l.Locked = true
	l.Linked = true
}

// UpsertAnimation replaces the animation with a's ID, or appends it.
// It reports whether the list changed.
func (l *Layer) UpsertAnimation(a Animation) bool {
	for i, existing := range l.Animations {
		if existing.ID == a.ID {
			if existing.Equal(a) {
				return false
			}
			a.Definition = bytes.Clone(a.Definition)
			l.Animations[i] = a
			return true
		}
	}
	a.Definition = bytes.Clone(a.Definition)
	l.Animations = append(l.Animations, a)
	return true
}

// CloneLayers deep-copies a slice of layer trees.
func CloneLayers(layers []*Layer) []*Layer {
	if layers == nil {
		return nil
	}
	out := make([]*Layer, len(layers))
	for i, l := range layers {
		out[i] = l.Clone()
	}
	return out
}

// NormalizeName lower-cases a layer name. Display names keep their case.
func NormalizeName(name string) string { return strings.ToLower(name) }
