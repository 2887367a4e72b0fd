package link

import (
	"slices"

	"github.com/matzehuels/framelink/pkg/frameid"
	"github.com/matzehuels/framelink/pkg/scene"
)

type candidate struct {
	size    string
	layerID string
	name    string
}

// autoKey identifies one bucket of layers that should share a group.
type autoKey struct {
	name string
	size string // set only for size-scoped Animation linking
	seq  int
}

// AutoLinkLayers links every same-named layer set that qualifies in mode and
// returns copies of the frames with link descriptors projected.
//
// In ModeGIF a name qualifies at one sequence position when it appears in at
// least two canvas sizes there; layers at different positions are never
// linked to each other. In ModeAnimation a name qualifies when at least two
// canvas-level layers carry it within one size, or across the whole project
// when AnimationScope is ScopeProject.
//
// A bucket whose layers already share a group extends that group; otherwise
// a new group is created.
func (r *Registry) AutoLinkLayers(framesBySize map[string]scene.Frames, mode Mode) (map[string]scene.Frames, error) {
	sizes := make([]string, 0, len(framesBySize))
	for s := range framesBySize {
		sizes = append(sizes, s)
	}
	slices.Sort(sizes)

	var all scene.Frames
	for _, s := range sizes {
		all = append(all, framesBySize[s]...)
	}
	if err := r.autoLink(all, mode); err != nil {
		return nil, err
	}

	out := make(map[string]scene.Frames, len(framesBySize))
	for _, s := range sizes {
		out[s] = r.projectFrames(framesBySize[s], mode)
	}
	var projected scene.Frames
	for _, s := range sizes {
		projected = append(projected, out[s]...)
	}
	r.IndexFrames(projected)
	return out, nil
}

// AutoLinkFrames is AutoLinkLayers over a flat frame list. Frame order is kept.
func (r *Registry) AutoLinkFrames(frames scene.Frames, mode Mode) (scene.Frames, error) {
	if err := r.autoLink(frames, mode); err != nil {
		return nil, err
	}
	out := r.projectFrames(frames, mode)
	r.IndexFrames(out)
	return out, nil
}

func (r *Registry) projectFrames(frames scene.Frames, mode Mode) scene.Frames {
	out := make(scene.Frames, len(frames))
	for i, f := range frames {
		c := f.Clone()
		c.Layers = r.SyncLayerLinkStates(f.Layers, mode)
		out[i] = c
	}
	return out
}

func (r *Registry) autoLink(frames scene.Frames, mode Mode) error {
	buckets := make(map[autoKey][]candidate)
	var order []autoKey

	for _, f := range frames {
		p := frameid.Parse(f.ID)
		if p.Valid != (mode == ModeGIF) {
			continue
		}
		size := f.Size()
		if p.Valid {
			size = p.SizeID
		}
		scene.Walk(f.Layers, func(l *scene.Layer, _ []*scene.Layer) bool {
			k := autoKey{name: l.NormalizedName()}
			switch {
			case mode == ModeGIF:
				k.seq = p.Number
			case r.AnimationScope != ScopeProject:
				k.size = size
			}
			if _, ok := buckets[k]; !ok {
				order = append(order, k)
			}
			buckets[k] = append(buckets[k], candidate{size: size, layerID: l.ID, name: l.Name})
			return true
		})
	}

	for _, k := range order {
		cs := buckets[k]
		if !qualifies(cs, mode) {
			continue
		}
		ids := make([]string, len(cs))
		for i, c := range cs {
			ids[i] = c.layerID
		}
		if err := r.linkBucket(cs[0].name, ids, mode); err != nil {
			return err
		}
	}
	return nil
}

func qualifies(cs []candidate, mode Mode) bool {
	if len(cs) < 2 {
		return false
	}
	if mode != ModeGIF {
		return true
	}
	for _, c := range cs[1:] {
		if c.size != cs[0].size {
			return true
		}
	}
	return false
}

// linkBucket extends a group already confined to ids, or creates one.
func (r *Registry) linkBucket(name string, ids []string, mode Mode) error {
	for _, id := range ids {
		g, ok := r.GetLayerGroup(id, mode)
		if !ok || !within(g.Members, ids) {
			continue
		}
		for _, m := range ids {
			if _, err := r.AddLayerToGroup(g.ID, m); err != nil {
				return err
			}
		}
		return nil
	}
	_, err := r.CreateLinkGroup(name, ids, mode, "")
	return err
}

func within(members, ids []string) bool {
	for _, m := range members {
		if !slices.Contains(ids, m) {
			return false
		}
	}
	return true
}
