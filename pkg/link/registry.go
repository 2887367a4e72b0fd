package link

import (
	"cmp"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/framelink/pkg/errors"
	"github.com/matzehuels/framelink/pkg/frameid"
	"github.com/matzehuels/framelink/pkg/nameindex"
	"github.com/matzehuels/framelink/pkg/scene"
)

// Registry stores link groups for both modes.
//
// Groups are the source of truth for membership. Two mode-segregated side
// indices sit beside them: group name → member layer ids, and sequence
// number → frame ids. The frame-level name index backs the GIF fallback in
// [Registry.GetLinkedLayers] and is refreshed by [Registry.IndexFrames].
type Registry struct {
	// AnimationScope bounds AutoLinkLayers in ModeAnimation. The zero value
	// is ScopeSize.
	AnimationScope Scope

	logger *log.Logger

	groups  map[string]*Group
	byLayer map[Mode]map[string]string
	names   map[Mode]map[string]scene.IDSet
	seqs    map[Mode]map[int][]string

	index   *nameindex.Index
	frameOf map[string]string
}

// New returns an empty registry. A nil logger means log.Default().
func New(logger *log.Logger) *Registry {
	if logger == nil {
		logger = log.Default()
	}
	r := &Registry{logger: logger}
	r.reset()
	return r
}

func (r *Registry) reset() {
	r.groups = make(map[string]*Group)
	r.byLayer = map[Mode]map[string]string{ModeAnimation: {}, ModeGIF: {}}
	r.names = map[Mode]map[string]scene.IDSet{ModeAnimation: {}, ModeGIF: {}}
	r.seqs = map[Mode]map[int][]string{ModeAnimation: {}, ModeGIF: {}}
	r.index = nil
	r.frameOf = make(map[string]string)
}

// =============================================================================
// Mutation
// =============================================================================

// CreateLinkGroup links layerIDs under a new group and returns its id.
//
// Fewer than two distinct ids is a no-op returning "". Members already in
// another group of the same mode move to the new one. mainLayerID becomes
// the main member when it is listed; otherwise the first id does.
func (r *Registry) CreateLinkGroup(name string, layerIDs []string, mode Mode, mainLayerID string) (string, error) {
	if !mode.Valid() {
		return "", errors.New(errors.ErrCodeInvalidMode, "unknown mode %q", mode)
	}
	ids := dedupe(layerIDs)
	if len(ids) < 2 {
		r.logger.Debug("link group needs two members", "name", name, "mode", mode, "members", len(ids))
		return "", nil
	}

	for _, id := range ids {
		if prev, ok := r.byLayer[mode][id]; ok {
			if _, err := r.RemoveLayerFromGroup(prev, id); err != nil {
				return "", err
			}
		}
	}

	g := &Group{
		ID:      mode.prefix() + uuid.NewString(),
		Name:    name,
		Mode:    mode,
		Members: ids,
		Main:    ids[0],
	}
	if slices.Contains(ids, mainLayerID) {
		g.Main = mainLayerID
	}
	r.groups[g.ID] = g
	for _, id := range ids {
		r.byLayer[mode][id] = g.ID
	}
	r.indexName(g, ids...)

	r.logger.Debug("link group created", "group", g.ID, "name", name, "members", len(ids))
	return g.ID, nil
}

// AddLayerToGroup adds layerID to groupID, first removing it from any other
// group of the same mode. It reports false when the group does not exist.
func (r *Registry) AddLayerToGroup(groupID, layerID string) (bool, error) {
	g, err := r.lookup(groupID)
	if err != nil || g == nil {
		return false, err
	}
	if g.Has(layerID) {
		return true, nil
	}
	if prev, ok := r.byLayer[g.Mode][layerID]; ok {
		if _, err := r.RemoveLayerFromGroup(prev, layerID); err != nil {
			return false, err
		}
	}
	g.Members = append(g.Members, layerID)
	if g.Main == "" {
		g.Main = layerID
	}
	r.byLayer[g.Mode][layerID] = g.ID
	r.indexName(g, layerID)
	return true, nil
}

// RemoveLayerFromGroup removes layerID from groupID, deleting the group once
// it is empty. If the main member leaves, the first remaining member takes
// over. Unknown groups and non-members report false.
func (r *Registry) RemoveLayerFromGroup(groupID, layerID string) (bool, error) {
	g, err := r.lookup(groupID)
	if err != nil || g == nil {
		return false, err
	}
	i := slices.Index(g.Members, layerID)
	if i < 0 {
		if r.byLayer[g.Mode][layerID] == g.ID {
			return false, errors.Internal("layer %s indexed under group %s but not a member", layerID, g.ID)
		}
		r.logger.Warn("layer not in group", "group", groupID, "layer", layerID)
		return false, nil
	}
	if r.byLayer[g.Mode][layerID] != g.ID {
		return false, errors.Internal("member %s of group %s missing from layer index", layerID, g.ID)
	}

	g.Members = slices.Delete(g.Members, i, i+1)
	delete(r.byLayer[g.Mode], layerID)
	if set := r.names[g.Mode][scene.NormalizeName(g.Name)]; set != nil {
		set.Remove(layerID)
		if len(set) == 0 {
			delete(r.names[g.Mode], scene.NormalizeName(g.Name))
		}
	}

	if len(g.Members) == 0 {
		delete(r.groups, g.ID)
		r.logger.Debug("link group deleted", "group", g.ID)
		return true, nil
	}
	if g.Main == layerID {
		g.Main = g.Members[0]
	}
	return true, nil
}

// SetMain makes layerID the main member of groupID. It reports false when
// the group does not exist or does not hold the layer.
func (r *Registry) SetMain(groupID, layerID string) (bool, error) {
	g, err := r.lookup(groupID)
	if err != nil || g == nil {
		return false, err
	}
	if !g.Has(layerID) {
		r.logger.Warn("layer not in group", "group", groupID, "layer", layerID)
		return false, nil
	}
	g.Main = layerID
	return true, nil
}

// lookup returns the live group or nil, checking that its stored mode agrees
// with its id.
func (r *Registry) lookup(groupID string) (*Group, error) {
	g, ok := r.groups[groupID]
	if !ok {
		r.logger.Warn("link group not found", "group", groupID)
		return nil, nil
	}
	if m, ok := ModeOf(groupID); !ok || m != g.Mode {
		return nil, errors.Internal("group %s stored under mode %s", groupID, g.Mode)
	}
	return g, nil
}

func (r *Registry) indexName(g *Group, ids ...string) {
	key := scene.NormalizeName(g.Name)
	set, ok := r.names[g.Mode][key]
	if !ok {
		set = make(scene.IDSet)
		r.names[g.Mode][key] = set
	}
	for _, id := range ids {
		set.Add(id)
	}
}

// =============================================================================
// Queries
// =============================================================================

// GetLayerGroup returns a copy of the layer's group in mode. A group that
// belongs to the other mode is reported as absent.
func (r *Registry) GetLayerGroup(layerID string, mode Mode) (*Group, bool) {
	gid, ok := r.byLayer[mode][layerID]
	if !ok {
		return nil, false
	}
	g, ok := r.groups[gid]
	if !ok || g.Mode != mode {
		return nil, false
	}
	if m, ok := ModeOf(gid); !ok || m != mode {
		return nil, false
	}
	return g.clone(), true
}

// Group returns a copy of the group with the given id.
func (r *Registry) Group(groupID string) (*Group, bool) {
	g, ok := r.groups[groupID]
	if !ok {
		return nil, false
	}
	return g.clone(), true
}

// Groups returns copies of every group in mode, sorted by id.
func (r *Registry) Groups(mode Mode) []*Group {
	var out []*Group
	for _, g := range r.groups {
		if g.Mode == mode {
			out = append(out, g.clone())
		}
	}
	slices.SortFunc(out, func(a, b *Group) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// Len returns the number of groups across both modes.
func (r *Registry) Len() int { return len(r.groups) }

// GetLinkedLayers returns the other members of the layer's group in mode.
//
// In ModeGIF, a layer with no group falls back to the frame name index: every
// same-named layer in a frame at the same sequence position but a different
// canvas size. The fallback needs a prior IndexFrames call.
func (r *Registry) GetLinkedLayers(layerID string, mode Mode) []string {
	if g, ok := r.GetLayerGroup(layerID, mode); ok {
		return g.Others(layerID)
	}
	if mode != ModeGIF {
		return nil
	}
	src, ok := r.frameOf[layerID]
	if !ok || !frameid.IsSlice(src) {
		return nil
	}
	var out []string
	for _, e := range r.index.LookupLinked(layerID, src) {
		if frameid.SameSequence(src, e.FrameID) && !frameid.SameSize(src, e.FrameID) {
			out = append(out, e.LayerID)
		}
	}
	return out
}

// LayersNamed returns the grouped layer ids carrying name in mode, sorted.
func (r *Registry) LayersNamed(name string, mode Mode) []string {
	return r.names[mode][scene.NormalizeName(name)].Sorted()
}

// FramesAt returns the frame ids at sequence position n in mode, as last
// indexed. Canvas-level frames have a single position, 0.
func (r *Registry) FramesAt(n int, mode Mode) []string {
	return slices.Clone(r.seqs[mode][n])
}

// FrameOf returns the id of the frame that held layerID when last indexed.
func (r *Registry) FrameOf(layerID string) (string, bool) {
	id, ok := r.frameOf[layerID]
	return id, ok
}

// NameIndex returns the frame name index from the last IndexFrames call,
// or nil before the first one.
func (r *Registry) NameIndex() *nameindex.Index { return r.index }

// IndexFrames rebuilds the derived indices from frames: the frame name
// index, layer → frame, and sequence number → frame ids. Groups are kept.
func (r *Registry) IndexFrames(frames scene.Frames) {
	r.index = nameindex.Build(frames)
	r.frameOf = make(map[string]string)
	r.seqs = map[Mode]map[int][]string{ModeAnimation: {}, ModeGIF: {}}
	for _, f := range frames {
		if p := frameid.Parse(f.ID); p.Valid {
			r.seqs[ModeGIF][p.Number] = append(r.seqs[ModeGIF][p.Number], f.ID)
		} else {
			r.seqs[ModeAnimation][0] = append(r.seqs[ModeAnimation][0], f.ID)
		}
		scene.Walk(f.Layers, func(l *scene.Layer, _ []*scene.Layer) bool {
			if _, seen := r.frameOf[l.ID]; !seen {
				r.frameOf[l.ID] = f.ID
			}
			return true
		})
	}
	r.logger.Debug("frames indexed", "frames", len(frames), "names", r.index.Len())
}

// =============================================================================
// Projection
// =============================================================================

// SyncLayerLinkStates returns a copy of layers whose link descriptors match
// the registry's membership in mode. Grouped layers get a descriptor (keeping
// any sync mode and overrides they already had for that group); layers whose
// descriptor names a group of mode that no longer holds them are unlinked.
// Descriptors belonging to the other mode are left alone.
func (r *Registry) SyncLayerLinkStates(layers []*scene.Layer, mode Mode) []*scene.Layer {
	out := scene.CloneLayers(layers)
	scene.Walk(out, func(l *scene.Layer, _ []*scene.Layer) bool {
		r.project(l, mode)
		return true
	})
	return out
}

func (r *Registry) project(l *scene.Layer, mode Mode) {
	if g, ok := r.GetLayerGroup(l.ID, mode); ok {
		d := &scene.LinkDescriptor{GroupID: g.ID}
		if l.Link != nil && l.Link.GroupID == g.ID {
			d = l.Link.Clone()
		}
		d.IsMain = g.Main == l.ID
		l.SetLink(d)
		return
	}
	if l.Link == nil {
		if l.Locked || l.Linked {
			l.ClearLink()
		}
		return
	}
	if m, ok := ModeOf(l.Link.GroupID); ok && m == mode {
		l.ClearLink()
	}
}

// =============================================================================
// Rebuild
// =============================================================================

// Rebuild discards every group and reconstructs them from the link
// descriptors found in frames, then reindexes frames. Descriptors with an
// unrecognized group id are skipped with a warning. A layer id claimed by
// two different groups of one mode is reported as corruption.
func (r *Registry) Rebuild(frames scene.Frames) error {
	r.reset()
	var order []string
	for _, f := range frames {
		var err error
		scene.Walk(f.Layers, func(l *scene.Layer, _ []*scene.Layer) bool {
			if l.Link == nil {
				return true
			}
			mode, ok := ModeOf(l.Link.GroupID)
			if !ok {
				r.logger.Warn("unrecognized group id", "frame", f.ID, "layer", l.ID, "group", l.Link.GroupID)
				return true
			}
			if prev, ok := r.byLayer[mode][l.ID]; ok && prev != l.Link.GroupID {
				err = errors.Internal("layer %s claimed by groups %s and %s", l.ID, prev, l.Link.GroupID)
				return false
			}
			g, ok := r.groups[l.Link.GroupID]
			if !ok {
				g = &Group{ID: l.Link.GroupID, Name: l.Name, Mode: mode}
				r.groups[g.ID] = g
				order = append(order, g.ID)
			}
			if g.Has(l.ID) {
				return true
			}
			g.Members = append(g.Members, l.ID)
			if l.Link.IsMain && g.Main == "" {
				g.Main = l.ID
			}
			r.byLayer[mode][l.ID] = g.ID
			r.indexName(g, l.ID)
			return true
		})
		if err != nil {
			return err
		}
	}
	for _, id := range order {
		if g := r.groups[id]; g.Main == "" {
			g.Main = g.Members[0]
		}
	}
	r.IndexFrames(frames)
	r.logger.Debug("registry rebuilt", "groups", len(r.groups))
	return nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
