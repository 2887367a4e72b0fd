// Package nameindex maps normalized layer names to the layer carrying that
// name in each frame.
//
// The index is rebuilt wholesale from the frames before each use rather than
// maintained incrementally. A rebuild walks every layer once, which is cheap
// at the few hundred layers a project holds and cannot go stale.
package nameindex

import (
	"cmp"
	"slices"

	"github.com/matzehuels/framelink/pkg/scene"
)

// Entry locates one layer in one frame.
type Entry struct {
	FrameID string `json:"frame_id"`
	LayerID string `json:"layer_id"`
}

// Index maps normalized name → frame id → layer id.
//
// When a frame holds several layers with the same name, the first one in
// pre-order wins.
type Index struct {
	byName map[string]map[string]string
}

// Build indexes every layer of every frame, nested children included.
func Build(frames scene.Frames) *Index {
	idx := &Index{byName: make(map[string]map[string]string)}
	for _, f := range frames {
		scene.Walk(f.Layers, func(l *scene.Layer, _ []*scene.Layer) bool {
			key := l.NormalizedName()
			byFrame, ok := idx.byName[key]
			if !ok {
				byFrame = make(map[string]string)
				idx.byName[key] = byFrame
			}
			if _, seen := byFrame[f.ID]; !seen {
				byFrame[f.ID] = l.ID
			}
			return true
		})
	}
	return idx
}

// Len returns the number of distinct names.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.byName)
}

// Frames returns frame id → layer id for a name, or nil.
func (idx *Index) Frames(name string) map[string]string {
	if idx == nil {
		return nil
	}
	return idx.byName[scene.NormalizeName(name)]
}

// NameOf resolves a layer's normalized name by reverse scan. When frameID is
// empty any frame matches.
func (idx *Index) NameOf(layerID, frameID string) (string, bool) {
	if idx == nil {
		return "", false
	}
	for name, byFrame := range idx.byName {
		for fid, lid := range byFrame {
			if lid == layerID && (frameID == "" || fid == frameID) {
				return name, true
			}
		}
	}
	return "", false
}

// LookupLinked returns every other entry sharing the source layer's name,
// sorted by frame id. It returns nil when the source is not indexed.
func (idx *Index) LookupLinked(layerID, sourceFrameID string) []Entry {
	name, ok := idx.NameOf(layerID, sourceFrameID)
	if !ok {
		return nil
	}
	var out []Entry
	for fid, lid := range idx.byName[name] {
		if fid == sourceFrameID && lid == layerID {
			continue
		}
		out = append(out, Entry{FrameID: fid, LayerID: lid})
	}
	slices.SortFunc(out, func(a, b Entry) int { return cmp.Compare(a.FrameID, b.FrameID) })
	return out
}
