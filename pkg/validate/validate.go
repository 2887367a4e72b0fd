// Package validate reports link and visibility invariant violations.
//
// Every check is read-only and returns human-readable strings, empty when
// the input is consistent. Checks are meant for tests and diagnostics, not
// for correcting state.
package validate

import (
	"fmt"
	"slices"

	"github.com/matzehuels/framelink/pkg/link"
	"github.com/matzehuels/framelink/pkg/scene"
	"github.com/matzehuels/framelink/pkg/visibility"
)

// Layers checks layer trees for mode:
//
//   - locked, linked and descriptor presence must all agree
//   - a descriptor's group id must belong to mode
//   - members of one group must share a name
//   - every group must have a main member
func Layers(layers []*scene.Layer, mode link.Mode) []string {
	var out []string
	type groupInfo struct {
		name    string
		first   string
		hasMain bool
	}
	groups := make(map[string]*groupInfo)
	var order []string

	scene.Walk(layers, func(l *scene.Layer, _ []*scene.Layer) bool {
		hasLink := l.Link != nil
		if l.Locked != hasLink || l.Linked != hasLink {
			out = append(out, fmt.Sprintf("layer %s (%q): locked=%t linked=%t descriptor=%t disagree",
				l.ID, l.Name, l.Locked, l.Linked, hasLink))
		}
		if !hasLink {
			return true
		}

		gid := l.Link.GroupID
		m, ok := link.ModeOf(gid)
		switch {
		case !ok:
			out = append(out, fmt.Sprintf("layer %s (%q): group id %q has no mode prefix", l.ID, l.Name, gid))
			return true
		case m != mode:
			out = append(out, fmt.Sprintf("layer %s (%q): group %s belongs to %s mode, validating %s",
				l.ID, l.Name, gid, m, mode))
			return true
		}

		g, seen := groups[gid]
		if !seen {
			g = &groupInfo{name: l.NormalizedName(), first: l.ID}
			groups[gid] = g
			order = append(order, gid)
		} else if g.name != l.NormalizedName() {
			out = append(out, fmt.Sprintf("group %s: member %s is named %q, member %s is named %q",
				gid, l.ID, l.Name, g.first, g.name))
		}
		if l.Link.IsMain {
			g.hasMain = true
		}
		return true
	})

	for _, gid := range order {
		if !groups[gid].hasMain {
			out = append(out, fmt.Sprintf("group %s: no main member", gid))
		}
	}
	return out
}

// Registry checks the registry's own groups in both modes: each must have a
// prefix matching its mode, at least one member, and a main member that
// belongs to it.
func Registry(r *link.Registry) []string {
	var out []string
	for _, mode := range link.Modes {
		for _, g := range r.Groups(mode) {
			if m, ok := link.ModeOf(g.ID); !ok || m != g.Mode {
				out = append(out, fmt.Sprintf("group %s: id prefix does not match mode %s", g.ID, g.Mode))
			}
			switch {
			case len(g.Members) == 0:
				out = append(out, fmt.Sprintf("group %s: no members", g.ID))
			case g.Main == "":
				out = append(out, fmt.Sprintf("group %s: no main member", g.ID))
			case !slices.Contains(g.Members, g.Main):
				out = append(out, fmt.Sprintf("group %s: main member %s is not a member", g.ID, g.Main))
			}
		}
	}
	return out
}

// Frames checks that every frame's hidden set and visible flags agree, and
// that no layer id is used in more than one frame.
func Frames(frames scene.Frames) []string {
	var out []string
	owner := make(map[string]string)
	for _, f := range frames {
		scene.Walk(f.Layers, func(l *scene.Layer, _ []*scene.Layer) bool {
			if prev, ok := owner[l.ID]; ok && prev != f.ID {
				out = append(out, fmt.Sprintf("layer %s used in frames %s and %s", l.ID, prev, f.ID))
			} else if !ok {
				owner[l.ID] = f.ID
			}
			return true
		})
		_, bad := visibility.Consistent(f)
		for _, id := range bad {
			l := f.Layer(id)
			out = append(out, fmt.Sprintf("frame %s: layer %s visible=%t but hidden=%t",
				f.ID, id, l.Visible, f.Hidden.Has(id)))
		}
	}
	return out
}

// Project runs Layers over the frames that link in mode, then Frames over
// every frame. Per-slice frames link in link.ModeGIF and canvas-level frames
// in link.ModeAnimation.
func Project(frames scene.Frames, mode link.Mode) []string {
	var roots []*scene.Layer
	for _, f := range frames {
		if link.ModeForFrame(f.ID) == mode {
			roots = append(roots, f.Layers...)
		}
	}
	return append(Layers(roots, mode), Frames(frames)...)
}
