package crossframe

import (
	"encoding/json"
	"io"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/framelink/pkg/link"
	"github.com/matzehuels/framelink/pkg/observability"
	"github.com/matzehuels/framelink/pkg/scene"
	"github.com/matzehuels/framelink/pkg/visibility"
)

func quietEngine() *Engine {
	logger := log.New(io.Discard)
	return New(link.New(logger), logger)
}

func newFrame(id string, layers ...*scene.Layer) *scene.Frame {
	f := &scene.Frame{ID: id, Layers: layers}
	f.SyncHiddenFromFlags()
	return f
}

// fanOutFrames builds sizes A (300x250) and B (728x90), each with slice
// frames 1 and 2 holding a "Logo" layer and a "Copy" layer.
func fanOutFrames() scene.Frames {
	var fs scene.Frames
	for _, size := range []string{"A", "B"} {
		for _, n := range []string{"1", "2"} {
			fs = append(fs, newFrame(size+"_frame_"+n,
				&scene.Layer{ID: "logo-" + size + n, Name: "Logo", Visible: true},
				&scene.Layer{ID: "copy-" + size + n, Name: "Copy", Visible: true},
			))
		}
	}
	return fs
}

func get(t *testing.T, fs scene.Frames, id string) *scene.Frame {
	t.Helper()
	f, _ := fs.Get(id)
	if f == nil {
		t.Fatalf("frame %s missing", id)
	}
	return f
}

func assertAllConsistent(t *testing.T, fs scene.Frames) {
	t.Helper()
	for _, f := range fs {
		if ok, bad := visibility.Consistent(f); !ok {
			t.Errorf("frame %s: hidden set disagrees for %v", f.ID, bad)
		}
	}
}

func TestEligible(t *testing.T) {
	tests := []struct {
		src, dst string
		want     bool
	}{
		{"A_frame_1", "B_frame_1", true},
		{"A_frame_1", "A_frame_2", false},
		{"A_frame_1", "B_frame_2", false},
		{"A_frame_1", "A_frame_1", false},
		{"A", "B", true},
		{"A", "A", false},
		{"A", "A_frame_1", false},
		{"A_frame_1", "B", false},
	}
	for _, tt := range tests {
		if got := Eligible(tt.src, tt.dst); got != tt.want {
			t.Errorf("Eligible(%q, %q) = %v, want %v", tt.src, tt.dst, got, tt.want)
		}
	}
}

func TestSyncVisibilityFanOut(t *testing.T) {
	e := quietEngine()
	in := fanOutFrames()

	out := e.SyncVisibility("logo-A1", "A_frame_1", in, false)

	if get(t, out, "A_frame_1").Layer("logo-A1").Visible {
		t.Error("source layer still visible")
	}
	b1 := get(t, out, "B_frame_1")
	if b1.Layer("logo-B1").Visible || !b1.Hidden.Has("logo-B1") {
		t.Error("Logo in B1 should be hidden")
	}
	for _, id := range []string{"A_frame_2", "B_frame_2"} {
		before, _ := in.Get(id)
		if !reflect.DeepEqual(get(t, out, id), before) {
			t.Errorf("frame %s changed", id)
		}
	}
	if !b1.Layer("copy-B1").Visible {
		t.Error("unrelated layer changed")
	}
	assertAllConsistent(t, out)
}

func TestSyncVisibilitySameSizeExclusion(t *testing.T) {
	e := quietEngine()
	in := fanOutFrames()

	out := e.SyncVisibility("logo-A1", "A_frame_1", in, false)

	a2 := get(t, out, "A_frame_2")
	if !a2.Layer("logo-A2").Visible || a2.Hidden.Has("logo-A2") {
		t.Error("same-size frame A2 was synchronized")
	}
}

func TestSyncVisibilityOverrideIndependence(t *testing.T) {
	e := quietEngine()
	in := fanOutFrames()
	in = append(in, newFrame("C_frame_1", &scene.Layer{ID: "logo-C1", Name: "logo", Visible: true}))
	b1, i := in.Get("B_frame_1")
	in[i] = e.SetOverride(b1, "logo-B1", scene.StreamVisibility, true)

	out := e.SyncVisibility("logo-A1", "A_frame_1", in, false)

	got := get(t, out, "B_frame_1")
	if !got.Layer("logo-B1").Visible || got.Hidden.Has("logo-B1") {
		t.Error("overridden Logo in B1 was changed")
	}
	c1 := get(t, out, "C_frame_1")
	if c1.Layer("logo-C1").Visible {
		t.Error("other eligible frame C1 should still be updated")
	}
	assertAllConsistent(t, out)
}

func TestSyncVisibilityRespectsSyncMode(t *testing.T) {
	e := quietEngine()
	in := fanOutFrames()
	l := get(t, in, "B_frame_1").Layer("logo-B1")
	l.SetLink(&scene.LinkDescriptor{GroupID: "gif_x", SyncMode: scene.SyncCustom, Streams: []scene.Stream{scene.AnimationStream("fade")}})

	out := e.SyncVisibility("logo-A1", "A_frame_1", in, false)

	if !get(t, out, "B_frame_1").Layer("logo-B1").Visible {
		t.Error("layer syncing only animation accepted visibility")
	}
}

func TestSyncVisibilityAllNameMatches(t *testing.T) {
	e := quietEngine()
	in := scene.Frames{
		newFrame("A_frame_1", &scene.Layer{ID: "src", Name: "Logo", Visible: true}),
		newFrame("B_frame_1",
			&scene.Layer{ID: "grp", Name: "Group", Visible: true, Expanded: true, Children: []*scene.Layer{
				{ID: "nested", Name: "LOGO", Visible: true},
			}},
			&scene.Layer{ID: "top", Name: "Logo", Visible: true},
		),
	}

	out := e.SyncVisibility("src", "A_frame_1", in, false)

	b1 := get(t, out, "B_frame_1")
	for _, id := range []string{"nested", "top"} {
		if b1.Layer(id).Visible {
			t.Errorf("%s should be hidden", id)
		}
	}
	if !b1.Layer("grp").Visible {
		t.Error("expanded container should stay visible")
	}
	assertAllConsistent(t, out)
}

func TestSyncVisibilityCanvasFrames(t *testing.T) {
	e := quietEngine()
	e.Registry().AnimationScope = link.ScopeSize
	in := scene.Frames{
		newFrame("A", &scene.Layer{ID: "a", Name: "Logo", Visible: true}),
		newFrame("B", &scene.Layer{ID: "b", Name: "Logo", Visible: true}),
		newFrame("A_frame_1", &scene.Layer{ID: "s", Name: "Logo", Visible: true}),
	}

	out := e.SyncVisibility("a", "A", in, false)

	if get(t, out, "B").Layer("b").Visible {
		t.Error("canvas frame B should follow canvas frame A under size scope")
	}
	if !get(t, out, "A_frame_1").Layer("s").Visible {
		t.Error("slice frame must not follow a canvas frame")
	}
}

func TestSyncVisibilityVisibleCount(t *testing.T) {
	e := quietEngine()

	out := e.SyncVisibility("logo-A1", "A_frame_1", fanOutFrames(), false)

	want := map[string]int{"A_frame_1": 1, "B_frame_1": 1, "A_frame_2": 2, "B_frame_2": 2}
	for id, n := range want {
		if got := get(t, out, id).VisibleCount; got != n {
			t.Errorf("%s VisibleCount = %d, want %d", id, got, n)
		}
	}
}

func TestSyncVisibilityNotFound(t *testing.T) {
	e := quietEngine()
	in := fanOutFrames()

	for _, tc := range []struct{ layer, frame string }{
		{"missing", "A_frame_1"},
		{"logo-A1", "missing"},
		{"logo-B1", "A_frame_1"},
	} {
		out := e.SyncVisibility(tc.layer, tc.frame, in, false)
		if !reflect.DeepEqual(out, in) {
			t.Errorf("SyncVisibility(%s, %s) changed frames", tc.layer, tc.frame)
		}
	}
}

func TestSyncVisibilityIsPure(t *testing.T) {
	e := quietEngine()
	in := fanOutFrames()
	before := in.Clone()

	_ = e.SyncVisibility("logo-A1", "A_frame_1", in, false)

	if !reflect.DeepEqual(in, before) {
		t.Error("SyncVisibility mutated its input")
	}
}

func TestSyncAnimationProperty(t *testing.T) {
	e := quietEngine()
	in := fanOutFrames()
	get(t, in, "B_frame_1").Layer("logo-B1").Animations = []scene.Animation{
		{ID: "fade", Definition: json.RawMessage(`{"ms":100}`)},
		{ID: "spin", Definition: json.RawMessage(`{"deg":90}`)},
	}
	anim := scene.Animation{ID: "fade", Name: "Fade", Definition: json.RawMessage(`{"ms":250}`)}

	out := e.SyncAnimationProperty("logo-A1", "A_frame_1", in, anim)

	src := get(t, out, "A_frame_1").Layer("logo-A1")
	if len(src.Animations) != 1 || !src.Animations[0].Equal(anim) {
		t.Errorf("source animations = %+v", src.Animations)
	}
	b1 := get(t, out, "B_frame_1").Layer("logo-B1")
	if len(b1.Animations) != 2 || !b1.Animations[0].Equal(anim) || b1.Animations[1].ID != "spin" {
		t.Errorf("B1 animations = %+v, want fade replaced in place", b1.Animations)
	}
	if a2 := get(t, out, "A_frame_2").Layer("logo-A2"); len(a2.Animations) != 0 {
		t.Error("same-size frame received the animation")
	}
}

func TestSyncAnimationPropertyOverride(t *testing.T) {
	e := quietEngine()
	in := fanOutFrames()
	b1, i := in.Get("B_frame_1")
	in[i] = e.SetOverride(b1, "logo-B1", scene.AnimationStream("fade"), true)

	out := e.SyncAnimationProperty("logo-A1", "A_frame_1", in, scene.Animation{ID: "fade"})
	if got := get(t, out, "B_frame_1").Layer("logo-B1").Animations; len(got) != 0 {
		t.Errorf("overridden layer received %v", got)
	}

	out = e.SyncAnimationProperty("logo-A1", "A_frame_1", in, scene.Animation{ID: "spin"})
	if got := get(t, out, "B_frame_1").Layer("logo-B1").Animations; len(got) != 1 {
		t.Errorf("override on fade blocked spin: %v", got)
	}
}

func TestSetOverride(t *testing.T) {
	e := quietEngine()
	f := newFrame("A_frame_1", &scene.Layer{ID: "l", Name: "Logo", Visible: true})
	f.Layers[0].SetLink(&scene.LinkDescriptor{GroupID: "gif_x"})

	on := e.SetOverride(f, "l", scene.StreamVisibility, true)
	if !on.Overrides["l"][scene.StreamVisibility] {
		t.Error("frame override not recorded")
	}
	if !on.Layers[0].Link.Overridden(scene.StreamVisibility) {
		t.Error("descriptor override not recorded")
	}
	if !on.IsOverridden("l", scene.StreamVisibility) {
		t.Error("IsOverridden() = false")
	}
	if on.Layers[0].Link.GroupID != "gif_x" {
		t.Error("override dropped group membership")
	}
	if f.Overrides != nil {
		t.Error("SetOverride mutated its input")
	}

	off := e.SetOverride(on, "l", scene.StreamVisibility, false)
	if off.IsOverridden("l", scene.StreamVisibility) || off.Overrides != nil || off.Layers[0].Link.Overrides != nil {
		t.Errorf("override not cleared: %+v %+v", off.Overrides, off.Layers[0].Link)
	}

	same := e.SetOverride(f, "missing", scene.StreamVisibility, true)
	if !reflect.DeepEqual(same, f) {
		t.Error("unknown layer changed the frame")
	}
}

func TestToggleLinkModeIsolation(t *testing.T) {
	e := quietEngine()

	out, gid, err := e.ToggleLink(fanOutFrames(), "A_frame_1", "logo-A1", link.ModeGIF)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(gid, "gif_") {
		t.Fatalf("group id = %q", gid)
	}
	if got := e.Registry().GetLinkedLayers("logo-A1", link.ModeAnimation); len(got) != 0 {
		t.Errorf("GetLinkedLayers(animation) = %v, want none", got)
	}
	if got := e.Registry().GetLinkedLayers("logo-A1", link.ModeGIF); !reflect.DeepEqual(got, []string{"logo-B1"}) {
		t.Errorf("GetLinkedLayers(gif) = %v, want [logo-B1]", got)
	}

	src := get(t, out, "A_frame_1").Layer("logo-A1")
	if src.Link == nil || !src.Link.IsMain || !src.Locked || !src.Linked {
		t.Errorf("source descriptor = %+v", src.Link)
	}
	b1 := get(t, out, "B_frame_1").Layer("logo-B1")
	if b1.Link == nil || b1.Link.GroupID != gid || b1.Link.IsMain {
		t.Errorf("B1 descriptor = %+v", b1.Link)
	}
	if a2 := get(t, out, "A_frame_2").Layer("logo-A2"); a2.Link != nil {
		t.Error("layer at another sequence position was linked")
	}
}

func TestToggleLinkUnlock(t *testing.T) {
	e := quietEngine()
	locked, gid, _ := e.ToggleLink(fanOutFrames(), "A_frame_1", "logo-A1", link.ModeGIF)

	out, none, err := e.ToggleLink(locked, "A_frame_1", "logo-A1", link.ModeGIF)
	if err != nil || none != "" {
		t.Fatalf("unlock = %q, %v", none, err)
	}
	src := get(t, out, "A_frame_1").Layer("logo-A1")
	if src.Link != nil || src.Locked || src.Linked {
		t.Errorf("source still linked: %+v", src)
	}
	g, ok := e.Registry().Group(gid)
	if !ok || g.Main != "logo-B1" {
		t.Errorf("remaining group = %+v, %v", g, ok)
	}
	if b1 := get(t, out, "B_frame_1").Layer("logo-B1"); b1.Link == nil || !b1.Link.IsMain {
		t.Errorf("B1 should now be main: %+v", b1.Link)
	}

	out, _, _ = e.ToggleLink(out, "B_frame_1", "logo-B1", link.ModeGIF)
	if _, ok := e.Registry().Group(gid); ok {
		t.Error("empty group survived")
	}
	if b1 := get(t, out, "B_frame_1").Layer("logo-B1"); b1.Link != nil {
		t.Error("B1 still linked")
	}
}

func TestToggleLinkExtendsGroup(t *testing.T) {
	e := quietEngine()
	fs := fanOutFrames()
	out, gid, _ := e.ToggleLink(fs, "A_frame_1", "logo-A1", link.ModeGIF)

	out = append(out, newFrame("C_frame_1", &scene.Layer{ID: "logo-C1", Name: "Logo", Visible: true}))
	out, again, err := e.ToggleLink(out, "C_frame_1", "logo-C1", link.ModeGIF)
	if err != nil {
		t.Fatal(err)
	}
	if again != gid {
		t.Errorf("second lock created %s, want existing %s", again, gid)
	}
	g, _ := e.Registry().Group(gid)
	if len(g.Members) != 3 || g.Main != "logo-C1" {
		t.Errorf("group = %+v", g)
	}
	if a1 := get(t, out, "A_frame_1").Layer("logo-A1"); a1.Link.IsMain {
		t.Error("old main kept IsMain")
	}
}

func TestToggleLinkWrongMode(t *testing.T) {
	e := quietEngine()
	in := fanOutFrames()

	out, gid, err := e.ToggleLink(in, "A_frame_1", "logo-A1", link.ModeAnimation)
	if err != nil || gid != "" {
		t.Errorf("ToggleLink() = %q, %v", gid, err)
	}
	if !reflect.DeepEqual(out, in) {
		t.Error("mode mismatch changed frames")
	}
	if e.Registry().Len() != 0 {
		t.Error("mode mismatch created a group")
	}
}

func TestToggleLinkNoPartner(t *testing.T) {
	e := quietEngine()
	in := scene.Frames{newFrame("A_frame_1", &scene.Layer{ID: "solo", Name: "Solo", Visible: true})}

	_, gid, err := e.ToggleLink(in, "A_frame_1", "solo", link.ModeGIF)
	if err != nil || gid != "" {
		t.Errorf("ToggleLink() = %q, %v, want no-op", gid, err)
	}
}

func TestToggleLinkAnimationScope(t *testing.T) {
	in := scene.Frames{
		newFrame("A", &scene.Layer{ID: "a1", Name: "Logo", Visible: true}, &scene.Layer{ID: "a2", Name: "Logo", Visible: true}),
		newFrame("B", &scene.Layer{ID: "b1", Name: "Logo", Visible: true}),
	}

	e := quietEngine()
	if _, _, err := e.ToggleLink(in, "A", "a1", link.ModeAnimation); err != nil {
		t.Fatal(err)
	}
	if got := e.Registry().GetLinkedLayers("a1", link.ModeAnimation); !reflect.DeepEqual(got, []string{"a2"}) {
		t.Errorf("size scope = %v, want [a2]", got)
	}

	e = quietEngine()
	e.Registry().AnimationScope = link.ScopeProject
	if _, _, err := e.ToggleLink(in, "A", "a1", link.ModeAnimation); err != nil {
		t.Fatal(err)
	}
	if got := e.Registry().GetLinkedLayers("a1", link.ModeAnimation); !reflect.DeepEqual(got, []string{"a2", "b1"}) {
		t.Errorf("project scope = %v, want [a2 b1]", got)
	}
}

func TestAutoLink(t *testing.T) {
	e := quietEngine()

	out, err := e.AutoLink(fanOutFrames(), link.ModeGIF)
	if err != nil {
		t.Fatal(err)
	}
	if n := len(e.Registry().Groups(link.ModeGIF)); n != 4 {
		t.Errorf("groups = %d, want 4", n)
	}
	for _, f := range out {
		for _, l := range f.Layers {
			if l.Link == nil {
				t.Errorf("%s/%s not linked", f.ID, l.ID)
			}
		}
	}
}

type recordingHooks struct {
	observability.NoopSyncHooks
	syncs   []observability.SyncKind
	updated int
	skipped int
	toggles []bool
}

func (h *recordingHooks) OnSync(kind observability.SyncKind, _ string, updated, skipped int, _ time.Duration) {
	h.syncs = append(h.syncs, kind)
	h.updated += updated
	h.skipped += skipped
}

func (h *recordingHooks) OnLinkToggle(_, _ string, locked bool) {
	h.toggles = append(h.toggles, locked)
}

func TestHooks(t *testing.T) {
	h := &recordingHooks{}
	observability.SetSyncHooks(h)
	defer observability.Reset()

	e := quietEngine()
	in := fanOutFrames()
	b1, i := in.Get("B_frame_1")
	in[i] = e.SetOverride(b1, "logo-B1", scene.StreamVisibility, true)

	_ = e.SyncVisibility("copy-A1", "A_frame_1", in, false)
	_ = e.SyncVisibility("logo-A1", "A_frame_1", in, false)
	locked, _, _ := e.ToggleLink(in, "A_frame_1", "logo-A1", link.ModeGIF)
	_, _, _ = e.ToggleLink(locked, "A_frame_1", "logo-A1", link.ModeGIF)

	if len(h.syncs) != 2 || h.syncs[0] != observability.SyncVisibility {
		t.Errorf("syncs = %v", h.syncs)
	}
	if h.updated != 1 || h.skipped != 1 {
		t.Errorf("updated, skipped = %d, %d, want 1, 1", h.updated, h.skipped)
	}
	if !reflect.DeepEqual(h.toggles, []bool{true, false}) {
		t.Errorf("toggles = %v", h.toggles)
	}
}
