package validate

import (
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/framelink/pkg/crossframe"
	"github.com/matzehuels/framelink/pkg/link"
	"github.com/matzehuels/framelink/pkg/scene"
)

func linked(id, name, group string, main bool) *scene.Layer {
	l := &scene.Layer{ID: id, Name: name, Visible: true}
	l.SetLink(&scene.LinkDescriptor{GroupID: group, IsMain: main})
	return l
}

func TestLayersConsistentTree(t *testing.T) {
	layers := []*scene.Layer{
		linked("a", "Logo", "gif_1", true),
		{ID: "grp", Name: "Group", Children: []*scene.Layer{
			linked("b", "logo", "gif_1", false),
			{ID: "c", Name: "Plain"},
		}},
	}
	if got := Layers(layers, link.ModeGIF); len(got) != 0 {
		t.Errorf("Layers() = %v, want none", got)
	}
}

func TestLayersTripleDisagreement(t *testing.T) {
	tests := []struct {
		name  string
		layer *scene.Layer
	}{
		{"linked without descriptor", &scene.Layer{ID: "x", Linked: true}},
		{"locked without descriptor", &scene.Layer{ID: "x", Locked: true}},
		{"descriptor without flags", &scene.Layer{ID: "x", Link: &scene.LinkDescriptor{GroupID: "gif_1", IsMain: true}}},
		{"descriptor and locked only", &scene.Layer{ID: "x", Locked: true, Link: &scene.LinkDescriptor{GroupID: "gif_1", IsMain: true}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Layers([]*scene.Layer{tt.layer}, link.ModeGIF)
			if len(got) != 1 || !strings.Contains(got[0], "disagree") {
				t.Errorf("Layers() = %v, want one disagreement", got)
			}
		})
	}
}

func TestLayersCrossModeContamination(t *testing.T) {
	got := Layers([]*scene.Layer{linked("a", "Logo", "anim_1", true)}, link.ModeGIF)
	if len(got) != 1 || !strings.Contains(got[0], "animation mode") {
		t.Errorf("Layers() = %v", got)
	}

	got = Layers([]*scene.Layer{linked("a", "Logo", "legacy", true)}, link.ModeGIF)
	if len(got) != 1 || !strings.Contains(got[0], "no mode prefix") {
		t.Errorf("Layers() = %v", got)
	}
}

func TestLayersNameDisagreement(t *testing.T) {
	layers := []*scene.Layer{
		linked("a", "Logo", "gif_1", true),
		linked("b", "Headline", "gif_1", false),
	}
	got := Layers(layers, link.ModeGIF)
	if len(got) != 1 || !strings.Contains(got[0], "named") {
		t.Errorf("Layers() = %v", got)
	}
}

func TestLayersMissingMain(t *testing.T) {
	layers := []*scene.Layer{
		linked("a", "Logo", "gif_1", false),
		linked("b", "Logo", "gif_1", false),
	}
	got := Layers(layers, link.ModeGIF)
	if len(got) != 1 || !strings.Contains(got[0], "no main member") {
		t.Errorf("Layers() = %v", got)
	}
}

func TestLayersDoesNotMutate(t *testing.T) {
	l := &scene.Layer{ID: "x", Linked: true}
	_ = Layers([]*scene.Layer{l}, link.ModeGIF)
	if !l.Linked || l.Locked || l.Link != nil {
		t.Error("Layers() changed its input")
	}
}

func TestRegistry(t *testing.T) {
	r := link.New(log.New(io.Discard))
	if got := Registry(r); len(got) != 0 {
		t.Errorf("empty registry: %v", got)
	}
	r.CreateLinkGroup("Logo", []string{"a", "b"}, link.ModeGIF, "a")
	r.CreateLinkGroup("Logo", []string{"c", "d"}, link.ModeAnimation, "")
	if got := Registry(r); len(got) != 0 {
		t.Errorf("Registry() = %v, want none", got)
	}
}

func TestFrames(t *testing.T) {
	f := &scene.Frame{ID: "A_frame_1", Layers: []*scene.Layer{
		{ID: "a", Visible: true},
		{ID: "b", Visible: false},
	}}
	f.SyncHiddenFromFlags()
	if got := Frames(scene.Frames{f}); len(got) != 0 {
		t.Errorf("Frames() = %v, want none", got)
	}

	f.Hidden.Add("a")
	f.Hidden.Remove("b")
	got := Frames(scene.Frames{f})
	if len(got) != 2 {
		t.Errorf("Frames() = %v, want two violations", got)
	}
}

func TestFramesSharedLayerID(t *testing.T) {
	fs := scene.Frames{
		{ID: "A_frame_1", Layers: []*scene.Layer{{ID: "logo", Name: "Logo", Visible: true}}},
		{ID: "B_frame_1", Layers: []*scene.Layer{{ID: "logo", Name: "Logo", Visible: true}}},
	}
	for _, f := range fs {
		f.SyncHiddenFromFlags()
	}
	got := Frames(fs)
	if len(got) != 1 || !strings.Contains(got[0], "A_frame_1 and B_frame_1") {
		t.Errorf("Frames() = %v, want one shared-id violation", got)
	}
}

func TestProjectAfterEngineEdits(t *testing.T) {
	logger := log.New(io.Discard)
	e := crossframe.New(link.New(logger), logger)

	var fs scene.Frames
	for _, id := range []string{"A_frame_1", "B_frame_1", "A"} {
		f := &scene.Frame{ID: id, Layers: []*scene.Layer{
			{ID: "logo-" + id, Name: "Logo", Visible: true, Children: []*scene.Layer{
				{ID: "mark-" + id, Name: "Mark", Visible: true},
			}},
		}}
		f.SyncHiddenFromFlags()
		fs = append(fs, f)
	}

	fs, _, err := e.ToggleLink(fs, "A_frame_1", "logo-A_frame_1", link.ModeGIF)
	if err != nil {
		t.Fatal(err)
	}
	fs = e.SyncVisibility("logo-A_frame_1", "A_frame_1", fs, false)
	fs = e.SyncVisibility("mark-B_frame_1", "B_frame_1", fs, true)

	for _, mode := range link.Modes {
		if got := Project(fs, mode); len(got) != 0 {
			t.Errorf("Project(%s) = %v", mode, got)
		}
	}
	if got := Registry(e.Registry()); len(got) != 0 {
		t.Errorf("Registry() = %v", got)
	}
}
