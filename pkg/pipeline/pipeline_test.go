package pipeline

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/framelink/pkg/cache"
	"github.com/matzehuels/framelink/pkg/errors"
	"github.com/matzehuels/framelink/pkg/link"
	"github.com/matzehuels/framelink/pkg/scene"
)

func boolPtr(b bool) *bool { return &b }

func testProject() *scene.Project {
	p := &scene.Project{Sizes: []scene.AdSize{
		{ID: "A", Width: 300, Height: 250, FrameIDs: []string{"A_frame_1", "A_frame_2"}},
		{ID: "B", Width: 728, Height: 90, FrameIDs: []string{"B_frame_1", "B_frame_2"}},
	}}
	for _, s := range p.Sizes {
		for _, id := range s.FrameIDs {
			f := &scene.Frame{ID: id, SizeID: s.ID, Layers: []*scene.Layer{
				{ID: "logo-" + id, Name: "Logo", Visible: true},
			}}
			f.SyncHiddenFromFlags()
			f.Recount()
			p.Frames = append(p.Frames, f)
		}
	}
	return p
}

func linkAndHide() []Op {
	return []Op{
		{Kind: KindToggleLink, Frame: "A_frame_1", Layer: "logo-A_frame_1", Mode: "gif"},
		{Kind: KindSyncVisibility, Frame: "A_frame_1", Layer: "logo-A_frame_1", Visible: boolPtr(false)},
	}
}

func newTestRunner(t *testing.T) *Runner {
	t.Helper()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(c, nil, log.New(io.Discard))
	t.Cleanup(func() { r.Close() })
	return r
}

func TestOpValidate(t *testing.T) {
	tests := []struct {
		name    string
		op      Op
		wantErr bool
	}{
		{"set visibility", Op{Kind: KindSetVisibility, Frame: "f", Layer: "l", Visible: boolPtr(true)}, false},
		{"missing visible", Op{Kind: KindSyncVisibility, Frame: "f", Layer: "l"}, true},
		{"missing layer", Op{Kind: KindSetVisibility, Frame: "f", Visible: boolPtr(true)}, true},
		{"unknown kind", Op{Kind: "explode", Frame: "f", Layer: "l"}, true},
		{"empty kind", Op{}, true},
		{"toggle needs mode", Op{Kind: KindToggleLink, Frame: "f", Layer: "l"}, true},
		{"toggle bad mode", Op{Kind: KindToggleLink, Frame: "f", Layer: "l", Mode: "video"}, true},
		{"toggle", Op{Kind: KindToggleLink, Frame: "f", Layer: "l", Mode: "GIF"}, false},
		{"auto link", Op{Kind: KindAutoLink, Mode: "animation"}, false},
		{"override needs stream", Op{Kind: KindSetOverride, Frame: "f", Layer: "l"}, true},
		{"override", Op{Kind: KindSetOverride, Frame: "f", Layer: "l", Stream: "visibility", Overridden: true}, false},
		{"override animation stream", Op{Kind: KindSetOverride, Frame: "f", Layer: "l", Stream: "animation:fade"}, false},
		{"override unknown stream", Op{Kind: KindSetOverride, Frame: "f", Layer: "l", Stream: "opacity"}, true},
		{"override animation without id", Op{Kind: KindSetOverride, Frame: "f", Layer: "l", Stream: "animation:"}, true},
		{"animation missing", Op{Kind: KindSyncAnimation, Frame: "f", Layer: "l"}, true},
		{"animation no id", Op{Kind: KindSyncAnimation, Frame: "f", Layer: "l", Animation: &AnimationSpec{}}, true},
		{"animation bad json", Op{Kind: KindSyncAnimation, Frame: "f", Layer: "l", Animation: &AnimationSpec{ID: "a", Definition: "{"}}, true},
		{"animation", Op{Kind: KindSyncAnimation, Frame: "f", Layer: "l", Animation: &AnimationSpec{ID: "a", Definition: `{"ms":200}`}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.op.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errors.ErrCodeInvalidOp) {
				t.Errorf("Validate() code = %s, want %s", errors.GetCode(err), errors.ErrCodeInvalidOp)
			}
		})
	}
}

func TestDecodeTOML(t *testing.T) {
	src := `
[[op]]
kind  = "toggle-link"
frame = "A_frame_1"
layer = "logo"
mode  = "gif"

[[op]]
kind    = "sync-visibility"
frame   = "A_frame_1"
layer   = "logo"
visible = false

[[op]]
kind  = "sync-animation"
frame = "A"
layer = "logo"
[op.animation]
id         = "fade"
definition = '{"ms": 300}'
`
	s, err := DecodeTOML([]byte(src))
	if err != nil {
		t.Fatalf("DecodeTOML() error: %v", err)
	}
	if len(s.Ops) != 3 {
		t.Fatalf("len(Ops) = %d, want 3", len(s.Ops))
	}
	if s.Ops[1].Visible == nil || *s.Ops[1].Visible {
		t.Errorf("Ops[1].Visible = %v, want false", s.Ops[1].Visible)
	}
	if got := s.Ops[2].Animation.Animation(); got.ID != "fade" || string(got.Definition) != `{"ms": 300}` {
		t.Errorf("Ops[2].Animation = %+v", got)
	}
}

func TestDecodeTOMLErrors(t *testing.T) {
	tests := map[string]string{
		"syntax":      `[[op`,
		"unknown key": "[[op]]\nkind = \"auto-link\"\nmode = \"gif\"\ncolour = \"red\"\n",
		"invalid op":  "[[op]]\nkind = \"auto-link\"\n",
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := DecodeTOML([]byte(src)); err == nil {
				t.Error("DecodeTOML() succeeded, want error")
			}
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	for _, src := range []string{
		`{"ops": [{"kind": "auto-link", "mode": "gif"}]}`,
		`[{"kind": "auto-link", "mode": "gif"}]`,
	} {
		s, err := DecodeJSON([]byte(src))
		if err != nil {
			t.Fatalf("DecodeJSON(%s) error: %v", src, err)
		}
		if len(s.Ops) != 1 || s.Ops[0].Kind != KindAutoLink {
			t.Errorf("DecodeJSON(%s) = %+v", src, s.Ops)
		}
	}
	if _, err := DecodeJSON([]byte(`{"ops": 3}`)); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("DecodeJSON(bad) code = %s, want INVALID_FORMAT", errors.GetCode(err))
	}
}

func TestLoadScript(t *testing.T) {
	dir := t.TempDir()
	tomlPath := filepath.Join(dir, "edit.toml")
	os.WriteFile(tomlPath, []byte("[[op]]\nkind = \"auto-link\"\nmode = \"gif\"\n"), 0o644)
	yamlPath := filepath.Join(dir, "edit.yaml")
	os.WriteFile(yamlPath, []byte("ops: []"), 0o644)

	if s, err := LoadScript(tomlPath); err != nil || len(s.Ops) != 1 {
		t.Errorf("LoadScript(toml) = %v, %v", s, err)
	}
	if _, err := LoadScript(yamlPath); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("LoadScript(yaml) error = %v, want INVALID_FORMAT", err)
	}
	if _, err := LoadScript(filepath.Join(dir, "missing.toml")); err == nil {
		t.Error("LoadScript(missing) succeeded")
	}
}

func TestRunnerApply(t *testing.T) {
	r := newTestRunner(t)
	ctx := context.Background()
	in := testProject()

	out, hit, err := r.Apply(ctx, in, linkAndHide())
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if hit {
		t.Error("first Apply() reported a cache hit")
	}
	for _, tc := range []struct {
		frame, layer string
		visible      bool
	}{
		{"A_frame_1", "logo-A_frame_1", false},
		{"B_frame_1", "logo-B_frame_1", false},
		{"A_frame_2", "logo-A_frame_2", true},
	} {
		f, _ := out.Frames.Get(tc.frame)
		if got := f.Layer(tc.layer).Visible; got != tc.visible {
			t.Errorf("%s visible = %v, want %v", tc.frame, got, tc.visible)
		}
	}
	if !in.Frames[0].Layers[0].Visible {
		t.Error("Apply() mutated its input")
	}

	again, hit, err := r.Apply(ctx, in, linkAndHide())
	if err != nil || !hit {
		t.Fatalf("second Apply() = hit %v, err %v; want cache hit", hit, err)
	}
	f, _ := again.Frames.Get("B_frame_1")
	if f.Layer("logo-B_frame_1").Visible || f.VisibleCount != 0 {
		t.Error("cached result differs from computed result")
	}
}

func TestRunnerApplyRejectsInvalidOps(t *testing.T) {
	r := NewRunner(nil, nil, log.New(io.Discard))
	_, _, err := r.Apply(context.Background(), testProject(), []Op{{Kind: KindSetVisibility}})
	if !errors.Is(err, errors.ErrCodeInvalidOp) {
		t.Errorf("Apply() error = %v, want INVALID_OP", err)
	}
	if _, _, err := r.Apply(context.Background(), nil, nil); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Apply(nil) error = %v, want INVALID_INPUT", err)
	}
}

func TestRunnerApplyCanceled(t *testing.T) {
	r := NewRunner(nil, nil, log.New(io.Discard))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := r.Apply(ctx, testProject(), linkAndHide()); err != context.Canceled {
		t.Errorf("Apply() error = %v, want context.Canceled", err)
	}
}

func TestRunnerApplyUnknownTargetsAreNoOps(t *testing.T) {
	r := NewRunner(nil, nil, log.New(io.Discard))
	ops := []Op{{Kind: KindSyncVisibility, Frame: "Z_frame_9", Layer: "nope", Visible: boolPtr(false)}}
	out, _, err := r.Apply(context.Background(), testProject(), ops)
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	for _, f := range out.Frames {
		if f.VisibleCount != 1 {
			t.Errorf("%s VisibleCount = %d, want 1", f.ID, f.VisibleCount)
		}
	}
}

func TestRunnerValidate(t *testing.T) {
	r := newTestRunner(t)
	ctx := context.Background()

	p := testProject()
	p.Frames[0].Layers[0].Locked = true

	violations, hit, err := r.Validate(ctx, p, link.ModeGIF)
	if err != nil || hit {
		t.Fatalf("Validate() = hit %v, err %v", hit, err)
	}
	if len(violations) == 0 {
		t.Fatal("Validate() found no violations for a locked layer without descriptor")
	}

	cached, hit, err := r.Validate(ctx, p, link.ModeGIF)
	if err != nil || !hit || len(cached) != len(violations) {
		t.Errorf("second Validate() = %v, hit %v, err %v", cached, hit, err)
	}

	clean, _, err := r.Validate(ctx, testProject(), link.ModeGIF)
	if err != nil || len(clean) != 0 {
		t.Errorf("Validate(clean) = %v, %v", clean, err)
	}

	if _, _, err := r.Validate(ctx, p, "video"); !errors.Is(err, errors.ErrCodeInvalidMode) {
		t.Errorf("Validate(bad mode) error = %v", err)
	}
}

func TestRunnerGraphDOT(t *testing.T) {
	r := newTestRunner(t)
	ctx := context.Background()

	p, _, err := r.Apply(ctx, testProject(), linkAndHide())
	if err != nil {
		t.Fatal(err)
	}
	dot, hit, err := r.Graph(ctx, p, link.ModeGIF, FormatDOT)
	if err != nil || hit {
		t.Fatalf("Graph() = hit %v, err %v", hit, err)
	}
	if !strings.Contains(string(dot), `"A_frame_1/logo-A_frame_1" -- "B_frame_1/logo-B_frame_1"`) {
		t.Errorf("Graph() DOT missing edge:\n%s", dot)
	}
	if _, hit, _ := r.Graph(ctx, p, link.ModeGIF, FormatDOT); !hit {
		t.Error("second Graph() missed the cache")
	}
	if _, _, err := r.Graph(ctx, p, link.ModeGIF, "gif"); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("Graph(bad format) error = %v", err)
	}
}
