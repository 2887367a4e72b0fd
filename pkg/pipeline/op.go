package pipeline

import (
	"encoding/json"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/matzehuels/framelink/pkg/errors"
	"github.com/matzehuels/framelink/pkg/link"
	"github.com/matzehuels/framelink/pkg/scene"
)

// Kind names an edit operation.
type Kind string

// Supported op kinds.
const (
	KindSetVisibility  Kind = "set-visibility"
	KindSyncVisibility Kind = "sync-visibility"
	KindSyncAnimation  Kind = "sync-animation"
	KindSetOverride    Kind = "set-override"
	KindToggleLink     Kind = "toggle-link"
	KindAutoLink       Kind = "auto-link"
)

// Kinds lists every supported kind.
var Kinds = []Kind{
	KindSetVisibility,
	KindSyncVisibility,
	KindSyncAnimation,
	KindSetOverride,
	KindToggleLink,
	KindAutoLink,
}

// AnimationSpec is an animation definition carried by a sync-animation op.
// Definition is raw JSON and is passed through untouched.
type AnimationSpec struct {
	ID         string `toml:"id" json:"id"`
	Name       string `toml:"name" json:"name,omitempty"`
	Definition string `toml:"definition" json:"definition,omitempty"`
}

// Animation converts a to the scene type.
func (a *AnimationSpec) Animation() scene.Animation {
	out := scene.Animation{ID: a.ID, Name: a.Name}
	if a.Definition != "" {
		out.Definition = json.RawMessage(a.Definition)
	}
	return out
}

// Op is one step of an edit script. Which fields apply depends on Kind.
type Op struct {
	Kind       Kind           `toml:"kind" json:"kind"`
	Frame      string         `toml:"frame" json:"frame,omitempty"`
	Layer      string         `toml:"layer" json:"layer,omitempty"`
	Mode       string         `toml:"mode" json:"mode,omitempty"`
	Visible    *bool          `toml:"visible" json:"visible,omitempty"`
	Stream     string         `toml:"stream" json:"stream,omitempty"`
	Overridden bool           `toml:"overridden" json:"overridden,omitempty"`
	Animation  *AnimationSpec `toml:"animation" json:"animation,omitempty"`
}

func (o Op) String() string {
	var b strings.Builder
	b.WriteString(string(o.Kind))
	if o.Frame != "" {
		b.WriteString(" frame=" + o.Frame)
	}
	if o.Layer != "" {
		b.WriteString(" layer=" + o.Layer)
	}
	if o.Mode != "" {
		b.WriteString(" mode=" + o.Mode)
	}
	return b.String()
}

// Validate checks that the op carries the fields its kind needs.
// Failures are INVALID_OP errors.
func (o *Op) Validate() error {
	needsTarget := o.Kind != KindAutoLink
	needsMode := o.Kind == KindToggleLink || o.Kind == KindAutoLink
	needsVisible := o.Kind == KindSetVisibility || o.Kind == KindSyncVisibility

	err := validation.ValidateStruct(o,
		validation.Field(&o.Kind, validation.Required, validation.In(kindValues()...)),
		validation.Field(&o.Frame, validation.When(needsTarget, validation.Required)),
		validation.Field(&o.Layer, validation.When(needsTarget, validation.Required)),
		validation.Field(&o.Mode,
			validation.When(needsMode, validation.Required),
			validation.When(o.Mode != "", validation.By(checkMode)),
		),
		validation.Field(&o.Visible, validation.When(needsVisible, validation.NotNil)),
		validation.Field(&o.Stream,
			validation.When(o.Kind == KindSetOverride, validation.Required),
			validation.When(o.Stream != "", validation.By(checkStream)),
		),
		validation.Field(&o.Animation, validation.When(o.Kind == KindSyncAnimation, validation.NotNil)),
	)
	if err == nil && o.Animation != nil {
		err = validation.ValidateStruct(o.Animation,
			validation.Field(&o.Animation.ID, validation.Required),
			validation.Field(&o.Animation.Definition, is.JSON),
		)
	}
	if err != nil {
		return errors.New(errors.ErrCodeInvalidOp, "%s: %v", o.Kind, err)
	}
	return nil
}

func kindValues() []any {
	out := make([]any, len(Kinds))
	for i, k := range Kinds {
		out[i] = k
	}
	return out
}

func checkMode(v any) error {
	s, _ := v.(string)
	_, err := link.ParseMode(s)
	return err
}

// checkStream accepts "visibility" and "animation:<id>".
func checkStream(v any) error {
	s, _ := v.(string)
	st := scene.Stream(s)
	if st == scene.StreamVisibility || (st.IsAnimation() && st != scene.AnimationStream("")) {
		return nil
	}
	return errors.New(errors.ErrCodeInvalidInput, "unknown stream %q (want %q or %q)", s, scene.StreamVisibility, scene.AnimationStream("<id>"))
}

func (o *Op) mode() link.Mode {
	m, _ := link.ParseMode(o.Mode)
	return m
}
