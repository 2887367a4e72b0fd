package link

import (
	"strings"

	"github.com/matzehuels/framelink/pkg/errors"
	"github.com/matzehuels/framelink/pkg/frameid"
)

// Mode is a linking namespace.
type Mode string

const (
	// ModeAnimation links layers of canvas-level frames.
	ModeAnimation Mode = "animation"
	// ModeGIF links layers of per-slice frames across canvas sizes.
	ModeGIF Mode = "gif"
)

// Group id prefixes, one per mode.
const (
	prefixGIF       = "gif_"
	prefixAnimation = "anim_"
)

// Modes lists every mode in a stable order.
var Modes = []Mode{ModeAnimation, ModeGIF}

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool { return m == ModeAnimation || m == ModeGIF }

func (m Mode) String() string { return string(m) }

func (m Mode) prefix() string {
	if m == ModeGIF {
		return prefixGIF
	}
	return prefixAnimation
}

// ParseMode converts user input to a Mode. Matching ignores case.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", errors.New(errors.ErrCodeInvalidMode, "unknown mode %q (want %q or %q)", s, ModeAnimation, ModeGIF)
	}
	return m, nil
}

// ModeOf returns the mode encoded in a group id.
func ModeOf(groupID string) (Mode, bool) {
	switch {
	case strings.HasPrefix(groupID, prefixGIF) && len(groupID) > len(prefixGIF):
		return ModeGIF, true
	case strings.HasPrefix(groupID, prefixAnimation) && len(groupID) > len(prefixAnimation):
		return ModeAnimation, true
	}
	return "", false
}

// ModeForFrame returns the mode a frame's layers link under: per-slice
// frames use ModeGIF and canvas-level frames use ModeAnimation.
func ModeForFrame(frameID string) Mode {
	if frameid.IsSlice(frameID) {
		return ModeGIF
	}
	return ModeAnimation
}

// Scope bounds Animation-mode linking.
type Scope string

const (
	// ScopeSize links canvas-level layers only within one canvas size.
	ScopeSize Scope = "size"
	// ScopeProject links canvas-level layers across every canvas size.
	ScopeProject Scope = "project"
)
