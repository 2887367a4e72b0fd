package errors

import (
	"unicode"

	"github.com/matzehuels/framelink/pkg/frameid"
)

// maxIDLength bounds frame, layer and group identifiers.
const maxIDLength = 256

// ValidateID checks a frame, layer or group identifier. kind names the
// identifier in the message ("layer id", "frame id").
//
// The rules are conservative:
//   - No empty ids
//   - No control characters
//   - Maximum length of 256 bytes
func ValidateID(kind, id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "%s cannot be empty", kind)
	}
	if len(id) > maxIDLength {
		return New(ErrCodeInvalidInput, "%s too long (max %d characters)", kind, maxIDLength)
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "%s contains invalid control characters", kind)
		}
	}
	return nil
}

// ValidateSliceFrameID checks that id is a well-formed per-slice frame id.
// The engine itself treats malformed ids as canvas-level frames; this is
// for callers that require a slice frame.
func ValidateSliceFrameID(id string) error {
	if err := ValidateID("frame id", id); err != nil {
		return err
	}
	if !frameid.IsSlice(id) {
		return New(ErrCodeInvalidFrameID, "not a per-slice frame id: %q", id)
	}
	return nil
}
