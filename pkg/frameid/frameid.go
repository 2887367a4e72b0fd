// Package frameid builds and parses per-slice frame identifiers.
//
// A per-slice frame id encodes the canvas size it belongs to and its
// position in that size's sequence:
//
//	300x250_frame_1
//	728x90_frame_12
//
// Any id that does not have this shape is a canvas-level frame id. Parsing
// never fails loudly: callers branch on [Parsed.Valid].
package frameid

import (
	"strconv"
	"strings"
)

// Separator joins the size id and the sequence number.
const Separator = "_frame_"

// Parsed is the result of [Parse].
type Parsed struct {
	Valid  bool   // false for canvas-level or malformed ids
	SizeID string // canvas size the frame belongs to
	Number int    // 1-based sequence position
}

// Parse splits a per-slice frame id into its size id and sequence number.
// The last occurrence of [Separator] is used, so size ids may themselves
// contain underscores. The number must be a positive decimal integer.
func Parse(id string) Parsed {
	i := strings.LastIndex(id, Separator)
	if i <= 0 {
		return Parsed{}
	}
	digits := id[i+len(Separator):]
	if digits == "" || strings.TrimLeft(digits, "0123456789") != "" {
		return Parsed{}
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n < 1 {
		return Parsed{}
	}
	return Parsed{Valid: true, SizeID: id[:i], Number: n}
}

// Build is the inverse of [Parse].
func Build(sizeID string, n int) string {
	return sizeID + Separator + strconv.Itoa(n)
}

// IsSlice reports whether id parses as a per-slice frame id.
func IsSlice(id string) bool { return Parse(id).Valid }

// SameSequence reports whether two ids are per-slice frames at the same
// sequence position. Canvas size plays no part.
func SameSequence(a, b string) bool {
	pa, pb := Parse(a), Parse(b)
	return pa.Valid && pb.Valid && pa.Number == pb.Number
}

// SameSize reports whether two ids are per-slice frames of one canvas size.
func SameSize(a, b string) bool {
	pa, pb := Parse(a), Parse(b)
	return pa.Valid && pb.Valid && pa.SizeID == pb.SizeID
}

// GroupBySequence buckets per-slice ids by sequence number, dropping the rest.
// Ids keep their input order within a bucket.
func GroupBySequence(ids []string) map[int][]string {
	out := make(map[int][]string)
	for _, id := range ids {
		if p := Parse(id); p.Valid {
			out[p.Number] = append(out[p.Number], id)
		}
	}
	return out
}
