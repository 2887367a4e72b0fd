// Package crossframe propagates layer edits from one frame to the frames
// that share the layer's name.
//
// # Eligibility
//
// A target frame is eligible for a source frame when both are the same kind:
//
//   - Per-slice frames: same sequence number, different canvas size. Frames
//     of the source's own size never receive the edit.
//   - Canvas-level frames: every other canvas-level frame.
//
// A per-slice frame and a canvas-level frame are never eligible for each
// other. Within an eligible frame every layer with the source's normalized
// name is a target, unless it has opted out of the stream through an
// override or its sync mode.
//
// # Purity
//
// Every [Engine] entry point copies its frame input, edits the copy and
// returns it. Unknown frames and layers are logged at Warn and produce an
// unchanged copy. The only error an entry point returns is corrupted
// registry state, which callers must propagate.
package crossframe
