// Package link holds the link registry: the store of link groups that tie
// same-named layers together across frames.
//
// # Modes
//
// Links live in one of two namespaces that never see each other:
//
//   - [ModeGIF] links per-slice frames at the same sequence position across
//     different canvas sizes. Group ids start with "gif_".
//   - [ModeAnimation] links canvas-level frames. Group ids start with "anim_".
//
// [ModeOf] is the only code that reads a group id prefix. Every read path
// checks the mode again, so a group created under one mode is reported as
// absent under the other even if a caller passes a stale id.
//
// # Lifecycle
//
// A [Registry] belongs to one editing session. It is a cache over the layer
// link descriptors: [Registry.Rebuild] reconstructs it from frames at any
// time, and [Registry.SyncLayerLinkStates] projects it back onto layers after
// a mutation. A Registry is not safe for concurrent use; callers serialize
// edits.
package link
