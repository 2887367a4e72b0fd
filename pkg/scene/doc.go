// Package scene defines the frame and layer model shared by the link and
// visibility engine.
//
// # Model
//
// A [Project] holds canvas sizes ([AdSize]) and a flat list of [Frame]s. A
// frame is either canvas-level (one per size, Animation mode) or a per-slice
// frame identified by size and sequence number (GIF mode, see
// [github.com/matzehuels/framelink/pkg/frameid]). Each frame owns a tree of
// [Layer]s.
//
// Visibility is stored twice per frame: every layer carries a Visible flag,
// and the frame carries a Hidden set of layer ids. The two must agree for
// every reachable layer. Only the visibility package writes either one.
//
// # Copy Semantics
//
// Engine entry points never mutate their input. They call [Frames.Clone] or
// [Frame.Clone], mutate the copy, and return it. Callers replace their
// reference wholesale.
//
// # Tree Walks
//
// [Walk] is the single traversal primitive; [Find], [FindPath], [FindAll]
// and [Count] are built on it.
package scene
