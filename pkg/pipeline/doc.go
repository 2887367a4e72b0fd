// Package pipeline runs scripted edits over a project with caching.
//
// # Scripts
//
// A [Script] is an ordered list of [Op] values. Each op names one engine
// operation and its arguments. Scripts decode from TOML, where each op is
// an [[op]] table, or from JSON:
//
//	[[op]]
//	kind  = "toggle-link"
//	frame = "A_frame_1"
//	layer = "logo"
//	mode  = "gif"
//
//	[[op]]
//	kind    = "sync-visibility"
//	frame   = "A_frame_1"
//	layer   = "logo"
//	visible = false
//
// # Running
//
// [Runner.Apply] opens a session.Editor on a copy of the project, runs every
// op in order and returns the resulting project. Results are cached under
// the hash of the input project and the hash of the ops, so rerunning an
// unchanged script is a lookup.
//
//	r := pipeline.NewRunner(fileCache, nil, logger)
//	defer r.Close()
//	out, hit, err := r.Apply(ctx, project, script.Ops)
//
// [Runner.Validate] and [Runner.Graph] cache validation reports and
// rendered link graphs the same way.
package pipeline
