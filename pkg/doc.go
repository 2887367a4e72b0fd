// Package pkg holds framelink's libraries.
//
// # Overview
//
// framelink keeps layers linked across the frames of a display ad. A layer
// locked into a link group receives visibility and animation changes made
// to any other member, unless it has opted out of that stream.
//
//  1. [scene] - Layers, frames, sizes and projects
//  2. [frameid] - Per-slice frame id parsing
//  3. [link] - The link registry and auto-linking
//  4. [nameindex] - Name lookup across frames
//  5. [visibility] - Container-aware visibility edits
//  6. [crossframe] - The sync engine
//  7. [validate] - Invariant checks
//
// Around the engine sit [session] (an editing context), [pipeline] (cached
// scripted edits), [io] (project documents), [cache], [render] and
// [observability].
//
// # Data Flow
//
//	project.json
//	     ↓
//	[io] ReadJSON
//	     ↓
//	[session] Editor (registry rebuilt from link descriptors)
//	     ↓
//	[crossframe] ToggleLink / SyncVisibility / SyncAnimationProperty
//	     ↓
//	[validate] Project
//	     ↓
//	project.json, link graph (DOT/SVG)
//
// # Quick Start
//
//	p, err := io.ImportJSON("banner.json")
//	if err != nil {
//	    return err
//	}
//	ed, err := session.NewEditor(p, session.Options{})
//	if err != nil {
//	    return err
//	}
//	if _, err := ed.ToggleLink("A_frame_1", "logo", link.ModeGIF); err != nil {
//	    return err
//	}
//	ed.SyncVisibility("A_frame_1", "logo", false)
//	return io.ExportJSON(ed.Project(), "banner.out.json")
//
// [scene]: https://pkg.go.dev/github.com/matzehuels/framelink/pkg/scene
// [frameid]: https://pkg.go.dev/github.com/matzehuels/framelink/pkg/frameid
// [link]: https://pkg.go.dev/github.com/matzehuels/framelink/pkg/link
// [nameindex]: https://pkg.go.dev/github.com/matzehuels/framelink/pkg/nameindex
// [visibility]: https://pkg.go.dev/github.com/matzehuels/framelink/pkg/visibility
// [crossframe]: https://pkg.go.dev/github.com/matzehuels/framelink/pkg/crossframe
// [validate]: https://pkg.go.dev/github.com/matzehuels/framelink/pkg/validate
// [session]: https://pkg.go.dev/github.com/matzehuels/framelink/pkg/session
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/framelink/pkg/pipeline
// [io]: https://pkg.go.dev/github.com/matzehuels/framelink/pkg/io
// [cache]: https://pkg.go.dev/github.com/matzehuels/framelink/pkg/cache
// [render]: https://pkg.go.dev/github.com/matzehuels/framelink/pkg/render
// [observability]: https://pkg.go.dev/github.com/matzehuels/framelink/pkg/observability
package pkg
