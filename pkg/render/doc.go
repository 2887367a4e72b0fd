// Package render turns link-group state into pictures.
//
// # Link Graphs
//
// The [linkgraph] subpackage draws every link group of one mode as a
// Graphviz cluster. Members are boxes labeled with layer name and frame id.
//
//	dot := linkgraph.ToDOT(project, linkgraph.Options{Mode: link.ModeGIF})
//	svg, err := linkgraph.RenderSVG(ctx, dot)
//
// # Format Conversion
//
// [ToPDF] and [ToPNG] convert any SVG through the external rsvg-convert
// tool (librsvg).
//
//	pdf, err := render.ToPDF(svg)
//	png, err := render.ToPNG(svg, 2.0)
//
// [linkgraph]: github.com/matzehuels/framelink/pkg/render/linkgraph
package render
