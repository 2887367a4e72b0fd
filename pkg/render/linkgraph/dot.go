// Package linkgraph draws a project's link groups as a Graphviz diagram.
//
// Each group becomes a cluster holding one box per member layer, labeled
// with the layer name and its frame. The main member is drawn bold and
// joined to every other member. Members that opted out of a stream are
// dashed; hidden members are greyed.
package linkgraph

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/framelink/pkg/link"
	"github.com/matzehuels/framelink/pkg/scene"
)

// Options configures diagram output.
type Options struct {
	// Mode selects which groups are drawn.
	Mode link.Mode

	// Detailed adds layer ids and override streams to labels.
	Detailed bool
}

type member struct {
	frame *scene.Frame
	layer *scene.Layer
}

func (m member) nodeID() string { return m.frame.ID + "/" + m.layer.ID }

// ToDOT converts the link descriptors of p into Graphviz DOT. Only frames
// that link in opts.Mode contribute, and only descriptors of that mode.
func ToDOT(p *scene.Project, opts Options) string {
	groups := make(map[string][]member)
	names := make(map[string]string)
	for _, f := range p.Frames {
		if link.ModeForFrame(f.ID) != opts.Mode {
			continue
		}
		scene.Walk(f.Layers, func(l *scene.Layer, _ []*scene.Layer) bool {
			if l.Link == nil {
				return true
			}
			if m, ok := link.ModeOf(l.Link.GroupID); !ok || m != opts.Mode {
				return true
			}
			gid := l.Link.GroupID
			if _, ok := names[gid]; !ok {
				names[gid] = l.Name
			}
			groups[gid] = append(groups[gid], member{frame: f, layer: l})
			return true
		})
	}

	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  compound=true;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("\n")

	ids := make([]string, 0, len(groups))
	for gid := range groups {
		ids = append(ids, gid)
	}
	slices.Sort(ids)

	for i, gid := range ids {
		ms := groups[gid]
		fmt.Fprintf(&buf, "  subgraph \"cluster_%d\" {\n", i)
		fmt.Fprintf(&buf, "    label=%q;\n", fmt.Sprintf("%s (%s)", names[gid], shortID(gid)))
		buf.WriteString("    style=\"rounded\";\n")
		for _, m := range ms {
			fmt.Fprintf(&buf, "    %q [%s];\n", m.nodeID(), strings.Join(fmtAttrs(m, opts.Detailed), ", "))
		}
		if main := mainOf(ms); main != nil {
			for _, m := range ms {
				if m.layer != main.layer {
					fmt.Fprintf(&buf, "    %q -- %q;\n", main.nodeID(), m.nodeID())
				}
			}
		}
		buf.WriteString("  }\n")
	}

	buf.WriteString("}\n")
	return buf.String()
}

func mainOf(ms []member) *member {
	for i := range ms {
		if ms[i].layer.Link.IsMain {
			return &ms[i]
		}
	}
	return nil
}

func overrides(m member) []string {
	var out []string
	for s, on := range m.frame.Overrides[m.layer.ID] {
		if on {
			out = append(out, string(s))
		}
	}
	for s, on := range m.layer.Link.Overrides {
		if on && !slices.Contains(out, string(s)) {
			out = append(out, string(s))
		}
	}
	slices.Sort(out)
	return out
}

func fmtAttrs(m member, detailed bool) []string {
	label := m.layer.Name + "\n" + m.frame.ID
	ov := overrides(m)
	if detailed {
		label += "\n" + m.layer.ID
		if len(ov) > 0 {
			label += "\noverrides: " + strings.Join(ov, ", ")
		}
	}

	style := []string{"rounded", "filled"}
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if m.layer.Link.IsMain {
		style = append(style, "bold")
		attrs = append(attrs, "penwidth=2")
	}
	if len(ov) > 0 {
		style = append(style, "dashed")
	}
	if !m.layer.Visible {
		attrs = append(attrs, "fillcolor=lightgrey", "fontcolor=gray40")
	}
	attrs = append(attrs, fmt.Sprintf("style=%q", strings.Join(style, ",")))
	return attrs
}

func shortID(gid string) string {
	if len(gid) > 13 {
		return gid[:13]
	}
	return gid
}

// RenderSVG renders DOT to SVG with Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's pt-sized root element with one that
// scales from a zero-origin viewBox.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}
	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}
