package link

import "slices"

// Group is a named set of layers that mirror each other's tracked streams.
// Registry accessors hand out copies; editing one has no effect on the
// registry.
type Group struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Mode    Mode     `json:"mode"`
	Members []string `json:"members"`
	Main    string   `json:"main,omitempty"`
}

// Has reports whether layerID is a member.
func (g *Group) Has(layerID string) bool { return slices.Contains(g.Members, layerID) }

// Others returns every member except layerID, in membership order.
func (g *Group) Others(layerID string) []string {
	out := make([]string, 0, len(g.Members))
	for _, id := range g.Members {
		if id != layerID {
			out = append(out, id)
		}
	}
	return out
}

func (g *Group) clone() *Group {
	c := *g
	c.Members = slices.Clone(g.Members)
	return &c
}
