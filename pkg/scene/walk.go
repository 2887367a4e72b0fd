package scene

// Visitor is called for each layer by [Walk]. ancestors lists the layer's
// ancestors from the root down; the slice is reused between calls, so copy
// it to keep it. Returning false stops the walk.
type Visitor func(l *Layer, ancestors []*Layer) bool

// Walk visits layers depth-first in pre-order and reports whether the walk
// ran to completion.
func Walk(layers []*Layer, fn Visitor) bool {
	var path []*Layer
	var visit func([]*Layer) bool
	visit = func(ls []*Layer) bool {
		for _, l := range ls {
			if !fn(l, path) {
				return false
			}
			if len(l.Children) == 0 {
				continue
			}
			path = append(path, l)
			ok := visit(l.Children)
			path = path[:len(path)-1]
			if !ok {
				return false
			}
		}
		return true
	}
	return visit(layers)
}

// Find returns the first layer with the given id, or nil.
func Find(layers []*Layer, id string) *Layer {
	var found *Layer
	Walk(layers, func(l *Layer, _ []*Layer) bool {
		if l.ID == id {
			found = l
			return false
		}
		return true
	})
	return found
}

// FindPath returns the chain from a root layer down to the layer with the
// given id, inclusive, or nil when absent.
func FindPath(layers []*Layer, id string) []*Layer {
	var path []*Layer
	Walk(layers, func(l *Layer, ancestors []*Layer) bool {
		if l.ID != id {
			return true
		}
		path = make([]*Layer, 0, len(ancestors)+1)
		path = append(path, ancestors...)
		path = append(path, l)
		return false
	})
	return path
}

// FindAll returns every layer matching pred in pre-order.
func FindAll(layers []*Layer, pred func(*Layer) bool) []*Layer {
	var out []*Layer
	Walk(layers, func(l *Layer, _ []*Layer) bool {
		if pred(l) {
			out = append(out, l)
		}
		return true
	})
	return out
}

// FindByName returns every layer whose normalized name equals name's.
func FindByName(layers []*Layer, name string) []*Layer {
	key := NormalizeName(name)
	return FindAll(layers, func(l *Layer) bool { return l.NormalizedName() == key })
}

// Count returns how many layers match pred.
func Count(layers []*Layer, pred func(*Layer) bool) int {
	n := 0
	Walk(layers, func(l *Layer, _ []*Layer) bool {
		if pred(l) {
			n++
		}
		return true
	})
	return n
}

// Descendants returns every layer beneath l, excluding l.
func Descendants(l *Layer) []*Layer {
	return FindAll(l.Children, func(*Layer) bool { return true })
}
