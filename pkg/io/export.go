package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/framelink/pkg/scene"
)

// WriteJSON encodes p as indented JSON. The output reads back with ReadJSON.
func WriteJSON(p *scene.Project, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(p); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportJSON writes p to a file at path.
func ExportJSON(p *scene.Project, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteJSON(p, f)
}

// Marshal returns the compact JSON encoding of p. Equal projects marshal to
// equal bytes, which makes the output usable as a cache key input.
func Marshal(p *scene.Project) ([]byte, error) {
	return json.Marshal(p)
}
