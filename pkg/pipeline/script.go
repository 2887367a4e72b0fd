package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/framelink/pkg/errors"
)

// Script is an ordered list of ops.
type Script struct {
	Ops []Op `toml:"op" json:"ops"`
}

// Validate checks every op and reports the first failure with its index.
func (s *Script) Validate() error {
	for i := range s.Ops {
		if err := s.Ops[i].Validate(); err != nil {
			return errors.New(errors.ErrCodeInvalidOp, "op %d: %s", i+1, errors.UserMessage(err))
		}
	}
	return nil
}

// DecodeTOML parses and validates a TOML script.
func DecodeTOML(data []byte) (*Script, error) {
	var s Script
	md, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&s)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode script")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unknown script keys: %v", undecoded)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// DecodeJSON parses and validates a JSON script. A bare array of ops is
// accepted as well as {"ops": [...]}.
func DecodeJSON(data []byte) (*Script, error) {
	var s Script
	trimmed := bytes.TrimSpace(data)
	var err error
	if len(trimmed) > 0 && trimmed[0] == '[' {
		err = json.Unmarshal(trimmed, &s.Ops)
	} else {
		err = json.Unmarshal(trimmed, &s)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode script")
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadScript reads a script file, choosing the decoder by extension.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return DecodeTOML(data)
	case ".json":
		return DecodeJSON(data)
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported script extension %q (want .toml or .json)", filepath.Ext(path))
	}
}
