package api

import (
	"encoding/json"

	"github.com/matzehuels/framelink/pkg/pipeline"
	"github.com/matzehuels/framelink/pkg/scene"
)

// ApplyRequest is the body of POST /apply.
type ApplyRequest struct {
	Project json.RawMessage `json:"project"`
	Ops     []pipeline.Op   `json:"ops"`
}

// ApplyResponse is returned by POST /apply.
type ApplyResponse struct {
	Project *scene.Project `json:"project"`
	Cached  bool           `json:"cached"`
}

// ValidateRequest is the body of POST /validate.
type ValidateRequest struct {
	Project json.RawMessage `json:"project"`
	Mode    string          `json:"mode"`
}

// ValidateResponse is returned by POST /validate.
type ValidateResponse struct {
	Valid      bool     `json:"valid"`
	Violations []string `json:"violations"`
	Cached     bool     `json:"cached"`
}

// LinkedRequest is the body of POST /linked.
type LinkedRequest struct {
	Project json.RawMessage `json:"project"`
	Layer   string          `json:"layer"`
	Mode    string          `json:"mode"`
}

// LinkedResponse is returned by POST /linked. Frames maps each linked
// layer to the frame holding it.
type LinkedResponse struct {
	Layer  string            `json:"layer"`
	Mode   string            `json:"mode"`
	Linked []string          `json:"linked"`
	Frames map[string]string `json:"frames"`
}

// GraphRequest is the body of POST /graph.
type GraphRequest struct {
	Project json.RawMessage `json:"project"`
	Mode    string          `json:"mode"`
	Format  string          `json:"format"`
}

// HealthResponse is returned by GET /healthz.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}
