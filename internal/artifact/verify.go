package artifact

import (
	"encoding/json"
	"path"
	"strings"
)

// Verifier applies structural checks to artifacts before deployment.
type Verifier struct{}

// Verify classifies one artifact. Empty or whitespace-only content is always
// rejected. Structured formats get a structural check; everything else passes
// on non-empty content alone.
func (Verifier) Verify(a Artifact) Status {
	if strings.TrimSpace(a.Content) == "" {
		return StatusRejected
	}

	switch strings.ToLower(path.Ext(a.Path)) {
	case ".json":
		if !json.Valid([]byte(a.Content)) {
			return StatusRejected
		}
	case ".ipynb":
		if !validNotebook(a.Content) {
			return StatusRejected
		}
	}
	return StatusVerified
}

// validNotebook checks the minimal Jupyter structure: a cells list with at
// least one cell, and a first cell whose source is non-empty.
func validNotebook(content string) bool {
	var nb struct {
		Cells []struct {
			Source any `json:"source"`
		} `json:"cells"`
	}
	if err := json.Unmarshal([]byte(content), &nb); err != nil {
		return false
	}
	if len(nb.Cells) == 0 {
		return false
	}
	switch src := nb.Cells[0].Source.(type) {
	case string:
		return src != ""
	case []any:
		return len(src) > 0
	default:
		return false
	}
}
