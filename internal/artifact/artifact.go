// Package artifact tracks the work products a build produces: plans, code
// files and data. Artifacts are never mutated in place; a new version of a
// path supersedes the old one and the history stays readable.
package artifact

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind classifies an artifact.
type Kind string

const (
	KindPlan     Kind = "plan"
	KindCodeFile Kind = "code-file"
	KindData     Kind = "data"
)

// Status is the verification state of an artifact.
type Status string

const (
	StatusUnverified Status = "unverified"
	StatusVerified   Status = "verified"
	StatusRejected   Status = "rejected"
)

// Artifact is one recorded work product.
type Artifact struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Path      string    `json:"path"`
	Content   string    `json:"content"`
	Phase     string    `json:"phase"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Registry holds artifacts for one build. Writes are serialized; reads can
// run concurrently. Registries return copies, never internal pointers.
type Registry struct {
	mu     sync.RWMutex
	byPath map[string][]Artifact
	order  []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byPath: make(map[string][]Artifact)}
}

// Record inserts a new artifact for path. An existing artifact at the same
// path is superseded: it stays in the history but Current no longer shows it.
func (r *Registry) Record(path string, kind Kind, content, phase string) Artifact {
	a := Artifact{
		ID:        uuid.New().String(),
		Kind:      kind,
		Path:      path,
		Content:   content,
		Phase:     phase,
		Status:    StatusUnverified,
		CreatedAt: time.Now(),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, seen := r.byPath[path]; !seen {
		r.order = append(r.order, path)
	}
	r.byPath[path] = append(r.byPath[path], a)
	return a
}

// SetStatus updates the status of the artifact with the given ID.
func (r *Registry) SetStatus(id string, status Status) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for path, versions := range r.byPath {
		for i := range versions {
			if versions[i].ID == id {
				r.byPath[path][i].Status = status
				return true
			}
		}
	}
	return false
}

// Current returns the latest version of every path, in the order the paths
// were first recorded.
func (r *Registry) Current() []Artifact {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Artifact, 0, len(r.order))
	for _, path := range r.order {
		versions := r.byPath[path]
		out = append(out, versions[len(versions)-1])
	}
	return out
}

// History returns every version recorded for path, oldest first.
func (r *Registry) History(path string) []Artifact {
	r.mu.RLock()
	defer r.mu.RUnlock()
	versions := r.byPath[path]
	out := make([]Artifact, len(versions))
	copy(out, versions)
	return out
}

// Verified returns the current artifacts whose status is verified.
func (r *Registry) Verified() []Artifact {
	var out []Artifact
	for _, a := range r.Current() {
		if a.Status == StatusVerified {
			out = append(out, a)
		}
	}
	return out
}

// VerifyAll runs the verifier over every current artifact and records the
// resulting statuses. It returns the counts of verified and rejected
// artifacts.
func (r *Registry) VerifyAll(v Verifier) (verified, rejected int) {
	for _, a := range r.Current() {
		status := v.Verify(a)
		r.SetStatus(a.ID, status)
		switch status {
		case StatusVerified:
			verified++
		case StatusRejected:
			rejected++
		}
	}
	return verified, rejected
}
