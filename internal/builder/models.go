// internal/builder/models.go
package builder

import (
	"sync/atomic"
	"time"

	"github.com/Hermanowicz/hermanowicz.co/internal/content"
	"github.com/Hermanowicz/hermanowicz.co/internal/index"
)

// Snapshot is the immutable result of one build pass.
type Snapshot struct {
	BuildID string          `json:"buildId" yaml:"buildId"`
	BuiltAt time.Time       `json:"builtAt" yaml:"builtAt"`
	Dir     string          `json:"dir" yaml:"dir"`
	Posts   []*content.Post `json:"-" yaml:"-"`
	Index   *index.Index    `json:"index" yaml:"index"`
	Report  Report          `json:"report" yaml:"report"`
}

// Post returns the full post for slug.
func (s *Snapshot) Post(slug string) (*content.Post, bool) {
	if s == nil {
		return nil, false
	}
	for _, p := range s.Posts {
		if p.Slug == slug {
			return p, true
		}
	}
	return nil, false
}

// Report lists what a pass published and what it skipped.
type Report struct {
	Published int     `json:"published" yaml:"published"`
	Skipped   []Issue `json:"skipped" yaml:"skipped"`
}

// Clean reports whether no file was skipped.
func (r Report) Clean() bool {
	return len(r.Skipped) == 0
}

// Issue is one skipped file and why.
type Issue struct {
	Path     string       `json:"path" yaml:"path"`
	Kind     content.Kind `json:"kind" yaml:"kind"`
	Code     string       `json:"code" yaml:"code"`
	Category string       `json:"category" yaml:"category"`
	Fields   []string     `json:"fields,omitempty" yaml:"fields,omitempty"`
	Message  string       `json:"message" yaml:"message"`

	// Err is the categorized error; the typed error is reachable with errors.As.
	Err error `json:"-" yaml:"-"`
}

// Store holds the latest published snapshot. Readers never observe a
// partially built snapshot.
type Store struct {
	current atomic.Pointer[Snapshot]
}

// Load returns the current snapshot, or nil before the first publish.
func (s *Store) Load() *Snapshot {
	return s.current.Load()
}

// Publish replaces the current snapshot wholesale.
func (s *Store) Publish(snap *Snapshot) {
	if snap != nil {
		s.current.Store(snap)
	}
}
