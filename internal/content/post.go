// Package content loads blog posts from a directory of Markdown files and
// parses their front matter into Post values.
package content

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/goliatone/go-slug"
)

// Post is one published blog post. It is built once per load pass and never
// mutated afterwards.
type Post struct {
	Slug        string    `json:"slug" yaml:"slug"`
	Title       string    `json:"title" yaml:"title"`
	Description string    `json:"description" yaml:"description"`
	PubDate     time.Time `json:"pubDate" yaml:"pubDate"`
	HeroImage   string    `json:"heroImage,omitempty" yaml:"heroImage,omitempty"`
	Tags        []string  `json:"tags" yaml:"tags"`

	Path     string    `json:"path" yaml:"path"`
	Format   string    `json:"format" yaml:"format"`
	Checksum string    `json:"checksum" yaml:"checksum"`
	ModTime  time.Time `json:"modTime" yaml:"modTime"`
	Stats    Stats     `json:"stats" yaml:"stats"`

	// Body holds the Markdown after the front-matter block. It is opaque.
	Body []byte `json:"-" yaml:"-"`
}

// Stats carries values derived from the body during the load pass.
type Stats struct {
	Words       int      `json:"words" yaml:"words"`
	ReadingTime int      `json:"readingTime" yaml:"readingTime"`
	Headings    []string `json:"headings,omitempty" yaml:"headings,omitempty"`
	Excerpt     string   `json:"excerpt,omitempty" yaml:"excerpt,omitempty"`
}

// HasTag reports whether the post carries tag, ignoring case.
func (p *Post) HasTag(tag string) bool {
	want := NormalizeTag(tag)
	for _, t := range p.Tags {
		if NormalizeTag(t) == want {
			return true
		}
	}
	return false
}

// SlugFromPath derives a slug from a content-relative file path: the
// extension is dropped and directory separators become dashes.
func SlugFromPath(rel string) (string, error) {
	rel = strings.TrimPrefix(path.Clean(strings.ReplaceAll(rel, "\\", "/")), "./")
	stem := strings.TrimSuffix(rel, path.Ext(rel))
	stem = strings.ReplaceAll(stem, "/", "-")

	s, err := slug.Normalize(stem)
	if err != nil {
		return "", fmt.Errorf("derive slug from %s: %w", rel, err)
	}
	if s == "" {
		return "", fmt.Errorf("derive slug from %s: empty slug", rel)
	}
	return s, nil
}

// NormalizeTag folds a tag to the key used by the tag index.
func NormalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}

func uniqueTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
