// Package index orders posts and builds the tag index exposed to
// presentation layers.
package index

import (
	"sort"
	"time"

	"github.com/Hermanowicz/hermanowicz.co/internal/content"
)

// Summary is the listing view of one post.
type Summary struct {
	Slug        string    `json:"slug" yaml:"slug"`
	Title       string    `json:"title" yaml:"title"`
	Description string    `json:"description" yaml:"description"`
	PubDate     time.Time `json:"pubDate" yaml:"pubDate"`
	HeroImage   string    `json:"heroImage,omitempty" yaml:"heroImage,omitempty"`
	Tags        []string  `json:"tags" yaml:"tags"`
	Excerpt     string    `json:"excerpt,omitempty" yaml:"excerpt,omitempty"`
	Words       int       `json:"words" yaml:"words"`
	ReadingTime int       `json:"readingTime" yaml:"readingTime"`
	Headings    []string  `json:"headings,omitempty" yaml:"headings,omitempty"`
}

// TagIndex maps a case-folded tag to slugs ordered newest first.
type TagIndex map[string][]string

// TagCount is one row of a tag listing.
type TagCount struct {
	Tag   string `json:"tag" yaml:"tag"`
	Label string `json:"label" yaml:"label"`
	Count int    `json:"count" yaml:"count"`
}

// Index is the derived, read-only view over a post collection.
type Index struct {
	Posts  []Summary         `json:"posts" yaml:"posts"`
	Tags   TagIndex          `json:"tags" yaml:"tags"`
	Labels map[string]string `json:"tagLabels" yaml:"tagLabels"`

	bySlug map[string]int
}

// Build orders posts by publish date (newest first, slug ascending on ties)
// and derives the tag index. The input slice is not modified.
func Build(posts []*content.Post) *Index {
	ordered := Sort(posts)

	idx := &Index{
		Posts:  make([]Summary, 0, len(ordered)),
		Tags:   TagIndex{},
		Labels: map[string]string{},
		bySlug: make(map[string]int, len(ordered)),
	}

	for _, post := range ordered {
		idx.bySlug[post.Slug] = len(idx.Posts)
		idx.Posts = append(idx.Posts, summarize(post))

		seen := map[string]struct{}{}
		for _, tag := range post.Tags {
			key := content.NormalizeTag(tag)
			if key == "" {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			idx.Tags[key] = append(idx.Tags[key], post.Slug)
			if _, ok := idx.Labels[key]; !ok {
				idx.Labels[key] = tag
			}
		}
	}
	return idx
}

// Sort returns a copy of posts in index order.
func Sort(posts []*content.Post) []*content.Post {
	ordered := make([]*content.Post, 0, len(posts))
	for _, p := range posts {
		if p != nil {
			ordered = append(ordered, p)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return Less(ordered[i], ordered[j])
	})
	return ordered
}

// Less reports whether a sorts before b: later dates first, then slug.
func Less(a, b *content.Post) bool {
	if !a.PubDate.Equal(b.PubDate) {
		return a.PubDate.After(b.PubDate)
	}
	return a.Slug < b.Slug
}

// Post returns the summary for slug.
func (idx *Index) Post(slug string) (Summary, bool) {
	if idx == nil {
		return Summary{}, false
	}
	i, ok := idx.bySlug[slug]
	if !ok {
		return Summary{}, false
	}
	return idx.Posts[i], true
}

// Tag returns the slugs carrying tag, matched case-insensitively.
func (idx *Index) Tag(tag string) []string {
	if idx == nil {
		return nil
	}
	slugs := idx.Tags[content.NormalizeTag(tag)]
	return append([]string(nil), slugs...)
}

// TagPosts returns the summaries carrying tag, newest first.
func (idx *Index) TagPosts(tag string) []Summary {
	slugs := idx.Tag(tag)
	out := make([]Summary, 0, len(slugs))
	for _, slug := range slugs {
		if s, ok := idx.Post(slug); ok {
			out = append(out, s)
		}
	}
	return out
}

// TagNames returns the tag keys in ascending order.
func (idx *Index) TagNames() []string {
	if idx == nil {
		return nil
	}
	names := make([]string, 0, len(idx.Tags))
	for name := range idx.Tags {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TagCounts lists tags by descending post count, then name.
func (idx *Index) TagCounts() []TagCount {
	names := idx.TagNames()
	out := make([]TagCount, 0, len(names))
	for _, name := range names {
		out = append(out, TagCount{Tag: name, Label: idx.Labels[name], Count: len(idx.Tags[name])})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	return out
}

func summarize(p *content.Post) Summary {
	return Summary{
		Slug:        p.Slug,
		Title:       p.Title,
		Description: p.Description,
		PubDate:     p.PubDate,
		HeroImage:   p.HeroImage,
		Tags:        append([]string{}, p.Tags...),
		Excerpt:     p.Stats.Excerpt,
		Words:       p.Stats.Words,
		ReadingTime: p.Stats.ReadingTime,
		Headings:    append([]string(nil), p.Stats.Headings...),
	}
}
