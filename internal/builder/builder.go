// internal/builder/builder.go
package builder

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Hermanowicz/hermanowicz.co/internal/config"
	"github.com/Hermanowicz/hermanowicz.co/internal/content"
	"github.com/Hermanowicz/hermanowicz.co/internal/index"
	"github.com/Hermanowicz/hermanowicz.co/internal/logging"
)

// Builder runs load passes over one content directory.
type Builder struct {
	dir      string
	loader   *content.Loader
	parser   *content.Parser
	analyzer *Analyzer
	logger   logging.Logger
	now      func() time.Time
	newID    func() string
}

// New configures a Builder from the site config. A nil logger discards output.
func New(site config.SiteConfig, logger logging.Logger) *Builder {
	if logger == nil {
		logger = logging.NoOp()
	}
	return &Builder{
		dir: site.ContentDir,
		loader: content.NewLoader(content.LoaderConfig{
			Extensions: site.Extensions,
			Recursive:  site.Recursive,
			Workers:    site.Workers,
		}),
		parser:   content.NewParser(),
		analyzer: NewAnalyzer(site.ExcerptLength, site.WordsPerMinute),
		logger:   logger,
		now:      time.Now,
		newID:    func() string { return uuid.NewString() },
	}
}

// Dir returns the content directory the builder reads.
func (b *Builder) Dir() string {
	return b.dir
}

// Build runs one full pass: load, parse, analyze, resolve duplicate slugs and
// index. The only error conditions are an unusable content directory
// (categorized as not found) and context cancellation; every per-file problem
// is recorded in the snapshot's Report instead.
func (b *Builder) Build(ctx context.Context) (*Snapshot, error) {
	started := b.now()

	res, err := b.loader.Load(ctx, b.dir)
	if err != nil {
		if content.IsFatal(err) {
			b.logger.Error("content directory unusable", "dir", b.dir, "error", err)
			return nil, content.Categorize(err)
		}
		return nil, fmt.Errorf("load %s: %w", b.dir, err)
	}

	var (
		skipped []Issue
		posts   []*content.Post
	)
	for _, loadErr := range res.Issues {
		skipped = append(skipped, newIssue(loadErr))
	}

	firstBySlug := make(map[string]string, len(res.Files))
	for _, file := range res.Files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		post, err := b.parser.Parse(file)
		if err != nil {
			skipped = append(skipped, newIssue(err))
			continue
		}

		// Files arrive ordered by path, so the first claimant keeps the slug.
		if first, taken := firstBySlug[post.Slug]; taken {
			skipped = append(skipped, newIssue(&content.DuplicateSlugError{
				Path:      post.Path,
				Slug:      post.Slug,
				FirstPath: first,
			}))
			continue
		}
		firstBySlug[post.Slug] = post.Path

		post.Stats = b.analyzer.Analyze(post.Body)
		posts = append(posts, post)
	}

	sort.SliceStable(skipped, func(i, j int) bool {
		return skipped[i].Path < skipped[j].Path
	})
	for _, issue := range skipped {
		b.logger.Warn("skipped content file",
			"path", issue.Path,
			"kind", string(issue.Kind),
			"code", issue.Code,
			"error", issue.Message,
		)
	}

	idx := index.Build(posts)
	snap := &Snapshot{
		BuildID: b.newID(),
		BuiltAt: started.UTC(),
		Dir:     res.Dir,
		Posts:   index.Sort(posts),
		Index:   idx,
		Report: Report{
			Published: len(posts),
			Skipped:   skipped,
		},
	}
	if snap.Report.Skipped == nil {
		snap.Report.Skipped = []Issue{}
	}

	b.logger.Info("build complete",
		"build_id", snap.BuildID,
		"posts", snap.Report.Published,
		"tags", len(idx.Tags),
		"skipped", len(snap.Report.Skipped),
		"duration", b.now().Sub(started),
	)
	return snap, nil
}

func newIssue(err error) Issue {
	kind := content.KindOf(err)
	return Issue{
		Path:     content.PathOf(err),
		Kind:     kind,
		Code:     kind.Code(),
		Category: kind.Category(),
		Fields:   content.FieldsOf(err),
		Message:  err.Error(),
		Err:      content.Categorize(err),
	}
}
