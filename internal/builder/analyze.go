// internal/builder/analyze.go
package builder

import (
	"bytes"
	"html"

	"github.com/microcosm-cc/bluemonday"
	stripmd "github.com/writeas/go-strip-markdown"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	gmutil "github.com/yuin/goldmark/util"

	"github.com/Hermanowicz/hermanowicz.co/internal/content"
	"github.com/Hermanowicz/hermanowicz.co/internal/util"
)

// MoreSeparator ends the excerpt when present in a post body.
const MoreSeparator = "<!--more-->"

// Analyzer derives Stats from post bodies. It is safe for concurrent use.
type Analyzer struct {
	markdown       goldmark.Markdown
	sanitizer      *bluemonday.Policy
	excerptLength  int
	wordsPerMinute int
}

// NewAnalyzer returns an Analyzer. An excerptLength of zero keeps the whole
// lead text; wordsPerMinute falls back to 200.
func NewAnalyzer(excerptLength, wordsPerMinute int) *Analyzer {
	return &Analyzer{
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.GFM, extension.Footnote),
			goldmark.WithParserOptions(
				parser.WithASTTransformers(
					gmutil.Prioritized(newStatsTransformer(), 100),
				),
			),
		),
		sanitizer:      bluemonday.StrictPolicy(),
		excerptLength:  excerptLength,
		wordsPerMinute: wordsPerMinute,
	}
}

// Analyze computes word count, reading time, heading outline and excerpt.
func (a *Analyzer) Analyze(body []byte) content.Stats {
	pc := parser.NewContext()
	a.markdown.Parser().Parse(text.NewReader(body), parser.WithContext(pc))

	var stats content.Stats
	if s, ok := pc.Get(bodyStatsKey).(*bodyStats); ok {
		stats.Words = s.words
		stats.Headings = s.headings
	}
	stats.ReadingTime = util.ReadingMinutes(stats.Words, a.wordsPerMinute)
	stats.Excerpt = a.Excerpt(body)
	return stats
}

// Excerpt returns plain text for the lead of body: everything before
// MoreSeparator, or the whole body when it is absent.
func (a *Analyzer) Excerpt(body []byte) string {
	lead := body
	if i := bytes.Index(body, []byte(MoreSeparator)); i >= 0 {
		lead = body[:i]
	}

	// Tags go first: stripping Markdown also drops the angle brackets.
	plain := html.UnescapeString(a.sanitizer.Sanitize(string(lead)))
	plain = stripmd.Strip(plain)
	return util.Truncate(util.CollapseSpace(plain), a.excerptLength)
}
