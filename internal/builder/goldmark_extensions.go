// internal/builder/goldmark_extensions.go
package builder

import (
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"

	"github.com/Hermanowicz/hermanowicz.co/internal/util"
)

// bodyStatsKey stores the *bodyStats computed for one document.
var bodyStatsKey = parser.NewContextKey()

// bodyStats is what statsTransformer collects while walking the AST.
type bodyStats struct {
	words    int
	headings []string
}

// statsTransformer counts prose words and records the H2/H3 outline.
// Code, raw HTML and HTML blocks are opaque and never counted.
type statsTransformer struct {
	minLevel, maxLevel int
}

func newStatsTransformer() parser.ASTTransformer {
	return &statsTransformer{minLevel: 2, maxLevel: 3}
}

func (t *statsTransformer) Transform(node *ast.Document, reader text.Reader, pc parser.Context) {
	source := reader.Source()
	stats := &bodyStats{}

	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch v := n.(type) {
		case *ast.FencedCodeBlock, *ast.CodeBlock, *ast.HTMLBlock, *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		case *ast.Heading:
			if v.Level >= t.minLevel && v.Level <= t.maxLevel {
				if title := inlineText(v, source); title != "" {
					stats.headings = append(stats.headings, title)
				}
			}
		case *ast.Text:
			stats.words += len(strings.Fields(string(v.Segment.Value(source))))
		case *ast.String:
			stats.words += len(strings.Fields(string(v.Value)))
		}
		return ast.WalkContinue, nil
	})

	pc.Set(bodyStatsKey, stats)
}

// inlineText concatenates the text segments below n.
func inlineText(n ast.Node, source []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := c.(type) {
		case *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		case *ast.Text:
			b.Write(v.Segment.Value(source))
			if v.SoftLineBreak() || v.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(v.Value)
		}
		return ast.WalkContinue, nil
	})
	return util.CollapseSpace(b.String())
}
