package builder

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

const sampleBody = "Intro paragraph with five words.\n" +
	"\n" +
	"## First Section\n" +
	"\n" +
	"Some *emphasis* here.\n" +
	"\n" +
	"```go\n" +
	"func main() { println(\"not counted at all\") }\n" +
	"```\n" +
	"\n" +
	"### Sub Part\n" +
	"\n" +
	"#### Too Deep\n" +
	"\n" +
	"<!--more-->\n" +
	"\n" +
	"Tail text.\n"

func TestAnalyzeCountsProseAndOutline(t *testing.T) {
	stats := NewAnalyzer(0, 200).Analyze([]byte(sampleBody))

	assert.Equal(t, 16, stats.Words)
	assert.Equal(t, 1, stats.ReadingTime)
	assert.Equal(t, []string{"First Section", "Sub Part"}, stats.Headings)
	assert.NotContains(t, stats.Excerpt, "Tail text")
	assert.Contains(t, stats.Excerpt, "Intro paragraph with five words.")
}

func TestAnalyzeReadingTime(t *testing.T) {
	body := strings.Repeat("word ", 450)

	stats := NewAnalyzer(0, 200).Analyze([]byte(body))

	assert.Equal(t, 450, stats.Words)
	assert.Equal(t, 3, stats.ReadingTime)
}

func TestAnalyzeEmptyBody(t *testing.T) {
	stats := NewAnalyzer(200, 200).Analyze(nil)

	assert.Zero(t, stats.Words)
	assert.Zero(t, stats.ReadingTime)
	assert.Empty(t, stats.Headings)
	assert.Empty(t, stats.Excerpt)
}

func TestExcerptStripsMarkupBeforeMore(t *testing.T) {
	body := "Hello **world** and <b>friends</b>.\n\n<!--more-->\n\nHidden tail."

	excerpt := NewAnalyzer(0, 200).Excerpt([]byte(body))

	assert.Contains(t, excerpt, "Hello world and friends")
	assert.NotContains(t, excerpt, "**")
	assert.NotContains(t, excerpt, "<b>")
	assert.NotContains(t, excerpt, "Hidden")
}

func TestExcerptDropsInlineHTML(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "emphasis", body: "Read <em>this</em> first.", want: "Read this first."},
		{name: "link", body: `See <a href="/x">the docs</a> for more.`, want: "See the docs for more."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewAnalyzer(0, 200).Excerpt([]byte(tt.body)))
		})
	}
}

func TestExcerptInlineCodeWithTag(t *testing.T) {
	excerpt := NewAnalyzer(0, 200).Excerpt([]byte("Use `<br>` for breaks."))

	assert.Contains(t, excerpt, "Use")
	assert.Contains(t, excerpt, "for breaks.")
	assert.NotContains(t, excerpt, "<")
	assert.NotContains(t, excerpt, "br>")
	assert.NotContains(t, excerpt, "`")
}

func TestExcerptTruncatesOnWordBoundary(t *testing.T) {
	excerpt := NewAnalyzer(20, 200).Excerpt([]byte("one two three four five six seven eight"))
	assert.Equal(t, "one two three four…", excerpt)
}

func TestExcerptKeepsEntitiesReadable(t *testing.T) {
	excerpt := NewAnalyzer(0, 200).Excerpt([]byte("Tom & Jerry"))
	assert.Equal(t, "Tom & Jerry", excerpt)
}
