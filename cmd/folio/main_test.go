package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hermanowicz/hermanowicz.co/internal/content"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func contentFixture(t *testing.T, broken bool) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"go-one.md": "---\ntitle: One\ndescription: d\npubDate: 2023-05-01\ntags: [golang]\n---\nFirst.\n",
		"go-two.md": "---\ntitle: Two\ndescription: d\npubDate: 2024-05-01\ntags: [golang, web]\n---\nSecond.\n",
	}
	if broken {
		files["bad.md"] = "---\ndescription: d\npubDate: 2024-01-01\n---\n"
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return dir
}

func TestBuildWritesJSONToStdout(t *testing.T) {
	dir := contentFixture(t, false)

	stdout, stderr, err := execute(t, "build", "--dir", dir, "--out", "-")
	require.NoError(t, err)

	var doc document
	require.NoError(t, json.Unmarshal([]byte(stdout), &doc))
	require.Len(t, doc.Posts, 2)
	assert.Equal(t, "go-two", doc.Posts[0].Slug)
	assert.Equal(t, []string{"go-two", "go-one"}, doc.Tags["golang"])
	assert.Equal(t, "My Blog", doc.Title)
	assert.NotEmpty(t, doc.BuildID)
	assert.Empty(t, doc.Report.Skipped)
	assert.Contains(t, stderr, "build complete")
}

func TestBuildWritesYAMLFile(t *testing.T) {
	dir := contentFixture(t, false)
	out := filepath.Join(t.TempDir(), "public", "index.yaml")

	_, _, err := execute(t, "build", "--dir", dir, "--out", out, "--format", "yaml")
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "posts:")
	assert.Contains(t, string(data), "slug: go-two")
}

func TestBuildStrictFailsOnSkipped(t *testing.T) {
	dir := contentFixture(t, true)

	stdout, _, err := execute(t, "build", "--dir", dir, "--out", "-", "--strict")
	require.ErrorIs(t, err, errSkipped)

	var doc document
	require.NoError(t, json.Unmarshal([]byte(stdout), &doc), "document is still written")
	require.Len(t, doc.Report.Skipped, 1)
	assert.Equal(t, "bad.md", doc.Report.Skipped[0].Path)
	assert.Equal(t, []string{"title"}, doc.Report.Skipped[0].Fields)

	_, _, err = execute(t, "build", "--dir", dir, "--out", "-")
	require.NoError(t, err, "skipped files are not an error without --strict")
}

func TestBuildRejectsUnknownFormat(t *testing.T) {
	_, _, err := execute(t, "build", "--dir", contentFixture(t, false), "--out", "-", "--format", "xml")
	require.Error(t, err)
}

func TestBuildMissingDirectory(t *testing.T) {
	_, _, err := execute(t, "build", "--dir", filepath.Join(t.TempDir(), "missing"), "--out", "-")
	require.Error(t, err)
	assert.True(t, content.IsFatal(err))
}

func TestCheckReportsSkipped(t *testing.T) {
	stdout, _, err := execute(t, "check", "--dir", contentFixture(t, true))
	require.ErrorIs(t, err, errSkipped)
	assert.Contains(t, stdout, "2 published, 1 skipped")
	assert.Contains(t, stdout, "FRONT_MATTER_INVALID")

	stdout, _, err = execute(t, "check", "--dir", contentFixture(t, false))
	require.NoError(t, err)
	assert.Contains(t, stdout, "2 published, 0 skipped")
}

func TestTagsCommand(t *testing.T) {
	dir := contentFixture(t, false)

	stdout, _, err := execute(t, "tags", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "golang")
	assert.Contains(t, stdout, "web")

	stdout, _, err = execute(t, "tags", "GOLANG", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "2024-05-01")
	assert.Contains(t, stdout, "go-one")

	_, _, err = execute(t, "tags", "rust", "--dir", dir)
	require.Error(t, err)
}

func TestNewSiteAndPost(t *testing.T) {
	site := filepath.Join(t.TempDir(), "blog")

	stdout, _, err := execute(t, "new", "site", site)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Site scaffolded")

	stdout, _, err = execute(t, "new", "post", "Second", "Post", "--dir", filepath.Join(site, "content"))
	require.NoError(t, err)
	assert.Contains(t, stdout, "second-post.md")

	stdout, _, err = execute(t, "check", "--config", filepath.Join(site, "folio.yaml"))
	require.ErrorIs(t, err, errSkipped, "the new post has no description yet")
	assert.Contains(t, stdout, "1 published, 1 skipped")
}

func TestBuildOutputIsRelativeToConfig(t *testing.T) {
	site := filepath.Join(t.TempDir(), "blog")
	_, _, err := execute(t, "new", "site", site)
	require.NoError(t, err)

	_, stderr, err := execute(t, "build", "--config", filepath.Join(site, "folio.yaml"))
	require.NoError(t, err)
	assert.Contains(t, stderr, "index written")

	data, err := os.ReadFile(filepath.Join(site, "public", "index.json"))
	require.NoError(t, err)

	var doc document
	require.NoError(t, json.Unmarshal(data, &doc))
	require.Len(t, doc.Posts, 1)
	assert.Equal(t, "hello-folio", doc.Posts[0].Slug)
}

func TestWriteOutputReportsFileErrors(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "nested", "index.json")

	require.NoError(t, writeOutput(nil, target, "json", document{Title: "T"}))
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"title": "T"`)

	err = writeOutput(nil, dir, "json", document{})
	require.Error(t, err, "a directory cannot be opened as the output file")

	err = writeOutput(nil, filepath.Join(dir, "index.xml"), "xml", document{})
	require.Error(t, err)
}
