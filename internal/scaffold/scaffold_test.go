package scaffold

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hermanowicz/hermanowicz.co/internal/config"
	"github.com/Hermanowicz/hermanowicz.co/internal/content"
)

var now = time.Date(2024, 7, 8, 15, 4, 5, 0, time.UTC)

func TestCreateNewSite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "blog")

	created, err := CreateNewSite(dir, now)
	require.NoError(t, err)
	assert.Len(t, created, 3)

	cfg, err := config.LoadSiteConfig(filepath.Join(dir, config.DefaultFile), false)
	require.NoError(t, err)
	assert.Equal(t, "content", cfg.ContentDir)

	data, err := os.ReadFile(filepath.Join(dir, "content", "hello-folio.md"))
	require.NoError(t, err)

	post, err := content.NewParser().Parse(content.File{Path: "hello-folio.md", Data: data})
	require.NoError(t, err)
	assert.Equal(t, "Hello, folio", post.Title)
	assert.Equal(t, []string{"meta"}, post.Tags)
	assert.Equal(t, time.Date(2024, 7, 8, 0, 0, 0, 0, time.UTC), post.PubDate)

	_, err = CreateNewSite(dir, now)
	assert.ErrorIs(t, err, os.ErrExist)
}

func TestCreateNewPost(t *testing.T) {
	contentDir := filepath.Join(t.TempDir(), "content")

	path, err := CreateNewPost(contentDir, `My "Quoted" Post`, now)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(contentDir, "my-quoted-post.md"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `pubDate: "Jul 08 2024"`)

	// The description is left for the author to fill in.
	_, err = content.NewParser().Parse(content.File{Path: "my-quoted-post.md", Data: data})
	var verr *content.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"description"}, verr.Fields)

	_, err = CreateNewPost(contentDir, `My "Quoted" Post`, now)
	assert.ErrorIs(t, err, os.ErrExist)
}

func TestCreateNewPostUsesSiteArchetype(t *testing.T) {
	site := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(site, "archetypes"), 0o755))
	custom := "---\ntitle: {{ quote .Title }}\ndescription: \"Draft\"\npubDate: {{ quote .PubDate }}\n---\n"
	require.NoError(t, os.WriteFile(filepath.Join(site, ArchetypeFile), []byte(custom), 0o644))

	path, err := CreateNewPost(filepath.Join(site, "content"), "Custom", now)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	post, err := content.NewParser().Parse(content.File{Path: "custom.md", Data: data})
	require.NoError(t, err)
	assert.Equal(t, "Draft", post.Description)
}

func TestCreateNewPostRejectsEmptyTitle(t *testing.T) {
	_, err := CreateNewPost(t.TempDir(), "  ", now)
	require.Error(t, err)
}
