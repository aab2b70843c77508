package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hermanowicz/hermanowicz.co/internal/builder"
	"github.com/Hermanowicz/hermanowicz.co/internal/config"
)

func post(title, date string, tags ...string) string {
	s := "---\ntitle: \"" + title + "\"\ndescription: \"d\"\npubDate: \"" + date + "\"\n"
	if len(tags) > 0 {
		s += "tags: [" + strings.Join(tags, ", ") + "]\n"
	}
	return s + "---\nBody of " + title + ".\n"
}

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "older.md"), []byte(post("Older", "2023-01-01", "golang")), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "newer.md"), []byte(post("Newer", "2024-01-01", "Golang", "web")), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.md"), []byte("no front matter"), 0o644))

	cfg := config.Default()
	cfg.ContentDir = dir
	return New(builder.New(cfg, nil), Options{Debounce: 20 * time.Millisecond}), dir
}

func get(t *testing.T, h http.Handler, path string, out any) int {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	if out != nil {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
	}
	return rec.Code
}

func TestHandlerBeforeFirstBuild(t *testing.T) {
	s, _ := newTestServer(t)

	var body errorBody
	assert.Equal(t, http.StatusServiceUnavailable, get(t, s.Handler(), "/api/posts", &body))
	assert.Equal(t, "INDEX_NOT_READY", body.Code)
	assert.Equal(t, http.StatusServiceUnavailable, get(t, s.Handler(), "/healthz", nil))
}

func TestHandlerServesSnapshot(t *testing.T) {
	s, _ := newTestServer(t)
	require.NoError(t, s.Rebuild(context.Background()))
	h := s.Handler()

	var posts postsBody
	require.Equal(t, http.StatusOK, get(t, h, "/api/posts", &posts))
	require.Len(t, posts.Posts, 2)
	assert.Equal(t, "newer", posts.Posts[0].Slug)
	assert.Equal(t, s.Snapshot().BuildID, posts.BuildID)

	var filtered postsBody
	require.Equal(t, http.StatusOK, get(t, h, "/api/posts?tag=web", &filtered))
	require.Len(t, filtered.Posts, 1)

	var one map[string]any
	require.Equal(t, http.StatusOK, get(t, h, "/api/posts/older", &one))
	assert.Equal(t, "Older", one["title"])
	assert.Contains(t, one["body"], "Body of Older.")

	var missing errorBody
	assert.Equal(t, http.StatusNotFound, get(t, h, "/api/posts/nope", &missing))
	assert.Equal(t, "POST_NOT_FOUND", missing.Code)

	var tags tagsBody
	require.Equal(t, http.StatusOK, get(t, h, "/api/tags", &tags))
	require.NotEmpty(t, tags.Tags)
	assert.Equal(t, "golang", tags.Tags[0].Tag)
	assert.Equal(t, 2, tags.Tags[0].Count)

	var tag tagBody
	require.Equal(t, http.StatusOK, get(t, h, "/api/tags/GoLang", &tag))
	assert.Equal(t, "golang", tag.Tag)
	assert.Equal(t, "Golang", tag.Label)
	require.Len(t, tag.Posts, 2)
	assert.Equal(t, "newer", tag.Posts[0].Slug)

	assert.Equal(t, http.StatusNotFound, get(t, h, "/api/tags/rust", nil))

	var report reportBody
	require.Equal(t, http.StatusOK, get(t, h, "/api/report", &report))
	assert.Equal(t, 2, report.Report.Published)
	require.Len(t, report.Report.Skipped, 1)
	assert.Equal(t, "broken.md", report.Report.Skipped[0].Path)
	assert.Equal(t, "FRONT_MATTER_MALFORMED", report.Report.Skipped[0].Code)

	var health map[string]string
	require.Equal(t, http.StatusOK, get(t, h, "/healthz", &health))
	assert.Equal(t, "ok", health["status"])
}

type failingBuilder struct{ dir string }

func (f failingBuilder) Build(context.Context) (*builder.Snapshot, error) {
	return nil, errors.New("boom")
}

func (f failingBuilder) Dir() string { return f.dir }

func TestRebuildFailureKeepsSnapshot(t *testing.T) {
	s, _ := newTestServer(t)
	require.NoError(t, s.Rebuild(context.Background()))
	before := s.Snapshot()

	s.builder = failingBuilder{dir: s.builder.Dir()}
	require.Error(t, s.Rebuild(context.Background()))
	assert.Same(t, before, s.Snapshot())
}

func TestRebuildNotifiesSubscribers(t *testing.T) {
	s, _ := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return s.hub.count() == 1 }, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, s.Rebuild(context.Background()))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, "rebuilt", ev.Type)
	assert.Equal(t, s.Snapshot().BuildID, ev.BuildID)
	assert.Equal(t, 2, ev.Posts)
	assert.Equal(t, 1, ev.Skipped)
}

func TestWatchRebuildsOnChange(t *testing.T) {
	s, dir := newTestServer(t)
	require.NoError(t, s.Rebuild(context.Background()))

	watcher, err := fsnotify.NewWatcher()
	require.NoError(t, err)
	defer watcher.Close()
	require.NoError(t, s.addWatches(watcher, dir))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.watch(ctx, watcher)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "fresh.md"), []byte(post("Fresh", "2025-01-01")), 0o644))

	require.Eventually(t, func() bool {
		snap := s.Snapshot()
		return snap != nil && snap.Report.Published == 3
	}, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, "fresh", s.Snapshot().Index.Posts[0].Slug)
}
