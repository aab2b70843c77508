package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/Hermanowicz/hermanowicz.co/internal/builder"
	"github.com/Hermanowicz/hermanowicz.co/internal/content"
	"github.com/Hermanowicz/hermanowicz.co/internal/index"
)

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type postsBody struct {
	BuildID string          `json:"buildId"`
	Posts   []index.Summary `json:"posts"`
}

type postBody struct {
	*content.Post
	Body string `json:"body"`
}

type tagsBody struct {
	BuildID string           `json:"buildId"`
	Tags    []index.TagCount `json:"tags"`
}

type tagBody struct {
	Tag   string          `json:"tag"`
	Label string          `json:"label"`
	Posts []index.Summary `json:"posts"`
}

type reportBody struct {
	BuildID string         `json:"buildId"`
	BuiltAt time.Time      `json:"builtAt"`
	Report  builder.Report `json:"report"`
}

// Handler returns the HTTP routes of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/posts", s.withSnapshot(s.handlePosts))
	mux.HandleFunc("GET /api/posts/{slug}", s.withSnapshot(s.handlePost))
	mux.HandleFunc("GET /api/tags", s.withSnapshot(s.handleTags))
	mux.HandleFunc("GET /api/tags/{tag}", s.withSnapshot(s.handleTag))
	mux.HandleFunc("GET /api/report", s.withSnapshot(s.handleReport))
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		serveWs(s.hub, w, r)
	})
	return mux
}

type snapshotHandler func(w http.ResponseWriter, r *http.Request, snap *builder.Snapshot)

func (s *Server) withSnapshot(next snapshotHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := s.store.Load()
		if snap == nil {
			writeError(w, http.StatusServiceUnavailable, "INDEX_NOT_READY", "index has not been built yet")
			return
		}
		next(w, r, snap)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Load()
	if snap == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "starting"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "buildId": snap.BuildID})
}

func (s *Server) handlePosts(w http.ResponseWriter, r *http.Request, snap *builder.Snapshot) {
	posts := snap.Index.Posts
	if tag := r.URL.Query().Get("tag"); tag != "" {
		posts = snap.Index.TagPosts(tag)
	}
	writeJSON(w, http.StatusOK, postsBody{BuildID: snap.BuildID, Posts: posts})
}

func (s *Server) handlePost(w http.ResponseWriter, r *http.Request, snap *builder.Snapshot) {
	post, ok := snap.Post(r.PathValue("slug"))
	if !ok {
		writeError(w, http.StatusNotFound, "POST_NOT_FOUND", "no post with slug "+r.PathValue("slug"))
		return
	}
	writeJSON(w, http.StatusOK, postBody{Post: post, Body: string(post.Body)})
}

func (s *Server) handleTags(w http.ResponseWriter, r *http.Request, snap *builder.Snapshot) {
	writeJSON(w, http.StatusOK, tagsBody{BuildID: snap.BuildID, Tags: snap.Index.TagCounts()})
}

func (s *Server) handleTag(w http.ResponseWriter, r *http.Request, snap *builder.Snapshot) {
	key := content.NormalizeTag(r.PathValue("tag"))
	posts := snap.Index.TagPosts(key)
	if len(posts) == 0 {
		writeError(w, http.StatusNotFound, "TAG_NOT_FOUND", "no posts tagged "+key)
		return
	}
	writeJSON(w, http.StatusOK, tagBody{Tag: key, Label: snap.Index.Labels[key], Posts: posts})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request, snap *builder.Snapshot) {
	writeJSON(w, http.StatusOK, reportBody{BuildID: snap.BuildID, BuiltAt: snap.BuiltAt, Report: snap.Report})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorBody{Error: msg, Code: code})
}
