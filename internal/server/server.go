// internal/server/server.go
package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Hermanowicz/hermanowicz.co/internal/builder"
	"github.com/Hermanowicz/hermanowicz.co/internal/logging"
	"github.com/Hermanowicz/hermanowicz.co/internal/util"
)

const shutdownTimeout = 5 * time.Second

// Builder produces snapshots of one content directory.
type Builder interface {
	Build(ctx context.Context) (*builder.Snapshot, error)
	Dir() string
}

// Options configures a Server.
type Options struct {
	Port     int
	Debounce time.Duration
	Logger   logging.Logger
}

// Server serves the latest snapshot as JSON and rebuilds it when the content
// directory changes.
type Server struct {
	builder  Builder
	store    *builder.Store
	hub      *Hub
	logger   logging.Logger
	port     int
	debounce time.Duration
}

// New returns a Server. Nothing is built until Run or Rebuild is called.
func New(b Builder, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NoOp()
	}
	return &Server{
		builder:  b,
		store:    &builder.Store{},
		hub:      newHub(logger),
		logger:   logger,
		port:     opts.Port,
		debounce: opts.Debounce,
	}
}

// Snapshot returns the snapshot currently being served.
func (s *Server) Snapshot() *builder.Snapshot {
	return s.store.Load()
}

// Rebuild runs a pass and, on success, swaps it in and notifies subscribers.
// On failure the previous snapshot stays in place.
func (s *Server) Rebuild(ctx context.Context) error {
	snap, err := s.builder.Build(ctx)
	if err != nil {
		return err
	}
	s.store.Publish(snap)
	s.hub.Broadcast(Event{
		Type:    "rebuilt",
		BuildID: snap.BuildID,
		Posts:   snap.Report.Published,
		Skipped: len(snap.Report.Skipped),
	})
	return nil
}

// Run builds once, starts watching the content directory and serves until ctx
// is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Rebuild(ctx); err != nil {
		return fmt.Errorf("initial build failed: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("could not create file watcher: %w", err)
	}
	defer watcher.Close()

	if err := s.addWatches(watcher, s.builder.Dir()); err != nil {
		return err
	}
	go s.watch(ctx, watcher)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.logger.Info("serving content index", "addr", "http://localhost"+srv.Addr, "dir", s.builder.Dir())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	s.hub.closeAll()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// addWatches registers dir and every non-hidden directory below it.
func (s *Server) addWatches(watcher *fsnotify.Watcher, dir string) error {
	watched := make(map[string]bool)

	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		path = filepath.Clean(path)
		if watched[path] {
			return nil
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("could not watch %s: %w", path, err)
		}
		watched[path] = true
		s.logger.Debug("watching directory", "path", util.RelSlash(dir, path))
		return nil
	})
}

// watch coalesces bursts of events into one rebuild per debounce window.
func (s *Server) watch(ctx context.Context, watcher *fsnotify.Watcher) {
	dir := s.builder.Dir()
	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := s.addWatches(watcher, event.Name); err != nil {
						s.logger.Warn("could not watch new directory", "path", util.RelSlash(dir, event.Name), "error", err)
					}
				}
			}
			s.logger.Debug("change detected", "path", util.RelSlash(dir, event.Name), "op", event.Op.String())

			if timer == nil {
				timer = time.NewTimer(s.debounce)
			} else {
				timer.Reset(s.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			if err := s.Rebuild(ctx); err != nil {
				s.logger.Error("rebuild failed, keeping previous snapshot", "error", err)
				continue
			}
			if snap := s.store.Load(); snap != nil {
				s.logger.Info("snapshot replaced", "build_id", snap.BuildID)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn("watcher error", "error", err)
		}
	}
}
