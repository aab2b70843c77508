package content

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"
)

var (
	errNotDirectory = errors.New("not a directory")
	errInvalidUTF8  = errors.New("content is not valid UTF-8")
)

// DefaultExtensions are matched when LoaderConfig.Extensions is empty.
var DefaultExtensions = []string{".md"}

// LoaderConfig configures file discovery.
type LoaderConfig struct {
	// Extensions lists the file extensions treated as Markdown, matched
	// case-insensitively.
	Extensions []string
	// Recursive walks sub-directories when true.
	Recursive bool
	// Workers bounds the number of concurrent file reads.
	Workers int
}

// Loader discovers and reads Markdown files under a content directory.
type Loader struct {
	extensions map[string]struct{}
	recursive  bool
	workers    int
}

// LoadResult holds the files read in one pass plus the per-file failures.
// Files are ordered by path.
type LoadResult struct {
	Dir    string
	Files  []File
	Issues []error
}

// NewLoader builds a Loader from cfg.
func NewLoader(cfg LoaderConfig) *Loader {
	exts := cfg.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	set := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		set[ext] = struct{}{}
	}

	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}

	return &Loader{
		extensions: set,
		recursive:  cfg.Recursive,
		workers:    workers,
	}
}

// Load reads every matching file under dir. It fails with *NotFoundError only
// when dir itself is unusable; unreadable files land in LoadResult.Issues.
func (l *Loader) Load(ctx context.Context, dir string) (*LoadResult, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, &NotFoundError{Dir: dir, Err: err}
	}
	if !info.IsDir() {
		return nil, &NotFoundError{Dir: dir, Err: errNotDirectory}
	}

	fsys := os.DirFS(dir)
	candidates, issues, err := l.discover(ctx, dir, fsys)
	if err != nil {
		return nil, err
	}

	// WalkDir visits "a/b" before "a-b"; callers rely on plain path order.
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].path < candidates[j].path
	})

	files, readIssues, err := l.readAll(ctx, fsys, candidates)
	if err != nil {
		return nil, err
	}

	return &LoadResult{
		Dir:    dir,
		Files:  files,
		Issues: append(issues, readIssues...),
	}, nil
}

type candidate struct {
	path    string
	modTime time.Time
}

func (l *Loader) discover(ctx context.Context, dir string, fsys fs.FS) ([]candidate, []error, error) {
	var (
		found  []candidate
		issues []error
	)

	walkErr := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == "." {
				return &NotFoundError{Dir: dir, Err: err}
			}
			issues = append(issues, &UnreadableFileError{Path: p, Err: err})
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if d.IsDir() {
			if p == "." {
				return nil
			}
			if !l.recursive || isHidden(d.Name()) {
				return fs.SkipDir
			}
			return nil
		}

		if isHidden(d.Name()) || !l.matches(p) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			issues = append(issues, &UnreadableFileError{Path: p, Err: err})
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		found = append(found, candidate{path: p, modTime: info.ModTime()})
		return nil
	})
	if walkErr != nil {
		return nil, nil, walkErr
	}
	return found, issues, nil
}

func (l *Loader) readAll(ctx context.Context, fsys fs.FS, candidates []candidate) ([]File, []error, error) {
	type slot struct {
		file File
		err  error
	}
	slots := make([]slot, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)
	for i, c := range candidates {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := fs.ReadFile(fsys, c.path)
			if err != nil {
				slots[i].err = &UnreadableFileError{Path: c.path, Err: err}
				return nil
			}
			if !utf8.Valid(data) {
				slots[i].err = &UnreadableFileError{Path: c.path, Err: errInvalidUTF8}
				return nil
			}
			slots[i].file = File{Path: c.path, Data: data, ModTime: c.modTime}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("read content files: %w", err)
	}

	files := make([]File, 0, len(slots))
	var issues []error
	for _, s := range slots {
		if s.err != nil {
			issues = append(issues, s.err)
			continue
		}
		files = append(files, s.file)
	}
	return files, issues, nil
}

func (l *Loader) matches(p string) bool {
	_, ok := l.extensions[strings.ToLower(path.Ext(p))]
	return ok
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}
