// internal/scaffold/scaffold.go
package scaffold

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"text/template"
	"time"

	"github.com/goliatone/go-slug"

	"github.com/Hermanowicz/hermanowicz.co/internal/config"
)

// DateLayout is the pubDate format written into new posts.
const DateLayout = "Jan 02 2006"

// ArchetypeFile is the post template looked up next to the content directory.
var ArchetypeFile = filepath.Join("archetypes", "post.md")

// CreateNewSite lays out a folio site in dir: config, archetype and a sample
// post. Existing files are left untouched and reported as an error.
func CreateNewSite(dir string, now time.Time) ([]string, error) {
	mkdir := func(path string) error { return os.MkdirAll(filepath.Join(dir, path), 0o755) }
	for _, d := range []string{"content", "archetypes"} {
		if err := mkdir(d); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", d, err)
		}
	}

	sample, err := renderArchetype(archetypePostContent, archetypeData{
		Title:       "Hello, folio",
		Description: "The first post of a new folio site.",
		PubDate:     now.Format(DateLayout),
		Tags:        []string{"meta"},
	})
	if err != nil {
		return nil, err
	}

	files := []struct {
		path    string
		content []byte
	}{
		{config.DefaultFile, []byte(siteConfigContent)},
		{ArchetypeFile, []byte(archetypePostContent)},
		{filepath.Join("content", "hello-folio.md"), append(sample, []byte(samplePostBody)...)},
	}

	created := make([]string, 0, len(files))
	for _, f := range files {
		path := filepath.Join(dir, f.path)
		if err := writeNew(path, f.content); err != nil {
			return created, fmt.Errorf("failed to write file %s: %w", f.path, err)
		}
		created = append(created, path)
	}
	return created, nil
}

// CreateNewPost writes <slug>.md under contentDir with a front-matter block
// dated now. It refuses to overwrite an existing post.
func CreateNewPost(contentDir, title string, now time.Time) (string, error) {
	name, err := slug.Normalize(title)
	if err != nil {
		return "", fmt.Errorf("could not derive file name from %q: %w", title, err)
	}
	if name == "" {
		return "", fmt.Errorf("could not derive file name from %q", title)
	}

	archetype := archetypePostContent
	archetypePath := filepath.Join(filepath.Dir(filepath.Clean(contentDir)), ArchetypeFile)
	if data, err := os.ReadFile(archetypePath); err == nil {
		archetype = string(data)
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("could not read archetype file %s: %w", archetypePath, err)
	}

	out, err := renderArchetype(archetype, archetypeData{
		Title:   title,
		PubDate: now.Format(DateLayout),
	})
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(contentDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(contentDir, name+".md")
	if err := writeNew(path, out); err != nil {
		return "", err
	}
	return path, nil
}

type archetypeData struct {
	Title       string
	Description string
	PubDate     string
	Tags        []string
}

func renderArchetype(src string, data archetypeData) ([]byte, error) {
	tmpl, err := template.New("archetype").
		Funcs(template.FuncMap{"quote": strconv.Quote}).
		Parse(src)
	if err != nil {
		return nil, fmt.Errorf("failed to parse archetype: %w", err)
	}

	var output bytes.Buffer
	if err := tmpl.Execute(&output, data); err != nil {
		return nil, fmt.Errorf("failed to execute archetype template: %w", err)
	}
	return output.Bytes(), nil
}

// writeNew creates path and fails if it already exists.
func writeNew(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

const siteConfigContent = `title: My Blog
content_dir: content
extensions: [".md"]
recursive: false
workers: 4
output: public/index.json
excerpt_length: 200
words_per_minute: 200
server:
  port: 1313
  debounce_ms: 300
log:
  level: info
  format: console
`

const archetypePostContent = `---
title: {{ quote .Title }}
description: {{ quote .Description }}
pubDate: {{ quote .PubDate }}
tags: [{{ range $i, $t := .Tags }}{{ if $i }}, {{ end }}{{ quote $t }}{{ end }}]
---
`

const samplePostBody = `
Welcome to your new site. Everything above the more marker becomes the excerpt.

<!--more-->

## Next steps

Run ` + "`folio serve`" + ` and edit this file.
`
