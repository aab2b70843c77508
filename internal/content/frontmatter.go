package content

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/adrg/frontmatter"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

const (
	formatYAML = "yaml"
	formatTOML = "toml"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// marker describes one recognised front-matter delimiter.
type marker struct {
	name   string
	token  string
	format *frontmatter.Format
}

var markers = []marker{
	{name: formatYAML, token: "---", format: frontmatter.NewFormat("---", "---", yaml.Unmarshal)},
	{name: formatTOML, token: "+++", format: frontmatter.NewFormat("+++", "+++", toml.Unmarshal)},
}

// requiredFields lists the mandatory front-matter keys in report order.
var requiredFields = []string{"title", "description", "pubDate"}

// pubDateLayouts are tried in order. "2" also accepts zero-padded days.
var pubDateLayouts = []string{
	"Jan 2 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2006-01-02",
}

// envelope is the decoded metadata block.
type envelope struct {
	Title       string  `yaml:"title" toml:"title" json:"title"`
	Description string  `yaml:"description" toml:"description" json:"description"`
	PubDate     string  `yaml:"pubDate" toml:"pubDate" json:"pubDate"`
	HeroImage   string  `yaml:"heroImage" toml:"heroImage" json:"heroImage"`
	Tags        tagList `yaml:"tags" toml:"tags" json:"tags"`
}

func (e *envelope) trim() {
	e.Title = strings.TrimSpace(e.Title)
	e.Description = strings.TrimSpace(e.Description)
	e.PubDate = strings.TrimSpace(e.PubDate)
	e.HeroImage = strings.TrimSpace(e.HeroImage)
}

func (e *envelope) validate() error {
	return validation.ValidateStruct(e,
		validation.Field(&e.Title, validation.Required),
		validation.Field(&e.Description, validation.Required),
		validation.Field(&e.PubDate, validation.Required),
	)
}

// tagList accepts either a sequence of strings or a single string.
type tagList []string

func (t *tagList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			*t = nil
			return nil
		}
		*t = tagList{node.Value}
		return nil
	case yaml.SequenceNode:
		var tags []string
		if err := node.Decode(&tags); err != nil {
			return fmt.Errorf("tags: %w", err)
		}
		*t = tags
		return nil
	default:
		return fmt.Errorf("tags: expected a list of strings at line %d", node.Line)
	}
}

func (t *tagList) UnmarshalTOML(data any) error {
	switch v := data.(type) {
	case string:
		*t = tagList{v}
	case []any:
		tags := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return fmt.Errorf("tags: expected string, got %T", item)
			}
			tags = append(tags, s)
		}
		*t = tags
	default:
		return fmt.Errorf("tags: expected a list of strings, got %T", data)
	}
	return nil
}

// File is one raw document handed from the loader to the parser.
type File struct {
	Path    string
	Data    []byte
	ModTime time.Time
}

// Parser turns raw files into Posts.
type Parser struct {
	layouts []string
}

// NewParser returns a parser using the default pubDate layouts.
func NewParser() *Parser {
	return &Parser{layouts: append([]string(nil), pubDateLayouts...)}
}

// Parse validates and converts a single file. Every error it returns is a
// per-file error: *MalformedFrontMatterError, *ValidationError or
// *DateFormatError.
func (p *Parser) Parse(file File) (*Post, error) {
	meta, body, format, err := splitFrontMatter(file.Path, file.Data)
	if err != nil {
		return nil, err
	}

	meta.trim()
	if err := meta.validate(); err != nil {
		return nil, toValidationError(file.Path, err)
	}

	date, err := p.parseDate(meta.PubDate)
	if err != nil {
		return nil, &DateFormatError{Path: file.Path, Value: meta.PubDate, Err: err}
	}

	slug, err := SlugFromPath(file.Path)
	if err != nil {
		return nil, &ValidationError{Path: file.Path, Fields: []string{"slug"}}
	}

	sum := sha256.Sum256(file.Data)
	return &Post{
		Slug:        slug,
		Title:       meta.Title,
		Description: meta.Description,
		PubDate:     date,
		HeroImage:   meta.HeroImage,
		Tags:        uniqueTags(meta.Tags),
		Path:        file.Path,
		Format:      format,
		Checksum:    hex.EncodeToString(sum[:]),
		ModTime:     file.ModTime,
		Body:        body,
	}, nil
}

// splitFrontMatter locates the delimited block of source and decodes it
// with the marker's format. It returns the decoded metadata, the body and the
// format name.
func splitFrontMatter(path string, source []byte) (*envelope, []byte, string, error) {
	source = bytes.TrimPrefix(source, utf8BOM)

	m, block, body, err := splitBlock(path, source)
	if err != nil {
		return nil, nil, "", err
	}

	var meta envelope
	if err := m.format.Unmarshal(block, &meta); err != nil {
		return nil, nil, "", &MalformedFrontMatterError{Path: path, Reason: "cannot decode " + m.name, Err: err}
	}
	return &meta, body, m.name, nil
}

// ParsePubDate parses a pubDate value using the default layouts.
func ParsePubDate(value string) (time.Time, error) {
	return parseDate(pubDateLayouts, value)
}

func (p *Parser) parseDate(value string) (time.Time, error) {
	return parseDate(p.layouts, value)
}

func parseDate(layouts []string, value string) (time.Time, error) {
	value = strings.Join(strings.Fields(value), " ")
	var firstErr error
	for _, layout := range layouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t.UTC(), nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	if firstErr == nil {
		firstErr = errors.New("no date layouts configured")
	}
	return time.Time{}, firstErr
}

// splitBlock requires the opening marker on the first line and the same
// token, unindented, on a later line of its own. Indented lines belong to the
// metadata so YAML block scalars may contain the token.
func splitBlock(path string, source []byte) (marker, []byte, []byte, error) {
	first, rest, _ := bytes.Cut(source, []byte("\n"))
	opening := strings.TrimRight(string(first), " \t\r")

	for _, m := range markers {
		if opening != m.format.Start {
			continue
		}
		start := len(source) - len(rest)
		offset := start
		for offset < len(source) {
			line, tail, _ := bytes.Cut(source[offset:], []byte("\n"))
			next := len(source) - len(tail)
			if strings.TrimRight(string(line), " \t\r") == m.format.End {
				return m, source[start:offset], source[next:], nil
			}
			offset = next
		}
		return marker{}, nil, nil, &MalformedFrontMatterError{Path: path, Reason: "closing " + m.token + " marker not found"}
	}
	return marker{}, nil, nil, &MalformedFrontMatterError{Path: path, Reason: "opening marker not found"}
}

func toValidationError(path string, err error) error {
	var errs validation.Errors
	if !errors.As(err, &errs) {
		return &ValidationError{Path: path, Fields: append([]string(nil), requiredFields...)}
	}

	fields := make([]string, 0, len(errs))
	for _, name := range requiredFields {
		if _, ok := errs[name]; ok {
			fields = append(fields, name)
		}
	}
	return &ValidationError{Path: path, Fields: fields}
}
