// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

// DefaultFile is the config file looked up when none is given explicitly.
const DefaultFile = "folio.yaml"

// SiteConfig holds the configuration from the folio.yaml file.
type SiteConfig struct {
	Title          string       `yaml:"title"`
	ContentDir     string       `yaml:"content_dir"`
	Extensions     []string     `yaml:"extensions"`
	Recursive      bool         `yaml:"recursive"`
	Workers        int          `yaml:"workers"`
	Output         string       `yaml:"output"`
	ExcerptLength  int          `yaml:"excerpt_length"`
	WordsPerMinute int          `yaml:"words_per_minute"`
	Server         ServerConfig `yaml:"server"`
	Log            LogConfig    `yaml:"log"`
}

// ServerConfig configures `folio serve`.
type ServerConfig struct {
	Port     int `yaml:"port"`
	Debounce int `yaml:"debounce_ms"`
}

// LogConfig selects the logger backend.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file overrides it.
func Default() SiteConfig {
	return SiteConfig{
		Title:          "My Blog",
		ContentDir:     "content",
		Extensions:     []string{".md"},
		Workers:        4,
		Output:         "public/index.json",
		ExcerptLength:  200,
		WordsPerMinute: 200,
		Server: ServerConfig{
			Port:     1313,
			Debounce: 300,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadSiteConfig reads path on top of Default. When optional is true a missing
// file yields the defaults instead of an error.
func LoadSiteConfig(path string, optional bool) (SiteConfig, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return SiteConfig{}, fmt.Errorf("could not read config file at %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return SiteConfig{}, fmt.Errorf("could not parse config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return SiteConfig{}, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges and enumerations.
func (c SiteConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.ContentDir, validation.Required),
		validation.Field(&c.Workers, validation.Min(1)),
		validation.Field(&c.ExcerptLength, validation.Min(0)),
		validation.Field(&c.WordsPerMinute, validation.Min(1)),
		validation.Field(&c.Extensions, validation.Each(validation.By(dotPrefixed))),
		validation.Field(&c.Server),
		validation.Field(&c.Log),
	)
}

// Validate implements validation.Validatable.
func (s ServerConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Port, validation.Min(0), validation.Max(65535)),
		validation.Field(&s.Debounce, validation.Min(0)),
	)
}

// Validate implements validation.Validatable.
func (l LogConfig) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Level, validation.In("", "trace", "debug", "info", "warn", "warning", "error", "fatal")),
		validation.Field(&l.Format, validation.In("", "console", "json", "pretty")),
	)
}

func dotPrefixed(value any) error {
	ext, _ := value.(string)
	if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
		return validation.NewError("config.extension_invalid", "must start with a dot, e.g. .md")
	}
	return nil
}
