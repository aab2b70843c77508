package logging

import (
	"context"
	"fmt"
	"io"
	"maps"
	"strings"

	glog "github.com/goliatone/go-logger/glog"
)

// Options selects and configures a backend for New.
type Options struct {
	Level     string
	Format    string
	AddSource bool
	Writer    io.Writer
}

// New builds the provider for opts.Format. "console" (or empty) writes plain
// lines to opts.Writer; "json" and "pretty" are handled by go-logger.
func New(opts Options) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "", "console":
		return NewConsoleProvider(ConsoleOptions{
			Writer:   opts.Writer,
			MinLevel: ParseLevel(opts.Level),
		}), nil
	case "json", "pretty":
		return NewGlogProvider(opts)
	default:
		return nil, fmt.Errorf("logging: unsupported format %q", opts.Format)
	}
}

// GlogProvider wraps a go-logger root logger.
type GlogProvider struct {
	root *glog.BaseLogger
}

// NewGlogProvider constructs a go-logger backed provider.
func NewGlogProvider(opts Options) (*GlogProvider, error) {
	options := []glog.Option{}

	if level := glogLevel(opts.Level); level != "" {
		options = append(options, glog.WithLevel(level))
	}

	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "", "json":
		options = append(options, glog.WithLoggerTypeJSON())
	case "pretty":
		options = append(options, glog.WithLoggerTypePretty())
	case "console":
		options = append(options, glog.WithLoggerTypeConsole())
	default:
		return nil, fmt.Errorf("logging: unsupported go-logger format %q", opts.Format)
	}

	if opts.AddSource {
		options = append(options, glog.WithAddSource(true))
	}

	return &GlogProvider{root: glog.NewLogger(options...)}, nil
}

// GetLogger returns a named child of the root logger.
func (p *GlogProvider) GetLogger(name string) Logger {
	if p == nil || p.root == nil {
		return NoOp()
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return wrapGlog(p.root)
	}
	return wrapGlog(p.root.GetLogger(name))
}

func wrapGlog(inner glog.Logger) Logger {
	if inner == nil {
		return NoOp()
	}
	return &glogAdapter{inner: inner}
}

type glogAdapter struct {
	inner glog.Logger
}

var (
	_ Logger       = (*glogAdapter)(nil)
	_ FieldsLogger = (*glogAdapter)(nil)
)

func (l *glogAdapter) Trace(msg string, args ...any) { l.inner.Trace(msg, args...) }
func (l *glogAdapter) Debug(msg string, args ...any) { l.inner.Debug(msg, args...) }
func (l *glogAdapter) Info(msg string, args ...any)  { l.inner.Info(msg, args...) }
func (l *glogAdapter) Warn(msg string, args ...any)  { l.inner.Warn(msg, args...) }
func (l *glogAdapter) Error(msg string, args ...any) { l.inner.Error(msg, args...) }
func (l *glogAdapter) Fatal(msg string, args ...any) { l.inner.Fatal(msg, args...) }

func (l *glogAdapter) WithFields(fields map[string]any) Logger {
	if len(fields) == 0 {
		return l
	}
	if with, ok := l.inner.(glog.FieldsLogger); ok {
		copied := make(map[string]any, len(fields))
		maps.Copy(copied, fields)
		return wrapGlog(with.WithFields(copied))
	}
	return l
}

func (l *glogAdapter) WithContext(ctx context.Context) Logger {
	if ctx == nil {
		return l
	}
	return wrapGlog(l.inner.WithContext(ctx))
}

func glogLevel(level string) string {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return glog.Trace
	case "debug":
		return glog.Debug
	case "info":
		return glog.Info
	case "warn", "warning":
		return glog.Warn
	case "error":
		return glog.Error
	case "fatal":
		return glog.Fatal
	default:
		return ""
	}
}
