// Package logging provides the leveled logger used across folio. The
// contract mirrors github.com/goliatone/go-logger so its glog backend plugs in
// without adapters beyond field handling.
package logging

import (
	"context"
	"maps"
)

// Logger is a leveled, structured logger. Args are alternating key/value pairs.
type Logger interface {
	Trace(msg string, args ...any)
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	Fatal(msg string, args ...any)
	WithContext(ctx context.Context) Logger
}

// Provider hands out named loggers.
type Provider interface {
	GetLogger(name string) Logger
}

// FieldsLogger is implemented by loggers that can carry persistent fields.
type FieldsLogger interface {
	WithFields(fields map[string]any) Logger
}

// ModuleLogger returns the logger for module, annotated with a module field.
// A nil provider yields NoOp.
func ModuleLogger(provider Provider, module string) Logger {
	if module == "" {
		module = "folio"
	}
	var logger Logger = NoOp()
	if provider != nil {
		if l := provider.GetLogger(module); l != nil {
			logger = l
		}
	}
	return WithFields(logger, map[string]any{"module": module})
}

// WithFields attaches fields when logger supports them.
func WithFields(logger Logger, fields map[string]any) Logger {
	if logger == nil || len(fields) == 0 {
		return logger
	}
	if fl, ok := logger.(FieldsLogger); ok {
		copied := make(map[string]any, len(fields))
		maps.Copy(copied, fields)
		return fl.WithFields(copied)
	}
	return logger
}

// NoOp returns a logger that drops everything.
func NoOp() Logger {
	return noopLogger{}
}

type noopLogger struct{}

var _ Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) Logger   { return n }
func (n noopLogger) WithContext(context.Context) Logger { return n }
