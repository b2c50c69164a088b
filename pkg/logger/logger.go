// Package logger defines the structured logging interface used by the risk
// engine. The production implementation lives in
// internal/infrastructure/monitoring and is backed by zap.
package logger

import "context"

// Fields is a set of key-value pairs attached to a log entry.
type Fields map[string]interface{}

// Logger is the ctx-aware structured logging interface.
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...Fields)
	Info(ctx context.Context, msg string, fields ...Fields)
	Warn(ctx context.Context, msg string, fields ...Fields)
	Error(ctx context.Context, msg string, err error, fields ...Fields)

	// WithFields returns a logger that attaches the fields to every entry.
	WithFields(fields Fields) Logger

	// WithComponent returns a logger tagged with a component name.
	WithComponent(component string) Logger
}
