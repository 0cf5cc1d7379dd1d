package postgresengine

import (
	"github.com/AntonStoeckl/schemaless-documents-odm-go/odm"
)

// Option defines a functional option for configuring the Engine.
type Option func(*Engine) error

// WithTablePrefix sets a prefix that is prepended to every collection's table
// name, so multiple deployments can share one database schema.
func WithTablePrefix(prefix string) Option {
	return func(e *Engine) error {
		e.tablePrefix = prefix
		return nil
	}
}

// WithLogger sets the logger for the Engine.
// The logger will receive messages at different levels based on the logger's configured level:
//
// Debug level: SQL queries with execution timing (development use)
// Info level: Unique constraint violations (production-safe)
// Warn level: Non-critical issues like cleanup failures
// Error level: Critical failures that cause operation failures.
func WithLogger(logger odm.Logger) Option {
	return func(e *Engine) error {
		e.logger = logger
		return nil
	}
}

// WithContextualLogger sets the contextual logger for the Engine.
// The contextual logger will receive the same log messages together with the
// operation context, enabling automatic trace/span correlation when the
// logging backend supports it.
func WithContextualLogger(logger odm.ContextualLogger) Option {
	return func(e *Engine) error {
		e.contextualLogger = logger
		return nil
	}
}
