// Package testdoubles provides test doubles (spies) for observability interfaces.
//
// This package contains spy implementations for the dependency-free observability
// interfaces used by the repository:
//   - MetricsCollectorSpy: captures metrics recording calls for verification
//   - ContextualMetricsCollectorSpy: captures context-aware metrics calls
//   - TracingCollectorSpy: captures distributed tracing spans and attributes
//   - ContextualLoggerSpy: captures structured logging with context
//   - LogHandlerSpy: captures slog handler calls and attributes
//
// These test doubles enable comprehensive testing of observability instrumentation
// without requiring actual telemetry backends.
package testdoubles
