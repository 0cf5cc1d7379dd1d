package testdoubles

import (
	"context"
	"log/slog"
	"os"
	"sync"
)

// LogHandlerSpy is a slog.Handler implementation that captures log records for testing.
type LogHandlerSpy struct {
	records     []slog.Record
	mu          sync.Mutex
	logToStdout bool
}

// NewLogHandlerSpy creates a new LogHandlerSpy
// Switchable to log to stdout, which can be useful for debugging tests by seeing the actual log output.
func NewLogHandlerSpy(logToStdOut bool) *LogHandlerSpy {
	return &LogHandlerSpy{
		records:     make([]slog.Record, 0),
		logToStdout: logToStdOut,
	}
}

// Handle implements slog.Handler interface.
func (s *LogHandlerSpy) Handle(ctx context.Context, record slog.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)

	// Optionally also log to stdout for debugging
	if s.logToStdout {
		jsonHandler := slog.NewJSONHandler(os.Stdout, nil)
		_ = jsonHandler.Handle(ctx, record)
	}

	return nil
}

// Enabled implements slog.Handler interface.
func (s *LogHandlerSpy) Enabled(_ context.Context, _ slog.Level) bool {
	return true // Always enabled for testing
}

// WithAttrs implements slog.Handler interface.
func (s *LogHandlerSpy) WithAttrs(_ []slog.Attr) slog.Handler {
	// For testing, we don't need to implement this
	return s
}

// WithGroup implements slog.Handler interface.
func (s *LogHandlerSpy) WithGroup(_ string) slog.Handler {
	// For testing, we don't need to implement this
	return s
}

// GetRecordCount returns the number of captured log records.
func (s *LogHandlerSpy) GetRecordCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.records)
}

// GetRecords returns a copy of all captured log records.
func (s *LogHandlerSpy) GetRecords() []slog.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := make([]slog.Record, len(s.records))
	copy(records, s.records)

	return records
}

// Reset clears all captured log records.
func (s *LogHandlerSpy) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = s.records[:0]
}

// HasDebugLog checks if there's a debug-level log record containing the specified message.
func (s *LogHandlerSpy) HasDebugLog(message string) bool {
	return s.hasLog(slog.LevelDebug, message)
}

// HasInfoLog checks if there's an info-level log record containing the specified message.
func (s *LogHandlerSpy) HasInfoLog(message string) bool {
	return s.hasLog(slog.LevelInfo, message)
}

// HasWarnLog checks if there's a warn-level log record containing the specified message.
func (s *LogHandlerSpy) HasWarnLog(message string) bool {
	return s.hasLog(slog.LevelWarn, message)
}

// HasErrorLog checks if there's an error-level log record containing the specified message.
func (s *LogHandlerSpy) HasErrorLog(message string) bool {
	return s.hasLog(slog.LevelError, message)
}

func (s *LogHandlerSpy) hasLog(level slog.Level, message string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, record := range s.records {
		if record.Level == level && record.Message == message {
			return true
		}
	}

	return false
}

// SpyLogRecordMatcher provides a fluent interface for checking log record attributes.
type SpyLogRecordMatcher struct {
	handler *LogHandlerSpy
	record  *slog.Record
	found   bool
}

// HasDebugLogWithMessage starts a fluent chain to check a debug-level log record.
func (s *LogHandlerSpy) HasDebugLogWithMessage(message string) *SpyLogRecordMatcher {
	return s.matcherFor(slog.LevelDebug, message)
}

// HasInfoLogWithMessage starts a fluent chain to check an info-level log record.
func (s *LogHandlerSpy) HasInfoLogWithMessage(message string) *SpyLogRecordMatcher {
	return s.matcherFor(slog.LevelInfo, message)
}

// HasWarnLogWithMessage starts a fluent chain to check a warn-level log record.
func (s *LogHandlerSpy) HasWarnLogWithMessage(message string) *SpyLogRecordMatcher {
	return s.matcherFor(slog.LevelWarn, message)
}

// HasErrorLogWithMessage starts a fluent chain to check an error-level log record.
func (s *LogHandlerSpy) HasErrorLogWithMessage(message string) *SpyLogRecordMatcher {
	return s.matcherFor(slog.LevelError, message)
}

func (s *LogHandlerSpy) matcherFor(level slog.Level, message string) *SpyLogRecordMatcher {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, record := range s.records {
		if record.Level == level && record.Message == message {
			return &SpyLogRecordMatcher{
				handler: s,
				record:  &record,
				found:   true,
			}
		}
	}

	return &SpyLogRecordMatcher{handler: s, found: false}
}

// WithDurationMS checks that the record has a duration_ms attribute with a non-negative value.
// Handles both int64 and float64 duration values.
func (m *SpyLogRecordMatcher) WithDurationMS() *SpyLogRecordMatcher {
	if !m.found || m.record == nil {
		return m
	}

	hasDuration := false
	m.record.Attrs(func(attr slog.Attr) bool {
		if attr.Key == "duration_ms" {
			switch attr.Value.Kind() {
			case slog.KindInt64:
				if attr.Value.Int64() >= 0 {
					hasDuration = true
				}
			case slog.KindFloat64:
				if attr.Value.Float64() >= 0 {
					hasDuration = true
				}
			default:
				// Other kinds do not qualify as a duration value
			}

			return false // Stop iteration
		}

		return true // Continue iteration
	})

	if !hasDuration {
		m.found = false
	}

	return m
}

// WithCollection checks that the record has a collection attribute with the given value.
func (m *SpyLogRecordMatcher) WithCollection(name string) *SpyLogRecordMatcher {
	return m.withStringAttr("collection", name)
}

// WithDocumentID checks that the record has a document_id attribute with the given value.
func (m *SpyLogRecordMatcher) WithDocumentID(id string) *SpyLogRecordMatcher {
	return m.withStringAttr("document_id", id)
}

// WithAnyDocumentID checks that the record has a non-empty document_id attribute.
func (m *SpyLogRecordMatcher) WithAnyDocumentID() *SpyLogRecordMatcher {
	if !m.found || m.record == nil {
		return m
	}

	hasID := false
	m.record.Attrs(func(attr slog.Attr) bool {
		if attr.Key == "document_id" && attr.Value.String() != "" {
			hasID = true
			return false // Stop iteration
		}

		return true // Continue iteration
	})

	if !hasID {
		m.found = false
	}

	return m
}

// WithDocumentCount checks that the record has a document_count attribute with the expected value.
func (m *SpyLogRecordMatcher) WithDocumentCount(expected int64) *SpyLogRecordMatcher {
	return m.withInt64Attr("document_count", expected)
}

// WithErrorCount checks that the record has an error_count attribute with the expected value.
func (m *SpyLogRecordMatcher) WithErrorCount(expected int64) *SpyLogRecordMatcher {
	return m.withInt64Attr("error_count", expected)
}

// WithOperation checks that the record has an operation attribute with the given value.
func (m *SpyLogRecordMatcher) WithOperation(operation string) *SpyLogRecordMatcher {
	return m.withStringAttr("operation", operation)
}

func (m *SpyLogRecordMatcher) withStringAttr(key, expected string) *SpyLogRecordMatcher {
	if !m.found || m.record == nil {
		return m
	}

	hasAttr := false
	m.record.Attrs(func(attr slog.Attr) bool {
		if attr.Key == key && attr.Value.String() == expected {
			hasAttr = true
			return false // Stop iteration
		}

		return true // Continue iteration
	})

	if !hasAttr {
		m.found = false
	}

	return m
}

func (m *SpyLogRecordMatcher) withInt64Attr(key string, expected int64) *SpyLogRecordMatcher {
	if !m.found || m.record == nil {
		return m
	}

	hasAttr := false
	m.record.Attrs(func(attr slog.Attr) bool {
		if attr.Key != key {
			return true // Continue iteration
		}

		switch attr.Value.Kind() {
		case slog.KindInt64:
			if attr.Value.Int64() == expected {
				hasAttr = true
			}
		case slog.KindUint64:
			if attr.Value.Uint64() == uint64(expected) {
				hasAttr = true
			}
		default:
			// Other kinds do not qualify as a count value
		}

		return false // Stop iteration
	})

	if !hasAttr {
		m.found = false
	}

	return m
}

// Assert returns true if all conditions in the fluent chain were met.
func (m *SpyLogRecordMatcher) Assert() bool {
	return m.found
}

// Compile-time check to ensure LogHandlerSpy implements slog.Handler interface.
var _ slog.Handler = (*LogHandlerSpy)(nil)
