package odm

import (
	"regexp"
	"strconv"
	"unicode/utf8"
)

type checkConfig struct {
	allowNil   bool
	minimum    int
	maximum    int
	hasMinimum bool
	hasMaximum bool
}

// CheckOption adjusts a single expectation check.
type CheckOption func(*checkConfig)

// AllowNil makes the check pass when the checked value is null, regardless of
// the check's polarity.
func AllowNil() CheckOption {
	return func(cfg *checkConfig) {
		cfg.allowNil = true
	}
}

// WithMinimum sets the lower bound for a length check.
func WithMinimum(n int) CheckOption {
	return func(cfg *checkConfig) {
		cfg.minimum = n
		cfg.hasMinimum = true
	}
}

// WithMaximum sets the upper bound for a length check.
func WithMaximum(n int) CheckOption {
	return func(cfg *checkConfig) {
		cfg.maximum = n
		cfg.hasMaximum = true
	}
}

// WithRange sets both bounds for a length check.
func WithRange(minimum int, maximum int) CheckOption {
	return func(cfg *checkConfig) {
		cfg.minimum = minimum
		cfg.maximum = maximum
		cfg.hasMinimum = true
		cfg.hasMaximum = true
	}
}

// Expectation evaluates checks against document values and appends failures
// to its ErrorCollector. Each check appends at most one entry, and every
// check of a validation pass runs regardless of earlier failures, so the
// collector accumulates all of them.
type Expectation struct {
	errs *ErrorCollector
}

// NewExpectation binds a new expectation engine to the given collector.
func NewExpectation(errs *ErrorCollector) *Expectation {
	if errs == nil {
		errs = NewErrorCollector()
	}

	return &Expectation{errs: errs}
}

// Errors exposes the bound collector, for recording failures the predefined
// checks cannot express.
func (e *Expectation) Errors() *ErrorCollector {
	return e.errs
}

// Present fails when the value is null, an empty string, or an empty
// container.
func (e *Expectation) Present(field string, value Value, message string) {
	if isBlank(value) {
		e.errs.Append(field, message)
	}
}

// Absent fails when the value is anything but null, an empty string, or an
// empty container.
func (e *Expectation) Absent(field string, value Value, message string) {
	if !isBlank(value) {
		e.errs.Append(field, message)
	}
}

// True fails when the value is not boolean true.
func (e *Expectation) True(field string, value Value, message string) {
	if value.kind != KindBool || !value.boolean {
		e.errs.Append(field, message)
	}
}

// False fails when the value is not boolean false.
func (e *Expectation) False(field string, value Value, message string) {
	if value.kind != KindBool || value.boolean {
		e.errs.Append(field, message)
	}
}

// Numeric fails when the value is neither a number nor a string parseable as
// one. AllowNil makes null pass.
func (e *Expectation) Numeric(field string, value Value, message string, options ...CheckOption) {
	cfg := applyCheckOptions(options)

	if cfg.allowNil && value.IsNull() {
		return
	}
	if !isNumeric(value) {
		e.errs.Append(field, message)
	}
}

// NotNumeric fails when the value is a number or a string parseable as one.
// AllowNil makes null pass, same as for Numeric.
func (e *Expectation) NotNumeric(field string, value Value, message string, options ...CheckOption) {
	cfg := applyCheckOptions(options)

	if cfg.allowNil && value.IsNull() {
		return
	}
	if isNumeric(value) {
		e.errs.Append(field, message)
	}
}

// Match fails when the value is not a string matching the pattern. AllowNil
// makes null pass.
func (e *Expectation) Match(field string, value Value, pattern *regexp.Regexp, message string, options ...CheckOption) {
	cfg := applyCheckOptions(options)

	if cfg.allowNil && value.IsNull() {
		return
	}
	if value.kind != KindString || !pattern.MatchString(value.str) {
		e.errs.Append(field, message)
	}
}

// NoMatch fails when the value is a string matching the pattern. AllowNil
// makes null pass, same as for Match.
func (e *Expectation) NoMatch(field string, value Value, pattern *regexp.Regexp, message string, options ...CheckOption) {
	cfg := applyCheckOptions(options)

	if cfg.allowNil && value.IsNull() {
		return
	}
	if value.kind == KindString && pattern.MatchString(value.str) {
		e.errs.Append(field, message)
	}
}

// Length fails when the value's length falls outside the configured bounds,
// supplied via WithMinimum, WithMaximum, or WithRange. Strings measure in
// runes, lists in elements, mappings in fields. Values without a length
// always fail; AllowNil makes null pass.
func (e *Expectation) Length(field string, value Value, message string, options ...CheckOption) {
	cfg := applyCheckOptions(options)

	if cfg.allowNil && value.IsNull() {
		return
	}

	length, measurable := lengthOf(value)
	if !measurable {
		e.errs.Append(field, message)
		return
	}

	if cfg.hasMinimum && length < cfg.minimum {
		e.errs.Append(field, message)
		return
	}
	if cfg.hasMaximum && length > cfg.maximum {
		e.errs.Append(field, message)
	}
}

func applyCheckOptions(options []CheckOption) checkConfig {
	cfg := checkConfig{}
	for _, option := range options {
		option(&cfg)
	}

	return cfg
}

func isBlank(v Value) bool {
	switch v.kind {
	case KindNull:
		return true
	case KindString:
		return v.str == ""
	case KindList:
		return len(v.list) == 0
	case KindMapping:
		return len(v.mapping) == 0
	default:
		return false
	}
}

func isNumeric(v Value) bool {
	switch v.kind {
	case KindNumber:
		return true
	case KindString:
		_, err := strconv.ParseFloat(v.str, 64)
		return err == nil
	default:
		return false
	}
}

func lengthOf(v Value) (int, bool) {
	switch v.kind {
	case KindString:
		return utf8.RuneCountInString(v.str), true
	case KindList:
		return len(v.list), true
	case KindMapping:
		return len(v.mapping), true
	default:
		return 0, false
	}
}
