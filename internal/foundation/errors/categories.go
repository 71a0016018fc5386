package errors

import (
	"log/slog"
	"maps"
	"slices"
)

// ErrorCategory says which part of a run failed. It decides the exit code.
type ErrorCategory string

const (
	// CategoryConfig covers dbnormalizer.yaml and .env problems.
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"
	// CategorySyntax covers malformed dataset and dependency files.
	CategorySyntax ErrorCategory = "syntax"

	CategoryFileSystem ErrorCategory = "filesystem"
	CategoryNormalize  ErrorCategory = "normalize"
	CategoryStorage    ErrorCategory = "storage"

	// CategoryNotify covers failures talking to NATS.
	CategoryNotify ErrorCategory = "notify"

	CategoryRuntime  ErrorCategory = "runtime"
	CategoryInternal ErrorCategory = "internal"
)

var exitCodes = map[ErrorCategory]int{
	CategoryValidation: 2,
	CategorySyntax:     3,
	CategoryConfig:     7,
	CategoryNotify:     8,
	CategoryInternal:   10,
	CategoryFileSystem: 11,
	CategoryNormalize:  11,
	CategoryStorage:    12,
	CategoryRuntime:    12,
}

// ExitCode is the process exit status for errors of this category. Unknown
// categories exit with 1.
func (c ErrorCategory) ExitCode() int {
	if code, ok := exitCodes[c]; ok {
		return code
	}
	return 1
}

// ErrorSeverity indicates the impact level of an error.
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops the command
	SeverityError   ErrorSeverity = "error"   // Fails the current dataset
	SeverityWarning ErrorSeverity = "warning" // The run result still stands
)

// Level maps the severity onto a slog level.
func (s ErrorSeverity) Level() slog.Level {
	if s == SeverityWarning {
		return slog.LevelWarn
	}
	return slog.LevelError
}

// RetryStrategy tells the caller whether repeating the operation can help.
type RetryStrategy string

const (
	RetryNever      RetryStrategy = "never"
	RetryBackoff    RetryStrategy = "backoff"
	RetryUserAction RetryStrategy = "user" // Fix the input, then re-run
)

// ErrorContext carries structured details such as the offending path.
// It is never modified in place once attached to an error.
type ErrorContext map[string]any

// With returns a copy of c with key set to value.
func (c ErrorContext) With(key string, value any) ErrorContext {
	out := make(ErrorContext, len(c)+1)
	maps.Copy(out, c)
	out[key] = value
	return out
}

// Get retrieves a context value.
func (c ErrorContext) Get(key string) (any, bool) {
	value, ok := c[key]
	return value, ok
}

// GetString retrieves a string context value.
func (c ErrorContext) GetString(key string) (string, bool) {
	s, ok := c[key].(string)
	return s, ok
}

// Attrs returns the context as slog attributes sorted by key.
func (c ErrorContext) Attrs() []slog.Attr {
	attrs := make([]slog.Attr, 0, len(c))
	for _, k := range slices.Sorted(maps.Keys(c)) {
		attrs = append(attrs, slog.Any(k, c[k]))
	}
	return attrs
}
