package errors

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "nil error", err: nil, expected: 0},
		{name: "validation", err: ValidationError("unknown form").Build(), expected: 2},
		{name: "syntax", err: SyntaxError("bad dataset").Build(), expected: 3},
		{name: "config", err: ConfigError("bad config").Build(), expected: 7},
		{name: "notify", err: NotifyError("broker down").Build(), expected: 8},
		{name: "filesystem", err: FileSystemError("File does not exist").Build(), expected: 11},
		{name: "normalize", err: NormalizeError("missing column").Build(), expected: 11},
		{name: "storage", err: StorageError("insert failed").Build(), expected: 12},
		{name: "runtime", err: RuntimeError("watch failed").Build(), expected: 12},
		{name: "internal", err: InternalError("bug").Build(), expected: 10},
		{name: "unknown category", err: NewError("other", "x").Build(), expected: 1},
		{name: "unclassified error", err: errors.New("unknown error"), expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, adapter.ExitCodeFor(tt.err))
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	quiet := NewCLIErrorAdapter(false, slog.Default())
	verbose := NewCLIErrorAdapter(true, slog.Default())

	cause := errors.New("On line number 2 there was an unknown token")
	syntax := WrapError(cause, CategorySyntax, "dataset.sql is malformed").UserAction().Build()
	storage := WrapError(errors.New("disk I/O error"), CategoryStorage, "could not record run").Build()

	require.Empty(t, quiet.FormatError(nil))
	require.Equal(t, "Error: dataset.sql is malformed\nOn line number 2 there was an unknown token", quiet.FormatError(syntax))
	require.Equal(t, "Error: could not record run", quiet.FormatError(storage))
	require.Equal(t, "Error: unknown error", quiet.FormatError(errors.New("unknown error")))

	require.Equal(t, "[storage:error] could not record run: disk I/O error", verbose.FormatError(storage))
}

func TestCLIErrorAdapter_HandleError(t *testing.T) {
	var logs, stderr bytes.Buffer
	a := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(&logs, nil)))
	a.stderr = &stderr
	code := -1
	a.exit = func(c int) { code = c }

	a.HandleError(nil)
	require.Equal(t, -1, code)

	a.HandleError(ConfigError("configuration file not found").WithContext("path", "x.yaml").Build())
	require.Equal(t, 7, code)
	require.Equal(t, "Error: configuration file not found\n", stderr.String())
	require.Contains(t, logs.String(), "context.path=x.yaml")

	// Non-fatal classified errors are not logged in quiet mode.
	logs.Reset()
	a.HandleError(StorageError("insert failed").Build())
	require.Equal(t, 12, code)
	require.Empty(t, logs.String())
}
