package logfields

import (
	"bytes"
	stderrors "errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Phaysik/database-normalizer/internal/foundation/errors"
)

// TestHelperKeyNames guards the keys log queries depend on.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		attr slog.Attr
		key  string
		val  string
	}{
		{RunID("123"), KeyRunID, "123"},
		{Form("3NF"), KeyForm, "3NF"},
		{Stage("parse"), KeyStage, "parse"},
		{SQLFile("a.sql"), KeySQLFile, "a.sql"},
		{DependencyFile("a.txt"), KeyDependencyFile, "a.txt"},
		{Table("students"), KeyTable, "students"},
		{Path("/tmp/x"), KeyPath, "/tmp/x"},
		{Subject("dbnormalizer.runs"), KeySubject, "dbnormalizer.runs"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.key, tc.attr.Key)
		require.Equal(t, tc.val, tc.attr.Value.String())
	}
}

func TestNumericHelpers(t *testing.T) {
	v := Tables(4)
	require.Equal(t, KeyTables, v.Key)
	require.EqualValues(t, 4, v.Value.Int64())

	d := DurationMS(12500 * time.Microsecond)
	require.Equal(t, KeyDurationMS, d.Key)
	require.InDelta(t, 12.5, d.Value.Float64(), 1e-9)
}

func TestErrorHelper(t *testing.T) {
	require.Empty(t, Error(nil).Value.String())
	require.Equal(t, "plain", Error(stderrors.New("plain")).Value.String())

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	err := errors.FileSystemError("File does not exist").WithContext("path", "emp.sql").Build()
	logger.Info("failed", Error(err))

	require.Contains(t, buf.String(), "error.msg=\"File does not exist\"")
	require.Contains(t, buf.String(), "error.category=filesystem")
	require.Contains(t, buf.String(), "error.path=emp.sql")
}
