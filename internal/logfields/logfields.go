// Package logfields holds the attribute keys every dbnormalizer log line
// shares, so runs can be correlated across parse, normalize and notify.
package logfields

import (
	"log/slog"
	"time"

	"github.com/Phaysik/database-normalizer/internal/foundation/errors"
)

const (
	KeyRunID          = "run_id"
	KeyForm           = "form"
	KeyStage          = "stage"
	KeyDurationMS     = "duration_ms"
	KeySQLFile        = "sql_file"
	KeyDependencyFile = "dependency_file"
	KeyTable          = "table"
	KeyTables         = "tables"
	KeyPath           = "path"
	KeySubject        = "subject"
	KeyError          = "error"
)

func RunID(id string) slog.Attr         { return slog.String(KeyRunID, id) }
func Form(f string) slog.Attr           { return slog.String(KeyForm, f) }
func Stage(name string) slog.Attr       { return slog.String(KeyStage, name) }
func SQLFile(p string) slog.Attr        { return slog.String(KeySQLFile, p) }
func DependencyFile(p string) slog.Attr { return slog.String(KeyDependencyFile, p) }
func Table(name string) slog.Attr       { return slog.String(KeyTable, name) }
func Tables(n int) slog.Attr            { return slog.Int(KeyTables, n) }
func Path(p string) slog.Attr           { return slog.String(KeyPath, p) }
func Subject(s string) slog.Attr        { return slog.String(KeySubject, s) }

// DurationMS reports d in fractional milliseconds.
func DurationMS(d time.Duration) slog.Attr {
	return slog.Float64(KeyDurationMS, float64(d.Microseconds())/1000)
}

// Error logs classified errors as a group carrying their category and
// context; other errors as their message.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	if classified, ok := errors.AsClassified(err); ok {
		return slog.Any(KeyError, classified)
	}
	return slog.String(KeyError, err.Error())
}
