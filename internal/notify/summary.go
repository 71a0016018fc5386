// Package notify announces finished runs on NATS.
package notify

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/Phaysik/database-normalizer/internal/history"
)

// Summary is the JSON payload published for each run.
type Summary struct {
	RunID          string    `json:"run_id"`
	Dataset        string    `json:"dataset"`
	Form           string    `json:"form"`
	SQLFile        string    `json:"sql_file"`
	DependencyFile string    `json:"dependency_file"`
	Status         string    `json:"status"`
	Error          string    `json:"error,omitempty"`
	Tables         int       `json:"tables"`
	OutputPath     string    `json:"output_path,omitempty"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
	DurationMS     int64     `json:"duration_ms"`
}

// NewSummary builds the payload for a finished run.
func NewSummary(run *history.Run, outputPath string) Summary {
	return Summary{
		RunID:          run.ID,
		Dataset:        datasetName(run.SQLFile),
		Form:           run.Form,
		SQLFile:        run.SQLFile,
		DependencyFile: run.DependencyFile,
		Status:         string(run.Status),
		Error:          run.Error,
		Tables:         run.Tables,
		OutputPath:     outputPath,
		StartedAt:      run.StartedAt,
		FinishedAt:     run.FinishedAt,
		DurationMS:     run.Duration().Milliseconds(),
	}
}

// Key is the KV key under which the latest summary of a dataset and form
// is stored.
func (s Summary) Key() string {
	return sanitizeKey(s.Dataset + "." + strings.ToLower(s.Form))
}

func datasetName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// sanitizeKey maps characters outside the KV key alphabet to '_'.
func sanitizeKey(key string) string {
	var b strings.Builder
	b.Grow(len(key))
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-', r == '_', r == '.', r == '=', r == '/':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := strings.Trim(b.String(), ".")
	if out == "" {
		return "_"
	}
	return out
}
