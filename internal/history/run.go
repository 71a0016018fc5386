// Package history keeps a local record of normalization runs.
package history

import (
	"time"

	"github.com/google/uuid"
)

// Status is the final state of a run.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Run describes one normalization of a dataset.
type Run struct {
	ID             string
	Form           string
	SQLFile        string
	DependencyFile string
	Tables         int
	Status         Status
	Error          string
	Output         string
	StartedAt      time.Time
	FinishedAt     time.Time
}

// NewRun starts a run with a fresh ID.
func NewRun(form, sqlFile, dependencyFile string, startedAt time.Time) *Run {
	return &Run{
		ID:             uuid.NewString(),
		Form:           form,
		SQLFile:        sqlFile,
		DependencyFile: dependencyFile,
		StartedAt:      startedAt.UTC(),
	}
}

// Finish records the outcome. A non-nil err marks the run failed.
func (r *Run) Finish(tables int, output string, err error, finishedAt time.Time) {
	r.Tables = tables
	r.Output = output
	r.FinishedAt = finishedAt.UTC()
	r.Status = StatusSuccess
	r.Error = ""
	if err != nil {
		r.Status = StatusFailed
		r.Error = err.Error()
	}
}

// Duration is the wall time between start and finish.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
