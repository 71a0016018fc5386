package metrics

import "time"

// Outcome enumerates run result categories for counters.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailed  Outcome = "failed"
)

// Recorder defines observability hooks for normalization runs. Stages are
// the pipeline steps (see package pipeline).
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveRunDuration(form string, d time.Duration)
	IncRunOutcome(form string, outcome Outcome)
	AddTablesProduced(form string, n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) ObserveRunDuration(string, time.Duration)   {}
func (NoopRecorder) IncRunOutcome(string, Outcome)              {}
func (NoopRecorder) AddTablesProduced(string, int)              {}
