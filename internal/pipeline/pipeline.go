// Package pipeline runs one dataset through parse, normalize, render and
// write, then records the run in history and metrics and announces it.
package pipeline

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/Phaysik/database-normalizer/internal/batch"
	"github.com/Phaysik/database-normalizer/internal/history"
	"github.com/Phaysik/database-normalizer/internal/logfields"
	"github.com/Phaysik/database-normalizer/internal/metrics"
	"github.com/Phaysik/database-normalizer/internal/normalizer"
	"github.com/Phaysik/database-normalizer/internal/notify"
	"github.com/Phaysik/database-normalizer/internal/output"
	"github.com/Phaysik/database-normalizer/internal/table"
)

// Stage names reported to metrics and logs.
const (
	StageParse     = "parse"
	StageNormalize = "normalize"
	StageRender    = "render"
	StageWrite     = "write"
)

// TextfileWriter exports the metrics registry to a file.
type TextfileWriter interface {
	WriteTextfile(path string) error
}

// Option configures a Runner.
type Option func(*Runner)

// WithOutputDir writes each result to dir. Without it results are only
// returned.
func WithOutputDir(dir string) Option {
	return func(r *Runner) { r.outputDir = dir }
}

// WithHistory records every run in store.
func WithHistory(store history.Store) Option {
	return func(r *Runner) { r.store = store }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(rec metrics.Recorder) Option {
	return func(r *Runner) { r.recorder = rec }
}

// WithTextfile exports metrics to path after each run.
func WithTextfile(w TextfileWriter, path string) Option {
	return func(r *Runner) {
		r.textfile = w
		r.textfilePath = path
	}
}

// WithPublisher announces each finished run.
func WithPublisher(p notify.Publisher) Option {
	return func(r *Runner) { r.publisher = p }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// Runner normalizes datasets to a single form.
type Runner struct {
	form         normalizer.Form
	outputDir    string
	store        history.Store
	recorder     metrics.Recorder
	textfile     TextfileWriter
	textfilePath string
	publisher    notify.Publisher
	logger       *slog.Logger
	now          func() time.Time
}

// New creates a Runner for form.
func New(form normalizer.Form, opts ...Option) *Runner {
	r := &Runner{
		form:      form,
		recorder:  metrics.NoopRecorder{},
		publisher: notify.Noop{},
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Form returns the target form.
func (r *Runner) Form() normalizer.Form { return r.form }

// Outcome is the result of one run.
type Outcome struct {
	Run        *history.Run
	Tables     []*table.Table
	SQL        string
	OutputPath string
}

// TableNames lists the emitted tables in order.
func (o *Outcome) TableNames() []string {
	names := make([]string, 0, len(o.Tables))
	for _, t := range o.Tables {
		names = append(names, t.Name)
	}
	return names
}

// Run normalizes the dataset in sqlFile with the dependencies in depFile.
// The returned Outcome is never nil; its Run records a failure when err is
// non-nil.
func (r *Runner) Run(ctx context.Context, sqlFile, depFile string) (*Outcome, error) {
	form := r.form.String()
	run := history.NewRun(form, sqlFile, depFile, r.now())
	out := &Outcome{Run: run}
	logger := r.logger.With(
		logfields.RunID(run.ID),
		logfields.Form(form),
		logfields.SQLFile(sqlFile),
		logfields.DependencyFile(depFile))
	logger.Info("Normalization started")

	err := r.execute(ctx, logger, out, sqlFile, depFile)
	run.Finish(len(out.Tables), out.SQL, err, r.now())
	r.finish(ctx, logger, out, err)
	return out, err
}

func (r *Runner) execute(ctx context.Context, logger *slog.Logger, out *Outcome, sqlFile, depFile string) error {
	var n *normalizer.Normalizer
	if err := r.stage(ctx, logger, StageParse, func() (err error) {
		n, err = normalizer.FromFiles(r.form, sqlFile, depFile, normalizer.WithLogger(logger))
		return err
	}); err != nil {
		return err
	}

	var tables []*table.Table
	if err := r.stage(ctx, logger, StageNormalize, func() (err error) {
		tables, err = n.Normalize()
		return err
	}); err != nil {
		return err
	}

	if err := r.stage(ctx, logger, StageRender, func() error {
		out.Tables = normalizer.Printable(tables)
		out.SQL = normalizer.Render(out.Tables)
		return nil
	}); err != nil {
		return err
	}

	if r.outputDir == "" {
		return nil
	}
	return r.stage(ctx, logger, StageWrite, func() (err error) {
		out.OutputPath, err = output.Write(r.outputDir, output.ResultName(sqlFile, r.form.String()), out.SQL)
		return err
	})
}

func (r *Runner) stage(ctx context.Context, logger *slog.Logger, name string, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := r.now()
	err := fn()
	d := r.now().Sub(start)
	r.recorder.ObserveStageDuration(name, d)
	logger.Debug("Stage finished",
		logfields.Stage(name),
		logfields.DurationMS(d))
	return err
}

// finish records the run. Failures here are logged and do not change the
// run's outcome.
func (r *Runner) finish(ctx context.Context, logger *slog.Logger, out *Outcome, runErr error) {
	run := out.Run
	form := r.form.String()

	r.recorder.ObserveRunDuration(form, run.Duration())
	if runErr != nil {
		r.recorder.IncRunOutcome(form, metrics.OutcomeFailed)
		logger.Error("Normalization failed", logfields.Error(runErr))
	} else {
		r.recorder.IncRunOutcome(form, metrics.OutcomeSuccess)
		r.recorder.AddTablesProduced(form, len(out.Tables))
		logger.Info("Normalization finished",
			logfields.Tables(len(out.Tables)),
			logfields.Path(out.OutputPath),
			logfields.DurationMS(run.Duration()))
	}

	// Recording uses a fresh context so cancelled runs are still stored.
	bg := context.WithoutCancel(ctx)
	if r.store != nil {
		if err := r.store.Record(bg, run); err != nil {
			logger.Warn("Failed to record run history", logfields.Error(err))
		}
	}
	if err := r.publisher.Publish(bg, notify.NewSummary(run, out.OutputPath)); err != nil {
		logger.Warn("Failed to publish run summary", logfields.Error(err))
	}
	if r.textfile != nil && r.textfilePath != "" {
		if err := r.textfile.WriteTextfile(r.textfilePath); err != nil {
			logger.Warn("Failed to write metrics textfile", logfields.Path(r.textfilePath), logfields.Error(err))
		}
	}
}

// Process adapts Run to batch.Run.
func (r *Runner) Process(ctx context.Context, p batch.Pair) batch.Result {
	out, err := r.Run(ctx, p.SQLFile, p.DependencyFile)
	return batch.Result{
		Pair:   p,
		RunID:  out.Run.ID,
		Output: out.OutputPath,
		Tables: len(out.Tables),
		Err:    err,
	}
}

// Dataset returns the dataset name of a dataset file path.
func Dataset(sqlFile string) string {
	base := filepath.Base(sqlFile)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
