package commands

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"github.com/Phaysik/database-normalizer/internal/config"
	"github.com/Phaysik/database-normalizer/internal/foundation/errors"
	"github.com/Phaysik/database-normalizer/internal/history"
	"github.com/Phaysik/database-normalizer/internal/logfields"
	"github.com/Phaysik/database-normalizer/internal/metrics"
	"github.com/Phaysik/database-normalizer/internal/normalizer"
	"github.com/Phaysik/database-normalizer/internal/notify"
	"github.com/Phaysik/database-normalizer/internal/pipeline"

	prom "github.com/prometheus/client_golang/prometheus"
)

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path (default dbnormalizer.yaml)"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Normalize NormalizeCmd `cmd:"" help:"Normalize one dataset file with its dependency file"`
	Batch     BatchCmd     `cmd:"" help:"Normalize every dataset in the configured input directories"`
	Lex       LexCmd       `cmd:"" help:"Print the tokens of a dataset or dependency file"`
	Check     CheckCmd     `cmd:"" help:"Parse a dataset or dependency file without normalizing"`
	Init      InitCmd      `cmd:"" help:"Initialize a new configuration file"`
	Docs      DocsCmd      `cmd:"" help:"Write the documentation site sources for a dataset"`
	Watch     WatchCmd     `cmd:"" help:"Re-run the batch whenever input files change"`
	History   HistoryCmd   `cmd:"" help:"Inspect recorded runs"`
	Latest    LatestCmd    `cmd:"" help:"Show the latest announced run of a dataset from the NATS key-value bucket"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

func logger(g *Global) *slog.Logger {
	if g != nil && g.Logger != nil {
		return g.Logger
	}
	return slog.Default()
}

// ResolveForm returns the form named by flag, or the configured form when
// flag is empty.
func ResolveForm(flag string, cfg *config.Config) (normalizer.Form, error) {
	if flag == "" {
		return cfg.Normalize.Form, nil
	}
	f, err := normalizer.ParseForm(flag)
	if err != nil {
		return 0, errors.WrapError(err, errors.CategoryValidation, "invalid --form").
			WithContext("form", flag).
			UserAction().
			Build()
	}
	return f, nil
}

// ResolveOutputDir determines the output directory. Priority: CLI flag >
// config directory.
func ResolveOutputDir(cliOutput string, cfg *config.Config) string {
	if cliOutput != "" {
		return cliOutput
	}
	return cfg.Output.Directory
}

// session holds the resources shared by commands that run the pipeline.
type session struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     *history.SQLiteStore
	publisher notify.Publisher
	recorder  *metrics.PrometheusRecorder
}

func openSession(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*session, error) {
	s := &session{
		cfg:       cfg,
		logger:    logger,
		publisher: notify.Noop{},
		recorder:  metrics.NewPrometheusRecorder(prom.NewRegistry()),
	}

	if cfg.History.IsEnabled() {
		if dir := filepath.Dir(cfg.History.Path); dir != "" {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to create history directory").
					WithContext("path", dir).
					Build()
			}
		}
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			return nil, err
		}
		s.store = store
	}

	pub, err := notify.New(ctx, cfg.Notify, logger)
	if err != nil {
		// Announcements are optional; a run still succeeds without them.
		logger.Warn("Run announcements disabled", logfields.Error(err))
	} else {
		s.publisher = pub
	}
	return s, nil
}

// runner builds a pipeline runner for form writing into outputDir.
func (s *session) runner(form normalizer.Form, outputDir string) *pipeline.Runner {
	opts := []pipeline.Option{
		pipeline.WithOutputDir(outputDir),
		pipeline.WithRecorder(s.recorder),
		pipeline.WithPublisher(s.publisher),
		pipeline.WithLogger(s.logger),
	}
	if s.store != nil {
		opts = append(opts, pipeline.WithHistory(s.store))
	}
	if s.cfg.Metrics.Textfile != "" {
		opts = append(opts, pipeline.WithTextfile(s.recorder, s.cfg.Metrics.Textfile))
	}
	return pipeline.New(form, opts...)
}

func (s *session) Close() {
	if err := s.publisher.Close(); err != nil {
		s.logger.Warn("Failed to close publisher", logfields.Error(err))
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Warn("Failed to close history store", logfields.Error(err))
		}
	}
}

func openHistory(cfg *config.Config) (*history.SQLiteStore, error) {
	if !cfg.History.IsEnabled() {
		return nil, errors.ConfigError("run history is disabled (history.enabled: false)").
			UserAction().
			Build()
	}
	if _, err := os.Stat(cfg.History.Path); err != nil {
		return nil, errors.WrapError(err, errors.CategoryStorage, "no run history recorded yet").
			WithContext("path", cfg.History.Path).
			UserAction().
			Build()
	}
	return history.Open(cfg.History.Path)
}
