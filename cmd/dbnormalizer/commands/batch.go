package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Phaysik/database-normalizer/internal/batch"
	"github.com/Phaysik/database-normalizer/internal/config"
	"github.com/Phaysik/database-normalizer/internal/foundation/errors"
	"github.com/Phaysik/database-normalizer/internal/normalizer"
	"github.com/Phaysik/database-normalizer/internal/output"
)

// BatchCmd implements the 'batch' command.
type BatchCmd struct {
	Form        string `short:"f" help:"Target normal form (1, 2, 3, BCNF, 4, 5); defaults to normalize.form"`
	Output      string `short:"o" name:"out" help:"Output directory (overrides output.directory)"`
	Concurrency int    `short:"j" help:"Datasets processed in parallel (overrides normalize.concurrency)"`
	Clean       bool   `help:"Remove previous results from the output directory first"`
}

func (b *BatchCmd) Run(g *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	form, err := ResolveForm(b.Form, cfg)
	if err != nil {
		return err
	}
	if b.Concurrency > 0 {
		cfg.Normalize.Concurrency = b.Concurrency
	}
	if b.Clean {
		cfg.Output.Clean = true
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	s, err := openSession(ctx, cfg, logger(g))
	if err != nil {
		return err
	}
	defer s.Close()

	results, err := RunBatch(ctx, s, form, ResolveOutputDir(b.Output, cfg))
	if err != nil {
		return err
	}
	return Summarize(os.Stdout, results)
}

// RunBatch discovers the configured datasets and normalizes them all.
func RunBatch(ctx context.Context, s *session, form normalizer.Form, outDir string) ([]batch.Result, error) {
	cfg := s.cfg
	pairs, err := batch.Discover(cfg.Input.SQLDir, cfg.Input.DependencyDir, cfg.Input.DependencyExt)
	if err != nil {
		return nil, err
	}
	if cfg.Output.Clean && outDir != "" {
		removed, err := output.Clean(outDir)
		if err != nil {
			return nil, err
		}
		s.logger.Debug("Removed previous results", slog.Int("count", removed), slog.String("dir", outDir))
	}

	s.logger.Info("Batch started", slog.Int("datasets", len(pairs)), slog.String("form", form.String()))
	return batch.Run(ctx, pairs, cfg.Normalize.Concurrency, s.runner(form, outDir).Process), nil
}

// Summarize prints one line per result and fails when any dataset failed.
func Summarize(w io.Writer, results []batch.Result) error {
	for _, r := range results {
		if r.Err != nil {
			_, _ = fmt.Fprintf(w, "FAIL  %s: %v\n", r.Pair.Name, r.Err)
			continue
		}
		_, _ = fmt.Fprintf(w, "ok    %s: %d tables -> %s\n", r.Pair.Name, r.Tables, r.Output)
	}
	failed := batch.Failed(results)
	_, _ = fmt.Fprintf(w, "%d datasets, %d failed\n", len(results), failed)
	if failed > 0 {
		return errors.NormalizeError(fmt.Sprintf("%d of %d datasets failed", failed, len(results))).
			WithContext("failed", failed).
			Build()
	}
	return nil
}
