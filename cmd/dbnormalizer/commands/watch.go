package commands

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Phaysik/database-normalizer/internal/config"
	derrors "github.com/Phaysik/database-normalizer/internal/foundation/errors"
	"github.com/Phaysik/database-normalizer/internal/logfields"
	"github.com/Phaysik/database-normalizer/internal/metrics"
	"github.com/Phaysik/database-normalizer/internal/normalizer"
	"github.com/Phaysik/database-normalizer/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Form        string `short:"f" help:"Target normal form (1, 2, 3, BCNF, 4, 5); defaults to normalize.form"`
	Output      string `short:"o" name:"out" help:"Output directory (overrides output.directory)"`
	MetricsAddr string `name:"metrics-addr" help:"Serve Prometheus metrics on this address (overrides metrics.listen_addr)"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	form, err := ResolveForm(w.Form, cfg)
	if err != nil {
		return err
	}
	if w.MetricsAddr != "" {
		cfg.Metrics.ListenAddr = w.MetricsAddr
	}
	return RunWatch(cfg, form, ResolveOutputDir(w.Output, cfg), logger(g))
}

// RunWatch normalizes the configured datasets once, then again after every
// burst of input changes and on each poll tick, until SIGINT or SIGTERM.
func RunWatch(cfg *config.Config, form normalizer.Form, outDir string, logger *slog.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	s, err := openSession(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	rerun := func(ctx context.Context, reason watch.Reason, paths []string) {
		logger.Info("Re-running batch", slog.String("reason", string(reason)), slog.Int("changed", len(paths)))
		results, err := RunBatch(ctx, s, form, outDir)
		if err != nil {
			logger.Error("Batch failed", logfields.Error(err))
			return
		}
		if err := Summarize(os.Stdout, results); err != nil {
			logger.Warn("Batch finished with failures", logfields.Error(err))
		}
	}

	errChan := make(chan error, 1)
	var srv *http.Server
	if cfg.Metrics.ListenAddr != "" {
		srv = &http.Server{
			Addr:              cfg.Metrics.ListenAddr,
			Handler:           metrics.NewRouter(s.recorder.Registry()),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- derrors.WrapError(err, derrors.CategoryRuntime, "metrics server failed").
					WithContext("addr", srv.Addr).
					Build()
			}
		}()
		logger.Info("Serving metrics", slog.String("addr", srv.Addr))
	}

	rerun(ctx, watch.ReasonPoll, nil)

	exts := []string{".sql", cfg.Input.DependencyExt}
	watcher, err := watch.New([]string{cfg.Input.SQLDir, cfg.Input.DependencyDir}, rerun,
		watch.WithDebounce(cfg.Watch.Debounce),
		watch.WithPollInterval(cfg.Watch.PollInterval),
		watch.WithExtensions(exts...),
		watch.WithLogger(logger))
	if err != nil {
		return err
	}
	if err := watcher.Start(ctx); err != nil {
		return err
	}

	slog.Info("Watching for changes, waiting for shutdown signal...")

	var runErr error
	select {
	case runErr = <-errChan:
	case <-ctx.Done():
		slog.Info("Shutdown signal received, stopping watcher...")
	}

	if err := watcher.Stop(); err != nil {
		logger.Warn("Failed to stop watcher cleanly", logfields.Error(err))
	}
	if srv != nil {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer stopCancel()
		if err := srv.Shutdown(stopCtx); err != nil {
			logger.Warn("Failed to stop metrics server", logfields.Error(err))
		}
	}
	return runErr
}
