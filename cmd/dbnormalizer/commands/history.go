package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/Phaysik/database-normalizer/internal/config"
	"github.com/Phaysik/database-normalizer/internal/history"
	"github.com/Phaysik/database-normalizer/internal/pipeline"
)

// HistoryCmd groups the run history subcommands.
type HistoryCmd struct {
	List HistoryListCmd `cmd:"" default:"1" help:"List recent runs"`
	Show HistoryShowCmd `cmd:"" help:"Show one run including its output"`
}

// HistoryListCmd implements 'history list'.
type HistoryListCmd struct {
	Limit int `short:"n" default:"20" help:"Number of runs to show"`
}

func (h *HistoryListCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	store, err := openHistory(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	runs, err := store.List(context.Background(), h.Limit)
	if err != nil {
		return err
	}
	return WriteRuns(os.Stdout, runs)
}

// WriteRuns prints runs as an aligned table, newest first.
func WriteRuns(w io.Writer, runs []history.Run) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No runs recorded")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tSTARTED\tDATASET\tFORM\tSTATUS\tTABLES\tDURATION")
	for _, r := range runs {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			shortID(r.ID),
			r.StartedAt.Local().Format(time.DateTime),
			pipeline.Dataset(r.SQLFile),
			r.Form,
			r.Status,
			r.Tables,
			r.Duration().Round(time.Millisecond))
	}
	return tw.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// HistoryShowCmd implements 'history show'.
type HistoryShowCmd struct {
	ID string `arg:"" help:"Run ID or unique ID prefix"`
}

func (h *HistoryShowCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	store, err := openHistory(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	run, err := store.Get(context.Background(), h.ID)
	if err != nil {
		return err
	}
	return WriteRun(os.Stdout, run)
}

// WriteRun prints every field of run followed by its output.
func WriteRun(w io.Writer, run history.Run) error {
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)
	_, _ = fmt.Fprintf(tw, "ID:\t%s\n", run.ID)
	_, _ = fmt.Fprintf(tw, "Form:\t%s\n", run.Form)
	_, _ = fmt.Fprintf(tw, "SQL file:\t%s\n", run.SQLFile)
	_, _ = fmt.Fprintf(tw, "Dependency file:\t%s\n", run.DependencyFile)
	_, _ = fmt.Fprintf(tw, "Status:\t%s\n", run.Status)
	_, _ = fmt.Fprintf(tw, "Tables:\t%d\n", run.Tables)
	_, _ = fmt.Fprintf(tw, "Started:\t%s\n", run.StartedAt.Local().Format(time.RFC3339))
	_, _ = fmt.Fprintf(tw, "Finished:\t%s\n", run.FinishedAt.Local().Format(time.RFC3339))
	if run.Error != "" {
		_, _ = fmt.Fprintf(tw, "Error:\t%s\n", run.Error)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if run.Output != "" {
		_, err := fmt.Fprintf(w, "\n%s\n", run.Output)
		return err
	}
	return nil
}
