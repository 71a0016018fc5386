package commands

import (
	"context"
	"encoding/json"
	"os"

	"github.com/Phaysik/database-normalizer/internal/config"
	"github.com/Phaysik/database-normalizer/internal/foundation/errors"
	"github.com/Phaysik/database-normalizer/internal/notify"
)

// LatestCmd implements the 'latest' command.
type LatestCmd struct {
	Dataset string `arg:"" help:"Dataset name (file stem of the .sql file)"`
	Form    string `short:"f" help:"Normal form; defaults to normalize.form"`
}

func (l *LatestCmd) Run(g *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	form, err := ResolveForm(l.Form, cfg)
	if err != nil {
		return err
	}
	if !cfg.Notify.Enabled() || cfg.Notify.KVBucket == "" {
		return errors.ConfigError("latest needs notify.nats_url and notify.kv_bucket").
			UserAction().
			Build()
	}

	ctx := context.Background()
	pub, err := notify.NewNATSPublisher(ctx, cfg.Notify, logger(g))
	if err != nil {
		return err
	}
	defer func() { _ = pub.Close() }()

	summary, ok, err := pub.Latest(ctx, l.Dataset, form.String())
	if err != nil {
		return err
	}
	if !ok {
		return errors.NotifyError("no run announced for "+l.Dataset+" at "+form.String()).
			WithContext("dataset", l.Dataset).
			UserAction().
			Build()
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}
