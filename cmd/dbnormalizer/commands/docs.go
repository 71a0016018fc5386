package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/Phaysik/database-normalizer/internal/config"
	"github.com/Phaysik/database-normalizer/internal/docsite"
	"github.com/Phaysik/database-normalizer/internal/pipeline"
)

// DocsCmd implements the 'docs' command.
type DocsCmd struct {
	SQL    string `name:"sql" required:"" help:"Dataset file holding one CREATE TABLE statement" type:"existingfile"`
	Deps   string `name:"deps" required:"" help:"Functional dependency file" type:"existingfile"`
	Form   string `short:"f" help:"Target normal form (1, 2, 3, BCNF, 4, 5); defaults to normalize.form"`
	Output string `short:"o" name:"out" help:"Documentation source directory (overrides docs.directory)"`
}

func (d *DocsCmd) Run(g *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	form, err := ResolveForm(d.Form, cfg)
	if err != nil {
		return err
	}
	settings, err := cfg.Docs.Settings()
	if err != nil {
		return err
	}
	site, err := docsite.New(settings, docsite.WithLogger(logger(g)))
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	s, err := openSession(ctx, cfg, logger(g))
	if err != nil {
		return err
	}
	defer s.Close()

	// The normalized SQL goes into the site only; output.directory is untouched.
	out, err := s.runner(form, "").Run(ctx, d.SQL, d.Deps)
	if err != nil {
		return err
	}

	dir := d.Output
	if dir == "" {
		dir = cfg.Docs.Directory
	}
	res, err := site.Build(dir, docsite.Report{
		Dataset:        pipeline.Dataset(d.SQL),
		Form:           form.String(),
		SQLFile:        d.SQL,
		DependencyFile: d.Deps,
		Tables:         out.TableNames(),
		SQL:            out.SQL,
	})
	if err != nil {
		return err
	}

	for _, f := range res.Files {
		fmt.Printf("Wrote %s\n", f)
	}
	if !res.ReportChanged {
		fmt.Println("Report unchanged (fingerprint " + res.Fingerprint + ")")
	}
	return nil
}
