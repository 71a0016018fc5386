package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/Phaysik/database-normalizer/internal/config"
)

// NormalizeCmd implements the 'normalize' command.
type NormalizeCmd struct {
	SQL    string `name:"sql" required:"" help:"Dataset file holding one CREATE TABLE statement" type:"existingfile"`
	Deps   string `name:"deps" required:"" help:"Functional dependency file" type:"existingfile"`
	Form   string `short:"f" help:"Target normal form (1, 2, 3, BCNF, 4, 5); defaults to normalize.form"`
	Output string `short:"o" name:"out" help:"Output directory (overrides output.directory)"`
	Stdout bool   `help:"Print the normalized tables instead of writing a file"`
}

func (n *NormalizeCmd) Run(g *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	form, err := ResolveForm(n.Form, cfg)
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

	outDir := ResolveOutputDir(n.Output, cfg)
	if n.Stdout {
		outDir = ""
	}
	out, err := s.runner(form, outDir).Run(ctx, n.SQL, n.Deps)
	if err != nil {
		return err
	}

	if n.Stdout {
		fmt.Println(out.SQL)
		return nil
	}
	fmt.Printf("Normalized %s to %s: %d tables written to %s\n", n.SQL, form, len(out.Tables), out.OutputPath)
	return nil
}
