package main

import (
	"log/slog"

	"github.com/alecthomas/kong"

	"github.com/Phaysik/database-normalizer/cmd/dbnormalizer/commands"
	"github.com/Phaysik/database-normalizer/internal/foundation/errors"
	"github.com/Phaysik/database-normalizer/internal/version"
)

func main() {
	cli := &commands.CLI{}
	ctx := kong.Parse(cli,
		kong.Name("dbnormalizer"),
		kong.Description("Normalize a CREATE TABLE statement to a target normal form using its functional dependencies."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)

	err := ctx.Run(&commands.Global{Logger: slog.Default()}, cli)
	errors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
}
