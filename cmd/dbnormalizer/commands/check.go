package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Phaysik/database-normalizer/internal/filemanager"
	"github.com/Phaysik/database-normalizer/internal/foundation/errors"
	"github.com/Phaysik/database-normalizer/internal/parser"
	"github.com/Phaysik/database-normalizer/internal/table"
)

// CheckCmd implements the 'check' command.
type CheckCmd struct {
	File  string `arg:"" help:"Dataset or dependency file to parse"`
	Table string `help:"Dataset file whose columns the dependency file must reference"`
}

func (c *CheckCmd) Run(_ *Global, _ *CLI) error {
	return RunCheck(os.Stdout, c.File, c.Table)
}

// RunCheck parses path, attaching the table declared in tablePath when set,
// and writes a short description of what was declared.
func RunCheck(w io.Writer, path, tablePath string) error {
	var opts []parser.Option
	if tablePath != "" {
		p, err := parse(tablePath)
		if err != nil {
			return err
		}
		if p.Table() == nil {
			return errors.ValidationError(fmt.Sprintf("%s declares no table", tablePath)).
				WithContext("path", tablePath).
				UserAction().
				Build()
		}
		opts = append(opts, parser.WithTable(p.Table()))
	}

	p, err := parse(path, opts...)
	if err != nil {
		return err
	}

	if t := p.Table(); t != nil {
		describeTable(w, t)
	}
	for _, row := range p.Dependencies().Rows() {
		if len(row.Single) > 0 {
			_, _ = fmt.Fprintf(w, "%s -> %s\n", row.Determinant, strings.Join(row.Single, ", "))
		}
		if len(row.Multi) > 0 {
			_, _ = fmt.Fprintf(w, "%s ->> %s\n", row.Determinant, strings.Join(row.Multi, ", "))
		}
	}
	if keys := p.PrimaryKeys(); len(keys) > 0 {
		_, _ = fmt.Fprintf(w, "KEY: %s\n", strings.Join(keys, ", "))
	}
	_, _ = fmt.Fprintf(w, "%s: OK\n", path)
	return nil
}

func describeTable(w io.Writer, t *table.Table) {
	name := t.Name
	if t.IfNotExists {
		name += " (if not exists)"
	}
	_, _ = fmt.Fprintf(w, "table %s\n", name)
	for _, c := range t.Columns {
		_, _ = fmt.Fprintf(w, "  %s %s\n", c.Name, c.Definition.SQL())
	}
}

func parse(path string, opts ...parser.Option) (*parser.Parser, error) {
	text, err := filemanager.Read(path)
	if err != nil {
		return nil, err
	}
	p, err := parser.New(text, opts...)
	if err == nil {
		err = p.Parse()
	}
	if err != nil {
		return nil, errors.WrapError(err, errors.CategorySyntax, fmt.Sprintf("%s could not be parsed", path)).
			WithContext("path", path).
			UserAction().
			Build()
	}
	return p, nil
}
