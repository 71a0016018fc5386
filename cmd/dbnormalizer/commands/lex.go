package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/Phaysik/database-normalizer/internal/filemanager"
	"github.com/Phaysik/database-normalizer/internal/foundation/errors"
	"github.com/Phaysik/database-normalizer/internal/parser"
)

// LexCmd implements the 'lex' command.
type LexCmd struct {
	File string `arg:"" help:"Dataset or dependency file to tokenize"`
}

func (l *LexCmd) Run(_ *Global, _ *CLI) error {
	return RunLex(os.Stdout, l.File)
}

// RunLex writes one line per token of path to w.
func RunLex(w io.Writer, path string) error {
	text, err := filemanager.Read(path)
	if err != nil {
		return err
	}
	p, err := parser.New(text)
	if err != nil {
		return errors.WrapError(err, errors.CategorySyntax, fmt.Sprintf("%s could not be tokenized", path)).
			WithContext("path", path).
			UserAction().
			Build()
	}
	for _, tok := range p.Tokens() {
		if _, err := fmt.Fprintln(w, tok.String()); err != nil {
			return err
		}
	}
	return nil
}
