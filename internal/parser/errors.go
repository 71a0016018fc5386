package parser

import (
	"fmt"
	"strings"

	"github.com/Phaysik/database-normalizer/internal/token"
)

// ErrorKind classifies a SyntaxError.
type ErrorKind int

const (
	// KindUnknownToken is a character no token class accepts.
	KindUnknownToken ErrorKind = iota
	// KindUnexpectedToken is a valid token in the wrong place.
	KindUnexpectedToken
	// KindEndOfInput means the text stopped in the middle of a statement.
	KindEndOfInput
	// KindSemantic is a well-formed statement that contradicts earlier ones.
	KindSemantic
	// KindLiteral is an integer literal too large to represent.
	KindLiteral
)

// SyntaxError reports a problem at a specific token of the input. Its message
// repeats the source line and underlines the token with carets.
type SyntaxError struct {
	Kind     ErrorKind
	Token    token.Token
	Source   string
	Expected string
	Detail   string
}

func (e *SyntaxError) Error() string {
	var b strings.Builder
	b.WriteString(e.Source)
	b.WriteByte('\n')

	pad := max(e.Token.Column()-1, 0)
	b.WriteString(strings.Repeat(" ", pad))
	b.WriteString(strings.Repeat("^", max(e.Token.Length, 1)))
	b.WriteByte('\n')

	line := e.Token.Line + 1
	switch e.Kind {
	case KindUnknownToken:
		fmt.Fprintf(&b, "On line number %d there was an unknown token with value %q found.", line, e.Token.Value)
	case KindUnexpectedToken:
		fmt.Fprintf(&b, "On line number %d there was an unexpected token with the token type \"T_%s\" found.\n", line, e.Token.Type)
		fmt.Fprintf(&b, "Expected grammar syntax is: %q.", e.Expected)
	case KindEndOfInput:
		fmt.Fprintf(&b, "On line number %d the input ended unexpectedly.\n", line)
		fmt.Fprintf(&b, "Expected grammar syntax is: %q.", e.Expected)
	case KindSemantic:
		fmt.Fprintf(&b, "On line number %d %s.", line, e.Detail)
	case KindLiteral:
		fmt.Fprintf(&b, "On line number %d the integer %s is out of range.", line, e.Token.Value)
	}
	return b.String()
}

// Line returns the 1-based line number of the offending token.
func (e *SyntaxError) Line() int {
	return e.Token.Line + 1
}
