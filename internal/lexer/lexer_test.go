package lexer

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Phaysik/database-normalizer/internal/token"
)

func types(tokens []token.Token) []token.Type {
	out := make([]token.Type, 0, len(tokens))
	for _, tok := range tokens {
		out = append(out, tok.Type)
	}
	return out
}

func TestTokensCreateTable(t *testing.T) {
	src := "CREATE TABLE IF NOT EXISTS students (\n\tid INT(11) NOT NULL,\n\tname varchar(50) NULL\n);"
	tokens, err := New(src).Tokens()
	require.NoError(t, err)
	require.Equal(t, []token.Type{
		token.Create, token.Table, token.If, token.Not, token.Exists, token.Identifier, token.LParen,
		token.Identifier, token.Int, token.LParen, token.IntConst, token.RParen, token.Not, token.Null, token.Comma,
		token.Identifier, token.Varchar, token.LParen, token.IntConst, token.RParen, token.Null,
		token.RParen, token.Semicolon,
	}, types(tokens))

	require.Equal(t, "students", tokens[5].Value)
	require.Equal(t, "varchar", tokens[16].Value, "keywords keep their source case")
}

func TestTokensDependencies(t *testing.T) {
	tokens, err := New("a -> (b, c)\nd ->> e\nkey: (a, d)").Tokens()
	require.NoError(t, err)
	require.Equal(t, []token.Type{
		token.Identifier, token.Dash, token.RAngle, token.LParen, token.Identifier, token.Comma, token.Identifier, token.RParen,
		token.Identifier, token.Dash, token.RAngle, token.RAngle, token.Identifier,
		token.Key, token.Colon, token.LParen, token.Identifier, token.Comma, token.Identifier, token.RParen,
	}, types(tokens))
}

func TestTokensPositions(t *testing.T) {
	tokens, err := New("create\r\n  table_1 42").Tokens()
	require.NoError(t, err)
	require.Len(t, tokens, 3)

	require.Equal(t, 0, tokens[0].Line)
	require.Equal(t, 6, tokens[0].Offset)
	require.Equal(t, 1, tokens[0].Column())

	require.Equal(t, token.Identifier, tokens[1].Type)
	require.Equal(t, "table_1", tokens[1].Value)
	require.Equal(t, 1, tokens[1].Line, "CRLF counts as a single line break")
	require.Equal(t, 3, tokens[1].Column())
	require.Equal(t, 7, tokens[1].Length)

	require.Equal(t, token.IntConst, tokens[2].Type)
	require.Equal(t, 11, tokens[2].Column())
}

func TestTokensUnknownAndComments(t *testing.T) {
	tokens, err := New("-- a comment line\nname * 007").Tokens()
	require.NoError(t, err)
	require.Equal(t, []token.Type{token.Identifier, token.Unknown, token.IntConst}, types(tokens))
	require.Equal(t, 1, tokens[0].Line)
	require.Equal(t, "*", tokens[1].Value)
	require.Equal(t, "7", tokens[2].Value, "integer literals are re-printed in base 10")
	require.Equal(t, 3, tokens[2].Length)
}

func TestTokensEmptyInput(t *testing.T) {
	tokens, err := New(" \n\t ").Tokens()
	require.NoError(t, err)
	require.Empty(t, tokens)
}

func TestTokensIntegerOverflow(t *testing.T) {
	_, err := New("size\n  99999999999999999999999").Tokens()
	var lit *LiteralError
	require.ErrorAs(t, err, &lit)
	require.ErrorIs(t, err, strconv.ErrRange)
	require.Equal(t, 1, lit.Token.Line)
	require.Equal(t, 3, lit.Token.Column())
	require.Equal(t, "99999999999999999999999", lit.Token.Value)
}
