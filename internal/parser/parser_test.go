package parser

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Phaysik/database-normalizer/internal/table"
)

const studentsSQL = `CREATE TABLE IF NOT EXISTS students (
	id INT NOT NULL,
	name VARCHAR(50),
	email varchar(120) NULL,
	age integer(3)
);`

func parse(t *testing.T, text string, opts ...Option) *Parser {
	t.Helper()
	p, err := New(text, opts...)
	require.NoError(t, err)
	require.NoError(t, p.Parse())
	return p
}

func parseErr(t *testing.T, text string, opts ...Option) *SyntaxError {
	t.Helper()
	p, err := New(text, opts...)
	require.NoError(t, err)
	err = p.Parse()
	require.Error(t, err)
	var syn *SyntaxError
	require.True(t, errors.As(err, &syn), "expected *SyntaxError, got %T", err)
	return syn
}

func TestParseCreateTable(t *testing.T) {
	p := parse(t, studentsSQL)
	tbl := p.Table()
	require.NotNil(t, tbl)
	require.Equal(t, "students", tbl.Name)
	require.True(t, tbl.IfNotExists)
	require.Equal(t, []string{"id", "name", "email", "age"}, tbl.ColumnNames())

	name, ok := tbl.Column("name")
	require.True(t, ok)
	require.Equal(t, "VARCHAR(50) NOT NULL", name.Definition.SQL())

	email, _ := tbl.Column("email")
	require.True(t, email.Definition.Nullable)

	age, _ := tbl.Column("age")
	require.Equal(t, "INTEGER", age.Definition.DataType)
	require.Equal(t, int64(3), age.Definition.Size)

	id, _ := tbl.Column("id")
	require.False(t, id.Definition.HasSize())
}

func TestParseDependencies(t *testing.T) {
	p := parse(t, "a -> b\nc -> (d, e)\na ->> (f)\nKEY: (a, c)\n")

	deps := p.Dependencies()
	require.Equal(t, 2, deps.Len())

	a, ok := deps.Row("a")
	require.True(t, ok)
	require.Equal(t, []string{"b"}, a.Single)
	require.Equal(t, []string{"f"}, a.Multi)

	c, _ := deps.Row("c")
	require.Equal(t, []string{"d", "e"}, c.Single)

	require.Equal(t, []string{"a", "c"}, p.PrimaryKeys())
	require.Nil(t, p.Table())
}

func TestParseSingleKey(t *testing.T) {
	p := parse(t, "key : id")
	require.Equal(t, []string{"id"}, p.PrimaryKeys())
}

func TestParseWithTableRejectsUnknownColumns(t *testing.T) {
	tbl := parse(t, studentsSQL).Table()

	parse(t, "id -> (name, email)\nKEY: id", WithTable(tbl))

	syn := parseErr(t, "id -> phone", WithTable(tbl))
	require.Equal(t, KindSemantic, syn.Kind)
	require.Contains(t, syn.Error(), `the column "phone" does not exist in table "students"`)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		kind     ErrorKind
		line     int
		expected string
	}{
		{"missing table name", "CREATE TABLE (", KindUnexpectedToken, 1, "[IF NOT EXISTS] table_name"},
		{"bad type", "CREATE TABLE t (id TEXT);", KindUnexpectedToken, 1, "column_definition"},
		{"varchar without size", "CREATE TABLE t (\n name VARCHAR\n);", KindUnexpectedToken, 3, "(max_column_length_in_characters)"},
		{"size not a number", "CREATE TABLE t (id INT(x));", KindUnexpectedToken, 1, "INTEGER VALUE"},
		{"bad modifier", "CREATE TABLE t (id INT EXISTS);", KindUnexpectedToken, 1, "[NOT NULL | NULL]"},
		{"missing separator", "CREATE TABLE t (id INT NULL name INT);", KindUnexpectedToken, 1, ", or )"},
		{"truncated", "CREATE TABLE t (id INT", KindEndOfInput, 1, "[NOT NULL | NULL]"},
		{"missing semicolon", "CREATE TABLE t (id INT)", KindEndOfInput, 1, ";"},
		{"single arrow head missing", "a - b", KindUnexpectedToken, 1, ">[>]"},
		{"dependent missing", "a ->\n", KindEndOfInput, 1, "[(] or dependent_column"},
		{"key without colon", "KEY a", KindUnexpectedToken, 1, ":"},
		{"key list not closed", "KEY: (a b)", KindUnexpectedToken, 1, ", or )"},
		{"stray keyword", "NULL", KindUnexpectedToken, 1, "CREATE TABLE, determinant -> dependent, or KEY: primary_key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			syn := parseErr(t, tt.input)
			require.Equal(t, tt.kind, syn.Kind)
			require.Equal(t, tt.line, syn.Line())
			require.Equal(t, tt.expected, syn.Expected)
		})
	}
}

func TestParseSemanticErrors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		detail string
	}{
		{"duplicate column", "CREATE TABLE t (id INT, id INT);", `the column "id" is already defined in table "t"`},
		{"second create", "CREATE TABLE t (id INT);\nCREATE TABLE u (id INT);", "only one CREATE TABLE statement is allowed per dataset"},
		{"key twice", "KEY: a\nKEY: b", "the primary key was already declared"},
		{"key column twice", "KEY: (a, a)", `the column "a" is listed twice in the primary key`},
		{"determinant redeclared", "a -> b\na -> c", "the dependency a -> was already declared; list every dependent in one (a, b) group"},
		{"self dependency", "a -> (b, a)", `the column "a" cannot depend on itself`},
		{"duplicate dependent", "a ->> (b, b)", `the column "b" is already a dependent of "a"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			syn := parseErr(t, tt.input)
			require.Equal(t, KindSemantic, syn.Kind)
			require.Equal(t, tt.detail, syn.Detail)
		})
	}
}

func TestParseSingleAndMultiSameDeterminant(t *testing.T) {
	p := parse(t, "a -> b\na ->> c")
	row, ok := p.Dependencies().Row("a")
	require.True(t, ok)
	require.Equal(t, []string{"b", "c"}, row.Dependents())
}

func TestSyntaxErrorMessage(t *testing.T) {
	syn := parseErr(t, "CREATE TABLE t (\n  id INT,\n  name TEXT\n);")
	want := "  name TEXT\n" +
		"       ^^^^\n" +
		"On line number 3 there was an unexpected token with the token type \"T_IDENTIFIER\" found.\n" +
		"Expected grammar syntax is: \"column_definition\"."
	require.Equal(t, want, syn.Error())
}

func TestSyntaxErrorUnknownToken(t *testing.T) {
	syn := parseErr(t, "a -> b\nc # d")
	require.Equal(t, KindUnknownToken, syn.Kind)
	require.Equal(t, "c # d\n  ^\nOn line number 2 there was an unknown token with value \"#\" found.", syn.Error())
}

func TestNewRejectsOversizedLiteral(t *testing.T) {
	_, err := New("CREATE TABLE t (\n\tname VARCHAR(99999999999999999999)\n);")
	var syn *SyntaxError
	require.True(t, errors.As(err, &syn))
	require.Equal(t, KindLiteral, syn.Kind)
	require.Equal(t, 2, syn.Line())
	want := "\tname VARCHAR(99999999999999999999)\n" +
		"              ^^^^^^^^^^^^^^^^^^^^\n" +
		"On line number 2 the integer 99999999999999999999 is out of range."
	require.Equal(t, want, syn.Error())
}

func TestParseEmptyInput(t *testing.T) {
	p := parse(t, "   \n-- nothing here\n")
	require.Nil(t, p.Table())
	require.Zero(t, p.Dependencies().Len())
	require.Empty(t, p.PrimaryKeys())
}

func TestWithTableNil(t *testing.T) {
	var tbl *table.Table
	p := parse(t, "x -> y", WithTable(tbl))
	require.Equal(t, 1, p.Dependencies().Len())
}
