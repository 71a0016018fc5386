// Package parser validates and interprets SQL dataset files and functional
// dependency files.
//
// A dataset file holds one CREATE TABLE statement:
//
//	CREATE TABLE [IF NOT EXISTS] name (
//		column INT [(size)] [NOT NULL | NULL],
//		column VARCHAR (size) [NOT NULL | NULL]
//	);
//
// A dependency file lists functional dependencies, multi-valued
// dependencies and the primary key:
//
//	a -> b
//	a -> (b, c)
//	a ->> d
//	KEY: (a, e)
//
// Both grammars are accepted by the same Parser so a single file may mix
// them.
package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Phaysik/database-normalizer/internal/dependencies"
	"github.com/Phaysik/database-normalizer/internal/lexer"
	"github.com/Phaysik/database-normalizer/internal/table"
	"github.com/Phaysik/database-normalizer/internal/token"
)

const decimalBase = 10

// Option configures a Parser.
type Option func(*Parser)

// WithTable makes the parser reject dependencies and keys naming columns
// that the table does not have.
func WithTable(t *table.Table) Option {
	return func(p *Parser) {
		p.reference = t
	}
}

// Parser is a recursive descent parser over the token stream of one file.
type Parser struct {
	tokens []token.Token
	index  int
	lines  []string

	reference *table.Table

	table       *table.Table
	deps        *dependencies.Manager
	primaryKeys []string
	keyDeclared bool

	singleDeclared map[string]bool
	multiDeclared  map[string]bool
}

// New tokenizes text and prepares a Parser. It fails only when the text
// cannot be tokenized; the error is then a *SyntaxError.
func New(text string, opts ...Option) (*Parser, error) {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}

	tokens, err := lexer.New(text).Tokens()
	if err != nil {
		var lit *lexer.LiteralError
		if !errors.As(err, &lit) {
			return nil, err
		}
		p := &Parser{lines: lines}
		return nil, &SyntaxError{Kind: KindLiteral, Token: lit.Token, Source: p.sourceLine(lit.Token)}
	}

	p := &Parser{
		tokens:         tokens,
		lines:          lines,
		deps:           dependencies.NewManager(),
		singleDeclared: make(map[string]bool),
		multiDeclared:  make(map[string]bool),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Table returns the table declared by CREATE TABLE, or nil when the input had
// none.
func (p *Parser) Table() *table.Table {
	return p.table
}

// Dependencies returns the declared dependencies.
func (p *Parser) Dependencies() *dependencies.Manager {
	return p.deps
}

// PrimaryKeys returns the columns named by the KEY statement.
func (p *Parser) PrimaryKeys() []string {
	return p.primaryKeys
}

// Tokens returns the token stream the parser works on.
func (p *Parser) Tokens() []token.Token {
	return p.tokens
}

// Parse consumes every statement. The first problem found is returned as a
// *SyntaxError.
func (p *Parser) Parse() error {
	for p.hasMore() {
		tok, _ := p.next("")
		var err error
		switch tok.Type {
		case token.Create:
			err = p.parseCreate(tok)
		case token.Identifier:
			err = p.parseDependency(tok)
		case token.Key:
			err = p.parseKey(tok)
		case token.Unknown:
			err = p.unknown(tok)
		default:
			err = p.unexpected(tok, "CREATE TABLE, determinant -> dependent, or KEY: primary_key")
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (p *Parser) hasMore() bool {
	return p.index < len(p.tokens)
}

// next consumes a token. expected describes the grammar wanted when the
// input is already exhausted.
func (p *Parser) next(expected string) (token.Token, error) {
	if !p.hasMore() {
		return token.Token{}, p.endOfInput(expected)
	}
	tok := p.tokens[p.index]
	p.index++
	return tok, nil
}

func (p *Parser) peek() (token.Token, bool) {
	if !p.hasMore() {
		return token.Token{}, false
	}
	return p.tokens[p.index], true
}

// expect consumes a token of type want.
func (p *Parser) expect(want token.Type, expected string) (token.Token, error) {
	tok, err := p.next(expected)
	if err != nil {
		return tok, err
	}
	if tok.Type != want {
		return tok, p.mismatch(tok, expected)
	}
	return tok, nil
}

func (p *Parser) parseCreate(create token.Token) error {
	if _, err := p.expect(token.Table, token.Table.String()); err != nil {
		return err
	}
	if p.table != nil {
		return p.semantic(create, "only one CREATE TABLE statement is allowed per dataset")
	}

	tok, err := p.next("[IF NOT EXISTS] table_name")
	if err != nil {
		return err
	}

	tbl := table.New("")
	switch tok.Type {
	case token.If:
		if _, err := p.expect(token.Not, token.Not.String()); err != nil {
			return err
		}
		if _, err := p.expect(token.Exists, token.Exists.String()); err != nil {
			return err
		}
		name, err := p.expect(token.Identifier, "table_name")
		if err != nil {
			return err
		}
		tbl.IfNotExists = true
		tbl.Name = name.Value
	case token.Identifier:
		tbl.Name = tok.Value
	default:
		return p.mismatch(tok, "[IF NOT EXISTS] table_name")
	}

	p.table = tbl
	return p.parseTableBody()
}

func (p *Parser) parseTableBody() error {
	if _, err := p.expect(token.LParen, token.LParen.String()); err != nil {
		return err
	}
	if err := p.parseColumns(); err != nil {
		return err
	}
	_, err := p.expect(token.Semicolon, token.Semicolon.String())
	return err
}

// parseColumns reads column definitions up to and including the closing
// parenthesis of the table body.
func (p *Parser) parseColumns() error {
	for {
		name, err := p.expect(token.Identifier, "column_name")
		if err != nil {
			return err
		}
		if p.table.HasColumn(name.Value) {
			return p.semantic(name, fmt.Sprintf("the column %q is already defined in table %q", name.Value, p.table.Name))
		}

		def, err := p.parseColumnType()
		if err != nil {
			return err
		}
		if err := p.parseColumnModifiers(&def); err != nil {
			return err
		}
		p.table.AddColumn(table.Column{Name: name.Value, Definition: def})

		sep, err := p.next(", or )")
		if err != nil {
			return err
		}
		switch sep.Type {
		case token.Comma:
		case token.RParen:
			return nil
		default:
			return p.mismatch(sep, ", or )")
		}
	}
}

func (p *Parser) parseColumnType() (table.ColumnDefinition, error) {
	tok, err := p.next("column_definition")
	if err != nil {
		return table.ColumnDefinition{}, err
	}

	switch tok.Type {
	case token.Int, token.Integer:
		def := table.NewColumnDefinition(tok.Type.String())
		if next, ok := p.peek(); ok && next.Type == token.LParen {
			p.index++
			size, err := p.parseSize()
			if err != nil {
				return def, err
			}
			def.Size = size
		}
		return def, nil
	case token.Varchar:
		def := table.NewColumnDefinition(tok.Type.String())
		if _, err := p.expect(token.LParen, "(max_column_length_in_characters)"); err != nil {
			return def, err
		}
		size, err := p.parseSize()
		if err != nil {
			return def, err
		}
		def.Size = size
		return def, nil
	default:
		return table.ColumnDefinition{}, p.mismatch(tok, "column_definition")
	}
}

// parseSize reads "n )" after an opening parenthesis.
func (p *Parser) parseSize() (int64, error) {
	tok, err := p.expect(token.IntConst, "INTEGER VALUE")
	if err != nil {
		return 0, err
	}
	size, err := strconv.ParseInt(tok.Value, decimalBase, 64)
	if err != nil {
		return 0, p.semantic(tok, fmt.Sprintf("the size %s is too large", tok.Value))
	}
	if _, err := p.expect(token.RParen, token.RParen.String()); err != nil {
		return 0, err
	}
	return size, nil
}

func (p *Parser) parseColumnModifiers(def *table.ColumnDefinition) error {
	tok, ok := p.peek()
	if !ok {
		return p.endOfInput("[NOT NULL | NULL]")
	}

	switch tok.Type {
	case token.Comma, token.RParen:
		return nil
	case token.Not:
		p.index++
		if _, err := p.expect(token.Null, token.Null.String()); err != nil {
			return err
		}
		def.Nullable = false
		return nil
	case token.Null:
		p.index++
		def.Nullable = true
		return nil
	default:
		p.index++
		return p.mismatch(tok, "[NOT NULL | NULL]")
	}
}

func (p *Parser) parseDependency(determinant token.Token) error {
	if err := p.checkColumn(determinant); err != nil {
		return err
	}
	if _, err := p.expect(token.Dash, token.Dash.String()); err != nil {
		return err
	}
	if _, err := p.expect(token.RAngle, ">[>]"); err != nil {
		return err
	}

	multi := false
	if tok, ok := p.peek(); ok && tok.Type == token.RAngle {
		p.index++
		multi = true
	}

	declared := p.singleDeclared
	arrow := "->"
	if multi {
		declared = p.multiDeclared
		arrow = "->>"
	}
	if declared[determinant.Value] {
		return p.semantic(determinant, fmt.Sprintf("the dependency %s %s was already declared; list every dependent in one (a, b) group", determinant.Value, arrow))
	}
	declared[determinant.Value] = true

	dependents, err := p.parseColumnList("[(] or dependent_column", "dependent_column")
	if err != nil {
		return err
	}

	row := p.deps.Add(determinant.Value)
	for _, dep := range dependents {
		if dep.Value == determinant.Value {
			return p.semantic(dep, fmt.Sprintf("the column %q cannot depend on itself", dep.Value))
		}
		var added bool
		if multi {
			added = row.AddMulti(dep.Value)
		} else {
			added = row.AddSingle(dep.Value)
		}
		if !added {
			return p.semantic(dep, fmt.Sprintf("the column %q is already a dependent of %q", dep.Value, determinant.Value))
		}
	}
	return nil
}

func (p *Parser) parseKey(key token.Token) error {
	if p.keyDeclared {
		return p.semantic(key, "the primary key was already declared")
	}
	p.keyDeclared = true

	if _, err := p.expect(token.Colon, token.Colon.String()); err != nil {
		return err
	}
	columns, err := p.parseColumnList("[(] or primary_key", "primary_key")
	if err != nil {
		return err
	}

	for _, col := range columns {
		for _, existing := range p.primaryKeys {
			if existing == col.Value {
				return p.semantic(col, fmt.Sprintf("the column %q is listed twice in the primary key", col.Value))
			}
		}
		p.primaryKeys = append(p.primaryKeys, col.Value)
	}
	return nil
}

// parseColumnList reads either a single identifier or a parenthesised,
// comma separated list of identifiers. Every column is checked against the
// reference table.
func (p *Parser) parseColumnList(expectedFirst, expectedItem string) ([]token.Token, error) {
	tok, err := p.next(expectedFirst)
	if err != nil {
		return nil, err
	}

	switch tok.Type {
	case token.Identifier:
		if err := p.checkColumn(tok); err != nil {
			return nil, err
		}
		return []token.Token{tok}, nil
	case token.LParen:
	default:
		return nil, p.mismatch(tok, expectedFirst)
	}

	var columns []token.Token
	for {
		col, err := p.expect(token.Identifier, expectedItem)
		if err != nil {
			return nil, err
		}
		if err := p.checkColumn(col); err != nil {
			return nil, err
		}
		columns = append(columns, col)

		sep, err := p.next(", or )")
		if err != nil {
			return nil, err
		}
		switch sep.Type {
		case token.Comma:
		case token.RParen:
			return columns, nil
		default:
			return nil, p.mismatch(sep, ", or )")
		}
	}
}

func (p *Parser) checkColumn(tok token.Token) error {
	if p.reference == nil || p.reference.HasColumn(tok.Value) {
		return nil
	}
	return p.semantic(tok, fmt.Sprintf("the column %q does not exist in table %q", tok.Value, p.reference.Name))
}

func (p *Parser) sourceLine(tok token.Token) string {
	if tok.Line < 0 || tok.Line >= len(p.lines) {
		return ""
	}
	return p.lines[tok.Line]
}

// mismatch reports tok as unknown or unexpected depending on its type.
func (p *Parser) mismatch(tok token.Token, expected string) error {
	if tok.Type == token.Unknown {
		return p.unknown(tok)
	}
	return p.unexpected(tok, expected)
}

func (p *Parser) unknown(tok token.Token) error {
	return &SyntaxError{Kind: KindUnknownToken, Token: tok, Source: p.sourceLine(tok)}
}

func (p *Parser) unexpected(tok token.Token, expected string) error {
	return &SyntaxError{Kind: KindUnexpectedToken, Token: tok, Source: p.sourceLine(tok), Expected: expected}
}

func (p *Parser) semantic(tok token.Token, detail string) error {
	return &SyntaxError{Kind: KindSemantic, Token: tok, Source: p.sourceLine(tok), Detail: detail}
}

// endOfInput points at the last token of the file, or at the start of an
// empty file.
func (p *Parser) endOfInput(expected string) error {
	var last token.Token
	if n := len(p.tokens); n > 0 {
		last = p.tokens[n-1]
	}
	return &SyntaxError{Kind: KindEndOfInput, Token: last, Source: p.sourceLine(last), Expected: expected}
}
