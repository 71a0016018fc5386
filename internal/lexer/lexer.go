// Package lexer turns SQL dataset and dependency text into tokens.
package lexer

import (
	"fmt"
	"strconv"
	"unicode"

	"github.com/Phaysik/database-normalizer/internal/token"
)

const decimalBase = 10

// LiteralError reports an integer literal that does not fit in 64 bits.
type LiteralError struct {
	Token token.Token
	Err   error
}

func (e *LiteralError) Error() string {
	return fmt.Sprintf("line %d: integer literal %q out of range: %v", e.Token.Line+1, e.Token.Value, e.Err)
}

func (e *LiteralError) Unwrap() error { return e.Err }

// Lexer scans a text one rune at a time, tracking the line and column of
// every token it produces.
type Lexer struct {
	text   []rune
	pos    int
	line   int
	column int
}

// New creates a Lexer over text.
func New(text string) *Lexer {
	return &Lexer{text: []rune(text)}
}

// Tokens scans the whole input and returns every token in order. Characters
// that belong to no token class are returned as token.Unknown so the parser
// can report them with their position.
func (l *Lexer) Tokens() ([]token.Token, error) {
	var tokens []token.Token
	for {
		l.skipWhitespaceAndComments()
		if !l.more() {
			return tokens, nil
		}
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
	}
}

func (l *Lexer) more() bool {
	return l.pos < len(l.text)
}

func (l *Lexer) peek(ahead int) (rune, bool) {
	if l.pos+ahead >= len(l.text) {
		return 0, false
	}
	return l.text[l.pos+ahead], true
}

// advance consumes one rune. A CR immediately followed by LF only moves the
// column so the pair counts as a single line break.
func (l *Lexer) advance() rune {
	r := l.text[l.pos]
	l.pos++
	switch r {
	case '\n':
		l.line++
		l.column = 0
	case '\r':
		if next, ok := l.peek(0); ok && next == '\n' {
			l.column++
		} else {
			l.line++
			l.column = 0
		}
	default:
		l.column++
	}
	return r
}

func (l *Lexer) skipWhitespaceAndComments() {
	for l.more() {
		r, _ := l.peek(0)
		switch {
		case r == ' ' || r == '\t' || r == '\f' || r == '\v' || r == '\r' || r == '\n':
			l.advance()
		case r == '-':
			if next, ok := l.peek(1); ok && next == '-' {
				for l.more() {
					if c, _ := l.peek(0); c == '\n' || c == '\r' {
						break
					}
					l.advance()
				}
				continue
			}
			return
		default:
			return
		}
	}
}

func (l *Lexer) next() (token.Token, error) {
	r, _ := l.peek(0)
	switch {
	case isIdentStart(r):
		return l.identifierOrKeyword(), nil
	case isDigit(r):
		return l.numericLiteral()
	}

	l.advance()
	lexeme := string(r)
	typ, ok := token.Lookup(lexeme)
	if !ok {
		typ = token.Unknown
	}
	return l.emit(typ, lexeme, 1), nil
}

func (l *Lexer) identifierOrKeyword() token.Token {
	start := l.pos
	for l.more() {
		r, _ := l.peek(0)
		if !isIdentStart(r) && !isDigit(r) {
			break
		}
		l.advance()
	}
	value := string(l.text[start:l.pos])
	typ, ok := token.Lookup(value)
	if !ok {
		typ = token.Identifier
	}
	return l.emit(typ, value, l.pos-start)
}

func (l *Lexer) numericLiteral() (token.Token, error) {
	start := l.pos
	for l.more() {
		r, _ := l.peek(0)
		if !isDigit(r) {
			break
		}
		l.advance()
	}
	digits := string(l.text[start:l.pos])
	parsed, err := strconv.ParseUint(digits, decimalBase, 64)
	if err != nil {
		return token.Token{}, &LiteralError{Token: l.emit(token.IntConst, digits, l.pos-start), Err: err}
	}
	return l.emit(token.IntConst, strconv.FormatUint(parsed, decimalBase), l.pos-start), nil
}

func (l *Lexer) emit(typ token.Type, value string, length int) token.Token {
	return token.Token{
		Type:   typ,
		Value:  value,
		Line:   l.line,
		Offset: l.column,
		Length: length,
	}
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
