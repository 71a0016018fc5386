// Package token defines the lexical tokens shared by the SQL dataset and
// functional dependency grammars.
package token

import (
	"fmt"
	"strings"
)

// Type identifies the kind of a Token.
type Type int

const (
	Identifier Type = iota
	Create
	Table
	If
	Not
	Null
	Exists
	Int
	Integer
	Varchar
	Key
	LParen
	RParen
	Semicolon
	Colon
	Comma
	Dash
	RAngle
	IntConst
	Unknown
)

var typeNames = map[Type]string{
	Identifier: "IDENTIFIER",
	Create:     "CREATE",
	Table:      "TABLE",
	If:         "IF",
	Not:        "NOT",
	Null:       "NULL",
	Exists:     "EXISTS",
	Int:        "INT",
	Integer:    "INTEGER",
	Varchar:    "VARCHAR",
	Key:        "KEY",
	LParen:     "(",
	RParen:     ")",
	Semicolon:  ";",
	Colon:      ":",
	Comma:      ",",
	Dash:       "-",
	RAngle:     ">",
	IntConst:   "INTCONST",
	Unknown:    "UNKNOWN",
}

var lookup = map[string]Type{
	"CREATE":  Create,
	"TABLE":   Table,
	"IF":      If,
	"NOT":     Not,
	"NULL":    Null,
	"EXISTS":  Exists,
	"INT":     Int,
	"INTEGER": Integer,
	"VARCHAR": Varchar,
	"KEY":     Key,
	"(":       LParen,
	")":       RParen,
	";":       Semicolon,
	":":       Colon,
	",":       Comma,
	"-":       Dash,
	">":       RAngle,
}

// String returns the display name of the token type.
func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// Lookup resolves a keyword or punctuation lexeme. Keywords match
// case-insensitively. The second result is false when word is neither.
func Lookup(word string) (Type, bool) {
	t, ok := lookup[strings.ToUpper(word)]
	return t, ok
}

// Token is a single lexeme with its position in the source text.
type Token struct {
	Type  Type
	Value string
	// Line is zero based.
	Line int
	// Offset is the column just past the last character of the token.
	Offset int
	Length int
}

// Column returns the 1-based column of the first character of the token.
func (t Token) Column() int {
	return t.Offset - t.Length + 1
}

// String renders the token as "TOKEN: <type>" padded to 20 columns followed
// by "LEXEME: <value>".
func (t Token) String() string {
	return fmt.Sprintf("%-20s%s", "TOKEN: "+t.Type.String(), "LEXEME: "+t.Value)
}
