package token

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	cases := []struct {
		word string
		want Type
		ok   bool
	}{
		{"create", Create, true},
		{"CrEaTe", Create, true},
		{"varchar", Varchar, true},
		{"key", Key, true},
		{"(", LParen, true},
		{";", Semicolon, true},
		{"student_id", Identifier, false},
	}
	for _, tc := range cases {
		got, ok := Lookup(tc.word)
		require.Equal(t, tc.ok, ok, tc.word)
		if tc.ok {
			require.Equal(t, tc.want, got, tc.word)
		}
	}
}

func TestTokenString(t *testing.T) {
	tok := Token{Type: Create, Value: "create", Line: 0, Offset: 6, Length: 6}
	require.Equal(t, "TOKEN: CREATE       LEXEME: create", tok.String())
	require.Equal(t, 1, tok.Column())
}

func TestTypeStringUnknownValue(t *testing.T) {
	require.Equal(t, "Type(99)", Type(99).String())
	require.Equal(t, "(", LParen.String())
}
