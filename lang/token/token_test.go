package token

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokenString(t *testing.T) {
	for tok := Token(0); tok <= maxToken; tok++ {
		if tok.String() == "" {
			t.Errorf("missing string representation of token %d", tok)
		}
	}
}

func TestLookup(t *testing.T) {
	cases := []struct {
		lit  string
		want Token
	}{
		{"and", AND},
		{"class", CLASS},
		{"while", WHILE},
		{"print", PRINT},
		{"foo", IDENT},
		{"printer", IDENT},
	}
	for _, c := range cases {
		require.Equal(t, c.want, Lookup(c.lit), c.lit)
	}
}

func TestGoString(t *testing.T) {
	require.Equal(t, "'+'", PLUS.GoString())
	require.Equal(t, "identifier", IDENT.GoString())
}
