package token

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// Test looking up values succeeds, then fails
func TestLookup(t *testing.T) {
	for key, val := range keywords {
		if LookupIdentifier(key) != val {
			t.Errorf("Lookup of %s failed", key)
		}
		// Once the keywords are uppercase they'll no longer
		// match - so we find them as identifiers.
		if LookupIdentifier(strings.ToUpper(key)) != IDENT {
			t.Errorf("Lookup of %s failed", key)
		}
	}
}

func TestNullAliasesNil(t *testing.T) {
	require.Equal(t, NIL, LookupIdentifier("null"))
	require.Equal(t, NIL, LookupIdentifier("nil"))
	require.Equal(t, FOREACH, LookupIdentifier("for"))
}

func TestPosition(t *testing.T) {
	tok := Token{
		Type:    IDENT,
		Literal: "foo",
		StartPosition: Position{
			Line:   2,
			Column: 0,
		},
	}
	// Switches to 1-indexed
	require.Equal(t, 3, tok.StartPosition.LineNumber())
	require.Equal(t, 1, tok.StartPosition.ColumnNumber())
	require.Equal(t, 4, tok.StartPosition.Advance(3).Column)
}
