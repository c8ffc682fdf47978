package lexer

import (
	"testing"

	"github.com/mvel/mvel-sub010/internal/token"
	"github.com/stretchr/testify/require"
)

type expectedToken struct {
	typ     token.Type
	literal string
}

func lexAll(t *testing.T, input string, expected []expectedToken) {
	t.Helper()
	l := New(input)
	for i, tt := range expected {
		tok, err := l.Next()
		require.Nil(t, err)
		if tok.Type != tt.typ {
			t.Fatalf("tests[%d] - tokentype wrong, expected=%q, got=%q", i, tt.typ, tok.Type)
		}
		if tok.Literal != tt.literal {
			t.Fatalf("tests[%d] - Literal wrong, expected=%q, got=%q", i, tt.literal, tok.Literal)
		}
	}
}

func TestNull(t *testing.T) {
	lexAll(t, "a = null;", []expectedToken{
		{token.IDENT, "a"},
		{token.ASSIGN, "="},
		{token.NIL, "null"},
		{token.SEMICOLON, ";"},
		{token.EOF, ""},
	})
}

func TestOperators(t *testing.T) {
	lexAll(t, "%=+(){},;?|| &&**= ?. . @ != <= >= += -= /= **", []expectedToken{
		{token.MOD, "%"},
		{token.ASSIGN, "="},
		{token.PLUS, "+"},
		{token.LPAREN, "("},
		{token.RPAREN, ")"},
		{token.LBRACE, "{"},
		{token.RBRACE, "}"},
		{token.COMMA, ","},
		{token.SEMICOLON, ";"},
		{token.QUESTION, "?"},
		{token.OR, "||"},
		{token.AND, "&&"},
		{token.POW, "**"},
		{token.ASSIGN, "="},
		{token.QUESTION_DOT, "?."},
		{token.PERIOD, "."},
		{token.AT, "@"},
		{token.NOT_EQ, "!="},
		{token.LT_EQUALS, "<="},
		{token.GT_EQUALS, ">="},
		{token.PLUS_EQUALS, "+="},
		{token.MINUS_EQUALS, "-="},
		{token.SLASH_EQUALS, "/="},
		{token.POW, "**"},
		{token.EOF, ""},
	})
}

func TestPropertyPath(t *testing.T) {
	lexAll(t, "foo?.bar.baz[0].name()", []expectedToken{
		{token.IDENT, "foo"},
		{token.QUESTION_DOT, "?."},
		{token.IDENT, "bar"},
		{token.PERIOD, "."},
		{token.IDENT, "baz"},
		{token.LBRACKET, "["},
		{token.INT, "0"},
		{token.RBRACKET, "]"},
		{token.PERIOD, "."},
		{token.IDENT, "name"},
		{token.LPAREN, "("},
		{token.RPAREN, ")"},
		{token.EOF, ""},
	})
}

func TestMapLiteralAndStrings(t *testing.T) {
	lexAll(t, `[ 'key1' : x, "k\"2": 'it\'s' ]`, []expectedToken{
		{token.LBRACKET, "["},
		{token.STRING, "key1"},
		{token.COLON, ":"},
		{token.IDENT, "x"},
		{token.COMMA, ","},
		{token.STRING, `k"2`},
		{token.COLON, ":"},
		{token.STRING, "it's"},
		{token.RBRACKET, "]"},
		{token.EOF, ""},
	})
}

func TestNumbers(t *testing.T) {
	lexAll(t, "1 2.5 0x1F 3e2 .5 7.size()", []expectedToken{
		{token.INT, "1"},
		{token.FLOAT, "2.5"},
		{token.INT, "0x1F"},
		{token.FLOAT, "3e2"},
		{token.FLOAT, ".5"},
		{token.INT, "7"},
		{token.PERIOD, "."},
		{token.IDENT, "size"},
		{token.LPAREN, "("},
		{token.RPAREN, ")"},
		{token.EOF, ""},
	})
}

func TestKeywordsAndComments(t *testing.T) {
	input := `// leading comment
var total = 0; /* block
comment */ foreach (x : items) { if (x contains 'a') { break } }`
	lexAll(t, input, []expectedToken{
		{token.NEWLINE, "\n"},
		{token.VAR, "var"},
		{token.IDENT, "total"},
		{token.ASSIGN, "="},
		{token.INT, "0"},
		{token.SEMICOLON, ";"},
		{token.FOREACH, "foreach"},
		{token.LPAREN, "("},
		{token.IDENT, "x"},
		{token.COLON, ":"},
		{token.IDENT, "items"},
		{token.RPAREN, ")"},
		{token.LBRACE, "{"},
		{token.IF, "if"},
		{token.LPAREN, "("},
		{token.IDENT, "x"},
		{token.CONTAINS, "contains"},
		{token.STRING, "a"},
		{token.RPAREN, ")"},
		{token.LBRACE, "{"},
		{token.BREAK, "break"},
		{token.RBRACE, "}"},
		{token.RBRACE, "}"},
		{token.EOF, ""},
	})
}

func TestPositions(t *testing.T) {
	l := New("a\n  bc")
	l.SetFilename("t.mvel")
	a, err := l.Next()
	require.Nil(t, err)
	require.Equal(t, 0, a.StartPosition.Line)
	nl, err := l.Next()
	require.Nil(t, err)
	require.Equal(t, token.NEWLINE, nl.Type)
	bc, err := l.Next()
	require.Nil(t, err)
	require.Equal(t, "bc", bc.Literal)
	require.Equal(t, 1, bc.StartPosition.Line)
	require.Equal(t, 2, bc.StartPosition.Column)
	require.Equal(t, "t.mvel", bc.StartPosition.File)
	require.Equal(t, "  bc", l.GetLineText(bc))
}

func TestSaveRestore(t *testing.T) {
	l := New("a b c")
	_, err := l.Next()
	require.Nil(t, err)
	state := l.SaveState()
	b, _ := l.Next()
	require.Equal(t, "b", b.Literal)
	l.RestoreState(state)
	again, _ := l.Next()
	require.Equal(t, "b", again.Literal)
}

func TestErrors(t *testing.T) {
	tests := []struct {
		input string
		msg   string
	}{
		{`'abc`, "unterminated string literal"},
		{`"a\qb"`, `invalid escape sequence \q`},
		{"#", `invalid character '#'`},
		{"0x", `invalid hex literal "0x"`},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := New(tt.input).Next()
			require.NotNil(t, err)
			require.Equal(t, tt.msg, err.Error())
		})
	}
}
