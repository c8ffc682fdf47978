// Package lexer converts expression source text into a stream of tokens.
package lexer

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mvel/mvel-sub010/internal/token"
)

// Lexer holds our object-state.
type Lexer struct {
	input     string
	position  int  // current character position
	readPos   int  // next character position
	ch        rune // current character
	chWidth   int  // width in bytes of the current character
	line      int
	lineStart int
	filename  string
}

// State captures the lexer position so that callers can backtrack.
type State struct {
	position  int
	readPos   int
	ch        rune
	chWidth   int
	line      int
	lineStart int
}

// New returns a Lexer for the given input.
func New(input string) *Lexer {
	l := &Lexer{input: input}
	l.readChar()
	return l
}

// SetFilename sets the filename reported in token positions.
func (l *Lexer) SetFilename(filename string) {
	l.filename = filename
}

// Filename returns the filename reported in token positions.
func (l *Lexer) Filename() string {
	return l.filename
}

// SaveState returns the current lexer state.
func (l *Lexer) SaveState() State {
	return State{
		position:  l.position,
		readPos:   l.readPos,
		ch:        l.ch,
		chWidth:   l.chWidth,
		line:      l.line,
		lineStart: l.lineStart,
	}
}

// RestoreState rewinds the lexer to a previously saved state.
func (l *Lexer) RestoreState(s State) {
	l.position = s.position
	l.readPos = s.readPos
	l.ch = s.ch
	l.chWidth = s.chWidth
	l.line = s.line
	l.lineStart = s.lineStart
}

// GetLineText returns the full source line containing the given token.
func (l *Lexer) GetLineText(tok token.Token) string {
	start := tok.StartPosition.LineStart
	if start < 0 || start > len(l.input) {
		return ""
	}
	end := strings.IndexByte(l.input[start:], '\n')
	if end < 0 {
		return strings.TrimRight(l.input[start:], "\r")
	}
	return strings.TrimRight(l.input[start:start+end], "\r")
}

// Next returns the next token from the input. At the end of input an EOF
// token is returned for every subsequent call.
func (l *Lexer) Next() (token.Token, error) {
	l.skipWhitespaceAndComments()
	start := l.pos()
	switch l.ch {
	case 0:
		return l.tokenAt(token.EOF, "", start), nil
	case '\n':
		l.newline()
		return l.token(token.NEWLINE, "\n", start), nil
	case '\'', '"':
		return l.readString(start)
	case '@':
		l.readChar()
		return l.token(token.AT, "@", start), nil
	}
	if isIdentStart(l.ch) {
		return l.readIdentifier(start), nil
	}
	if isDigit(l.ch) || (l.ch == '.' && isDigit(l.peekChar())) {
		return l.readNumber(start)
	}
	return l.readOperator(start)
}

func (l *Lexer) readOperator(start token.Position) (token.Token, error) {
	ch, next := l.ch, l.peekChar()
	two := func(t token.Type) (token.Token, error) {
		lit := string([]rune{ch, next})
		l.readChar()
		l.readChar()
		return l.token(t, lit, start), nil
	}
	one := func(t token.Type) (token.Token, error) {
		l.readChar()
		return l.token(t, string(ch), start), nil
	}
	switch ch {
	case '=':
		if next == '=' {
			return two(token.EQ)
		}
		return one(token.ASSIGN)
	case '!':
		if next == '=' {
			return two(token.NOT_EQ)
		}
		return one(token.BANG)
	case '<':
		if next == '=' {
			return two(token.LT_EQUALS)
		}
		return one(token.LT)
	case '>':
		if next == '=' {
			return two(token.GT_EQUALS)
		}
		return one(token.GT)
	case '+':
		if next == '=' {
			return two(token.PLUS_EQUALS)
		}
		return one(token.PLUS)
	case '-':
		if next == '=' {
			return two(token.MINUS_EQUALS)
		}
		return one(token.MINUS)
	case '*':
		if next == '*' {
			return two(token.POW)
		}
		if next == '=' {
			return two(token.ASTERISK_EQUALS)
		}
		return one(token.ASTERISK)
	case '/':
		if next == '=' {
			return two(token.SLASH_EQUALS)
		}
		return one(token.SLASH)
	case '%':
		return one(token.MOD)
	case '&':
		if next == '&' {
			return two(token.AND)
		}
	case '|':
		if next == '|' {
			return two(token.OR)
		}
	case '?':
		if next == '.' {
			return two(token.QUESTION_DOT)
		}
		return one(token.QUESTION)
	case '.':
		return one(token.PERIOD)
	case ',':
		return one(token.COMMA)
	case ';':
		return one(token.SEMICOLON)
	case ':':
		return one(token.COLON)
	case '(':
		return one(token.LPAREN)
	case ')':
		return one(token.RPAREN)
	case '[':
		return one(token.LBRACKET)
	case ']':
		return one(token.RBRACKET)
	case '{':
		return one(token.LBRACE)
	case '}':
		return one(token.RBRACE)
	}
	l.readChar()
	tok := l.token(token.ILLEGAL, string(ch), start)
	return tok, fmt.Errorf("invalid character %q", ch)
}

func (l *Lexer) readIdentifier(start token.Position) token.Token {
	begin := l.position
	for isIdentStart(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	lit := l.input[begin:l.position]
	return l.token(token.LookupIdentifier(lit), lit, start)
}

func (l *Lexer) readNumber(start token.Position) (token.Token, error) {
	begin := l.position
	if l.ch == '0' && (l.peekChar() == 'x' || l.peekChar() == 'X') {
		l.readChar()
		l.readChar()
		for isHexDigit(l.ch) {
			l.readChar()
		}
		lit := l.input[begin:l.position]
		if len(lit) == 2 {
			return l.token(token.ILLEGAL, lit, start), fmt.Errorf("invalid hex literal %q", lit)
		}
		return l.token(token.INT, lit, start), nil
	}
	isFloat := false
	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' && isDigit(l.peekChar()) {
		isFloat = true
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	if l.ch == 'e' || l.ch == 'E' {
		save := l.SaveState()
		l.readChar()
		if l.ch == '+' || l.ch == '-' {
			l.readChar()
		}
		if !isDigit(l.ch) {
			l.RestoreState(save)
		} else {
			isFloat = true
			for isDigit(l.ch) {
				l.readChar()
			}
		}
	}
	lit := l.input[begin:l.position]
	if isFloat {
		return l.token(token.FLOAT, lit, start), nil
	}
	return l.token(token.INT, lit, start), nil
}

func (l *Lexer) readString(start token.Position) (token.Token, error) {
	quote := l.ch
	var out strings.Builder
	for {
		l.readChar()
		switch l.ch {
		case 0, '\n':
			tok := l.token(token.ILLEGAL, out.String(), start)
			return tok, fmt.Errorf("unterminated string literal")
		case quote:
			l.readChar()
			return l.token(token.STRING, out.String(), start), nil
		case '\\':
			l.readChar()
			switch l.ch {
			case 'n':
				out.WriteByte('\n')
			case 't':
				out.WriteByte('\t')
			case 'r':
				out.WriteByte('\r')
			case '0':
				out.WriteByte(0)
			case '\\', '\'', '"':
				out.WriteRune(l.ch)
			default:
				tok := l.token(token.ILLEGAL, out.String(), start)
				return tok, fmt.Errorf("invalid escape sequence \\%c", l.ch)
			}
		default:
			out.WriteRune(l.ch)
		}
	}
}

func (l *Lexer) skipWhitespaceAndComments() {
	for {
		switch {
		case l.ch == ' ' || l.ch == '\t' || l.ch == '\r':
			l.readChar()
		case l.ch == '/' && l.peekChar() == '/':
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}
		case l.ch == '/' && l.peekChar() == '*':
			l.readChar()
			l.readChar()
			for l.ch != 0 && !(l.ch == '*' && l.peekChar() == '/') {
				if l.ch == '\n' {
					l.newline()
					continue
				}
				l.readChar()
			}
			if l.ch != 0 {
				l.readChar()
				l.readChar()
			}
		default:
			return
		}
	}
}

// newline consumes a '\n' and records the start of the next line.
func (l *Lexer) newline() {
	l.readChar()
	l.line++
	l.lineStart = l.position
}

func (l *Lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.position = len(l.input)
		l.ch = 0
		l.chWidth = 0
		return
	}
	r, w := utf8.DecodeRuneInString(l.input[l.readPos:])
	l.position = l.readPos
	l.readPos += w
	l.ch = r
	l.chWidth = w
}

func (l *Lexer) peekChar() rune {
	if l.readPos >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPos:])
	return r
}

func (l *Lexer) pos() token.Position {
	return token.Position{
		Char:      l.position,
		LineStart: l.lineStart,
		Line:      l.line,
		Column:    l.position - l.lineStart,
		File:      l.filename,
	}
}

// token builds a token that starts at start and ends at the current position.
// A NEWLINE token keeps the line of its start position.
func (l *Lexer) token(t token.Type, lit string, start token.Position) token.Token {
	end := start.Advance(l.position - start.Char)
	return token.Token{Type: t, Literal: lit, StartPosition: start, EndPosition: end}
}

func (l *Lexer) tokenAt(t token.Type, lit string, start token.Position) token.Token {
	return token.Token{Type: t, Literal: lit, StartPosition: start, EndPosition: start}
}

func isIdentStart(ch rune) bool {
	return ch == '_' || ch == '$' || unicode.IsLetter(ch)
}

func isDigit(ch rune) bool {
	return '0' <= ch && ch <= '9'
}

func isHexDigit(ch rune) bool {
	return isDigit(ch) || ('a' <= ch && ch <= 'f') || ('A' <= ch && ch <= 'F')
}
