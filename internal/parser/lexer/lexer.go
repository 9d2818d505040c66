package lexer

import (
	"fmt"
	"strings"
)

type TokenType int

const (
	ILLEGAL TokenType = iota
	EOF

	IDENTIFIER // table, column or Table.Column
	STRING     // text between quotes
	NUMBER     // 123, -4, 1.25
	QUOTE      // normalized to "

	SELECT
	FROM
	WHERE
	AND
	INNER
	JOIN
	ON
	GROUP
	BY
	HAVING
	MIN
	MAX
	AVG
	COUNT
	SUM

	ASTERISK
	COMMA
	PAREN_OPEN
	PAREN_CLOSE
	SEMICOLON
	EQUALS
	NOT_EQUALS
	LESS_THAN
	GREATER_THAN
	LESS_EQUAL
	GREATER_EQUAL
)

var typeNames = map[TokenType]string{
	ILLEGAL: "ILLEGAL", EOF: "EOF", IDENTIFIER: "IDENTIFIER", STRING: "STRING",
	NUMBER: "NUMBER", QUOTE: "QUOTE", ASTERISK: "*", COMMA: ",", PAREN_OPEN: "(",
	PAREN_CLOSE: ")", SEMICOLON: ";", EQUALS: "=", NOT_EQUALS: "!=", LESS_THAN: "<",
	GREATER_THAN: ">", LESS_EQUAL: "<=", GREATER_EQUAL: ">=",
}

var keywords = map[string]TokenType{
	"SELECT": SELECT,
	"FROM":   FROM,
	"WHERE":  WHERE,
	"AND":    AND,
	"INNER":  INNER,
	"JOIN":   JOIN,
	"ON":     ON,
	"GROUP":  GROUP,
	"BY":     BY,
	"HAVING": HAVING,
	"MIN":    MIN,
	"MAX":    MAX,
	"AVG":    AVG,
	"COUNT":  COUNT,
	"SUM":    SUM,
}

func init() {
	for word, typ := range keywords {
		typeNames[typ] = word
	}
}

func (t TokenType) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// operators is ordered longest first so "<=" wins over "<".
var operators = []struct {
	text string
	typ  TokenType
}{
	{"!=", NOT_EQUALS},
	{"<=", LESS_EQUAL},
	{">=", GREATER_EQUAL},
	{"*", ASTERISK},
	{",", COMMA},
	{"(", PAREN_OPEN},
	{")", PAREN_CLOSE},
	{";", SEMICOLON},
	{"=", EQUALS},
	{"<", LESS_THAN},
	{">", GREATER_THAN},
}

// IsKeyword reports whether word is reserved, ignoring case.
func IsKeyword(word string) bool {
	_, ok := keywords[strings.ToUpper(word)]
	return ok
}

func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[strings.ToUpper(ident)]; ok {
		return tok
	}
	return IDENTIFIER
}

// Position is a 1-based line and column in the input.
type Position struct {
	Line   int
	Column int
}

type Token struct {
	Type    TokenType
	Literal string
	Position
}

func (t Token) String() string {
	return fmt.Sprintf("%s %q at %d:%d", t.Type, t.Literal, t.Line, t.Column)
}

// Error reports input the lexer could not turn into a token.
type Error struct {
	Position
	Text string
}

func (e *Error) Error() string {
	return fmt.Sprintf("illegal token at line %d, col %d: %s", e.Line, e.Column, e.Text)
}

// Lexer scans one statement. Keywords come out upper-cased; identifiers
// keep their spelling.
type Lexer struct {
	input string
	pos   int
	at    Position

	pending []Token
}

func New(input string) *Lexer {
	return &Lexer{input: input, at: Position{Line: 1, Column: 1}}
}

func (l *Lexer) peek(offset int) byte {
	if l.pos+offset >= len(l.input) {
		return 0
	}
	return l.input[l.pos+offset]
}

func (l *Lexer) advance(n int) {
	for ; n > 0 && l.pos < len(l.input); n-- {
		if l.input[l.pos] == '\n' {
			l.at.Line++
			l.at.Column = 1
		} else {
			l.at.Column++
		}
		l.pos++
	}
}

func (l *Lexer) NextToken() Token {
	if len(l.pending) > 0 {
		tok := l.pending[0]
		l.pending = l.pending[1:]
		return tok
	}

	for isSpace(l.peek(0)) {
		l.advance(1)
	}
	start := l.at
	ch := l.peek(0)

	switch {
	case ch == 0:
		return Token{Type: EOF, Position: start}
	case ch == '\'' || ch == '"':
		return l.quoted(start)
	case isLetter(ch):
		lit := l.take(func(i int) bool {
			c := l.peek(i)
			return isLetter(c) || isDigit(c) || (c == '.' && isLetter(l.peek(i+1)))
		})
		typ := LookupIdent(lit)
		if typ != IDENTIFIER {
			lit = strings.ToUpper(lit)
		}
		return Token{Type: typ, Literal: lit, Position: start}
	case isDigit(ch) || (ch == '-' && isDigit(l.peek(1))):
		return Token{Type: NUMBER, Literal: l.number(), Position: start}
	}

	rest := l.input[l.pos:]
	for _, op := range operators {
		if strings.HasPrefix(rest, op.text) {
			l.advance(len(op.text))
			return Token{Type: op.typ, Literal: op.text, Position: start}
		}
	}
	l.advance(1)
	return Token{Type: ILLEGAL, Literal: string(ch), Position: start}
}

// take consumes bytes while ok(offset) holds and returns them.
func (l *Lexer) take(ok func(offset int) bool) string {
	n := 0
	for l.peek(n) != 0 && ok(n) {
		n++
	}
	lit := l.input[l.pos : l.pos+n]
	l.advance(n)
	return lit
}

func (l *Lexer) number() string {
	n := 0
	if l.peek(0) == '-' {
		n++
	}
	for isDigit(l.peek(n)) {
		n++
	}
	if l.peek(n) == '.' && isDigit(l.peek(n+1)) {
		n++
		for isDigit(l.peek(n)) {
			n++
		}
	}
	lit := l.input[l.pos : l.pos+n]
	l.advance(n)
	return lit
}

// quoted returns the opening quote and queues the contents and the closing
// quote, so a literal always spans three tokens. Both quote styles come out
// as `"`.
func (l *Lexer) quoted(start Position) Token {
	quote := l.peek(0)
	l.advance(1)
	contentAt := l.at
	lit := l.take(func(i int) bool { return l.peek(i) != quote })

	if l.peek(0) == 0 {
		l.pending = append(l.pending, Token{Type: ILLEGAL, Literal: fmt.Sprintf("unterminated string %q", lit), Position: contentAt})
	} else {
		l.pending = append(l.pending,
			Token{Type: STRING, Literal: lit, Position: contentAt},
			Token{Type: QUOTE, Literal: `"`, Position: l.at},
		)
		l.advance(1)
	}
	return Token{Type: QUOTE, Literal: `"`, Position: start}
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}

func isLetter(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_'
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

// Tokenize scans all of input. The first illegal token is returned as an
// *Error.
func Tokenize(input string) ([]Token, error) {
	l := New(input)
	var tokens []Token
	for {
		tok := l.NextToken()
		switch tok.Type {
		case EOF:
			return tokens, nil
		case ILLEGAL:
			return nil, &Error{Position: tok.Position, Text: tok.Literal}
		}
		tokens = append(tokens, tok)
	}
}

// Split tokenizes input and returns only the literals, the form the
// grammar and the optimizer consume.
func Split(input string) ([]string, error) {
	tokens, err := Tokenize(input)
	if err != nil {
		return nil, err
	}
	return Literals(tokens), nil
}

func Literals(tokens []Token) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = t.Literal
	}
	return out
}
