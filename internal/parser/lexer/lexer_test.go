package lexer

import (
	"errors"
	"testing"

	"gotest.tools/v3/assert"
)

func TestNextToken(t *testing.T) {
	input := `select Customers.FirstName, COUNT(Orders.Total) FROM Customers
INNER JOIN Orders ON Customers.CustomerID = Orders.CustomerID
WHERE Orders.Total >= 10.5 AND Customers.City != 'Paris' GROUP BY Customers.FirstName;`

	tests := []struct {
		expectedType    TokenType
		expectedLiteral string
	}{
		{SELECT, "SELECT"},
		{IDENTIFIER, "Customers.FirstName"},
		{COMMA, ","},
		{COUNT, "COUNT"},
		{PAREN_OPEN, "("},
		{IDENTIFIER, "Orders.Total"},
		{PAREN_CLOSE, ")"},
		{FROM, "FROM"},
		{IDENTIFIER, "Customers"},
		{INNER, "INNER"},
		{JOIN, "JOIN"},
		{IDENTIFIER, "Orders"},
		{ON, "ON"},
		{IDENTIFIER, "Customers.CustomerID"},
		{EQUALS, "="},
		{IDENTIFIER, "Orders.CustomerID"},
		{WHERE, "WHERE"},
		{IDENTIFIER, "Orders.Total"},
		{GREATER_EQUAL, ">="},
		{NUMBER, "10.5"},
		{AND, "AND"},
		{IDENTIFIER, "Customers.City"},
		{NOT_EQUALS, "!="},
		{QUOTE, `"`},
		{STRING, "Paris"},
		{QUOTE, `"`},
		{GROUP, "GROUP"},
		{BY, "BY"},
		{IDENTIFIER, "Customers.FirstName"},
		{SEMICOLON, ";"},
		{EOF, ""},
	}

	l := New(input)

	for i, tt := range tests {
		tok := l.NextToken()

		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%s, got=%s (%q)",
				i, tt.expectedType, tok.Type, tok.Literal)
		}

		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q",
				i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestComparators(t *testing.T) {
	got, err := Split("a < 1 b <= 2 c > -3 d >= 4 e = 5 f != 6")
	assert.NilError(t, err)
	assert.DeepEqual(t, got, []string{
		"a", "<", "1", "b", "<=", "2", "c", ">", "-3", "d", ">=", "4", "e", "=", "5", "f", "!=", "6",
	})
}

func TestStringLiteralWithSpaces(t *testing.T) {
	got, err := Split(`WHERE Customers.FirstName = "Jane Doe"`)
	assert.NilError(t, err)
	assert.DeepEqual(t, got, []string{"WHERE", "Customers.FirstName", "=", `"`, "Jane Doe", `"`})
}

func TestTokenizeErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		msg   string
	}{
		{"bang without equals", "a ! b", "illegal token"},
		{"unknown character", "SELECT # FROM t", "illegal token"},
		{"unterminated string", `WHERE a = 'abc`, "unterminated string"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Tokenize(tt.input)
			assert.ErrorContains(t, err, tt.msg)
		})
	}
}

func TestIsKeyword(t *testing.T) {
	assert.Assert(t, IsKeyword("having"))
	assert.Assert(t, IsKeyword("Sum"))
	assert.Assert(t, !IsKeyword("Customers"))
}

func TestPositions(t *testing.T) {
	l := New("SELECT *\n  FROM 'x'")
	want := []Token{
		{Type: SELECT, Literal: "SELECT", Position: Position{1, 1}},
		{Type: ASTERISK, Literal: "*", Position: Position{1, 8}},
		{Type: FROM, Literal: "FROM", Position: Position{2, 3}},
		{Type: QUOTE, Literal: `"`, Position: Position{2, 8}},
		{Type: STRING, Literal: "x", Position: Position{2, 9}},
		{Type: QUOTE, Literal: `"`, Position: Position{2, 10}},
	}
	for i, w := range want {
		assert.Equal(t, l.NextToken(), w, "token %d", i)
	}
	assert.Equal(t, l.NextToken().Type, EOF)
}

func TestErrorPosition(t *testing.T) {
	_, err := Tokenize("SELECT a\nFROM t WHERE a ! 1")
	var lexErr *Error
	assert.Assert(t, errors.As(err, &lexErr))
	assert.Equal(t, lexErr.Position, Position{Line: 2, Column: 16})
	assert.Equal(t, lexErr.Text, "!")
}

func TestTokenString(t *testing.T) {
	assert.Equal(t, Token{Type: HAVING, Literal: "HAVING", Position: Position{1, 3}}.String(), `HAVING "HAVING" at 1:3`)
	assert.Equal(t, GREATER_EQUAL.String(), ">=")
	assert.Equal(t, TokenType(99).String(), "TokenType(99)")
}
