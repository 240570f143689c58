package token

import "fmt"

type TokenType string

const (
	ILLEGAL TokenType = "ILLEGAL"
	EOF     TokenType = "EOF"

	IDENT TokenType = "IDENT"
	INT   TokenType = "INT"

	LT        TokenType = "<"
	GT        TokenType = ">"
	LPAREN    TokenType = "("
	RPAREN    TokenType = ")"
	LBRACKET  TokenType = "["
	RBRACKET  TokenType = "]"
	COMMA     TokenType = ","
	DOT       TokenType = "."
	COLON     TokenType = ":"
	SCOPE     TokenType = "::"
	ASTERISK  TokenType = "*"
	AMPERSAND TokenType = "&"
	AND       TokenType = "&&"
	ARROW     TokenType = "->"
	ELLIPSIS  TokenType = "..."

	// Keywords
	CONST    TokenType = "CONST"
	VOLATILE TokenType = "VOLATILE"
	FN       TokenType = "FN"
	NOEXCEPT TokenType = "NOEXCEPT"
	MEMPTR   TokenType = "MEMPTR"
	FORALL   TokenType = "FORALL"
	WHERE    TokenType = "WHERE"
)

var keywords = map[string]TokenType{
	"const":    CONST,
	"volatile": VOLATILE,
	"fn":       FN,
	"noexcept": NOEXCEPT,
	"memptr":   MEMPTR,
	"forall":   FORALL,
	"where":    WHERE,
}

// LookupIdent returns the keyword type of ident, or IDENT.
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}

type Token struct {
	Type    TokenType
	Lexeme  string
	Literal interface{}
	Line    int
	Column  int
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q) at %d:%d", t.Type, t.Lexeme, t.Line, t.Column)
}
