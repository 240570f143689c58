package lexer

import (
	"strconv"
	"unicode"
	"unicode/utf8"

	"github.com/funvibe/concepts/internal/token"
)

// Lexer tokenizes type expressions and constraint declarations.
type Lexer struct {
	input        string
	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           rune // current char under examination
	line         int  // current line number
	column       int  // current column number
}

func New(input string) *Lexer {
	l := &Lexer{input: input, line: 1, column: 0}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.column = 0
	}

	if l.readPosition >= len(l.input) {
		l.ch = 0
	} else {
		r, w := utf8.DecodeRuneInString(l.input[l.readPosition:])
		l.ch = r
		l.position = l.readPosition
		l.readPosition += w
		l.column++
		return
	}

	l.position = l.readPosition
	l.readPosition++
	l.column++
}

func (l *Lexer) peekChar() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPosition:])
	return r
}

func (l *Lexer) NextToken() token.Token {
	var tok token.Token

	l.skipWhitespace()

	switch l.ch {
	case '<':
		tok = newToken(token.LT, l.ch, l.line, l.column)
	case '>':
		// '>>' is always two closers in type syntax: List<List<int>>.
		tok = newToken(token.GT, l.ch, l.line, l.column)
	case '(':
		tok = newToken(token.LPAREN, l.ch, l.line, l.column)
	case ')':
		tok = newToken(token.RPAREN, l.ch, l.line, l.column)
	case '[':
		tok = newToken(token.LBRACKET, l.ch, l.line, l.column)
	case ']':
		tok = newToken(token.RBRACKET, l.ch, l.line, l.column)
	case ',':
		tok = newToken(token.COMMA, l.ch, l.line, l.column)
	case '*':
		tok = newToken(token.ASTERISK, l.ch, l.line, l.column)
	case '.':
		if l.peekChar() == '.' {
			line, col := l.line, l.column
			l.readChar()
			if l.peekChar() != '.' {
				l.readChar()
				return token.Token{Type: token.ILLEGAL, Lexeme: "..", Literal: "..", Line: line, Column: col}
			}
			l.readChar()
			tok = token.Token{Type: token.ELLIPSIS, Lexeme: "...", Literal: "...", Line: line, Column: col}
		} else {
			tok = newToken(token.DOT, l.ch, l.line, l.column)
		}
	case ':':
		if l.peekChar() == ':' {
			line, col := l.line, l.column
			l.readChar()
			tok = token.Token{Type: token.SCOPE, Lexeme: "::", Literal: "::", Line: line, Column: col}
		} else {
			tok = newToken(token.COLON, l.ch, l.line, l.column)
		}
	case '&':
		if l.peekChar() == '&' {
			line, col := l.line, l.column
			l.readChar()
			tok = token.Token{Type: token.AND, Lexeme: "&&", Literal: "&&", Line: line, Column: col}
		} else {
			tok = newToken(token.AMPERSAND, l.ch, l.line, l.column)
		}
	case '-':
		if l.peekChar() == '>' {
			line, col := l.line, l.column
			l.readChar()
			tok = token.Token{Type: token.ARROW, Lexeme: "->", Literal: "->", Line: line, Column: col}
		} else {
			tok = newToken(token.ILLEGAL, l.ch, l.line, l.column)
		}
	case 0:
		tok = token.Token{Type: token.EOF, Lexeme: "", Line: l.line, Column: l.column}
		return tok
	default:
		if isLetter(l.ch) {
			line, col := l.line, l.column
			ident := l.readIdentifier()
			return token.Token{Type: token.LookupIdent(ident), Lexeme: ident, Literal: ident, Line: line, Column: col}
		}
		if isDigit(l.ch) {
			line, col := l.line, l.column
			digits := l.readNumber()
			n, err := strconv.Atoi(digits)
			if err != nil {
				return token.Token{Type: token.ILLEGAL, Lexeme: digits, Literal: digits, Line: line, Column: col}
			}
			return token.Token{Type: token.INT, Lexeme: digits, Literal: n, Line: line, Column: col}
		}
		tok = newToken(token.ILLEGAL, l.ch, l.line, l.column)
	}

	l.readChar()
	return tok
}

// Tokens drains the lexer, including the trailing EOF token.
func (l *Lexer) Tokens() []token.Token {
	var toks []token.Token
	for {
		tok := l.NextToken()
		toks = append(toks, tok)
		if tok.Type == token.EOF {
			return toks
		}
	}
}

func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
		l.readChar()
	}
}

func (l *Lexer) readIdentifier() string {
	position := l.position
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[position:l.position]
}

func (l *Lexer) readNumber() string {
	position := l.position
	for isDigit(l.ch) {
		l.readChar()
	}
	return l.input[position:l.position]
}

func isLetter(ch rune) bool {
	return unicode.IsLetter(ch) || ch == '_'
}

func isDigit(ch rune) bool {
	return '0' <= ch && ch <= '9'
}

func newToken(tokenType token.TokenType, ch rune, line, col int) token.Token {
	return token.Token{Type: tokenType, Lexeme: string(ch), Literal: string(ch), Line: line, Column: col}
}
