package parser

import (
	"fmt"

	"github.com/funvibe/concepts/internal/diagnostics"
	"github.com/funvibe/concepts/internal/lexer"
	"github.com/funvibe/concepts/internal/token"
	"github.com/funvibe/concepts/internal/typesystem"
)

// Parser reads type expressions, concept queries and constrained
// declarations. Names listed as variables parse as type parameters;
// every other identifier parses as a named type.
type Parser struct {
	tokens []token.Token
	pos    int

	curToken  token.Token
	peekToken token.Token

	vars   map[string]bool
	file   string
	errors []*diagnostics.DiagnosticError
}

func New(input string, vars ...string) *Parser {
	p := &Parser{
		tokens: lexer.New(input).Tokens(),
		vars:   make(map[string]bool),
	}
	for _, v := range vars {
		p.vars[v] = true
	}
	p.pos = -1
	p.nextToken()
	p.nextToken()
	return p
}

// WithFile sets the file name reported in diagnostics.
func (p *Parser) WithFile(file string) *Parser {
	p.file = file
	return p
}

func (p *Parser) Errors() []*diagnostics.DiagnosticError {
	return p.errors
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.pos++
	if p.pos < len(p.tokens) {
		p.peekToken = p.tokens[p.pos]
	} else {
		p.peekToken = token.Token{Type: token.EOF}
	}
}

func (p *Parser) curTokenIs(t token.TokenType) bool  { return p.curToken.Type == t }
func (p *Parser) peekTokenIs(t token.TokenType) bool { return p.peekToken.Type == t }

func (p *Parser) expectPeek(t token.TokenType) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.peekError(t)
	return false
}

func (p *Parser) position(tok token.Token) diagnostics.Position {
	return diagnostics.Position{File: p.file, Line: tok.Line, Column: tok.Column}
}

func (p *Parser) addError(tok token.Token, format string, args ...interface{}) {
	p.errors = append(p.errors, diagnostics.NewError(diagnostics.ErrC004, p.position(tok), format, args...))
}

func (p *Parser) peekError(t token.TokenType) {
	p.addError(p.peekToken, "expected %s, got %s", describe(t), describeToken(p.peekToken))
}

func describe(t token.TokenType) string {
	switch t {
	case token.IDENT:
		return "identifier"
	case token.INT:
		return "integer"
	case token.EOF:
		return "end of input"
	}
	return fmt.Sprintf("%q", string(t))
}

func describeToken(tok token.Token) string {
	if tok.Type == token.EOF {
		return "end of input"
	}
	return fmt.Sprintf("%q", tok.Lexeme)
}

// firstError returns the first recorded diagnostic as an error.
func (p *Parser) firstError() error {
	if len(p.errors) == 0 {
		return nil
	}
	return p.errors[0]
}

// ParseType parses a single type expression such as "const List<int>::iterator&".
func ParseType(input string, vars ...string) (typesystem.Type, error) {
	p := New(input, vars...)
	t := p.parseType()
	if t != nil && !p.peekTokenIs(token.EOF) {
		p.addError(p.peekToken, "unexpected %s after type", describeToken(p.peekToken))
	}
	if err := p.firstError(); err != nil {
		return nil, err
	}
	return typesystem.Canonical(t), nil
}

// ParseTypeList parses a comma separated list of types.
func ParseTypeList(input string, vars ...string) ([]typesystem.Type, error) {
	p := New(input, vars...)
	if p.curTokenIs(token.EOF) {
		return nil, nil
	}
	ts := p.parseTypeList(token.EOF)
	if err := p.firstError(); err != nil {
		return nil, err
	}
	return ts, nil
}

// ParseQuery parses a concept application such as "Ordered<int, float>".
// Names in vars parse as type variables.
func ParseQuery(input string, vars ...string) (typesystem.Constraint, error) {
	p := New(input, vars...)
	c, ok := p.parseConstraint()
	if ok && !p.peekTokenIs(token.EOF) {
		p.addError(p.peekToken, "unexpected %s after query", describeToken(p.peekToken))
	}
	if err := p.firstError(); err != nil {
		return typesystem.Constraint{}, err
	}
	return c, nil
}
