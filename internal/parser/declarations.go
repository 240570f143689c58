package parser

import (
	"github.com/funvibe/concepts/internal/token"
	"github.com/funvibe/concepts/internal/typesystem"
)

// Declaration is a named constrained signature:
//
//	sort: forall I. (I, I) -> void where MutableRandomAccessIterator<I>
type Declaration struct {
	Name      string
	Signature typesystem.TForall
}

// ParseDeclaration parses a constrained declaration. The leading "name:" is optional.
func ParseDeclaration(input string) (*Declaration, error) {
	return New(input).ParseDeclaration()
}

func (p *Parser) ParseDeclaration() (*Declaration, error) {
	decl := &Declaration{}
	if p.curTokenIs(token.IDENT) && p.peekTokenIs(token.COLON) {
		decl.Name = p.curToken.Lexeme
		p.nextToken()
		p.nextToken()
	}

	if !p.curTokenIs(token.FORALL) {
		p.addError(p.curToken, "expected 'forall', got %s", describeToken(p.curToken))
		return nil, p.firstError()
	}
	p.nextToken()

	var vars []typesystem.TVar
	for p.curTokenIs(token.IDENT) {
		name := p.curToken.Lexeme
		for _, v := range vars {
			if v.Name == name {
				p.addError(p.curToken, "type parameter %s declared twice", name)
			}
		}
		vars = append(vars, typesystem.TVar{Name: name})
		p.vars[name] = true
		p.nextToken()
	}
	if !p.curTokenIs(token.DOT) {
		p.addError(p.curToken, "expected '.' after type parameters, got %s", describeToken(p.curToken))
		return nil, p.firstError()
	}
	p.nextToken()

	sig := p.parseType()
	if sig == nil {
		return nil, p.firstError()
	}
	decl.Signature = typesystem.TForall{Vars: vars, Type: typesystem.Canonical(sig)}

	if p.peekTokenIs(token.WHERE) {
		p.nextToken()
		for {
			p.nextToken()
			c, ok := p.parseConstraint()
			if !ok {
				return nil, p.firstError()
			}
			decl.Signature.Constraints = append(decl.Signature.Constraints, c)
			if !p.peekTokenIs(token.COMMA) {
				break
			}
			p.nextToken()
		}
	}

	if !p.peekTokenIs(token.EOF) {
		p.addError(p.peekToken, "unexpected %s after declaration", describeToken(p.peekToken))
	}
	if err := p.firstError(); err != nil {
		return nil, err
	}
	return decl, nil
}

// parseConstraint parses "Concept<T1, ..., Tn>" with curToken on the concept name.
func (p *Parser) parseConstraint() (typesystem.Constraint, bool) {
	if !p.curTokenIs(token.IDENT) {
		p.addError(p.curToken, "expected concept name, got %s", describeToken(p.curToken))
		return typesystem.Constraint{}, false
	}
	c := typesystem.Constraint{Trait: p.curToken.Lexeme}
	if !p.expectPeek(token.LT) {
		return c, false
	}
	p.nextToken()
	args := p.parseTypeList(token.GT)
	if args == nil {
		return c, false
	}
	for i, a := range args {
		args[i] = typesystem.Canonical(a)
	}
	c.Args = args
	return c, true
}
