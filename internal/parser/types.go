package parser

import (
	"github.com/funvibe/concepts/internal/token"
	"github.com/funvibe/concepts/internal/typesystem"
)

// parseType parses one type starting at curToken and leaves curToken on its
// last token.
func (p *Parser) parseType() typesystem.Type {
	isConst, isVolatile := false, false
	for p.curTokenIs(token.CONST) || p.curTokenIs(token.VOLATILE) {
		if p.curTokenIs(token.CONST) {
			isConst = true
		} else {
			isVolatile = true
		}
		p.nextToken()
	}

	t := p.parsePrimaryType()
	if t == nil {
		return nil
	}
	if isConst || isVolatile {
		t = typesystem.TQual{Elem: t, Const: isConst, Volatile: isVolatile}
	}
	return p.parsePostfixType(t)
}

func (p *Parser) parsePrimaryType() typesystem.Type {
	switch p.curToken.Type {
	case token.IDENT:
		return p.parseNamedType()
	case token.LPAREN:
		return p.parseGroupedOrFunctionType()
	case token.FN:
		if !p.expectPeek(token.LPAREN) {
			return nil
		}
		return p.parseFunctionTail()
	case token.MEMPTR:
		return p.parseMemberPointerType()
	default:
		p.addError(p.curToken, "expected a type, got %s", describeToken(p.curToken))
		return nil
	}
}

func (p *Parser) parseNamedType() typesystem.Type {
	name := p.curToken.Lexeme
	var t typesystem.Type
	if p.vars[name] {
		t = typesystem.TVar{Name: name}
	} else {
		t = typesystem.TCon{Name: name}
	}

	if p.peekTokenIs(token.LT) {
		p.nextToken() // consume '<'
		p.nextToken()
		args := p.parseTypeList(token.GT)
		if args == nil && len(p.errors) > 0 {
			return nil
		}
		t = typesystem.TApp{Constructor: t, Args: args}
	}
	return t
}

// parseTypeList parses types separated by commas up to the end token, which
// becomes curToken. An empty list is allowed when curToken already is end.
func (p *Parser) parseTypeList(end token.TokenType) []typesystem.Type {
	types := []typesystem.Type{}
	if p.curTokenIs(end) {
		return types
	}
	for {
		t := p.parseType()
		if t == nil {
			return nil
		}
		types = append(types, t)
		if p.peekTokenIs(token.COMMA) {
			p.nextToken()
			p.nextToken()
			continue
		}
		if end == token.EOF {
			if !p.peekTokenIs(token.EOF) {
				p.peekError(token.COMMA)
				return nil
			}
			return types
		}
		if !p.expectPeek(end) {
			return nil
		}
		return types
	}
}

// parseGroupedOrFunctionType handles "(T)" and "(A, B) -> R".
func (p *Parser) parseGroupedOrFunctionType() typesystem.Type {
	open := p.curToken
	if p.peekTokenIs(token.RPAREN) || p.peekTokenIs(token.ELLIPSIS) {
		return p.parseFunctionTail()
	}
	p.nextToken()
	first := p.parseType()
	if first == nil {
		return nil
	}
	if p.peekTokenIs(token.RPAREN) {
		p.nextToken()
		if p.peekTokenIs(token.ARROW) {
			return p.finishFunctionType([]typesystem.Type{first}, false)
		}
		return first
	}
	if !p.peekTokenIs(token.COMMA) {
		p.addError(open, "unbalanced parenthesis")
		return nil
	}
	params := []typesystem.Type{first}
	variadic := false
	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		if p.peekTokenIs(token.ELLIPSIS) {
			p.nextToken()
			variadic = true
			break
		}
		p.nextToken()
		t := p.parseType()
		if t == nil {
			return nil
		}
		params = append(params, t)
	}
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	return p.finishFunctionType(params, variadic)
}

// parseFunctionTail parses "(params) -> R [noexcept]" with curToken on '('.
func (p *Parser) parseFunctionTail() typesystem.Type {
	params := []typesystem.Type{}
	variadic := false
	p.nextToken()
	for !p.curTokenIs(token.RPAREN) {
		if p.curTokenIs(token.ELLIPSIS) {
			variadic = true
			if !p.expectPeek(token.RPAREN) {
				return nil
			}
			break
		}
		t := p.parseType()
		if t == nil {
			return nil
		}
		params = append(params, t)
		p.nextToken()
		if p.curTokenIs(token.COMMA) {
			p.nextToken()
			continue
		}
		if !p.curTokenIs(token.RPAREN) {
			p.addError(p.curToken, "expected ',' or ')' in parameter list, got %s", describeToken(p.curToken))
			return nil
		}
	}
	return p.finishFunctionType(params, variadic)
}

// finishFunctionType expects curToken on ')' and peekToken on '->'.
func (p *Parser) finishFunctionType(params []typesystem.Type, variadic bool) typesystem.Type {
	if !p.expectPeek(token.ARROW) {
		return nil
	}
	p.nextToken()
	ret := p.parseType()
	if ret == nil {
		return nil
	}
	fn := typesystem.TFunc{Params: params, ReturnType: ret, IsVariadic: variadic}
	if p.peekTokenIs(token.NOEXCEPT) {
		p.nextToken()
		fn.Noexcept = true
	}
	return fn
}

func (p *Parser) parseMemberPointerType() typesystem.Type {
	if !p.expectPeek(token.LT) {
		return nil
	}
	p.nextToken()
	class := p.parseType()
	if class == nil || !p.expectPeek(token.COMMA) {
		return nil
	}
	p.nextToken()
	member := p.parseType()
	if member == nil || !p.expectPeek(token.GT) {
		return nil
	}
	return typesystem.TMemberPtr{Class: class, Member: member}
}

// parsePostfixType applies declarator suffixes: *, &, &&, const, volatile,
// [N], [] and ::member.
func (p *Parser) parsePostfixType(t typesystem.Type) typesystem.Type {
	for {
		switch p.peekToken.Type {
		case token.ASTERISK:
			p.nextToken()
			t = typesystem.TPointer{Elem: t}
		case token.AMPERSAND:
			p.nextToken()
			t = typesystem.TRef{Elem: t}
		case token.AND:
			p.nextToken()
			t = typesystem.TRef{Elem: t, RValue: true}
		case token.CONST:
			p.nextToken()
			t = typesystem.TQual{Elem: t, Const: true}
		case token.VOLATILE:
			p.nextToken()
			t = typesystem.TQual{Elem: t, Volatile: true}
		case token.LBRACKET:
			p.nextToken()
			length := typesystem.Unbounded
			if p.peekTokenIs(token.INT) {
				p.nextToken()
				length = p.curToken.Literal.(int)
			}
			if !p.expectPeek(token.RBRACKET) {
				return nil
			}
			t = typesystem.TArray{Elem: t, Len: length}
		case token.SCOPE:
			p.nextToken()
			if !p.expectPeek(token.IDENT) {
				return nil
			}
			t = typesystem.TMember{Owner: t, Name: p.curToken.Lexeme}
		default:
			return t
		}
	}
}
