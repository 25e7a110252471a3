package parser

import (
	"umlc/internal/engine/ast"
	"umlc/internal/engine/lexer"
)

// EntityRule parses class, interface and enum declarations:
//
//	[abstract] class Name [REL Target {, REL Target}] [{ members }]
type EntityRule struct{}

// Parse implements Rule.
func (r *EntityRule) Parse(c *Cursor) (ast.Statement, bool) {
	start := c.Save()
	abstract := c.Match(lexer.KwAbstract)
	if !c.Match(lexer.KwClass, lexer.KwInterface, lexer.KwEnum) {
		c.Rollback(start)
		return nil, false
	}
	keyword := c.Previous()

	entity := &ast.Entity{
		Pos:      ast.Pos{Line: c.tokens[start.pos].Line, Column: c.tokens[start.pos].Column},
		Kind:     entityKind(keyword.Kind),
		Abstract: abstract,
	}

	name, nameOK := c.Consume(lexer.Identifier, "expected entity name")
	entity.Name = name.Text

	entity.Relationships = r.parseHeader(c)

	if c.Match(lexer.LBrace) {
		entity.HasBody = true
		entity.Members = make([]ast.Member, 0)
		for !c.Check(lexer.RBrace) && !c.IsAtEnd() {
			// A declaration keyword here means the closing brace is missing.
			if c.CheckAny(lexer.KwClass, lexer.KwInterface, lexer.KwEnum, lexer.KwPackage) {
				break
			}
			before := c.Offset()
			if member := r.parseMember(c, entity.Kind); member != nil {
				entity.Members = append(entity.Members, member)
			}
			if c.Offset() == before {
				c.Advance()
			}
		}
		c.Consume(lexer.RBrace, "expected '}' to close "+string(entity.Kind)+" "+entity.Name)
	}

	if !nameOK {
		return nil, true
	}
	return entity, true
}

func entityKind(kind lexer.Kind) ast.EntityKind {
	switch kind {
	case lexer.KwInterface:
		return ast.KindInterface
	case lexer.KwEnum:
		return ast.KindEnum
	default:
		return ast.KindClass
	}
}

// parseHeader reads the inline relationship list. A trailing comma that is not
// followed by another operator is left for the next rule.
func (r *EntityRule) parseHeader(c *Cursor) []ast.RelationshipHeader {
	var headers []ast.RelationshipHeader
	if !c.Peek().Kind.IsRelationship() {
		return headers
	}

	for {
		op := c.Advance()
		target, ok := c.Consume(lexer.Identifier, "expected relationship target after "+op.Text)
		if ok {
			headers = append(headers, ast.RelationshipHeader{
				Pos:    ast.Pos{Line: target.Line, Column: target.Column},
				Kind:   op.Text,
				Target: target.Text,
			})
		}

		mark := c.Save()
		if c.Match(lexer.Comma) && c.Peek().Kind.IsRelationship() {
			continue
		}
		c.Rollback(mark)
		return headers
	}
}

func (r *EntityRule) parseMember(c *Cursor, kind ast.EntityKind) ast.Member {
	if c.Check(lexer.Comment) {
		tok := c.Advance()
		return &ast.Comment{Pos: ast.Pos{Line: tok.Line, Column: tok.Column}, Text: tok.Text}
	}

	visibility := "public"
	if c.Peek().Kind.IsVisibility() {
		visibility = c.Advance().Text
	}

	var static, abstract bool
	for {
		if c.Match(lexer.KwStatic) {
			static = true
		} else if c.Match(lexer.KwAbstract) {
			abstract = true
		} else {
			break
		}
	}

	name, nameOK := c.Consume(lexer.Identifier, "expected member name")

	if c.Check(lexer.LParen) {
		method := r.parseMethod(c, name, visibility, static, abstract)
		if !nameOK {
			return nil
		}
		return method
	}

	if kind == ast.KindEnum && nameOK && !c.Check(lexer.Colon) {
		c.Match(lexer.Comma)
		return &ast.Attribute{
			Pos:        ast.Pos{Line: name.Line, Column: name.Column},
			Name:       name.Text,
			Visibility: visibility,
			Static:     static,
		}
	}

	attr := r.parseAttribute(c, name, visibility, static)
	if !nameOK {
		return nil
	}
	return attr
}

func (r *EntityRule) parseAttribute(c *Cursor, name lexer.Token, visibility string, static bool) *ast.Attribute {
	attr := &ast.Attribute{
		Pos:        ast.Pos{Line: name.Line, Column: name.Column},
		Name:       name.Text,
		Visibility: visibility,
		Static:     static,
	}

	c.Consume(lexer.Colon, "expected ':' after attribute "+name.Text)
	attr.RelationshipKind, attr.Type = parseTypeRef(c, "expected attribute type")

	if c.Check(lexer.LBracket) {
		attr.Multiplicity, _ = parseMultiplicity(c)
	}
	return attr
}

func (r *EntityRule) parseMethod(c *Cursor, name lexer.Token, visibility string, static, abstract bool) *ast.Method {
	method := &ast.Method{
		Pos:        ast.Pos{Line: name.Line, Column: name.Column},
		Name:       name.Text,
		Visibility: visibility,
		Static:     static,
		Abstract:   abstract,
		Parameters: make([]ast.Parameter, 0),
	}

	c.Advance() // (
	if !c.Check(lexer.RParen) {
		for {
			paramName, ok := c.Consume(lexer.Identifier, "expected parameter name")
			c.Consume(lexer.Colon, "expected ':' after parameter "+paramName.Text)
			kind, typ := parseTypeRef(c, "expected parameter type")
			if c.Check(lexer.LBracket) {
				mult, _ := parseMultiplicity(c)
				typ += mult
			}
			if ok {
				method.Parameters = append(method.Parameters, ast.Parameter{
					Pos:              ast.Pos{Line: paramName.Line, Column: paramName.Column},
					Name:             paramName.Text,
					Type:             typ,
					RelationshipKind: kind,
				})
			}
			if !c.Match(lexer.Comma) {
				break
			}
		}
	}
	c.Consume(lexer.RParen, "expected ')' after parameters of "+name.Text)

	if c.Match(lexer.Colon) {
		method.RelationshipKind, method.ReturnType = parseTypeRef(c, "expected return type")
		if c.Check(lexer.LBracket) {
			mult, _ := parseMultiplicity(c)
			method.ReturnType += mult
		}
	}
	return method
}

// parseTypeRef reads "[REL] Type". The optional operator tags the member as a
// relationship source for inference.
func parseTypeRef(c *Cursor, message string) (relationshipKind, typeName string) {
	if c.Peek().Kind.IsRelationship() {
		relationshipKind = c.Advance().Text
	}
	tok, _ := c.Consume(lexer.Identifier, message)
	return relationshipKind, tok.Text
}
