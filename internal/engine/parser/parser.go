// Package parser builds an AST from the token stream with a set of small
// recursive-descent rules.
//
// Parsing never fails outright. Mismatched tokens become diagnostics on the
// returned Program and the parser carries on at the next statement boundary.
package parser

import (
	"strings"

	"umlc/internal/engine/ast"
	"umlc/internal/engine/lexer"
)

// Rule recognizes one statement production. A rule that does not recognize
// the tokens at the cursor must leave the cursor where it found it and return
// false. A rule may return (nil, true) when it consumed a malformed statement
// that produced no node.
type Rule interface {
	Parse(c *Cursor) (ast.Statement, bool)
}

// Parser holds the ordered statement rules.
type Parser struct {
	rules []Rule
}

// New returns a parser with the default rule order: packages, entities,
// standalone relationships, comments.
func New() *Parser {
	p := &Parser{}
	p.rules = []Rule{
		&PackageRule{parser: p},
		&EntityRule{},
		&RelationshipRule{},
		&CommentRule{},
	}
	return p
}

// Parse parses tokens with the default rules.
func Parse(tokens []lexer.Token) *ast.Program {
	return New().Parse(tokens)
}

// ParseSource tokenizes and parses source in one step.
func ParseSource(source string) *ast.Program {
	return Parse(lexer.Tokenize(source))
}

func (p *Parser) Parse(tokens []lexer.Token) (program *ast.Program) {
	c := NewCursor(tokens)
	program = &ast.Program{Pos: ast.Pos{Line: 1, Column: 1}}

	defer func() {
		if r := recover(); r != nil {
			tok := c.Peek()
			c.Recover()
			c.Errorf(tok, "internal parser error: %v", r)
			program.Diagnostics = c.Diagnostics()
		}
	}()

	program.Body = p.parseBlock(c, false)
	program.Diagnostics = c.Diagnostics()
	return program
}

// parseBlock parses statements until EOF, or until the closing brace when
// nested inside a package.
func (p *Parser) parseBlock(c *Cursor, nested bool) []ast.Statement {
	body := make([]ast.Statement, 0)
	for !c.IsAtEnd() {
		if nested && c.Check(lexer.RBrace) {
			break
		}

		stmt, ok := p.parseStatement(c)
		if ok {
			if stmt != nil {
				body = append(body, stmt)
			}
			// A statement that reported a fault may leave its tail behind.
			if c.recovering {
				skipToStatement(c)
				resume(c)
			}
			continue
		}

		tok := c.Peek()
		c.Errorf(tok, "unexpected %s", tok)
		synchronize(c)
		resume(c)
	}
	return body
}

func (p *Parser) parseStatement(c *Cursor) (ast.Statement, bool) {
	for _, rule := range p.rules {
		start := c.Save()
		stmt, ok := rule.Parse(c)
		if ok {
			return stmt, true
		}
		c.Rollback(start)
	}
	return nil, false
}

// synchronize skips the offending token and everything up to the next token
// that can begin a statement or close a package.
func synchronize(c *Cursor) {
	c.Advance()
	skipToStatement(c)
}

func skipToStatement(c *Cursor) {
	for !c.IsAtEnd() && !startsStatement(c.Peek().Kind) {
		c.Advance()
	}
}

// resume ends error recovery at a statement boundary so the next fault is
// reported. A bare identifier on the line of the last fault is treated as more
// of the same garbage and stays suppressed.
func resume(c *Cursor) {
	tok := c.Peek()
	if tok.Kind != lexer.Identifier || tok.Line > c.lastFaultLine() {
		c.Recover()
	}
}

func startsStatement(kind lexer.Kind) bool {
	switch kind {
	case lexer.KwPackage, lexer.KwClass, lexer.KwInterface, lexer.KwEnum, lexer.KwAbstract,
		lexer.Identifier, lexer.Comment, lexer.RBrace:
		return true
	}
	return false
}

// PackageRule parses "package name { statements }".
type PackageRule struct {
	parser *Parser
}

// Parse implements Rule.
func (r *PackageRule) Parse(c *Cursor) (ast.Statement, bool) {
	if !c.Match(lexer.KwPackage) {
		return nil, false
	}
	keyword := c.Previous()

	name, nameOK := c.Consume(lexer.Identifier, "expected package name")
	pkg := &ast.Package{
		Pos:  ast.Pos{Line: keyword.Line, Column: keyword.Column},
		Name: name.Text,
		Body: []ast.Statement{},
	}

	if _, ok := c.Consume(lexer.LBrace, "expected '{' after package name"); ok {
		pkg.Body = r.parser.parseBlock(c, true)
		c.Consume(lexer.RBrace, "expected '}' to close package "+name.Text)
	}

	// A nameless package keeps its body; the empty name adds no namespace.
	if !nameOK {
		pkg.Name = ""
	}
	return pkg, true
}

// CommentRule keeps top-level comments in the tree.
type CommentRule struct{}

func (r *CommentRule) Parse(c *Cursor) (ast.Statement, bool) {
	if !c.Check(lexer.Comment) {
		return nil, false
	}
	tok := c.Advance()
	return &ast.Comment{Pos: ast.Pos{Line: tok.Line, Column: tok.Column}, Text: tok.Text}, true
}

// parseMultiplicity captures a bracketed suffix such as "[0..*]" verbatim.
// The cursor must be on '['. The scan stops at the first token that cannot
// appear inside a multiplicity, so an unclosed bracket costs at most the
// tokens up to that point. closed reports whether ']' was found.
func parseMultiplicity(c *Cursor) (raw string, closed bool) {
	var b strings.Builder
	b.WriteString(c.Advance().Text)
	for inMultiplicity(c.Peek().Kind) {
		b.WriteString(c.Advance().Text)
	}
	if closing, ok := c.Consume(lexer.RBracket, "expected ']'"); ok {
		b.WriteString(closing.Text)
		closed = true
	}
	return b.String(), closed
}

func inMultiplicity(kind lexer.Kind) bool {
	switch kind {
	case lexer.Number, lexer.Range, lexer.Star, lexer.Identifier, lexer.Comma, lexer.Dot, lexer.Pipe:
		return true
	}
	return false
}
