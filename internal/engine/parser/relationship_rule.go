package parser

import (
	"umlc/internal/engine/ast"
	"umlc/internal/engine/lexer"
)

// RelationshipRule parses standalone relationships:
//
//	From [mult] REL [mult] To [: label]
//
// It is speculative. When no relationship operator follows the first
// identifier (and its optional multiplicity) the cursor is rolled back and the
// rule reports no match, leaving the identifier for other rules. An unclosed
// leading multiplicity is also no match.
type RelationshipRule struct{}

// Parse implements Rule.
func (r *RelationshipRule) Parse(c *Cursor) (ast.Statement, bool) {
	if !c.Check(lexer.Identifier) {
		return nil, false
	}
	mark := c.Save()

	from := c.Advance()
	var fromMultiplicity string
	if c.Check(lexer.LBracket) {
		var closed bool
		if fromMultiplicity, closed = parseMultiplicity(c); !closed {
			c.Rollback(mark)
			return nil, false
		}
	}

	if !c.Peek().Kind.IsRelationship() {
		c.Rollback(mark)
		return nil, false
	}
	op := c.Advance()

	var toMultiplicity string
	if c.Check(lexer.LBracket) {
		toMultiplicity, _ = parseMultiplicity(c)
	}

	to, ok := c.Consume(lexer.Identifier, "expected relationship target after "+op.Text)
	if !ok {
		return nil, true
	}

	rel := &ast.Relationship{
		Pos:              ast.Pos{Line: from.Line, Column: from.Column},
		From:             from.Text,
		FromMultiplicity: fromMultiplicity,
		To:               to.Text,
		ToMultiplicity:   toMultiplicity,
		Kind:             op.Text,
	}

	if c.Check(lexer.Colon) && c.PeekAt(1).Kind == lexer.Identifier {
		c.Advance()
		rel.Label = c.Advance().Text
	}
	return rel, true
}
