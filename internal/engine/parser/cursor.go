package parser

import (
	"fmt"

	"umlc/internal/engine/ast"
	"umlc/internal/engine/lexer"
)

// Mark is a saved cursor position for speculative parsing.
type Mark struct {
	pos        int
	recovering bool
	diagCount  int
}

// Cursor walks a token slice and collects diagnostics. It never moves past the
// trailing EOF token.
type Cursor struct {
	tokens      []lexer.Token
	pos         int
	diagnostics []ast.Diagnostic
	// recovering suppresses cascading diagnostics after a failed Consume until
	// the next successful one.
	recovering bool
}

// NewCursor wraps tokens, appending an EOF token when the slice lacks one.
func NewCursor(tokens []lexer.Token) *Cursor {
	if len(tokens) == 0 || tokens[len(tokens)-1].Kind != lexer.EOF {
		line, col := 1, 1
		if n := len(tokens); n > 0 {
			line, col = tokens[n-1].Line, tokens[n-1].Column+len([]rune(tokens[n-1].Text))
		}
		tokens = append(append([]lexer.Token(nil), tokens...), lexer.Token{Kind: lexer.EOF, Line: line, Column: col})
	}
	return &Cursor{tokens: tokens}
}

// Peek returns the current token without consuming it.
func (c *Cursor) Peek() lexer.Token {
	return c.tokens[c.pos]
}

// PeekAt looks n tokens ahead, clamped to EOF.
func (c *Cursor) PeekAt(n int) lexer.Token {
	i := c.pos + n
	if i >= len(c.tokens) {
		i = len(c.tokens) - 1
	}
	return c.tokens[i]
}

func (c *Cursor) Previous() lexer.Token {
	if c.pos == 0 {
		return c.tokens[0]
	}
	return c.tokens[c.pos-1]
}

// Advance consumes and returns the current token. EOF is never consumed.
func (c *Cursor) Advance() lexer.Token {
	tok := c.tokens[c.pos]
	if tok.Kind != lexer.EOF {
		c.pos++
	}
	return tok
}

func (c *Cursor) IsAtEnd() bool {
	return c.tokens[c.pos].Kind == lexer.EOF
}

func (c *Cursor) Check(kind lexer.Kind) bool {
	return c.tokens[c.pos].Kind == kind
}

// CheckAny reports whether the current token is one of kinds.
func (c *Cursor) CheckAny(kinds ...lexer.Kind) bool {
	current := c.tokens[c.pos].Kind
	for _, k := range kinds {
		if current == k {
			return true
		}
	}
	return false
}

// Match advances past the current token when it is one of kinds.
func (c *Cursor) Match(kinds ...lexer.Kind) bool {
	if c.CheckAny(kinds...) && !c.IsAtEnd() {
		c.pos++
		return true
	}
	return false
}

// Consume returns the current token when it has the expected kind. Otherwise
// it records a diagnostic and returns an empty placeholder without advancing.
func (c *Cursor) Consume(kind lexer.Kind, message string) (lexer.Token, bool) {
	if c.Check(kind) {
		c.recovering = false
		return c.Advance(), true
	}
	found := c.Peek()
	if message == "" {
		message = fmt.Sprintf("expected %s", kind)
	}
	c.Errorf(found, "%s, found %s", message, found)
	return lexer.Token{Kind: kind, Line: found.Line, Column: found.Column}, false
}

// Errorf records a diagnostic at tok unless the cursor is already recovering
// from an earlier error.
func (c *Cursor) Errorf(tok lexer.Token, format string, args ...any) {
	if c.recovering {
		return
	}
	c.recovering = true
	c.diagnostics = append(c.diagnostics, ast.Diagnostic{
		Message: fmt.Sprintf(format, args...),
		Line:    tok.Line,
		Column:  tok.Column,
	})
}

// Recover clears the suppression set by a previous error.
func (c *Cursor) Recover() {
	c.recovering = false
}

func (c *Cursor) lastFaultLine() int {
	if len(c.diagnostics) == 0 {
		return 0
	}
	return c.diagnostics[len(c.diagnostics)-1].Line
}

// Save marks the current position for a later Rollback.
func (c *Cursor) Save() Mark {
	return Mark{pos: c.pos, recovering: c.recovering, diagCount: len(c.diagnostics)}
}

// Rollback restores the cursor and drops diagnostics recorded after m.
func (c *Cursor) Rollback(m Mark) {
	c.pos = m.pos
	c.recovering = m.recovering
	if m.diagCount <= len(c.diagnostics) {
		c.diagnostics = c.diagnostics[:m.diagCount]
	}
}

func (c *Cursor) Offset() int {
	return c.pos
}

func (c *Cursor) Diagnostics() []ast.Diagnostic {
	if len(c.diagnostics) == 0 {
		return nil
	}
	out := make([]ast.Diagnostic, len(c.diagnostics))
	copy(out, c.diagnostics)
	return out
}
