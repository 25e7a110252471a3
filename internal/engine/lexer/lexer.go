// Package lexer turns diagram source text into a flat token stream.
//
// The scanner never fails: characters it cannot classify become Unknown tokens
// and the stream always ends with a single EOF token.
package lexer

import "unicode"

// Lexer scans one source string.
type Lexer struct {
	src    []rune
	pos    int
	line   int
	column int
}

// New returns a lexer positioned at line 1, column 1.
func New(source string) *Lexer {
	return &Lexer{src: []rune(source), line: 1, column: 1}
}

// Tokenize scans source in a single left-to-right pass.
func Tokenize(source string) []Token {
	return New(source).Tokenize()
}

// Tokenize scans the remaining input. The result always ends with EOF.
func (l *Lexer) Tokenize() []Token {
	tokens := make([]Token, 0, len(l.src)/3+1)

	for !l.isAtEnd() {
		ch := l.peek()

		if unicode.IsSpace(ch) {
			l.skipWhitespace()
			continue
		}

		if isAlpha(ch) || ch == '_' {
			tokens = append(tokens, l.readIdentifier())
			continue
		}

		if isDigit(ch) {
			tokens = append(tokens, l.readNumber())
			continue
		}

		if ch == '/' {
			if tok, ok := l.readComment(); ok {
				tokens = append(tokens, tok)
				continue
			}
		}

		if tok, ok := l.readSymbol(); ok {
			tokens = append(tokens, tok)
			continue
		}

		line, col := l.line, l.column
		tokens = append(tokens, Token{Kind: Unknown, Text: string(l.advance()), Line: line, Column: col})
	}

	tokens = append(tokens, Token{Kind: EOF, Line: l.line, Column: l.column})
	return tokens
}

func (l *Lexer) readIdentifier() Token {
	line, col := l.line, l.column
	start := l.pos
	for !l.isAtEnd() {
		ch := l.peek()
		if !isAlpha(ch) && !isDigit(ch) && ch != '_' && ch != '.' {
			break
		}
		l.advance()
	}

	text := string(l.src[start:l.pos])
	kind := Identifier
	if kw, ok := keywords[text]; ok {
		kind = kw
	}
	return Token{Kind: kind, Text: text, Line: line, Column: col}
}

func (l *Lexer) readNumber() Token {
	line, col := l.line, l.column
	start := l.pos
	for !l.isAtEnd() && isDigit(l.peek()) {
		l.advance()
	}
	return Token{Kind: Number, Text: string(l.src[start:l.pos]), Line: line, Column: col}
}

// readComment handles "//" and "/* */". A lone '/' is left for the caller.
func (l *Lexer) readComment() (Token, bool) {
	switch l.peekNext() {
	case '/':
		line, col := l.line, l.column
		start := l.pos
		for !l.isAtEnd() && l.peek() != '\n' {
			l.advance()
		}
		return Token{Kind: Comment, Text: string(l.src[start:l.pos]), Line: line, Column: col}, true
	case '*':
		line, col := l.line, l.column
		start := l.pos
		l.advance()
		l.advance()
		for !l.isAtEnd() {
			if l.peek() == '*' && l.peekNext() == '/' {
				l.advance()
				l.advance()
				break
			}
			l.advance()
		}
		return Token{Kind: Comment, Text: string(l.src[start:l.pos]), Line: line, Column: col}, true
	}
	return Token{}, false
}

func (l *Lexer) readSymbol() (Token, bool) {
	ch := l.peek()
	line, col := l.line, l.column

	if ch == '>' {
		return l.readRelationship(), true
	}

	if ch == '.' && l.peekNext() == '.' {
		l.advance()
		l.advance()
		return Token{Kind: Range, Text: "..", Line: line, Column: col}, true
	}

	if kind, ok := symbols[ch]; ok {
		return Token{Kind: kind, Text: string(l.advance()), Line: line, Column: col}, true
	}
	return Token{}, false
}

func (l *Lexer) readRelationship() Token {
	line, col := l.line, l.column
	l.advance() // >

	var kind Kind
	switch l.peek() {
	case '>':
		kind = OpInherit
	case 'I':
		kind = OpImplement
	case '*':
		kind = OpComposition
	case '+':
		kind = OpAggregation
	case '-':
		kind = OpDependency
	}
	if kind != EOF {
		next := l.advance()
		return Token{Kind: kind, Text: ">" + string(next), Line: line, Column: col}
	}

	if isAlpha(l.peek()) {
		mark := l.mark()
		start := l.pos
		for !l.isAtEnd() && isAlpha(l.peek()) {
			l.advance()
		}
		text := ">" + string(l.src[start:l.pos])
		if kw, ok := relationshipKeywords[text]; ok {
			return Token{Kind: kw, Text: text, Line: line, Column: col}
		}
		// Not a keyword alias: the letters belong to the next token.
		l.reset(mark)
	}

	return Token{Kind: OpRelation, Text: ">", Line: line, Column: col}
}

func (l *Lexer) skipWhitespace() {
	for !l.isAtEnd() && unicode.IsSpace(l.peek()) {
		l.advance()
	}
}

type lexMark struct{ pos, line, column int }

func (l *Lexer) mark() lexMark { return lexMark{l.pos, l.line, l.column} }

func (l *Lexer) reset(m lexMark) { l.pos, l.line, l.column = m.pos, m.line, m.column }

func (l *Lexer) peek() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) peekNext() rune {
	if l.pos+1 >= len(l.src) {
		return 0
	}
	return l.src[l.pos+1]
}

func (l *Lexer) advance() rune {
	ch := l.src[l.pos]
	l.pos++
	if ch == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	return ch
}

func (l *Lexer) isAtEnd() bool {
	return l.pos >= len(l.src)
}

func isAlpha(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}
