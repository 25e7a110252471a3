package lexer

import (
	"strings"
	"testing"
	"unicode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds(tokens []Token) []Kind {
	out := make([]Kind, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Kind
	}
	return out
}

func TestTokenize_EntityHeader(t *testing.T) {
	tokens := Tokenize("class A >> B { name: string }")

	assert.Equal(t, []Kind{
		KwClass, Identifier, OpInherit, Identifier,
		LBrace, Identifier, Colon, Identifier, RBrace, EOF,
	}, kinds(tokens))
	assert.Equal(t, "A", tokens[1].Text)
	assert.Equal(t, ">>", tokens[2].Text)
}

func TestTokenize_RelationshipOperators(t *testing.T) {
	tests := []struct {
		input string
		kind  Kind
		text  string
	}{
		{">>", OpInherit, ">>"},
		{">I", OpImplement, ">I"},
		{">*", OpComposition, ">*"},
		{">+", OpAggregation, ">+"},
		{">-", OpDependency, ">-"},
		{">extends", KwExtends, ">extends"},
		{">implements", KwImplements, ">implements"},
		{">comp", KwComp, ">comp"},
		{">agreg", KwAgreg, ">agreg"},
		{">use", KwUse, ">use"},
		{">", OpRelation, ">"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tokens := Tokenize(tt.input)
			require.Len(t, tokens, 2)
			assert.Equal(t, tt.kind, tokens[0].Kind)
			assert.Equal(t, tt.text, tokens[0].Text)
			assert.True(t, tokens[0].Kind.IsRelationship())
		})
	}
}

func TestTokenize_GenericRelationKeepsFollowingLetters(t *testing.T) {
	tokens := Tokenize("Color >usage")

	assert.Equal(t, []Kind{Identifier, OpRelation, Identifier, EOF}, kinds(tokens))
	assert.Equal(t, "usage", tokens[2].Text)
	assert.Equal(t, 8, tokens[2].Column)
}

func TestTokenize_DottedIdentifierAndRange(t *testing.T) {
	tokens := Tokenize("domain.User[0..1]")

	assert.Equal(t, []Kind{Identifier, LBracket, Number, Range, Number, RBracket, EOF}, kinds(tokens))
	assert.Equal(t, "domain.User", tokens[0].Text)
}

func TestTokenize_Comments(t *testing.T) {
	src := "// line\n/* block\nspans */ class"
	tokens := Tokenize(src)

	require.Equal(t, []Kind{Comment, Comment, KwClass, EOF}, kinds(tokens))
	assert.Equal(t, "// line", tokens[0].Text)
	assert.Equal(t, "/* block\nspans */", tokens[1].Text)
	assert.Equal(t, 2, tokens[1].Line)
	assert.Equal(t, 3, tokens[2].Line)
	assert.Equal(t, 10, tokens[2].Column)
}

func TestTokenize_UnterminatedBlockComment(t *testing.T) {
	tokens := Tokenize("class A /* never closed\n{")

	require.Equal(t, []Kind{KwClass, Identifier, Comment, EOF}, kinds(tokens))
	assert.Equal(t, "/* never closed\n{", tokens[2].Text)
	assert.Equal(t, 2, tokens[3].Line)
}

func TestTokenize_UnknownCharacters(t *testing.T) {
	tokens := Tokenize("a @ / é")

	assert.Equal(t, []Kind{Identifier, Unknown, Unknown, Unknown, EOF}, kinds(tokens))
	assert.Equal(t, "é", tokens[3].Text)
}

func TestTokenize_Positions(t *testing.T) {
	tokens := Tokenize("class User {\n  -id: number\n}")

	byText := map[string]Token{}
	for _, tok := range tokens {
		byText[tok.Text] = tok
	}
	assert.Equal(t, 1, byText["User"].Line)
	assert.Equal(t, 7, byText["User"].Column)
	assert.Equal(t, 2, byText["-"].Line)
	assert.Equal(t, 3, byText["-"].Column)
	assert.Equal(t, 3, byText["}"].Line)
	assert.Equal(t, 1, byText["}"].Column)
}

func TestTokenize_VisibilityAndKeywords(t *testing.T) {
	tokens := Tokenize("+ - # ~ public private protected internal static abstract enum interface package")

	assert.Equal(t, []Kind{
		VisPublic, VisPrivate, VisProtected, VisInternal,
		KwPublic, KwPrivate, KwProtected, KwInternal, KwStatic, KwAbstract,
		KwEnum, KwInterface, KwPackage, EOF,
	}, kinds(tokens))
}

func TestTokenize_EmptyInput(t *testing.T) {
	tokens := Tokenize("")
	require.Len(t, tokens, 1)
	assert.Equal(t, EOF, tokens[0].Kind)
	assert.Equal(t, 1, tokens[0].Line)
	assert.Equal(t, 1, tokens[0].Column)
}

func TestTokenize_RoundTripsNonWhitespace(t *testing.T) {
	inputs := []string{
		"class A >> B { name: string }",
		"package shop {\n  class Order { +items: >* Item[0..*] }\n}\nOrder[1] >+ Item[*]",
		"enum Color >usage { RED GREEN }",
		"x @@ ?? ... ./ 12ab",
		"/* unterminated",
	}

	strip := func(s string) string {
		return strings.Map(func(r rune) rune {
			if unicode.IsSpace(r) {
				return -1
			}
			return r
		}, s)
	}

	for _, input := range inputs {
		var b strings.Builder
		for _, tok := range Tokenize(input) {
			b.WriteString(tok.Text)
		}
		assert.Equal(t, strip(input), strip(b.String()), "input %q", input)
	}
}
