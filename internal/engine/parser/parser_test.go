package parser

import (
	"strings"
	"testing"
	"time"

	"umlc/internal/engine/ast"
	"umlc/internal/engine/lexer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseOne[T ast.Statement](t *testing.T, src string) T {
	t.Helper()
	program := ParseSource(src)
	require.Empty(t, program.Diagnostics)
	require.Len(t, program.Body, 1)
	stmt, ok := program.Body[0].(T)
	require.True(t, ok, "unexpected statement type %T", program.Body[0])
	return stmt
}

func TestParse_EntityWithHeaderAndBody(t *testing.T) {
	entity := parseOne[*ast.Entity](t, "class A >> B { name: string }")

	assert.Equal(t, ast.KindClass, entity.Kind)
	assert.Equal(t, "A", entity.Name)
	require.Len(t, entity.Relationships, 1)
	assert.Equal(t, ">>", entity.Relationships[0].Kind)
	assert.Equal(t, "B", entity.Relationships[0].Target)
	assert.True(t, entity.HasBody)
	require.Len(t, entity.Members, 1)

	attr, ok := entity.Members[0].(*ast.Attribute)
	require.True(t, ok)
	assert.Equal(t, "name", attr.Name)
	assert.Equal(t, "string", attr.Type)
	assert.Equal(t, "public", attr.Visibility)
}

func TestParse_MemberVisibility(t *testing.T) {
	entity := parseOne[*ast.Entity](t, "class User { -id: number +email: string }")

	require.Len(t, entity.Members, 2)
	assert.Equal(t, "-", entity.Members[0].(*ast.Attribute).Visibility)
	assert.Equal(t, "+", entity.Members[1].(*ast.Attribute).Visibility)
}

func TestParse_VisibilityKeywords(t *testing.T) {
	entity := parseOne[*ast.Entity](t, `class A {
		private x: int
		protected y(): void
		internal z: int
		~w: int
		#v: int
	}`)

	require.Len(t, entity.Members, 5)
	assert.Equal(t, "private", entity.Members[0].(*ast.Attribute).Visibility)
	assert.Equal(t, "protected", entity.Members[1].(*ast.Method).Visibility)
	assert.Equal(t, "internal", entity.Members[2].(*ast.Attribute).Visibility)
	assert.Equal(t, "~", entity.Members[3].(*ast.Attribute).Visibility)
	assert.Equal(t, "#", entity.Members[4].(*ast.Attribute).Visibility)
}

func TestParse_HeaderList(t *testing.T) {
	entity := parseOne[*ast.Entity](t, "class A >> B, >I C, >use D")

	require.Len(t, entity.Relationships, 3)
	assert.Equal(t, []string{">>", ">I", ">use"}, []string{
		entity.Relationships[0].Kind, entity.Relationships[1].Kind, entity.Relationships[2].Kind,
	})
	assert.Equal(t, "D", entity.Relationships[2].Target)
	assert.False(t, entity.HasBody)
	assert.Nil(t, entity.Members)
}

func TestParse_HeaderTrailingCommaRollsBack(t *testing.T) {
	program := ParseSource("class A >> B, C")

	require.Len(t, program.Body, 1)
	entity := program.Body[0].(*ast.Entity)
	assert.Len(t, entity.Relationships, 1)
	require.Len(t, program.Diagnostics, 1)
	assert.Contains(t, program.Diagnostics[0].Message, "unexpected")
	assert.Equal(t, 13, program.Diagnostics[0].Column)
}

func TestParse_EmptyBodyDiffersFromNoBody(t *testing.T) {
	program := ParseSource("abstract class Shape {}\nclass Marker")
	require.Empty(t, program.Diagnostics)
	require.Len(t, program.Body, 2)

	shape := program.Body[0].(*ast.Entity)
	assert.True(t, shape.Abstract)
	assert.True(t, shape.HasBody)
	assert.NotNil(t, shape.Members)
	assert.Empty(t, shape.Members)
	assert.Equal(t, ast.Pos{Line: 1, Column: 1}, shape.Pos)

	marker := program.Body[1].(*ast.Entity)
	assert.False(t, marker.Abstract)
	assert.False(t, marker.HasBody)
	assert.Nil(t, marker.Members)
}

func TestParse_Methods(t *testing.T) {
	entity := parseOne[*ast.Entity](t, `interface Repo {
		+find(id: number, opts: >- Options): >* User[]
		static abstract count(): number
		reset()
	}`)

	assert.Equal(t, ast.KindInterface, entity.Kind)
	require.Len(t, entity.Members, 3)

	find := entity.Members[0].(*ast.Method)
	assert.Equal(t, "find", find.Name)
	require.Len(t, find.Parameters, 2)
	assert.Equal(t, "id", find.Parameters[0].Name)
	assert.Equal(t, "number", find.Parameters[0].Type)
	assert.Empty(t, find.Parameters[0].RelationshipKind)
	assert.Equal(t, "Options", find.Parameters[1].Type)
	assert.Equal(t, ">-", find.Parameters[1].RelationshipKind)
	assert.Equal(t, "User[]", find.ReturnType)
	assert.Equal(t, ">*", find.RelationshipKind)

	count := entity.Members[1].(*ast.Method)
	assert.True(t, count.Static)
	assert.True(t, count.Abstract)
	assert.Equal(t, "number", count.ReturnType)

	reset := entity.Members[2].(*ast.Method)
	assert.Empty(t, reset.Parameters)
	assert.Empty(t, reset.ReturnType)
}

func TestParse_TaggedAttributeWithMultiplicity(t *testing.T) {
	entity := parseOne[*ast.Entity](t, "class Order { -items: >* Item[0..*] }")

	attr := entity.Members[0].(*ast.Attribute)
	assert.Equal(t, "Item", attr.Type)
	assert.Equal(t, ">*", attr.RelationshipKind)
	assert.Equal(t, "[0..*]", attr.Multiplicity)
}

func TestParse_EnumLiterals(t *testing.T) {
	entity := parseOne[*ast.Entity](t, "enum Color { RED, GREEN BLUE }")

	assert.Equal(t, ast.KindEnum, entity.Kind)
	require.Len(t, entity.Members, 3)
	for i, name := range []string{"RED", "GREEN", "BLUE"} {
		attr := entity.Members[i].(*ast.Attribute)
		assert.Equal(t, name, attr.Name)
		assert.Empty(t, attr.Type)
	}
}

func TestParse_Comments(t *testing.T) {
	program := ParseSource("// top\nclass A { // member\n x: int }")
	require.Empty(t, program.Diagnostics)
	require.Len(t, program.Body, 2)

	comment := program.Body[0].(*ast.Comment)
	assert.Equal(t, "// top", comment.Text)

	entity := program.Body[1].(*ast.Entity)
	require.Len(t, entity.Members, 2)
	assert.IsType(t, &ast.Comment{}, entity.Members[0])
	assert.IsType(t, &ast.Attribute{}, entity.Members[1])
}

func TestParse_StandaloneRelationship(t *testing.T) {
	rel := parseOne[*ast.Relationship](t, "Order[1] >+ Item[*]")

	assert.Equal(t, "Order", rel.From)
	assert.Equal(t, "[1]", rel.FromMultiplicity)
	assert.Equal(t, "Item", rel.To)
	assert.Equal(t, "[*]", rel.ToMultiplicity)
	assert.Equal(t, ">+", rel.Kind)
	assert.Empty(t, rel.Label)
}

func TestParse_RelationshipLabel(t *testing.T) {
	rel := parseOne[*ast.Relationship](t, "Service >- Logger : writes")

	assert.Equal(t, ">-", rel.Kind)
	assert.Equal(t, "writes", rel.Label)
}

func TestParse_RelationshipRollbackLeavesIdentifier(t *testing.T) {
	program := ParseSource("foo\nclass A {}")

	require.Len(t, program.Diagnostics, 1)
	assert.Equal(t, 1, program.Diagnostics[0].Line)
	assert.Equal(t, 1, program.Diagnostics[0].Column)
	assert.Contains(t, program.Diagnostics[0].Message, `"foo"`)

	require.Len(t, program.Body, 1)
	assert.Equal(t, "A", program.Body[0].(*ast.Entity).Name)
}

func TestRelationshipRule_NoMatchRestoresCursor(t *testing.T) {
	c := NewCursor(lexer.Tokenize("Order[1] Item"))
	stmt, ok := (&RelationshipRule{}).Parse(c)

	assert.False(t, ok)
	assert.Nil(t, stmt)
	assert.Equal(t, 0, c.Offset())
	assert.Empty(t, c.Diagnostics())
}

func TestParse_RelationshipMissingTarget(t *testing.T) {
	program := ParseSource("A >> {")

	require.Len(t, program.Diagnostics, 1)
	assert.Contains(t, program.Diagnostics[0].Message, "expected relationship target")
	assert.Empty(t, program.Body)
}

func TestParse_NestedPackages(t *testing.T) {
	pkg := parseOne[*ast.Package](t, `package a {
		package b { class X }
		class Y
		Y >> b.X
	}`)

	assert.Equal(t, "a", pkg.Name)
	require.Len(t, pkg.Body, 3)
	inner := pkg.Body[0].(*ast.Package)
	assert.Equal(t, "b", inner.Name)
	require.Len(t, inner.Body, 1)
	assert.Equal(t, "X", inner.Body[0].(*ast.Entity).Name)
	assert.Equal(t, "Y", pkg.Body[1].(*ast.Entity).Name)
	assert.Equal(t, "b.X", pkg.Body[2].(*ast.Relationship).To)
}

func TestParse_MissingMemberNameRecovers(t *testing.T) {
	program := ParseSource("class A { : string }")

	require.Len(t, program.Diagnostics, 1)
	assert.Contains(t, program.Diagnostics[0].Message, "expected member name")
	require.Len(t, program.Body, 1)

	entity := program.Body[0].(*ast.Entity)
	assert.Equal(t, "A", entity.Name)
	assert.Empty(t, entity.Members)
}

func TestParse_MissingClosingBrace(t *testing.T) {
	program := ParseSource("class A { x: int\nclass B {}")

	require.Len(t, program.Diagnostics, 1)
	assert.Contains(t, program.Diagnostics[0].Message, "expected '}' to close class A")
	require.Len(t, program.Body, 2)
	assert.Len(t, program.Body[0].(*ast.Entity).Members, 1)
	assert.Equal(t, "B", program.Body[1].(*ast.Entity).Name)
}

func TestParse_StrayTokensInsideBody(t *testing.T) {
	program := ParseSource("class A { ) ) x: int }")

	require.Len(t, program.Diagnostics, 1)
	entity := program.Body[0].(*ast.Entity)
	require.Len(t, entity.Members, 1)
	assert.Equal(t, "x", entity.Members[0].(*ast.Attribute).Name)
}

func TestParse_EmptyTokenSlice(t *testing.T) {
	program := Parse(nil)
	assert.Empty(t, program.Body)
	assert.Empty(t, program.Diagnostics)
}

func TestCursor_ConsumeDoesNotPassEOF(t *testing.T) {
	c := NewCursor(lexer.Tokenize("a"))
	c.Advance()
	assert.True(t, c.IsAtEnd())
	c.Advance()
	assert.True(t, c.IsAtEnd())

	tok, ok := c.Consume(lexer.Identifier, "expected name")
	assert.False(t, ok)
	assert.Equal(t, lexer.Identifier, tok.Kind)
	assert.Empty(t, tok.Text)
	require.Len(t, c.Diagnostics(), 1)

	_, ok = c.Consume(lexer.Colon, "")
	assert.False(t, ok)
	assert.Len(t, c.Diagnostics(), 1, "cascading errors are suppressed")
}

func TestCursor_RollbackDropsDiagnostics(t *testing.T) {
	c := NewCursor(lexer.Tokenize("a b"))
	mark := c.Save()
	c.Advance()
	c.Consume(lexer.Colon, "expected colon")
	require.Len(t, c.Diagnostics(), 1)

	c.Rollback(mark)
	assert.Equal(t, 0, c.Offset())
	assert.Empty(t, c.Diagnostics())
}

func TestParse_UnclosedMultiplicityStaysLinear(t *testing.T) {
	inputs := map[string]string{
		"stacked brackets":    strings.Repeat("A[[[[", 20000),
		"spaced brackets":     strings.Repeat("A[ ", 20000),
		"identifiers inside":  strings.Repeat("A[ b c ", 20000),
		"operators after":     strings.Repeat("A[1 >> ", 20000),
		"attribute in a body": "class A { x: T" + strings.Repeat("[", 20000) + " }",
	}

	for name, src := range inputs {
		t.Run(name, func(t *testing.T) {
			tokens := lexer.Tokenize(src)
			start := time.Now()
			program := Parse(tokens)
			elapsed := time.Since(start)

			assert.NotEmpty(t, program.Diagnostics)
			assert.Less(t, elapsed, 2*time.Second, "parse of %d tokens took %s", len(tokens), elapsed)
		})
	}
}

func TestRelationshipRule_UnclosedMultiplicityIsNoMatch(t *testing.T) {
	c := NewCursor(lexer.Tokenize("Order[1 Item >> B"))
	stmt, ok := (&RelationshipRule{}).Parse(c)

	assert.False(t, ok)
	assert.Nil(t, stmt)
	assert.Equal(t, 0, c.Offset())
	assert.Empty(t, c.Diagnostics())
}

func TestParse_MultiplicityStopsAtClosingBrace(t *testing.T) {
	program := ParseSource("class A { x: T[0..* }\nclass B")

	require.Len(t, program.Diagnostics, 1)
	assert.Contains(t, program.Diagnostics[0].Message, "expected ']'")
	require.Len(t, program.Body, 2)
	attr := program.Body[0].(*ast.Entity).Members[0].(*ast.Attribute)
	assert.Equal(t, "[0..*", attr.Multiplicity)
	assert.Equal(t, "B", program.Body[1].(*ast.Entity).Name)
}

func TestParse_NamelessPackageKeepsBody(t *testing.T) {
	program := ParseSource("package { class A {} class B >> A }")

	require.Len(t, program.Diagnostics, 1)
	assert.Contains(t, program.Diagnostics[0].Message, "expected package name")
	require.Len(t, program.Body, 1)

	pkg := program.Body[0].(*ast.Package)
	assert.Empty(t, pkg.Name)
	require.Len(t, pkg.Body, 2)
	assert.Equal(t, "A", pkg.Body[0].(*ast.Entity).Name)
	assert.Equal(t, "B", pkg.Body[1].(*ast.Entity).Name)
}

func TestParse_IndependentFaultsEachReported(t *testing.T) {
	program := ParseSource("A >> ]\nX Y\nclass {}")

	require.Len(t, program.Diagnostics, 3)
	assert.Contains(t, program.Diagnostics[0].Message, "expected relationship target")
	assert.Equal(t, [2]int{1, 6}, [2]int{program.Diagnostics[0].Line, program.Diagnostics[0].Column})
	assert.Contains(t, program.Diagnostics[1].Message, `"X"`)
	assert.Equal(t, [2]int{2, 1}, [2]int{program.Diagnostics[1].Line, program.Diagnostics[1].Column})
	assert.Contains(t, program.Diagnostics[2].Message, "expected entity name")
	assert.Equal(t, [2]int{3, 7}, [2]int{program.Diagnostics[2].Line, program.Diagnostics[2].Column})
}

func TestParse_FaultyHeaderTailReportedOnce(t *testing.T) {
	program := ParseSource("class A >> .B\nclass C")

	require.Len(t, program.Diagnostics, 1)
	assert.Contains(t, program.Diagnostics[0].Message, "expected relationship target")
	assert.Equal(t, 12, program.Diagnostics[0].Column)

	require.Len(t, program.Body, 2)
	a := program.Body[0].(*ast.Entity)
	assert.Equal(t, "A", a.Name)
	assert.Empty(t, a.Relationships)
	assert.Equal(t, "C", program.Body[1].(*ast.Entity).Name)
}
