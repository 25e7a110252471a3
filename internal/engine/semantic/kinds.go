package semantic

import (
	"strings"

	"umlc/internal/engine/ast"
	"umlc/internal/engine/ir"
)

var exactKinds = []struct {
	ops []string
	typ ir.RelationshipType
}{
	{[]string{">>", ">extends"}, ir.RelInheritance},
	{[]string{">I", ">implements"}, ir.RelImplementation},
	{[]string{">*", ">comp"}, ir.RelComposition},
	{[]string{">+", ">agreg"}, ir.RelAggregation},
	{[]string{">-", ">use"}, ir.RelDependency},
}

// RelationshipType maps an operator's source text to its IR type: an exact
// operator match first, then a prefix match, then association.
func RelationshipType(op string) ir.RelationshipType {
	op = strings.TrimSpace(op)
	for _, k := range exactKinds {
		for _, candidate := range k.ops {
			if op == candidate {
				return k.typ
			}
		}
	}
	for _, k := range exactKinds {
		if strings.HasPrefix(op, k.ops[0]) {
			return k.typ
		}
	}
	return ir.RelAssociation
}

// primitiveTypes never produce inferred relationships. Compared lowercased.
var primitiveTypes = map[string]bool{
	"string": true, "number": true, "boolean": true, "bool": true,
	"void": true, "any": true, "unknown": true, "never": true, "object": true,
	"int": true, "integer": true, "long": true, "short": true, "byte": true,
	"float": true, "double": true, "decimal": true, "char": true,
	"date": true, "time": true, "datetime": true,
	"cadena": true, "texto": true, "entero": true, "booleano": true,
	"fecha": true, "hora": true, "horadía": true,
}

// IsPrimitive reports whether typeName is one of the built-in scalar names.
func IsPrimitive(typeName string) bool {
	return primitiveTypes[strings.ToLower(typeName)]
}

// baseTypeName strips array brackets such as "User[]" -> "User".
func baseTypeName(typeName string) string {
	return strings.TrimSpace(strings.NewReplacer("[", "", "]", "").Replace(typeName))
}

func entityType(kind ast.EntityKind) ir.EntityType {
	switch kind {
	case ast.KindInterface:
		return ir.EntityInterface
	case ast.KindEnum:
		return ir.EntityEnum
	default:
		return ir.EntityClass
	}
}

func visibility(v string) ir.Visibility {
	switch v {
	case "-", "private":
		return ir.VisibilityPrivate
	case "#", "protected":
		return ir.VisibilityProtected
	case "~", "internal":
		return ir.VisibilityInternal
	default:
		return ir.VisibilityPublic
	}
}
