// Package semantic resolves a parsed program into an ir.Diagram.
//
// Analysis runs three passes over one SymbolTable:
//
//  1. declare every entity under its fully-qualified name;
//  2. turn header and standalone relationships into IR relationships,
//     fabricating implicit entities for names nobody declared;
//  3. infer extra relationships from members tagged with an operator.
//
// Analysis never fails. Incomplete programs produce fewer entities and
// relationships, never dangling references.
package semantic

import (
	"umlc/internal/engine/ast"
	"umlc/internal/engine/ir"
)

type relationshipKey struct {
	from, to string
	typ      ir.RelationshipType
}

type analysis struct {
	symbols       *SymbolTable
	relationships []ir.Relationship
	seen          map[relationshipKey]bool
	// structural marks ordered pairs that already have a non-dependency
	// relationship.
	structural map[[2]string]bool
}

// Analyze runs all passes with a fresh symbol table.
func Analyze(program *ast.Program) ir.Diagram {
	a := &analysis{
		symbols:    NewSymbolTable(),
		seen:       make(map[relationshipKey]bool),
		structural: make(map[[2]string]bool),
	}
	if program == nil {
		return a.diagram()
	}

	a.declare(program.Body, "")
	a.relate(program.Body, "")
	a.infer()
	return a.diagram()
}

func (a *analysis) diagram() ir.Diagram {
	rels := make([]ir.Relationship, len(a.relationships))
	copy(rels, a.relationships)
	return ir.Diagram{
		Entities:      a.symbols.Entities(),
		Relationships: rels,
	}
}

func (a *analysis) declare(body []ast.Statement, namespace string) {
	for _, stmt := range body {
		switch n := stmt.(type) {
		case *ast.Package:
			a.declare(n.Body, JoinFQN(namespace, n.Name))
		case *ast.Entity:
			a.symbols.Register(declaredEntity(n, namespace))
		case *ast.Relationship, *ast.Comment:
		}
	}
}

func declaredEntity(n *ast.Entity, namespace string) ir.Entity {
	id := JoinFQN(namespace, n.Name)
	ns, name := SplitFQN(id)
	return ir.Entity{
		ID:         id,
		Name:       name,
		Type:       entityType(n.Kind),
		Namespace:  ns,
		Members:    members(n.Members),
		IsImplicit: false,
		IsAbstract: n.Abstract,
	}
}

func members(nodes []ast.Member) []ir.Member {
	out := make([]ir.Member, 0, len(nodes))
	for _, node := range nodes {
		switch m := node.(type) {
		case *ast.Attribute:
			out = append(out, ir.Member{
				Name:             m.Name,
				Type:             m.Type,
				Visibility:       visibility(m.Visibility),
				IsStatic:         m.Static,
				Multiplicity:     m.Multiplicity,
				RelationshipKind: m.RelationshipKind,
			})
		case *ast.Method:
			params := make([]ir.Parameter, 0, len(m.Parameters))
			for _, p := range m.Parameters {
				params = append(params, ir.Parameter{Name: p.Name, Type: p.Type, RelationshipKind: p.RelationshipKind})
			}
			out = append(out, ir.Member{
				Name:             m.Name,
				Type:             m.ReturnType,
				Visibility:       visibility(m.Visibility),
				IsStatic:         m.Static,
				IsAbstract:       m.Abstract,
				Parameters:       params,
				RelationshipKind: m.RelationshipKind,
			})
		case *ast.Comment:
		}
	}
	return out
}

func (a *analysis) relate(body []ast.Statement, namespace string) {
	for _, stmt := range body {
		switch n := stmt.(type) {
		case *ast.Package:
			a.relate(n.Body, JoinFQN(namespace, n.Name))
		case *ast.Entity:
			from := JoinFQN(namespace, n.Name)
			for _, h := range n.Relationships {
				to := a.symbols.GetOrCreateImplicit(h.Target, namespace)
				a.add(ir.Relationship{From: from, To: to, Type: RelationshipType(h.Kind)})
			}
		case *ast.Relationship:
			from := a.symbols.GetOrCreateImplicit(n.From, namespace)
			to := a.symbols.GetOrCreateImplicit(n.To, namespace)
			a.add(ir.Relationship{
				From:             from,
				To:               to,
				Type:             RelationshipType(n.Kind),
				Label:            n.Label,
				FromMultiplicity: n.FromMultiplicity,
				ToMultiplicity:   n.ToMultiplicity,
			})
		case *ast.Comment:
		}
	}
}

// add records rel unless the same (from, to, type) triple already exists.
func (a *analysis) add(rel ir.Relationship) bool {
	key := relationshipKey{rel.From, rel.To, rel.Type}
	if a.seen[key] {
		return false
	}
	a.seen[key] = true
	if rel.Type != ir.RelDependency {
		a.structural[[2]string{rel.From, rel.To}] = true
	}
	a.relationships = append(a.relationships, rel)
	return true
}

// infer derives relationships from members and parameters that carry an
// inline operator tag. Untagged members, including method return types, mean
// local use only and produce nothing.
func (a *analysis) infer() {
	for _, entity := range a.symbols.Entities() {
		for _, m := range entity.Members {
			if m.RelationshipKind != "" {
				a.inferFromType(entity, m.Type, m.Name, RelationshipType(m.RelationshipKind), m.Multiplicity)
			}
			for _, p := range m.Parameters {
				if p.RelationshipKind != "" {
					a.inferFromType(entity, p.Type, p.Name, RelationshipType(p.RelationshipKind), "")
				}
			}
		}
	}
}

func (a *analysis) inferFromType(owner ir.Entity, typeName, label string, typ ir.RelationshipType, multiplicity string) {
	base := baseTypeName(typeName)
	if base == "" || IsPrimitive(base) {
		return
	}

	to := a.symbols.ResolveFQN(base, owner.Namespace)
	if !a.shouldInfer(owner.ID, to, typ) {
		return
	}
	to = a.symbols.GetOrCreateImplicit(base, owner.Namespace)
	a.add(ir.Relationship{
		From:           owner.ID,
		To:             to,
		Type:           typ,
		Label:          label,
		ToMultiplicity: multiplicity,
	})
}

// shouldInfer applies the precedence policy: no duplicate triples, and a
// dependency never shadows a structural relationship between the same pair.
func (a *analysis) shouldInfer(from, to string, typ ir.RelationshipType) bool {
	if a.seen[relationshipKey{from, to, typ}] {
		return false
	}
	if typ == ir.RelDependency && a.structural[[2]string{from, to}] {
		return false
	}
	return true
}
