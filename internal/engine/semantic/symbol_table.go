package semantic

import (
	"strings"

	"umlc/internal/engine/ir"
)

// SymbolTable maps fully-qualified names to entities for one analysis run.
// Entities keeps first-registration order; re-registering an id replaces the
// entity in place.
type SymbolTable struct {
	index    map[string]int
	entities []ir.Entity
}

// NewSymbolTable returns an empty table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{index: make(map[string]int)}
}

// Register adds entity under its ID, replacing an existing entry in place.
func (t *SymbolTable) Register(entity ir.Entity) {
	if i, ok := t.index[entity.ID]; ok {
		t.entities[i] = entity
		return
	}
	t.index[entity.ID] = len(t.entities)
	t.entities = append(t.entities, entity)
}

func (t *SymbolTable) Has(fqn string) bool {
	_, ok := t.index[fqn]
	return ok
}

func (t *SymbolTable) Lookup(fqn string) (ir.Entity, bool) {
	i, ok := t.index[fqn]
	if !ok {
		return ir.Entity{}, false
	}
	return t.entities[i], true
}

func (t *SymbolTable) Len() int {
	return len(t.entities)
}

// Entities returns a copy of the registered entities in insertion order.
func (t *SymbolTable) Entities() []ir.Entity {
	out := make([]ir.Entity, len(t.entities))
	copy(out, t.entities)
	return out
}

// ResolveFQN resolves name as seen from namespace. Dotted names are taken
// verbatim. A bare name is looked up in namespace, then in each enclosing
// namespace, then globally; the first registered candidate wins. When nothing
// is registered the bare global name is returned.
func (t *SymbolTable) ResolveFQN(name, namespace string) string {
	name = cleanFQN(name)
	if strings.Contains(name, ".") || namespace == "" {
		return name
	}
	for ns := namespace; ns != ""; ns = parentNamespace(ns) {
		candidate := ns + "." + name
		if t.Has(candidate) {
			return candidate
		}
	}
	return name
}

// GetOrCreateImplicit resolves name from namespace and registers an implicit
// empty class under the resolved id when none exists yet.
func (t *SymbolTable) GetOrCreateImplicit(name, namespace string) string {
	fqn := t.ResolveFQN(name, namespace)
	if t.Has(fqn) {
		return fqn
	}

	ns, simple := SplitFQN(fqn)
	t.Register(ir.Entity{
		ID:         fqn,
		Name:       simple,
		Type:       ir.EntityClass,
		Namespace:  ns,
		Members:    []ir.Member{},
		IsImplicit: true,
	})
	return fqn
}

// JoinFQN joins a namespace and a name with a dot. Empty segments, including
// an empty namespace or a stray leading or trailing dot, are dropped.
func JoinFQN(namespace, name string) string {
	if namespace == "" {
		return cleanFQN(name)
	}
	return cleanFQN(namespace + "." + name)
}

// cleanFQN drops empty dot-separated segments: "B." and "a..B" become "B"
// and "a.B".
func cleanFQN(name string) string {
	if !strings.HasPrefix(name, ".") && !strings.HasSuffix(name, ".") && !strings.Contains(name, "..") {
		return name
	}
	parts := strings.Split(name, ".")
	kept := parts[:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ".")
}

// SplitFQN splits at the last dot into namespace and simple name.
func SplitFQN(fqn string) (namespace, name string) {
	i := strings.LastIndex(fqn, ".")
	if i < 0 {
		return "", fqn
	}
	return fqn[:i], fqn[i+1:]
}

func parentNamespace(ns string) string {
	parent, _ := SplitFQN(ns)
	return parent
}
