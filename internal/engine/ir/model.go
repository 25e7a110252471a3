// Package ir defines the resolved diagram model produced by semantic analysis
// and consumed by renderers.
package ir

type EntityType string

const (
	EntityClass     EntityType = "class"
	EntityInterface EntityType = "interface"
	EntityEnum      EntityType = "enum"
)

type Visibility string

const (
	VisibilityPublic    Visibility = "public"
	VisibilityPrivate   Visibility = "private"
	VisibilityProtected Visibility = "protected"
	VisibilityInternal  Visibility = "internal"
)

type RelationshipType string

const (
	RelInheritance    RelationshipType = "inheritance"
	RelImplementation RelationshipType = "implementation"
	RelComposition    RelationshipType = "composition"
	RelAggregation    RelationshipType = "aggregation"
	RelDependency     RelationshipType = "dependency"
	RelAssociation    RelationshipType = "association"
)

// Entity is a class, interface or enum keyed by its fully-qualified name.
type Entity struct {
	ID         string     `json:"id" yaml:"id"`
	Name       string     `json:"name" yaml:"name"`
	Type       EntityType `json:"type" yaml:"type"`
	Namespace  string     `json:"namespace,omitempty" yaml:"namespace,omitempty"`
	Members    []Member   `json:"members" yaml:"members"`
	IsImplicit bool       `json:"isImplicit" yaml:"isImplicit"`
	IsAbstract bool       `json:"isAbstract" yaml:"isAbstract"`
}

// Member is an attribute or a method. Parameters is nil for attributes.
type Member struct {
	Name         string      `json:"name" yaml:"name"`
	Type         string      `json:"type,omitempty" yaml:"type,omitempty"`
	Visibility   Visibility  `json:"visibility" yaml:"visibility"`
	IsStatic     bool        `json:"isStatic" yaml:"isStatic"`
	IsAbstract   bool        `json:"isAbstract" yaml:"isAbstract"`
	Parameters   []Parameter `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	Multiplicity string      `json:"multiplicity,omitempty" yaml:"multiplicity,omitempty"`
	// RelationshipKind is the inline operator tag read by inference.
	RelationshipKind string `json:"relationshipKind,omitempty" yaml:"relationshipKind,omitempty"`
}

// IsMethod reports whether the member was declared with a parameter list.
func (m Member) IsMethod() bool {
	return m.Parameters != nil
}

type Parameter struct {
	Name             string `json:"name" yaml:"name"`
	Type             string `json:"type" yaml:"type"`
	RelationshipKind string `json:"relationshipKind,omitempty" yaml:"relationshipKind,omitempty"`
}

type Relationship struct {
	From             string           `json:"from" yaml:"from"`
	To               string           `json:"to" yaml:"to"`
	Type             RelationshipType `json:"type" yaml:"type"`
	Label            string           `json:"label,omitempty" yaml:"label,omitempty"`
	FromMultiplicity string           `json:"fromMultiplicity,omitempty" yaml:"fromMultiplicity,omitempty"`
	ToMultiplicity   string           `json:"toMultiplicity,omitempty" yaml:"toMultiplicity,omitempty"`
}

// Diagram is the analysis result. Every relationship endpoint names an entity
// in Entities.
type Diagram struct {
	Entities      []Entity       `json:"entities" yaml:"entities"`
	Relationships []Relationship `json:"relationships" yaml:"relationships"`
}

// Entity returns the entity with the given id.
func (d Diagram) Entity(id string) (Entity, bool) {
	for _, e := range d.Entities {
		if e.ID == id {
			return e, true
		}
	}
	return Entity{}, false
}

// RelationshipsBetween returns the relationships from -> to in insertion order.
func (d Diagram) RelationshipsBetween(from, to string) []Relationship {
	var out []Relationship
	for _, r := range d.Relationships {
		if r.From == from && r.To == to {
			out = append(out, r)
		}
	}
	return out
}

// Namespaces returns the distinct entity namespaces in first-seen order,
// excluding the global namespace.
func (d Diagram) Namespaces() []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range d.Entities {
		if e.Namespace == "" || seen[e.Namespace] {
			continue
		}
		seen[e.Namespace] = true
		out = append(out, e.Namespace)
	}
	return out
}
