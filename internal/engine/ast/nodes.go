// Package ast holds the node shapes produced by the parser.
//
// Statement and Member are closed sum types: only the types in this package
// implement them, so passes switch over the concrete node types exhaustively.
package ast

type Pos struct {
	Line   int
	Column int
}

// Diagnostic is a recoverable syntax problem found while parsing.
type Diagnostic struct {
	Message string `json:"message"`
	Line    int    `json:"line"`
	Column  int    `json:"column"`
}

type Program struct {
	Pos
	Body        []Statement
	Diagnostics []Diagnostic
}

// Statement is one of *Package, *Entity, *Relationship or *Comment.
type Statement interface {
	Position() Pos
	statementNode()
}

// Member is one of *Attribute, *Method or *Comment.
type Member interface {
	Position() Pos
	memberNode()
}

type Package struct {
	Pos
	Name string
	Body []Statement
}

type EntityKind string

const (
	KindClass     EntityKind = "class"
	KindInterface EntityKind = "interface"
	KindEnum      EntityKind = "enum"
)

type Entity struct {
	Pos
	Kind          EntityKind
	Name          string
	Abstract      bool
	Relationships []RelationshipHeader
	// Members is nil and HasBody false when the declaration has no braces.
	Members []Member
	HasBody bool
}

// RelationshipHeader is an inline relationship such as the ">> B" in "class A >> B".
type RelationshipHeader struct {
	Pos
	Kind   string
	Target string
}

type Attribute struct {
	Pos
	Name             string
	Visibility       string
	Static           bool
	Type             string
	Multiplicity     string
	RelationshipKind string
}

type Method struct {
	Pos
	Name             string
	Visibility       string
	Static           bool
	Abstract         bool
	Parameters       []Parameter
	ReturnType       string
	RelationshipKind string
}

type Parameter struct {
	Pos
	Name             string
	Type             string
	RelationshipKind string
}

// Relationship is a standalone statement such as "Order[1] >+ Item[*]".
type Relationship struct {
	Pos
	From             string
	FromMultiplicity string
	To               string
	ToMultiplicity   string
	Kind             string
	Label            string
}

// Comment is kept in the tree but carries no meaning for analysis.
type Comment struct {
	Pos
	Text string
}

func (p Pos) Position() Pos { return p }

func (*Package) statementNode()      {}
func (*Entity) statementNode()       {}
func (*Relationship) statementNode() {}
func (*Comment) statementNode()      {}

func (*Attribute) memberNode() {}
func (*Method) memberNode()    {}
func (*Comment) memberNode()   {}
