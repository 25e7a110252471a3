package lexer

import "fmt"

// Kind classifies a token.
type Kind int

const (
	EOF Kind = iota
	Unknown
	Identifier
	Number
	Comment
	Range // ..

	LBrace
	RBrace
	LParen
	RParen
	LBracket
	RBracket
	Colon
	Comma
	Dot
	Pipe
	Star

	VisPublic    // +
	VisPrivate   // -
	VisProtected // #
	VisInternal  // ~

	OpInherit     // >>
	OpImplement   // >I
	OpComposition // >*
	OpAggregation // >+
	OpDependency  // >-
	OpRelation    // >

	KwExtends    // >extends
	KwImplements // >implements
	KwComp       // >comp
	KwAgreg      // >agreg
	KwUse        // >use

	KwClass
	KwInterface
	KwEnum
	KwPackage
	KwPublic
	KwPrivate
	KwProtected
	KwInternal
	KwStatic
	KwAbstract
)

var kindNames = map[Kind]string{
	EOF:           "end of input",
	Unknown:       "unknown",
	Identifier:    "identifier",
	Number:        "number",
	Comment:       "comment",
	Range:         "'..'",
	LBrace:        "'{'",
	RBrace:        "'}'",
	LParen:        "'('",
	RParen:        "')'",
	LBracket:      "'['",
	RBracket:      "']'",
	Colon:         "':'",
	Comma:         "','",
	Dot:           "'.'",
	Pipe:          "'|'",
	Star:          "'*'",
	VisPublic:     "'+'",
	VisPrivate:    "'-'",
	VisProtected:  "'#'",
	VisInternal:   "'~'",
	OpInherit:     "'>>'",
	OpImplement:   "'>I'",
	OpComposition: "'>*'",
	OpAggregation: "'>+'",
	OpDependency:  "'>-'",
	OpRelation:    "'>'",
	KwExtends:     "'>extends'",
	KwImplements:  "'>implements'",
	KwComp:        "'>comp'",
	KwAgreg:       "'>agreg'",
	KwUse:         "'>use'",
	KwClass:       "'class'",
	KwInterface:   "'interface'",
	KwEnum:        "'enum'",
	KwPackage:     "'package'",
	KwPublic:      "'public'",
	KwPrivate:     "'private'",
	KwProtected:   "'protected'",
	KwInternal:    "'internal'",
	KwStatic:      "'static'",
	KwAbstract:    "'abstract'",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// IsRelationship reports whether k is one of the eleven relationship operators.
func (k Kind) IsRelationship() bool {
	return k >= OpInherit && k <= KwUse
}

// IsVisibility reports whether k is a visibility mark or visibility keyword.
func (k Kind) IsVisibility() bool {
	switch k {
	case VisPublic, VisPrivate, VisProtected, VisInternal,
		KwPublic, KwPrivate, KwProtected, KwInternal:
		return true
	}
	return false
}

// RelationshipKinds lists every relationship operator kind.
var RelationshipKinds = []Kind{
	OpInherit, OpImplement, OpComposition, OpAggregation, OpDependency, OpRelation,
	KwExtends, KwImplements, KwComp, KwAgreg, KwUse,
}

// Token is a single lexical unit. Line and Column are 1-based and count runes.
type Token struct {
	Kind   Kind
	Text   string
	Line   int
	Column int
}

func (t Token) String() string {
	if t.Kind == EOF {
		return t.Kind.String()
	}
	return fmt.Sprintf("%s %q", t.Kind, t.Text)
}

var keywords = map[string]Kind{
	"class":     KwClass,
	"interface": KwInterface,
	"enum":      KwEnum,
	"package":   KwPackage,
	"public":    KwPublic,
	"private":   KwPrivate,
	"protected": KwProtected,
	"internal":  KwInternal,
	"static":    KwStatic,
	"abstract":  KwAbstract,
}

var relationshipKeywords = map[string]Kind{
	">extends":    KwExtends,
	">implements": KwImplements,
	">comp":       KwComp,
	">agreg":      KwAgreg,
	">use":        KwUse,
}

var symbols = map[rune]Kind{
	'{': LBrace,
	'}': RBrace,
	'(': LParen,
	')': RParen,
	'[': LBracket,
	']': RBracket,
	':': Colon,
	',': Comma,
	'.': Dot,
	'|': Pipe,
	'*': Star,
	'+': VisPublic,
	'-': VisPrivate,
	'#': VisProtected,
	'~': VisInternal,
}
