package output

import (
	"fmt"
	"strings"

	"umlc/internal/engine/ir"
)

type PlantUMLGenerator struct{}

var plantUMLArrows = map[ir.RelationshipType]string{
	ir.RelInheritance:    "--|>",
	ir.RelImplementation: "..|>",
	ir.RelComposition:    "*--",
	ir.RelAggregation:    "o--",
	ir.RelDependency:     "..>",
	ir.RelAssociation:    "-->",
}

func (PlantUMLGenerator) Generate(d ir.Diagram) (string, error) {
	var b strings.Builder
	b.WriteString("@startuml\n")
	b.WriteString("skinparam classAttributeIconSize 0\n")
	b.WriteString("hide empty members\n\n")

	aliases := makeIDs(d)
	namespaces, byNamespace := groupByNamespace(d)

	for _, ns := range namespaces {
		b.WriteString(fmt.Sprintf("package \"%s\" {\n", escapeQuotes(ns)))
		for _, e := range byNamespace[ns] {
			writePlantUMLEntity(&b, e, aliases[e.ID], "  ")
		}
		b.WriteString("}\n")
	}
	for _, e := range byNamespace[""] {
		writePlantUMLEntity(&b, e, aliases[e.ID], "")
	}

	if len(d.Relationships) > 0 {
		b.WriteString("\n")
	}
	for _, r := range d.Relationships {
		line := aliases[r.From]
		if r.FromMultiplicity != "" {
			line += fmt.Sprintf(" \"%s\"", escapeQuotes(cardinality(r.FromMultiplicity)))
		}
		line += " " + plantUMLArrows[r.Type]
		if r.ToMultiplicity != "" {
			line += fmt.Sprintf(" \"%s\"", escapeQuotes(cardinality(r.ToMultiplicity)))
		}
		line += " " + aliases[r.To]
		if r.Label != "" {
			line += " : " + r.Label
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("\n@enduml\n")
	return b.String(), nil
}

func writePlantUMLEntity(b *strings.Builder, e ir.Entity, alias, indent string) {
	keyword := "class"
	switch {
	case e.Type == ir.EntityInterface:
		keyword = "interface"
	case e.Type == ir.EntityEnum:
		keyword = "enum"
	case e.IsAbstract:
		keyword = "abstract class"
	}

	header := fmt.Sprintf("%s%s \"%s\" as %s", indent, keyword, escapeQuotes(e.Name), alias)
	if e.IsImplicit {
		header += " <<implicit>> #EEEEEE"
	}
	if len(e.Members) == 0 {
		b.WriteString(header + "\n")
		return
	}

	b.WriteString(header + " {\n")
	for _, m := range e.Members {
		b.WriteString(fmt.Sprintf("%s  %s\n", indent, plantUMLMember(e, m)))
	}
	b.WriteString(indent + "}\n")
}

func plantUMLMember(e ir.Entity, m ir.Member) string {
	if e.Type == ir.EntityEnum && m.Type == "" && !m.IsMethod() {
		return m.Name
	}
	out := visibilityGlyph(m.Visibility) + signature(m)
	if m.IsStatic {
		out = "{static} " + out
	}
	if m.IsAbstract {
		out = "{abstract} " + out
	}
	return out
}
