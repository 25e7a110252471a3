package output

import (
	"fmt"
	"strings"

	"umlc/internal/engine/ir"
)

type MermaidGenerator struct{}

var mermaidArrows = map[ir.RelationshipType]string{
	ir.RelInheritance:    "--|>",
	ir.RelImplementation: "..|>",
	ir.RelComposition:    "*--",
	ir.RelAggregation:    "o--",
	ir.RelDependency:     "..>",
	ir.RelAssociation:    "-->",
}

func (MermaidGenerator) Generate(d ir.Diagram) (string, error) {
	var b strings.Builder
	b.WriteString("classDiagram\n")

	ids := makeIDs(d)
	namespaces, byNamespace := groupByNamespace(d)

	for _, ns := range namespaces {
		b.WriteString(fmt.Sprintf("  namespace %s {\n", sanitizeID(ns)))
		for _, e := range byNamespace[ns] {
			writeMermaidClass(&b, e, ids[e.ID], "    ")
		}
		b.WriteString("  }\n")
	}
	for _, e := range byNamespace[""] {
		writeMermaidClass(&b, e, ids[e.ID], "  ")
	}

	if len(d.Relationships) > 0 {
		b.WriteString("\n")
	}
	for _, r := range d.Relationships {
		line := "  " + ids[r.From]
		if r.FromMultiplicity != "" {
			line += fmt.Sprintf(" \"%s\"", escapeQuotes(cardinality(r.FromMultiplicity)))
		}
		line += " " + mermaidArrows[r.Type]
		if r.ToMultiplicity != "" {
			line += fmt.Sprintf(" \"%s\"", escapeQuotes(cardinality(r.ToMultiplicity)))
		}
		line += " " + ids[r.To]
		if r.Label != "" {
			line += " : " + r.Label
		}
		b.WriteString(line + "\n")
	}

	implicit := make([]string, 0)
	for _, e := range d.Entities {
		if e.IsImplicit {
			implicit = append(implicit, ids[e.ID])
		}
	}
	if len(implicit) > 0 {
		b.WriteString("\n  classDef implicit stroke-dasharray:4 3,fill:#f4f4f4;\n")
		b.WriteString(fmt.Sprintf("  cssClass \"%s\" implicit\n", strings.Join(implicit, ",")))
	}

	return b.String(), nil
}

func writeMermaidClass(b *strings.Builder, e ir.Entity, id, indent string) {
	header := fmt.Sprintf("%sclass %s[\"%s\"]", indent, id, escapeQuotes(e.Name))
	annotation := mermaidAnnotation(e)
	if len(e.Members) == 0 && annotation == "" {
		b.WriteString(header + "\n")
		return
	}

	b.WriteString(header + " {\n")
	if annotation != "" {
		b.WriteString(fmt.Sprintf("%s  <<%s>>\n", indent, annotation))
	}
	for _, m := range e.Members {
		b.WriteString(fmt.Sprintf("%s  %s\n", indent, mermaidMember(m)))
	}
	b.WriteString(indent + "}\n")
}

func mermaidAnnotation(e ir.Entity) string {
	switch {
	case e.Type == ir.EntityInterface:
		return "interface"
	case e.Type == ir.EntityEnum:
		return "enumeration"
	case e.IsAbstract:
		return "abstract"
	}
	return ""
}

// mermaidMember uses Mermaid's classifier suffixes: * abstract, $ static.
func mermaidMember(m ir.Member) string {
	out := visibilityGlyph(m.Visibility) + signature(m)
	if m.IsAbstract {
		out += "*"
	}
	if m.IsStatic {
		out += "$"
	}
	return out
}
