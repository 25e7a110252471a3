package output

import (
	"fmt"
	"strings"

	"umlc/internal/engine/ir"
)

type DOTGenerator struct{}

var dotEdgeStyles = map[ir.RelationshipType]string{
	ir.RelInheritance:    `arrowhead="empty"`,
	ir.RelImplementation: `arrowhead="empty", style="dashed"`,
	ir.RelComposition:    `dir="both", arrowtail="diamond", arrowhead="none"`,
	ir.RelAggregation:    `dir="both", arrowtail="odiamond", arrowhead="none"`,
	ir.RelDependency:     `arrowhead="vee", style="dashed"`,
	ir.RelAssociation:    `arrowhead="vee"`,
}

func (DOTGenerator) Generate(d ir.Diagram) (string, error) {
	var buf strings.Builder

	buf.WriteString("digraph classes {\n")
	buf.WriteString("  rankdir=BT;\n")
	buf.WriteString("  node [shape=record, fontname=\"Helvetica\", fontsize=10];\n")
	buf.WriteString("  edge [fontname=\"Helvetica\", fontsize=8];\n\n")

	ids := makeIDs(d)
	namespaces, byNamespace := groupByNamespace(d)

	for _, ns := range namespaces {
		buf.WriteString(fmt.Sprintf("  subgraph cluster_%s {\n", sanitizeID(ns)))
		buf.WriteString(fmt.Sprintf("    label=\"%s\";\n", escapeQuotes(ns)))
		buf.WriteString("    style=dashed;\n")
		for _, e := range byNamespace[ns] {
			writeDOTNode(&buf, e, ids[e.ID], "    ")
		}
		buf.WriteString("  }\n")
	}
	for _, e := range byNamespace[""] {
		writeDOTNode(&buf, e, ids[e.ID], "  ")
	}

	if len(d.Relationships) > 0 {
		buf.WriteString("\n")
	}
	for _, r := range d.Relationships {
		attrs := []string{dotEdgeStyles[r.Type]}
		if r.Label != "" {
			attrs = append(attrs, fmt.Sprintf("label=\"%s\"", escapeQuotes(r.Label)))
		}
		if r.FromMultiplicity != "" {
			attrs = append(attrs, fmt.Sprintf("taillabel=\"%s\"", escapeQuotes(cardinality(r.FromMultiplicity))))
		}
		if r.ToMultiplicity != "" {
			attrs = append(attrs, fmt.Sprintf("headlabel=\"%s\"", escapeQuotes(cardinality(r.ToMultiplicity))))
		}
		buf.WriteString(fmt.Sprintf("  %s -> %s [%s];\n", ids[r.From], ids[r.To], strings.Join(attrs, ", ")))
	}

	buf.WriteString("}\n")
	return buf.String(), nil
}

func writeDOTNode(buf *strings.Builder, e ir.Entity, id, indent string) {
	title := escapeRecord(e.Name)
	switch {
	case e.Type == ir.EntityInterface:
		title = "«interface»\\n" + title
	case e.Type == ir.EntityEnum:
		title = "«enumeration»\\n" + title
	case e.IsAbstract:
		title = "«abstract»\\n" + title
	}

	var attrs, methods strings.Builder
	for _, m := range e.Members {
		line := escapeRecord(visibilityGlyph(m.Visibility)+signature(m)) + "\\l"
		if m.IsMethod() {
			methods.WriteString(line)
		} else {
			attrs.WriteString(line)
		}
	}

	style := ""
	if e.IsImplicit {
		style = ", style=\"dashed\", color=\"grey\""
	}
	buf.WriteString(fmt.Sprintf("%s%s [label=\"{%s|%s|%s}\"%s];\n", indent, id, title, attrs.String(), methods.String(), style))
}

// escapeRecord escapes characters that are structural in record labels.
func escapeRecord(s string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		`"`, `\"`,
		`{`, `\{`,
		`}`, `\}`,
		`|`, `\|`,
		`<`, `\<`,
		`>`, `\>`,
	)
	return r.Replace(s)
}
