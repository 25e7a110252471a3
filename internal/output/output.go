// Package output renders an ir.Diagram to diagram and data formats.
package output

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"umlc/internal/core/errors"
	"umlc/internal/engine/ir"
)

type Format string

const (
	FormatMermaid  Format = "mermaid"
	FormatPlantUML Format = "plantuml"
	FormatDOT      Format = "dot"
	FormatTSV      Format = "tsv"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
)

// Generator renders one diagram.
type Generator interface {
	Generate(d ir.Diagram) (string, error)
}

var generators = map[Format]struct {
	gen       Generator
	extension string
}{
	FormatMermaid:  {MermaidGenerator{}, ".mmd"},
	FormatPlantUML: {PlantUMLGenerator{}, ".puml"},
	FormatDOT:      {DOTGenerator{}, ".dot"},
	FormatTSV:      {TSVGenerator{}, ".tsv"},
	FormatJSON:     {JSONGenerator{}, ".json"},
	FormatYAML:     {YAMLGenerator{}, ".yaml"},
}

// Formats lists the supported format names, sorted.
func Formats() []string {
	names := make([]string, 0, len(generators))
	for f := range generators {
		names = append(names, string(f))
	}
	sort.Strings(names)
	return names
}

func IsSupported(format string) bool {
	_, ok := generators[Format(strings.ToLower(format))]
	return ok
}

// Extension returns the file extension for format, including the dot.
func Extension(format string) (string, error) {
	g, ok := generators[Format(strings.ToLower(format))]
	if !ok {
		return "", unsupported(format)
	}
	return g.extension, nil
}

// Generate renders d in the named format.
func Generate(format string, d ir.Diagram) (string, error) {
	g, ok := generators[Format(strings.ToLower(format))]
	if !ok {
		return "", unsupported(format)
	}
	return g.gen.Generate(d)
}

func unsupported(format string) error {
	err := errors.Newf(errors.CodeNotSupported, "unsupported output format %q (supported: %s)",
		format, strings.Join(Formats(), ", "))
	return errors.AddContext(err, errors.CtxFormat, format)
}

// groupByNamespace returns the entities of each namespace, in diagram order.
// The global namespace is keyed "".
func groupByNamespace(d ir.Diagram) (namespaces []string, members map[string][]ir.Entity) {
	members = make(map[string][]ir.Entity)
	for _, e := range d.Entities {
		members[e.Namespace] = append(members[e.Namespace], e)
	}
	return d.Namespaces(), members
}

func visibilityGlyph(v ir.Visibility) string {
	switch v {
	case ir.VisibilityPrivate:
		return "-"
	case ir.VisibilityProtected:
		return "#"
	case ir.VisibilityInternal:
		return "~"
	default:
		return "+"
	}
}

// signature renders "name(p: T): R" or "name: T[mult]" without decoration.
func signature(m ir.Member) string {
	if m.IsMethod() {
		params := make([]string, 0, len(m.Parameters))
		for _, p := range m.Parameters {
			params = append(params, p.Name+": "+p.Type)
		}
		sig := m.Name + "(" + strings.Join(params, ", ") + ")"
		if m.Type != "" {
			sig += ": " + m.Type
		}
		return sig
	}
	if m.Type == "" {
		return m.Name
	}
	return m.Name + ": " + m.Type + m.Multiplicity
}

// cardinality strips the brackets from a captured multiplicity: "[0..*]" -> "0..*".
func cardinality(mult string) string {
	return strings.TrimSuffix(strings.TrimPrefix(mult, "["), "]")
}

func sanitizeID(name string) string {
	if name == "" {
		return "e"
	}
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		b.WriteRune('_')
	}
	out := b.String()
	if unicode.IsDigit(rune(out[0])) {
		return "e_" + out
	}
	return out
}

// makeIDs assigns each entity id a unique identifier safe for every renderer.
func makeIDs(d ir.Diagram) map[string]string {
	ids := make(map[string]string, len(d.Entities))
	used := make(map[string]int, len(d.Entities))
	for _, e := range d.Entities {
		base := sanitizeID(e.ID)
		idx := used[base]
		used[base] = idx + 1
		if idx == 0 {
			ids[e.ID] = base
			continue
		}
		ids[e.ID] = fmt.Sprintf("%s_%d", base, idx+1)
	}
	return ids
}

func escapeQuotes(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}
