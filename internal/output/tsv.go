package output

import (
	"fmt"
	"strings"

	"umlc/internal/engine/ir"
)

// TSVGenerator writes one row per relationship.
type TSVGenerator struct{}

func (TSVGenerator) Generate(d ir.Diagram) (string, error) {
	var buf strings.Builder

	buf.WriteString("From\tTo\tType\tFromMultiplicity\tToMultiplicity\tLabel\n")
	for _, r := range d.Relationships {
		buf.WriteString(fmt.Sprintf("%s\t%s\t%s\t%s\t%s\t%s\n",
			r.From, r.To, r.Type, r.FromMultiplicity, r.ToMultiplicity, r.Label))
	}

	return buf.String(), nil
}
