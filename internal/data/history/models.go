package history

import (
	"time"

	"umlc/internal/engine/ast"
)

const SchemaVersion = 2

// Run is one recorded compilation of a source file.
type Run struct {
	ID                string           `json:"id"`
	Source            string           `json:"source"`
	SourceHash        string           `json:"source_hash"`
	Timestamp         time.Time        `json:"timestamp"`
	Duration          time.Duration    `json:"duration"`
	Valid             bool             `json:"valid"`
	EntityCount       int              `json:"entity_count"`
	ImplicitCount     int              `json:"implicit_count"`
	RelationshipCount int              `json:"relationship_count"`
	Diagnostics       []ast.Diagnostic `json:"diagnostics"`
	// DiagramJSON is the serialized IR, empty when not captured.
	DiagramJSON string `json:"-"`
}

type TrendPoint struct {
	RunID              string    `json:"run_id"`
	Timestamp          time.Time `json:"timestamp"`
	Valid              bool      `json:"valid"`
	SourceChanged      bool      `json:"source_changed"`
	EntityCount        int       `json:"entity_count"`
	ImplicitCount      int       `json:"implicit_count"`
	RelationshipCount  int       `json:"relationship_count"`
	DiagnosticCount    int       `json:"diagnostic_count"`
	DeltaEntities      int       `json:"delta_entities"`
	DeltaImplicit      int       `json:"delta_implicit"`
	DeltaRelationships int       `json:"delta_relationships"`
	DeltaDiagnostics   int       `json:"delta_diagnostics"`
	AvgDiagnostics     float64   `json:"avg_diagnostics"`
	WindowHours        float64   `json:"window_hours"`
}

type TrendReport struct {
	SchemaVersion int          `json:"schema_version"`
	Source        string       `json:"source"`
	Since         time.Time    `json:"since"`
	Until         time.Time    `json:"until"`
	Window        string       `json:"window"`
	RunCount      int          `json:"run_count"`
	Points        []TrendPoint `json:"points"`
}
