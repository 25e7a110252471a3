// Package compiler sequences the lexer, parser and semantic analyzer.
package compiler

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"umlc/internal/engine/ast"
	"umlc/internal/engine/ir"
	"umlc/internal/engine/lexer"
	"umlc/internal/engine/parser"
	"umlc/internal/engine/semantic"
	"umlc/internal/shared/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Result is the outcome of one compilation. Valid is true iff Diagnostics is
// empty. The diagram is produced even for invalid sources.
type Result struct {
	Diagram     ir.Diagram       `json:"diagram" yaml:"diagram"`
	Diagnostics []ast.Diagnostic `json:"diagnostics" yaml:"diagnostics"`
	Valid       bool             `json:"isValid" yaml:"isValid"`
}

// Compile runs the full pipeline without instrumentation.
func Compile(source string) Result {
	tokens := lexer.Tokenize(source)
	program := parser.Parse(tokens)
	return result(program, semantic.Analyze(program))
}

func result(program *ast.Program, diagram ir.Diagram) Result {
	diagnostics := make([]ast.Diagnostic, len(program.Diagnostics))
	copy(diagnostics, program.Diagnostics)
	return Result{
		Diagram:     diagram,
		Diagnostics: diagnostics,
		Valid:       len(diagnostics) == 0,
	}
}

// Engine is Compile with per-stage metrics, tracing and debug logging.
type Engine struct {
	logger *slog.Logger
}

func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{logger: logger}
}

func (e *Engine) Compile(ctx context.Context, name, source string) Result {
	_, span := observability.Tracer.Start(ctx, "compiler.Compile",
		trace.WithAttributes(attribute.String("source", name)))
	defer span.End()

	var tokens []lexer.Token
	timeStage("lex", func() { tokens = lexer.Tokenize(source) })

	var program *ast.Program
	timeStage("parse", func() { program = parser.Parse(tokens) })

	var diagram ir.Diagram
	timeStage("analyze", func() { diagram = semantic.Analyze(program) })

	res := result(program, diagram)

	observability.CompilesTotal.WithLabelValues(strconv.FormatBool(res.Valid)).Inc()
	observability.DiagnosticsTotal.Add(float64(len(res.Diagnostics)))
	observability.DiagramEntities.Set(float64(len(diagram.Entities)))
	observability.DiagramRelationships.Set(float64(len(diagram.Relationships)))

	span.SetAttributes(
		attribute.Int("tokens", len(tokens)),
		attribute.Int("diagnostics", len(res.Diagnostics)),
		attribute.Int("entities", len(diagram.Entities)),
		attribute.Int("relationships", len(diagram.Relationships)),
	)

	e.logger.Debug("compiled source",
		"source", name,
		"tokens", len(tokens),
		"diagnostics", len(res.Diagnostics),
		"entities", len(diagram.Entities),
		"relationships", len(diagram.Relationships))
	return res
}

func timeStage(stage string, fn func()) {
	start := time.Now()
	fn()
	observability.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}
