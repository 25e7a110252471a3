package app

import (
	"path/filepath"

	domainerrors "umlc/internal/core/errors"
	"umlc/internal/engine/ir"
	"umlc/internal/output"
	"umlc/internal/shared/observability"
	"umlc/internal/shared/util"
)

// outputPaths lists <output.dir>/<diagram name><ext> for every configured
// format, in config order.
func (a *App) outputPaths(source string) []string {
	cfg := a.config()
	name := util.DiagramName(source)
	paths := make([]string, 0, len(cfg.Output.Formats))
	for _, format := range cfg.Output.Formats {
		ext, err := output.Extension(format)
		if err != nil {
			continue
		}
		paths = append(paths, filepath.Join(cfg.Output.Dir, name+ext))
	}
	return paths
}

func (a *App) writeOutputs(source string, diagram ir.Diagram) ([]string, error) {
	cfg := a.config()
	name := util.DiagramName(source)
	written := make([]string, 0, len(cfg.Output.Formats))

	for _, format := range cfg.Output.Formats {
		content, err := output.Generate(format, diagram)
		if err != nil {
			return written, domainerrors.AddContext(err, domainerrors.CtxPath, source)
		}
		ext, err := output.Extension(format)
		if err != nil {
			return written, err
		}
		target := filepath.Join(cfg.Output.Dir, name+ext)
		if err := util.WriteFileAtomic(target, []byte(content)); err != nil {
			err = domainerrors.Wrap(err, domainerrors.CodeInternal, "write output")
			err = domainerrors.AddContext(err, domainerrors.CtxFormat, format)
			return written, domainerrors.AddContext(err, domainerrors.CtxPath, target)
		}
		observability.OutputsWrittenTotal.WithLabelValues(format).Inc()
		written = append(written, target)
	}

	if len(written) > 0 {
		a.logger.Debug("outputs written", "path", source, "count", len(written))
	}
	return written, nil
}
