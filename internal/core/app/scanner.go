package app

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	domainerrors "umlc/internal/core/errors"
	"umlc/internal/shared/observability"
	"umlc/internal/shared/util"

	"github.com/gobwas/glob"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// InitialScan compiles every source under the configured input paths.
func (a *App) InitialScan(ctx context.Context) (Update, error) {
	ctx, span := observability.Tracer.Start(ctx, "app.InitialScan")
	defer span.End()

	cfg := a.config()
	files, err := a.ScanDirectories(uniqueScanRoots(cfg.Inputs.Paths), cfg.Exclude.Dirs, cfg.Exclude.Files)
	if err != nil {
		return Update{}, err
	}
	span.SetAttributes(attribute.Int("files", len(files)))

	for _, path := range files {
		if _, err := a.ProcessFile(ctx, path); err != nil {
			a.logger.Warn("failed to process file", "path", path, "error", err)
		}
	}
	a.emitUpdate()
	return a.CurrentUpdate(), nil
}

func uniqueScanRoots(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		clean := filepath.Clean(p)
		if seen[clean] {
			continue
		}
		seen[clean] = true
		out = append(out, clean)
	}
	sort.Strings(out)
	return out
}

// ScanDirectories walks paths and returns source files with a configured
// extension, skipping excluded directory and file base names and the output
// directory. A path naming a file is returned as-is when it passes the filters.
func (a *App) ScanDirectories(paths []string, excludeDirs, excludeFiles []string) ([]string, error) {
	dirGlobs, err := compileGlobs(excludeDirs, "exclude dir")
	if err != nil {
		return nil, err
	}
	fileGlobs, err := compileGlobs(excludeFiles, "exclude file")
	if err != nil {
		return nil, err
	}

	cfg := a.config()
	outDir, _ := filepath.Abs(cfg.Output.Dir)

	var files []string
	for _, root := range paths {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			base := filepath.Base(path)
			if d.IsDir() {
				if path == root {
					return nil
				}
				if abs, err := filepath.Abs(path); err == nil && outDir != "" && util.HasPathPrefix(filepath.ToSlash(abs), filepath.ToSlash(outDir)) {
					return filepath.SkipDir
				}
				if matchAny(dirGlobs, base) {
					return filepath.SkipDir
				}
				return nil
			}

			if !cfg.Inputs.HasExtension(path) || matchAny(fileGlobs, base) {
				return nil
			}
			files = append(files, path)
			return nil
		})
		if err != nil {
			return nil, domainerrors.AddContext(
				domainerrors.Wrap(err, domainerrors.CodeNotFound, "scan input path"),
				domainerrors.CtxPath, root)
		}
	}

	sort.Strings(files)
	return files, nil
}

func compileGlobs(patterns []string, label string) ([]glob.Glob, error) {
	out := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s pattern %q: %w", label, p, err)
		}
		out = append(out, g)
	}
	return out, nil
}

func matchAny(globs []glob.Glob, name string) bool {
	for _, g := range globs {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// ProcessFile compiles one source, writes its outputs when it is valid and
// queues a history run. Diagnostics are not an error; read and write
// failures are.
func (a *App) ProcessFile(ctx context.Context, path string) (FileResult, error) {
	ctx, span := observability.Tracer.Start(ctx, "app.ProcessFile",
		trace.WithAttributes(attribute.String("path", path)))
	defer span.End()

	content, err := os.ReadFile(path)
	if err != nil {
		code := domainerrors.CodeInternal
		if os.IsNotExist(err) {
			code = domainerrors.CodeNotFound
		}
		return FileResult{}, domainerrors.AddContext(domainerrors.Wrap(err, code, "read source"), domainerrors.CtxPath, path)
	}

	start := time.Now()
	source := string(content)
	result := a.engine.Compile(ctx, path, source)
	fr := FileResult{Path: path, Result: result, Duration: time.Since(start)}

	if result.Valid {
		outputs, err := a.writeOutputs(path, result.Diagram)
		fr.Outputs = outputs
		if err != nil {
			a.storeResult(fr)
			return fr, err
		}
	} else {
		a.logger.Warn("source has diagnostics; outputs left unchanged",
			"path", path, "count", len(result.Diagnostics))
		fr.Outputs = a.previousOutputs(path)
	}

	fr.RunID = a.recordRun(path, source, fr)
	a.storeResult(fr)
	return fr, nil
}

// RemoveFile forgets a deleted source and removes its rendered outputs.
func (a *App) RemoveFile(path string) {
	a.resultsMu.Lock()
	_, known := a.results[path]
	delete(a.results, path)
	a.resultsMu.Unlock()
	if !known {
		return
	}
	for _, out := range a.outputPaths(path) {
		if err := os.Remove(out); err != nil && !os.IsNotExist(err) {
			a.logger.Warn("failed to remove output", "path", out, "error", err)
		}
	}
	a.logger.Info("source removed", "path", path)
}

func (a *App) storeResult(fr FileResult) {
	a.resultsMu.Lock()
	defer a.resultsMu.Unlock()
	a.results[fr.Path] = fr
}

func (a *App) previousOutputs(path string) []string {
	a.resultsMu.RLock()
	defer a.resultsMu.RUnlock()
	if prev, ok := a.results[path]; ok {
		return prev.Outputs
	}
	return nil
}

// Result returns the last compilation of path.
func (a *App) Result(path string) (FileResult, bool) {
	a.resultsMu.RLock()
	defer a.resultsMu.RUnlock()
	fr, ok := a.results[path]
	return fr, ok
}
