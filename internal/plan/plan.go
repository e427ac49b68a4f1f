// Package plan wires discovery, parsing, stage construction, crossover
// detection, closure, sort, grouping, optional optimization, and emission
// into the single entry point the CLI calls.
package plan

import (
	"context"
	"fmt"
	"sort"

	"github.com/wharflab/prebake/internal/closure"
	"github.com/wharflab/prebake/internal/config"
	"github.com/wharflab/prebake/internal/crossover"
	"github.com/wharflab/prebake/internal/discovery"
	"github.com/wharflab/prebake/internal/dockerfile"
	"github.com/wharflab/prebake/internal/emit"
	"github.com/wharflab/prebake/internal/optimize"
	"github.com/wharflab/prebake/internal/progress"
	"github.com/wharflab/prebake/internal/stage"
	"github.com/wharflab/prebake/internal/topo"
	"github.com/wharflab/prebake/internal/wave"
)

// Result summarizes a completed run, for tests and machine-readable callers.
type Result struct {
	FilesScanned int
	Stages       int
	Waves        int
	Crossover    []string
	Unresolved   []string
	Optimize     optimize.Result
	OutputPath   string
}

// Run discovers build files under root, resolves their dependency graph per
// cfg, and writes the resulting plan file. rep may be nil, in which case
// progress narration is skipped.
func Run(ctx context.Context, root string, cfg *config.Config, rep *progress.Reporter) (Result, error) {
	if rep == nil {
		rep = progress.New(discard{}, false)
	}

	files, err := discovery.Discover([]string{root}, discovery.Options{ExcludePatterns: cfg.Exclude})
	if err != nil {
		return Result{}, fmt.Errorf("discovering build files: %w", err)
	}
	rep.Discovered(len(files))

	stages := stage.NewSet()
	var refs []crossover.Reference

	for _, f := range files {
		pr, err := dockerfile.ParseFile(ctx, f.Path)
		if err != nil {
			return Result{}, fmt.Errorf("parsing %s: %w", f.Path, err)
		}

		fileStages, fileRefs := dockerfile.ExtractStages(f.Path, pr.Stages)
		for _, s := range fileStages {
			if err := stages.Add(s); err != nil {
				return Result{}, err
			}
		}
		refs = append(refs, fileRefs...)
	}

	cross := crossover.Detect(stages, refs)
	rep.Crossover(sortedKeys(cross))

	unresolved := closure.Run(stages)
	rep.Unresolved(sortedKeys(unresolved))

	ordered, err := topo.Sort(stages, unresolved)
	if err != nil {
		return Result{}, err
	}

	baseline := wave.Group(ordered, unresolved)
	rep.WaveWarnings(baseline.Warnings)

	opt := optimize.Run(stages, baseline, cfg.OptimizeBudget, cfg.Cores)
	rep.Optimized(opt.BaselineCount, opt.BestCount, opt.WorstCount, opt.Attempts)

	best := opt.Best
	rep.Waves(len(best.Waves))

	targets, groups := emit.Build(best.Waves, cross, cfg.Tag, emit.OutputDirective(cfg.OutputMode))

	writer := emitWriter(cfg.FileFormat)
	if err := writer.Write(cfg.OutputFile, targets, groups); err != nil {
		return Result{}, err
	}
	rep.Done(cfg.OutputFile)

	return Result{
		FilesScanned: len(files),
		Stages:       stages.Len(),
		Waves:        len(best.Waves),
		Crossover:    sortedKeys(cross),
		Unresolved:   sortedKeys(unresolved),
		Optimize:     opt,
		OutputPath:   cfg.OutputFile,
	}, nil
}

// emitWriter selects the Writer implementation for a --file-format value.
// Anything other than "json" falls back to HCL, matching config.Default's
// "hcl" default.
func emitWriter(format string) emit.Writer {
	if format == "json" {
		return emit.JSONWriter{}
	}
	return emit.HCLWriter{}
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// discard is a no-op io.Writer used when callers don't supply a Reporter.
type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
