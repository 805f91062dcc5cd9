// Package analyzer optimizes every compiled module below a directory.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/hannajonsd/build-optimizer/manifest"
	"github.com/hannajonsd/build-optimizer/optimizer"
	"github.com/hannajonsd/build-optimizer/transform"
)

// ErrFilesFailed is returned by a strict run when any file failed.
var ErrFilesFailed = errors.New("some files failed to optimize")

// Optimizer rewrites one file.
type Optimizer interface {
	Optimize(ctx context.Context, opts optimizer.Options) (*transform.Result, error)
}

// OptimizerFunc adapts a function to the Optimizer interface.
type OptimizerFunc func(ctx context.Context, opts optimizer.Options) (*transform.Result, error)

// Optimize calls f.
func (f OptimizerFunc) Optimize(ctx context.Context, opts optimizer.Options) (*transform.Result, error) {
	return f(ctx, opts)
}

// Runner optimizes directory trees.
type Runner struct {
	fs        afero.Fs
	optimizer Optimizer
	lookup    *manifest.Lookup
}

// New creates a runner on fs. A nil opt uses optimizer.BuildOptimizer.
func New(fs afero.Fs, opt Optimizer) *Runner {
	if opt == nil {
		opt = OptimizerFunc(optimizer.BuildOptimizer)
	}
	return &Runner{
		fs:        fs,
		optimizer: opt,
		lookup:    manifest.NewLookup(fs),
	}
}

// Run optimizes every compiled module below opts.Root. Per-file failures are
// recorded in the report; in strict mode they also fail the run.
func (r *Runner) Run(ctx context.Context, opts Options) (*Report, error) {
	root := filepath.Clean(opts.Root)
	outDir := ""
	if opts.OutDir != "" {
		outDir = filepath.Clean(opts.OutDir)
	}

	files, err := findSourceFiles(r.fs, root, outDir)
	if err != nil {
		return nil, fmt.Errorf("failed to find source files: %w", err)
	}
	slog.Info("optimizing directory", "root", root, "files", len(files), "out_dir", outDir)

	parallel := opts.Parallel
	if parallel < 1 {
		parallel = 1
	}

	var (
		mu      sync.Mutex
		results = make([]FileResult, 0, len(files))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)

	for _, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			result := r.optimizeFile(gctx, root, outDir, path, opts)
			if result.Status == StatusFailed {
				slog.Error("failed to optimize file", "file", path, "error", result.Error)
			}

			mu.Lock()
			results = append(results, result)
			mu.Unlock()

			if opts.Strict && result.Status == StatusFailed {
				return fmt.Errorf("%w: %s: %s", ErrFilesFailed, path, result.Error)
			}
			return nil
		})
	}

	waitErr := g.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].Path < results[j].Path })
	report := &Report{Root: root, OutDir: outDir, Files: results}
	report.tally()

	if waitErr != nil {
		return report, waitErr
	}
	return report, nil
}

func (r *Runner) optimizeFile(ctx context.Context, root, outDir, path string, opts Options) FileResult {
	result := FileResult{Path: path, Output: path}
	if outDir != "" {
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return failed(result, err)
		}
		result.Output = filepath.Join(outDir, rel)
	}

	data, err := afero.ReadFile(r.fs, path)
	if err != nil {
		return failed(result, err)
	}
	content := string(data)
	result.BytesIn = len(data)
	result.BytesOut = len(data)

	pkg, err := r.lookup.Nearest(path)
	if err != nil {
		slog.Debug("failed to read package manifest", "file", path, "error", err)
	}
	result.Package = packageFromPath(path)
	if pkg != nil && pkg.Name != "" {
		result.Package = pkg.Name
	}

	if !opts.All && !pkg.HasTypings() {
		result.Status = StatusSkipped
		return r.copyThrough(result, data)
	}

	res, err := r.optimizer.Optimize(ctx, optimizer.Options{
		Content:        &content,
		InputFilePath:  path,
		OutputFilePath: filepath.Base(result.Output),
		EmitSourceMap:  opts.EmitSourceMap,
		Strict:         opts.Strict,
		Fs:             r.fs,
	})
	if err != nil {
		return failed(result, err)
	}

	if res.EmitSkipped {
		result.Status = StatusUnchanged
		return r.copyThrough(result, data)
	}

	if err := r.write(result.Output, []byte(res.Content)); err != nil {
		return failed(result, err)
	}
	if res.SourceMap != nil {
		mapData, err := res.SourceMap.ToJSON()
		if err != nil {
			return failed(result, err)
		}
		if err := r.write(result.Output+".map", mapData); err != nil {
			return failed(result, err)
		}
	}

	result.Status = StatusOptimized
	result.BytesOut = len(res.Content)
	return result
}

// copyThrough mirrors an untouched file into the output directory.
func (r *Runner) copyThrough(result FileResult, data []byte) FileResult {
	if result.Output == result.Path {
		return result
	}
	if err := r.write(result.Output, data); err != nil {
		return failed(result, err)
	}
	return result
}

func (r *Runner) write(path string, data []byte) error {
	if err := r.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := afero.WriteFile(r.fs, path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func failed(result FileResult, err error) FileResult {
	result.Status = StatusFailed
	result.BytesOut = result.BytesIn
	result.Error = err.Error()
	return result
}
