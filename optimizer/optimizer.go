// Package optimizer decides which rewrite passes a compiled file gets and
// runs them.
package optimizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/afero"

	"github.com/hannajonsd/build-optimizer/transform"
	"github.com/hannajonsd/build-optimizer/transforms"
)

// ErrNoInput is returned when neither content nor an input path is given.
var ErrNoInput = errors.New("either an input file path or content must be specified")

// Options describes one file to optimize.
type Options struct {
	// Content is read from InputFilePath when nil.
	Content       *string
	InputFilePath string
	// OriginalFilePath is the path used for classification. It defaults to
	// InputFilePath.
	OriginalFilePath string
	OutputFilePath   string
	EmitSourceMap    bool
	Strict           bool

	// Classification overrides. Nil means derive from the path.
	IsSideEffectFree    *bool
	IsFrameworkCoreFile *bool

	// Fs is used to read InputFilePath. It defaults to the OS filesystem.
	Fs afero.Fs
}

// BuildOptimizer optimizes one file. A result with EmitSkipped set means the
// file should be used as is.
func BuildOptimizer(ctx context.Context, opts Options) (*transform.Result, error) {
	originalPath := opts.OriginalFilePath
	if originalPath == "" {
		originalPath = opts.InputFilePath
	}

	if opts.Content == nil && opts.InputFilePath == "" {
		return nil, ErrNoInput
	}

	var content string
	if opts.Content != nil {
		content = *opts.Content
	} else {
		fs := opts.Fs
		if fs == nil {
			fs = afero.NewOsFs()
		}
		data, err := afero.ReadFile(fs, opts.InputFilePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", opts.InputFilePath, err)
		}
		content = string(data)
	}

	if content == "" {
		return &transform.Result{EmitSkipped: true}, nil
	}

	classification := Classify(originalPath, opts.IsSideEffectFree, opts.IsFrameworkCoreFile)
	passes, requiresTypeInfo := selectPasses(content, classification)

	slog.Debug("optimizing file",
		"file", originalPath,
		"core", classification.IsFrameworkCoreFile,
		"side_effect_free", classification.IsSideEffectFree,
		"passes", passNames(passes))

	return transform.Transform(ctx, transform.Options{
		Content:          content,
		Passes:           passes,
		RequiresTypeInfo: requiresTypeInfo,
		Strict:           opts.Strict,
		EmitSourceMap:    opts.EmitSourceMap,
		InputPath:        opts.InputFilePath,
		OutputPath:       opts.OutputFilePath,
		Classification:   classification,
	})
}

// selectPasses returns the passes for content in execution order and
// whether any of them needs import resolution.
func selectPasses(content string, c transform.Classification) ([]transform.Pass, bool) {
	var passes []transform.Pass
	requiresTypeInfo := false

	if transforms.DetectScrubFile(content) {
		passes = append(passes, transforms.ScrubFile())
		requiresTypeInfo = true
	}

	passes = append(passes, transforms.WrapEnums())

	switch {
	case c.IsSideEffectFree:
		// Marks every load-time call as pure, so only for known packages.
		// Bindings identify tslib helpers imported under other names.
		passes = append(passes, transforms.PrefixFunctions())
		requiresTypeInfo = true
	case transforms.DetectPrefixClasses(content):
		passes = append(passes, transforms.PrefixClasses())
	}

	return passes, requiresTypeInfo
}

func passNames(passes []transform.Pass) []string {
	names := make([]string, len(passes))
	for i, p := range passes {
		names[i] = p.Name
	}
	return names
}
