package transform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hannajonsd/build-optimizer/binding"
	"github.com/hannajonsd/build-optimizer/parser"
	"github.com/hannajonsd/build-optimizer/rewrite"
	"github.com/hannajonsd/build-optimizer/sourcemap"
)

// ErrSyntax is returned in strict mode when the input does not parse.
var ErrSyntax = errors.New("syntax error")

// Options configures one run of the engine.
type Options struct {
	Content          string
	Passes           []Pass
	RequiresTypeInfo bool
	Strict           bool
	EmitSourceMap    bool
	// InputPath names the source in the map and the error messages.
	InputPath string
	// OutputPath becomes the map's file and the sourceMappingURL target.
	OutputPath     string
	Classification Classification
}

// Result is the outcome of a run. When EmitSkipped is set the input should
// be used unchanged and Content is empty.
type Result struct {
	Content     string
	SourceMap   *sourcemap.SourceMap
	EmitSkipped bool
}

// Transform parses opts.Content, runs every pass whose test accepts the
// current text, and returns the rewritten module.
func Transform(ctx context.Context, opts Options) (*Result, error) {
	p, err := parser.NewParser()
	if err != nil {
		return nil, err
	}
	defer p.Close()

	unit, err := p.Parse(ctx, []byte(opts.Content))
	if err != nil {
		return nil, err
	}
	defer func() { unit.Close() }()

	if unit.HasSyntaxError() {
		line, col := 0, 0
		if node := parser.FirstError(unit.Root()); node != nil {
			line, col = unit.Position(node.StartByte())
		}
		if opts.Strict {
			return nil, fmt.Errorf("%w in %s at %d:%d", ErrSyntax, displayName(opts.InputPath), line, col)
		}
		slog.Debug("skipping unparseable file", "file", opts.InputPath, "language", p.GetLanguage(), "line", line, "column", col)
		return &Result{EmitSkipped: true}, nil
	}

	tctx := &Context{Classification: opts.Classification, Strict: opts.Strict}
	if opts.RequiresTypeInfo {
		tctx.Bindings, err = binding.Build(p, unit.Root(), unit.Source, opts.Classification.IsFrameworkCoreFile)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve imports in %s: %w", displayName(opts.InputPath), err)
		}
	}

	doc := rewrite.NewDocument(opts.Content)
	for _, pass := range opts.Passes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !pass.matches(doc.String()) {
			continue
		}

		edits := &rewrite.Edits{}
		pass.New(tctx).Transform(unit, edits)
		if edits.Len() == 0 {
			slog.Debug("pass made no changes", "pass", pass.Name, "file", opts.InputPath)
			continue
		}

		next := doc.Apply(edits)
		reparsed, err := p.Parse(ctx, []byte(next.String()))
		if err != nil {
			return nil, err
		}
		if reparsed.HasSyntaxError() {
			reparsed.Close()
			slog.Warn("reverting pass that produced invalid code", "pass", pass.Name, "file", opts.InputPath)
			continue
		}

		slog.Debug("pass applied", "pass", pass.Name, "file", opts.InputPath, "edits", edits.Len())
		unit.Close()
		unit = reparsed
		doc = next
	}

	if !doc.Changed() {
		return &Result{EmitSkipped: true}, nil
	}

	result := &Result{Content: doc.String()}
	if opts.EmitSourceMap {
		result.SourceMap = doc.SourceMap(opts.OutputPath, opts.InputPath)
		if opts.InputPath != "" && opts.OutputPath != "" {
			result.Content += "\n" + sourcemap.Comment(opts.OutputPath+".map")
		}
	}

	return result, nil
}

func displayName(path string) string {
	if path == "" {
		return "<input>"
	}
	return path
}
