package transform_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hannajonsd/build-optimizer/parser"
	"github.com/hannajonsd/build-optimizer/rewrite"
	"github.com/hannajonsd/build-optimizer/transform"
)

func insertPass(name, text string, test func(string) bool) transform.Pass {
	return transform.Pass{
		Name: name,
		Test: test,
		New: func(*transform.Context) transform.Transformer {
			return transform.TransformerFunc(func(_ *parser.ParseResult, edits *rewrite.Edits) {
				edits.Insert(0, text)
			})
		},
	}
}

func TestTransformWithoutChangesSkipsEmit(t *testing.T) {
	result, err := transform.Transform(context.Background(), transform.Options{
		Content: "foo();\n",
		Passes:  []transform.Pass{insertPass("never", "x", func(string) bool { return false })},
	})
	require.NoError(t, err)
	assert.True(t, result.EmitSkipped)
	assert.Empty(t, result.Content)
	assert.Nil(t, result.SourceMap)
}

func TestTransformSyntaxError(t *testing.T) {
	opts := transform.Options{
		Content:   "))))invalid syntax",
		Passes:    []transform.Pass{insertPass("any", "/* x */", nil)},
		InputPath: "broken.js",
	}

	result, err := transform.Transform(context.Background(), opts)
	require.NoError(t, err)
	assert.True(t, result.EmitSkipped)

	opts.Strict = true
	_, err = transform.Transform(context.Background(), opts)
	require.ErrorIs(t, err, transform.ErrSyntax)
	assert.Contains(t, err.Error(), "broken.js")
}

func TestTransformRunsPassesInOrder(t *testing.T) {
	var seen []string
	recordingTest := func(content string) bool {
		seen = append(seen, content)
		return true
	}

	result, err := transform.Transform(context.Background(), transform.Options{
		Content: "foo();\n",
		Passes: []transform.Pass{
			insertPass("first", "/*a*/ ", recordingTest),
			insertPass("second", "/*b*/ ", recordingTest),
		},
	})
	require.NoError(t, err)
	assert.False(t, result.EmitSkipped)
	assert.Equal(t, "/*b*/ /*a*/ foo();\n", result.Content)
	assert.Equal(t, []string{"foo();\n", "/*a*/ foo();\n"}, seen)
}

func TestTransformRevertsInvalidEdits(t *testing.T) {
	result, err := transform.Transform(context.Background(), transform.Options{
		Content: "foo();\n",
		Passes: []transform.Pass{
			insertPass("broken", "))", nil),
		},
	})
	require.NoError(t, err)
	assert.True(t, result.EmitSkipped)

	result, err = transform.Transform(context.Background(), transform.Options{
		Content: "foo();\n",
		Passes: []transform.Pass{
			insertPass("broken", "))", nil),
			insertPass("valid", "/*ok*/ ", nil),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "/*ok*/ foo();\n", result.Content)
}

func TestTransformProvidesBindings(t *testing.T) {
	var ctxs []*transform.Context
	capture := transform.Pass{
		Name: "capture",
		New: func(ctx *transform.Context) transform.Transformer {
			ctxs = append(ctxs, ctx)
			return transform.TransformerFunc(func(*parser.ParseResult, *rewrite.Edits) {})
		},
	}
	content := "import { Component } from '@disco3/core';\n"

	_, err := transform.Transform(context.Background(), transform.Options{Content: content, Passes: []transform.Pass{capture}})
	require.NoError(t, err)

	_, err = transform.Transform(context.Background(), transform.Options{
		Content:          content,
		Passes:           []transform.Pass{capture},
		RequiresTypeInfo: true,
		Classification:   transform.Classification{IsSideEffectFree: true},
	})
	require.NoError(t, err)

	require.Len(t, ctxs, 2)
	assert.Nil(t, ctxs[0].Bindings)
	require.NotNil(t, ctxs[1].Bindings)
	origin, ok := ctxs[1].Bindings.Lookup("Component")
	require.True(t, ok)
	assert.Equal(t, "@disco3/core", origin.Module)
	assert.True(t, ctxs[1].Classification.IsSideEffectFree)
}

func TestTransformSourceMap(t *testing.T) {
	content := "foo();\nbar();\n"
	pure := insertPass("pure", "/*@__PURE__*/ ", nil)

	result, err := transform.Transform(context.Background(), transform.Options{
		Content:       content,
		Passes:        []transform.Pass{pure},
		EmitSourceMap: true,
		InputPath:     "in.js",
		OutputPath:    "out.js",
	})
	require.NoError(t, err)
	require.NotNil(t, result.SourceMap)

	assert.True(t, strings.HasSuffix(result.Content, "\n//# sourceMappingURL=out.js.map"))
	assert.Equal(t, "out.js", result.SourceMap.File)
	assert.Equal(t, []string{"in.js"}, result.SourceMap.Sources)
	assert.Equal(t, []string{content}, result.SourceMap.SourcesContent)

	line, col, ok := result.SourceMap.OriginalPosition(0, 14)
	require.True(t, ok)
	assert.Equal(t, 0, line)
	assert.Equal(t, 0, col)

	line, col, ok = result.SourceMap.OriginalPosition(1, 2)
	require.True(t, ok)
	assert.Equal(t, 1, line)
	assert.Equal(t, 2, col)
}

func TestTransformSourceMapWithoutPaths(t *testing.T) {
	result, err := transform.Transform(context.Background(), transform.Options{
		Content:       "foo();\n",
		Passes:        []transform.Pass{insertPass("pure", "/*@__PURE__*/ ", nil)},
		EmitSourceMap: true,
	})
	require.NoError(t, err)
	require.NotNil(t, result.SourceMap)

	assert.NotContains(t, result.Content, "sourceMappingURL")
	assert.Equal(t, "", result.SourceMap.File)
	assert.Equal(t, []string{""}, result.SourceMap.Sources)
}

func TestTransformHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := transform.Transform(ctx, transform.Options{
		Content: "foo();\n",
		Passes:  []transform.Pass{insertPass("pure", "/*@__PURE__*/ ", nil)},
	})
	assert.Error(t, err)
}
