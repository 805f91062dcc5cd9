// Package transform runs an ordered list of rewrite passes over one
// JavaScript module and re-emits the text with a source map.
package transform

import (
	"github.com/hannajonsd/build-optimizer/binding"
	"github.com/hannajonsd/build-optimizer/parser"
	"github.com/hannajonsd/build-optimizer/rewrite"
)

// Classification describes where a file comes from.
type Classification struct {
	IsFrameworkCoreFile bool
	IsSideEffectFree    bool
}

// Context is shared by the passes of one invocation. Bindings is nil unless
// type information was requested.
type Context struct {
	Bindings       *binding.Table
	Classification Classification
	Strict         bool
}

// Transformer records the edits of one pass against the current tree.
// Offsets are relative to unit.Source.
type Transformer interface {
	Transform(unit *parser.ParseResult, edits *rewrite.Edits)
}

// TransformerFunc adapts a plain function to Transformer.
type TransformerFunc func(unit *parser.ParseResult, edits *rewrite.Edits)

// Transform calls f.
func (f TransformerFunc) Transform(unit *parser.ParseResult, edits *rewrite.Edits) {
	f(unit, edits)
}

// Pass pairs a cheap text pretest with the factory of its transformer.
// A nil Test always runs the pass.
type Pass struct {
	Name string
	Test func(content string) bool
	New  func(ctx *Context) Transformer
}

func (p Pass) matches(content string) bool {
	return p.Test == nil || p.Test(content)
}
