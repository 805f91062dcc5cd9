package parser

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"
)

// Parser defines the interface for the source parsers used by the rewrite passes
type Parser interface {
	GetLanguage() string
	Close()
	Parse(ctx context.Context, source []byte) (*ParseResult, error)
	ExtractImports(node *sitter.Node, source []byte) ([]PackageImport, error)
}

// BaseParser provides common functionality for all language parsers
type BaseParser struct {
	parser   *sitter.Parser
	langName string
}

// ParseResult contains the parsed AST and metadata for a source text
type ParseResult struct {
	Tree     *sitter.Tree
	Source   []byte
	Language string
}

// ImportKind tells how a module binding was introduced
type ImportKind string

const (
	ImportDefault   ImportKind = "import"       // import foo from "m"
	ImportNamespace ImportKind = "namespace"    // import * as foo from "m"
	ImportNamed     ImportKind = "destructured" // import { a as b } from "m", const { a } = require("m")
	ImportRequire   ImportKind = "require"      // const foo = require("m")
)

// ImportSpecifier maps an exported name to the local name it is bound to
type ImportSpecifier struct {
	Imported string
	Local    string
}

// PackageImport represents an import statement with its type and imported symbols
type PackageImport struct {
	PackageName string // "@disco3/core", "tslib", "./di"
	Alias       string // local name for default, namespace and require imports
	ImportType  ImportKind
	Symbols     []ImportSpecifier // for destructured imports
}
