package parser

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// DeduplicateImports removes duplicate imports based on package name, alias, and import type
func DeduplicateImports(imports []PackageImport) []PackageImport {
	seen := make(map[string]bool)
	var result []PackageImport

	for _, imp := range imports {
		key := fmt.Sprintf("%s|%s|%s", imp.PackageName, imp.Alias, imp.ImportType)
		if !seen[key] {
			seen[key] = true
			result = append(result, imp)
		}
	}

	return result
}

// ExtractStringValue removes quotes from string literals in AST nodes
func ExtractStringValue(node *sitter.Node, source []byte) string {
	text := Text(node, source)
	if len(text) >= 2 && (text[0] == '"' || text[0] == '\'' || text[0] == '`') {
		text = text[1 : len(text)-1]
	}
	return text
}

// Text returns the source text covered by node.
func Text(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	return string(source[node.StartByte():node.EndByte()])
}

// Inspect traverses an AST depth-first. Children of a node are skipped when
// visitor returns false for it.
func Inspect(node *sitter.Node, visitor func(*sitter.Node) bool) {
	if node == nil || !visitor(node) {
		return
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		Inspect(node.Child(i), visitor)
	}
}

// NamedChildren returns the named children of node, leaving out comments.
func NamedChildren(node *sitter.Node) []*sitter.Node {
	if node == nil {
		return nil
	}

	children := make([]*sitter.Node, 0, node.NamedChildCount())
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child == nil || child.Type() == "comment" {
			continue
		}
		children = append(children, child)
	}

	return children
}

// Unwrap strips any parentheses around an expression.
func Unwrap(node *sitter.Node) *sitter.Node {
	for node != nil && node.Type() == "parenthesized_expression" {
		inner := NamedChildren(node)
		if len(inner) != 1 {
			return node
		}
		node = inner[0]
	}
	return node
}

// IsFunctionExpression reports whether node is a `function` expression.
// Older grammar releases name the node "function".
func IsFunctionExpression(node *sitter.Node) bool {
	if node == nil {
		return false
	}
	t := node.Type()
	return t == "function_expression" || t == "function"
}

// IsFunctionLike reports whether node introduces a function body that does
// not run when the enclosing code runs.
func IsFunctionLike(node *sitter.Node) bool {
	if node == nil {
		return false
	}

	switch node.Type() {
	case "function_expression", "function", "function_declaration",
		"generator_function", "generator_function_declaration",
		"arrow_function", "method_definition":
		return true
	}
	return false
}

// IsClassLike reports whether node is a class declaration or expression.
func IsClassLike(node *sitter.Node) bool {
	if node == nil {
		return false
	}
	t := node.Type()
	return t == "class_declaration" || t == "class"
}

// FunctionBody returns the statement block of a function or arrow function.
// Arrow functions with an expression body have no block and return nil.
func FunctionBody(fn *sitter.Node) *sitter.Node {
	if fn == nil {
		return nil
	}
	body := fn.ChildByFieldName("body")
	if body == nil || body.Type() != "statement_block" {
		return nil
	}
	return body
}

// Parameters returns the formal parameters of a function-like node.
func Parameters(fn *sitter.Node) []*sitter.Node {
	if fn == nil {
		return nil
	}
	if single := fn.ChildByFieldName("parameter"); single != nil {
		return []*sitter.Node{single}
	}
	return NamedChildren(fn.ChildByFieldName("parameters"))
}

// Arguments returns the arguments of a call or new expression.
func Arguments(call *sitter.Node) []*sitter.Node {
	if call == nil {
		return nil
	}
	return NamedChildren(call.ChildByFieldName("arguments"))
}

// FirstError returns the first node of the tree that failed to parse.
func FirstError(node *sitter.Node) *sitter.Node {
	var found *sitter.Node
	Inspect(node, func(n *sitter.Node) bool {
		if found != nil {
			return false
		}
		if n.Type() == "ERROR" || n.IsMissing() {
			found = n
			return false
		}
		return n.HasError()
	})
	return found
}

// ParseGeneric provides common parsing functionality for all language parsers
func (bp *BaseParser) ParseGeneric(ctx context.Context, source []byte) (*ParseResult, error) {
	tree, err := bp.parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse source: %w", err)
	}
	if tree == nil {
		return nil, fmt.Errorf("failed to parse source")
	}

	return &ParseResult{
		Tree:     tree,
		Source:   source,
		Language: bp.langName,
	}, nil
}

// Root returns the root node of the parsed tree.
func (r *ParseResult) Root() *sitter.Node {
	return r.Tree.RootNode()
}

// HasSyntaxError reports whether the parser had to recover from malformed input.
func (r *ParseResult) HasSyntaxError() bool {
	return r.Root().HasError()
}

// Position returns the 1-based line and column of a byte offset.
func (r *ParseResult) Position(offset uint32) (int, int) {
	prefix := string(r.Source[:offset])
	line := strings.Count(prefix, "\n") + 1
	col := int(offset) - strings.LastIndex(prefix, "\n")
	return line, col
}

// Close releases the tree.
func (r *ParseResult) Close() {
	if r.Tree != nil {
		r.Tree.Close()
	}
}

// GetLanguage returns the language name for this parser
func (bp *BaseParser) GetLanguage() string {
	return bp.langName
}

// Close releases the underlying tree-sitter parser.
func (bp *BaseParser) Close() {
	if bp.parser != nil {
		bp.parser.Close()
	}
}
