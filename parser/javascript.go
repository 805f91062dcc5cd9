package parser

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
)

type JavaScriptParser struct {
	BaseParser
}

func NewJavaScriptParser() (*JavaScriptParser, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(javascript.GetLanguage())

	return &JavaScriptParser{
		BaseParser: BaseParser{
			parser:   parser,
			langName: "javascript",
		},
	}, nil
}

func (p *JavaScriptParser) Parse(ctx context.Context, source []byte) (*ParseResult, error) {
	return p.ParseGeneric(ctx, source)
}

// ExtractImports collects the module-scope bindings introduced by import
// declarations and CommonJS require calls.
func (p *JavaScriptParser) ExtractImports(node *sitter.Node, source []byte) ([]PackageImport, error) {
	if node == nil {
		return nil, fmt.Errorf("nil root node")
	}

	var imports []PackageImport

	for _, stmt := range NamedChildren(node) {
		if stmt.Type() == "export_statement" {
			if decl := stmt.ChildByFieldName("declaration"); decl != nil {
				stmt = decl
			}
		}

		switch stmt.Type() {
		case "import_statement":
			imports = append(imports, p.processImportStatement(stmt, source)...)
		case "variable_declaration", "lexical_declaration":
			for _, declarator := range NamedChildren(stmt) {
				if declarator.Type() != "variable_declarator" {
					continue
				}
				if imp := p.processVariableDeclarator(declarator, source); imp != nil {
					imports = append(imports, *imp)
				}
			}
		}
	}

	return DeduplicateImports(imports), nil
}

func (p *JavaScriptParser) processImportStatement(node *sitter.Node, source []byte) []PackageImport {
	var packageName string
	var clause *sitter.Node

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)

		switch child.Type() {
		case "import_clause":
			clause = child
		case "string":
			packageName = ExtractStringValue(child, source)
		}
	}

	if packageName == "" || clause == nil {
		return nil
	}

	var imports []PackageImport
	for i := 0; i < int(clause.ChildCount()); i++ {
		child := clause.Child(i)

		switch child.Type() {
		case "identifier":
			// Default import: import foo from "module"
			imports = append(imports, PackageImport{
				PackageName: packageName,
				Alias:       Text(child, source),
				ImportType:  ImportDefault,
			})
		case "namespace_import":
			// Namespace import: import * as foo from "module"
			if alias := p.processNamespaceImport(child, source); alias != "" {
				imports = append(imports, PackageImport{
					PackageName: packageName,
					Alias:       alias,
					ImportType:  ImportNamespace,
				})
			}
		case "named_imports":
			// Named imports: import { a, b as c } from "module"
			if symbols := p.processNamedImports(child, source); len(symbols) > 0 {
				imports = append(imports, PackageImport{
					PackageName: packageName,
					Alias:       symbols[0].Local,
					ImportType:  ImportNamed,
					Symbols:     symbols,
				})
			}
		}
	}

	return imports
}

func (p *JavaScriptParser) processNamespaceImport(node *sitter.Node, source []byte) string {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == "identifier" {
			return Text(child, source)
		}
	}
	return ""
}

func (p *JavaScriptParser) processNamedImports(node *sitter.Node, source []byte) []ImportSpecifier {
	var symbols []ImportSpecifier

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() != "import_specifier" {
			continue
		}
		if spec, ok := p.processImportSpecifier(child, source); ok {
			symbols = append(symbols, spec)
		}
	}

	return symbols
}

func (p *JavaScriptParser) processImportSpecifier(node *sitter.Node, source []byte) (ImportSpecifier, bool) {
	name := node.ChildByFieldName("name")
	if name == nil {
		return ImportSpecifier{}, false
	}

	spec := ImportSpecifier{Imported: ExtractStringValue(name, source)}
	spec.Local = spec.Imported
	if alias := node.ChildByFieldName("alias"); alias != nil {
		spec.Local = Text(alias, source)
	}

	return spec, spec.Local != ""
}

func (p *JavaScriptParser) processVariableDeclarator(node *sitter.Node, source []byte) *PackageImport {
	value := Unwrap(node.ChildByFieldName("value"))
	if value == nil || value.Type() != "call_expression" {
		return nil
	}

	packageName, isRequire := p.processCallExpression(value, source)
	if !isRequire || packageName == "" {
		return nil
	}

	name := node.ChildByFieldName("name")
	if name == nil {
		return nil
	}

	switch name.Type() {
	case "identifier":
		return &PackageImport{
			PackageName: packageName,
			Alias:       Text(name, source),
			ImportType:  ImportRequire,
		}
	case "object_pattern":
		symbols := p.processObjectPattern(name, source)
		if len(symbols) == 0 {
			return nil
		}
		return &PackageImport{
			PackageName: packageName,
			Alias:       symbols[0].Local,
			ImportType:  ImportNamed,
			Symbols:     symbols,
		}
	}

	return nil
}

func (p *JavaScriptParser) processObjectPattern(node *sitter.Node, source []byte) []ImportSpecifier {
	var symbols []ImportSpecifier

	for _, child := range NamedChildren(node) {
		switch child.Type() {
		case "shorthand_property_identifier", "shorthand_property_identifier_pattern":
			symbol := Text(child, source)
			symbols = append(symbols, ImportSpecifier{Imported: symbol, Local: symbol})
		case "pair", "pair_pattern":
			key := child.ChildByFieldName("key")
			value := child.ChildByFieldName("value")
			if key == nil || value == nil || value.Type() != "identifier" {
				continue
			}
			symbols = append(symbols, ImportSpecifier{
				Imported: ExtractStringValue(key, source),
				Local:    Text(value, source),
			})
		}
	}

	return symbols
}

func (p *JavaScriptParser) processCallExpression(node *sitter.Node, source []byte) (string, bool) {
	callee := node.ChildByFieldName("function")
	if callee == nil || callee.Type() != "identifier" || Text(callee, source) != "require" {
		return "", false
	}

	args := node.ChildByFieldName("arguments")
	if args == nil {
		return "", true
	}
	for _, arg := range NamedChildren(args) {
		if arg.Type() == "string" {
			return ExtractStringValue(arg, source), true
		}
		break
	}

	return "", true
}
