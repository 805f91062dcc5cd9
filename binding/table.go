// Package binding resolves identifiers in a module to the module they were
// imported from.
package binding

import (
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/hannajonsd/build-optimizer/parser"
)

// ImportExtractor is the part of a parser the table is built from.
type ImportExtractor interface {
	ExtractImports(node *sitter.Node, source []byte) ([]parser.PackageImport, error)
}

// Table maps every module-scope name to its origin. It is built once per
// file and only read afterwards.
type Table struct {
	names     map[string]Origin
	declared  map[string]bool
	ambiguous map[string]bool
	coreMode  bool
}

// New creates a table from already extracted imports.
func New(imports []parser.PackageImport, coreMode bool) *Table {
	t := &Table{
		names:     make(map[string]Origin),
		declared:  make(map[string]bool),
		ambiguous: make(map[string]bool),
		coreMode:  coreMode,
	}

	for _, imp := range imports {
		switch imp.ImportType {
		case parser.ImportNamed:
			for _, sym := range imp.Symbols {
				t.bind(sym.Local, Origin{Module: imp.PackageName, Imported: sym.Imported, Kind: imp.ImportType})
			}
		case parser.ImportDefault:
			t.bind(imp.Alias, Origin{Module: imp.PackageName, Imported: "default", Kind: imp.ImportType})
		case parser.ImportNamespace, parser.ImportRequire:
			t.bind(imp.Alias, Origin{Module: imp.PackageName, Kind: imp.ImportType})
		}
	}

	return t
}

// Build extracts the imports and top-level declarations of a parsed module.
func Build(extractor ImportExtractor, root *sitter.Node, source []byte, coreMode bool) (*Table, error) {
	imports, err := extractor.ExtractImports(root, source)
	if err != nil {
		return nil, fmt.Errorf("failed to extract imports: %w", err)
	}

	t := New(imports, coreMode)
	for _, name := range topLevelDeclarations(root, source) {
		if _, imported := t.names[name]; imported {
			t.ambiguous[name] = true
			continue
		}
		t.declared[name] = true
	}

	return t, nil
}

func (t *Table) bind(name string, origin Origin) {
	if name == "" {
		return
	}
	if existing, ok := t.names[name]; ok && existing != origin {
		t.ambiguous[name] = true
		return
	}
	t.names[name] = origin
}

// Lookup returns the origin of a module-scope name, ignoring nested scopes.
func (t *Table) Lookup(name string) (Origin, bool) {
	if t == nil || t.ambiguous[name] {
		return Origin{}, false
	}
	if origin, ok := t.names[name]; ok {
		return origin, true
	}
	if t.declared[name] {
		return Origin{Kind: KindLocal}, true
	}
	return Origin{}, false
}

// Resolve returns the origin of an identifier or of a member access on a
// namespace binding (`core.Injectable`). Names shadowed by an enclosing
// function or block resolve to nothing.
func (t *Table) Resolve(node *sitter.Node, source []byte) (Origin, bool) {
	if t == nil {
		return Origin{}, false
	}

	node = parser.Unwrap(node)
	if node == nil {
		return Origin{}, false
	}

	switch node.Type() {
	case "identifier":
		name := parser.Text(node, source)
		if isShadowed(node, name, source) {
			return Origin{}, false
		}
		return t.Lookup(name)
	case "member_expression":
		object := parser.Unwrap(node.ChildByFieldName("object"))
		property := node.ChildByFieldName("property")
		if object == nil || property == nil || object.Type() != "identifier" {
			return Origin{}, false
		}
		origin, ok := t.Resolve(object, source)
		if !ok || !origin.IsNamespace() {
			return Origin{}, false
		}
		return Origin{Module: origin.Module, Imported: parser.Text(property, source), Kind: parser.ImportNamed}, true
	}

	return Origin{}, false
}

// IsFrameworkOrigin reports whether origin belongs to the framework. In core
// mode relative imports and the module's own declarations count as well.
func (t *Table) IsFrameworkOrigin(origin Origin) bool {
	if origin.Module == FrameworkModule {
		return true
	}
	if t == nil || !t.coreMode {
		return false
	}
	return origin.Kind == KindLocal || strings.HasPrefix(origin.Module, ".")
}

// IsFramework reports whether node resolves to a framework symbol.
func (t *Table) IsFramework(node *sitter.Node, source []byte) bool {
	origin, ok := t.Resolve(node, source)
	return ok && t.IsFrameworkOrigin(origin)
}

// IsForeignImport reports whether node resolves to a symbol imported from a
// module other than the framework.
func (t *Table) IsForeignImport(node *sitter.Node, source []byte) bool {
	origin, ok := t.Resolve(node, source)
	return ok && origin.Kind != KindLocal && !t.IsFrameworkOrigin(origin)
}
