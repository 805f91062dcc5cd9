package binding

import "github.com/hannajonsd/build-optimizer/parser"

// FrameworkModule is the module specifier framework decorators are imported from.
const FrameworkModule = "@disco3/core"

// KindLocal marks a name declared by the module itself rather than imported.
const KindLocal parser.ImportKind = "local"

// Origin describes where a module-scope name comes from.
type Origin struct {
	Module   string // module specifier, empty for local declarations
	Imported string // exported name, empty for namespace, default and require bindings
	Kind     parser.ImportKind
}

// IsNamespace reports whether the origin binds a whole module object.
func (o Origin) IsNamespace() bool {
	return o.Kind == parser.ImportNamespace || o.Kind == parser.ImportRequire
}
