package binding

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/hannajonsd/build-optimizer/parser"
)

// topLevelDeclarations lists the names the module declares itself. Bindings
// initialised from require() are imports and left out.
func topLevelDeclarations(root *sitter.Node, source []byte) []string {
	var names []string

	for _, stmt := range parser.NamedChildren(root) {
		if stmt.Type() == "export_statement" {
			decl := stmt.ChildByFieldName("declaration")
			if decl == nil {
				continue
			}
			stmt = decl
		}

		switch stmt.Type() {
		case "function_declaration", "generator_function_declaration", "class_declaration":
			if name := stmt.ChildByFieldName("name"); name != nil {
				names = append(names, parser.Text(name, source))
			}
		case "variable_declaration", "lexical_declaration":
			for _, declarator := range parser.NamedChildren(stmt) {
				if declarator.Type() != "variable_declarator" || isRequireCall(declarator.ChildByFieldName("value"), source) {
					continue
				}
				names = append(names, patternNames(declarator.ChildByFieldName("name"), source)...)
			}
		}
	}

	return names
}

func isRequireCall(node *sitter.Node, source []byte) bool {
	node = parser.Unwrap(node)
	if node == nil || node.Type() != "call_expression" {
		return false
	}
	callee := node.ChildByFieldName("function")
	return callee != nil && callee.Type() == "identifier" && parser.Text(callee, source) == "require"
}

// patternNames returns the identifiers bound by a declaration target.
func patternNames(pattern *sitter.Node, source []byte) []string {
	var names []string

	parser.Inspect(pattern, func(n *sitter.Node) bool {
		switch n.Type() {
		case "identifier", "shorthand_property_identifier_pattern":
			names = append(names, parser.Text(n, source))
		case "pair_pattern":
			// Only the value side binds a name.
			if value := n.ChildByFieldName("value"); value != nil {
				names = append(names, patternNames(value, source)...)
			}
			return false
		case "assignment_pattern":
			if left := n.ChildByFieldName("left"); left != nil {
				names = append(names, patternNames(left, source)...)
			}
			return false
		}
		return true
	})

	return names
}

// isShadowed reports whether an enclosing function, class or block between
// node and the module scope declares name.
func isShadowed(node *sitter.Node, name string, source []byte) bool {
	for scope := node.Parent(); scope != nil && scope.Type() != "program"; scope = scope.Parent() {
		switch {
		case parser.IsFunctionLike(scope):
			if functionDeclares(scope, name, source) {
				return true
			}
		case scope.Type() == "class":
			if own := scope.ChildByFieldName("name"); own != nil && parser.Text(own, source) == name {
				return true
			}
		case scope.Type() == "statement_block":
			if blockDeclares(scope, name, source) {
				return true
			}
		case scope.Type() == "catch_clause":
			if param := scope.ChildByFieldName("parameter"); param != nil && contains(patternNames(param, source), name) {
				return true
			}
		}
	}
	return false
}

func functionDeclares(fn *sitter.Node, name string, source []byte) bool {
	if fn.Type() != "function_declaration" && fn.Type() != "method_definition" {
		if own := fn.ChildByFieldName("name"); own != nil && parser.Text(own, source) == name {
			return true
		}
	}

	for _, param := range parser.Parameters(fn) {
		if contains(patternNames(param, source), name) {
			return true
		}
	}

	body := parser.FunctionBody(fn)
	if body == nil {
		return false
	}

	found := false
	parser.Inspect(body, func(n *sitter.Node) bool {
		if found || (n != body && parser.IsFunctionLike(n)) {
			return false
		}
		if n.Type() == "variable_declaration" {
			for _, declarator := range parser.NamedChildren(n) {
				if declarator.Type() == "variable_declarator" && contains(patternNames(declarator.ChildByFieldName("name"), source), name) {
					found = true
				}
			}
			return false
		}
		return true
	})

	return found
}

func blockDeclares(block *sitter.Node, name string, source []byte) bool {
	for _, stmt := range parser.NamedChildren(block) {
		switch stmt.Type() {
		case "function_declaration", "generator_function_declaration", "class_declaration":
			if own := stmt.ChildByFieldName("name"); own != nil && parser.Text(own, source) == name {
				return true
			}
		case "lexical_declaration":
			for _, declarator := range parser.NamedChildren(stmt) {
				if declarator.Type() == "variable_declarator" && contains(patternNames(declarator.ChildByFieldName("name"), source), name) {
					return true
				}
			}
		}
	}
	return false
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
