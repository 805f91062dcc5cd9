package transforms

import (
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/hannajonsd/build-optimizer/parser"
	"github.com/hannajonsd/build-optimizer/rewrite"
	"github.com/hannajonsd/build-optimizer/transform"
)

// X || (X = {})
var enumArgument = regexp.MustCompile(`\|\|\s*\(\s*[\w$.]+\s*=\s*\{\s*\}\s*\)`)

// DetectWrapEnums reports whether content may contain an enum initializer
// or a class followed by static members.
func DetectWrapEnums(content string) bool {
	return enumArgument.MatchString(content) || strings.Contains(content, "class ")
}

// WrapEnums is the pass folding enum initializers and class static members
// into pure IIFEs.
func WrapEnums() transform.Pass {
	return transform.Pass{
		Name: "wrap-enums",
		Test: DetectWrapEnums,
		New: func(*transform.Context) transform.Transformer {
			return transform.TransformerFunc(wrapEnums)
		},
	}
}

func wrapEnums(unit *parser.ParseResult, edits *rewrite.Edits) {
	source := unit.Source

	for _, list := range statementLists(unit.Root()) {
		statements := parser.NamedChildren(list)
		for i := 0; i+1 < len(statements); i++ {
			if wrapEnum(statements[i], statements[i+1], source, edits) {
				i++
			}
		}
	}

	statements := parser.NamedChildren(unit.Root())
	for i := 0; i < len(statements); i++ {
		i += wrapClassStatics(statements, i, source, edits)
	}
}

// wrapEnum merges `var X;` and the IIFE filling it that follows into a
// single pure initializer.
func wrapEnum(decl, next *sitter.Node, source []byte, edits *rewrite.Edits) bool {
	name := uninitializedName(unwrapExport(decl), source)
	if name == nil {
		return false
	}

	iife, ok := findEnumIIFE(parser.Text(name, source), next, source)
	if !ok {
		return false
	}

	head := " = "
	arg := "{}"
	if iife.exportExpr != "" {
		head += iife.exportExpr + " = "
		arg = iife.exportExpr + " || {}"
	}
	edits.Replace(int(name.EndByte()), int(next.StartByte()), head+PureAnnotation+" ")
	insertReturn(iife.body, iife.param, source, edits)
	edits.Replace(int(iife.argument.StartByte()), int(iife.argument.EndByte()), arg)

	return true
}

// uninitializedName matches `var X;` and `let X;` and returns X.
func uninitializedName(stmt *sitter.Node, source []byte) *sitter.Node {
	if stmt == nil || (stmt.Type() != "variable_declaration" && stmt.Type() != "lexical_declaration") {
		return nil
	}
	if strings.HasPrefix(parser.Text(stmt, source), "const") {
		return nil
	}

	declarators := parser.NamedChildren(stmt)
	if len(declarators) != 1 || declarators[0].Type() != "variable_declarator" {
		return nil
	}
	if declarators[0].ChildByFieldName("value") != nil {
		return nil
	}

	name := declarators[0].ChildByFieldName("name")
	if name == nil || name.Type() != "identifier" {
		return nil
	}
	return name
}

type enumIIFE struct {
	body       *sitter.Node
	param      string
	argument   *sitter.Node
	exportExpr string
}

// findEnumIIFE matches `(function (P) { P[...] = ...; })(X || (X = {}))` and
// the exported `(X = exports.X || (exports.X = {}))` form.
func findEnumIIFE(name string, stmt *sitter.Node, source []byte) (enumIIFE, bool) {
	call := parser.Unwrap(statementExpression(stmt))
	if call == nil || call.Type() != "call_expression" {
		return enumIIFE{}, false
	}

	args := parser.Arguments(call)
	callee := call.ChildByFieldName("function")
	if len(args) != 1 || callee == nil || callee.Type() != "parenthesized_expression" {
		return enumIIFE{}, false
	}

	fn := parser.Unwrap(callee)
	params := parser.Parameters(fn)
	if !parser.IsFunctionExpression(fn) || len(params) == 0 || params[0].Type() != "identifier" {
		return enumIIFE{}, false
	}
	param := parser.Text(params[0], source)

	result := enumIIFE{body: parser.FunctionBody(fn), param: param, argument: args[0]}
	if result.body == nil {
		return enumIIFE{}, false
	}

	argument := args[0]
	if argument.Type() == "assignment_expression" {
		if !isIdentifier(argument.ChildByFieldName("left"), name, source) {
			return enumIIFE{}, false
		}
		argument = argument.ChildByFieldName("right")
		if argument == nil || argument.Type() != "binary_expression" {
			return enumIIFE{}, false
		}
		exported := argument.ChildByFieldName("left")
		if exported == nil || exported.Type() != "member_expression" {
			return enumIIFE{}, false
		}
		result.exportExpr = parser.Text(exported, source)
	} else if !isIdentifier(argument.ChildByFieldName("left"), name, source) {
		return enumIIFE{}, false
	}
	if argument.Type() != "binary_expression" || parser.Text(argument.ChildByFieldName("operator"), source) != "||" {
		return enumIIFE{}, false
	}
	target := name
	if result.exportExpr != "" {
		target = result.exportExpr
	}
	if !isEmptyObjectAssignment(argument.ChildByFieldName("right"), target, source) {
		return enumIIFE{}, false
	}

	for _, member := range parser.NamedChildren(result.body) {
		assign := parser.Unwrap(statementExpression(member))
		if assign == nil || assign.Type() != "assignment_expression" {
			return enumIIFE{}, false
		}
		left := assign.ChildByFieldName("left")
		if left == nil || left.Type() != "subscript_expression" || !isIdentifier(left.ChildByFieldName("object"), param, source) {
			return enumIIFE{}, false
		}
	}

	return result, true
}

// isEmptyObjectAssignment matches `(target = {})`.
func isEmptyObjectAssignment(node *sitter.Node, target string, source []byte) bool {
	node = parser.Unwrap(node)
	if node == nil || node.Type() != "assignment_expression" {
		return false
	}
	if parser.Text(node.ChildByFieldName("left"), source) != target {
		return false
	}
	value := parser.Unwrap(node.ChildByFieldName("right"))
	return value != nil && value.Type() == "object" && len(parser.NamedChildren(value)) == 0
}

// insertReturn adds `return name;` as the last statement of block, indented
// like the statements before it.
func insertReturn(block *sitter.Node, name string, source []byte, edits *rewrite.Edits) {
	closing := int(block.EndByte()) - 1
	statement := "return " + name + ";"

	if !startsLine(source, closing) {
		if closing > 0 && isSpace(source[closing-1]) {
			edits.Insert(closing, statement+" ")
		} else {
			edits.Insert(closing, " "+statement+" ")
		}
		return
	}

	lineStart := closing
	for lineStart > 0 && source[lineStart-1] != '\n' {
		lineStart--
	}
	indent := string(source[lineStart:closing]) + "    "
	if members := parser.NamedChildren(block); len(members) > 0 {
		indent = lineIndent(source, int(members[0].StartByte()))
	}
	edits.Insert(lineStart, indent+statement+"\n")
}

func lineIndent(source []byte, pos int) string {
	start := pos
	for start > 0 && (source[start-1] == ' ' || source[start-1] == '\t') {
		start--
	}
	return string(source[start:pos])
}

// wrapClassStatics wraps a top-level class and the static member
// statements directly following it in a pure arrow IIFE. It returns the
// number of statements consumed after the class.
func wrapClassStatics(statements []*sitter.Node, i int, source []byte, edits *rewrite.Edits) int {
	stmt := statements[i]
	class := unwrapExport(stmt)
	if class == nil || class.Type() != "class_declaration" {
		return 0
	}
	if stmt != class && strings.HasPrefix(parser.Text(stmt, source), "export default") {
		return 0
	}

	nameNode := class.ChildByFieldName("name")
	if nameNode == nil {
		return 0
	}
	name := parser.Text(nameNode, source)

	count := 0
	for _, next := range statements[i+1:] {
		if !isStaticMemberStatement(next, name, source) {
			break
		}
		count++
	}
	if count == 0 {
		return 0
	}

	head := "let " + name + " = " + PureAnnotation + " (() => {\n"
	if stmt != class {
		edits.Replace(int(stmt.StartByte()), int(class.StartByte()), "export "+head)
	} else {
		edits.Insert(int(class.StartByte()), head)
	}
	edits.Insert(int(statements[i+count].EndByte()), "\nreturn "+name+";\n})();")

	return count
}

// isStaticMemberStatement matches `X.member = value` and
// `__decorate([...], X.prototype, "member", ...)`.
func isStaticMemberStatement(stmt *sitter.Node, name string, source []byte) bool {
	expr := parser.Unwrap(statementExpression(stmt))
	if expr == nil {
		return false
	}

	switch expr.Type() {
	case "assignment_expression":
		left := parser.Unwrap(expr.ChildByFieldName("left"))
		return left != nil && left.Type() == "member_expression" &&
			isIdentifier(left.ChildByFieldName("object"), name, source)
	case "call_expression":
		callee := expr.ChildByFieldName("function")
		if callee == nil || callee.Type() != "identifier" || cleanHelperName(parser.Text(callee, source)) != "__decorate" {
			return false
		}
		args := parser.Arguments(expr)
		if len(args) < 2 {
			return false
		}
		target := parser.Unwrap(args[1])
		return target.Type() == "member_expression" && isIdentifier(target.ChildByFieldName("object"), name, source)
	}
	return false
}
