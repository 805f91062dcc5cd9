package transforms

import (
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/hannajonsd/build-optimizer/parser"
	"github.com/hannajonsd/build-optimizer/rewrite"
	"github.com/hannajonsd/build-optimizer/transform"
)

const superParameterName = "_super"

var downleveledClassPatterns = func() []*regexp.Regexp {
	exportVarSetter := `(?:export )?(?:var|const)\s+(?:\S+)\s*=\s*`
	multiLineComment := `\s*(?:/\*[\s\S]*?\*/)?\s*`
	newLine := `\s*\r?\n\s*`

	return []*regexp.Regexp{
		regexp.MustCompile(`(?m)^` + exportVarSetter + multiLineComment + `\(` + multiLineComment +
			`\s*function \(\) {` + newLine + multiLineComment + `function (?:\S+)\([^\)]*\) \{` + newLine),
		regexp.MustCompile(`(?m)^` + exportVarSetter + multiLineComment + `\(` + multiLineComment +
			`\s*function \(_super\) {` + newLine + `\S*\.?__extends\(\S+, _super\);`),
	}
}()

// DetectPrefixClasses reports whether content contains a downleveled class
// wrapper.
func DetectPrefixClasses(content string) bool {
	for _, re := range downleveledClassPatterns {
		if re.MatchString(content) {
			return true
		}
	}
	return false
}

// PrefixClasses is the pass annotating side-effect-free constructor
// wrappers as pure.
func PrefixClasses() transform.Pass {
	return transform.Pass{
		Name: "prefix-classes",
		Test: DetectPrefixClasses,
		New: func(*transform.Context) transform.Transformer {
			return transform.TransformerFunc(prefixClasses)
		},
	}
}

func prefixClasses(unit *parser.ParseResult, edits *rewrite.Edits) {
	source := unit.Source

	for _, stmt := range parser.NamedChildren(unit.Root()) {
		value := downleveledClass(unwrapExport(stmt), source)
		if value == nil || hasPureComment(source, int(value.StartByte())) {
			continue
		}
		edits.Insert(int(value.StartByte()), PureAnnotation+" ")
	}
}

// downleveledClass returns the initializer of `var X = (function () {...}())`
// when the wrapper only builds a constructor and its prototype.
func downleveledClass(stmt *sitter.Node, source []byte) *sitter.Node {
	if stmt == nil || (stmt.Type() != "variable_declaration" && stmt.Type() != "lexical_declaration") {
		return nil
	}

	declarators := parser.NamedChildren(stmt)
	if len(declarators) != 1 || declarators[0].Type() != "variable_declarator" {
		return nil
	}
	name := declarators[0].ChildByFieldName("name")
	value := declarators[0].ChildByFieldName("value")
	if name == nil || name.Type() != "identifier" || value == nil {
		return nil
	}

	call := parser.Unwrap(value)
	if call.Type() != "call_expression" || len(parser.Arguments(call)) > 1 {
		return nil
	}
	fn := parser.Unwrap(call.ChildByFieldName("function"))
	if !parser.IsFunctionExpression(fn) && (fn == nil || fn.Type() != "arrow_function") {
		return nil
	}

	statements := parser.NamedChildren(parser.FunctionBody(fn))
	className, rest := wrappedConstructor(fn, statements, source)
	if className == "" {
		return nil
	}

	for _, s := range rest {
		if !isClassDefinitionStatement(s, className, source) {
			return nil
		}
	}

	return value
}

// wrappedConstructor checks the wrapper opens with the constructor (after an
// optional __extends call) and returns it. It yields the class name and the
// statements between the constructor and the return.
func wrappedConstructor(fn *sitter.Node, statements []*sitter.Node, source []byte) (string, []*sitter.Node) {
	if len(statements) < 2 {
		return "", nil
	}

	last := statements[len(statements)-1]
	if last.Type() != "return_statement" {
		return "", nil
	}
	returned := parser.NamedChildren(last)
	if len(returned) != 1 || parser.Unwrap(returned[0]).Type() != "identifier" {
		return "", nil
	}
	returnedName := parser.Text(parser.Unwrap(returned[0]), source)

	params := parser.Parameters(fn)
	ctorIndex := 0
	switch len(params) {
	case 0:
	case 1:
		if !isIdentifier(params[0], superParameterName, source) || len(statements) < 3 {
			return "", nil
		}
		extends := parser.Unwrap(statementExpression(statements[0]))
		if extends == nil || extends.Type() != "call_expression" || !strings.HasSuffix(calleeName(extends, source), "__extends") {
			return "", nil
		}
		args := parser.Arguments(extends)
		if len(args) == 0 || !isIdentifier(args[len(args)-1], superParameterName, source) {
			return "", nil
		}
		ctorIndex = 1
	default:
		return "", nil
	}

	ctor := statements[ctorIndex]
	if ctor.Type() != "function_declaration" && ctor.Type() != "class_declaration" {
		return "", nil
	}
	if parser.Text(ctor.ChildByFieldName("name"), source) != returnedName {
		return "", nil
	}

	return returnedName, statements[ctorIndex+1 : len(statements)-1]
}

func calleeName(call *sitter.Node, source []byte) string {
	callee := parser.Unwrap(call.ChildByFieldName("function"))
	if callee == nil {
		return ""
	}
	if callee.Type() == "member_expression" {
		return parser.Text(callee.ChildByFieldName("property"), source)
	}
	return parser.Text(callee, source)
}

// isClassDefinitionStatement accepts the statements a downleveled class body
// is made of and that cannot affect anything outside the wrapper.
func isClassDefinitionStatement(stmt *sitter.Node, className string, source []byte) bool {
	switch stmt.Type() {
	case "function_declaration", "class_declaration", "empty_statement":
		return true
	case "variable_declaration", "lexical_declaration":
		for _, declarator := range parser.NamedChildren(stmt) {
			if declarator.Type() != "variable_declarator" || declarator.ChildByFieldName("value") != nil {
				return false
			}
		}
		return true
	case "expression_statement":
	default:
		return false
	}

	expr := parser.Unwrap(statementExpression(stmt))
	if expr == nil {
		return false
	}

	switch expr.Type() {
	case "assignment_expression":
		left := parser.Unwrap(expr.ChildByFieldName("left"))
		right := parser.Unwrap(expr.ChildByFieldName("right"))
		if left == nil || right == nil {
			return false
		}

		// X_1 = X
		if left.Type() == "identifier" {
			return right.Type() == "identifier"
		}
		if left.Type() != "member_expression" {
			return false
		}

		object := parser.Unwrap(left.ChildByFieldName("object"))
		if prototypeOf(object, className, source) {
			return parser.IsFunctionLike(right)
		}
		if isIdentifier(object, className, source) {
			return parser.IsFunctionLike(right) || isPrimitiveLiteral(right, source)
		}
		return false
	case "call_expression":
		// Object.defineProperty(X.prototype, "name", { get: function () {...} })
		callee := parser.Unwrap(expr.ChildByFieldName("function"))
		if callee == nil || parser.Text(callee, source) != "Object.defineProperty" {
			return false
		}
		args := parser.Arguments(expr)
		if len(args) != 3 || !prototypeOf(parser.Unwrap(args[0]), className, source) {
			return false
		}
		if args[1].Type() != "string" {
			return false
		}
		descriptor := parser.Unwrap(args[2])
		if descriptor.Type() != "object" {
			return false
		}
		for _, member := range parser.NamedChildren(descriptor) {
			if member.Type() == "method_definition" {
				continue
			}
			value := parser.Unwrap(member.ChildByFieldName("value"))
			if member.Type() != "pair" || value == nil || !(parser.IsFunctionLike(value) || isPrimitiveLiteral(value, source)) {
				return false
			}
		}
		return true
	}

	return false
}

func prototypeOf(node *sitter.Node, className string, source []byte) bool {
	return isIdentifier(memberOf(node, "prototype", source), className, source)
}

func isPrimitiveLiteral(node *sitter.Node, source []byte) bool {
	node = parser.Unwrap(node)
	if node == nil {
		return false
	}

	switch node.Type() {
	case "number", "string", "true", "false", "null", "undefined", "regex":
		return true
	case "template_string":
		return !strings.Contains(parser.Text(node, source), "${")
	case "unary_expression":
		op := parser.Text(node.ChildByFieldName("operator"), source)
		arg := parser.Unwrap(node.ChildByFieldName("argument"))
		return (op == "void" || op == "-" || op == "!") && arg != nil && (arg.Type() == "number" || isPrimitiveLiteral(arg, source))
	}
	return false
}
