// Package transforms holds the rewrite passes and the cheap text detectors
// that decide whether a pass is worth running on a file.
package transforms

import (
	"bytes"
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/hannajonsd/build-optimizer/parser"
	"github.com/hannajonsd/build-optimizer/rewrite"
)

// PureAnnotation marks a call whose result may be dropped when unused.
const PureAnnotation = "/*@__PURE__*/"

const tslibModule = "tslib"

var helperSuffix = regexp.MustCompile(`\$\d+$`)

var tslibHelpers = map[string]bool{
	"__extends": true, "__assign": true, "__rest": true, "__decorate": true,
	"__param": true, "__metadata": true, "__awaiter": true, "__generator": true,
	"__exportStar": true, "__values": true, "__read": true, "__spread": true,
	"__spreadArrays": true, "__spreadArray": true, "__await": true,
	"__asyncGenerator": true, "__asyncDelegator": true, "__asyncValues": true,
	"__makeTemplateObject": true, "__importStar": true, "__importDefault": true,
	"__classPrivateFieldGet": true, "__classPrivateFieldSet": true,
	"__classPrivateFieldIn": true, "__createBinding": true, "__setModuleDefault": true,
	"__esDecorate": true, "__runInitializers": true, "__propKey": true,
	"__setFunctionName": true, "__addDisposableResource": true, "__disposeResources": true,
}

// cleanHelperName strips the `$N` suffix bundlers add to renamed helper
// copies and returns the name if it is a tslib helper.
func cleanHelperName(name string) string {
	name = helperSuffix.ReplaceAllString(name, "")
	if tslibHelpers[name] {
		return name
	}
	return ""
}

// helperName returns the tslib helper a callee refers to, either directly
// (`__decorate`) or through a namespace (`tslib_1.__decorate`).
func helperName(callee *sitter.Node, source []byte) string {
	callee = parser.Unwrap(callee)
	if callee == nil {
		return ""
	}

	switch callee.Type() {
	case "identifier":
		return cleanHelperName(parser.Text(callee, source))
	case "member_expression":
		return cleanHelperName(parser.Text(callee.ChildByFieldName("property"), source))
	}
	return ""
}

// hasPureComment reports whether the code right before pos is a block
// comment carrying a pure annotation.
func hasPureComment(source []byte, pos int) bool {
	for {
		i := pos
		for i > 0 && isSpace(source[i-1]) {
			i--
		}
		if i < 4 || !bytes.HasSuffix(source[:i], []byte("*/")) {
			return false
		}

		start := bytes.LastIndex(source[:i-2], []byte("/*"))
		if start < 0 {
			return false
		}
		comment := source[start:i]
		if bytes.Contains(comment, []byte("@__PURE__")) || bytes.Contains(comment, []byte("#__PURE__")) {
			return true
		}
		pos = start
	}
}

func isPureComment(text string) bool {
	return strings.HasPrefix(text, "/*") && (strings.Contains(text, "@__PURE__") || strings.Contains(text, "#__PURE__"))
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isBlank(b []byte) bool {
	for _, c := range b {
		if !isSpace(c) {
			return false
		}
	}
	return true
}

// startsLine reports whether only indentation precedes pos on its line.
func startsLine(source []byte, pos int) bool {
	for i := pos - 1; i >= 0; i-- {
		switch source[i] {
		case ' ', '\t':
			continue
		case '\n':
			return true
		default:
			return false
		}
	}
	return true
}

// removeStatement deletes a statement together with its leading comments
// and, when it sits on lines of its own, the lines themselves.
func removeStatement(edits *rewrite.Edits, stmt *sitter.Node, source []byte) {
	start, end := int(stmt.StartByte()), int(stmt.EndByte())

	for prev := stmt.PrevSibling(); prev != nil && prev.Type() == "comment"; prev = prev.PrevSibling() {
		if !isBlank(source[prev.EndByte():start]) {
			break
		}
		text := parser.Text(prev, source)
		if !isPureComment(text) && !startsLine(source, int(prev.StartByte())) {
			break
		}
		start = int(prev.StartByte())
	}

	lineStart := start
	for lineStart > 0 && (source[lineStart-1] == ' ' || source[lineStart-1] == '\t') {
		lineStart--
	}
	lineEnd := end
	for lineEnd < len(source) && (source[lineEnd] == ' ' || source[lineEnd] == '\t') {
		lineEnd++
	}
	atEOL := lineEnd == len(source) || source[lineEnd] == '\n' || source[lineEnd] == '\r'

	switch {
	case atEOL && (lineStart == 0 || source[lineStart-1] == '\n'):
		if lineEnd < len(source) && source[lineEnd] == '\r' {
			lineEnd++
		}
		if lineEnd < len(source) && source[lineEnd] == '\n' {
			lineEnd++
		}
		edits.Remove(lineStart, lineEnd)
	case atEOL:
		edits.Remove(lineStart, end)
	default:
		edits.Remove(start, lineEnd)
	}
}

// removeElements deletes the flagged elements of a comma separated list,
// keeping the text of the others untouched. Callers handle removing all.
func removeElements(edits *rewrite.Edits, elements []*sitter.Node, drop []bool) {
	n := len(elements)
	for i := 0; i < n; {
		if !drop[i] {
			i++
			continue
		}

		j := i
		for j+1 < n && drop[j+1] {
			j++
		}

		switch {
		case j+1 < n:
			edits.Remove(int(elements[i].StartByte()), int(elements[j+1].StartByte()))
		case i > 0:
			edits.Remove(int(elements[i-1].EndByte()), int(elements[j].EndByte()))
		}
		i = j + 1
	}
}

// statementExpression returns the expression of an expression statement.
func statementExpression(stmt *sitter.Node) *sitter.Node {
	if stmt == nil || stmt.Type() != "expression_statement" {
		return nil
	}
	children := parser.NamedChildren(stmt)
	if len(children) != 1 {
		return nil
	}
	return children[0]
}

// memberOf matches `<object>.<name>` and returns the object.
func memberOf(node *sitter.Node, name string, source []byte) *sitter.Node {
	node = parser.Unwrap(node)
	if node == nil || node.Type() != "member_expression" {
		return nil
	}
	if parser.Text(node.ChildByFieldName("property"), source) != name {
		return nil
	}
	return node.ChildByFieldName("object")
}

// statementLists returns every statement list of the tree: the program and
// all statement blocks.
func statementLists(root *sitter.Node) []*sitter.Node {
	var lists []*sitter.Node
	parser.Inspect(root, func(n *sitter.Node) bool {
		if n.Type() == "program" || n.Type() == "statement_block" {
			lists = append(lists, n)
		}
		return true
	})
	return lists
}

// unwrapExport returns the declaration of an export statement.
func unwrapExport(stmt *sitter.Node) *sitter.Node {
	if stmt != nil && stmt.Type() == "export_statement" {
		return stmt.ChildByFieldName("declaration")
	}
	return stmt
}

func isIdentifier(node *sitter.Node, name string, source []byte) bool {
	node = parser.Unwrap(node)
	return node != nil && node.Type() == "identifier" && parser.Text(node, source) == name
}
