package transforms

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/hannajonsd/build-optimizer/binding"
	"github.com/hannajonsd/build-optimizer/parser"
	"github.com/hannajonsd/build-optimizer/rewrite"
	"github.com/hannajonsd/build-optimizer/transform"
)

// PrefixFunctions is the pass annotating module-load-time calls as pure.
// It is only safe for files known to be free of side effects.
func PrefixFunctions() transform.Pass {
	return transform.Pass{
		Name: "prefix-functions",
		New: func(ctx *transform.Context) transform.Transformer {
			return transform.TransformerFunc(func(unit *parser.ParseResult, edits *rewrite.Edits) {
				prefixFunctions(unit, edits, ctx.Bindings)
			})
		},
	}
}

func prefixFunctions(unit *parser.ParseResult, edits *rewrite.Edits, bindings *binding.Table) {
	for _, node := range findTopLevelCalls(unit.Root(), unit.Source, bindings) {
		edits.Insert(int(node.StartByte()), PureAnnotation+" ")
	}
}

// findTopLevelCalls returns the call and new expressions evaluated when the
// module loads. Function, class and method bodies are not entered, and
// neither are tslib helper calls.
func findTopLevelCalls(root *sitter.Node, source []byte, bindings *binding.Table) []*sitter.Node {
	var found []*sitter.Node

	var visit func(node *sitter.Node)
	visit = func(node *sitter.Node) {
		if parser.IsFunctionLike(node) || parser.IsClassLike(node) || node.Type() == "comment" {
			return
		}

		noPureComment := !hasPureComment(source, int(node.StartByte()))
		inner := node
		for inner.Type() == "parenthesized_expression" {
			next := parser.Unwrap(inner)
			if next == inner {
				break
			}
			inner = next
			noPureComment = noPureComment && !hasPureComment(source, int(inner.StartByte()))
		}

		// `(() => x)` and `(function () {})` are values, not calls.
		if node != inner && parser.IsFunctionLike(inner) {
			return
		}

		if noPureComment {
			switch inner.Type() {
			case "new_expression":
				found = append(found, node)
			case "call_expression":
				callee := inner.ChildByFieldName("function")
				if isHelperCall(callee, source, bindings) {
					return
				}
				fn := parser.Unwrap(callee)
				switch {
				case fn == nil:
				case parser.IsFunctionExpression(fn):
					// IIFEs taking arguments may close over outside state.
					if len(parser.Arguments(inner)) == 0 {
						found = append(found, node)
					}
				default:
					found = append(found, node)
				}
			}
		}

		for i := 0; i < int(inner.ChildCount()); i++ {
			visit(inner.Child(i))
		}
	}

	for i := 0; i < int(root.ChildCount()); i++ {
		visit(root.Child(i))
	}

	return found
}

// isHelperCall reports whether callee is a tslib helper, either by name or
// because it was imported from tslib under another one.
func isHelperCall(callee *sitter.Node, source []byte, bindings *binding.Table) bool {
	if callee == nil {
		return false
	}
	if helperName(callee, source) != "" {
		return true
	}
	origin, ok := bindings.Resolve(callee, source)
	return ok && origin.Module == tslibModule
}
