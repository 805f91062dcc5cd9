package transforms

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/hannajonsd/build-optimizer/binding"
	"github.com/hannajonsd/build-optimizer/parser"
	"github.com/hannajonsd/build-optimizer/rewrite"
	"github.com/hannajonsd/build-optimizer/transform"
)

var scrubMarkers = []string{
	"decorators",
	"__decorate",
	"propDecorators",
	"ctorParameters",
	"ɵsetClassMetadata",
}

// DetectScrubFile reports whether content may carry decorator metadata.
func DetectScrubFile(content string) bool {
	for _, marker := range scrubMarkers {
		if strings.Contains(content, marker) {
			return true
		}
	}
	return false
}

// ScrubFile is the pass removing framework decorator metadata.
func ScrubFile() transform.Pass {
	return transform.Pass{
		Name: "scrub-file",
		Test: DetectScrubFile,
		New: func(ctx *transform.Context) transform.Transformer {
			return &scrubber{bindings: ctx.Bindings}
		},
	}
}

type scrubber struct {
	bindings *binding.Table
	source   []byte
	edits    *rewrite.Edits
}

func (s *scrubber) Transform(unit *parser.ParseResult, edits *rewrite.Edits) {
	s.source = unit.Source
	s.edits = edits

	parser.Inspect(unit.Root(), func(n *sitter.Node) bool {
		if n.Type() != "expression_statement" {
			return true
		}
		return !s.scrubStatement(n)
	})
}

// scrubStatement rewrites one statement and reports whether it was a
// recognised metadata statement.
func (s *scrubber) scrubStatement(stmt *sitter.Node) bool {
	expr := parser.Unwrap(statementExpression(stmt))
	if expr == nil {
		return false
	}

	switch expr.Type() {
	case "assignment_expression":
		left := expr.ChildByFieldName("left")
		right := parser.Unwrap(expr.ChildByFieldName("right"))
		if right == nil {
			return false
		}

		switch {
		case memberOf(left, "decorators", s.source) != nil && right.Type() == "array":
			s.scrubDecoratorList(stmt, right)
			return true
		case memberOf(left, "propDecorators", s.source) != nil && right.Type() == "object":
			s.scrubPropDecorators(stmt, right)
			return true
		case memberOf(left, "ctorParameters", s.source) != nil && parser.IsFunctionLike(right):
			s.scrubCtorParameters(stmt, right)
			return true
		}

		// X = X_1 = __decorate([...], X)
		for right != nil && right.Type() == "assignment_expression" {
			right = parser.Unwrap(right.ChildByFieldName("right"))
		}
		if s.isDecorateCall(right) {
			s.scrubDecorate(stmt, right)
			return true
		}
	case "call_expression":
		if s.isDecorateCall(expr) {
			s.scrubDecorate(stmt, expr)
			return true
		}
		if s.isSetClassMetadataCall(expr) {
			removeStatement(s.edits, stmt, s.source)
			return true
		}
	}

	return false
}

// isFrameworkEntry matches `{ type: Decorator, args: [...] }` entries whose
// type resolves to the framework.
func (s *scrubber) isFrameworkEntry(entry *sitter.Node) bool {
	typ := objectProperty(entry, "type", s.source)
	return typ != nil && s.bindings.IsFramework(typ, s.source)
}

func (s *scrubber) scrubDecoratorList(stmt, list *sitter.Node) {
	entries := parser.NamedChildren(list)
	drop := make([]bool, len(entries))
	dropped := 0
	for i, entry := range entries {
		if s.isFrameworkEntry(entry) {
			drop[i] = true
			dropped++
		}
	}

	switch {
	case dropped == len(entries):
		removeStatement(s.edits, stmt, s.source)
	case dropped > 0:
		removeElements(s.edits, entries, drop)
	}
}

func (s *scrubber) scrubPropDecorators(stmt, object *sitter.Node) {
	members := parser.NamedChildren(object)
	dropMember := make([]bool, len(members))
	dropped := 0
	pending := &rewrite.Edits{}

	for i, member := range members {
		if member.Type() != "pair" {
			continue
		}
		list := parser.Unwrap(member.ChildByFieldName("value"))
		if list == nil || list.Type() != "array" {
			continue
		}

		entries := parser.NamedChildren(list)
		drop := make([]bool, len(entries))
		count := 0
		for j, entry := range entries {
			if s.isFrameworkEntry(entry) {
				drop[j] = true
				count++
			}
		}

		switch {
		case count > 0 && count == len(entries):
			dropMember[i] = true
			dropped++
		case count > 0:
			removeElements(pending, entries, drop)
		}
	}

	if dropped == len(members) {
		removeStatement(s.edits, stmt, s.source)
		return
	}

	removeElements(s.edits, members, dropMember)
	for _, edit := range pending.Normalized() {
		s.edits.Replace(edit.Start, edit.End, edit.Text)
	}
}

// scrubCtorParameters drops constructor parameter metadata unless one of the
// parameters is decorated with something that resolves outside the
// framework, either imported or declared in this file.
func (s *scrubber) scrubCtorParameters(stmt, fn *sitter.Node) {
	if list := returnedArray(fn); list != nil {
		for _, param := range parser.NamedChildren(list) {
			decorators := parser.Unwrap(objectProperty(param, "decorators", s.source))
			if decorators == nil || decorators.Type() != "array" {
				continue
			}
			for _, entry := range parser.NamedChildren(decorators) {
				typ := objectProperty(entry, "type", s.source)
				if typ == nil {
					continue
				}
				if origin, ok := s.bindings.Resolve(typ, s.source); ok && !s.bindings.IsFrameworkOrigin(origin) {
					return
				}
			}
		}
	}

	removeStatement(s.edits, stmt, s.source)
}

func (s *scrubber) isDecorateCall(call *sitter.Node) bool {
	if call == nil || call.Type() != "call_expression" {
		return false
	}
	callee := call.ChildByFieldName("function")
	if helperName(callee, s.source) != "__decorate" {
		return false
	}
	if origin, ok := s.bindings.Resolve(callee, s.source); ok && origin.Kind != binding.KindLocal && origin.Module != tslibModule {
		return false
	}

	args := parser.Arguments(call)
	return len(args) >= 2 && parser.Unwrap(args[0]).Type() == "array"
}

// scrubDecorate filters the decorator array of a __decorate call. Metadata
// entries only go when no decorator survives, together with the whole call.
func (s *scrubber) scrubDecorate(stmt, call *sitter.Node) {
	entries := parser.NamedChildren(parser.Unwrap(parser.Arguments(call)[0]))
	drop := make([]bool, len(entries))
	dropped, retained := 0, 0

	for i, entry := range entries {
		switch s.classifyDecorateEntry(entry) {
		case entryMetadata:
		case entryFramework:
			drop[i] = true
			dropped++
		default:
			retained++
		}
	}

	switch {
	case dropped == 0:
	case retained == 0:
		removeStatement(s.edits, stmt, s.source)
	default:
		removeElements(s.edits, entries, drop)
	}
}

type entryKind int

const (
	entryOther entryKind = iota
	entryMetadata
	entryFramework
)

func (s *scrubber) classifyDecorateEntry(entry *sitter.Node) entryKind {
	call := parser.Unwrap(entry)
	if call == nil || call.Type() != "call_expression" {
		return entryOther
	}
	callee := call.ChildByFieldName("function")

	switch helperName(callee, s.source) {
	case "__metadata":
		return entryMetadata
	case "__param":
		args := parser.Arguments(call)
		if len(args) != 2 {
			return entryOther
		}
		inner := parser.Unwrap(args[1])
		if inner != nil && inner.Type() == "call_expression" && s.bindings.IsFramework(inner.ChildByFieldName("function"), s.source) {
			return entryFramework
		}
		return entryOther
	}

	if s.bindings.IsFramework(callee, s.source) {
		return entryFramework
	}
	return entryOther
}

var setClassMetadataNames = map[string]bool{
	"ɵsetClassMetadata":      true,
	"ɵsetClassMetadataAsync": true,
}

// isSetClassMetadataCall matches an IIFE whose only statement registers
// class metadata, optionally guarded by a JIT-mode check.
func (s *scrubber) isSetClassMetadataCall(call *sitter.Node) bool {
	if len(parser.Arguments(call)) != 0 {
		return false
	}
	fn := parser.Unwrap(call.ChildByFieldName("function"))
	if !parser.IsFunctionExpression(fn) && (fn == nil || fn.Type() != "arrow_function") {
		return false
	}

	body := parser.NamedChildren(parser.FunctionBody(fn))
	if len(body) != 1 {
		return false
	}

	inner := parser.Unwrap(statementExpression(body[0]))
	if inner != nil && inner.Type() == "binary_expression" &&
		parser.Text(inner.ChildByFieldName("operator"), s.source) == "&&" {
		inner = parser.Unwrap(inner.ChildByFieldName("right"))
	}
	if inner == nil || inner.Type() != "call_expression" {
		return false
	}

	callee := parser.Unwrap(inner.ChildByFieldName("function"))
	if callee == nil {
		return false
	}
	switch callee.Type() {
	case "identifier":
		return setClassMetadataNames[parser.Text(callee, s.source)] && !s.bindings.IsForeignImport(callee, s.source)
	case "member_expression":
		if !setClassMetadataNames[parser.Text(callee.ChildByFieldName("property"), s.source)] {
			return false
		}
		object := callee.ChildByFieldName("object")
		origin, ok := s.bindings.Resolve(object, s.source)
		return !ok || origin.Kind == binding.KindLocal || s.bindings.IsFrameworkOrigin(origin)
	}
	return false
}

// objectProperty returns the value of property key in an object literal.
func objectProperty(object *sitter.Node, key string, source []byte) *sitter.Node {
	object = parser.Unwrap(object)
	if object == nil || object.Type() != "object" {
		return nil
	}
	for _, member := range parser.NamedChildren(object) {
		if member.Type() != "pair" {
			continue
		}
		if parser.ExtractStringValue(member.ChildByFieldName("key"), source) == key {
			return member.ChildByFieldName("value")
		}
	}
	return nil
}

// returnedArray finds the array literal a function returns.
func returnedArray(fn *sitter.Node) *sitter.Node {
	if body := parser.Unwrap(fn.ChildByFieldName("body")); body != nil && body.Type() == "array" {
		return body
	}
	for _, stmt := range parser.NamedChildren(parser.FunctionBody(fn)) {
		if stmt.Type() != "return_statement" {
			continue
		}
		values := parser.NamedChildren(stmt)
		if len(values) == 1 {
			if list := parser.Unwrap(values[0]); list.Type() == "array" {
				return list
			}
		}
	}
	return nil
}
