package parsers

import (
	"context"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	python "github.com/tree-sitter/tree-sitter-python/bindings/go"

	"github.com/mvp-joe/cortex-extract/internal/extractor/extraction"
)

// pyStmtKind is the closed set of Python statement shapes the collectors distinguish.
type pyStmtKind int

const (
	pyStmtOther pyStmtKind = iota
	pyStmtImport
	pyStmtImportFrom
	pyStmtFutureImport
	pyStmtFunction
	pyStmtClass
	pyStmtDecorated
	pyStmtExpression
	pyStmtCompound
)

// classifyPythonStatement maps a tree-sitter node kind to a statement shape.
func classifyPythonStatement(kind string) pyStmtKind {
	switch kind {
	case "import_statement":
		return pyStmtImport
	case "import_from_statement":
		return pyStmtImportFrom
	case "future_import_statement":
		return pyStmtFutureImport
	case "function_definition":
		return pyStmtFunction
	case "class_definition":
		return pyStmtClass
	case "decorated_definition":
		return pyStmtDecorated
	case "expression_statement":
		return pyStmtExpression
	case "if_statement", "for_statement", "while_statement", "try_statement",
		"with_statement", "match_statement", "case_clause":
		return pyStmtCompound
	default:
		return pyStmtOther
	}
}

// pythonParser extracts imports and top-level symbols from Python files.
type pythonParser struct {
	*treeSitterParser
}

// NewPythonParser creates a new Python parser.
func NewPythonParser() *pythonParser {
	lang := sitter.NewLanguage(python.Language())
	return &pythonParser{
		treeSitterParser: newTreeSitterParser(lang, "py"),
	}
}

// Extract parses Python source.
func (p *pythonParser) Extract(ctx context.Context, source []byte) (*extraction.Structure, error) {
	return p.extract(ctx, source, p)
}

// checkSyntax rejects trees the grammar recovers from silently but the
// Python compiler does not accept: empty indented blocks and Python 2
// print/exec statements.
func (p *pythonParser) checkSyntax(root *sitter.Node) (*sitter.Node, string) {
	stack := []*sitter.Node{root}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch node.Kind() {
		case "block":
			if len(namedChildren(node)) == 0 {
				return node, "expected an indented block"
			}
		case "print_statement":
			return node, "missing parentheses in call to 'print'"
		case "exec_statement":
			return node, "missing parentheses in call to 'exec'"
		}

		for i := int(node.NamedChildCount()) - 1; i >= 0; i-- {
			if child := node.NamedChild(uint(i)); child != nil {
				stack = append(stack, child)
			}
		}
	}
	return nil, ""
}

// collectImports records every module-level import statement in declaration order.
// Imports nested in functions, classes or conditionals are not collected.
func (p *pythonParser) collectImports(root *sitter.Node, source []byte, s *extraction.Structure) {
	for _, stmt := range namedChildren(root) {
		switch classifyPythonStatement(stmt.Kind()) {
		case pyStmtImport:
			p.collectImport(stmt, source, s)
		case pyStmtImportFrom:
			p.collectImportFrom(stmt, source, s)
		case pyStmtFutureImport:
			s.AddImport("__future__", p.importedNames(stmt, source, s))
		case pyStmtOther, pyStmtFunction, pyStmtClass, pyStmtDecorated, pyStmtExpression, pyStmtCompound:
		}
	}
}

// collectImport handles `import a, b.c as d`: one whole-module record per name.
func (p *pythonParser) collectImport(stmt *sitter.Node, source []byte, s *extraction.Structure) {
	for _, child := range namedChildren(stmt) {
		switch child.Kind() {
		case "dotted_name":
			s.AddImport(dottedName(child, source), []string{extraction.Wildcard})
		case "aliased_import":
			nameNode := child.ChildByFieldName("name")
			if nameNode == nil {
				s.AddIssue(newIssue(child, "aliased import without a name"))
				continue
			}
			s.AddImport(dottedName(nameNode, source), []string{extraction.Wildcard})
		default:
			s.AddIssue(newIssue(child, "unexpected node in import statement"))
		}
	}
}

// collectImportFrom handles `from <module> import <names>`, including relative modules.
func (p *pythonParser) collectImportFrom(stmt *sitter.Node, source []byte, s *extraction.Structure) {
	moduleNode := stmt.ChildByFieldName("module_name")
	if moduleNode == nil {
		s.AddIssue(newIssue(stmt, "import-from without a module"))
		return
	}

	var module string
	switch moduleNode.Kind() {
	case "relative_import":
		module = relativeModule(moduleNode, source)
	case "dotted_name":
		module = dottedName(moduleNode, source)
	default:
		s.AddIssue(newIssue(moduleNode, "unexpected module node"))
		return
	}

	s.AddImport(module, p.importedNames(stmt, source, s))
}

// importedNames lists the original names bound after the `import` keyword.
// A star import yields the wildcard sentinel.
func (p *pythonParser) importedNames(stmt *sitter.Node, source []byte, s *extraction.Structure) []string {
	names := []string{}
	for _, child := range childrenAfter(stmt, "import") {
		switch child.Kind() {
		case "dotted_name":
			names = append(names, dottedName(child, source))
		case "aliased_import":
			nameNode := child.ChildByFieldName("name")
			if nameNode == nil {
				s.AddIssue(newIssue(child, "aliased import without a name"))
				continue
			}
			names = append(names, dottedName(nameNode, source))
		case "wildcard_import":
			names = append(names, extraction.Wildcard)
		default:
			s.AddIssue(newIssue(child, "unexpected imported name"))
		}
	}
	return names
}

// relativeModule renders a relative import as one dot per level followed by the module path.
func relativeModule(node *sitter.Node, source []byte) string {
	var b strings.Builder
	if prefix := findChildByType(node, "import_prefix"); prefix != nil {
		b.WriteString(strings.Repeat(".", strings.Count(extractNodeText(prefix, source), ".")))
	}
	if name := findChildByType(node, "dotted_name"); name != nil {
		b.WriteString(dottedName(name, source))
	}
	return b.String()
}

// dottedName joins the identifiers of a dotted_name, dropping any interior whitespace.
func dottedName(node *sitter.Node, source []byte) string {
	if node.Kind() != "dotted_name" {
		return extractNodeText(node, source)
	}
	parts := make([]string, 0, node.NamedChildCount())
	for _, ident := range namedChildren(node) {
		parts = append(parts, extractNodeText(ident, source))
	}
	return strings.Join(parts, ".")
}

// collectExports walks the module body at depth 0.
func (p *pythonParser) collectExports(root *sitter.Node, source []byte, s *extraction.Structure) {
	p.walkBlock(root, source, 0, "", s)
}

// walkBlock visits every statement of a module or block.
// depth is the nesting level of the block's statements; container is the
// enclosing top-level class name when depth is 1 and empty otherwise.
func (p *pythonParser) walkBlock(block *sitter.Node, source []byte, depth int, container string, s *extraction.Structure) {
	for _, stmt := range namedChildren(block) {
		p.visitStatement(stmt, source, depth, container, s)
	}
}

func (p *pythonParser) visitStatement(stmt *sitter.Node, source []byte, depth int, container string, s *extraction.Structure) {
	switch classifyPythonStatement(stmt.Kind()) {
	case pyStmtDecorated:
		def := stmt.ChildByFieldName("definition")
		if def == nil {
			s.AddIssue(newIssue(stmt, "decorator without a definition"))
			return
		}
		p.visitStatement(def, source, depth, container, s)

	case pyStmtFunction:
		p.visitFunction(stmt, source, depth, container, s)

	case pyStmtClass:
		p.visitClass(stmt, source, depth, s)

	case pyStmtExpression:
		if depth == 0 {
			p.collectAssignments(stmt, source, s)
		}

	case pyStmtCompound:
		for _, block := range nestedBlocks(stmt) {
			p.walkBlock(block, source, depth+1, "", s)
		}

	case pyStmtImport, pyStmtImportFrom, pyStmtFutureImport, pyStmtOther:
	}
}

// visitFunction records a top-level function or a direct method of a top-level class.
func (p *pythonParser) visitFunction(node *sitter.Node, source []byte, depth int, container string, s *extraction.Structure) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		s.AddIssue(newIssue(node, "function without a name"))
		return
	}
	name := extractNodeText(nameNode, source)

	switch {
	case depth == 0:
		s.AddExport(name, extraction.KindFunction, locationOf(node))
	case depth == 1 && container != "":
		s.AddExport(container+"."+name, extraction.KindMethod, locationOf(node))
	}

	if body := node.ChildByFieldName("body"); body != nil {
		p.walkBlock(body, source, depth+1, "", s)
	}
}

// visitClass records a top-level class; its body becomes the container scope for methods.
func (p *pythonParser) visitClass(node *sitter.Node, source []byte, depth int, s *extraction.Structure) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		s.AddIssue(newIssue(node, "class without a name"))
		return
	}
	name := extractNodeText(nameNode, source)

	container := ""
	if depth == 0 {
		s.AddExport(name, extraction.KindClass, locationOf(node))
		container = name
	}

	if body := node.ChildByFieldName("body"); body != nil {
		p.walkBlock(body, source, depth+1, container, s)
	}
}

// collectAssignments records bare-identifier targets of a plain or chained assignment.
// Annotated, augmented and destructuring assignments produce nothing.
func (p *pythonParser) collectAssignments(stmt *sitter.Node, source []byte, s *extraction.Structure) {
	for _, expr := range namedChildren(stmt) {
		for assign := expr; assign != nil && assign.Kind() == "assignment"; assign = assign.ChildByFieldName("right") {
			if assign.ChildByFieldName("type") != nil {
				break
			}
			left := assign.ChildByFieldName("left")
			if left == nil {
				s.AddIssue(newIssue(assign, "assignment without a target"))
				break
			}
			if left.Kind() == "identifier" {
				s.AddExport(extractNodeText(left, source), extraction.KindVariable, locationOf(left))
			}
		}
	}
}

// nestedBlocks returns the bodies of a compound statement, including those of
// its elif/else/except/finally/case clauses.
func nestedBlocks(stmt *sitter.Node) []*sitter.Node {
	var blocks []*sitter.Node
	for _, child := range namedChildren(stmt) {
		kind := child.Kind()
		switch {
		case kind == "block":
			blocks = append(blocks, child)
		case strings.HasSuffix(kind, "_clause"):
			blocks = append(blocks, nestedBlocks(child)...)
		}
	}
	return blocks
}
