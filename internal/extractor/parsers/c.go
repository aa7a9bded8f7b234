package parsers

import (
	"context"

	sitter "github.com/tree-sitter/go-tree-sitter"
	c "github.com/tree-sitter/tree-sitter-c/bindings/go"

	"github.com/mvp-joe/cortex-extract/internal/extractor/extraction"
)

// cParser extracts includes and file-scope declarations from C files.
type cParser struct {
	*treeSitterParser
}

// NewCParser creates a new C parser.
func NewCParser() *cParser {
	lang := sitter.NewLanguage(c.Language())
	return &cParser{
		treeSitterParser: newTreeSitterParser(lang, "c"),
	}
}

// Extract parses C source.
func (p *cParser) Extract(ctx context.Context, source []byte) (*extraction.Structure, error) {
	return p.extract(ctx, source, p)
}

// topLevel returns file-scope items, looking through #if/#ifdef blocks so
// header guards do not hide the declarations they wrap.
func (p *cParser) topLevel(node *sitter.Node) []*sitter.Node {
	var items []*sitter.Node
	for _, child := range namedChildren(node) {
		switch child.Kind() {
		case "preproc_if", "preproc_ifdef", "preproc_else", "preproc_elif", "preproc_elifdef":
			items = append(items, p.topLevel(child)...)
		default:
			items = append(items, child)
		}
	}
	return items
}

// collectImports records #include directives as whole-header imports.
func (p *cParser) collectImports(root *sitter.Node, source []byte, s *extraction.Structure) {
	for _, item := range p.topLevel(root) {
		if item.Kind() != "preproc_include" {
			continue
		}
		pathNode := item.ChildByFieldName("path")
		if pathNode == nil {
			s.AddIssue(newIssue(item, "include without a path"))
			continue
		}
		s.AddImport(unquote(extractNodeText(pathNode, source)), []string{extraction.Wildcard})
	}
}

// collectExports records function definitions, named aggregates, typedefs of
// aggregates and global variables.
func (p *cParser) collectExports(root *sitter.Node, source []byte, s *extraction.Structure) {
	for _, item := range p.topLevel(root) {
		switch item.Kind() {
		case "function_definition":
			name := p.findDeclaratorName(item.ChildByFieldName("declarator"), source)
			if name == "" {
				s.AddIssue(newIssue(item, "function without a name"))
				continue
			}
			s.AddExport(name, extraction.KindFunction, locationOf(item))

		case "struct_specifier", "union_specifier", "enum_specifier":
			p.addAggregate(item, source, s)

		case "declaration":
			if typeNode := item.ChildByFieldName("type"); typeNode != nil {
				p.addAggregate(typeNode, source, s)
			}
			for _, decl := range p.declarators(item) {
				if p.isFunctionDeclarator(decl) {
					continue
				}
				nameNode := p.findDeclaratorIdentifier(decl)
				if nameNode == nil {
					continue
				}
				s.AddExport(extractNodeText(nameNode, source), extraction.KindVariable, locationOf(nameNode))
			}

		case "type_definition":
			typeNode := item.ChildByFieldName("type")
			if typeNode == nil || !p.isAggregate(typeNode) {
				continue
			}
			tagged := p.addAggregate(typeNode, source, s)
			for _, decl := range p.declarators(item) {
				nameNode := p.findDeclaratorIdentifier(decl)
				if nameNode == nil {
					continue
				}
				name := extractNodeText(nameNode, source)
				if name == tagged {
					continue
				}
				s.AddExport(name, extraction.KindClass, locationOf(item))
			}
		}
	}
}

func (p *cParser) isAggregate(node *sitter.Node) bool {
	switch node.Kind() {
	case "struct_specifier", "union_specifier", "enum_specifier":
		return true
	}
	return false
}

// addAggregate records a named struct/union/enum that has a body and returns
// its tag name. Forward declarations and anonymous aggregates are skipped.
func (p *cParser) addAggregate(node *sitter.Node, source []byte, s *extraction.Structure) string {
	if !p.isAggregate(node) || node.ChildByFieldName("body") == nil {
		return ""
	}
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return ""
	}
	name := extractNodeText(nameNode, source)
	s.AddExport(name, extraction.KindClass, locationOf(node))
	return name
}

// declarators returns the declarator children of a declaration or typedef.
func (p *cParser) declarators(node *sitter.Node) []*sitter.Node {
	typeStart := ^uint(0)
	if typeNode := node.ChildByFieldName("type"); typeNode != nil {
		typeStart = typeNode.StartByte()
	}

	var decls []*sitter.Node
	for _, child := range namedChildren(node) {
		if child.StartByte() == typeStart {
			continue
		}
		switch child.Kind() {
		case "identifier", "type_identifier", "init_declarator", "pointer_declarator",
			"array_declarator", "function_declarator", "parenthesized_declarator":
			decls = append(decls, child)
		}
	}
	return decls
}

// isFunctionDeclarator reports whether a declarator declares a function prototype.
func (p *cParser) isFunctionDeclarator(node *sitter.Node) bool {
	for node != nil {
		switch node.Kind() {
		case "function_declarator":
			return true
		case "pointer_declarator", "init_declarator", "parenthesized_declarator", "array_declarator":
			node = node.ChildByFieldName("declarator")
			if node == nil {
				return false
			}
		default:
			return false
		}
	}
	return false
}

// findDeclaratorIdentifier unwraps pointer, array and init declarators down to the declared name.
func (p *cParser) findDeclaratorIdentifier(node *sitter.Node) *sitter.Node {
	for node != nil {
		switch node.Kind() {
		case "identifier", "type_identifier":
			return node
		case "pointer_declarator", "init_declarator", "array_declarator", "function_declarator", "parenthesized_declarator":
			next := node.ChildByFieldName("declarator")
			if next == nil {
				return findChildByType(node, "identifier")
			}
			node = next
		default:
			return nil
		}
	}
	return nil
}

// findDeclaratorName returns the declared name of a function declarator.
func (p *cParser) findDeclaratorName(node *sitter.Node, source []byte) string {
	nameNode := p.findDeclaratorIdentifier(node)
	if nameNode == nil {
		return ""
	}
	return extractNodeText(nameNode, source)
}
