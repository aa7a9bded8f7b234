package parsers

import (
	"context"

	sitter "github.com/tree-sitter/go-tree-sitter"
	java "github.com/tree-sitter/tree-sitter-java/bindings/go"

	"github.com/mvp-joe/cortex-extract/internal/extractor/extraction"
)

// javaParser extracts imports and top-level types from Java files.
type javaParser struct {
	*treeSitterParser
}

// NewJavaParser creates a new Java parser.
func NewJavaParser() *javaParser {
	lang := sitter.NewLanguage(java.Language())
	return &javaParser{
		treeSitterParser: newTreeSitterParser(lang, "java"),
	}
}

// Extract parses Java source.
func (p *javaParser) Extract(ctx context.Context, source []byte) (*extraction.Structure, error) {
	return p.extract(ctx, source, p)
}

// collectImports maps `import a.b.C;` to {a.b, [C]} and `import a.b.*;` to {a.b, [*]}.
// Static imports follow the same rule.
func (p *javaParser) collectImports(root *sitter.Node, source []byte, s *extraction.Structure) {
	for _, decl := range namedChildren(root) {
		if decl.Kind() != "import_declaration" {
			continue
		}

		path := findChildByType(decl, "scoped_identifier")
		if path == nil {
			path = findChildByType(decl, "identifier")
		}
		if path == nil {
			s.AddIssue(newIssue(decl, "import without a path"))
			continue
		}
		qualified := extractNodeText(path, source)

		if findChildByType(decl, "asterisk") != nil {
			s.AddImport(qualified, []string{extraction.Wildcard})
			continue
		}

		pkg, name := splitLast(qualified, ".")
		if pkg == "" {
			s.AddImport(name, []string{extraction.Wildcard})
			continue
		}
		s.AddImport(pkg, []string{name})
	}
}

// collectExports records top-level type declarations and their direct methods and constructors.
func (p *javaParser) collectExports(root *sitter.Node, source []byte, s *extraction.Structure) {
	for _, decl := range namedChildren(root) {
		switch decl.Kind() {
		case "class_declaration", "interface_declaration", "enum_declaration",
			"record_declaration", "annotation_type_declaration":
			p.extractType(decl, source, s)
		}
	}
}

// extractType records a type and the methods declared directly in its body.
func (p *javaParser) extractType(node *sitter.Node, source []byte, s *extraction.Structure) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		s.AddIssue(newIssue(node, "type without a name"))
		return
	}
	name := extractNodeText(nameNode, source)
	s.AddExport(name, extraction.KindClass, locationOf(node))

	bodyNode := node.ChildByFieldName("body")
	if bodyNode == nil {
		return
	}

	members := namedChildren(bodyNode)
	// Enum constants come first; methods live in the trailing enum_body_declarations.
	if decls := findChildByType(bodyNode, "enum_body_declarations"); decls != nil {
		members = namedChildren(decls)
	}

	for _, member := range members {
		switch member.Kind() {
		case "method_declaration", "constructor_declaration", "compact_constructor_declaration":
			methodName := member.ChildByFieldName("name")
			if methodName == nil {
				s.AddIssue(newIssue(member, "method without a name"))
				continue
			}
			s.AddExport(name+"."+extractNodeText(methodName, source), extraction.KindMethod, locationOf(member))
		}
	}
}
