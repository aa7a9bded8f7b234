package parsers

import (
	"context"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	php "github.com/tree-sitter/tree-sitter-php/bindings/go"

	"github.com/mvp-joe/cortex-extract/internal/extractor/extraction"
)

// phpParser extracts use clauses, includes and top-level declarations from PHP files.
type phpParser struct {
	*treeSitterParser
}

// NewPhpParser creates a new PHP parser.
func NewPhpParser() *phpParser {
	lang := sitter.NewLanguage(php.LanguagePHP())
	return &phpParser{
		treeSitterParser: newTreeSitterParser(lang, "php"),
	}
}

// Extract parses PHP source.
func (p *phpParser) Extract(ctx context.Context, source []byte) (*extraction.Structure, error) {
	return p.extract(ctx, source, p)
}

// topLevel returns the file's statements, treating bracketed namespace bodies as top level.
func (p *phpParser) topLevel(root *sitter.Node) []*sitter.Node {
	var stmts []*sitter.Node
	for _, stmt := range namedChildren(root) {
		if stmt.Kind() == "namespace_definition" {
			if body := stmt.ChildByFieldName("body"); body != nil {
				stmts = append(stmts, namedChildren(body)...)
				continue
			}
		}
		stmts = append(stmts, stmt)
	}
	return stmts
}

// collectImports records `use` clauses and require/include expressions.
func (p *phpParser) collectImports(root *sitter.Node, source []byte, s *extraction.Structure) {
	for _, stmt := range p.topLevel(root) {
		switch stmt.Kind() {
		case "namespace_use_declaration":
			p.collectUse(stmt, source, s)
		case "expression_statement":
			for _, expr := range namedChildren(stmt) {
				switch expr.Kind() {
				case "require_expression", "require_once_expression", "include_expression", "include_once_expression":
					args := namedChildren(expr)
					if len(args) == 0 {
						s.AddIssue(newIssue(expr, "include without a path"))
						continue
					}
					s.AddImport(unquote(extractNodeText(args[0], source)), []string{extraction.Wildcard})
				}
			}
		}
	}
}

// collectUse maps `use A\B\C;` to {A\B, [C]} and `use A\B\{C, D};` to {A\B, [C, D]}.
func (p *phpParser) collectUse(decl *sitter.Node, source []byte, s *extraction.Structure) {
	if group := findChildByType(decl, "namespace_use_group"); group != nil {
		prefix := ""
		if ns := findChildByType(decl, "namespace_name"); ns != nil {
			prefix = strings.TrimPrefix(extractNodeText(ns, source), `\`)
		}
		names := []string{}
		for _, clause := range namedChildren(group) {
			if path := phpUsePath(clause, source); path != "" {
				names = append(names, path)
			}
		}
		s.AddImport(prefix, names)
		return
	}

	for _, clause := range findChildrenByType(decl, "namespace_use_clause") {
		path := phpUsePath(clause, source)
		if path == "" {
			s.AddIssue(newIssue(clause, "use clause without a name"))
			continue
		}
		ns, name := splitLast(path, `\`)
		if ns == "" {
			s.AddImport(name, []string{extraction.Wildcard})
			continue
		}
		s.AddImport(ns, []string{name})
	}
}

// phpUsePath returns the imported name of a use clause, ignoring any alias.
func phpUsePath(clause *sitter.Node, source []byte) string {
	for _, child := range namedChildren(clause) {
		switch child.Kind() {
		case "qualified_name", "name", "namespace_name":
			return strings.TrimPrefix(extractNodeText(child, source), `\`)
		}
	}
	return ""
}

// collectExports records functions, type declarations with their direct methods, and constants.
func (p *phpParser) collectExports(root *sitter.Node, source []byte, s *extraction.Structure) {
	for _, stmt := range p.topLevel(root) {
		switch stmt.Kind() {
		case "function_definition":
			nameNode := stmt.ChildByFieldName("name")
			if nameNode == nil {
				s.AddIssue(newIssue(stmt, "function without a name"))
				continue
			}
			s.AddExport(extractNodeText(nameNode, source), extraction.KindFunction, locationOf(stmt))

		case "class_declaration", "interface_declaration", "trait_declaration", "enum_declaration":
			nameNode := stmt.ChildByFieldName("name")
			if nameNode == nil {
				s.AddIssue(newIssue(stmt, "type without a name"))
				continue
			}
			name := extractNodeText(nameNode, source)
			s.AddExport(name, extraction.KindClass, locationOf(stmt))
			p.collectMethods(stmt.ChildByFieldName("body"), name, source, s)

		case "const_declaration":
			for _, elem := range findChildrenByType(stmt, "const_element") {
				if nameNode := findChildByType(elem, "name"); nameNode != nil {
					s.AddExport(extractNodeText(nameNode, source), extraction.KindVariable, locationOf(nameNode))
				}
			}
		}
	}
}

func (p *phpParser) collectMethods(body *sitter.Node, container string, source []byte, s *extraction.Structure) {
	for _, member := range namedChildren(body) {
		if member.Kind() != "method_declaration" {
			continue
		}
		nameNode := member.ChildByFieldName("name")
		if nameNode == nil {
			s.AddIssue(newIssue(member, "method without a name"))
			continue
		}
		s.AddExport(container+"."+extractNodeText(nameNode, source), extraction.KindMethod, locationOf(member))
	}
}
