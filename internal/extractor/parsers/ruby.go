package parsers

import (
	"context"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	ruby "github.com/tree-sitter/tree-sitter-ruby/bindings/go"

	"github.com/mvp-joe/cortex-extract/internal/extractor/extraction"
)

// rubyParser extracts requires and top-level definitions from Ruby files.
type rubyParser struct {
	*treeSitterParser
}

// NewRubyParser creates a new Ruby parser.
func NewRubyParser() *rubyParser {
	lang := sitter.NewLanguage(ruby.Language())
	return &rubyParser{
		treeSitterParser: newTreeSitterParser(lang, "rb"),
	}
}

// Extract parses Ruby source.
func (p *rubyParser) Extract(ctx context.Context, source []byte) (*extraction.Structure, error) {
	return p.extract(ctx, source, p)
}

// collectImports records top-level require, require_relative and load calls.
// require_relative paths are prefixed with "./" to mark them relative.
func (p *rubyParser) collectImports(root *sitter.Node, source []byte, s *extraction.Structure) {
	for _, stmt := range namedChildren(root) {
		if stmt.Kind() != "call" {
			continue
		}
		methodNode := stmt.ChildByFieldName("method")
		if methodNode == nil || stmt.ChildByFieldName("receiver") != nil {
			continue
		}

		method := extractNodeText(methodNode, source)
		switch method {
		case "require", "require_relative", "load":
		default:
			continue
		}

		args := namedChildren(stmt.ChildByFieldName("arguments"))
		if len(args) == 0 || args[0].Kind() != "string" {
			s.AddIssue(newIssue(stmt, method+" without a literal path"))
			continue
		}

		path := unquote(extractNodeText(args[0], source))
		if method == "require_relative" && !strings.HasPrefix(path, ".") {
			path = "./" + path
		}
		s.AddImport(path, []string{extraction.Wildcard})
	}
}

// collectExports records top-level methods, classes and modules with their
// direct methods, and top-level assignments to identifiers or constants.
func (p *rubyParser) collectExports(root *sitter.Node, source []byte, s *extraction.Structure) {
	for _, stmt := range namedChildren(root) {
		switch stmt.Kind() {
		case "method", "singleton_method":
			nameNode := stmt.ChildByFieldName("name")
			if nameNode == nil {
				s.AddIssue(newIssue(stmt, "method without a name"))
				continue
			}
			s.AddExport(extractNodeText(nameNode, source), extraction.KindFunction, locationOf(stmt))

		case "class", "module":
			nameNode := stmt.ChildByFieldName("name")
			if nameNode == nil {
				s.AddIssue(newIssue(stmt, stmt.Kind()+" without a name"))
				continue
			}
			name := extractNodeText(nameNode, source)
			s.AddExport(name, extraction.KindClass, locationOf(stmt))
			p.collectMethods(stmt, name, source, s)

		case "assignment":
			left := stmt.ChildByFieldName("left")
			if left == nil {
				continue
			}
			switch left.Kind() {
			case "identifier", "constant":
				s.AddExport(extractNodeText(left, source), extraction.KindVariable, locationOf(left))
			}
		}
	}
}

// collectMethods records methods declared directly in a class or module body.
func (p *rubyParser) collectMethods(container *sitter.Node, containerName string, source []byte, s *extraction.Structure) {
	for _, child := range namedChildren(container) {
		switch child.Kind() {
		case "method", "singleton_method":
			p.addMethod(child, containerName, source, s)
		case "body_statement":
			for _, bodyChild := range namedChildren(child) {
				if bodyChild.Kind() == "method" || bodyChild.Kind() == "singleton_method" {
					p.addMethod(bodyChild, containerName, source, s)
				}
			}
		}
	}
}

func (p *rubyParser) addMethod(node *sitter.Node, containerName string, source []byte, s *extraction.Structure) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		s.AddIssue(newIssue(node, "method without a name"))
		return
	}
	s.AddExport(containerName+"."+extractNodeText(nameNode, source), extraction.KindMethod, locationOf(node))
}
