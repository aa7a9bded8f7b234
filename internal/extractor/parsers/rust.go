package parsers

import (
	"context"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"

	"github.com/mvp-joe/cortex-extract/internal/extractor/extraction"
)

// rustParser extracts use trees and top-level items from Rust files.
type rustParser struct {
	*treeSitterParser
}

// NewRustParser creates a new Rust parser.
func NewRustParser() *rustParser {
	lang := sitter.NewLanguage(rust.Language())
	return &rustParser{
		treeSitterParser: newTreeSitterParser(lang, "rs"),
	}
}

// Extract parses Rust source.
func (p *rustParser) Extract(ctx context.Context, source []byte) (*extraction.Structure, error) {
	return p.extract(ctx, source, p)
}

// collectImports records top-level use declarations and extern crates.
func (p *rustParser) collectImports(root *sitter.Node, source []byte, s *extraction.Structure) {
	for _, item := range namedChildren(root) {
		switch item.Kind() {
		case "use_declaration":
			argument := item.ChildByFieldName("argument")
			if argument == nil {
				s.AddIssue(newIssue(item, "use without an argument"))
				continue
			}
			p.collectUseClause(argument, source, s)
		case "extern_crate_declaration":
			nameNode := item.ChildByFieldName("name")
			if nameNode == nil {
				s.AddIssue(newIssue(item, "extern crate without a name"))
				continue
			}
			s.AddImport(extractNodeText(nameNode, source), []string{extraction.Wildcard})
		}
	}
}

// collectUseClause normalizes one use tree:
// std::io::Read → {std::io, [Read]}, std::io::{Read, Write} → {std::io, [Read, Write]},
// std::io::* → {std::io, [*]}, serde → {serde, [*]}.
func (p *rustParser) collectUseClause(clause *sitter.Node, source []byte, s *extraction.Structure) {
	switch clause.Kind() {
	case "use_as_clause":
		path := clause.ChildByFieldName("path")
		if path == nil {
			s.AddIssue(newIssue(clause, "use alias without a path"))
			return
		}
		p.collectUseClause(path, source, s)

	case "scoped_identifier":
		module, name := splitLast(extractNodeText(clause, source), "::")
		if module == "" {
			s.AddImport(name, []string{extraction.Wildcard})
			return
		}
		s.AddImport(module, []string{name})

	case "use_wildcard":
		module := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(extractNodeText(clause, source)), "*"))
		s.AddImport(strings.TrimSuffix(module, "::"), []string{extraction.Wildcard})

	case "scoped_use_list":
		module := ""
		if path := clause.ChildByFieldName("path"); path != nil {
			module = extractNodeText(path, source)
		}
		s.AddImport(module, useListNames(clause.ChildByFieldName("list"), source))

	case "use_list":
		for _, item := range namedChildren(clause) {
			p.collectUseClause(item, source, s)
		}

	default:
		// identifier, crate, self, super
		s.AddImport(extractNodeText(clause, source), []string{extraction.Wildcard})
	}
}

// useListNames returns the original names inside a `{...}` use list.
func useListNames(list *sitter.Node, source []byte) []string {
	names := []string{}
	for _, item := range namedChildren(list) {
		switch item.Kind() {
		case "use_as_clause":
			if path := item.ChildByFieldName("path"); path != nil {
				names = append(names, extractNodeText(path, source))
			}
		case "use_wildcard":
			names = append(names, extraction.Wildcard)
		default:
			names = append(names, extractNodeText(item, source))
		}
	}
	return names
}

// collectExports records top-level items; impl and trait members become Type.method.
// Methods of an impl that precedes its type are held back and emitted right
// after the type's record. Impls of types declared elsewhere keep their methods
// at the end of the list, in source order.
func (p *rustParser) collectExports(root *sitter.Node, source []byte, s *extraction.Structure) {
	declared := make(map[string]bool)
	pending := make(map[string][]extraction.ExportRecord)
	var pendingOrder []string

	declare := func(name string) {
		if name == "" {
			return
		}
		declared[name] = true
		s.Exports = append(s.Exports, pending[name]...)
		delete(pending, name)
	}

	for _, item := range namedChildren(root) {
		switch item.Kind() {
		case "function_item":
			p.addNamed(item, extraction.KindFunction, source, s)
		case "struct_item", "enum_item", "union_item":
			declare(p.addNamed(item, extraction.KindClass, source, s))
		case "trait_item":
			if name := p.addNamed(item, extraction.KindClass, source, s); name != "" {
				s.Exports = append(s.Exports, p.members(item.ChildByFieldName("body"), name, source, s)...)
				declare(name)
			}
		case "impl_item":
			typeNode := item.ChildByFieldName("type")
			if typeNode == nil {
				s.AddIssue(newIssue(item, "impl without a type"))
				continue
			}
			name := rustTypeName(typeNode, source)
			methods := p.members(item.ChildByFieldName("body"), name, source, s)
			if declared[name] {
				s.Exports = append(s.Exports, methods...)
				continue
			}
			if _, ok := pending[name]; !ok {
				pendingOrder = append(pendingOrder, name)
			}
			pending[name] = append(pending[name], methods...)
		case "const_item", "static_item", "type_item":
			p.addNamed(item, extraction.KindVariable, source, s)
		}
	}

	for _, name := range pendingOrder {
		s.Exports = append(s.Exports, pending[name]...)
	}
}

// addNamed records an item by its name field and returns the name.
func (p *rustParser) addNamed(item *sitter.Node, kind extraction.Kind, source []byte, s *extraction.Structure) string {
	nameNode := item.ChildByFieldName("name")
	if nameNode == nil {
		s.AddIssue(newIssue(item, "item without a name"))
		return ""
	}
	name := extractNodeText(nameNode, source)
	s.AddExport(name, kind, locationOf(item))
	return name
}

// members returns the functions declared directly in an impl or trait body.
func (p *rustParser) members(body *sitter.Node, container string, source []byte, s *extraction.Structure) []extraction.ExportRecord {
	var records []extraction.ExportRecord
	for _, member := range namedChildren(body) {
		switch member.Kind() {
		case "function_item", "function_signature_item":
			nameNode := member.ChildByFieldName("name")
			if nameNode == nil {
				s.AddIssue(newIssue(member, "method without a name"))
				continue
			}
			records = append(records, extraction.ExportRecord{
				Name: container + "." + extractNodeText(nameNode, source),
				Kind: extraction.KindMethod,
				Loc:  locationOf(member),
			})
		}
	}
	return records
}

// rustTypeName strips generic arguments from an impl target: Stack<T> → Stack.
func rustTypeName(node *sitter.Node, source []byte) string {
	if node.Kind() == "generic_type" {
		if inner := node.ChildByFieldName("type"); inner != nil {
			return extractNodeText(inner, source)
		}
	}
	return extractNodeText(node, source)
}
