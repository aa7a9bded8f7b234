package parsers

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/mvp-joe/cortex-extract/internal/extractor/extraction"
)

// Extractor turns the source text of one language into imports and exports.
// Implementations hold no per-call state and are safe for concurrent use.
type Extractor interface {
	// Lang returns the language tag reported in results (e.g. "py", "ts").
	Lang() string

	// Extract parses source and collects its structure.
	// A tree with error or missing nodes yields an *extraction.SyntaxError.
	Extract(ctx context.Context, source []byte) (*extraction.Structure, error)
}

// structureCollector is implemented by each language to walk a clean tree.
type structureCollector interface {
	collectImports(root *sitter.Node, source []byte, s *extraction.Structure)
	collectExports(root *sitter.Node, source []byte, s *extraction.Structure)
}

// syntaxChecker is implemented by languages whose grammar accepts input the
// language itself rejects. It returns the offending node and a message, or nil.
type syntaxChecker interface {
	checkSyntax(root *sitter.Node) (*sitter.Node, string)
}

// treeSitterParser provides the parse step shared by every language.
type treeSitterParser struct {
	language *sitter.Language
	lang     string
}

// newTreeSitterParser creates a new tree-sitter parser for the given language.
func newTreeSitterParser(language *sitter.Language, lang string) *treeSitterParser {
	return &treeSitterParser{
		language: language,
		lang:     lang,
	}
}

// Lang returns the language tag.
func (p *treeSitterParser) Lang() string {
	return p.lang
}

// extract parses source and runs both collectors of c over the tree.
// Each call owns its parser, tree and accumulator.
func (p *treeSitterParser) extract(ctx context.Context, source []byte, c structureCollector) (*extraction.Structure, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	parser := sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(p.language); err != nil {
		return nil, fmt.Errorf("failed to load %s grammar: %w", p.lang, err)
	}

	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, &extraction.SyntaxError{Lang: p.lang, Line: 1, Message: "parser produced no tree"}
	}
	defer tree.Close()

	rootNode := tree.RootNode()
	if rootNode.HasError() {
		return nil, newSyntaxError(p.lang, rootNode, source)
	}
	if checker, ok := c.(syntaxChecker); ok {
		if bad, msg := checker.checkSyntax(rootNode); bad != nil {
			loc := locationOf(bad)
			return nil, &extraction.SyntaxError{Lang: p.lang, Line: loc.Line, Column: loc.Column, Message: msg}
		}
	}

	s := extraction.NewStructure()
	c.collectImports(rootNode, source, s)
	c.collectExports(rootNode, source, s)
	return s, nil
}

// newSyntaxError locates the first error or missing node below root.
func newSyntaxError(lang string, root *sitter.Node, source []byte) *extraction.SyntaxError {
	bad := findErrorNode(root)
	if bad == nil {
		return &extraction.SyntaxError{Lang: lang, Line: 1, Message: "invalid syntax"}
	}

	loc := locationOf(bad)
	msg := "unexpected " + snippet(extractNodeText(bad, source))
	if bad.IsMissing() {
		msg = "missing " + bad.Kind()
	}
	return &extraction.SyntaxError{Lang: lang, Line: loc.Line, Column: loc.Column, Message: msg}
}

// findErrorNode returns the first ERROR or MISSING node in document order.
func findErrorNode(node *sitter.Node) *sitter.Node {
	if node == nil {
		return nil
	}
	if node.IsError() || node.IsMissing() {
		return node
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		if child.HasError() || child.IsMissing() {
			if found := findErrorNode(child); found != nil {
				return found
			}
		}
	}
	return nil
}

// snippet shortens node text for diagnostics.
func snippet(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if len(text) > 24 {
		text = text[:24] + "..."
	}
	return fmt.Sprintf("%q", text)
}

// extractNodeText extracts the text content of a tree-sitter node.
func extractNodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	return string(source[node.StartByte():node.EndByte()])
}

// locationOf converts a node's start point to a one-based line, zero-based column.
func locationOf(node *sitter.Node) extraction.Location {
	pos := node.StartPosition()
	return extraction.Location{
		Line:   int(pos.Row) + 1,
		Column: int(pos.Column),
	}
}

// namedChildren returns the named children of node, skipping comments.
func namedChildren(node *sitter.Node) []*sitter.Node {
	var results []*sitter.Node
	if node == nil {
		return results
	}

	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child == nil || child.Kind() == "comment" {
			continue
		}
		results = append(results, child)
	}
	return results
}

// childrenAfter returns the named children that follow the first anonymous token with the given text.
func childrenAfter(node *sitter.Node, token string) []*sitter.Node {
	var results []*sitter.Node
	seen := false
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		if !seen {
			seen = !child.IsNamed() && child.Kind() == token
			continue
		}
		if child.IsNamed() && child.Kind() != "comment" {
			results = append(results, child)
		}
	}
	return results
}

// findChildByType finds the first child node with the given type.
func findChildByType(node *sitter.Node, nodeType string) *sitter.Node {
	if node == nil {
		return nil
	}

	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child != nil && child.Kind() == nodeType {
			return child
		}
	}
	return nil
}

// findChildrenByType finds all child nodes with the given type.
func findChildrenByType(node *sitter.Node, nodeType string) []*sitter.Node {
	var results []*sitter.Node
	if node == nil {
		return results
	}

	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child != nil && child.Kind() == nodeType {
			results = append(results, child)
		}
	}
	return results
}

// unquote strips one layer of matching string delimiters.
func unquote(text string) string {
	if len(text) >= 2 {
		first, last := text[0], text[len(text)-1]
		if first == last && (first == '"' || first == '\'' || first == '`') {
			return text[1 : len(text)-1]
		}
		if first == '<' && last == '>' {
			return text[1 : len(text)-1]
		}
	}
	return text
}

// splitLast splits a qualified path at the last separator.
// "a.b.C" with "." gives ("a.b", "C"); a path without separator gives ("", path).
func splitLast(path, sep string) (string, string) {
	idx := strings.LastIndex(path, sep)
	if idx < 0 {
		return "", path
	}
	return path[:idx], path[idx+len(sep):]
}

// newIssue builds a TraversalError for a skipped node.
func newIssue(node *sitter.Node, reason string) *extraction.TraversalError {
	return &extraction.TraversalError{
		NodeKind: node.Kind(),
		Loc:      locationOf(node),
		Reason:   reason,
	}
}
