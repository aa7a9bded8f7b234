package parsers

import (
	"context"

	sitter "github.com/tree-sitter/go-tree-sitter"
	typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"github.com/mvp-joe/cortex-extract/internal/extractor/extraction"
)

// tsStmtKind is the closed set of top-level TypeScript/JavaScript statement shapes.
type tsStmtKind int

const (
	tsStmtOther tsStmtKind = iota
	tsStmtImport
	tsStmtExport
	tsStmtFunction
	tsStmtClass
	tsStmtVariables
	tsStmtAmbient
	tsStmtTypeDecl
	tsStmtExpression
)

func classifyTSStatement(kind string) tsStmtKind {
	switch kind {
	case "import_statement":
		return tsStmtImport
	case "export_statement":
		return tsStmtExport
	case "function_declaration", "generator_function_declaration", "function_signature",
		"function_expression", "function", "generator_function", "arrow_function":
		return tsStmtFunction
	case "class_declaration", "abstract_class_declaration", "class":
		return tsStmtClass
	case "lexical_declaration", "variable_declaration":
		return tsStmtVariables
	case "ambient_declaration":
		return tsStmtAmbient
	case "interface_declaration", "type_alias_declaration", "enum_declaration",
		"internal_module", "module":
		return tsStmtTypeDecl
	case "expression_statement":
		return tsStmtExpression
	default:
		return tsStmtOther
	}
}

// typeScriptParser extracts ES module and CommonJS structure from TypeScript and JavaScript.
type typeScriptParser struct {
	*treeSitterParser
}

// NewTypeScriptParser creates a parser for .ts files.
func NewTypeScriptParser() *typeScriptParser {
	lang := sitter.NewLanguage(typescript.LanguageTypescript())
	return &typeScriptParser{
		treeSitterParser: newTreeSitterParser(lang, "ts"),
	}
}

// NewTSXParser creates a parser for .tsx files.
func NewTSXParser() *typeScriptParser {
	lang := sitter.NewLanguage(typescript.LanguageTSX())
	return &typeScriptParser{
		treeSitterParser: newTreeSitterParser(lang, "ts"),
	}
}

// NewJavaScriptParser creates a parser for JavaScript files.
// The TSX grammar is a superset of JavaScript with JSX.
func NewJavaScriptParser() *typeScriptParser {
	lang := sitter.NewLanguage(typescript.LanguageTSX())
	return &typeScriptParser{
		treeSitterParser: newTreeSitterParser(lang, "js"),
	}
}

// Extract parses TypeScript or JavaScript source.
func (p *typeScriptParser) Extract(ctx context.Context, source []byte) (*extraction.Structure, error) {
	return p.extract(ctx, source, p)
}

// collectImports records top-level import declarations, re-exports with a
// source, and top-level require() calls, in declaration order.
func (p *typeScriptParser) collectImports(root *sitter.Node, source []byte, s *extraction.Structure) {
	for _, stmt := range namedChildren(root) {
		switch classifyTSStatement(stmt.Kind()) {
		case tsStmtImport:
			p.collectImport(stmt, source, s)
		case tsStmtExport:
			p.collectReexport(stmt, source, s)
			if decl := stmt.ChildByFieldName("declaration"); decl != nil {
				p.collectRequires(decl, source, s)
			}
		case tsStmtVariables, tsStmtExpression:
			p.collectRequires(stmt, source, s)
		case tsStmtOther, tsStmtFunction, tsStmtClass, tsStmtAmbient, tsStmtTypeDecl:
		}
	}
}

// collectImport handles `import d, * as ns, { a as b } from "m"` and `import x = require("m")`.
func (p *typeScriptParser) collectImport(stmt *sitter.Node, source []byte, s *extraction.Structure) {
	if clause := findChildByType(stmt, "import_require_clause"); clause != nil {
		src := clause.ChildByFieldName("source")
		if src == nil {
			s.AddIssue(newIssue(clause, "require clause without a source"))
			return
		}
		s.AddImport(unquote(extractNodeText(src, source)), []string{extraction.Wildcard})
		return
	}

	src := stmt.ChildByFieldName("source")
	if src == nil {
		s.AddIssue(newIssue(stmt, "import without a source"))
		return
	}

	specifiers := []string{}
	if clause := findChildByType(stmt, "import_clause"); clause != nil {
		for _, child := range namedChildren(clause) {
			switch child.Kind() {
			case "identifier":
				specifiers = append(specifiers, "default")
			case "namespace_import":
				specifiers = append(specifiers, extraction.Wildcard)
			case "named_imports":
				for _, spec := range findChildrenByType(child, "import_specifier") {
					if name := spec.ChildByFieldName("name"); name != nil {
						specifiers = append(specifiers, unquote(extractNodeText(name, source)))
					}
				}
			}
		}
	}

	s.AddImport(unquote(extractNodeText(src, source)), specifiers)
}

// collectReexport handles `export * from "m"` and `export { a, b as c } from "m"`.
func (p *typeScriptParser) collectReexport(stmt *sitter.Node, source []byte, s *extraction.Structure) {
	src := stmt.ChildByFieldName("source")
	if src == nil {
		return
	}

	specifiers := []string{}
	if clause := findChildByType(stmt, "export_clause"); clause != nil {
		for _, spec := range findChildrenByType(clause, "export_specifier") {
			if name := spec.ChildByFieldName("name"); name != nil {
				specifiers = append(specifiers, unquote(extractNodeText(name, source)))
			}
		}
	} else {
		specifiers = append(specifiers, extraction.Wildcard)
	}

	s.AddImport(unquote(extractNodeText(src, source)), specifiers)
}

// collectRequires finds require("m") calls in a top-level declaration or expression statement.
func (p *typeScriptParser) collectRequires(stmt *sitter.Node, source []byte, s *extraction.Structure) {
	switch classifyTSStatement(stmt.Kind()) {
	case tsStmtVariables:
		for _, decl := range findChildrenByType(stmt, "variable_declarator") {
			value := decl.ChildByFieldName("value")
			module, ok := requiredModule(value, source)
			if !ok {
				continue
			}
			s.AddImport(module, requireBindings(decl.ChildByFieldName("name"), source))
		}
	case tsStmtExpression:
		for _, expr := range namedChildren(stmt) {
			if module, ok := requiredModule(expr, source); ok {
				s.AddImport(module, []string{})
			}
		}
	case tsStmtOther, tsStmtImport, tsStmtExport, tsStmtFunction, tsStmtClass, tsStmtAmbient, tsStmtTypeDecl:
	}
}

// requiredModule reports the module of a `require("m")` call expression.
func requiredModule(node *sitter.Node, source []byte) (string, bool) {
	if node == nil || node.Kind() != "call_expression" {
		return "", false
	}
	fn := node.ChildByFieldName("function")
	if fn == nil || fn.Kind() != "identifier" || extractNodeText(fn, source) != "require" {
		return "", false
	}
	args := namedChildren(node.ChildByFieldName("arguments"))
	if len(args) != 1 || args[0].Kind() != "string" {
		return "", false
	}
	return unquote(extractNodeText(args[0], source)), true
}

// requireBindings maps the binding of `const x = require(...)` to specifiers:
// an identifier binds the whole module, a destructuring pattern binds its keys.
func requireBindings(name *sitter.Node, source []byte) []string {
	if name == nil {
		return []string{}
	}
	switch name.Kind() {
	case "identifier":
		return []string{extraction.Wildcard}
	case "object_pattern":
		specifiers := []string{}
		for _, prop := range namedChildren(name) {
			switch prop.Kind() {
			case "shorthand_property_identifier_pattern":
				specifiers = append(specifiers, extractNodeText(prop, source))
			case "pair_pattern":
				if key := prop.ChildByFieldName("key"); key != nil {
					specifiers = append(specifiers, unquote(extractNodeText(key, source)))
				}
			}
		}
		return specifiers
	default:
		return []string{}
	}
}

// tsDecl is a top-level declaration available to `export { ... }` clauses.
type tsDecl struct {
	kind extraction.Kind
	loc  extraction.Location
}

// collectExports records exported top-level declarations and the direct methods of exported classes.
func (p *typeScriptParser) collectExports(root *sitter.Node, source []byte, s *extraction.Structure) {
	locals := p.localDeclarations(root, source)

	for _, stmt := range namedChildren(root) {
		if classifyTSStatement(stmt.Kind()) != tsStmtExport {
			continue
		}
		p.visitExport(stmt, source, locals, s)
	}
}

func (p *typeScriptParser) visitExport(stmt *sitter.Node, source []byte, locals map[string]tsDecl, s *extraction.Structure) {
	isDefault := findChildByType(stmt, "default") != nil

	if decl := stmt.ChildByFieldName("declaration"); decl != nil {
		if isDefault {
			p.visitDefault(decl, source, locals, s)
			return
		}
		p.visitDeclaration(decl, source, s)
		return
	}

	if value := stmt.ChildByFieldName("value"); value != nil {
		p.visitDefault(value, source, locals, s)
		return
	}

	// Re-exports with a source are dependencies, not local symbols.
	if stmt.ChildByFieldName("source") != nil {
		return
	}

	clause := findChildByType(stmt, "export_clause")
	if clause == nil {
		return
	}
	for _, spec := range findChildrenByType(clause, "export_specifier") {
		nameNode := spec.ChildByFieldName("name")
		if nameNode == nil {
			s.AddIssue(newIssue(spec, "export specifier without a name"))
			continue
		}
		local := extractNodeText(nameNode, source)
		exported := local
		if alias := spec.ChildByFieldName("alias"); alias != nil {
			exported = unquote(extractNodeText(alias, source))
		}
		if decl, ok := locals[local]; ok {
			s.AddExport(exported, decl.kind, decl.loc)
			continue
		}
		s.AddExport(exported, extraction.KindVariable, locationOf(spec))
	}
}

// visitDeclaration records one exported declaration.
func (p *typeScriptParser) visitDeclaration(decl *sitter.Node, source []byte, s *extraction.Structure) {
	switch classifyTSStatement(decl.Kind()) {
	case tsStmtAmbient:
		for _, inner := range namedChildren(decl) {
			p.visitDeclaration(inner, source, s)
		}

	case tsStmtFunction:
		nameNode := decl.ChildByFieldName("name")
		if nameNode == nil {
			s.AddIssue(newIssue(decl, "function without a name"))
			return
		}
		s.AddExport(extractNodeText(nameNode, source), extraction.KindFunction, locationOf(decl))

	case tsStmtClass:
		nameNode := decl.ChildByFieldName("name")
		if nameNode == nil {
			s.AddIssue(newIssue(decl, "class without a name"))
			return
		}
		name := extractNodeText(nameNode, source)
		s.AddExport(name, extraction.KindClass, locationOf(decl))
		p.collectMethods(decl, name, source, s)

	case tsStmtVariables:
		for _, declarator := range findChildrenByType(decl, "variable_declarator") {
			nameNode := declarator.ChildByFieldName("name")
			if nameNode == nil || nameNode.Kind() != "identifier" {
				continue
			}
			s.AddExport(extractNodeText(nameNode, source), extraction.KindVariable, locationOf(nameNode))
		}

	case tsStmtTypeDecl:
		nameNode := decl.ChildByFieldName("name")
		if nameNode == nil {
			s.AddIssue(newIssue(decl, "declaration without a name"))
			return
		}
		s.AddExport(extractNodeText(nameNode, source), extraction.KindVariable, locationOf(decl))

	case tsStmtOther, tsStmtImport, tsStmtExport, tsStmtExpression:
		s.AddIssue(newIssue(decl, "unsupported exported declaration"))
	}
}

// visitDefault records `export default ...` under the name "default".
func (p *typeScriptParser) visitDefault(node *sitter.Node, source []byte, locals map[string]tsDecl, s *extraction.Structure) {
	switch classifyTSStatement(node.Kind()) {
	case tsStmtFunction:
		s.AddExport("default", extraction.KindFunction, locationOf(node))
	case tsStmtClass:
		s.AddExport("default", extraction.KindClass, locationOf(node))
		p.collectMethods(node, "default", source, s)
	case tsStmtOther, tsStmtImport, tsStmtExport, tsStmtVariables, tsStmtAmbient, tsStmtTypeDecl, tsStmtExpression:
		if node.Kind() == "identifier" {
			if decl, ok := locals[extractNodeText(node, source)]; ok {
				s.AddExport("default", decl.kind, decl.loc)
				return
			}
		}
		s.AddExport("default", extraction.KindVariable, locationOf(node))
	}
}

// collectMethods records the direct methods of a class body as Container.method.
func (p *typeScriptParser) collectMethods(class *sitter.Node, container string, source []byte, s *extraction.Structure) {
	body := class.ChildByFieldName("body")
	if body == nil {
		return
	}
	for _, member := range namedChildren(body) {
		switch member.Kind() {
		case "method_definition", "method_signature", "abstract_method_signature":
			nameNode := member.ChildByFieldName("name")
			if nameNode == nil {
				s.AddIssue(newIssue(member, "method without a name"))
				continue
			}
			s.AddExport(container+"."+extractNodeText(nameNode, source), extraction.KindMethod, locationOf(member))
		}
	}
}

// localDeclarations indexes top-level declarations by name so export clauses can be classified.
func (p *typeScriptParser) localDeclarations(root *sitter.Node, source []byte) map[string]tsDecl {
	locals := make(map[string]tsDecl)

	var index func(decl *sitter.Node)
	index = func(decl *sitter.Node) {
		switch classifyTSStatement(decl.Kind()) {
		case tsStmtFunction:
			if nameNode := decl.ChildByFieldName("name"); nameNode != nil {
				locals[extractNodeText(nameNode, source)] = tsDecl{kind: extraction.KindFunction, loc: locationOf(decl)}
			}
		case tsStmtClass:
			if nameNode := decl.ChildByFieldName("name"); nameNode != nil {
				locals[extractNodeText(nameNode, source)] = tsDecl{kind: extraction.KindClass, loc: locationOf(decl)}
			}
		case tsStmtVariables:
			for _, declarator := range findChildrenByType(decl, "variable_declarator") {
				if nameNode := declarator.ChildByFieldName("name"); nameNode != nil && nameNode.Kind() == "identifier" {
					locals[extractNodeText(nameNode, source)] = tsDecl{kind: extraction.KindVariable, loc: locationOf(nameNode)}
				}
			}
		case tsStmtTypeDecl:
			if nameNode := decl.ChildByFieldName("name"); nameNode != nil {
				locals[extractNodeText(nameNode, source)] = tsDecl{kind: extraction.KindVariable, loc: locationOf(decl)}
			}
		case tsStmtAmbient:
			for _, inner := range namedChildren(decl) {
				index(inner)
			}
		case tsStmtOther, tsStmtImport, tsStmtExport, tsStmtExpression:
		}
	}

	for _, stmt := range namedChildren(root) {
		if classifyTSStatement(stmt.Kind()) == tsStmtExport {
			if decl := stmt.ChildByFieldName("declaration"); decl != nil {
				index(decl)
			}
			continue
		}
		index(stmt)
	}
	return locals
}
