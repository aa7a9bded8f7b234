package extraction

// Wildcard is the specifier recorded when an import binds a whole module.
const Wildcard = "*"

// Kind classifies an exported symbol.
type Kind string

const (
	KindFunction Kind = "function"
	KindClass    Kind = "class"
	KindVariable Kind = "variable"
	KindMethod   Kind = "method"
)

// Location is the position of a declaration.
// Line is one-based, Column is a zero-based byte offset within the line.
type Location struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// ImportRecord is one import-like statement normalized to a source and the names it binds.
type ImportRecord struct {
	Source     string   `json:"source"`
	Specifiers []string `json:"specifiers"`
}

// ExportRecord is a top-level symbol declared by a file.
type ExportRecord struct {
	Name string   `json:"name"`
	Kind Kind     `json:"type"`
	Loc  Location `json:"loc"`
}

// Structure is what a language extractor collects from one syntax tree.
// It is owned by a single extraction call and never shared.
type Structure struct {
	Imports []ImportRecord
	Exports []ExportRecord

	// Issues lists declarations that were skipped because of an unexpected shape.
	Issues []*TraversalError
}

// NewStructure returns an empty structure with non-nil slices so it serializes as arrays.
func NewStructure() *Structure {
	return &Structure{
		Imports: []ImportRecord{},
		Exports: []ExportRecord{},
	}
}

// AddImport appends an import record, normalizing nil specifiers to an empty list.
func (s *Structure) AddImport(source string, specifiers []string) {
	if specifiers == nil {
		specifiers = []string{}
	}
	s.Imports = append(s.Imports, ImportRecord{Source: source, Specifiers: specifiers})
}

// AddExport appends an export record.
func (s *Structure) AddExport(name string, kind Kind, loc Location) {
	s.Exports = append(s.Exports, ExportRecord{Name: name, Kind: kind, Loc: loc})
}

// AddIssue records a skipped declaration.
func (s *Structure) AddIssue(err *TraversalError) {
	s.Issues = append(s.Issues, err)
}

// Meta carries timing and degradation flags for a result.
type Meta struct {
	ParseMs     int64 `json:"parseMs"`
	SyntaxError bool  `json:"syntaxError,omitempty"`
}

// Result is the canonical per-file output record.
type Result struct {
	File    string         `json:"file"`
	Lang    string         `json:"lang"`
	Imports []ImportRecord `json:"imports"`
	Exports []ExportRecord `json:"exports"`
	Meta    Meta           `json:"meta"`
}

// ErrorDocument is emitted instead of a Result when no extraction could run at all.
// File is set in batch output so failures can be matched to their input.
type ErrorDocument struct {
	File  string `json:"file,omitempty"`
	Error string `json:"error"`
}
