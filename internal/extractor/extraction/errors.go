package extraction

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingPath indicates the caller did not supply a file path.
	ErrMissingPath = errors.New("missing file path")

	// ErrUnsupportedLanguage indicates no extractor is registered for a file.
	ErrUnsupportedLanguage = errors.New("unsupported language")
)

// SyntaxError reports that the grammar could not build a clean tree.
// Line and Column locate the first error or missing node.
type SyntaxError struct {
	Lang    string
	Line    int
	Column  int
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s syntax error at line %d, column %d: %s", e.Lang, e.Line, e.Column, e.Message)
}

// IsSyntaxError reports whether err is or wraps a *SyntaxError.
func IsSyntaxError(err error) bool {
	var syntaxErr *SyntaxError
	return errors.As(err, &syntaxErr)
}

// TraversalError describes one declaration that had an unexpected shape and was skipped.
type TraversalError struct {
	NodeKind string
	Loc      Location
	Reason   string
}

func (e *TraversalError) Error() string {
	return fmt.Sprintf("skipped %s at %d:%d: %s", e.NodeKind, e.Loc.Line, e.Loc.Column, e.Reason)
}
