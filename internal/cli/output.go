package cli

import (
	"encoding/json"
	"io"
)

// writeJSON encodes v as one JSON document followed by a newline.
// Non-ASCII text and HTML characters are written unescaped.
func writeJSON(w io.Writer, v interface{}, pretty bool) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
