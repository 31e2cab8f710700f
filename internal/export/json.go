package export

import (
	"encoding/json"
	"io"

	"github.com/radload-io/radload/internal/engine"
)

// JSON writes the full result document, indented for humans.
func JSON(w io.Writer, result *engine.RunResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// WriteJSON writes the result document to path, creating parent
// directories as needed.
func WriteJSON(path string, result *engine.RunResult) error {
	return writeFile(path, func(w io.Writer) error {
		return JSON(w, result)
	})
}
