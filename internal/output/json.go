package output

import (
	"encoding/json"
	"io"
	"os"
)

// ErrorResponse is the standard JSON error format
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
	Hint    string `json:"hint,omitempty"`
}

// NewError creates a new error response
func NewError(msg string) ErrorResponse {
	return ErrorResponse{Error: msg}
}

// JSON outputs data as JSON to the formatter's writer
func (f *Formatter) JSON(v interface{}) error {
	return WriteJSON(f.writer, v, f.pretty)
}

// WriteJSON writes data as JSON to the given writer
func WriteJSON(w io.Writer, v interface{}, pretty bool) error {
	encoder := json.NewEncoder(w)
	if pretty {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(v)
}

// PrintJSON writes data as JSON to stdout
func PrintJSON(v interface{}) error {
	return WriteJSON(os.Stdout, v, true)
}
