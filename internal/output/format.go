// Package output provides text and JSON rendering for telwatch commands.
package output

import (
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Format represents the output format type
type Format int

const (
	// FormatText is human-readable formatted text (default)
	FormatText Format = iota
	// FormatJSON is machine-readable JSON output
	FormatJSON
)

// String returns the string representation of the format
func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	default:
		return "text"
	}
}

// Formatter handles output formatting for commands
type Formatter struct {
	format Format
	writer io.Writer
	pretty bool // For JSON: whether to indent
}

// New creates a new Formatter with the given options
func New(opts ...Option) *Formatter {
	f := &Formatter{
		format: FormatText,
		writer: os.Stdout,
		pretty: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Option is a functional option for Formatter
type Option func(*Formatter)

// WithJSON sets the output format to JSON
func WithJSON(enabled bool) Option {
	return func(f *Formatter) {
		if enabled {
			f.format = FormatJSON
		} else {
			f.format = FormatText
		}
	}
}

// WithWriter sets the output writer
func WithWriter(w io.Writer) Option {
	return func(f *Formatter) {
		f.writer = w
	}
}

// WithPretty sets whether JSON should be indented
func WithPretty(pretty bool) Option {
	return func(f *Formatter) {
		f.pretty = pretty
	}
}

// IsJSON returns true if the output format is JSON
func (f *Formatter) IsJSON() bool {
	return f.format == FormatJSON
}

// Writer returns the output writer
func (f *Formatter) Writer() io.Writer {
	return f.writer
}

// OutputData outputs either JSON or calls the text function
func (f *Formatter) OutputData(jsonData interface{}, textFn func(w io.Writer) error) error {
	if f.IsJSON() {
		return f.JSON(jsonData)
	}
	return textFn(f.writer)
}

// DetectFormat determines the output format.
// Priority: explicit flag > TELWATCH_OUTPUT_FORMAT > default text
func DetectFormat(jsonFlag bool) Format {
	if jsonFlag {
		return FormatJSON
	}
	switch strings.ToLower(os.Getenv("TELWATCH_OUTPUT_FORMAT")) {
	case "json":
		return FormatJSON
	default:
		return FormatText
	}
}

// IsTerminal returns true if stdout is a terminal
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
