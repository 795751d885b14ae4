package output

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/telwatch/internal/adb"
)

// CLIError represents a structured CLI error with remediation hints.
type CLIError struct {
	Message string // What failed
	Cause   string // Why it failed (optional)
	Hint    string // Fastest command/action to fix it (optional)
	Code    string // Error code for programmatic handling (optional)
}

// Error implements the error interface.
func (e *CLIError) Error() string {
	return e.Message
}

// NewCLIError creates a new CLI error with just a message.
func NewCLIError(msg string) *CLIError {
	return &CLIError{Message: msg}
}

// WithCause adds a cause to the error.
func (e *CLIError) WithCause(cause string) *CLIError {
	e.Cause = cause
	return e
}

// WithHint adds a remediation hint to the error.
func (e *CLIError) WithHint(hint string) *CLIError {
	e.Hint = hint
	return e
}

// WithCode adds an error code to the error.
func (e *CLIError) WithCode(code string) *CLIError {
	e.Code = code
	return e
}

// FormatCLIError formats a CLIError for terminal output, with colors when
// color is true.
func FormatCLIError(e *CLIError, color bool) string {
	render := func(style lipgloss.Style, s string) string {
		if !color {
			return s
		}
		return style.Render(s)
	}
	errorStyle := lipgloss.NewStyle().Foreground(ColorError).Bold(true)
	causeStyle := lipgloss.NewStyle().Foreground(ColorSubtext)
	hintStyle := lipgloss.NewStyle().Foreground(ColorInfo)
	codeStyle := lipgloss.NewStyle().Foreground(ColorOverlay)

	var sb strings.Builder
	sb.WriteString(render(errorStyle, "Error: "))
	sb.WriteString(e.Message)
	if e.Code != "" {
		sb.WriteString(" ")
		sb.WriteString(render(codeStyle, "["+e.Code+"]"))
	}
	sb.WriteString("\n")

	if e.Cause != "" {
		sb.WriteString(render(causeStyle, "  Cause: "))
		sb.WriteString(e.Cause)
		sb.WriteString("\n")
	}
	if e.Hint != "" {
		sb.WriteString(render(hintStyle, "  Hint: "))
		sb.WriteString(e.Hint)
		sb.WriteString("\n")
	}
	return sb.String()
}

// PrintCLIErrorOrJSON writes e to stdout as JSON or to stderr as text.
func PrintCLIErrorOrJSON(e *CLIError, jsonMode bool) error {
	return WriteCLIError(os.Stdout, os.Stderr, e, jsonMode)
}

// WriteCLIError writes e as JSON to stdout or as text to stderr.
func WriteCLIError(stdout, stderr io.Writer, e *CLIError, jsonMode bool) error {
	if jsonMode {
		return WriteJSON(stdout, ErrorResponse{
			Error:   e.Message,
			Code:    e.Code,
			Details: e.Cause,
			Hint:    e.Hint,
		}, true)
	}
	_, err := fmt.Fprint(stderr, FormatCLIError(e, UseColor(stderr)))
	return err
}

// Common error hints
var (
	HintADBNotInstalled = "Install Android platform-tools, or set device.adb_path in the config"
	HintNoDevice        = "Check 'adb devices'; enable USB debugging or set device.connect_address"
	HintConfigInvalid   = "Check config syntax with 'telwatch config show' or edit the file at 'telwatch config path'"
	HintHistoryDisabled = "Enable [history] in the config to log calls"
)

// ToCLIError maps err to a CLIError, attaching hints for known failures.
func ToCLIError(err error) *CLIError {
	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return cliErr
	}
	switch {
	case errors.Is(err, adb.ErrNotInstalled):
		return NewCLIError("adb is not installed").
			WithCause(err.Error()).
			WithCode("ADB_NOT_INSTALLED").
			WithHint(HintADBNotInstalled)
	case errors.Is(err, adb.ErrNoDevice):
		return NewCLIError("no device attached").
			WithCause(err.Error()).
			WithCode("NO_DEVICE").
			WithHint(HintNoDevice)
	default:
		return NewCLIError(err.Error())
	}
}

// ConfigInvalidError creates a config error with hint
func ConfigInvalidError(err error) *CLIError {
	return NewCLIError("could not load config").
		WithCause(err.Error()).
		WithCode("CONFIG_INVALID").
		WithHint(HintConfigInvalid)
}
