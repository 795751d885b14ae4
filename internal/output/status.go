package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/theirongolddev/telwatch/internal/status"
)

// StatusView is a CallStatus with presentation extras
type StatusView struct {
	status.CallStatus
	CallerFormatted string    `json:"callerFormatted,omitempty"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// StatusLine renders a one-line summary such as
// "RINGING INCOMING +15551234567 00:00:00".
func StatusLine(v StatusView) string {
	parts := []string{v.PhoneState.String()}
	if v.Direction != "" {
		parts = append(parts, v.Direction)
	}
	if caller := v.caller(); caller != "" {
		parts = append(parts, caller)
	}
	if v.PhoneState == status.StateInCall {
		parts = append(parts, v.Duration)
	}
	return strings.Join(parts, " ")
}

// RenderStatus writes a multi-line status block, styled when color is true.
func RenderStatus(w io.Writer, v StatusView, color bool) error {
	state := v.PhoneState.String()
	label := func(s string) string { return s }
	if color {
		state = StateStyle(v.PhoneState).Render(state)
		ls := LabelStyle()
		label = func(s string) string { return ls.Render(s) }
	}

	if _, err := fmt.Fprintf(w, "%s %s\n", v.PhoneState.Icon(), state); err != nil {
		return err
	}
	if v.Direction != "" {
		fmt.Fprintf(w, "  %s %s\n", label("Direction:"), v.Direction)
	}
	if caller := v.caller(); caller != "" {
		fmt.Fprintf(w, "  %s %s\n", label("Caller:   "), caller)
	}
	fmt.Fprintf(w, "  %s %s\n", label("Duration: "), v.Duration)
	return nil
}

func (v StatusView) caller() string {
	if v.CallerFormatted != "" {
		return v.CallerFormatted
	}
	return v.CallerID
}
