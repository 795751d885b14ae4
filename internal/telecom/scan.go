package telecom

import (
	"strings"

	"github.com/theirongolddev/telwatch/internal/dumpsys"
)

const callHandleAnchor = "CALL_HANDLE (tel:"

// CallerNumber returns the number in the CALL_HANDLE field that follows the
// first "Call<id>" marker (no space between "Call" and the id), up to the
// next comma. The marker is a plain prefix match, so an id such as TC@1
// also matches "CallTC@10"; the first occurrence in the dump wins.
func CallerNumber(dump, callID string) string {
	idx := strings.Index(dump, "Call"+callID)
	if idx < 0 {
		return ""
	}
	rest := dump[idx:]
	h := strings.Index(rest, callHandleAnchor)
	if h < 0 {
		return ""
	}
	return readField(rest[h+len(callHandleAnchor):])
}

// CallState returns the raw telecom state from the
// "Call id=<id>, state=<STATE>," log line.
func CallState(dump, callID string) string {
	anchor := "Call id=" + callID + ", state="
	idx := strings.Index(dump, anchor)
	if idx < 0 {
		return ""
	}
	return readField(dump[idx+len(anchor):])
}

// readField returns s up to the first comma (or all of s), trimmed.
func readField(s string) string {
	if end := strings.IndexByte(s, ','); end >= 0 {
		s = s[:end]
	}
	return strings.TrimSpace(s)
}

// Observation is everything one dump says about the tracked call.
type Observation struct {
	// Active is true when CallsManager lists at least one call.
	Active bool `json:"active"`
	// CallID is the first listed call, empty when Active is false.
	CallID string `json:"callId,omitempty"`
	// Direction comes from the call's analytics block.
	Direction string `json:"direction,omitempty"`
	// RawState is the telecom state string, e.g. "RINGING" or "ACTIVE".
	RawState string `json:"rawState,omitempty"`
	// CallerID is the number from the call's CALL_HANDLE field.
	CallerID string `json:"callerId,omitempty"`
}

// Observe runs every locator and scanner over one dump.
func Observe(dump string) Observation {
	id, ok := CurrentCallID(dumpsys.Parse(dump))
	if !ok {
		return Observation{}
	}
	return Observation{
		Active:    true,
		CallID:    id,
		Direction: Direction(ExtractAnalytics(dump, id)),
		RawState:  CallState(dump, id),
		CallerID:  CallerNumber(dump, id),
	}
}
