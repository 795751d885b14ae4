// Package status derives the phone's call status from what a telecom dump
// says about the tracked call. It enables monitoring whether the device is
// idle, ringing, dialing, or in a call, and for how long.
package status

// PhoneState is the four-way classification of telephony activity
type PhoneState string

const (
	// StateIdle indicates no call is tracked
	StateIdle PhoneState = "IDLE"
	// StateRinging indicates an incoming call waiting to be answered
	StateRinging PhoneState = "RINGING"
	// StateDialing indicates an outgoing call not yet connected
	StateDialing PhoneState = "DIALING"
	// StateInCall indicates a connected call
	StateInCall PhoneState = "IN_CALL"
)

// Icon returns the visual indicator for a state
func (s PhoneState) Icon() string {
	switch s {
	case StateIdle:
		return "\u26aa" // white circle
	case StateRinging:
		return "\U0001f514" // bell
	case StateDialing:
		return "\U0001f7e1" // yellow circle
	case StateInCall:
		return "\U0001f7e2" // green circle
	default:
		return "\u26ab" // black circle
	}
}

// String returns the string representation of the state
func (s PhoneState) String() string {
	return string(s)
}

// IsActive returns true for every state except idle
func (s PhoneState) IsActive() bool {
	return s == StateRinging || s == StateDialing || s == StateInCall
}

// CallStatus is the snapshot produced on every poll
type CallStatus struct {
	// PhoneState is the derived classification
	PhoneState PhoneState `json:"phoneState"`
	// Direction is "INCOMING", "OUTGOING", or empty
	Direction string `json:"direction"`
	// CallerID is the number from the call handle, possibly empty
	CallerID string `json:"callerID"`
	// Duration is HH:MM:SS elapsed since the call connected
	Duration string `json:"duration"`
}

// IdleStatus returns the status reported when no call is tracked
func IdleStatus() CallStatus {
	return CallStatus{
		PhoneState: StateIdle,
		Duration:   "00:00:00",
	}
}
