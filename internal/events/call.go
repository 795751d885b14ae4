package events

import (
	"time"

	"github.com/theirongolddev/telwatch/internal/status"
)

const (
	// TypeStatusChanged is published when the phone state changes
	TypeStatusChanged = "status.changed"
	// TypePollFailed is published when a dump could not be captured
	TypePollFailed = "poll.failed"
	// TypeCallEnded is published when a call returns to idle and is logged
	TypeCallEnded = "call.ended"
)

// StatusEvent is emitted when the phone state changes
type StatusEvent struct {
	BaseEvent
	Previous status.PhoneState `json:"previous"`
	Status   status.CallStatus `json:"status"`
}

// NewStatusEvent creates a new status changed event
func NewStatusEvent(device string, previous status.PhoneState, st status.CallStatus, at time.Time) StatusEvent {
	return StatusEvent{
		BaseEvent: BaseEvent{
			Type:      TypeStatusChanged,
			Timestamp: at.UTC(),
			Device:    device,
		},
		Previous: previous,
		Status:   st,
	}
}

// PollErrorEvent is emitted when a poll fails to capture a dump
type PollErrorEvent struct {
	BaseEvent
	Error    string `json:"error"`
	Failures int64  `json:"failures"`
}

// NewPollErrorEvent creates a new poll failure event
func NewPollErrorEvent(device string, err error, failures int64, at time.Time) PollErrorEvent {
	return PollErrorEvent{
		BaseEvent: BaseEvent{
			Type:      TypePollFailed,
			Timestamp: at.UTC(),
			Device:    device,
		},
		Error:    err.Error(),
		Failures: failures,
	}
}

// CallEndedEvent is emitted when a finished call has been recorded
type CallEndedEvent struct {
	BaseEvent
	CallID       string  `json:"call_id"`
	Direction    string  `json:"direction,omitempty"`
	CallerID     string  `json:"caller_id,omitempty"`
	Answered     bool    `json:"answered"`
	DurationSecs float64 `json:"duration_secs"`
}

// NewCallEndedEvent creates a new call ended event
func NewCallEndedEvent(device, callID, direction, callerID string, answered bool, duration time.Duration, at time.Time) CallEndedEvent {
	return CallEndedEvent{
		BaseEvent: BaseEvent{
			Type:      TypeCallEnded,
			Timestamp: at.UTC(),
			Device:    device,
		},
		CallID:       callID,
		Direction:    direction,
		CallerID:     callerID,
		Answered:     answered,
		DurationSecs: duration.Seconds(),
	}
}
