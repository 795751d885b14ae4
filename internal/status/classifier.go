package status

import (
	"sync"
	"time"

	"github.com/theirongolddev/telwatch/internal/telecom"
	"github.com/theirongolddev/telwatch/internal/util"
)

// Context is the state carried from one poll to the next.
type Context struct {
	// Previous is the state derived on the last tick (empty before the first).
	Previous PhoneState `json:"previous,omitempty"`
	// InCallStart is when the current call connected; zero when no timer runs.
	InCallStart time.Time `json:"inCallStart,omitempty"`
}

// DerivePhoneState classifies one observation.
// Priority: no call > RINGING > DIALING > outgoing without state > in call
func DerivePhoneState(obs telecom.Observation) PhoneState {
	switch {
	case !obs.Active:
		return StateIdle
	case obs.RawState == "RINGING":
		return StateRinging
	case obs.RawState == "DIALING":
		return StateDialing
	case obs.Direction == "OUTGOING" && obs.RawState == "":
		return StateDialing
	default:
		return StateInCall
	}
}

// Classify derives the status for one tick and returns the context for the
// next one. The call timer starts on the tick that enters IN_CALL and is
// cleared on every IDLE tick.
func Classify(ctx Context, obs telecom.Observation, now time.Time) (CallStatus, Context) {
	state := DerivePhoneState(obs)

	next := ctx
	switch {
	case state == StateInCall && ctx.Previous != StateInCall:
		next.InCallStart = now
	case state == StateIdle:
		next.InCallStart = time.Time{}
	}
	next.Previous = state

	duration := "00:00:00"
	if !next.InCallStart.IsZero() {
		duration = util.FormatClock(now.Sub(next.InCallStart))
	}

	return CallStatus{
		PhoneState: state,
		Direction:  obs.Direction,
		CallerID:   obs.CallerID,
		Duration:   duration,
	}, next
}

// Classifier owns the carried Context and applies Classify tick by tick.
// Both carried fields are updated under one lock.
type Classifier struct {
	mu    sync.Mutex
	ctx   Context
	clock func() time.Time
}

// Option configures a Classifier
type Option func(*Classifier)

// WithClock replaces time.Now, for tests and replays.
func WithClock(clock func() time.Time) Option {
	return func(c *Classifier) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithContext seeds the carried state.
func WithContext(ctx Context) Option {
	return func(c *Classifier) {
		c.ctx = ctx
	}
}

// NewClassifier creates a Classifier starting from an empty context
func NewClassifier(opts ...Option) *Classifier {
	c := &Classifier{clock: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Tick classifies obs at the current clock time.
func (c *Classifier) Tick(obs telecom.Observation) CallStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	st, next := Classify(c.ctx, obs, c.clock())
	c.ctx = next
	return st
}

// Evaluate observes a raw dump and classifies it.
func (c *Classifier) Evaluate(dump string) CallStatus {
	return c.Tick(telecom.Observe(dump))
}

// Context returns a copy of the carried state.
func (c *Classifier) Context() Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ctx
}

// Reset clears the carried state.
func (c *Classifier) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ctx = Context{}
}
