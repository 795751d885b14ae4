package history

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/theirongolddev/telwatch/internal/events"
	"github.com/theirongolddev/telwatch/internal/logging"
	"github.com/theirongolddev/telwatch/internal/status"
)

// Inserter stores finished calls.
type Inserter interface {
	Insert(ctx context.Context, c Call) error
}

// Tracker turns the per-poll status stream into call records. A call opens
// when the state leaves IDLE and is written when it returns to IDLE.
type Tracker struct {
	store  Inserter
	bus    *events.EventBus
	logger *zap.Logger
	device string

	mu         sync.Mutex
	current    *Call
	answeredAt time.Time
	lastState  status.PhoneState
}

// TrackerOption configures a Tracker
type TrackerOption func(*Tracker)

// WithEvents publishes a call.ended event for every stored call.
func WithEvents(bus *events.EventBus, device string) TrackerOption {
	return func(t *Tracker) {
		t.bus = bus
		t.device = device
	}
}

// WithLogger sets the tracker's logger.
func WithLogger(l *zap.Logger) TrackerOption {
	return func(t *Tracker) { t.logger = logging.OrNop(l) }
}

// NewTracker creates a tracker writing to store
func NewTracker(store Inserter, opts ...TrackerOption) *Tracker {
	t := &Tracker{store: store, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Record feeds one status into the tracker.
func (t *Tracker) Record(ctx context.Context, st status.CallStatus, at time.Time) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.current == nil {
		if !st.PhoneState.IsActive() {
			return nil
		}
		t.current = &Call{
			ID:        uuid.NewString(),
			StartedAt: at.UTC(),
		}
		t.answeredAt = time.Time{}
		t.logger.Debug("call opened", zap.String("id", t.current.ID), zap.String("state", st.PhoneState.String()))
	}

	c := t.current
	if c.Direction == "" {
		c.Direction = st.Direction
	}
	if c.CallerID == "" {
		c.CallerID = st.CallerID
	}

	if st.PhoneState.IsActive() {
		if st.PhoneState == status.StateInCall && !c.Answered {
			c.Answered = true
			t.answeredAt = at
		}
		t.lastState = st.PhoneState
		return nil
	}

	c.EndedAt = at.UTC()
	c.FinalState = t.lastState.String()
	if c.Answered && at.After(t.answeredAt) {
		c.DurationSecs = at.Sub(t.answeredAt).Seconds()
	}
	t.current = nil

	if err := t.store.Insert(ctx, *c); err != nil {
		return err
	}
	t.logger.Info("call recorded",
		zap.String("id", c.ID),
		zap.String("direction", c.Direction),
		zap.Bool("answered", c.Answered),
		zap.Float64("duration_secs", c.DurationSecs))
	if t.bus != nil {
		t.bus.Publish(events.NewCallEndedEvent(t.device, c.ID, c.Direction, c.CallerID,
			c.Answered, time.Duration(c.DurationSecs*float64(time.Second)), at))
	}
	return nil
}

// Active returns the call in progress, if any.
func (t *Tracker) Active() (Call, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current == nil {
		return Call{}, false
	}
	return *t.current, true
}
