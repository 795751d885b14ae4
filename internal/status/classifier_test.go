package status

import (
	"sync"
	"testing"
	"time"

	"github.com/theirongolddev/telwatch/internal/telecom"
)

// fakeClock is a manually advanced clock for timer tests
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

const (
	idleDump = `CallsManager:
  mCallAudioManager:
    Active dialing, or connecting calls:
`
	ringingDump = `CallsManager:
  mCallAudioManager:
    All calls:
      TC@1
  mCalls:
    Call id=TC@1, state=RINGING, tpac=null
Historical Calls:
  CallTC@1 [created]
    CREATED (CALL_HANDLE (tel:+15551234567, pres=1))
Analytics:
  Call TC@1: { direction: INCOMING }
`
	outgoingDump = `CallsManager:
  mCallAudioManager:
    All calls:
      TC@2
Analytics:
  Call TC@2: {
      direction: OUTGOING
  }
`
	activeDump = `CallsManager:
  mCallAudioManager:
    All calls:
      TC@3
  mCalls:
    Call id=TC@3, state=ACTIVE, tpac=null
Analytics:
  Call TC@3: {
      direction: INCOMING
`
)

func TestDerivePhoneState(t *testing.T) {
	tests := []struct {
		name string
		obs  telecom.Observation
		want PhoneState
	}{
		{"no call", telecom.Observation{}, StateIdle},
		{"inactive ignores state", telecom.Observation{RawState: "RINGING"}, StateIdle},
		{"ringing", telecom.Observation{Active: true, RawState: "RINGING"}, StateRinging},
		{"ringing outgoing", telecom.Observation{Active: true, RawState: "RINGING", Direction: "OUTGOING"}, StateRinging},
		{"dialing", telecom.Observation{Active: true, RawState: "DIALING"}, StateDialing},
		{"outgoing no state", telecom.Observation{Active: true, Direction: "OUTGOING"}, StateDialing},
		{"outgoing active", telecom.Observation{Active: true, Direction: "OUTGOING", RawState: "ACTIVE"}, StateInCall},
		{"incoming no state", telecom.Observation{Active: true, Direction: "INCOMING"}, StateInCall},
		{"unknown everything", telecom.Observation{Active: true}, StateInCall},
		{"on hold", telecom.Observation{Active: true, RawState: "ON_HOLD"}, StateInCall},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DerivePhoneState(tt.obs); got != tt.want {
				t.Errorf("DerivePhoneState() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScenarioNoCall(t *testing.T) {
	c := NewClassifier()
	got := c.Evaluate(idleDump)
	if got != IdleStatus() {
		t.Errorf("got %+v, want %+v", got, IdleStatus())
	}
	if got.Direction != "" || got.CallerID != "" || got.Duration != "00:00:00" {
		t.Errorf("idle status should be empty, got %+v", got)
	}
}

func TestScenarioRingingInbound(t *testing.T) {
	c := NewClassifier()
	got := c.Evaluate(ringingDump)

	if got.PhoneState != StateRinging {
		t.Errorf("PhoneState = %v, want RINGING", got.PhoneState)
	}
	if got.Direction != "INCOMING" {
		t.Errorf("Direction = %q, want INCOMING", got.Direction)
	}
	if got.CallerID != "+15551234567" {
		t.Errorf("CallerID = %q, want +15551234567", got.CallerID)
	}
	if got.Duration != "00:00:00" {
		t.Errorf("Duration = %q, want 00:00:00", got.Duration)
	}
}

func TestScenarioOutgoingWithoutState(t *testing.T) {
	c := NewClassifier()
	got := c.Evaluate(outgoingDump)
	if got.PhoneState != StateDialing {
		t.Errorf("PhoneState = %v, want DIALING", got.PhoneState)
	}
	if got.Direction != "OUTGOING" {
		t.Errorf("Direction = %q, want OUTGOING", got.Direction)
	}
}

func TestScenarioOutgoingInlineAnalytics(t *testing.T) {
	dump := `CallsManager:
  mCallAudioManager:
    All calls:
      TC@4
Analytics:
  Call TC@4: { direction: OUTGOING, callTechnologies: 6 }
`
	got := NewClassifier().Evaluate(dump)
	if got.PhoneState != StateDialing {
		t.Errorf("PhoneState = %v, want DIALING", got.PhoneState)
	}
	if got.Direction != "OUTGOING" {
		t.Errorf("Direction = %q, want OUTGOING", got.Direction)
	}
}

func TestScenarioSustainedCall(t *testing.T) {
	clock := newFakeClock()
	c := NewClassifier(WithClock(clock.Now))

	first := c.Evaluate(activeDump)
	if first.PhoneState != StateInCall {
		t.Fatalf("tick 1 PhoneState = %v, want IN_CALL", first.PhoneState)
	}
	if first.Duration != "00:00:00" {
		t.Errorf("tick 1 Duration = %q, want 00:00:00", first.Duration)
	}

	clock.Advance(5 * time.Second)
	second := c.Evaluate(activeDump)
	if second.Duration != "00:00:05" {
		t.Errorf("tick 2 Duration = %q, want 00:00:05", second.Duration)
	}

	clock.Advance(time.Hour)
	third := c.Evaluate(activeDump)
	if third.Duration != "01:00:05" {
		t.Errorf("tick 3 Duration = %q, want 01:00:05", third.Duration)
	}
}

func TestScenarioMalformedAnalytics(t *testing.T) {
	// activeDump's analytics block never closes; direction is dropped but
	// the call is still classified from its raw state.
	c := NewClassifier()
	got := c.Evaluate(activeDump)
	if got.PhoneState != StateInCall {
		t.Errorf("PhoneState = %v, want IN_CALL", got.PhoneState)
	}
	if got.Direction != "" {
		t.Errorf("Direction = %q, want empty", got.Direction)
	}
}

func TestTimerResetsOnIdle(t *testing.T) {
	clock := newFakeClock()
	c := NewClassifier(WithClock(clock.Now))

	c.Evaluate(activeDump)
	clock.Advance(30 * time.Second)
	c.Evaluate(idleDump)
	if !c.Context().InCallStart.IsZero() {
		t.Fatal("timer should clear on IDLE after IN_CALL")
	}

	clock.Advance(10 * time.Second)
	got := c.Evaluate(activeDump)
	if got.Duration != "00:00:00" {
		t.Errorf("new call Duration = %q, want 00:00:00", got.Duration)
	}
}

func TestTimerClearsOnIdleEvenWithoutPriorCall(t *testing.T) {
	// The timer is cleared on every IDLE tick, not only after IN_CALL.
	start := time.Date(2024, 3, 1, 11, 0, 0, 0, time.UTC)
	ctx := Context{Previous: StateRinging, InCallStart: start}

	st, next := Classify(ctx, telecom.Observation{}, start.Add(time.Minute))
	if st.Duration != "00:00:00" {
		t.Errorf("Duration = %q, want 00:00:00", st.Duration)
	}
	if !next.InCallStart.IsZero() {
		t.Error("InCallStart should be cleared on IDLE regardless of previous state")
	}
	if next.Previous != StateIdle {
		t.Errorf("Previous = %v, want IDLE", next.Previous)
	}
}

func TestTimerSurvivesRingingDuringCall(t *testing.T) {
	clock := newFakeClock()
	c := NewClassifier(WithClock(clock.Now))

	c.Evaluate(activeDump)
	clock.Advance(20 * time.Second)

	// call waiting: the tracked call reports RINGING for a tick
	waiting := c.Tick(telecom.Observation{Active: true, RawState: "RINGING"})
	if waiting.Duration != "00:00:20" {
		t.Errorf("Duration while ringing = %q, want 00:00:20", waiting.Duration)
	}

	// re-entering IN_CALL from a non-IN_CALL state restarts the timer
	clock.Advance(5 * time.Second)
	back := c.Evaluate(activeDump)
	if back.Duration != "00:00:00" {
		t.Errorf("Duration after re-entering IN_CALL = %q, want 00:00:00", back.Duration)
	}
}

func TestRingingToInCallStartsTimer(t *testing.T) {
	clock := newFakeClock()
	c := NewClassifier(WithClock(clock.Now))

	c.Evaluate(ringingDump)
	clock.Advance(8 * time.Second)
	answered := c.Evaluate(activeDump)
	if answered.Duration != "00:00:00" {
		t.Errorf("Duration at answer = %q, want 00:00:00", answered.Duration)
	}
	if got := c.Context().InCallStart; !got.Equal(clock.Now()) {
		t.Errorf("InCallStart = %v, want %v", got, clock.Now())
	}
}

func TestClassifyIsPure(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	ctx := Context{}
	obs := telecom.Observation{Active: true, RawState: "ACTIVE"}

	a, nextA := Classify(ctx, obs, now)
	b, nextB := Classify(ctx, obs, now)
	if a != b || nextA != nextB {
		t.Errorf("Classify not deterministic: %+v/%+v vs %+v/%+v", a, nextA, b, nextB)
	}
	if ctx != (Context{}) {
		t.Error("Classify mutated its input context")
	}
}

func TestClassifierReset(t *testing.T) {
	c := NewClassifier(WithContext(Context{Previous: StateInCall, InCallStart: time.Now()}))
	c.Reset()
	if c.Context() != (Context{}) {
		t.Errorf("Reset left context %+v", c.Context())
	}
}

func TestClassifierConcurrentTicks(t *testing.T) {
	c := NewClassifier()
	obs := telecom.Observation{Active: true, RawState: "ACTIVE"}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Tick(obs)
		}()
	}
	wg.Wait()

	ctx := c.Context()
	if ctx.Previous != StateInCall || ctx.InCallStart.IsZero() {
		t.Errorf("unexpected context after concurrent ticks: %+v", ctx)
	}
}

func TestPhoneStateHelpers(t *testing.T) {
	if StateIdle.IsActive() {
		t.Error("IDLE should not be active")
	}
	for _, s := range []PhoneState{StateRinging, StateDialing, StateInCall} {
		if !s.IsActive() {
			t.Errorf("%v should be active", s)
		}
		if s.Icon() == "" {
			t.Errorf("%v has no icon", s)
		}
	}
	if StateInCall.String() != "IN_CALL" {
		t.Errorf("String() = %q", StateInCall.String())
	}
}
