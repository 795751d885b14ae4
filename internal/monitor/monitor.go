// Package monitor polls the device's telecom dump on a fixed interval and
// turns each capture into a call status.
package monitor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/theirongolddev/telwatch/internal/events"
	"github.com/theirongolddev/telwatch/internal/logging"
	"github.com/theirongolddev/telwatch/internal/status"
)

const (
	// DefaultInterval is the poll cadence when none is configured
	DefaultInterval = 500 * time.Millisecond
	// MinInterval is the shortest accepted poll cadence
	MinInterval = 100 * time.Millisecond
)

// ErrAlreadyRunning is returned by Start when the loop is active.
var ErrAlreadyRunning = errors.New("monitor: already running")

// Fetcher captures one telecom dump.
type Fetcher interface {
	DumpTelecom(ctx context.Context) (string, error)
}

// Recorder receives every status produced by a successful poll.
type Recorder interface {
	Record(ctx context.Context, st status.CallStatus, at time.Time) error
}

// Stats counts poll outcomes since the monitor was created
type Stats struct {
	Polls     int64  `json:"polls"`
	Skipped   int64  `json:"skipped"`
	Failures  int64  `json:"failures"`
	Changes   int64  `json:"changes"`
	LastError string `json:"last_error,omitempty"`
}

// Monitor drives the classifier from periodic dumps
type Monitor struct {
	fetcher    Fetcher
	classifier *status.Classifier
	bus        *events.EventBus
	recorder   Recorder
	logger     *zap.Logger
	device     string
	onDump     func(dump string)
	now        func() time.Time

	interval   atomic.Int64
	intervalCh chan time.Duration
	inFlight   atomic.Bool
	pollMu     sync.Mutex

	polls    atomic.Int64
	skipped  atomic.Int64
	failures atomic.Int64
	changes  atomic.Int64

	mu       sync.RWMutex
	latest   status.CallStatus
	latestAt time.Time
	lastErr  string
	seen     bool

	runMu   sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	pollers sync.WaitGroup
}

// Option configures a Monitor
type Option func(*Monitor)

// WithInterval sets the poll cadence (clamped to MinInterval).
func WithInterval(d time.Duration) Option {
	return func(m *Monitor) { m.interval.Store(int64(clampInterval(d))) }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Monitor) { m.logger = logging.OrNop(l) }
}

// WithBus publishes status changes and poll failures to bus.
func WithBus(bus *events.EventBus) Option {
	return func(m *Monitor) { m.bus = bus }
}

// WithRecorder forwards every status to r.
func WithRecorder(r Recorder) Option {
	return func(m *Monitor) { m.recorder = r }
}

// WithClassifier replaces the default classifier.
func WithClassifier(c *status.Classifier) Option {
	return func(m *Monitor) {
		if c != nil {
			m.classifier = c
		}
	}
}

// WithDevice labels published events with the device serial.
func WithDevice(serial string) Option {
	return func(m *Monitor) { m.device = serial }
}

// WithDumpObserver calls fn with every captured dump before classification.
func WithDumpObserver(fn func(dump string)) Option {
	return func(m *Monitor) { m.onDump = fn }
}

// WithNow overrides the clock used for snapshot timestamps.
func WithNow(now func() time.Time) Option {
	return func(m *Monitor) {
		if now != nil {
			m.now = now
		}
	}
}

// New creates a monitor over fetcher
func New(fetcher Fetcher, opts ...Option) *Monitor {
	m := &Monitor{
		fetcher:    fetcher,
		classifier: status.NewClassifier(),
		logger:     zap.NewNop(),
		now:        time.Now,
		intervalCh: make(chan time.Duration, 1),
		latest:     status.IdleStatus(),
	}
	m.interval.Store(int64(DefaultInterval))
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start begins polling in the background. The first poll runs immediately.
func (m *Monitor) Start(ctx context.Context) error {
	m.runMu.Lock()
	defer m.runMu.Unlock()

	if m.done != nil {
		return ErrAlreadyRunning
	}

	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})
	go m.loop(ctx, m.done)
	return nil
}

// Stop halts the loop and waits for any outstanding poll.
func (m *Monitor) Stop() {
	m.runMu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel, m.done = nil, nil
	m.runMu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Run polls until ctx is canceled.
func (m *Monitor) Run(ctx context.Context) error {
	if err := m.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	m.Stop()
	return nil
}

// Interval returns the current poll cadence
func (m *Monitor) Interval() time.Duration {
	return time.Duration(m.interval.Load())
}

// SetInterval changes the cadence; a running loop picks it up right away.
func (m *Monitor) SetInterval(d time.Duration) {
	d = clampInterval(d)
	if time.Duration(m.interval.Swap(int64(d))) == d {
		return
	}
	select {
	case m.intervalCh <- d:
	default:
		// a pending change is already queued; the loop reads the latest value
	}
}

// Latest returns the last status and when it was produced.
func (m *Monitor) Latest() (status.CallStatus, time.Time) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.latest, m.latestAt
}

// Stats returns a snapshot of the poll counters
func (m *Monitor) Stats() Stats {
	m.mu.RLock()
	lastErr := m.lastErr
	m.mu.RUnlock()
	return Stats{
		Polls:     m.polls.Load(),
		Skipped:   m.skipped.Load(),
		Failures:  m.failures.Load(),
		Changes:   m.changes.Load(),
		LastError: lastErr,
	}
}

// loop is the main poll loop
func (m *Monitor) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer m.pollers.Wait()

	ticker := time.NewTicker(m.Interval())
	defer ticker.Stop()

	m.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-m.intervalCh:
			d := m.Interval()
			ticker.Reset(d)
			m.logger.Info("poll interval changed", zap.Duration("interval", d))
		case <-ticker.C:
			m.tick(ctx)
		}
	}
}

// tick starts a poll unless the previous one is still outstanding.
func (m *Monitor) tick(ctx context.Context) {
	if !m.inFlight.CompareAndSwap(false, true) {
		n := m.skipped.Add(1)
		m.logger.Debug("skipping tick, previous poll still running", zap.Int64("skipped", n))
		return
	}
	m.pollers.Add(1)
	go func() {
		defer m.pollers.Done()
		defer m.inFlight.Store(false)
		_, _ = m.Poll(ctx)
	}()
}

// Poll captures one dump and advances the classifier. On fetch failure the
// previous status is returned alongside the error and the classifier is
// left untouched.
func (m *Monitor) Poll(ctx context.Context) (status.CallStatus, error) {
	m.pollMu.Lock()
	defer m.pollMu.Unlock()

	m.polls.Add(1)
	dump, err := m.fetcher.DumpTelecom(ctx)
	now := m.now()
	if err != nil {
		return m.fail(ctx, err, now)
	}
	if m.onDump != nil {
		m.onDump(dump)
	}

	st := m.classifier.Evaluate(dump)

	m.mu.Lock()
	prev, seen := m.latest.PhoneState, m.seen
	m.latest, m.latestAt, m.seen, m.lastErr = st, now, true, ""
	m.mu.Unlock()

	if !seen || prev != st.PhoneState {
		if !seen {
			prev = ""
		}
		m.changes.Add(1)
		m.logger.Info("phone state changed",
			zap.String("from", prev.String()),
			zap.String("to", st.PhoneState.String()),
			zap.String("direction", st.Direction),
			zap.String("caller", st.CallerID))
		if m.bus != nil {
			m.bus.Publish(events.NewStatusEvent(m.device, prev, st, now))
		}
	}

	if m.recorder != nil {
		if err := m.recorder.Record(ctx, st, now); err != nil {
			m.logger.Warn("recording status failed", zap.Error(err))
		}
	}
	return st, nil
}

// fail records a fetch error. A fetch cut short by cancellation is not a
// failure and leaves stats and events untouched.
func (m *Monitor) fail(ctx context.Context, err error, now time.Time) (status.CallStatus, error) {
	if ctx.Err() != nil {
		last, _ := m.Latest()
		return last, err
	}

	n := m.failures.Add(1)

	m.mu.Lock()
	m.lastErr = err.Error()
	last := m.latest
	m.mu.Unlock()

	m.logger.Warn("telecom dump failed", zap.Error(err), zap.Int64("failures", n))
	if m.bus != nil {
		m.bus.Publish(events.NewPollErrorEvent(m.device, err, n, now))
	}
	return last, err
}

func clampInterval(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultInterval
	}
	if d < MinInterval {
		return MinInterval
	}
	return d
}
