// Package live implements the interactive terminal view of the phone's
// call status.
package live

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/telwatch/internal/output"
	"github.com/theirongolddev/telwatch/internal/status"
	"github.com/theirongolddev/telwatch/internal/telecom"
)

// Poller runs one status poll.
type Poller interface {
	Poll(ctx context.Context) (status.CallStatus, error)
}

// Controller answers and ends calls.
type Controller interface {
	Answer(ctx context.Context) error
	HangUp(ctx context.Context) error
}

// tickMsg schedules the next poll
type tickMsg time.Time

// StatusMsg carries the result of a poll
type StatusMsg struct {
	Status status.CallStatus
	Err    error
	At     time.Time
}

// ActionMsg reports the result of a key-triggered call action
type ActionMsg struct {
	Action string
	Err    error
}

// Model is the bubbletea model for the live view
type Model struct {
	ctx      context.Context
	poller   Poller
	ctrl     Controller
	interval time.Duration
	region   string
	device   string
	keys     KeyMap
	help     help.Model

	status  status.CallStatus
	updated time.Time
	err     error
	notice  string
	polled  bool
	width   int
}

// Option configures a Model
type Option func(*Model)

// WithInterval sets the poll cadence.
func WithInterval(d time.Duration) Option {
	return func(m *Model) {
		if d > 0 {
			m.interval = d
		}
	}
}

// WithRegion sets the region used to format caller numbers.
func WithRegion(region string) Option {
	return func(m *Model) { m.region = region }
}

// WithDevice labels the header with the device serial.
func WithDevice(serial string) Option {
	return func(m *Model) { m.device = serial }
}

// New creates a live view model
func New(ctx context.Context, poller Poller, ctrl Controller, opts ...Option) Model {
	m := Model{
		ctx:      ctx,
		poller:   poller,
		ctrl:     ctrl,
		interval: 500 * time.Millisecond,
		region:   telecom.DefaultRegion,
		keys:     DefaultKeyMap,
		help:     help.New(),
		status:   status.IdleStatus(),
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// Init starts the first poll
func (m Model) Init() tea.Cmd {
	return m.poll()
}

func (m Model) poll() tea.Cmd {
	return func() tea.Msg {
		st, err := m.poller.Poll(m.ctx)
		return StatusMsg{Status: st, Err: err, At: time.Now()}
	}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) action(name string, fn func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return ActionMsg{Action: name, Err: fn(m.ctx)}
	}
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Answer):
			m.notice = "answering..."
			return m, m.action("answer", m.ctrl.Answer)
		case key.Matches(msg, m.keys.HangUp):
			m.notice = "hanging up..."
			return m, m.action("hang up", m.ctrl.HangUp)
		}
		return m, nil

	case StatusMsg:
		m.polled = true
		m.err = msg.Err
		if msg.Err == nil {
			m.status = msg.Status
			m.updated = msg.At
		}
		return m, m.tick()

	case tickMsg:
		return m, m.poll()

	case ActionMsg:
		if msg.Err != nil {
			m.notice = fmt.Sprintf("%s failed: %v", msg.Action, msg.Err)
		} else {
			m.notice = msg.Action + " sent"
		}
		return m, nil
	}
	return m, nil
}

// View renders the model
func (m Model) View() string {
	var sb strings.Builder

	title := lipgloss.NewStyle().Bold(true).Render("telwatch")
	if m.device != "" {
		title += lipgloss.NewStyle().Foreground(output.ColorOverlay).Render("  " + m.device)
	}
	sb.WriteString(title + "\n\n")

	if !m.polled {
		sb.WriteString("  waiting for first dump...\n")
	} else {
		view := output.StatusView{CallStatus: m.status, UpdatedAt: m.updated}
		if m.status.CallerID != "" {
			view.CallerFormatted = telecom.FormatCaller(m.status.CallerID, m.region)
		}
		_ = output.RenderStatus(&sb, view, true)
	}

	sb.WriteString("\n")
	if m.err != nil {
		sb.WriteString(lipgloss.NewStyle().Foreground(output.ColorError).Render("  poll failed: "+m.err.Error()) + "\n")
	} else if !m.updated.IsZero() {
		sb.WriteString(output.LabelStyle().Render("  updated "+m.updated.Format("15:04:05")) + "\n")
	}
	if m.notice != "" {
		sb.WriteString("  " + m.notice + "\n")
	}
	sb.WriteString("\n" + m.help.View(m.keys) + "\n")
	return sb.String()
}

// Status returns the last successfully polled status
func (m Model) Status() status.CallStatus {
	return m.status
}

// Run starts the live view and blocks until the user quits or ctx ends.
func Run(ctx context.Context, poller Poller, ctrl Controller, opts ...Option) error {
	p := tea.NewProgram(New(ctx, poller, ctrl, opts...), tea.WithAltScreen())

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			p.Quit()
		case <-done:
		}
	}()

	_, err := p.Run()
	return err
}
