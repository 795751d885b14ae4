package live

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/theirongolddev/telwatch/internal/status"
)

type fakePoller struct {
	st  status.CallStatus
	err error
	n   int
}

func (f *fakePoller) Poll(ctx context.Context) (status.CallStatus, error) {
	f.n++
	return f.st, f.err
}

type fakeCtrl struct {
	answers, hangups int
	err              error
}

func (f *fakeCtrl) Answer(ctx context.Context) error { f.answers++; return f.err }
func (f *fakeCtrl) HangUp(ctx context.Context) error { f.hangups++; return f.err }

func keyMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func ringing() status.CallStatus {
	return status.CallStatus{PhoneState: status.StateRinging, Direction: "INCOMING", CallerID: "6502530000", Duration: "00:00:00"}
}

func TestInitPolls(t *testing.T) {
	p := &fakePoller{st: ringing()}
	m := New(context.Background(), p, &fakeCtrl{})

	msg := m.Init()()
	sm, ok := msg.(StatusMsg)
	if !ok {
		t.Fatalf("Init produced %T, want StatusMsg", msg)
	}
	if sm.Status != ringing() || p.n != 1 {
		t.Errorf("unexpected poll result %+v (polls=%d)", sm, p.n)
	}
}

func TestStatusMsgUpdatesView(t *testing.T) {
	m := New(context.Background(), &fakePoller{}, &fakeCtrl{}, WithDevice("emulator-5554"))
	if !strings.Contains(m.View(), "waiting") {
		t.Error("view should say it is waiting before the first poll")
	}

	next, cmd := m.Update(StatusMsg{Status: ringing(), At: time.Now()})
	if cmd == nil {
		t.Fatal("status update should schedule the next tick")
	}
	got := next.(Model)
	if got.Status() != ringing() {
		t.Errorf("Status() = %+v", got.Status())
	}

	view := got.View()
	for _, want := range []string{"RINGING", "INCOMING", "+16502530000", "emulator-5554"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestPollErrorKeepsStatus(t *testing.T) {
	m := New(context.Background(), &fakePoller{}, &fakeCtrl{})
	next, _ := m.Update(StatusMsg{Status: ringing(), At: time.Now()})
	next, cmd := next.(Model).Update(StatusMsg{Err: errors.New("device offline")})
	if cmd == nil {
		t.Error("polling should continue after an error")
	}

	got := next.(Model)
	if got.Status() != ringing() {
		t.Errorf("status lost after error: %+v", got.Status())
	}
	if !strings.Contains(got.View(), "device offline") {
		t.Error("view should show the poll error")
	}
}

func TestTickTriggersPoll(t *testing.T) {
	p := &fakePoller{st: status.IdleStatus()}
	m := New(context.Background(), p, &fakeCtrl{})
	_, cmd := m.Update(tickMsg(time.Now()))
	if cmd == nil {
		t.Fatal("tick should produce a poll command")
	}
	if _, ok := cmd().(StatusMsg); !ok {
		t.Error("poll command should produce a StatusMsg")
	}
}

func TestAnswerAndHangUpKeys(t *testing.T) {
	ctrl := &fakeCtrl{}
	m := New(context.Background(), &fakePoller{}, ctrl)

	next, cmd := m.Update(keyMsg("a"))
	if cmd == nil {
		t.Fatal("answer key should produce a command")
	}
	am := cmd().(ActionMsg)
	next, _ = next.(Model).Update(am)
	if ctrl.answers != 1 {
		t.Errorf("answers = %d, want 1", ctrl.answers)
	}
	if !strings.Contains(next.(Model).View(), "answer sent") {
		t.Error("view should confirm the answer")
	}

	ctrl.err = errors.New("adb: no device attached")
	_, cmd = next.(Model).Update(keyMsg("h"))
	next, _ = next.(Model).Update(cmd())
	if ctrl.hangups != 1 {
		t.Errorf("hangups = %d, want 1", ctrl.hangups)
	}
	if !strings.Contains(next.(Model).View(), "hang up failed") {
		t.Error("view should report the failed hang up")
	}
}

func TestQuitKey(t *testing.T) {
	m := New(context.Background(), &fakePoller{}, &fakeCtrl{})
	_, cmd := m.Update(keyMsg("q"))
	if cmd == nil {
		t.Fatal("quit key should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("quit key should produce tea.QuitMsg")
	}
}

func TestUnknownKeyIgnored(t *testing.T) {
	m := New(context.Background(), &fakePoller{}, &fakeCtrl{})
	if _, cmd := m.Update(keyMsg("x")); cmd != nil {
		t.Error("unbound key should not produce a command")
	}
}
