package adb

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeExec records invocations and replays canned responses in order.
type fakeExec struct {
	mu        sync.Mutex
	calls     [][]string
	responses []fakeResponse
}

type fakeResponse struct {
	out string
	err error
}

func (f *fakeExec) run(ctx context.Context, name string, args ...string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, append([]string{name}, args...))
	if len(f.responses) == 0 {
		return "", nil
	}
	r := f.responses[0]
	if len(f.responses) > 1 {
		f.responses = f.responses[1:]
	}
	return r.out, r.err
}

func (f *fakeExec) last() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return nil
	}
	return f.calls[len(f.calls)-1]
}

func newTestClient(f *fakeExec, opts ...Option) *Client {
	c := NewClient(opts...)
	c.exec = f.run
	return c
}

func TestShellQuote(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "''"},
		{"simple", "'simple'"},
		{"with space", "'with space'"},
		{"it's", `'it'\''s'`},
		{"$HOME; rm -rf /", "'$HOME; rm -rf /'"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ShellQuote(tt.in); got != tt.want {
				t.Fatalf("ShellQuote(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestBuildRemoteShellCommand(t *testing.T) {
	got := buildRemoteShellCommand("adb", "-s", "emulator-5554", "shell", "dumpsys telecom")
	want := "'adb' '-s' 'emulator-5554' 'shell' 'dumpsys telecom'"
	if got != want {
		t.Fatalf("buildRemoteShellCommand() = %q, want %q", got, want)
	}
}

func TestRunLocalAddsSerial(t *testing.T) {
	f := &fakeExec{responses: []fakeResponse{{out: "dump"}}}
	c := newTestClient(f, WithSerial("R58M123"), WithADBPath("/opt/adb"))

	out, err := c.DumpTelecom(context.Background())
	if err != nil {
		t.Fatalf("DumpTelecom: %v", err)
	}
	if out != "dump" {
		t.Errorf("out = %q, want dump", out)
	}

	want := "/opt/adb -s R58M123 shell dumpsys telecom"
	if got := strings.Join(f.last(), " "); got != want {
		t.Errorf("command = %q, want %q", got, want)
	}
}

func TestRunRemoteUsesSSH(t *testing.T) {
	f := &fakeExec{}
	c := newTestClient(f, WithRemote("pi@phonehost"))

	if err := c.Answer(context.Background()); err != nil {
		t.Fatalf("Answer: %v", err)
	}

	call := f.last()
	if len(call) != 4 || call[0] != "ssh" || call[1] != "--" || call[2] != "pi@phonehost" {
		t.Fatalf("unexpected ssh invocation: %q", call)
	}
	if call[3] != "'adb' 'shell' 'input' 'keyevent' 'KEYCODE_CALL'" {
		t.Errorf("remote command = %q", call[3])
	}
}

func TestRunAppliesTimeout(t *testing.T) {
	c := NewClient(WithTimeout(20 * time.Millisecond))
	c.exec = func(ctx context.Context, name string, args ...string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}

	_, err := c.Run(context.Background(), "shell", "true")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestDumpTelecomWrapsError(t *testing.T) {
	f := &fakeExec{responses: []fakeResponse{{err: ErrNoDevice}}}
	c := newTestClient(f)

	_, err := c.DumpTelecom(context.Background())
	if !errors.Is(err, ErrNoDevice) {
		t.Fatalf("expected ErrNoDevice, got %v", err)
	}
}

func TestDial(t *testing.T) {
	f := &fakeExec{}
	c := newTestClient(f)

	if err := c.Dial(context.Background(), "(650) 253-0000"); err != nil {
		t.Fatalf("Dial: %v", err)
	}
	want := "adb shell am start -a android.intent.action.CALL -d 'tel:6502530000'"
	if got := strings.Join(f.last(), " "); got != want {
		t.Errorf("command = %q, want %q", got, want)
	}

	if err := c.Dial(context.Background(), "*#06#"); err != nil {
		t.Fatalf("Dial USSD: %v", err)
	}
	if got := f.last()[len(f.last())-1]; got != "'tel:*%2306%23'" {
		t.Errorf("uri = %q", got)
	}
}

func TestDialRejectsInvalidNumber(t *testing.T) {
	f := &fakeExec{}
	c := newTestClient(f)

	for _, n := range []string{"", "123; reboot", "abc"} {
		if err := c.Dial(context.Background(), n); err == nil {
			t.Errorf("Dial(%q) should fail", n)
		}
	}
	if len(f.calls) != 0 {
		t.Errorf("invalid numbers should not reach adb, got %d calls", len(f.calls))
	}
}

func TestHangUp(t *testing.T) {
	f := &fakeExec{}
	c := newTestClient(f, WithSerial("emulator-5554"))

	if err := c.HangUp(context.Background()); err != nil {
		t.Fatalf("HangUp: %v", err)
	}
	want := "adb -s emulator-5554 shell input keyevent KEYCODE_ENDCALL"
	if got := strings.Join(f.last(), " "); got != want {
		t.Errorf("command = %q, want %q", got, want)
	}
}

func TestConnectRetries(t *testing.T) {
	f := &fakeExec{responses: []fakeResponse{
		{out: "failed to connect to '192.168.1.20:5555': Connection refused"},
		{err: errors.New("adb connect: exit status 1")},
		{out: "connected to 192.168.1.20:5555"},
	}}
	c := newTestClient(f, WithSerial("ignored-for-connect"))

	if err := c.Connect(context.Background(), "192.168.1.20:5555", 5, time.Millisecond); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if len(f.calls) != 3 {
		t.Errorf("attempts = %d, want 3", len(f.calls))
	}
	if got := strings.Join(f.last(), " "); got != "adb connect 192.168.1.20:5555" {
		t.Errorf("command = %q", got)
	}
}

func TestConnectAlreadyConnected(t *testing.T) {
	f := &fakeExec{responses: []fakeResponse{{out: "already connected to 10.0.0.5:5555"}}}
	c := newTestClient(f)
	if err := c.Connect(context.Background(), "10.0.0.5:5555", 3, time.Millisecond); err != nil {
		t.Fatalf("Connect: %v", err)
	}
}

func TestConnectGivesUp(t *testing.T) {
	f := &fakeExec{responses: []fakeResponse{{out: "failed to connect"}}}
	c := newTestClient(f)

	err := c.Connect(context.Background(), "10.0.0.5:5555", 3, time.Millisecond)
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if len(f.calls) != 3 {
		t.Errorf("attempts = %d, want 3", len(f.calls))
	}
}

func TestConnectHonorsCancel(t *testing.T) {
	f := &fakeExec{responses: []fakeResponse{{out: "failed to connect"}}}
	c := newTestClient(f)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := c.Connect(ctx, "10.0.0.5:5555", 10, time.Hour)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestConnectSkipsEmptyAddress(t *testing.T) {
	f := &fakeExec{}
	c := newTestClient(f)
	if err := c.Connect(context.Background(), "", 3, time.Millisecond); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if len(f.calls) != 0 {
		t.Errorf("expected no adb calls, got %d", len(f.calls))
	}
}

func TestParseDevices(t *testing.T) {
	out := `* daemon not running; starting now at tcp:5037
* daemon started successfully
List of devices attached
emulator-5554	device
R58M123ABC	unauthorized

192.168.1.20:5555	offline`

	got := parseDevices(out)
	want := []Device{
		{Serial: "emulator-5554", State: "device"},
		{Serial: "R58M123ABC", State: "unauthorized"},
		{Serial: "192.168.1.20:5555", State: "offline"},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d devices, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("device[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestIsNoDeviceMessage(t *testing.T) {
	yes := []string{
		"adb: no devices/emulators found",
		"error: device offline",
		"adb: device 'R58' not found",
	}
	for _, msg := range yes {
		if !isNoDeviceMessage(msg) {
			t.Errorf("isNoDeviceMessage(%q) = false", msg)
		}
	}
	if isNoDeviceMessage("Permission denied") {
		t.Error("unrelated message classified as no device")
	}
}
