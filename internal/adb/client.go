// Package adb runs Android Debug Bridge commands against one device,
// either from the local machine or through ssh on a remote host that has
// the device attached.
package adb

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

var (
	// ErrNotInstalled is returned when the adb (or ssh) binary cannot be found.
	ErrNotInstalled = errors.New("adb: binary not found")
	// ErrNoDevice is returned when adb reports no matching device.
	ErrNoDevice = errors.New("adb: no device attached")
)

// DefaultTimeout bounds a single adb invocation when none is configured.
const DefaultTimeout = 5 * time.Second

// Runner executes adb with the given arguments and returns stdout.
type Runner interface {
	Run(ctx context.Context, args ...string) (string, error)
}

// execFunc runs a program and returns its trimmed stdout.
type execFunc func(ctx context.Context, name string, args ...string) (string, error)

// Client handles adb operations, optionally on a remote host
type Client struct {
	ADBPath string        // adb binary, "adb" by default
	Serial  string        // device serial passed as -s; empty uses the only device
	Remote  string        // "user@host" or empty for local
	Timeout time.Duration // per-command timeout; zero uses DefaultTimeout

	exec execFunc
}

// Option configures a Client
type Option func(*Client)

// WithSerial selects the target device.
func WithSerial(serial string) Option {
	return func(c *Client) { c.Serial = serial }
}

// WithRemote runs adb through ssh on host.
func WithRemote(host string) Option {
	return func(c *Client) { c.Remote = host }
}

// WithADBPath overrides the adb binary.
func WithADBPath(path string) Option {
	return func(c *Client) {
		if path != "" {
			c.ADBPath = path
		}
	}
}

// WithTimeout sets the per-command timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.Timeout = d }
}

// NewClient creates a new adb client
func NewClient(opts ...Option) *Client {
	c := &Client{
		ADBPath: "adb",
		Timeout: DefaultTimeout,
		exec:    runCommand,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run executes an adb command against the configured device.
func (c *Client) Run(ctx context.Context, args ...string) (string, error) {
	if c.Serial != "" {
		args = append([]string{"-s", c.Serial}, args...)
	}
	return c.run(ctx, args...)
}

// run executes adb without injecting the device serial.
func (c *Client) run(ctx context.Context, args ...string) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	run := c.exec
	if run == nil {
		run = runCommand
	}

	if c.Remote == "" {
		return run(ctx, c.ADBPath, args...)
	}

	// Remote execution via ssh
	remoteCmd := buildRemoteShellCommand(c.ADBPath, args...)
	// Use "--" to prevent Remote from being parsed as an ssh option.
	return run(ctx, "ssh", "--", c.Remote, remoteCmd)
}

// IsInstalled checks if adb is available on the target host
func (c *Client) IsInstalled(ctx context.Context) bool {
	if c.Remote == "" {
		_, err := exec.LookPath(c.ADBPath)
		return err == nil
	}
	_, err := c.run(ctx, "version")
	return err == nil
}

// ShellQuote returns a POSIX-shell-safe single-quoted string.
//
// This is required for ssh remote commands because OpenSSH transmits a single
// command string to the remote shell (not an argv vector). adb shell behaves
// the same way on the device side.
func ShellQuote(s string) string {
	if s == "" {
		return "''"
	}

	// Close-quote, escape single quote, reopen: ' -> '\''.
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func buildRemoteShellCommand(command string, args ...string) string {
	parts := make([]string, 0, 1+len(args))
	parts = append(parts, ShellQuote(command))
	for _, arg := range args {
		parts = append(parts, ShellQuote(arg))
	}
	return strings.Join(parts, " ")
}

func runCommand(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		if errors.Is(err, exec.ErrNotFound) {
			return "", fmt.Errorf("%s: %w", name, ErrNotInstalled)
		}
		msg := strings.TrimSpace(stderr.String())
		if isNoDeviceMessage(msg) {
			return "", fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), ErrNoDevice, msg)
		}
		return "", fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, msg)
	}
	return strings.TrimSpace(stdout.String()), nil
}

func isNoDeviceMessage(msg string) bool {
	msg = strings.ToLower(msg)
	return strings.Contains(msg, "no devices/emulators found") ||
		strings.Contains(msg, "device offline") ||
		(strings.Contains(msg, "device '") && strings.Contains(msg, "not found"))
}
