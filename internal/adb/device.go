package adb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/theirongolddev/telwatch/internal/telecom"
)

// Device is one entry of `adb devices`.
type Device struct {
	Serial string `json:"serial"`
	State  string `json:"state"`
}

// DumpTelecom captures `dumpsys telecom` from the device.
func (c *Client) DumpTelecom(ctx context.Context) (string, error) {
	out, err := c.Run(ctx, "shell", "dumpsys", "telecom")
	if err != nil {
		return "", fmt.Errorf("capturing telecom dump: %w", err)
	}
	return out, nil
}

// Devices lists attached devices.
func (c *Client) Devices(ctx context.Context) ([]Device, error) {
	out, err := c.run(ctx, "devices")
	if err != nil {
		return nil, fmt.Errorf("listing devices: %w", err)
	}
	return parseDevices(out), nil
}

func parseDevices(out string) []Device {
	var devices []Device
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "List of devices") || strings.HasPrefix(line, "*") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		devices = append(devices, Device{Serial: fields[0], State: fields[1]})
	}
	return devices
}

// Connect runs `adb connect address`, retrying with a fixed backoff until
// adb reports the device connected or retries are exhausted.
func (c *Client) Connect(ctx context.Context, address string, retries int, backoff time.Duration) error {
	if address == "" {
		return nil
	}
	if retries < 1 {
		retries = 1
	}

	var lastErr error
	for attempt := 1; attempt <= retries; attempt++ {
		out, err := c.run(ctx, "connect", address)
		if err == nil && strings.Contains(out, "connected to") {
			return nil
		}
		if err != nil {
			lastErr = err
		} else {
			lastErr = fmt.Errorf("adb connect %s: %s", address, out)
		}

		if attempt == retries {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return fmt.Errorf("connecting to %s after %d attempts: %w", address, retries, lastErr)
}

// Dial starts an outgoing call to number.
func (c *Client) Dial(ctx context.Context, number string) error {
	if !telecom.ValidDialString(number) {
		return fmt.Errorf("invalid number %q", number)
	}
	uri := "tel:" + strings.ReplaceAll(telecom.NormalizeDialString(number), "#", "%23")
	if _, err := c.Run(ctx, "shell", "am", "start", "-a", "android.intent.action.CALL", "-d", ShellQuote(uri)); err != nil {
		return fmt.Errorf("dialing %s: %w", number, err)
	}
	return nil
}

// Answer accepts the ringing call.
func (c *Client) Answer(ctx context.Context) error {
	if _, err := c.Run(ctx, "shell", "input", "keyevent", "KEYCODE_CALL"); err != nil {
		return fmt.Errorf("answering call: %w", err)
	}
	return nil
}

// HangUp ends or rejects the current call.
func (c *Client) HangUp(ctx context.Context) error {
	if _, err := c.Run(ctx, "shell", "input", "keyevent", "KEYCODE_ENDCALL"); err != nil {
		return fmt.Errorf("hanging up: %w", err)
	}
	return nil
}
