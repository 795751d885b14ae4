package cli

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/theirongolddev/telwatch/internal/adb"
	"github.com/theirongolddev/telwatch/internal/config"
	"github.com/theirongolddev/telwatch/internal/events"
	"github.com/theirongolddev/telwatch/internal/history"
	"github.com/theirongolddev/telwatch/internal/logging"
	"github.com/theirongolddev/telwatch/internal/monitor"
	"github.com/theirongolddev/telwatch/internal/util"
)

// device is the adb surface the commands use
type device interface {
	DumpTelecom(ctx context.Context) (string, error)
	Devices(ctx context.Context) ([]adb.Device, error)
	Connect(ctx context.Context, address string, retries int, backoff time.Duration) error
	Dial(ctx context.Context, number string) error
	Answer(ctx context.Context) error
	HangUp(ctx context.Context) error
}

// newDevice builds the device client from config. Tests replace it.
var newDevice = func(c *config.Config) device {
	return adb.NewClient(
		adb.WithADBPath(c.Device.ADBPath),
		adb.WithSerial(c.Device.Serial),
		adb.WithRemote(c.Device.Remote),
		adb.WithTimeout(c.CommandTimeout()),
	)
}

// connectDevice runs adb connect when a TCP address is configured.
func connectDevice(ctx context.Context, dev device, c *config.Config) error {
	if c.Device.ConnectAddress == "" {
		return nil
	}
	log := logging.OrNop(logger)
	log.Info("connecting to device", zap.String("address", c.Device.ConnectAddress))
	return dev.Connect(ctx, c.Device.ConnectAddress, c.Device.ConnectRetries, c.ConnectBackoff())
}

// openHistory opens the call log when enabled. A nil store means history
// is disabled.
func openHistory(c *config.Config) (*history.Store, error) {
	if !c.History.Enabled {
		return nil, nil
	}
	store, err := history.Open(c.History.Path)
	if err != nil {
		return nil, fmt.Errorf("opening call history: %w", err)
	}
	return store, nil
}

// newMonitor wires a monitor over dev with the configured interval, an
// optional bus, and a history tracker when store is non-nil.
func newMonitor(dev device, c *config.Config, interval time.Duration, bus *events.EventBus, store *history.Store, log *zap.Logger, extra ...monitor.Option) *monitor.Monitor {
	opts := []monitor.Option{
		monitor.WithInterval(interval),
		monitor.WithLogger(log),
		monitor.WithDevice(c.Device.Serial),
	}
	if bus != nil {
		opts = append(opts, monitor.WithBus(bus))
	}
	if store != nil {
		trackerOpts := []history.TrackerOption{history.WithLogger(log)}
		if bus != nil {
			trackerOpts = append(trackerOpts, history.WithEvents(bus, c.Device.Serial))
		}
		opts = append(opts, monitor.WithRecorder(history.NewTracker(store, trackerOpts...)))
	}
	return monitor.New(dev, append(opts, extra...)...)
}

// pollInterval resolves the --interval flag against the config.
func pollInterval(flag string, c *config.Config) (time.Duration, error) {
	if flag == "" {
		return c.PollInterval()
	}
	d, err := util.ParseDurationWithDefault(flag, time.Millisecond, "interval")
	if err != nil {
		return 0, fmt.Errorf("invalid --interval: %w", err)
	}
	if d < config.MinPollInterval {
		d = config.MinPollInterval
	}
	return d, nil
}
