package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/theirongolddev/telwatch/internal/events"
	"github.com/theirongolddev/telwatch/internal/history"
	"github.com/theirongolddev/telwatch/internal/logging"
	"github.com/theirongolddev/telwatch/internal/monitor"
	"github.com/theirongolddev/telwatch/internal/output"
	"github.com/theirongolddev/telwatch/internal/tui/live"
)

type watchOptions struct {
	interval string
	plain    bool
	trace    bool
}

func newWatchCmd() *cobra.Command {
	var opts watchOptions

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Continuously watch the call status",
		Long: `Poll the device continuously and show the call status.

On a terminal this opens a live view where 'a' answers, 'h' hangs up and
'q' quits. With --plain, --json, or when stdout is not a terminal, one
line is printed per state change instead.

Examples:
  telwatch watch
  telwatch watch --interval 250ms
  telwatch watch --plain --trace     # also print dump diffs between polls
  telwatch watch --json | jq .phoneState`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.interval, "interval", "i", "", "poll interval (default from config, e.g. 500ms)")
	cmd.Flags().BoolVar(&opts.plain, "plain", false, "print one line per state change instead of the live view")
	cmd.Flags().BoolVar(&opts.trace, "trace", false, "with --plain, print the dump diff on every poll")
	return cmd
}

func runWatch(cmd *cobra.Command, opts watchOptions) error {
	interval, err := pollInterval(opts.interval, cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dev := newDevice(cfg)
	if err := connectDevice(ctx, dev, cfg); err != nil {
		return err
	}

	store, err := openHistory(cfg)
	if err != nil {
		logging.OrNop(logger).Warn("call history unavailable", zap.Error(err))
	}
	if store != nil {
		defer store.Close()
	}

	plain := opts.plain || IsJSONOutput() || !output.IsTerminal()
	if !plain {
		// the live view owns the terminal; stderr logging would corrupt it
		mon := newMonitor(dev, cfg, interval, nil, store, logging.Nop())
		return live.Run(ctx, mon, dev,
			live.WithInterval(interval),
			live.WithRegion(cfg.Caller.Region),
			live.WithDevice(cfg.Device.Serial))
	}
	return watchPlain(ctx, cmd.OutOrStdout(), dev, store, interval, opts.trace)
}

// plainPrinter serializes status lines and dump diffs to one writer
type plainPrinter struct {
	mu       sync.Mutex
	w        io.Writer
	json     bool
	color    bool
	region   string
	lastDump string
}

func (p *plainPrinter) onStatus(e events.BusEvent) {
	ev, ok := e.(events.StatusEvent)
	if !ok {
		return
	}
	view := newStatusView(ev.Status, ev.Timestamp, p.region)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.json {
		_ = output.WriteJSON(p.w, view, false)
		return
	}
	line := output.StatusLine(view)
	if p.color {
		line = output.StateStyle(ev.Status.PhoneState).Render(line)
	}
	fmt.Fprintf(p.w, "%s  %s\n", ev.Timestamp.Local().Format("15:04:05"), line)
}

func (p *plainPrinter) onPollError(e events.BusEvent) {
	ev, ok := e.(events.PollErrorEvent)
	if !ok || p.json {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, "%s  poll failed: %s\n", ev.Timestamp.Local().Format("15:04:05"), ev.Error)
}

func (p *plainPrinter) onDump(dump string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if diff := output.DumpDiff(p.lastDump, dump); diff != "" {
		fmt.Fprint(p.w, diff)
	}
	p.lastDump = dump
}

func watchPlain(ctx context.Context, w io.Writer, dev device, store *history.Store, interval time.Duration, trace bool) error {
	printer := &plainPrinter{
		w:      w,
		json:   IsJSONOutput(),
		color:  !IsJSONOutput() && output.UseColor(w),
		region: cfg.Caller.Region,
	}

	bus := events.NewEventBus(100)
	unsubStatus := bus.Subscribe(events.TypeStatusChanged, printer.onStatus)
	defer unsubStatus()
	unsubErr := bus.Subscribe(events.TypePollFailed, printer.onPollError)
	defer unsubErr()

	var extra []monitor.Option
	if trace && !printer.json {
		extra = append(extra, monitor.WithDumpObserver(printer.onDump))
	}
	return newMonitor(dev, cfg, interval, bus, store, logger, extra...).Run(ctx)
}
