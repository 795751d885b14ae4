package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/theirongolddev/telwatch/internal/config"
	"github.com/theirongolddev/telwatch/internal/events"
	"github.com/theirongolddev/telwatch/internal/logging"
	"github.com/theirongolddev/telwatch/internal/server"
)

type serveOptions struct {
	addr      string
	interval  string
	eventsLog string
}

func newServeCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Poll the device and serve status and call control over HTTP",
		Long: `Run the poller, record finished calls, and serve the HTTP API:

  GET  /health
  GET  /api/v1/status
  GET  /api/v1/calls?limit=N
  POST /api/v1/call/dial      {"number": "+16502530000"}
  POST /api/v1/call/answer
  POST /api/v1/call/hangup

Changes to the config file's poll_interval apply without a restart.

Examples:
  telwatch serve
  telwatch serve --addr 127.0.0.1:9090 --interval 250ms
  telwatch serve --events-log events.jsonl`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (default from config, e.g. :8080)")
	cmd.Flags().StringVarP(&opts.interval, "interval", "i", "", "poll interval (default from config)")
	cmd.Flags().StringVar(&opts.eventsLog, "events-log", "", "append every event as a JSON line to this file")
	return cmd
}

func runServe(cmd *cobra.Command, opts serveOptions) error {
	log := logging.OrNop(logger)

	interval, err := pollInterval(opts.interval, cfg)
	if err != nil {
		return err
	}
	addr := cfg.Server.Addr
	if opts.addr != "" {
		addr = opts.addr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dev := newDevice(cfg)
	if err := connectDevice(ctx, dev, cfg); err != nil {
		return err
	}

	bus := events.NewEventBus(256)
	if opts.eventsLog != "" {
		f, err := os.OpenFile(opts.eventsLog, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("opening events log: %w", err)
		}
		defer f.Close()
		unsub := bus.Stream(f)
		defer unsub()
	}

	store, err := openHistory(cfg)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	mon := newMonitor(dev, cfg, interval, bus, store, log)

	serverOpts := []server.Option{
		server.WithAddr(addr),
		server.WithRegion(cfg.Caller.Region),
		server.WithLogger(log),
	}
	if store != nil {
		serverOpts = append(serverOpts, server.WithHistory(store))
	}
	srv := server.New(mon, dev, serverOpts...)

	// an explicit --interval pins the cadence; otherwise follow the file
	if opts.interval == "" {
		path := cfgFile
		if path == "" {
			path = config.DefaultPath()
		}
		stopWatch, err := config.Watch(path, func(next *config.Config) {
			d, err := next.PollInterval()
			if err != nil {
				return
			}
			mon.SetInterval(d)
		}, log)
		if err != nil {
			log.Warn("config hot reload disabled", zap.String("path", path), zap.Error(err))
		} else {
			defer stopWatch()
		}
	}

	log.Info("telwatch serving",
		zap.String("addr", addr),
		zap.Duration("interval", interval),
		zap.Bool("history", store != nil))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return mon.Run(gctx) })
	g.Go(func() error { return srv.Run(gctx) })
	return g.Wait()
}
