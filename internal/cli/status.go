package cli

import (
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/telwatch/internal/monitor"
	"github.com/theirongolddev/telwatch/internal/output"
	"github.com/theirongolddev/telwatch/internal/status"
	"github.com/theirongolddev/telwatch/internal/telecom"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the current call status",
		Long: `Capture one telecom dump from the device and print the derived call status.

Examples:
  telwatch status
  telwatch status --json
  telwatch status --serial emulator-5554`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd)
		},
	}
}

func runStatus(cmd *cobra.Command) error {
	ctx := cmd.Context()
	dev := newDevice(cfg)
	if err := connectDevice(ctx, dev, cfg); err != nil {
		return err
	}

	m := monitor.New(dev, monitor.WithLogger(logger), monitor.WithDevice(cfg.Device.Serial))
	st, err := m.Poll(ctx)
	if err != nil {
		return err
	}

	view := newStatusView(st, time.Now(), cfg.Caller.Region)
	f := newFormatter(cmd)
	return f.OutputData(view, func(w io.Writer) error {
		return output.RenderStatus(w, view, output.UseColor(w))
	})
}

// newStatusView decorates st with the formatted caller and the poll time
func newStatusView(st status.CallStatus, at time.Time, region string) output.StatusView {
	view := output.StatusView{CallStatus: st, UpdatedAt: at.UTC()}
	if st.CallerID != "" {
		view.CallerFormatted = telecom.FormatCaller(st.CallerID, region)
	}
	return view
}
