package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/telwatch/internal/history"
	"github.com/theirongolddev/telwatch/internal/output"
	"github.com/theirongolddev/telwatch/internal/telecom"
	"github.com/theirongolddev/telwatch/internal/util"
)

func newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent calls",
		Long: `Show calls recorded by 'telwatch serve' or 'telwatch watch', newest first.

Examples:
  telwatch history
  telwatch history --limit 50
  telwatch history --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", history.DefaultLimit, "number of calls to show")
	return cmd
}

func runHistory(cmd *cobra.Command, limit int) error {
	if !cfg.History.Enabled {
		return output.NewCLIError("call history is disabled").
			WithCode("HISTORY_DISABLED").
			WithHint(output.HintHistoryDisabled)
	}
	if limit <= 0 {
		return output.NewCLIError(fmt.Sprintf("invalid --limit %d", limit)).
			WithHint("Use a positive number of calls")
	}

	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	calls, err := store.Recent(cmd.Context(), limit)
	if err != nil {
		return err
	}

	f := newFormatter(cmd)
	if f.IsJSON() {
		return f.JSON(map[string]any{"calls": calls})
	}
	if len(calls) == 0 {
		fmt.Fprintln(f.Writer(), "No calls recorded.")
		return nil
	}

	table := output.NewTable(f.Writer(), "STARTED", "DIRECTION", "CALLER", "RESULT", "DURATION")
	for _, c := range calls {
		table.AddRow(
			c.StartedAt.Local().Format("2006-01-02 15:04:05"),
			directionLabel(c.Direction),
			output.Truncate(callerLabel(c.CallerID), 24),
			resultLabel(c),
			util.FormatClock(time.Duration(c.DurationSecs * float64(time.Second))),
		)
	}
	return table.Render()
}

func directionLabel(d string) string {
	if d == "" {
		return "-"
	}
	return d
}

func callerLabel(raw string) string {
	if raw == "" {
		return "unknown"
	}
	return telecom.FormatCaller(raw, cfg.Caller.Region)
}

func resultLabel(c history.Call) string {
	switch {
	case c.Answered:
		return "answered"
	case c.Direction == "OUTGOING":
		return "no answer"
	default:
		return "missed"
	}
}
