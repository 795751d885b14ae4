package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/telwatch/internal/output"
	"github.com/theirongolddev/telwatch/internal/telecom"
)

// actionResult is the JSON reply of the call control commands
type actionResult struct {
	Status string `json:"status"`
	Action string `json:"action"`
	Number string `json:"number,omitempty"`
}

func newDialCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dial NUMBER",
		Short: "Place an outgoing call",
		Long: `Start an outgoing call to NUMBER. Digits, '+', '*' and '#' are accepted;
spaces, dashes, dots and parentheses are stripped.

Examples:
  telwatch dial +16502530000
  telwatch dial "(650) 253-0000"
  telwatch dial '*#06#'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			number := strings.TrimSpace(args[0])
			if !telecom.ValidDialString(number) {
				return output.NewCLIError(fmt.Sprintf("invalid number %q", number)).
					WithCode("INVALID_NUMBER").
					WithHint("Use digits with optional '+', '*' and '#'")
			}

			dev := newDevice(cfg)
			if err := connectDevice(cmd.Context(), dev, cfg); err != nil {
				return err
			}
			if err := dev.Dial(cmd.Context(), number); err != nil {
				return err
			}
			return reportAction(cmd, actionResult{Status: "ok", Action: "dial", Number: telecom.NormalizeDialString(number)},
				"Dialing "+telecom.FormatCaller(telecom.NormalizeDialString(number), cfg.Caller.Region))
		},
	}
}

func newAnswerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "answer",
		Short: "Answer the ringing call",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dev := newDevice(cfg)
			if err := connectDevice(cmd.Context(), dev, cfg); err != nil {
				return err
			}
			if err := dev.Answer(cmd.Context()); err != nil {
				return err
			}
			return reportAction(cmd, actionResult{Status: "ok", Action: "answer"}, "Answered")
		},
	}
}

func newHangUpCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "hangup",
		Aliases: []string{"hang-up", "reject"},
		Short:   "End or reject the current call",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dev := newDevice(cfg)
			if err := connectDevice(cmd.Context(), dev, cfg); err != nil {
				return err
			}
			if err := dev.HangUp(cmd.Context()); err != nil {
				return err
			}
			return reportAction(cmd, actionResult{Status: "ok", Action: "hangup"}, "Hung up")
		},
	}
}

func reportAction(cmd *cobra.Command, res actionResult, text string) error {
	return newFormatter(cmd).OutputData(res, func(w io.Writer) error {
		_, err := fmt.Fprintln(w, text)
		return err
	})
}

func newDevicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List devices visible to adb",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dev := newDevice(cfg)
			if err := connectDevice(cmd.Context(), dev, cfg); err != nil {
				return err
			}
			devices, err := dev.Devices(cmd.Context())
			if err != nil {
				return err
			}

			f := newFormatter(cmd)
			if f.IsJSON() {
				if devices == nil {
					return f.JSON(map[string]any{"devices": []any{}})
				}
				return f.JSON(map[string]any{"devices": devices})
			}
			if len(devices) == 0 {
				fmt.Fprintln(f.Writer(), "No devices attached.")
				return nil
			}
			table := output.NewTable(f.Writer(), "SERIAL", "STATE")
			for _, d := range devices {
				table.AddRow(d.Serial, d.State)
			}
			return table.Render()
		},
	}
}
