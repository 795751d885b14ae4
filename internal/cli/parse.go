package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/theirongolddev/telwatch/internal/dumpsys"
	"github.com/theirongolddev/telwatch/internal/output"
	"github.com/theirongolddev/telwatch/internal/status"
	"github.com/theirongolddev/telwatch/internal/telecom"
)

func newParseCmd() *cobra.Command {
	var (
		format     string
		showStatus bool
	)

	cmd := &cobra.Command{
		Use:   "parse [FILE|-]",
		Short: "Parse a saved telecom dump",
		Long: `Parse a saved 'dumpsys telecom' capture and print the indentation tree,
or with --status the call status derived from that single dump.

Examples:
  adb shell dumpsys telecom > dump.txt
  telwatch parse dump.txt
  telwatch parse dump.txt --format yaml
  adb shell dumpsys telecom | telwatch parse --status -`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readDump(cmd, args)
			if err != nil {
				return err
			}
			if showStatus {
				return printDumpStatus(cmd, text)
			}
			return printDumpTree(cmd.OutOrStdout(), dumpsys.Parse(text), format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "tree output format: json or yaml")
	cmd.Flags().BoolVar(&showStatus, "status", false, "print the derived call status instead of the tree")
	return cmd
}

// readDump reads the dump from the named file, or stdin for "-" or no
// argument when stdin is not a terminal.
func readDump(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", fmt.Errorf("reading dump: %w", err)
		}
		return string(data), nil
	}

	in := cmd.InOrStdin()
	if len(args) == 0 {
		if f, ok := in.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
			return "", output.NewCLIError("no dump given").
				WithHint("Pass a file, or pipe 'adb shell dumpsys telecom' into 'telwatch parse -'")
		}
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("reading dump from stdin: %w", err)
	}
	return string(data), nil
}

func printDumpTree(w io.Writer, tree dumpsys.Node, format string) error {
	switch strings.ToLower(format) {
	case "json", "":
		return output.WriteJSON(w, tree.Interface(), true)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(tree.Interface()); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		return enc.Close()
	default:
		return output.NewCLIError(fmt.Sprintf("unknown format %q", format)).
			WithHint("Use --format json or --format yaml")
	}
}

func printDumpStatus(cmd *cobra.Command, text string) error {
	st := status.NewClassifier().Evaluate(text)
	view := newStatusView(st, time.Now(), telecom.DefaultRegion)
	return newFormatter(cmd).OutputData(view, func(w io.Writer) error {
		return output.RenderStatus(w, view, output.UseColor(w))
	})
}
