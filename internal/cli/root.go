// Package cli implements the telwatch command line.
package cli

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/theirongolddev/telwatch/internal/config"
	"github.com/theirongolddev/telwatch/internal/logging"
	"github.com/theirongolddev/telwatch/internal/output"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  *zap.Logger

	// Global flags - inherited by all subcommands
	jsonOutput bool
	verbose    bool
	serialFlag string
	remoteFlag string

	// Build information - set via ldflags
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "telwatch",
	Short: "Watch and control phone calls on an Android device over adb",
	Long: `telwatch polls 'dumpsys telecom' on an Android device and reports whether
the phone is idle, ringing, dialing, or in a call, with the call direction,
caller number, and how long the call has been connected.

Quick Start:
  telwatch status                 # One-shot status
  telwatch watch                  # Live view (a: answer, h: hang up, q: quit)
  telwatch serve --addr :8080     # HTTP API with call history
  telwatch parse dump.txt         # Inspect a saved dump`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if canSkipConfigLoading(cmd) {
			return nil
		}

		loaded, err := config.Load(cfgFile)
		if err != nil {
			return output.ConfigInvalidError(err)
		}
		if serialFlag != "" {
			loaded.Device.Serial = serialFlag
		}
		if remoteFlag != "" {
			loaded.Device.Remote = remoteFlag
		}
		cfg = loaded

		level := cfg.Log.Level
		if verbose {
			level = "debug"
		}
		l, err := logging.New(logging.Options{Level: level, Development: cfg.Log.Development})
		if err != nil {
			return output.ConfigInvalidError(err)
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/telwatch/config.toml)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&serialFlag, "serial", "", "device serial (adb -s)")
	rootCmd.PersistentFlags().StringVar(&remoteFlag, "remote", "", "run adb over ssh on user@host")

	rootCmd.AddCommand(
		newStatusCmd(),
		newWatchCmd(),
		newServeCmd(),
		newParseCmd(),
		newDialCmd(),
		newAnswerCmd(),
		newHangUpCmd(),
		newDevicesCmd(),
		newHistoryCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)
}

// canSkipConfigLoading reports whether cmd runs without a loaded config
func canSkipConfigLoading(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "version", "help", "path", "init", "parse":
		return true
	}
	return false
}

// Execute runs the root command
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		// SilenceErrors is set so JSON mode can report errors on stdout
		_ = output.WriteCLIError(os.Stdout, os.Stderr, output.ToCLIError(err), IsJSONOutput())
		return err
	}
	return nil
}

// IsJSONOutput reports whether JSON output was requested by flag or
// environment.
func IsJSONOutput() bool {
	return output.DetectFormat(jsonOutput) == output.FormatJSON
}

func newFormatter(cmd *cobra.Command) *output.Formatter {
	return output.New(output.WithJSON(IsJSONOutput()), output.WithWriter(cmd.OutOrStdout()))
}

// versionInfo is the JSON shape of `telwatch version`
type versionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuiltAt   string `json:"built_at"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

func newVersionCmd() *cobra.Command {
	var short bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			info := versionInfo{
				Version:   Version,
				Commit:    Commit,
				BuiltAt:   Date,
				GoVersion: runtime.Version(),
				Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
			}
			w := cmd.OutOrStdout()
			if IsJSONOutput() {
				return output.WriteJSON(w, info, true)
			}
			if short {
				fmt.Fprintln(w, Version)
				return nil
			}
			fmt.Fprintf(w, "telwatch version %s\n", info.Version)
			fmt.Fprintf(w, "  commit:    %s\n", info.Commit)
			fmt.Fprintf(w, "  built:     %s\n", info.BuiltAt)
			fmt.Fprintf(w, "  go:        %s\n", info.GoVersion)
			fmt.Fprintf(w, "  platform:  %s\n", info.Platform)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&short, "short", "s", false, "Print only version number")
	return cmd
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.CreateDefault()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created config file: %s\n", path)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print configuration file path",
		Run: func(cmd *cobra.Command, args []string) {
			path := cfgFile
			if path == "" {
				path = config.DefaultPath()
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			if IsJSONOutput() {
				return output.WriteJSON(cmd.OutOrStdout(), cfg, true)
			}
			return config.Print(cfg, cmd.OutOrStdout())
		},
	})

	return cmd
}
