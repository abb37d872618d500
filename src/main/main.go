package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"crop-to-ai/src/config"
	"crop-to-ai/src/logutil"
)

type mainOptions struct {
	settingsPath string
	historyPath  string
	verbose      bool
}

type captureOptions struct {
	x, y          int
	width, height int
	scale         float64
	selectRegion  bool
}

// The tray loop must run on the main OS thread on macOS.
func init() {
	runtime.LockOSThread()
}

func main() {
	if err := runWithArgs(normalizeLegacyArgs(os.Args)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runWithArgs(args []string) error {
	if len(args) == 0 {
		args = []string{"crop-to-ai"}
	}
	opts := &mainOptions{}
	cmd := newRootCmd(opts)
	cmd.SetArgs(args[1:])
	return cmd.Execute()
}

func newRootCmd(opts *mainOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "crop-to-ai",
		Short:         "Send a screen region to an AI chat and paste it when the chat is ready",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResident(opts)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.settingsPath, "settings", "", "Path to settings.json (overrides SETTINGS_PATH)")
	pf.StringVar(&opts.historyPath, "history", "", "Path to the session history database (overrides HISTORY_PATH)")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "Log to stderr")

	cmd.AddCommand(
		newCaptureCmd(opts),
		newReloadCmd(opts),
		newOpenCmd(opts),
		newSettingsCmd(opts),
		newHistoryCmd(opts),
	)
	return cmd
}

// loadConfig loads runtime configuration and sets up logging from it.
func loadConfig(opts *mainOptions) (*config.Config, error) {
	cfg, err := config.LoadWithOptions(config.LoadOptions{
		SettingsPathOverride: opts.settingsPath,
		HistoryPathOverride:  opts.historyPath,
		Verbose:              opts.verbose,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logutil.Setup(logutil.Options{
		EnableFileLogging: cfg.EnableFileLogging,
		Console:           cfg.Verbose,
		Level:             cfg.LogLevel,
		Dir:               filepath.Dir(cfg.SettingsPath),
	})
	return cfg, nil
}

// normalizeLegacyArgs maps single-dash long flags (-settings, -verbose, ...) to
// the double-dash form cobra expects.
func normalizeLegacyArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}
	long := []string{"settings", "history", "verbose", "width", "height", "scale", "select", "limit"}

	normalized := make([]string, len(args))
	copy(normalized, args)
	for i := 1; i < len(normalized); i++ {
		arg := normalized[i]
		if !strings.HasPrefix(arg, "-") || strings.HasPrefix(arg, "--") {
			continue
		}
		name := strings.TrimPrefix(arg, "-")
		if eq := strings.IndexByte(name, '='); eq >= 0 {
			name = name[:eq]
		}
		for _, l := range long {
			if name == l {
				normalized[i] = "-" + arg
				break
			}
		}
	}
	return normalized
}
