package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"crop-to-ai/src/app"
	"crop-to-ai/src/config"
	"crop-to-ai/src/history"
	"crop-to-ai/src/hotkey"
	"crop-to-ai/src/opener"
	"crop-to-ai/src/overlay"
	"crop-to-ai/src/settings"
	"crop-to-ai/src/singleinstance"
)

var errNoResident = errors.New("no resident crop-to-ai is running")

const delegateTimeout = 60 * time.Second

func newCaptureCmd(opts *mainOptions) *cobra.Command {
	copts := &captureOptions{}
	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Capture a region, open the AI chat and paste when it is ready",
		Long: "Capture a region given in logical coordinates. The request is handed to a running " +
			"resident when there is one; otherwise it runs in this process and waits for the paste.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if copts.selectRegion {
				sel, err := overlay.NewSelector(cfg.SelectorCommand)
				if err != nil {
					return err
				}
				req, cancelled, err := sel.Select(cmd.Context())
				if err != nil {
					return err
				}
				if cancelled {
					return errors.New("selection cancelled")
				}
				copts.x, copts.y, copts.width, copts.height, copts.scale = req.X, req.Y, req.Width, req.Height, req.ScaleFactor
			}

			req := singleinstance.Request{
				Command: singleinstance.CommandCapture,
				X:       copts.x, Y: copts.y, Width: copts.width, Height: copts.height, Scale: copts.scale,
			}
			ctx, cancel := delegateContext(cmd)
			defer cancel()
			text, err := handleWithDelegation(ctx, singleinstance.NewClient(), req, func() (string, error) {
				svc, err := app.New(cfg)
				if err != nil {
					return "", err
				}
				// Closing waits for the paste session to finish.
				defer svc.Close()
				return svc.CaptureRegion(req.X, req.Y, req.Width, req.Height, req.Scale)
			})
			return printResult(cmd.OutOrStdout(), text, err)
		},
	}
	f := cmd.Flags()
	f.IntVar(&copts.x, "x", 0, "Left edge in logical pixels")
	f.IntVar(&copts.y, "y", 0, "Top edge in logical pixels")
	f.IntVar(&copts.width, "width", 0, "Width in logical pixels")
	f.IntVar(&copts.height, "height", 0, "Height in logical pixels")
	f.Float64Var(&copts.scale, "scale", 1, "Display scale factor")
	f.BoolVar(&copts.selectRegion, "select", false, "Pick the region with the selector command")
	return cmd
}

func newReloadCmd(opts *mainOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reload",
		Short: "Make the resident re-read settings and re-register its shortcuts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadConfig(opts); err != nil {
				return err
			}
			ctx, cancel := delegateContext(cmd)
			defer cancel()
			text, err := handleWithDelegation(ctx, singleinstance.NewClient(),
				singleinstance.Request{Command: singleinstance.CommandReload},
				func() (string, error) { return "", errNoResident })
			return printResult(cmd.OutOrStdout(), text, err)
		},
	}
}

func newOpenCmd(opts *mainOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "open",
		Short: "Open the configured AI chat",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			ctx, cancel := delegateContext(cmd)
			defer cancel()
			text, err := handleWithDelegation(ctx, singleinstance.NewClient(),
				singleinstance.Request{Command: singleinstance.CommandOpen},
				func() (string, error) {
					svc := &app.Service{Store: settings.NewStore(cfg.SettingsPath), Opener: opener.Browser{}}
					return svc.OpenTarget()
				})
			return printResult(cmd.OutOrStdout(), text, err)
		},
	}
}

func newSettingsCmd(opts *mainOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change the AI URL and shortcuts",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective settings as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			return showSettings(cmd.OutOrStdout(), settings.NewStore(cfg.SettingsPath))
		},
	}

	setURL := &cobra.Command{
		Use:   "set-url <url>",
		Short: "Set the AI chat URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if err := settings.ValidateURL(args[0]); err != nil {
				return err
			}
			st, err := settings.NewStore(cfg.SettingsPath).Update(func(s *settings.Settings) { s.AIURL = args[0] })
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "AI URL set to %s\n", st.AIURL)
			return nil
		},
	}

	var quickOpen bool
	setShortcut := &cobra.Command{
		Use:   "set-shortcut <combo>",
		Short: "Set a global shortcut, e.g. Control+Shift+Q",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			sc, err := hotkey.FromString(args[0])
			if err != nil {
				return err
			}
			_, err = settings.NewStore(cfg.SettingsPath).Update(func(s *settings.Settings) {
				if quickOpen {
					s.QuickOpenShortcut = sc
				} else {
					s.Shortcut = sc
				}
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Shortcut set to %s\n", sc)

			// Apply immediately when a resident is running.
			ctx, cancel := delegateContext(cmd)
			defer cancel()
			delegated, text, err := singleinstance.NewClient().Delegate(ctx, singleinstance.Request{Command: singleinstance.CommandReload})
			if delegated {
				return printResult(cmd.OutOrStdout(), text, err)
			}
			return nil
		},
	}
	setShortcut.Flags().BoolVar(&quickOpen, "quick-open", false, "Set the quick-open shortcut instead of the capture shortcut")

	cmd.AddCommand(show, setURL, setShortcut)
	return cmd
}

func newHistoryCmd(opts *mainOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print recent paste sessions as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if cfg.HistoryPath == "" {
				return fmt.Errorf("history is disabled; set %s or pass --history", config.HistoryPathEnvVar)
			}
			store, err := history.Open(cfg.HistoryPath)
			if err != nil {
				return err
			}
			defer store.Close()
			return printHistory(cmd.OutOrStdout(), store, limit)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Number of entries to print (0 for all)")
	return cmd
}

// runner is the part of singleinstance.Client the commands need.
type runner interface {
	Delegate(ctx context.Context, req singleinstance.Request) (bool, string, error)
}

// handleWithDelegation forwards req to a resident when one answers. A resident's
// error reply is final; failing to reach a resident falls back to standalone.
func handleWithDelegation(ctx context.Context, client runner, req singleinstance.Request, standalone func() (string, error)) (string, error) {
	delegated, text, err := client.Delegate(ctx, req)
	if delegated {
		log.Info().Str("command", string(req.Command)).Msg("Delegated to resident")
		return text, err
	}
	if err != nil {
		log.Warn().Err(err).Msg("Delegation error; falling back to standalone")
	} else {
		log.Info().Msg("No resident detected, running standalone")
	}
	return standalone()
}

func showSettings(w io.Writer, store *settings.Store) error {
	out, err := yaml.Marshal(struct {
		Path     string            `yaml:"path"`
		Settings settings.Settings `yaml:"settings"`
	}{store.Path(), store.Load()})
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

func printHistory(w io.Writer, store *history.Store, limit int) error {
	entries, err := store.List(limit)
	if err != nil {
		return err
	}
	out, err := history.YAML(entries)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

func printResult(w io.Writer, text string, err error) error {
	if err != nil {
		return err
	}
	if text != "" {
		fmt.Fprintln(w, text)
	}
	return nil
}

func delegateContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, delegateTimeout)
}
