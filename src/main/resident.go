package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"crop-to-ai/src/app"
	"crop-to-ai/src/eventloop"
	"crop-to-ai/src/hotkey"
	"crop-to-ai/src/notification"
	"crop-to-ai/src/overlay"
	"crop-to-ai/src/singleinstance"
	"crop-to-ai/src/tray"
)

// runResident runs the tray, the global hotkeys and the loopback server until
// Quit or a signal.
func runResident(opts *mainOptions) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	enableDPIAwareness()
	logMonitorConfiguration()

	detectCtx, detectCancel := context.WithTimeout(context.Background(), time.Second)
	port, running := singleinstance.DetectResidentPort(detectCtx)
	detectCancel()
	if running {
		return fmt.Errorf("crop-to-ai is already running on port %d", port)
	}

	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	var selector overlay.Selector
	if sel, err := overlay.NewSelector(cfg.SelectorCommand); err != nil {
		log.Warn().Err(err).Msg("Region selector disabled; only delegated captures will work")
	} else {
		selector = sel
	}

	st := svc.Store.Load()
	log.Info().
		Str("aiUrl", st.AIURL).
		Str("shortcut", st.Shortcut.String()).
		Str("quickOpen", st.QuickOpenShortcut.String()).
		Str("settings", svc.Store.Path()).
		Msg("Crop to AI initialized")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loop := eventloop.New(svc, selector, eventloop.Options{
		Tooltip: tray.UpdateTooltip,
		Notify:  notification.Show,
		Started: func(port int) { tray.SetAboutExtra(fmt.Sprintf("Resident TCP port: %d", port)) },
	})
	loop.SetDefaultTooltip(fmt.Sprintf("Crop to AI - Press %s to capture", st.Shortcut))

	svc.OnCaptureHotkey = loop.TriggerCapture
	svc.OnQuickOpenHotkey = loop.TriggerOpen
	listener := hotkey.NewListener()
	if err := listener.Start(svc.Bindings(st)...); err != nil {
		log.Error().Err(err).Msg("Global hotkeys unavailable")
	} else {
		svc.Hotkeys = listener
		defer listener.Stop()
	}

	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-ch:
			log.Info().Msg("Signal received, shutting down")
			cancel()
		case <-ctx.Done():
		}
	}()

	loopErr := make(chan error, 1)
	tray.Run(tray.Actions{
		Capture: loop.TriggerCapture,
		Open:    loop.TriggerOpen,
		Reload:  loop.TriggerReload,
		Quit:    cancel,
	}, func() {
		loopErr <- loop.Run(ctx)
		tray.Quit()
	})
	cancel()

	select {
	case err := <-loopErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("event loop stopped: %w", err)
		}
	case <-time.After(2 * time.Second):
	}
	return nil
}
