package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"crop-to-ai/src/capture"
	"crop-to-ai/src/clipboard"
	"crop-to-ai/src/config"
	"crop-to-ai/src/history"
	"crop-to-ai/src/hotkey"
	"crop-to-ai/src/opener"
	"crop-to-ai/src/paste"
	"crop-to-ai/src/settings"
	"crop-to-ai/src/watcher"
	"crop-to-ai/src/window"
)

// Binding names used for the global shortcuts.
const (
	BindingCapture   = "capture"
	BindingQuickOpen = "quick-open"
)

var ErrNoListener = errors.New("no hotkey listener running")

// Reloader swaps the active global shortcuts.
type Reloader interface {
	Reload(bindings ...hotkey.Binding) error
}

// Service is the command surface shared by the tray, the hotkeys, the loopback
// server and the CLI. Each command reads a fresh settings snapshot.
type Service struct {
	Store      *settings.Store
	Pipeline   *capture.Pipeline
	Opener     opener.Opener
	Supervisor *watcher.Supervisor
	History    *history.Store

	// Hotkeys is set by the resident once its listener is running.
	Hotkeys Reloader
	// OnCaptureHotkey and OnQuickOpenHotkey are wired into the bindings on reload.
	OnCaptureHotkey   func()
	OnQuickOpenHotkey func()
}

// New builds a service on the real OS boundary.
func New(cfg *config.Config) (*Service, error) {
	if err := clipboard.Init(); err != nil {
		log.Warn().Err(err).Msg("Clipboard unavailable; captures will fail")
	}

	inspector := window.New()
	if !window.Supported(inspector) {
		log.Warn().Msg("Window titles unavailable on this platform; paste will wait for the timeout")
	}
	w := watcher.New(inspector, paste.New())
	if t := cfg.WatchTimeout(); t > 0 {
		w.Config.Timeout = time.Duration(t) * time.Second
	}
	sup := watcher.NewSupervisor(w, cfg.SupersedeStale)

	s := &Service{
		Store:      settings.NewStore(cfg.SettingsPath),
		Opener:     opener.Browser{},
		Supervisor: sup,
	}

	if cfg.HistoryPath != "" {
		h, err := history.Open(cfg.HistoryPath)
		if err != nil {
			log.Warn().Err(err).Str("path", cfg.HistoryPath).Msg("History disabled")
		} else {
			s.History = h
			sup.OnFinish = h.Record
		}
	}

	s.Pipeline = &capture.Pipeline{
		Clipboard: clipboard.System{},
		Opener:    s.Opener,
		Watch:     func(url string) { sup.Spawn(url) },
	}
	return s, nil
}

// CaptureRegion captures a logical-coordinate region and hands it to the AI chat.
func (s *Service) CaptureRegion(x, y, width, height int, scale float64) (string, error) {
	target := s.Store.Load().Target()
	return s.Pipeline.Capture(capture.Request{X: x, Y: y, Width: width, Height: height, ScaleFactor: scale}, target)
}

// ReloadShortcut re-reads the settings and re-registers the global shortcuts.
func (s *Service) ReloadShortcut() (string, error) {
	if s.Hotkeys == nil {
		return "", ErrNoListener
	}
	st := s.Store.Load()
	if err := s.Hotkeys.Reload(s.Bindings(st)...); err != nil {
		return "", fmt.Errorf("failed to register shortcut: %w", err)
	}
	return fmt.Sprintf("Shortcut registered: %s", st.Shortcut), nil
}

// OpenTarget opens the configured AI chat without capturing.
func (s *Service) OpenTarget() (string, error) {
	url := s.Store.Load().AIURL
	if err := s.Opener.Open(url); err != nil {
		return "", fmt.Errorf("failed to open %s: %w", url, err)
	}
	return "Opened " + url, nil
}

// Bindings returns the capture and quick-open shortcuts for st.
func (s *Service) Bindings(st settings.Settings) []hotkey.Binding {
	return []hotkey.Binding{
		{Name: BindingCapture, Shortcut: st.Shortcut, Callback: s.OnCaptureHotkey},
		{Name: BindingQuickOpen, Shortcut: st.QuickOpenShortcut, Callback: s.OnQuickOpenHotkey},
	}
}

// Close waits for running paste sessions and closes the history journal.
func (s *Service) Close() {
	if s.Supervisor != nil {
		s.Supervisor.Wait()
	}
	if s.History != nil {
		if err := s.History.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close history")
		}
	}
}
