package tray

import (
	"sync"

	"github.com/getlantern/systray"
	"github.com/rs/zerolog/log"
)

const defaultTitle = "Crop to AI"

// Actions are the menu callbacks. Nil entries hide the item.
type Actions struct {
	Capture func()
	Open    func()
	Reload  func()
	// Quit runs after the tray has been told to exit.
	Quit func()
}

var (
	mu        sync.Mutex
	ready     bool
	tooltip   = defaultTitle
	aboutItem *systray.MenuItem
	aboutText string
)

// Run blocks on the platform tray loop until Quit. onStart runs once the tray
// is ready, on its own goroutine.
func Run(actions Actions, onStart func()) {
	systray.Run(func() { onReady(actions, onStart) }, onExit)
}

// Quit exits the tray loop.
func Quit() { systray.Quit() }

func onReady(actions Actions, onStart func()) {
	systray.SetIcon(Icon())
	systray.SetTitle(defaultTitle)

	mu.Lock()
	ready = true
	systray.SetTooltip(tooltip)
	mu.Unlock()

	var mCapture, mOpen, mReload *systray.MenuItem
	if actions.Capture != nil {
		mCapture = systray.AddMenuItem("Capture", "Select a region and send it to the AI chat")
	}
	if actions.Open != nil {
		mOpen = systray.AddMenuItem("Open AI chat", "Open the configured AI chat")
	}
	if actions.Reload != nil {
		mReload = systray.AddMenuItem("Reload shortcut", "Re-read settings and re-register the hotkeys")
	}
	systray.AddSeparator()
	mu.Lock()
	aboutItem = systray.AddMenuItem(aboutLabel(), "")
	aboutItem.Disable()
	mu.Unlock()
	mQuit := systray.AddMenuItem("Quit", "Quit the application")

	go func() {
		for {
			select {
			case <-clicked(mCapture):
				actions.Capture()
			case <-clicked(mOpen):
				actions.Open()
			case <-clicked(mReload):
				actions.Reload()
			case <-mQuit.ClickedCh:
				log.Info().Msg("Tray: quit requested")
				systray.Quit()
				if actions.Quit != nil {
					actions.Quit()
				}
				return
			}
		}
	}()

	if onStart != nil {
		go onStart()
	}
}

func onExit() {
	mu.Lock()
	ready = false
	mu.Unlock()
}

// clicked returns a nil channel for hidden items so select never picks them.
func clicked(item *systray.MenuItem) <-chan struct{} {
	if item == nil {
		return nil
	}
	return item.ClickedCh
}

// UpdateTooltip sets the tray tooltip, or remembers it until the tray is up.
func UpdateTooltip(text string) {
	mu.Lock()
	defer mu.Unlock()
	tooltip = text
	if ready {
		systray.SetTooltip(text)
	}
}

// SetAboutExtra shows a read-only line in the menu, such as the resident port.
func SetAboutExtra(text string) {
	mu.Lock()
	defer mu.Unlock()
	aboutText = text
	if aboutItem != nil {
		aboutItem.SetTitle(aboutLabel())
	}
}

func aboutLabel() string {
	if aboutText == "" {
		return defaultTitle
	}
	return defaultTitle + " - " + aboutText
}
