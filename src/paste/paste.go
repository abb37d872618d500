package paste

import (
	"errors"
	"runtime"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrNoKeyboard is returned by keyboard factories when synthetic input is not possible.
var ErrNoKeyboard = errors.New("synthetic keyboard unavailable")

// Keyboard issues synthetic key events to whatever window has focus.
type Keyboard interface {
	Press(key string) error
	Click(key string) error
	Release(key string) error
}

// KeyboardFactory acquires a Keyboard for one paste.
type KeyboardFactory func() (Keyboard, error)

// Injector sends the platform paste combination.
type Injector struct {
	NewKeyboard KeyboardFactory
	Modifier    string
	Key         string
	// PreDelay lets the target settle before the first event.
	PreDelay time.Duration
	// Gap separates events so the target does not coalesce or drop them.
	Gap   time.Duration
	Sleep func(time.Duration)
}

// New returns an injector for the current platform's paste shortcut.
func New() *Injector {
	return &Injector{
		NewKeyboard: newPlatformKeyboard,
		Modifier:    PasteModifier(runtime.GOOS),
		Key:         "v",
		PreDelay:    100 * time.Millisecond,
		Gap:         50 * time.Millisecond,
		Sleep:       time.Sleep,
	}
}

// PasteModifier returns the modifier used for paste on goos.
func PasteModifier(goos string) string {
	if goos == "darwin" {
		return "cmd"
	}
	return "ctrl"
}

// PasteNow presses modifier, clicks the key and releases the modifier. Every
// failure is logged and swallowed; the clipboard still holds the payload for a
// manual paste. The release is attempted even if the earlier steps failed, but
// the modifier can still end up physically held if the OS drops the release.
func (i *Injector) PasteNow() {
	if i.NewKeyboard == nil {
		return
	}
	kb, err := i.NewKeyboard()
	if err != nil {
		log.Debug().Err(err).Msg("paste: no keyboard, skipping")
		return
	}

	i.sleep(i.PreDelay)
	if err := kb.Press(i.Modifier); err != nil {
		log.Warn().Err(err).Str("key", i.Modifier).Msg("paste: press failed")
	}
	i.sleep(i.Gap)
	if err := kb.Click(i.Key); err != nil {
		log.Warn().Err(err).Str("key", i.Key).Msg("paste: click failed")
	}
	i.sleep(i.Gap)
	if err := kb.Release(i.Modifier); err != nil {
		log.Warn().Err(err).Str("key", i.Modifier).Msg("paste: release failed")
	}
	log.Info().Str("combo", i.Modifier+"+"+i.Key).Msg("paste: sent")
}

func (i *Injector) sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	if i.Sleep != nil {
		i.Sleep(d)
		return
	}
	time.Sleep(d)
}
