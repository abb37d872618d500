package hotkey

import (
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	gohook "github.com/robotn/gohook"

	"crop-to-ai/src/settings"
)

// Binding ties a named shortcut to the callback it fires.
type Binding struct {
	Name     string
	Shortcut settings.Shortcut
	Callback func()
}

type keyState struct {
	name    string
	codes   []uint16
	pressed bool
}

type combo struct {
	name     string
	label    string
	keys     []keyState
	callback func()
}

// Listener watches the global keyboard hook and fires bindings whose keys are
// all held at once. Bindings can be swapped with Reload while the hook runs.
type Listener struct {
	// Source starts the event stream; End stops it. Both default to gohook.
	Source func() chan gohook.Event
	End    func()

	mu      sync.Mutex
	combos  []*combo
	running bool
	done    chan struct{}
}

func NewListener() *Listener {
	return &Listener{Source: gohook.Start, End: gohook.End}
}

// Start installs bindings and begins consuming hook events in a goroutine.
func (l *Listener) Start(bindings ...Binding) error {
	combos, err := compile(bindings)
	if err != nil {
		return err
	}

	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return fmt.Errorf("hotkey listener already running")
	}
	l.combos = combos
	l.running = true
	l.done = make(chan struct{})
	l.mu.Unlock()

	evChan := l.Source()
	if evChan == nil {
		l.mu.Lock()
		l.running = false
		close(l.done)
		l.mu.Unlock()
		return fmt.Errorf("keyboard hook returned no event channel")
	}

	for _, c := range combos {
		log.Info().Str("binding", c.name).Str("shortcut", c.label).Msg("Hotkey registered")
	}

	done := l.done
	go func() {
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				log.Error().Msgf("PANIC in hotkey goroutine: %v", r)
			}
		}()
		for ev := range evChan {
			l.handle(ev)
		}
		log.Debug().Msg("Hotkey event channel closed")
	}()
	return nil
}

// Reload replaces the active bindings without restarting the hook. On error the
// previous bindings stay in place.
func (l *Listener) Reload(bindings ...Binding) error {
	combos, err := compile(bindings)
	if err != nil {
		return err
	}
	l.mu.Lock()
	l.combos = combos
	l.mu.Unlock()
	for _, c := range combos {
		log.Info().Str("binding", c.name).Str("shortcut", c.label).Msg("Hotkey reloaded")
	}
	return nil
}

// Stop ends the hook and waits for the event goroutine to exit.
func (l *Listener) Stop() {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return
	}
	l.running = false
	done := l.done
	l.mu.Unlock()

	if l.End != nil {
		l.End()
	}
	<-done
}

// Shortcuts returns the labels of the active bindings keyed by name.
func (l *Listener) Shortcuts() map[string]string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]string, len(l.combos))
	for _, c := range l.combos {
		out[c.name] = c.label
	}
	return out
}

func (l *Listener) handle(ev gohook.Event) {
	var fire []func()

	l.mu.Lock()
	switch ev.Kind {
	case gohook.KeyHold, gohook.KeyDown:
		for _, c := range l.combos {
			if !c.press(ev.Keycode) {
				continue
			}
			if c.allPressed() {
				log.Info().Str("binding", c.name).Msg("Hotkey combination detected")
				c.reset()
				if c.callback != nil {
					fire = append(fire, c.callback)
				}
			}
		}
	case gohook.KeyUp:
		for _, c := range l.combos {
			c.release(ev.Keycode)
		}
	}
	l.mu.Unlock()

	for _, cb := range fire {
		cb()
	}
}

func (c *combo) press(code uint16) bool {
	matched := false
	for i := range c.keys {
		if hasCode(c.keys[i].codes, code) {
			c.keys[i].pressed = true
			matched = true
		}
	}
	return matched
}

func (c *combo) release(code uint16) {
	for i := range c.keys {
		if hasCode(c.keys[i].codes, code) {
			c.keys[i].pressed = false
		}
	}
}

func (c *combo) allPressed() bool {
	for i := range c.keys {
		if !c.keys[i].pressed {
			return false
		}
	}
	return true
}

func (c *combo) reset() {
	for i := range c.keys {
		c.keys[i].pressed = false
	}
}

func hasCode(codes []uint16, code uint16) bool {
	for _, c := range codes {
		if c == code {
			return true
		}
	}
	return false
}

func compile(bindings []Binding) ([]*combo, error) {
	combos := make([]*combo, 0, len(bindings))
	for _, b := range bindings {
		names, err := ParseShortcut(b.Shortcut)
		if err != nil {
			return nil, fmt.Errorf("%s shortcut %q: %w", b.Name, b.Shortcut.String(), err)
		}
		c := &combo{name: b.Name, label: b.Shortcut.String(), callback: b.Callback}
		for _, name := range names {
			c.keys = append(c.keys, keyState{name: name, codes: keyNameToCodes(name)})
		}
		combos = append(combos, c)
	}
	return combos, nil
}

// ParseShortcut normalizes a shortcut into hook key names, modifiers first.
func ParseShortcut(sc settings.Shortcut) ([]string, error) {
	var keys []string
	for _, m := range sc.Modifiers {
		name, ok := modifierName(m)
		if !ok {
			return nil, fmt.Errorf("unknown modifier %q", m)
		}
		keys = append(keys, name)
	}
	key := strings.ToLower(strings.TrimSpace(sc.Key))
	if key == "" {
		return nil, fmt.Errorf("missing key")
	}
	if alias, ok := keyAliases[key]; ok {
		key = alias
	}
	if len(keyNameToCodes(key)) == 0 {
		return nil, fmt.Errorf("unknown key %q", sc.Key)
	}
	return append(keys, key), nil
}

// FromString splits "Control+Shift+Q" into a Shortcut. The last part is the key.
func FromString(s string) (settings.Shortcut, error) {
	parts := strings.Split(s, "+")
	sc := settings.Shortcut{Modifiers: []string{}}
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			return settings.Shortcut{}, fmt.Errorf("invalid shortcut %q", s)
		}
		if i == len(parts)-1 {
			sc.Key = p
		} else {
			sc.Modifiers = append(sc.Modifiers, p)
		}
	}
	if _, err := ParseShortcut(sc); err != nil {
		return settings.Shortcut{}, err
	}
	return sc, nil
}

func modifierName(m string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(m)) {
	case "control", "ctrl", "commandorcontrol", "cmdorctrl":
		return "ctrl", true
	case "shift":
		return "shift", true
	case "alt", "option":
		return "alt", true
	case "meta", "super", "command", "cmd", "win":
		return "cmd", true
	}
	return "", false
}

var keyAliases = map[string]string{
	"return": "enter",
	"escape": "esc",
	"del":    "delete",
	"ins":    "insert",
	"pgup":   "pageup",
	"pgdn":   "pagedown",
}

// Modifiers match either side of the keyboard.
var modifierVariants = map[string][]string{
	"ctrl":  {"ctrl", "lctrl", "rctrl"},
	"shift": {"shift", "lshift", "rshift"},
	"alt":   {"alt", "lalt", "ralt"},
	"cmd":   {"cmd", "lcmd", "rcmd"},
}

// keyNameToCodes maps a key name to the hook keycodes that represent it.
func keyNameToCodes(name string) []uint16 {
	name = strings.ToLower(strings.TrimSpace(name))
	variants, ok := modifierVariants[name]
	if !ok {
		variants = []string{name}
	}
	var codes []uint16
	for _, v := range variants {
		code, ok := gohook.Keycode[v]
		if !ok || hasCode(codes, code) {
			continue
		}
		codes = append(codes, code)
	}
	return codes
}
