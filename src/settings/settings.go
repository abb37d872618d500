package settings

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const (
	DefaultAIURL = "https://gemini.google.com/app"
	// StoreKey is the key the settings object lives under inside the store file.
	StoreKey = "settings"
)

var ErrInvalidURL = errors.New("URL must start with http:// or https://")

// Shortcut is a global key binding as the settings UI records it.
type Shortcut struct {
	Modifiers []string `json:"modifiers" yaml:"modifiers"`
	Key       string   `json:"key" yaml:"key"`
}

func (s Shortcut) String() string {
	parts := append(append([]string{}, s.Modifiers...), s.Key)
	return strings.Join(parts, "+")
}

// Settings mirrors the "settings" object of the store.
type Settings struct {
	AIURL             string   `json:"aiUrl" yaml:"aiUrl"`
	Shortcut          Shortcut `json:"shortcut" yaml:"shortcut"`
	QuickOpenShortcut Shortcut `json:"quickOpenShortcut" yaml:"quickOpenShortcut"`
	AutoUpdate        bool     `json:"autoUpdate" yaml:"autoUpdate"`
}

// TargetConfig is the immutable snapshot the capture path works from.
type TargetConfig struct {
	AIURL    string
	Shortcut Shortcut
}

func Defaults() Settings {
	return Settings{
		AIURL:             DefaultAIURL,
		Shortcut:          Shortcut{Modifiers: []string{"Control", "Shift"}, Key: "Q"},
		QuickOpenShortcut: Shortcut{Modifiers: []string{"Control", "Shift"}, Key: "W"},
		AutoUpdate:        true,
	}
}

// Target returns a copy of the fields the capture path needs.
func (s Settings) Target() TargetConfig {
	return TargetConfig{
		AIURL: s.AIURL,
		Shortcut: Shortcut{
			Modifiers: append([]string(nil), s.Shortcut.Modifiers...),
			Key:       s.Shortcut.Key,
		},
	}
}

// Parse reads store file content. Missing or mistyped fields keep their defaults.
func Parse(data []byte) Settings {
	st := Defaults()
	if !gjson.ValidBytes(data) {
		return st
	}
	root := gjson.GetBytes(data, StoreKey)
	if !root.IsObject() {
		return st
	}

	if v := root.Get("aiUrl"); v.Type == gjson.String && strings.TrimSpace(v.Str) != "" {
		st.AIURL = strings.TrimSpace(v.Str)
	}
	if sc, ok := parseShortcut(root.Get("shortcut")); ok {
		st.Shortcut = sc
	}
	if sc, ok := parseShortcut(root.Get("quickOpenShortcut")); ok {
		st.QuickOpenShortcut = sc
	}
	if v := root.Get("autoUpdate"); v.IsBool() {
		st.AutoUpdate = v.Bool()
	}
	return st
}

func parseShortcut(v gjson.Result) (Shortcut, bool) {
	if !v.IsObject() {
		return Shortcut{}, false
	}
	key := v.Get("key")
	if key.Type != gjson.String || strings.TrimSpace(key.Str) == "" {
		return Shortcut{}, false
	}
	sc := Shortcut{Key: strings.TrimSpace(key.Str), Modifiers: []string{}}
	mods := v.Get("modifiers")
	if mods.Exists() && !mods.IsArray() {
		return Shortcut{}, false
	}
	for _, m := range mods.Array() {
		if m.Type != gjson.String {
			return Shortcut{}, false
		}
		sc.Modifiers = append(sc.Modifiers, m.Str)
	}
	return sc, true
}

// ValidateURL accepts absolute http and https URLs only.
func ValidateURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidURL
	}
	return nil
}

// Store reads and writes the settings file.
type Store struct {
	path string
	mu   sync.Mutex
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the settings file location.
func (s *Store) Path() string { return s.path }

// Load never fails: unreadable files yield defaults.
func (s *Store) Load() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Warn().Err(err).Str("path", s.path).Msg("settings: read failed, using defaults")
		}
		return Defaults()
	}
	return Parse(data)
}

// Save writes st under StoreKey, keeping any other keys already in the file.
func (s *Store) Save(st Settings) error {
	if err := ValidateURL(st.AIURL); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil || !gjson.ValidBytes(data) {
		data = []byte("{}")
	}
	out, err := sjson.SetBytes(data, StoreKey, st)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}
	if err := os.WriteFile(s.path, out, 0o644); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	log.Info().Str("path", s.path).Msg("settings: saved")
	return nil
}

// Update loads, applies fn and saves.
func (s *Store) Update(fn func(*Settings)) (Settings, error) {
	st := s.Load()
	fn(&st)
	if err := s.Save(st); err != nil {
		return Settings{}, err
	}
	return st, nil
}
