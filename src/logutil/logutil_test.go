package logutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestSanitizeForLog(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Claude", "Claude"},
		{"line1\nline2", "line1\\nline2"},
		{"tab\there", "tab\\there"},
		{"bell\a", "bell?"},
		{strings.Repeat("x", 120), strings.Repeat("x", 100) + "..."},
		// Three-byte runes: the cut backs off to the last whole rune.
		{strings.Repeat("ệ", 40), strings.Repeat("ệ", 33) + "..."},
		{"Trò chuyện " + strings.Repeat("ư", 60), "Trò chuyện " + strings.Repeat("ư", 43) + "..."},
	}
	for _, tt := range tests {
		got := SanitizeForLog(tt.in)
		if got != tt.want {
			t.Errorf("SanitizeForLog(%q) = %q, expected %q", tt.in, got, tt.want)
		}
		if !utf8.ValidString(got) || strings.ContainsRune(got, utf8.RuneError) {
			t.Errorf("SanitizeForLog(%q) produced a broken rune: %q", tt.in, got)
		}
	}
}

func TestParseLevel(t *testing.T) {
	if ParseLevel("") != zerolog.DebugLevel {
		t.Error("Expected debug for empty level")
	}
	if ParseLevel("WARN") != zerolog.WarnLevel {
		t.Error("Expected warn level")
	}
	if ParseLevel("nonsense") != zerolog.DebugLevel {
		t.Error("Expected debug for unknown level")
	}
}

func TestSetupWritesFile(t *testing.T) {
	dir := t.TempDir()
	Setup(Options{EnableFileLogging: true, Level: "info", Dir: dir})
	defer Setup(Options{})

	log.Info().Msg("hello from test")

	data, err := os.ReadFile(filepath.Join(dir, logFileName))
	if err != nil {
		t.Fatalf("Expected log file: %v", err)
	}
	if !strings.Contains(string(data), "hello from test") {
		t.Errorf("Expected log line in file, got %q", string(data))
	}
}

func TestRegion(t *testing.T) {
	if got := Region(10, 20, 300, 200); got != "300x200+10+20" {
		t.Errorf("Region() = %q", got)
	}
}
