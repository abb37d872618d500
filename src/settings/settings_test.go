package settings

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/tidwall/gjson"
)

func TestParseDefaults(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty", ""},
		{"not json", "{{{"},
		{"no settings key", `{"other": 1}`},
		{"settings not object", `{"settings": "nope"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse([]byte(tt.data))
			if !reflect.DeepEqual(got, Defaults()) {
				t.Errorf("Expected defaults, got %+v", got)
			}
		})
	}
}

func TestParseFields(t *testing.T) {
	data := `{"settings": {
		"aiUrl": "https://claude.ai/new",
		"shortcut": {"modifiers": ["Control", "Alt"], "key": "S"},
		"autoUpdate": false
	}}`
	got := Parse([]byte(data))

	if got.AIURL != "https://claude.ai/new" {
		t.Errorf("Expected claude URL, got %q", got.AIURL)
	}
	if !reflect.DeepEqual(got.Shortcut, Shortcut{Modifiers: []string{"Control", "Alt"}, Key: "S"}) {
		t.Errorf("Unexpected shortcut %+v", got.Shortcut)
	}
	if got.AutoUpdate {
		t.Error("Expected autoUpdate false")
	}
	if got.QuickOpenShortcut.Key != "W" {
		t.Errorf("Expected default quick-open shortcut, got %+v", got.QuickOpenShortcut)
	}
}

func TestParseMalformedFieldsFallBack(t *testing.T) {
	data := `{"settings": {
		"aiUrl": 42,
		"shortcut": {"modifiers": "Control", "key": "S"},
		"quickOpenShortcut": {"modifiers": ["Alt"]},
		"autoUpdate": "yes"
	}}`
	got := Parse([]byte(data))
	if !reflect.DeepEqual(got, Defaults()) {
		t.Errorf("Expected defaults for malformed fields, got %+v", got)
	}
}

func TestValidateURL(t *testing.T) {
	valid := []string{"https://gemini.google.com/app", "http://localhost:3000/chat"}
	for _, u := range valid {
		if err := ValidateURL(u); err != nil {
			t.Errorf("ValidateURL(%q) unexpected error: %v", u, err)
		}
	}
	invalid := []string{"", "gemini.google.com", "ftp://example.com", "javascript:alert(1)", "https://"}
	for _, u := range invalid {
		if err := ValidateURL(u); err == nil {
			t.Errorf("ValidateURL(%q) expected error", u)
		}
	}
}

func TestStoreSaveKeepsOtherKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.json")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(`{"windowState": {"x": 10}}`), 0o644); err != nil {
		t.Fatal(err)
	}

	store := NewStore(path)
	st := Defaults()
	st.AIURL = "https://chatgpt.com/"
	if err := store.Save(st); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if gjson.GetBytes(data, "windowState.x").Int() != 10 {
		t.Errorf("Expected unrelated key to survive, got %s", data)
	}
	if got := store.Load(); got.AIURL != "https://chatgpt.com/" {
		t.Errorf("Expected saved URL, got %q", got.AIURL)
	}
}

func TestStoreSaveRejectsBadURL(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "settings.json"))
	st := Defaults()
	st.AIURL = "not a url"
	if err := store.Save(st); err == nil {
		t.Error("Expected error for invalid URL")
	}
}

func TestStoreLoadMissingFile(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "missing.json"))
	if got := store.Load(); !reflect.DeepEqual(got, Defaults()) {
		t.Errorf("Expected defaults, got %+v", got)
	}
}

func TestStoreUpdate(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "settings.json"))
	st, err := store.Update(func(s *Settings) {
		s.Shortcut = Shortcut{Modifiers: []string{"Alt"}, Key: "F2"}
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if st.Shortcut.String() != "Alt+F2" {
		t.Errorf("Expected Alt+F2, got %s", st.Shortcut)
	}
	if store.Load().Shortcut.Key != "F2" {
		t.Error("Expected shortcut to be persisted")
	}
}

func TestTargetIsACopy(t *testing.T) {
	st := Defaults()
	tc := st.Target()
	tc.Shortcut.Modifiers[0] = "Alt"
	if st.Shortcut.Modifiers[0] != "Control" {
		t.Error("Expected TargetConfig to not alias settings")
	}
}
