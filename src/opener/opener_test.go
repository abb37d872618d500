package opener

import (
	"errors"
	"testing"

	"crop-to-ai/src/settings"
)

func TestBrowserRejectsNonHTTP(t *testing.T) {
	err := Browser{}.Open("file:///etc/passwd")
	if !errors.Is(err, settings.ErrInvalidURL) {
		t.Errorf("Expected ErrInvalidURL, got %v", err)
	}
}

func TestOpenerFunc(t *testing.T) {
	var got string
	o := OpenerFunc(func(url string) error { got = url; return nil })
	if err := o.Open("https://claude.ai"); err != nil {
		t.Fatal(err)
	}
	if got != "https://claude.ai" {
		t.Errorf("Expected URL to be passed through, got %q", got)
	}
}
