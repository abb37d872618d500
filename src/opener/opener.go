package opener

import (
	"fmt"

	"github.com/pkg/browser"

	"crop-to-ai/src/settings"
)

// Opener hands a URL to the system's default handler.
type Opener interface {
	Open(url string) error
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(url string) error

func (f OpenerFunc) Open(url string) error { return f(url) }

// Browser opens URLs in the default browser.
type Browser struct{}

func (Browser) Open(url string) error {
	if err := settings.ValidateURL(url); err != nil {
		return fmt.Errorf("refusing to open %q: %w", url, err)
	}
	if err := browser.OpenURL(url); err != nil {
		return fmt.Errorf("failed to open %s: %w", url, err)
	}
	return nil
}
