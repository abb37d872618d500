package window

import "strings"

// Inspector reports the title of the window that currently has keyboard focus.
type Inspector interface {
	// Title returns the foreground window title. ok is false when no title is
	// available, either transiently or because the platform cannot tell.
	Title() (title string, ok bool)
}

// InspectorFunc adapts a plain function to Inspector.
type InspectorFunc func() (string, bool)

func (f InspectorFunc) Title() (string, bool) { return f() }

type unavailable struct{}

func (unavailable) Title() (string, bool) { return "", false }

// Unavailable never reports a title. Watchers using it fall back to their timeout.
var Unavailable Inspector = unavailable{}

// New returns the inspector for the current platform.
func New() Inspector {
	return newPlatformInspector()
}

// Supported reports whether i can ever produce a title.
func Supported(i Inspector) bool {
	_, isUnavailable := i.(unavailable)
	return i != nil && !isUnavailable
}

func normalize(title string) (string, bool) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", false
	}
	return title, true
}
