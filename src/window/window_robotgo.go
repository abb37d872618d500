//go:build (darwin || linux) && cgo

package window

import "github.com/go-vgo/robotgo"

// robotgoInspector reads the active window title through robotgo. On Wayland
// sessions robotgo usually returns an empty title, which reads as unavailable.
type robotgoInspector struct{}

func newPlatformInspector() Inspector { return robotgoInspector{} }

func (robotgoInspector) Title() (string, bool) {
	return normalize(robotgo.GetTitle())
}
