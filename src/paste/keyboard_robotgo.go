//go:build cgo

package paste

import (
	"os"
	"runtime"

	"github.com/go-vgo/robotgo"
)

type robotgoKeyboard struct{}

func newPlatformKeyboard() (Keyboard, error) {
	// robotgo drives X11 on Linux; without a display there is nothing to type into.
	if runtime.GOOS == "linux" && os.Getenv("DISPLAY") == "" {
		return nil, ErrNoKeyboard
	}
	return robotgoKeyboard{}, nil
}

func (robotgoKeyboard) Press(key string) error   { return robotgo.KeyToggle(key, "down") }
func (robotgoKeyboard) Click(key string) error   { return robotgo.KeyTap(key) }
func (robotgoKeyboard) Release(key string) error { return robotgo.KeyToggle(key, "up") }
