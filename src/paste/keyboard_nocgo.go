//go:build !cgo

package paste

func newPlatformKeyboard() (Keyboard, error) { return nil, ErrNoKeyboard }
