//go:build !windows && !((darwin || linux) && cgo)

package window

func newPlatformInspector() Inspector { return Unavailable }
