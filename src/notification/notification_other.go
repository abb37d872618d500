//go:build !windows

package notification

// showPlatform has no native dialog here; Show has already logged the message.
func showPlatform(title, message string) error { return nil }
