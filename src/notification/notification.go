package notification

import (
	"github.com/rs/zerolog/log"
)

const maxMessageLen = 200

// Show tells the user about the outcome of a hotkey or tray action that has no
// caller to return an error to. It never blocks.
func Show(title, message string) {
	message = truncate(message)
	log.Info().Str("title", title).Str("message", message).Msg("Notification")
	go func() {
		if err := showPlatform(title, message); err != nil {
			log.Warn().Err(err).Msg("Failed to show notification")
		}
	}()
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= maxMessageLen {
		return s
	}
	return string(r[:maxMessageLen]) + "..."
}
