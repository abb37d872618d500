//go:build !windows

package main

import (
	"github.com/kbinani/screenshot"
	"github.com/rs/zerolog/log"
)

func enableDPIAwareness() {}

func logMonitorConfiguration() {
	n := screenshot.NumActiveDisplays()
	for i := 0; i < n; i++ {
		log.Info().Int("display", i).Str("bounds", screenshot.GetDisplayBounds(i).String()).Msg("MONITOR: display")
	}
	if n == 0 {
		log.Warn().Msg("MONITOR: no active displays")
	}
}
