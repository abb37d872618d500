//go:build windows

package main

import (
	"github.com/rs/zerolog/log"
	"golang.org/x/sys/windows"
)

// enableDPIAwareness makes screen coordinates physical pixels so the selector,
// the capture and the scale factor agree.
func enableDPIAwareness() {
	shcore := windows.NewLazySystemDLL("Shcore.dll")
	setProcessDpiAwareness := shcore.NewProc("SetProcessDpiAwareness")
	const processPerMonitorDPIAware = 2
	if err := setProcessDpiAwareness.Find(); err == nil {
		ret, _, _ := setProcessDpiAwareness.Call(uintptr(processPerMonitorDPIAware))
		if ret == 0 {
			log.Debug().Msg("DPI: per-monitor DPI awareness set")
		} else {
			log.Warn().Uint64("code", uint64(ret)).Msg("DPI: failed to set per-monitor DPI awareness")
		}
		return
	}

	user32 := windows.NewLazySystemDLL("user32.dll")
	setProcessDPIAware := user32.NewProc("SetProcessDPIAware")
	if err := setProcessDPIAware.Find(); err != nil {
		log.Warn().Msg("DPI: no DPI awareness API available")
		return
	}
	if ret, _, _ := setProcessDPIAware.Call(); ret != 0 {
		log.Debug().Msg("DPI: system DPI awareness set (fallback)")
	}
}

func logMonitorConfiguration() {
	user32 := windows.NewLazySystemDLL("user32.dll")
	getSystemMetrics := user32.NewProc("GetSystemMetrics")
	metric := func(index int) int {
		ret, _, _ := getSystemMetrics.Call(uintptr(index))
		return int(int32(ret))
	}

	const (
		smCXScreen        = 0
		smCYScreen        = 1
		smXVirtualScreen  = 76
		smYVirtualScreen  = 77
		smCXVirtualScreen = 78
		smCYVirtualScreen = 79
		smCMonitors       = 80
	)
	log.Info().
		Int("monitors", metric(smCMonitors)).
		Int("virtualX", metric(smXVirtualScreen)).
		Int("virtualY", metric(smYVirtualScreen)).
		Int("virtualW", metric(smCXVirtualScreen)).
		Int("virtualH", metric(smCYVirtualScreen)).
		Int("primaryW", metric(smCXScreen)).
		Int("primaryH", metric(smCYScreen)).
		Msg("MONITOR: configuration")
}
