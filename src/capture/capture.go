package capture

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/rs/zerolog/log"

	"crop-to-ai/src/logutil"
	"crop-to-ai/src/opener"
	"crop-to-ai/src/screenshot"
	"crop-to-ai/src/settings"
)

// ErrInvalidRegion is shown to the user verbatim, hence the capital letter.
var ErrInvalidRegion = errors.New("Invalid selection region") //nolint:staticcheck

// SuccessMessage is returned when the image reached the clipboard.
const SuccessMessage = "Screenshot captured!"

// Request is a selection in logical (unscaled) UI coordinates.
type Request struct {
	X           int
	Y           int
	Width       int
	Height      int
	ScaleFactor float64
}

// ImageWriter puts an image on the clipboard.
type ImageWriter interface {
	WriteImage(img *image.RGBA) error
}

// MonitorSource returns the display to capture.
type MonitorSource func() (screenshot.Monitor, error)

// Pipeline crops the selection, delivers it to the clipboard and hands over to
// the focus watcher.
type Pipeline struct {
	Monitor   MonitorSource
	Clipboard ImageWriter
	Opener    opener.Opener
	// Watch starts a detached paste session for the target URL.
	Watch func(targetURL string)
}

// ScaleAndClamp converts req to physical pixels and clamps it to a monitor of
// size width x height. Out-of-range input is clamped rather than rejected; only a
// rectangle that ends up with no area is an error.
func ScaleAndClamp(req Request, width, height int) (image.Rectangle, error) {
	scale := req.ScaleFactor
	if scale <= 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		scale = 1
	}

	x := clamp(scaled(req.X, scale), 0, max(width-1, 0))
	y := clamp(scaled(req.Y, scale), 0, max(height-1, 0))
	w := clamp(scaled(req.Width, scale), 0, max(width-x, 0))
	h := clamp(scaled(req.Height, scale), 0, max(height-y, 0))

	if w == 0 || h == 0 {
		return image.Rectangle{}, ErrInvalidRegion
	}
	return image.Rect(x, y, x+w, y+h), nil
}

func scaled(v int, scale float64) int {
	return int(math.Round(float64(v) * scale))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Capture runs the synchronous part of a capture. Monitor, capture and clipboard
// failures are returned; opening the URL and starting the watcher are best-effort
// because the clipboard already holds the result.
func (p *Pipeline) Capture(req Request, target settings.TargetConfig) (string, error) {
	log.Info().Str("region", logutil.Region(req.X, req.Y, req.Width, req.Height)).Float64("scale", req.ScaleFactor).Msg("capture: request")

	// Reject regions that cannot have area before touching any device.
	if req.Width <= 0 || req.Height <= 0 {
		return "", ErrInvalidRegion
	}

	monitorSource := p.Monitor
	if monitorSource == nil {
		monitorSource = screenshot.Primary
	}
	monitor, err := monitorSource()
	if err != nil {
		if errors.Is(err, screenshot.ErrNoMonitor) {
			return "", err
		}
		return "", fmt.Errorf("monitor error: %w", err)
	}

	snapshot, err := monitor.Capture()
	if err != nil {
		return "", fmt.Errorf("capture error: %w", err)
	}

	size := snapshot.Bounds().Size()
	rect, err := ScaleAndClamp(req, size.X, size.Y)
	if err != nil {
		log.Warn().Int("monitorWidth", size.X).Int("monitorHeight", size.Y).Msg("capture: region empty after clamping")
		return "", err
	}
	cropped := screenshot.Crop(snapshot, rect)

	if p.Clipboard == nil {
		return "", errors.New("clipboard error: no clipboard configured")
	}
	if err := p.Clipboard.WriteImage(cropped); err != nil {
		return "", fmt.Errorf("clipboard error: %w", err)
	}
	log.Info().Int("width", rect.Dx()).Int("height", rect.Dy()).Msg("capture: image copied to clipboard")

	if p.Opener != nil {
		if err := p.Opener.Open(target.AIURL); err != nil {
			log.Warn().Err(err).Msg("capture: failed to open target URL")
		}
	}

	p.startWatch(target.AIURL)
	return SuccessMessage, nil
}

func (p *Pipeline) startWatch(targetURL string) {
	if p.Watch == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Error().Msgf("capture: failed to start watcher: %v", r)
		}
	}()
	p.Watch(targetURL)
}
