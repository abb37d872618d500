package screenshot

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"

	"github.com/kbinani/screenshot"
	"golang.org/x/image/draw"
)

var ErrNoMonitor = errors.New("no monitor found")

// Monitor captures one display.
type Monitor interface {
	// Capture returns a full-resolution snapshot of the display.
	Capture() (*image.RGBA, error)
	Bounds() image.Rectangle
}

// Primary returns the first active display. Multi-monitor targeting is not
// supported; the first display the OS reports is used.
func Primary() (Monitor, error) {
	if screenshot.NumActiveDisplays() == 0 {
		return nil, ErrNoMonitor
	}
	return display{index: 0}, nil
}

type display struct{ index int }

func (d display) Bounds() image.Rectangle {
	return screenshot.GetDisplayBounds(d.index)
}

func (d display) Capture() (*image.RGBA, error) {
	img, err := screenshot.CaptureDisplay(d.index)
	if err != nil {
		return nil, fmt.Errorf("failed to capture display %d: %w", d.index, err)
	}
	return img, nil
}

// Crop copies rect, given relative to the snapshot's top-left corner, into a new
// image anchored at (0,0). rect must lie inside src.
func Crop(src *image.RGBA, rect image.Rectangle) *image.RGBA {
	origin := src.Bounds().Min
	dst := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(dst, dst.Bounds(), src, rect.Min.Add(origin), draw.Src)
	return dst
}

// EncodePNG encodes img as PNG bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image as PNG: %w", err)
	}
	return buf.Bytes(), nil
}
