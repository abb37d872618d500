package clipboard

import (
	"fmt"
	"image"
	"sync"

	"golang.design/x/clipboard"

	"crop-to-ai/src/screenshot"
)

var (
	initOnce sync.Once
	initErr  error
	writeMu  sync.Mutex
)

// Init prepares the system clipboard. It is safe to call repeatedly.
func Init() error {
	initOnce.Do(func() {
		initErr = clipboard.Init()
	})
	return initErr
}

// System writes to the OS clipboard.
type System struct{}

// WriteImage places img on the clipboard as an image. The clipboard library
// exchanges images as PNG, so the raw RGBA buffer is encoded on the way in.
func (System) WriteImage(img *image.RGBA) error {
	if img == nil || img.Bounds().Empty() {
		return fmt.Errorf("empty image")
	}
	if err := Init(); err != nil {
		return fmt.Errorf("clipboard unavailable: %w", err)
	}
	data, err := screenshot.EncodePNG(img)
	if err != nil {
		return err
	}

	// Mutex-guarded so overlapping captures do not interleave writes.
	writeMu.Lock()
	defer writeMu.Unlock()
	clipboard.Write(clipboard.FmtImage, data)
	return nil
}
