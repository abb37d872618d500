package screenshot

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func gradient(w, h int, origin image.Point) *image.RGBA {
	img := image.NewRGBA(image.Rectangle{Min: origin, Max: origin.Add(image.Pt(w, h))})
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(origin.X+x, origin.Y+y, color.RGBA{R: uint8(x), G: uint8(y), B: 7, A: 255})
		}
	}
	return img
}

func TestCrop(t *testing.T) {
	src := gradient(64, 48, image.Point{})
	out := Crop(src, image.Rect(10, 5, 30, 25))

	if out.Bounds() != image.Rect(0, 0, 20, 20) {
		t.Fatalf("Expected 20x20 at origin, got %v", out.Bounds())
	}
	if got := out.RGBAAt(0, 0); got.R != 10 || got.G != 5 {
		t.Errorf("Expected top-left pixel (10,5), got %+v", got)
	}
	if got := out.RGBAAt(19, 19); got.R != 29 || got.G != 24 {
		t.Errorf("Expected bottom-right pixel (29,24), got %+v", got)
	}
	if len(out.Pix) != 20*20*4 {
		t.Errorf("Expected tightly packed RGBA buffer, got %d bytes", len(out.Pix))
	}
}

func TestCropOffsetSnapshot(t *testing.T) {
	src := gradient(32, 32, image.Pt(100, 200))
	out := Crop(src, image.Rect(1, 2, 3, 4))
	if got := out.RGBAAt(0, 0); got.R != 1 || got.G != 2 {
		t.Errorf("Expected crop relative to snapshot origin, got %+v", got)
	}
}

func TestEncodePNG(t *testing.T) {
	data, err := EncodePNG(gradient(4, 3, image.Point{}))
	if err != nil {
		t.Fatalf("EncodePNG failed: %v", err)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Expected valid PNG: %v", err)
	}
	if cfg.Width != 4 || cfg.Height != 3 {
		t.Errorf("Expected 4x3, got %dx%d", cfg.Width, cfg.Height)
	}
}

func TestPrimary(t *testing.T) {
	// Headless machines have no displays; only check that the call behaves.
	m, err := Primary()
	if err != nil {
		t.Logf("No primary display (expected in headless environment): %v", err)
		return
	}
	if m.Bounds().Empty() {
		t.Error("Expected non-empty primary display bounds")
	}
}
