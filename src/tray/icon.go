package tray

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"runtime"
)

const iconSize = 32

var (
	selectionBlue = color.RGBA{R: 0x00, G: 0x78, B: 0xd4, A: 0xff}
	arrowGrey     = color.RGBA{R: 0x33, G: 0x33, B: 0x33, A: 0xff}
)

// renderIcon draws a dashed selection rectangle with an arrow leaving its corner.
func renderIcon() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, iconSize, iconSize))
	x0, y0, x1, y1 := 4, 5, 22, 19
	for x := x0; x <= x1; x++ {
		if (x/2)%2 == 0 {
			img.Set(x, y0, selectionBlue)
			img.Set(x, y1, selectionBlue)
		}
	}
	for y := y0; y <= y1; y++ {
		if (y/2)%2 == 0 {
			img.Set(x0, y, selectionBlue)
			img.Set(x1, y, selectionBlue)
		}
	}
	// Arrow towards the bottom-right corner.
	for i := 0; i < 9; i++ {
		img.Set(18+i, 15+i, arrowGrey)
		img.Set(19+i, 15+i, arrowGrey)
	}
	for i := 0; i < 5; i++ {
		img.Set(27-i, 23, arrowGrey)
		img.Set(27, 23-i, arrowGrey)
	}
	return img
}

// IconPNG returns the tray icon encoded as PNG.
func IconPNG() []byte {
	var buf bytes.Buffer
	if err := png.Encode(&buf, renderIcon()); err != nil {
		return nil
	}
	return buf.Bytes()
}

// wrapICO embeds a PNG in a single-image ICO container.
func wrapICO(pngData []byte) []byte {
	var buf bytes.Buffer
	// ICONDIR
	_ = binary.Write(&buf, binary.LittleEndian, []uint16{0, 1, 1})
	// ICONDIRENTRY; width and height of 0 mean 256, so sizes below that are literal.
	buf.Write([]byte{iconSize, iconSize, 0, 0})
	_ = binary.Write(&buf, binary.LittleEndian, []uint16{1, 32})
	_ = binary.Write(&buf, binary.LittleEndian, []uint32{uint32(len(pngData)), 6 + 16})
	buf.Write(pngData)
	return buf.Bytes()
}

// Icon returns the icon in the format the platform tray expects.
func Icon() []byte {
	data := IconPNG()
	if runtime.GOOS == "windows" {
		return wrapICO(data)
	}
	return data
}
