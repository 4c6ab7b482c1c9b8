// Package convert reduces a rendered card to the inks a tri-color e-paper
// panel can show: white, black and red.
package convert

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
)

// Palette indexes match inkColor.
var Palette = color.Palette{
	color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF},
	color.NRGBA{A: 0xFF},
	color.NRGBA{R: 0xCC, A: 0xFF},
}

type inkColor uint8

const (
	inkWhite inkColor = iota
	inkBlack
	inkRed
)

// Quantize maps every pixel of img to one of the Palette inks. There is no
// dithering: text and flat blocks are all a card contains.
func Quantize(img image.Image) *image.Paletted {
	b := img.Bounds()
	out := image.NewPaletted(b, Palette)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			out.SetColorIndex(x, y, uint8(classifyPixel(c)))
		}
	}
	return out
}

// QuantizePNG decodes a PNG, quantizes it and encodes the result as PNG.
func QuantizePNG(data []byte) ([]byte, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("convert: decode png: %w", err)
	}
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, Quantize(img)); err != nil {
		return nil, fmt.Errorf("convert: encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// classifyPixel picks the ink for one pixel:
//
//   - alpha < 128                         → white
//   - luma Y = 0.299R+0.587G+0.114B < 64  → black
//   - R > 128 and R - max(G, B) > 32       → red
//   - otherwise                           → white
func classifyPixel(c color.NRGBA) inkColor {
	if c.A < 128 {
		return inkWhite
	}
	r, g, b := float64(c.R), float64(c.G), float64(c.B)

	if y := 0.299*r + 0.587*g + 0.114*b; y < 64 {
		return inkBlack
	}
	if r > 128 && r-max(g, b) > 32 {
		return inkRed
	}
	return inkWhite
}
