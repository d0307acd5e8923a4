package pano

import (
	"image"
	"image/color"
)

// Channels is the number of color samples per pixel.
const Channels = 3

// Image is a dense row-major grid of 8-bit RGB samples.
//
// Image implements image.Image and draw.Image so callers can hand it to the
// standard library encoders. The engine itself only reads and writes Pix.
type Image struct {
	Width  int
	Height int
	Pix    []uint8 // len == Width*Height*Channels
}

// NewImage creates a black image of the given size.
// Non-positive dimensions produce an empty image.
func NewImage(width, height int) *Image {
	if width <= 0 || height <= 0 {
		return &Image{}
	}
	return &Image{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height*Channels),
	}
}

// Stride returns the number of bytes per row.
func (img *Image) Stride() int {
	return img.Width * Channels
}

// PixOffset returns the index of the first sample of pixel (x, y) in Pix.
func (img *Image) PixOffset(x, y int) int {
	return (y*img.Width + x) * Channels
}

// Row returns the samples of row y, or nil if y is out of range.
func (img *Image) Row(y int) []uint8 {
	if y < 0 || y >= img.Height {
		return nil
	}
	start := y * img.Stride()
	return img.Pix[start : start+img.Stride()]
}

// RGB returns the color at (x, y). Out-of-range coordinates return black.
func (img *Image) RGB(x, y int) (r, g, b uint8) {
	if x < 0 || x >= img.Width || y < 0 || y >= img.Height {
		return 0, 0, 0
	}
	i := img.PixOffset(x, y)
	return img.Pix[i], img.Pix[i+1], img.Pix[i+2]
}

// SetRGB sets the color at (x, y). Out-of-range coordinates are ignored.
func (img *Image) SetRGB(x, y int, r, g, b uint8) {
	if x < 0 || x >= img.Width || y < 0 || y >= img.Height {
		return
	}
	i := img.PixOffset(x, y)
	img.Pix[i] = r
	img.Pix[i+1] = g
	img.Pix[i+2] = b
}

// Fill sets every pixel to the given color.
func (img *Image) Fill(r, g, b uint8) {
	for i := 0; i < len(img.Pix); i += Channels {
		img.Pix[i] = r
		img.Pix[i+1] = g
		img.Pix[i+2] = b
	}
}

// Clone creates a deep copy of the image.
func (img *Image) Clone() *Image {
	clone := &Image{
		Width:  img.Width,
		Height: img.Height,
		Pix:    make([]uint8, len(img.Pix)),
	}
	copy(clone.Pix, img.Pix)
	return clone
}

// SameSize returns true if both images have the same dimensions.
func SameSize(a, b *Image) bool {
	return a.Width == b.Width && a.Height == b.Height
}

// ColorModel implements image.Image.
func (img *Image) ColorModel() color.Model {
	return color.RGBAModel
}

// Bounds implements image.Image.
func (img *Image) Bounds() image.Rectangle {
	return image.Rect(0, 0, img.Width, img.Height)
}

// At implements image.Image. Pixels are always opaque.
func (img *Image) At(x, y int) color.Color {
	r, g, b := img.RGB(x, y)
	return color.RGBA{R: r, G: g, B: b, A: 0xff}
}

// Set implements draw.Image. Alpha is discarded.
func (img *Image) Set(x, y int, c color.Color) {
	rgba := color.RGBAModel.Convert(c).(color.RGBA)
	img.SetRGB(x, y, rgba.R, rgba.G, rgba.B)
}

func validatePanorama(p *Image) error {
	if p == nil {
		return paramError("panorama", nil, "image is nil")
	}
	if p.Width < 2 || p.Height < 2 {
		return paramError("panorama size", [2]int{p.Width, p.Height}, "must be at least 2x2")
	}
	if len(p.Pix) < p.Width*p.Height*Channels {
		return paramError("panorama pixels", len(p.Pix), "buffer shorter than width*height*3")
	}
	return nil
}
