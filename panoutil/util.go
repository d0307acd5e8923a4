// Package panoutil provides panorama utility functions built on package pano.
//
// This package offers higher-level operations for working with panoramas,
// including conversion to and from the standard library image types,
// synthetic test panoramas, validation reports and image comparison.
//
// Example usage:
//
//	p := panoutil.FromImage(decoded)
//	if r := panoutil.ValidatePanorama(p); !r.Valid {
//	    fmt.Println(r.Errors)
//	}
package panoutil

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/flatten360/go-flatten360/pano"
)

// ===========================================
// Conversion
// ===========================================

// FromImage copies any image.Image into a pano.Image. Alpha is dropped.
func FromImage(src image.Image) *pano.Image {
	if p, ok := src.(*pano.Image); ok {
		return p.Clone()
	}

	b := src.Bounds()
	dst := pano.NewImage(b.Dx(), b.Dy())

	switch s := src.(type) {
	case *image.RGBA:
		copyRGBA(dst, s.Pix, s.Stride)
		return dst
	case *image.NRGBA:
		copyRGBA(dst, s.Pix, s.Stride)
		return dst
	}

	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), src, b.Min, draw.Src)
	copyRGBA(dst, rgba.Pix, rgba.Stride)
	return dst
}

// copyRGBA copies 4-byte pixels into dst, dropping the fourth byte.
func copyRGBA(dst *pano.Image, pix []uint8, stride int) {
	for y := 0; y < dst.Height; y++ {
		in := pix[y*stride:]
		out := dst.Row(y)
		for x := 0; x < dst.Width; x++ {
			out[x*3] = in[x*4]
			out[x*3+1] = in[x*4+1]
			out[x*3+2] = in[x*4+2]
		}
	}
}

// ToRGBA copies a pano.Image into an opaque *image.RGBA.
func ToRGBA(src *pano.Image) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, src.Width, src.Height))
	for y := 0; y < src.Height; y++ {
		in := src.Row(y)
		out := dst.Pix[y*dst.Stride:]
		for x := 0; x < src.Width; x++ {
			out[x*4] = in[x*3]
			out[x*4+1] = in[x*3+1]
			out[x*4+2] = in[x*3+2]
			out[x*4+3] = 0xff
		}
	}
	return dst
}

// ===========================================
// Synthetic panoramas
// ===========================================

// RowGradient returns a gray panorama whose row i has value
// round(i * 255 / (height-1)), so the poles are black and white.
func RowGradient(width, height int) *pano.Image {
	img := pano.NewImage(width, height)
	step := 0.0
	if height > 1 {
		step = 255 / float64(height-1)
	}
	for y := 0; y < height; y++ {
		v := uint8(math.Floor(float64(y)*step + 0.5))
		row := img.Row(y)
		for i := range row {
			row[i] = v
		}
	}
	return img
}

// FromLonLat returns a panorama whose pixel colors are a function of
// longitude and latitude under the perspective-extraction parameterization
// (pano.LonLatFromPixel), so a sample can be predicted from its direction.
func FromLonLat(width, height int, fn func(lon, lat float64) color.RGBA) *pano.Image {
	img := pano.NewImage(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			lon, lat := pano.LonLatFromPixel(float64(x), float64(y), width, height)
			c := fn(lon, lat)
			img.SetRGB(x, y, c.R, c.G, c.B)
		}
	}
	return img
}

// SolidFaces returns six size x size faces, each filled with one color.
func SolidFaces(size int, colors [pano.NumFaces]color.RGBA) pano.CubeFaces {
	var faces pano.CubeFaces
	for _, f := range pano.Faces() {
		faces[f] = pano.NewImage(size, size)
		c := colors[f]
		faces[f].Fill(c.R, c.G, c.B)
	}
	return faces
}

// ===========================================
// Validation
// ===========================================

// ValidationResult contains the results of panorama validation.
type ValidationResult struct {
	Valid    bool
	Warnings []string
	Errors   []string
}

// ValidatePanorama checks that p can be converted and reports unusual
// layouts that usually indicate the image is not a full sphere.
func ValidatePanorama(p *pano.Image) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if p == nil {
		result.Valid = false
		result.Errors = append(result.Errors, "panorama is nil")
		return result
	}
	if p.Width < 2 || p.Height < 2 {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("panorama is %dx%d, need at least 2x2", p.Width, p.Height))
		return result
	}
	if len(p.Pix) < p.Width*p.Height*pano.Channels {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("pixel buffer has %d bytes, need %d",
			len(p.Pix), p.Width*p.Height*pano.Channels))
		return result
	}

	// Warnings for unusual configurations
	if p.Width != 2*p.Height {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("aspect ratio %dx%d is not 2:1; pixels will not be square on the sphere", p.Width, p.Height))
	}
	if p.Width > 32768 || p.Height > 16384 {
		result.Warnings = append(result.Warnings, "very large panorama dimensions")
	}

	return result
}

// ValidateFaces checks a cube face set and reports every problem found,
// where pano.CubeFaces.Validate stops at the first.
func ValidateFaces(faces pano.CubeFaces) *ValidationResult {
	result := &ValidationResult{Valid: true}

	size := -1
	for _, f := range pano.Faces() {
		img := faces[f]
		if img == nil {
			result.Valid = false
			result.Errors = append(result.Errors, fmt.Sprintf("%v face is missing", f))
			continue
		}
		if img.Width != img.Height {
			result.Valid = false
			result.Errors = append(result.Errors, fmt.Sprintf("%v face is %dx%d, not square", f, img.Width, img.Height))
		}
		if size < 0 {
			size = img.Width
		} else if img.Width != size {
			result.Valid = false
			result.Errors = append(result.Errors, fmt.Sprintf("%v face width %d differs from %d", f, img.Width, size))
		}
	}
	if result.Valid && size < 8 {
		result.Warnings = append(result.Warnings, fmt.Sprintf("face size %d is very small", size))
	}

	return result
}

// ===========================================
// Comparison
// ===========================================

// CompareOptions configures image comparison behavior.
type CompareOptions struct {
	Tolerance uint8 // Maximum allowed per-channel difference
}

// Compare checks whether two images match within tolerance.
// Returns true if they match, along with any differences found.
func Compare(a, b *pano.Image, opts CompareOptions) (bool, []string) {
	var diffs []string

	if !pano.SameSize(a, b) {
		diffs = append(diffs, fmt.Sprintf("dimensions differ: %dx%d vs %dx%d",
			a.Width, a.Height, b.Width, b.Height))
		return false, diffs
	}

	names := [pano.Channels]string{"R", "G", "B"}
	for c := 0; c < pano.Channels; c++ {
		maxDiff := uint8(0)
		diffCount := 0
		for i := c; i < len(a.Pix); i += pano.Channels {
			d := absDiff(a.Pix[i], b.Pix[i])
			if d > opts.Tolerance {
				diffCount++
				if d > maxDiff {
					maxDiff = d
				}
			}
		}
		if diffCount > 0 {
			diffs = append(diffs, fmt.Sprintf("channel %q: %d pixels differ (max diff: %d)",
				names[c], diffCount, maxDiff))
		}
	}

	return len(diffs) == 0, diffs
}

// MaxDiff returns the largest per-channel difference between two
// same-sized images, or 255 if their sizes differ.
func MaxDiff(a, b *pano.Image) uint8 {
	if !pano.SameSize(a, b) {
		return 255
	}
	var m uint8
	for i := range a.Pix {
		if d := absDiff(a.Pix[i], b.Pix[i]); d > m {
			m = d
		}
	}
	return m
}

func absDiff(a, b uint8) uint8 {
	if a > b {
		return a - b
	}
	return b - a
}
